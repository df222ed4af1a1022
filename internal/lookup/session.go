// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package lookup

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/metrics"
	"github.com/tomtom215/netmirror/internal/models"
)

// Session is one authenticated conversation with the lookup service. It is
// safe for concurrent use but intended to be owned by a single worker.
type Session struct {
	client *Client

	mu  sync.Mutex
	key string
}

// Lookup returns the station record for callSign. Unknown call signs return
// ErrNotFound and are remembered in the shared negative cache.
func (s *Session) Lookup(ctx context.Context, callSign string) (*models.Station, error) {
	call := strings.ToUpper(strings.TrimSpace(callSign))
	if call == "" {
		return nil, ErrNotFound
	}
	if s.client.negative.Contains(call) {
		metrics.LookupRequestsTotal.WithLabelValues("cached").Inc()
		return nil, ErrNotFound
	}

	db, err := s.fetch(ctx, call)
	if err != nil {
		return nil, err
	}
	if db.Session.sessionExpired() {
		metrics.LookupRequestsTotal.WithLabelValues("reauth").Inc()
		logging.Debug().Str("call_sign", call).Msg("Lookup session expired, logging in again")
		s.reset()
		if db, err = s.fetch(ctx, call); err != nil {
			return nil, err
		}
		if db.Session.sessionExpired() {
			return nil, ErrSessionExpired
		}
	}

	if db.Session.notFound() || db.Callsign == nil {
		s.client.negative.Add(call, struct{}{})
		metrics.LookupRequestsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	metrics.LookupRequestsTotal.WithLabelValues("hit").Inc()
	return db.Callsign.toStation(s.client.now().Add(s.client.opts.StationTTL)), nil
}

// fetch queries one call sign, logging in first if the session has no key.
func (s *Session) fetch(ctx context.Context, call string) (*database, error) {
	key, err := s.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	db, err := s.client.query(ctx, url.Values{"s": {key}, "callsign": {call}})
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", call, err)
	}
	return db, nil
}

func (s *Session) sessionKey(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != "" {
		return s.key, nil
	}
	key, err := s.client.login(ctx)
	if err != nil {
		return "", err
	}
	s.key = key
	return key, nil
}

func (s *Session) reset() {
	s.mu.Lock()
	s.key = ""
	s.mu.Unlock()
}
