// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
net_synchronizer.go - Per-Net Refresh

States of a mirrored net:

	Fresh --(update interval elapsed)--> Stale --(lock held)--> Refreshing
	Refreshing --> Fresh | Closed (remote answered "*error - ...*")

Update is the single entry point. ModeNormal is a no-op while the net is
fresh and re-checks freshness after taking the lock, because a concurrent
holder may have just refreshed it. ModeForced always refreshes once the lock
is held and always fetches the full roster.

Locking:
  - key advisory.NetCacheKey(name), so different nets never contend
  - bounded by Options.LockTimeout; a timeout surfaces as ErrLockTimeout
  - the net is reloaded from the store right after the lock is taken
*/
//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/netmirror/internal/advisory"
	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/metrics"
	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
)

// Mode selects between a staleness-gated and an unconditional refresh.
type Mode int

const (
	// ModeNormal refreshes only a stale net.
	ModeNormal Mode = iota

	// ModeForced refreshes unconditionally and fetches the full roster.
	ModeForced
)

func (m Mode) String() string {
	if m == ModeForced {
		return "forced"
	}
	return "normal"
}

// Result describes one Update call.
type Result struct {
	Changes int

	// Deferred is set when a transport failure postponed the refresh.
	Deferred bool

	// Full is set when the full roster was requested.
	Full bool
}

// Options tunes a NetSynchronizer. Zero values take the defaults.
type Options struct {
	LockTimeout           time.Duration // default 2s
	FullRefreshInterval   time.Duration // default 5m
	DefaultUpdateInterval time.Duration // default 20s
}

// NetSynchronizer refreshes individual nets.
type NetSynchronizer struct {
	store    Store
	remotes  Remotes
	locker   advisory.Locker
	notifier Notifier
	opts     Options
	now      func() time.Time
}

// NewNetSynchronizer creates a synchronizer. notifier may be nil.
func NewNetSynchronizer(store Store, remotes Remotes, locker advisory.Locker, notifier Notifier, opts Options) *NetSynchronizer {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 2 * time.Second
	}
	if opts.FullRefreshInterval <= 0 {
		opts.FullRefreshInterval = 5 * time.Minute
	}
	if opts.DefaultUpdateInterval <= 0 {
		opts.DefaultUpdateInterval = 20 * time.Second
	}
	return &NetSynchronizer{
		store:    store,
		remotes:  remotes,
		locker:   locker,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Update refreshes the named net according to mode. session enriches
// checkins that arrive without a grid square; it may be nil.
func (s *NetSynchronizer) Update(ctx context.Context, name string, mode Mode, session StationLookup) (Result, error) {
	ctx = logging.ContextWithNet(ctx, name)
	start := s.now()

	n, err := s.load(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if mode == ModeNormal && !s.stale(n) {
		return Result{}, nil
	}

	lease, err := s.locker.Acquire(ctx, advisory.NetCacheKey(name), s.opts.LockTimeout)
	if err != nil {
		if errors.Is(err, advisory.ErrTimeout) {
			metrics.RecordNetRefresh(mode == ModeForced, metrics.ResultLockBusy, 0, s.now().Sub(start))
			return Result{}, fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
		return Result{}, fmt.Errorf("acquire net cache lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to release net cache lock")
		}
	}()

	return s.updateLocked(ctx, name, mode, session, start)
}

// updateLocked runs the three stages. The caller holds the net cache lock.
func (s *NetSynchronizer) updateLocked(ctx context.Context, name string, mode Mode, session StationLookup, start time.Time) (Result, error) {
	n, err := s.load(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if mode == ModeNormal && !s.stale(n) {
		metrics.RecordNetRefresh(false, metrics.ResultSkipped, 0, s.now().Sub(start))
		return Result{}, nil
	}

	full := s.needsFull(n, mode)
	log := logging.Ctx(ctx)

	// Stage 1: fetch
	sections, err := s.fetch(ctx, n, full)
	switch {
	case errors.Is(err, netlogger.ErrNotFound):
		if cerr := s.archive(ctx, n); cerr != nil {
			metrics.RecordNetRefresh(full, metrics.ResultError, 0, s.now().Sub(start))
			return Result{}, cerr
		}
		log.Info().Str("reason", err.Error()).Msg("Net closed")
		metrics.RecordNetRefresh(full, metrics.ResultClosed, 0, s.now().Sub(start))
		return Result{}, fmt.Errorf("%w: %s", ErrNetClosed, name)
	case errors.Is(err, netlogger.ErrTransport):
		log.Warn().Err(err).Bool("full", full).Msg("Net refresh deferred")
		metrics.RecordNetRefresh(full, metrics.ResultDeferred, 0, s.now().Sub(start))
		return Result{Deferred: true, Full: full}, nil
	case err != nil:
		metrics.RecordNetRefresh(full, metrics.ResultError, 0, s.now().Sub(start))
		return Result{}, fmt.Errorf("fetch net %q: %w", name, err)
	}

	// Stage 2: merge and derive
	changes, err := Merge(ctx, s.store, n, ParseBatch(sections), full, session, s.now())
	if err != nil {
		metrics.RecordNetRefresh(full, metrics.ResultError, 0, s.now().Sub(start))
		return Result{}, fmt.Errorf("merge net %q: %w", name, err)
	}

	// Stage 3: notify
	s.notify(ctx, n, changes)

	result := metrics.ResultUnchanged
	if changes > 0 {
		result = metrics.ResultUpdated
	}
	metrics.RecordNetRefresh(full, result, changes, s.now().Sub(start))
	log.Debug().Int("changes", changes).Bool("full", full).Str("mode", mode.String()).Msg("Net refreshed")
	return Result{Changes: changes, Full: full}, nil
}

// load finds the live net or explains why there is none.
func (s *NetSynchronizer) load(ctx context.Context, name string) (*models.Net, error) {
	n, err := s.store.FindNetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load net %q: %w", name, err)
	}
	if n != nil {
		return n, nil
	}

	closed, err := s.store.FindClosedNetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load closed net %q: %w", name, err)
	}
	if closed != nil {
		return nil, fmt.Errorf("%w: %s", ErrNetClosed, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrNetNotFound, name)
}

// stale reports whether the net's update interval has elapsed since its
// last refresh of any kind.
func (s *NetSynchronizer) stale(n *models.Net) bool {
	last, ok := n.LastRefreshedAt()
	if !ok {
		return true
	}
	return s.now().Sub(last) >= n.UpdateIntervalDuration(s.opts.DefaultUpdateInterval)
}

func (s *NetSynchronizer) needsFull(n *models.Net, mode Mode) bool {
	if mode == ModeForced || n.FullyUpdatedAt == nil {
		return true
	}
	return s.now().Sub(*n.FullyUpdatedAt) >= s.opts.FullRefreshInterval
}

// fetch requests the net's sections. An incremental request carries the
// newest check-in time, the highest message log id and the extended-data
// serial already mirrored.
func (s *NetSynchronizer) fetch(ctx context.Context, n *models.Net, full bool) (netlogger.Sections, error) {
	params := url.Values{
		"ProtocolVersion": {netlogger.ProtocolVersion},
		"NetName":         {n.Name},
	}
	if !full {
		cursors, err := s.cursors(ctx, n)
		if err != nil {
			return nil, err
		}
		for k, v := range cursors {
			params[k] = v
		}
	}
	return s.remotes.Remote(n.Host).Fetch(ctx, netlogger.EndpointUpdates, params)
}

func (s *NetSynchronizer) cursors(ctx context.Context, n *models.Net) (url.Values, error) {
	checkins, err := s.store.ListCheckins(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	messages, err := s.store.ListMessages(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var lastCheckin time.Time
	for _, c := range checkins {
		if c.CheckedInAt.After(lastCheckin) {
			lastCheckin = c.CheckedInAt
		}
	}
	var lastLog int64
	for _, m := range messages {
		if m.LogID != nil && *m.LogID > lastLog {
			lastLog = *m.LogID
		}
	}

	v := url.Values{}
	v.Set("DeltaUpdateTime", netlogger.FormatTime(lastCheckin))
	v.Set("IMSerial", strconv.FormatInt(lastLog, 10))
	v.Set("LastExtDataSerial", strconv.FormatInt(n.ExtDataSerial, 10))
	return v, nil
}

// archive snapshots a closed net and removes the live one atomically.
func (s *NetSynchronizer) archive(ctx context.Context, n *models.Net) error {
	counts, err := s.store.CountRoster(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("count roster of %q: %w", n.Name, err)
	}
	if err := s.store.ArchiveNet(ctx, n.Archive(counts, s.now().UTC()), n.ID); err != nil {
		return fmt.Errorf("archive net %q: %w", n.Name, err)
	}
	metrics.NetsClosedTotal.Inc()
	return nil
}

func (s *NetSynchronizer) notify(ctx context.Context, n *models.Net, changes int) {
	if changes == 0 || s.notifier == nil {
		return
	}
	if err := s.notifier.NetUpdated(ctx, n, changes); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("changes", changes).Msg("Failed to publish net update")
	}
}
