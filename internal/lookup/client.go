// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
client.go - Call Sign Lookup Client

Enriches roster rows with name, location and photo data from a QRZ-style XML
lookup service. Access is session based: a login with username, password and
agent yields a session key that authorizes subsequent lookups until the
service expires it.

Sessions are explicit values. Each poller worker owns one *Session so
concurrent refreshes never share or race on a session key. A lookup that is
rejected because the key expired logs in again and retries exactly once.

Shared across sessions:
  - a token bucket limiter (golang.org/x/time/rate) capping request rate
  - a circuit breaker so an unreachable service is skipped quickly
  - a bounded negative cache of call signs the service does not know
*/
//nolint:staticcheck // File documentation, not package doc
package lookup

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/netmirror/internal/cache"
	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/metrics"
)

var (
	// ErrNotFound is returned when the service has no record for a call sign.
	ErrNotFound = errors.New("call sign not found")

	// ErrSessionExpired is returned when a re-login did not yield a usable
	// session.
	ErrSessionExpired = errors.New("lookup session expired")

	// ErrLogin is returned when the service rejects the credentials.
	ErrLogin = errors.New("lookup login failed")
)

const maxResponseSize = 1 << 20

// Options configures a Client.
type Options struct {
	URL               string
	Username          string
	Password          string
	Agent             string
	RequestsPerSecond float64
	StationTTL        time.Duration
	NegativeCacheSize int
	NegativeTTL       time.Duration
	Timeout           time.Duration

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client holds the resources shared by all sessions.
type Client struct {
	opts     Options
	http     *http.Client
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[*database]
	negative *cache.LRU[string, struct{}]
	now      func() time.Time
}

// NewClient creates a lookup client.
func NewClient(opts Options) *Client {
	if opts.Agent == "" {
		opts.Agent = "netmirror"
	}
	if opts.StationTTL <= 0 {
		opts.StationTTL = 7 * 24 * time.Hour
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = 6 * time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		opts:     opts,
		http:     hc,
		limiter:  rate.NewLimiter(limit, 1),
		cb:       newBreaker(),
		negative: cache.NewLRU[string, struct{}](opts.NegativeCacheSize, opts.NegativeTTL),
		now:      time.Now,
	}
}

// NewSession returns a session that logs in lazily on first lookup.
func (c *Client) NewSession() *Session {
	return &Session{client: c}
}

// login authenticates and returns a fresh session key.
func (c *Client) login(ctx context.Context) (string, error) {
	params := url.Values{
		"username": {c.opts.Username},
		"password": {c.opts.Password},
		"agent":    {c.opts.Agent},
	}
	db, err := c.query(ctx, params)
	if err != nil {
		return "", err
	}
	if db.Session.Key == "" {
		return "", fmt.Errorf("%w: %s", ErrLogin, db.Session.Error)
	}
	return db.Session.Key, nil
}

// query performs one rate-limited, breaker-guarded request.
func (c *Client) query(ctx context.Context, params url.Values) (*database, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	db, err := c.cb.Execute(func() (*database, error) {
		return c.roundTrip(ctx, params)
	})
	if err != nil {
		metrics.LookupRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	return db, nil
}

func (c *Client) roundTrip(ctx context.Context, params url.Values) (*database, error) {
	target := c.opts.URL
	if strings.Contains(target, "?") {
		target += "&" + params.Encode()
	} else {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup request: unexpected status %d", resp.StatusCode)
	}

	var db database
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&db); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	return &db, nil
}

func newBreaker() *gobreaker.CircuitBreaker[*database] {
	const name = "lookup"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	return gobreaker.NewCircuitBreaker[*database](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			state := 0.0
			switch to {
			case gobreaker.StateHalfOpen:
				state = 1
			case gobreaker.StateOpen:
				state = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(name).Set(state)
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}
