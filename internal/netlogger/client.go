// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
client.go - NetLogger Protocol Client

Speaks the request/response side of the NetLogger server protocol. Responses
are plain text made of <!--Section--> blocks (see Parse). A response carrying
the "*error - message*" sentinel anywhere in the body is reported as a
*RemoteError, which the net synchronizer treats as closure.

The client never retries. Every call passes through a per-host circuit
breaker so a dead host fails fast until the breaker probes it again.
*/
//nolint:staticcheck // File documentation, not package doc
package netlogger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/netmirror/internal/metrics"
)

const (
	// maxBodySize caps how much of a response is read.
	maxBodySize = 8 << 20

	// maxErrorBodySize caps the body excerpt attached to HTTP errors.
	maxErrorBodySize = 4 << 10
)

// Options configures a Client.
type Options struct {
	Scheme             string
	BasePath           string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to one NetLogger host.
type Client struct {
	host    string
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[string]
	cbName  string
}

// NewClient creates a client for host (host[:port]).
func NewClient(host string, opts Options) *Client {
	scheme := opts.Scheme
	if scheme == "" {
		scheme = "http"
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	name := "netlogger-" + host
	return &Client{
		host:    host,
		baseURL: scheme + "://" + host + "/" + strings.Trim(opts.BasePath, "/"),
		http:    hc,
		cb:      newBreaker(name, opts.BreakerMaxFailures, opts.BreakerTimeout),
		cbName:  name,
	}
}

// Host returns the host this client talks to.
func (c *Client) Host() string { return c.host }

// Fetch issues a GET for endpoint with params and decodes the sections.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (Sections, error) {
	return c.call(ctx, http.MethodGet, endpoint, params)
}

// Post submits params as a form to endpoint and decodes the sections.
func (c *Client) Post(ctx context.Context, endpoint string, params url.Values) (Sections, error) {
	return c.call(ctx, http.MethodPost, endpoint, params)
}

func (c *Client) call(ctx context.Context, method, endpoint string, params url.Values) (Sections, error) {
	start := time.Now()
	body, err := c.cb.Execute(func() (string, error) {
		return c.roundTrip(ctx, method, endpoint, params)
	})
	recordBreakerResult(c.cbName, err)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &TransportError{Host: c.host, Endpoint: endpoint, Err: err}
	}
	metrics.RecordRemoteRequest(c.host, endpoint, time.Since(start), errorType(err))
	if err != nil {
		return nil, err
	}
	return Parse(body), nil
}

// roundTrip performs one HTTP exchange and returns the raw body, or a
// *RemoteError when the body carries the error sentinel.
func (c *Client) roundTrip(ctx context.Context, method, endpoint string, params url.Values) (string, error) {
	target := c.baseURL + "/" + endpoint

	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, target, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		if len(params) > 0 {
			target += "?" + params.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, target, http.NoBody)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Host: c.host, Endpoint: endpoint, Err: err}
	}
	defer closeQuietly(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{
			Host:       c.host,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", readBodyForError(resp.Body)),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &TransportError{Host: c.host, Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	body := string(raw)
	if msg, ok := remoteError(body); ok {
		return "", &RemoteError{Host: c.host, Endpoint: endpoint, Message: msg}
	}
	return body, nil
}

func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "transport"
	}
}

// readBodyForError reads a bounded excerpt of an error response.
func readBodyForError(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(b) == maxErrorBodySize {
		return string(b) + "... (truncated)"
	}
	return strings.TrimSpace(string(b))
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
