// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/netmirror/internal/logging"
)

func serveWithRequestID(t *testing.T, header string) (seen, echoed string) {
	t.Helper()
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.CorrelationIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(RequestIDHeader)
}

func TestRequestID_Generates(t *testing.T) {
	t.Parallel()

	seen, echoed := serveWithRequestID(t, "")
	if seen == "" {
		t.Fatal("expected a generated correlation id")
	}
	if echoed != seen {
		t.Errorf("response header %q, context %q", echoed, seen)
	}
}

func TestRequestID_ReusesUpstream(t *testing.T) {
	t.Parallel()

	seen, echoed := serveWithRequestID(t, "proxy-1234")
	if seen != "proxy-1234" || echoed != "proxy-1234" {
		t.Errorf("seen %q, echoed %q", seen, echoed)
	}
}

func TestRequestID_RejectsOversized(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 200)
	seen, _ := serveWithRequestID(t, long)
	if seen == long || seen == "" {
		t.Errorf("oversized id should be replaced, got %q", seen)
	}
}
