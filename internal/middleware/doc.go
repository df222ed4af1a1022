// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package middleware holds the HTTP middleware used by the health and metrics
// listener. Both middlewares use the chi signature func(http.Handler)
// http.Handler:
//
//   - RequestID propagates X-Request-ID and stores it as the logging
//     correlation id, so logging.Ctx(r.Context()) tags every line.
//   - PrometheusMetrics records netmirror_http_request_duration_seconds by
//     method, chi route pattern and status.
package middleware
