// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package metrics holds the Prometheus instruments for Netmirror. Everything
// is registered on the default registry through promauto and served by the
// metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes used as the "result" label.
const (
	ResultUpdated   = "updated"
	ResultUnchanged = "unchanged"
	ResultSkipped   = "skipped"
	ResultDeferred  = "deferred"
	ResultClosed    = "closed"
	ResultLockBusy  = "lock_timeout"
	ResultError     = "error"
)

var (
	// Net synchronizer
	NetRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netmirror_net_refresh_duration_seconds",
			Help:    "Duration of per-net refreshes, including lock wait",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"}, // "full", "delta"
	)

	NetRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_net_refresh_total",
			Help: "Per-net refresh attempts by outcome",
		},
		[]string{"result"},
	)

	NetChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netmirror_net_changes_total",
			Help: "Total number of counted changes applied by reconciliation",
		},
	)

	NetsClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netmirror_nets_closed_total",
			Help: "Nets archived after the remote reported them closed",
		},
	)

	RowsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_rows_dropped_total",
			Help: "Malformed rows skipped while parsing remote sections",
		},
		[]string{"section"},
	)

	// Directory synchronizer
	DirectoryRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_directory_refresh_total",
			Help: "Directory listing fetches per host by outcome",
		},
		[]string{"host", "result"}, // result: "success", "failure"
	)

	ActiveNets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netmirror_active_nets",
			Help: "Active nets after the last directory reconciliation",
		},
	)

	DirectoryChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_directory_changes_total",
			Help: "Nets created, updated or deleted by directory reconciliation",
		},
		[]string{"action"},
	)

	// Advisory lock
	LockWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netmirror_lock_wait_seconds",
			Help:    "Time spent waiting for the net cache lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	LockTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netmirror_lock_timeouts_total",
			Help: "Lock acquisitions abandoned after the timeout",
		},
	)

	// Remote protocol
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netmirror_remote_request_duration_seconds",
			Help:    "Duration of requests to NetLogger hosts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "endpoint"},
	)

	RemoteRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_remote_request_errors_total",
			Help: "Failed requests to NetLogger hosts",
		},
		[]string{"host", "endpoint", "error_type"}, // "transport", "not_found"
	)

	WriteBackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_writeback_total",
			Help: "Roster write-back submissions by operation and outcome",
		},
		[]string{"operation", "result"},
	)

	// Lookup enrichment
	LookupRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_lookup_requests_total",
			Help: "Call sign lookups by outcome",
		},
		[]string{"result"}, // "hit", "cached", "not_found", "error", "reauth"
	)

	// Events
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmirror_events_published_total",
			Help: "Net updated events handed to the event bus",
		},
		[]string{"result"},
	)

	// HTTP listener
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netmirror_http_request_duration_seconds",
			Help:    "Duration of requests served by the health and metrics listener",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordNetRefresh records one refresh attempt.
func RecordNetRefresh(full bool, result string, changes int, duration time.Duration) {
	kind := "delta"
	if full {
		kind = "full"
	}
	NetRefreshDuration.WithLabelValues(kind).Observe(duration.Seconds())
	NetRefreshTotal.WithLabelValues(result).Inc()
	if changes > 0 {
		NetChangesTotal.Add(float64(changes))
	}
}

// RecordRemoteRequest records a request to a NetLogger host. errType is empty
// on success.
func RecordRemoteRequest(host, endpoint string, duration time.Duration, errType string) {
	RemoteRequestDuration.WithLabelValues(host, endpoint).Observe(duration.Seconds())
	if errType != "" {
		RemoteRequestErrors.WithLabelValues(host, endpoint, errType).Inc()
	}
}

// RecordDirectoryFetch records a directory listing fetch for one host.
func RecordDirectoryFetch(host string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	DirectoryRefreshTotal.WithLabelValues(host, result).Inc()
}

// RecordLockWait records how long an acquisition waited and whether it timed out.
func RecordLockWait(wait time.Duration, timedOut bool) {
	LockWaitDuration.Observe(wait.Seconds())
	if timedOut {
		LockTimeoutsTotal.Inc()
	}
}

// RecordWriteBack records a roster write-back submission.
func RecordWriteBack(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	WriteBackTotal.WithLabelValues(operation, result).Inc()
}

// RecordHTTPRequest records one request served by the local listener.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
