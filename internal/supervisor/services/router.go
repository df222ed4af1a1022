// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package services

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/middleware"
)

const (
	healthRateLimit   = 1000
	healthRateWindow  = time.Minute
	healthPingTimeout = 2 * time.Second
)

// Pinger reports whether a dependency is reachable. *database.DB
// implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the /healthz response body.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// NewRouter builds the listener's routes: /metrics for Prometheus and a
// rate-limited /healthz backed by db.
func NewRouter(db Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Handle("/metrics", promhttp.Handler())
	r.With(httprate.LimitByIP(healthRateLimit, healthRateWindow)).
		Get("/healthz", healthHandler(db))

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		status, code := HealthStatus{Status: "ok", Database: "up"}, http.StatusOK
		if err := db.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check failed")
			status = HealthStatus{Status: "degraded", Database: "down", Error: err.Error()}
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write health response")
		}
	}
}
