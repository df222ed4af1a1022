// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	netKey           contextKey = "net"
)

// GenerateCorrelationID returns a short random id suitable for tying together
// the log lines of one poll cycle.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID attaches a correlation id to ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID attaches a freshly generated correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation id or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithNet attaches the name of the net being processed.
func ContextWithNet(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, netKey, name)
}

// NetFromContext returns the net name or "".
func NetFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(netKey).(string); ok {
		return name
	}
	return ""
}

// Ctx returns the global logger enriched with the values carried by ctx.
//
//	logging.Ctx(ctx).Info().Int("changes", n).Msg("Net refreshed")
//	// {"level":"info","correlation_id":"1a2b3c4d","net":"Tuesday Night Net",...}
func Ctx(ctx context.Context) *zerolog.Logger {
	zctx := Logger().With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		zctx = zctx.Str("correlation_id", id)
	}
	if name := NetFromContext(ctx); name != "" {
		zctx = zctx.Str("net", name)
	}
	l := zctx.Logger()
	return &l
}
