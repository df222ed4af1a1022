// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package eventprocessor publishes net updated events through Watermill.
//
// A refresh that changes a mirrored net hands a NetUpdatedEvent to the
// Publisher, which forwards it either to an in-process gochannel bus or to
// NATS core subjects:
//
//	┌──────────────────┐     ┌─────────────┐     ┌──────────────────┐
//	│ NetSynchronizer  │ ──► │  Publisher  │ ──► │ gochannel / NATS │
//	│ (changes > 0)    │     │ (breaker)   │     │ netmirror.net.*  │
//	└──────────────────┘     └─────────────┘     └──────────────────┘
//
// # Delivery
//
// Delivery is best effort. A failed publish is logged by the caller and never
// fails the refresh that produced it. Repeated failures open the circuit
// breaker so a dead broker costs one rejected call per refresh.
//
// # Message Format
//
// Payloads are JSON (goccy/go-json) with a schema_version field. The
// net_name and host values are copied into the Watermill metadata so
// subscribers can filter without decoding the payload.
package eventprocessor
