// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package testinfra provides container-backed infrastructure for integration
// tests.
//
// Everything here is compiled only with the integration build tag:
//
//	go test -tags integration ./internal/advisory/...
//
// # Redis Container
//
// RedisContainer starts a throwaway Redis for the distributed advisory
// locker:
//
//	func TestRedisLocker(t *testing.T) {
//	    rc := testinfra.StartRedis(t) // skips without Docker
//	    // dial rc.Addr
//	}
//
// Tests are skipped when Docker is unavailable. The first run may need to
// pull the image.
package testinfra
