// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package advisory provides named, time-bounded mutual exclusion.
//
// A lock is identified by a string key and held through a Lease. Acquire
// waits at most the given timeout and fails with ErrTimeout when the key stays
// busy. Two implementations are provided:
//
//   - LocalLocker serializes holders inside one process.
//   - RedisLocker serializes holders across processes sharing a Redis server.
//
// The net synchronizer takes NetCacheKey(name) around every refresh so at most
// one refresh of a given net runs at a time while refreshes of different nets
// proceed in parallel.
package advisory

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/netmirror/internal/metrics"
)

// ErrTimeout is returned when a lock could not be acquired before the timeout.
var ErrTimeout = errors.New("advisory lock timeout")

// netCacheKeyPrefix is the historical lock name used by net refreshes.
const netCacheKeyPrefix = "update net cache"

// NetCacheKey returns the lock key guarding refreshes of the named net.
func NetCacheKey(name string) string {
	return netCacheKeyPrefix + ":" + name
}

// Lease is a held lock. Release is idempotent.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker acquires advisory locks.
type Locker interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (Lease, error)
}

// observe records the wait time of one acquisition attempt.
func observe(start time.Time, err error) {
	metrics.RecordLockWait(time.Since(start), errors.Is(err, ErrTimeout))
}
