// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package cache provides a generic, thread-safe LRU cache with per-entry
// expiry. The lookup client uses it to remember call signs the lookup
// service does not know, so repeated checkins of an unlisted station do not
// cost a request each time.
//
//	negative := cache.NewLRU[string, struct{}](1000, 6*time.Hour)
//	negative.Add("N0CALL", struct{}{})
//	if negative.Contains("N0CALL") { ... }
package cache
