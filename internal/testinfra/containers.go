// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

//go:build integration

package testinfra

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// RequireDocker skips t when no container runtime answers.
func RequireDocker(t *testing.T) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// StartRedis starts a Redis container for t and terminates it when t ends.
func StartRedis(t *testing.T, opts ...RedisOption) *RedisContainer {
	t.Helper()
	RequireDocker(t)

	rc, err := NewRedisContainer(t.Context(), opts...)
	if rc != nil {
		testcontainers.CleanupContainer(t, rc.Container)
	}
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	return rc
}
