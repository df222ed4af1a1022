// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package sync

import "testing"

// checkNoError stops the test when a setup step fails.
func checkNoError(t *testing.T, step string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", step, err)
	}
}

// checkEqual reports a mismatch on field without stopping the test.
func checkEqual[T comparable](t *testing.T, field string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}

var (
	checkStringEqual = checkEqual[string]
	checkIntEqual    = checkEqual[int]
	checkBool        = checkEqual[bool]
)
