// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package netlogger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches a response carrying the "*error - message*"
	// sentinel. For a per-net fetch it means the net has closed.
	ErrNotFound = errors.New("netlogger: remote reported not found")

	// ErrTransport matches connection, timeout, HTTP status and open-breaker
	// failures. These are retried on the next poll.
	ErrTransport = errors.New("netlogger: transport failure")
)

// RemoteError is returned when the remote body carries the error sentinel.
type RemoteError struct {
	Host     string
	Endpoint string
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("netlogger %s/%s: %s", e.Host, e.Endpoint, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound
}

// TransportError wraps a failure to obtain a usable response.
type TransportError struct {
	Host       string
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("netlogger %s/%s: HTTP %d: %v", e.Host, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("netlogger %s/%s: %v", e.Host, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
