// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package netlogger

import (
	"sync"
)

// Pool hands out one Client per host, created on first use so every net on a
// host shares that host's circuit breaker.
type Pool struct {
	opts    Options
	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool creates an empty pool whose clients use opts.
func NewPool(opts Options) *Pool {
	return &Pool{opts: opts, clients: make(map[string]*Client)}
}

// Client returns the client for host.
func (p *Pool) Client(host string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[host]; ok {
		return c
	}
	c := NewClient(host, p.opts)
	p.clients[host] = c
	return c
}
