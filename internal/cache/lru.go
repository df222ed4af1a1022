// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruItem[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

// LRU is a size-bounded, TTL-expiring cache safe for concurrent use.
// Expired entries are dropped lazily on read or by CleanupExpired.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	max   int
	ttl   time.Duration
	now   func() time.Time
	order *list.List // front is most recently used
	index map[K]*list.Element

	hits, misses int64
}

// NewLRU creates a cache holding at most capacity entries for ttl each.
// Non-positive arguments fall back to 1000 entries and five minutes.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LRU[K, V]{
		max:   capacity,
		ttl:   ttl,
		now:   time.Now,
		order: list.New(),
		index: make(map[K]*list.Element, capacity),
	}
}

func item[K comparable, V any](e *list.Element) *lruItem[K, V] {
	return e.Value.(*lruItem[K, V]) //nolint:forcetypeassert // only lruItem values are stored
}

// lookup returns the live element for key, dropping it if expired.
// Callers hold mu.
func (c *LRU[K, V]) lookup(key K) *list.Element {
	e, ok := c.index[key]
	if !ok {
		return nil
	}
	if c.now().After(item[K, V](e).expires) {
		c.drop(e)
		return nil
	}
	return e
}

func (c *LRU[K, V]) drop(e *list.Element) {
	delete(c.index, item[K, V](e).key)
	c.order.Remove(e)
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(key)
	if e == nil {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(e)
	return item[K, V](e).value, true
}

// Contains reports whether key is present and unexpired. Recency and
// hit counters are left alone.
func (c *LRU[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	return ok && !c.now().After(item[K, V](e).expires)
}

// Add inserts or refreshes key, evicting from the back once over capacity.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if e, ok := c.index[key]; ok {
		it := item[K, V](e)
		it.value, it.expires = value, expires
		c.order.MoveToFront(e)
		return
	}
	c.index[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value, expires: expires})
	for c.order.Len() > c.max {
		c.drop(c.order.Back())
	}
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if ok {
		c.drop(e)
	}
	return ok
}

// Len counts entries including ones that have expired but not been dropped.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CleanupExpired drops every expired entry and returns the number dropped.
func (c *LRU[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for e := c.order.Back(); e != nil; {
		prev := e.Prev()
		if now.After(item[K, V](e).expires) {
			c.drop(e)
			n++
		}
		e = prev
	}
	return n
}

// Stats returns hit and miss counts and the current size.
func (c *LRU[K, V]) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.order.Len()
}
