// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package advisory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNetCacheKey(t *testing.T) {
	t.Parallel()

	if got := NetCacheKey("Noon Net"); got != "update net cache:Noon Net" {
		t.Errorf("NetCacheKey = %q", got)
	}
	if NetCacheKey("A") == NetCacheKey("B") {
		t.Error("different nets must use different keys")
	}
}

func TestLocalLocker_Timeout(t *testing.T) {
	t.Parallel()

	l := NewLocalLocker()
	ctx := context.Background()

	lease, err := l.Acquire(ctx, "k", time.Second)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	start := time.Now()
	_, err = l.Acquire(ctx, "k", 50*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("second Acquire err = %v, want ErrTimeout", err)
	}
	if waited := time.Since(start); waited < 40*time.Millisecond {
		t.Errorf("returned after %v, expected to wait for the timeout", waited)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := lease.Release(ctx); err != nil {
		t.Errorf("second Release should be a no-op, got %v", err)
	}

	lease, err = l.Acquire(ctx, "k", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = lease.Release(ctx)

	if n := l.Held(); n != 0 {
		t.Errorf("Held = %d after all releases, want 0", n)
	}
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	t.Parallel()

	l := NewLocalLocker()
	ctx := context.Background()

	a, err := l.Acquire(ctx, NetCacheKey("A"), time.Second)
	if err != nil {
		t.Fatalf("Acquire A: %v", err)
	}
	defer a.Release(ctx) //nolint:errcheck

	b, err := l.Acquire(ctx, NetCacheKey("B"), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire B should not contend with A: %v", err)
	}
	_ = b.Release(ctx)
}

func TestLocalLocker_ContextCanceled(t *testing.T) {
	t.Parallel()

	l := NewLocalLocker()
	lease, err := l.Acquire(context.Background(), "k", time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lease.Release(context.Background()) //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k", time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("cancellation must not be reported as a timeout")
	}
}

func TestLocalLocker_MutualExclusion(t *testing.T) {
	t.Parallel()

	l := NewLocalLocker()
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := l.Acquire(ctx, "shared", 5*time.Second)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			_ = lease.Release(ctx)
		}()
	}
	wg.Wait()

	if got := maxInside.Load(); got != 1 {
		t.Errorf("max concurrent holders = %d, want 1", got)
	}
}
