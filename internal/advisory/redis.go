// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package advisory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/netmirror/internal/logging"
)

const (
	// redisKeyPrefix namespaces lock keys in a shared Redis.
	redisKeyPrefix = "netmirror:lock:"

	// defaultRedisTTL bounds how long a crashed holder can block a key.
	defaultRedisTTL = 2 * time.Minute

	// redisPollInterval is the retry cadence while a key is busy.
	redisPollInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
// Keys are set with SET NX PX and a random token; release is a compare and
// delete so an expired holder cannot free a lock re-acquired by someone else.
type RedisLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithLeaseTTL sets the expiry placed on held keys.
func WithLeaseTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// NewRedisLocker creates a RedisLocker over rdb.
func NewRedisLocker(rdb redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{rdb: rdb, ttl: defaultRedisTTL}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewRedisClient builds a client from connection settings and verifies it
// with a PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (Lease, error) {
	start := time.Now()
	deadline := start.Add(timeout)
	rkey := redisKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(redisPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			observe(start, err)
			return nil, fmt.Errorf("acquire %q: %w", key, err)
		}
		if ok {
			observe(start, nil)
			return &redisLease{rdb: l.rdb, key: rkey, token: token}, nil
		}
		if !time.Now().Before(deadline) {
			err = fmt.Errorf("%w: %q after %s", ErrTimeout, key, timeout)
			observe(start, err)
			return nil, err
		}
		select {
		case <-ctx.Done():
			observe(start, ctx.Err())
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

type redisLease struct {
	rdb   redis.UniversalClient
	key   string
	token string
	once  sync.Once
	err   error
}

func (rl *redisLease) Release(ctx context.Context) error {
	rl.once.Do(func() {
		n, err := releaseScript.Run(ctx, rl.rdb, []string{rl.key}, rl.token).Int()
		if err != nil {
			rl.err = fmt.Errorf("release %q: %w", rl.key, err)
			return
		}
		if n == 0 {
			logging.Warn().Str("key", rl.key).Msg("Advisory lock expired before release")
		}
	})
	return rl.err
}
