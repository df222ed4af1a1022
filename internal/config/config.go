// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package config loads Netmirror configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Hosts    HostsConfig    `koanf:"hosts"`
	Sync     SyncConfig     `koanf:"sync"`
	Database DatabaseConfig `koanf:"database"`
	Lock     LockConfig     `koanf:"lock"`
	Events   EventsConfig   `koanf:"events"`
	Lookup   LookupConfig   `koanf:"lookup"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Clubs    []ClubConfig   `koanf:"clubs"`
}

// HostsConfig describes the remote NetLogger servers to mirror.
type HostsConfig struct {
	// Servers are host[:port] names, e.g. www.netlogger.org. Later entries win
	// when two servers publish a net with the same name.
	Servers  []string      `koanf:"servers"`
	Scheme   string        `koanf:"scheme"`
	BasePath string        `koanf:"base_path"`
	Timeout  time.Duration `koanf:"timeout"`

	// Circuit breaker per host.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// SyncConfig controls the refresh cadence and locking.
type SyncConfig struct {
	DirectoryInterval     time.Duration `koanf:"directory_interval"`
	NetPollInterval       time.Duration `koanf:"net_poll_interval"`
	FullRefreshInterval   time.Duration `koanf:"full_refresh_interval"`
	DefaultUpdateInterval time.Duration `koanf:"default_update_interval"`
	LockTimeout           time.Duration `koanf:"lock_timeout"`
	Workers               int           `koanf:"workers"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = DuckDB default
}

// LockConfig selects the advisory lock backend.
type LockConfig struct {
	Backend       string `koanf:"backend"` // local or redis
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// EventsConfig selects where net-updated events are published.
type EventsConfig struct {
	Backend string `koanf:"backend"` // memory or nats
	NATSURL string `koanf:"nats_url"`
	Topic   string `koanf:"topic"`
}

// LookupConfig configures the call sign lookup service.
type LookupConfig struct {
	Enabled           bool          `koanf:"enabled"`
	URL               string        `koanf:"url"`
	Username          string        `koanf:"username"`
	Password          string        `koanf:"password"`
	Agent             string        `koanf:"agent"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	StationTTL        time.Duration `koanf:"station_ttl"`
	NegativeCacheSize int           `koanf:"negative_cache_size"`
	Timeout           time.Duration `koanf:"timeout"`
}

// ServerConfig is the metrics and health listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ClubConfig declares a club and the net names it claims. Patterns use "*"
// as a wildcard and match case-insensitively. Clubs are only read from the
// YAML file.
type ClubConfig struct {
	Name     string   `koanf:"name"`
	Patterns []string `koanf:"patterns"`
}
