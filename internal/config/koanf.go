// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/netmirror/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Hosts: HostsConfig{
			Servers:            []string{"www.netlogger.org"},
			Scheme:             "http",
			BasePath:           "/cgi-bin/NetLogger",
			Timeout:            10 * time.Second,
			BreakerMaxFailures: 5,
			BreakerTimeout:     60 * time.Second,
		},
		Sync: SyncConfig{
			DirectoryInterval:     30 * time.Second,
			NetPollInterval:       10 * time.Second,
			FullRefreshInterval:   5 * time.Minute,
			DefaultUpdateInterval: 20 * time.Second,
			LockTimeout:           2 * time.Second,
			Workers:               4,
		},
		Database: DatabaseConfig{
			Path:      "/data/netmirror.duckdb",
			MaxMemory: "512MB",
		},
		Lock: LockConfig{
			Backend:   "local",
			RedisAddr: "localhost:6379",
		},
		Events: EventsConfig{
			Backend: "memory",
			NATSURL: "nats://127.0.0.1:4222",
			Topic:   "netmirror.net.updated",
		},
		Lookup: LookupConfig{
			Enabled:           false,
			URL:               "https://xmldata.qrz.com/xml/current/",
			Agent:             "netmirror",
			RequestsPerSecond: 2,
			StationTTL:        7 * 24 * time.Hour,
			NegativeCacheSize: 1000,
			Timeout:           10 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            9464,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from three layers:
//  1. built-in defaults
//  2. the optional YAML file
//  3. environment variables listed in envMappings
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"hosts.servers",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"netlogger_hosts":                "hosts.servers",
	"netlogger_scheme":               "hosts.scheme",
	"netlogger_base_path":            "hosts.base_path",
	"netlogger_timeout":              "hosts.timeout",
	"netlogger_breaker_max_failures": "hosts.breaker_max_failures",
	"netlogger_breaker_timeout":      "hosts.breaker_timeout",

	"sync_directory_interval":      "sync.directory_interval",
	"sync_net_poll_interval":       "sync.net_poll_interval",
	"sync_full_refresh_interval":   "sync.full_refresh_interval",
	"sync_default_update_interval": "sync.default_update_interval",
	"sync_lock_timeout":            "sync.lock_timeout",
	"sync_workers":                 "sync.workers",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"lock_backend":   "lock.backend",
	"redis_addr":     "lock.redis_addr",
	"redis_password": "lock.redis_password",
	"redis_db":       "lock.redis_db",

	"events_backend": "events.backend",
	"nats_url":       "events.nats_url",
	"events_topic":   "events.topic",

	"lookup_enabled":             "lookup.enabled",
	"lookup_url":                 "lookup.url",
	"lookup_username":            "lookup.username",
	"lookup_password":            "lookup.password",
	"lookup_agent":               "lookup.agent",
	"lookup_requests_per_second": "lookup.requests_per_second",
	"lookup_station_ttl":         "lookup.station_ttl",
	"lookup_negative_cache_size": "lookup.negative_cache_size",
	"lookup_timeout":             "lookup.timeout",

	"http_host":        "server.host",
	"http_port":        "server.port",
	"shutdown_timeout": "server.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped.
//
//	NETLOGGER_HOSTS -> hosts.servers
//	SYNC_LOCK_TIMEOUT -> sync.lock_timeout
//	DUCKDB_PATH -> database.path
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
