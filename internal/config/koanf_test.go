// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Sync.DirectoryInterval != 30*time.Second {
		t.Errorf("Sync.DirectoryInterval = %v, want 30s", cfg.Sync.DirectoryInterval)
	}
	if cfg.Sync.LockTimeout != 2*time.Second {
		t.Errorf("Sync.LockTimeout = %v, want 2s", cfg.Sync.LockTimeout)
	}
	if cfg.Hosts.BasePath != "/cgi-bin/NetLogger" {
		t.Errorf("Hosts.BasePath = %q", cfg.Hosts.BasePath)
	}
	if cfg.Lock.Backend != "local" {
		t.Errorf("Lock.Backend = %q, want local", cfg.Lock.Backend)
	}
	if cfg.Events.Backend != "memory" {
		t.Errorf("Events.Backend = %q, want memory", cfg.Events.Backend)
	}
	if cfg.Lookup.Enabled {
		t.Error("Lookup should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, expected string
	}{
		{"NETLOGGER_HOSTS", "hosts.servers"},
		{"SYNC_LOCK_TIMEOUT", "sync.lock_timeout"},
		{"SYNC_WORKERS", "sync.workers"},
		{"DUCKDB_PATH", "database.path"},
		{"LOCK_BACKEND", "lock.backend"},
		{"REDIS_ADDR", "lock.redis_addr"},
		{"NATS_URL", "events.nats_url"},
		{"LOOKUP_PASSWORD", "lookup.password"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.expected {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(custom, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, custom)
	if got := findConfigFile(); got != custom {
		t.Errorf("findConfigFile() = %q, want %q", got, custom)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("NETLOGGER_HOSTS", "www.netlogger.org, netlogger.example.net ,")
	t.Setenv("SYNC_LOCK_TIMEOUT", "3s")
	t.Setenv("SYNC_WORKERS", "8")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"www.netlogger.org", "netlogger.example.net"}
	if strings.Join(cfg.Hosts.Servers, ",") != strings.Join(want, ",") {
		t.Errorf("Hosts.Servers = %v, want %v", cfg.Hosts.Servers, want)
	}
	if cfg.Sync.LockTimeout != 3*time.Second {
		t.Errorf("Sync.LockTimeout = %v, want 3s", cfg.Sync.LockTimeout)
	}
	if cfg.Sync.Workers != 8 {
		t.Errorf("Sync.Workers = %d, want 8", cfg.Sync.Workers)
	}
	if cfg.Lock.Backend != "redis" || cfg.Lock.RedisAddr != "redis:6379" {
		t.Errorf("Lock = %+v", cfg.Lock)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Sync.DirectoryInterval != 30*time.Second {
		t.Errorf("default DirectoryInterval lost: %v", cfg.Sync.DirectoryInterval)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
hosts:
  servers:
    - netlogger.example.net
sync:
  net_poll_interval: 15s
database:
  path: /tmp/mirror.duckdb
logging:
  level: debug
clubs:
  - name: ARES
    patterns: ["ARES *", "*Emergency Net"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Hosts.Servers) != 1 || cfg.Hosts.Servers[0] != "netlogger.example.net" {
		t.Errorf("Hosts.Servers = %v", cfg.Hosts.Servers)
	}
	if cfg.Sync.NetPollInterval != 15*time.Second {
		t.Errorf("Sync.NetPollInterval = %v", cfg.Sync.NetPollInterval)
	}
	if cfg.Database.Path != "/tmp/mirror.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if len(cfg.Clubs) != 1 || cfg.Clubs[0].Name != "ARES" || len(cfg.Clubs[0].Patterns) != 2 {
		t.Errorf("Clubs = %+v", cfg.Clubs)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override file, Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no hosts", func(c *Config) { c.Hosts.Servers = nil }, "NETLOGGER_HOSTS"},
		{"host with path", func(c *Config) { c.Hosts.Servers = []string{"x.org/cgi"} }, "bare host"},
		{"bad scheme", func(c *Config) { c.Hosts.Scheme = "ftp" }, "NETLOGGER_SCHEME"},
		{"zero lock timeout", func(c *Config) { c.Sync.LockTimeout = 0 }, "SYNC_LOCK_TIMEOUT"},
		{"no workers", func(c *Config) { c.Sync.Workers = 0 }, "SYNC_WORKERS"},
		{"unknown lock backend", func(c *Config) { c.Lock.Backend = "etcd" }, "LOCK_BACKEND"},
		{"redis without addr", func(c *Config) { c.Lock.Backend = "redis"; c.Lock.RedisAddr = "" }, "REDIS_ADDR"},
		{"bad nats url", func(c *Config) { c.Events.Backend = "nats"; c.Events.NATSURL = "http://x" }, "NATS_URL"},
		{"lookup without creds", func(c *Config) { c.Lookup.Enabled = true }, "LOOKUP_USERNAME"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"club without name", func(c *Config) { c.Clubs = []ClubConfig{{Patterns: []string{"A*"}}} }, "name is required"},
		{"club without patterns", func(c *Config) { c.Clubs = []ClubConfig{{Name: "ARES", Patterns: []string{" "}}} }, "at least one"},
		{"duplicate club", func(c *Config) {
			c.Clubs = []ClubConfig{{Name: "ARES", Patterns: []string{"A*"}}, {Name: "ares", Patterns: []string{"B*"}}}
		}, "duplicate club"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 9464}
	if got := s.Addr(); got != "127.0.0.1:9464" {
		t.Errorf("Addr() = %q", got)
	}
}
