// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHosts(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if err := c.validateLock(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateLookup(); err != nil {
		return err
	}
	if err := c.validateClubs(); err != nil {
		return err
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return c.validateLogging()
}

func (c *Config) validateHosts() error {
	if len(c.Hosts.Servers) == 0 {
		return fmt.Errorf("NETLOGGER_HOSTS must list at least one server")
	}
	for _, h := range c.Hosts.Servers {
		if strings.TrimSpace(h) == "" || strings.Contains(h, "/") {
			return fmt.Errorf("NETLOGGER_HOSTS entry %q must be a bare host[:port]", h)
		}
	}
	if c.Hosts.Scheme != "http" && c.Hosts.Scheme != "https" {
		return fmt.Errorf("NETLOGGER_SCHEME must be http or https, got %q", c.Hosts.Scheme)
	}
	if c.Hosts.Timeout <= 0 {
		return fmt.Errorf("NETLOGGER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSync() error {
	s := c.Sync
	switch {
	case s.DirectoryInterval <= 0:
		return fmt.Errorf("SYNC_DIRECTORY_INTERVAL must be positive")
	case s.NetPollInterval <= 0:
		return fmt.Errorf("SYNC_NET_POLL_INTERVAL must be positive")
	case s.FullRefreshInterval <= 0:
		return fmt.Errorf("SYNC_FULL_REFRESH_INTERVAL must be positive")
	case s.DefaultUpdateInterval <= 0:
		return fmt.Errorf("SYNC_DEFAULT_UPDATE_INTERVAL must be positive")
	case s.LockTimeout <= 0:
		return fmt.Errorf("SYNC_LOCK_TIMEOUT must be positive")
	case s.Workers < 1:
		return fmt.Errorf("SYNC_WORKERS must be at least 1, got %d", s.Workers)
	}
	return nil
}

func (c *Config) validateLock() error {
	switch c.Lock.Backend {
	case "local":
		return nil
	case "redis":
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when LOCK_BACKEND=redis")
		}
		return nil
	default:
		return fmt.Errorf("LOCK_BACKEND must be local or redis, got %q", c.Lock.Backend)
	}
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "memory":
	case "nats":
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be memory or nats, got %q", c.Events.Backend)
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required")
	}
	return nil
}

func (c *Config) validateLookup() error {
	if !c.Lookup.Enabled {
		return nil
	}
	u, err := url.Parse(c.Lookup.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("LOOKUP_URL must be an http(s) URL, got %q", c.Lookup.URL)
	}
	if c.Lookup.Username == "" || c.Lookup.Password == "" {
		return fmt.Errorf("LOOKUP_USERNAME and LOOKUP_PASSWORD are required when LOOKUP_ENABLED=true")
	}
	if c.Lookup.RequestsPerSecond <= 0 {
		return fmt.Errorf("LOOKUP_REQUESTS_PER_SECOND must be positive")
	}
	return nil
}

func (c *Config) validateClubs() error {
	seen := make(map[string]bool, len(c.Clubs))
	for i, club := range c.Clubs {
		name := strings.TrimSpace(club.Name)
		if name == "" {
			return fmt.Errorf("clubs[%d]: name is required", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("clubs[%d]: duplicate club %q", i, name)
		}
		seen[key] = true

		patterns := 0
		for _, p := range club.Patterns {
			if strings.TrimSpace(p) != "" {
				patterns++
			}
		}
		if patterns == 0 {
			return fmt.Errorf("club %q needs at least one net name pattern", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func validateNATSURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
