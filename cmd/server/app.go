// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/netmirror/internal/advisory"
	"github.com/tomtom215/netmirror/internal/config"
	"github.com/tomtom215/netmirror/internal/database"
	"github.com/tomtom215/netmirror/internal/eventprocessor"
	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/lookup"
	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
	netsync "github.com/tomtom215/netmirror/internal/sync"
)

// app holds the components shared by every command.
type app struct {
	db        *database.DB
	remotes   netsync.PoolRemotes
	locker    advisory.Locker
	publisher *eventprocessor.Publisher
	lookup    *lookup.Client

	directory *netsync.Directory
	syncer    *netsync.NetSynchronizer
	editor    *netsync.RosterEditor

	closers []func() error
}

// newApp opens the store and builds the synchronizers from cfg. The caller
// must call close.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.db, err = database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)
	logging.Info().Str("path", cfg.Database.Path).Msg("Database initialized")

	if err := syncClubs(ctx, a.db, cfg.Clubs); err != nil {
		return nil, err
	}

	a.remotes = netsync.PoolRemotes{Pool: netlogger.NewPool(netlogger.Options{
		Scheme:             cfg.Hosts.Scheme,
		BasePath:           cfg.Hosts.BasePath,
		Timeout:            cfg.Hosts.Timeout,
		BreakerMaxFailures: cfg.Hosts.BreakerMaxFailures,
		BreakerTimeout:     cfg.Hosts.BreakerTimeout,
	})}

	if a.locker, err = a.newLocker(ctx, cfg.Lock); err != nil {
		return nil, err
	}
	if a.publisher, err = a.newPublisher(cfg.Events); err != nil {
		return nil, err
	}

	if cfg.Lookup.Enabled {
		a.lookup = lookup.NewClient(lookup.Options{
			URL:               cfg.Lookup.URL,
			Username:          cfg.Lookup.Username,
			Password:          cfg.Lookup.Password,
			Agent:             cfg.Lookup.Agent,
			RequestsPerSecond: cfg.Lookup.RequestsPerSecond,
			StationTTL:        cfg.Lookup.StationTTL,
			NegativeCacheSize: cfg.Lookup.NegativeCacheSize,
			Timeout:           cfg.Lookup.Timeout,
		})
		logging.Info().Str("url", cfg.Lookup.URL).Msg("Call sign lookup enabled")
	}

	a.directory = netsync.NewDirectory(a.db, a.remotes, cfg.Hosts.Servers, cfg.Sync.DirectoryInterval)
	a.syncer = netsync.NewNetSynchronizer(a.db, a.remotes, a.locker, a.publisher, netsync.Options{
		LockTimeout:           cfg.Sync.LockTimeout,
		FullRefreshInterval:   cfg.Sync.FullRefreshInterval,
		DefaultUpdateInterval: cfg.Sync.DefaultUpdateInterval,
	})
	a.editor = netsync.NewRosterEditor(a.db, a.remotes, a.locker, a.syncer)
	return a, nil
}

func (a *app) newLocker(ctx context.Context, cfg config.LockConfig) (advisory.Locker, error) {
	if cfg.Backend != "redis" {
		return advisory.NewLocalLocker(), nil
	}
	rdb, err := advisory.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rdb.Close)
	logging.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis advisory locks")
	return advisory.NewRedisLocker(rdb), nil
}

func (a *app) newPublisher(cfg config.EventsConfig) (*eventprocessor.Publisher, error) {
	var p *eventprocessor.Publisher
	if cfg.Backend == "nats" {
		pcfg := eventprocessor.DefaultPublisherConfig(cfg.NATSURL)
		pcfg.Topic = cfg.Topic
		var err error
		if p, err = eventprocessor.NewNATSPublisher(pcfg, logging.NewWatermillAdapter()); err != nil {
			return nil, fmt.Errorf("connect event bus: %w", err)
		}
		logging.Info().Str("url", cfg.NATSURL).Str("topic", cfg.Topic).Msg("Publishing net updates to NATS")
	} else {
		p = eventprocessor.NewMemoryPublisher(cfg.Topic, logging.NewWatermillAdapter())
	}
	a.closers = append(a.closers, p.Close)
	return p, nil
}

// newSession opens a lookup session, or returns nil when lookups are
// disabled so enrichment reads the station cache only.
func (a *app) newSession() netsync.StationLookup {
	if a.lookup == nil {
		return nil
	}
	return a.lookup.NewSession()
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}
}

// syncClubs upserts the configured clubs so net assignment sees them.
func syncClubs(ctx context.Context, db *database.DB, clubs []config.ClubConfig) error {
	for _, c := range clubs {
		if err := db.UpsertClub(ctx, &models.Club{Name: c.Name, NetPatterns: c.Patterns}); err != nil {
			return fmt.Errorf("save club %q: %w", c.Name, err)
		}
	}
	if len(clubs) > 0 {
		logging.Info().Int("clubs", len(clubs)).Msg("Clubs loaded from configuration")
	}
	return nil
}
