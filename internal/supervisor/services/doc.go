// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
Package services provides the suture.Service implementations run by the
supervisor tree.

# Available Services

DirectoryPollerService ("directory-poller"):
  - Calls NetLister.List immediately and then on every tick
  - List throttles reconciliation itself; errors are logged and retried

NetPollerService ("net-poller"):
  - Lists the active nets each tick and feeds their names to a fixed pool
    of workers
  - Every worker calls NetUpdater.Update in normal mode, so nets that are
    not stale cost one database read
  - Each worker opens one lookup session through the SessionFactory and
    keeps it until Serve returns
  - Closed, unknown and lock-busy nets are logged at debug level; other
    failures at warn. None of them stop the service

HTTPServerService ("http-server"):
  - Wraps *http.Server and translates cancellation into Shutdown
  - NewRouter supplies the handler: /metrics and a rate-limited /healthz

# Usage

	tree.AddSyncService(services.NewDirectoryPollerService(directory, cfg.Sync.DirectoryInterval))
	tree.AddSyncService(services.NewNetPollerService(directory, syncer, newSession,
		services.NetPollerConfig{Interval: cfg.Sync.NetPollInterval, Workers: cfg.Sync.Workers}))

	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: services.NewRouter(db)}
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
*/
package services
