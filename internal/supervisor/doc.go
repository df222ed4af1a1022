// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
Package supervisor runs the long-lived netmirror services under suture v4.

	netmirror
	├── sync-layer
	│   ├── directory-poller
	│   └── net-poller
	└── api-layer
	    └── http-server (/metrics, /healthz)

Each layer has its own failure budget. When a poller keeps failing it backs
off alone and the listener keeps reporting it.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	if err != nil {
	    return err
	}
	tree.AddSyncService(services.NewDirectoryPollerService(directory, cfg.Sync.DirectoryInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)

A service's Serve returns nil to stop for good, an error to be restarted
after backoff, or ctx.Err() on shutdown. Per-net refresh failures are not
service failures: the net poller logs them and carries on.

The store, the advisory locker and the event publisher are shared values,
not services. A Redis or NATS outage shows up as refresh errors rather than
restarts.

After shutdown, UnstoppedServiceReport names any service that ignored
cancellation past TreeConfig.ShutdownTimeout.
*/
package supervisor
