// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/supervisor"
	"github.com/tomtom215/netmirror/internal/supervisor/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the directory and net pollers and the metrics listener",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	logging.Info().Strs("hosts", cfg.Hosts.Servers).Msg("Starting netmirror")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddSyncService(services.NewDirectoryPollerService(a.directory, cfg.Sync.DirectoryInterval))
	tree.AddSyncService(services.NewNetPollerService(a.directory, a.syncer, a.newSession, services.NetPollerConfig{
		Interval: cfg.Sync.NetPollInterval,
		Workers:  cfg.Sync.Workers,
	}))

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           services.NewRouter(a.db),
		ReadHeaderTimeout: 5 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", srv.Addr).Msg("Metrics and health listener configured")

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	logging.Info().Msg("Shutting down, waiting for supervisor to finish")

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err := a.db.Checkpoint(context.WithoutCancel(ctx)); err != nil {
		logging.Warn().Err(err).Msg("Final checkpoint failed")
	}
	logging.Info().Msg("Netmirror stopped")
	return nil
}
