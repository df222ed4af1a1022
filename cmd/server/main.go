// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package main is the netmirror command.
//
// Netmirror keeps a local DuckDB mirror of the nets published by one or more
// NetLogger servers: the directory of active nets, each net's roster,
// monitors and instant messages, enriched with call sign lookups and grouped
// into clubs.
//
// # Commands
//
//	netmirror serve                       run the pollers and the metrics listener
//	netmirror refresh NET [--force]       refresh one net now
//	netmirror roster insert NET NUM ...   insert a roster row (write-back)
//	netmirror roster update NET NUM ...   replace a roster row
//	netmirror roster delete NET NUM       delete a roster row and renumber
//	netmirror roster highlight NET NUM    mark the row currently operating
//	netmirror message NET --call ... --text ...
//
// Running netmirror without a command is the same as netmirror serve.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables, then config.yaml (or CONFIG_PATH), then
// built-in defaults. Clubs are only read from the YAML file.
//
// # Signal Handling
//
// serve shuts down on SIGINT and SIGTERM: the supervisor cancels every
// service, the HTTP listener drains within server.shutdown_timeout, and the
// database is closed last.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/netmirror/internal/config"
	"github.com/tomtom215/netmirror/internal/logging"
)

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "netmirror",
	Short:         "Mirror and reconcile NetLogger nets into a local store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = "debug"
		}
		logging.Init(logging.Config{
			Level:     level,
			Format:    cfg.Logging.Format,
			Caller:    cfg.Logging.Caller,
			Timestamp: true,
			Output:    os.Stderr,
		})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "log at debug level regardless of configuration")
	rootCmd.AddCommand(serveCmd, refreshCmd, rosterCmd, messageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
