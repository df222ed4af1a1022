// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/netmirror/internal/logging"
	netsync "github.com/tomtom215/netmirror/internal/sync"
)

// withApp runs fn against a freshly built app and logs the result.
func withApp(cmd *cobra.Command, op string, fn func(ctx context.Context, a *app) (netsync.Result, error)) error {
	ctx := logging.ContextWithNewCorrelationID(cmd.Context())
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := fn(ctx, a)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logging.Ctx(ctx).Info().
		Str("operation", op).
		Int("changes", res.Changes).
		Bool("full", res.Full).
		Bool("deferred", res.Deferred).
		Msg("Done")
	return nil
}

var refreshCmd = &cobra.Command{
	Use:   "refresh NET",
	Short: "Refresh one net now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := netsync.ModeNormal
		if force, _ := cmd.Flags().GetBool("force"); force {
			mode = netsync.ModeForced
		}
		return withApp(cmd, "refresh", func(ctx context.Context, a *app) (netsync.Result, error) {
			return a.syncer.Update(ctx, args[0], mode, a.newSession())
		})
	},
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Edit a net's roster on its host",
}

var messageCmd = &cobra.Command{
	Use:   "message NET",
	Short: "Send an instant message to a net",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		call, _ := f.GetString("call")
		name, _ := f.GetString("name")
		text, _ := f.GetString("text")
		netControl, _ := f.GetBool("net-control")
		return withApp(cmd, "message", func(ctx context.Context, a *app) (netsync.Result, error) {
			return a.editor.SendMessage(ctx, args[0], call, name, text, netControl)
		})
	},
}

// parseRowNum parses a NUM argument no lower than minNum.
func parseRowNum(arg string, minNum int) (int, error) {
	num, err := strconv.Atoi(arg)
	if err != nil || num < minNum {
		return 0, fmt.Errorf("invalid row number %q", arg)
	}
	return num, nil
}

// rosterRowCmd builds a roster subcommand taking NET NUM, where NUM is at
// least minNum.
func rosterRowCmd(use, short string, withEntry bool, minNum int, run func(ctx context.Context, a *app, net, token string, num int, e netsync.Entry) (netsync.Result, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " NET NUM",
		Short: short,
		Args: cobra.MatchAll(cobra.ExactArgs(2), func(_ *cobra.Command, args []string) error {
			_, err := parseRowNum(args[1], minNum)
			return err
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := parseRowNum(args[1], minNum)
			if err != nil {
				return err
			}
			token, _ := cmd.Flags().GetString("token")
			var e netsync.Entry
			if withEntry {
				e = entryFromFlags(cmd)
			}
			return withApp(cmd, "roster "+use, func(ctx context.Context, a *app) (netsync.Result, error) {
				return run(ctx, a, args[0], token, num, e)
			})
		},
	}
	cmd.Flags().String("token", "", "net control token issued by the host")
	if withEntry {
		f := cmd.Flags()
		f.String("call", "", "call sign")
		f.String("name", "", "operator name")
		f.String("preferred-name", "", "preferred name")
		f.String("city", "", "city")
		f.String("state", "", "state")
		f.String("county", "", "county")
		f.String("country", "", "country")
		f.String("grid", "", "Maidenhead grid square")
		f.String("remarks", "", "remarks")
		f.String("status", "", "status")
		_ = cmd.MarkFlagRequired("call")
	}
	return cmd
}

func entryFromFlags(cmd *cobra.Command) netsync.Entry {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return netsync.Entry{
		CallSign:      get("call"),
		Name:          get("name"),
		PreferredName: get("preferred-name"),
		City:          get("city"),
		State:         get("state"),
		County:        get("county"),
		Country:       get("country"),
		GridSquare:    get("grid"),
		Remarks:       get("remarks"),
		Status:        get("status"),
	}
}

func init() {
	refreshCmd.Flags().Bool("force", false, "fetch the full roster even if the net is fresh")

	messageCmd.Flags().String("call", "", "sender call sign")
	messageCmd.Flags().String("name", "", "sender name")
	messageCmd.Flags().String("text", "", "message text")
	messageCmd.Flags().Bool("net-control", false, "send as net control")
	_ = messageCmd.MarkFlagRequired("call")
	_ = messageCmd.MarkFlagRequired("text")

	rosterCmd.AddCommand(
		rosterRowCmd("insert", "Insert a row, shifting later rows down", true, 1,
			func(ctx context.Context, a *app, net, token string, num int, e netsync.Entry) (netsync.Result, error) {
				return a.editor.InsertAt(ctx, net, token, num, e)
			}),
		rosterRowCmd("update", "Replace the content of a row", true, 1,
			func(ctx context.Context, a *app, net, token string, num int, e netsync.Entry) (netsync.Result, error) {
				return a.editor.UpdateAt(ctx, net, token, num, e)
			}),
		rosterRowCmd("delete", "Delete a row, shifting later rows up", false, 1,
			func(ctx context.Context, a *app, net, token string, num int, _ netsync.Entry) (netsync.Result, error) {
				return a.editor.DeleteAt(ctx, net, token, num)
			}),
		rosterRowCmd("highlight", "Mark a row as currently operating; 0 clears it", false, 0,
			func(ctx context.Context, a *app, net, token string, num int, _ netsync.Entry) (netsync.Result, error) {
				return a.editor.Highlight(ctx, net, token, num)
			}),
	)
}
