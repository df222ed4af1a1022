// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
database_schema.go - Database Schema Management

Tables:
  - nets: active nets, one row per mirrored net
  - checkins, monitors, messages: roster rows owned by a net
  - closed_nets: immutable archive written once when a net ends
  - stations: call sign lookup cache plus last-heard bookkeeping
  - clubs, club_stations: club definitions and per-club station tallies

Every statement is idempotent (IF NOT EXISTS). DuckDB has no cascading
foreign keys, so DeleteNet removes owned rows itself inside a transaction.
Checkins are keyed by a surrogate id: num is reassigned when the remote
renumbers the roster and must be free to collide transiently while rows
shift.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates sequences, tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS nets_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS checkins_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS monitors_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS messages_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS closed_nets_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS clubs_id_seq START 1`,

		`CREATE TABLE IF NOT EXISTS nets (
			id BIGINT PRIMARY KEY DEFAULT nextval('nets_id_seq'),
			name TEXT NOT NULL,
			alt_name TEXT NOT NULL DEFAULT '',
			frequency TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT '',
			band TEXT NOT NULL DEFAULT '',
			net_control TEXT NOT NULL DEFAULT '',
			net_logger TEXT NOT NULL DEFAULT '',
			host TEXT NOT NULL,
			started_at TIMESTAMP,
			im_enabled BOOLEAN NOT NULL DEFAULT false,
			update_interval INTEGER NOT NULL DEFAULT 0,
			subscriber_count INTEGER NOT NULL DEFAULT 0,
			partially_updated_at TIMESTAMP,
			fully_updated_at TIMESTAMP,
			ext_data_serial BIGINT NOT NULL DEFAULT 0,
			center_latitude DOUBLE,
			center_longitude DOUBLE,
			center_radius DOUBLE,
			club_id BIGINT,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS checkins (
			id BIGINT PRIMARY KEY DEFAULT nextval('checkins_id_seq'),
			net_id BIGINT NOT NULL,
			num INTEGER NOT NULL,
			call_sign TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			preferred_name TEXT NOT NULL DEFAULT '',
			remarks TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			qsl_info TEXT NOT NULL DEFAULT '',
			street TEXT NOT NULL DEFAULT '',
			zip TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			county TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			dxcc TEXT NOT NULL DEFAULT '',
			grid_square TEXT NOT NULL DEFAULT '',
			latitude DOUBLE,
			longitude DOUBLE,
			status TEXT NOT NULL DEFAULT '',
			checked_in_at TIMESTAMP,
			currently_operating BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS monitors (
			id BIGINT PRIMARY KEY DEFAULT nextval('monitors_id_seq'),
			net_id BIGINT NOT NULL,
			call_sign TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Online',
			ip_address TEXT NOT NULL DEFAULT '',
			blocked BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id BIGINT PRIMARY KEY DEFAULT nextval('messages_id_seq'),
			net_id BIGINT NOT NULL,
			log_id BIGINT,
			call_sign TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			sent_at TIMESTAMP,
			ip_address TEXT NOT NULL DEFAULT '',
			blocked BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS closed_nets (
			id BIGINT PRIMARY KEY DEFAULT nextval('closed_nets_id_seq'),
			name TEXT NOT NULL,
			alt_name TEXT NOT NULL DEFAULT '',
			frequency TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT '',
			band TEXT NOT NULL DEFAULT '',
			net_control TEXT NOT NULL DEFAULT '',
			net_logger TEXT NOT NULL DEFAULT '',
			host TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP,
			ended_at TIMESTAMP NOT NULL,
			subscriber_count INTEGER NOT NULL DEFAULT 0,
			checkin_count INTEGER NOT NULL DEFAULT 0,
			message_count INTEGER NOT NULL DEFAULT 0,
			monitor_count INTEGER NOT NULL DEFAULT 0,
			center_latitude DOUBLE,
			center_longitude DOUBLE,
			center_radius DOUBLE,
			club_id BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS stations (
			call_sign TEXT PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			county TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			grid_square TEXT NOT NULL DEFAULT '',
			latitude DOUBLE,
			longitude DOUBLE,
			image_url TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMP,
			last_heard_on TEXT NOT NULL DEFAULT '',
			last_heard_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS clubs (
			id BIGINT PRIMARY KEY DEFAULT nextval('clubs_id_seq'),
			name TEXT NOT NULL UNIQUE,
			net_patterns TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS club_stations (
			club_id BIGINT NOT NULL,
			call_sign TEXT NOT NULL,
			check_in_count INTEGER NOT NULL DEFAULT 0,
			first_seen_at TIMESTAMP NOT NULL,
			last_seen_at TIMESTAMP NOT NULL,
			PRIMARY KEY (club_id, call_sign)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_nets_name ON nets(name)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_net ON checkins(net_id)`,
		`CREATE INDEX IF NOT EXISTS idx_monitors_net ON monitors(net_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_net ON messages(net_id)`,
		`CREATE INDEX IF NOT EXISTS idx_closed_nets_name ON closed_nets(name)`,
	}
}
