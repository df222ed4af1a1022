// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/netmirror/internal/models"
)

const netColumns = `id, name, alt_name, frequency, mode, band, net_control, net_logger, host,
	started_at, im_enabled, update_interval, subscriber_count,
	partially_updated_at, fully_updated_at, ext_data_serial,
	center_latitude, center_longitude, center_radius, club_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNet(row rowScanner) (*models.Net, error) {
	var (
		n                models.Net
		started          sql.NullTime
		partial, full    sql.NullTime
		lat, lon, radius sql.NullFloat64
		club             sql.NullInt64
	)
	err := row.Scan(&n.ID, &n.Name, &n.AltName, &n.Frequency, &n.Mode, &n.Band, &n.NetControl, &n.NetLogger, &n.Host,
		&started, &n.IMEnabled, &n.UpdateInterval, &n.SubscriberCount,
		&partial, &full, &n.ExtDataSerial,
		&lat, &lon, &radius, &club, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.StartedAt = zeroTime(started)
	n.PartiallyUpdatedAt = timePtr(partial)
	n.FullyUpdatedAt = timePtr(full)
	n.CenterLatitude = floatPtr(lat)
	n.CenterLongitude = floatPtr(lon)
	n.CenterRadius = floatPtr(radius)
	n.ClubID = intPtr(club)
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

// ListNets returns every active net ordered by id.
func (db *DB) ListNets(ctx context.Context) ([]*models.Net, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT `+netColumns+` FROM nets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nets: %w", err)
	}
	defer rows.Close()

	nets := make([]*models.Net, 0)
	for rows.Next() {
		n, err := scanNet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan net: %w", err)
		}
		nets = append(nets, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nets: %w", err)
	}
	return nets, nil
}

// FindNetByName returns the active net called name, or nil when there is
// none. When duplicates exist the most recently created wins.
func (db *DB) FindNetByName(ctx context.Context, name string) (*models.Net, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+netColumns+` FROM nets WHERE name = ? ORDER BY id DESC LIMIT 1`, name)
	n, err := scanNet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find net %q: %w", name, err)
	}
	return n, nil
}

// CreateNet inserts n and assigns its ID.
func (db *DB) CreateNet(ctx context.Context, n *models.Net) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO nets (
		name, alt_name, frequency, mode, band, net_control, net_logger, host,
		started_at, im_enabled, update_interval, subscriber_count,
		partially_updated_at, fully_updated_at, ext_data_serial,
		center_latitude, center_longitude, center_radius, club_id, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	err := db.conn.QueryRowContext(ctx, query,
		n.Name, n.AltName, n.Frequency, n.Mode, n.Band, n.NetControl, n.NetLogger, n.Host,
		nullZeroTime(n.StartedAt), n.IMEnabled, n.UpdateInterval, n.SubscriberCount,
		nullTime(n.PartiallyUpdatedAt), nullTime(n.FullyUpdatedAt), n.ExtDataSerial,
		nullFloat(n.CenterLatitude), nullFloat(n.CenterLongitude), nullFloat(n.CenterRadius),
		nullInt(n.ClubID), n.CreatedAt.UTC(),
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to create net %q: %w", n.Name, err)
	}
	return nil
}

// UpdateNet writes every mutable column of n.
func (db *DB) UpdateNet(ctx context.Context, n *models.Net) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE nets SET
		alt_name = ?, frequency = ?, mode = ?, band = ?, net_control = ?, net_logger = ?, host = ?,
		started_at = ?, im_enabled = ?, update_interval = ?, subscriber_count = ?,
		partially_updated_at = ?, fully_updated_at = ?, ext_data_serial = ?,
		center_latitude = ?, center_longitude = ?, center_radius = ?, club_id = ?
	WHERE id = ?`

	res, err := db.conn.ExecContext(ctx, query,
		n.AltName, n.Frequency, n.Mode, n.Band, n.NetControl, n.NetLogger, n.Host,
		nullZeroTime(n.StartedAt), n.IMEnabled, n.UpdateInterval, n.SubscriberCount,
		nullTime(n.PartiallyUpdatedAt), nullTime(n.FullyUpdatedAt), n.ExtDataSerial,
		nullFloat(n.CenterLatitude), nullFloat(n.CenterLongitude), nullFloat(n.CenterRadius),
		nullInt(n.ClubID), n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update net %d: %w", n.ID, err)
	}
	return expectOne(res, "net", n.ID)
}

// DeleteNet removes a net and every checkin, monitor and message it owns.
func (db *DB) DeleteNet(ctx context.Context, id int64) error {
	return db.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return deleteNet(ctx, tx, id)
	})
}

// ArchiveNet records c and deletes the live net netID with its roster in
// one transaction. Nothing is archived when the delete fails.
func (db *DB) ArchiveNet(ctx context.Context, c *models.ClosedNet, netID int64) error {
	return db.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertClosedNet(ctx, tx, c); err != nil {
			return err
		}
		return deleteNet(ctx, tx, netID)
	})
}

// inTx runs fn in a transaction that commits only when fn succeeds.
func (db *DB) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func deleteNet(ctx context.Context, tx *sql.Tx, id int64) error {
	for _, table := range []string{"checkins", "monitors", "messages"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE net_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete %s of net %d: %w", table, id, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM nets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete net %d: %w", id, err)
	}
	return expectOne(res, "net", id)
}

// CountRoster returns the number of checkins, messages and monitors of a net.
func (db *DB) CountRoster(ctx context.Context, netID int64) (models.RosterCounts, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var c models.RosterCounts
	err := db.conn.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM checkins WHERE net_id = ?),
		(SELECT COUNT(*) FROM messages WHERE net_id = ?),
		(SELECT COUNT(*) FROM monitors WHERE net_id = ?)`,
		netID, netID, netID,
	).Scan(&c.Checkins, &c.Messages, &c.Monitors)
	if err != nil {
		return c, fmt.Errorf("failed to count roster of net %d: %w", netID, err)
	}
	return c, nil
}

// insertClosedNet inserts the archive record and assigns its ID.
func insertClosedNet(ctx context.Context, tx *sql.Tx, c *models.ClosedNet) error {
	query := `INSERT INTO closed_nets (
		name, alt_name, frequency, mode, band, net_control, net_logger, host,
		started_at, ended_at, subscriber_count, checkin_count, message_count, monitor_count,
		center_latitude, center_longitude, center_radius, club_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	err := tx.QueryRowContext(ctx, query,
		c.Name, c.AltName, c.Frequency, c.Mode, c.Band, c.NetControl, c.NetLogger, c.Host,
		nullZeroTime(c.StartedAt), c.EndedAt.UTC(), c.SubscriberCount, c.CheckinCount, c.MessageCount, c.MonitorCount,
		nullFloat(c.CenterLatitude), nullFloat(c.CenterLongitude), nullFloat(c.CenterRadius), nullInt(c.ClubID),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to archive net %q: %w", c.Name, err)
	}
	return nil
}

// FindClosedNetByName returns the most recent archive of name, or nil.
func (db *DB) FindClosedNetByName(ctx context.Context, name string) (*models.ClosedNet, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		c                models.ClosedNet
		started          sql.NullTime
		lat, lon, radius sql.NullFloat64
		club             sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `SELECT
		id, name, alt_name, frequency, mode, band, net_control, net_logger, host,
		started_at, ended_at, subscriber_count, checkin_count, message_count, monitor_count,
		center_latitude, center_longitude, center_radius, club_id
	FROM closed_nets WHERE name = ? ORDER BY ended_at DESC LIMIT 1`, name).Scan(
		&c.ID, &c.Name, &c.AltName, &c.Frequency, &c.Mode, &c.Band, &c.NetControl, &c.NetLogger, &c.Host,
		&started, &c.EndedAt, &c.SubscriberCount, &c.CheckinCount, &c.MessageCount, &c.MonitorCount,
		&lat, &lon, &radius, &club,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find closed net %q: %w", name, err)
	}
	c.StartedAt = zeroTime(started)
	c.EndedAt = c.EndedAt.UTC()
	c.CenterLatitude = floatPtr(lat)
	c.CenterLongitude = floatPtr(lon)
	c.CenterRadius = floatPtr(radius)
	c.ClubID = intPtr(club)
	return &c, nil
}
