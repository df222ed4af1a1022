// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/netmirror/internal/models"
)

// ========================================
// Checkins
// ========================================

// ListCheckins returns the roster of a net ordered by num.
func (db *DB) ListCheckins(ctx context.Context, netID int64) ([]*models.Checkin, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT
		id, net_id, num, call_sign, name, preferred_name, remarks, notes, qsl_info,
		street, zip, city, state, county, country, dxcc, grid_square,
		latitude, longitude, status, checked_in_at, currently_operating
	FROM checkins WHERE net_id = ? ORDER BY num, id`, netID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins of net %d: %w", netID, err)
	}
	defer rows.Close()

	checkins := make([]*models.Checkin, 0)
	for rows.Next() {
		var (
			c        models.Checkin
			lat, lon sql.NullFloat64
			at       sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.NetID, &c.Num, &c.CallSign, &c.Name, &c.PreferredName, &c.Remarks, &c.Notes, &c.QSLInfo,
			&c.Street, &c.Zip, &c.City, &c.State, &c.County, &c.Country, &c.DXCC, &c.GridSquare,
			&lat, &lon, &c.Status, &at, &c.CurrentlyOperating); err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		c.Latitude = floatPtr(lat)
		c.Longitude = floatPtr(lon)
		c.CheckedInAt = zeroTime(at)
		checkins = append(checkins, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkins: %w", err)
	}
	return checkins, nil
}

// CreateCheckin inserts c and assigns its ID.
func (db *DB) CreateCheckin(ctx context.Context, c *models.Checkin) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx, `INSERT INTO checkins (
		net_id, num, call_sign, name, preferred_name, remarks, notes, qsl_info,
		street, zip, city, state, county, country, dxcc, grid_square,
		latitude, longitude, status, checked_in_at, currently_operating
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		c.NetID, c.Num, c.CallSign, c.Name, c.PreferredName, c.Remarks, c.Notes, c.QSLInfo,
		c.Street, c.Zip, c.City, c.State, c.County, c.Country, c.DXCC, c.GridSquare,
		nullFloat(c.Latitude), nullFloat(c.Longitude), c.Status, nullZeroTime(c.CheckedInAt), c.CurrentlyOperating,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to create checkin %d of net %d: %w", c.Num, c.NetID, err)
	}
	return nil
}

// UpdateCheckin writes every mutable column of c.
func (db *DB) UpdateCheckin(ctx context.Context, c *models.Checkin) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `UPDATE checkins SET
		num = ?, call_sign = ?, name = ?, preferred_name = ?, remarks = ?, notes = ?, qsl_info = ?,
		street = ?, zip = ?, city = ?, state = ?, county = ?, country = ?, dxcc = ?, grid_square = ?,
		latitude = ?, longitude = ?, status = ?, checked_in_at = ?, currently_operating = ?
	WHERE id = ?`,
		c.Num, c.CallSign, c.Name, c.PreferredName, c.Remarks, c.Notes, c.QSLInfo,
		c.Street, c.Zip, c.City, c.State, c.County, c.Country, c.DXCC, c.GridSquare,
		nullFloat(c.Latitude), nullFloat(c.Longitude), c.Status, nullZeroTime(c.CheckedInAt), c.CurrentlyOperating,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update checkin %d: %w", c.ID, err)
	}
	return expectOne(res, "checkin", c.ID)
}

// DeleteCheckin removes one checkin.
func (db *DB) DeleteCheckin(ctx context.Context, id int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM checkins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete checkin %d: %w", id, err)
	}
	return expectOne(res, "checkin", id)
}

// ShiftCheckins adds delta to num of every checkin of the net with
// num >= from.
func (db *DB) ShiftCheckins(ctx context.Context, netID int64, from, delta int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, `UPDATE checkins SET num = num + ? WHERE net_id = ? AND num >= ?`,
		delta, netID, from); err != nil {
		return fmt.Errorf("failed to shift checkins of net %d: %w", netID, err)
	}
	return nil
}

// SetCurrentlyOperating marks the checkin with num as operating and clears
// the flag on every other checkin of the net. num <= 0 clears them all.
func (db *DB) SetCurrentlyOperating(ctx context.Context, netID int64, num int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, `UPDATE checkins SET currently_operating = (num = ?)
		WHERE net_id = ? AND currently_operating <> (num = ?)`, num, netID, num); err != nil {
		return fmt.Errorf("failed to set operating checkin of net %d: %w", netID, err)
	}
	return nil
}

// ========================================
// Monitors
// ========================================

// ListMonitors returns the monitors of a net ordered by call sign.
func (db *DB) ListMonitors(ctx context.Context, netID int64) ([]*models.Monitor, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, net_id, call_sign, name, version, status, ip_address, blocked
		FROM monitors WHERE net_id = ? ORDER BY call_sign`, netID)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitors of net %d: %w", netID, err)
	}
	defer rows.Close()

	monitors := make([]*models.Monitor, 0)
	for rows.Next() {
		var m models.Monitor
		if err := rows.Scan(&m.ID, &m.NetID, &m.CallSign, &m.Name, &m.Version, &m.Status, &m.IPAddress, &m.Blocked); err != nil {
			return nil, fmt.Errorf("failed to scan monitor: %w", err)
		}
		monitors = append(monitors, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monitors: %w", err)
	}
	return monitors, nil
}

// CreateMonitor inserts m and assigns its ID.
func (db *DB) CreateMonitor(ctx context.Context, m *models.Monitor) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx, `INSERT INTO monitors (net_id, call_sign, name, version, status, ip_address, blocked)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		m.NetID, m.CallSign, m.Name, m.Version, m.Status, m.IPAddress, m.Blocked,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to create monitor %s of net %d: %w", m.CallSign, m.NetID, err)
	}
	return nil
}

// UpdateMonitor writes every mutable column of m.
func (db *DB) UpdateMonitor(ctx context.Context, m *models.Monitor) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `UPDATE monitors SET name = ?, version = ?, status = ?, ip_address = ?, blocked = ?
		WHERE id = ?`, m.Name, m.Version, m.Status, m.IPAddress, m.Blocked, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update monitor %d: %w", m.ID, err)
	}
	return expectOne(res, "monitor", m.ID)
}

// DeleteMonitor removes one monitor.
func (db *DB) DeleteMonitor(ctx context.Context, id int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM monitors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete monitor %d: %w", id, err)
	}
	return expectOne(res, "monitor", id)
}

// ========================================
// Messages
// ========================================

// ListMessages returns the messages of a net in log order. Unkeyed local
// messages sort last.
func (db *DB) ListMessages(ctx context.Context, netID int64) ([]*models.Message, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, net_id, log_id, call_sign, name, message, sent_at, ip_address, blocked
		FROM messages WHERE net_id = ? ORDER BY log_id NULLS LAST, id`, netID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of net %d: %w", netID, err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		var (
			m     models.Message
			logID sql.NullInt64
			sent  sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.NetID, &logID, &m.CallSign, &m.Name, &m.Message, &sent, &m.IPAddress, &m.Blocked); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.LogID = intPtr(logID)
		m.SentAt = zeroTime(sent)
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// CreateMessage inserts m and assigns its ID.
func (db *DB) CreateMessage(ctx context.Context, m *models.Message) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx, `INSERT INTO messages (net_id, log_id, call_sign, name, message, sent_at, ip_address, blocked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		m.NetID, nullInt(m.LogID), m.CallSign, m.Name, m.Message, nullZeroTime(m.SentAt), m.IPAddress, m.Blocked,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to create message of net %d: %w", m.NetID, err)
	}
	return nil
}

// UpdateMessage writes the remote-sourced columns of m. Blocked is fixed at
// insert.
func (db *DB) UpdateMessage(ctx context.Context, m *models.Message) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `UPDATE messages SET call_sign = ?, name = ?, message = ?, sent_at = ?, ip_address = ?
		WHERE id = ?`, m.CallSign, m.Name, m.Message, nullZeroTime(m.SentAt), m.IPAddress, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update message %d: %w", m.ID, err)
	}
	return expectOne(res, "message", m.ID)
}

// DeleteTempMessages removes the unkeyed local messages of a net and returns
// how many were removed.
func (db *DB) DeleteTempMessages(ctx context.Context, netID int64) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM messages WHERE net_id = ? AND log_id IS NULL`, netID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete temporary messages of net %d: %w", netID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
