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
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/netmirror/internal/models"
)

// ========================================
// Stations
// ========================================

// FindStation returns the cached record for callSign, or nil.
func (db *DB) FindStation(ctx context.Context, callSign string) (*models.Station, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		s                  models.Station
		lat, lon           sql.NullFloat64
		expires, lastHeard sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx, `SELECT
		call_sign, first_name, last_name, city, state, county, country, grid_square,
		latitude, longitude, image_url, expires_at, last_heard_on, last_heard_at
	FROM stations WHERE call_sign = ?`, strings.ToUpper(callSign)).Scan(
		&s.CallSign, &s.FirstName, &s.LastName, &s.City, &s.State, &s.County, &s.Country, &s.GridSquare,
		&lat, &lon, &s.ImageURL, &expires, &s.LastHeardOn, &lastHeard,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find station %s: %w", callSign, err)
	}
	s.Latitude = floatPtr(lat)
	s.Longitude = floatPtr(lon)
	s.ExpiresAt = timePtr(expires)
	s.LastHeardAt = timePtr(lastHeard)
	return &s, nil
}

// SaveStation upserts the lookup fields of s. The last-heard columns are
// owned by TouchStation and left untouched on conflict.
func (db *DB) SaveStation(ctx context.Context, s *models.Station) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `INSERT INTO stations (
		call_sign, first_name, last_name, city, state, county, country, grid_square,
		latitude, longitude, image_url, expires_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (call_sign) DO UPDATE SET
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		city = excluded.city,
		state = excluded.state,
		county = excluded.county,
		country = excluded.country,
		grid_square = excluded.grid_square,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		image_url = excluded.image_url,
		expires_at = excluded.expires_at`,
		strings.ToUpper(s.CallSign), s.FirstName, s.LastName, s.City, s.State, s.County, s.Country, s.GridSquare,
		nullFloat(s.Latitude), nullFloat(s.Longitude), s.ImageURL, nullTime(s.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save station %s: %w", s.CallSign, err)
	}
	return nil
}

// TouchStation records that callSign was heard on netName at the given time,
// creating a bare station row when none exists.
func (db *DB) TouchStation(ctx context.Context, callSign, netName string, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `INSERT INTO stations (call_sign, last_heard_on, last_heard_at)
	VALUES (?, ?, ?)
	ON CONFLICT (call_sign) DO UPDATE SET
		last_heard_on = excluded.last_heard_on,
		last_heard_at = excluded.last_heard_at`,
		strings.ToUpper(callSign), netName, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to touch station %s: %w", callSign, err)
	}
	return nil
}

// ========================================
// Clubs
// ========================================

// ListClubs returns every club ordered by id.
func (db *DB) ListClubs(ctx context.Context) ([]*models.Club, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, net_patterns FROM clubs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	defer rows.Close()

	clubs := make([]*models.Club, 0)
	for rows.Next() {
		var (
			c        models.Club
			patterns string
		)
		if err := rows.Scan(&c.ID, &c.Name, &patterns); err != nil {
			return nil, fmt.Errorf("failed to scan club: %w", err)
		}
		if err := json.Unmarshal([]byte(patterns), &c.NetPatterns); err != nil {
			return nil, fmt.Errorf("club %d has malformed patterns: %w", c.ID, err)
		}
		clubs = append(clubs, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clubs: %w", err)
	}
	return clubs, nil
}

// UpsertClub creates the club named c.Name or replaces its patterns, and
// assigns c.ID.
func (db *DB) UpsertClub(ctx context.Context, c *models.Club) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	patterns := c.NetPatterns
	if patterns == nil {
		patterns = []string{}
	}
	raw, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("failed to encode club patterns: %w", err)
	}

	err = db.conn.QueryRowContext(ctx, `INSERT INTO clubs (name, net_patterns) VALUES (?, ?)
	ON CONFLICT (name) DO UPDATE SET net_patterns = excluded.net_patterns
	RETURNING id`, c.Name, string(raw)).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to save club %q: %w", c.Name, err)
	}
	return nil
}

// RecordClubCheckin increments the club's tally for callSign atomically,
// creating the record on first sight.
func (db *DB) RecordClubCheckin(ctx context.Context, clubID int64, callSign string, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	at = at.UTC()
	_, err := db.conn.ExecContext(ctx, `INSERT INTO club_stations (club_id, call_sign, check_in_count, first_seen_at, last_seen_at)
	VALUES (?, ?, 1, ?, ?)
	ON CONFLICT (club_id, call_sign) DO UPDATE SET
		check_in_count = check_in_count + 1,
		last_seen_at = excluded.last_seen_at`,
		clubID, strings.ToUpper(callSign), at, at,
	)
	if err != nil {
		return fmt.Errorf("failed to record club %d checkin of %s: %w", clubID, callSign, err)
	}
	return nil
}

// GetClubStation returns the tally for callSign in a club, or nil.
func (db *DB) GetClubStation(ctx context.Context, clubID int64, callSign string) (*models.ClubStation, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var cs models.ClubStation
	err := db.conn.QueryRowContext(ctx, `SELECT club_id, call_sign, check_in_count, first_seen_at, last_seen_at
		FROM club_stations WHERE club_id = ? AND call_sign = ?`, clubID, strings.ToUpper(callSign)).Scan(
		&cs.ClubID, &cs.CallSign, &cs.CheckInCount, &cs.FirstSeenAt, &cs.LastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get club station: %w", err)
	}
	cs.FirstSeenAt = cs.FirstSeenAt.UTC()
	cs.LastSeenAt = cs.LastSeenAt.UTC()
	return &cs, nil
}
