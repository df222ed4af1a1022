// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package models defines the entities mirrored from NetLogger servers and the
// local records derived from them.
package models

import (
	"time"
)

// Net is an active net session published by a remote NetLogger host.
//
// Name is unique among active nets but the remote does not guarantee it;
// the directory synchronizer resolves collisions last-write-wins.
//
// Refresh bookkeeping:
//   - PartiallyUpdatedAt: last successful refresh of any kind
//   - FullyUpdatedAt: last refresh that fetched the whole roster
//   - ExtDataSerial: highest extended-data serial seen, the next delta cursor
type Net struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	AltName         string    `json:"alt_name,omitempty"`
	Frequency       string    `json:"frequency,omitempty"`
	Mode            string    `json:"mode,omitempty"`
	Band            string    `json:"band,omitempty"`
	NetControl      string    `json:"net_control,omitempty"`
	NetLogger       string    `json:"net_logger,omitempty"`
	Host            string    `json:"host"`
	StartedAt       time.Time `json:"started_at"`
	IMEnabled       bool      `json:"im_enabled"`
	UpdateInterval  int       `json:"update_interval"` // milliseconds
	SubscriberCount int       `json:"subscriber_count"`

	PartiallyUpdatedAt *time.Time `json:"partially_updated_at,omitempty"`
	FullyUpdatedAt     *time.Time `json:"fully_updated_at,omitempty"`
	ExtDataSerial      int64      `json:"ext_data_serial"`

	CenterLatitude  *float64 `json:"center_latitude,omitempty"`
	CenterLongitude *float64 `json:"center_longitude,omitempty"`
	CenterRadius    *float64 `json:"center_radius,omitempty"` // meters

	ClubID    *int64    `json:"club_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NetName implements Named.
func (n *Net) NetName() string { return n.Name }

// ClubRef implements Named.
func (n *Net) ClubRef() *int64 { return n.ClubID }

// SetClub implements Named.
func (n *Net) SetClub(id *int64) { n.ClubID = id }

// UpdateIntervalDuration returns the remote-advertised refresh interval, or
// fallback when the remote did not publish one.
func (n *Net) UpdateIntervalDuration(fallback time.Duration) time.Duration {
	if n.UpdateInterval <= 0 {
		return fallback
	}
	return time.Duration(n.UpdateInterval) * time.Millisecond
}

// LastRefreshedAt returns the later of the partial and full refresh stamps.
func (n *Net) LastRefreshedAt() (time.Time, bool) {
	var last time.Time
	if n.PartiallyUpdatedAt != nil {
		last = *n.PartiallyUpdatedAt
	}
	if n.FullyUpdatedAt != nil && n.FullyUpdatedAt.After(last) {
		last = *n.FullyUpdatedAt
	}
	return last, !last.IsZero()
}

// ClosedNet is the archival snapshot written once when the remote reports a
// net no longer exists. It is never updated afterwards.
type ClosedNet struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	AltName         string    `json:"alt_name,omitempty"`
	Frequency       string    `json:"frequency,omitempty"`
	Mode            string    `json:"mode,omitempty"`
	Band            string    `json:"band,omitempty"`
	NetControl      string    `json:"net_control,omitempty"`
	NetLogger       string    `json:"net_logger,omitempty"`
	Host            string    `json:"host"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	SubscriberCount int       `json:"subscriber_count"`
	CheckinCount    int       `json:"checkin_count"`
	MessageCount    int       `json:"message_count"`
	MonitorCount    int       `json:"monitor_count"`
	CenterLatitude  *float64  `json:"center_latitude,omitempty"`
	CenterLongitude *float64  `json:"center_longitude,omitempty"`
	CenterRadius    *float64  `json:"center_radius,omitempty"`
	ClubID          *int64    `json:"club_id,omitempty"`
}

// NetName implements Named.
func (c *ClosedNet) NetName() string { return c.Name }

// ClubRef implements Named.
func (c *ClosedNet) ClubRef() *int64 { return c.ClubID }

// SetClub implements Named.
func (c *ClosedNet) SetClub(id *int64) { c.ClubID = id }

// RosterCounts are the aggregate sizes captured at archival time.
type RosterCounts struct {
	Checkins int
	Messages int
	Monitors int
}

// Archive builds the closed-net record for n.
func (n *Net) Archive(counts RosterCounts, endedAt time.Time) *ClosedNet {
	return &ClosedNet{
		Name:            n.Name,
		AltName:         n.AltName,
		Frequency:       n.Frequency,
		Mode:            n.Mode,
		Band:            n.Band,
		NetControl:      n.NetControl,
		NetLogger:       n.NetLogger,
		Host:            n.Host,
		StartedAt:       n.StartedAt,
		EndedAt:         endedAt,
		SubscriberCount: n.SubscriberCount,
		CheckinCount:    counts.Checkins,
		MessageCount:    counts.Messages,
		MonitorCount:    counts.Monitors,
		CenterLatitude:  n.CenterLatitude,
		CenterLongitude: n.CenterLongitude,
		CenterRadius:    n.CenterRadius,
		ClubID:          n.ClubID,
	}
}
