// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package models

import (
	"strings"
	"time"
)

// Station caches a call sign directory lookup. ExpiresAt bounds how long the
// record is trusted; LastHeardOn/LastHeardAt are maintained by reconciliation
// independently of the lookup data.
type Station struct {
	CallSign    string     `json:"call_sign"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	County      string     `json:"county,omitempty"`
	Country     string     `json:"country,omitempty"`
	GridSquare  string     `json:"grid_square,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastHeardOn string     `json:"last_heard_on,omitempty"`
	LastHeardAt *time.Time `json:"last_heard_at,omitempty"`
}

// FullName joins first and last name.
func (s *Station) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Fresh reports whether the lookup data is still within its expiry.
func (s *Station) Fresh(now time.Time) bool {
	return s.ExpiresAt != nil && now.Before(*s.ExpiresAt)
}
