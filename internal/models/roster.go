// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package models

import (
	"strings"
	"time"
)

// Checkin is one roster row. Num is assigned by the remote host and shifts
// when rows are inserted or deleted ahead of it.
type Checkin struct {
	ID            int64     `json:"id"`
	NetID         int64     `json:"net_id"`
	Num           int       `json:"num"`
	CallSign      string    `json:"call_sign"`
	Name          string    `json:"name,omitempty"`
	PreferredName string    `json:"preferred_name,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	QSLInfo       string    `json:"qsl_info,omitempty"`
	Street        string    `json:"street,omitempty"`
	Zip           string    `json:"zip,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	County        string    `json:"county,omitempty"`
	Country       string    `json:"country,omitempty"`
	DXCC          string    `json:"dxcc,omitempty"`
	GridSquare    string    `json:"grid_square,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	Status        string    `json:"status,omitempty"`
	CheckedInAt   time.Time `json:"checked_in_at"`

	CurrentlyOperating bool `json:"currently_operating"`
}

// SameContent reports whether every remote-sourced field of c equals o.
// ID, NetID and CurrentlyOperating are not compared.
func (c *Checkin) SameContent(o *Checkin) bool {
	return c.Num == o.Num &&
		c.CallSign == o.CallSign &&
		c.Name == o.Name &&
		c.PreferredName == o.PreferredName &&
		c.Remarks == o.Remarks &&
		c.Notes == o.Notes &&
		c.QSLInfo == o.QSLInfo &&
		c.Street == o.Street &&
		c.Zip == o.Zip &&
		c.City == o.City &&
		c.State == o.State &&
		c.County == o.County &&
		c.Country == o.Country &&
		c.DXCC == o.DXCC &&
		c.GridSquare == o.GridSquare &&
		equalFloatPtr(c.Latitude, o.Latitude) &&
		equalFloatPtr(c.Longitude, o.Longitude) &&
		c.Status == o.Status &&
		c.CheckedInAt.Equal(o.CheckedInAt)
}

// HasCallSign reports whether the row names a station rather than a blank slot.
func (c *Checkin) HasCallSign() bool {
	return strings.TrimSpace(c.CallSign) != ""
}

// Monitor is a station listening to a net without checking in.
// Blocked is set locally and never cleared by a refresh.
type Monitor struct {
	ID        int64  `json:"id"`
	NetID     int64  `json:"net_id"`
	CallSign  string `json:"call_sign"`
	Name      string `json:"name,omitempty"`
	Version   string `json:"version,omitempty"`
	Status    string `json:"status"`
	IPAddress string `json:"-"`
	Blocked   bool   `json:"blocked"`
}

// SameContent compares the remote-sourced fields plus the blocked flag.
func (m *Monitor) SameContent(o *Monitor) bool {
	return m.CallSign == o.CallSign &&
		m.Name == o.Name &&
		m.Version == o.Version &&
		m.Status == o.Status &&
		m.IPAddress == o.IPAddress &&
		m.Blocked == o.Blocked
}

// Message is an instant message posted to a net. LogID is nil for a message
// sent locally and not yet echoed back by the remote.
type Message struct {
	ID        int64     `json:"id"`
	NetID     int64     `json:"net_id"`
	LogID     *int64    `json:"log_id,omitempty"`
	CallSign  string    `json:"call_sign"`
	Name      string    `json:"name,omitempty"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
	IPAddress string    `json:"-"`
	Blocked   bool      `json:"blocked"`
}

// SameContent compares the remote-sourced fields. Blocked is fixed at insert.
func (m *Message) SameContent(o *Message) bool {
	return m.CallSign == o.CallSign &&
		m.Name == o.Name &&
		m.Message == o.Message &&
		m.SentAt.Equal(o.SentAt) &&
		m.IPAddress == o.IPAddress
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
