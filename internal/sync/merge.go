// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
merge.go - Batch Reconciliation

Applies a Batch to the persisted rows of one net and counts what changed.
A matched row is rewritten only when a remote-sourced field differs, so a
second application of the same Batch counts nothing.

Order matters:
 1. checkins (by num), with lookup enrichment and station bookkeeping
 2. currently-operating flag
 3. monitors (by call sign); the blocked flag only ever turns on
 4. messages (by log id); blocked is decided at insert from the monitors,
    then unkeyed local messages are removed
 5. net info, extended-data cursor, geographic center, refresh stamps
*/
//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/netmirror/internal/geo"
	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/models"
)

// merger carries the state of one reconciliation.
type merger struct {
	store   Store
	session StationLookup
	net     *models.Net
	now     time.Time
	changes int
}

// Merge applies b to n and persists n. full stamps the full-refresh time.
// It returns the number of counted changes.
func Merge(ctx context.Context, store Store, n *models.Net, b *Batch, full bool, session StationLookup, now time.Time) (int, error) {
	m := &merger{store: store, session: session, net: n, now: now.UTC()}

	roster, err := m.mergeCheckins(ctx, b.Checkins)
	if err != nil {
		return 0, err
	}
	if b.HasOperating {
		if err := m.mergeOperating(ctx, roster, b.Operating); err != nil {
			return 0, err
		}
	}

	var monitors []*models.Monitor
	if b.HasMonitors {
		if monitors, err = m.mergeMonitors(ctx, b.Monitors); err != nil {
			return 0, err
		}
	} else if monitors, err = store.ListMonitors(ctx, n.ID); err != nil {
		return 0, fmt.Errorf("list monitors: %w", err)
	}

	if err := m.mergeMessages(ctx, b.Messages, monitors); err != nil {
		return 0, err
	}

	if b.Info != nil && applyNetInfo(n, b.Info) {
		m.changes++
	}
	if b.ExtDataSerial > n.ExtDataSerial {
		n.ExtDataSerial = b.ExtDataSerial
	}
	setCenter(n, roster)

	n.PartiallyUpdatedAt = &m.now
	if full {
		n.FullyUpdatedAt = &m.now
	}
	if err := store.UpdateNet(ctx, n); err != nil {
		return 0, fmt.Errorf("update net: %w", err)
	}
	return m.changes, nil
}

// mergeCheckins reconciles the roster and returns it keyed by num.
func (m *merger) mergeCheckins(ctx context.Context, parsed []*models.Checkin) (map[int]*models.Checkin, error) {
	existing, err := m.store.ListCheckins(ctx, m.net.ID)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	roster := make(map[int]*models.Checkin, len(existing))
	for _, c := range existing {
		roster[c.Num] = c
	}

	for _, c := range parsed {
		old := roster[c.Num]

		// A blank row clears its slot.
		if !c.HasCallSign() {
			if old != nil {
				if err := m.store.DeleteCheckin(ctx, old.ID); err != nil {
					return nil, fmt.Errorf("clear checkin %d: %w", c.Num, err)
				}
				delete(roster, c.Num)
				m.changes++
			}
			continue
		}

		m.enrich(ctx, c)
		c.NetID = m.net.ID

		if old != nil {
			c.ID = old.ID
			c.Notes = old.Notes
			c.CurrentlyOperating = old.CurrentlyOperating
			roster[c.Num] = c
			if old.SameContent(c) {
				continue
			}
			if err := m.store.UpdateCheckin(ctx, c); err != nil {
				return nil, fmt.Errorf("update checkin %d: %w", c.Num, err)
			}
		} else {
			if err := m.store.CreateCheckin(ctx, c); err != nil {
				return nil, fmt.Errorf("create checkin %d: %w", c.Num, err)
			}
			roster[c.Num] = c
			if m.net.ClubID != nil {
				if err := m.store.RecordClubCheckin(ctx, *m.net.ClubID, c.CallSign, m.now); err != nil {
					return nil, fmt.Errorf("record club checkin: %w", err)
				}
			}
		}
		m.changes++

		heard := c.CheckedInAt
		if heard.IsZero() {
			heard = m.now
		}
		if err := m.store.TouchStation(ctx, c.CallSign, m.net.Name, heard); err != nil {
			return nil, fmt.Errorf("touch station: %w", err)
		}
	}
	return roster, nil
}

// mergeOperating leaves exactly the checkin numbered num flagged, or none
// when no such checkin exists.
func (m *merger) mergeOperating(ctx context.Context, roster map[int]*models.Checkin, num int) error {
	flips := 0
	for n, c := range roster {
		want := n == num
		if c.CurrentlyOperating != want {
			flips++
			c.CurrentlyOperating = want
		}
	}
	if flips == 0 {
		return nil
	}
	if err := m.store.SetCurrentlyOperating(ctx, m.net.ID, num); err != nil {
		return fmt.Errorf("set operating checkin: %w", err)
	}
	m.changes += flips
	return nil
}

// mergeMonitors reconciles a complete monitor section and returns the
// resulting monitor set.
func (m *merger) mergeMonitors(ctx context.Context, parsed []*models.Monitor) ([]*models.Monitor, error) {
	existing, err := m.store.ListMonitors(ctx, m.net.ID)
	if err != nil {
		return nil, fmt.Errorf("list monitors: %w", err)
	}
	byCall := make(map[string]*models.Monitor, len(existing))
	for _, mon := range existing {
		byCall[strings.ToUpper(mon.CallSign)] = mon
	}

	seen := make(map[string]bool, len(parsed))
	result := make([]*models.Monitor, 0, len(parsed))
	for _, mon := range parsed {
		key := strings.ToUpper(mon.CallSign)
		if seen[key] {
			continue
		}
		seen[key] = true
		mon.NetID = m.net.ID

		if old := byCall[key]; old != nil {
			mon.ID = old.ID
			mon.Blocked = mon.Blocked || old.Blocked
			delete(byCall, key)
			result = append(result, mon)
			if old.SameContent(mon) {
				continue
			}
			if err := m.store.UpdateMonitor(ctx, mon); err != nil {
				return nil, fmt.Errorf("update monitor %s: %w", mon.CallSign, err)
			}
		} else {
			if err := m.store.CreateMonitor(ctx, mon); err != nil {
				return nil, fmt.Errorf("create monitor %s: %w", mon.CallSign, err)
			}
			result = append(result, mon)
		}
		m.changes++
	}

	for _, gone := range byCall {
		if err := m.store.DeleteMonitor(ctx, gone.ID); err != nil {
			return nil, fmt.Errorf("delete monitor %s: %w", gone.CallSign, err)
		}
		m.changes++
	}
	return result, nil
}

func (m *merger) mergeMessages(ctx context.Context, parsed []*models.Message, monitors []*models.Monitor) error {
	blocked := make(map[string]bool)
	for _, mon := range monitors {
		if mon.Blocked {
			blocked[strings.ToUpper(mon.CallSign)] = true
		}
	}

	if len(parsed) > 0 {
		existing, err := m.store.ListMessages(ctx, m.net.ID)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		byLog := make(map[int64]*models.Message, len(existing))
		for _, msg := range existing {
			if msg.LogID != nil {
				byLog[*msg.LogID] = msg
			}
		}

		for _, msg := range parsed {
			msg.NetID = m.net.ID
			if old := byLog[*msg.LogID]; old != nil {
				msg.ID = old.ID
				msg.Blocked = old.Blocked
				if old.SameContent(msg) {
					continue
				}
				if err := m.store.UpdateMessage(ctx, msg); err != nil {
					return fmt.Errorf("update message %d: %w", *msg.LogID, err)
				}
			} else {
				msg.Blocked = blocked[strings.ToUpper(msg.CallSign)]
				if err := m.store.CreateMessage(ctx, msg); err != nil {
					return fmt.Errorf("create message %d: %w", *msg.LogID, err)
				}
				byLog[*msg.LogID] = msg
			}
			m.changes++
		}
	}

	removed, err := m.store.DeleteTempMessages(ctx, m.net.ID)
	if err != nil {
		return fmt.Errorf("delete temporary messages: %w", err)
	}
	m.changes += removed
	return nil
}

// enrich fills the blank location and name fields of a checkin that came
// without a grid square. Failures leave the checkin as parsed.
func (m *merger) enrich(ctx context.Context, c *models.Checkin) {
	if c.GridSquare != "" {
		return
	}
	st := m.station(ctx, c.CallSign)
	if st == nil {
		return
	}

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&c.Name, st.FullName())
	fill(&c.City, st.City)
	fill(&c.State, st.State)
	fill(&c.County, st.County)
	fill(&c.Country, st.Country)
	c.GridSquare = st.GridSquare
	c.Latitude, c.Longitude = st.Latitude, st.Longitude
	if c.Latitude == nil || c.Longitude == nil {
		c.Latitude, c.Longitude = geo.DecodePtr(c.GridSquare)
	}
}

// station reads the station cache and falls back to the lookup session when
// the cached record is missing or expired. Without a session only the cache
// is consulted.
func (m *merger) station(ctx context.Context, call string) *models.Station {
	cached, err := m.store.FindStation(ctx, call)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("call_sign", call).Msg("Station cache read failed")
		return nil
	}
	if cached != nil && cached.Fresh(m.now) {
		return cached
	}
	if m.session == nil {
		return nil
	}

	st, err := m.session.Lookup(ctx, call)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("call_sign", call).Msg("Station lookup failed")
		return nil
	}
	if err := m.store.SaveStation(ctx, st); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("call_sign", call).Msg("Station cache write failed")
	}
	return st
}

// setCenter derives the geographic summary from the located checkins.
func setCenter(n *models.Net, roster map[int]*models.Checkin) {
	points := make([]geo.Point, 0, len(roster))
	for _, c := range roster {
		if c.Latitude != nil && c.Longitude != nil {
			points = append(points, geo.Point{Lat: *c.Latitude, Lon: *c.Longitude})
		}
	}

	center := geo.ComputeCenter(points)
	if center == nil {
		n.CenterLatitude, n.CenterLongitude, n.CenterRadius = nil, nil, nil
		return
	}
	lat, lon := center.Latitude, center.Longitude
	n.CenterLatitude, n.CenterLongitude, n.CenterRadius = &lat, &lon, center.Radius
}
