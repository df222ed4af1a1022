// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
roster_editor.go - Roster Write-Back

Edits are submitted to the host as a batch of tagged rows followed by the
footer row carrying the highlighted number:

  - InsertAt(n):  A|n new row, then U|k+1 for every row k >= n
  - UpdateAt(n):  U|n when row n exists, else A|n
  - DeleteAt(n):  U|k-1 for every row k > n, then a blank U|max
  - Highlight(n): the footer alone

Each edit holds one net cache lease while it submits, mirrors the new
numbering locally and forces a full refresh so the local roster matches
what the host actually stored. New rows without a check-in time are
stamped with the current time.
*/
//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/netmirror/internal/advisory"
	"github.com/tomtom215/netmirror/internal/geo"
	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/metrics"
	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
	"github.com/tomtom215/netmirror/internal/validation"
)

// ErrNoSuchRow is returned when an edit targets a number outside the roster.
var ErrNoSuchRow = errors.New("no such roster row")

// Entry is the content of one roster row as entered by the net logger.
type Entry struct {
	CallSign      string `validate:"required,callsign,max=16"`
	Name          string `validate:"max=64"`
	PreferredName string `validate:"max=64"`
	City          string `validate:"max=64"`
	State         string `validate:"max=32"`
	County        string `validate:"max=64"`
	Country       string `validate:"max=64"`
	Street        string `validate:"max=128"`
	Zip           string `validate:"max=16"`
	GridSquare    string `validate:"omitempty,gridsquare"`
	Remarks       string `validate:"max=256"`
	QSLInfo       string `validate:"max=64"`
	Status        string `validate:"max=32"`
	DXCC          string `validate:"max=8"`
	CheckedInAt   time.Time
}

// instantMessage is validated before it is sent.
type instantMessage struct {
	CallSign string `validate:"required,callsign,max=16"`
	Name     string `validate:"max=64"`
	Text     string `validate:"required,max=512"`
}

// RosterEditor writes roster edits back to the host.
type RosterEditor struct {
	store   Store
	remotes Remotes
	locker  advisory.Locker
	syncer  *NetSynchronizer
}

// NewRosterEditor creates an editor that refreshes through syncer.
func NewRosterEditor(store Store, remotes Remotes, locker advisory.Locker, syncer *NetSynchronizer) *RosterEditor {
	return &RosterEditor{store: store, remotes: remotes, locker: locker, syncer: syncer}
}

// editFunc submits one edit for n and mirrors it into the store.
type editFunc func(ctx context.Context, n *models.Net, roster []*models.Checkin, remote Remote) error

// InsertAt inserts entry at num, shifting num and every later row up by one.
func (e *RosterEditor) InsertAt(ctx context.Context, netName, token string, num int, entry Entry) (Result, error) {
	if err := validation.ValidateStruct(&entry); err != nil {
		return Result{}, err
	}
	return e.edit(ctx, netName, "insert", func(ctx context.Context, n *models.Net, roster []*models.Checkin, remote Remote) error {
		if num < 1 || num > maxNum(roster)+1 {
			return fmt.Errorf("%w: insert at %d", ErrNoSuchRow, num)
		}

		c := entry.checkin(n.ID, num)
		e.stamp(c)
		rows := []netlogger.WriteRow{{Mode: netlogger.ModeAdd, Entry: rosterEntry(c)}}
		for _, old := range roster {
			if old.Num >= num {
				shifted := *old
				shifted.Num++
				rows = append(rows, netlogger.WriteRow{Mode: netlogger.ModeUpdate, Entry: rosterEntry(&shifted)})
			}
		}
		highlight := operatingNum(roster)
		if highlight >= num {
			highlight++
		}
		if err := remote.SendUpdates(ctx, n.Name, token, rows, highlight); err != nil {
			return err
		}

		if err := e.store.ShiftCheckins(ctx, n.ID, num, 1); err != nil {
			return err
		}
		return e.store.CreateCheckin(ctx, c)
	})
}

// UpdateAt replaces row num with entry, adding it when the row is missing.
// A zero CheckedInAt and blank QSL, street, zip or DXCC keep the row's
// current values.
func (e *RosterEditor) UpdateAt(ctx context.Context, netName, token string, num int, entry Entry) (Result, error) {
	if err := validation.ValidateStruct(&entry); err != nil {
		return Result{}, err
	}
	return e.edit(ctx, netName, "update", func(ctx context.Context, n *models.Net, roster []*models.Checkin, remote Remote) error {
		if num < 1 {
			return fmt.Errorf("%w: update at %d", ErrNoSuchRow, num)
		}

		c := entry.checkin(n.ID, num)
		old := findNum(roster, num)
		mode := netlogger.ModeAdd
		if old != nil {
			mode = netlogger.ModeUpdate
			keepUnset(c, old)
		} else {
			e.stamp(c)
		}
		rows := []netlogger.WriteRow{{Mode: mode, Entry: rosterEntry(c)}}
		if err := remote.SendUpdates(ctx, n.Name, token, rows, operatingNum(roster)); err != nil {
			return err
		}

		if old != nil {
			return e.store.UpdateCheckin(ctx, c)
		}
		return e.store.CreateCheckin(ctx, c)
	})
}

// DeleteAt removes row num and shifts every later row down by one. The
// vacated highest number is cleared with a blank row.
func (e *RosterEditor) DeleteAt(ctx context.Context, netName, token string, num int) (Result, error) {
	return e.edit(ctx, netName, "delete", func(ctx context.Context, n *models.Net, roster []*models.Checkin, remote Remote) error {
		target := findNum(roster, num)
		if target == nil {
			return fmt.Errorf("%w: delete at %d", ErrNoSuchRow, num)
		}

		var rows []netlogger.WriteRow
		for _, old := range roster {
			if old.Num > num {
				shifted := *old
				shifted.Num--
				rows = append(rows, netlogger.WriteRow{Mode: netlogger.ModeUpdate, Entry: rosterEntry(&shifted)})
			}
		}
		rows = append(rows, netlogger.BlankRow(maxNum(roster)))

		highlight := operatingNum(roster)
		switch {
		case highlight == num:
			highlight = 0
		case highlight > num:
			highlight--
		}
		if err := remote.SendUpdates(ctx, n.Name, token, rows, highlight); err != nil {
			return err
		}

		if err := e.store.DeleteCheckin(ctx, target.ID); err != nil {
			return err
		}
		return e.store.ShiftCheckins(ctx, n.ID, num+1, -1)
	})
}

// Highlight marks row num as currently operating. Zero clears the highlight.
func (e *RosterEditor) Highlight(ctx context.Context, netName, token string, num int) (Result, error) {
	return e.edit(ctx, netName, "highlight", func(ctx context.Context, n *models.Net, roster []*models.Checkin, remote Remote) error {
		if num != 0 && findNum(roster, num) == nil {
			return fmt.Errorf("%w: highlight %d", ErrNoSuchRow, num)
		}
		if err := remote.SendUpdates(ctx, n.Name, token, nil, num); err != nil {
			return err
		}
		return e.store.SetCurrentlyOperating(ctx, n.ID, num)
	})
}

// SendMessage posts an instant message and records it locally without a
// log id until the host echoes it back.
func (e *RosterEditor) SendMessage(ctx context.Context, netName, callSign, name, text string, netControl bool) (Result, error) {
	msg := instantMessage{CallSign: strings.TrimSpace(callSign), Name: strings.TrimSpace(name), Text: strings.TrimSpace(text)}
	if err := validation.ValidateStruct(&msg); err != nil {
		return Result{}, err
	}
	return e.edit(ctx, netName, "message", func(ctx context.Context, n *models.Net, _ []*models.Checkin, remote Remote) error {
		if err := remote.SendMessage(ctx, n.Name, msg.CallSign, msg.Name, msg.Text, netControl); err != nil {
			return err
		}
		return e.store.CreateMessage(ctx, &models.Message{
			NetID:    n.ID,
			CallSign: strings.ToUpper(msg.CallSign),
			Name:     msg.Name,
			Message:  msg.Text,
			SentAt:   e.syncer.now().UTC(),
		})
	})
}

// edit runs fn and the forced refresh that follows it under one net cache
// lease. Once fn succeeds the edit is applied, so a failed refresh is
// reported as deferred rather than as an error.
func (e *RosterEditor) edit(ctx context.Context, netName, op string, fn editFunc) (Result, error) {
	ctx = logging.ContextWithNet(ctx, netName)
	start := e.syncer.now()

	lease, err := e.locker.Acquire(ctx, advisory.NetCacheKey(netName), e.syncer.opts.LockTimeout)
	if err != nil {
		if errors.Is(err, advisory.ErrTimeout) {
			return Result{}, fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
		return Result{}, fmt.Errorf("acquire net cache lock: %w", err)
	}
	defer func() {
		if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
			logging.Ctx(ctx).Warn().Err(rerr).Msg("Failed to release net cache lock")
		}
	}()

	n, err := e.syncer.load(ctx, netName)
	if err != nil {
		return Result{}, err
	}
	roster, err := e.store.ListCheckins(ctx, n.ID)
	if err != nil {
		return Result{}, fmt.Errorf("list checkins: %w", err)
	}

	err = fn(ctx, n, roster, e.remotes.Remote(n.Host))
	metrics.RecordWriteBack(op, err)
	if err != nil {
		return Result{}, fmt.Errorf("%s on net %q: %w", op, netName, err)
	}
	log := logging.Ctx(ctx).With().Str("operation", op).Logger()
	log.Info().Msg("Roster edit submitted")

	res, err := e.syncer.updateLocked(ctx, netName, ModeForced, nil, start)
	if err != nil {
		log.Warn().Err(err).Msg("Refresh after roster edit failed")
		return Result{Deferred: true}, nil
	}
	return res, nil
}

func (en *Entry) checkin(netID int64, num int) *models.Checkin {
	grid := strings.TrimSpace(en.GridSquare)
	lat, lon := geo.DecodePtr(grid)
	return &models.Checkin{
		NetID:         netID,
		Num:           num,
		CallSign:      strings.ToUpper(strings.TrimSpace(en.CallSign)),
		Name:          en.Name,
		PreferredName: en.PreferredName,
		Remarks:       en.Remarks,
		QSLInfo:       en.QSLInfo,
		Street:        en.Street,
		Zip:           en.Zip,
		City:          en.City,
		State:         en.State,
		County:        en.County,
		Country:       en.Country,
		DXCC:          en.DXCC,
		GridSquare:    grid,
		Latitude:      lat,
		Longitude:     lon,
		Status:        en.Status,
		CheckedInAt:   en.CheckedInAt.UTC(),
	}
}

// stamp sets a missing check-in time on a new row.
func (e *RosterEditor) stamp(c *models.Checkin) {
	if c.CheckedInAt.IsZero() {
		c.CheckedInAt = e.syncer.now().UTC().Truncate(time.Second)
	}
}

// keepUnset copies the bookkeeping fields of old into c, along with the
// check-in time and the details an Entry left blank.
func keepUnset(c, old *models.Checkin) {
	c.ID = old.ID
	c.Notes = old.Notes
	c.CurrentlyOperating = old.CurrentlyOperating
	if c.CheckedInAt.IsZero() {
		c.CheckedInAt = old.CheckedInAt
	}
	keep := func(dst *string, prev string) {
		if *dst == "" {
			*dst = prev
		}
	}
	keep(&c.QSLInfo, old.QSLInfo)
	keep(&c.Street, old.Street)
	keep(&c.Zip, old.Zip)
	keep(&c.DXCC, old.DXCC)
}

func rosterEntry(c *models.Checkin) netlogger.RosterEntry {
	return netlogger.RosterEntry{
		Num:           c.Num,
		CallSign:      c.CallSign,
		City:          c.City,
		State:         c.State,
		Name:          c.Name,
		Remarks:       c.Remarks,
		QSLInfo:       c.QSLInfo,
		CheckedInAt:   c.CheckedInAt,
		County:        c.County,
		GridSquare:    c.GridSquare,
		Street:        c.Street,
		Zip:           c.Zip,
		Status:        c.Status,
		Country:       c.Country,
		DXCC:          c.DXCC,
		PreferredName: c.PreferredName,
	}
}

func findNum(roster []*models.Checkin, num int) *models.Checkin {
	for _, c := range roster {
		if c.Num == num {
			return c
		}
	}
	return nil
}

func maxNum(roster []*models.Checkin) int {
	highest := 0
	for _, c := range roster {
		if c.Num > highest {
			highest = c.Num
		}
	}
	return highest
}

func operatingNum(roster []*models.Checkin) int {
	for _, c := range roster {
		if c.CurrentlyOperating {
			return c.Num
		}
	}
	return 0
}
