// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package netlogger

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RowMode tags a submitted roster row.
type RowMode string

const (
	ModeAdd    RowMode = "A"
	ModeUpdate RowMode = "U"
)

// RosterEntry is one roster row in wire field order.
type RosterEntry struct {
	Num           int
	CallSign      string
	City          string
	State         string
	Name          string
	Remarks       string
	QSLInfo       string
	CheckedInAt   time.Time
	County        string
	GridSquare    string
	Street        string
	Zip           string
	Status        string
	Country       string
	DXCC          string
	PreferredName string
}

// WriteRow is a roster row tagged for submission.
type WriteRow struct {
	Mode  RowMode
	Entry RosterEntry
}

// BlankRow clears slot num on the remote.
func BlankRow(num int) WriteRow {
	return WriteRow{Mode: ModeUpdate, Entry: RosterEntry{Num: num}}
}

// FormatRow renders a row as mode|num|call|...|preferred with every text
// field sanitized.
func FormatRow(r WriteRow) string {
	e := r.Entry
	fields := make([]string, RosterFieldCount)
	fields[FieldNum] = strconv.Itoa(e.Num)
	fields[FieldCallSign] = strings.ToUpper(e.CallSign)
	fields[FieldCity] = e.City
	fields[FieldState] = e.State
	fields[FieldName] = e.Name
	fields[FieldRemarks] = e.Remarks
	fields[FieldQSLInfo] = e.QSLInfo
	fields[FieldCheckedInAt] = FormatTime(e.CheckedInAt)
	fields[FieldCounty] = e.County
	fields[FieldGridSquare] = e.GridSquare
	fields[FieldStreet] = e.Street
	fields[FieldZip] = e.Zip
	fields[FieldStatus] = e.Status
	fields[FieldCountry] = e.Country
	fields[FieldDXCC] = e.DXCC
	fields[FieldPreferredName] = e.PreferredName

	for i := range fields {
		fields[i] = Sanitize(fields[i])
	}
	return string(r.Mode) + "|" + strings.Join(fields, "|")
}

// Footer renders the bookkeeping row that closes every submission. It is the
// only way to tell the remote which row is highlighted.
func Footer(highlight int) string {
	return fmt.Sprintf("`%d|future use 2|future use 3|`^future use 4|future use 5^", highlight)
}

// EncodeUpdates joins rows and the footer into the submission payload.
func EncodeUpdates(rows []WriteRow, highlight int) string {
	parts := make([]string, 0, len(rows)+1)
	for _, r := range rows {
		parts = append(parts, FormatRow(r))
	}
	parts = append(parts, Footer(highlight))
	return strings.Join(parts, "~")
}

// SendUpdates submits roster rows for netName on behalf of the net logger
// holding token.
func (c *Client) SendUpdates(ctx context.Context, netName, token string, rows []WriteRow, highlight int) error {
	params := url.Values{
		"ProtocolVersion":       {ProtocolVersion},
		"NetName":               {netName},
		"Token":                 {token},
		"UpdatesFromNetControl": {EncodeUpdates(rows, highlight)},
	}
	_, err := c.Post(ctx, EndpointSendUpdates, params)
	return err
}

// SendMessage posts an instant message to netName as "callSign - name".
func (c *Client) SendMessage(ctx context.Context, netName, callSign, name, text string, netControl bool) error {
	sender := strings.ToUpper(Sanitize(callSign))
	if n := strings.TrimSpace(Sanitize(name)); n != "" {
		sender += " - " + n
	}
	isNC := "N"
	if netControl {
		isNC = "Y"
	}
	params := url.Values{
		"ProtocolVersion": {ProtocolVersion},
		"NetName":         {netName},
		"Callsign":        {sender},
		"IsNetControl":    {isNC},
		"Message":         {Sanitize(text)},
	}
	_, err := c.Post(ctx, EndpointSendMessage, params)
	return err
}
