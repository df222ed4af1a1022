// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

/*
parse.go - Remote Section Decoding

Turns the sections of a per-net fetch into a Batch and the directory listing
into candidate nets. Row layouts:

  - roster:   num|call|city|state|name|remarks|qsl|checked-in|county|grid|
    street|zip|status|unused|country|dxcc|preferred
  - footer:   `N|future use 2|... (last roster row, N = operating num)
  - monitors: "CALL - extra - status"|ip
  - extdata:  serial|subtype|value (subtype 3 blocks monitor row <value>)
  - IM:       log id|"CALL - name"|text|sent at|ip
  - NetInfo:  key=value pairs, one per field

A row that cannot be decoded is dropped on its own and counted in
netmirror_rows_dropped_total.
*/
//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/netmirror/internal/geo"
	"github.com/tomtom215/netmirror/internal/logging"
	"github.com/tomtom215/netmirror/internal/metrics"
	"github.com/tomtom215/netmirror/internal/models"
	"github.com/tomtom215/netmirror/internal/netlogger"
)

// extDataBlockMonitor is the extended-data subtype that blocks a monitor.
const extDataBlockMonitor = "3"

// defaultMonitorStatus applies when a monitor row carries no status.
const defaultMonitorStatus = "Online"

var (
	versionPattern     = regexp.MustCompile(`^[vV]?\d+(\.\d+)+[A-Za-z]*$`)
	monitorCallPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	footerPattern      = regexp.MustCompile("^`(\\d+)$")
)

// Batch is one decoded per-net response.
type Batch struct {
	Checkins []*models.Checkin

	// Operating is the num flagged as currently operating, valid when
	// HasOperating is set.
	Operating    int
	HasOperating bool

	// Monitors is nil when the response carried no monitor section, which
	// is different from an empty section.
	Monitors    []*models.Monitor
	HasMonitors bool

	// ExtDataSerial is the highest extended-data serial seen, 0 if none.
	ExtDataSerial int64

	Messages []*models.Message

	// Info holds the NetInfo pairs keyed by lower-cased, space-free key.
	Info map[string]string
}

// ParseBatch decodes the sections of a GetUpdates response.
func ParseBatch(s netlogger.Sections) *Batch {
	b := &Batch{}

	rows := s.Rows(netlogger.SectionData)
	if n := len(rows); n > 0 {
		if m := footerPattern.FindStringSubmatch(netlogger.Field(rows[n-1], netlogger.FieldNum)); m != nil {
			if num, err := strconv.Atoi(m[1]); err == nil {
				b.Operating, b.HasOperating = num, true
			}
		}
	}
	for _, fields := range rows {
		c, err := parseCheckin(fields)
		if err != nil {
			dropRow(netlogger.SectionData, fields, err)
			continue
		}
		if c != nil {
			b.Checkins = append(b.Checkins, c)
		}
	}

	blocked := map[int]bool{}
	for _, fields := range s.Rows(netlogger.SectionExtData) {
		serial, err := strconv.ParseInt(netlogger.Field(fields, 0), 10, 64)
		if err != nil {
			dropRow(netlogger.SectionExtData, fields, err)
			continue
		}
		if serial > b.ExtDataSerial {
			b.ExtDataSerial = serial
		}
		if netlogger.Field(fields, 1) == extDataBlockMonitor {
			if idx, err := strconv.Atoi(netlogger.Field(fields, 2)); err == nil && idx >= 0 {
				blocked[idx] = true
			}
		}
	}

	if s.Has(netlogger.SectionMonitors) {
		b.HasMonitors = true
		b.Monitors = []*models.Monitor{}
		for i, fields := range s.Rows(netlogger.SectionMonitors) {
			m := parseMonitor(fields)
			if m == nil {
				continue
			}
			m.Blocked = blocked[i]
			b.Monitors = append(b.Monitors, m)
		}
	}

	for _, fields := range s.Rows(netlogger.SectionMessages) {
		m, err := parseMessage(fields)
		if err != nil {
			dropRow(netlogger.SectionMessages, fields, err)
			continue
		}
		b.Messages = append(b.Messages, m)
	}

	if s.Has(netlogger.SectionNetInfo) {
		b.Info = parseNetInfo(s.Rows(netlogger.SectionNetInfo))
	}
	return b
}

// parseCheckin decodes one roster row. The footer row yields nil, nil.
func parseCheckin(fields []string) (*models.Checkin, error) {
	call := netlogger.Field(fields, netlogger.FieldCallSign)
	if strings.EqualFold(call, netlogger.FooterCallSign) {
		return nil, nil
	}

	num, err := strconv.Atoi(netlogger.Field(fields, netlogger.FieldNum))
	if err != nil || num < 1 {
		return nil, fmt.Errorf("bad sequence number %q", netlogger.Field(fields, netlogger.FieldNum))
	}

	var at time.Time
	if raw := netlogger.Field(fields, netlogger.FieldCheckedInAt); raw != "" {
		if at, err = netlogger.ParseTime(raw); err != nil {
			return nil, fmt.Errorf("bad check-in time: %w", err)
		}
	}

	grid := netlogger.Field(fields, netlogger.FieldGridSquare)
	lat, lon := geo.DecodePtr(grid)

	return &models.Checkin{
		Num:           num,
		CallSign:      strings.ToUpper(call),
		City:          netlogger.Field(fields, netlogger.FieldCity),
		State:         netlogger.Field(fields, netlogger.FieldState),
		Name:          netlogger.Field(fields, netlogger.FieldName),
		Remarks:       netlogger.Field(fields, netlogger.FieldRemarks),
		QSLInfo:       netlogger.Field(fields, netlogger.FieldQSLInfo),
		CheckedInAt:   at,
		County:        netlogger.Field(fields, netlogger.FieldCounty),
		GridSquare:    grid,
		Latitude:      lat,
		Longitude:     lon,
		Street:        netlogger.Field(fields, netlogger.FieldStreet),
		Zip:           netlogger.Field(fields, netlogger.FieldZip),
		Status:        netlogger.Field(fields, netlogger.FieldStatus),
		Country:       netlogger.Field(fields, netlogger.FieldCountry),
		DXCC:          netlogger.Field(fields, netlogger.FieldDXCC),
		PreferredName: netlogger.Field(fields, netlogger.FieldPreferredName),
	}, nil
}

// parseMonitor decodes one monitor row, returning nil for call signs that
// are not purely alphanumeric.
func parseMonitor(fields []string) *models.Monitor {
	parts := splitComposite(netlogger.Field(fields, 0))
	if len(parts) == 0 || !monitorCallPattern.MatchString(parts[0]) {
		return nil
	}

	m := &models.Monitor{
		CallSign:  strings.ToUpper(parts[0]),
		Status:    defaultMonitorStatus,
		IPAddress: netlogger.Field(fields, 1),
	}
	var extra []string
	for _, p := range parts[1:] {
		if m.Version == "" && versionPattern.MatchString(p) {
			m.Version = p
			continue
		}
		extra = append(extra, p)
	}
	switch len(extra) {
	case 0:
	case 1:
		m.Status = extra[0]
	default:
		m.Name = extra[0]
		m.Status = extra[len(extra)-1]
	}
	return m
}

func parseMessage(fields []string) (*models.Message, error) {
	logID, err := strconv.ParseInt(netlogger.Field(fields, 0), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad log id: %w", err)
	}
	parts := splitComposite(netlogger.Field(fields, 1))
	if len(parts) == 0 {
		return nil, errors.New("missing sender")
	}
	sent, err := netlogger.ParseTime(netlogger.Field(fields, 3))
	if err != nil {
		return nil, fmt.Errorf("bad sent time: %w", err)
	}
	m := &models.Message{
		LogID:     &logID,
		CallSign:  strings.ToUpper(parts[0]),
		Message:   netlogger.Field(fields, 2),
		SentAt:    sent,
		IPAddress: netlogger.Field(fields, 4),
	}
	if len(parts) > 1 {
		m.Name = strings.Join(parts[1:], " - ")
	}
	return m, nil
}

func parseNetInfo(rows [][]string) map[string]string {
	info := map[string]string{}
	for _, fields := range rows {
		for _, f := range fields {
			key, value, ok := strings.Cut(f, "=")
			if !ok {
				continue
			}
			key = strings.ToLower(strings.Join(strings.Fields(key), ""))
			if key != "" {
				info[key] = strings.TrimSpace(value)
			}
		}
	}
	return info
}

// applyNetInfo overwrites the descriptive fields named in info and reports
// whether any of them changed.
func applyNetInfo(n *models.Net, info map[string]string) bool {
	before := *n
	for key, value := range info {
		switch key {
		case "frequency":
			n.Frequency = value
		case "mode":
			n.Mode = value
		case "band":
			n.Band = value
		case "logger", "netlogger":
			n.NetLogger = value
		case "netcontrol":
			n.NetControl = value
		case "altnetname":
			n.AltName = value
		case "aim":
			n.IMEnabled = strings.EqualFold(value, "Y")
		case "updateinterval":
			if ms, err := strconv.Atoi(value); err == nil {
				n.UpdateInterval = ms
			}
		case "subscribercount":
			if c, err := strconv.Atoi(value); err == nil {
				n.SubscriberCount = c
			}
		case "date":
			if t, err := netlogger.ParseTime(value); err == nil {
				n.StartedAt = t
			}
		}
	}
	return before.Frequency != n.Frequency ||
		before.Mode != n.Mode ||
		before.Band != n.Band ||
		before.NetLogger != n.NetLogger ||
		before.NetControl != n.NetControl ||
		before.AltName != n.AltName ||
		before.IMEnabled != n.IMEnabled ||
		before.UpdateInterval != n.UpdateInterval ||
		before.SubscriberCount != n.SubscriberCount ||
		!before.StartedAt.Equal(n.StartedAt)
}

// parseListing decodes the directory listing of one host.
func parseListing(host string, s netlogger.Sections) []*models.Net {
	rows := s.Rows(netlogger.SectionData)
	nets := make([]*models.Net, 0, len(rows))
	for _, fields := range rows {
		name := netlogger.Field(fields, netlogger.ListFieldName)
		if name == "" {
			dropRow("listing", fields, errors.New("missing net name"))
			continue
		}
		n := &models.Net{
			Name:       name,
			AltName:    netlogger.Field(fields, netlogger.ListFieldAltName),
			Frequency:  netlogger.Field(fields, netlogger.ListFieldFrequency),
			NetLogger:  netlogger.Field(fields, netlogger.ListFieldLogger),
			NetControl: netlogger.Field(fields, netlogger.ListFieldNetControl),
			Mode:       netlogger.Field(fields, netlogger.ListFieldMode),
			Band:       netlogger.Field(fields, netlogger.ListFieldBand),
			IMEnabled:  strings.EqualFold(netlogger.Field(fields, netlogger.ListFieldIMEnabled), "Y"),
			Host:       host,
		}
		if t, err := netlogger.ParseTime(netlogger.Field(fields, netlogger.ListFieldStartedAt)); err == nil {
			n.StartedAt = t
		}
		if ms, err := strconv.Atoi(netlogger.Field(fields, netlogger.ListFieldUpdateInterval)); err == nil {
			n.UpdateInterval = ms
		}
		if c, err := strconv.Atoi(netlogger.Field(fields, netlogger.ListFieldSubscribers)); err == nil {
			n.SubscriberCount = c
		}
		nets = append(nets, n)
	}
	return nets
}

// splitComposite splits "CALL - extra - more" into trimmed, non-empty parts.
func splitComposite(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, " - ") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func dropRow(section string, fields []string, err error) {
	metrics.RowsDroppedTotal.WithLabelValues(section).Inc()
	logging.Debug().Str("section", section).Strs("fields", fields).Err(err).Msg("Dropping malformed row")
}
