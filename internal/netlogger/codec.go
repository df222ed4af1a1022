// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package netlogger

import (
	"regexp"
	"strings"
	"time"
)

// Protocol constants.
const (
	ProtocolVersion = "2.3"

	EndpointNetList     = "GetNetsInProgress20.php"
	EndpointUpdates     = "GetUpdates3.php"
	EndpointSendUpdates = "SendUpdates3.php"
	EndpointSendMessage = "SendInstantMessage.php"

	SectionData     = "NetLogger Start Data"
	SectionMonitors = "NetMonitors"
	SectionExtData  = "ExtData"
	SectionMessages = "IM"
	SectionNetInfo  = "NetInfo"

	// TimeLayout is the wire format for every timestamp, always UTC.
	TimeLayout = "2006-01-02 15:04:05"

	// FooterCallSign is the call sign field of the bookkeeping row that ends
	// a roster. It never names a station.
	FooterCallSign = "future use 2"
)

// Roster row field positions, shared by reads and writes.
const (
	FieldNum = iota
	FieldCallSign
	FieldCity
	FieldState
	FieldName
	FieldRemarks
	FieldQSLInfo
	FieldCheckedInAt
	FieldCounty
	FieldGridSquare
	FieldStreet
	FieldZip
	FieldStatus
	FieldUnused
	FieldCountry
	FieldDXCC
	FieldPreferredName

	RosterFieldCount
)

// Directory listing field positions.
const (
	ListFieldName = iota
	ListFieldAltName
	ListFieldFrequency
	ListFieldLogger
	ListFieldNetControl
	ListFieldStartedAt
	ListFieldMode
	ListFieldBand
	ListFieldIMEnabled
	ListFieldUpdateInterval
	ListFieldSubscribers

	ListFieldCount
)

// Sections maps a section name to its rows, each row a slice of fields.
type Sections map[string][][]string

// Rows returns the rows of a section, nil when absent.
func (s Sections) Rows(name string) [][]string {
	return s[name]
}

// Has reports whether the section was present in the response, even if empty.
func (s Sections) Has(name string) bool {
	_, ok := s[name]
	return ok
}

var (
	sectionMarker = regexp.MustCompile(`<!--(.*?)-->`)
	errorSentinel = regexp.MustCompile(`\*error - ([^*]*)\*`)
	fieldReplacer = strings.NewReplacer("|", " ", "~", " ", "`", " ")
	rowSeparator  = func(r rune) bool { return r == '~' || r == '\n' }
)

// Parse decodes a response body. Each <!--Name--> marker opens a section that
// runs to the next marker; its payload is split into rows on '~' or newline
// and each row into fields on '|'. Blank rows are skipped. A section name seen
// twice accumulates rows.
func Parse(body string) Sections {
	out := Sections{}
	marks := sectionMarker.FindAllStringSubmatchIndex(body, -1)
	for i, m := range marks {
		name := strings.TrimSpace(body[m[2]:m[3]])
		end := len(body)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		rows := out[name]
		for _, row := range strings.FieldsFunc(body[m[1]:end], rowSeparator) {
			row = strings.TrimRight(row, "\r")
			if strings.TrimSpace(row) == "" {
				continue
			}
			rows = append(rows, strings.Split(row, "|"))
		}
		if rows == nil {
			rows = [][]string{}
		}
		out[name] = rows
	}
	return out
}

// remoteError extracts the message of an "*error - message*" sentinel.
func remoteError(body string) (string, bool) {
	m := errorSentinel.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Sanitize replaces the protocol's delimiter characters in a field value.
func Sanitize(value string) string {
	return fieldReplacer.Replace(value)
}

// FormatTime renders t in the wire layout. The zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a wire timestamp as UTC.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, strings.TrimSpace(s), time.UTC)
}

// Field returns fields[i] trimmed, or "" when the row is short.
func Field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}
