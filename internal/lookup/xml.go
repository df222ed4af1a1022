// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package lookup

import (
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/netmirror/internal/geo"
	"github.com/tomtom215/netmirror/internal/models"
)

// database is the root element of every lookup service response.
type database struct {
	Callsign *callsignRecord `xml:"Callsign"`
	Session  sessionRecord   `xml:"Session"`
}

type callsignRecord struct {
	Call      string `xml:"call"`
	FirstName string `xml:"fname"`
	LastName  string `xml:"name"`
	City      string `xml:"addr2"`
	State     string `xml:"state"`
	County    string `xml:"county"`
	Country   string `xml:"country"`
	Grid      string `xml:"grid"`
	Latitude  string `xml:"lat"`
	Longitude string `xml:"lon"`
	Image     string `xml:"image"`
}

type sessionRecord struct {
	Key     string `xml:"Key"`
	Count   int    `xml:"Count"`
	Error   string `xml:"Error"`
	Message string `xml:"Message"`
}

// sessionExpired reports whether the service rejected the session key.
func (s sessionRecord) sessionExpired() bool {
	e := strings.ToLower(s.Error)
	return strings.Contains(e, "session timeout") || strings.Contains(e, "invalid session key")
}

// notFound reports whether the service has no record for the call sign.
func (s sessionRecord) notFound() bool {
	return strings.HasPrefix(strings.ToLower(s.Error), "not found")
}

// toStation converts a record, falling back to the grid square when the
// service supplies no coordinates.
func (r *callsignRecord) toStation(expiresAt time.Time) *models.Station {
	st := &models.Station{
		CallSign:   strings.ToUpper(strings.TrimSpace(r.Call)),
		FirstName:  strings.TrimSpace(r.FirstName),
		LastName:   strings.TrimSpace(r.LastName),
		City:       strings.TrimSpace(r.City),
		State:      strings.TrimSpace(r.State),
		County:     strings.TrimSpace(r.County),
		Country:    strings.TrimSpace(r.Country),
		GridSquare: strings.TrimSpace(r.Grid),
		ImageURL:   strings.TrimSpace(r.Image),
		ExpiresAt:  &expiresAt,
	}
	st.Latitude = parseCoord(r.Latitude)
	st.Longitude = parseCoord(r.Longitude)
	if st.Latitude == nil || st.Longitude == nil {
		st.Latitude, st.Longitude = geo.DecodePtr(st.GridSquare)
	}
	return st
}

func parseCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
