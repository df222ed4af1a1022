// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

// Package geo decodes Maidenhead locators and summarises where a net's
// participants are.
package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidLocator is returned by DecodeStrict for malformed locators.
var ErrInvalidLocator = errors.New("invalid maidenhead locator")

var locatorPattern = regexp.MustCompile(`^[A-R]{2}[0-9]{2}([A-X]{2})?$`)

// Decode converts a four or six character locator (e.g. "EM10" or "EM10aa")
// to the latitude and longitude of the south-west corner of its cell.
// Malformed input yields ok == false.
func Decode(locator string) (lat, lon float64, ok bool) {
	loc := strings.ToUpper(strings.TrimSpace(locator))
	if !locatorPattern.MatchString(loc) {
		return 0, 0, false
	}

	lon = 20*letter(loc[0]) - 180 + 2*digit(loc[2])
	lat = 10*letter(loc[1]) - 90 + digit(loc[3])
	if len(loc) == 6 {
		lon += 5.0 / 60 * letter(loc[4])
		lat += 2.5 / 60 * letter(loc[5])
	}
	return lat, lon, true
}

// DecodeStrict is Decode but reports malformed input as ErrInvalidLocator.
func DecodeStrict(locator string) (lat, lon float64, err error) {
	lat, lon, ok := Decode(locator)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return lat, lon, nil
}

// DecodePtr is Decode returning nil pointers for malformed input, the shape
// stored on checkins.
func DecodePtr(locator string) (lat, lon *float64) {
	la, lo, ok := Decode(locator)
	if !ok {
		return nil, nil
	}
	return &la, &lo
}

func letter(b byte) float64 { return float64(b - 'A') }
func digit(b byte) float64 { return float64(b - '0') }
