// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package geo

import (
	"math"
	"testing"
)

func TestComputeCenter_Empty(t *testing.T) {
	t.Parallel()

	if c := ComputeCenter(nil); c != nil {
		t.Errorf("expected nil center, got %+v", c)
	}
}

func TestComputeCenter_NoTrimUsesExtremes(t *testing.T) {
	t.Parallel()

	// 15 points trims 15*25/100/2 = 1 per tail, below the threshold of 2.
	points := make([]Point, 0, 15)
	for i := 0; i < 15; i++ {
		points = append(points, Point{Lat: float64(30 + i), Lon: float64(-100 + i)})
	}
	points[3] = Point{Lat: -40, Lon: -170} // outlier kept

	c := ComputeCenter(points)
	if c == nil {
		t.Fatal("expected center")
	}
	if c.Latitude != (-40+44)/2.0 {
		t.Errorf("Latitude = %v, want midpoint of full range", c.Latitude)
	}
	if c.Longitude != (-170-86)/2.0 {
		t.Errorf("Longitude = %v, want midpoint of full range", c.Longitude)
	}
	if c.Radius != nil {
		t.Errorf("radius %v should be dropped for a continental spread", *c.Radius)
	}
}

func TestComputeCenter_TrimsTails(t *testing.T) {
	t.Parallel()

	// 16 points trims two from each end.
	lats := []float64{-80, -70, 30.0, 30.1, 30.2, 30.3, 30.4, 30.5, 30.6, 30.7, 30.8, 30.9, 31.0, 31.1, 70, 80}
	points := make([]Point, len(lats))
	for i, lat := range lats {
		points[i] = Point{Lat: lat, Lon: -97}
	}

	c := ComputeCenter(points)
	if c == nil {
		t.Fatal("expected center")
	}
	if math.Abs(c.Latitude-30.55) > 1e-9 {
		t.Errorf("Latitude = %v, want 30.55", c.Latitude)
	}
	if c.Longitude != -97 {
		t.Errorf("Longitude = %v, want -97", c.Longitude)
	}
	if c.Radius == nil {
		t.Fatal("expected radius")
	}
	want := Haversine(30.0, -97, 31.1, -97) / 2
	if math.Abs(*c.Radius-want) > 1e-6 {
		t.Errorf("Radius = %v, want %v", *c.Radius, want)
	}
}

func TestComputeCenter_MinimumRadius(t *testing.T) {
	t.Parallel()

	c := ComputeCenter([]Point{{Lat: 30, Lon: -97}, {Lat: 30.01, Lon: -97.01}})
	if c == nil || c.Radius == nil {
		t.Fatal("expected center with radius")
	}
	if *c.Radius != MinRadiusMeters {
		t.Errorf("Radius = %v, want floor %v", *c.Radius, MinRadiusMeters)
	}
}

func TestHaversine(t *testing.T) {
	t.Parallel()

	// One degree of arc on the equator.
	got := Haversine(0, 0, 0, 1)
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("Haversine = %v, want %v", got, want)
	}
	if Haversine(30, -97, 30, -97) != 0 {
		t.Error("distance to self should be zero")
	}
}
