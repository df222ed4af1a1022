// Netmirror - NetLogger Net Mirroring and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netmirror

package geo

import (
	"math"
	"sort"
)

const (
	// CenterPercentile is the share of points kept after trimming outliers.
	CenterPercentile = 75

	// EarthRadiusMeters is the WGS-84 equatorial radius.
	EarthRadiusMeters = 6378137.0

	// MinRadiusMeters is the floor applied to the computed radius.
	MinRadiusMeters = 50000.0

	// MaxRadiusMeters is the largest radius still worth displaying.
	MaxRadiusMeters = 3000000.0
)

// Point is a decoded participant location.
type Point struct {
	Lat float64
	Lon float64
}

// Center summarises the spread of a net's participants. Radius is nil when
// the spread is too wide to be useful.
type Center struct {
	Latitude  float64
	Longitude float64
	Radius    *float64
}

// ComputeCenter trims the outer tails of the latitudes and longitudes
// independently, takes the midpoint of each trimmed range, and derives a
// radius from the distance between the trimmed extremes. It returns nil when
// there are no points.
func ComputeCenter(points []Point) *Center {
	if len(points) == 0 {
		return nil
	}

	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i], lons[i] = p.Lat, p.Lon
	}
	lats = trimmed(lats)
	lons = trimmed(lons)
	if len(lats) == 0 || len(lons) == 0 {
		return nil
	}

	firstLat, lastLat := lats[0], lats[len(lats)-1]
	firstLon, lastLon := lons[0], lons[len(lons)-1]

	c := &Center{
		Latitude:  (firstLat + lastLat) / 2,
		Longitude: (firstLon + lastLon) / 2,
	}

	radius := math.Max(Haversine(firstLat, firstLon, lastLat, lastLon)/2, MinRadiusMeters)
	if radius <= MaxRadiusMeters {
		c.Radius = &radius
	}
	return c
}

// trimmed sorts values and drops count*(100-P)/100/2 elements from each end.
// Fewer than two elements to drop means nothing is dropped.
func trimmed(values []float64) []float64 {
	sort.Float64s(values)
	n := len(values)
	cut := n * (100 - CenterPercentile) / 100 / 2
	if cut < 2 {
		return values
	}
	return values[cut : n-cut]
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
