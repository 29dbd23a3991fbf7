// Package geo holds the coordinate types and spherical math used by the
// proximity engine: point validation, datum normalization, haversine
// distance, boundary-distance approximation, and compass bearings.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

const (
	// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
	EarthRadiusMiles = 3959.0

	// MilesPerDegreeLat is the approximate length of one degree of latitude.
	// A degree of longitude shrinks with cos(latitude); use LonMilesPerDegree
	// rather than this constant for east-west conversions.
	MilesPerDegreeLat = 69.0
)

// ErrInvalidCoordinate is returned when a longitude or latitude is outside
// the valid geographic range. It is fatal and never retried.
var ErrInvalidCoordinate = eris.New("geo: coordinate out of range")

// Point is a geographic position in decimal degrees, WGS84 unless a caller
// says otherwise.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// NewPoint builds a validated WGS84 point.
func NewPoint(lon, lat float64) (Point, error) {
	p := Point{Lon: lon, Lat: lat}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks the longitude and latitude ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) ||
		p.Lon < -180 || p.Lon > 180 || p.Lat < -90 || p.Lat > 90 {
		return eris.Wrapf(ErrInvalidCoordinate, "lon=%v lat=%v", p.Lon, p.Lat)
	}
	return nil
}

// LonMilesPerDegree returns the miles spanned by one degree of longitude at
// the given latitude. Never use a flat 69-mile constant for longitude.
func LonMilesPerDegree(lat float64) float64 {
	c := math.Cos(lat * math.Pi / 180)
	if c < 1e-6 {
		c = 1e-6 // degenerate near the poles; keep conversions finite
	}
	return MilesPerDegreeLat * c
}

// Envelope is an axis-aligned bounding rectangle in decimal degrees, used as
// a coarse spatial filter before precise distance filtering.
type Envelope struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// RadiusEnvelope builds the bounding envelope for a search radius in miles
// around origin, applying the cosine correction on the longitude axis.
func RadiusEnvelope(origin Point, radiusMiles float64) Envelope {
	dLat := radiusMiles / MilesPerDegreeLat
	dLon := radiusMiles / LonMilesPerDegree(origin.Lat)
	return Envelope{
		XMin: origin.Lon - dLon,
		YMin: origin.Lat - dLat,
		XMax: origin.Lon + dLon,
		YMax: origin.Lat + dLat,
	}
}

// Contains reports whether the point lies inside or on the envelope.
func (e Envelope) Contains(p Point) bool {
	return p.Lon >= e.XMin && p.Lon <= e.XMax && p.Lat >= e.YMin && p.Lat <= e.YMax
}

// Intersects reports whether two envelopes overlap.
func (e Envelope) Intersects(o Envelope) bool {
	return e.XMin <= o.XMax && e.XMax >= o.XMin && e.YMin <= o.YMax && e.YMax >= o.YMin
}
