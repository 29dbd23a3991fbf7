package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// ErrDegenerateGeometry is returned when a ring or path has fewer vertices
// than boundary-distance computation needs. The feature is skipped, not fatal
// to the overall search.
var ErrDegenerateGeometry = eris.New("geo: degenerate geometry")

// CompassUnknown is the bearing label for coincident points.
const CompassUnknown = "Unknown"

var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Haversine returns the great-circle distance between two WGS84 points in
// miles.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RingDistance returns the minimum distance in miles from origin to a polygon
// ring. The ring is decomposed into consecutive vertex pairs and, for each
// pair, the smaller of the haversine distances to the two endpoints is taken.
//
// Known precision limitation: this is vertex distance only. True
// point-to-segment projection is deliberately not performed, so distance is
// over-estimated where the nearest boundary point falls mid-segment on a
// sparsely digitized ring. Callers depend on the current numbers; do not
// "fix" this without revisiting every domain's buffer constants.
func RingDistance(origin Point, ring []Point) (float64, error) {
	if len(ring) < 3 {
		return 0, eris.Wrapf(ErrDegenerateGeometry, "ring has %d vertices", len(ring))
	}
	return segmentEndpointMin(origin, ring, true), nil
}

// PathDistance returns the minimum distance in miles from origin to a
// polyline path, using the same vertex-endpoint approximation as
// RingDistance.
func PathDistance(origin Point, path []Point) (float64, error) {
	if len(path) < 2 {
		return 0, eris.Wrapf(ErrDegenerateGeometry, "path has %d vertices", len(path))
	}
	return segmentEndpointMin(origin, path, false), nil
}

func segmentEndpointMin(origin Point, verts []Point, closed bool) float64 {
	n := len(verts)
	min := math.Inf(1)
	last := n - 1
	if closed {
		last = n // wrap the closing segment back to vertex 0
	}
	for i := 0; i < last; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		if d := Haversine(origin, a); d < min {
			min = d
		}
		if d := Haversine(origin, b); d < min {
			min = d
		}
	}
	return min
}

// InitialBearing returns the initial great-circle bearing from a to b in
// degrees clockwise from north, in [0, 360).
func InitialBearing(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// CompassLabel converts a bearing in degrees to one of the 16 compass labels.
func CompassLabel(bearing float64) string {
	idx := int(math.Round(bearing/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassLabels[idx]
}

// Compass returns the 16-point compass label from a to b, or CompassUnknown
// when the points coincide (bearing is undefined there).
func Compass(a, b Point) string {
	if a.Lon == b.Lon && a.Lat == b.Lat {
		return CompassUnknown
	}
	return CompassLabel(InitialBearing(a, b))
}
