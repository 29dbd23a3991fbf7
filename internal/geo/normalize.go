package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// System identifies a spatial reference system the normalizer understands.
type System int

const (
	// SystemWGS84 is geographic WGS84 (EPSG:4326).
	SystemWGS84 System = iota
	// SystemWebMercator is projected Web Mercator (EPSG:3857 / 102100).
	SystemWebMercator
	// SystemNAD83 is geographic NAD83 (EPSG:4269). Differences from WGS84 are
	// sub-meter, far below the precision of this engine, so it is passed
	// through unchanged.
	SystemNAD83
	// SystemNAD27 is geographic NAD27 (EPSG:4267). No geodetic transform
	// library is wired; a fixed small-angle offset is applied instead and the
	// result is flagged Approximate.
	SystemNAD27
)

// webMercatorRadius is the sphere radius of the Web Mercator projection in meters.
const webMercatorRadius = 6378137.0

// NAD27 to WGS84 mean shift for the Caribbean region, in decimal degrees.
// A CONUS-grade datum transform would need NADCON grids; this offset keeps
// legacy NAD27 layers within ~20 m, which the Approximate flag discloses.
const (
	nad27LonOffset = 0.00008
	nad27LatOffset = -0.00006
)

// Normalized is a point converted to WGS84. Approximate is set when a
// fixed-offset datum fallback was used instead of a precise transform, so
// callers can warn about reduced accuracy.
type Normalized struct {
	Point       Point
	Approximate bool
}

// SystemFromWKID maps an Esri/EPSG well-known id to a System. Unknown ids
// default to WGS84, with projected input still caught by the |x|>180
// heuristic in ToWGS84.
func SystemFromWKID(wkid int) System {
	switch wkid {
	case 3857, 102100, 102113:
		return SystemWebMercator
	case 4269:
		return SystemNAD83
	case 4267:
		return SystemNAD27
	default:
		return SystemWGS84
	}
}

// ToWGS84 converts an (x, y) pair from the source system to a WGS84 point.
// Coordinates claiming a geographic system but carrying |x| > 180 are treated
// as Web Mercator; services mislabel this often enough that the heuristic is
// load-bearing.
func ToWGS84(x, y float64, source System) (Normalized, error) {
	if source != SystemWebMercator && math.Abs(x) > 180 {
		source = SystemWebMercator
	}

	switch source {
	case SystemWebMercator:
		lon := x / webMercatorRadius * 180 / math.Pi
		lat := math.Atan(math.Sinh(y/webMercatorRadius)) * 180 / math.Pi
		p, err := NewPoint(lon, lat)
		if err != nil {
			return Normalized{}, eris.Wrap(err, "geo: web mercator input")
		}
		return Normalized{Point: p}, nil

	case SystemNAD27:
		p, err := NewPoint(x+nad27LonOffset, y+nad27LatOffset)
		if err != nil {
			return Normalized{}, eris.Wrap(err, "geo: nad27 input")
		}
		return Normalized{Point: p, Approximate: true}, nil

	default: // WGS84 and NAD83 pass through.
		p, err := NewPoint(x, y)
		if err != nil {
			return Normalized{}, err
		}
		return Normalized{Point: p}, nil
	}
}

// FromWGS84 converts a WGS84 point to (x, y) in the target system.
func FromWGS84(p Point, target System) (x, y float64, err error) {
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}

	switch target {
	case SystemWebMercator:
		x = p.Lon * math.Pi / 180 * webMercatorRadius
		y = math.Log(math.Tan(math.Pi/4+p.Lat*math.Pi/360)) * webMercatorRadius
		return x, y, nil
	case SystemNAD27:
		return p.Lon - nad27LonOffset, p.Lat - nad27LatOffset, nil
	default:
		return p.Lon, p.Lat, nil
	}
}
