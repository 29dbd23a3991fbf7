// Package feature defines the normalized feature record produced by layer
// queries and the querier contract the proximity engine consumes. Attribute
// content (NWI codes, FIRM zones, PRAPEC names) is opaque to this package.
package feature

import (
	"context"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/envscreen/internal/geo"
)

// Kind tags the geometry variant of a record.
type Kind int

const (
	KindPoint Kind = iota
	KindPolygon
	KindPolyline
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindPolygon:
		return "polygon"
	case KindPolyline:
		return "polyline"
	default:
		return "unknown"
	}
}

// Precision grades how trustworthy a record's representative geometry is.
// Exact means the geometry yielded a true centroid/boundary; Estimated means
// only a coarse proxy (such as a first vertex or a heuristic distance) was
// usable. Exact sorts before Estimated.
type Precision int

const (
	PrecisionExact Precision = iota
	PrecisionEstimated
)

func (p Precision) String() string {
	if p == PrecisionEstimated {
		return "estimated"
	}
	return "exact"
}

// Record is one discovered environmental feature, resolved once at ingestion
// rather than re-picked apart at every access site.
type Record struct {
	Kind        Kind           `json:"kind"`
	Geometry    geom.T         `json:"-"` // WGS84-normalized; nil when the service withheld geometry
	Attributes  map[string]any `json:"attributes"`
	Precision   Precision      `json:"precision"`
	SourceLayer string         `json:"source_layer"`
	Approximate bool           `json:"approximate,omitempty"` // datum fallback applied during normalization
}

// HasGeometry reports whether the record carries usable geometry.
func (r *Record) HasGeometry() bool {
	return r.Geometry != nil && len(r.Geometry.FlatCoords()) >= 2
}

// OuterRing returns the polygon's outer ring as points, or nil for other
// kinds.
func (r *Record) OuterRing() []geo.Point {
	poly, ok := r.Geometry.(*geom.Polygon)
	if !ok || poly.NumLinearRings() == 0 {
		return nil
	}
	return coordsToPoints(poly.LinearRing(0).Coords())
}

// Paths returns the polyline's paths as point slices, or nil for other kinds.
func (r *Record) Paths() [][]geo.Point {
	switch g := r.Geometry.(type) {
	case *geom.LineString:
		return [][]geo.Point{coordsToPoints(g.Coords())}
	case *geom.MultiLineString:
		out := make([][]geo.Point, 0, g.NumLineStrings())
		for i := 0; i < g.NumLineStrings(); i++ {
			out = append(out, coordsToPoints(g.LineString(i).Coords()))
		}
		return out
	default:
		return nil
	}
}

// RepresentativePoint returns the point used for distance and bearing
// computation, with the precision grade it earns. Polygons and polylines with
// enough vertices yield a vertex centroid (Exact); a single usable vertex
// degrades to Estimated.
func (r *Record) RepresentativePoint() (geo.Point, Precision, error) {
	if !r.HasGeometry() {
		return geo.Point{}, PrecisionEstimated, eris.Wrap(geo.ErrDegenerateGeometry, "feature: no geometry")
	}

	switch g := r.Geometry.(type) {
	case *geom.Point:
		return geo.Point{Lon: g.X(), Lat: g.Y()}, PrecisionExact, nil

	case *geom.Polygon:
		if g.NumLinearRings() == 0 {
			return geo.Point{}, PrecisionEstimated, eris.Wrap(geo.ErrDegenerateGeometry, "feature: empty polygon")
		}
		ring := coordsToPoints(g.LinearRing(0).Coords())
		if len(ring) < 3 {
			if len(ring) == 0 {
				return geo.Point{}, PrecisionEstimated, eris.Wrap(geo.ErrDegenerateGeometry, "feature: empty ring")
			}
			return ring[0], PrecisionEstimated, nil
		}
		return vertexCentroid(ring), PrecisionExact, nil

	case *geom.LineString:
		pts := coordsToPoints(g.Coords())
		if len(pts) < 2 {
			if len(pts) == 0 {
				return geo.Point{}, PrecisionEstimated, eris.Wrap(geo.ErrDegenerateGeometry, "feature: empty path")
			}
			return pts[0], PrecisionEstimated, nil
		}
		return vertexCentroid(pts), PrecisionExact, nil

	case *geom.MultiLineString:
		if g.NumLineStrings() == 0 {
			return geo.Point{}, PrecisionEstimated, eris.Wrap(geo.ErrDegenerateGeometry, "feature: empty multiline")
		}
		return (&Record{Kind: KindPolyline, Geometry: g.LineString(0)}).RepresentativePoint()

	default:
		return geo.Point{}, PrecisionEstimated, eris.Errorf("feature: unsupported geometry %T", r.Geometry)
	}
}

// Bounds returns the feature's bounding envelope in WGS84.
func (r *Record) Bounds() (geo.Envelope, bool) {
	if !r.HasGeometry() {
		return geo.Envelope{}, false
	}
	b := r.Geometry.Bounds()
	return geo.Envelope{
		XMin: b.Min(0), YMin: b.Min(1),
		XMax: b.Max(0), YMax: b.Max(1),
	}, true
}

func coordsToPoints(coords []geom.Coord) []geo.Point {
	pts := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		pts = append(pts, geo.Point{Lon: c.X(), Lat: c.Y()})
	}
	return pts
}

func vertexCentroid(pts []geo.Point) geo.Point {
	var lon, lat float64
	for _, p := range pts {
		lon += p.Lon
		lat += p.Lat
	}
	n := float64(len(pts))
	return geo.Point{Lon: lon / n, Lat: lat / n}
}

// Querier issues spatial queries against a single layer. Implementations
// surface failures as errors, never as silently empty results.
type Querier interface {
	// QueryIntersect runs a zero-buffer intersects query at a point.
	QueryIntersect(ctx context.Context, pt geo.Point, layerID string) ([]Record, error)

	// QueryEnvelope runs an intersects-envelope query.
	QueryEnvelope(ctx context.Context, env geo.Envelope, layerID string, returnGeometry bool) ([]Record, error)
}

// LayerError reports a failed layer query: timeout, remote error, or
// malformed response. It is non-fatal to a search; the engine records it and
// treats the layer as empty for that step.
type LayerError struct {
	Layer string
	Op    string
	Err   error
}

func (e *LayerError) Error() string {
	return "feature: layer " + e.Layer + " " + e.Op + ": " + e.Err.Error()
}

func (e *LayerError) Unwrap() error { return e.Err }
