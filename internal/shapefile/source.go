// Package shapefile implements the feature.Querier contract over local
// shapefiles, for layers (cadastral, karst) whose authoritative service is
// unreachable or rate-limited. Features are loaded once at Open and filtered
// in memory.
package shapefile

import (
	"context"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
)

// Source serves layer queries from shapefiles keyed by layer id.
type Source struct {
	layers map[string][]feature.Record
}

// Open reads each shapefile into memory. Coordinates are assumed geographic
// NAD83/WGS84, the convention for published parcel and karst extracts;
// projected files should be reprojected before loading.
func Open(paths map[string]string) (*Source, error) {
	s := &Source{layers: make(map[string][]feature.Record, len(paths))}
	for layerID, path := range paths {
		records, err := readShapefile(path, layerID)
		if err != nil {
			return nil, eris.Wrapf(err, "shapefile: load layer %s", layerID)
		}
		s.layers[layerID] = records
		zap.L().Info("loaded shapefile layer",
			zap.String("layer", layerID),
			zap.String("path", path),
			zap.Int("features", len(records)),
		)
	}
	return s, nil
}

// QueryIntersect implements feature.Querier. Polygons use a point-in-ring
// test; point and line layers cannot contain a zero-buffer point and return
// nothing.
func (s *Source) QueryIntersect(ctx context.Context, pt geo.Point, layerID string) ([]feature.Record, error) {
	records, err := s.layer(layerID, "intersect")
	if err != nil {
		return nil, err
	}
	if err := pt.Validate(); err != nil {
		return nil, err
	}

	var out []feature.Record
	for _, rec := range records {
		if rec.Kind != feature.KindPolygon {
			continue
		}
		if ring := rec.OuterRing(); pointInRing(pt, ring) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// QueryEnvelope implements feature.Querier with a bounds-overlap filter,
// matching the superset semantics of a remote envelope query.
func (s *Source) QueryEnvelope(ctx context.Context, env geo.Envelope, layerID string, returnGeometry bool) ([]feature.Record, error) {
	records, err := s.layer(layerID, "envelope")
	if err != nil {
		return nil, err
	}

	var out []feature.Record
	for _, rec := range records {
		b, ok := rec.Bounds()
		if !ok {
			continue
		}
		if env.Intersects(b) {
			if !returnGeometry {
				rec.Geometry = nil
				rec.Precision = feature.PrecisionEstimated
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Source) layer(layerID, op string) ([]feature.Record, error) {
	records, ok := s.layers[layerID]
	if !ok {
		return nil, &feature.LayerError{
			Layer: layerID,
			Op:    op,
			Err:   eris.Errorf("shapefile: layer %s not loaded", layerID),
		}
	}
	return records, nil
}

func readShapefile(path, layerID string) ([]feature.Record, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var records []feature.Record
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				attrs[name] = val
			}
		}

		kind, g := convertShape(shape)
		if g == nil {
			skipped++
			continue
		}

		records = append(records, feature.Record{
			Kind:        kind,
			Geometry:    g,
			Attributes:  attrs,
			Precision:   feature.PrecisionExact,
			SourceLayer: layerID,
		})
	}

	if skipped > 0 {
		zap.L().Debug("shapefile: skipped records without usable geometry",
			zap.String("layer", layerID),
			zap.Int("skipped", skipped),
		)
	}
	return records, nil
}

func convertShape(shape shp.Shape) (feature.Kind, geom.T) {
	switch sh := shape.(type) {
	case *shp.Point:
		return feature.KindPoint, geom.NewPointFlat(geom.XY, []float64{sh.X, sh.Y})

	case *shp.Polygon:
		flat, ends := partsToFlat(sh.Parts, sh.Points)
		if flat == nil {
			return feature.KindPolygon, nil
		}
		return feature.KindPolygon, geom.NewPolygonFlat(geom.XY, flat, ends)

	case *shp.PolyLine:
		flat, ends := partsToFlat(sh.Parts, sh.Points)
		if flat == nil {
			return feature.KindPolyline, nil
		}
		return feature.KindPolyline, geom.NewMultiLineStringFlat(geom.XY, flat, ends)

	default:
		return feature.KindPoint, nil
	}
}

func partsToFlat(parts []int32, points []shp.Point) (flat []float64, ends []int) {
	if len(points) == 0 {
		return nil, nil
	}
	n := len(parts)
	for i := 0; i < n; i++ {
		start := parts[i]
		end := int32(len(points))
		if i+1 < n {
			end = parts[i+1]
		}
		for _, p := range points[start:end] {
			flat = append(flat, p.X, p.Y)
		}
		ends = append(ends, len(flat))
	}
	if len(flat) == 0 {
		return nil, nil
	}
	return flat, ends
}

// pointInRing is a standard ray-casting containment test on the outer ring.
func pointInRing(pt geo.Point, ring []geo.Point) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		a, b := ring[i], ring[j]
		if (a.Lat > pt.Lat) != (b.Lat > pt.Lat) {
			x := (b.Lon-a.Lon)*(pt.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lon
			if pt.Lon < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
