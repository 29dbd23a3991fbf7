package shapefile

import (
	"context"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
)

func squareRecord(layer string, xmin, ymin, xmax, ymax float64) feature.Record {
	flat := []float64{
		xmin, ymin,
		xmax, ymin,
		xmax, ymax,
		xmin, ymax,
		xmin, ymin,
	}
	return feature.Record{
		Kind:        feature.KindPolygon,
		Geometry:    geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}),
		Attributes:  map[string]any{"CATASTRO": layer + "-sq"},
		Precision:   feature.PrecisionExact,
		SourceLayer: layer,
	}
}

func testSource() *Source {
	return &Source{layers: map[string][]feature.Record{
		"0": {
			squareRecord("0", -66.0, 18.0, -65.9, 18.1),
			{
				Kind:        feature.KindPoint,
				Geometry:    geom.NewPointFlat(geom.XY, []float64{-65.95, 18.05}),
				Precision:   feature.PrecisionExact,
				SourceLayer: "0",
			},
		},
	}}
}

func TestQueryIntersect(t *testing.T) {
	s := testSource()
	ctx := context.Background()

	inside, err := s.QueryIntersect(ctx, geo.Point{Lon: -65.95, Lat: 18.05}, "0")
	require.NoError(t, err)
	require.Len(t, inside, 1, "only the polygon can contain a point")
	assert.Equal(t, feature.KindPolygon, inside[0].Kind)

	outside, err := s.QueryIntersect(ctx, geo.Point{Lon: -65.5, Lat: 18.05}, "0")
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestQueryIntersectUnknownLayer(t *testing.T) {
	_, err := testSource().QueryIntersect(context.Background(), geo.Point{Lon: -65.95, Lat: 18.05}, "99")
	require.Error(t, err)

	var le *feature.LayerError
	require.True(t, eris.As(err, &le))
	assert.Equal(t, "99", le.Layer)
}

func TestQueryEnvelope(t *testing.T) {
	s := testSource()
	ctx := context.Background()

	env := geo.Envelope{XMin: -66.1, YMin: 17.9, XMax: -65.85, YMax: 18.2}
	records, err := s.QueryEnvelope(ctx, env, "0", true)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	miss := geo.Envelope{XMin: -65.0, YMin: 18.0, XMax: -64.9, YMax: 18.1}
	records, err = s.QueryEnvelope(ctx, miss, "0", true)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestQueryEnvelopeWithoutGeometry(t *testing.T) {
	s := testSource()

	env := geo.Envelope{XMin: -66.1, YMin: 17.9, XMax: -65.85, YMax: 18.2}
	records, err := s.QueryEnvelope(context.Background(), env, "0", false)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, rec := range records {
		assert.False(t, rec.HasGeometry())
		assert.Equal(t, feature.PrecisionEstimated, rec.Precision)
	}

	// Stripping geometry must not mutate the loaded records.
	reloaded, err := s.QueryEnvelope(context.Background(), env, "0", true)
	require.NoError(t, err)
	for _, rec := range reloaded {
		assert.True(t, rec.HasGeometry())
	}
}

func TestConvertShape(t *testing.T) {
	kind, g := convertShape(&shp.Point{X: -65.95, Y: 18.05})
	assert.Equal(t, feature.KindPoint, kind)
	require.NotNil(t, g)

	poly := &shp.Polygon{
		NumParts:  1,
		NumPoints: 4,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: -66.0, Y: 18.0},
			{X: -65.9, Y: 18.0},
			{X: -65.9, Y: 18.1},
			{X: -66.0, Y: 18.0},
		},
	}
	kind, g = convertShape(poly)
	assert.Equal(t, feature.KindPolygon, kind)
	gp, ok := g.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 1, gp.NumLinearRings())

	line := &shp.PolyLine{
		NumParts:  2,
		NumPoints: 4,
		Parts:     []int32{0, 2},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 1, Y: 1},
			{X: 2, Y: 2}, {X: 3, Y: 3},
		},
	}
	kind, g = convertShape(line)
	assert.Equal(t, feature.KindPolyline, kind)
	ml, ok := g.(*geom.MultiLineString)
	require.True(t, ok)
	assert.Equal(t, 2, ml.NumLineStrings())
}

func TestPointInRing(t *testing.T) {
	ring := []geo.Point{
		{Lon: 0, Lat: 0},
		{Lon: 2, Lat: 0},
		{Lon: 2, Lat: 2},
		{Lon: 0, Lat: 2},
	}

	assert.True(t, pointInRing(geo.Point{Lon: 1, Lat: 1}, ring))
	assert.False(t, pointInRing(geo.Point{Lon: 3, Lat: 1}, ring))
	assert.False(t, pointInRing(geo.Point{Lon: 1, Lat: -0.1}, ring))
	assert.False(t, pointInRing(geo.Point{Lon: 1, Lat: 1}, ring[:2]), "degenerate ring contains nothing")
}
