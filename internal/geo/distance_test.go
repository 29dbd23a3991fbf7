package geo

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	a := Point{Lon: -66.105735, Lat: 18.466333} // San Juan
	b := Point{Lon: -67.139962, Lat: 18.201345} // Mayaguez

	d := Haversine(a, b)
	assert.InDelta(t, 70.0, d, 2.0)

	assert.Equal(t, Haversine(a, b), Haversine(b, a), "distance is symmetric")
	assert.Zero(t, Haversine(a, a), "distance to self is zero")
}

func TestHaversineOneDegreeLatitude(t *testing.T) {
	d := Haversine(Point{Lon: 0, Lat: 0}, Point{Lon: 0, Lat: 1})
	assert.InDelta(t, 69.1, d, 0.1)
}

func TestRingDistance(t *testing.T) {
	origin := Point{Lon: 0, Lat: 0}
	ring := []Point{
		{Lon: 0.1, Lat: -0.05},
		{Lon: 0.2, Lat: -0.05},
		{Lon: 0.2, Lat: 0.05},
		{Lon: 0.1, Lat: 0.05},
	}

	d, err := RingDistance(origin, ring)
	require.NoError(t, err)

	// The nearest vertices sit about 0.1 degrees east with a 0.05 degree
	// latitude offset.
	want := Haversine(origin, ring[0])
	assert.InDelta(t, want, d, 1e-9)
}

func TestRingDistanceClosingSegment(t *testing.T) {
	// The last and first vertices form the closing segment; the minimum must
	// consider both even when the nearest vertex is the last one.
	origin := Point{Lon: 0, Lat: 0}
	ring := []Point{
		{Lon: 1.0, Lat: 1.0},
		{Lon: 2.0, Lat: 1.0},
		{Lon: 0.1, Lat: 0.1},
	}

	d, err := RingDistance(origin, ring)
	require.NoError(t, err)
	assert.InDelta(t, Haversine(origin, ring[2]), d, 1e-9)
}

func TestRingDistanceDegenerate(t *testing.T) {
	_, err := RingDistance(Point{}, []Point{{Lon: 1, Lat: 1}, {Lon: 2, Lat: 2}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDegenerateGeometry))
}

func TestPathDistance(t *testing.T) {
	origin := Point{Lon: 0, Lat: 0}
	path := []Point{
		{Lon: 0.5, Lat: 0},
		{Lon: 0.5, Lat: 0.5},
		{Lon: 1.0, Lat: 0.5},
	}

	d, err := PathDistance(origin, path)
	require.NoError(t, err)
	assert.InDelta(t, Haversine(origin, path[0]), d, 1e-9)
}

func TestPathDistanceDegenerate(t *testing.T) {
	_, err := PathDistance(Point{}, []Point{{Lon: 1, Lat: 1}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDegenerateGeometry))
}

func TestInitialBearing(t *testing.T) {
	origin := Point{Lon: 0, Lat: 0}

	assert.InDelta(t, 0, InitialBearing(origin, Point{Lon: 0, Lat: 1}), 1e-9)
	assert.InDelta(t, 90, InitialBearing(origin, Point{Lon: 1, Lat: 0}), 1e-6)
	assert.InDelta(t, 180, InitialBearing(origin, Point{Lon: 0, Lat: -1}), 1e-9)
	assert.InDelta(t, 270, InitialBearing(origin, Point{Lon: -1, Lat: 0}), 1e-6)
}

func TestCompassLabel(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.3, "NNE"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{348.7, "NNW"},
		{348.8, "N"}, // rounds up at the sector midpoint
		{359.9, "N"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompassLabel(tt.bearing), "bearing %g", tt.bearing)
	}
}

func TestCompass(t *testing.T) {
	origin := Point{Lon: -66.0, Lat: 18.0}

	assert.Equal(t, "N", Compass(origin, Point{Lon: -66.0, Lat: 18.5}))
	assert.Equal(t, "E", Compass(origin, Point{Lon: -65.5, Lat: 18.0}))

	// Coincident points have no defined bearing.
	assert.Equal(t, CompassUnknown, Compass(origin, origin))
}
