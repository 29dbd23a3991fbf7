package arcgis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
	"github.com/sells-group/envscreen/internal/resilience"
)

const emptyResponse = `{"geometryType":"esriGeometryPolygon","spatialReference":{"wkid":4326},"features":[]}`

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}
}

func TestQueryIntersectParams(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(emptyResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.QueryIntersect(context.Background(), geo.Point{Lon: -65.93, Lat: 18.23}, "28")
	require.NoError(t, err)

	assert.Equal(t, "/28/query", gotPath)
	assert.Equal(t, []string{"esriGeometryPoint"}, gotQuery["geometryType"])
	assert.Equal(t, []string{"esriSpatialRelIntersects"}, gotQuery["spatialRel"])
	assert.Equal(t, []string{"4326"}, gotQuery["outSR"])
	assert.Equal(t, []string{"json"}, gotQuery["f"])
	assert.Contains(t, gotQuery["geometry"][0], `"x":-65.93`)
}

func TestQueryEnvelopeParams(t *testing.T) {
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(emptyResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	env := geo.Envelope{XMin: -66.1, YMin: 18.1, XMax: -65.9, YMax: 18.3}
	_, err := c.QueryEnvelope(context.Background(), env, "0", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"esriGeometryEnvelope"}, gotQuery["geometryType"])
	assert.Equal(t, []string{"false"}, gotQuery["returnGeometry"])
	assert.Contains(t, gotQuery["geometry"][0], `"xmin":-66.1`)
}

func TestQueryDecodesFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"geometryType":"esriGeometryPoint",
			"spatialReference":{"wkid":4326},
			"features":[{"attributes":{"FLD_ZONE":"AE"},"geometry":{"x":-65.9,"y":18.2}}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	records, err := c.QueryIntersect(context.Background(), geo.Point{Lon: -65.9, Lat: 18.2}, "28")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "AE", records[0].Attributes["FLD_ZONE"])
	assert.Equal(t, "28", records[0].SourceLayer)
}

func TestQueryEsriErrorBecomesLayerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":499,"message":"Token Required"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.QueryIntersect(context.Background(), geo.Point{Lon: -65.9, Lat: 18.2}, "0")
	require.Error(t, err)

	var le *feature.LayerError
	require.True(t, eris.As(err, &le))
	assert.Equal(t, "0", le.Layer)
	assert.Equal(t, "intersect", le.Op)
	assert.Contains(t, le.Error(), "Token Required")
}

func TestQueryRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(emptyResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.QueryEnvelope(context.Background(), geo.Envelope{}, "0", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQueryDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.QueryEnvelope(context.Background(), geo.Envelope{}, "99", true)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueryIntersectInvalidPoint(t *testing.T) {
	c := NewClient("http://unused.invalid")
	_, err := c.QueryIntersect(context.Background(), geo.Point{Lon: -200, Lat: 0}, "0")
	require.Error(t, err)
	assert.True(t, eris.Is(err, geo.ErrInvalidCoordinate))
}
