package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
	"github.com/sells-group/envscreen/internal/proximity"
	"github.com/sells-group/envscreen/internal/screening"
)

type emptyQuerier struct{}

func (emptyQuerier) QueryIntersect(context.Context, geo.Point, string) ([]feature.Record, error) {
	return nil, nil
}

func (emptyQuerier) QueryEnvelope(context.Context, geo.Envelope, string, bool) ([]feature.Record, error) {
	return nil, nil
}

func testRouter() http.Handler {
	factory := func(screening.DomainConfig) (feature.Querier, error) {
		return emptyQuerier{}, nil
	}
	domains := []screening.DomainConfig{{
		Name:  "wetland",
		Title: "Wetlands",
		Proximity: proximity.Options{
			Layers:         []proximity.Layer{{ID: "0"}},
			Ladder:         []float64{0.5, 1.0},
			FallbackBuffer: 2.0,
		},
	}}
	return newRouter(screening.New(factory), domains)
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestDomainsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/domains", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var domains []screening.DomainConfig
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&domains))
	require.Len(t, domains, 1)
	assert.Equal(t, "wetland", domains[0].Name)
}

func TestScreenEndpoint(t *testing.T) {
	body := strings.NewReader(`{"lat": 18.228125, "lon": -65.925357}`)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/screen", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var run screening.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
	assert.NotEmpty(t, run.ID)
	require.Len(t, run.Domains, 1)
	require.NotNil(t, run.Domains[0].Result)
	assert.Nil(t, run.Domains[0].Result.Nearest)
	assert.Equal(t, 2.0, run.Domains[0].Result.BufferMiles)
}

func TestScreenEndpointInvalidCoordinates(t *testing.T) {
	body := strings.NewReader(`{"lat": 95, "lon": 0}`)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/screen", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScreenEndpointUnknownDomain(t *testing.T) {
	body := strings.NewReader(`{"lat": 18.2, "lon": -65.9, "domains": ["volcano"]}`)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/screen", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "volcano")
}

func TestScreenEndpointMalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/screen", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
