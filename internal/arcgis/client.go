// Package arcgis implements the feature.Querier contract against ArcGIS REST
// feature services (MapServer/FeatureServer layer query endpoints).
package arcgis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
	"github.com/sells-group/envscreen/internal/resilience"
)

// Client queries one ArcGIS REST service. It is safe for concurrent use and
// is meant to be constructed once by the caller and passed into each
// analysis; timeout and retry policy are explicit configuration, not
// hardcoded per call site.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	userAgent  string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (tests use httptest's).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit sets the requests-per-second limit for this service.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the service rooted at baseURL
// (e.g. https://host/arcgis/rest/services/Wetlands/MapServer).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
		retry:      resilience.DefaultRetryConfig(),
		userAgent:  "envscreen/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryIntersect implements feature.Querier with a zero-buffer intersects
// query at the point.
func (c *Client) QueryIntersect(ctx context.Context, pt geo.Point, layerID string) ([]feature.Record, error) {
	if err := pt.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{
		"geometry":       {fmt.Sprintf(`{"x":%g,"y":%g,"spatialReference":{"wkid":4326}}`, pt.Lon, pt.Lat)},
		"geometryType":   {"esriGeometryPoint"},
		"inSR":           {"4326"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"outFields":      {"*"},
		"returnGeometry": {"true"},
		"outSR":          {"4326"},
		"f":              {"json"},
	}
	return c.query(ctx, layerID, "intersect", params)
}

// QueryEnvelope implements feature.Querier with an intersects-envelope query.
func (c *Client) QueryEnvelope(ctx context.Context, env geo.Envelope, layerID string, returnGeometry bool) ([]feature.Record, error) {
	params := url.Values{
		"geometry": {fmt.Sprintf(`{"xmin":%g,"ymin":%g,"xmax":%g,"ymax":%g,"spatialReference":{"wkid":4326}}`,
			env.XMin, env.YMin, env.XMax, env.YMax)},
		"geometryType":   {"esriGeometryEnvelope"},
		"inSR":           {"4326"},
		"spatialRel":     {"esriSpatialRelIntersects"},
		"outFields":      {"*"},
		"returnGeometry": {strconv.FormatBool(returnGeometry)},
		"outSR":          {"4326"},
		"f":              {"json"},
	}
	return c.query(ctx, layerID, "envelope", params)
}

func (c *Client) query(ctx context.Context, layerID, op string, params url.Values) ([]feature.Record, error) {
	reqURL := c.baseURL + "/" + layerID + "/query?" + params.Encode()

	body, err := resilience.DoVal(ctx, c.retry, "arcgis."+op, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, reqURL)
	})
	if err != nil {
		return nil, &feature.LayerError{Layer: layerID, Op: op, Err: err}
	}

	records, err := feature.DecodeEsri(body, layerID)
	if err != nil {
		return nil, &feature.LayerError{Layer: layerID, Op: op, Err: err}
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "arcgis: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("arcgis: status %d from %s", resp.StatusCode, c.baseURL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "arcgis: read body")
	}
	return body, nil
}
