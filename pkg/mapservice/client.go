// Package mapservice is a client for an ArcGIS export-map endpoint. The
// proximity engine's adaptive buffer is the sole input this package consumes
// from the core; it renders nothing itself beyond requesting image bytes.
package mapservice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/envscreen/internal/geo"
)

// ExportRequest describes one map image.
type ExportRequest struct {
	Center        geo.Point
	BufferMiles   float64
	VisibleLayers []int
	Basemap       string  // passed through as a layer definition hint; may be empty
	Transparency  float64 // 0 (opaque) to 1 (fully transparent)
	Width         int
	Height        int
}

// Client fetches map images from an ArcGIS export endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a client for the MapServer rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExportMap requests a PNG centered on the request point, sized by the
// buffer radius in miles.
func (c *Client) ExportMap(ctx context.Context, req ExportRequest) ([]byte, error) {
	if err := req.Center.Validate(); err != nil {
		return nil, err
	}
	if req.BufferMiles <= 0 {
		return nil, eris.Errorf("mapservice: buffer must be positive, got %g", req.BufferMiles)
	}
	if req.Width <= 0 {
		req.Width = 800
	}
	if req.Height <= 0 {
		req.Height = 800
	}

	env := geo.RadiusEnvelope(req.Center, req.BufferMiles)
	params := url.Values{
		"bbox":        {fmt.Sprintf("%g,%g,%g,%g", env.XMin, env.YMin, env.XMax, env.YMax)},
		"bboxSR":      {"4326"},
		"imageSR":     {"4326"},
		"size":        {fmt.Sprintf("%d,%d", req.Width, req.Height)},
		"format":      {"png"},
		"transparent": {"true"},
		"f":           {"image"},
	}
	if req.Basemap != "" {
		params.Set("mapStyle", req.Basemap)
	}
	if len(req.VisibleLayers) > 0 {
		ids := make([]string, len(req.VisibleLayers))
		for i, id := range req.VisibleLayers {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("layers", "show:"+strings.Join(ids, ","))
	}
	if req.Transparency > 0 {
		// The export API takes transparency per dynamic layer, 0-100.
		pct := int(req.Transparency * 100)
		if pct > 100 {
			pct = 100
		}
		params.Set("dynamicLayers", fmt.Sprintf(`[{"id":0,"transparency":%d}]`, pct))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "mapservice: rate limiter wait")
	}

	reqURL := c.baseURL + "/export?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "mapservice: build request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "mapservice: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("mapservice: status %d from %s", resp.StatusCode, c.baseURL)
	}
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "json") {
		// The export endpoint reports errors as JSON with a 200 status.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, eris.Errorf("mapservice: export failed: %s", string(body))
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mapservice: read image")
	}
	return img, nil
}
