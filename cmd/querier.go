package main

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/envscreen/internal/arcgis"
	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/resilience"
	"github.com/sells-group/envscreen/internal/screening"
	"github.com/sells-group/envscreen/internal/shapefile"
)

// newQuerierFactory builds the per-domain feature querier: a shapefile
// source when the config maps the domain to local files, otherwise an ArcGIS
// client for the domain's service. Clients are cached per service URL so
// rate limiters are shared across a run.
func newQuerierFactory() screening.QuerierFactory {
	var mu sync.Mutex
	clients := make(map[string]*arcgis.Client)

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Screening.MaxRetries

	return func(domain screening.DomainConfig) (feature.Querier, error) {
		if paths := domainShapefiles(domain.Name); len(paths) > 0 {
			src, err := shapefile.Open(paths)
			if err != nil {
				return nil, eris.Wrapf(err, "open shapefiles for %s", domain.Name)
			}
			return src, nil
		}

		if domain.ServiceURL == "" {
			return nil, eris.Errorf("domain %s has no service URL or shapefiles", domain.Name)
		}

		mu.Lock()
		defer mu.Unlock()
		if c, ok := clients[domain.ServiceURL]; ok {
			return c, nil
		}
		c := arcgis.NewClient(domain.ServiceURL,
			arcgis.WithTimeout(cfg.Screening.QueryTimeout()),
			arcgis.WithRateLimit(cfg.Screening.RateLimit),
			arcgis.WithRetry(retry),
		)
		clients[domain.ServiceURL] = c
		return c, nil
	}
}

// domainShapefiles extracts "domain/layer" entries for one domain from the
// configured shapefile map, returning layer id → path.
func domainShapefiles(domain string) map[string]string {
	out := map[string]string{}
	for key, path := range cfg.Screening.Shapefiles {
		parts := strings.SplitN(key, "/", 2)
		if len(parts) == 2 && parts[0] == domain {
			out[parts[1]] = path
		}
	}
	return out
}
