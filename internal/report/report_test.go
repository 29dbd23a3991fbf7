package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
	"github.com/sells-group/envscreen/internal/proximity"
	"github.com/sells-group/envscreen/internal/screening"
)

func sampleRun() *screening.Run {
	origin := geo.Point{Lon: -65.925357, Lat: 18.228125}
	return &screening.Run{
		ID:        "11111111-2222-3333-4444-555555555555",
		Origin:    origin,
		CreatedAt: time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
		Domains: []screening.DomainResult{
			{
				Domain: "flood",
				Title:  "Flood Hazard (FIRM)",
				Result: &proximity.Result{
					Origin:     origin,
					Intersects: true,
					FeaturesAtOrigin: []feature.Record{
						{Kind: feature.KindPolygon, SourceLayer: "28",
							Attributes: map[string]any{"FLD_ZONE": "AE"}},
					},
					BufferMiles: 0.5,
				},
			},
			{
				Domain: "wetland",
				Title:  "Wetlands (NWI)",
				Result: &proximity.Result{
					Origin:           origin,
					SearchRadiusUsed: 2.0,
					BufferMiles:      1.35,
					Nearest: &proximity.Candidate{
						Feature: feature.Record{Kind: feature.KindPolygon, SourceLayer: "0",
							Attributes: map[string]any{"ATTRIBUTE": "PFO1A"}},
						DistanceMiles: 1.1,
						Bearing:       "E",
					},
					FeaturesInRadius: []proximity.Candidate{
						{Feature: feature.Record{SourceLayer: "0",
							Attributes: map[string]any{"ATTRIBUTE": "PFO1A"}},
							DistanceMiles: 1.1, Bearing: "E"},
					},
					Approximate: true,
				},
			},
			{
				Domain: "karst",
				Title:  "Karst (PRAPEC)",
				Result: &proximity.Result{
					Origin:           origin,
					SearchRadiusUsed: 15.0,
					BufferMiles:      3.0,
					Failures: []proximity.LayerFailure{
						{Layer: "0", Op: "envelope", RadiusMiles: 5.0, Message: "status 503"},
					},
				},
			},
			{
				Domain: "habitat",
				Title:  "Critical Habitat (USFWS)",
				Error:  "service unreachable",
			},
		},
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleRun())

	assert.Contains(t, out, "Screening run 11111111-2222-3333-4444-555555555555")
	assert.Contains(t, out, "18.228125, -65.925357")

	// One line per domain with its outcome.
	assert.Contains(t, out, "ON SITE (1 features)")
	assert.Contains(t, out, "within 2.0 mi")
	assert.Contains(t, out, "1.10")
	assert.Contains(t, out, "none within 15.0 mi")
	assert.Contains(t, out, "unavailable (service unreachable)")

	// Degraded layers and datum fallbacks are disclosed, not hidden.
	assert.Contains(t, out, "feature data unavailable for Karst (PRAPEC)")
	assert.Contains(t, out, "layer 0 (envelope)")
	assert.Contains(t, out, "reduced-accuracy datum fallback")
	assert.Contains(t, out, "Wetlands (NWI) includes coordinates")
}

func TestRenderTextNoFailures(t *testing.T) {
	run := sampleRun()
	run.Domains = run.Domains[:1]

	out := RenderText(run)
	assert.NotContains(t, out, "Warning")
	assert.NotContains(t, out, "reduced-accuracy")
}
