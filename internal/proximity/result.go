// Package proximity implements the geospatial proximity analysis engine:
// exact-point probing, progressive radius search, distance/bearing
// measurement, deduplication and ranking, and adaptive buffer sizing.
//
// The engine is synchronous. Each radius tier is only attempted when the
// previous one came back empty, and correctness depends on stopping at the
// first non-empty tier. Parallelism across independent domains lives one
// level up, in the screening package.
package proximity

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
)

// Layer identifies one service layer to query, with the attribute fields
// that distinguish a feature for deduplication.
type Layer struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// IdentityFields are the attributes concatenated into the dedupe key.
	// Empty means all attributes, sorted by name. Never a sequence index.
	IdentityFields []string `json:"identity_fields,omitempty" yaml:"identity_fields,omitempty"`
}

// Options parameterizes one proximity analysis. Each regulatory domain
// supplies only its layer set, radius ladder, and buffer constants; the
// algorithm is shared.
type Options struct {
	Layers []Layer `json:"layers" yaml:"layers"`

	// Ladder is the ascending sequence of search radii in miles.
	Ladder []float64 `json:"ladder" yaml:"ladder"`

	// ExtendedRadius is one optional radius beyond the ladder, tried before
	// declaring no feature found. Zero disables it.
	ExtendedRadius float64 `json:"extended_radius,omitempty" yaml:"extended_radius,omitempty"`

	// MaxResults caps features_in_radius after ranking. Zero means no cap.
	MaxResults int `json:"max_results,omitempty" yaml:"max_results,omitempty"`

	// Buffer sizing constants (miles).
	DomainOffset    float64 `json:"domain_offset" yaml:"domain_offset"`
	MinBuffer       float64 `json:"min_buffer" yaml:"min_buffer"`
	MaxBuffer       float64 `json:"max_buffer" yaml:"max_buffer"`
	IntersectBuffer float64 `json:"intersect_buffer" yaml:"intersect_buffer"`
	FallbackBuffer  float64 `json:"fallback_buffer" yaml:"fallback_buffer"`
}

func (o Options) validate() error {
	if len(o.Layers) == 0 {
		return eris.New("proximity: at least one layer is required")
	}
	if len(o.Ladder) == 0 {
		return eris.New("proximity: radius ladder is empty")
	}
	prev := 0.0
	for _, r := range o.Ladder {
		if r <= prev {
			return eris.Errorf("proximity: ladder must be ascending and positive, got %v", o.Ladder)
		}
		prev = r
	}
	if o.ExtendedRadius != 0 && o.ExtendedRadius <= o.Ladder[len(o.Ladder)-1] {
		return eris.Errorf("proximity: extended radius %g must exceed ladder maximum %g",
			o.ExtendedRadius, o.Ladder[len(o.Ladder)-1])
	}
	return nil
}

// Candidate pairs a feature with its measured distance and bearing from the
// query origin.
type Candidate struct {
	Feature       feature.Record `json:"feature"`
	DistanceMiles float64        `json:"distance_miles"`
	Bearing       string         `json:"bearing"`
}

// LayerFailure annotates one failed layer query. Failures degrade the layer
// to empty for that step; they never abort the search.
type LayerFailure struct {
	Layer       string  `json:"layer"`
	Op          string  `json:"op"`
	RadiusMiles float64 `json:"radius_miles,omitempty"`
	Message     string  `json:"message"`
}

// Result is the outcome of one proximity query. All fields are owned
// exclusively by the call that created them; nothing is cached or shared.
type Result struct {
	Origin     geo.Point `json:"origin"`
	Intersects bool      `json:"intersects"`

	// FeaturesAtOrigin holds the features containing the origin when
	// Intersects is true.
	FeaturesAtOrigin []feature.Record `json:"features_at_origin,omitempty"`

	// Nearest is the best-ranked feature when not intersecting; nil when
	// nothing was found within the extended search radius.
	Nearest *Candidate `json:"nearest,omitempty"`

	// SearchRadiusUsed is the ladder tier (or extended radius) at which the
	// search terminated; zero when the probe already intersected.
	SearchRadiusUsed float64 `json:"search_radius_used"`

	// FeaturesInRadius is deduplicated and ordered Exact-precision first,
	// then ascending distance.
	FeaturesInRadius []Candidate `json:"features_in_radius,omitempty"`

	// BufferMiles is the adaptive map-visualization buffer derived from the
	// discovered distance (or its absence).
	BufferMiles float64 `json:"buffer_miles"`

	// Approximate is set when any contributing coordinate went through a
	// reduced-accuracy datum fallback.
	Approximate bool `json:"approximate,omitempty"`

	// Failures lists the layer/tier queries that failed. "Query failed" and
	// "genuinely found nothing" are never conflated.
	Failures []LayerFailure `json:"failures,omitempty"`
}
