package proximity

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
)

// estimatedDistanceFraction is the conservative heuristic distance assigned
// to a feature with no usable geometry, as a fraction of the current search
// radius. Callers treat Estimated entries as lower-confidence.
const estimatedDistanceFraction = 0.8

// Analyze is the caller-facing entry point: probe for exact intersection,
// then walk the radius ladder until a tier yields a feature, measure distance
// and bearing to every candidate, dedupe and rank, and size the map buffer.
//
// Only an invalid origin fails the call. Every other failure degrades: the
// returned Result is always well-formed and annotates which layers or tiers
// failed.
func Analyze(ctx context.Context, q feature.Querier, origin geo.Point, opts Options) (*Result, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	res := &Result{Origin: origin}

	// Step 1: exact intersection ends the search before any radius tier.
	atOrigin, failures := Probe(ctx, q, origin, opts.Layers)
	res.Failures = append(res.Failures, failures...)
	if len(atOrigin) > 0 {
		res.Intersects = true
		res.FeaturesAtOrigin = atOrigin
		for _, rec := range atOrigin {
			res.Approximate = res.Approximate || rec.Approximate
		}
		res.BufferMiles = SizeBuffer(res, opts)
		return res, nil
	}

	// Step 2: ladder tiers, then the optional extended radius. Stop at the
	// first tier with results; larger tiers cost more and add nothing to
	// the smallest sufficient map context.
	radii := opts.Ladder
	if opts.ExtendedRadius > 0 {
		radii = append(append([]float64{}, opts.Ladder...), opts.ExtendedRadius)
	}

	for _, radius := range radii {
		candidates := searchTier(ctx, q, origin, radius, opts, res)
		if len(candidates) == 0 {
			continue
		}

		ranked := DedupeAndRank(candidates, opts.Layers)
		if opts.MaxResults > 0 && len(ranked) > opts.MaxResults {
			ranked = ranked[:opts.MaxResults]
		}

		res.SearchRadiusUsed = radius
		res.FeaturesInRadius = ranked
		res.Nearest = &ranked[0]
		for _, c := range ranked {
			res.Approximate = res.Approximate || c.Feature.Approximate
		}
		res.BufferMiles = SizeBuffer(res, opts)
		return res, nil
	}

	// No feature found anywhere: a valid terminal state, not an error.
	res.SearchRadiusUsed = radii[len(radii)-1]
	res.BufferMiles = SizeBuffer(res, opts)
	return res, nil
}

// searchTier queries every layer with the tier's envelope and measures the
// results. The envelope is a superset filter; the per-candidate radius check
// is the precise one.
func searchTier(ctx context.Context, q feature.Querier, origin geo.Point, radius float64, opts Options, res *Result) []Candidate {
	env := geo.RadiusEnvelope(origin, radius)

	var candidates []Candidate
	for _, layer := range opts.Layers {
		records, err := q.QueryEnvelope(ctx, env, layer.ID, true)
		if err != nil {
			zap.L().Warn("search: layer query failed",
				zap.String("layer", layer.ID),
				zap.Float64("radius_miles", radius),
				zap.Error(err),
			)
			res.Failures = append(res.Failures, LayerFailure{
				Layer:       layer.ID,
				Op:          "envelope",
				RadiusMiles: radius,
				Message:     err.Error(),
			})
			continue
		}

		for _, rec := range records {
			c, ok := measure(origin, rec, radius)
			if !ok {
				continue
			}
			if c.DistanceMiles > radius {
				continue
			}
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// measure computes distance and bearing from origin to one record. A record
// without usable geometry is retained at Estimated precision with the
// heuristic distance; a record with degenerate geometry is skipped.
func measure(origin geo.Point, rec feature.Record, radius float64) (Candidate, bool) {
	if !rec.HasGeometry() {
		rec.Precision = feature.PrecisionEstimated
		return Candidate{
			Feature:       rec,
			DistanceMiles: radius * estimatedDistanceFraction,
			Bearing:       geo.CompassUnknown,
		}, true
	}

	dist, err := boundaryDistance(origin, &rec)
	if err != nil {
		zap.L().Debug("search: skipping degenerate feature",
			zap.String("layer", rec.SourceLayer),
			zap.String("kind", rec.Kind.String()),
			zap.Error(err),
		)
		return Candidate{}, false
	}

	rep, prec, err := rec.RepresentativePoint()
	if err != nil {
		return Candidate{}, false
	}
	if prec > rec.Precision {
		rec.Precision = prec
	}

	return Candidate{
		Feature:       rec,
		DistanceMiles: dist,
		Bearing:       geo.Compass(origin, rep),
	}, true
}

// boundaryDistance routes to the geometry-appropriate distance: haversine for
// points, vertex-endpoint ring distance for polygons, path distance for
// polylines.
func boundaryDistance(origin geo.Point, rec *feature.Record) (float64, error) {
	switch rec.Kind {
	case feature.KindPoint:
		rep, _, err := rec.RepresentativePoint()
		if err != nil {
			return 0, err
		}
		return geo.Haversine(origin, rep), nil

	case feature.KindPolygon:
		ring := rec.OuterRing()
		return geo.RingDistance(origin, ring)

	case feature.KindPolyline:
		paths := rec.Paths()
		if len(paths) == 0 {
			return 0, eris.Wrap(geo.ErrDegenerateGeometry, "proximity: polyline with no paths")
		}
		best := -1.0
		for _, path := range paths {
			d, err := geo.PathDistance(origin, path)
			if err != nil {
				continue
			}
			if best < 0 || d < best {
				best = d
			}
		}
		if best < 0 {
			return 0, eris.Wrap(geo.ErrDegenerateGeometry, "proximity: all paths degenerate")
		}
		return best, nil

	default:
		return 0, eris.Errorf("proximity: unsupported geometry kind %v", rec.Kind)
	}
}
