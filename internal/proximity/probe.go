package proximity

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/envscreen/internal/feature"
	"github.com/sells-group/envscreen/internal/geo"
)

// Probe runs a zero-buffer intersects query against every layer and returns
// the union, each record tagged with its source layer by the querier. A
// failed layer is recorded and skipped, never fatal.
func Probe(ctx context.Context, q feature.Querier, origin geo.Point, layers []Layer) ([]feature.Record, []LayerFailure) {
	var found []feature.Record
	var failures []LayerFailure

	for _, layer := range layers {
		records, err := q.QueryIntersect(ctx, origin, layer.ID)
		if err != nil {
			zap.L().Warn("probe: layer query failed",
				zap.String("layer", layer.ID),
				zap.Error(err),
			)
			failures = append(failures, LayerFailure{
				Layer:   layer.ID,
				Op:      "intersect",
				Message: err.Error(),
			})
			continue
		}
		found = append(found, records...)
	}

	return found, failures
}
