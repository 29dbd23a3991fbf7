package feature

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/envscreen/internal/geo"
)

// esriSR is the spatialReference block of an Esri JSON payload.
type esriSR struct {
	WKID       int `json:"wkid"`
	LatestWKID int `json:"latestWkid"`
}

func (sr *esriSR) system() geo.System {
	if sr == nil {
		return geo.SystemWGS84
	}
	wkid := sr.LatestWKID
	if wkid == 0 {
		wkid = sr.WKID
	}
	return geo.SystemFromWKID(wkid)
}

type esriGeometry struct {
	X                *float64      `json:"x"`
	Y                *float64      `json:"y"`
	Rings            [][][]float64 `json:"rings"`
	Paths            [][][]float64 `json:"paths"`
	SpatialReference *esriSR       `json:"spatialReference"`
}

type esriFeature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *esriGeometry  `json:"geometry"`
}

type esriError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type esriQueryResponse struct {
	GeometryType     string        `json:"geometryType"`
	SpatialReference *esriSR       `json:"spatialReference"`
	Features         []esriFeature `json:"features"`
	Error            *esriError    `json:"error"`
}

// DecodeEsri parses an Esri REST query response into records tagged with the
// given source layer, normalizing all coordinates to WGS84 once at ingestion.
// A feature whose geometry cannot be normalized is kept without geometry
// (Estimated precision) rather than dropped; a top-level service error is
// returned as a real error so callers never mistake it for absence.
func DecodeEsri(body []byte, sourceLayer string) ([]Record, error) {
	var resp esriQueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "feature: parse esri response")
	}
	if resp.Error != nil {
		return nil, eris.Errorf("feature: esri error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	records := make([]Record, 0, len(resp.Features))
	for _, f := range resp.Features {
		rec := Record{
			Attributes:  f.Attributes,
			Precision:   PrecisionExact,
			SourceLayer: sourceLayer,
		}
		if rec.Attributes == nil {
			rec.Attributes = map[string]any{}
		}

		sys := resp.SpatialReference.system()
		if f.Geometry != nil && f.Geometry.SpatialReference != nil {
			sys = f.Geometry.SpatialReference.system()
		}

		kind, g, approx := decodeGeometry(f.Geometry, resp.GeometryType, sys)
		rec.Kind = kind
		rec.Geometry = g
		rec.Approximate = approx
		if g == nil {
			rec.Precision = PrecisionEstimated
		}

		records = append(records, rec)
	}
	return records, nil
}

func decodeGeometry(eg *esriGeometry, geometryType string, sys geo.System) (Kind, geom.T, bool) {
	kind := kindFromEsriType(geometryType)
	if eg == nil {
		return kind, nil, false
	}

	switch {
	case eg.X != nil && eg.Y != nil:
		n, err := geo.ToWGS84(*eg.X, *eg.Y, sys)
		if err != nil {
			return KindPoint, nil, false
		}
		return KindPoint, geom.NewPointFlat(geom.XY, []float64{n.Point.Lon, n.Point.Lat}), n.Approximate

	case len(eg.Rings) > 0:
		flat, ends, approx, ok := normalizeParts(eg.Rings, sys)
		if !ok {
			return KindPolygon, nil, false
		}
		return KindPolygon, geom.NewPolygonFlat(geom.XY, flat, ends), approx

	case len(eg.Paths) > 0:
		flat, ends, approx, ok := normalizeParts(eg.Paths, sys)
		if !ok {
			return KindPolyline, nil, false
		}
		return KindPolyline, geom.NewMultiLineStringFlat(geom.XY, flat, ends), approx

	default:
		return kind, nil, false
	}
}

// normalizeParts flattens rings or paths into go-geom flat coordinates,
// converting every vertex to WGS84. Vertices that fail conversion poison the
// whole part set; callers degrade the feature to Estimated precision.
func normalizeParts(parts [][][]float64, sys geo.System) (flat []float64, ends []int, approx, ok bool) {
	for _, part := range parts {
		for _, v := range part {
			if len(v) < 2 {
				return nil, nil, false, false
			}
			n, err := geo.ToWGS84(v[0], v[1], sys)
			if err != nil {
				return nil, nil, false, false
			}
			approx = approx || n.Approximate
			flat = append(flat, n.Point.Lon, n.Point.Lat)
		}
		ends = append(ends, len(flat))
	}
	if len(flat) == 0 {
		return nil, nil, false, false
	}
	return flat, ends, approx, true
}

func kindFromEsriType(t string) Kind {
	switch t {
	case "esriGeometryPolygon":
		return KindPolygon
	case "esriGeometryPolyline":
		return KindPolyline
	default:
		return KindPoint
	}
}
