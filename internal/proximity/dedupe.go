package proximity

import (
	"fmt"
	"sort"
	"strings"
)

// DedupeAndRank merges duplicate candidates and orders the survivors.
//
// The same physical feature can arrive more than once: overlapping service
// layers (a "final" and a general layer covering the same polygon) or
// re-queries across radius tiers. Identity is the concatenation of the
// layer's identity attributes plus the source layer id. When two candidates
// share a key, the higher-precision one wins; on a tie, the smaller distance.
// The final order is Exact-precision first, then ascending distance. The
// function is idempotent: ranking its own output changes nothing.
func DedupeAndRank(candidates []Candidate, layers []Layer) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	identityFields := make(map[string][]string, len(layers))
	for _, l := range layers {
		identityFields[l.ID] = l.IdentityFields
	}

	best := make(map[string]Candidate, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		key := identityKey(c, identityFields[c.Feature.SourceLayer])
		cur, seen := best[key]
		if !seen {
			best[key] = c
			order = append(order, key)
			continue
		}
		if c.Feature.Precision < cur.Feature.Precision ||
			(c.Feature.Precision == cur.Feature.Precision && c.DistanceMiles < cur.DistanceMiles) {
			best[key] = c
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, key := range order {
		out = append(out, best[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Feature.Precision != out[j].Feature.Precision {
			return out[i].Feature.Precision < out[j].Feature.Precision
		}
		return out[i].DistanceMiles < out[j].DistanceMiles
	})
	return out
}

// identityKey builds the dedupe key from the candidate's most distinguishing
// attribute fields plus its source layer.
func identityKey(c Candidate, fields []string) string {
	attrs := c.Feature.Attributes

	if len(fields) == 0 {
		fields = make([]string, 0, len(attrs))
		for k := range attrs {
			fields = append(fields, k)
		}
		sort.Strings(fields)
	}

	var b strings.Builder
	for _, f := range fields {
		if v, ok := attrs[f]; ok && v != nil {
			b.WriteString(strings.ToLower(strings.TrimSpace(fmt.Sprint(v))))
		}
		b.WriteByte('|')
	}
	b.WriteString(c.Feature.SourceLayer)
	return b.String()
}
