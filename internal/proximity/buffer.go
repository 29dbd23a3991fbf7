package proximity

// SizeBuffer maps a proximity outcome to a map-visualization buffer radius in
// miles. Pure and side-effect-free; performs no I/O.
//
//   - Intersecting: the domain's small fixed buffer, enough to show the
//     feature edge to edge.
//   - Nearest feature at distance d: clamp(d + offset, min, max). The offset
//     keeps the feature visible with margin; the clamp prevents degenerate or
//     absurdly wide maps.
//   - Nothing found: the domain's fixed regional fallback buffer.
func SizeBuffer(res *Result, opts Options) float64 {
	if res.Intersects {
		return opts.IntersectBuffer
	}
	if res.Nearest == nil {
		return opts.FallbackBuffer
	}

	buffer := res.Nearest.DistanceMiles + opts.DomainOffset
	if buffer < opts.MinBuffer {
		buffer = opts.MinBuffer
	}
	if opts.MaxBuffer > 0 && buffer > opts.MaxBuffer {
		buffer = opts.MaxBuffer
	}
	return buffer
}
