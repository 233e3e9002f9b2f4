package render

import "math"

// Dash splits the path into the "on" segments of a dash pattern. Lengths
// are multiplied by scale to reach device units. An odd pattern is
// repeated to make it even. Patterns that are empty, contain a negative
// length or sum to zero return p unchanged.
func (p *Path) Dash(dashes []float64, offset, scale, tolerance float64) *Path {
	if len(dashes) == 0 || scale <= 0 {
		return p
	}
	pattern := make([]float64, 0, 2*len(dashes))
	total := 0.0
	for _, d := range dashes {
		if d < 0 {
			return p
		}
		pattern = append(pattern, d*scale)
		total += d * scale
	}
	if total == 0 {
		return p
	}
	if len(pattern)%2 == 1 {
		pattern = append(pattern, pattern...)
		total *= 2
	}

	// Walk the pattern forward by the offset once; every subpath restarts
	// from this phase.
	startIdx, startRemain := 0, pattern[0]
	if off := math.Mod(offset*scale, total); off != 0 {
		if off < 0 {
			off += total
		}
		for off >= startRemain {
			off -= startRemain
			startIdx = (startIdx + 1) % len(pattern)
			startRemain = pattern[startIdx]
		}
		startRemain -= off
	}

	out := &Path{}
	for _, poly := range p.Flatten(tolerance) {
		idx, remain := startIdx, startRemain
		on := idx%2 == 0
		if on {
			out.MoveTo(poly[0])
		}
		for i := 1; i < len(poly); i++ {
			a, b := poly[i-1], poly[i]
			seg := math.Hypot(b.X-a.X, b.Y-a.Y)
			pos := 0.0
			for seg-pos > remain {
				pos += remain
				t := pos / seg
				pt := Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
				if on {
					out.LineTo(pt)
				} else {
					out.MoveTo(pt)
				}
				on = !on
				idx = (idx + 1) % len(pattern)
				remain = pattern[idx]
			}
			remain -= seg - pos
			if on {
				out.LineTo(b)
			}
		}
	}
	return out
}
