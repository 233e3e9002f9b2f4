package render

import "math"

// PathOp is the verb of a path element.
type PathOp uint8

const (
	PathMoveTo PathOp = iota
	PathLineTo
	PathCubicTo
	PathClose
)

// Point is a device-space coordinate.
type Point struct {
	X, Y float64
}

// PathElement is one verb and its points. MoveTo and LineTo use P[0];
// CubicTo uses P[0] and P[1] as control points and P[2] as the end point.
type PathElement struct {
	Op PathOp
	P  [3]Point
}

// Path records device-space path elements. Backends replay it into their
// own rasterizer.
type Path struct {
	elems []PathElement

	start, current Point
	hasCurrent     bool
}

// Elements returns the recorded elements. The slice is shared.
func (p *Path) Elements() []PathElement { return p.elems }

// Empty reports whether the path has no drawable elements.
func (p *Path) Empty() bool {
	for _, e := range p.elems {
		if e.Op != PathMoveTo {
			return false
		}
	}
	return true
}

// Current returns the current point.
func (p *Path) Current() (Point, bool) { return p.current, p.hasCurrent }

// Clear drops every element and the current point.
func (p *Path) Clear() {
	p.elems = p.elems[:0]
	p.hasCurrent = false
}

// Clone returns a deep copy.
func (p *Path) Clone() *Path {
	c := *p
	c.elems = append([]PathElement(nil), p.elems...)
	return &c
}

// MoveTo starts a new subpath.
func (p *Path) MoveTo(pt Point) {
	p.elems = append(p.elems, PathElement{Op: PathMoveTo, P: [3]Point{pt}})
	p.start, p.current, p.hasCurrent = pt, pt, true
}

// LineTo adds a segment. Without a current point it behaves like MoveTo.
func (p *Path) LineTo(pt Point) {
	if !p.hasCurrent {
		p.MoveTo(pt)
		return
	}
	p.elems = append(p.elems, PathElement{Op: PathLineTo, P: [3]Point{pt}})
	p.current = pt
}

// CubicTo adds a cubic Bezier segment.
func (p *Path) CubicTo(c1, c2, end Point) {
	if !p.hasCurrent {
		p.MoveTo(c1)
	}
	p.elems = append(p.elems, PathElement{Op: PathCubicTo, P: [3]Point{c1, c2, end}})
	p.current = end
}

// Close ends the current subpath with a segment back to its start.
func (p *Path) Close() {
	if !p.hasCurrent {
		return
	}
	p.elems = append(p.elems, PathElement{Op: PathClose})
	p.current = p.start
}

// NewSubPath forgets the current point without adding an element.
func (p *Path) NewSubPath() {
	p.hasCurrent = false
}

// Bounds returns the control-point bounding box.
func (p *Path) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, e := range p.elems {
		n := 1
		switch e.Op {
		case PathClose:
			continue
		case PathCubicTo:
			n = 3
		}
		for _, pt := range e.P[:n] {
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
		ok = true
	}
	return minX, minY, maxX, maxY, ok
}

// Flatten converts the path to polylines, one per subpath, splitting
// curves until they deviate from their chords by less than tolerance.
func (p *Path) Flatten(tolerance float64) [][]Point {
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	var out [][]Point
	var cur []Point
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, e := range p.elems {
		switch e.Op {
		case PathMoveTo:
			flush()
			cur = []Point{e.P[0]}
		case PathLineTo:
			cur = append(cur, e.P[0])
		case PathCubicTo:
			if len(cur) == 0 {
				cur = []Point{e.P[0]}
			}
			cur = flattenCubic(cur, cur[len(cur)-1], e.P[0], e.P[1], e.P[2], tolerance)
		case PathClose:
			if len(cur) > 0 {
				cur = append(cur, cur[0])
				start := cur[0]
				flush()
				cur = []Point{start}
			}
		}
	}
	flush()
	return out
}

func flattenCubic(dst []Point, p0, p1, p2, p3 Point, tol float64) []Point {
	dd := math.Max(
		math.Hypot(p0.X-2*p1.X+p2.X, p0.Y-2*p1.Y+p2.Y),
		math.Hypot(p1.X-2*p2.X+p3.X, p1.Y-2*p2.Y+p3.Y),
	)
	n := int(math.Ceil(math.Sqrt(dd * 0.75 / tol)))
	n = max(1, min(n, 256))
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		mt := 1 - t
		a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		dst = append(dst, Point{
			X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
			Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
		})
	}
	return dst
}

// arcSegments returns the cubic approximation of a circular arc in user
// space, each entry being {c1, c2, end}. The arc runs from a1 towards a2,
// clockwise in screen space when a2 > a1 and negative is false.
func arcSegments(xc, yc, r, a1, a2 float64, negative bool) (start Point, segs [][3]Point) {
	if negative {
		for a2 > a1 {
			a2 -= 2 * math.Pi
		}
	} else {
		for a2 < a1 {
			a2 += 2 * math.Pi
		}
	}
	start = Point{X: xc + r*math.Cos(a1), Y: yc + r*math.Sin(a1)}
	sweep := a2 - a1
	if sweep == 0 || r <= 0 {
		return start, nil
	}

	n := int(math.Ceil(math.Abs(sweep) / (math.Pi / 2)))
	step := sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	a := a1
	for i := 0; i < n; i++ {
		b := a + step
		ca, sa := math.Cos(a), math.Sin(a)
		cb, sb := math.Cos(b), math.Sin(b)
		segs = append(segs, [3]Point{
			{X: xc + r*(ca-k*sa), Y: yc + r*(sa+k*ca)},
			{X: xc + r*(cb+k*sb), Y: yc + r*(sb-k*cb)},
			{X: xc + r*cb, Y: yc + r*sb},
		})
		a = b
	}
	return start, segs
}
