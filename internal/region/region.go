// Package region implements the integer rectangle algebra used for clipping
// and damage tracking: intersection, union, containment and line clipping
// against an axis-aligned viewport.
package region

import "fmt"

// staleArea marks a cached area that must be recomputed on the next read.
const staleArea = -1

// Region is an axis-aligned rectangle with a cached area. A Region whose
// width or height is not positive is empty and lets nothing through.
//
// Regions are plain values; copy them freely.
type Region struct {
	X, Y int
	W, H int

	area int
}

// New returns a Region with the given origin and size.
func New(x, y, w, h int) Region {
	return Region{X: x, Y: y, W: w, H: h, area: staleArea}
}

// Init overwrites the rectangle and marks the cached area stale.
func (r *Region) Init(x, y, w, h int) {
	r.X = x
	r.Y = y
	r.W = w
	r.H = h
	r.area = staleArea
}

// Area returns W*H, caching the result until the next mutation.
// The zero value is treated as stale so that literal Regions work too.
func (r *Region) Area() int {
	if r.area <= 0 {
		r.area = r.W * r.H
	}
	return r.area
}

// IsEmpty reports whether the region has no pixels.
func (r Region) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Right returns the exclusive right edge.
func (r Region) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Region) Bottom() int { return r.Y + r.H }

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("{%d,%d %dx%d}", r.X, r.Y, r.W, r.H)
}

// Equal compares the rectangles, ignoring the area cache.
func (r Region) Equal(o Region) bool {
	return r.X == o.X && r.Y == o.Y && r.W == o.W && r.H == o.H
}

// Contains reports whether inner lies inside outer. The left and top edges
// of inner are tested half-open against outer while the right and bottom
// edges may touch outer's far edges.
func Contains(outer, inner Region) bool {
	or, ob := outer.Right(), outer.Bottom()
	ir, ib := inner.Right(), inner.Bottom()

	return inner.X >= outer.X && inner.X < or &&
		inner.Y >= outer.Y && inner.Y < ob &&
		ir > outer.X && ir <= or &&
		ib > outer.Y && ib <= ob
}

// Intersect stores the overlap of a and b in out. It returns false and
// leaves out untouched when the rectangles are disjoint. Rectangles that
// only share an edge intersect successfully with an empty result.
func Intersect(out *Region, a, b Region) bool {
	x0 := max(a.X, b.X)
	x1 := min(a.Right(), b.Right())
	if x0 > x1 {
		return false
	}
	y0 := max(a.Y, b.Y)
	y1 := min(a.Bottom(), b.Bottom())
	if y0 > y1 {
		return false
	}
	out.Init(x0, y0, x1-x0, y1-y0)
	return true
}

// Union stores the bounding box of a and b in out.
func Union(out *Region, a, b Region) {
	x0 := min(a.X, b.X)
	x1 := max(a.Right(), b.Right())
	y0 := min(a.Y, b.Y)
	y1 := max(a.Bottom(), b.Bottom())
	out.Init(x0, y0, x1-x0, y1-y0)
}

// Overlaps reports whether a and b share at least one pixel.
func Overlaps(a, b Region) bool {
	var out Region
	return Intersect(&out, a, b) && !out.IsEmpty()
}

// Bounds returns the smallest Region covering the float rectangle
// (x, y, w, h). Negative sizes are normalized first.
func Bounds(x, y, w, h float64) Region {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	x0, y0 := floor(x), floor(y)
	x1, y1 := ceil(x+w), ceil(y+h)
	return New(x0, y0, x1-x0, y1-y0)
}

// Grow returns r expanded by d on every side.
func (r Region) Grow(d int) Region {
	return New(r.X-d, r.Y-d, r.W+2*d, r.H+2*d)
}

func floor(v float64) int {
	i := int(v)
	if float64(i) > v {
		i--
	}
	return i
}

func ceil(v float64) int {
	i := int(v)
	if float64(i) < v {
		i++
	}
	return i
}
