package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/opd-ai/go-xui/internal/region"
)

const (
	maxStateDepth    = 256
	defaultTolerance = 0.1
)

// ClipPath is one device-space path intersected into the clip.
type ClipPath struct {
	Path *Path
	Rule FillRule
}

// GState is the drawing state Save and Restore push and pop.
type GState struct {
	Matrix       Matrix
	Operator     Operator
	Source       *Pattern
	SourceMatrix Matrix
	Antialias    Antialias
	FillRule     FillRule
	LineWidth    float64
	LineCap      LineCap
	LineJoin     LineJoin
	Dash         []float64
	DashOffset   float64
	Tolerance    float64
	MiterLimit   float64
	Clip         []ClipPath
}

// DefaultGState returns the state of a fresh surface: identity transform,
// opaque black source, 2px butt/miter lines and no clip.
func DefaultGState() GState {
	return GState{
		Matrix:       IdentityMatrix(),
		Operator:     OperatorOver,
		Source:       NewSolidPattern(0, 0, 0, 1),
		SourceMatrix: IdentityMatrix(),
		LineWidth:    2,
		LineCap:      LineCapButt,
		LineJoin:     LineJoinMiter,
		Tolerance:    defaultTolerance,
		MiterLimit:   10,
	}
}

// Canvas implements the backend-independent half of the shape state
// machine: the state stack, the group marks and path construction in
// device space. Backends embed one per surface and add rasterization.
type Canvas struct {
	gs     GState
	stack  []GState
	groups []int
	path   Path
}

// NewCanvas returns a Canvas in the default state.
func NewCanvas() *Canvas {
	return &Canvas{gs: DefaultGState()}
}

// State returns the live drawing state.
func (c *Canvas) State() *GState { return &c.gs }

// Path returns the current path.
func (c *Canvas) Path() *Path { return &c.path }

// Borrow runs fn with an empty path and the matrix m, then puts back the
// caller's path, matrix and source. Primitives use it so they leave the
// shape state untouched.
func (c *Canvas) Borrow(m Matrix, fn func()) {
	saved := *c.path.Clone()
	matrix, source, sourceMatrix := c.gs.Matrix, c.gs.Source, c.gs.SourceMatrix

	c.path.Clear()
	c.gs.Matrix = m
	fn()

	c.gs.Matrix, c.gs.Source, c.gs.SourceMatrix = matrix, source, sourceMatrix
	c.path = saved
}

// Depth returns the number of unmatched Saves.
func (c *Canvas) Depth() int { return len(c.stack) }

// GroupDepth returns the number of unmatched PushGroups.
func (c *Canvas) GroupDepth() int { return len(c.groups) }

// Save pushes a copy of the drawing state.
func (c *Canvas) Save() error {
	if len(c.stack) >= maxStateDepth {
		return fmt.Errorf("save at depth %d: %w", len(c.stack), ErrStackOverflow)
	}
	saved := c.gs
	saved.Dash = append([]float64(nil), c.gs.Dash...)
	c.stack = append(c.stack, saved)
	return nil
}

// Restore pops the drawing state. It fails instead of underflowing, and
// refuses to pop past the Save made by the innermost PushGroup.
func (c *Canvas) Restore() error {
	floor := 0
	if n := len(c.groups); n > 0 {
		floor = c.groups[n-1] + 1
	}
	if len(c.stack) <= floor {
		return ErrUnbalancedRestore
	}
	c.gs = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return nil
}

// PushGroup saves the state and records a group mark. The backend
// redirects drawing to an intermediate target.
func (c *Canvas) PushGroup() error {
	mark := len(c.stack)
	if err := c.Save(); err != nil {
		return err
	}
	c.groups = append(c.groups, mark)
	return nil
}

// PopGroup unwinds to the innermost group mark and restores the state saved
// by PushGroup. Saves left open inside the group are an error.
func (c *Canvas) PopGroup() error {
	n := len(c.groups)
	if n == 0 {
		return ErrUnbalancedGroup
	}
	mark := c.groups[n-1]
	c.groups = c.groups[:n-1]
	unbalanced := len(c.stack) != mark+1

	c.gs = c.stack[mark]
	c.stack = c.stack[:mark]
	if unbalanced {
		return fmt.Errorf("pop group with open saves: %w", ErrUnbalancedRestore)
	}
	return nil
}

// SetSource installs p, locking it to the current user space.
func (c *Canvas) SetSource(p *Pattern) {
	if p == nil || p.Destroyed() {
		return
	}
	c.gs.Source = p
	c.gs.SourceMatrix = c.gs.Matrix
}

// SourceAt samples the source at a device-space point and returns a
// premultiplied color.
func (c *Canvas) SourceAt(x, y float64) color.RGBA {
	src := c.gs.Source
	if src == nil {
		return color.RGBA{}
	}
	if src.Type() == PatternSolid {
		return premultiply(src.SolidColor())
	}
	inv, ok := c.gs.SourceMatrix.Invert()
	if !ok {
		return color.RGBA{}
	}
	ux, uy := inv.TransformPoint(x, y)
	return premultiply(src.ColorAt(ux, uy))
}

// LineWidth returns the stroke width in device pixels.
func (c *Canvas) LineWidth() float64 {
	return c.gs.LineWidth * c.gs.Matrix.LineScale()
}

func (c *Canvas) device(x, y float64) Point {
	dx, dy := c.gs.Matrix.TransformPoint(x, y)
	return Point{X: dx, Y: dy}
}

// user maps the current device point back into user space.
func (c *Canvas) user() (float64, float64, error) {
	pt, ok := c.path.Current()
	if !ok {
		return 0, 0, ErrNoCurrentPoint
	}
	inv, ok := c.gs.Matrix.Invert()
	if !ok {
		return 0, 0, ErrNoCurrentPoint
	}
	x, y := inv.TransformPoint(pt.X, pt.Y)
	return x, y, nil
}

// NewPath clears the path.
func (c *Canvas) NewPath() { c.path.Clear() }

// NewSubPath starts a subpath without a current point.
func (c *Canvas) NewSubPath() { c.path.NewSubPath() }

// ClosePath closes the current subpath.
func (c *Canvas) ClosePath() { c.path.Close() }

// MoveTo begins a subpath at user-space (x, y).
func (c *Canvas) MoveTo(x, y float64) { c.path.MoveTo(c.device(x, y)) }

// LineTo adds a segment to user-space (x, y).
func (c *Canvas) LineTo(x, y float64) { c.path.LineTo(c.device(x, y)) }

// CurveTo adds a cubic Bezier in user space.
func (c *Canvas) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	c.path.CubicTo(c.device(x1, y1), c.device(x2, y2), c.device(x3, y3))
}

// RelMoveTo moves relative to the current point.
func (c *Canvas) RelMoveTo(dx, dy float64) error {
	x, y, err := c.user()
	if err != nil {
		return err
	}
	c.MoveTo(x+dx, y+dy)
	return nil
}

// RelLineTo draws relative to the current point.
func (c *Canvas) RelLineTo(dx, dy float64) error {
	x, y, err := c.user()
	if err != nil {
		return err
	}
	c.LineTo(x+dx, y+dy)
	return nil
}

// RelCurveTo adds a curve with control points relative to the current point.
func (c *Canvas) RelCurveTo(dx1, dy1, dx2, dy2, dx3, dy3 float64) error {
	x, y, err := c.user()
	if err != nil {
		return err
	}
	c.CurveTo(x+dx1, y+dy1, x+dx2, y+dy2, x+dx3, y+dy3)
	return nil
}

// Rectangle adds a closed rectangle subpath.
func (c *Canvas) Rectangle(x, y, w, h float64) {
	c.MoveTo(x, y)
	c.LineTo(x+w, y)
	c.LineTo(x+w, y+h)
	c.LineTo(x, y+h)
	c.ClosePath()
}

// RoundedRectangle adds a rectangle whose corners are quarter circles of
// radius r, clamped to half the shorter side.
func (c *Canvas) RoundedRectangle(x, y, w, h, r float64) {
	r = math.Min(r, math.Min(math.Abs(w), math.Abs(h))/2)
	if r <= 0 {
		c.Rectangle(x, y, w, h)
		return
	}
	c.MoveTo(x+r, y)
	c.LineTo(x+w-r, y)
	c.Arc(x+w-r, y+r, r, -math.Pi/2, 0)
	c.LineTo(x+w, y+h-r)
	c.Arc(x+w-r, y+h-r, r, 0, math.Pi/2)
	c.LineTo(x+r, y+h)
	c.Arc(x+r, y+h-r, r, math.Pi/2, math.Pi)
	c.LineTo(x, y+r)
	c.Arc(x+r, y+r, r, math.Pi, math.Pi*3/2)
	c.ClosePath()
}

// Arc adds a circular arc of increasing angle, joined to the current point
// by a straight segment.
func (c *Canvas) Arc(xc, yc, radius, a1, a2 float64) {
	c.arc(xc, yc, radius, a1, a2, false)
}

// ArcNegative adds a circular arc of decreasing angle.
func (c *Canvas) ArcNegative(xc, yc, radius, a1, a2 float64) {
	c.arc(xc, yc, radius, a1, a2, true)
}

func (c *Canvas) arc(xc, yc, radius, a1, a2 float64, negative bool) {
	start, segs := arcSegments(xc, yc, radius, a1, a2, negative)
	c.LineTo(start.X, start.Y)
	for _, s := range segs {
		c.CurveTo(s[0].X, s[0].Y, s[1].X, s[1].Y, s[2].X, s[2].Y)
	}
}

// Clip intersects the clip with the current path and clears the path.
func (c *Canvas) Clip() error {
	if err := c.ClipPreserve(); err != nil {
		return err
	}
	c.path.Clear()
	return nil
}

// ClipPreserve intersects the clip with the current path.
func (c *Canvas) ClipPreserve() error {
	if c.path.Empty() {
		return ErrNoCurrentPath
	}
	clip := make([]ClipPath, len(c.gs.Clip), len(c.gs.Clip)+1)
	copy(clip, c.gs.Clip)
	c.gs.Clip = append(clip, ClipPath{Path: c.path.Clone(), Rule: c.gs.FillRule})
	return nil
}

// ResetClip removes every clip path.
func (c *Canvas) ResetClip() { c.gs.Clip = nil }

// ClipBounds returns the device-space box that can still be painted,
// limited to bounds.
func (c *Canvas) ClipBounds(bounds region.Region) region.Region {
	out := bounds
	for _, cp := range c.gs.Clip {
		x0, y0, x1, y1, ok := cp.Path.Bounds()
		if !ok {
			return region.New(out.X, out.Y, 0, 0)
		}
		if !region.Intersect(&out, out, region.Bounds(x0, y0, x1-x0, y1-y0)) {
			return region.New(out.X, out.Y, 0, 0)
		}
	}
	return out
}

// ClipIsRect reports whether the clip is a single axis-aligned rectangle
// and returns it. Backends use this to skip mask rendering.
func (c *Canvas) ClipIsRect() (region.Region, bool) {
	if len(c.gs.Clip) != 1 {
		return region.Region{}, len(c.gs.Clip) == 0
	}
	return rectOf(c.gs.Clip[0].Path)
}

func rectOf(p *Path) (region.Region, bool) {
	els := p.Elements()
	if len(els) != 5 || els[0].Op != PathMoveTo || els[4].Op != PathClose {
		return region.Region{}, false
	}
	pts := []Point{els[0].P[0], els[1].P[0], els[2].P[0], els[3].P[0]}
	for _, e := range els[1:4] {
		if e.Op != PathLineTo {
			return region.Region{}, false
		}
	}
	for i := range pts {
		a, b := pts[i], pts[(i+1)%4]
		if a.X != b.X && a.Y != b.Y {
			return region.Region{}, false
		}
		if a.X != math.Trunc(a.X) || a.Y != math.Trunc(a.Y) {
			return region.Region{}, false
		}
	}
	x0, y0, x1, y1, _ := p.Bounds()
	return region.New(int(x0), int(y0), int(x1-x0), int(y1-y0)), true
}

func premultiply(c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}
