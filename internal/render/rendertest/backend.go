// Package rendertest provides a recording render.Backend for tests of code
// that drives a backend. It draws nothing; every capability call is
// appended to Calls. Save/Restore, groups and clipping run through a real
// render.Canvas so contract violations surface as they would in a real
// backend.
package rendertest

import (
	"fmt"
	"image/color"
	"slices"
	"sync"

	"github.com/opd-ai/go-xui/internal/region"
	"github.com/opd-ai/go-xui/internal/render"
)

// Call is one recorded capability call.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Op, c.Args) }

// Backend records calls. Err, keyed by operation name, injects errors into
// operations that can fail.
type Backend struct {
	mu    sync.Mutex
	calls []Call

	Err map[string]error

	// ExtentFunc overrides Extent. The default is 8 pixels per byte wide
	// and size tall with the pen at the top left of the ink.
	ExtentFunc func(s string, f *render.Font, size int) region.Region
}

var _ render.Backend = (*Backend)(nil)

// New returns an empty recording backend.
func New() *Backend {
	return &Backend{Err: make(map[string]error)}
}

type state struct {
	canvas *render.Canvas
}

func (*state) Release() error { return nil }

func (b *Backend) record(op string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Op: op, Args: args})
}

func (b *Backend) fail(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Err[op]
}

func canvas(s *render.Surface) *render.Canvas {
	if s.Destroyed() {
		return nil
	}
	if st, ok := s.State.(*state); ok {
		return st.canvas
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// Ops returns the recorded operation names in order.
func (b *Backend) Ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ops := make([]string, len(b.calls))
	for i, c := range b.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (b *Backend) Count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Find returns the recorded calls of op.
func (b *Backend) Find(op string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets the recorded calls.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Name implements render.Backend.
func (b *Backend) Name() string { return "record" }

// Create implements render.Lifecycle.
func (b *Backend) Create(desc render.SurfaceDescriptor) (*render.Surface, error) {
	b.record("Create", desc.Width, desc.Height)
	if err := b.fail("Create"); err != nil {
		return nil, err
	}
	s, err := render.NewSurface(desc)
	if err != nil {
		return nil, err
	}
	s.State = &state{canvas: render.NewCanvas()}
	return s, nil
}

// Destroy implements render.Lifecycle.
func (b *Backend) Destroy(s *render.Surface) error {
	b.record("Destroy")
	if err := b.fail("Destroy"); err != nil {
		return err
	}
	return render.ReleaseSurface(s)
}

// Blit implements render.Primitives.
func (b *Backend) Blit(dst *render.Surface, m render.Matrix, src *render.Surface, alpha float64) {
	b.record("Blit", m, alpha)
}

// Mask implements render.Primitives.
func (b *Backend) Mask(dst *render.Surface, m render.Matrix, src, mask *render.Surface) {
	b.record("Mask", m)
}

// Fill implements render.Primitives.
func (b *Backend) Fill(dst *render.Surface, m render.Matrix, r region.Region, c color.NRGBA) {
	b.record("Fill", m, r, c)
}

// Text implements render.Primitives.
func (b *Backend) Text(dst *render.Surface, m render.Matrix, s string, c color.NRGBA, f *render.Font, size int) {
	b.record("Text", m, s, c, size)
}

// Extent implements render.Primitives.
func (b *Backend) Extent(dst *render.Surface, s string, f *render.Font, size int) region.Region {
	b.record("Extent", s, size)
	if b.ExtentFunc != nil {
		return b.ExtentFunc(s, f, size)
	}
	if s == "" {
		return region.Region{}
	}
	return region.New(0, size, 8*len(s), size)
}

func (b *Backend) FilterHaldCLUT(s, clut *render.Surface) { b.record("FilterHaldCLUT") }

func (b *Backend) FilterGrayscale(s *render.Surface) { b.record("FilterGrayscale") }

func (b *Backend) FilterSepia(s *render.Surface) { b.record("FilterSepia") }

func (b *Backend) FilterInvert(s *render.Surface) { b.record("FilterInvert") }

func (b *Backend) FilterThreshold(s *render.Surface, level uint8) {
	b.record("FilterThreshold", level)
}

func (b *Backend) FilterColorize(s *render.Surface, c color.NRGBA) {
	b.record("FilterColorize", c)
}

func (b *Backend) FilterHue(s *render.Surface, degrees int) { b.record("FilterHue", degrees) }

func (b *Backend) FilterSaturate(s *render.Surface, percent int) {
	b.record("FilterSaturate", percent)
}

func (b *Backend) FilterBrightness(s *render.Surface, percent int) {
	b.record("FilterBrightness", percent)
}

func (b *Backend) FilterContrast(s *render.Surface, percent int) {
	b.record("FilterContrast", percent)
}

func (b *Backend) FilterBlur(s *render.Surface, radius int) { b.record("FilterBlur", radius) }

// checked records op and returns the injected error or the canvas.
func (b *Backend) checked(op string, s *render.Surface, args ...any) (*render.Canvas, error) {
	b.record(op, args...)
	if err := b.fail(op); err != nil {
		return nil, err
	}
	c := canvas(s)
	if c == nil {
		return nil, render.ErrDestroyed
	}
	return c, nil
}

// Save implements render.Shaper.
func (b *Backend) Save(s *render.Surface) error {
	c, err := b.checked("Save", s)
	if err != nil {
		return err
	}
	return c.Save()
}

// Restore implements render.Shaper.
func (b *Backend) Restore(s *render.Surface) error {
	c, err := b.checked("Restore", s)
	if err != nil {
		return err
	}
	return c.Restore()
}

// PushGroup implements render.Shaper.
func (b *Backend) PushGroup(s *render.Surface) error {
	c, err := b.checked("PushGroup", s)
	if err != nil {
		return err
	}
	return c.PushGroup()
}

// PopGroup implements render.Shaper.
func (b *Backend) PopGroup(s *render.Surface) (*render.Pattern, error) {
	c, err := b.checked("PopGroup", s)
	if err != nil {
		return nil, err
	}
	if err := c.PopGroup(); err != nil {
		return nil, err
	}
	return render.NewSolidPattern(0, 0, 0, 0), nil
}

// PopGroupToSource implements render.Shaper.
func (b *Backend) PopGroupToSource(s *render.Surface) error {
	c, err := b.checked("PopGroupToSource", s)
	if err != nil {
		return err
	}
	return c.PopGroup()
}

func (b *Backend) NewPath(s *render.Surface) {
	b.record("NewPath")
	if c := canvas(s); c != nil {
		c.NewPath()
	}
}

func (b *Backend) NewSubPath(s *render.Surface) {
	b.record("NewSubPath")
	if c := canvas(s); c != nil {
		c.NewSubPath()
	}
}

func (b *Backend) ClosePath(s *render.Surface) {
	b.record("ClosePath")
	if c := canvas(s); c != nil {
		c.ClosePath()
	}
}

func (b *Backend) SetOperator(s *render.Surface, op render.Operator) {
	b.record("SetOperator", op)
	if c := canvas(s); c != nil {
		c.State().Operator = op
	}
}

func (b *Backend) SetSource(s *render.Surface, p *render.Pattern) {
	b.record("SetSource")
	if c := canvas(s); c != nil {
		c.SetSource(p)
	}
}

func (b *Backend) GetSource(s *render.Surface) *render.Pattern {
	b.record("GetSource")
	if c := canvas(s); c != nil {
		return c.State().Source
	}
	return nil
}

func (b *Backend) SetSourceColor(s *render.Surface, r, g, bl, a float64) {
	b.record("SetSourceColor", r, g, bl, a)
	if c := canvas(s); c != nil {
		c.SetSource(render.NewSolidPattern(r, g, bl, a))
	}
}

func (b *Backend) SetSourceSurface(s *render.Surface, src *render.Surface, x, y float64) {
	b.record("SetSourceSurface", x, y)
}

func (b *Backend) SetTolerance(s *render.Surface, tolerance float64) {
	b.record("SetTolerance", tolerance)
}

func (b *Backend) SetMiterLimit(s *render.Surface, limit float64) {
	b.record("SetMiterLimit", limit)
}

func (b *Backend) SetAntialias(s *render.Surface, aa render.Antialias) {
	b.record("SetAntialias", aa)
}

func (b *Backend) SetFillRule(s *render.Surface, rule render.FillRule) {
	b.record("SetFillRule", rule)
	if c := canvas(s); c != nil {
		c.State().FillRule = rule
	}
}

func (b *Backend) SetLineWidth(s *render.Surface, width float64) {
	b.record("SetLineWidth", width)
	if c := canvas(s); c != nil {
		c.State().LineWidth = width
	}
}

func (b *Backend) SetLineCap(s *render.Surface, lc render.LineCap) {
	b.record("SetLineCap", lc)
}

func (b *Backend) SetLineJoin(s *render.Surface, lj render.LineJoin) {
	b.record("SetLineJoin", lj)
}

func (b *Backend) SetDash(s *render.Surface, dashes []float64, offset float64) {
	b.record("SetDash", slices.Clone(dashes), offset)
}

func (b *Backend) Identity(s *render.Surface) {
	b.record("Identity")
	if c := canvas(s); c != nil {
		c.State().Matrix = render.IdentityMatrix()
	}
}

func (b *Backend) Translate(s *render.Surface, tx, ty float64) {
	b.record("Translate", tx, ty)
	if c := canvas(s); c != nil {
		c.State().Matrix.Translate(tx, ty)
	}
}

func (b *Backend) Scale(s *render.Surface, sx, sy float64) {
	b.record("Scale", sx, sy)
	if c := canvas(s); c != nil {
		c.State().Matrix.Scale(sx, sy)
	}
}

func (b *Backend) Rotate(s *render.Surface, angle float64) {
	b.record("Rotate", angle)
	if c := canvas(s); c != nil {
		c.State().Matrix.Rotate(angle)
	}
}

func (b *Backend) Transform(s *render.Surface, m render.Matrix) {
	b.record("Transform", m)
	if c := canvas(s); c != nil {
		c.State().Matrix.Transform(m)
	}
}

func (b *Backend) SetMatrix(s *render.Surface, m render.Matrix) {
	b.record("SetMatrix", m)
	if c := canvas(s); c != nil {
		c.State().Matrix = m
	}
}

func (b *Backend) GetMatrix(s *render.Surface) render.Matrix {
	b.record("GetMatrix")
	if c := canvas(s); c != nil {
		return c.State().Matrix
	}
	return render.IdentityMatrix()
}

func (b *Backend) MoveTo(s *render.Surface, x, y float64) {
	b.record("MoveTo", x, y)
	if c := canvas(s); c != nil {
		c.MoveTo(x, y)
	}
}

func (b *Backend) RelMoveTo(s *render.Surface, dx, dy float64) error {
	c, err := b.checked("RelMoveTo", s, dx, dy)
	if err != nil {
		return err
	}
	return c.RelMoveTo(dx, dy)
}

func (b *Backend) LineTo(s *render.Surface, x, y float64) {
	b.record("LineTo", x, y)
	if c := canvas(s); c != nil {
		c.LineTo(x, y)
	}
}

func (b *Backend) RelLineTo(s *render.Surface, dx, dy float64) error {
	c, err := b.checked("RelLineTo", s, dx, dy)
	if err != nil {
		return err
	}
	return c.RelLineTo(dx, dy)
}

func (b *Backend) CurveTo(s *render.Surface, x1, y1, x2, y2, x3, y3 float64) {
	b.record("CurveTo", x1, y1, x2, y2, x3, y3)
	if c := canvas(s); c != nil {
		c.CurveTo(x1, y1, x2, y2, x3, y3)
	}
}

func (b *Backend) RelCurveTo(s *render.Surface, dx1, dy1, dx2, dy2, dx3, dy3 float64) error {
	c, err := b.checked("RelCurveTo", s, dx1, dy1, dx2, dy2, dx3, dy3)
	if err != nil {
		return err
	}
	return c.RelCurveTo(dx1, dy1, dx2, dy2, dx3, dy3)
}

func (b *Backend) Rectangle(s *render.Surface, x, y, w, h float64) {
	b.record("Rectangle", x, y, w, h)
	if c := canvas(s); c != nil {
		c.Rectangle(x, y, w, h)
	}
}

func (b *Backend) RoundedRectangle(s *render.Surface, x, y, w, h, r float64) {
	b.record("RoundedRectangle", x, y, w, h, r)
	if c := canvas(s); c != nil {
		c.RoundedRectangle(x, y, w, h, r)
	}
}

func (b *Backend) Arc(s *render.Surface, xc, yc, radius, a1, a2 float64) {
	b.record("Arc", xc, yc, radius, a1, a2)
	if c := canvas(s); c != nil {
		c.Arc(xc, yc, radius, a1, a2)
	}
}

func (b *Backend) ArcNegative(s *render.Surface, xc, yc, radius, a1, a2 float64) {
	b.record("ArcNegative", xc, yc, radius, a1, a2)
	if c := canvas(s); c != nil {
		c.ArcNegative(xc, yc, radius, a1, a2)
	}
}

func (b *Backend) Stroke(s *render.Surface) {
	b.record("Stroke")
	if c := canvas(s); c != nil {
		c.NewPath()
	}
}

func (b *Backend) StrokePreserve(s *render.Surface) { b.record("StrokePreserve") }

func (b *Backend) FillPath(s *render.Surface) {
	b.record("FillPath")
	if c := canvas(s); c != nil {
		c.NewPath()
	}
}

func (b *Backend) FillPreserve(s *render.Surface) { b.record("FillPreserve") }

func (b *Backend) ResetClip(s *render.Surface) {
	b.record("ResetClip")
	if c := canvas(s); c != nil {
		c.ResetClip()
	}
}

func (b *Backend) Clip(s *render.Surface) error {
	c, err := b.checked("Clip", s)
	if err != nil {
		return err
	}
	return c.Clip()
}

func (b *Backend) ClipPreserve(s *render.Surface) error {
	c, err := b.checked("ClipPreserve", s)
	if err != nil {
		return err
	}
	return c.ClipPreserve()
}

func (b *Backend) MaskPattern(s *render.Surface, p *render.Pattern) { b.record("MaskPattern") }

func (b *Backend) MaskSurface(s *render.Surface, mask *render.Surface, x, y float64) {
	b.record("MaskSurface", x, y)
}

func (b *Backend) Paint(s *render.Surface, alpha float64) { b.record("Paint", alpha) }

// ClipBounds returns the device box the clip of s leaves paintable.
func ClipBounds(s *render.Surface) region.Region {
	if c := canvas(s); c != nil {
		return c.ClipBounds(s.Bounds())
	}
	return region.Region{}
}

func (b *Backend) FontCreate(family string, data []byte) (*render.Font, error) {
	b.record("FontCreate", family)
	if err := b.fail("FontCreate"); err != nil {
		return nil, err
	}
	return &render.Font{Family: family}, nil
}

func (b *Backend) FontDestroy(f *render.Font) { b.record("FontDestroy") }

func (b *Backend) PatternCreate(s *render.Surface) *render.Pattern {
	b.record("PatternCreate")
	return render.NewSurfacePattern(s)
}

func (b *Backend) PatternCreateColor(r, g, bl, a float64) *render.Pattern {
	b.record("PatternCreateColor", r, g, bl, a)
	return render.NewSolidPattern(r, g, bl, a)
}

func (b *Backend) PatternCreateLinear(x0, y0, x1, y1 float64) *render.Pattern {
	b.record("PatternCreateLinear", x0, y0, x1, y1)
	return render.NewLinearPattern(x0, y0, x1, y1)
}

func (b *Backend) PatternCreateRadial(x0, y0, r0, x1, y1, r1 float64) *render.Pattern {
	b.record("PatternCreateRadial", x0, y0, r0, x1, y1, r1)
	return render.NewRadialPattern(x0, y0, r0, x1, y1, r1)
}

func (b *Backend) PatternDestroy(p *render.Pattern) {
	b.record("PatternDestroy")
	if p != nil {
		p.Destroy()
	}
}

func (b *Backend) PatternAddColorStop(p *render.Pattern, offset, r, g, bl, a float64) {
	b.record("PatternAddColorStop", offset, r, g, bl, a)
	if !p.Destroyed() {
		p.AddColorStop(offset, r, g, bl, a)
	}
}

func (b *Backend) PatternSetExtend(p *render.Pattern, e render.Extend) {
	b.record("PatternSetExtend", e)
}

func (b *Backend) PatternSetFilter(p *render.Pattern, f render.Filter) {
	b.record("PatternSetFilter", f)
}

func (b *Backend) PatternSetMatrix(p *render.Pattern, m render.Matrix) {
	b.record("PatternSetMatrix", m)
}
