package render

import (
	"image/color"
	"math"
	"sort"
	"sync"
)

// PatternType identifies the kind of paint source.
type PatternType int

const (
	PatternSolid PatternType = iota
	PatternLinear
	PatternRadial
	PatternSurface
)

func (t PatternType) String() string {
	switch t {
	case PatternSolid:
		return "solid"
	case PatternLinear:
		return "linear"
	case PatternRadial:
		return "radial"
	case PatternSurface:
		return "surface"
	default:
		return "unknown"
	}
}

// ColorStop is one gradient stop. Color is not premultiplied.
type ColorStop struct {
	Offset float64
	Color  color.NRGBA
}

// Pattern is a backend-neutral paint source. Coordinates are in pattern
// space; Matrix maps user space to pattern space.
type Pattern struct {
	mu sync.Mutex

	typ   PatternType
	solid color.NRGBA

	x0, y0, x1, y1 float64
	r0, r1         float64

	stops   []ColorStop
	extend  Extend
	filter  Filter
	matrix  Matrix
	surface *Surface

	destroyed bool
}

// NewSolidPattern returns a pattern painting one color. Components are
// in [0, 1].
func NewSolidPattern(r, g, b, a float64) *Pattern {
	return &Pattern{
		typ:    PatternSolid,
		solid:  color.NRGBA{R: clampToByte(r), G: clampToByte(g), B: clampToByte(b), A: clampToByte(a)},
		matrix: IdentityMatrix(),
	}
}

// NewLinearPattern returns a gradient along (x0,y0)-(x1,y1).
func NewLinearPattern(x0, y0, x1, y1 float64) *Pattern {
	return &Pattern{
		typ: PatternLinear,
		x0:  x0, y0: y0, x1: x1, y1: y1,
		extend: ExtendPad,
		matrix: IdentityMatrix(),
	}
}

// NewRadialPattern returns a gradient between two circles.
func NewRadialPattern(x0, y0, r0, x1, y1, r1 float64) *Pattern {
	return &Pattern{
		typ: PatternRadial,
		x0:  x0, y0: y0, r0: r0,
		x1: x1, y1: y1, r1: r1,
		extend: ExtendPad,
		matrix: IdentityMatrix(),
	}
}

// NewSurfacePattern returns a pattern sampling s. It returns nil for a
// destroyed surface.
func NewSurfacePattern(s *Surface) *Pattern {
	if s.Destroyed() {
		return nil
	}
	return &Pattern{
		typ:     PatternSurface,
		surface: s,
		extend:  ExtendNone,
		filter:  FilterGood,
		matrix:  IdentityMatrix(),
	}
}

// Type returns the pattern kind.
func (p *Pattern) Type() PatternType { return p.typ }

// Surface returns the sampled surface of a surface pattern.
func (p *Pattern) Surface() *Surface { return p.surface }

// SolidColor returns the color of a solid pattern.
func (p *Pattern) SolidColor() color.NRGBA { return p.solid }

// AddColorStop inserts a stop, keeping stops sorted by offset. Stops with
// equal offsets keep insertion order.
func (p *Pattern) AddColorStop(offset, r, g, b, a float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.typ != PatternLinear && p.typ != PatternRadial {
		return
	}
	stop := ColorStop{
		Offset: math.Max(0, math.Min(1, offset)),
		Color:  color.NRGBA{R: clampToByte(r), G: clampToByte(g), B: clampToByte(b), A: clampToByte(a)},
	}
	i := sort.Search(len(p.stops), func(i int) bool { return p.stops[i].Offset > stop.Offset })
	p.stops = append(p.stops, ColorStop{})
	copy(p.stops[i+1:], p.stops[i:])
	p.stops[i] = stop
}

// Stops returns a copy of the gradient stops.
func (p *Pattern) Stops() []ColorStop {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ColorStop(nil), p.stops...)
}

// SetExtend sets how the pattern repeats outside its natural area.
func (p *Pattern) SetExtend(e Extend) {
	p.mu.Lock()
	p.extend = e
	p.mu.Unlock()
}

// Extend returns the extend mode.
func (p *Pattern) Extend() Extend {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extend
}

// SetFilter sets the sampling filter for surface patterns.
func (p *Pattern) SetFilter(f Filter) {
	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()
}

// Filter returns the sampling filter.
func (p *Pattern) Filter() Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// SetMatrix sets the user-to-pattern transform.
func (p *Pattern) SetMatrix(m Matrix) {
	p.mu.Lock()
	p.matrix = m
	p.mu.Unlock()
}

// Matrix returns the user-to-pattern transform.
func (p *Pattern) Matrix() Matrix {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.matrix
}

// Destroy marks the pattern unusable. Painting with a destroyed pattern is
// skipped.
func (p *Pattern) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.surface = nil
	p.stops = nil
	p.mu.Unlock()
}

// Destroyed reports whether Destroy has been called.
func (p *Pattern) Destroyed() bool {
	if p == nil {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// ColorAt samples the pattern at user-space (x, y).
func (p *Pattern) ColorAt(x, y float64) color.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return color.NRGBA{}
	}
	px, py := p.matrix.TransformPoint(x, y)

	switch p.typ {
	case PatternSolid:
		return p.solid
	case PatternLinear:
		dx, dy := p.x1-p.x0, p.y1-p.y0
		lenSq := dx*dx + dy*dy
		if lenSq == 0 {
			return p.stopColor(0)
		}
		return p.gradientAt(((px-p.x0)*dx + (py-p.y0)*dy) / lenSq)
	case PatternRadial:
		return p.gradientAt(p.radialT(px, py))
	case PatternSurface:
		return p.surfaceAt(px, py)
	default:
		return color.NRGBA{}
	}
}

// radialT solves for the largest t where (px, py) lies on the circle
// interpolated between the start and end circles.
func (p *Pattern) radialT(px, py float64) float64 {
	cdx, cdy, dr := p.x1-p.x0, p.y1-p.y0, p.r1-p.r0
	pdx, pdy := px-p.x0, py-p.y0

	a := cdx*cdx + cdy*cdy - dr*dr
	b := pdx*cdx + pdy*cdy + p.r0*dr
	c := pdx*pdx + pdy*pdy - p.r0*p.r0

	if math.Abs(a) < 1e-9 {
		if b == 0 {
			return 0
		}
		return c / (2 * b)
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0
	}
	sq := math.Sqrt(disc)
	t := (b + sq) / a
	if p.r0+t*dr < 0 {
		t = (b - sq) / a
	}
	return t
}

func (p *Pattern) gradientAt(t float64) color.NRGBA {
	switch p.extend {
	case ExtendNone:
		if t < 0 || t > 1 {
			return color.NRGBA{}
		}
	case ExtendRepeat:
		t -= math.Floor(t)
	case ExtendReflect:
		t = math.Abs(t)
		period := math.Mod(t, 2)
		if period > 1 {
			period = 2 - period
		}
		t = period
	}
	return p.stopColor(t)
}

func (p *Pattern) stopColor(t float64) color.NRGBA {
	switch len(p.stops) {
	case 0:
		return color.NRGBA{}
	case 1:
		return p.stops[0].Color
	}
	if t <= p.stops[0].Offset {
		return p.stops[0].Color
	}
	last := p.stops[len(p.stops)-1]
	if t >= last.Offset {
		return last.Color
	}
	for i := 0; i < len(p.stops)-1; i++ {
		a, b := p.stops[i], p.stops[i+1]
		if t >= a.Offset && t <= b.Offset {
			if b.Offset == a.Offset {
				return a.Color
			}
			return lerpNRGBA(a.Color, b.Color, (t-a.Offset)/(b.Offset-a.Offset))
		}
	}
	return last.Color
}

func (p *Pattern) surfaceAt(px, py float64) color.NRGBA {
	s := p.surface
	if s.Destroyed() {
		return color.NRGBA{}
	}
	ix, iy := int(math.Floor(px)), int(math.Floor(py))
	w, h := s.Width, s.Height

	switch p.extend {
	case ExtendNone:
		if ix < 0 || iy < 0 || ix >= w || iy >= h {
			return color.NRGBA{}
		}
	case ExtendRepeat:
		ix, iy = wrap(ix, w), wrap(iy, h)
	case ExtendReflect:
		ix, iy = reflect(ix, w), reflect(iy, h)
	case ExtendPad:
		ix, iy = max(0, min(ix, w-1)), max(0, min(iy, h-1))
	}
	i := iy*s.Stride + ix*4
	return unpremultiply(color.RGBA{R: s.Pix[i], G: s.Pix[i+1], B: s.Pix[i+2], A: s.Pix[i+3]})
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func reflect(v, n int) int {
	v = wrap(v, 2*n)
	if v >= n {
		v = 2*n - 1 - v
	}
	return v
}

func lerpNRGBA(a, b color.NRGBA, t float64) color.NRGBA {
	l := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + t*(float64(y)-float64(x))))
	}
	return color.NRGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}

func unpremultiply(c color.RGBA) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// clampToByte converts a [0, 1] component to a byte.
func clampToByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
