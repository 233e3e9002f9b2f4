// Package render defines the capability interface a rendering backend
// implements for the compositor, together with the backend-neutral pieces
// every backend shares: surfaces, matrices, patterns, paths, fonts, the
// graphics state stack and the default pixel filters.
//
// Concrete backends live in subpackages: software rasterizes into the
// caller's pixel buffer, gpu draws on Ebitengine images.
package render

import (
	"errors"
	"image"
	"image/color"

	"github.com/opd-ai/go-xui/internal/region"
)

// Errors reported by backends.
var (
	// ErrInvalidDescriptor is returned by Create for an unusable pixel buffer.
	ErrInvalidDescriptor = errors.New("render: invalid surface descriptor")
	// ErrUnbalancedRestore is returned by Restore without a matching Save.
	ErrUnbalancedRestore = errors.New("render: restore without matching save")
	// ErrUnbalancedGroup is returned by PopGroup without a matching PushGroup.
	ErrUnbalancedGroup = errors.New("render: pop group without matching push")
	// ErrNoCurrentPath is returned by clip operations when no path is built.
	ErrNoCurrentPath = errors.New("render: no current path")
	// ErrNoCurrentPoint is returned by relative path operations with no current point.
	ErrNoCurrentPoint = errors.New("render: no current point")
	// ErrDestroyed is returned when a surface is used after Destroy.
	ErrDestroyed = errors.New("render: surface destroyed")
	// ErrForeignSurface is returned when a surface was created by another backend.
	ErrForeignSurface = errors.New("render: surface belongs to another backend")
	// ErrStackOverflow is returned when Save or PushGroup nests too deeply.
	ErrStackOverflow = errors.New("render: state stack overflow")
)

// Backend is the full contract the compositor drives. A backend owns the
// drawing technology; everything it needs per surface lives in the
// surface's State.
type Backend interface {
	Name() string

	Lifecycle
	Primitives
	Filters
	Shaper
	Resources
}

// Lifecycle creates and releases surfaces.
type Lifecycle interface {
	// Create wraps desc's pixel buffer. The caller owns the returned surface
	// and must pass it to exactly one Destroy.
	Create(desc SurfaceDescriptor) (*Surface, error)
	Destroy(s *Surface) error
}

// Primitives are self-contained drawing operations that leave the shape
// state untouched. Geometry is in the destination surface's local space;
// m is applied by the backend.
type Primitives interface {
	Blit(dst *Surface, m Matrix, src *Surface, alpha float64)
	Mask(dst *Surface, m Matrix, src, mask *Surface)
	Fill(dst *Surface, m Matrix, r region.Region, c color.NRGBA)
	Text(dst *Surface, m Matrix, s string, c color.NRGBA, f *Font, size int)
	// Extent measures the ink box of s without drawing it. The returned
	// region's origin is the bearing relative to the pen position.
	Extent(dst *Surface, s string, f *Font, size int) region.Region
}

// Filters rewrite a surface's pixels in place.
type Filters interface {
	FilterHaldCLUT(s, clut *Surface)
	FilterGrayscale(s *Surface)
	FilterSepia(s *Surface)
	FilterInvert(s *Surface)
	FilterThreshold(s *Surface, level uint8)
	FilterColorize(s *Surface, c color.NRGBA)
	FilterHue(s *Surface, degrees int)
	FilterSaturate(s *Surface, percent int)
	FilterBrightness(s *Surface, percent int)
	FilterContrast(s *Surface, percent int)
	FilterBlur(s *Surface, radius int)
}

// Shaper is the per-surface path and paint state machine.
type Shaper interface {
	Save(s *Surface) error
	Restore(s *Surface) error
	PushGroup(s *Surface) error
	PopGroup(s *Surface) (*Pattern, error)
	PopGroupToSource(s *Surface) error

	NewPath(s *Surface)
	NewSubPath(s *Surface)
	ClosePath(s *Surface)

	SetOperator(s *Surface, op Operator)
	SetSource(s *Surface, p *Pattern)
	GetSource(s *Surface) *Pattern
	SetSourceColor(s *Surface, r, g, b, a float64)
	SetSourceSurface(s *Surface, src *Surface, x, y float64)
	SetTolerance(s *Surface, tolerance float64)
	SetMiterLimit(s *Surface, limit float64)
	SetAntialias(s *Surface, aa Antialias)
	SetFillRule(s *Surface, rule FillRule)
	SetLineWidth(s *Surface, width float64)
	SetLineCap(s *Surface, lc LineCap)
	SetLineJoin(s *Surface, lj LineJoin)
	SetDash(s *Surface, dashes []float64, offset float64)

	Identity(s *Surface)
	Translate(s *Surface, tx, ty float64)
	Scale(s *Surface, sx, sy float64)
	Rotate(s *Surface, angle float64)
	Transform(s *Surface, m Matrix)
	SetMatrix(s *Surface, m Matrix)
	GetMatrix(s *Surface) Matrix

	MoveTo(s *Surface, x, y float64)
	RelMoveTo(s *Surface, dx, dy float64) error
	LineTo(s *Surface, x, y float64)
	RelLineTo(s *Surface, dx, dy float64) error
	CurveTo(s *Surface, x1, y1, x2, y2, x3, y3 float64)
	RelCurveTo(s *Surface, dx1, dy1, dx2, dy2, dx3, dy3 float64) error
	Rectangle(s *Surface, x, y, w, h float64)
	RoundedRectangle(s *Surface, x, y, w, h, r float64)
	Arc(s *Surface, xc, yc, radius, a1, a2 float64)
	ArcNegative(s *Surface, xc, yc, radius, a1, a2 float64)

	Stroke(s *Surface)
	StrokePreserve(s *Surface)
	FillPath(s *Surface)
	FillPreserve(s *Surface)
	ResetClip(s *Surface)
	Clip(s *Surface) error
	ClipPreserve(s *Surface) error
	MaskPattern(s *Surface, p *Pattern)
	MaskSurface(s *Surface, mask *Surface, x, y float64)
	Paint(s *Surface, alpha float64)
}

// Resources creates fonts and patterns. A nil handle tells the caller to
// skip whatever needed it.
type Resources interface {
	FontCreate(family string, data []byte) (*Font, error)
	FontDestroy(f *Font)

	PatternCreate(s *Surface) *Pattern
	PatternCreateColor(r, g, b, a float64) *Pattern
	PatternCreateLinear(x0, y0, x1, y1 float64) *Pattern
	PatternCreateRadial(x0, y0, r0, x1, y1, r1 float64) *Pattern
	PatternDestroy(p *Pattern)
	PatternAddColorStop(p *Pattern, offset, r, g, b, a float64)
	PatternSetExtend(p *Pattern, e Extend)
	PatternSetFilter(p *Pattern, f Filter)
	PatternSetMatrix(p *Pattern, m Matrix)
}

// Format is the pixel layout of a surface buffer.
type Format int

const (
	// FormatRGBA32 is 8-bit premultiplied R, G, B, A in memory order,
	// the layout of image.RGBA.
	FormatRGBA32 Format = iota
)

// BytesPerPixel returns the pixel size of f.
func (f Format) BytesPerPixel() int { return 4 }

// String implements fmt.Stringer.
func (f Format) String() string {
	if f == FormatRGBA32 {
		return "rgba32"
	}
	return "unknown"
}

// SurfaceDescriptor is what a caller supplies to Create.
type SurfaceDescriptor struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Format Format
}

// NewDescriptor allocates a zeroed buffer for a w by h surface.
func NewDescriptor(w, h int) SurfaceDescriptor {
	stride := w * FormatRGBA32.BytesPerPixel()
	return SurfaceDescriptor{
		Pix:    make([]byte, stride*h),
		Width:  w,
		Height: h,
		Stride: stride,
		Format: FormatRGBA32,
	}
}

// DescriptorFor describes an existing RGBA image without copying it.
func DescriptorFor(img *image.RGBA) SurfaceDescriptor {
	b := img.Bounds()
	return SurfaceDescriptor{
		Pix:    img.Pix,
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: img.Stride,
		Format: FormatRGBA32,
	}
}

// Validate checks that the buffer can hold Width x Height pixels.
func (d SurfaceDescriptor) Validate() error {
	if d.Format != FormatRGBA32 {
		return ErrInvalidDescriptor
	}
	if d.Width <= 0 || d.Height <= 0 {
		return ErrInvalidDescriptor
	}
	if d.Stride < d.Width*d.Format.BytesPerPixel() {
		return ErrInvalidDescriptor
	}
	if d.Pix == nil || len(d.Pix) < d.Stride*(d.Height-1)+d.Width*d.Format.BytesPerPixel() {
		return ErrInvalidDescriptor
	}
	return nil
}

// BackendState is the backend-owned payload attached to a surface.
type BackendState interface {
	// Release frees backend resources. It is called once by Destroy.
	Release() error
}

// Surface is a drawable pixel buffer plus the state of the backend that
// created it.
type Surface struct {
	Width  int
	Height int
	Stride int
	Format Format
	Pix    []byte

	State BackendState
}

// NewSurface builds a Surface from a validated descriptor. Backends call
// this from Create and then attach their State.
func NewSurface(desc SurfaceDescriptor) (*Surface, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Surface{
		Width:  desc.Width,
		Height: desc.Height,
		Stride: desc.Stride,
		Format: desc.Format,
		Pix:    desc.Pix,
	}, nil
}

// Destroyed reports whether the surface has been released.
func (s *Surface) Destroyed() bool {
	return s == nil || s.State == nil
}

// Bounds returns the surface as a Region at the origin.
func (s *Surface) Bounds() region.Region {
	return region.New(0, 0, s.Width, s.Height)
}

// RGBA views the pixel buffer as an image.RGBA sharing memory.
func (s *Surface) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    s.Pix,
		Stride: s.Stride,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}
}

// Clear sets every pixel to c.
func (s *Surface) Clear(c color.RGBA) {
	bpp := s.Format.BytesPerPixel()
	for y := 0; y < s.Height; y++ {
		row := s.Pix[y*s.Stride : y*s.Stride+s.Width*bpp]
		for i := 0; i < len(row); i += bpp {
			row[i] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
}

// ReleaseSurface runs the backend's Release and detaches the state.
// Backends call it from Destroy.
func ReleaseSurface(s *Surface) error {
	if s.Destroyed() {
		return ErrDestroyed
	}
	err := s.State.Release()
	s.State = nil
	return err
}
