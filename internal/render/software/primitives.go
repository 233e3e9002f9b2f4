package software

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/opd-ai/go-xui/internal/region"
	"github.com/opd-ai/go-xui/internal/render"
)

// Fill paints r, transformed by m, with c.
func (b *Backend) Fill(dst *render.Surface, m render.Matrix, r region.Region, c color.NRGBA) {
	st := b.state(dst)
	if st == nil || r.IsEmpty() {
		return
	}
	st.canvas.Borrow(m, func() {
		st.canvas.Rectangle(float64(r.X), float64(r.Y), float64(r.W), float64(r.H))
		st.canvas.State().Source = render.NewSolidPattern(
			float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
		st.paintPath(false)
	})
}

// Blit paints src through m with the given opacity.
func (b *Backend) Blit(dst *render.Surface, m render.Matrix, src *render.Surface, alpha float64) {
	st := b.state(dst)
	if st == nil || src.Destroyed() || alpha <= 0 {
		return
	}
	if op := st.canvas.State().Operator; op != render.OperatorOver && op != render.OperatorSource {
		st.canvas.Borrow(m, func() {
			p := render.NewSurfacePattern(src)
			st.canvas.SetSource(p)
			st.composite(nil, alpha)
		})
		return
	}

	opts := &draw.Options{}
	if mask := st.clipMask(); mask != nil {
		opts.DstMask = mask
	}
	if alpha < 1 {
		opts.SrcMask = image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})
	}
	op := draw.Over
	if st.canvas.State().Operator == render.OperatorSource {
		op = draw.Src
	}

	var interp draw.Transformer = draw.BiLinear
	if m.IsTranslation() && m.X0 == math.Trunc(m.X0) && m.Y0 == math.Trunc(m.Y0) {
		interp = draw.NearestNeighbor
	}
	img := src.RGBA()
	interp.Transform(st.target(), aff3(m), img, img.Bounds(), op, opts)
}

// Mask paints src through m using the alpha of mask as coverage.
func (b *Backend) Mask(dst *render.Surface, m render.Matrix, src, mask *render.Surface) {
	st := b.state(dst)
	if st == nil || src.Destroyed() || mask.Destroyed() {
		return
	}
	st.canvas.Borrow(m, func() {
		p := render.NewSurfacePattern(src)
		st.canvas.SetSource(p)
		st.composite(st.patternCoverage(render.NewSurfacePattern(mask), m), 1)
	})
}

// Text draws s with its ink box starting at the origin of m.
func (b *Backend) Text(dst *render.Surface, m render.Matrix, s string, c color.NRGBA, f *render.Font, size int) {
	st := b.state(dst)
	if st == nil || f == nil || s == "" || c.A == 0 {
		return
	}
	face, err := f.Face(size)
	if err != nil {
		b.logger.Warn("skipping text", "font", f.Family, "size", size, "error", err)
		return
	}
	ext := f.Measure(s, size)

	dc := st.context()
	if !setMatrix(dc, m) {
		return
	}
	defer dc.Identity()
	if mask := st.clipMask(); mask != nil {
		_ = dc.SetMask(mask)
	}
	dc.SetFontFace(face)
	dc.SetColor(c)
	dc.DrawString(s, float64(ext.X), float64(ext.Y))
}

// Extent implements render.Primitives.
func (b *Backend) Extent(dst *render.Surface, s string, f *render.Font, size int) region.Region {
	if f == nil {
		return region.Region{}
	}
	return f.Measure(s, size)
}

// aff3 converts m to the layout x/image/draw expects.
func aff3(m render.Matrix) f64.Aff3 {
	return f64.Aff3{m.XX, m.XY, m.X0, m.YX, m.YY, m.Y0}
}

// setMatrix loads m into dc, whose transform can only be composed from
// translate, rotate, shear and scale. It reports false for a singular m.
func setMatrix(dc *gg.Context, m render.Matrix) bool {
	sx := math.Hypot(m.XX, m.YX)
	if sx == 0 {
		return false
	}
	det := m.Determinant()
	if det == 0 {
		return false
	}
	sy := det / sx
	shear := (m.XX*m.XY + m.YX*m.YY) / sx

	dc.Identity()
	dc.Translate(m.X0, m.Y0)
	dc.Rotate(math.Atan2(m.YX, m.XX))
	dc.Shear(shear/sy, 0)
	dc.Scale(sx, sy)
	return true
}
