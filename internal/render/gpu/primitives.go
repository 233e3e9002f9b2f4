package gpu

import (
	"bytes"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

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
	img, release := st.sourceImage(src)
	defer release()

	opts := &ebiten.DrawImageOptions{GeoM: geoM(m), Filter: ebiten.FilterLinear}
	if m.IsTranslation() && m.X0 == math.Trunc(m.X0) && m.Y0 == math.Trunc(m.Y0) {
		opts.Filter = ebiten.FilterNearest
	}
	opts.ColorScale.ScaleAlpha(float32(clamp01(alpha)))
	st.composite(st.canvas.State().Operator, nil, func(d *ebiten.Image, blend ebiten.Blend) {
		opts.Blend = blend
		d.DrawImage(img, opts)
	})
}

// Mask paints src through m using the alpha of mask as coverage.
func (b *Backend) Mask(dst *render.Surface, m render.Matrix, src, mask *render.Surface) {
	st := b.state(dst)
	if st == nil || src.Destroyed() || mask.Destroyed() {
		return
	}
	img, releaseSrc := st.sourceImage(src)
	defer releaseSrc()
	mimg, releaseMask := st.sourceImage(mask)
	defer releaseMask()

	cov := ebiten.NewImage(st.width, st.height)
	defer cov.Deallocate()
	cov.DrawImage(mimg, &ebiten.DrawImageOptions{GeoM: geoM(m), Filter: ebiten.FilterLinear})

	st.composite(st.canvas.State().Operator, cov, func(d *ebiten.Image, blend ebiten.Blend) {
		d.DrawImage(img, &ebiten.DrawImageOptions{GeoM: geoM(m), Filter: ebiten.FilterLinear, Blend: blend})
	})
}

// sourceImage returns a texture holding src. Surfaces from other backends
// are uploaded for the duration of the call.
func (st *surfaceState) sourceImage(src *render.Surface) (*ebiten.Image, func()) {
	img := imageOf(src)
	switch {
	case img == nil:
		img = ebiten.NewImageFromImage(src.RGBA())
	case img == st.target():
		img = copyImage(img)
	default:
		return img, func() {}
	}
	return img, img.Deallocate
}

// Text draws s with its ink box starting at the origin of m.
func (b *Backend) Text(dst *render.Surface, m render.Matrix, s string, c color.NRGBA, f *render.Font, size int) {
	st := b.state(dst)
	if st == nil || f == nil || s == "" || c.A == 0 {
		return
	}
	src, err := faceSource(f)
	if err != nil {
		b.logger.Warn("skipping text", "font", f.Family, "size", size, "error", err)
		return
	}
	face := &text.GoTextFace{Source: src, Size: float64(max(size, 1))}
	ext := f.Measure(s, size)

	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(ext.X), float64(ext.Y)-face.Metrics().HAscent)
	g := geoM(m)
	op.GeoM.Concat(g)
	op.ColorScale.ScaleWithColor(c)
	op.Filter = ebiten.FilterLinear
	st.composite(st.canvas.State().Operator, nil, func(d *ebiten.Image, blend ebiten.Blend) {
		op.Blend = blend
		text.Draw(d, s, face, op)
	})
}

// Extent implements render.Primitives.
func (b *Backend) Extent(dst *render.Surface, s string, f *render.Font, size int) region.Region {
	if f == nil {
		return region.Region{}
	}
	return f.Measure(s, size)
}

// faceSource returns the shaping source attached to f, creating it for
// fonts parsed elsewhere.
func faceSource(f *render.Font) (*text.GoTextFaceSource, error) {
	if src, ok := f.State.(*text.GoTextFaceSource); ok {
		return src, nil
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(f.Data()))
	if err != nil {
		return nil, err
	}
	if f.State == nil {
		f.State = src
	}
	return src, nil
}
