package software

import (
	"image"

	"github.com/opd-ai/go-xui/internal/render"
)

// PushGroup redirects drawing to a transparent layer until the matching
// PopGroup.
func (b *Backend) PushGroup(s *render.Surface) error {
	st, err := b.checked(s)
	if err != nil {
		return err
	}
	if err := st.canvas.PushGroup(); err != nil {
		return err
	}
	st.layers = append(st.layers, image.NewRGBA(image.Rect(0, 0, st.width, st.height)))
	return nil
}

// PopGroup ends the innermost group and returns its contents as a surface
// pattern.
func (b *Backend) PopGroup(s *render.Surface) (*render.Pattern, error) {
	st, err := b.checked(s)
	if err != nil {
		return nil, err
	}
	n := len(st.layers)
	if n == 0 {
		return nil, render.ErrUnbalancedGroup
	}
	popErr := st.canvas.PopGroup()
	layer := st.layers[n-1]
	st.layers = st.layers[:n-1]

	gs, err := render.NewSurface(render.DescriptorFor(layer))
	if err != nil {
		return nil, err
	}
	gs.State = groupState{}
	return render.NewSurfacePattern(gs), popErr
}

// PopGroupToSource ends the innermost group and makes it the source.
func (b *Backend) PopGroupToSource(s *render.Surface) error {
	p, err := b.PopGroup(s)
	if p != nil {
		b.state(s).canvas.SetSource(p)
	}
	return err
}

// Stroke implements render.Shaper.
func (b *Backend) Stroke(s *render.Surface) { b.drawPath(s, true, false) }

// StrokePreserve implements render.Shaper.
func (b *Backend) StrokePreserve(s *render.Surface) { b.drawPath(s, true, true) }

// FillPath implements render.Shaper.
func (b *Backend) FillPath(s *render.Surface) { b.drawPath(s, false, false) }

// FillPreserve implements render.Shaper.
func (b *Backend) FillPreserve(s *render.Surface) { b.drawPath(s, false, true) }

func (b *Backend) drawPath(s *render.Surface, stroke, preserve bool) {
	st := b.state(s)
	if st == nil {
		return
	}
	st.paintPath(stroke)
	if !preserve {
		st.canvas.NewPath()
	}
}

// paintPath strokes or fills the canvas path. Over goes straight through
// gg; other operators composite the path coverage pixel by pixel.
func (st *surfaceState) paintPath(stroke bool) {
	path := st.canvas.Path()
	gs := st.canvas.State()
	if path.Empty() || gs.Source.Destroyed() {
		return
	}
	if stroke && st.canvas.LineWidth() <= 0 {
		return
	}
	if gs.Operator != render.OperatorOver {
		st.composite(st.rasterize(path, gs.FillRule, stroke), 1)
		return
	}

	dc := st.context()
	if mask := st.clipMask(); mask != nil {
		_ = dc.SetMask(mask)
	}
	appendPath(dc, path)
	applyStyle(dc, st.canvas)
	setSource(dc, st.canvas, 1)
	if stroke {
		dc.Stroke()
	} else {
		dc.Fill()
	}
}

// MaskPattern paints the source using the alpha of p as coverage.
func (b *Backend) MaskPattern(s *render.Surface, p *render.Pattern) {
	st := b.state(s)
	if st == nil || p.Destroyed() || st.canvas.State().Source.Destroyed() {
		return
	}
	st.composite(st.patternCoverage(p, st.canvas.State().Matrix), 1)
}

// MaskSurface paints the source using the alpha of mask placed at
// user-space (x, y) as coverage.
func (b *Backend) MaskSurface(s *render.Surface, mask *render.Surface, x, y float64) {
	p := render.NewSurfacePattern(mask)
	if p == nil {
		return
	}
	p.SetMatrix(render.TranslateMatrix(-x, -y))
	b.MaskPattern(s, p)
}

// patternCoverage samples the alpha of p, locked to user space m, at
// every pixel center.
func (st *surfaceState) patternCoverage(p *render.Pattern, m render.Matrix) *image.Alpha {
	cov := image.NewAlpha(image.Rect(0, 0, st.width, st.height))
	inv, ok := m.Invert()
	if !ok {
		return cov
	}
	r := st.paintBounds()
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			ux, uy := inv.TransformPoint(float64(x)+0.5, float64(y)+0.5)
			cov.Pix[y*cov.Stride+x] = p.ColorAt(ux, uy).A
		}
	}
	return cov
}

// Paint paints the source everywhere inside the clip.
func (b *Backend) Paint(s *render.Surface, alpha float64) {
	st := b.state(s)
	if st == nil || st.canvas.State().Source.Destroyed() {
		return
	}
	st.composite(nil, alpha)
}
