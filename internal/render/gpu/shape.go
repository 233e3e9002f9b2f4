package gpu

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

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
	st.layers = append(st.layers, ebiten.NewImage(st.width, st.height))
	return nil
}

// PopGroup ends the innermost group and returns its contents as a surface
// pattern. The layer stays on the GPU.
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

	gs, err := render.NewSurface(render.NewDescriptor(st.width, st.height))
	if err != nil {
		layer.Deallocate()
		return nil, err
	}
	gs.State = &groupState{img: layer}
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

// paintPath tessellates the canvas path and draws it with the source.
func (st *surfaceState) paintPath(stroke bool) {
	c := st.canvas
	gs := c.State()
	path := c.Path()
	if path.Empty() || gs.Source.Destroyed() {
		return
	}

	var vs []ebiten.Vertex
	var is []uint16
	rule := fillRuleFor(gs.FillRule)
	if stroke {
		if c.LineWidth() <= 0 {
			return
		}
		if len(gs.Dash) > 0 {
			path = path.Dash(gs.Dash, gs.DashOffset, gs.Matrix.LineScale(), gs.Tolerance)
		}
		vs, is = vectorPath(path).AppendVerticesAndIndicesForStroke(nil, nil, strokeOptions(c))
		rule = ebiten.FillRuleFillAll
	} else {
		vs, is = fillTriangles(path)
	}
	if len(is) == 0 {
		return
	}
	st.drawTriangles(vs, is, rule, 1, nil)
}

// drawTriangles paints the source through vs with the current operator.
func (st *surfaceState) drawTriangles(vs []ebiten.Vertex, is []uint16, rule ebiten.FillRule, alpha float64, coverage *ebiten.Image) {
	gs := st.canvas.State()
	area := vertexBounds(vs).Intersect(st.clipRect())
	p, ok := st.resolve(gs.Source, gs.SourceMatrix, area, alpha)
	if !ok {
		return
	}
	defer p.release()
	p.apply(vs)
	aa := gs.Antialias.Enabled()
	st.composite(gs.Operator, coverage, func(dst *ebiten.Image, blend ebiten.Blend) {
		dst.DrawTriangles(vs, is, p.img, p.options(blend, rule, aa))
	})
}

// MaskPattern paints the source using the alpha of p as coverage.
func (b *Backend) MaskPattern(s *render.Surface, p *render.Pattern) {
	st := b.state(s)
	if st == nil || p.Destroyed() || st.canvas.State().Source.Destroyed() {
		return
	}
	cov := st.coverage(p, st.canvas.State().Matrix)
	if cov == nil {
		return
	}
	defer cov.Deallocate()
	vs, is := quad(st.clipRect())
	st.drawTriangles(vs, is, ebiten.FillRuleFillAll, 1, cov)
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

// coverage draws pattern p, locked to user space m, into a fresh image
// covering the clip.
func (st *surfaceState) coverage(p *render.Pattern, m render.Matrix) *ebiten.Image {
	r := st.clipRect()
	if r.Empty() {
		return nil
	}
	pt, ok := st.resolve(p, m, r, 1)
	if !ok {
		return nil
	}
	defer pt.release()
	cov := ebiten.NewImage(st.width, st.height)
	vs, is := quad(r)
	pt.apply(vs)
	cov.DrawTriangles(vs, is, pt.img, pt.options(ebiten.BlendCopy, ebiten.FillRuleFillAll, false))
	return cov
}

// Paint paints the source everywhere inside the clip.
func (b *Backend) Paint(s *render.Surface, alpha float64) {
	st := b.state(s)
	if st == nil || st.canvas.State().Source.Destroyed() {
		return
	}
	r := st.clipRect()
	if r.Empty() {
		return
	}
	vs, is := quad(r)
	st.drawTriangles(vs, is, ebiten.FillRuleFillAll, clamp01(alpha), nil)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// bounds is the full surface rectangle.
func (st *surfaceState) bounds() image.Rectangle {
	return image.Rect(0, 0, st.width, st.height)
}
