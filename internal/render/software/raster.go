package software

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/fogleman/gg"

	"github.com/opd-ai/go-xui/internal/region"
	"github.com/opd-ai/go-xui/internal/render"
)

// appendPath replays a device-space path into dc, which must be at the
// identity transform.
func appendPath(dc *gg.Context, p *render.Path) {
	for _, e := range p.Elements() {
		switch e.Op {
		case render.PathMoveTo:
			dc.MoveTo(e.P[0].X, e.P[0].Y)
		case render.PathLineTo:
			dc.LineTo(e.P[0].X, e.P[0].Y)
		case render.PathCubicTo:
			dc.CubicTo(e.P[0].X, e.P[0].Y, e.P[1].X, e.P[1].Y, e.P[2].X, e.P[2].Y)
		case render.PathClose:
			dc.ClosePath()
		}
	}
}

// applyStyle copies line and fill settings into dc. gg has no miter
// joins, so miter falls back to round.
func applyStyle(dc *gg.Context, c *render.Canvas) {
	gs := c.State()
	dc.SetLineWidth(c.LineWidth())

	switch gs.LineCap {
	case render.LineCapRound:
		dc.SetLineCap(gg.LineCapRound)
	case render.LineCapSquare:
		dc.SetLineCap(gg.LineCapSquare)
	default:
		dc.SetLineCap(gg.LineCapButt)
	}
	if gs.LineJoin == render.LineJoinBevel {
		dc.SetLineJoin(gg.LineJoinBevel)
	} else {
		dc.SetLineJoin(gg.LineJoinRound)
	}

	if gs.FillRule == render.FillRuleEvenOdd {
		dc.SetFillRule(gg.FillRuleEvenOdd)
	} else {
		dc.SetFillRule(gg.FillRuleWinding)
	}

	scale := gs.Matrix.LineScale()
	dashes := make([]float64, 0, len(gs.Dash))
	for _, d := range gs.Dash {
		dashes = append(dashes, d*scale)
	}
	dc.SetDash(dashes...)
	dc.SetDashOffset(gs.DashOffset * scale)
}

// sourcePattern adapts the canvas source to gg.Pattern. gg samples at
// integer pixel coordinates; the source is sampled at pixel centers.
type sourcePattern struct {
	canvas *render.Canvas
	alpha  float64
}

func (p sourcePattern) ColorAt(x, y int) color.Color {
	c := p.canvas.SourceAt(float64(x)+0.5, float64(y)+0.5)
	if p.alpha >= 1 {
		return c
	}
	return scaleRGBA(c, p.alpha)
}

// setSource installs the canvas source on dc, scaled by alpha.
func setSource(dc *gg.Context, c *render.Canvas, alpha float64) {
	src := c.State().Source
	if src.Type() == render.PatternSolid {
		n := src.SolidColor()
		n.A = uint8(math.Round(float64(n.A) * clamp01(alpha)))
		dc.SetColor(n)
		return
	}
	p := sourcePattern{canvas: c, alpha: clamp01(alpha)}
	dc.SetFillStyle(p)
	dc.SetStrokeStyle(p)
}

// clipMask returns the coverage of the clip, or nil when nothing is
// clipped. The mask is cached until the clip changes.
func (st *surfaceState) clipMask() *image.Alpha {
	clip := st.canvas.State().Clip
	if len(clip) == 0 {
		return nil
	}
	if sameClip(st.maskKey, clip) {
		return st.mask
	}

	mask := image.NewAlpha(image.Rect(0, 0, st.width, st.height))
	if r, ok := st.canvas.ClipIsRect(); ok {
		fillAlphaRect(mask, r)
	} else {
		for i := range mask.Pix {
			mask.Pix[i] = 0xff
		}
		for _, cp := range clip {
			multiplyAlpha(mask, st.rasterize(cp.Path, cp.Rule, false))
		}
	}
	st.maskKey = clip
	st.mask = mask
	return mask
}

func sameClip(a, b []render.ClipPath) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fillAlphaRect(mask *image.Alpha, r region.Region) {
	bounds := region.New(0, 0, mask.Rect.Dx(), mask.Rect.Dy())
	if !region.Intersect(&r, r, bounds) || r.IsEmpty() {
		return
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		row := mask.Pix[y*mask.Stride:]
		for x := r.X; x < r.X+r.W; x++ {
			row[x] = 0xff
		}
	}
}

func multiplyAlpha(dst, src *image.Alpha) {
	for i := range dst.Pix {
		dst.Pix[i] = uint8(uint32(dst.Pix[i]) * uint32(src.Pix[i]) / 255)
	}
}

// rasterize renders path coverage into a fresh mask. Stroking uses the
// current line style.
func (st *surfaceState) rasterize(p *render.Path, rule render.FillRule, stroke bool) *image.Alpha {
	dc := gg.NewContext(st.width, st.height)
	appendPath(dc, p)
	if stroke {
		applyStyle(dc, st.canvas)
	}
	if rule == render.FillRuleEvenOdd {
		dc.SetFillRule(gg.FillRuleEvenOdd)
	} else {
		dc.SetFillRule(gg.FillRuleWinding)
	}
	dc.SetColor(color.White)
	if stroke {
		dc.Stroke()
	} else {
		dc.Fill()
	}
	return dc.AsMask()
}

// paintBounds is the device box any paint can touch.
func (st *surfaceState) paintBounds() region.Region {
	return st.canvas.ClipBounds(region.New(0, 0, st.width, st.height))
}

// composite paints the source through cov (nil means full coverage) and
// the clip, scaled by alpha, with the current operator. Operators are
// bounded: pixels outside the coverage keep their value.
func (st *surfaceState) composite(cov *image.Alpha, alpha float64) {
	r := st.paintBounds()
	if r.IsEmpty() || alpha <= 0 {
		return
	}
	clip := st.clipMask()
	coverage := func(x, y int) float64 {
		c := clamp01(alpha)
		if cov != nil {
			c *= float64(cov.Pix[y*cov.Stride+x]) / 255
		}
		if clip != nil {
			c *= float64(clip.Pix[y*clip.Stride+x]) / 255
		}
		return c
	}

	op := st.canvas.State().Operator
	dst := st.target()
	if mode, ok := blendModes[op]; ok {
		st.blend(dst, r, mode, coverage)
		return
	}
	if _, ok := porterDuff[op]; !ok {
		op = render.OperatorOver
	}

	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			c := coverage(x, y)
			if c <= 0 {
				continue
			}
			i := y*dst.Stride + x*4
			d := pixelAt(dst.Pix[i:])
			s := st.canvas.SourceAt(float64(x)+0.5, float64(y)+0.5)
			out := compose(op, s, d)
			setPixel(dst.Pix[i:], lerpRGBA(d, out, c))
		}
	}
}

// blend runs a separable blend mode over r through bild and mixes the
// result back by coverage.
func (st *surfaceState) blend(dst *image.RGBA, r region.Region, mode func(bg, fg image.Image) *image.RGBA, coverage func(x, y int) float64) {
	rect := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	fg := image.NewRGBA(image.Rect(0, 0, r.W, r.H))
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			c := st.canvas.SourceAt(float64(r.X+x)+0.5, float64(r.Y+y)+0.5)
			setPixel(fg.Pix[y*fg.Stride+x*4:], c)
		}
	}
	bg := dst.SubImage(rect).(*image.RGBA)
	out := mode(bg, fg)

	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			c := coverage(r.X+x, r.Y+y)
			if c <= 0 {
				continue
			}
			i := (r.Y+y)*dst.Stride + (r.X+x)*4
			d := pixelAt(dst.Pix[i:])
			b := pixelAt(out.Pix[y*out.Stride+x*4:])
			setPixel(dst.Pix[i:], lerpRGBA(d, clampPremultiplied(b), c))
		}
	}
}

var blendModes = map[render.Operator]func(bg, fg image.Image) *image.RGBA{
	render.OperatorMultiply:   blend.Multiply,
	render.OperatorScreen:     blend.Screen,
	render.OperatorOverlay:    blend.Overlay,
	render.OperatorDarken:     blend.Darken,
	render.OperatorLighten:    blend.Lighten,
	render.OperatorColorDodge: blend.ColorDodge,
	render.OperatorColorBurn:  blend.ColorBurn,
	render.OperatorSoftLight:  blend.SoftLight,
	render.OperatorDifference: blend.Difference,
	render.OperatorExclusion:  blend.Exclusion,
}

// porterDuff holds the source and destination factors of each operator
// as functions of source and destination alpha.
var porterDuff = map[render.Operator]func(sa, da float64) (fa, fb float64){
	render.OperatorClear:    func(sa, da float64) (float64, float64) { return 0, 0 },
	render.OperatorSource:   func(sa, da float64) (float64, float64) { return 1, 0 },
	render.OperatorOver:     func(sa, da float64) (float64, float64) { return 1, 1 - sa },
	render.OperatorIn:       func(sa, da float64) (float64, float64) { return da, 0 },
	render.OperatorOut:      func(sa, da float64) (float64, float64) { return 1 - da, 0 },
	render.OperatorAtop:     func(sa, da float64) (float64, float64) { return da, 1 - sa },
	render.OperatorDest:     func(sa, da float64) (float64, float64) { return 0, 1 },
	render.OperatorDestOver: func(sa, da float64) (float64, float64) { return 1 - da, 1 },
	render.OperatorDestIn:   func(sa, da float64) (float64, float64) { return 0, sa },
	render.OperatorDestOut:  func(sa, da float64) (float64, float64) { return 0, 1 - sa },
	render.OperatorDestAtop: func(sa, da float64) (float64, float64) { return 1 - da, sa },
	render.OperatorXor:      func(sa, da float64) (float64, float64) { return 1 - da, 1 - sa },
	render.OperatorAdd:      func(sa, da float64) (float64, float64) { return 1, 1 },
	render.OperatorSaturate: func(sa, da float64) (float64, float64) {
		if sa == 0 {
			return 1, 1
		}
		return math.Min(1, (1-da)/sa), 1
	},
}

// compose applies a Porter-Duff operator to premultiplied colors.
func compose(op render.Operator, s, d color.RGBA) color.RGBA {
	sa, da := float64(s.A)/255, float64(d.A)/255
	fa, fb := porterDuff[op](sa, da)
	mix := func(sc, dc uint8) uint8 {
		return clampByte(float64(sc)*fa + float64(dc)*fb)
	}
	return color.RGBA{R: mix(s.R, d.R), G: mix(s.G, d.G), B: mix(s.B, d.B), A: mix(s.A, d.A)}
}

func pixelAt(p []uint8) color.RGBA {
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func setPixel(p []uint8, c color.RGBA) {
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	if t >= 1 {
		return b
	}
	l := func(x, y uint8) uint8 { return clampByte(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}

func scaleRGBA(c color.RGBA, t float64) color.RGBA {
	s := func(v uint8) uint8 { return clampByte(float64(v) * t) }
	return color.RGBA{R: s(c.R), G: s(c.G), B: s(c.B), A: s(c.A)}
}

func clampPremultiplied(c color.RGBA) color.RGBA {
	return color.RGBA{R: min(c.R, c.A), G: min(c.G, c.A), B: min(c.B, c.A), A: c.A}
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
