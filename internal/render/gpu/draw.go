package gpu

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/go-xui/internal/region"
	"github.com/opd-ai/go-xui/internal/render"
)

// blendClear zeroes every pixel the source touches.
var blendClear = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorZero,
	BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
	BlendFactorDestinationRGB:   ebiten.BlendFactorZero,
	BlendFactorDestinationAlpha: ebiten.BlendFactorZero,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

// blendFor maps an operator to a fixed-function blend. Operators that need
// the destination color in a shader fall back to source-over.
func blendFor(op render.Operator) ebiten.Blend {
	switch op {
	case render.OperatorClear:
		return blendClear
	case render.OperatorSource:
		return ebiten.BlendCopy
	case render.OperatorOver:
		return ebiten.BlendSourceOver
	case render.OperatorIn:
		return ebiten.BlendSourceIn
	case render.OperatorOut:
		return ebiten.BlendSourceOut
	case render.OperatorAtop:
		return ebiten.BlendSourceAtop
	case render.OperatorDest:
		return ebiten.BlendDestination
	case render.OperatorDestOver:
		return ebiten.BlendDestinationOver
	case render.OperatorDestIn:
		return ebiten.BlendDestinationIn
	case render.OperatorDestOut:
		return ebiten.BlendDestinationOut
	case render.OperatorDestAtop:
		return ebiten.BlendDestinationAtop
	case render.OperatorXor:
		return ebiten.BlendXor
	case render.OperatorAdd:
		return ebiten.BlendLighter
	default:
		return ebiten.BlendSourceOver
	}
}

// paint is a pattern resolved to a texture plus the mapping from device
// space to texel space.
type paint struct {
	img     *ebiten.Image
	toSrc   render.Matrix
	alpha   float32
	color   [3]float32
	address ebiten.Address
	filter  ebiten.Filter
	temp    bool
}

// apply fills in the texture coordinates and colors of vs.
func (p *paint) apply(vs []ebiten.Vertex) {
	for i := range vs {
		sx, sy := p.toSrc.TransformPoint(float64(vs[i].DstX), float64(vs[i].DstY))
		vs[i].SrcX, vs[i].SrcY = float32(sx), float32(sy)
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB = p.color[0], p.color[1], p.color[2]
		vs[i].ColorA = p.alpha
	}
}

func (p *paint) options(blend ebiten.Blend, rule ebiten.FillRule, aa bool) *ebiten.DrawTrianglesOptions {
	return &ebiten.DrawTrianglesOptions{
		Address:   p.address,
		Filter:    p.filter,
		Blend:     blend,
		FillRule:  rule,
		AntiAlias: aa,
	}
}

func (p *paint) release() {
	if p.temp {
		p.img.Deallocate()
	}
}

// resolve turns pattern p, locked to user space by m, into a paint that
// covers area. Surfaces that live on the GPU are sampled in place; every
// other pattern is evaluated on the CPU into a temporary texture.
func (st *surfaceState) resolve(p *render.Pattern, m render.Matrix, area image.Rectangle, alpha float64) (*paint, bool) {
	if p.Destroyed() || alpha <= 0 {
		return nil, false
	}
	inv, ok := m.Invert()
	if !ok {
		return nil, false
	}
	switch p.Type() {
	case render.PatternSolid:
		c := p.SolidColor()
		return &paint{
			img:     whiteSubImage,
			toSrc:   render.Matrix{X0: 1, Y0: 1},
			alpha:   float32(float64(c.A) / 255 * alpha),
			color:   [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255},
			address: ebiten.AddressUnsafe,
			filter:  ebiten.FilterNearest,
		}, true
	case render.PatternSurface:
		if img := imageOf(p.Surface()); img != nil {
			pt := &paint{
				img:     img,
				toSrc:   render.Multiply(inv, p.Matrix()),
				alpha:   float32(alpha),
				color:   [3]float32{1, 1, 1},
				address: addressFor(p.Extend()),
				filter:  filterFor(p.Filter()),
			}
			if img == st.target() {
				pt.img = copyImage(img)
				pt.temp = true
			}
			return pt, true
		}
	}

	area = area.Intersect(st.bounds())
	if area.Empty() {
		return nil, false
	}
	rgba := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			ux, uy := inv.TransformPoint(float64(x)+0.5, float64(y)+0.5)
			rgba.SetRGBA(x-area.Min.X, y-area.Min.Y, render.Premultiply(p.ColorAt(ux, uy)))
		}
	}
	return &paint{
		img:     ebiten.NewImageFromImage(rgba),
		toSrc:   render.TranslateMatrix(-float64(area.Min.X), -float64(area.Min.Y)),
		alpha:   float32(alpha),
		color:   [3]float32{1, 1, 1},
		address: ebiten.AddressClampToZero,
		filter:  ebiten.FilterNearest,
		temp:    true,
	}, true
}

// addressFor picks a sampler address mode. Reflect and pad have no
// sampler equivalent and are approximated by repeat and clamp-to-zero.
func addressFor(e render.Extend) ebiten.Address {
	switch e {
	case render.ExtendRepeat, render.ExtendReflect:
		return ebiten.AddressRepeat
	default:
		return ebiten.AddressClampToZero
	}
}

func filterFor(f render.Filter) ebiten.Filter {
	switch f {
	case render.FilterFast, render.FilterNearest:
		return ebiten.FilterNearest
	default:
		return ebiten.FilterLinear
	}
}

func copyImage(img *ebiten.Image) *ebiten.Image {
	b := img.Bounds()
	out := ebiten.NewImage(b.Dx(), b.Dy())
	out.DrawImage(img, nil)
	return out
}

// clipRect returns the integer bounding box of the clip within the
// surface.
func (st *surfaceState) clipRect() image.Rectangle {
	r := st.canvas.ClipBounds(region.New(0, 0, st.width, st.height))
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

// composite runs fn against the current target with the clip applied. A
// rectangular clip becomes a sub-image; anything else, or a coverage
// image, routes through the scratch layer, which is then blended with the
// operator over the clip's bounding box.
func (st *surfaceState) composite(op render.Operator, coverage *ebiten.Image, fn func(dst *ebiten.Image, blend ebiten.Blend)) {
	r := st.clipRect()
	if r.Empty() {
		return
	}
	dst := st.target().SubImage(r).(*ebiten.Image)
	_, simple := st.canvas.ClipIsRect()
	if simple && coverage == nil {
		fn(dst, blendFor(op))
		return
	}

	var mask *ebiten.Image
	if !simple {
		mask = st.clipMask()
	}
	scratch := st.scratchImage()
	fn(scratch, ebiten.BlendSourceOver)
	keep := &ebiten.DrawImageOptions{Blend: ebiten.BlendDestinationIn}
	if coverage != nil {
		scratch.DrawImage(coverage, keep)
	}
	if mask != nil {
		scratch.DrawImage(mask, keep)
	}
	dst.DrawImage(scratch, &ebiten.DrawImageOptions{Blend: blendFor(op)})
}

// clipMask renders the clip paths as white coverage. It is cached until
// the clip changes.
func (st *surfaceState) clipMask() *ebiten.Image {
	clip := st.canvas.State().Clip
	if st.mask != nil && sameClip(st.maskKey, clip) {
		return st.mask
	}
	if st.mask == nil {
		st.mask = ebiten.NewImage(st.width, st.height)
	}
	st.mask.Clear()
	var tmp *ebiten.Image
	for i, cp := range clip {
		dst := st.mask
		if i > 0 {
			if tmp == nil {
				tmp = ebiten.NewImage(st.width, st.height)
			}
			tmp.Clear()
			dst = tmp
		}
		vs, is := fillTriangles(cp.Path)
		solidWhite(vs)
		dst.DrawTriangles(vs, is, whiteSubImage, &ebiten.DrawTrianglesOptions{
			FillRule:  fillRuleFor(cp.Rule),
			AntiAlias: true,
		})
		if i > 0 {
			st.mask.DrawImage(tmp, &ebiten.DrawImageOptions{Blend: ebiten.BlendDestinationIn})
		}
	}
	if tmp != nil {
		tmp.Deallocate()
	}
	st.maskKey = clip
	return st.mask
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

func solidWhite(vs []ebiten.Vertex) {
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = 1, 1, 1, 1
	}
}

func fillRuleFor(r render.FillRule) ebiten.FillRule {
	if r == render.FillRuleEvenOdd {
		return ebiten.FillRuleEvenOdd
	}
	return ebiten.FillRuleNonZero
}

// vectorPath replays a device-space path into ebiten's tessellator.
func vectorPath(p *render.Path) *vector.Path {
	var vp vector.Path
	for _, e := range p.Elements() {
		switch e.Op {
		case render.PathMoveTo:
			vp.MoveTo(float32(e.P[0].X), float32(e.P[0].Y))
		case render.PathLineTo:
			vp.LineTo(float32(e.P[0].X), float32(e.P[0].Y))
		case render.PathCubicTo:
			vp.CubicTo(
				float32(e.P[0].X), float32(e.P[0].Y),
				float32(e.P[1].X), float32(e.P[1].Y),
				float32(e.P[2].X), float32(e.P[2].Y))
		case render.PathClose:
			vp.Close()
		}
	}
	return &vp
}

func fillTriangles(p *render.Path) ([]ebiten.Vertex, []uint16) {
	return vectorPath(p).AppendVerticesAndIndicesForFilling(nil, nil)
}

// strokeOptions converts the canvas line style to ebiten's. Widths are in
// device pixels because the path already is.
func strokeOptions(c *render.Canvas) *vector.StrokeOptions {
	gs := c.State()
	opts := &vector.StrokeOptions{
		Width:      float32(c.LineWidth()),
		MiterLimit: float32(gs.MiterLimit),
	}
	switch gs.LineCap {
	case render.LineCapButt:
		opts.LineCap = vector.LineCapButt
	case render.LineCapRound:
		opts.LineCap = vector.LineCapRound
	case render.LineCapSquare:
		opts.LineCap = vector.LineCapSquare
	}
	switch gs.LineJoin {
	case render.LineJoinMiter:
		opts.LineJoin = vector.LineJoinMiter
	case render.LineJoinRound:
		opts.LineJoin = vector.LineJoinRound
	case render.LineJoinBevel:
		opts.LineJoin = vector.LineJoinBevel
	}
	return opts
}

// quad returns two triangles covering r.
func quad(r image.Rectangle) ([]ebiten.Vertex, []uint16) {
	x0, y0 := float32(r.Min.X), float32(r.Min.Y)
	x1, y1 := float32(r.Max.X), float32(r.Max.Y)
	return []ebiten.Vertex{
		{DstX: x0, DstY: y0},
		{DstX: x1, DstY: y0},
		{DstX: x0, DstY: y1},
		{DstX: x1, DstY: y1},
	}, []uint16{0, 1, 2, 1, 2, 3}
}

// vertexBounds returns the pixel box touched by vs.
func vertexBounds(vs []ebiten.Vertex) image.Rectangle {
	if len(vs) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range vs {
		minX = math.Min(minX, float64(v.DstX))
		minY = math.Min(minY, float64(v.DstY))
		maxX = math.Max(maxX, float64(v.DstX))
		maxY = math.Max(maxY, float64(v.DstY))
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// geoM converts m to ebiten's affine layout.
func geoM(m render.Matrix) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m.XX)
	g.SetElement(0, 1, m.XY)
	g.SetElement(0, 2, m.X0)
	g.SetElement(1, 0, m.YX)
	g.SetElement(1, 1, m.YY)
	g.SetElement(1, 2, m.Y0)
	return g
}
