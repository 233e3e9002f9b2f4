package compositor

import (
	"fmt"
	"image/color"
	"math"

	"github.com/opd-ai/go-xui/internal/command"
	"github.com/opd-ai/go-xui/internal/region"
	"github.com/opd-ai/go-xui/internal/render"
)

// maxCachedImages bounds the surfaces kept for Image commands.
const maxCachedImages = 64

func (c *Compositor) exec(cmd command.Command) error {
	switch cmd := cmd.(type) {
	case command.Nop:
		return nil
	case command.Scissor:
		return c.scissor(region.New(cmd.X, cmd.Y, cmd.W, cmd.H))
	}

	c.state = StateDrawing
	switch cmd := cmd.(type) {
	case command.Line:
		return c.line(cmd)
	case command.Rect:
		return c.rect(cmd)
	case command.RectFilled:
		return c.rectFilled(cmd)
	case command.Circle:
		return c.ellipse(cmd.X, cmd.Y, cmd.W, cmd.H, cmd.Color, max(cmd.Thickness, 1))
	case command.CircleFilled:
		return c.ellipse(cmd.X, cmd.Y, cmd.W, cmd.H, cmd.Color, 0)
	case command.Triangle:
		return c.poly([]command.Point{cmd.A, cmd.B, cmd.C}, true, cmd.Color, max(cmd.Thickness, 1))
	case command.TriangleFilled:
		return c.poly([]command.Point{cmd.A, cmd.B, cmd.C}, true, cmd.Color, 0)
	case command.Text:
		return c.text(cmd)
	}

	if !c.extended {
		c.unsupported(cmd)
		return nil
	}
	switch cmd := cmd.(type) {
	case command.Polygon:
		if len(cmd.Points) < 2 {
			return nil
		}
		return c.poly(cmd.Points, true, cmd.Color, max(cmd.Thickness, 1))
	case command.PolygonFilled:
		if len(cmd.Points) < 3 {
			return nil
		}
		return c.poly(cmd.Points, true, cmd.Color, 0)
	case command.Polyline:
		if len(cmd.Points) < 2 {
			return nil
		}
		return c.poly(cmd.Points, false, cmd.Color, max(cmd.Thickness, 1))
	case command.Curve:
		return c.curve(cmd)
	case command.Arc:
		return c.arc(cmd.CX, cmd.CY, cmd.R, cmd.A0, cmd.A1, cmd.Color, max(cmd.Thickness, 1))
	case command.ArcFilled:
		return c.arc(cmd.CX, cmd.CY, cmd.R, cmd.A0, cmd.A1, cmd.Color, 0)
	case command.RectMultiColor:
		return c.rectMultiColor(cmd)
	case command.Image:
		return c.image(cmd)
	}
	c.unsupported(cmd)
	return nil
}

func (c *Compositor) unsupported(cmd command.Command) {
	c.stats.unsupported.Add(1)
	c.logger.Debug("unsupported command", "kind", cmd.Kind().String())
}

// visible culls bounds against the clip. Touching edges do not count as
// overlap. The visible part, grown by pad for stroke width, is recorded
// as damage.
func (c *Compositor) visible(bounds region.Region, pad int) bool {
	var out region.Region
	if c.clip.IsEmpty() || !region.Intersect(&out, c.clip, bounds) || out.IsEmpty() {
		c.stats.culled.Add(1)
		return false
	}
	if c.tracking && pad > 0 {
		region.Intersect(&out, c.clip, out.Grow(pad))
	}
	c.addDamage(out)
	c.stats.drawn.Add(1)
	return true
}

// shape runs one save, path, paint, restore group. The path is stroked
// with thickness, or filled when thickness is zero.
func (c *Compositor) shape(col color.NRGBA, thickness int, build func() error) error {
	b, s := c.backend, c.surface
	if err := b.Save(s); err != nil {
		return err
	}
	b.NewPath(s)
	b.SetSourceColor(s, unit(col.R), unit(col.G), unit(col.B), unit(col.A))
	if err := build(); err != nil {
		return err
	}
	if thickness > 0 {
		b.SetLineWidth(s, float64(thickness))
		b.Stroke(s)
	} else {
		b.FillPath(s)
	}
	return b.Restore(s)
}

func (c *Compositor) line(l command.Line) error {
	x0, y0, x1, y1 := l.Begin.X, l.Begin.Y, l.End.X, l.End.Y
	if c.clip.IsEmpty() || !region.ClipLine(c.clip, &x0, &y0, &x1, &y1) {
		c.stats.culled.Add(1)
		return nil
	}
	thickness := max(l.Thickness, 1)
	c.stats.drawn.Add(1)
	c.addDamage(clampTo(c.clip, pointBounds(command.Pt(x0, y0), command.Pt(x1, y1)).Grow(thickness/2+1)))

	b, s := c.backend, c.surface
	return c.shape(l.Color, thickness, func() error {
		b.MoveTo(s, float64(l.Begin.X), float64(l.Begin.Y))
		b.LineTo(s, float64(l.End.X), float64(l.End.Y))
		return nil
	})
}

func (c *Compositor) rect(r command.Rect) error {
	thickness := max(r.Thickness, 1)
	if !c.visible(region.New(r.X, r.Y, r.W, r.H), thickness/2+1) {
		return nil
	}
	b, s := c.backend, c.surface
	return c.shape(r.Color, thickness, func() error {
		c.rectPath(b, s, r.X, r.Y, r.W, r.H, r.Rounding)
		return nil
	})
}

func (c *Compositor) rectFilled(r command.RectFilled) error {
	bounds := region.New(r.X, r.Y, r.W, r.H)
	if !c.visible(bounds, 0) {
		return nil
	}
	if r.Rounding <= 0 {
		c.backend.Fill(c.surface, render.IdentityMatrix(), bounds, r.Color)
		return nil
	}
	b, s := c.backend, c.surface
	return c.shape(r.Color, 0, func() error {
		c.rectPath(b, s, r.X, r.Y, r.W, r.H, r.Rounding)
		return nil
	})
}

func (c *Compositor) rectPath(b render.Backend, s *render.Surface, x, y, w, h, rounding int) {
	if rounding > 0 {
		b.RoundedRectangle(s, float64(x), float64(y), float64(w), float64(h), float64(rounding))
		return
	}
	b.Rectangle(s, float64(x), float64(y), float64(w), float64(h))
}

// ellipse draws the ellipse inscribed in the box by scaling a unit circle.
// The matrix is restored before painting so the stroke width is not
// scaled with it.
func (c *Compositor) ellipse(x, y, w, h int, col color.NRGBA, thickness int) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if !c.visible(region.New(x, y, w, h), thickness/2+1) {
		return nil
	}
	b, s := c.backend, c.surface
	return c.shape(col, thickness, func() error {
		if err := b.Save(s); err != nil {
			return err
		}
		b.Translate(s, float64(x)+float64(w)/2, float64(y)+float64(h)/2)
		b.Scale(s, float64(w)/2, float64(h)/2)
		b.Arc(s, 0, 0, 1, 0, 2*math.Pi)
		return b.Restore(s)
	})
}

func (c *Compositor) poly(pts []command.Point, closed bool, col color.NRGBA, thickness int) error {
	if !c.visible(pointBounds(pts...), thickness/2+1) {
		return nil
	}
	b, s := c.backend, c.surface
	return c.shape(col, thickness, func() error {
		b.MoveTo(s, float64(pts[0].X), float64(pts[0].Y))
		for _, p := range pts[1:] {
			b.LineTo(s, float64(p.X), float64(p.Y))
		}
		if closed {
			b.ClosePath(s)
		}
		return nil
	})
}

func (c *Compositor) curve(cv command.Curve) error {
	thickness := max(cv.Thickness, 1)
	// The control polygon contains the curve.
	if !c.visible(pointBounds(cv.Begin, cv.Ctrl[0], cv.Ctrl[1], cv.End), thickness/2+1) {
		return nil
	}
	b, s := c.backend, c.surface
	return c.shape(cv.Color, thickness, func() error {
		b.MoveTo(s, float64(cv.Begin.X), float64(cv.Begin.Y))
		b.CurveTo(s,
			float64(cv.Ctrl[0].X), float64(cv.Ctrl[0].Y),
			float64(cv.Ctrl[1].X), float64(cv.Ctrl[1].Y),
			float64(cv.End.X), float64(cv.End.Y))
		return nil
	})
}

func (c *Compositor) arc(cx, cy, r int, a0, a1 float64, col color.NRGBA, thickness int) error {
	if r <= 0 {
		return nil
	}
	if !c.visible(region.New(cx-r, cy-r, 2*r+1, 2*r+1), thickness/2+1) {
		return nil
	}
	b, s := c.backend, c.surface
	return c.shape(col, thickness, func() error {
		if thickness == 0 {
			b.MoveTo(s, float64(cx), float64(cy))
		}
		b.Arc(s, float64(cx), float64(cy), float64(r), a0, a1)
		if thickness == 0 {
			b.ClosePath(s)
		}
		return nil
	})
}

// rectMultiColor blends the corner colors bilinearly: a horizontal
// gradient along the top edge, and one along the bottom edge painted
// through a vertical alpha ramp.
func (c *Compositor) rectMultiColor(r command.RectMultiColor) error {
	if r.W <= 0 || r.H <= 0 {
		return nil
	}
	if !c.visible(region.New(r.X, r.Y, r.W, r.H), 0) {
		return nil
	}
	b, s := c.backend, c.surface
	x0, y0 := float64(r.X), float64(r.Y)
	x1, y1 := x0+float64(r.W), y0+float64(r.H)

	top := c.gradient(x0, y0, x1, y0, r.Left, r.Top)
	bottom := c.gradient(x0, y0, x1, y0, r.Bottom, r.Right)
	ramp := c.gradient(x0, y0, x0, y1, color.NRGBA{}, color.NRGBA{A: 255})
	defer func() {
		b.PatternDestroy(top)
		b.PatternDestroy(bottom)
		b.PatternDestroy(ramp)
	}()
	if top == nil || bottom == nil || ramp == nil {
		c.stats.skipped.Add(1)
		c.logger.Warn("skipping multi-color rect", "reason", "pattern unavailable")
		return nil
	}

	if err := b.Save(s); err != nil {
		return err
	}
	b.NewPath(s)
	b.Rectangle(s, x0, y0, float64(r.W), float64(r.H))
	if err := b.Clip(s); err != nil {
		return err
	}
	b.SetSource(s, top)
	b.Paint(s, 1)
	b.SetSource(s, bottom)
	b.MaskPattern(s, ramp)
	return b.Restore(s)
}

func (c *Compositor) gradient(x0, y0, x1, y1 float64, from, to color.NRGBA) *render.Pattern {
	b := c.backend
	p := b.PatternCreateLinear(x0, y0, x1, y1)
	if p == nil {
		return nil
	}
	b.PatternAddColorStop(p, 0, unit(from.R), unit(from.G), unit(from.B), unit(from.A))
	b.PatternAddColorStop(p, 1, unit(to.R), unit(to.G), unit(to.B), unit(to.A))
	b.PatternSetExtend(p, render.ExtendPad)
	return p
}

func (c *Compositor) image(im command.Image) error {
	if im.Img == nil || im.W <= 0 || im.H <= 0 {
		return nil
	}
	if !c.visible(region.New(im.X, im.Y, im.W, im.H), 0) {
		return nil
	}
	src, err := c.imageSurface(im)
	if err != nil {
		return err
	}
	alpha := 1.0
	if im.Tint.A > 0 {
		alpha = unit(im.Tint.A)
	}
	c.backend.Blit(c.surface, render.TranslateMatrix(float64(im.X), float64(im.Y)), src, alpha)
	return nil
}

func (c *Compositor) imageSurface(im command.Image) (*render.Surface, error) {
	key := imageKey{img: im.Img, w: im.W, h: im.H}
	if s, ok := c.images[key]; ok {
		return s, nil
	}
	if len(c.images) >= maxCachedImages {
		if err := c.releaseImages(); err != nil {
			c.logger.Warn("releasing image surfaces", "error", err)
		}
	}
	s, err := render.SurfaceFromImage(c.backend, im.Img, im.W, im.H)
	if err != nil {
		return nil, fmt.Errorf("image surface: %w", err)
	}
	c.images[key] = s
	return s, nil
}

func (c *Compositor) text(t command.Text) error {
	if t.String == "" || t.Foreground.A == 0 {
		return nil
	}
	f := c.font(t.Font)
	if f == nil {
		c.stats.skipped.Add(1)
		c.logger.Warn("skipping text", "font", t.Font, "reason", "no font")
		return nil
	}
	size := defaultTextSize
	if t.Height > 0 {
		size = int(math.Round(t.Height))
	}
	b, s := c.backend, c.surface
	ext := b.Extent(s, t.String, f, size)
	if ext.IsEmpty() {
		return nil
	}
	if !c.visible(region.New(t.X, t.Y, ext.W, ext.H), 0) {
		return nil
	}
	if c.extended && t.Background.A > 0 && t.W > 0 && t.H > 0 {
		b.Fill(s, render.IdentityMatrix(), region.New(t.X, t.Y, t.W, t.H), t.Background)
	}
	b.Text(s, render.TranslateMatrix(float64(t.X), float64(t.Y)), t.String, t.Foreground, f, size)
	return nil
}

// font resolves name through the font manager and hands the result to the
// backend once; the backend's handle is cached.
func (c *Compositor) font(name string) *render.Font {
	if c.fonts == nil {
		c.fonts = render.NewFontManager()
	}
	base := c.fonts.Lookup(name)
	if base == nil {
		return nil
	}
	if c.fontHandles == nil {
		c.fontHandles = make(map[*render.Font]*render.Font)
	}
	if f, ok := c.fontHandles[base]; ok {
		return f
	}
	f, err := c.backend.FontCreate(base.Family, base.Data())
	if err != nil {
		c.logger.Warn("font create failed", "font", base.Family, "error", err)
		f = nil
	}
	c.fontHandles[base] = f
	return f
}

func pointBounds(pts ...command.Point) region.Region {
	x0, y0 := pts[0].X, pts[0].Y
	x1, y1 := x0, y0
	for _, p := range pts[1:] {
		x0, y0 = min(x0, p.X), min(y0, p.Y)
		x1, y1 = max(x1, p.X), max(y1, p.Y)
	}
	return region.New(x0, y0, x1-x0+1, y1-y0+1)
}

func clampTo(clip, r region.Region) region.Region {
	var out region.Region
	if !region.Intersect(&out, clip, r) {
		return region.Region{}
	}
	return out
}
