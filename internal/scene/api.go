package scene

import (
	"image/color"
	"path/filepath"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-xui/internal/command"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// newAPI builds the xui table. Its functions run with s.mu held by the
// caller of the Lua code.
func (s *Scene) newAPI() *rt.Table {
	t := rt.NewTable()
	setTableFunction(t, "scissor", s.scissor)
	setTableFunction(t, "line", s.line)
	setTableFunction(t, "curve", s.curve)
	setTableFunction(t, "rect", s.rect)
	setTableFunction(t, "rect_filled", s.rectFilled)
	setTableFunction(t, "rect_multi_color", s.rectMultiColor)
	setTableFunction(t, "circle", s.circle)
	setTableFunction(t, "circle_filled", s.circleFilled)
	setTableFunction(t, "arc", s.arc)
	setTableFunction(t, "arc_filled", s.arcFilled)
	setTableFunction(t, "triangle", s.triangle)
	setTableFunction(t, "triangle_filled", s.triangleFilled)
	setTableFunction(t, "polygon", s.polygon)
	setTableFunction(t, "polygon_filled", s.polygonFilled)
	setTableFunction(t, "polyline", s.polyline)
	setTableFunction(t, "text", s.text)
	setTableFunction(t, "image", s.image)
	setTableFunction(t, "rgba", s.rgba)

	t.Set(rt.StringValue("frame"), rt.IntValue(0))
	t.Set(rt.StringValue("width"), rt.IntValue(0))
	t.Set(rt.StringValue("height"), rt.IntValue(0))
	t.Set(rt.StringValue("time"), rt.FloatValue(0))
	return t
}

// push emits cmd unless reading the arguments failed.
func (s *Scene) push(c *rt.GoCont, a *args, cmd command.Command) (rt.Cont, error) {
	if a.err != nil {
		return nil, a.err
	}
	s.emit(cmd)
	return c.Next(), nil
}

// xui.scissor(x, y, w, h)
func (s *Scene) scissor(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.scissor", c)
	return s.push(c, a, command.Scissor{X: a.int(0), Y: a.int(1), W: a.int(2), H: a.int(3)})
}

// xui.line(x0, y0, x1, y1, color[, thickness])
func (s *Scene) line(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.line", c)
	return s.push(c, a, command.Line{
		Begin:     command.Pt(a.int(0), a.int(1)),
		End:       command.Pt(a.int(2), a.int(3)),
		Color:     a.color(4),
		Thickness: a.optInt(5, 1),
	})
}

// xui.curve(x0, y0, cx0, cy0, cx1, cy1, x1, y1, color[, thickness])
func (s *Scene) curve(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.curve", c)
	return s.push(c, a, command.Curve{
		Begin:     command.Pt(a.int(0), a.int(1)),
		Ctrl:      [2]command.Point{command.Pt(a.int(2), a.int(3)), command.Pt(a.int(4), a.int(5))},
		End:       command.Pt(a.int(6), a.int(7)),
		Color:     a.color(8),
		Thickness: a.optInt(9, 1),
	})
}

// xui.rect(x, y, w, h, color[, thickness[, rounding]])
func (s *Scene) rect(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.rect", c)
	return s.push(c, a, command.Rect{
		X: a.int(0), Y: a.int(1), W: a.int(2), H: a.int(3),
		Color:     a.color(4),
		Thickness: a.optInt(5, 1),
		Rounding:  a.optInt(6, 0),
	})
}

// xui.rect_filled(x, y, w, h, color[, rounding])
func (s *Scene) rectFilled(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.rect_filled", c)
	return s.push(c, a, command.RectFilled{
		X: a.int(0), Y: a.int(1), W: a.int(2), H: a.int(3),
		Color:    a.color(4),
		Rounding: a.optInt(5, 0),
	})
}

// xui.rect_multi_color(x, y, w, h, left, top, right, bottom)
func (s *Scene) rectMultiColor(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.rect_multi_color", c)
	return s.push(c, a, command.RectMultiColor{
		X: a.int(0), Y: a.int(1), W: a.int(2), H: a.int(3),
		Left: a.color(4), Top: a.color(5), Right: a.color(6), Bottom: a.color(7),
	})
}

// xui.circle(x, y, w, h, color[, thickness])
func (s *Scene) circle(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.circle", c)
	return s.push(c, a, command.Circle{
		X: a.int(0), Y: a.int(1), W: a.int(2), H: a.int(3),
		Color:     a.color(4),
		Thickness: a.optInt(5, 1),
	})
}

// xui.circle_filled(x, y, w, h, color)
func (s *Scene) circleFilled(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.circle_filled", c)
	return s.push(c, a, command.CircleFilled{
		X: a.int(0), Y: a.int(1), W: a.int(2), H: a.int(3),
		Color: a.color(4),
	})
}

// xui.arc(cx, cy, r, a0, a1, color[, thickness])
func (s *Scene) arc(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.arc", c)
	return s.push(c, a, command.Arc{
		CX: a.int(0), CY: a.int(1), R: a.int(2),
		A0: a.float(3), A1: a.float(4),
		Color:     a.color(5),
		Thickness: a.optInt(6, 1),
	})
}

// xui.arc_filled(cx, cy, r, a0, a1, color)
func (s *Scene) arcFilled(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.arc_filled", c)
	return s.push(c, a, command.ArcFilled{
		CX: a.int(0), CY: a.int(1), R: a.int(2),
		A0: a.float(3), A1: a.float(4),
		Color: a.color(5),
	})
}

// xui.triangle(x0, y0, x1, y1, x2, y2, color[, thickness])
func (s *Scene) triangle(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.triangle", c)
	return s.push(c, a, command.Triangle{
		A: command.Pt(a.int(0), a.int(1)),
		B: command.Pt(a.int(2), a.int(3)),
		C: command.Pt(a.int(4), a.int(5)),
		Color:     a.color(6),
		Thickness: a.optInt(7, 1),
	})
}

// xui.triangle_filled(x0, y0, x1, y1, x2, y2, color)
func (s *Scene) triangleFilled(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.triangle_filled", c)
	return s.push(c, a, command.TriangleFilled{
		A: command.Pt(a.int(0), a.int(1)),
		B: command.Pt(a.int(2), a.int(3)),
		C: command.Pt(a.int(4), a.int(5)),
		Color: a.color(6),
	})
}

// xui.polygon(points, color[, thickness])
func (s *Scene) polygon(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.polygon", c)
	return s.push(c, a, command.Polygon{Points: a.points(0), Color: a.color(1), Thickness: a.optInt(2, 1)})
}

// xui.polygon_filled(points, color)
func (s *Scene) polygonFilled(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.polygon_filled", c)
	return s.push(c, a, command.PolygonFilled{Points: a.points(0), Color: a.color(1)})
}

// xui.polyline(points, color[, thickness])
func (s *Scene) polyline(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.polyline", c)
	return s.push(c, a, command.Polyline{Points: a.points(0), Color: a.color(1), Thickness: a.optInt(2, 1)})
}

// xui.text(x, y, string[, color[, font[, height[, background]]]])
//
// The box is sized from the string length and height; the compositor
// measures the real extent when it draws.
func (s *Scene) text(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.text", c)
	x, y, str := a.int(0), a.int(1), a.str(2)
	height := a.optFloat(5, 0)
	if height <= 0 {
		height = float64(s.textSize)
	}
	h := int(height)
	return s.push(c, a, command.Text{
		X: x, Y: y, W: len(str) * h, H: h,
		String:     str,
		Foreground: a.optColor(3, white),
		Font:       a.optStr(4, ""),
		Height:     height,
		Background: a.optColor(6, color.NRGBA{}),
	})
}

// xui.image(path, x, y[, w, h[, tint]])
func (s *Scene) image(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.image", c)
	path := a.str(0)
	x, y := a.int(1), a.int(2)
	w, h := a.optInt(3, 0), a.optInt(4, 0)
	tint := a.optColor(5, color.NRGBA{})
	if a.err != nil {
		return nil, a.err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	img, err := s.images.Load(path)
	if err != nil {
		s.logger.Warn("skipping image", "path", path, "error", err)
		return c.Next(), nil
	}
	if w <= 0 || h <= 0 {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}
	s.emit(command.Image{X: x, Y: y, W: w, H: h, Img: img, Tint: tint})
	return c.Next(), nil
}

// xui.rgba(r, g, b[, a]) packs 0-255 components into the integer form
// accepted wherever a color is.
func (s *Scene) rgba(t *rt.Thread, c *rt.GoCont) (rt.Cont, error) {
	a := newArgs("xui.rgba", c)
	r, g, b, al := a.int(0), a.int(1), a.int(2), a.optInt(3, 255)
	if a.err != nil {
		return nil, a.err
	}
	packed := int64(clampByte(r))<<24 | int64(clampByte(g))<<16 | int64(clampByte(b))<<8 | int64(clampByte(al))
	return c.PushingNext1(t.Runtime, rt.IntValue(packed)), nil
}

func clampByte(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}
