package render

// CanvasShaper implements the Shaper methods that only touch a surface's
// Canvas: the state stack, paint and line settings, the transform, path
// construction and clipping. Backends embed it and supply groups and the
// methods that paint.
//
// Lookup returns the canvas of a surface, ErrDestroyed for a released
// surface, or ErrForeignSurface for one the backend did not create.
// Operations that cannot report errors ignore unusable surfaces.
type CanvasShaper struct {
	Lookup func(s *Surface) (*Canvas, error)
}

func (cs CanvasShaper) canvas(s *Surface) *Canvas {
	c, err := cs.Lookup(s)
	if err != nil {
		return nil
	}
	return c
}

// Save pushes a copy of the graphics state.
func (cs CanvasShaper) Save(s *Surface) error {
	c, err := cs.Lookup(s)
	if err != nil {
		return err
	}
	return c.Save()
}

// Restore pops the graphics state pushed by the matching Save.
func (cs CanvasShaper) Restore(s *Surface) error {
	c, err := cs.Lookup(s)
	if err != nil {
		return err
	}
	return c.Restore()
}

func (cs CanvasShaper) NewPath(s *Surface) {
	if c := cs.canvas(s); c != nil {
		c.NewPath()
	}
}

func (cs CanvasShaper) NewSubPath(s *Surface) {
	if c := cs.canvas(s); c != nil {
		c.NewSubPath()
	}
}

func (cs CanvasShaper) ClosePath(s *Surface) {
	if c := cs.canvas(s); c != nil {
		c.ClosePath()
	}
}

func (cs CanvasShaper) SetOperator(s *Surface, op Operator) {
	if c := cs.canvas(s); c != nil {
		c.State().Operator = op
	}
}

// SetSource installs p. A nil or destroyed pattern leaves the source
// unchanged.
func (cs CanvasShaper) SetSource(s *Surface, p *Pattern) {
	if c := cs.canvas(s); c != nil {
		c.SetSource(p)
	}
}

func (cs CanvasShaper) GetSource(s *Surface) *Pattern {
	if c := cs.canvas(s); c != nil {
		return c.State().Source
	}
	return nil
}

func (cs CanvasShaper) SetSourceColor(s *Surface, r, g, b, a float64) {
	if c := cs.canvas(s); c != nil {
		c.SetSource(NewSolidPattern(r, g, b, a))
	}
}

// SetSourceSurface makes src the source with its origin at user-space
// (x, y).
func (cs CanvasShaper) SetSourceSurface(s *Surface, src *Surface, x, y float64) {
	c := cs.canvas(s)
	p := NewSurfacePattern(src)
	if c == nil || p == nil {
		return
	}
	p.SetMatrix(TranslateMatrix(-x, -y))
	c.SetSource(p)
}

func (cs CanvasShaper) SetTolerance(s *Surface, tolerance float64) {
	if c := cs.canvas(s); c != nil && tolerance > 0 {
		c.State().Tolerance = tolerance
	}
}

func (cs CanvasShaper) SetMiterLimit(s *Surface, limit float64) {
	if c := cs.canvas(s); c != nil {
		c.State().MiterLimit = limit
	}
}

func (cs CanvasShaper) SetAntialias(s *Surface, aa Antialias) {
	if c := cs.canvas(s); c != nil {
		c.State().Antialias = aa
	}
}

func (cs CanvasShaper) SetFillRule(s *Surface, rule FillRule) {
	if c := cs.canvas(s); c != nil {
		c.State().FillRule = rule
	}
}

// SetLineWidth ignores negative widths.
func (cs CanvasShaper) SetLineWidth(s *Surface, width float64) {
	if c := cs.canvas(s); c != nil && width >= 0 {
		c.State().LineWidth = width
	}
}

func (cs CanvasShaper) SetLineCap(s *Surface, lc LineCap) {
	if c := cs.canvas(s); c != nil {
		c.State().LineCap = lc
	}
}

func (cs CanvasShaper) SetLineJoin(s *Surface, lj LineJoin) {
	if c := cs.canvas(s); c != nil {
		c.State().LineJoin = lj
	}
}

// SetDash sets the dash pattern. An empty dashes slice disables dashing.
func (cs CanvasShaper) SetDash(s *Surface, dashes []float64, offset float64) {
	if c := cs.canvas(s); c != nil {
		gs := c.State()
		gs.Dash = append([]float64(nil), dashes...)
		gs.DashOffset = offset
	}
}

func (cs CanvasShaper) Identity(s *Surface) {
	if c := cs.canvas(s); c != nil {
		c.State().Matrix = IdentityMatrix()
	}
}

func (cs CanvasShaper) Translate(s *Surface, tx, ty float64) {
	if c := cs.canvas(s); c != nil {
		c.State().Matrix.Translate(tx, ty)
	}
}

func (cs CanvasShaper) Scale(s *Surface, sx, sy float64) {
	if c := cs.canvas(s); c != nil {
		c.State().Matrix.Scale(sx, sy)
	}
}

func (cs CanvasShaper) Rotate(s *Surface, angle float64) {
	if c := cs.canvas(s); c != nil {
		c.State().Matrix.Rotate(angle)
	}
}

func (cs CanvasShaper) Transform(s *Surface, m Matrix) {
	if c := cs.canvas(s); c != nil {
		c.State().Matrix.Transform(m)
	}
}

func (cs CanvasShaper) SetMatrix(s *Surface, m Matrix) {
	if c := cs.canvas(s); c != nil {
		c.State().Matrix = m
	}
}

// GetMatrix returns the identity for unusable surfaces.
func (cs CanvasShaper) GetMatrix(s *Surface) Matrix {
	if c := cs.canvas(s); c != nil {
		return c.State().Matrix
	}
	return IdentityMatrix()
}

func (cs CanvasShaper) MoveTo(s *Surface, x, y float64) {
	if c := cs.canvas(s); c != nil {
		c.MoveTo(x, y)
	}
}

func (cs CanvasShaper) RelMoveTo(s *Surface, dx, dy float64) error {
	c, err := cs.Lookup(s)
	if err != nil {
		return err
	}
	return c.RelMoveTo(dx, dy)
}

func (cs CanvasShaper) LineTo(s *Surface, x, y float64) {
	if c := cs.canvas(s); c != nil {
		c.LineTo(x, y)
	}
}

func (cs CanvasShaper) RelLineTo(s *Surface, dx, dy float64) error {
	c, err := cs.Lookup(s)
	if err != nil {
		return err
	}
	return c.RelLineTo(dx, dy)
}

func (cs CanvasShaper) CurveTo(s *Surface, x1, y1, x2, y2, x3, y3 float64) {
	if c := cs.canvas(s); c != nil {
		c.CurveTo(x1, y1, x2, y2, x3, y3)
	}
}

func (cs CanvasShaper) RelCurveTo(s *Surface, dx1, dy1, dx2, dy2, dx3, dy3 float64) error {
	c, err := cs.Lookup(s)
	if err != nil {
		return err
	}
	return c.RelCurveTo(dx1, dy1, dx2, dy2, dx3, dy3)
}

func (cs CanvasShaper) Rectangle(s *Surface, x, y, w, h float64) {
	if c := cs.canvas(s); c != nil {
		c.Rectangle(x, y, w, h)
	}
}

func (cs CanvasShaper) RoundedRectangle(s *Surface, x, y, w, h, r float64) {
	if c := cs.canvas(s); c != nil {
		c.RoundedRectangle(x, y, w, h, r)
	}
}

func (cs CanvasShaper) Arc(s *Surface, xc, yc, radius, a1, a2 float64) {
	if c := cs.canvas(s); c != nil {
		c.Arc(xc, yc, radius, a1, a2)
	}
}

func (cs CanvasShaper) ArcNegative(s *Surface, xc, yc, radius, a1, a2 float64) {
	if c := cs.canvas(s); c != nil {
		c.ArcNegative(xc, yc, radius, a1, a2)
	}
}

func (cs CanvasShaper) ResetClip(s *Surface) {
	if c := cs.canvas(s); c != nil {
		c.ResetClip()
	}
}

// Clip intersects the clip with the current path and clears the path.
func (cs CanvasShaper) Clip(s *Surface) error {
	c, err := cs.Lookup(s)
	if err != nil {
		return err
	}
	return c.Clip()
}

func (cs CanvasShaper) ClipPreserve(s *Surface) error {
	c, err := cs.Lookup(s)
	if err != nil {
		return err
	}
	return c.ClipPreserve()
}
