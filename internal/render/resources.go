package render

// PatternResources implements the pattern half of Resources on top of
// the backend-neutral Pattern type. Backends embed it next to their own
// font handling.
type PatternResources struct{}

// PatternCreate returns a pattern sampling s, or nil for a destroyed s.
func (PatternResources) PatternCreate(s *Surface) *Pattern { return NewSurfacePattern(s) }

func (PatternResources) PatternCreateColor(r, g, b, a float64) *Pattern {
	return NewSolidPattern(r, g, b, a)
}

func (PatternResources) PatternCreateLinear(x0, y0, x1, y1 float64) *Pattern {
	return NewLinearPattern(x0, y0, x1, y1)
}

func (PatternResources) PatternCreateRadial(x0, y0, r0, x1, y1, r1 float64) *Pattern {
	return NewRadialPattern(x0, y0, r0, x1, y1, r1)
}

// PatternDestroy marks p unusable. Later calls with p are ignored.
func (PatternResources) PatternDestroy(p *Pattern) {
	if p != nil {
		p.Destroy()
	}
}

func (PatternResources) PatternAddColorStop(p *Pattern, offset, r, g, b, a float64) {
	if !p.Destroyed() {
		p.AddColorStop(offset, r, g, b, a)
	}
}

func (PatternResources) PatternSetExtend(p *Pattern, e Extend) {
	if !p.Destroyed() {
		p.SetExtend(e)
	}
}

func (PatternResources) PatternSetFilter(p *Pattern, f Filter) {
	if !p.Destroyed() {
		p.SetFilter(f)
	}
}

func (PatternResources) PatternSetMatrix(p *Pattern, m Matrix) {
	if !p.Destroyed() {
		p.SetMatrix(m)
	}
}
