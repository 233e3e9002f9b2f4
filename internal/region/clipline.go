package region

// Outcode bits for the line clipper.
const (
	codeBottom = 1 << iota
	codeTop
	codeLeft
	codeRight
)

// maxClipSteps bounds the edge substitution loop; truncating division can
// otherwise bounce an endpoint between two adjacent edges.
const maxClipSteps = 8

func outcode(x, y, left, top, right, bottom int) int {
	code := 0
	if y > bottom {
		code |= codeBottom
	} else if y < top {
		code |= codeTop
	}
	if x > right {
		code |= codeRight
	} else if x < left {
		code |= codeLeft
	}
	return code
}

// ClipLine clips the segment (x0,y0)-(x1,y1) against r, treating the
// region's last row and column as inclusive pixel bounds. It returns false
// when no part of the segment is visible; the endpoints are then left in an
// unspecified state and must not be drawn.
func ClipLine(r Region, x0, y0, x1, y1 *int) bool {
	if r.IsEmpty() {
		return false
	}
	left, top := r.X, r.Y
	right, bottom := r.X+r.W-1, r.Y+r.H-1

	switch {
	case *y0 == *y1:
		if *y0 < top || *y0 > bottom {
			return false
		}
		if *x0 < left && *x1 < left || *x0 > right && *x1 > right {
			return false
		}
		*x0 = clamp(*x0, left, right)
		*x1 = clamp(*x1, left, right)
		return true
	case *x0 == *x1:
		if *x0 < left || *x0 > right {
			return false
		}
		if *y0 < top && *y1 < top || *y0 > bottom && *y1 > bottom {
			return false
		}
		*y0 = clamp(*y0, top, bottom)
		*y1 = clamp(*y1, top, bottom)
		return true
	}

	code0 := outcode(*x0, *y0, left, top, right, bottom)
	code1 := outcode(*x1, *y1, left, top, right, bottom)

	for i := 0; i < maxClipSteps; i++ {
		if code0|code1 == 0 {
			return true
		}
		if code0&code1 != 0 {
			return false
		}

		code := code0
		if code == 0 {
			code = code1
		}

		var x, y int
		dx, dy := *x1-*x0, *y1-*y0
		switch {
		case code&codeTop != 0:
			y = top
			x = *x0 + dx*(y-*y0)/dy
		case code&codeBottom != 0:
			y = bottom
			x = *x0 + dx*(y-*y0)/dy
		case code&codeLeft != 0:
			x = left
			y = *y0 + dy*(x-*x0)/dx
		default:
			x = right
			y = *y0 + dy*(x-*x0)/dx
		}

		if code == code0 {
			*x0, *y0 = x, y
			code0 = outcode(*x0, *y0, left, top, right, bottom)
		} else {
			*x1, *y1 = x, y
			code1 = outcode(*x1, *y1, left, top, right, bottom)
		}
	}
	return code0|code1 == 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
