package render

import "math"

// Matrix is a 2D affine transform:
//
//	| XX  XY |   | x |   | X0 |
//	| YX  YY | * | y | + | Y0 |
type Matrix struct {
	XX, XY float64
	YX, YY float64
	X0, Y0 float64
}

// IdentityMatrix returns the identity transform.
func IdentityMatrix() Matrix {
	return Matrix{XX: 1, YY: 1}
}

// TranslateMatrix returns a translation by (tx, ty).
func TranslateMatrix(tx, ty float64) Matrix {
	return Matrix{XX: 1, YY: 1, X0: tx, Y0: ty}
}

// ScaleMatrix returns a scale by (sx, sy).
func ScaleMatrix(sx, sy float64) Matrix {
	return Matrix{XX: sx, YY: sy}
}

// RotateMatrix returns a rotation by angle radians.
func RotateMatrix(angle float64) Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix{XX: c, XY: -s, YX: s, YY: c}
}

// Translate prepends a translation, so user coordinates move first.
func (m *Matrix) Translate(tx, ty float64) {
	m.X0 += m.XX*tx + m.XY*ty
	m.Y0 += m.YX*tx + m.YY*ty
}

// Scale prepends a scale.
func (m *Matrix) Scale(sx, sy float64) {
	m.XX *= sx
	m.XY *= sy
	m.YX *= sx
	m.YY *= sy
}

// Rotate prepends a rotation by angle radians.
func (m *Matrix) Rotate(angle float64) {
	c, s := math.Cos(angle), math.Sin(angle)
	xx := m.XX*c + m.XY*s
	xy := -m.XX*s + m.XY*c
	yx := m.YX*c + m.YY*s
	yy := -m.YX*s + m.YY*c
	m.XX, m.XY, m.YX, m.YY = xx, xy, yx, yy
}

// Multiply returns the transform that applies a first and then b.
func Multiply(a, b Matrix) Matrix {
	return Matrix{
		XX: b.XX*a.XX + b.XY*a.YX,
		XY: b.XX*a.XY + b.XY*a.YY,
		YX: b.YX*a.XX + b.YY*a.YX,
		YY: b.YX*a.XY + b.YY*a.YY,
		X0: b.XX*a.X0 + b.XY*a.Y0 + b.X0,
		Y0: b.YX*a.X0 + b.YY*a.Y0 + b.Y0,
	}
}

// Transform prepends t, the way a user-space transform is applied to a CTM.
func (m *Matrix) Transform(t Matrix) {
	*m = Multiply(t, *m)
}

// TransformPoint maps a point.
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m.XX*x + m.XY*y + m.X0, m.YX*x + m.YY*y + m.Y0
}

// TransformDistance maps a vector, ignoring translation.
func (m Matrix) TransformDistance(dx, dy float64) (float64, float64) {
	return m.XX*dx + m.XY*dy, m.YX*dx + m.YY*dy
}

// Determinant returns XX*YY - XY*YX.
func (m Matrix) Determinant() float64 {
	return m.XX*m.YY - m.XY*m.YX
}

// Invert returns the inverse and false when m is singular.
func (m Matrix) Invert() (Matrix, bool) {
	det := m.Determinant()
	if det == 0 || math.IsInf(det, 0) || math.IsNaN(det) {
		return Matrix{}, false
	}
	inv := 1 / det
	return Matrix{
		XX: m.YY * inv,
		XY: -m.XY * inv,
		YX: -m.YX * inv,
		YY: m.XX * inv,
		X0: (m.XY*m.Y0 - m.YY*m.X0) * inv,
		Y0: (m.YX*m.X0 - m.XX*m.Y0) * inv,
	}, true
}

// IsIdentity reports whether m leaves points unchanged.
func (m Matrix) IsIdentity() bool {
	return m == IdentityMatrix()
}

// IsTranslation reports whether m only moves points.
func (m Matrix) IsTranslation() bool {
	return m.XX == 1 && m.YY == 1 && m.XY == 0 && m.YX == 0
}

// LineScale is the factor a stroke width grows by under m.
func (m Matrix) LineScale() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}
