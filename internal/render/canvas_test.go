package render

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-xui/internal/region"
)

func TestCanvasSaveRestore(t *testing.T) {
	c := NewCanvas()

	require.ErrorIs(t, c.Restore(), ErrUnbalancedRestore)

	require.NoError(t, c.Save())
	c.State().LineWidth = 7
	c.State().Dash = []float64{1, 2}
	require.NoError(t, c.Save())
	c.State().LineWidth = 9
	c.State().Dash[0] = 5

	require.NoError(t, c.Restore())
	assert.Equal(t, 7.0, c.State().LineWidth)
	assert.Equal(t, []float64{1, 2}, c.State().Dash, "saved dash must not alias the live one")
	require.NoError(t, c.Restore())
	assert.Equal(t, 2.0, c.State().LineWidth)
	assert.Equal(t, 0, c.Depth())
	assert.ErrorIs(t, c.Restore(), ErrUnbalancedRestore)
}

func TestCanvasStackOverflow(t *testing.T) {
	c := NewCanvas()
	for i := 0; i < maxStateDepth; i++ {
		require.NoError(t, c.Save())
	}
	assert.ErrorIs(t, c.Save(), ErrStackOverflow)
}

func TestCanvasGroups(t *testing.T) {
	c := NewCanvas()
	assert.ErrorIs(t, c.PopGroup(), ErrUnbalancedGroup)

	c.State().LineWidth = 3
	require.NoError(t, c.PushGroup())
	c.State().LineWidth = 11
	assert.Equal(t, 1, c.GroupDepth())

	// Restore may not cross the group boundary.
	assert.ErrorIs(t, c.Restore(), ErrUnbalancedRestore)

	require.NoError(t, c.PopGroup())
	assert.Equal(t, 3.0, c.State().LineWidth)
	assert.Equal(t, 0, c.Depth())

	require.NoError(t, c.PushGroup())
	require.NoError(t, c.Save())
	err := c.PopGroup()
	assert.True(t, errors.Is(err, ErrUnbalancedRestore))
	assert.Equal(t, 0, c.Depth(), "pop group unwinds open saves")
}

func TestCanvasPathUsesCTM(t *testing.T) {
	c := NewCanvas()
	c.State().Matrix.Translate(10, 20)
	c.State().Matrix.Scale(2, 2)

	c.MoveTo(1, 1)
	c.LineTo(3, 1)

	els := c.Path().Elements()
	require.Len(t, els, 2)
	assert.Equal(t, Point{X: 12, Y: 22}, els[0].P[0])
	assert.Equal(t, Point{X: 16, Y: 22}, els[1].P[0])

	require.NoError(t, c.RelLineTo(0, 2))
	pt, ok := c.Path().Current()
	require.True(t, ok)
	assert.InDelta(t, 16, pt.X, 1e-9)
	assert.InDelta(t, 26, pt.Y, 1e-9)
}

func TestCanvasRelativeWithoutCurrentPoint(t *testing.T) {
	c := NewCanvas()
	assert.ErrorIs(t, c.RelMoveTo(1, 1), ErrNoCurrentPoint)
	assert.ErrorIs(t, c.RelLineTo(1, 1), ErrNoCurrentPoint)
	assert.ErrorIs(t, c.RelCurveTo(1, 1, 2, 2, 3, 3), ErrNoCurrentPoint)
}

func TestCanvasClip(t *testing.T) {
	c := NewCanvas()
	bounds := region.New(0, 0, 100, 100)

	assert.ErrorIs(t, c.Clip(), ErrNoCurrentPath)
	assert.Equal(t, bounds, c.ClipBounds(bounds))

	c.Rectangle(10, 10, 50, 50)
	require.NoError(t, c.ClipPreserve())
	assert.False(t, c.Path().Empty(), "clip preserve keeps the path")

	r, ok := c.ClipIsRect()
	require.True(t, ok)
	assert.Equal(t, region.New(10, 10, 50, 50), r)

	require.NoError(t, c.Save())
	c.NewPath()
	c.Rectangle(40, 40, 50, 50)
	require.NoError(t, c.Clip())
	assert.True(t, c.Path().Empty())
	assert.Equal(t, region.New(40, 40, 20, 20), c.ClipBounds(bounds))
	_, ok = c.ClipIsRect()
	assert.False(t, ok)

	require.NoError(t, c.Restore())
	assert.Len(t, c.State().Clip, 1, "restore drops the inner clip")

	c.ResetClip()
	assert.Equal(t, bounds, c.ClipBounds(bounds))
}

func TestCanvasRoundedRectangle(t *testing.T) {
	c := NewCanvas()
	c.RoundedRectangle(0, 0, 40, 20, 50)

	x0, y0, x1, y1, ok := c.Path().Bounds()
	require.True(t, ok)
	assert.InDelta(t, 0, x0, 1e-9)
	assert.InDelta(t, 0, y0, 1e-9)
	assert.InDelta(t, 40, x1, 1e-9)
	assert.InDelta(t, 20, y1, 1e-9)

	els := c.Path().Elements()
	assert.Equal(t, PathClose, els[len(els)-1].Op)

	c.NewPath()
	c.RoundedRectangle(0, 0, 10, 10, 0)
	assert.Len(t, c.Path().Elements(), 5, "zero radius is a plain rectangle")
}

func TestCanvasArcEndpoints(t *testing.T) {
	c := NewCanvas()
	c.Arc(50, 50, 10, 0, math.Pi)

	els := c.Path().Elements()
	require.NotEmpty(t, els)
	assert.Equal(t, PathMoveTo, els[0].Op)
	assert.InDelta(t, 60, els[0].P[0].X, 1e-9)
	end, _ := c.Path().Current()
	assert.InDelta(t, 40, end.X, 1e-9)
	assert.InDelta(t, 50, end.Y, 1e-9)

	c.NewPath()
	c.ArcNegative(50, 50, 10, 0, -math.Pi/2)
	end, _ = c.Path().Current()
	assert.InDelta(t, 50, end.X, 1e-9)
	assert.InDelta(t, 40, end.Y, 1e-9)
}

func TestCanvasSourceAt(t *testing.T) {
	c := NewCanvas()
	assert.Equal(t, uint8(255), c.SourceAt(0, 0).A)

	p := NewLinearPattern(0, 0, 10, 0)
	p.AddColorStop(0, 1, 0, 0, 1)
	p.AddColorStop(1, 0, 0, 1, 1)
	c.State().Matrix.Translate(100, 0)
	c.SetSource(p)

	left := c.SourceAt(100, 0)
	right := c.SourceAt(110, 0)
	assert.Equal(t, uint8(255), left.R)
	assert.Equal(t, uint8(255), right.B)

	dead := NewSolidPattern(0, 1, 0, 1)
	dead.Destroy()
	c.SetSource(dead)
	assert.Same(t, p, c.State().Source, "destroyed patterns are not installed")
}

func TestPathFlatten(t *testing.T) {
	var p Path
	p.MoveTo(Point{0, 0})
	p.CubicTo(Point{0, 10}, Point{10, 10}, Point{10, 0})
	p.Close()

	polys := p.Flatten(0.1)
	require.Len(t, polys, 1)
	poly := polys[0]
	assert.Greater(t, len(poly), 4)
	assert.Equal(t, poly[0], poly[len(poly)-1])
	assert.InDelta(t, 10, poly[len(poly)-2].X, 1e-9)
}

func TestMatrixInvert(t *testing.T) {
	m := IdentityMatrix()
	m.Translate(5, 7)
	m.Rotate(0.3)
	m.Scale(2, 3)

	inv, ok := m.Invert()
	require.True(t, ok)
	x, y := m.TransformPoint(1.5, -2)
	x, y = inv.TransformPoint(x, y)
	assert.InDelta(t, 1.5, x, 1e-9)
	assert.InDelta(t, -2, y, 1e-9)

	_, ok = ScaleMatrix(0, 1).Invert()
	assert.False(t, ok)
}

func TestMatrixMultiplyOrder(t *testing.T) {
	m := Multiply(ScaleMatrix(2, 2), TranslateMatrix(10, 0))
	x, y := m.TransformPoint(1, 1)
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 2.0, y)

	ctm := TranslateMatrix(10, 0)
	ctm.Transform(ScaleMatrix(2, 2))
	x, _ = ctm.TransformPoint(1, 1)
	assert.Equal(t, 12.0, x, "transform applies in user space")
}

func TestCanvasBorrow(t *testing.T) {
	c := NewCanvas()
	c.State().Matrix = TranslateMatrix(3, 4)
	c.MoveTo(0, 0)
	c.LineTo(1, 1)
	src := c.State().Source

	c.Borrow(ScaleMatrix(2, 2), func() {
		assert.True(t, c.Path().Empty())
		c.Rectangle(0, 0, 1, 1)
		c.SetSource(NewSolidPattern(1, 0, 0, 1))
		x0, y0, x1, y1, ok := c.Path().Bounds()
		require.True(t, ok)
		assert.Equal(t, []float64{0, 0, 2, 2}, []float64{x0, y0, x1, y1})
	})

	assert.Len(t, c.Path().Elements(), 2)
	assert.Equal(t, TranslateMatrix(3, 4), c.State().Matrix)
	assert.Same(t, src, c.State().Source)
}
