package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubState struct{ canvas *Canvas }

func (*stubState) Release() error { return nil }

func newShaper(t *testing.T) (CanvasShaper, *Surface) {
	t.Helper()
	s, err := NewSurface(NewDescriptor(8, 8))
	require.NoError(t, err)
	s.State = &stubState{canvas: NewCanvas()}
	cs := CanvasShaper{Lookup: func(s *Surface) (*Canvas, error) {
		if s.Destroyed() {
			return nil, ErrDestroyed
		}
		st, ok := s.State.(*stubState)
		if !ok {
			return nil, ErrForeignSurface
		}
		return st.canvas, nil
	}}
	return cs, s
}

func TestCanvasShaperDelegates(t *testing.T) {
	cs, s := newShaper(t)

	require.NoError(t, cs.Save(s))
	cs.Translate(s, 5, 0)
	cs.SetLineWidth(s, 4)
	cs.SetLineWidth(s, -1)
	cs.SetDash(s, []float64{2, 1}, 0.5)
	cs.Rectangle(s, 0, 0, 2, 2)
	assert.Equal(t, 4.0, s.State.(*stubState).canvas.State().LineWidth)
	assert.Equal(t, TranslateMatrix(5, 0), cs.GetMatrix(s))

	require.NoError(t, cs.Clip(s))
	clip := s.State.(*stubState).canvas.ClipBounds(s.Bounds())
	assert.Equal(t, 5, clip.X)
	assert.Equal(t, 2, clip.W)

	require.NoError(t, cs.Restore(s))
	assert.Equal(t, IdentityMatrix(), cs.GetMatrix(s))
	assert.ErrorIs(t, cs.Restore(s), ErrUnbalancedRestore)
	assert.ErrorIs(t, cs.RelLineTo(s, 1, 1), ErrNoCurrentPoint)
	assert.ErrorIs(t, cs.Clip(s), ErrNoCurrentPath)
}

func TestCanvasShaperSourceSurface(t *testing.T) {
	cs, s := newShaper(t)
	src, err := NewSurface(NewDescriptor(2, 2))
	require.NoError(t, err)
	src.State = &stubState{canvas: NewCanvas()}

	cs.SetSourceSurface(s, src, 3, 4)
	p := cs.GetSource(s)
	require.NotNil(t, p)
	assert.Equal(t, PatternSurface, p.Type())
	assert.Equal(t, TranslateMatrix(-3, -4), p.Matrix())
}

type otherState struct{}

func (otherState) Release() error { return nil }

func TestCanvasShaperUnusableSurface(t *testing.T) {
	cs, s := newShaper(t)
	foreign, err := NewSurface(NewDescriptor(2, 2))
	require.NoError(t, err)
	foreign.State = otherState{}

	assert.ErrorIs(t, cs.Save(foreign), ErrForeignSurface)
	cs.MoveTo(foreign, 1, 1)
	assert.Nil(t, cs.GetSource(foreign))
	assert.Equal(t, IdentityMatrix(), cs.GetMatrix(foreign))

	s.State = nil
	assert.ErrorIs(t, cs.ClipPreserve(s), ErrDestroyed)
	assert.ErrorIs(t, cs.RelCurveTo(s, 1, 1, 2, 2, 3, 3), ErrDestroyed)
}
