//go:build !noebiten

package present

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-xui/internal/render"
)

func TestNewWindowDefaults(t *testing.T) {
	w := NewWindow(WindowConfig{})
	cfg := w.Config()
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
	assert.Equal(t, "xui-go", cfg.Title)
	assert.False(t, w.IsRunning())

	w = NewWindow(WindowConfig{Width: 64, Height: 32, Title: "bar"})
	width, height := w.Layout(1000, 1000)
	assert.Equal(t, 64, width)
	assert.Equal(t, 32, height)
}

func TestWindowUpdate(t *testing.T) {
	var errs []error
	w := NewWindow(WindowConfig{}, WithErrorHandler(func(err error) { errs = append(errs, err) }))
	assert.NoError(t, w.Update(), "no step installed")

	boom := errors.New("boom")
	steps := 0
	w.SetStep(func(ctx context.Context) error {
		steps++
		if steps == 2 {
			return boom
		}
		return nil
	})
	require.NoError(t, w.Update())
	require.NoError(t, w.Update())
	assert.Equal(t, 2, steps)
	assert.Equal(t, []error{boom}, errs)

	ctx, cancel := context.WithCancel(context.Background())
	w.SetContext(ctx)
	cancel()
	assert.ErrorIs(t, w.Update(), ErrWindowTerminated)
	assert.Equal(t, 2, steps)
}

type fixedImages struct{ img *ebiten.Image }

func (f fixedImages) Image(*render.Surface) *ebiten.Image { return f.img }

func TestWindowPresent(t *testing.T) {
	s := newSurface(t, 16, 8)
	s.Clear(color.RGBA{B: 255, A: 255})

	w := NewWindow(WindowConfig{Width: 16, Height: 8})
	require.NoError(t, w.Present(context.Background(), s))
	require.NotNil(t, w.upload)
	upload := w.upload
	assert.Same(t, upload, w.shown)

	require.NoError(t, w.Present(context.Background(), s))
	assert.Same(t, upload, w.upload, "same size reuses the upload image")

	screen := ebiten.NewImage(16, 8)
	defer screen.Deallocate()
	w.Draw(screen)

	assert.ErrorIs(t, w.Present(context.Background(), &render.Surface{}), render.ErrDestroyed)

	gpuImg := ebiten.NewImage(16, 8)
	defer gpuImg.Deallocate()
	w = NewWindow(WindowConfig{Width: 16, Height: 8}, WithImageSource(fixedImages{gpuImg}))
	require.NoError(t, w.Present(context.Background(), s))
	assert.Same(t, gpuImg, w.shown)
	assert.Nil(t, w.upload)
}
