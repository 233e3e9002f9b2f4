// Package present publishes finished frames: to an ebiten window, to a
// sequence of PNG files, to a plain X11 window or nowhere at all. Every
// sink implements compositor.Presenter.
package present

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/opd-ai/go-xui/internal/render"
)

// ErrUnsupported is returned when a sink is not available in this build or
// on this platform.
var ErrUnsupported = errors.New("present: sink not supported on this platform")

// Syncer brings a surface's pixel buffer up to date with its backend.
// GPU backends implement it; CPU backends draw into the buffer directly.
type Syncer interface {
	Sync(s *render.Surface) error
}

// Counter discards frames and counts them.
type Counter struct {
	frames atomic.Int64
}

// Present implements compositor.Presenter.
func (c *Counter) Present(ctx context.Context, s *render.Surface) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Destroyed() {
		return render.ErrDestroyed
	}
	c.frames.Add(1)
	return nil
}

// Frames returns the number of frames presented.
func (c *Counter) Frames() int64 { return c.frames.Load() }

// rgbaBytes returns the surface pixels without row padding.
func rgbaBytes(s *render.Surface) []byte {
	row := 4 * s.Width
	if s.Stride == row {
		return s.Pix[:row*s.Height]
	}
	buf := make([]byte, row*s.Height)
	for y := 0; y < s.Height; y++ {
		copy(buf[y*row:], s.Pix[y*s.Stride:y*s.Stride+row])
	}
	return buf
}

// X11Config describes the window the X11 sink creates.
type X11Config struct {
	Width       int
	Height      int
	Title       string
	SkipTaskbar bool
	SkipPager   bool
}
