// Package software implements render.Backend on the CPU with fogleman/gg.
// Drawing goes straight into the pixel buffer the caller handed to Create,
// so the buffer can be presented or encoded without a readback.
//
// A Backend is not safe for concurrent use on the same surface.
package software

import (
	"image"
	"io"
	"log/slog"

	"github.com/fogleman/gg"

	"github.com/opd-ai/go-xui/internal/render"
)

// Name is the backend name used in configuration.
const Name = "software"

// Backend rasterizes with gg. The zero value is not usable; call New.
type Backend struct {
	render.DefaultFilters
	render.CanvasShaper
	render.PatternResources

	logger *slog.Logger
}

var _ render.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for skipped operations.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a software backend.
func New(opts ...Option) *Backend {
	b := &Backend{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	b.CanvasShaper = render.CanvasShaper{Lookup: b.canvas}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements render.Backend.
func (b *Backend) Name() string { return Name }

// surfaceState is the per-surface payload: the shape state machine plus
// the raster targets. The base target aliases the surface buffer; groups
// push transparent layers on top of it.
type surfaceState struct {
	canvas *render.Canvas
	width  int
	height int

	base   *image.RGBA
	layers []*image.RGBA

	dc       *gg.Context
	dcTarget *image.RGBA

	maskKey []render.ClipPath
	mask    *image.Alpha
}

func newSurfaceState(s *render.Surface) *surfaceState {
	return &surfaceState{
		canvas: render.NewCanvas(),
		width:  s.Width,
		height: s.Height,
		base:   s.RGBA(),
	}
}

// Release implements render.BackendState.
func (st *surfaceState) Release() error {
	st.layers = nil
	st.dc, st.dcTarget = nil, nil
	st.maskKey, st.mask = nil, nil
	return nil
}

// target returns the image drawing currently lands in.
func (st *surfaceState) target() *image.RGBA {
	if n := len(st.layers); n > 0 {
		return st.layers[n-1]
	}
	return st.base
}

// context returns a gg context bound to the current target.
func (st *surfaceState) context() *gg.Context {
	t := st.target()
	if st.dc == nil || st.dcTarget != t {
		st.dc = gg.NewContextForRGBA(t)
		st.dcTarget = t
	}
	st.dc.Identity()
	st.dc.ClearPath()
	st.dc.ResetClip()
	return st.dc
}

// groupState backs the surfaces PopGroup hands out inside patterns. They
// share no raster state with any backend.
type groupState struct{}

func (groupState) Release() error { return nil }

// Create implements render.Lifecycle.
func (b *Backend) Create(desc render.SurfaceDescriptor) (*render.Surface, error) {
	s, err := render.NewSurface(desc)
	if err != nil {
		return nil, err
	}
	s.State = newSurfaceState(s)
	return s, nil
}

// Destroy implements render.Lifecycle.
func (b *Backend) Destroy(s *render.Surface) error {
	if s.Destroyed() {
		return render.ErrDestroyed
	}
	if _, ok := s.State.(*surfaceState); !ok {
		return render.ErrForeignSurface
	}
	return render.ReleaseSurface(s)
}

// state returns the backend state of s, or nil when s is unusable here.
func (b *Backend) state(s *render.Surface) *surfaceState {
	if s.Destroyed() {
		return nil
	}
	st, _ := s.State.(*surfaceState)
	return st
}

func (b *Backend) canvas(s *render.Surface) (*render.Canvas, error) {
	st, err := b.checked(s)
	if err != nil {
		return nil, err
	}
	return st.canvas, nil
}

// checked is state for operations that report misuse.
func (b *Backend) checked(s *render.Surface) (*surfaceState, error) {
	if s.Destroyed() {
		return nil, render.ErrDestroyed
	}
	st, ok := s.State.(*surfaceState)
	if !ok {
		return nil, render.ErrForeignSurface
	}
	return st, nil
}
