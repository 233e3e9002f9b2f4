// Package gpu implements render.Backend on Ebitengine images. Shapes are
// tessellated with ebiten's vector package and drawn as triangles, so the
// work lands on the GPU once the game loop flushes it.
//
// Create uploads the descriptor's pixels; afterwards the ebiten image is
// authoritative and the surface buffer only catches up on Sync. Sync and
// the pixel filters read back from the GPU and therefore only work while
// the game loop is running.
package gpu

import (
	"image"
	"image/color"
	"io"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-xui/internal/render"
)

// Name is the backend name used in configuration.
const Name = "ebiten"

// Backend draws with Ebitengine. The zero value is not usable; call New.
type Backend struct {
	render.CanvasShaper
	render.PatternResources

	filters render.DefaultFilters
	logger  *slog.Logger
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

// New returns an Ebitengine backend.
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

// whiteImage is the texture for solid paint: vertex colors carry the color.
var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// surfaceState is the per-surface payload. img is the surface itself;
// groups push layers of the same size on top of it.
type surfaceState struct {
	canvas *render.Canvas
	width  int
	height int

	img    *ebiten.Image
	layers []*ebiten.Image

	scratch *ebiten.Image
	mask    *ebiten.Image
	maskKey []render.ClipPath
}

func (st *surfaceState) Release() error {
	for _, img := range append(st.layers, st.img, st.scratch, st.mask) {
		if img != nil {
			img.Deallocate()
		}
	}
	st.layers, st.img, st.scratch, st.mask = nil, nil, nil, nil
	st.maskKey = nil
	return nil
}

// target returns the image drawing currently lands in.
func (st *surfaceState) target() *ebiten.Image {
	if n := len(st.layers); n > 0 {
		return st.layers[n-1]
	}
	return st.img
}

// scratchImage returns a cleared offscreen image the size of the surface.
func (st *surfaceState) scratchImage() *ebiten.Image {
	if st.scratch == nil {
		st.scratch = ebiten.NewImage(st.width, st.height)
	}
	st.scratch.Clear()
	return st.scratch
}

// groupState backs the surfaces PopGroup hands out inside patterns.
type groupState struct {
	img *ebiten.Image
}

func (g *groupState) Release() error {
	if g.img != nil {
		g.img.Deallocate()
		g.img = nil
	}
	return nil
}

// Create implements render.Lifecycle.
func (b *Backend) Create(desc render.SurfaceDescriptor) (*render.Surface, error) {
	s, err := render.NewSurface(desc)
	if err != nil {
		return nil, err
	}
	img := ebiten.NewImage(s.Width, s.Height)
	img.WritePixels(packed(s))
	s.State = &surfaceState{
		canvas: render.NewCanvas(),
		width:  s.Width,
		height: s.Height,
		img:    img,
	}
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

// Image returns the ebiten image behind s, or nil when s is not a live
// surface of this backend.
func (b *Backend) Image(s *render.Surface) *ebiten.Image {
	if st := b.state(s); st != nil {
		return st.img
	}
	return nil
}

// Sync copies the GPU contents of s into its pixel buffer. It must run
// inside the game loop.
func (b *Backend) Sync(s *render.Surface) error {
	st, err := b.checked(s)
	if err != nil {
		return err
	}
	buf := make([]byte, 4*s.Width*s.Height)
	st.img.ReadPixels(buf)
	unpack(s, buf)
	return nil
}

// Upload replaces the GPU contents of s with its pixel buffer.
func (b *Backend) Upload(s *render.Surface) error {
	st, err := b.checked(s)
	if err != nil {
		return err
	}
	st.img.WritePixels(packed(s))
	return nil
}

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

// packed returns the surface pixels without row padding.
func packed(s *render.Surface) []byte {
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

func unpack(s *render.Surface, buf []byte) {
	row := 4 * s.Width
	for y := 0; y < s.Height; y++ {
		copy(s.Pix[y*s.Stride:y*s.Stride+row], buf[y*row:])
	}
}

// imageOf returns the ebiten image behind a pattern surface, if any.
func imageOf(s *render.Surface) *ebiten.Image {
	switch st := s.State.(type) {
	case *surfaceState:
		return st.img
	case *groupState:
		return st.img
	}
	return nil
}
