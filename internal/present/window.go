//go:build !noebiten

package present

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-xui/internal/render"
)

// ErrWindowTerminated is returned by Run when the window stops because its
// context was canceled.
var ErrWindowTerminated = errors.New("present: window terminated")

// WindowConfig describes the window.
type WindowConfig struct {
	Width  int
	Height int
	Title  string
	// TPS is the number of frame steps per second. Zero keeps ebiten's
	// default of 60.
	TPS int
	// Transparent asks for a transparent framebuffer so the background
	// alpha reaches the desktop. It needs a compositing window manager.
	Transparent bool
}

// ImageSource resolves surfaces that live on the GPU. The gpu backend
// implements it.
type ImageSource interface {
	Image(s *render.Surface) *ebiten.Image
}

// Window is an ebiten.Game. Every tick runs the frame step, which renders
// and presents into the window; Draw shows the last presented surface.
type Window struct {
	cfg     WindowConfig
	images  ImageSource
	onError func(error)

	mu      sync.RWMutex
	step    func(ctx context.Context) error
	ctx     context.Context
	running bool

	shown  *ebiten.Image
	upload *ebiten.Image
}

var _ ebiten.Game = (*Window)(nil)

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithImageSource draws GPU surfaces directly instead of uploading their
// pixel buffers.
func WithImageSource(src ImageSource) WindowOption {
	return func(w *Window) { w.images = src }
}

// WithErrorHandler receives errors returned by the frame step. The loop
// keeps running.
func WithErrorHandler(fn func(error)) WindowOption {
	return func(w *Window) { w.onError = fn }
}

// NewWindow creates a window; it is not shown until Run.
func NewWindow(cfg WindowConfig, opts ...WindowOption) *Window {
	if cfg.Width <= 0 {
		cfg.Width = 400
	}
	if cfg.Height <= 0 {
		cfg.Height = 300
	}
	if cfg.Title == "" {
		cfg.Title = "xui-go"
	}
	w := &Window{cfg: cfg}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetStep installs the function run on every tick.
func (w *Window) SetStep(step func(ctx context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = step
}

// SetContext sets the context handed to the step. Canceling it closes the
// window.
func (w *Window) SetContext(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = ctx
}

// Present implements compositor.Presenter. It must be called from the
// frame step.
func (w *Window) Present(ctx context.Context, s *render.Surface) error {
	if s.Destroyed() {
		return render.ErrDestroyed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.images != nil {
		if img := w.images.Image(s); img != nil {
			w.shown = img
			return nil
		}
	}
	if w.upload == nil || w.upload.Bounds().Dx() != s.Width || w.upload.Bounds().Dy() != s.Height {
		if w.upload != nil {
			w.upload.Deallocate()
		}
		w.upload = ebiten.NewImage(s.Width, s.Height)
	}
	w.upload.WritePixels(rgbaBytes(s))
	w.shown = w.upload
	return nil
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	w.mu.RLock()
	ctx, step := w.ctx, w.step
	w.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return ErrWindowTerminated
	default:
	}
	if step == nil {
		return nil
	}
	if err := step(ctx); err != nil && w.onError != nil {
		w.onError(err)
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.shown == nil {
		return
	}
	screen.DrawImage(w.shown, &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy})
}

// Layout implements ebiten.Game. The logical screen is the surface size.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.cfg.Width, w.cfg.Height
}

// Run shows the window and blocks until it is closed or the context is
// canceled. Cancellation returns nil.
func (w *Window) Run() error {
	ebiten.SetWindowSize(w.cfg.Width, w.cfg.Height)
	ebiten.SetWindowTitle(w.cfg.Title)
	if w.cfg.TPS > 0 {
		ebiten.SetTPS(w.cfg.TPS)
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	err := ebiten.RunGameWithOptions(w, &ebiten.RunGameOptions{ScreenTransparent: w.cfg.Transparent})

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	if errors.Is(err, ErrWindowTerminated) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("present: window: %w", err)
	}
	return nil
}

// IsRunning reports whether the game loop is active.
func (w *Window) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Config returns the window configuration after defaults.
func (w *Window) Config() WindowConfig { return w.cfg }
