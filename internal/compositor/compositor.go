// Package compositor replays a frame of draw commands onto a surface
// through a render.Backend.
//
// A frame walks the states Start, ClipFull, Clipping/Drawing and End.
// The clip is a single rectangle narrowed by Scissor commands; every draw
// command is culled against it before any backend call is made, and the
// backend's own clip is kept in step so partially visible shapes are cut
// at the pixel level.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"time"

	"github.com/opd-ai/go-xui/internal/command"
	"github.com/opd-ai/go-xui/internal/region"
	"github.com/opd-ai/go-xui/internal/render"
)

// ErrNoBackend is returned by New without a backend or target surface.
var ErrNoBackend = errors.New("compositor: no backend or surface")

// State is the position of the interpreter within a frame.
type State int

const (
	StateStart State = iota
	StateClipFull
	StateClipping
	StateDrawing
	StateEnd
)

var stateNames = [...]string{"start", "clip-full", "clipping", "drawing", "end"}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Presenter publishes a finished frame.
type Presenter interface {
	Present(ctx context.Context, s *render.Surface) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, s *render.Surface) error

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, s *render.Surface) error { return f(ctx, s) }

// historyLimit is the number of damage regions kept before the history is
// collapsed into its bounding box.
const historyLimit = 4096

// defaultTextSize is used for Text commands without a height.
const defaultTextSize = 16

type imageKey struct {
	img  image.Image
	w, h int
}

// Compositor interprets command frames. It is not safe for concurrent
// use; Stats may be read from any goroutine.
type Compositor struct {
	backend render.Backend
	surface *render.Surface
	logger  *slog.Logger

	mode       ScissorMode
	extended   bool
	background color.NRGBA
	fonts      *render.FontManager
	presenter  Presenter
	tracking   bool

	viewport region.Region
	clip     region.Region
	state    State

	damage  *region.List
	history *region.List
	images  map[imageKey]*render.Surface

	fontHandles map[*render.Font]*render.Font

	stats Stats
}

// New creates a compositor drawing onto surface, which must have been
// created by backend.
func New(backend render.Backend, surface *render.Surface, opts ...Option) (*Compositor, error) {
	if backend == nil || surface == nil {
		return nil, ErrNoBackend
	}
	if surface.Destroyed() {
		return nil, fmt.Errorf("compositor: target surface: %w", render.ErrDestroyed)
	}
	damage, err := region.NewList(0)
	if err != nil {
		return nil, err
	}
	history, err := region.NewList(0)
	if err != nil {
		return nil, err
	}
	c := &Compositor{
		backend:    backend,
		surface:    surface,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		background: color.NRGBA{A: 255},
		viewport:   surface.Bounds(),
		damage:     damage,
		history:    history,
		images:     make(map[imageKey]*render.Surface),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.clip = c.viewport
	return c, nil
}

// Backend returns the backend the compositor drives.
func (c *Compositor) Backend() render.Backend { return c.backend }

// Surface returns the target surface.
func (c *Compositor) Surface() *render.Surface { return c.surface }

// Viewport returns the target surface bounds.
func (c *Compositor) Viewport() region.Region { return c.viewport }

// Clip returns the current clip rectangle.
func (c *Compositor) Clip() region.Region { return c.clip }

// State returns the interpreter state. It is StateEnd between frames.
func (c *Compositor) State() State { return c.state }

// Stats returns the frame counters.
func (c *Compositor) Stats() *Stats { return &c.stats }

// Damage returns the regions touched by the last frame. It is only filled
// when damage tracking is enabled and stays valid until the next Render.
func (c *Compositor) Damage() *region.List { return c.damage }

// History returns the damage accumulated over every frame since the last
// ClearHistory.
func (c *Compositor) History() *region.List { return c.history }

// ClearHistory forgets accumulated damage.
func (c *Compositor) ClearHistory() { c.history.Clear() }

// Render runs one frame: clear, reset the clip to the viewport, replay
// src, present once and reset src. src is reset even when the frame is
// aborted by an error.
func (c *Compositor) Render(ctx context.Context, src command.Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer src.Reset()

	c.state = StateStart
	c.damage.Clear()
	if err := c.clear(); err != nil {
		c.state = StateEnd
		c.stats.aborted.Add(1)
		return err
	}

	c.state = StateClipFull
	c.clip = c.viewport
	if err := c.syncClip(); err != nil {
		c.state = StateEnd
		c.stats.aborted.Add(1)
		return err
	}

	for cmd := range src.All() {
		c.stats.commands.Add(1)
		if err := c.exec(cmd); err != nil {
			c.state = StateEnd
			c.stats.aborted.Add(1)
			return fmt.Errorf("compositor: %s: %w", cmd.Kind(), err)
		}
	}

	c.state = StateEnd
	if err := c.present(ctx); err != nil {
		c.stats.aborted.Add(1)
		return err
	}
	if c.tracking {
		if err := c.recordHistory(); err != nil {
			return err
		}
	}
	c.stats.recordFrame(time.Since(start))
	return nil
}

// Close destroys the surfaces and fonts created on the backend for
// commands. The target surface stays owned by the caller.
func (c *Compositor) Close() error {
	err := c.releaseImages()
	for base, f := range c.fontHandles {
		c.backend.FontDestroy(f)
		delete(c.fontHandles, base)
	}
	return err
}

func (c *Compositor) releaseImages() error {
	var errs []error
	for k, s := range c.images {
		if err := c.backend.Destroy(s); err != nil {
			errs = append(errs, err)
		}
		delete(c.images, k)
	}
	return errors.Join(errs...)
}

func (c *Compositor) clear() error {
	b, s := c.backend, c.surface
	if err := b.Save(s); err != nil {
		return fmt.Errorf("compositor: clear: %w", err)
	}
	b.ResetClip(s)
	b.SetOperator(s, render.OperatorSource)
	b.SetSourceColor(s, unit(c.background.R), unit(c.background.G), unit(c.background.B), unit(c.background.A))
	b.Paint(s, 1)
	if err := b.Restore(s); err != nil {
		return fmt.Errorf("compositor: clear: %w", err)
	}
	c.addDamage(c.viewport)
	return nil
}

func (c *Compositor) present(ctx context.Context) error {
	c.stats.presents.Add(1)
	if c.presenter == nil {
		return nil
	}
	if err := c.presenter.Present(ctx, c.surface); err != nil {
		return fmt.Errorf("compositor: present: %w", err)
	}
	return nil
}

// scissor narrows (nest) or replaces the clip with r. An empty result
// disables drawing until a later scissor yields a visible rectangle.
func (c *Compositor) scissor(r region.Region) error {
	c.state = StateClipping
	base := c.viewport
	if c.mode == ScissorNest && !c.clip.IsEmpty() {
		base = c.clip
	}
	var next region.Region
	if !region.Intersect(&next, base, r) {
		next = region.New(c.viewport.X, c.viewport.Y, 0, 0)
	}
	if next.Equal(c.clip) {
		return nil
	}
	c.clip = next
	c.stats.scissors.Add(1)
	c.addDamage(next)
	return c.syncClip()
}

// syncClip mirrors the clip rectangle into the backend.
func (c *Compositor) syncClip() error {
	b, s := c.backend, c.surface
	b.ResetClip(s)
	b.NewPath(s)
	b.Rectangle(s, float64(c.clip.X), float64(c.clip.Y), float64(c.clip.W), float64(c.clip.H))
	if err := b.Clip(s); err != nil {
		return fmt.Errorf("compositor: clip: %w", err)
	}
	return nil
}

func (c *Compositor) addDamage(r region.Region) {
	if !c.tracking || r.IsEmpty() {
		return
	}
	if err := c.damage.Add(r); err != nil {
		c.logger.Warn("damage list full", "error", err)
	}
}

func (c *Compositor) recordHistory() error {
	if c.history.Len()+c.damage.Len() > historyLimit {
		bounds, ok := c.history.Bounds()
		c.history.Clear()
		if ok {
			if err := c.history.Add(bounds); err != nil {
				return err
			}
		}
	}
	if err := region.Merge(c.history, c.damage); err != nil {
		return fmt.Errorf("compositor: damage history: %w", err)
	}
	return nil
}

func unit(v uint8) float64 { return float64(v) / 255 }
