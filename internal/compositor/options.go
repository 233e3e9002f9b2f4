package compositor

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/opd-ai/go-xui/internal/render"
)

// ScissorMode selects how a Scissor command combines with the clip.
type ScissorMode int

const (
	// ScissorNest intersects the rectangle with the current clip.
	ScissorNest ScissorMode = iota
	// ScissorReplace intersects the rectangle with the viewport only.
	ScissorReplace
)

// String implements fmt.Stringer.
func (m ScissorMode) String() string {
	switch m {
	case ScissorNest:
		return "nest"
	case ScissorReplace:
		return "replace"
	}
	return "unknown"
}

// ParseScissorMode parses "nest" or "replace".
func ParseScissorMode(s string) (ScissorMode, error) {
	switch s {
	case "nest", "":
		return ScissorNest, nil
	case "replace":
		return ScissorReplace, nil
	}
	return ScissorNest, fmt.Errorf("unknown scissor mode %q", s)
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the logger. Unsupported commands are logged at debug
// level, skipped resources at warn.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScissorMode sets how Scissor commands combine.
func WithScissorMode(m ScissorMode) Option {
	return func(c *Compositor) { c.mode = m }
}

// WithExtendedCommands draws polygons, polylines, curves, arcs,
// multi-color rectangles and images instead of skipping them.
func WithExtendedCommands(on bool) Option {
	return func(c *Compositor) { c.extended = on }
}

// WithBackground sets the color the surface is cleared to each frame.
func WithBackground(bg color.NRGBA) Option {
	return func(c *Compositor) { c.background = bg }
}

// WithFonts sets the font manager Text commands resolve names through.
func WithFonts(fm *render.FontManager) Option {
	return func(c *Compositor) { c.fonts = fm }
}

// WithPresenter sets where finished frames go.
func WithPresenter(p Presenter) Option {
	return func(c *Compositor) { c.presenter = p }
}

// WithDamageTracking records the regions each frame touches.
func WithDamageTracking(on bool) Option {
	return func(c *Compositor) { c.tracking = on }
}
