package xui

import (
	"time"

	"github.com/opd-ai/go-xui/internal/compositor"
)

// DefaultShutdownTimeout bounds how long Stop waits for the frame loop.
const DefaultShutdownTimeout = 5 * time.Second

// Options tunes an engine beyond its configuration file.
type Options struct {
	// FPS overrides window.fps. Zero keeps the configured rate.
	FPS int

	// Frames stops the engine after this many frames. Zero runs until Stop.
	Frames int64

	// Backend overrides render.backend.
	Backend string

	// Sink overrides present.sink.
	Sink string

	// PNGDir overrides present.png_dir.
	PNGDir string

	// Scene overrides scene.script.
	Scene string

	// Presenter replaces the configured sink. The engine does not close it.
	Presenter compositor.Presenter

	// ShutdownTimeout is the maximum time Stop waits. Zero means
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Logger receives engine and component logs. Nil discards them.
	Logger Logger

	// Metrics collects operational metrics. Nil means DefaultMetrics().
	Metrics *Metrics

	// ErrorTracker records every reported error. Nil means a private
	// tracker with default settings.
	ErrorTracker *ErrorTracker

	// CircuitBreaker configures the breaker in front of scene evaluation.
	// The zero value means DefaultCircuitBreakerConfig().
	CircuitBreaker CircuitBreakerConfig

	// WatchScene reloads the scene when its file changes, in addition to
	// scene.watch.
	WatchScene bool

	// WatchDebounce is the quiet period before a watched reload. Zero means
	// the scene package default.
	WatchDebounce time.Duration
}

// DefaultOptions returns the zero Options.
func DefaultOptions() Options {
	return Options{}
}
