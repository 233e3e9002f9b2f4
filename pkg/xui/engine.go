package xui

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"

	"github.com/opd-ai/go-xui/internal/config"
)

// Engine renders a scene frame after frame. It is safe for concurrent use.
type Engine interface {
	// Start builds the pipeline and begins the frame loop in the
	// background. It fails if the engine is running or the pipeline cannot
	// be built.
	Start() error

	// Stop ends the frame loop and releases the pipeline. Calling it on a
	// stopped engine is a no-op.
	Stop() error

	// Restart stops, reloads the configuration from its source and starts
	// again. On failure the engine is left stopped.
	Restart() error

	// ReloadConfig reloads the configuration from its source. A running
	// engine restarts with it; on failure the previous configuration stays.
	ReloadConfig() error

	// ReloadScene rereads the scene script without stopping. On failure
	// the previous script keeps running.
	ReloadScene() error

	// IsRunning reports whether the frame loop is active.
	IsRunning() bool

	// Done is closed when the current run ends, by Stop, by a closed
	// window or after Options.Frames frames.
	Done() <-chan struct{}

	Status() Status

	// SetErrorHandler registers a callback for runtime errors. Panics in
	// the handler are recovered.
	SetErrorHandler(handler ErrorHandler)

	SetEventHandler(handler EventHandler)

	Health() HealthCheck

	// Metrics returns the collector. Use RegisterExpvar to publish it.
	Metrics() *Metrics

	// ErrorTracker returns the tracker every reported error goes to.
	ErrorTracker() *ErrorTracker
}

// New creates an engine for cfg. The engine is not started. Restart and
// ReloadConfig revalidate the same cfg.
func New(cfg *config.Config, opts *Options) (Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	snapshot := *cfg
	return newEngine(cfg, opts, "config", func() (*config.Config, error) {
		c := snapshot
		return &c, nil
	})
}

// NewFromFile creates an engine from a TOML file. An empty path means
// config.DefaultPath.
//
//	e, err := xui.NewFromFile("", nil)
func NewFromFile(path string, opts *Options) (Engine, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	source := path
	if source == "" {
		if source, err = config.DefaultPath(); err != nil {
			source = "defaults"
		}
	}
	return newEngine(cfg, opts, source, func() (*config.Config, error) {
		return config.Load(path)
	})
}

// NewFromFS creates an engine from a configuration file in fsys, which
// can be an embed.FS. A relative scene.script is read from disk, not
// from fsys.
func NewFromFS(fsys fs.FS, path string, opts *Options) (Engine, error) {
	cfg, err := config.ParseFromFS(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("parse config from FS: %w", err)
	}
	return newEngine(cfg, opts, "embedded:"+path, func() (*config.Config, error) {
		return config.ParseFromFS(fsys, path)
	})
}

// NewFromReader creates an engine from TOML read from r. The content is
// kept for reloads.
func NewFromReader(r io.Reader, opts *Options) (Engine, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.ParseReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return newEngine(cfg, opts, "reader", func() (*config.Config, error) {
		return config.ParseReader(bytes.NewReader(content))
	})
}

func newEngine(cfg *config.Config, opts *Options, source string, loader func() (*config.Config, error)) (Engine, error) {
	if opts == nil {
		def := DefaultOptions()
		opts = &def
	}
	e := &engineImpl{
		cfg:          cfg,
		opts:         *opts,
		configSource: source,
		configLoader: loader,
		logger:       toSlog(opts.Logger),
		metrics:      opts.Metrics,
		errors:       opts.ErrorTracker,
	}
	cb := opts.CircuitBreaker
	onChange := cb.OnStateChange
	cb.OnStateChange = func(from, to CircuitState) {
		e.logger.Warn("scene circuit changed", "from", from, "to", to)
		if onChange != nil {
			onChange(from, to)
		}
	}
	e.breaker = NewCircuitBreaker(cb)
	if e.metrics == nil {
		e.metrics = DefaultMetrics()
	}
	if e.errors == nil {
		e.errors = NewErrorTracker(DefaultErrorTrackerConfig())
	}
	if _, err := e.effectiveConfig(cfg); err != nil {
		return nil, err
	}
	return e, nil
}
