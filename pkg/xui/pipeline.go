package xui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/opd-ai/go-xui/internal/command"
	"github.com/opd-ai/go-xui/internal/compositor"
	"github.com/opd-ai/go-xui/internal/config"
	"github.com/opd-ai/go-xui/internal/present"
	"github.com/opd-ai/go-xui/internal/render"
	"github.com/opd-ai/go-xui/internal/render/software"
	"github.com/opd-ai/go-xui/internal/scene"
)

// windowSink is a presenter that owns the frame loop.
type windowSink interface {
	compositor.Presenter
	SetContext(ctx context.Context)
	SetStep(step func(ctx context.Context) error)
	Run() error
}

// pipeline is everything one run of the engine owns.
type pipeline struct {
	cfg     *config.Config
	backend render.Backend
	surface *render.Surface
	comp    *compositor.Compositor
	scene   *scene.Scene
	watcher *scene.Watcher
	sink    compositor.Presenter
	window  windowSink
	closers []func() error

	frame   *command.Buffer
	good    []command.Command
	number  int64
	started time.Time
}

// effectiveConfig applies the option overrides to a copy of cfg and
// validates the result.
func (e *engineImpl) effectiveConfig(cfg *config.Config) (*config.Config, error) {
	c := *cfg
	if e.opts.FPS > 0 {
		c.Window.FPS = e.opts.FPS
	}
	if e.opts.Backend != "" {
		c.Render.Backend = e.opts.Backend
	}
	if e.opts.Sink != "" {
		c.Present.Sink = e.opts.Sink
	}
	if e.opts.PNGDir != "" {
		c.Present.PNGDir = e.opts.PNGDir
	}
	if e.opts.Scene != "" {
		c.Scene.Script = e.opts.Scene
	}
	if e.opts.Presenter != nil && c.Present.Sink == config.SinkWindow && c.Render.Backend != config.BackendGPU {
		c.Present.Sink = config.SinkNone
	}
	result := config.NewValidator().Validate(&c)
	for _, w := range result.Warnings {
		e.logger.Warn("config warning", "field", w.Field, "message", w.Message)
	}
	if err := result.Error(); err != nil {
		return nil, NewCategorizedError(err, ErrorCategoryConfig, SeverityCritical)
	}
	return &c, nil
}

// build creates the pipeline for cfg. On error everything already created
// is released.
func (e *engineImpl) build(cfg *config.Config) (_ *pipeline, err error) {
	p := &pipeline{cfg: cfg, frame: command.NewBuffer(256)}
	defer func() {
		if err != nil {
			_ = p.close(e.logger)
		}
	}()

	if p.backend, err = newBackend(cfg.Render.Backend, e.logger); err != nil {
		return nil, NewCategorizedError(err, ErrorCategoryBackend, SeverityCritical)
	}
	p.surface, err = p.backend.Create(render.NewDescriptor(cfg.Window.Width, cfg.Window.Height))
	if err != nil {
		return nil, NewCategorizedError(fmt.Errorf("create surface: %w", err), ErrorCategoryBackend, SeverityCritical)
	}
	surface, backend := p.surface, p.backend
	p.closers = append(p.closers, func() error { return backend.Destroy(surface) })
	if !cfg.Render.Antialias {
		p.backend.SetAntialias(p.surface, render.AntialiasNone)
	}

	fonts, err := e.fonts(cfg)
	if err != nil {
		return nil, NewCategorizedError(err, ErrorCategoryIO, SeverityCritical)
	}
	if err := e.buildSink(p); err != nil {
		return nil, NewCategorizedError(err, ErrorCategoryPresent, SeverityCritical)
	}

	bg, _ := cfg.BackgroundColor()
	mode, _ := cfg.ScissorMode()
	p.comp, err = compositor.New(p.backend, p.surface,
		compositor.WithLogger(e.logger.With("component", "compositor")),
		compositor.WithScissorMode(mode),
		compositor.WithExtendedCommands(cfg.Render.Extended),
		compositor.WithBackground(bg),
		compositor.WithFonts(fonts),
		compositor.WithPresenter(p.sink),
		compositor.WithDamageTracking(cfg.Render.Damage),
	)
	if err != nil {
		return nil, NewCategorizedError(err, ErrorCategoryBackend, SeverityCritical)
	}
	comp := p.comp
	p.closers = append(p.closers, comp.Close)

	p.scene = scene.New(
		scene.WithLogger(e.logger.With("component", "scene")),
		scene.WithRuntimeConfig(scene.RuntimeConfig{
			CPULimit:    cfg.Scene.CPULimit,
			MemoryLimit: cfg.Scene.MemoryLimit,
		}),
		scene.WithTextSize(cfg.Font.Size),
	)
	sc := p.scene
	p.closers = append(p.closers, sc.Close)
	if cfg.Scene.Script != "" {
		if err := p.scene.LoadFile(cfg.Scene.Script); err != nil {
			return nil, NewCategorizedError(err, ErrorCategoryScript, SeverityCritical)
		}
	}

	if cfg.Scene.Script != "" && (cfg.Scene.Watch || e.opts.WatchScene) {
		p.watcher, err = scene.NewWatcher(cfg.Scene.Script, e.opts.WatchDebounce, e.ReloadScene, func(err error) {
			e.report(err, ErrorCategoryIO, SeverityWarning)
		})
		if err != nil {
			return nil, NewCategorizedError(err, ErrorCategoryIO, SeverityError)
		}
		w := p.watcher
		p.closers = append(p.closers, func() error { w.Stop(); return nil })
	}
	return p, nil
}

// newBackend maps a configured backend name to an implementation.
func newBackend(name string, logger *slog.Logger) (render.Backend, error) {
	l := logger.With("component", "backend")
	switch name {
	case config.BackendSoftware:
		return software.New(software.WithLogger(l)), nil
	case config.BackendGPU:
		return newGPUBackend(l)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// fonts returns a font manager with the configured font loaded and made
// the default.
func (e *engineImpl) fonts(cfg *config.Config) (*render.FontManager, error) {
	fm := render.NewFontManager()
	family, style := render.ParseFontName(cfg.Font.Family)
	if cfg.Font.Path != "" {
		if err := fm.LoadFontFromFile(family, style, cfg.Font.Path); err != nil {
			return nil, err
		}
	}
	if fm.GetFamily(family) == nil {
		e.logger.Warn("font family not available, using fallback", "family", family, "fallback", fm.DefaultFamily())
		return fm, nil
	}
	fm.SetDefaultFamily(family)
	return fm, nil
}

func (e *engineImpl) buildSink(p *pipeline) error {
	cfg := p.cfg
	if e.opts.Presenter != nil {
		p.sink = e.opts.Presenter
		return nil
	}
	switch cfg.Present.Sink {
	case config.SinkNone:
		p.sink = &present.Counter{}
	case config.SinkPNG:
		var opts []present.PNGOption
		if s, ok := p.backend.(present.Syncer); ok {
			opts = append(opts, present.WithSyncer(s))
		}
		png, err := present.NewPNG(cfg.Present.PNGDir, cfg.Present.PNGPattern, opts...)
		if err != nil {
			return err
		}
		p.sink = png
	case config.SinkX11:
		x, err := present.NewX11(present.X11Config{
			Width:       cfg.Window.Width,
			Height:      cfg.Window.Height,
			Title:       cfg.Window.Title,
			SkipTaskbar: cfg.Window.SkipTaskbar,
			SkipPager:   cfg.Window.SkipPager,
		})
		if err != nil {
			return err
		}
		if cfg.Window.Transparent && !x.Composited() {
			e.logger.Warn("no compositing manager, transparency will not show")
		}
		p.sink = x
		p.closers = append(p.closers, x.Close)
	case config.SinkWindow:
		w, err := newWindow(cfg, p.backend)
		if err != nil {
			return err
		}
		p.sink, p.window = w, w
	default:
		return fmt.Errorf("unknown sink %q", cfg.Present.Sink)
	}
	return nil
}

// close releases the pipeline in reverse order of creation.
func (p *pipeline) close(logger *slog.Logger) error {
	var errs []error
	for _, c := range slices.Backward(p.closers) {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	err := errors.Join(errs...)
	if err != nil {
		logger.Warn("pipeline teardown failed", "error", err)
	}
	return err
}

// keep remembers the commands of a successful frame.
func (p *pipeline) keep() {
	p.good = slices.AppendSeq(p.good[:0], p.frame.All())
}

// replay loads the last good frame into the frame buffer.
func (p *pipeline) replay() {
	p.frame.Reset()
	p.frame.Push(p.good...)
}
