package xui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-xui/internal/config"
	"github.com/opd-ai/go-xui/internal/scene"
)

// engineImpl is the Engine behind every constructor.
type engineImpl struct {
	cfg          *config.Config
	opts         Options
	configSource string
	configLoader func() (*config.Config, error)

	logger  *slog.Logger
	metrics *Metrics
	errors  *ErrorTracker
	breaker *CircuitBreaker

	pipe *pipeline

	running   atomic.Bool
	startTime time.Time
	frames    atomic.Uint64
	lastFrame atomic.Int64 // unix nanoseconds
	lastError atomic.Value // error

	errorHandler ErrorHandler
	eventHandler EventHandler

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

var _ Engine = (*engineImpl)(nil)

func (e *engineImpl) Start() error {
	e.mu.Lock()
	if e.running.Load() {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}

	cfg, err := e.effectiveConfig(e.cfg)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	p, err := e.build(cfg)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("failed to initialize: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.pipe, e.cancel, e.done = p, cancel, done
	e.breaker.Reset()
	e.frames.Store(0)
	e.lastFrame.Store(0)
	e.startTime = time.Now()
	p.started = e.startTime
	e.running.Store(true)
	e.metrics.IncrementStarts()
	e.metrics.SetRunning(true)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(done)

		if err := e.loop(ctx, p); err != nil {
			e.report(err, ErrorCategoryPresent, SeverityCritical)
		}
		cancel()

		e.mu.Lock()
		if e.pipe == p {
			e.pipe = nil
		}
		e.mu.Unlock()
		// The watcher may be reloading; close waits for it.
		if err := p.close(e.logger); err != nil {
			e.report(err, ErrorCategoryBackend, SeverityWarning)
		}
		e.running.Store(false)

		e.metrics.SetRunning(false)
		e.emitEvent(EventStopped, "engine stopped")
	}()

	e.mu.Unlock()
	e.logger.Info("engine started",
		"backend", p.backend.Name(),
		"sink", cfg.Present.Sink,
		"size", fmt.Sprintf("%dx%d", cfg.Window.Width, cfg.Window.Height),
		"fps", cfg.Window.FPS,
		"scene", cfg.Scene.Script)
	e.emitEvent(EventStarted, "engine started")
	return nil
}

// loop runs frames until ctx is canceled. A window sink drives the frames
// itself; every other sink is paced by a ticker.
func (e *engineImpl) loop(ctx context.Context, p *pipeline) error {
	if p.watcher != nil {
		p.watcher.Start()
	}
	if p.window != nil {
		p.window.SetContext(ctx)
		p.window.SetStep(func(ctx context.Context) error { return e.step(ctx, p) })
		return p.window.Run()
	}

	ticker := time.NewTicker(time.Second / time.Duration(p.cfg.Window.FPS))
	defer ticker.Stop()
	for {
		_ = e.step(ctx, p)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// step renders one frame. Scene failures replay the last good frame;
// compositor failures are returned after being reported.
func (e *engineImpl) step(ctx context.Context, p *pipeline) error {
	if ctx.Err() != nil {
		return nil
	}
	start := time.Now()
	info := scene.FrameInfo{
		Number:  p.number,
		Width:   p.cfg.Window.Width,
		Height:  p.cfg.Window.Height,
		Elapsed: start.Sub(p.started),
	}

	p.frame.Reset()
	err := e.breaker.Execute(func() error {
		defer func(t time.Time) { e.metrics.RecordSceneLatency(time.Since(t)) }(time.Now())
		return p.scene.Frame(ctx, info, p.frame)
	})
	switch {
	case err == nil:
		p.keep()
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, ErrCircuitOpen):
		e.metrics.IncrementSceneSkipped()
		p.replay()
	default:
		e.metrics.IncrementSceneErrors()
		e.report(err, ErrorCategoryScript, SeverityError, "frame", fmt.Sprint(p.number))
		p.replay()
	}

	n := p.frame.Len()
	if err := p.comp.Render(ctx, p.frame); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		e.metrics.IncrementFrameErrors()
		e.report(err, ErrorCategoryFrame, SeverityError, "frame", fmt.Sprint(p.number))
		return err
	}

	p.number++
	e.metrics.RecordFrame(time.Since(start), n)
	e.lastFrame.Store(time.Now().UnixNano())
	if total := e.frames.Add(1); e.opts.Frames > 0 && int64(total) >= e.opts.Frames {
		e.mu.RLock()
		cancel := e.cancel
		e.mu.RUnlock()
		if cancel != nil {
			cancel()
		}
	}
	return nil
}

func (e *engineImpl) Stop() error {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	wasRunning := e.running.Load()
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timeout := e.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	select {
	case <-done:
		if wasRunning {
			e.metrics.IncrementStops()
		}
		return nil
	case <-time.After(timeout):
		err := fmt.Errorf("shutdown timeout after %v: frame loop did not stop", timeout)
		e.report(err, ErrorCategoryUnknown, SeverityCritical)
		return err
	}
}

func (e *engineImpl) Restart() error {
	if err := e.Stop(); err != nil {
		return fmt.Errorf("stop failed: %w", err)
	}
	if err := e.loadConfig(); err != nil {
		return err
	}
	if err := e.Start(); err != nil {
		wrapped := fmt.Errorf("start failed: %w", err)
		e.report(wrapped, ErrorCategoryConfig, SeverityCritical)
		return wrapped
	}
	e.metrics.IncrementRestarts()
	e.emitEvent(EventRestarted, "engine restarted")
	return nil
}

func (e *engineImpl) ReloadConfig() error {
	if !e.running.Load() {
		return e.loadConfig()
	}
	e.mu.RLock()
	prev := e.cfg
	e.mu.RUnlock()
	if err := e.Restart(); err != nil {
		e.mu.Lock()
		e.cfg = prev
		e.mu.Unlock()
		if e.Start() == nil {
			e.logger.Warn("config reload failed, previous configuration restored", "error", err)
		}
		return err
	}
	return nil
}

// loadConfig replaces the configuration from its source after validating
// it with the current options.
func (e *engineImpl) loadConfig() error {
	if e.configLoader == nil {
		return fmt.Errorf("no config loader available")
	}
	cfg, err := e.configLoader()
	if err == nil {
		_, err = e.effectiveConfig(cfg)
	}
	if err != nil {
		wrapped := fmt.Errorf("config reload failed: %w", err)
		e.report(wrapped, ErrorCategoryConfig, SeverityError)
		return wrapped
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	e.metrics.IncrementConfigReloads()
	e.emitEvent(EventConfigReloaded, "configuration reloaded from "+e.configSource)
	return nil
}

func (e *engineImpl) ReloadScene() error {
	e.mu.RLock()
	p := e.pipe
	e.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("engine not running")
	}
	if p.scene.Path() == "" {
		return fmt.Errorf("no scene script configured")
	}
	if err := p.scene.Reload(); err != nil {
		e.report(err, ErrorCategoryScript, SeverityError)
		return err
	}
	e.breaker.Reset()
	e.metrics.IncrementSceneReloads()
	e.emitEvent(EventSceneReloaded, "scene reloaded from "+p.scene.Path())
	return nil
}

func (e *engineImpl) IsRunning() bool {
	return e.running.Load()
}

func (e *engineImpl) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.done
}

func (e *engineImpl) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := Status{
		Running:      e.running.Load(),
		StartTime:    e.startTime,
		Frames:       e.frames.Load(),
		LastError:    e.getError(),
		ConfigSource: e.configSource,
		Scene:        e.cfg.Scene.Script,
		Backend:      e.cfg.Render.Backend,
		Circuit:      e.breaker.State(),
	}
	if e.opts.Scene != "" {
		st.Scene = e.opts.Scene
	}
	if e.pipe != nil {
		st.Backend = e.pipe.backend.Name()
	}
	return st
}

func (e *engineImpl) SetErrorHandler(handler ErrorHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errorHandler = handler
}

func (e *engineImpl) SetEventHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eventHandler = handler
}

func (e *engineImpl) Metrics() *Metrics { return e.metrics }

func (e *engineImpl) ErrorTracker() *ErrorTracker { return e.errors }

func (e *engineImpl) getError() error {
	if err, ok := e.lastError.Load().(error); ok {
		return err
	}
	return nil
}

// report categorizes err, records it and hands it to the error handler.
// kv are context pairs.
func (e *engineImpl) report(err error, category ErrorCategory, severity ErrorSeverity, kv ...string) {
	var ce *CategorizedError
	if !errors.As(err, &ce) {
		ce = NewCategorizedError(err, category, severity)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		ce.WithContext(kv[i], kv[i+1])
	}
	e.lastError.Store(error(ce))
	e.errors.Record(ce)
	e.metrics.IncrementErrors()
	e.logger.Error("engine error", "category", ce.Category, "severity", ce.Severity, "error", ce.Err)

	e.mu.RLock()
	handler := e.errorHandler
	e.mu.RUnlock()
	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("error handler panicked", "panic", r, "original_error", ce)
				}
			}()
			handler(ce)
		}()
	}
	e.emitEvent(EventError, ce.Error())
}

func (e *engineImpl) emitEvent(eventType EventType, message string) {
	e.metrics.IncrementEventsEmitted()

	e.mu.RLock()
	handler := e.eventHandler
	e.mu.RUnlock()
	if handler == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("event handler panicked", "panic", r, "event", eventType)
			}
		}()
		handler(Event{Type: eventType, Timestamp: time.Now(), Message: message})
	}()
}

func (e *engineImpl) Health() HealthCheck {
	now := time.Now()
	running := e.running.Load()
	components := make(map[string]ComponentHealth)

	e.mu.RLock()
	var uptime time.Duration
	if running && !e.startTime.IsZero() {
		uptime = now.Sub(e.startTime)
	}
	e.mu.RUnlock()

	if running {
		components["engine"] = ComponentHealth{Status: HealthOK, Message: "frame loop running", LastUpdated: now}
	} else {
		components["engine"] = ComponentHealth{Status: HealthUnhealthy, Message: "engine is not running", LastUpdated: now}
	}

	switch state := e.breaker.State(); state {
	case CircuitClosed:
		components["scene"] = ComponentHealth{Status: HealthOK, Message: "scene evaluating", LastUpdated: now}
	default:
		components["scene"] = ComponentHealth{
			Status:      HealthDegraded,
			Message:     fmt.Sprintf("scene circuit %s, replaying last good frame", state),
			LastUpdated: now,
		}
	}

	frames := e.frames.Load()
	last := time.Unix(0, e.lastFrame.Load())
	switch {
	case frames > 0:
		components["compositor"] = ComponentHealth{
			Status:      HealthOK,
			Message:     fmt.Sprintf("%d frames rendered", frames),
			LastUpdated: last,
		}
	case running:
		components["compositor"] = ComponentHealth{Status: HealthDegraded, Message: "no frame rendered yet", LastUpdated: now}
	default:
		components["compositor"] = ComponentHealth{Status: HealthOK, Message: "idle", LastUpdated: now}
	}

	if rate := e.errors.ErrorRate(ErrorCategoryUnknown, time.Minute); rate > 0 {
		components["errors"] = ComponentHealth{
			Status:      HealthDegraded,
			Message:     fmt.Sprintf("%.2f errors/s over the last minute", rate),
			LastUpdated: now,
		}
	} else {
		components["errors"] = ComponentHealth{Status: HealthOK, Message: "no recent errors", LastUpdated: now}
	}

	status := worst(components)
	message := "all components healthy"
	switch status {
	case HealthUnhealthy:
		message = "engine is not running"
	case HealthDegraded:
		message = "running with problems"
	}
	return HealthCheck{
		Status:     status,
		Timestamp:  now,
		Uptime:     uptime,
		Components: components,
		Message:    message,
	}
}
