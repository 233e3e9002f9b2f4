// Package scene runs Lua scripts that describe each frame as a list of
// drawing commands.
//
// A script draws through the global xui table. Calls made while the chunk
// itself runs form a static layer repeated every frame; the optional
// global functions xui_startup, xui_frame(frame) and xui_shutdown run at
// the matching points of the scene's life.
package scene

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-xui/internal/command"
	"github.com/opd-ai/go-xui/internal/render"
)

// Hook function names.
const (
	HookStartup  = "xui_startup"
	HookFrame    = "xui_frame"
	HookShutdown = "xui_shutdown"
)

// FrameInfo is published to the script as xui.frame, xui.width,
// xui.height and xui.time before each frame.
type FrameInfo struct {
	Number  int64
	Width   int
	Height  int
	Elapsed time.Duration
}

// Scene owns a Lua runtime and the script loaded into it.
type Scene struct {
	config   RuntimeConfig
	logger   *slog.Logger
	images   *render.ImageCache
	textSize int

	mu      sync.Mutex
	runtime *Runtime
	api     *rt.Table
	path    string
	name    string
	code    []byte
	dir     string
	static  []command.Command
	target  *[]command.Command
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRuntimeConfig sets the execution limits.
func WithRuntimeConfig(cfg RuntimeConfig) Option {
	return func(s *Scene) { s.config = cfg }
}

// WithImageCache shares decoded images with other scenes.
func WithImageCache(c *render.ImageCache) Option {
	return func(s *Scene) {
		if c != nil {
			s.images = c
		}
	}
}

// WithTextSize sets the height xui.text uses when the script gives none.
func WithTextSize(px int) Option {
	return func(s *Scene) {
		if px > 0 {
			s.textSize = px
		}
	}
}

// New creates an empty scene. Frame emits nothing until a script is
// loaded.
func New(opts ...Option) *Scene {
	s := &Scene{
		config:   DefaultRuntimeConfig(),
		logger:   slog.New(slog.DiscardHandler),
		images:   render.NewImageCache(),
		textSize: 16,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadFile loads the script at path. Relative image paths resolve against
// the script's directory.
func (s *Scene) LoadFile(path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scene %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(path, code, filepath.Dir(path)); err != nil {
		return err
	}
	s.path = path
	return nil
}

// LoadString loads code under name.
func (s *Scene) LoadString(name, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wd, _ := os.Getwd()
	if err := s.load(name, []byte(code), wd); err != nil {
		return err
	}
	s.path = ""
	return nil
}

// Reload rereads the script file, or re-runs the last string. The old
// script keeps running when the new one fails to load.
func (s *Scene) Reload() error {
	s.mu.Lock()
	path, name, code, dir := s.path, s.name, s.code, s.dir
	s.mu.Unlock()

	if path != "" {
		return s.LoadFile(path)
	}
	if name == "" {
		return fmt.Errorf("scene: nothing loaded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(name, code, dir)
}

// load builds a fresh runtime for code and swaps it in once the chunk and
// its startup hook succeed.
func (s *Scene) load(name string, code []byte, dir string) error {
	r := NewRuntime(s.config)
	prevRuntime, prevAPI, prevDir, prevStatic := s.runtime, s.api, s.dir, s.static

	var static []command.Command
	s.runtime, s.dir = r, dir
	s.api = s.newAPI()
	r.SetGlobal("xui", rt.TableValue(s.api))
	s.target = &static

	err := r.Exec(name, code)
	if err == nil && r.HasFunction(HookStartup) {
		_, err = r.CallFunction(HookStartup)
	}
	s.target = nil
	if err != nil {
		_ = r.Close()
		s.runtime, s.api, s.dir, s.static = prevRuntime, prevAPI, prevDir, prevStatic
		return fmt.Errorf("scene: %w", err)
	}

	if prevRuntime != nil {
		s.shutdown(prevRuntime)
	}
	s.static = static
	s.name, s.code = name, code
	s.logger.Info("scene loaded", "name", name, "static_commands", len(static))
	return nil
}

func (s *Scene) shutdown(r *Runtime) {
	if r.HasFunction(HookShutdown) {
		if _, err := r.CallFunction(HookShutdown); err != nil {
			s.logger.Warn("scene shutdown hook failed", "error", err)
		}
	}
	_ = r.Close()
}

// Frame appends the commands of one frame to dst: the static layer, then
// whatever xui_frame draws.
func (s *Scene) Frame(ctx context.Context, info FrameInfo, dst *command.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runtime == nil {
		return nil
	}

	dst.Push(s.static...)

	s.api.Set(rt.StringValue("frame"), rt.IntValue(info.Number))
	s.api.Set(rt.StringValue("width"), rt.IntValue(int64(info.Width)))
	s.api.Set(rt.StringValue("height"), rt.IntValue(int64(info.Height)))
	s.api.Set(rt.StringValue("time"), rt.FloatValue(info.Elapsed.Seconds()))

	if !s.runtime.HasFunction(HookFrame) {
		return nil
	}
	var cmds []command.Command
	s.target = &cmds
	_, err := s.runtime.CallFunction(HookFrame, rt.IntValue(info.Number))
	s.target = nil
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	dst.Push(cmds...)
	return nil
}

// Path returns the loaded script file, if any.
func (s *Scene) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Output returns what the script printed.
func (s *Scene) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runtime == nil {
		return ""
	}
	return s.runtime.Output()
}

// Close runs the shutdown hook and releases the runtime.
func (s *Scene) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runtime != nil {
		s.shutdown(s.runtime)
		s.runtime, s.api = nil, nil
	}
	s.static = nil
	return nil
}

func (s *Scene) emit(cmd command.Command) {
	if s.target != nil {
		*s.target = append(*s.target, cmd)
	}
}
