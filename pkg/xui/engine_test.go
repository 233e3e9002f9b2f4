package xui

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-xui/internal/config"
	"github.com/opd-ai/go-xui/internal/render"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

const fillRed = `
function xui_frame(n)
  xui.rect_filled(0, 0, 32, 16, "red")
end
`

// frameLog records the pixel at (1,1) of every presented frame.
type frameLog struct {
	mu     sync.Mutex
	pixels []color.RGBA
}

func (f *frameLog) Present(ctx context.Context, s *render.Surface) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pixels = append(f.pixels, s.RGBA().RGBAAt(1, 1))
	return nil
}

func (f *frameLog) snapshot() []color.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]color.RGBA(nil), f.pixels...)
}

func (f *frameLog) last() (color.RGBA, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pixels) == 0 {
		return color.RGBA{}, false
	}
	return f.pixels[len(f.pixels)-1], true
}

func writeScene(t *testing.T, path, code string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}
}

func testConfig(t *testing.T, script string) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Window.Width = 32
	cfg.Window.Height = 16
	cfg.Window.FPS = 200
	cfg.Present.Sink = config.SinkNone
	if script != "" {
		cfg.Scene.Script = filepath.Join(t.TempDir(), "scene.lua")
		writeScene(t, cfg.Scene.Script, script)
	}
	return &cfg
}

func startEngine(t *testing.T, cfg *config.Config, opts *Options) Engine {
	t.Helper()
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	e, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func waitDone(t *testing.T, e Engine) {
	t.Helper()
	select {
	case <-e.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not finish")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEngineRendersFrames(t *testing.T) {
	log := &frameLog{}
	e := startEngine(t, testConfig(t, fillRed), &Options{Frames: 3, Presenter: log})
	waitDone(t, e)

	if e.IsRunning() {
		t.Error("engine still running after the frame limit")
	}
	pixels := log.snapshot()
	if len(pixels) != 3 {
		t.Fatalf("presented %d frames, want 3", len(pixels))
	}
	for i, p := range pixels {
		if p != red {
			t.Errorf("frame %d pixel = %v, want %v", i, p, red)
		}
	}

	st := e.Status()
	if st.Frames != 3 {
		t.Errorf("Status().Frames = %d, want 3", st.Frames)
	}
	if st.ConfigSource != "config" {
		t.Errorf("Status().ConfigSource = %q, want config", st.ConfigSource)
	}
	snap := e.Metrics().Snapshot()
	if snap.Frames != 3 || snap.Starts != 1 {
		t.Errorf("metrics frames=%d starts=%d, want 3 and 1", snap.Frames, snap.Starts)
	}
	if snap.LastCommands != 1 {
		t.Errorf("LastCommands = %d, want 1", snap.LastCommands)
	}
}

func TestEngineWithoutScene(t *testing.T) {
	log := &frameLog{}
	cfg := testConfig(t, "")
	cfg.Window.Background = "#0000ff"
	e := startEngine(t, cfg, &Options{Frames: 1, Presenter: log})
	waitDone(t, e)

	pixels := log.snapshot()
	if len(pixels) != 1 || pixels[0] != blue {
		t.Errorf("pixels = %v, want one blue frame", pixels)
	}
}

func TestSceneErrorReplaysLastFrame(t *testing.T) {
	log := &frameLog{}
	errs := make(chan error, 4)
	cfg := testConfig(t, `
function xui_frame(n)
  if n == 1 then error("boom") end
  if n == 0 then
    xui.rect_filled(0, 0, 32, 16, "red")
  else
    xui.rect_filled(0, 0, 32, 16, "blue")
  end
end
`)
	e, err := New(cfg, &Options{Frames: 3, Presenter: log, Metrics: NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	e.SetErrorHandler(func(err error) { errs <- err })
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)

	want := []color.RGBA{red, red, blue}
	got := log.snapshot()
	if len(got) != len(want) {
		t.Fatalf("presented %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d pixel = %v, want %v", i, got[i], want[i])
		}
	}

	select {
	case err := <-errs:
		var ce *CategorizedError
		if !errors.As(err, &ce) {
			t.Fatalf("handler got %T, want *CategorizedError", err)
		}
		if ce.Category != ErrorCategoryScript {
			t.Errorf("Category = %v, want script", ce.Category)
		}
		if ce.Context["frame"] != "1" {
			t.Errorf("frame context = %q, want 1", ce.Context["frame"])
		}
		if !strings.Contains(ce.Error(), "boom") {
			t.Errorf("error %q does not mention the script error", ce.Error())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not called")
	}

	if n := e.Metrics().Snapshot().SceneErrors; n != 1 {
		t.Errorf("SceneErrors = %d, want 1", n)
	}
	if e.Status().LastError == nil {
		t.Error("Status().LastError is nil")
	}
	if e.ErrorTracker().Stats().Lifetime[ErrorCategoryScript] != 1 {
		t.Error("script error not tracked")
	}
}

func TestCircuitOpensOnRepeatedFailures(t *testing.T) {
	cfg := testConfig(t, `function xui_frame(n) error("always") end`)
	e := startEngine(t, cfg, &Options{
		Frames:         5,
		Presenter:      &frameLog{},
		CircuitBreaker: CircuitBreakerConfig{FailureThreshold: 2, Cooldown: time.Hour},
	})
	waitDone(t, e)

	snap := e.Metrics().Snapshot()
	if snap.SceneErrors != 2 {
		t.Errorf("SceneErrors = %d, want 2", snap.SceneErrors)
	}
	if snap.SceneSkipped != 3 {
		t.Errorf("SceneSkipped = %d, want 3", snap.SceneSkipped)
	}
	if snap.Frames != 5 {
		t.Errorf("Frames = %d, want 5: a failing scene must not stop rendering", snap.Frames)
	}
	if st := e.Status().Circuit; st != CircuitOpen {
		t.Errorf("Circuit = %v, want open", st)
	}
	if h := e.Health(); h.Components["scene"].Status != HealthDegraded {
		t.Errorf("scene health = %v, want degraded", h.Components["scene"].Status)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Window.Width = 0

	e, err := New(cfg, nil)
	if err == nil {
		t.Fatal("New() accepted a zero width")
	}
	if e != nil {
		t.Error("New() returned an engine with an error")
	}
	var ce *CategorizedError
	if !errors.As(err, &ce) || ce.Category != ErrorCategoryConfig {
		t.Errorf("error = %v, want a config error", err)
	}

	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) succeeded")
	}
}

func TestOptionsOverrideConfig(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Present.Sink = "bogus"

	if _, err := New(cfg, &Options{Sink: config.SinkNone}); err != nil {
		t.Errorf("Sink override not applied: %v", err)
	}
	if _, err := New(testConfig(t, ""), &Options{Backend: "vulkan"}); err == nil {
		t.Error("unknown backend override accepted")
	}
}

func TestStartFailsOnMissingScript(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Scene.Script = filepath.Join(t.TempDir(), "missing.lua")

	e, err := New(cfg, &Options{Metrics: NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	err = e.Start()
	if err == nil {
		_ = e.Stop()
		t.Fatal("Start() succeeded without a script file")
	}
	var ce *CategorizedError
	if !errors.As(err, &ce) || ce.Category != ErrorCategoryScript {
		t.Errorf("error = %v, want a script error", err)
	}
	if e.IsRunning() {
		t.Error("engine running after a failed start")
	}
}

func TestStartTwice(t *testing.T) {
	e := startEngine(t, testConfig(t, ""), &Options{Presenter: &frameLog{}})
	if err := e.Start(); err == nil {
		t.Error("second Start() succeeded")
	}
	if err := e.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if e.IsRunning() {
		t.Error("engine running after Stop")
	}
}

func TestStoppedEngine(t *testing.T) {
	e, err := New(testConfig(t, ""), &Options{Metrics: NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Stop(); err != nil {
		t.Errorf("Stop() before Start() = %v", err)
	}
	select {
	case <-e.Done():
	default:
		t.Error("Done() of a stopped engine is not closed")
	}
	if err := e.ReloadScene(); err == nil {
		t.Error("ReloadScene() on a stopped engine succeeded")
	}
	h := e.Health()
	if !h.IsUnhealthy() {
		t.Errorf("Health() = %v, want unhealthy", h.Status)
	}
	if h.Uptime != 0 {
		t.Errorf("Uptime = %v, want 0", h.Uptime)
	}
}

func TestNewFromReader(t *testing.T) {
	toml := `
[window]
width = 16
height = 16
fps = 100

[present]
sink = "none"
`
	e, err := NewFromReader(strings.NewReader(toml), &Options{Frames: 2, Metrics: NewMetrics()})
	if err != nil {
		t.Fatalf("NewFromReader() error = %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)

	st := e.Status()
	if st.ConfigSource != "reader" {
		t.Errorf("ConfigSource = %q, want reader", st.ConfigSource)
	}
	if st.Frames != 2 {
		t.Errorf("Frames = %d, want 2", st.Frames)
	}
	if st.Backend != config.BackendSoftware {
		t.Errorf("Backend = %q, want %q", st.Backend, config.BackendSoftware)
	}

	if _, err := NewFromReader(strings.NewReader("[window\n"), nil); err == nil {
		t.Error("NewFromReader() accepted malformed TOML")
	}
}

func TestNewFromFile(t *testing.T) {
	if _, err := NewFromFile(filepath.Join(t.TempDir(), "missing.toml"), nil); err == nil {
		t.Error("NewFromFile() accepted a missing explicit file")
	}

	path := filepath.Join(t.TempDir(), "xui.toml")
	if err := os.WriteFile(path, []byte("[present]\nsink = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewFromFile(path, nil)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	if got := e.Status().ConfigSource; got != path {
		t.Errorf("ConfigSource = %q, want %q", got, path)
	}
}

func TestReloadScene(t *testing.T) {
	log := &frameLog{}
	cfg := testConfig(t, fillRed)
	cfg.Window.FPS = 100
	e, err := New(cfg, &Options{Presenter: log, Metrics: NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	events := make(chan Event, 16)
	e.SetEventHandler(func(ev Event) { events <- ev })
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	waitFor(t, "a red frame", func() bool { p, ok := log.last(); return ok && p == red })

	writeScene(t, cfg.Scene.Script, `xui.rect_filled(0, 0, 32, 16, "blue")`)
	if err := e.ReloadScene(); err != nil {
		t.Fatalf("ReloadScene() error = %v", err)
	}
	waitFor(t, "a blue frame", func() bool { p, _ := log.last(); return p == blue })

	writeScene(t, cfg.Scene.Script, `this is not lua`)
	if err := e.ReloadScene(); err == nil {
		t.Error("ReloadScene() accepted a broken script")
	}
	time.Sleep(30 * time.Millisecond)
	if p, _ := log.last(); p != blue {
		t.Errorf("pixel after failed reload = %v, want the previous scene", p)
	}

	if n := e.Metrics().Snapshot().SceneReloads; n != 1 {
		t.Errorf("SceneReloads = %d, want 1", n)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventSceneReloaded {
				return
			}
		case <-deadline:
			t.Fatal("no scene_reloaded event")
		}
	}
}

func TestRestart(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Window.FPS = 100
	e := startEngine(t, cfg, &Options{Presenter: &frameLog{}})

	if err := e.Restart(); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if !e.IsRunning() {
		t.Error("engine not running after Restart")
	}
	snap := e.Metrics().Snapshot()
	if snap.Restarts != 1 || snap.Starts != 2 || snap.Stops != 1 {
		t.Errorf("restarts=%d starts=%d stops=%d, want 1, 2, 1", snap.Restarts, snap.Starts, snap.Stops)
	}
}

func TestReloadConfigWhenStopped(t *testing.T) {
	e, err := New(testConfig(t, ""), &Options{Metrics: NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	events := make(chan Event, 4)
	e.SetEventHandler(func(ev Event) { events <- ev })

	if err := e.ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if e.IsRunning() {
		t.Error("ReloadConfig() started a stopped engine")
	}
	if n := e.Metrics().Snapshot().ConfigReloads; n != 1 {
		t.Errorf("ConfigReloads = %d, want 1", n)
	}
	select {
	case ev := <-events:
		if ev.Type != EventConfigReloaded {
			t.Errorf("event = %v, want config_reloaded", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no config_reloaded event")
	}
}

func TestLifecycleEvents(t *testing.T) {
	e, err := New(testConfig(t, ""), &Options{Frames: 1, Presenter: &frameLog{}, Metrics: NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	events := make(chan Event, 8)
	e.SetEventHandler(func(ev Event) { events <- ev })
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)

	seen := map[EventType]bool{}
	deadline := time.After(2 * time.Second)
	for !seen[EventStarted] || !seen[EventStopped] {
		select {
		case ev := <-events:
			seen[ev.Type] = true
		case <-deadline:
			t.Fatalf("events seen = %v, want started and stopped", seen)
		}
	}
}

func TestHandlerPanicsAreRecovered(t *testing.T) {
	cfg := testConfig(t, `function xui_frame(n) error("x") end`)
	e, err := New(cfg, &Options{Frames: 2, Presenter: &frameLog{}, Metrics: NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	called := make(chan struct{}, 8)
	e.SetErrorHandler(func(error) {
		called <- struct{}{}
		panic("handler bug")
	})
	e.SetEventHandler(func(Event) { panic("handler bug") })
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, e)
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not called")
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventStarted, "started"},
		{EventStopped, "stopped"},
		{EventRestarted, "restarted"},
		{EventConfigReloaded, "config_reloaded"},
		{EventSceneReloaded, "scene_reloaded"},
		{EventError, "error"},
		{EventType(100), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.eventType.String(); got != tt.expected {
			t.Errorf("EventType(%d).String() = %q, want %q", tt.eventType, got, tt.expected)
		}
	}
}
