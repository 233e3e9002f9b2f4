package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/opd-ai/go-xui/pkg/xui"
)

func TestVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-v"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run(-v) = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), Version) {
		t.Errorf("stdout = %q, want the version", stdout.String())
	}
}

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	f, err := parseFlags([]string{"-png", "out", "-frames", "3", "-backend", "gpu"}, &stderr)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if f.sink != "png" || f.pngDir != "out" || f.frames != 3 || f.backend != "gpu" {
		t.Errorf("flags = %+v", f)
	}

	if _, err := parseFlags([]string{"stray"}, &stderr); err == nil {
		t.Error("positional argument accepted")
	}
	if _, err := parseFlags([]string{"-nope"}, &stderr); err == nil {
		t.Error("unknown flag accepted")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xui.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPrintConfig(t *testing.T) {
	path := writeConfig(t, "[window]\nwidth = 123\n")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-c", path, "-print-config"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "123") {
		t.Errorf("printed config lacks the width:\n%s", stdout.String())
	}
}

func TestMissingConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", filepath.Join(t.TempDir(), "missing.toml")}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}

func TestRunFramesToPNG(t *testing.T) {
	dir := t.TempDir()
	scene := filepath.Join(dir, "scene.lua")
	if err := os.WriteFile(scene, []byte(`
function xui_frame(n)
  xui.rect_filled(0, 0, 8, 8, 0xff0000ff)
end
`), 0o644); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, "[window]\nwidth = 16\nheight = 16\nfps = 100\n")
	frames := filepath.Join(dir, "frames")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", path, "-scene", scene, "-png", frames, "-frames", "2"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	entries, err := os.ReadDir(frames)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("wrote %d frames, want 2", len(entries))
	}
}

func TestWaitStopsOnSignal(t *testing.T) {
	path := writeConfig(t, "[window]\nwidth = 8\nheight = 8\nfps = 100\n[present]\nsink = \"none\"\n")
	engine, err := xui.NewFromFile(path, &xui.Options{Metrics: xui.NewMetrics()})
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Start(); err != nil {
		t.Fatal(err)
	}
	sigCh := make(chan os.Signal, 2)
	if sceneSignal != nil {
		sigCh <- sceneSignal
	}
	sigCh <- syscall.SIGTERM
	if code := wait(engine, sigCh, xui.NopLogger()); code != 0 {
		t.Errorf("wait() = %d, want 0", code)
	}
	if engine.IsRunning() {
		t.Error("engine still running after SIGTERM")
	}
}
