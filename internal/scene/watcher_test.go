package scene

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherDetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.lua")
	if err := os.WriteFile(path, []byte("-- initial"), 0o644); err != nil {
		t.Fatalf("failed to create scene file: %v", err)
	}

	var reloads atomic.Int32
	var lastError atomic.Value
	w, err := NewWatcher(path, 50*time.Millisecond,
		func() error {
			reloads.Add(1)
			return nil
		},
		func(err error) { lastError.Store(err) },
	)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("-- modified"), 0o644); err != nil {
		t.Fatalf("failed to modify scene file: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := reloads.Load(); got != 1 {
		t.Errorf("got %d reloads, want 1", got)
	}
	if err := lastError.Load(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.lua")
	if err := os.WriteFile(path, []byte("-- scene"), 0o644); err != nil {
		t.Fatalf("failed to create scene file: %v", err)
	}

	var reloads atomic.Int32
	w, err := NewWatcher(path, 50*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.lua"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write other file: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := reloads.Load(); got != 0 {
		t.Errorf("got %d reloads, want 0", got)
	}
}

func TestWatchSceneReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.lua")
	if err := os.WriteFile(path, []byte(`xui.scissor(0, 0, 1, 1)`), 0o644); err != nil {
		t.Fatalf("failed to create scene file: %v", err)
	}
	s := New()
	defer s.Close()
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	errs := make(chan error, 4)
	w, err := WatchScene(s, 50*time.Millisecond, func(err error) { errs <- err })
	if err != nil {
		t.Fatalf("WatchScene: %v", err)
	}
	w.Start()
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("xui.scissor(0, 0, 1, 1)\nxui.scissor(0, 0, 2, 2)"), 0o644); err != nil {
		t.Fatalf("failed to modify scene file: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	select {
	case err := <-errs:
		t.Fatalf("unexpected reload error: %v", err)
	default:
	}
	if got := len(frame(t, s, FrameInfo{})); got != 2 {
		t.Errorf("got %d commands after reload, want 2", got)
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.lua")
	w, err := NewWatcher(path, 0, nil, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if w.debounce != DefaultWatchDebounce {
		t.Errorf("got debounce %v, want %v", w.debounce, DefaultWatchDebounce)
	}
	w.Stop()
	w.Stop()
	w.Start()
}
