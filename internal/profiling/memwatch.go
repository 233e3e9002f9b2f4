package profiling

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
)

// Sample is one heap measurement.
type Sample struct {
	Time        time.Time
	HeapAlloc   uint64
	HeapObjects uint64
	Goroutines  int
	NumGC       uint32
}

// ReadSample measures the running process.
func ReadSample() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Sample{
		Time:        time.Now(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		Goroutines:  runtime.NumGoroutine(),
		NumGC:       ms.NumGC,
	}
}

func (s Sample) String() string {
	return fmt.Sprintf("heap %s, %d objects, %d goroutines, %d gc",
		FormatBytes(s.HeapAlloc), s.HeapObjects, s.Goroutines, s.NumGC)
}

// Growth compares the oldest and newest sample in a window.
type Growth struct {
	Span           time.Duration
	HeapDelta      int64
	GoroutineDelta int
	// BytesPerSec is HeapDelta over Span.
	BytesPerSec float64
	// Leak is set when a threshold was crossed; Reason says which.
	Leak   bool
	Reason string
}

// WatchConfig configures a Watch.
type WatchConfig struct {
	// Interval between samples. Default 10s.
	Interval time.Duration
	// Window is the number of samples kept. Default 60.
	Window int
	// HeapRate is the sustained growth in bytes per second reported as a
	// leak. Default 1 MB/s.
	HeapRate int64
	// Goroutines is the net goroutine increase reported as a leak.
	// Default 10.
	Goroutines int
}

// DefaultWatchConfig returns the defaults.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Interval:   10 * time.Second,
		Window:     60,
		HeapRate:   MB,
		Goroutines: 10,
	}
}

// Watch samples the heap periodically. Frames allocate per command (paths,
// glyph images, cached scaled images), so steady growth across frames
// points at a cache or surface that is never released.
type Watch struct {
	cfg    WatchConfig
	logger *slog.Logger
	read   func() Sample

	mu      sync.Mutex
	samples []Sample
	onLeak  func(Growth)
}

// NewWatch creates a watch. Zero fields of cfg take their defaults.
func NewWatch(cfg WatchConfig, logger *slog.Logger) *Watch {
	def := DefaultWatchConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Window < 2 {
		cfg.Window = def.Window
	}
	if cfg.HeapRate <= 0 {
		cfg.HeapRate = def.HeapRate
	}
	if cfg.Goroutines <= 0 {
		cfg.Goroutines = def.Goroutines
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watch{cfg: cfg, logger: logger, read: ReadSample}
}

// OnLeak sets a callback run from the sampling goroutine when Growth
// reports a leak.
func (w *Watch) OnLeak(fn func(Growth)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLeak = fn
}

// Sample takes and keeps one sample.
func (w *Watch) Sample() Sample {
	s := w.read()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	if len(w.samples) > w.cfg.Window {
		w.samples = w.samples[len(w.samples)-w.cfg.Window:]
	}
	return s
}

// Samples returns a copy of the kept samples, oldest first.
func (w *Watch) Samples() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Sample(nil), w.samples...)
}

// Growth analyzes the kept samples. It returns false until two samples
// with distinct times exist.
func (w *Watch) Growth() (Growth, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) < 2 {
		return Growth{}, false
	}
	first, last := w.samples[0], w.samples[len(w.samples)-1]
	span := last.Time.Sub(first.Time)
	if span <= 0 {
		return Growth{}, false
	}

	g := Growth{
		Span:           span,
		HeapDelta:      int64(last.HeapAlloc) - int64(first.HeapAlloc),
		GoroutineDelta: last.Goroutines - first.Goroutines,
	}
	g.BytesPerSec = float64(g.HeapDelta) / span.Seconds()
	switch {
	case g.BytesPerSec > float64(w.cfg.HeapRate):
		g.Leak = true
		g.Reason = fmt.Sprintf("heap growing %s/s over %s", FormatBytes(uint64(g.BytesPerSec)), span.Round(time.Second))
	case g.GoroutineDelta > w.cfg.Goroutines:
		g.Leak = true
		g.Reason = fmt.Sprintf("%d more goroutines over %s", g.GoroutineDelta, span.Round(time.Second))
	}
	return g, true
}

// Run samples every Interval until ctx is done.
func (w *Watch) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.Sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := w.Sample()
			w.logger.Debug("heap sample", "heap", FormatBytes(s.HeapAlloc), "goroutines", s.Goroutines)
			g, ok := w.Growth()
			if !ok || !g.Leak {
				continue
			}
			w.logger.Warn("possible leak", "reason", g.Reason)
			w.mu.Lock()
			fn := w.onLeak
			w.mu.Unlock()
			if fn != nil {
				fn(g)
			}
		}
	}
}

// FormatBytes formats n with a binary unit.
func FormatBytes(n uint64) string {
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
