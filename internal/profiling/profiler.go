// Package profiling writes pprof profiles and watches the heap of a long
// running compositor.
package profiling

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Config names the profile files. An empty path disables that profile.
type Config struct {
	CPUPath string
	MemPath string
}

// Enabled reports whether any profile is configured.
func (c Config) Enabled() bool {
	return c.CPUPath != "" || c.MemPath != ""
}

// Profiler records a CPU profile between Start and Stop and writes a heap
// profile at Stop.
type Profiler struct {
	mu      sync.Mutex
	cfg     Config
	cpuFile *os.File
	running bool
	logger  *slog.Logger
}

// New creates a stopped profiler. A nil logger discards.
func New(cfg Config, logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Profiler{cfg: cfg, logger: logger}
}

// Start begins CPU profiling when a CPU path is configured.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("profiler already running")
	}
	if p.cfg.CPUPath != "" {
		f, err := os.Create(p.cfg.CPUPath)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("start cpu profile: %w", err)
		}
		p.cpuFile = f
		p.logger.Info("cpu profiling", "path", p.cfg.CPUPath)
	}
	p.running = true
	return nil
}

// Stop ends CPU profiling and writes the heap profile.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return errors.New("profiler not running")
	}
	p.running = false

	var errs []error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cpu profile: %w", err))
		}
		p.cpuFile = nil
	}
	if p.cfg.MemPath != "" {
		if err := WriteHeapProfile(p.cfg.MemPath); err != nil {
			errs = append(errs, err)
		} else {
			p.logger.Info("heap profile written", "path", p.cfg.MemPath)
		}
	}
	return errors.Join(errs...)
}

// IsRunning reports whether Start has been called without Stop.
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile collects garbage and writes a heap profile to path.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}
	return nil
}
