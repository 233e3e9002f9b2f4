// Command xui-go renders a Lua scene through the xui compositor into a
// window, an X11 window, a PNG sequence or nowhere.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-xui/internal/config"
	"github.com/opd-ai/go-xui/internal/profiling"
	"github.com/opd-ai/go-xui/pkg/xui"
)

// Version is the current version of xui-go.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	configPath  string
	scene       string
	backend     string
	sink        string
	pngDir      string
	fps         int
	frames      int64
	watch       bool
	version     bool
	debug       bool
	jsonLogs    bool
	printConfig bool
	debugAddr   string
	cpuProfile  string
	memProfile  string
	memWatch    time.Duration
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("xui-go", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "c", "", "Path to the TOML configuration (default ~/.config/xui/xui.toml)")
	fs.StringVar(&f.scene, "scene", "", "Lua scene script, overrides scene.script")
	fs.StringVar(&f.backend, "backend", "", "Render backend: software or gpu")
	fs.StringVar(&f.sink, "sink", "", "Frame sink: window, x11, png or none")
	fs.StringVar(&f.pngDir, "png", "", "Write frames as PNG files into this directory")
	fs.IntVar(&f.fps, "fps", 0, "Frame rate, overrides window.fps")
	fs.Int64Var(&f.frames, "frames", 0, "Exit after this many frames")
	fs.BoolVar(&f.watch, "watch", false, "Reload the scene when its file changes")
	fs.BoolVar(&f.version, "v", false, "Print version and exit")
	fs.BoolVar(&f.debug, "debug", false, "Log at debug level")
	fs.BoolVar(&f.jsonLogs, "json", false, "Log JSON")
	fs.BoolVar(&f.printConfig, "print-config", false, "Print the effective configuration and exit")
	fs.StringVar(&f.debugAddr, "debug-addr", "", "Serve expvar metrics on this address, e.g. localhost:6060")
	fs.StringVar(&f.cpuProfile, "cpuprofile", "", "Write CPU profile to file, overrides profile.cpu")
	fs.StringVar(&f.memProfile, "memprofile", "", "Write memory profile to file, overrides profile.mem")
	fs.DurationVar(&f.memWatch, "memwatch", 0, "Sample the heap at this interval and warn on growth")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if f.pngDir != "" && f.sink == "" {
		f.sink = config.SinkPNG
	}
	return f, nil
}

func (f *flags) logger(stderr io.Writer) xui.Logger {
	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	if f.jsonLogs {
		return xui.JSONLogger(stderr, level)
	}
	return xui.NewSlogAdapter(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if f.version {
		fmt.Fprintf(stdout, "xui-go version %s\n", Version)
		return 0
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}
	if f.printConfig {
		out, err := config.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Error encoding configuration: %v\n", err)
			return 1
		}
		_, _ = stdout.Write(out)
		return 0
	}

	logger := f.logger(stderr)
	slogger := slog.New(slog.DiscardHandler)
	if a, ok := logger.(*xui.SlogAdapter); ok {
		slogger = a.Slog()
	}

	prof := profiling.Config{CPUPath: cfg.Profile.CPU, MemPath: cfg.Profile.Mem}
	if f.cpuProfile != "" {
		prof.CPUPath = f.cpuProfile
	}
	if f.memProfile != "" {
		prof.MemPath = f.memProfile
	}
	if prof.Enabled() {
		profiler := profiling.New(prof, slogger)
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(stderr, "Failed to start profiling: %v\n", err)
			return 1
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				fmt.Fprintf(stderr, "Warning: failed to stop profiling: %v\n", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if f.memWatch > 0 {
		go profiling.NewWatch(profiling.WatchConfig{Interval: f.memWatch}, slogger).Run(ctx)
	}

	metrics := xui.DefaultMetrics()
	if f.debugAddr != "" {
		metrics.RegisterExpvar()
		srv := &http.Server{Addr: f.debugAddr, Handler: expvar.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("debug server failed", "addr", f.debugAddr, "error", err)
			}
		}()
		defer srv.Close()
	}

	engine, err := xui.NewFromFile(f.configPath, &xui.Options{
		FPS:        f.fps,
		Frames:     f.frames,
		Backend:    f.backend,
		Sink:       f.sink,
		PNGDir:     f.pngDir,
		Scene:      f.scene,
		Logger:     logger,
		Metrics:    metrics,
		WatchScene: f.watch,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error creating engine: %v\n", err)
		return 1
	}
	engine.SetErrorHandler(func(err error) {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	})
	engine.SetEventHandler(func(e xui.Event) {
		logger.Debug("event", "type", e.Type.String(), "message", e.Message)
	})

	if err := engine.Start(); err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, notifySignals...)
	defer signal.Stop(sigCh)

	return wait(engine, sigCh, logger)
}

// wait blocks until the engine finishes or a terminating signal arrives.
// SIGHUP reloads the configuration and sceneSignal the scene.
func wait(engine xui.Engine, sigCh <-chan os.Signal, logger xui.Logger) int {
	for {
		done := engine.Done()
		select {
		case <-done:
			if st := engine.Status(); st.LastError != nil && st.Frames == 0 {
				return 1
			}
			return 0
		case sig := <-sigCh:
			switch {
			case sig == syscall.SIGHUP:
				logger.Info("reloading configuration")
				if err := engine.ReloadConfig(); err != nil {
					logger.Error("reload failed", "error", err)
				}
			case sceneSignal != nil && sig == sceneSignal:
				logger.Info("reloading scene")
				if err := engine.ReloadScene(); err != nil {
					logger.Error("scene reload failed", "error", err)
				}
			default:
				logger.Info("shutting down", "signal", sig.String())
				if err := engine.Stop(); err != nil {
					logger.Error("stop failed", "error", err)
					return 1
				}
				return 0
			}
		}
	}
}
