//go:build !noebiten

package xui

import (
	"log/slog"

	"github.com/opd-ai/go-xui/internal/config"
	"github.com/opd-ai/go-xui/internal/present"
	"github.com/opd-ai/go-xui/internal/render"
	"github.com/opd-ai/go-xui/internal/render/gpu"
)

func newGPUBackend(logger *slog.Logger) (render.Backend, error) {
	return gpu.New(gpu.WithLogger(logger)), nil
}

// newWindow opens the ebiten window. Surfaces of the gpu backend are drawn
// without a readback.
func newWindow(cfg *config.Config, backend render.Backend) (windowSink, error) {
	var opts []present.WindowOption
	if src, ok := backend.(present.ImageSource); ok {
		opts = append(opts, present.WithImageSource(src))
	}
	return present.NewWindow(present.WindowConfig{
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		Title:       cfg.Window.Title,
		TPS:         cfg.Window.FPS,
		Transparent: cfg.Window.Transparent,
	}, opts...), nil
}
