//go:build noebiten

package xui

import (
	"fmt"
	"log/slog"

	"github.com/opd-ai/go-xui/internal/config"
	"github.com/opd-ai/go-xui/internal/present"
	"github.com/opd-ai/go-xui/internal/render"
)

var errNoEbiten = fmt.Errorf("built with noebiten: %w", present.ErrUnsupported)

func newGPUBackend(*slog.Logger) (render.Backend, error) { return nil, errNoEbiten }

func newWindow(*config.Config, render.Backend) (windowSink, error) { return nil, errNoEbiten }
