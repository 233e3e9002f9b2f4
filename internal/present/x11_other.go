//go:build !linux

package present

import (
	"context"

	"github.com/opd-ai/go-xui/internal/render"
)

// X11 is only available on Linux.
type X11 struct{}

// NewX11 always fails outside Linux.
func NewX11(cfg X11Config) (*X11, error) { return nil, ErrUnsupported }

func (*X11) Composited() bool { return false }

func (*X11) Present(ctx context.Context, s *render.Surface) error { return ErrUnsupported }

func (*X11) Close() error { return nil }
