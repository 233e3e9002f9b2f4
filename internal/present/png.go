package present

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/opd-ai/go-xui/internal/render"
)

// PNG writes every frame to its own file. Pattern is a fmt template taking
// the frame number, e.g. "frame-%05d.png"; a pattern without a verb is
// overwritten each frame.
type PNG struct {
	dir     string
	pattern string
	syncer  Syncer

	mu    sync.Mutex
	frame int
	last  string
}

// PNGOption configures a PNG sink.
type PNGOption func(*PNG)

// WithSyncer reads surfaces back through s before encoding.
func WithSyncer(s Syncer) PNGOption {
	return func(p *PNG) { p.syncer = s }
}

// NewPNG returns a sink writing into dir, creating it if needed.
func NewPNG(dir, pattern string, opts ...PNGOption) (*PNG, error) {
	if pattern == "" {
		pattern = "frame-%05d.png"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("present: png directory: %w", err)
	}
	p := &PNG{dir: dir, pattern: pattern}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Present implements compositor.Presenter.
func (p *PNG) Present(ctx context.Context, s *render.Surface) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.syncer != nil {
		if err := p.syncer.Sync(s); err != nil {
			return fmt.Errorf("present: sync: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	name := p.pattern
	if hasVerb(name) {
		name = fmt.Sprintf(p.pattern, p.frame)
	}
	path := filepath.Join(p.dir, name)
	if err := render.SaveSurface(s, path); err != nil {
		return err
	}
	p.frame++
	p.last = path
	return nil
}

// Last returns the path of the most recent file written.
func (p *PNG) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func hasVerb(pattern string) bool {
	for i := 0; i < len(pattern)-1; i++ {
		if pattern[i] == '%' {
			if pattern[i+1] == '%' {
				i++
				continue
			}
			return true
		}
	}
	return false
}
