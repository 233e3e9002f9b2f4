package gpu

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/opd-ai/go-xui/internal/render"
)

// FontCreate parses data and prepares it for ebiten's text shaper.
func (b *Backend) FontCreate(family string, data []byte) (*render.Font, error) {
	f, err := render.ParseFont(family, data)
	if err != nil {
		return nil, err
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load text source for %s: %w", family, err)
	}
	f.State = src
	return f, nil
}

// FontDestroy releases the faces cached for f and drops its shaping
// source.
func (b *Backend) FontDestroy(f *render.Font) {
	if f == nil {
		return
	}
	if err := f.Close(); err != nil {
		b.logger.Warn("font close failed", "font", f.Family, "error", err)
	}
	f.State = nil
}
