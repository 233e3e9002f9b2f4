package software

import (
	"github.com/opd-ai/go-xui/internal/render"
)

// FontCreate parses TrueType or OpenType data.
func (b *Backend) FontCreate(family string, data []byte) (*render.Font, error) {
	return render.ParseFont(family, data)
}

// FontDestroy releases the faces cached for f.
func (b *Backend) FontDestroy(f *render.Font) {
	if f == nil {
		return
	}
	if err := f.Close(); err != nil {
		b.logger.Warn("font close failed", "font", f.Family, "error", err)
	}
}
