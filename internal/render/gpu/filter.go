package gpu

import (
	"image/color"

	"github.com/opd-ai/go-xui/internal/render"
)

// Filters run on the CPU: the surface is read back, filtered in its pixel
// buffer and uploaded again. Like Sync they need a running game loop.

func (b *Backend) filter(s *render.Surface, fn func(*render.Surface)) {
	st := b.state(s)
	if st == nil {
		return
	}
	if err := b.Sync(s); err != nil {
		b.logger.Warn("skipping filter", "error", err)
		return
	}
	fn(s)
	st.img.WritePixels(packed(s))
}

func (b *Backend) FilterHaldCLUT(s, clut *render.Surface) {
	if b.state(clut) != nil {
		if err := b.Sync(clut); err != nil {
			return
		}
	}
	b.filter(s, func(s *render.Surface) { b.filters.FilterHaldCLUT(s, clut) })
}

func (b *Backend) FilterGrayscale(s *render.Surface) { b.filter(s, b.filters.FilterGrayscale) }

func (b *Backend) FilterSepia(s *render.Surface) { b.filter(s, b.filters.FilterSepia) }

func (b *Backend) FilterInvert(s *render.Surface) { b.filter(s, b.filters.FilterInvert) }

func (b *Backend) FilterThreshold(s *render.Surface, level uint8) {
	b.filter(s, func(s *render.Surface) { b.filters.FilterThreshold(s, level) })
}

func (b *Backend) FilterColorize(s *render.Surface, c color.NRGBA) {
	b.filter(s, func(s *render.Surface) { b.filters.FilterColorize(s, c) })
}

func (b *Backend) FilterHue(s *render.Surface, degrees int) {
	b.filter(s, func(s *render.Surface) { b.filters.FilterHue(s, degrees) })
}

func (b *Backend) FilterSaturate(s *render.Surface, percent int) {
	b.filter(s, func(s *render.Surface) { b.filters.FilterSaturate(s, percent) })
}

func (b *Backend) FilterBrightness(s *render.Surface, percent int) {
	b.filter(s, func(s *render.Surface) { b.filters.FilterBrightness(s, percent) })
}

func (b *Backend) FilterContrast(s *render.Surface, percent int) {
	b.filter(s, func(s *render.Surface) { b.filters.FilterContrast(s, percent) })
}

// FilterBlur applies a Gaussian blur of the given radius.
func (b *Backend) FilterBlur(s *render.Surface, radius int) {
	b.filter(s, func(s *render.Surface) { b.filters.FilterBlur(s, radius) })
}
