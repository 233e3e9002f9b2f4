package render

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// DefaultFilters implements Filters on the CPU over the surface's pixel
// buffer. Backends without native filters embed it. Percent arguments are
// relative changes where 0 leaves the image alone and -100 removes the
// property entirely.
type DefaultFilters struct{}

var _ Filters = DefaultFilters{}

// FilterGrayscale converts to luminance.
func (DefaultFilters) FilterGrayscale(s *Surface) {
	if filterable(s) {
		writeBack(s, effect.Grayscale(s.RGBA()))
	}
}

// FilterSepia applies a sepia tone.
func (DefaultFilters) FilterSepia(s *Surface) {
	if filterable(s) {
		writeBack(s, effect.Sepia(s.RGBA()))
	}
}

// FilterInvert inverts the color channels, keeping alpha.
func (DefaultFilters) FilterInvert(s *Surface) {
	if !filterable(s) {
		return
	}
	writeBack(s, adjust.Apply(s.RGBA(), func(c color.RGBA) color.RGBA {
		return color.RGBA{R: c.A - c.R, G: c.A - c.G, B: c.A - c.B, A: c.A}
	}))
}

// FilterThreshold maps pixels whose luminance reaches level to white and
// the rest to black.
func (DefaultFilters) FilterThreshold(s *Surface, level uint8) {
	if !filterable(s) {
		return
	}
	gray := segment.Threshold(s.RGBA(), level)
	for y := 0; y < s.Height; y++ {
		row := s.Pix[y*s.Stride:]
		for x := 0; x < s.Width; x++ {
			i := x * 4
			v := uint8(0)
			if gray.Pix[y*gray.Stride+x] != 0 {
				v = row[i+3]
			}
			row[i], row[i+1], row[i+2] = v, v, v
		}
	}
}

// FilterColorize replaces hue and saturation with c's, keeping luminance.
func (DefaultFilters) FilterColorize(s *Surface, c color.NRGBA) {
	if !filterable(s) {
		return
	}
	writeBack(s, adjust.Apply(s.RGBA(), func(p color.RGBA) color.RGBA {
		lum := (299*uint32(p.R) + 587*uint32(p.G) + 114*uint32(p.B)) / 1000
		return color.RGBA{
			R: uint8(lum * uint32(c.R) / 255),
			G: uint8(lum * uint32(c.G) / 255),
			B: uint8(lum * uint32(c.B) / 255),
			A: p.A,
		}
	}))
}

// FilterHue rotates the hue by degrees.
func (DefaultFilters) FilterHue(s *Surface, degrees int) {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	if filterable(s) && degrees != 0 {
		writeBack(s, adjust.Hue(s.RGBA(), degrees))
	}
}

// FilterSaturate scales saturation by percent.
func (DefaultFilters) FilterSaturate(s *Surface, percent int) {
	if filterable(s) && percent != 0 {
		writeBack(s, adjust.Saturation(s.RGBA(), percentChange(percent)))
	}
}

// FilterBrightness scales brightness by percent.
func (DefaultFilters) FilterBrightness(s *Surface, percent int) {
	if filterable(s) && percent != 0 {
		writeBack(s, adjust.Brightness(s.RGBA(), percentChange(percent)))
	}
}

// FilterContrast scales contrast around mid-gray by percent.
func (DefaultFilters) FilterContrast(s *Surface, percent int) {
	if filterable(s) && percent != 0 {
		writeBack(s, adjust.Contrast(s.RGBA(), percentChange(percent)))
	}
}

// FilterBlur applies a gaussian blur.
func (DefaultFilters) FilterBlur(s *Surface, radius int) {
	if filterable(s) && radius > 0 {
		writeBack(s, blur.Gaussian(s.RGBA(), float64(radius)))
	}
}

// FilterHaldCLUT maps colors through a Hald color lookup table. A level L
// table is an L^3 by L^3 image holding an L^2 sided color cube. Tables of
// any other shape are ignored.
func (DefaultFilters) FilterHaldCLUT(s, clut *Surface) {
	if !filterable(s) || !filterable(clut) {
		return
	}
	n := haldCubeSize(clut.Width, clut.Height)
	if n < 2 {
		return
	}
	scale := float64(n-1) / 255
	for y := 0; y < s.Height; y++ {
		row := s.Pix[y*s.Stride:]
		for x := 0; x < s.Width; x++ {
			i := x * 4
			if row[i+3] == 0 {
				continue
			}
			c := unpremultiply(color.RGBA{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]})
			out := haldLookup(clut, n, float64(c.R)*scale, float64(c.G)*scale, float64(c.B)*scale)
			out.A = c.A
			p := premultiply(out)
			row[i], row[i+1], row[i+2] = p.R, p.G, p.B
		}
	}
}

func haldCubeSize(w, h int) int {
	if w != h {
		return 0
	}
	n := int(math.Round(math.Cbrt(float64(w) * float64(h))))
	if n*n*n != w*h {
		return 0
	}
	return n
}

// haldLookup samples the cube with trilinear interpolation.
func haldLookup(clut *Surface, n int, r, g, b float64) color.NRGBA {
	r0, g0, b0 := int(r), int(g), int(b)
	r1, g1, b1 := min(r0+1, n-1), min(g0+1, n-1), min(b0+1, n-1)
	fr, fg, fb := r-float64(r0), g-float64(g0), b-float64(b0)

	at := func(ri, gi, bi int) [3]float64 {
		idx := ri + gi*n + bi*n*n
		x, y := idx%clut.Width, idx/clut.Width
		o := y*clut.Stride + x*4
		c := unpremultiply(color.RGBA{R: clut.Pix[o], G: clut.Pix[o+1], B: clut.Pix[o+2], A: clut.Pix[o+3]})
		return [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	}
	lerp := func(a, b [3]float64, t float64) [3]float64 {
		return [3]float64{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t, a[2] + (b[2]-a[2])*t}
	}

	c00 := lerp(at(r0, g0, b0), at(r1, g0, b0), fr)
	c10 := lerp(at(r0, g1, b0), at(r1, g1, b0), fr)
	c01 := lerp(at(r0, g0, b1), at(r1, g0, b1), fr)
	c11 := lerp(at(r0, g1, b1), at(r1, g1, b1), fr)
	c := lerp(lerp(c00, c10, fg), lerp(c01, c11, fg), fb)
	return color.NRGBA{R: roundByte(c[0]), G: roundByte(c[1]), B: roundByte(c[2])}
}

func roundByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

func percentChange(percent int) float64 {
	return math.Max(-1, math.Min(1, float64(percent)/100))
}

func filterable(s *Surface) bool {
	return !s.Destroyed() && s.Width > 0 && s.Height > 0
}

// writeBack copies a filter result into the surface, clamping each color
// channel to alpha so the buffer stays validly premultiplied.
func writeBack(s *Surface, img *image.RGBA) {
	for y := 0; y < s.Height; y++ {
		dst := s.Pix[y*s.Stride : y*s.Stride+s.Width*4]
		src := img.Pix[y*img.Stride : y*img.Stride+s.Width*4]
		for i := 0; i < len(dst); i += 4 {
			a := src[i+3]
			dst[i] = min(src[i], a)
			dst[i+1] = min(src[i+1], a)
			dst[i+2] = min(src[i+2], a)
			dst[i+3] = a
		}
	}
}
