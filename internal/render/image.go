package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
)

// DecodeImage sniffs data and decodes it, honoring EXIF orientation.
func DecodeImage(data []byte) (image.Image, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("failed to detect image type: %w", err)
	}
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("unsupported image type %q", kind.MIME.Value)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", kind.Extension, err)
	}
	return img, nil
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	img, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// ToRGBA converts img to a premultiplied buffer of w by h pixels, resampling
// when the size differs. A non-positive w or h keeps the source size.
func ToRGBA(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	if w <= 0 || h <= 0 {
		w, h = b.Dx(), b.Dy()
	}
	if w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(img, w, h, imaging.Linear)
		b = img.Bounds()
	}
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// SurfaceFromImage creates a surface on l holding img scaled to w by h.
func SurfaceFromImage(l Lifecycle, img image.Image, w, h int) (*Surface, error) {
	return l.Create(DescriptorFor(ToRGBA(img, w, h)))
}

// SaveSurface writes the surface to path. The format follows the extension.
func SaveSurface(s *Surface, path string) error {
	if s.Destroyed() {
		return ErrDestroyed
	}
	if err := imaging.Save(s.RGBA(), path); err != nil {
		return fmt.Errorf("failed to save surface to %s: %w", path, err)
	}
	return nil
}

// ImageCache keeps decoded images by path.
type ImageCache struct {
	images map[string]image.Image
	mu     sync.RWMutex
}

// NewImageCache creates an empty ImageCache.
func NewImageCache() *ImageCache {
	return &ImageCache{images: make(map[string]image.Image)}
}

// Load returns the cached image for path, decoding it on first use.
func (ic *ImageCache) Load(path string) (image.Image, error) {
	ic.mu.RLock()
	img, ok := ic.images[path]
	ic.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()
	if existing, ok := ic.images[path]; ok {
		return existing, nil
	}
	ic.images[path] = img
	return img, nil
}

// Remove drops path from the cache.
func (ic *ImageCache) Remove(path string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	delete(ic.images, path)
}

// Clear empties the cache.
func (ic *ImageCache) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	clear(ic.images)
}

// Size returns the number of cached images.
func (ic *ImageCache) Size() int {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return len(ic.images)
}
