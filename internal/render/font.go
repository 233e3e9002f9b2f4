package render

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/opd-ai/go-xui/internal/region"
)

// FontStyle represents font style variations.
type FontStyle int

const (
	// FontStyleRegular is the regular/normal font style.
	FontStyleRegular FontStyle = iota
	// FontStyleBold is the bold font style.
	FontStyleBold
	// FontStyleItalic is the italic font style.
	FontStyleItalic
	// FontStyleBoldItalic is the bold and italic font style.
	FontStyleBoldItalic
)

var fontStyleOrder = []FontStyle{FontStyleRegular, FontStyleBold, FontStyleItalic, FontStyleBoldItalic}

// String returns the string representation of a FontStyle.
func (fs FontStyle) String() string {
	switch fs {
	case FontStyleRegular:
		return "regular"
	case FontStyleBold:
		return "bold"
	case FontStyleItalic:
		return "italic"
	case FontStyleBoldItalic:
		return "bold-italic"
	default:
		return "unknown"
	}
}

// ParseFontStyle parses a string into a FontStyle.
func ParseFontStyle(s string) (FontStyle, error) {
	switch strings.ToLower(s) {
	case "regular", "normal", "":
		return FontStyleRegular, nil
	case "bold":
		return FontStyleBold, nil
	case "italic":
		return FontStyleItalic, nil
	case "bold-italic", "bolditalic", "bold_italic":
		return FontStyleBoldItalic, nil
	default:
		return FontStyleRegular, fmt.Errorf("unknown font style: %s", s)
	}
}

// ParseFontName splits a "Family:style" name. A missing or unknown style
// selects regular.
func ParseFontName(name string) (family string, style FontStyle) {
	family, styleName, _ := strings.Cut(name, ":")
	style, _ = ParseFontStyle(styleName)
	return strings.TrimSpace(family), style
}

// Font is a parsed OpenType font. Faces are cached per pixel size. State
// holds whatever the backend that created the font attached to it.
type Font struct {
	Family string
	Style  FontStyle
	State  any

	data []byte
	sfnt *opentype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

// ParseFont parses TrueType or OpenType data.
func ParseFont(family string, data []byte) (*Font, error) {
	sfnt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font data for %s: %w", family, err)
	}
	return &Font{
		Family: family,
		data:   data,
		sfnt:   sfnt,
		faces:  make(map[int]font.Face),
	}, nil
}

// Data returns the raw font file.
func (f *Font) Data() []byte { return f.data }

// Face returns a face at size pixels per em.
func (f *Font) Face(size int) (font.Face, error) {
	if size <= 0 {
		size = 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	if f.faces == nil {
		return nil, fmt.Errorf("font %s is closed", f.Family)
	}
	face, err := opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %dpx face for %s: %w", size, f.Family, err)
	}
	f.faces[size] = face
	return face, nil
}

// Measure returns the ink box of s at size. X is the horizontal bearing
// from the pen and Y the ascent above the baseline, so a pen placed at
// (X, Y) puts the top of the ink at 0.
func (f *Font) Measure(s string, size int) region.Region {
	if s == "" {
		return region.Region{}
	}
	face, err := f.Face(size)
	if err != nil {
		return region.Region{}
	}
	f.mu.Lock()
	bounds, _ := font.BoundString(face, s)
	f.mu.Unlock()
	return region.New(
		bounds.Min.X.Floor(),
		-bounds.Min.Y.Floor(),
		(bounds.Max.X - bounds.Min.X).Ceil(),
		(bounds.Max.Y - bounds.Min.Y).Ceil(),
	)
}

// Close releases the cached faces.
func (f *Font) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var firstErr error
	for _, face := range f.faces {
		if err := face.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.faces = nil
	return firstErr
}

// FontFamily represents a font family with multiple style variations.
type FontFamily struct {
	name  string
	fonts map[FontStyle]*Font
	mu    sync.RWMutex
}

// NewFontFamily creates a new FontFamily with the given name.
func NewFontFamily(name string) *FontFamily {
	return &FontFamily{
		name:  name,
		fonts: make(map[FontStyle]*Font),
	}
}

// Name returns the family name.
func (ff *FontFamily) Name() string {
	return ff.name
}

// AddFont registers f for style.
func (ff *FontFamily) AddFont(style FontStyle, f *Font) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	f.Style = style
	ff.fonts[style] = f
}

// GetFontWithFallback returns the font for style, falling back to the
// closest style the family has.
func (ff *FontFamily) GetFontWithFallback(style FontStyle) *Font {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if f, ok := ff.fonts[style]; ok {
		return f
	}
	if style == FontStyleBoldItalic {
		if f, ok := ff.fonts[FontStyleBold]; ok {
			return f
		}
		if f, ok := ff.fonts[FontStyleItalic]; ok {
			return f
		}
	}
	for _, s := range fontStyleOrder {
		if f, ok := ff.fonts[s]; ok {
			return f
		}
	}
	return nil
}

// AvailableStyles returns the styles present, in declaration order.
func (ff *FontFamily) AvailableStyles() []FontStyle {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	styles := make([]FontStyle, 0, len(ff.fonts))
	for _, s := range fontStyleOrder {
		if _, ok := ff.fonts[s]; ok {
			styles = append(styles, s)
		}
	}
	return styles
}

// FontManager resolves font names to parsed fonts. The Go font families are
// always registered.
type FontManager struct {
	families      map[string]*FontFamily
	fallbackChain []string
	defaultFamily string
	mu            sync.RWMutex
}

// NewFontManager creates a FontManager with the embedded Go fonts.
func NewFontManager() *FontManager {
	fm := &FontManager{
		families:      make(map[string]*FontFamily),
		defaultFamily: "GoMono",
	}

	mono := NewFontFamily("GoMono")
	fm.addEmbedded(mono, FontStyleRegular, gomono.TTF)
	fm.addEmbedded(mono, FontStyleBold, gomonobold.TTF)
	fm.addEmbedded(mono, FontStyleItalic, gomonoitalic.TTF)
	fm.addEmbedded(mono, FontStyleBoldItalic, gomonobolditalic.TTF)
	fm.families["GoMono"] = mono
	fm.families["gomono"] = mono
	fm.families["monospace"] = mono

	sans := NewFontFamily("GoSans")
	fm.addEmbedded(sans, FontStyleRegular, goregular.TTF)
	fm.addEmbedded(sans, FontStyleBold, gobold.TTF)
	fm.addEmbedded(sans, FontStyleItalic, goitalic.TTF)
	fm.addEmbedded(sans, FontStyleBoldItalic, gobolditalic.TTF)
	fm.families["GoSans"] = sans
	fm.families["gosans"] = sans
	fm.families["sans"] = sans

	fm.fallbackChain = []string{"GoMono", "GoSans"}
	return fm
}

// addEmbedded ignores parse errors; the embedded fonts are known good.
func (fm *FontManager) addEmbedded(family *FontFamily, style FontStyle, data []byte) {
	f, err := ParseFont(family.Name(), data)
	if err != nil {
		return
	}
	family.AddFont(style, f)
}

// LoadFontFromFile reads a font file and registers it under family and style.
func (fm *FontManager) LoadFontFromFile(familyName string, style FontStyle, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read font file %s: %w", filePath, err)
	}
	return fm.LoadFontFromData(familyName, style, data)
}

// LoadFontFromData parses data and registers it under family and style.
func (fm *FontManager) LoadFontFromData(familyName string, style FontStyle, data []byte) error {
	f, err := ParseFont(familyName, data)
	if err != nil {
		return err
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()

	family, ok := fm.families[familyName]
	if !ok {
		family = NewFontFamily(familyName)
		fm.families[familyName] = family
	}
	family.AddFont(style, f)
	return nil
}

// GetFamily returns a font family by name, or nil if not found.
func (fm *FontManager) GetFamily(name string) *FontFamily {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.families[name]
}

// Lookup resolves a "Family:style" name through the fallback chain. It
// returns nil only when no family at all is registered.
func (fm *FontManager) Lookup(name string) *Font {
	family, style := ParseFontName(name)
	return fm.GetFontWithFallback(family, style)
}

// GetFontWithFallback returns a font, falling back through the chain and
// then the default family.
func (fm *FontManager) GetFontWithFallback(familyName string, style FontStyle) *Font {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	candidates := append([]string{familyName}, fm.fallbackChain...)
	candidates = append(candidates, fm.defaultFamily)
	for _, name := range candidates {
		if family, ok := fm.families[name]; ok {
			if f := family.GetFontWithFallback(style); f != nil {
				return f
			}
		}
	}
	return nil
}

// SetFallbackChain sets the font family fallback chain.
func (fm *FontManager) SetFallbackChain(families []string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.fallbackChain = append([]string(nil), families...)
}

// SetDefaultFamily sets the default font family name.
func (fm *FontManager) SetDefaultFamily(familyName string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.defaultFamily = familyName
}

// DefaultFamily returns the default font family name.
func (fm *FontManager) DefaultFamily() string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.defaultFamily
}

// ListFamilies returns the canonical family names, sorted. Aliases are
// excluded.
func (fm *FontManager) ListFamilies() []string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()

	seen := make(map[string]bool)
	var families []string
	for _, family := range fm.families {
		if name := family.Name(); !seen[name] {
			seen[name] = true
			families = append(families, name)
		}
	}
	sort.Strings(families)
	return families
}

// RegisterAlias registers an alias name for an existing family.
func (fm *FontManager) RegisterAlias(alias, familyName string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	family, ok := fm.families[familyName]
	if !ok {
		return fmt.Errorf("font family %s not found", familyName)
	}
	fm.families[alias] = family
	return nil
}
