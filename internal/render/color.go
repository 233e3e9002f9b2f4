package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// NamedColors maps the color names scenes and config files may use.
var NamedColors = map[string]color.NRGBA{
	"black":       {A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"lime":        {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"cyan":        {G: 255, B: 255, A: 255},
	"magenta":     {R: 255, B: 255, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"silver":      {R: 192, G: 192, B: 192, A: 255},
	"navy":        {B: 128, A: 255},
	"teal":        {G: 128, B: 128, A: 255},
	"purple":      {R: 128, B: 128, A: 255},
	"orange":      {R: 255, G: 165, A: 255},
	"transparent": {},
}

// ParseColor parses a straight-alpha color. Accepted forms are a name from
// NamedColors, "#RGB", "#RGBA", "#RRGGBB", "#RRGGBBAA" (the "#" is
// optional), "rgb(r, g, b)" and "rgba(r, g, b, a)" where a is 0-255 or a
// fraction containing a dot.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	lower := strings.ToLower(s)
	if c, ok := NamedColors[lower]; ok {
		return c, nil
	}
	if args, ok := funcArgs(lower, "rgba"); ok {
		return parseComponents(args, 4)
	}
	if args, ok := funcArgs(lower, "rgb"); ok {
		return parseComponents(args, 3)
	}
	return parseHexColor(strings.TrimPrefix(s, "#"))
}

func funcArgs(s, name string) ([]string, bool) {
	if !strings.HasPrefix(s, name+"(") || !strings.HasSuffix(s, ")") {
		return nil, false
	}
	inner := s[len(name)+1 : len(s)-1]
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

func parseComponents(parts []string, n int) (color.NRGBA, error) {
	if len(parts) != n {
		return color.NRGBA{}, fmt.Errorf("expected %d color components, got %d", n, len(parts))
	}
	var v [4]uint8
	v[3] = 255
	for i, p := range parts {
		if i == 3 && strings.Contains(p, ".") {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("invalid alpha %q: %w", p, err)
			}
			v[3] = clampToByte(f)
			continue
		}
		c, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color component %q: %w", p, err)
		}
		v[i] = uint8(c)
	}
	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	switch len(s) {
	case 3, 4:
		var long strings.Builder
		for _, r := range s {
			long.WriteRune(r)
			long.WriteRune(r)
		}
		s = long.String()
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("unrecognized color format: %q", s)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ToHex formats c as #RRGGBB, or #RRGGBBAA when it is not opaque.
func ToHex(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Premultiply converts a straight-alpha color to the surface format.
func Premultiply(c color.NRGBA) color.RGBA { return premultiply(c) }

// Unpremultiply converts a surface color back to straight alpha.
func Unpremultiply(c color.RGBA) color.NRGBA { return unpremultiply(c) }

// Components returns c as straight-alpha floats in [0, 1].
func Components(c color.RGBA) (r, g, b, a float64) {
	n := unpremultiply(c)
	return float64(n.R) / 255, float64(n.G) / 255, float64(n.B) / 255, float64(n.A) / 255
}
