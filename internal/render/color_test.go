package render

import (
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{"red", color.NRGBA{R: 255, A: 255}, false},
		{"  White ", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, false},
		{"#f00", color.NRGBA{R: 255, A: 255}, false},
		{"#f008", color.NRGBA{R: 255, A: 0x88}, false},
		{"#102030", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, false},
		{"10203040", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, false},
		{"rgb(1, 2, 3)", color.NRGBA{R: 1, G: 2, B: 3, A: 255}, false},
		{"rgba(1, 2, 3, 128)", color.NRGBA{R: 1, G: 2, B: 3, A: 128}, false},
		{"rgba(1, 2, 3, 0.5)", color.NRGBA{R: 1, G: 2, B: 3, A: 128}, false},
		{"transparent", color.NRGBA{}, false},
		{"", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
		{"rgb(1, 2)", color.NRGBA{}, true},
		{"rgb(300, 0, 0)", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToHexRoundTrip(t *testing.T) {
	for _, c := range []color.NRGBA{
		{R: 1, G: 2, B: 3, A: 255},
		{R: 0xde, G: 0xad, B: 0xbe, A: 0xef},
	} {
		got, err := ParseColor(ToHex(c))
		if err != nil || got != c {
			t.Errorf("ParseColor(ToHex(%v)) = %v, %v", c, got, err)
		}
	}
}

func TestPremultiply(t *testing.T) {
	got := Premultiply(color.NRGBA{R: 255, G: 128, A: 128})
	want := color.RGBA{R: 128, G: 64, A: 128}
	if got != want {
		t.Errorf("Premultiply() = %v, want %v", got, want)
	}

	r, _, _, a := Components(color.RGBA{R: 128, A: 128})
	if r != 1 || a != 128.0/255 {
		t.Errorf("Components() = %v, %v", r, a)
	}
}
