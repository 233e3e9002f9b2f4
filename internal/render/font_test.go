package render

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestFontStyleString(t *testing.T) {
	tests := []struct {
		style FontStyle
		want  string
	}{
		{FontStyleRegular, "regular"},
		{FontStyleBold, "bold"},
		{FontStyleItalic, "italic"},
		{FontStyleBoldItalic, "bold-italic"},
		{FontStyle(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.style.String(); got != tt.want {
				t.Errorf("FontStyle.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFontName(t *testing.T) {
	tests := []struct {
		input      string
		wantFamily string
		wantStyle  FontStyle
	}{
		{"GoMono", "GoMono", FontStyleRegular},
		{"GoSans:bold", "GoSans", FontStyleBold},
		{"GoSans:Bold-Italic", "GoSans", FontStyleBoldItalic},
		{"Other:weird", "Other", FontStyleRegular},
		{"", "", FontStyleRegular},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			family, style := ParseFontName(tt.input)
			if family != tt.wantFamily || style != tt.wantStyle {
				t.Errorf("ParseFontName(%q) = %q, %v; want %q, %v",
					tt.input, family, style, tt.wantFamily, tt.wantStyle)
			}
		})
	}
}

func TestFontMeasure(t *testing.T) {
	f, err := ParseFont("GoMono", gomono.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}
	defer f.Close()

	if got := f.Measure("", 12); !got.IsEmpty() {
		t.Errorf("Measure(\"\") = %v, want empty", got)
	}

	short := f.Measure("H", 20)
	long := f.Measure("HHHH", 20)
	if short.IsEmpty() {
		t.Fatal("Measure(\"H\") is empty")
	}
	if short.Y <= 0 {
		t.Errorf("ascent = %d, want > 0", short.Y)
	}
	if long.W <= short.W {
		t.Errorf("width of HHHH (%d) should exceed width of H (%d)", long.W, short.W)
	}
	if big := f.Measure("H", 40); big.H <= short.H {
		t.Errorf("height at 40px (%d) should exceed height at 20px (%d)", big.H, short.H)
	}
}

func TestFontFaceCache(t *testing.T) {
	f, err := ParseFont("GoMono", gomono.TTF)
	if err != nil {
		t.Fatalf("ParseFont() error = %v", err)
	}

	a, err := f.Face(14)
	if err != nil {
		t.Fatalf("Face() error = %v", err)
	}
	b, _ := f.Face(14)
	if a != b {
		t.Error("Face(14) should be cached")
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := f.Face(14); err == nil {
		t.Error("Face() after Close should fail")
	}
}

func TestFontFamilyGetFontWithFallback(t *testing.T) {
	ff := NewFontFamily("Test")
	if ff.GetFontWithFallback(FontStyleRegular) != nil {
		t.Error("empty family should return nil")
	}

	bold, err := ParseFont("Test", gomono.TTF)
	if err != nil {
		t.Fatal(err)
	}
	ff.AddFont(FontStyleBold, bold)

	for _, style := range fontStyleOrder {
		if got := ff.GetFontWithFallback(style); got != bold {
			t.Errorf("GetFontWithFallback(%v) did not fall back to bold", style)
		}
	}
	if got := ff.AvailableStyles(); len(got) != 1 || got[0] != FontStyleBold {
		t.Errorf("AvailableStyles() = %v", got)
	}
}

func TestFontManagerLookup(t *testing.T) {
	fm := NewFontManager()

	if got := fm.ListFamilies(); len(got) != 2 || got[0] != "GoMono" || got[1] != "GoSans" {
		t.Errorf("ListFamilies() = %v", got)
	}

	f := fm.Lookup("GoSans:italic")
	if f == nil || f.Family != "GoSans" || f.Style != FontStyleItalic {
		t.Errorf("Lookup(GoSans:italic) = %+v", f)
	}

	f = fm.Lookup("NoSuchFamily")
	if f == nil || f.Family != "GoMono" {
		t.Errorf("unknown family should fall back to GoMono, got %+v", f)
	}

	fm.SetFallbackChain([]string{"GoSans"})
	f = fm.Lookup("NoSuchFamily:bold")
	if f == nil || f.Family != "GoSans" || f.Style != FontStyleBold {
		t.Errorf("fallback chain ignored, got %+v", f)
	}
}

func TestFontManagerRegisterAlias(t *testing.T) {
	fm := NewFontManager()

	if err := fm.RegisterAlias("ui", "GoSans"); err != nil {
		t.Fatalf("RegisterAlias() error = %v", err)
	}
	if fm.GetFamily("ui") != fm.GetFamily("GoSans") {
		t.Error("alias should resolve to the same family")
	}
	if err := fm.RegisterAlias("x", "NonExistent"); err == nil {
		t.Error("RegisterAlias should fail for non-existent family")
	}
}

func TestFontManagerLoadFontFromFile(t *testing.T) {
	fm := NewFontManager()

	if err := fm.LoadFontFromFile("Test", FontStyleRegular, "/nonexistent/font.ttf"); err == nil {
		t.Error("LoadFontFromFile should fail for non-existent file")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "invalid.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fm.LoadFontFromFile("Test", FontStyleRegular, bad); err == nil {
		t.Error("LoadFontFromFile should fail with invalid font file")
	}

	good := filepath.Join(dir, "mono.ttf")
	if err := os.WriteFile(good, gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fm.LoadFontFromFile("Custom", FontStyleRegular, good); err != nil {
		t.Fatalf("LoadFontFromFile() error = %v", err)
	}
	if f := fm.Lookup("Custom"); f == nil || f.Family != "Custom" {
		t.Errorf("Lookup(Custom) = %+v", f)
	}
}

func TestFontManagerConcurrentAccess(t *testing.T) {
	fm := NewFontManager()
	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			_ = fm.Lookup("GoMono:bold")
			_ = fm.GetFontWithFallback("GoSans", FontStyleItalic)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			fm.SetDefaultFamily("GoMono")
			fm.SetFallbackChain([]string{"GoMono", "GoSans"})
			_ = fm.ListFamilies()
		}
		done <- true
	}()

	<-done
	<-done
}
