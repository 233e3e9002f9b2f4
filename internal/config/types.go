// Package config loads the xui-go TOML configuration.
package config

import (
	"image/color"

	"github.com/opd-ai/go-xui/internal/compositor"
	"github.com/opd-ai/go-xui/internal/render"
)

// Config is the complete configuration.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Render  RenderConfig  `toml:"render"`
	Font    FontConfig    `toml:"font"`
	Present PresentConfig `toml:"present"`
	Scene   SceneConfig   `toml:"scene"`
	Profile ProfileConfig `toml:"profile"`
}

// WindowConfig describes the output surface.
type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	// Background is the color every frame starts from, in any form
	// render.ParseColor accepts.
	Background string `toml:"background"`
	// FPS is the frame rate of the driver.
	FPS         int  `toml:"fps"`
	Transparent bool `toml:"transparent"`
	SkipTaskbar bool `toml:"skip_taskbar"`
	SkipPager   bool `toml:"skip_pager"`
}

// RenderConfig selects the backend and interpreter behavior.
type RenderConfig struct {
	Backend   string `toml:"backend"`
	Antialias bool   `toml:"antialias"`
	Scissor   string `toml:"scissor"`
	Extended  bool   `toml:"extended"`
	Damage    bool   `toml:"damage"`
}

// FontConfig names the default font. Path, when set, is loaded into the
// font manager under Family.
type FontConfig struct {
	Family string `toml:"family"`
	Size   int    `toml:"size"`
	Path   string `toml:"path"`
}

// PresentConfig selects where frames go.
type PresentConfig struct {
	Sink       string `toml:"sink"`
	PNGDir     string `toml:"png_dir"`
	PNGPattern string `toml:"png_pattern"`
}

// SceneConfig locates the Lua scene script.
type SceneConfig struct {
	Script string `toml:"script"`
	Watch  bool   `toml:"watch"`
	// CPULimit bounds the instructions one frame may execute. Zero means
	// unlimited.
	CPULimit uint64 `toml:"cpu_limit"`
	// MemoryLimit bounds the bytes the script may allocate. Zero means
	// unlimited.
	MemoryLimit uint64 `toml:"memory_limit"`
}

// ProfileConfig enables pprof output files.
type ProfileConfig struct {
	CPU string `toml:"cpu"`
	Mem string `toml:"mem"`
}

// BackgroundColor parses Window.Background. An empty value is opaque
// black.
func (c *Config) BackgroundColor() (color.NRGBA, error) {
	if c.Window.Background == "" {
		return color.NRGBA{A: 255}, nil
	}
	return render.ParseColor(c.Window.Background)
}

// ScissorMode parses Render.Scissor.
func (c *Config) ScissorMode() (compositor.ScissorMode, error) {
	return compositor.ParseScissorMode(c.Render.Scissor)
}

// Validate returns the combined error of a full validation.
func (c *Config) Validate() error {
	return NewValidator().Validate(c).Error()
}
