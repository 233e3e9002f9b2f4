package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-xui/internal/compositor"
)

func TestDefaultsValid(t *testing.T) {
	cfg := Defaults()
	result := NewValidator().Validate(&cfg)
	assert.True(t, result.IsValid(), "%v", result.Error())
	assert.Empty(t, result.Warnings)
	assert.NoError(t, ValidateConfigStrict(&cfg))

	mode, err := cfg.ScissorMode()
	require.NoError(t, err)
	assert.Equal(t, compositor.ScissorNest, mode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError string
		wantWarn  string
	}{
		{name: "zero width", modify: func(c *Config) { c.Window.Width = 0 }, wantError: "window.width"},
		{name: "negative height", modify: func(c *Config) { c.Window.Height = -1 }, wantError: "window.height"},
		{name: "huge width", modify: func(c *Config) { c.Window.Width = 20000 }, wantWarn: "window.width"},
		{name: "zero fps", modify: func(c *Config) { c.Window.FPS = 0 }, wantError: "window.fps"},
		{name: "fast fps", modify: func(c *Config) { c.Window.FPS = 1000 }, wantWarn: "window.fps"},
		{name: "bad background", modify: func(c *Config) { c.Window.Background = "not-a-color" }, wantError: "window.background"},
		{name: "translucent opaque window", modify: func(c *Config) { c.Window.Background = "#00000080" }, wantWarn: "window.background"},
		{name: "unknown backend", modify: func(c *Config) { c.Render.Backend = "cairo" }, wantError: "render.backend"},
		{name: "unknown scissor", modify: func(c *Config) { c.Render.Scissor = "union" }, wantError: "render.scissor"},
		{
			name: "gpu needs window",
			modify: func(c *Config) {
				c.Render.Backend = BackendGPU
				c.Present.Sink = SinkPNG
			},
			wantError: "render.backend",
		},
		{
			name: "gpu without antialias",
			modify: func(c *Config) {
				c.Render.Backend = BackendGPU
				c.Render.Antialias = false
			},
			wantWarn: "render.antialias",
		},
		{name: "empty font", modify: func(c *Config) { c.Font.Family = "" }, wantError: "font.family"},
		{name: "style only", modify: func(c *Config) { c.Font.Family = ":bold" }, wantError: "font.family"},
		{name: "zero font size", modify: func(c *Config) { c.Font.Size = 0 }, wantError: "font.size"},
		{name: "large font size", modify: func(c *Config) { c.Font.Size = 500 }, wantWarn: "font.size"},
		{name: "unknown sink", modify: func(c *Config) { c.Present.Sink = "vnc" }, wantError: "present.sink"},
		{
			name: "png without dir",
			modify: func(c *Config) {
				c.Present.Sink = SinkPNG
				c.Present.PNGDir = ""
			},
			wantError: "present.png_dir",
		},
		{name: "pattern with path", modify: func(c *Config) { c.Present.PNGPattern = "a/%d.png" }, wantError: "present.png_pattern"},
		{name: "watch without script", modify: func(c *Config) { c.Scene.Watch = true }, wantWarn: "scene.watch"},
		{
			name: "unlimited script",
			modify: func(c *Config) {
				c.Scene.Script = "scene.lua"
				c.Scene.CPULimit = 0
			},
			wantWarn: "scene.cpu_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			result := NewValidator().Validate(&cfg)

			if tt.wantError != "" {
				require.False(t, result.IsValid())
				assert.Equal(t, tt.wantError, result.Errors[0].Field)
				assert.Contains(t, result.Error().Error(), tt.wantError)
			} else {
				assert.True(t, result.IsValid(), "%v", result.Error())
			}
			if tt.wantWarn != "" {
				require.NotEmpty(t, result.Warnings)
				assert.Equal(t, tt.wantWarn, result.Warnings[0].Field)
				assert.Error(t, ValidateConfigStrict(&cfg), "strict mode promotes warnings")
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	assert.Error(t, ValidateConfig(nil))
	assert.Error(t, ValidateConfigStrict(nil))
	assert.False(t, NewValidator().Validate(nil).IsValid())
}

func TestValidationResultMerge(t *testing.T) {
	a := &ValidationResult{}
	a.AddError("x", "bad")
	b := &ValidationResult{}
	b.AddWarning("y", "odd")
	b.AddError("z", "worse")

	a.Merge(b)
	a.Merge(nil)
	assert.Len(t, a.Errors, 2)
	assert.Len(t, a.Warnings, 1)
	assert.EqualError(t, a.Error(), "validation failed: x: bad; z: worse")
	assert.Nil(t, (&ValidationResult{}).Error())
}
