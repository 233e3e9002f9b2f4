package config

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[window]
width = 640
height = 480
title = "demo"
background = "rgba(0, 0, 0, 0.5)"
transparent = true

[render]
backend = "software"
scissor = "replace"
extended = false
damage = true

[font]
family = "GoMono:bold"
size = 12

[present]
sink = "png"
png_dir = "/tmp/out"

[scene]
script = "/tmp/scene.lua"
watch = true
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, 480, cfg.Window.Height)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, DefaultFPS, cfg.Window.FPS, "unset keys keep defaults")
	assert.Equal(t, "replace", cfg.Render.Scissor)
	assert.False(t, cfg.Render.Extended)
	assert.True(t, cfg.Render.Damage)
	assert.True(t, cfg.Render.Antialias)
	assert.Equal(t, "GoMono:bold", cfg.Font.Family)
	assert.Equal(t, SinkPNG, cfg.Present.Sink)
	assert.Equal(t, DefaultPNGPattern, cfg.Present.PNGPattern)
	assert.True(t, cfg.Scene.Watch)
	assert.Equal(t, uint64(DefaultCPULimit), cfg.Scene.CPULimit)

	bg, err := cfg.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, uint8(128), bg.A)
	assert.NoError(t, cfg.Validate())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"unknown key", "[window]\nwidht = 3\n", "unknown configuration keys"},
		{"unknown section", "[widgets]\nx = 1\n", "unknown configuration keys"},
		{"syntax", "[window\nwidth = 3\n", "failed to parse config at line"},
		{"type mismatch", "[window]\nwidth = \"wide\"\n", "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xui.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Window.Width)

	_, err = ParseFile(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("nope = 1"), 0o644))
	_, err = ParseFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestParseFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"conf/xui.toml": {Data: []byte("[window]\nwidth = 99\n")},
	}
	cfg, err := ParseFromFS(fsys, "conf/xui.toml")
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.Window.Width)

	_, err = ParseFromFS(fsys, "missing.toml")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "xui", "xui.toml"), path)

	cfg, err := Load("")
	require.NoError(t, err, "missing default file falls back to defaults")
	assert.Equal(t, Defaults(), *cfg)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[window]\ntitle = \"found\"\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "found", cfg.Window.Title)

	_, err = Load(filepath.Join(dir, "explicit.toml"))
	assert.Error(t, err, "missing explicit file is an error")
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Window.Title = "round trip"
	cfg.Render.Backend = BackendGPU

	data, err := Marshal(&cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[window]")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, *back)
}
