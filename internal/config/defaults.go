package config

// Default values for configuration options.
const (
	DefaultWidth       = 400
	DefaultHeight      = 300
	DefaultTitle       = "xui-go"
	DefaultBackground  = "#000000"
	DefaultFPS         = 30
	DefaultBackend     = "software"
	DefaultScissor     = "nest"
	DefaultFontFamily  = "GoMono"
	DefaultFontSize    = 16
	DefaultSink        = "window"
	DefaultPNGDir      = "frames"
	DefaultPNGPattern  = "frame-%05d.png"
	DefaultCPULimit    = 10_000_000
	DefaultMemoryLimit = 50 * 1024 * 1024
)

// Backend names.
const (
	BackendSoftware = "software"
	BackendGPU      = "gpu"
)

// Defaults returns a Config with every field set to its default.
func Defaults() Config {
	return Config{
		Window: WindowConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Title:      DefaultTitle,
			Background: DefaultBackground,
			FPS:        DefaultFPS,
		},
		Render: RenderConfig{
			Backend:   DefaultBackend,
			Antialias: true,
			Scissor:   DefaultScissor,
			Extended:  true,
		},
		Font: FontConfig{
			Family: DefaultFontFamily,
			Size:   DefaultFontSize,
		},
		Present: PresentConfig{
			Sink:       DefaultSink,
			PNGDir:     DefaultPNGDir,
			PNGPattern: DefaultPNGPattern,
		},
		Scene: SceneConfig{
			CPULimit:    DefaultCPULimit,
			MemoryLimit: DefaultMemoryLimit,
		},
	}
}

// Sink names.
const (
	SinkWindow = "window"
	SinkPNG    = "png"
	SinkX11    = "x11"
	SinkNone   = "none"
)
