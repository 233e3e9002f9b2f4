package config

import (
	"fmt"
	"strings"

	"github.com/opd-ai/go-xui/internal/compositor"
	"github.com/opd-ai/go-xui/internal/render"
)

// ValidationError is a problem with one configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult collects errors and non-fatal warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Validator checks a Config for values the driver cannot run with.
type Validator struct {
	// strictMode promotes warnings to errors.
	strictMode bool
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictMode makes warnings fatal.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// Validate checks every section of cfg.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		result.AddError("config", "is nil")
		return result
	}

	v.validateWindow(cfg, result)
	v.validateRender(cfg, result)
	v.validateFont(&cfg.Font, result)
	v.validatePresent(cfg, result)
	v.validateScene(&cfg.Scene, result)

	if v.strictMode {
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = nil
	}
	return result
}

func (v *Validator) validateWindow(cfg *Config, result *ValidationResult) {
	wc := &cfg.Window
	if wc.Width <= 0 {
		result.AddError("window.width", fmt.Sprintf("must be positive, got %d", wc.Width))
	}
	if wc.Height <= 0 {
		result.AddError("window.height", fmt.Sprintf("must be positive, got %d", wc.Height))
	}

	const maxDimension = 10000
	if wc.Width > maxDimension {
		result.AddWarning("window.width", fmt.Sprintf("unusually large value %d", wc.Width))
	}
	if wc.Height > maxDimension {
		result.AddWarning("window.height", fmt.Sprintf("unusually large value %d", wc.Height))
	}

	if wc.FPS <= 0 {
		result.AddError("window.fps", fmt.Sprintf("must be positive, got %d", wc.FPS))
	} else if wc.FPS > 240 {
		result.AddWarning("window.fps", fmt.Sprintf("very high frame rate %d may cause high CPU usage", wc.FPS))
	}

	if bg, err := cfg.BackgroundColor(); err != nil {
		result.AddError("window.background", err.Error())
	} else if bg.A < 255 && !wc.Transparent {
		result.AddWarning("window.background", "translucent background without window.transparent")
	}
}

func (v *Validator) validateRender(cfg *Config, result *ValidationResult) {
	switch cfg.Render.Backend {
	case BackendSoftware, BackendGPU:
	default:
		result.AddError("render.backend", fmt.Sprintf("unknown backend %q", cfg.Render.Backend))
	}
	if _, err := compositor.ParseScissorMode(cfg.Render.Scissor); err != nil {
		result.AddError("render.scissor", err.Error())
	}
	if cfg.Render.Backend == BackendGPU && !cfg.Render.Antialias {
		result.AddWarning("render.antialias", "the gpu backend always antialiases")
	}
}

func (v *Validator) validateFont(fc *FontConfig, result *ValidationResult) {
	if fc.Family == "" {
		result.AddError("font.family", "must not be empty")
	} else if family, _ := render.ParseFontName(fc.Family); family == "" {
		result.AddError("font.family", fmt.Sprintf("invalid font name %q", fc.Family))
	}
	if len(fc.Family) > 256 {
		result.AddError("font.family", "font family name too long")
	}
	if fc.Size <= 0 {
		result.AddError("font.size", fmt.Sprintf("must be positive, got %d", fc.Size))
	}
	if fc.Size > 200 {
		result.AddWarning("font.size", fmt.Sprintf("unusually large font size: %d", fc.Size))
	}
}

func (v *Validator) validatePresent(cfg *Config, result *ValidationResult) {
	pc := &cfg.Present
	switch pc.Sink {
	case SinkWindow, SinkX11, SinkNone:
	case SinkPNG:
		if pc.PNGDir == "" {
			result.AddError("present.png_dir", "required for the png sink")
		}
	default:
		result.AddError("present.sink", fmt.Sprintf("unknown sink %q", pc.Sink))
	}
	if cfg.Render.Backend == BackendGPU && pc.Sink != SinkWindow {
		result.AddError("render.backend", "the gpu backend needs the window sink")
	}
	if strings.ContainsAny(pc.PNGPattern, `/\`) {
		result.AddError("present.png_pattern", "must be a file name, not a path")
	}
}

func (v *Validator) validateScene(sc *SceneConfig, result *ValidationResult) {
	if sc.Watch && sc.Script == "" {
		result.AddWarning("scene.watch", "no script to watch")
	}
	if sc.Script != "" && sc.CPULimit == 0 {
		result.AddWarning("scene.cpu_limit", "unlimited script execution may stall frames")
	}
}

// ValidateConfig validates cfg with default settings.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return NewValidator().Validate(cfg).Error()
}

// ValidateConfigStrict validates cfg treating warnings as errors.
func ValidateConfigStrict(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return NewValidator().WithStrictMode(true).Validate(cfg).Error()
}
