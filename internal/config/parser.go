package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath returns ~/.config/xui/xui.toml, or $XDG_CONFIG_HOME/xui/xui.toml
// when that is set.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "xui", "xui.toml"), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "xui", "xui.toml"), nil
}

// Parse decodes TOML on top of Defaults and expands environment
// references. Unknown keys are errors.
func Parse(content []byte) (*Config, error) {
	return ParseReader(bytes.NewReader(content))
}

// ParseReader is Parse for a reader.
func ParseReader(r io.Reader) (*Config, error) {
	cfg := Defaults()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown configuration keys:\n%s", strict.String())
		}
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			row, col := decErr.Position()
			return nil, fmt.Errorf("failed to parse config at line %d, column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ExpandEnvConfig(&cfg)
	return &cfg, nil
}

// ParseFile reads and parses the file at path. A leading ~ is expanded.
func ParseFile(path string) (*Config, error) {
	path = expandPath(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseFromFS reads and parses a config file from fsys.
func ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(content)
}

// Load parses path, or the default path when path is empty. A missing
// default file yields Defaults; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	if path != "" {
		return ParseFile(path)
	}
	def, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := ParseFile(def)
	if errors.Is(err, fs.ErrNotExist) {
		d := Defaults()
		return &d, nil
	}
	return cfg, err
}

// Marshal encodes cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
