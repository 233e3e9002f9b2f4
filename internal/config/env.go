package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// envVarPattern matches ${VAR}, ${VAR:-default} and $VAR.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv replaces environment variable references in s. Unset
// variables without a default expand to the empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1]
			if name, def, ok := strings.Cut(inner, ":-"); ok {
				if val := os.Getenv(name); val != "" {
					return val
				}
				return def
			}
			return os.Getenv(inner)
		}
		return os.Getenv(match[1:])
	})
}

// ExpandEnvConfig expands environment references in every string field
// and resolves a leading ~ in paths.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	for _, s := range []*string{
		&cfg.Window.Title,
		&cfg.Window.Background,
		&cfg.Render.Backend,
		&cfg.Render.Scissor,
		&cfg.Font.Family,
		&cfg.Present.Sink,
		&cfg.Present.PNGPattern,
	} {
		*s = ExpandEnv(*s)
	}
	for _, p := range []*string{
		&cfg.Font.Path,
		&cfg.Present.PNGDir,
		&cfg.Scene.Script,
		&cfg.Profile.CPU,
		&cfg.Profile.Mem,
	} {
		*p = expandPath(ExpandEnv(*p))
	}
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}
