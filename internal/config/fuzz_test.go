package config

import "testing"

// FuzzParse checks that arbitrary input never panics the decoder.
func FuzzParse(f *testing.F) {
	f.Add([]byte(sampleConfig))
	f.Add([]byte(""))
	f.Add([]byte("[window]"))
	f.Add([]byte("[window]\nwidth = -1"))
	f.Add([]byte("[[window]]"))
	f.Add([]byte("title = \"${HOME:-x}\""))

	f.Fuzz(func(t *testing.T, data []byte) {
		cfg, err := Parse(data)
		if err == nil && cfg == nil {
			t.Error("Parse returned nil config with nil error")
		}
		if cfg != nil {
			_ = NewValidator().Validate(cfg)
		}
	})
}

// FuzzExpandEnv checks expansion of arbitrary strings.
func FuzzExpandEnv(f *testing.F) {
	f.Add("${HOME}")
	f.Add("${UNSET:-default}")
	f.Add("$")
	f.Add("${")
	f.Add("${:-}")
	f.Fuzz(func(t *testing.T, s string) {
		_ = ExpandEnv(s)
	})
}
