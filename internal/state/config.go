package state

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

const configFile = "config.toml"

// Config is the project-level configuration stored in .wm/config.toml.
type Config struct {
	Operations OperationsConfig `toml:"operations"`
	Dive       DiveConfig       `toml:"dive"`
	Oracle     OracleConfig     `toml:"oracle"`
}

// OperationsConfig pauses individual pipeline operations.
type OperationsConfig struct {
	Extract bool `toml:"extract"`
	Compile bool `toml:"compile"`
}

// DiveConfig names the currently active dive prep, if any.
type DiveConfig struct {
	Current string `toml:"current,omitempty"`
}

// OracleConfig selects and tunes the text-generation backend.
type OracleConfig struct {
	// Backend is "cli" (claude CLI subprocess, default) or "api"
	// (Anthropic API).
	Backend string `toml:"backend,omitempty"`

	// Model overrides the API backend's model.
	Model string `toml:"model,omitempty"`

	// MaxTokens caps API backend output. 0 uses the client default.
	MaxTokens int `toml:"max_tokens,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Operations: OperationsConfig{Extract: true, Compile: true},
		Oracle:     OracleConfig{Backend: "cli"},
	}
}

// ReadConfig loads .wm/config.toml, falling back to defaults when the
// file is missing or malformed. Configuration problems never block the
// pipeline.
func ReadConfig() Config {
	data, err := os.ReadFile(Path(configFile))
	if err != nil {
		return DefaultConfig()
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}
	return cfg
}

// WriteConfig stores the project configuration.
func WriteConfig(cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(Path(configFile), data)
}

// IsExtractEnabled reports whether extraction is enabled.
func IsExtractEnabled() bool { return ReadConfig().Operations.Extract }

// IsCompileEnabled reports whether compilation is enabled.
func IsCompileEnabled() bool { return ReadConfig().Operations.Compile }
