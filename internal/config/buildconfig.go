package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildConfig is the compiler's project-level configuration, loaded
// from a YAML file (conventionally "sclc.yaml") sitting next to the
// sources being compiled. It never changes the semantics of a
// program's own #pragma version line; it only supplies defaults and
// overrides for things the surface language leaves unsaid.
type BuildConfig struct {
	// TargetVersion is used as the emitted #pragma version when a
	// source file omits one. A source file's own #pragma always wins.
	TargetVersion int `yaml:"target_version"`

	// OutputDir is where cmd/sclc writes compiled assembly files.
	OutputDir string `yaml:"output_dir"`

	// InnerTxnMacro overrides the automatic inner-group-macro
	// detection (nil/omitted means "auto": enabled when the program
	// contains an inner_txn or inner_group block; a bare inner_txn also
	// goes through the macro subroutines).
	InnerTxnMacro *bool `yaml:"inner_txn_macro"`
}

// DefaultBuildConfig returns the configuration used when no YAML file
// is present.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		TargetVersion: DefaultTargetVersion,
		OutputDir:     ".",
	}
}

// LoadBuildConfig reads and parses a YAML build-config file. A missing
// file is not an error; it yields DefaultBuildConfig().
func LoadBuildConfig(path string) (BuildConfig, error) {
	cfg := DefaultBuildConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading build config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing build config %s: %w", path, err)
	}
	if cfg.TargetVersion == 0 {
		cfg.TargetVersion = DefaultTargetVersion
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return cfg, nil
}

// Bytes serializes the config back to YAML, used by internal/cache to
// fold the active configuration into the cache key so a config change
// invalidates cached output.
func (c BuildConfig) Bytes() []byte {
	data, _ := yaml.Marshal(c)
	return data
}
