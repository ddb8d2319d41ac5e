package rpcservice

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tealc-lang/sclc/internal/config"
	"github.com/tealc-lang/sclc/internal/diagnostics"
)

// parseConfigYAML decodes a build config submitted inline in a
// CompileRequest, starting from the same defaults LoadBuildConfig
// applies to a config file on disk.
func parseConfigYAML(data []byte) (config.BuildConfig, error) {
	cfg := config.DefaultBuildConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing inline config: %w", err)
	}
	if cfg.TargetVersion == 0 {
		cfg.TargetVersion = config.DefaultTargetVersion
	}
	return cfg, nil
}

// errorCode extracts the machine-readable diagnostic code from a
// compiler error, falling back to "E000" for errors that don't carry
// one (there should be none in practice, since every diagnostic the
// pipeline raises is a *diagnostics.ParseError or *diagnostics.CompileError).
func errorCode(err error) string {
	switch e := err.(type) {
	case *diagnostics.ParseError:
		return string(e.Code)
	case *diagnostics.CompileError:
		return string(e.Code)
	default:
		return "E000"
	}
}

// errorLine extracts the 1-based source line a diagnostic points at,
// or 0 if the error carries none.
func errorLine(err error) int {
	switch e := err.(type) {
	case *diagnostics.ParseError:
		return e.LineNo
	case *diagnostics.CompileError:
		return e.LineNo
	default:
		return 0
	}
}
