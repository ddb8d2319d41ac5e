package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/compiler"
	"github.com/tealc-lang/sclc/internal/config"
)

func TestCompileDefaultSucceeds(t *testing.T) {
	result := compiler.CompileDefault("#pragma version 8\nint x = 5\nexit(x)\n")
	require.True(t, result.OK(), "unexpected errors: %v", result.Errors)
	require.Contains(t, result.Output, "#pragma version 8")
}

func TestCompileReturnsDiagnosticsOnFailure(t *testing.T) {
	c := compiler.New()
	result := c.Compile("#pragma version 8\nint x = undeclared_name\nexit(x)\n", config.DefaultBuildConfig())
	require.False(t, result.OK())
	require.NotEmpty(t, result.Errors)
}

func TestCompilerIsReusableAcrossCalls(t *testing.T) {
	c := compiler.New()
	cfg := config.DefaultBuildConfig()
	first := c.Compile("#pragma version 8\nint x = 1\nexit(x)\n", cfg)
	second := c.Compile("#pragma version 9\nint y = 2\nexit(y)\n", cfg)

	require.True(t, first.OK())
	require.True(t, second.OK())
	require.Contains(t, first.Output, "#pragma version 8")
	require.Contains(t, second.Output, "#pragma version 9")
}
