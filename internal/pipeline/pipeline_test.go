package pipeline_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/config"
	"github.com/tealc-lang/sclc/internal/pipeline"
)

const sampleSource = `#pragma version 8
const int Fee = 1000
int x = 1 + 2
exit(x)
`

func TestStandardPipelineProducesAssembly(t *testing.T) {
	ctx := pipeline.NewContext(sampleSource, config.DefaultBuildConfig())
	result := pipeline.Standard().Run(ctx)

	require.False(t, result.Failed(), "unexpected errors: %v", result.Errors)
	require.Contains(t, result.Output, "#pragma version 8")
	require.Contains(t, result.Output, "#define Fee 1000")
	require.True(t, strings.Contains(result.Output, "return"))
}

func TestStandardPipelineStopsCodegenOnParseError(t *testing.T) {
	ctx := pipeline.NewContext("not a valid program", config.DefaultBuildConfig())
	result := pipeline.Standard().Run(ctx)

	require.True(t, result.Failed())
	require.Empty(t, result.Output)
}

func TestMissingPragmaFilledFromConfig(t *testing.T) {
	cfg := config.DefaultBuildConfig()
	cfg.TargetVersion = 10
	ctx := pipeline.NewContext("int x = 1\nexit(x)\n", cfg)
	result := pipeline.Standard().Run(ctx)

	require.False(t, result.Failed(), "unexpected errors: %v", result.Errors)
	require.Contains(t, result.Output, "#pragma version 10")
}

func TestOwnPragmaWinsOverConfigDefault(t *testing.T) {
	cfg := config.DefaultBuildConfig()
	cfg.TargetVersion = 10
	ctx := pipeline.NewContext(sampleSource, cfg)
	result := pipeline.Standard().Run(ctx)

	require.False(t, result.Failed(), "unexpected errors: %v", result.Errors)
	require.Contains(t, result.Output, "#pragma version 8")
	require.NotContains(t, result.Output, "#pragma version 10")
}
