// Package compiler exposes the single entry point every front end
// (CLI, gRPC service, build cache) drives: take a source string and a
// build configuration, run it through the parse/analyze/generate
// pipeline, and hand back either assembly text or the diagnostics that
// explain why there isn't any.
package compiler

import (
	"github.com/tealc-lang/sclc/internal/config"
	"github.com/tealc-lang/sclc/internal/pipeline"
)

// Result is the outcome of compiling one source file.
type Result struct {
	// Output is the generated assembly text. It is empty whenever
	// Errors is non-empty.
	Output string
	Errors []error
}

// OK reports whether compilation succeeded.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Compiler runs the standard pipeline. It holds no mutable state of
// its own -- every field the pipeline needs is per-compilation, never
// a package global -- so a single Compiler value is safe to share and
// reuse concurrently across goroutines.
type Compiler struct {
	pipeline *pipeline.Pipeline
}

// New returns a Compiler running the standard parse/analyze/generate
// pipeline.
func New() *Compiler {
	return &Compiler{pipeline: pipeline.Standard()}
}

// Compile runs one source file through the pipeline and returns its
// result. cfg supplies the target version, which a #pragma version
// line in the source takes precedence over, and the inner-txn macro
// override, which takes precedence over what the program itself uses.
func (c *Compiler) Compile(source string, cfg config.BuildConfig) Result {
	ctx := pipeline.NewContext(source, cfg)
	result := c.pipeline.Run(ctx)
	return Result{Output: result.Output, Errors: result.Errors}
}

// CompileDefault runs Compile with config.DefaultBuildConfig(), the
// shape most tests and the CLI's simplest invocation use.
func CompileDefault(source string) Result {
	return New().Compile(source, config.DefaultBuildConfig())
}
