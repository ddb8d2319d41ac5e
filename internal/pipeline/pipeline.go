// Package pipeline wires the parse/analyze/generate stages of a
// compilation together as independent Processors, mirroring the
// reference compiler's own pipeline package: a Context threaded
// through a fixed list of Processors, each free to inspect and extend
// it, with every stage running even if an earlier one failed so
// diagnostics accumulate across the whole pass rather than stopping
// at the first error.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/tealc-lang/sclc/internal/ast"
	"github.com/tealc-lang/sclc/internal/codegen"
	"github.com/tealc-lang/sclc/internal/config"
	"github.com/tealc-lang/sclc/internal/lexer"
)

// Context carries a single compilation's state between stages: the
// raw source and active config going in, the parsed/processed AST and
// diagnostics accumulated along the way, and the rendered assembly
// text once the generate stage has run.
type Context struct {
	Source string
	Config config.BuildConfig

	Lines   *lexer.Lines
	AstCtx  *ast.Context
	Program *ast.Program

	Output string
	Errors []error
}

// NewContext builds the initial Context for a single source string. A
// missing #pragma version line is filled in from cfg.TargetVersion; a
// source file's own pragma, if present, always wins.
func NewContext(source string, cfg config.BuildConfig) *Context {
	source = ensurePragma(source, cfg.TargetVersion)
	lines := lexer.New(source)
	return &Context{
		Source: source,
		Config: cfg,
		Lines:  lines,
		AstCtx: ast.NewContext(lines),
	}
}

// ensurePragma prepends "#pragma version <version>" when the source's
// first non-blank, non-comment line isn't already a pragma.
func ensurePragma(source string, version int) string {
	for _, raw := range strings.Split(source, "\n") {
		t := strings.TrimSpace(raw)
		if t == "" || strings.HasPrefix(t, "//") {
			continue
		}
		if strings.HasPrefix(t, "#pragma version") {
			return source
		}
		break
	}
	return fmt.Sprintf("#pragma version %d\n%s", version, source)
}

// Failed reports whether any stage recorded an error.
func (c *Context) Failed() bool { return len(c.Errors) > 0 }

// Processor is one stage of the pipeline. It receives the Context left
// by the previous stage and returns the Context to pass to the next
// one (ordinarily the same pointer, mutated in place).
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline runs a fixed sequence of Processors over a Context.
type Pipeline struct {
	processors []Processor
}

// New builds a Pipeline from the given stages, run in order.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order, continuing even after a stage
// reports errors so later stages (where applicable) can still surface
// diagnostics of their own -- codegen stages guard on ctx.Failed() to
// avoid emitting assembly for a program that never parsed.
func (p *Pipeline) Run(initial *Context) *Context {
	ctx := initial
	for _, proc := range p.processors {
		ctx = proc.Process(ctx)
	}
	return ctx
}

// ParseStage consumes the whole source into a Program, recording a
// parse error (and nothing else) on failure.
type ParseStage struct{}

func (ParseStage) Process(ctx *Context) *Context {
	prog, err := ast.Consume(ctx.AstCtx)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Program = prog
	return ctx
}

// AnalyzeStage runs semantic analysis (scope/type checking) over an
// already-parsed Program. It is a no-op if parsing failed.
type AnalyzeStage struct{}

func (AnalyzeStage) Process(ctx *Context) *Context {
	if ctx.Program == nil {
		return ctx
	}
	if err := ctx.Program.Process(ctx.AstCtx); err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	if ctx.Config.InnerTxnMacro != nil {
		ctx.Program.SetInnerTxnMacro(*ctx.Config.InnerTxnMacro)
	}
	return ctx
}

// GenerateStage renders the processed Program to assembly text. It is
// a no-op if any earlier stage failed, since WriteTeal assumes a fully
// resolved program (slots, labels, struct layouts all assigned).
type GenerateStage struct{}

func (GenerateStage) Process(ctx *Context) *Context {
	if ctx.Failed() || ctx.Program == nil {
		return ctx
	}
	w := codegen.New()
	ctx.Program.WriteTeal(w)
	ctx.Output = w.String()
	return ctx
}

// Standard returns the parse -> analyze -> generate pipeline every
// compile entry point (CLI, gRPC service, cache) drives.
func Standard() *Pipeline {
	return New(ParseStage{}, AnalyzeStage{}, GenerateStage{})
}
