// Package ast implements the statement node hierarchy: each node
// knows how to consume itself from the line cursor, process itself
// against the active scope (binding names, checking types), and write
// itself out as target-assembly instructions. This mirrors the
// reference compiler's per-node Consume/Process/WriteTeal trio, but
// dispatches on an explicit statement-kind switch rather than on
// regex-matching against every candidate node class in turn.
package ast

import (
	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/lexer"
	"github.com/tealc-lang/sclc/internal/symbols"
	"github.com/tealc-lang/sclc/internal/types"
)

// Writer is the minimal surface a code generator exposes to AST nodes.
// The break-target stack is carried on the Writer (rather than a
// package-level variable) so that two concurrent WriteTeal traversals
// of distinct programs never share write-time state.
type Writer interface {
	Line(format string, args ...interface{})
	Label(name string)
	Indent()
	Dedent()
	PushBreakTarget(label string)
	PopBreakTarget()
	BreakTarget() (string, bool)
}

// Context is the mutable state threaded through every Consume and
// Process call: the line cursor, the type registry, the current
// lexical scope, and the compiler-wide counters needed for
// deterministic label generation.
type Context struct {
	Lines *lexer.Lines
	Reg   *types.Registry
	Root  *symbols.Scope

	// Scope is the currently active scope; Process implementations
	// that open a nested scope must save/restore this field around
	// processing their body.
	Scope *symbols.Scope

	conditionalIndex int
	inWhile          int // nesting depth, > 0 means `break` is legal
	inFunc           *Func

	// ErrorMessages holds the optional assert() message keyed by the
	// line number of the assert statement, consulted by the runtime
	// error reporting layer (out of this package's scope, but recorded
	// here per spec.md's "record in compiler.error_messages").
	ErrorMessages map[int]string

	// UseInnerTxnsMacro is set once any InnerTxn/InnerGroup construct is
	// processed; it controls whether the grouping-flag subroutines are
	// emitted by the program's code generator.
	UseInnerTxnsMacro bool
}

// NewContext creates a fresh, per-compilation Context. Registry and
// root scope are never package globals (see DESIGN.md).
func NewContext(lines *lexer.Lines) *Context {
	root := symbols.NewRootScope()
	return &Context{
		Lines:         lines,
		Reg:           types.NewRegistry(),
		Root:          root,
		Scope:         root,
		ErrorMessages: map[int]string{},
	}
}

// NextConditionalIndex returns a fresh, globally unique index used to
// derive if/while/for label names.
func (c *Context) NextConditionalIndex() int {
	i := c.conditionalIndex
	c.conditionalIndex++
	return i
}

// EnterWhile/ExitWhile track whether `break` is currently legal.
func (c *Context) EnterWhile() { c.inWhile++ }
func (c *Context) ExitWhile()  { c.inWhile-- }
func (c *Context) InWhile() bool { return c.inWhile > 0 }

// EnterFunc/ExitFunc track the enclosing function so `return` can
// validate its arity and types against it.
func (c *Context) EnterFunc(f *Func) (prev *Func) {
	prev = c.inFunc
	c.inFunc = f
	return prev
}
func (c *Context) ExitFunc(prev *Func) { c.inFunc = prev }
func (c *Context) CurrentFunc() *Func  { return c.inFunc }

// peekTrimmed returns the next line, stripped of surrounding
// whitespace, without consuming it.
func (c *Context) peekTrimmed() (string, bool) {
	line, ok := c.Lines.Peek()
	if !ok {
		return "", false
	}
	return lexer.Strip(line), true
}

func (c *Context) parseErr(code diagnostics.ErrorCode, format string, args ...interface{}) error {
	line, _ := c.Lines.Peek()
	return diagnostics.NewParseError(code, c.Lines.LineNo(), line, format, args...)
}

func (c *Context) compileErrAt(lineNo int, line string, code diagnostics.ErrorCode, format string, args ...interface{}) error {
	return diagnostics.NewCompileError(code, lineNo, line, format, args...)
}

// Statement is the interface every statement-kind AST node satisfies.
type Statement interface {
	Process(ctx *Context) error
	WriteTeal(w Writer)
	LineNo() int
}

// consumeStatement dispatches on the next line's prefix, in the
// priority order fixed by spec.md 4.1, and returns the parsed
// (not-yet-processed) node.
func consumeStatement(ctx *Context) (Statement, error) {
	line, ok := ctx.peekTrimmed()
	if !ok {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "unexpected end of input")
	}
	switch {
	case line == "" || lexer.IsBlank(line):
		return consumeBlank(ctx)
	case lexer.IsComment(line):
		return consumeComment(ctx)
	case hasPrefix(line, "#pragma version"):
		return consumeTealVersion(ctx)
	case hasPrefix(line, "struct "):
		return consumeStructDefinition(ctx)
	case hasPrefix(line, "block "):
		return consumeBlock(ctx)
	case hasPrefix(line, "switch "):
		return consumeSwitch(ctx)
	case hasPrefix(line, "router:"):
		return consumeRouter(ctx)
	case hasPrefix(line, "@"):
		return consumeDecoratedFunc(ctx)
	case hasPrefix(line, "func "):
		return consumeFunc(ctx)
	case hasPrefix(line, "if "):
		return consumeIfStatement(ctx)
	case hasPrefix(line, "while "):
		return consumeWhileStatement(ctx)
	case hasPrefix(line, "for _"):
		return consumeForUnnamedStatement(ctx)
	case hasPrefix(line, "for "):
		return consumeForStatement(ctx)
	case hasPrefix(line, "teal:"):
		return consumeTeal(ctx)
	case hasPrefix(line, "inner_group:"):
		return consumeInnerGroup(ctx)
	case hasPrefix(line, "inner_txn:"):
		return consumeInnerTxn(ctx)
	case hasPrefix(line, "box<"):
		return consumeBoxDeclaration(ctx)
	case hasPrefix(line, "const "):
		return consumeConst(ctx, line)
	case hasPrefix(line, "jump "):
		return consumeJump(ctx)
	case hasPrefix(line, "break"):
		return consumeBreak(ctx)
	case hasPrefix(line, "exit("):
		return consumeExit(ctx)
	case hasPrefix(line, "return"):
		return consumeReturn(ctx)
	case hasPrefix(line, "assert("):
		return consumeAssert(ctx)
	default:
		return consumeLineStatement(ctx)
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
