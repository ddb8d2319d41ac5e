package ast

import (
	"fmt"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/lexer"
)

// Blank is an empty source line, preserved only so line numbers stay
// aligned between source and diagnostics; it emits nothing.
type Blank struct{ lineNo int }

func consumeBlank(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	return &Blank{lineNo: lineNo}, nil
}
func (n *Blank) Process(*Context) error { return nil }
func (n *Blank) WriteTeal(Writer)       {}
func (n *Blank) LineNo() int            { return n.lineNo }

// Comment is a `// ...` line, preserved and re-emitted as a target
// assembly comment for readability of the generated output.
type Comment struct {
	lineNo int
	Text   string
}

func consumeComment(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	raw, _ := ctx.Lines.Next()
	return &Comment{lineNo: lineNo, Text: raw}, nil
}
func (n *Comment) Process(*Context) error { return nil }
func (n *Comment) WriteTeal(w Writer)     { w.Line("%s", n.Text) }
func (n *Comment) LineNo() int            { return n.lineNo }

// TealVersion is the mandatory `#pragma version <N>` line, required on
// line 1 of the program.
type TealVersion struct {
	lineNo  int
	Version int
}

func consumeTealVersion(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	if lineNo != 1 {
		return nil, ctx.parseErr(diagnostics.ErrBadPragmaPosition, "#pragma version must be the first line")
	}
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	var v int
	if _, err := fmt.Sscanf(line, "#pragma version %d", &v); err != nil {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed #pragma version line: %q", line)
	}
	return &TealVersion{lineNo: lineNo, Version: v}, nil
}

func (n *TealVersion) Process(*Context) error { return nil }
func (n *TealVersion) WriteTeal(w Writer)     { w.Line("#pragma version %d", n.Version) }
func (n *TealVersion) LineNo() int            { return n.lineNo }
