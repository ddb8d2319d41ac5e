package ast

import (
	"fmt"
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/expr"
	"github.com/tealc-lang/sclc/internal/lexer"
	"github.com/tealc-lang/sclc/internal/types"
)

// ForStatement is `for <ident> in <start>:<stop>: ... end`, a named
// induction variable counting from start (inclusive) to stop
// (exclusive).
type ForStatement struct {
	lineNo           int
	Var              string
	Start, Stop      expr.Node
	Body             []Statement
	startLbl, endLbl string
	slot             int
}

func parseForHeader(line, prefix string) (string, string, string, error) {
	rest := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, prefix)), ":")
	inIdx := strings.Index(rest, " in ")
	if inIdx < 0 {
		return "", "", "", fmt.Errorf("malformed for header %q", line)
	}
	name := strings.TrimSpace(rest[:inIdx])
	rangeSrc := strings.TrimSpace(rest[inIdx+4:])
	colon := strings.LastIndex(rangeSrc, ":")
	if colon < 0 {
		return "", "", "", fmt.Errorf("malformed for range %q", rangeSrc)
	}
	return name, rangeSrc[:colon], rangeSrc[colon+1:], nil
}

func consumeForBody(ctx *Context, label string) ([]Statement, error) {
	var body []Statement
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "unexpected end of input in %s loop", label)
		}
		if l == "end" {
			ctx.Lines.Next()
			return body, nil
		}
		stmt, err := consumeStatement(ctx)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
}

func consumeForStatement(ctx *Context) (Statement, error) {
	idx := ctx.NextConditionalIndex()
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	name, startSrc, stopSrc, err := parseForHeader(line, "for ")
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	start, err := expr.Parse(startSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	stop, err := expr.Parse(stopSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	f := &ForStatement{
		lineNo: lineNo, Var: name, Start: start, Stop: stop,
		startLbl: fmt.Sprintf("l%d_for", idx), endLbl: fmt.Sprintf("l%d_end", idx),
	}
	body, err := consumeForBody(ctx, "for")
	if err != nil {
		return nil, err
	}
	f.Body = body
	return f, nil
}

func (n *ForStatement) Process(ctx *Context) error {
	if _, err := n.Start.Check(ctx.Scope, ctx.Reg); err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if _, err := n.Stop.Check(ctx.Scope, ctx.Reg); err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	prevScope := ctx.Scope
	ctx.Scope = prevScope.NewChild("")
	v, err := ctx.Scope.DeclareVar(n.Var, types.NewIntType())
	if err != nil {
		ctx.Scope = prevScope
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
	}
	n.slot = v.ScratchSlot
	ctx.EnterWhile()
	defer func() { ctx.ExitWhile(); ctx.Scope.DeleteVar(n.Var); ctx.Scope = prevScope }()
	for _, stmt := range n.Body {
		if err := stmt.Process(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (n *ForStatement) WriteTeal(w Writer) {
	n.Start.Write(w)
	w.Line("store %d // %s", n.slot, n.Var)
	w.Label(n.startLbl + ":")
	w.Line("load %d // %s", n.slot, n.Var)
	n.Stop.Write(w)
	w.Line("==")
	w.Line("bnz %s", n.endLbl)
	w.Indent()
	w.PushBreakTarget(n.endLbl)
	for _, stmt := range n.Body {
		stmt.WriteTeal(w)
	}
	w.PopBreakTarget()
	w.Dedent()
	w.Line("load %d // %s", n.slot, n.Var)
	w.Line("pushint 1")
	w.Line("+")
	w.Line("store %d // %s", n.slot, n.Var)
	w.Line("b %s", n.startLbl)
	w.Label(n.endLbl + ":")
}
func (n *ForStatement) LineNo() int { return n.lineNo }

// For_Statement is the unnamed form `for _ in <start>:<stop>: ... end`,
// counting purely via stack values with no named induction variable.
type For_Statement struct {
	lineNo           int
	Start, Stop      expr.Node
	Body             []Statement
	startLbl, endLbl string
}

func consumeForUnnamedStatement(ctx *Context) (Statement, error) {
	idx := ctx.NextConditionalIndex()
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	_, startSrc, stopSrc, err := parseForHeader(line, "for ")
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	start, err := expr.Parse(startSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	stop, err := expr.Parse(stopSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	f := &For_Statement{
		lineNo: lineNo, Start: start, Stop: stop,
		startLbl: fmt.Sprintf("l%d_for", idx), endLbl: fmt.Sprintf("l%d_end", idx),
	}
	body, err := consumeForBody(ctx, "for _")
	if err != nil {
		return nil, err
	}
	f.Body = body
	return f, nil
}

func (n *For_Statement) Process(ctx *Context) error {
	if _, err := n.Start.Check(ctx.Scope, ctx.Reg); err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if _, err := n.Stop.Check(ctx.Scope, ctx.Reg); err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	prevScope := ctx.Scope
	ctx.Scope = prevScope.NewChild("")
	ctx.EnterWhile()
	defer func() { ctx.ExitWhile(); ctx.Scope = prevScope }()
	for _, stmt := range n.Body {
		if err := stmt.Process(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WriteTeal keeps the loop counter purely on the stack: it dup's the
// counter to compare, and pop's it on exit, matching the reference
// compiler's stack-only unnamed for loop.
func (n *For_Statement) WriteTeal(w Writer) {
	n.Start.Write(w)
	w.Label(n.startLbl + ":")
	w.Line("dup")
	n.Stop.Write(w)
	w.Line("==")
	w.Line("bnz %s", n.endLbl)
	w.Indent()
	w.PushBreakTarget(n.endLbl)
	for _, stmt := range n.Body {
		stmt.WriteTeal(w)
	}
	w.PopBreakTarget()
	w.Dedent()
	w.Line("pushint 1")
	w.Line("+")
	w.Line("b %s", n.startLbl)
	w.Label(n.endLbl + ":")
	w.Line("pop")
}
func (n *For_Statement) LineNo() int { return n.lineNo }
