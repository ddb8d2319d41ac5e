package ast

import (
	"fmt"
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/expr"
	"github.com/tealc-lang/sclc/internal/lexer"
	"github.com/tealc-lang/sclc/internal/types"
)

// condBranch is one if/elif/else arm.
type condBranch struct {
	lineNo    int
	Not       bool
	Cond      expr.Node // nil for else
	Body      []Statement
	startLbl  string
	nextLbl   string
}

// IfStatement is the full if/elif*/else? chain, sharing one end label.
type IfStatement struct {
	lineNo   int
	Branches []*condBranch
	endLbl   string
}

func consumeCondHeader(line, keyword string) (bool, string, error) {
	rest := strings.TrimPrefix(line, keyword)
	rest = strings.TrimSuffix(strings.TrimSpace(rest), ":")
	not := false
	if strings.HasPrefix(rest, "not ") {
		not = true
		rest = strings.TrimPrefix(rest, "not ")
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return false, "", fmt.Errorf("missing condition after %q", keyword)
	}
	return not, rest, nil
}

func consumeIfStatement(ctx *Context) (Statement, error) {
	idx := ctx.NextConditionalIndex()
	ifs := &IfStatement{lineNo: ctx.Lines.LineNo()}

	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	not, condSrc, err := consumeCondHeader(line, "if ")
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	cond, err := expr.Parse(condSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	branch := &condBranch{lineNo: ifs.lineNo, Not: not, Cond: cond}

	for {
		var body []Statement
		var term string
		for {
			l, ok := ctx.peekTrimmed()
			if !ok {
				return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "unexpected end of input in if statement")
			}
			if l == "end" || l == "else:" || l == "else" || strings.HasPrefix(l, "elif ") {
				term = l
				break
			}
			stmt, err := consumeStatement(ctx)
			if err != nil {
				return nil, err
			}
			body = append(body, stmt)
		}
		branch.Body = body
		ifs.Branches = append(ifs.Branches, branch)

		if term == "end" {
			ctx.Lines.Next()
			break
		}
		if strings.HasPrefix(term, "elif ") {
			eLineNo := ctx.Lines.LineNo()
			eLine, _ := ctx.Lines.Next()
			eLine = lexer.Strip(eLine)
			not, condSrc, err := consumeCondHeader(eLine, "elif ")
			if err != nil {
				return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
			}
			cond, err := expr.Parse(condSrc)
			if err != nil {
				return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
			}
			branch = &condBranch{lineNo: eLineNo, Not: not, Cond: cond}
			continue
		}
		// else
		ctx.Lines.Next()
		branch = &condBranch{lineNo: ctx.Lines.LineNo()}
		// consume else body then expect end
		var elseBody []Statement
		for {
			l, ok := ctx.peekTrimmed()
			if !ok {
				return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "unexpected end of input in else branch")
			}
			if l == "end" {
				ctx.Lines.Next()
				break
			}
			stmt, err := consumeStatement(ctx)
			if err != nil {
				return nil, err
			}
			elseBody = append(elseBody, stmt)
		}
		branch.Body = elseBody
		ifs.Branches = append(ifs.Branches, branch)
		break
	}

	// labels: l{N}_elif_{i}, l{N}_else, l{N}_end
	for i, b := range ifs.Branches {
		if i == 0 {
			continue
		}
		if b.Cond != nil {
			b.startLbl = fmt.Sprintf("l%d_elif_%d", idx, i)
		} else {
			b.startLbl = fmt.Sprintf("l%d_else", idx)
		}
	}
	ifs.endLbl = fmt.Sprintf("l%d_end", idx)
	for i, b := range ifs.Branches {
		if i+1 < len(ifs.Branches) {
			b.nextLbl = ifs.Branches[i+1].startLbl
		} else {
			b.nextLbl = ifs.endLbl
		}
	}
	return ifs, nil
}

func (n *IfStatement) allBranchesExit() bool {
	hasElse := false
	for _, b := range n.Branches {
		if b.Cond == nil {
			hasElse = true
		}
		if len(b.Body) == 0 || !isExitStatement(b.Body[len(b.Body)-1]) {
			return false
		}
	}
	return hasElse
}

func (n *IfStatement) Process(ctx *Context) error {
	for _, b := range n.Branches {
		if b.Cond != nil {
			ts, err := b.Cond.Check(ctx.Scope, ctx.Reg)
			if err != nil {
				return ctx.compileErrAt(b.lineNo, "", diagnostics.ErrExpression, "%s", err)
			}
			if !types.NewIntType().CanHold(ts[0]) {
				return ctx.compileErrAt(b.lineNo, "", diagnostics.ErrTypeMismatch, "condition must be int-typed")
			}
		}
		prevScope := ctx.Scope
		ctx.Scope = prevScope.NewChild("")
		for _, stmt := range b.Body {
			if err := stmt.Process(ctx); err != nil {
				ctx.Scope = prevScope
				return err
			}
		}
		ctx.Scope = prevScope
	}
	return nil
}

func (n *IfStatement) WriteTeal(w Writer) {
	for i, b := range n.Branches {
		if i > 0 {
			w.Label(b.startLbl + ":")
		}
		if b.Cond != nil {
			b.Cond.Write(w)
			if b.Not {
				w.Line("!")
			}
			w.Line("bz %s", b.nextLbl)
		}
		w.Indent()
		for _, stmt := range b.Body {
			stmt.WriteTeal(w)
		}
		w.Dedent()
		if i < len(n.Branches)-1 {
			w.Line("b %s", n.endLbl)
		}
	}
	w.Label(n.endLbl + ":")
}

func (n *IfStatement) LineNo() int { return n.lineNo }

// WhileStatement is `while [not] <expr>: ... end`.
type WhileStatement struct {
	lineNo   int
	Not      bool
	Cond     expr.Node
	Body     []Statement
	startLbl string
	endLbl   string
}

func consumeWhileStatement(ctx *Context) (Statement, error) {
	idx := ctx.NextConditionalIndex()
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	not, condSrc, err := consumeCondHeader(line, "while ")
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	cond, err := expr.Parse(condSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	w := &WhileStatement{
		lineNo: lineNo, Not: not, Cond: cond,
		startLbl: fmt.Sprintf("l%d_while", idx),
		endLbl:   fmt.Sprintf("l%d_end", idx),
	}
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "unexpected end of input in while loop")
		}
		if l == "end" {
			ctx.Lines.Next()
			break
		}
		stmt, err := consumeStatement(ctx)
		if err != nil {
			return nil, err
		}
		w.Body = append(w.Body, stmt)
	}
	return w, nil
}

func (n *WhileStatement) Process(ctx *Context) error {
	ts, err := n.Cond.Check(ctx.Scope, ctx.Reg)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if !types.NewIntType().CanHold(ts[0]) {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrTypeMismatch, "condition must be int-typed")
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

func (n *WhileStatement) WriteTeal(w Writer) {
	w.Label(n.startLbl + ":")
	n.Cond.Write(w)
	if n.Not {
		w.Line("!")
	}
	w.Line("bz %s", n.endLbl)
	w.Indent()
	w.PushBreakTarget(n.endLbl)
	for _, stmt := range n.Body {
		stmt.WriteTeal(w)
	}
	w.PopBreakTarget()
	w.Dedent()
	w.Line("b %s", n.startLbl)
	w.Label(n.endLbl + ":")
}
func (n *WhileStatement) LineNo() int { return n.lineNo }

// Break exits the nearest enclosing while loop.
type Break struct{ lineNo int }

func consumeBreak(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	return &Break{lineNo: lineNo}, nil
}
func (n *Break) Process(ctx *Context) error {
	if !ctx.InWhile() {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrWrongContext, "break outside of while loop")
	}
	return nil
}

// WriteTeal resolves its target via the Writer's break-target stack,
// set up by the enclosing while/for loop's WriteTeal.
func (n *Break) WriteTeal(w Writer) {
	target, ok := w.BreakTarget()
	if !ok {
		w.Line("// break (unresolved)")
		return
	}
	w.Line("b %s", target)
}
func (n *Break) LineNo() int { return n.lineNo }

// Jump unconditionally transfers control to a named block.
type Jump struct {
	lineNo      int
	Target      string
	targetLabel string
}

func consumeJump(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	target := strings.TrimSpace(strings.TrimPrefix(line, "jump "))
	return &Jump{lineNo: lineNo, Target: target}, nil
}
func (n *Jump) Process(ctx *Context) error {
	b, ok := ctx.Scope.LookupBlock(n.Target)
	if !ok {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnknownName, "unknown block %q", n.Target)
	}
	n.targetLabel = b.Label()
	return nil
}
func (n *Jump) WriteTeal(w Writer) { w.Line("b %s", n.targetLabel) }
func (n *Jump) LineNo() int        { return n.lineNo }

// Exit terminates program execution with an int result on the stack.
type Exit struct {
	lineNo int
	Value  expr.Node
}

func consumeExit(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(line), "exit("), ")")
	v, err := expr.Parse(inner)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	return &Exit{lineNo: lineNo, Value: v}, nil
}
func (n *Exit) Process(ctx *Context) error {
	_, err := n.Value.Check(ctx.Scope, ctx.Reg)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	return nil
}
func (n *Exit) WriteTeal(w Writer) {
	n.Value.Write(w)
	w.Line("return")
}
func (n *Exit) LineNo() int { return n.lineNo }

// Assert checks an int-typed expression is truthy, aborting with an
// optional message otherwise.
type Assert struct {
	lineNo int
	Cond   expr.Node
	Msg    string
}

func consumeAssert(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(line), "assert("), ")")
	parts := splitTopLevelComma(inner)
	condSrc := strings.TrimSpace(parts[0])
	cond, err := expr.Parse(condSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	a := &Assert{lineNo: lineNo, Cond: cond}
	if len(parts) > 1 {
		a.Msg = strings.Trim(strings.TrimSpace(parts[1]), `"`)
	}
	return a, nil
}
func (n *Assert) Process(ctx *Context) error {
	ts, err := n.Cond.Check(ctx.Scope, ctx.Reg)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if !types.NewIntType().CanHold(ts[0]) && ts[0].String() != "any" {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrTypeMismatch, "assert condition must be int-typed")
	}
	if n.Msg != "" {
		ctx.ErrorMessages[n.lineNo] = n.Msg
	}
	return nil
}
func (n *Assert) WriteTeal(w Writer) {
	n.Cond.Write(w)
	if n.Msg != "" {
		w.Line("assert // %s", n.Msg)
	} else {
		w.Line("assert")
	}
}
func (n *Assert) LineNo() int { return n.lineNo }

// splitTopLevelComma splits on commas that are not nested inside
// parens or quotes, used for assert's two-argument form.
func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i, r := range s {
		switch r {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
			}
		case ',':
			if !inQuote && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
