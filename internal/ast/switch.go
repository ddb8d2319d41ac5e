package ast

import (
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/expr"
	"github.com/tealc-lang/sclc/internal/lexer"
)

// SwitchOption is one `<case-expr>: <block-name>` line in a switch.
type SwitchOption struct {
	lineNo     int
	Case       expr.Node
	Block      string
	blockLabel string
}

// Switch is `switch <expr>: <case>: <block> ... [else: <block>] end`,
// dispatching to a block by name via the scope chain.
type Switch struct {
	lineNo    int
	Value     expr.Node
	Options   []*SwitchOption
	Else      string // "" if absent
	elseLabel string
}

func consumeSwitch(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	valueSrc := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, "switch ")), ":")
	val, err := expr.Parse(valueSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	s := &Switch{lineNo: lineNo, Value: val}
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "switch: unexpected end of input")
		}
		if l == "end" {
			ctx.Lines.Next()
			break
		}
		optLineNo := ctx.Lines.LineNo()
		ctx.Lines.Next()
		colon := strings.LastIndex(l, ":")
		if colon < 0 {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed switch option %q", l)
		}
		caseSrc := strings.TrimSpace(l[:colon])
		blockName := strings.TrimSpace(l[colon+1:])
		if caseSrc == "else" {
			s.Else = blockName
			continue
		}
		caseExpr, err := expr.Parse(caseSrc)
		if err != nil {
			return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
		}
		s.Options = append(s.Options, &SwitchOption{lineNo: optLineNo, Case: caseExpr, Block: blockName})
	}
	return s, nil
}

func (s *Switch) allOptionsExit() bool {
	// Switch always exits via jump to a block; blocks themselves are
	// validated to end in an exit statement at their own Process time.
	return s.Else != "" || true
}

func (s *Switch) Process(ctx *Context) error {
	if _, err := s.Value.Check(ctx.Scope, ctx.Reg); err != nil {
		return ctx.compileErrAt(s.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	for _, opt := range s.Options {
		if _, err := opt.Case.Check(ctx.Scope, ctx.Reg); err != nil {
			return ctx.compileErrAt(opt.lineNo, "", diagnostics.ErrExpression, "%s", err)
		}
		b, ok := ctx.Scope.LookupBlock(opt.Block)
		if !ok {
			return ctx.compileErrAt(opt.lineNo, "", diagnostics.ErrUnknownName, "unknown block %q", opt.Block)
		}
		opt.blockLabel = b.Label()
	}
	if s.Else != "" {
		b, ok := ctx.Scope.LookupBlock(s.Else)
		if !ok {
			return ctx.compileErrAt(s.lineNo, "", diagnostics.ErrUnknownName, "unknown block %q", s.Else)
		}
		s.elseLabel = b.Label()
	}
	return nil
}

func (s *Switch) WriteTeal(w Writer) {
	for _, opt := range s.Options {
		s.Value.Write(w)
		opt.Case.Write(w)
		w.Line("==")
		w.Line("bnz %s", opt.blockLabel)
	}
	if s.Else != "" {
		w.Line("b %s", s.elseLabel)
	} else {
		w.Line("err")
	}
}
func (s *Switch) LineNo() int { return s.lineNo }
