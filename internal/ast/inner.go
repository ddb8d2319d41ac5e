package ast

import (
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/expr"
)

// InnerTxnFieldSetter is one `<field>[<i>]?: <expr>` line inside an
// inner_txn or inner_group block. Array fields must appear with
// strictly increasing indices starting at 0.
type InnerTxnFieldSetter struct {
	lineNo int
	Field  string
	Index  int // -1 if not an array field
	Value  expr.Node
}

func parseInnerFieldSetter(ctx *Context, line string) (*InnerTxnFieldSetter, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	colon := strings.Index(line, ":")
	if colon < 0 {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed field setter %q", line)
	}
	head := strings.TrimSpace(line[:colon])
	valueSrc := strings.TrimSpace(line[colon+1:])
	field := head
	index := -1
	if open := strings.Index(head, "["); open >= 0 {
		field = head[:open]
		closeIdx := strings.Index(head, "]")
		if closeIdx < open {
			return nil, ctx.parseErr(diagnostics.ErrBadFieldIndex, "malformed field index in %q", head)
		}
		idxStr := head[open+1 : closeIdx]
		var n int
		for _, r := range idxStr {
			if r < '0' || r > '9' {
				return nil, ctx.parseErr(diagnostics.ErrBadFieldIndex, "non-numeric field index in %q", head)
			}
			n = n*10 + int(r-'0')
		}
		index = n
	}
	val, err := expr.Parse(valueSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	return &InnerTxnFieldSetter{lineNo: lineNo, Field: field, Index: index, Value: val}, nil
}

func processFieldSetters(ctx *Context, setters []*InnerTxnFieldSetter) error {
	nextIdx := map[string]int{}
	for _, s := range setters {
		if _, err := s.Value.Check(ctx.Scope, ctx.Reg); err != nil {
			return ctx.compileErrAt(s.lineNo, "", diagnostics.ErrExpression, "%s", err)
		}
		if s.Index < 0 {
			continue
		}
		want := nextIdx[s.Field]
		if s.Index != want {
			return ctx.compileErrAt(s.lineNo, "", diagnostics.ErrBadFieldIndex, "field %s[%d] set out of order, expected index %d", s.Field, s.Index, want)
		}
		nextIdx[s.Field] = want + 1
	}
	return nil
}

func writeFieldSetters(w Writer, setters []*InnerTxnFieldSetter) {
	for _, s := range setters {
		s.Value.Write(w)
		if s.Index >= 0 {
			w.Line("itxn_field %s // [%d]", s.Field, s.Index)
		} else {
			w.Line("itxn_field %s", s.Field)
		}
	}
}

// InnerTxn is `inner_txn: <field>[<i>]?: <expr> ... end`, a single
// inner transaction built and submitted as one unit.
type InnerTxn struct {
	lineNo  int
	Setters []*InnerTxnFieldSetter
}

func consumeInnerTxn(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	n := &InnerTxn{lineNo: lineNo}
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "inner_txn: unexpected end of input")
		}
		if l == "end" {
			ctx.Lines.Next()
			break
		}
		s, err := parseInnerFieldSetter(ctx, l)
		if err != nil {
			return nil, err
		}
		n.Setters = append(n.Setters, s)
	}
	return n, nil
}

func (n *InnerTxn) Process(ctx *Context) error {
	ctx.UseInnerTxnsMacro = true
	return processFieldSetters(ctx, n.Setters)
}

func (n *InnerTxn) WriteTeal(w Writer) {
	w.Line("callsub _itxn_begin")
	writeFieldSetters(w, n.Setters)
	w.Line("callsub _itxn_submit")
}
func (n *InnerTxn) LineNo() int { return n.lineNo }

// InnerGroup is `inner_group: inner_txn: ... end inner_txn: ... end end`,
// several inner transactions submitted as one atomic group.
type InnerGroup struct {
	lineNo int
	Txns   []*InnerTxn
}

func consumeInnerGroup(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	g := &InnerGroup{lineNo: lineNo}
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "inner_group: unexpected end of input")
		}
		if l == "end" {
			ctx.Lines.Next()
			break
		}
		if l != "inner_txn:" {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "inner_group may only contain inner_txn blocks, got %q", l)
		}
		stmt, err := consumeInnerTxn(ctx)
		if err != nil {
			return nil, err
		}
		g.Txns = append(g.Txns, stmt.(*InnerTxn))
	}
	return g, nil
}

func (n *InnerGroup) Process(ctx *Context) error {
	ctx.UseInnerTxnsMacro = true
	for _, t := range n.Txns {
		if err := processFieldSetters(ctx, t.Setters); err != nil {
			return err
		}
	}
	return nil
}

func (n *InnerGroup) WriteTeal(w Writer) {
	w.Line("callsub _itxn_group_begin")
	for _, t := range n.Txns {
		w.Line("callsub _itxn_begin")
		writeFieldSetters(w, t.Setters)
		w.Line("callsub _itxn_submit")
	}
	w.Line("callsub _itxn_group_submit")
}
func (n *InnerGroup) LineNo() int { return n.lineNo }

// writeInnerTxnMacroSubroutines emits the four grouping-state-machine
// subroutines keyed off a single scratch slot holding the group flag:
// 0 (no group open), 1 (group armed, no txn submitted yet) or 2 (at
// least one txn already submitted in the current group). _itxn_begin
// and _itxn_submit dispatch on the flag so a bare inner_txn and one
// nested inside an inner_group both route through the same callsub
// pair at the call site.
func writeInnerTxnMacroSubroutines(w Writer, flagSlot int) {
	w.Line("")
	w.Label("_itxn_group_begin:")
	w.Indent()
	w.Line("load %d // inner_group_flag", flagSlot)
	w.Line("pushint 0")
	w.Line("==")
	w.Line("assert")
	w.Line("pushint 1")
	w.Line("store %d // inner_group_flag", flagSlot)
	w.Line("retsub")
	w.Dedent()

	w.Label("_itxn_begin:")
	w.Indent()
	w.Line("load %d // inner_group_flag", flagSlot)
	w.Line("pushint 2")
	w.Line("==")
	w.Line("bnz _itxn_begin_next")
	w.Line("load %d // inner_group_flag", flagSlot)
	w.Line("pushint 1")
	w.Line("==")
	w.Line("bz _itxn_begin_standalone")
	w.Line("itxn_begin")
	w.Line("pushint 2")
	w.Line("store %d // inner_group_flag", flagSlot)
	w.Line("retsub")
	w.Dedent()
	w.Label("_itxn_begin_standalone:")
	w.Indent()
	w.Line("itxn_begin")
	w.Line("retsub")
	w.Dedent()
	w.Label("_itxn_begin_next:")
	w.Indent()
	w.Line("itxn_next")
	w.Line("retsub")
	w.Dedent()

	w.Label("_itxn_submit:")
	w.Indent()
	w.Line("load %d // inner_group_flag", flagSlot)
	w.Line("pushint 0")
	w.Line("==")
	w.Line("bz _itxn_submit_deferred")
	w.Line("itxn_submit")
	w.Line("retsub")
	w.Dedent()
	w.Label("_itxn_submit_deferred:")
	w.Indent()
	w.Line("retsub")
	w.Dedent()

	w.Label("_itxn_group_submit:")
	w.Indent()
	w.Line("itxn_submit")
	w.Line("pushint 0")
	w.Line("store %d // inner_group_flag", flagSlot)
	w.Line("retsub")
	w.Dedent()
}

// Teal is `teal: ... end`, raw target-assembly lines passed through
// verbatim without any parsing or type checking.
type Teal struct {
	lineNo int
	Lines  []string
}

func consumeTeal(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	t := &Teal{lineNo: lineNo}
	for {
		raw, ok := ctx.Lines.Next()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "teal: unexpected end of input")
		}
		if strings.TrimSpace(raw) == "end" {
			break
		}
		t.Lines = append(t.Lines, raw)
	}
	return t, nil
}

func (t *Teal) Process(*Context) error { return nil }
func (t *Teal) WriteTeal(w Writer) {
	for _, l := range t.Lines {
		w.Line("%s", l)
	}
}
func (t *Teal) LineNo() int { return t.lineNo }
