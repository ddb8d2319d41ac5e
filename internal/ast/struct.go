package ast

import (
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/expr"
	"github.com/tealc-lang/sclc/internal/lexer"
	"github.com/tealc-lang/sclc/internal/types"
)

// StructFieldDefinition is one `<field>: <type>` line inside a struct
// definition.
type StructFieldDefinition struct {
	Name     string
	TypeName string
}

// StructDefinition is `struct <Name>: <field>: <type> ... end`,
// required to appear at the top of the program (preceded only by
// blank lines and comments).
type StructDefinition struct {
	lineNo int
	Name   string
	Fields []StructFieldDefinition
}

func consumeStructDefinition(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	name := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(line, "struct ")), ":")
	s := &StructDefinition{lineNo: lineNo, Name: name}
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "struct %q: unexpected end of input", name)
		}
		if l == "end" {
			ctx.Lines.Next()
			break
		}
		ctx.Lines.Next()
		parts := strings.SplitN(l, ":", 2)
		if len(parts) != 2 {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed struct field %q", l)
		}
		s.Fields = append(s.Fields, StructFieldDefinition{
			Name:     strings.TrimSpace(parts[0]),
			TypeName: strings.TrimSpace(parts[1]),
		})
	}
	return s, nil
}

func (s *StructDefinition) Process(ctx *Context) error {
	st := types.NewStructType(s.Name)
	for _, f := range s.Fields {
		t, err := ctx.Reg.GetTypeInstance(f.TypeName)
		if err != nil {
			return ctx.compileErrAt(s.lineNo, "", diagnostics.ErrUnknownType, "%s", err)
		}
		if err := st.AddField(f.Name, t); err != nil {
			return ctx.compileErrAt(s.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
		}
	}
	if err := ctx.Reg.DefineStruct(st); err != nil {
		return ctx.compileErrAt(s.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
	}
	return nil
}

func (s *StructDefinition) WriteTeal(Writer) {}
func (s *StructDefinition) LineNo() int      { return s.lineNo }

// BoxDeclaration is `box<StructName> <ident> = (Open|Create|OpenOrCreate)?Box(<expr>)`.
type BoxDeclaration struct {
	lineNo     int
	TypeName   string
	Name       string
	Method     string // "", "Open", "Create", "OpenOrCreate"
	Key        expr.Node
	slot       int
	structSize int
}

func consumeBoxDeclaration(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	eqIdx := strings.Index(line, "=")
	if eqIdx < 0 {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed box declaration %q", line)
	}
	head := strings.Fields(strings.TrimSpace(line[:eqIdx]))
	if len(head) != 2 {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed box declaration %q", line)
	}
	rhs := strings.TrimSpace(line[eqIdx+1:])
	method := ""
	for _, m := range []string{"OpenOrCreate", "Open", "Create"} {
		if strings.HasPrefix(rhs, m+"Box(") {
			method = m
			rhs = strings.TrimPrefix(rhs, m+"Box(")
			break
		}
	}
	if method == "" {
		rhs = strings.TrimPrefix(rhs, "Box(")
	}
	rhs = strings.TrimSuffix(rhs, ")")
	key, err := expr.Parse(rhs)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	return &BoxDeclaration{lineNo: lineNo, TypeName: head[0], Name: head[1], Method: method, Key: key}, nil
}

func (n *BoxDeclaration) Process(ctx *Context) error {
	t, err := ctx.Reg.GetTypeInstance(n.TypeName)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnknownType, "%s", err)
	}
	ts, err := n.Key.Check(ctx.Scope, ctx.Reg)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if !types.NewBytesType().CanHold(ts[0]) {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrTypeMismatch, "box key must be bytes-typed")
	}
	if bt, ok := t.(types.BoxType); ok {
		n.structSize = bt.Struct.Size()
	}
	v, err := ctx.Scope.DeclareVar(n.Name, t)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
	}
	n.slot = v.ScratchSlot
	return nil
}

func (n *BoxDeclaration) WriteTeal(w Writer) {
	n.Key.Write(w)
	switch n.Method {
	case "Open":
		w.Line("dup")
		w.Line("box_len")
		w.Line("assert")
		w.Line("pushint %d", n.structSize)
		w.Line("==")
		w.Line("assert")
	case "Create":
		w.Line("dup")
		w.Line("pushint %d", n.structSize)
		w.Line("box_create")
		w.Line("assert")
	case "OpenOrCreate":
		w.Line("dup")
		w.Line("pushint %d", n.structSize)
		w.Line("box_create")
		w.Line("pop")
	}
	w.Line("store %d // %s", n.slot, n.Name)
}
func (n *BoxDeclaration) LineNo() int { return n.lineNo }
