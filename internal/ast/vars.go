package ast

import (
	"fmt"
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/expr"
	"github.com/tealc-lang/sclc/internal/types"
)

// VarDeclaration is `<Type> <ident> [= <expr>]`, allocating a scratch
// slot and optionally initializing it.
type VarDeclaration struct {
	lineNo   int
	TypeName string
	Name     string
	Value    expr.Node // nil if uninitialized
	declType types.Type
	slot     int
}

func consumeVarDeclaration(ctx *Context, line string) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	typeName, name, valueSrc, ok := splitDeclaration(line)
	if !ok {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "cannot parse declaration %q", line)
	}
	v := &VarDeclaration{lineNo: lineNo, TypeName: typeName, Name: name}
	if valueSrc != "" {
		val, err := expr.Parse(valueSrc)
		if err != nil {
			return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
		}
		v.Value = val
	}
	return v, nil
}

// splitDeclaration parses "Type ident" or "Type ident = expr" into its
// three parts.
func splitDeclaration(line string) (typeName, name, value string, ok bool) {
	eqIdx := strings.Index(line, "=")
	head := line
	if eqIdx >= 0 {
		head = line[:eqIdx]
		value = strings.TrimSpace(line[eqIdx+1:])
	}
	fields := strings.Fields(head)
	if len(fields) != 2 {
		return "", "", "", false
	}
	return fields[0], fields[1], value, true
}

func (n *VarDeclaration) Process(ctx *Context) error {
	t, err := ctx.Reg.GetTypeInstance(n.TypeName)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnknownType, "%s", err)
	}
	n.declType = t
	if n.Value != nil {
		ts, err := n.Value.Check(ctx.Scope, ctx.Reg)
		if err != nil {
			return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
		}
		if len(ts) != 1 {
			return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrArityMismatch, "declaration initializer must yield exactly one value")
		}
		if !t.CanHold(ts[0]) {
			msg := fmt.Sprintf("cannot assign %s to %s %s", ts[0], n.TypeName, n.Name)
			if t.CanHoldWithCast(ts[0]) {
				msg += fmt.Sprintf("\nPerhaps Cast or padding is required?\n+ %s %s = Cast(<expr>, %s)", n.TypeName, n.Name, n.TypeName)
				if sz := t.Size(); sz > 0 {
					msg += fmt.Sprintf("\n+ %s %s = Rpad(<expr>, %d)", n.TypeName, n.Name, sz)
				}
			}
			return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrTypeMismatch, "%s", msg)
		}
	}
	v, err := ctx.Scope.DeclareVar(n.Name, t)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
	}
	n.slot = v.ScratchSlot
	return nil
}

func (n *VarDeclaration) WriteTeal(w Writer) {
	if n.Value != nil {
		n.Value.Write(w)
	} else {
		w.Line("pushint 0")
	}
	w.Line("store %d // %s", n.slot, n.Name)
}
func (n *VarDeclaration) LineNo() int { return n.lineNo }

// Assignment is `<name>[,<name>...] = <expr>`; the right-hand side may
// be a multi-return call whose arity must equal the destination count.
// The discard name `_` lowers to a bare pop.
type Assignment struct {
	lineNo  int
	Names   []string
	Value   expr.Node
	targets []*assignTarget
}

type assignTarget struct {
	discard bool
	slot    int
}

func consumeAssignment(ctx *Context, line string) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	eqIdx := strings.Index(line, "=")
	names := strings.Split(line[:eqIdx], ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	valueSrc := strings.TrimSpace(line[eqIdx+1:])
	val, err := expr.Parse(valueSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	return &Assignment{lineNo: lineNo, Names: names, Value: val}, nil
}

func (n *Assignment) Process(ctx *Context) error {
	ts, err := n.Value.Check(ctx.Scope, ctx.Reg)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if len(ts) != len(n.Names) {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrArityMismatch, "assignment expects %d value(s), expression yields %d", len(n.Names), len(ts))
	}
	for i, name := range n.Names {
		if name == "_" {
			n.targets = append(n.targets, &assignTarget{discard: true})
			continue
		}
		v, ok := ctx.Scope.LookupVar(name)
		if !ok {
			return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnknownName, "undeclared variable %q", name)
		}
		if !v.TealishType.CanHold(ts[i]) {
			return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrTypeMismatch, "cannot assign %s to %s %s", ts[i], v.TealishType, name)
		}
		n.targets = append(n.targets, &assignTarget{slot: v.ScratchSlot})
	}
	return nil
}

func (n *Assignment) WriteTeal(w Writer) {
	n.Value.Write(w)
	for i := len(n.targets) - 1; i >= 0; i-- {
		t := n.targets[i]
		if t.discard {
			w.Line("pop")
			continue
		}
		w.Line("store %d // %s", t.slot, n.Names[i])
	}
}
func (n *Assignment) LineNo() int { return n.lineNo }

// StructOrBoxAssignment is `<name>.<field> = <expr>`, lowered to a
// byte-range replace on the struct's underlying scratch/box storage.
type StructOrBoxAssignment struct {
	lineNo int
	Target string
	Field  string
	Value  expr.Node
	slot   int
	isBox  bool
	offset int
	size   int
	isInt  bool
}

func consumeStructOrBoxAssignment(ctx *Context, line string) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	eqIdx := strings.Index(line, "=")
	head := strings.TrimSpace(line[:eqIdx])
	valueSrc := strings.TrimSpace(line[eqIdx+1:])
	dotIdx := strings.Index(head, ".")
	target := head[:dotIdx]
	field := head[dotIdx+1:]
	val, err := expr.Parse(valueSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	return &StructOrBoxAssignment{lineNo: lineNo, Target: target, Field: field, Value: val}, nil
}

func (n *StructOrBoxAssignment) Process(ctx *Context) error {
	v, ok := ctx.Scope.LookupVar(n.Target)
	if !ok {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnknownName, "undeclared variable %q", n.Target)
	}
	var st *types.StructType
	switch t := v.TealishType.(type) {
	case *types.StructType:
		st = t
	case types.BoxType:
		st = t.Struct
		n.isBox = true
	default:
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrNotAStructOrBox, "%s is not a struct or box", n.Target)
	}
	f, ok := st.Field(n.Field)
	if !ok {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnknownField, "struct %s has no field %q", st.Name, n.Field)
	}
	n.slot = v.ScratchSlot
	n.offset = f.Offset
	n.size = f.Size
	_, n.isInt = f.Type.(types.IntType)

	ts, err := n.Value.Check(ctx.Scope, ctx.Reg)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if !f.Type.CanHold(ts[0]) {
		msg := fmt.Sprintf("cannot assign %s to field %s.%s of type %s", ts[0], n.Target, n.Field, f.Type)
		if f.Type.CanHoldWithCast(ts[0]) {
			msg += fmt.Sprintf("\nPerhaps Cast or padding is required?\n+ %s.%s = Cast(<expr>, %s)", n.Target, n.Field, f.Type)
			msg += fmt.Sprintf("\n+ %s.%s = Rpad(<expr>, %d)", n.Target, n.Field, f.Size)
		}
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrTypeMismatch, "%s", msg)
	}
	return nil
}

// writeFieldValue pushes the value to be stored into an int- or
// bytes-typed struct/box field: int fields are converted with itob
// and, for a width narrower than 8 bytes, sliced down to that width.
func (n *StructOrBoxAssignment) writeFieldValue(w Writer) {
	n.Value.Write(w)
	if !n.isInt {
		return
	}
	w.Line("itob")
	if n.size < 8 {
		w.Line("extract %d %d", 8-n.size, n.size)
	}
}

func (n *StructOrBoxAssignment) WriteTeal(w Writer) {
	if n.isBox {
		n.writeFieldValue(w)
		w.Line("load %d // %s", n.slot, n.Target)
		w.Line("pushint %d", n.offset)
		w.Line("uncover 2")
		w.Line("box_replace")
		return
	}
	w.Line("load %d // %s", n.slot, n.Target)
	w.Line("pushint %d", n.offset)
	n.writeFieldValue(w)
	w.Line("replace3")
	w.Line("store %d // %s", n.slot, n.Target)
}
func (n *StructOrBoxAssignment) LineNo() int { return n.lineNo }

// Const is `const <int|bytes|bigint|addr> <UPPER_IDENT> = <literal>`,
// a named compile-time constant substituted inline at every use site.
type Const struct {
	lineNo   int
	TypeName string
	Name     string
	Literal  expr.Node
}

func consumeConst(ctx *Context, line string) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	rest := strings.TrimPrefix(line, "const ")
	eqIdx := strings.Index(rest, "=")
	if eqIdx < 0 {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed const declaration %q", line)
	}
	head := strings.Fields(strings.TrimSpace(rest[:eqIdx]))
	if len(head) != 2 {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "malformed const declaration %q", line)
	}
	litSrc := strings.TrimSpace(rest[eqIdx+1:])
	lit, err := expr.Parse(litSrc)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	return &Const{lineNo: lineNo, TypeName: head[0], Name: head[1], Literal: lit}, nil
}

func (n *Const) Process(ctx *Context) error {
	t, err := ctx.Reg.GetTypeInstance(n.TypeName)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnknownType, "%s", err)
	}
	var literalVal interface{}
	switch lit := n.Literal.(type) {
	case *expr.IntLiteral:
		literalVal = int64(lit.Value)
	case *expr.BytesLiteral:
		literalVal = lit.Raw
	default:
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "const value must be a literal")
	}
	if err := ctx.Scope.DeclareConst(n.Name, t, literalVal); err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
	}
	return nil
}

func (n *Const) WriteTeal(w Writer) {
	switch lit := n.Literal.(type) {
	case *expr.IntLiteral:
		w.Line("#define %s %d", n.Name, lit.Value)
	case *expr.BytesLiteral:
		w.Line("#define %s %s", n.Name, lit.Raw)
	}
}
func (n *Const) LineNo() int { return n.lineNo }

func consumeLineStatement(ctx *Context) (Statement, error) {
	line, _ := ctx.peekTrimmed()
	switch {
	case looksLikeVarDeclaration(line):
		return consumeVarDeclaration(ctx, line)
	case looksLikeStructFieldAssignment(line):
		return consumeStructOrBoxAssignment(ctx, line)
	case looksLikeAssignment(line):
		return consumeAssignment(ctx, line)
	default:
		return consumeFunctionCallStatement(ctx, line)
	}
}

func looksLikeAssignment(line string) bool {
	eq := strings.Index(line, "=")
	if eq <= 0 {
		return false
	}
	if eq+1 < len(line) && line[eq+1] == '=' {
		return false
	}
	if eq > 0 && (line[eq-1] == '!' || line[eq-1] == '<' || line[eq-1] == '>') {
		return false
	}
	return true
}

func looksLikeStructFieldAssignment(line string) bool {
	if !looksLikeAssignment(line) {
		return false
	}
	head := strings.TrimSpace(line[:strings.Index(line, "=")])
	return strings.Contains(head, ".") && !strings.Contains(head, " ")
}

func looksLikeVarDeclaration(line string) bool {
	head := line
	if eq := strings.Index(line, "="); eq >= 0 {
		head = line[:eq]
	}
	fields := strings.Fields(head)
	if len(fields) != 2 {
		return false
	}
	return isTypeNameLike(fields[0])
}

func isTypeNameLike(s string) bool {
	switch {
	case s == "int" || s == "bytes" || s == "bigint" || s == "addr" || s == "any":
		return true
	case strings.HasPrefix(s, "uint"):
		return true
	case strings.HasPrefix(s, "bytes["):
		return true
	case len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z':
		return true
	}
	return false
}
