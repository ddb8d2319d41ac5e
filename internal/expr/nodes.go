package expr

import (
	"fmt"

	"github.com/tealc-lang/sclc/internal/symbols"
	"github.com/tealc-lang/sclc/internal/types"
)

// IntLiteral is a bare decimal integer literal, e.g. `1000`.
type IntLiteral struct {
	Value    uint64
	resolved types.Type
}

func (n *IntLiteral) Check(*symbols.Scope, *types.Registry) ([]types.Type, error) {
	n.resolved = types.NewIntType()
	return []types.Type{n.resolved}, nil
}
func (n *IntLiteral) Type() types.Type { return n.resolved }
func (n *IntLiteral) Write(w Writer)   { w.Line("pushint %d", n.Value) }

// BytesLiteral is a quoted byte string or a 0x-prefixed hex literal.
type BytesLiteral struct {
	Raw      string // including quotes or the 0x prefix, as written in source
	ByteLen  int
	IsHex    bool
	resolved types.Type
}

func (n *BytesLiteral) Check(*symbols.Scope, *types.Registry) ([]types.Type, error) {
	n.resolved = types.NewSizedBytesType(n.ByteLen)
	return []types.Type{n.resolved}, nil
}
func (n *BytesLiteral) Type() types.Type { return n.resolved }
func (n *BytesLiteral) Write(w Writer)   { w.Line("pushbytes %s", n.Raw) }

// NameRef is a bare identifier: a variable, a constant, or (resolved
// later by Check) one of the well-known global objects (Txn, Gtxn,
// Global, ...) used as the target of a FieldAccess.
type NameRef struct {
	Name     string
	isConst  bool
	constLit interface{}
	slot     int
	resolved types.Type
}

func (n *NameRef) Check(scope *symbols.Scope, reg *types.Registry) ([]types.Type, error) {
	if c, ok := scope.LookupConst(n.Name); ok {
		n.isConst = true
		n.constLit = c.Literal
		n.resolved = c.Type
		return []types.Type{n.resolved}, nil
	}
	if v, ok := scope.LookupVar(n.Name); ok {
		n.slot = v.ScratchSlot
		n.resolved = v.TealishType
		return []types.Type{n.resolved}, nil
	}
	if isGlobalObject(n.Name) {
		n.resolved = types.AnyType{}
		return []types.Type{n.resolved}, nil
	}
	return nil, fmt.Errorf("undefined name %q", n.Name)
}

func (n *NameRef) Type() types.Type { return n.resolved }

func (n *NameRef) Write(w Writer) {
	if n.isConst {
		switch v := n.constLit.(type) {
		case int64:
			w.Line("pushint %d", v)
		case string:
			w.Line("pushbytes %s", v)
		}
		return
	}
	w.Line("load %d // %s", n.slot, n.Name)
}

func isGlobalObject(name string) bool {
	switch name {
	case "Txn", "Gtxn", "Itxn", "Global", "Gaid", "Gload", "App", "Account":
		return true
	}
	return false
}

// BinOp is a two-operand arithmetic, comparison, or logical expression.
type BinOp struct {
	Op          string
	Left, Right Node
	resolved    types.Type
}

var boolOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true, "&&": true, "||": true}

func (n *BinOp) Check(scope *symbols.Scope, reg *types.Registry) ([]types.Type, error) {
	lt, err := n.Left.Check(scope, reg)
	if err != nil {
		return nil, err
	}
	rt, err := n.Right.Check(scope, reg)
	if err != nil {
		return nil, err
	}
	if len(lt) != 1 || len(rt) != 1 {
		return nil, fmt.Errorf("operand of %q must be a single value", n.Op)
	}
	if boolOps[n.Op] {
		n.resolved = types.NewIntType()
	} else {
		n.resolved = types.NewIntType()
	}
	return []types.Type{n.resolved}, nil
}
func (n *BinOp) Type() types.Type { return n.resolved }

var opInstr = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"==": "==", "!=": "!=", "<": "<", ">": ">", "<=": "<=", ">=": ">=",
	"&&": "&&", "||": "||", "&": "&", "|": "|", "^": "^",
}

func (n *BinOp) Write(w Writer) {
	n.Left.Write(w)
	n.Right.Write(w)
	w.Line("%s", opInstr[n.Op])
}

// UnaryOp is `-expr` or `!expr`.
type UnaryOp struct {
	Op       string
	Operand  Node
	resolved types.Type
}

func (n *UnaryOp) Check(scope *symbols.Scope, reg *types.Registry) ([]types.Type, error) {
	ts, err := n.Operand.Check(scope, reg)
	if err != nil {
		return nil, err
	}
	if len(ts) != 1 {
		return nil, fmt.Errorf("operand of unary %q must be a single value", n.Op)
	}
	n.resolved = types.NewIntType()
	return []types.Type{n.resolved}, nil
}
func (n *UnaryOp) Type() types.Type { return n.resolved }
func (n *UnaryOp) Write(w Writer) {
	if n.Op == "-" {
		w.Line("pushint 0")
		n.Operand.Write(w)
		w.Line("-")
		return
	}
	n.Operand.Write(w)
	w.Line("!")
}

// FieldAccess is `target.field`, used both for struct/box field reads
// and for global-object pseudo fields (Txn.Sender, Global.MinTxnFee).
type FieldAccess struct {
	Target   Node
	Field    string
	resolved types.Type
	isStruct bool
	offset   int
	size     int
}

func (n *FieldAccess) Check(scope *symbols.Scope, reg *types.Registry) ([]types.Type, error) {
	if ref, ok := n.Target.(*NameRef); ok && isGlobalObject(ref.Name) {
		n.resolved = types.AnyType{}
		return []types.Type{n.resolved}, nil
	}
	ts, err := n.Target.Check(scope, reg)
	if err != nil {
		return nil, err
	}
	if len(ts) != 1 {
		return nil, fmt.Errorf("cannot access field %q on a multi-value expression", n.Field)
	}
	var st *types.StructType
	switch t := ts[0].(type) {
	case *types.StructType:
		st = t
	case types.BoxType:
		st = t.Struct
	default:
		return nil, fmt.Errorf("%s is not a struct or box", ts[0].String())
	}
	f, ok := st.Field(n.Field)
	if !ok {
		return nil, fmt.Errorf("struct %s has no field %q", st.Name, n.Field)
	}
	n.isStruct = true
	n.offset = f.Offset
	n.size = f.Size
	n.resolved = f.Type
	return []types.Type{n.resolved}, nil
}
func (n *FieldAccess) Type() types.Type { return n.resolved }
func (n *FieldAccess) Write(w Writer) {
	if ref, ok := n.Target.(*NameRef); ok && isGlobalObject(ref.Name) {
		w.Line("%s %s", instrFor(ref.Name), n.Field)
		return
	}
	n.Target.Write(w)
	if _, isBox := n.Target.Type().(types.BoxType); isBox {
		// the target's value is the box name; read the field from the box.
		w.Line("pushint %d", n.offset)
		w.Line("pushint %d", n.size)
		w.Line("box_extract")
	} else {
		w.Line("extract %d %d", n.offset, n.size)
	}
	if n.isStruct {
		if _, ok := n.resolved.(types.IntType); ok {
			w.Line("btoi")
		}
	}
}

func instrFor(obj string) string {
	switch obj {
	case "Txn":
		return "txn"
	case "Gtxn":
		return "gtxn"
	case "Itxn":
		return "itxn"
	case "Global":
		return "global"
	default:
		return "txn"
	}
}

// IndexAccess is `target[index]`, used for array-valued transaction
// fields (Txn.ApplicationArgs[0], ...). Group-indexed forms such as
// Gtxn[0].Sender are rejected by FieldAccess.Check, since the indexed
// target resolves to any.
type IndexAccess struct {
	Target, Index Node
	resolved      types.Type
}

func (n *IndexAccess) Check(scope *symbols.Scope, reg *types.Registry) ([]types.Type, error) {
	if _, err := n.Index.Check(scope, reg); err != nil {
		return nil, err
	}
	if ref, ok := n.Target.(*NameRef); ok && isGlobalObject(ref.Name) {
		n.resolved = types.AnyType{}
		return []types.Type{n.resolved}, nil
	}
	if fa, ok := n.Target.(*FieldAccess); ok {
		if ref, ok := fa.Target.(*NameRef); ok && isGlobalObject(ref.Name) {
			n.resolved = types.AnyType{}
			return []types.Type{n.resolved}, nil
		}
	}
	ts, err := n.Target.Check(scope, reg)
	if err != nil {
		return nil, err
	}
	n.resolved = ts[0]
	return []types.Type{n.resolved}, nil
}
func (n *IndexAccess) Type() types.Type { return n.resolved }
func (n *IndexAccess) Write(w Writer) {
	if fa, ok := n.Target.(*FieldAccess); ok {
		if ref, ok := fa.Target.(*NameRef); ok && isGlobalObject(ref.Name) {
			if lit, ok := n.Index.(*IntLiteral); ok {
				w.Line("%sa %s %d", instrFor(ref.Name), fa.Field, lit.Value)
				return
			}
			n.Index.Write(w)
			w.Line("%sas %s", instrFor(ref.Name), fa.Field)
			return
		}
	}
	n.Target.Write(w)
	n.Index.Write(w)
	w.Line("uncover 1")
	w.Line("pop")
}
