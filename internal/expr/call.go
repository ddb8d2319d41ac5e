package expr

import (
	"fmt"

	"github.com/tealc-lang/sclc/internal/symbols"
	"github.com/tealc-lang/sclc/internal/types"
)

// Call is both a builtin pseudo-function (Cast, Rpad, FromBytes, Len,
// Sha256, ...) and a user-defined function call; which one it is is
// only known once Check runs against the active scope.
type Call struct {
	Name string
	Args []Node

	isBuiltin bool
	builtin   string
	castType  types.Type
	padSize   int

	isUser   bool
	label    string
	returns  []types.Type
	resolved []types.Type
}

var builtinArity = map[string]int{
	"Cast": 2, "Rpad": 2, "FromBytes": 2, "Len": 1,
	"Sha256": 1, "Keccak256": 1, "Itob": 1, "Btoi": 1, "Concat": 2,
}

func (n *Call) Check(scope *symbols.Scope, reg *types.Registry) ([]types.Type, error) {
	if arity, ok := builtinArity[n.Name]; ok {
		if len(n.Args) != arity {
			return nil, fmt.Errorf("%s expects %d argument(s), got %d", n.Name, arity, len(n.Args))
		}
		n.isBuiltin = true
		n.builtin = n.Name
		return n.checkBuiltin(scope, reg)
	}

	if fn, ok := scope.LookupFunc(n.Name); ok {
		n.isUser = true
		n.label = fn.Label()
		n.returns = fn.Returns()
		for _, a := range n.Args {
			if _, err := a.Check(scope, reg); err != nil {
				return nil, err
			}
		}
		n.resolved = n.returns
		return n.resolved, nil
	}

	return nil, fmt.Errorf("unknown function %q", n.Name)
}

func (n *Call) checkBuiltin(scope *symbols.Scope, reg *types.Registry) ([]types.Type, error) {
	switch n.builtin {
	case "Cast":
		if _, err := n.Args[0].Check(scope, reg); err != nil {
			return nil, err
		}
		nameNode, ok := n.Args[1].(*NameRef)
		if !ok {
			return nil, fmt.Errorf("Cast's second argument must be a type name")
		}
		t, err := reg.GetTypeInstance(nameNode.Name)
		if err != nil {
			return nil, err
		}
		n.castType = t
		n.resolved = []types.Type{t}
		return n.resolved, nil
	case "Rpad":
		if _, err := n.Args[0].Check(scope, reg); err != nil {
			return nil, err
		}
		lit, ok := n.Args[1].(*IntLiteral)
		if !ok {
			return nil, fmt.Errorf("Rpad's second argument must be an integer literal")
		}
		n.padSize = int(lit.Value)
		n.resolved = []types.Type{types.NewSizedBytesType(n.padSize)}
		return n.resolved, nil
	case "FromBytes":
		if _, err := n.Args[0].Check(scope, reg); err != nil {
			return nil, err
		}
		nameNode, ok := n.Args[1].(*NameRef)
		if !ok {
			return nil, fmt.Errorf("FromBytes's second argument must be a type name")
		}
		t, err := reg.GetTypeInstance(nameNode.Name)
		if err != nil {
			return nil, err
		}
		n.castType = t
		n.resolved = []types.Type{t}
		return n.resolved, nil
	case "Len":
		if _, err := n.Args[0].Check(scope, reg); err != nil {
			return nil, err
		}
		n.resolved = []types.Type{types.NewIntType()}
		return n.resolved, nil
	case "Sha256", "Keccak256":
		if _, err := n.Args[0].Check(scope, reg); err != nil {
			return nil, err
		}
		n.resolved = []types.Type{types.NewSizedBytesType(32)}
		return n.resolved, nil
	case "Itob":
		if _, err := n.Args[0].Check(scope, reg); err != nil {
			return nil, err
		}
		n.resolved = []types.Type{types.NewSizedBytesType(8)}
		return n.resolved, nil
	case "Btoi":
		if _, err := n.Args[0].Check(scope, reg); err != nil {
			return nil, err
		}
		n.resolved = []types.Type{types.NewIntType()}
		return n.resolved, nil
	case "Concat":
		for _, a := range n.Args {
			if _, err := a.Check(scope, reg); err != nil {
				return nil, err
			}
		}
		n.resolved = []types.Type{types.NewBytesType()}
		return n.resolved, nil
	}
	return nil, fmt.Errorf("unknown builtin %q", n.builtin)
}

func (n *Call) Type() types.Type {
	if len(n.resolved) == 0 {
		return nil
	}
	return n.resolved[0]
}

func (n *Call) Write(w Writer) {
	if n.isBuiltin {
		n.writeBuiltin(w)
		return
	}
	for i := len(n.Args) - 1; i >= 0; i-- {
		n.Args[i].Write(w)
	}
	w.Line("callsub %s", n.label)
}

func (n *Call) writeBuiltin(w Writer) {
	switch n.builtin {
	case "Cast":
		n.Args[0].Write(w)
	case "Rpad":
		n.Args[0].Write(w)
		w.Line("pushbytes 0x%0*d", 2*n.padSize, 0)
		w.Line("concat")
		w.Line("extract 0 %d", n.padSize)
	case "FromBytes":
		n.Args[0].Write(w)
	case "Len":
		n.Args[0].Write(w)
		w.Line("len")
	case "Sha256":
		n.Args[0].Write(w)
		w.Line("sha256")
	case "Keccak256":
		n.Args[0].Write(w)
		w.Line("keccak256")
	case "Itob":
		n.Args[0].Write(w)
		w.Line("itob")
	case "Btoi":
		n.Args[0].Write(w)
		w.Line("btoi")
	case "Concat":
		n.Args[0].Write(w)
		n.Args[1].Write(w)
		w.Line("concat")
	}
}
