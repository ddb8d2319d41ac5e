// Package symbols implements the compiler's lexically-nested symbol
// table: variables (bound to scratch-slot indices), named constants,
// block labels, and function definitions.
package symbols

import (
	"fmt"

	"github.com/tealc-lang/sclc/internal/types"
)

// BlockNode is the minimal surface a `block` AST node exposes to the
// symbol table, avoiding an import cycle between symbols and ast.
type BlockNode interface {
	Label() string
}

// FuncNode is the minimal surface a `func` AST node exposes to the
// symbol table.
type FuncNode interface {
	Label() string
	IsPublic() bool
	Returns() []types.Type
}

// Var is a slot-backed variable: a declared surface-language type and
// the scratch slot holding its value.
type Var struct {
	Name        string
	TealishType types.Type
	ScratchSlot int
}

// Const is a named, typed compile-time literal.
type Const struct {
	Name    string
	Type    types.Type
	Literal interface{}
}

// Scope is one lexical level of the symbol table: a block, a function
// body, a while/for body, or the program root. It inherits its parent's
// next-free scratch slot as its own floor, so nested scopes never
// reuse a slot belonging to a still-live ancestor scope.
type Scope struct {
	Name   string
	Parent *Scope

	nextSlot int
	maxSlot  *int // shared pointer to the program-wide high-water mark

	vars   map[string]*Var
	consts map[string]*Const
	blocks map[string]BlockNode
	funcs  map[string]FuncNode
}

// NewRootScope creates the program's top-level scope, starting slot
// allocation at 0.
func NewRootScope() *Scope {
	max := -1
	return newScope("", nil, 0, &max)
}

func newScope(name string, parent *Scope, floor int, maxSlot *int) *Scope {
	return &Scope{
		Name:     name,
		Parent:   parent,
		nextSlot: floor,
		maxSlot:  maxSlot,
		vars:     map[string]*Var{},
		consts:   map[string]*Const{},
		blocks:   map[string]BlockNode{},
		funcs:    map[string]FuncNode{},
	}
}

// NewChild creates a nested scope inheriting this scope's next-free
// slot as its floor.
func (s *Scope) NewChild(name string) *Scope {
	return newScope(name, s, s.nextSlot, s.maxSlot)
}

// MaxSlot returns the highest scratch slot ever allocated across the
// whole compilation.
func (s *Scope) MaxSlot() int { return *s.maxSlot }

// QualifiedName returns this scope's fully-qualified label prefix,
// e.g. "" for the root, "func__foo" for a function body, or
// "func__foo__myblock" for a block declared in it. Unnamed scopes
// (if/while/for bodies) take their parent's qualified name.
func (s *Scope) QualifiedName() string {
	if s.Parent == nil {
		return s.Name
	}
	parent := s.Parent.QualifiedName()
	switch {
	case s.Name == "":
		return parent
	case parent == "":
		return s.Name
	default:
		return parent + "__" + s.Name
	}
}

// DeclareVar allocates the next scratch slot in this scope and binds
// name to it. Declaring the same name twice in one scope is an error.
func (s *Scope) DeclareVar(name string, t types.Type) (*Var, error) {
	if _, exists := s.vars[name]; exists {
		return nil, fmt.Errorf("%q already declared in this scope", name)
	}
	v := &Var{Name: name, TealishType: t, ScratchSlot: s.nextSlot}
	s.vars[name] = v
	s.nextSlot++
	if v.ScratchSlot > *s.maxSlot {
		*s.maxSlot = v.ScratchSlot
	}
	return v, nil
}

// DeclareVarAtSlot binds name to an explicitly chosen slot, used for
// the single inner_group_flag slot placed one above MaxSlot.
func (s *Scope) DeclareVarAtSlot(name string, t types.Type, slot int) *Var {
	v := &Var{Name: name, TealishType: t, ScratchSlot: slot}
	s.vars[name] = v
	if slot > *s.maxSlot {
		*s.maxSlot = slot
	}
	return v
}

// DeleteVar removes a variable binding (used when a for-loop scope's
// induction variable goes out of scope). The slot itself is not
// reclaimed; scratch slots are never coalesced (spec.md non-goals).
func (s *Scope) DeleteVar(name string) { delete(s.vars, name) }

// LookupVar walks from this scope to the root looking for name.
func (s *Scope) LookupVar(name string) (*Var, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// DeclareConst registers a named constant in this scope.
func (s *Scope) DeclareConst(name string, t types.Type, literal interface{}) error {
	if _, exists := s.consts[name]; exists {
		return fmt.Errorf("const %q already declared in this scope", name)
	}
	s.consts[name] = &Const{Name: name, Type: t, Literal: literal}
	return nil
}

// LookupConst walks from this scope to the root looking for name.
func (s *Scope) LookupConst(name string) (*Const, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if c, ok := sc.consts[name]; ok {
			return c, true
		}
	}
	return nil, false
}

// DeclareBlock registers a block label in this scope.
func (s *Scope) DeclareBlock(name string, b BlockNode) error {
	if _, exists := s.blocks[name]; exists {
		return fmt.Errorf("block %q already declared in this scope", name)
	}
	s.blocks[name] = b
	return nil
}

// LookupBlock walks from this scope to the root looking for name.
func (s *Scope) LookupBlock(name string) (BlockNode, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if b, ok := sc.blocks[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// DeclareFunc registers a function definition in this scope.
func (s *Scope) DeclareFunc(name string, f FuncNode) error {
	if _, exists := s.funcs[name]; exists {
		return fmt.Errorf("function %q already declared in this scope", name)
	}
	s.funcs[name] = f
	return nil
}

// LookupFunc walks from this scope to the root looking for name.
func (s *Scope) LookupFunc(name string) (FuncNode, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if f, ok := sc.funcs[name]; ok {
			return f, true
		}
	}
	return nil, false
}
