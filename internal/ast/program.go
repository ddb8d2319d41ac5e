package ast

import (
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/lexer"
	"github.com/tealc-lang/sclc/internal/types"
)

// Program is the root node: a TealVersion line, an optional run of
// struct definitions, then a body of statements kept in source order.
// Consume does not check which kind of statement the body begins with.
type Program struct {
	lineNo            int
	Version           *TealVersion
	Structs           []*StructDefinition
	Body              []Statement
	usesInnerTxnMacro bool
	innerGroupSlot    int
}

// Consume reads the whole source, line by line, until EOF.
func Consume(ctx *Context) (*Program, error) {
	p := &Program{lineNo: 1}

	first, err := consumeStatement(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := first.(*TealVersion)
	if !ok {
		return nil, ctx.parseErr(diagnostics.ErrBadPragmaPosition, "program must begin with #pragma version")
	}
	p.Version = v

	// struct definitions, if any, must immediately follow, preceded
	// only by blank lines and comments.
	for {
		line, ok := ctx.peekTrimmed()
		if !ok {
			break
		}
		if line == "" || strings.HasPrefix(line, "//") {
			stmt, err := consumeStatement(ctx)
			if err != nil {
				return nil, err
			}
			p.Body = append(p.Body, stmt)
			continue
		}
		if strings.HasPrefix(line, "struct ") {
			stmt, err := consumeStatement(ctx)
			if err != nil {
				return nil, err
			}
			p.Structs = append(p.Structs, stmt.(*StructDefinition))
			continue
		}
		break
	}

	for !ctx.Lines.Done() {
		line, ok := ctx.peekTrimmed()
		if !ok {
			break
		}
		if strings.HasPrefix(line, "struct ") {
			return nil, ctx.parseErr(diagnostics.ErrMisplacedStruct, "struct definitions must appear at the top of the file")
		}
		stmt, err := consumeStatement(ctx)
		if err != nil {
			return nil, err
		}
		p.Body = append(p.Body, stmt)
	}

	return p, nil
}

// Process runs semantic analysis over every struct definition (first,
// since later declarations may reference them) and then the body, in
// source order.
func (p *Program) Process(ctx *Context) error {
	for _, s := range p.Structs {
		if err := s.Process(ctx); err != nil {
			return err
		}
	}
	for _, stmt := range p.Body {
		if err := stmt.Process(ctx); err != nil {
			return err
		}
	}
	p.usesInnerTxnMacro = ctx.UseInnerTxnsMacro
	// Reserve the inner-group flag slot unconditionally, one above every
	// other scratch slot the program uses, so SetInnerTxnMacro can still
	// force the macro on later (via build config) even when no
	// inner_txn/inner_group construct was actually parsed.
	flagVar := ctx.Root.DeclareVarAtSlot("__inner_group_flag__", types.NewIntType(), ctx.Root.MaxSlot()+1)
	p.innerGroupSlot = flagVar.ScratchSlot
	return nil
}

// WriteTeal emits the whole program: the version pragma, every body
// statement, and finally the inner-group macro subroutines if any
// inner_txn/inner_group construct appeared anywhere in the program.
func (p *Program) WriteTeal(w Writer) {
	p.Version.WriteTeal(w)
	for _, stmt := range p.Body {
		stmt.WriteTeal(w)
	}
	if p.usesInnerTxnMacro {
		writeInnerTxnMacroSubroutines(w, p.innerGroupSlot)
	}
}

func (p *Program) LineNo() int { return p.lineNo }

// SetInnerTxnMacro overrides the automatically detected need for the
// inner-group macro subroutines, letting build configuration force
// them on (or suppress them) regardless of whether an inner_txn/
// inner_group construct was actually seen.
func (p *Program) SetInnerTxnMacro(v bool) { p.usesInnerTxnMacro = v }

// Block is a named, jumpable sequence of statements that must end in
// an exit statement (jump, exit, return, router, or an if/switch whose
// every branch exits; see isExitStatement).
type Block struct {
	lineNo         int
	Name           string
	Body           []Statement
	qualifiedLabel string
}

// Label returns the scope-qualified label emitted for this block,
// satisfying symbols.BlockNode. Top-level blocks (declared directly in
// the root scope) keep their bare name; a block nested inside a func
// or another block is prefixed with its enclosing scope's qualified
// name, joined by a double underscore, so two same-named blocks in
// different enclosing scopes never collide.
func (b *Block) Label() string { return b.qualifiedLabel }

func consumeBlock(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	name := strings.TrimSuffix(strings.TrimPrefix(line, "block "), ":")
	name = strings.TrimSpace(name)

	b := &Block{lineNo: lineNo, Name: name}
	for {
		line, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrMissingExit, "block %q: unexpected end of input", name)
		}
		if line == "end" {
			ctx.Lines.Next()
			break
		}
		stmt, err := consumeStatement(ctx)
		if err != nil {
			return nil, err
		}
		b.Body = append(b.Body, stmt)
	}
	if len(b.Body) == 0 || !isExitStatement(b.Body[len(b.Body)-1]) {
		return nil, ctx.parseErr(diagnostics.ErrMissingExit, "block %q must end with an exit statement", name)
	}
	return b, nil
}

func (b *Block) Process(ctx *Context) error {
	if parent := ctx.Scope.QualifiedName(); parent != "" {
		b.qualifiedLabel = parent + "__" + b.Name
	} else {
		b.qualifiedLabel = b.Name
	}
	if err := ctx.Scope.DeclareBlock(b.Name, b); err != nil {
		return ctx.compileErrAt(b.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
	}
	prevScope := ctx.Scope
	ctx.Scope = prevScope.NewChild(b.Name)
	defer func() { ctx.Scope = prevScope }()
	for i, stmt := range b.Body {
		if i < len(b.Body)-1 {
			if isExitStatement(stmt) {
				return ctx.compileErrAt(stmt.LineNo(), "", diagnostics.ErrWrongContext, "exit statement is not the last statement in block %q", b.Name)
			}
		}
		if err := stmt.Process(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *Block) WriteTeal(w Writer) {
	w.Label(b.Label() + ":")
	w.Indent()
	for _, stmt := range b.Body {
		stmt.WriteTeal(w)
	}
	w.Dedent()
}

func (b *Block) LineNo() int { return b.lineNo }

// isExitStatement reports whether stmt unconditionally leaves its
// enclosing block: jump, exit, return, router, or an if/switch whose
// every branch itself ends in an exit statement.
func isExitStatement(stmt Statement) bool {
	switch s := stmt.(type) {
	case *Jump, *Exit, *Return, *Router:
		return true
	case *IfStatement:
		return s.allBranchesExit()
	case *Switch:
		return s.allOptionsExit()
	default:
		return false
	}
}
