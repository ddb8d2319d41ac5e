package ast

import (
	"fmt"
	"strings"

	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/expr"
	"github.com/tealc-lang/sclc/internal/lexer"
	"github.com/tealc-lang/sclc/internal/types"
)

// FuncArg is one `name:type` entry in a function's argument list.
type FuncArg struct {
	Name     string
	TypeName string
	typ      types.Type
	slot     int
}

// Func is `func <name>(<arg>:<type>, ...) [<retType>, ...]: ... end`.
// Its body must end in a Return statement. Parameters are stored into
// scratch slots in reverse order, to match the stack order a caller
// leaves its arguments in.
type Func struct {
	lineNo      int
	Name        string
	Args        []FuncArg
	RetTypeName []string
	Body        []Statement
	returns     []types.Type
	isPublic    bool
	decorators  map[string]string
}

// Label satisfies symbols.FuncNode.
func (f *Func) Label() string           { return "func__" + f.Name }
func (f *Func) IsPublic() bool          { return f.isPublic }
func (f *Func) Returns() []types.Type   { return f.returns }

func parseArgsList(s string) ([]FuncArg, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var args []FuncArg
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		nameType := strings.SplitN(part, ":", 2)
		if len(nameType) != 2 {
			return nil, fmt.Errorf("malformed argument %q", part)
		}
		args = append(args, FuncArg{Name: strings.TrimSpace(nameType[0]), TypeName: strings.TrimSpace(nameType[1])})
	}
	return args, nil
}

func parseFuncHeader(line string) (name string, args []FuncArg, retTypes []string, err error) {
	line = strings.TrimPrefix(line, "func ")
	line = strings.TrimSuffix(strings.TrimSpace(line), ":")
	open := strings.Index(line, "(")
	closeIdx := strings.Index(line, ")")
	if open < 0 || closeIdx < open {
		return "", nil, nil, fmt.Errorf("malformed func header %q", line)
	}
	name = strings.TrimSpace(line[:open])
	args, err = parseArgsList(line[open+1 : closeIdx])
	if err != nil {
		return "", nil, nil, err
	}
	rest := strings.TrimSpace(line[closeIdx+1:])
	if rest != "" {
		for _, rt := range strings.Split(rest, ",") {
			retTypes = append(retTypes, strings.TrimSpace(rt))
		}
	}
	return name, args, retTypes, nil
}

func consumeFunc(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	name, args, retTypes, err := parseFuncHeader(line)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "%s", err)
	}
	f := &Func{lineNo: lineNo, Name: name, Args: args, RetTypeName: retTypes}
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrMissingReturn, "func %q: unexpected end of input", name)
		}
		if l == "end" {
			ctx.Lines.Next()
			break
		}
		stmt, err := consumeStatement(ctx)
		if err != nil {
			return nil, err
		}
		f.Body = append(f.Body, stmt)
	}
	if len(f.Body) == 0 {
		return nil, ctx.parseErr(diagnostics.ErrMissingReturn, "func %q must end with a return statement", name)
	}
	if _, ok := lastNonBlank(f.Body).(*Return); !ok {
		return nil, ctx.parseErr(diagnostics.ErrMissingReturn, "func %q must end with a return statement", name)
	}
	return f, nil
}

func lastNonBlank(body []Statement) Statement {
	for i := len(body) - 1; i >= 0; i-- {
		switch body[i].(type) {
		case *Blank, *Comment:
			continue
		}
		return body[i]
	}
	return nil
}

func (f *Func) Process(ctx *Context) error {
	for _, rt := range f.RetTypeName {
		t, err := ctx.Reg.GetTypeInstance(rt)
		if err != nil {
			return ctx.compileErrAt(f.lineNo, "", diagnostics.ErrUnknownType, "%s", err)
		}
		f.returns = append(f.returns, t)
	}
	if err := ctx.Root.DeclareFunc(f.Name, f); err != nil {
		return ctx.compileErrAt(f.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
	}

	prevScope := ctx.Scope
	ctx.Scope = ctx.Root.NewChild("func__" + f.Name)
	prevFunc := ctx.EnterFunc(f)
	defer func() { ctx.ExitFunc(prevFunc); ctx.Scope = prevScope }()

	for i := range f.Args {
		t, err := ctx.Reg.GetTypeInstance(f.Args[i].TypeName)
		if err != nil {
			return ctx.compileErrAt(f.lineNo, "", diagnostics.ErrUnknownType, "%s", err)
		}
		f.Args[i].typ = t
		v, err := ctx.Scope.DeclareVar(f.Args[i].Name, t)
		if err != nil {
			return ctx.compileErrAt(f.lineNo, "", diagnostics.ErrDuplicateSymbol, "%s", err)
		}
		f.Args[i].slot = v.ScratchSlot
	}
	for _, stmt := range f.Body {
		if err := stmt.Process(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (f *Func) WriteTeal(w Writer) {
	w.Label(f.Label() + ":")
	w.Indent()
	for i := len(f.Args) - 1; i >= 0; i-- {
		w.Line("store %d // %s", f.Args[i].slot, f.Args[i].Name)
	}
	for _, stmt := range f.Body {
		stmt.WriteTeal(w)
	}
	w.Dedent()
}

func (f *Func) LineNo() int { return f.lineNo }

// Return evaluates each expression (in reverse order, to match the
// declared return-type order landing correctly on the stack) and
// emits retsub.
type Return struct {
	lineNo int
	Values []expr.Node
}

func consumeReturn(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	line, _ := ctx.Lines.Next()
	line = lexer.Strip(line)
	rest := strings.TrimSpace(strings.TrimPrefix(line, "return"))
	r := &Return{lineNo: lineNo}
	if rest != "" {
		for _, part := range splitTopLevelComma(rest) {
			v, err := expr.Parse(strings.TrimSpace(part))
			if err != nil {
				return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
			}
			r.Values = append(r.Values, v)
		}
	}
	return r, nil
}

func (n *Return) Process(ctx *Context) error {
	fn := ctx.CurrentFunc()
	if fn == nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrWrongContext, "return outside of func")
	}
	if len(n.Values) != len(fn.returns) {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrArityMismatch, "func %s declares %d return value(s), got %d", fn.Name, len(fn.returns), len(n.Values))
	}
	for i, v := range n.Values {
		ts, err := v.Check(ctx.Scope, ctx.Reg)
		if err != nil {
			return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
		}
		if !fn.returns[i].CanHold(ts[0]) {
			return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrTypeMismatch, "return value %d: cannot hold %s in %s", i, ts[0], fn.returns[i])
		}
	}
	return nil
}

func (n *Return) WriteTeal(w Writer) {
	for i := len(n.Values) - 1; i >= 0; i-- {
		n.Values[i].Write(w)
	}
	w.Line("retsub")
}
func (n *Return) LineNo() int { return n.lineNo }

// Decorator is a single `@name(key=value, ...)` attribute line,
// consumed as part of a DecoratedFunc.
type Decorator struct {
	Name string
	Args map[string]string
}

func parseDecorator(line string) (*Decorator, error) {
	line = strings.TrimPrefix(line, "@")
	open := strings.Index(line, "(")
	if open < 0 {
		return &Decorator{Name: line, Args: map[string]string{}}, nil
	}
	name := line[:open]
	closeIdx := strings.LastIndex(line, ")")
	if closeIdx < open {
		return nil, fmt.Errorf("malformed decorator %q", line)
	}
	args := map[string]string{}
	inner := line[open+1 : closeIdx]
	if strings.TrimSpace(inner) != "" {
		for _, kv := range strings.Split(inner, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("malformed decorator argument %q", kv)
			}
			args[strings.TrimSpace(parts[0])] = strings.Trim(strings.TrimSpace(parts[1]), `"`)
		}
	}
	return &Decorator{Name: name, Args: args}, nil
}

// DecoratedFunc wraps a Func preceded by one or more `@...` decorator
// lines; `@public` marks the function routable from the contract's
// router.
type DecoratedFunc struct {
	*Func
	Decorators []*Decorator
}

func consumeDecoratedFunc(ctx *Context) (Statement, error) {
	var decorators []*Decorator
	for {
		line, ok := ctx.peekTrimmed()
		if !ok || !strings.HasPrefix(line, "@") {
			break
		}
		d, err := parseDecorator(line)
		if err != nil {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "%s", err)
		}
		decorators = append(decorators, d)
		ctx.Lines.Next()
	}
	line, ok := ctx.peekTrimmed()
	if !ok || !strings.HasPrefix(line, "func ") {
		return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "decorator must be followed by a func declaration")
	}
	stmt, err := consumeFunc(ctx)
	if err != nil {
		return nil, err
	}
	fn := stmt.(*Func)
	fn.decorators = map[string]string{}
	for _, d := range decorators {
		if d.Name == "public" {
			fn.isPublic = true
		}
		for k, v := range d.Args {
			fn.decorators[k] = v
		}
	}
	return &DecoratedFunc{Func: fn, Decorators: decorators}, nil
}

// FunctionCallStatement is a bare call used as a statement; its return
// arity must be zero.
type FunctionCallStatement struct {
	lineNo int
	Call   expr.Node
}

func consumeFunctionCallStatement(ctx *Context, line string) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	v, err := expr.Parse(line)
	if err != nil {
		return nil, ctx.parseErr(diagnostics.ErrExpression, "%s", err)
	}
	return &FunctionCallStatement{lineNo: lineNo, Call: v}, nil
}

func (n *FunctionCallStatement) Process(ctx *Context) error {
	ts, err := n.Call.Check(ctx.Scope, ctx.Reg)
	if err != nil {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrExpression, "%s", err)
	}
	if len(ts) != 0 {
		return ctx.compileErrAt(n.lineNo, "", diagnostics.ErrUnconsumedReturns, "expression statement leaves %d unconsumed value(s) on the stack", len(ts))
	}
	return nil
}
func (n *FunctionCallStatement) WriteTeal(w Writer) { n.Call.Write(w) }
func (n *FunctionCallStatement) LineNo() int        { return n.lineNo }
