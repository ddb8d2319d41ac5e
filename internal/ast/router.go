package ast

import (
	"strings"

	"github.com/tealc-lang/sclc/internal/config"
	"github.com/tealc-lang/sclc/internal/diagnostics"
	"github.com/tealc-lang/sclc/internal/types"
)

// Route names one `@public` function as reachable from the contract's
// argument-dispatch entry point.
type Route struct {
	lineNo   int
	FuncName string
	fn       *Func
}

// Router is `router: <func-name> ... end`, compiling to a
// txn-application-args dispatch table: match the first argument
// against each route's function-name byte string, assert the declared
// OnCompletion, demarshal each remaining argument per the callee's
// parameter types, call the function, and re-encode its return value.
type Router struct {
	lineNo int
	Routes []*Route
}

func consumeRouter(ctx *Context) (Statement, error) {
	lineNo := ctx.Lines.LineNo()
	ctx.Lines.Next()
	r := &Router{lineNo: lineNo}
	for {
		l, ok := ctx.peekTrimmed()
		if !ok {
			return nil, ctx.parseErr(diagnostics.ErrUnmatchedLine, "router: unexpected end of input")
		}
		if l == "end" {
			ctx.Lines.Next()
			break
		}
		routeLineNo := ctx.Lines.LineNo()
		ctx.Lines.Next()
		r.Routes = append(r.Routes, &Route{lineNo: routeLineNo, FuncName: strings.TrimSpace(l)})
	}
	return r, nil
}

func (r *Router) Process(ctx *Context) error {
	for _, route := range r.Routes {
		fn, ok := ctx.Root.LookupFunc(route.FuncName)
		if !ok {
			return ctx.compileErrAt(route.lineNo, "", diagnostics.ErrUnknownName, "unknown function %q", route.FuncName)
		}
		f, ok := fn.(*Func)
		if !ok || !f.IsPublic() {
			return ctx.compileErrAt(route.lineNo, "", diagnostics.ErrNotRoutable, "function %q is not declared @public", route.FuncName)
		}
		route.fn = f
	}
	return nil
}

// WriteTeal emits a pushbytes of each route's function name, a match
// against the first application argument, the per-route OnCompletion
// assertion (or an ApplicationID==0 check for CreateApplication),
// argument demarshalling, the callsub, and finally return-value
// re-encoding (reverse, itob-if-needed, concat, tag, log).
func (r *Router) WriteTeal(w Writer) {
	for _, route := range r.Routes {
		w.Line("pushbytes \"%s\"", route.FuncName)
	}
	w.Line("txna ApplicationArgs 0")
	w.Line("match %s", strings.Join(routeLabels(r.Routes), " "))
	w.Line("err")
	for _, route := range r.Routes {
		w.Label("route_" + route.FuncName + ":")
		w.Indent()
		onCompletion, isCreate := onCompletionFor(route.fn)
		if isCreate {
			w.Line("txn ApplicationID")
			w.Line("pushint 0")
			w.Line("==")
			w.Line("assert")
		} else {
			w.Line("txn OnCompletion")
			w.Line("pushint %d", onCompletion)
			w.Line("==")
			w.Line("assert")
		}
		for i, arg := range route.fn.Args {
			w.Line("txna ApplicationArgs %d", i+1)
			writeRouterArgConversion(w, arg)
		}
		w.Line("callsub %s", route.fn.Label())
		if len(route.fn.returns) > 0 {
			writeRouterReturnEncoding(w, route.fn)
		}
		w.Line("pushint 1")
		w.Line("return")
		w.Dedent()
	}
}

// writeRouterArgConversion applies the conversion implied by arg's
// declared type to the raw application-args bytes already pushed on
// the stack: plain bytes passes through unconverted; plain int is
// recovered with a FromBytes-style btoi; a narrower uintN is recovered
// the same way (its width is a static fact checked elsewhere, not an
// opcode); any other sized bytes[n] is a pure reinterpretation and
// needs no opcode at all.
func writeRouterArgConversion(w Writer, arg FuncArg) {
	switch arg.typ.(type) {
	case types.IntType:
		w.Line("btoi")
	case types.BytesType:
		// passes through unconverted, sized or not
	}
}

func writeRouterReturnEncoding(w Writer, f *Func) {
	for i := len(f.returns) - 1; i > 0; i-- {
		w.Line("uncover %d", i)
	}
	for _, rt := range f.returns {
		if rt.String() == "int" {
			w.Line("itob")
		}
	}
	for i := 1; i < len(f.returns); i++ {
		w.Line("concat")
	}
	w.Line("pushbytes %s", config.ArgReturnTag)
	w.Line("swap")
	w.Line("concat")
	w.Line("log")
}

func onCompletionFor(f *Func) (int, bool) {
	if f == nil || f.decorators == nil {
		return config.NoOp, false
	}
	name, ok := f.decorators["OnCompletion"]
	if !ok {
		if _, ok := f.decorators["create"]; ok {
			return 0, true
		}
		return config.NoOp, false
	}
	if name == "CreateApplication" {
		return 0, true
	}
	v, ok := config.OnCompletionValues[name]
	if !ok {
		return config.NoOp, false
	}
	return v, false
}

func routeLabels(routes []*Route) []string {
	labels := make([]string, len(routes))
	for i, r := range routes {
		labels[i] = "route_" + r.FuncName
	}
	return labels
}

func (r *Router) LineNo() int { return r.lineNo }
