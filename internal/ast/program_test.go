package ast_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/ast"
	"github.com/tealc-lang/sclc/internal/lexer"
)

type recordingWriter struct {
	lines        []string
	indent       int
	breakTargets []string
}

func (w *recordingWriter) Line(format string, args ...interface{}) {
	w.lines = append(w.lines, strings.Repeat("  ", w.indent)+fmt.Sprintf(format, args...))
}
func (w *recordingWriter) Label(name string) { w.lines = append(w.lines, name) }
func (w *recordingWriter) Indent()           { w.indent++ }
func (w *recordingWriter) Dedent()           { w.indent-- }

func (w *recordingWriter) PushBreakTarget(label string) {
	w.breakTargets = append(w.breakTargets, label)
}
func (w *recordingWriter) PopBreakTarget() {
	w.breakTargets = w.breakTargets[:len(w.breakTargets)-1]
}
func (w *recordingWriter) BreakTarget() (string, bool) {
	if len(w.breakTargets) == 0 {
		return "", false
	}
	return w.breakTargets[len(w.breakTargets)-1], true
}

func compile(t *testing.T, source string) (*ast.Program, *recordingWriter) {
	t.Helper()
	ctx := ast.NewContext(lexer.New(source))
	prog, err := ast.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, prog.Process(ctx))
	w := &recordingWriter{}
	prog.WriteTeal(w)
	return prog, w
}

func TestConstLowersToDefine(t *testing.T) {
	_, w := compile(t, "#pragma version 8\nconst int FEE = 1000\nexit(1)")
	assert.Contains(t, w.lines, "#define FEE 1000")
}

func TestVarDeclarationLowersToPushAndStore(t *testing.T) {
	_, w := compile(t, "#pragma version 8\nint x = 5\nexit(1)")
	assert.Contains(t, w.lines, "pushint 5")
	assert.Contains(t, w.lines, "store 0 // x")
}

func TestInnerGroupMacroUsesReservedScratchSlot(t *testing.T) {
	src := "#pragma version 8\n" +
		"int x = 1\n" +
		"inner_group:\n" +
		"  inner_txn:\n" +
		"    Fee: 0\n" +
		"  end\n" +
		"end\n" +
		"exit(1)\n"
	_, w := compile(t, src)
	assert.Contains(t, w.lines, "callsub _itxn_group_begin")
	assert.Contains(t, w.lines, "  store 1 // inner_group_flag")
}

func TestIfElseLowering(t *testing.T) {
	src := "#pragma version 8\n" +
		"int x = 1\n" +
		"if x:\n" +
		"  exit(1)\n" +
		"else:\n" +
		"  exit(0)\n" +
		"end\n"
	_, w := compile(t, src)
	joined := strings.Join(w.lines, "\n")
	assert.Contains(t, joined, "bz l0_else")
	assert.Contains(t, joined, "l0_else:")
	assert.Contains(t, joined, "l0_end:")
}

func TestBlockMustEndInExit(t *testing.T) {
	ctx := ast.NewContext(lexer.New("#pragma version 8\nblock b:\n  int x = 1\nend\n"))
	_, err := ast.Consume(ctx)
	assert.Error(t, err)
}

func TestFuncMustEndInReturn(t *testing.T) {
	ctx := ast.NewContext(lexer.New("#pragma version 8\nfunc f(): int\n  int x = 1\nend\n"))
	_, err := ast.Consume(ctx)
	assert.Error(t, err)
}

func TestForLoopLowering(t *testing.T) {
	src := "#pragma version 8\n" +
		"for i in 0:10:\n" +
		"  int x = i\n" +
		"end\n" +
		"exit(1)\n"
	_, w := compile(t, src)
	joined := strings.Join(w.lines, "\n")
	assert.Contains(t, joined, "l0_for:")
	assert.Contains(t, joined, "store 0 // i")
}

func TestStructTypedVarRejectsIntInitializer(t *testing.T) {
	src := "#pragma version 8\n" +
		"struct Item:\n" +
		"  price: int\n" +
		"  seller: bytes[32]\n" +
		"end\n" +
		"Item it = 0\n" +
		"exit(1)\n"
	ctx := ast.NewContext(lexer.New(src))
	prog, err := ast.Consume(ctx)
	require.NoError(t, err)
	err = prog.Process(ctx)
	// assigning an int literal to a struct-typed var should fail type
	// checking, proving struct registration and CanHold both ran.
	assert.Error(t, err)
}

func TestWhileBreakResolvesToEnclosingEndLabel(t *testing.T) {
	src := "#pragma version 8\n" +
		"int x = 1\n" +
		"while x:\n" +
		"  break\n" +
		"end\n" +
		"exit(1)\n"
	_, w := compile(t, src)
	joined := strings.Join(w.lines, "\n")
	assert.Contains(t, joined, "l0_while:")
	assert.Contains(t, joined, "b l0_end")
}
