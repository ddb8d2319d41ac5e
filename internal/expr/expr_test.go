package expr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/expr"
	"github.com/tealc-lang/sclc/internal/symbols"
	"github.com/tealc-lang/sclc/internal/types"
)

type bufWriter struct{ lines []string }

func (b *bufWriter) Line(format string, args ...interface{}) {
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

func writeNode(t *testing.T, n expr.Node) []string {
	t.Helper()
	w := &bufWriter{}
	n.Write(w)
	return w.lines
}

func TestParseIntLiteralAndWrite(t *testing.T) {
	n, err := expr.Parse("1000")
	require.NoError(t, err)

	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	ts, err := n.Check(scope, reg)
	require.NoError(t, err)
	assert.Equal(t, "int", ts[0].String())
	assert.Equal(t, []string{"pushint 1000"}, writeNode(t, n))
}

func TestParseBinaryPrecedence(t *testing.T) {
	n, err := expr.Parse("1 + 2 * 3")
	require.NoError(t, err)

	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	_, err = n.Check(scope, reg)
	require.NoError(t, err)

	lines := writeNode(t, n)
	assert.Equal(t, []string{"pushint 1", "pushint 2", "pushint 3", "*", "+"}, lines)
}

func TestParseNameRefResolvesSlot(t *testing.T) {
	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	_, err := scope.DeclareVar("amount", types.NewIntType())
	require.NoError(t, err)

	n, err := expr.Parse("amount")
	require.NoError(t, err)
	_, err = n.Check(scope, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"load 0 // amount"}, writeNode(t, n))
}

func TestUndefinedNameIsError(t *testing.T) {
	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	n, err := expr.Parse("mystery")
	require.NoError(t, err)
	_, err = n.Check(scope, reg)
	assert.Error(t, err)
}

func TestCastBuiltinChangesType(t *testing.T) {
	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	_, err := scope.DeclareVar("x", types.NewIntType())
	require.NoError(t, err)

	n, err := expr.Parse("Cast(x, uint1)")
	require.NoError(t, err)
	ts, err := n.Check(scope, reg)
	require.NoError(t, err)
	assert.Equal(t, "uint1", ts[0].String())
}

func TestFieldAccessOnStruct(t *testing.T) {
	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	st := types.NewStructType("Item")
	require.NoError(t, st.AddField("price", types.NewIntType()))
	require.NoError(t, st.AddField("seller", types.NewSizedBytesType(32)))
	require.NoError(t, reg.DefineStruct(st))
	_, err := scope.DeclareVar("it", st)
	require.NoError(t, err)

	n, err := expr.Parse("it.seller")
	require.NoError(t, err)
	ts, err := n.Check(scope, reg)
	require.NoError(t, err)
	assert.Equal(t, "bytes[32]", ts[0].String())

	lines := writeNode(t, n)
	require.Len(t, lines, 2)
	assert.True(t, strings.Contains(lines[1], "extract 8 32"))
}

func TestTxnFieldAccessIsAnyTyped(t *testing.T) {
	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	n, err := expr.Parse("Txn.Sender")
	require.NoError(t, err)
	ts, err := n.Check(scope, reg)
	require.NoError(t, err)
	assert.Equal(t, "any", ts[0].String())
	assert.Equal(t, []string{"txn Sender"}, writeNode(t, n))
}

func TestTxnIndexedFieldAccess(t *testing.T) {
	scope := symbols.NewRootScope()
	reg := types.NewRegistry()
	n, err := expr.Parse("Txn.ApplicationArgs[0]")
	require.NoError(t, err)
	_, err = n.Check(scope, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"txna ApplicationArgs 0"}, writeNode(t, n))
}
