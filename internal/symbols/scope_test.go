package symbols_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/symbols"
	"github.com/tealc-lang/sclc/internal/types"
)

func TestDeclareVarAllocatesMonotonicSlots(t *testing.T) {
	root := symbols.NewRootScope()

	a, err := root.DeclareVar("a", types.NewIntType())
	require.NoError(t, err)
	b, err := root.DeclareVar("b", types.NewSizedBytesType(32))
	require.NoError(t, err)

	assert.Equal(t, 0, a.ScratchSlot)
	assert.Equal(t, 1, b.ScratchSlot)
	assert.Equal(t, 1, root.MaxSlot())

	_, err = root.DeclareVar("a", types.NewIntType())
	assert.Error(t, err)
}

func TestChildScopeInheritsFloorAndIsolatesVars(t *testing.T) {
	root := symbols.NewRootScope()
	_, err := root.DeclareVar("x", types.NewIntType())
	require.NoError(t, err)

	child := root.NewChild("block__inner")
	y, err := child.DeclareVar("y", types.NewIntType())
	require.NoError(t, err)
	assert.Equal(t, 1, y.ScratchSlot)

	_, ok := child.LookupVar("x")
	assert.True(t, ok, "child scope should see parent's vars")

	_, ok = root.LookupVar("y")
	assert.False(t, ok, "parent scope must not see child's vars")
}

func TestQualifiedNameNesting(t *testing.T) {
	root := symbols.NewRootScope()
	fn := root.NewChild("func__transfer")
	loop := fn.NewChild("while__0")

	assert.Equal(t, "func__transfer", fn.QualifiedName())
	assert.Equal(t, "func__transfer__while__0", loop.QualifiedName())
}

func TestConstLookupWalksToRoot(t *testing.T) {
	root := symbols.NewRootScope()
	require.NoError(t, root.DeclareConst("FEE", types.NewIntType(), int64(1000)))

	child := root.NewChild("block__b")
	c, ok := child.LookupConst("FEE")
	require.True(t, ok)
	assert.Equal(t, int64(1000), c.Literal)

	_, err := root.DeclareConst("FEE", types.NewIntType(), int64(1))
	assert.Error(t, err)
}
