package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/types"
)

func TestIntTypeCanHold(t *testing.T) {
	plain := types.NewIntType()
	narrow := types.NewUIntType(2)

	assert.True(t, plain.CanHold(types.NewUIntType(1)))
	assert.True(t, plain.CanHold(types.NewIntType()))
	assert.True(t, narrow.CanHold(types.NewUIntType(2)))
	assert.False(t, narrow.CanHold(types.NewUIntType(3)))
	assert.True(t, narrow.CanHoldWithCast(types.NewUIntType(3)))
	assert.False(t, narrow.CanHoldWithCast(types.NewBytesType()))
}

func TestBytesTypeCanHold(t *testing.T) {
	unsized := types.NewBytesType()
	sized32 := types.NewSizedBytesType(32)
	sized16 := types.NewSizedBytesType(16)

	assert.True(t, unsized.CanHold(sized32))
	assert.True(t, sized32.CanHold(sized16))
	assert.False(t, sized16.CanHold(sized32))
	assert.True(t, sized16.CanHoldWithCast(sized32))
	assert.True(t, sized32.CanHold(types.AddrType{}))
}

func TestAnyTypeIsTopOnBothSides(t *testing.T) {
	any := types.AnyType{}
	assert.True(t, any.CanHold(types.NewIntType()))
	assert.True(t, types.NewUIntType(1).CanHold(any))
	assert.True(t, types.NewSizedBytesType(4).CanHold(any))
}

func TestStructTypeOffsetsArePrefixSums(t *testing.T) {
	s := types.NewStructType("Item")
	require.NoError(t, s.AddField("price", types.NewIntType()))
	require.NoError(t, s.AddField("seller", types.NewSizedBytesType(32)))
	require.NoError(t, s.AddField("round", types.NewIntType()))

	price, _ := s.Field("price")
	seller, _ := s.Field("seller")
	round, _ := s.Field("round")

	assert.Equal(t, 0, price.Offset)
	assert.Equal(t, 8, seller.Offset)
	assert.Equal(t, 40, round.Offset)
	assert.Equal(t, 48, s.TotalSize)
}

func TestRegistryGetTypeInstance(t *testing.T) {
	r := types.NewRegistry()
	s := types.NewStructType("Item")
	require.NoError(t, s.AddField("price", types.NewIntType()))
	require.NoError(t, r.DefineStruct(s))

	typ, err := r.GetTypeInstance("box<Item>")
	require.NoError(t, err)
	box, ok := typ.(types.BoxType)
	require.True(t, ok)
	assert.Equal(t, "Item", box.Struct.Name)

	typ, err = r.GetTypeInstance("uint3")
	require.NoError(t, err)
	assert.Equal(t, "uint3", typ.String())

	_, err = r.GetTypeInstance("Nope")
	assert.Error(t, err)
}
