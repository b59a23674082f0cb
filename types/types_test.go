package types_test

import (
	"testing"
	"text/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/types"
)

func TestBitsEqualityUpToDim(t *testing.T) {
	n := symbol.Intern("TypesTestN")
	a := types.Bits(false, dim.NewSymbol(n, scanner.Position{}))
	b := types.Bits(false, dim.NewSymbol(n, scanner.Position{}))
	assert.True(t, types.Equal(a, b))

	c := types.Bits(false, dim.NewConst(8))
	assert.False(t, types.Equal(a, c))
}

func TestMetaIsDistinctFromInner(t *testing.T) {
	u8 := types.Bits(false, dim.NewConst(8))
	meta := types.Meta(u8)
	assert.False(t, types.Equal(u8, meta))
	assert.True(t, types.Equal(meta.MetaInner(), u8))
}

func TestStructStructuralEquality(t *testing.T) {
	nominal := symbol.Intern("TypesTestPoint")
	xField := symbol.Intern("TypesTestX")
	yField := symbol.Intern("TypesTestY")
	u32 := types.U32()
	a := types.Struct(nominal, []types.StructMember{{Name: xField, Type: u32}, {Name: yField, Type: u32}}, nil)
	b := types.Struct(nominal, []types.StructMember{{Name: xField, Type: u32}, {Name: yField, Type: u32}}, nil)
	assert.True(t, types.Equal(a, b))

	memberType, ok := a.MemberType(xField)
	assert.True(t, ok)
	assert.True(t, types.Equal(memberType, u32))
}

func TestFunctionEquality(t *testing.T) {
	u8 := types.Bits(false, dim.NewConst(8))
	u1 := types.U1()
	f1 := types.Function([]*types.Type{u8, u8}, u1, nil)
	f2 := types.Function([]*types.Type{u8, u8}, u1, nil)
	assert.True(t, types.Equal(f1, f2))
}

func TestHashMatchesEquality(t *testing.T) {
	a := types.Bits(true, dim.NewConst(16))
	b := types.Bits(true, dim.NewConst(16))
	assert.Equal(t, a.Hash(), b.Hash())
}
