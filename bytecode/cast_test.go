package bytecode_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/bytecode"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
)

// TestCastBitsArrayRoundTrip asserts that array-to-bits casts are
// little-endian in element order,
// so a bits value survives a round trip through an element array of any
// width that evenly divides it.
func TestCastBitsArrayRoundTrip(t *testing.T) {
	u32 := types.U32()
	u8 := types.Bits(false, dim.NewConst(8))
	u8x4 := types.Array(u8, dim.NewConst(4))

	cases := []int64{0, 1, 0xdeadbeef, 0xff00ff00, 0x01020304}
	for _, v := range cases {
		tr := ast.NewTree()
		info := typeinfo.New()

		lit := tr.Lit(ast.Span{}, bigHex(v))
		info.SetType(lit, u32)

		toArray := tr.Cast(ast.Span{}, ast.InvalidNode, lit)
		info.SetType(toArray, u8x4)

		backToBits := tr.Cast(ast.Span{}, ast.InvalidNode, toArray)
		info.SetType(backToBits, u32)

		block := tr.Block(ast.Span{}, nil, backToBits)
		tr.Root = block

		em := bytecode.NewEmitter(tr, info)
		prog, err := em.EmitFunctionBody(block)
		assert.NoError(t, err)

		interp := bytecode.NewInterpreter(prog, nil)
		result, err := interp.Run()
		assert.NoError(t, err)
		assert.Equal(t, v, result.Int64(), "round trip through [u8;4] must preserve the bit pattern for %#x", v)
	}
}

// TestCastArrayElementOrderLittleEndian pins down the direction of the
// little-endian convention itself: element 0 must land in the low-order
// byte, not the high-order one.
func TestCastArrayElementOrderLittleEndian(t *testing.T) {
	u8 := types.Bits(false, dim.NewConst(8))
	u32 := types.U32()
	u8x4 := types.Array(u8, dim.NewConst(4))

	tr := ast.NewTree()
	info := typeinfo.New()

	elems := make([]ast.NodeID, 4)
	// element i carries value i+1 so the packed result is unambiguous:
	// little-endian packing gives 0x04030201, big-endian would give
	// 0x01020304.
	for i := 0; i < 4; i++ {
		lit := tr.Lit(ast.Span{}, bigHex(int64(i+1)))
		info.SetType(lit, u8)
		elems[i] = lit
	}
	arr := tr.ArrayLit(ast.Span{}, elems)
	info.SetType(arr, u8x4)

	cast := tr.Cast(ast.Span{}, ast.InvalidNode, arr)
	info.SetType(cast, u32)

	block := tr.Block(ast.Span{}, nil, cast)
	tr.Root = block

	em := bytecode.NewEmitter(tr, info)
	prog, err := em.EmitFunctionBody(block)
	assert.NoError(t, err)

	interp := bytecode.NewInterpreter(prog, nil)
	result, err := interp.Run()
	assert.NoError(t, err)
	assert.Equal(t, int64(0x04030201), result.Int64())
}

func bigHex(v int64) string {
	return new(big.Int).SetInt64(v).String()
}
