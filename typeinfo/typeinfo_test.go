package typeinfo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/value"
)

func TestSetAndGetType(t *testing.T) {
	info := typeinfo.New()
	node := ast.NodeID(3)
	u32 := types.U32()
	info.SetType(node, u32)

	got, ok := info.Type(node)
	assert.True(t, ok)
	assert.True(t, types.Equal(u32, got))

	_, ok = info.Type(ast.NodeID(99))
	assert.False(t, ok)
}

func TestConstValueRoundTrip(t *testing.T) {
	info := typeinfo.New()
	node := ast.NodeID(1)
	info.SetConstValue(node, value.NewBitsFromInt64(8, false, 42))

	got, ok := info.ConstValue(node)
	assert.True(t, ok)
	assert.Equal(t, int64(42), got.Int64())
}

func TestChildIsMemoizedPerCalleeAndEnv(t *testing.T) {
	info := typeinfo.New()
	callee := ast.NodeID(7)

	c1, created1 := info.Child(callee, 0xAAAA)
	assert.True(t, created1)
	c2, created2 := info.Child(callee, 0xAAAA)
	assert.False(t, created2)
	assert.Same(t, c1, c2)

	c3, created3 := info.Child(callee, 0xBBBB)
	assert.True(t, created3)
	assert.NotSame(t, c1, c3)
}

func TestSliceResolutionKeyedByEnv(t *testing.T) {
	info := typeinfo.New()
	node := ast.NodeID(2)
	info.SetSliceResolution(node, 1, typeinfo.SliceResolution{Start: 0, Width: 8})
	info.SetSliceResolution(node, 2, typeinfo.SliceResolution{Start: 8, Width: 16})

	r1, ok := info.SliceResolution(node, 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(8), r1.Width)

	r2, ok := info.SliceResolution(node, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(16), r2.Width)
}
