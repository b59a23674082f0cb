package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velalang/velac/ir"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

func TestBuildAndVerifySimpleFunction(t *testing.T) {
	pkg := ir.NewPackage("test")
	f := pkg.NewFunction("f")
	x := f.AddParam("x", types.U32())
	one := f.AddLiteral(value.NewBitsFromInt64(32, false, 1), types.U32())
	sum := f.AddBinOp(ir.OpAdd, x, one, types.U32())
	f.SetReturn(sum)

	require.NoError(t, ir.Verify(pkg))
	require.Equal(t, 3, len(f.Nodes))
}

func TestVerifyRejectsDanglingOperand(t *testing.T) {
	pkg := ir.NewPackage("test")
	f := pkg.NewFunction("f")
	other := pkg.NewFunction("g")
	foreign := other.AddParam("y", types.U32())
	x := f.AddParam("x", types.U32())
	bad := f.AddBinOp(ir.OpAdd, x, foreign, types.U32())
	f.SetReturn(bad)

	err := ir.Verify(pkg)
	require.Error(t, err)
}

func TestVerifyCatchesDuplicateProducer(t *testing.T) {
	pkg := ir.NewPackage("test")
	pkg.AddChannel(&ir.Channel{Name: "c", Payload: types.U32()})

	p1 := pkg.NewProc("p1")
	tok1 := p1.AddParam("tok", types.Token())
	data1 := p1.AddLiteral(value.NewBitsFromInt64(32, false, 1), types.U32())
	p1.AddSend("c", tok1, data1, nil)

	p2 := pkg.NewProc("p2")
	tok2 := p2.AddParam("tok", types.Token())
	data2 := p2.AddLiteral(value.NewBitsFromInt64(32, false, 2), types.U32())
	p2.AddSend("c", tok2, data2, nil)

	err := ir.Verify(pkg)
	require.Error(t, err)

	ch, _ := pkg.Channel("c")
	ch.Legalized = true
	require.NoError(t, ir.Verify(pkg))
}

func TestUseCountsAndReplaceAllUses(t *testing.T) {
	pkg := ir.NewPackage("test")
	f := pkg.NewFunction("f")
	a := f.AddLiteral(value.NewBitsFromInt64(8, false, 1), nil)
	b := f.AddLiteral(value.NewBitsFromInt64(8, false, 2), nil)
	sum := f.AddBinOp(ir.OpAdd, a, b, nil)
	f.SetReturn(sum)

	counts := ir.UseCounts(f.Nodes)
	require.Equal(t, 1, counts[a.ID])
	require.Equal(t, 1, counts[b.ID])

	c := f.AddLiteral(value.NewBitsFromInt64(8, false, 3), nil)
	n := ir.ReplaceAllUses(f.Nodes, b, c)
	require.Equal(t, 1, n)
	require.Equal(t, c, sum.Operands[1])
}
