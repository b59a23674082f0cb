package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/bytecode"
	"github.com/velalang/velac/deduce"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
)

// TestDestructuringLetSlotsAndArities checks that for
// `let (a,b,(c,d)) = (u4:0, u8:1, (u16:2, (u32:3,u64:4,uN[128]:5)))` the
// leaf slots are a=0,b=1,c=2,d=3, the CreateTuple arities appear in order
// 3, 2, 3 (innermost first), and each interior pattern node expands once.
func TestDestructuringLetSlotsAndArities(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	bits := func(text string, width uint64) ast.NodeID {
		lit := tr.Lit(ast.Span{}, text)
		info.SetType(lit, types.Bits(false, dim.NewConst(width)))
		return lit
	}
	innermost := tr.TupleLit(ast.Span{}, []ast.NodeID{bits("3", 32), bits("4", 64), bits("5", 128)})
	inner := tr.TupleLit(ast.Span{}, []ast.NodeID{bits("2", 16), innermost})
	rhs := tr.TupleLit(ast.Span{}, []ast.NodeID{bits("0", 4), bits("1", 8), inner})

	a := symbol.Intern("DestructureA")
	b := symbol.Intern("DestructureB")
	c := symbol.Intern("DestructureC")
	d := symbol.Intern("DestructureD")
	pattern := tr.TuplePattern(ast.Span{}, []ast.NodeID{
		tr.NameLeaf(ast.Span{}, a),
		tr.NameLeaf(ast.Span{}, b),
		tr.TuplePattern(ast.Span{}, []ast.NodeID{tr.NameLeaf(ast.Span{}, c), tr.NameLeaf(ast.Span{}, d)}),
	})
	let := tr.Let(ast.Span{}, pattern, ast.InvalidNode, rhs, tr.VarRef(ast.Span{}, a))
	block := tr.Block(ast.Span{}, nil, let)
	tr.Root = block

	em := bytecode.NewEmitter(tr, info)
	prog, err := em.EmitFunctionBody(block)
	require.NoError(t, err)

	var tupleArities []int
	var storeSlots []int
	expandCount := 0
	for _, instr := range prog.Instrs {
		switch instr.Op {
		case bytecode.CreateTuple:
			tupleArities = append(tupleArities, instr.N)
		case bytecode.Store:
			storeSlots = append(storeSlots, instr.Slot)
		case bytecode.ExpandTuple:
			expandCount++
		}
	}
	assert.Equal(t, []int{3, 2, 3}, tupleArities)
	assert.Equal(t, []int{0, 1, 2, 3}, storeSlots)
	assert.Equal(t, 2, expandCount)

	interp := bytecode.NewInterpreter(prog, nil)
	result, err := interp.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Int64())
	assert.Equal(t, uint32(4), result.Width())
}

// matchProgram deduces and emits `match <scrutinee> { 1 => 10, 2 => 20,
// other => other }` for a given scrutinee literal.
func matchProgram(t *testing.T, scrutText string) *bytecode.Program {
	t.Helper()
	tr := ast.NewTree()
	info := typeinfo.New()

	scrut := tr.Lit(ast.Span{}, scrutText)
	other := symbol.Intern("MatchOther" + scrutText)
	arms := []ast.MatchArm{
		{Pattern: tr.Lit(ast.Span{}, "1"), Body: tr.Lit(ast.Span{}, "10")},
		{Pattern: tr.Lit(ast.Span{}, "2"), Body: tr.Lit(ast.Span{}, "20")},
		{Pattern: tr.NameLeaf(ast.Span{}, other), Body: tr.VarRef(ast.Span{}, other)},
	}
	match := tr.Match(ast.Span{}, scrut, arms)
	block := tr.Block(ast.Span{}, nil, match)
	tr.Root = block

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(block)
	require.NoError(t, err)

	em := bytecode.NewEmitter(tr, info)
	prog, err := em.EmitFunctionBody(block)
	require.NoError(t, err)
	return prog
}

func TestMatchSelectsArmByLiteral(t *testing.T) {
	for scrut, want := range map[string]int64{"1": 10, "2": 20, "7": 7} {
		prog := matchProgram(t, scrut)
		interp := bytecode.NewInterpreter(prog, nil)
		result, err := interp.Run()
		require.NoError(t, err)
		assert.Equal(t, want, result.Int64(), "match on scrutinee %s", scrut)
	}
}

// TestForLoopAccumulates deduces and runs
// `for (x, acc) in [1,2,3] { x + acc } init 0`.
func TestForLoopAccumulates(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	iter := tr.ArrayLit(ast.Span{}, []ast.NodeID{
		tr.Lit(ast.Span{}, "1"), tr.Lit(ast.Span{}, "2"), tr.Lit(ast.Span{}, "3"),
	})
	init := tr.Lit(ast.Span{}, "0")
	x := symbol.Intern("EmitForX")
	acc := symbol.Intern("EmitForAcc")
	pattern := tr.TuplePattern(ast.Span{}, []ast.NodeID{tr.NameLeaf(ast.Span{}, x), tr.NameLeaf(ast.Span{}, acc)})
	body := tr.Binary(ast.Span{}, ast.OpAdd, tr.VarRef(ast.Span{}, x), tr.VarRef(ast.Span{}, acc))
	loop := tr.For(ast.Span{}, pattern, iter, init, body, false)
	block := tr.Block(ast.Span{}, nil, loop)
	tr.Root = block

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(block)
	require.NoError(t, err)

	em := bytecode.NewEmitter(tr, info)
	prog, err := em.EmitFunctionBody(block)
	require.NoError(t, err)

	interp := bytecode.NewInterpreter(prog, nil)
	result, err := interp.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(6), result.Int64())
}
