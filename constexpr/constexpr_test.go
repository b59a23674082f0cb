package constexpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/constexpr"
	"github.com/velalang/velac/deduce"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
)

func TestEvalSimpleArithmetic(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()
	u32 := types.U32()

	lit1 := tr.Lit(ast.Span{}, "40")
	info.SetType(lit1, u32)
	lit2 := tr.Lit(ast.Span{}, "2")
	info.SetType(lit2, u32)
	add := tr.Binary(ast.Span{}, ast.OpAdd, lit1, lit2)
	block := tr.Block(ast.Span{}, nil, add)

	env := dim.NewEnv()
	result, err := constexpr.Eval(tr, info, block, env, constexpr.NewGuard())
	assert.NoError(t, err)
	assert.Equal(t, int64(42), result.Int64())
}

func TestEvalCachesIntoTypeInfo(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()
	u32 := types.U32()

	lit := tr.Lit(ast.Span{}, "7")
	info.SetType(lit, u32)
	block := tr.Block(ast.Span{}, nil, lit)

	env := dim.NewEnv()
	_, err := constexpr.Eval(tr, info, block, env, constexpr.NewGuard())
	assert.NoError(t, err)

	cached, ok := info.ConstValue(block)
	assert.True(t, ok)
	assert.Equal(t, int64(7), cached.Int64())
}

// TestEvalSliceUsesDeducedResolution drives negative-bound clamping end
// to end: the
// deducer resolves a[-16:] on a u32 to (start=16, width=16) and the
// evaluator consumes that resolution rather than re-deriving it.
func TestEvalSliceUsesDeducedResolution(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	base := tr.Lit(ast.Span{}, "3735928559") // 0xdeadbeef
	lo := tr.Lit(ast.Span{}, "-16")
	slice := tr.Slice(ast.Span{}, base, lo, ast.InvalidNode)
	block := tr.Block(ast.Span{}, nil, slice)

	env := dim.NewEnv()
	d := deduce.New(tr, info, env, nil)
	sliceType, err := d.Deduce(block)
	assert.NoError(t, err)
	assert.True(t, types.Equal(sliceType, types.Bits(false, dim.NewConst(16))))

	result, err := constexpr.Eval(tr, info, block, env, constexpr.NewGuard())
	assert.NoError(t, err)
	assert.Equal(t, int64(0xdead), result.Int64())
	assert.Equal(t, uint32(16), result.Width())
}

func TestEvalUsesBoundEnvSymbol(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()
	u32 := types.U32()

	n := symbol.Intern("ConstexprTestN")
	varref := tr.VarRef(ast.Span{}, n)
	info.SetType(varref, u32)
	block := tr.Block(ast.Span{}, nil, varref)

	env := dim.NewEnv()
	env.BindConcrete(n, 9)

	result, err := constexpr.Eval(tr, info, block, env, constexpr.NewGuard())
	assert.NoError(t, err)
	assert.Equal(t, int64(9), result.Int64())
}
