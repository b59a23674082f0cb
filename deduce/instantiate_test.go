package deduce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/deduce"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/types"
)

func emptyModule() *deduce.Module {
	tr := ast.NewTree()
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, nil)
	return deduce.NewModule(tr, mod)
}

// TestInstantiateBindsSymbolFromActual unifies `fn f<N>(x: uN[N]) -> uN[N]`
// against a u8 argument: N is constrained to 8 and the return type
// substitutes to u8.
func TestInstantiateBindsSymbolFromActual(t *testing.T) {
	n := symbol.Intern("InstTestN")
	span := ast.Span{}
	formals := []types.FormalParametric{{Name: n, Type: types.U32()}}
	sym := types.Bits(false, dim.NewSymbol(n, span))
	calleeType := types.Function([]*types.Type{sym}, sym, formals)
	u8 := types.Bits(false, dim.NewConst(8))

	ret, env, err := deduce.Instantiate(emptyModule(), symbol.Intern("f"), formals, calleeType, nil, []*types.Type{u8}, span)
	require.NoError(t, err)
	assert.True(t, types.Equal(ret, u8))

	b, ok := env.Lookup(n)
	require.True(t, ok)
	r := dim.Eval(b.Symbolic, env)
	require.NotNil(t, r.Value)
	assert.Equal(t, uint64(8), *r.Value)
}

// TestInstantiateExplicitOverridesUnification supplies N explicitly; a
// conflicting actual argument type is a unification error, and a matching
// one resolves.
func TestInstantiateExplicitOverridesUnification(t *testing.T) {
	n := symbol.Intern("InstTestExplicitN")
	span := ast.Span{}
	formals := []types.FormalParametric{{Name: n, Type: types.U32()}}
	sym := types.Bits(false, dim.NewSymbol(n, span))
	calleeType := types.Function([]*types.Type{sym}, sym, formals)
	u16 := types.Bits(false, dim.NewConst(16))

	ret, _, err := deduce.Instantiate(emptyModule(), symbol.Intern("f"), formals, calleeType,
		[]*dim.Dim{dim.NewConst(16)}, []*types.Type{u16}, span)
	require.NoError(t, err)
	assert.True(t, types.Equal(ret, u16))

	u8 := types.Bits(false, dim.NewConst(8))
	_, _, err = deduce.Instantiate(emptyModule(), symbol.Intern("f"), formals, calleeType,
		[]*dim.Dim{dim.NewConst(16)}, []*types.Type{u8}, span)
	assert.Error(t, err)
}

// TestInstantiateSolvesAffineDim unifies a formal `uN[N+1]` against a u9
// actual, solving N=8.
func TestInstantiateSolvesAffineDim(t *testing.T) {
	n := symbol.Intern("InstTestAffineN")
	span := ast.Span{}
	formals := []types.FormalParametric{{Name: n, Type: types.U32()}}
	affine := types.Bits(false, dim.NewAdd(dim.NewSymbol(n, span), dim.NewConst(1)))
	retSym := types.Bits(false, dim.NewSymbol(n, span))
	calleeType := types.Function([]*types.Type{affine}, retSym, formals)
	u9 := types.Bits(false, dim.NewConst(9))

	ret, _, err := deduce.Instantiate(emptyModule(), symbol.Intern("f"), formals, calleeType, nil, []*types.Type{u9}, span)
	require.NoError(t, err)
	assert.True(t, types.Equal(ret, types.Bits(false, dim.NewConst(8))))
}

// buildScaleModule builds
//
//	fn scale<N: u32>(x: uN[N]) -> uN[N] { x }
//
// plus a caller function with the given return width whose body is the
// given call expression, and typechecks the module.
func buildScaleModule(t *testing.T, makeCall func(tr *ast.Tree, scale symbol.ID) ast.NodeID, retWidth string) (map[string]*deduce.Module, error) {
	t.Helper()
	tr := ast.NewTree()
	scale := symbol.Intern("InstScale" + retWidth)
	n := symbol.Intern("InstScaleN" + retWidth)
	x := symbol.Intern("InstScaleX" + retWidth)

	pn := tr.FormalArg(ast.Span{}, n, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32")), ast.InvalidNode)
	xf := tr.FormalArg(ast.Span{}, x, tr.TypeBits(ast.Span{}, false, tr.VarRef(ast.Span{}, n)), ast.InvalidNode)
	ret := tr.TypeBits(ast.Span{}, false, tr.VarRef(ast.Span{}, n))
	body := tr.Block(ast.Span{}, nil, tr.VarRef(ast.Span{}, x))
	fn := tr.FuncDef(ast.Span{}, scale, []ast.NodeID{pn}, []ast.NodeID{xf}, ret, body)

	call := makeCall(tr, scale)
	callerRet := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, retWidth))
	caller := tr.FuncDef(ast.Span{}, symbol.Intern("InstUse"+retWidth), nil, nil, callerRet, tr.Block(ast.Span{}, nil, call))
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{fn, caller})
	tr.Root = mod

	return deduce.CheckProgram(
		map[string]*ast.Tree{"m": tr},
		map[string]ast.NodeID{"m": mod},
	)
}

// TestInvokeExplicitParametricResolvesCall drives an explicit parametric
// through a call site: `scale<16>(u16:1)` typed against a u16 return.
func TestInvokeExplicitParametricResolvesCall(t *testing.T) {
	_, err := buildScaleModule(t, func(tr *ast.Tree, scale symbol.ID) ast.NodeID {
		arg := tr.Cast(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "16")), tr.Lit(ast.Span{}, "1"))
		return tr.Invoke(ast.Span{}, tr.VarRef(ast.Span{}, scale), []ast.NodeID{tr.Lit(ast.Span{}, "16")}, []ast.NodeID{arg})
	}, "16")
	assert.NoError(t, err)
}

// TestInvokeExplicitParametricConflictErrors supplies `scale<8>(u16:1)`:
// the explicit binding contradicts the argument type.
func TestInvokeExplicitParametricConflictErrors(t *testing.T) {
	_, err := buildScaleModule(t, func(tr *ast.Tree, scale symbol.ID) ast.NodeID {
		arg := tr.Cast(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "16")), tr.Lit(ast.Span{}, "1"))
		return tr.Invoke(ast.Span{}, tr.VarRef(ast.Span{}, scale), []ast.NodeID{tr.Lit(ast.Span{}, "8")}, []ast.NodeID{arg})
	}, "16")
	assert.Error(t, err)
}

// TestInvokeInferredParametricResolvesCall leaves the parametric implicit:
// `scale(u8:1)` infers N=8 from the argument alone.
func TestInvokeInferredParametricResolvesCall(t *testing.T) {
	_, err := buildScaleModule(t, func(tr *ast.Tree, scale symbol.ID) ast.NodeID {
		arg := tr.Cast(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "8")), tr.Lit(ast.Span{}, "1"))
		return tr.Invoke(ast.Span{}, tr.VarRef(ast.Span{}, scale), nil, []ast.NodeID{arg})
	}, "8")
	assert.NoError(t, err)
}

// TestInvokeParametricDefaultFallback resolves an unsupplied, unconstrained
// parametric through its default expression:
//
//	fn pad<N: u32, M: u32 = 8>(x: uN[N]) -> uN[M]
//	fn use_pad() -> u8 { pad(u4:1) }
func TestInvokeParametricDefaultFallback(t *testing.T) {
	tr := ast.NewTree()
	pad := symbol.Intern("InstPad")
	n := symbol.Intern("InstPadN")
	mSym := symbol.Intern("InstPadM")
	x := symbol.Intern("InstPadX")

	pn := tr.FormalArg(ast.Span{}, n, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32")), ast.InvalidNode)
	pm := tr.FormalArg(ast.Span{}, mSym, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32")), tr.Lit(ast.Span{}, "8"))
	xf := tr.FormalArg(ast.Span{}, x, tr.TypeBits(ast.Span{}, false, tr.VarRef(ast.Span{}, n)), ast.InvalidNode)
	ret := tr.TypeBits(ast.Span{}, false, tr.VarRef(ast.Span{}, mSym))
	body := tr.Block(ast.Span{}, nil, tr.VarRef(ast.Span{}, x))
	fn := tr.FuncDef(ast.Span{}, pad, []ast.NodeID{pn, pm}, []ast.NodeID{xf}, ret, body)

	arg := tr.Cast(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "4")), tr.Lit(ast.Span{}, "1"))
	call := tr.Invoke(ast.Span{}, tr.VarRef(ast.Span{}, pad), nil, []ast.NodeID{arg})
	callerRet := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "8"))
	caller := tr.FuncDef(ast.Span{}, symbol.Intern("InstUsePad"), nil, nil, callerRet, tr.Block(ast.Span{}, nil, call))
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{fn, caller})
	tr.Root = mod

	_, err := deduce.CheckProgram(
		map[string]*ast.Tree{"m": tr},
		map[string]ast.NodeID{"m": mod},
	)
	assert.NoError(t, err)
}
