package deduce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/deduce"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
)

// typedBits builds a literal node whose value is cast down to a bits type
// narrower than the default u32.
func typedBits(tr *ast.Tree, text string, width uint64) ast.NodeID {
	lit := tr.Lit(ast.Span{}, text)
	typeExpr := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, itoa(width)))
	return tr.Cast(ast.Span{}, typeExpr, lit)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	digits := []byte{}
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}

func TestDeduceLetBindsNameAndRecordsConstexpr(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	foo := symbol.Intern("DeduceTestFoo")
	lit := tr.Lit(ast.Span{}, "1")
	pattern := tr.NameLeaf(ast.Span{}, foo)
	varref := tr.VarRef(ast.Span{}, foo)
	two := tr.Lit(ast.Span{}, "2")
	add := tr.Binary(ast.Span{}, ast.OpAdd, varref, two)
	let := tr.Let(ast.Span{}, pattern, ast.InvalidNode, lit, add)
	block := tr.Block(ast.Span{}, nil, let)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(block)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.U32()))

	rhsType, ok := info.Type(lit)
	assert.True(t, ok)
	assert.True(t, types.Equal(rhsType, types.U32()))

	v, ok := info.ConstValue(lit)
	assert.True(t, ok)
	assert.Equal(t, int64(1), v.Int64())
}

func TestDeduceCondRequiresMatchingArmTypes(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	cond := typedBits(tr, "1", 1)
	then := tr.Lit(ast.Span{}, "42")
	els := tr.Lit(ast.Span{}, "64")
	condExpr := tr.Cond(ast.Span{}, cond, then, els)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(condExpr)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.U32()))
}

func TestDeduceCondArmTypeMismatchErrors(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	cond := typedBits(tr, "1", 1)
	then := tr.Lit(ast.Span{}, "42")
	els := typedBits(tr, "1", 1)
	condExpr := tr.Cond(ast.Span{}, cond, then, els)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(condExpr)
	assert.Error(t, err)
}

func TestDeduceBoundedSliceClampsNegativeStart(t *testing.T) {
	// a[-16:] on a u32 LHS resolves to (start=16, width=16).
	tr := ast.NewTree()
	info := typeinfo.New()

	base := tr.Lit(ast.Span{}, "3735928559")
	lo := tr.Lit(ast.Span{}, "-16")
	hi := tr.Lit(ast.Span{}, "32")
	slice := tr.Slice(ast.Span{}, base, lo, hi)

	env := dim.NewEnv()
	d := deduce.New(tr, info, env, nil)
	result, err := d.Deduce(slice)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.Bits(false, dim.NewConst(16))))

	res, ok := info.SliceResolution(slice, env.Hash())
	assert.True(t, ok)
	assert.Equal(t, uint64(16), res.Start)
	assert.Equal(t, uint64(16), res.Width)
}

func TestDeduceSliceEmptyRangeIsZeroWidth(t *testing.T) {
	// width = max(0, clamp(l) - clamp(s)): equal bounds are a legal
	// zero-width slice, not an error.
	tr := ast.NewTree()
	info := typeinfo.New()

	base := tr.Lit(ast.Span{}, "0")
	lo := tr.Lit(ast.Span{}, "8")
	hi := tr.Lit(ast.Span{}, "8")
	slice := tr.Slice(ast.Span{}, base, lo, hi)

	env := dim.NewEnv()
	d := deduce.New(tr, info, env, nil)
	result, err := d.Deduce(slice)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.Bits(false, dim.NewConst(0))))

	res, ok := info.SliceResolution(slice, env.Hash())
	assert.True(t, ok)
	assert.Equal(t, uint64(8), res.Start)
	assert.Equal(t, uint64(0), res.Width)
}

func TestDeduceLetAnnotationUnifiesWithRHS(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	foo := symbol.Intern("DeduceTestAnnotated")
	ann := tr.TypeAnnotation(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32")))
	let := tr.Let(ast.Span{}, tr.NameLeaf(ast.Span{}, foo), ann, tr.Lit(ast.Span{}, "7"), tr.VarRef(ast.Span{}, foo))

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(let)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.U32()))
}

func TestDeduceLetAnnotationMismatchErrors(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	foo := symbol.Intern("DeduceTestAnnotatedBad")
	ann := tr.TypeAnnotation(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "8")))
	let := tr.Let(ast.Span{}, tr.NameLeaf(ast.Span{}, foo), ann, tr.Lit(ast.Span{}, "7"), tr.VarRef(ast.Span{}, foo))

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(let)
	assert.Error(t, err)
}

func TestDeduceConstAssertFalseFails(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	assertNode := tr.ConstAssert(ast.Span{}, typedBits(tr, "0", 1), ast.InvalidNode)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(assertNode)
	assert.Error(t, err)
}

func TestDeduceConstAssertTruePasses(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	assertNode := tr.ConstAssert(ast.Span{}, typedBits(tr, "1", 1), ast.InvalidNode)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(assertNode)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.Token()))
}

func TestDeduceCastArrayBitsWidthMismatchErrors(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	base := tr.Lit(ast.Span{}, "0")
	// Cast to u16[4] = 64 bits total, mismatched against the 32-bit source.
	targetTypeExpr := tr.TypeArray(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "16")), tr.Lit(ast.Span{}, "4"))
	cast := tr.Cast(ast.Span{}, targetTypeExpr, base)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(cast)
	assert.Error(t, err)
}

func TestDeduceCastRejectsIllegalPairs(t *testing.T) {
	// Only bits<->bits, bits<->equal-width-enum, and bits-array<->bits are
	// legal; everything else is a type error.
	tr := ast.NewTree()
	info := typeinfo.New()

	// tuple -> bits
	tup := tr.TupleLit(ast.Span{}, []ast.NodeID{tr.Lit(ast.Span{}, "1"), tr.Lit(ast.Span{}, "2")})
	toBits := tr.Cast(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "64")), tup)
	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(toBits)
	assert.Error(t, err)

	// bits -> tuple
	toTuple := tr.Cast(ast.Span{}, tr.TypeTuple(ast.Span{}, []ast.NodeID{tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32"))}), tr.Lit(ast.Span{}, "1"))
	_, err = d.Deduce(toTuple)
	assert.Error(t, err)
}

func TestDeduceCastBitsEnumRequiresEqualWidth(t *testing.T) {
	tr := ast.NewTree()
	underlying := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "3"))
	enumName := symbol.Intern("DeduceCastColor")
	enumDef := tr.EnumDef(ast.Span{}, enumName, underlying, []ast.EnumMemberInit{
		{Name: symbol.Intern("DeduceCastRed"), Value: ast.InvalidNode},
	})

	good := tr.Cast(ast.Span{}, tr.TypeName(ast.Span{}, enumName, nil), typedBits(tr, "1", 3))
	bad := tr.Cast(ast.Span{}, tr.TypeName(ast.Span{}, enumName, nil), typedBits(tr, "1", 8))
	retGood := tr.TypeName(ast.Span{}, enumName, nil)
	fnGood := tr.FuncDef(ast.Span{}, symbol.Intern("DeduceCastGood"), nil, nil, retGood, tr.Block(ast.Span{}, nil, good))
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{enumDef, fnGood})
	tr.Root = mod

	modules, err := deduce.CheckProgram(
		map[string]*ast.Tree{"m": tr},
		map[string]ast.NodeID{"m": mod},
	)
	assert.NoError(t, err)

	// The width-mismatched cast errors when deduced in the same module.
	m := modules["m"]
	d := deduce.New(tr, m.Info(), dim.NewEnv(), m)
	_, err = d.Deduce(bad)
	assert.Error(t, err)
}

func TestDeduceMatchArmsShareType(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	scrut := tr.Lit(ast.Span{}, "1")
	arms := []ast.MatchArm{
		{Pattern: tr.Lit(ast.Span{}, "1"), Body: tr.Lit(ast.Span{}, "10")},
		{Pattern: tr.Wildcard(ast.Span{}), Body: tr.Lit(ast.Span{}, "20")},
	}
	match := tr.Match(ast.Span{}, scrut, arms)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(match)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.U32()))
}

func TestDeduceMatchArmTypeMismatchErrors(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	scrut := tr.Lit(ast.Span{}, "1")
	arms := []ast.MatchArm{
		{Pattern: tr.Lit(ast.Span{}, "1"), Body: tr.Lit(ast.Span{}, "10")},
		{Pattern: tr.Wildcard(ast.Span{}), Body: typedBits(tr, "0", 8)},
	}
	match := tr.Match(ast.Span{}, scrut, arms)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(match)
	assert.Error(t, err)
}

func TestDeduceMatchDuplicatePatternErrors(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	scrut := tr.Lit(ast.Span{}, "1")
	arms := []ast.MatchArm{
		{Pattern: tr.Lit(ast.Span{}, "1"), Body: tr.Lit(ast.Span{}, "10")},
		{Pattern: tr.Lit(ast.Span{}, "1"), Body: tr.Lit(ast.Span{}, "20")},
		{Pattern: tr.Wildcard(ast.Span{}), Body: tr.Lit(ast.Span{}, "30")},
	}
	match := tr.Match(ast.Span{}, scrut, arms)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(match)
	assert.Error(t, err)
}

func TestDeduceForCarriesInitType(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	iter := tr.ArrayLit(ast.Span{}, []ast.NodeID{
		tr.Lit(ast.Span{}, "1"), tr.Lit(ast.Span{}, "2"), tr.Lit(ast.Span{}, "3"),
	})
	init := tr.Lit(ast.Span{}, "0")
	x := symbol.Intern("DeduceForX")
	acc := symbol.Intern("DeduceForAcc")
	pattern := tr.TuplePattern(ast.Span{}, []ast.NodeID{tr.NameLeaf(ast.Span{}, x), tr.NameLeaf(ast.Span{}, acc)})
	body := tr.Binary(ast.Span{}, ast.OpAdd, tr.VarRef(ast.Span{}, x), tr.VarRef(ast.Span{}, acc))
	loop := tr.For(ast.Span{}, pattern, iter, init, body, false)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(loop)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.U32()))
}

func TestDeduceForBodyMustMatchInit(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	iter := tr.ArrayLit(ast.Span{}, []ast.NodeID{tr.Lit(ast.Span{}, "1")})
	init := tr.Lit(ast.Span{}, "0")
	pattern := tr.TuplePattern(ast.Span{}, []ast.NodeID{tr.Wildcard(ast.Span{}), tr.Wildcard(ast.Span{})})
	body := typedBits(tr, "0", 8) // u8 body against a u32 accumulator
	loop := tr.For(ast.Span{}, pattern, iter, init, body, false)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(loop)
	assert.Error(t, err)
}

func TestDeduceColonRefBuiltinMaxZero(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	max := tr.ColonRef(ast.Span{}, tr.VarRef(ast.Span{}, symbol.Intern("u8")), symbol.Intern("MAX"))
	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(max)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.Bits(false, dim.NewConst(8))))
	v, ok := info.ConstValue(max)
	assert.True(t, ok)
	assert.Equal(t, int64(255), v.Int64())

	zero := tr.ColonRef(ast.Span{}, tr.VarRef(ast.Span{}, symbol.Intern("s4")), symbol.Intern("ZERO"))
	result, err = d.Deduce(zero)
	assert.NoError(t, err)
	assert.True(t, types.Equal(result, types.Bits(true, dim.NewConst(4))))
}

func TestDeduceChannelDeclProducesDirectedPair(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	payload := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "8"))
	decl := tr.ChannelDecl(ast.Span{}, payload, []ast.NodeID{tr.Lit(ast.Span{}, "2")}, ast.InvalidNode)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(decl)
	assert.NoError(t, err)
	assert.Equal(t, types.TupleKind, result.Kind())
	out, in := result.Members()[0], result.Members()[1]
	assert.Equal(t, types.ArrayKind, out.Kind())
	assert.Equal(t, uint64(2), out.ArraySize().ConstValue())
	assert.Equal(t, types.DirOut, out.Elem().ChanDir())
	assert.Equal(t, types.DirIn, in.Elem().ChanDir())
}

func TestDeduceTupleIndexWithArraySyntaxErrors(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	tup := tr.TupleLit(ast.Span{}, []ast.NodeID{tr.Lit(ast.Span{}, "1"), tr.Lit(ast.Span{}, "2")})
	idx := tr.Index(ast.Span{}, tup, tr.Lit(ast.Span{}, "0"))

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	_, err := d.Deduce(idx)
	assert.Error(t, err)
}

func TestDeduceCastArrayBitsEqualWidthSucceeds(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()

	base := tr.Lit(ast.Span{}, "0")
	targetTypeExpr := tr.TypeArray(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "8")), tr.Lit(ast.Span{}, "4"))
	cast := tr.Cast(ast.Span{}, targetTypeExpr, base)

	d := deduce.New(tr, info, dim.NewEnv(), nil)
	result, err := d.Deduce(cast)
	assert.NoError(t, err)
	assert.Equal(t, types.ArrayKind, result.Kind())
}
