package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/bytecode"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
)

func TestEmitOnePlusOne(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()
	u32 := types.U32()

	lit1 := tr.Lit(ast.Span{}, "1")
	info.SetType(lit1, u32)
	foo := symbol.Intern("BytecodeTestFoo1")
	pattern := tr.NameLeaf(ast.Span{}, foo)
	varref := tr.VarRef(ast.Span{}, foo)
	lit2 := tr.Lit(ast.Span{}, "2")
	info.SetType(lit2, u32)
	add := tr.Binary(ast.Span{}, ast.OpAdd, varref, lit2)
	let := tr.Let(ast.Span{}, pattern, ast.InvalidNode, lit1, add)
	block := tr.Block(ast.Span{}, nil, let)
	tr.Root = block

	em := bytecode.NewEmitter(tr, info)
	prog, err := em.EmitFunctionBody(block)
	assert.NoError(t, err)
	assert.Len(t, prog.Instrs, 5)
	assert.Equal(t, bytecode.Literal, prog.Instrs[0].Op)
	assert.Equal(t, bytecode.Store, prog.Instrs[1].Op)
	assert.Equal(t, 0, prog.Instrs[1].Slot)
	assert.Equal(t, bytecode.Load, prog.Instrs[2].Op)
	assert.Equal(t, bytecode.Literal, prog.Instrs[3].Op)
	assert.Equal(t, bytecode.Add, prog.Instrs[4].Op)

	interp := bytecode.NewInterpreter(prog, nil)
	result, err := interp.Run()
	assert.NoError(t, err)
	assert.Equal(t, int64(3), result.Int64())
}

func TestEmitTernaryMatchesCanonicalText(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()
	u1 := types.U1()
	u32 := types.U32()

	cond := tr.Lit(ast.Span{}, "1")
	info.SetType(cond, u1)
	els := tr.Lit(ast.Span{}, "64")
	info.SetType(els, u32)
	then := tr.Lit(ast.Span{}, "42")
	info.SetType(then, u32)
	condExpr := tr.Cond(ast.Span{}, cond, then, els)
	block := tr.Block(ast.Span{}, nil, condExpr)
	tr.Root = block

	em := bytecode.NewEmitter(tr, info)
	prog, err := em.EmitFunctionBody(block)
	assert.NoError(t, err)

	expected := "000 literal u1:1\n" +
		"001 jump_rel_if +3\n" +
		"002 literal u32:64\n" +
		"003 jump_rel +3\n" +
		"004 jump_dest\n" +
		"005 literal u32:42\n" +
		"006 jump_dest\n"
	assert.Equal(t, expected, bytecode.Print(prog))

	interp := bytecode.NewInterpreter(prog, nil)
	result, err := interp.Run()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), result.Int64())
}

// TestCacheEmitsOncePerFunctionEnvPair pins the caching contract: bytecode is
// emitted lazily per function and cached by (function, parametric env).
func TestCacheEmitsOncePerFunctionEnvPair(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()
	lit := tr.Lit(ast.Span{}, "5")
	info.SetType(lit, types.U32())
	block := tr.Block(ast.Span{}, nil, lit)
	tr.Root = block

	cache := bytecode.NewCache()
	env := dim.NewEnv()
	emissions := 0
	emit := func() (*bytecode.Program, error) {
		emissions++
		return bytecode.NewEmitter(tr, info).EmitFunctionBody(block)
	}

	p1, err := cache.GetOrEmit(block, env, emit)
	assert.NoError(t, err)
	p2, err := cache.GetOrEmit(block, env, emit)
	assert.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, emissions)

	env.BindConcrete(symbol.Intern("BytecodeCacheN"), 8)
	_, err = cache.GetOrEmit(block, env, emit)
	assert.NoError(t, err)
	assert.Equal(t, 2, emissions)
}

func TestTextRoundTrip(t *testing.T) {
	tr := ast.NewTree()
	info := typeinfo.New()
	u32 := types.U32()
	lit1 := tr.Lit(ast.Span{}, "1")
	info.SetType(lit1, u32)
	lit2 := tr.Lit(ast.Span{}, "2")
	info.SetType(lit2, u32)
	add := tr.Binary(ast.Span{}, ast.OpAdd, lit1, lit2)
	block := tr.Block(ast.Span{}, nil, add)
	tr.Root = block

	em := bytecode.NewEmitter(tr, info)
	prog, err := em.EmitFunctionBody(block)
	assert.NoError(t, err)

	text := bytecode.Print(prog)
	reparsed, err := bytecode.Parse(text)
	assert.NoError(t, err)
	assert.Equal(t, text, bytecode.Print(reparsed))
}
