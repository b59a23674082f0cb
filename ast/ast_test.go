package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/symbol"
)

func TestArenaIdentityStable(t *testing.T) {
	tr := ast.NewTree()
	a := tr.Lit(ast.Span{}, "1")
	b := tr.Lit(ast.Span{}, "2")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "1", tr.Node(a).Text)
	assert.Equal(t, "2", tr.Node(b).Text)
}

func TestParentPointersComputedOnce(t *testing.T) {
	tr := ast.NewTree()
	lhs := tr.Lit(ast.Span{}, "1")
	rhs := tr.Lit(ast.Span{}, "2")
	add := tr.Binary(ast.Span{}, ast.OpAdd, lhs, rhs)
	tr.Root = add
	assert.Equal(t, ast.InvalidNode, tr.Parent(lhs))

	tr.ComputeParents()
	assert.Equal(t, add, tr.Parent(lhs))
	assert.Equal(t, add, tr.Parent(rhs))
	assert.Equal(t, ast.InvalidNode, tr.Parent(add))
}

func TestBlockChildrenIncludeStatementsAndResult(t *testing.T) {
	tr := ast.NewTree()
	s1 := tr.Lit(ast.Span{}, "1")
	s2 := tr.Lit(ast.Span{}, "2")
	result := tr.Lit(ast.Span{}, "3")
	block := tr.Block(ast.Span{}, []ast.NodeID{s1, s2}, result)
	tr.Root = block
	tr.ComputeParents()
	assert.Equal(t, block, tr.Parent(s1))
	assert.Equal(t, block, tr.Parent(result))
}

func TestFuncDefPartsSplitsParametricsFromFormals(t *testing.T) {
	tr := ast.NewTree()
	n := symbol.Intern("AstTestN")
	width := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32"))
	param := tr.FormalArg(ast.Span{}, n, width, ast.InvalidNode)
	a := symbol.Intern("AstTestA")
	argTy := tr.TypeName(ast.Span{}, symbol.Intern("AstTestU8"), nil)
	arg := tr.FormalArg(ast.Span{}, a, argTy, ast.InvalidNode)
	body := tr.Block(ast.Span{}, nil, tr.Lit(ast.Span{}, "0"))
	ret := tr.TypeName(ast.Span{}, symbol.Intern("AstTestU1"), nil)
	fn := tr.FuncDef(ast.Span{}, symbol.Intern("AstTestFunc"), []ast.NodeID{param}, []ast.NodeID{arg}, ret, body)

	parametrics, formals := tr.FuncDefParts(fn)
	assert.Equal(t, []ast.NodeID{param}, parametrics)
	assert.Equal(t, []ast.NodeID{arg}, formals)
	assert.Equal(t, ret, tr.FuncDefReturn(fn))
	assert.Equal(t, body, tr.FuncDefBody(fn))
}

func TestProcDefPartsSplitsConfigFromNextFormals(t *testing.T) {
	tr := ast.NewTree()
	cfgName := symbol.Intern("AstTestCfg")
	cfgTy := tr.TypeName(ast.Span{}, symbol.Intern("AstTestU8"), nil)
	cfgFormal := tr.FormalArg(ast.Span{}, cfgName, cfgTy, ast.InvalidNode)

	tokName := symbol.Intern("AstTestTok")
	tokTy := tr.TypeName(ast.Span{}, symbol.Intern("token"), nil)
	tokFormal := tr.FormalArg(ast.Span{}, tokName, tokTy, ast.InvalidNode)
	stateName := symbol.Intern("AstTestState")
	stateTy := tr.TypeName(ast.Span{}, symbol.Intern("AstTestU8"), nil)
	stateFormal := tr.FormalArg(ast.Span{}, stateName, stateTy, ast.InvalidNode)

	configBody := tr.TupleLit(ast.Span{}, nil)
	nextBody := tr.VarRef(ast.Span{}, stateName)
	initBody := tr.Lit(ast.Span{}, "0")

	proc := tr.ProcDef(ast.Span{}, symbol.Intern("AstTestProc"),
		nil, []ast.NodeID{cfgFormal}, []ast.NodeID{tokFormal, stateFormal},
		configBody, nextBody, initBody)

	parametrics, configFormals, nextFormals := tr.ProcDefParts(proc)
	assert.Empty(t, parametrics)
	assert.Equal(t, []ast.NodeID{cfgFormal}, configFormals)
	assert.Equal(t, []ast.NodeID{tokFormal, stateFormal}, nextFormals)
	assert.Equal(t, configBody, tr.ProcDefConfigBody(proc))
	assert.Equal(t, nextBody, tr.ProcDefNextBody(proc))
	assert.Equal(t, initBody, tr.ProcDefInitBody(proc))
}

func TestModulePartsSplitsImportsFromDecls(t *testing.T) {
	tr := ast.NewTree()
	imp := tr.Import(ast.Span{}, "other", symbol.Invalid)
	decl := tr.TestDef(ast.Span{}, symbol.Intern("AstTestCase"), tr.Block(ast.Span{}, nil, ast.InvalidNode))
	mod := tr.Module(ast.Span{}, symbol.Intern("AstTestModule"), []ast.NodeID{imp}, []ast.NodeID{decl})

	imports, decls := tr.ModuleParts(mod)
	assert.Equal(t, []ast.NodeID{imp}, imports)
	assert.Equal(t, []ast.NodeID{decl}, decls)
}
