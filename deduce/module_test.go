package deduce_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/bytecode"
	"github.com/velalang/velac/deduce"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
)

// buildConstModule builds `pub const MY_CONST = u3:2;` as its own module.
func buildConstModule() (*ast.Tree, ast.NodeID) {
	tr := ast.NewTree()
	lit := tr.Lit(ast.Span{}, "2")
	typeExpr := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "3"))
	cast := tr.Cast(ast.Span{}, typeExpr, lit)
	constDef := tr.ConstDef(ast.Span{}, symbol.Intern("MY_CONST"), ast.InvalidNode, cast, true)
	mod := tr.Module(ast.Span{}, symbol.Intern("dep"), nil, []ast.NodeID{constDef})
	tr.Root = mod
	return tr, mod
}

// TestImportedConstantFoldsToLiteral checks that referencing an
// imported constant emits a single literal instruction, i.e. constant
// folding crosses the module boundary.
func TestImportedConstantFoldsToLiteral(t *testing.T) {
	depTree, depRoot := buildConstModule()

	tr := ast.NewTree()
	imp := tr.Import(ast.Span{}, "dep", symbol.Intern("dep"))
	base := tr.VarRef(ast.Span{}, symbol.Intern("dep"))
	ref := tr.ColonRef(ast.Span{}, base, symbol.Intern("MY_CONST"))
	body := tr.Block(ast.Span{}, nil, ref)
	ret := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "3"))
	fn := tr.FuncDef(ast.Span{}, symbol.Intern("use_const"), nil, nil, ret, body)
	mod := tr.Module(ast.Span{}, symbol.Intern("main"), []ast.NodeID{imp}, []ast.NodeID{fn})
	tr.Root = mod

	modules, err := deduce.CheckProgram(
		map[string]*ast.Tree{"dep": depTree, "main": tr},
		map[string]ast.NodeID{"dep": depRoot, "main": mod},
	)
	require.NoError(t, err)

	main := modules["main"]
	em := bytecode.NewEmitter(tr, main.Info())
	prog, err := em.EmitFunctionBody(body)
	require.NoError(t, err)
	require.Len(t, prog.Instrs, 1)
	assert.Equal(t, bytecode.Literal, prog.Instrs[0].Op)
	assert.Equal(t, int64(2), prog.Instrs[0].Value.Int64())
	assert.Equal(t, uint32(3), prog.Instrs[0].Value.Width())
}

// TestPrivateConstantNotVisibleAcrossImport rejects a colon-ref to a
// non-pub constant.
func TestPrivateConstantNotVisibleAcrossImport(t *testing.T) {
	depTree := ast.NewTree()
	lit := depTree.Lit(ast.Span{}, "1")
	constDef := depTree.ConstDef(ast.Span{}, symbol.Intern("HIDDEN"), ast.InvalidNode, lit, false)
	depRoot := depTree.Module(ast.Span{}, symbol.Intern("dep"), nil, []ast.NodeID{constDef})
	depTree.Root = depRoot

	tr := ast.NewTree()
	imp := tr.Import(ast.Span{}, "dep", symbol.Intern("dep"))
	ref := tr.ColonRef(ast.Span{}, tr.VarRef(ast.Span{}, symbol.Intern("dep")), symbol.Intern("HIDDEN"))
	body := tr.Block(ast.Span{}, nil, ref)
	ret := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32"))
	fn := tr.FuncDef(ast.Span{}, symbol.Intern("use_hidden"), nil, nil, ret, body)
	mod := tr.Module(ast.Span{}, symbol.Intern("main"), []ast.NodeID{imp}, []ast.NodeID{fn})
	tr.Root = mod

	_, err := deduce.CheckProgram(
		map[string]*ast.Tree{"dep": depTree, "main": tr},
		map[string]ast.NodeID{"dep": depRoot, "main": mod},
	)
	assert.Error(t, err)
}

// buildProc assembles a proc whose next carries a u32 state; the init body
// is the literal 0 (deduced u32), and withTerminator controls
// whether config declares the chan<bool> out terminator parameter.
func buildProc(tr *ast.Tree, name string, withTerminator bool) ast.NodeID {
	var configFormals []ast.NodeID
	if withTerminator {
		termTy := tr.TypeChannel(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "1")), false)
		configFormals = append(configFormals, tr.FormalArg(ast.Span{}, symbol.Intern(name+"Term"), termTy, ast.InvalidNode))
	}
	tokTy := tr.TypeName(ast.Span{}, symbol.Intern("token"), nil)
	tokFormal := tr.FormalArg(ast.Span{}, symbol.Intern(name+"Tok"), tokTy, ast.InvalidNode)
	stateTy := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32"))
	stateName := symbol.Intern(name + "State")
	stateFormal := tr.FormalArg(ast.Span{}, stateName, stateTy, ast.InvalidNode)

	configBody := tr.Block(ast.Span{}, nil, ast.InvalidNode)
	nextBody := tr.Block(ast.Span{}, nil, tr.VarRef(ast.Span{}, stateName))
	initBody := tr.Block(ast.Span{}, nil, tr.Lit(ast.Span{}, "0"))
	return tr.ProcDef(ast.Span{}, symbol.Intern(name), nil, configFormals,
		[]ast.NodeID{tokFormal, stateFormal}, configBody, nextBody, initBody)
}

func checkSingleModule(t *testing.T, tr *ast.Tree, root ast.NodeID) (map[string]*deduce.Module, error) {
	t.Helper()
	return deduce.CheckProgram(
		map[string]*ast.Tree{"m": tr},
		map[string]ast.NodeID{"m": root},
	)
}

func TestProcInitMustMatchNextStateType(t *testing.T) {
	tr := ast.NewTree()
	proc := buildProc(tr, "ModTestCounter", true)
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{proc})
	tr.Root = mod
	_, err := checkSingleModule(t, tr, mod)
	assert.NoError(t, err)
}

func TestProcInitStateMismatchErrors(t *testing.T) {
	tr := ast.NewTree()
	// Same shape as buildProc but init produces a u8, not the u32 state.
	tokTy := tr.TypeName(ast.Span{}, symbol.Intern("token"), nil)
	tokFormal := tr.FormalArg(ast.Span{}, symbol.Intern("MismatchTok"), tokTy, ast.InvalidNode)
	stateName := symbol.Intern("MismatchState")
	stateTy := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32"))
	stateFormal := tr.FormalArg(ast.Span{}, stateName, stateTy, ast.InvalidNode)
	configBody := tr.Block(ast.Span{}, nil, ast.InvalidNode)
	nextBody := tr.Block(ast.Span{}, nil, tr.VarRef(ast.Span{}, stateName))
	badInit := tr.Cast(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "8")), tr.Lit(ast.Span{}, "0"))
	initBody := tr.Block(ast.Span{}, nil, badInit)
	proc := tr.ProcDef(ast.Span{}, symbol.Intern("ModTestMismatch"), nil, nil,
		[]ast.NodeID{tokFormal, stateFormal}, configBody, nextBody, initBody)
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{proc})
	tr.Root = mod

	_, err := checkSingleModule(t, tr, mod)
	assert.Error(t, err)
}

// TestTestProcRequiresTerminatorChannel drives the test-proc rule: a
// test whose body spawns a proc requires that proc's config to declare
// exactly one outgoing chan<bool> terminator.
func TestTestProcRequiresTerminatorChannel(t *testing.T) {
	tr := ast.NewTree()
	proc := buildProc(tr, "ModTestNoTerm", false)
	spawn := tr.Spawn(ast.Span{}, tr.VarRef(ast.Span{}, symbol.Intern("ModTestNoTerm")), nil)
	test := tr.TestDef(ast.Span{}, symbol.Intern("ModTestSpawnTest"), spawn)
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{proc, test})
	tr.Root = mod

	_, err := checkSingleModule(t, tr, mod)
	assert.Error(t, err)
}

func TestTestProcWithTerminatorPasses(t *testing.T) {
	tr := ast.NewTree()
	proc := buildProc(tr, "ModTestWithTerm", true)

	// let (tx, _) = chan<u1>; spawn proc(tx)
	chanDecl := tr.ChannelDecl(ast.Span{}, tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "1")), nil, ast.InvalidNode)
	tx := symbol.Intern("ModTestTx")
	pattern := tr.TuplePattern(ast.Span{}, []ast.NodeID{tr.NameLeaf(ast.Span{}, tx), tr.Wildcard(ast.Span{})})
	spawn := tr.Spawn(ast.Span{}, tr.VarRef(ast.Span{}, symbol.Intern("ModTestWithTerm")), []ast.NodeID{tr.VarRef(ast.Span{}, tx)})
	let := tr.Let(ast.Span{}, pattern, ast.InvalidNode, chanDecl, spawn)
	test := tr.TestDef(ast.Span{}, symbol.Intern("ModTestSpawnOk"), tr.Block(ast.Span{}, nil, let))
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{proc, test})
	tr.Root = mod

	_, err := checkSingleModule(t, tr, mod)
	assert.NoError(t, err)
}

// TestParametricStructDefaultConcretizes instantiates
// `struct Buf<N: u32, M: u32 = 16> { data: uN[N], pad: uN[M] }` as
// `Buf<8>`: N comes from the explicit argument and M falls back to its
// default expression.
func TestParametricStructDefaultConcretizes(t *testing.T) {
	tr := ast.NewTree()
	buf := symbol.Intern("ModTestBuf")
	n := symbol.Intern("ModTestBufN")
	mSym := symbol.Intern("ModTestBufM")
	data := symbol.Intern("ModTestBufData")
	pad := symbol.Intern("ModTestBufPad")

	u32Ty := func() ast.NodeID { return tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32")) }
	parametrics := []ast.NodeID{
		tr.FormalArg(ast.Span{}, n, u32Ty(), ast.InvalidNode),
		tr.FormalArg(ast.Span{}, mSym, u32Ty(), tr.Lit(ast.Span{}, "16")),
	}
	members := []ast.NodeID{
		tr.FormalArg(ast.Span{}, data, tr.TypeBits(ast.Span{}, false, tr.VarRef(ast.Span{}, n)), ast.InvalidNode),
		tr.FormalArg(ast.Span{}, pad, tr.TypeBits(ast.Span{}, false, tr.VarRef(ast.Span{}, mSym)), ast.InvalidNode),
	}
	sd := tr.StructDef(ast.Span{}, buf, parametrics, members)
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{sd})
	tr.Root = mod

	modules, err := checkSingleModule(t, tr, mod)
	require.NoError(t, err)

	m := modules["m"]
	d := deduce.New(tr, m.Info(), dim.NewEnv(), m)
	concrete, err := d.ResolveTypeExpr(tr.TypeName(ast.Span{}, buf, []ast.NodeID{tr.Lit(ast.Span{}, "8")}))
	require.NoError(t, err)

	dataType, ok := concrete.MemberType(data)
	require.True(t, ok)
	assert.Equal(t, uint64(8), dataType.Size().ConstValue())
	padType, ok := concrete.MemberType(pad)
	require.True(t, ok)
	assert.Equal(t, uint64(16), padType.Size().ConstValue())
}

func TestQuickcheckBodyMustBeU1(t *testing.T) {
	tr := ast.NewTree()
	body := tr.Block(ast.Span{}, nil, tr.Lit(ast.Span{}, "1")) // u32, not u1
	qc := tr.QuickcheckDef(ast.Span{}, symbol.Intern("ModTestQc"), nil, body)
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{qc})
	tr.Root = mod

	_, err := checkSingleModule(t, tr, mod)
	assert.Error(t, err)
}

// TestUselessLetWarns flags `let _ = e;` as a redundant form without
// failing the check.
func TestUselessLetWarns(t *testing.T) {
	tr := ast.NewTree()
	let := tr.Let(ast.Span{}, tr.Wildcard(ast.Span{}), ast.InvalidNode, tr.Lit(ast.Span{}, "1"), tr.Lit(ast.Span{}, "2"))
	body := tr.Block(ast.Span{}, nil, let)
	ret := tr.TypeBits(ast.Span{}, false, tr.Lit(ast.Span{}, "32"))
	fn := tr.FuncDef(ast.Span{}, symbol.Intern("ModTestWarnFn"), nil, nil, ret, body)
	mod := tr.Module(ast.Span{}, symbol.Intern("m"), nil, []ast.NodeID{fn})
	tr.Root = mod

	modules, err := checkSingleModule(t, tr, mod)
	require.NoError(t, err)
	warnings := modules["m"].Warnings()
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Message, "redundant")
}
