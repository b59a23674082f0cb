package deduce

import (
	"math/big"
	"runtime/debug"

	"github.com/grailbio/base/errors"
	"v.io/x/lib/toposort"

	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/constexpr"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// funcDecl is everything the module typechecker keeps about one function
// declaration between the signature pass and, for non-parametric
// declarations, the body-deduction pass.
type funcDecl struct {
	node         ast.NodeID
	formals      []types.FormalParametric
	defaultExprs []ast.NodeID // parallel to formals; InvalidNode when no default
	paramNames   []symbol.ID
	declaredType *types.Type // Function type, symbolic Dims left free for parametrics
	isParametric bool
	bodyDeduced  bool
}

// procDecl is the signature record of a proc's config/next/init triad.
// The carried-state type is the type of next's trailing formal.
type procDecl struct {
	node             ast.NodeID
	formals          []types.FormalParametric
	defaultExprs     []ast.NodeID
	configParamNames []symbol.ID
	configParams     []*types.Type
	nextParamNames   []symbol.ID
	nextParams       []*types.Type
	isParametric     bool
	stateType        *types.Type
}

// constDecl is one module-level constant: its deduced type, its evaluated
// value, and whether it is visible through imports.
type constDecl struct {
	node   ast.NodeID
	typ    *types.Type
	val    value.Value
	public bool
}

// Module is one typechecked compilation unit: the struct/enum/
// alias/const/function/proc declarations it defines, plus the imported
// modules it was checked against.
type Module struct {
	tree *ast.Tree
	node ast.NodeID
	info *typeinfo.Info

	structs map[symbol.ID]*types.Type
	// structDefaults carries each struct's parametric default expressions,
	// parallel to its Parametrics(), the same shape funcDecl/procDecl use.
	structDefaults map[symbol.ID][]ast.NodeID
	enums          map[symbol.ID]*types.Type
	enumMembers map[symbol.ID]map[symbol.ID]value.Value
	aliases     map[symbol.ID]ast.NodeID
	consts      map[symbol.ID]*constDecl
	functions   map[symbol.ID]*funcDecl
	procs       map[symbol.ID]*procDecl
	imports     map[symbol.ID]*Module

	warnings []diag.Warning
}

// NewModule creates an (unchecked) module wrapper over tree's ModuleDecl
// node, recording its own TypeInfo.
func NewModule(tree *ast.Tree, node ast.NodeID) *Module {
	return &Module{
		tree:        tree,
		node:        node,
		info:        typeinfo.New(),
		structs:        make(map[symbol.ID]*types.Type),
		structDefaults: make(map[symbol.ID][]ast.NodeID),
		enums:          make(map[symbol.ID]*types.Type),
		enumMembers: make(map[symbol.ID]map[symbol.ID]value.Value),
		aliases:     make(map[symbol.ID]ast.NodeID),
		consts:      make(map[symbol.ID]*constDecl),
		functions:   make(map[symbol.ID]*funcDecl),
		procs:       make(map[symbol.ID]*procDecl),
		imports:     make(map[symbol.ID]*Module),
	}
}

// Info returns the module's root TypeInfo table.
func (m *Module) Info() *typeinfo.Info { return m.info }

// Warnings returns the non-fatal diagnostics accumulated while checking
// this module.
func (m *Module) Warnings() []diag.Warning { return m.warnings }

// CheckProgram typechecks a set of modules keyed by import path, resolving
// cross-module imports in dependency order, sorted with toposort over
// module-imports-module edges.
func CheckProgram(trees map[string]*ast.Tree, roots map[string]ast.NodeID) (map[string]*Module, error) {
	var sorter toposort.Sorter
	seen := make(map[string]bool)
	for path, root := range roots {
		imports, _ := trees[path].ModuleParts(root)
		if len(imports) == 0 {
			sorter.AddNode(path)
		}
		for _, imp := range imports {
			impNode := trees[path].Node(imp)
			sorter.AddEdge(impNode.Text, path)
		}
		seen[path] = true
	}
	order, _ := sorter.Sort()

	modules := make(map[string]*Module, len(roots))
	for _, o := range order {
		path, ok := o.(string)
		if !ok || !seen[path] {
			continue
		}
		tree := trees[path]
		m := NewModule(tree, roots[path])
		if err := recoverCheck(m, modules); err != nil {
			return nil, err
		}
		modules[path] = m
	}
	return modules, nil
}

// recoverCheck runs m.check, turning any panic into an InternalError rather
// than letting it unwind past CheckProgram, keeping panic-to-error
// conversion at the one place the typechecker needs it: an unreachable
// switch arm or a nil dereference in a deduction rule should surface as a
// diagnosable compiler error, not crash the caller.
func recoverCheck(m *Module, checked map[string]*Module) (err error) {
	defer func() {
		if e := recover(); e != nil {
			wrapped := errors.E("panic %v: %v", e, string(debug.Stack()))
			err = &diag.InternalError{Message: wrapped.Error()}
		}
	}()
	return m.check(checked)
}

// check runs the module typechecker: imports are wired first (already
// checked, by CheckProgram's ordering), then type and constant
// declarations in source order, then function/proc signatures, then
// non-parametric bodies in source order.
func (m *Module) check(checked map[string]*Module) error {
	imports, decls := m.tree.ModuleParts(m.node)
	for _, imp := range imports {
		n := m.tree.Node(imp)
		dep, ok := checked[n.Text]
		if !ok {
			return &diag.InternalError{Span: n.Span, Message: "import " + n.Text + " was not checked before its dependent"}
		}
		alias := n.Name
		if alias == symbol.Invalid {
			alias = symbol.Intern(n.Text)
		}
		m.imports[alias] = dep
	}

	for _, d := range decls {
		n := m.tree.Node(d)
		switch n.Kind {
		case ast.StructDefDecl:
			if err := m.declareStruct(d); err != nil {
				return err
			}
		case ast.EnumDefDecl:
			if err := m.declareEnum(d); err != nil {
				return err
			}
		case ast.AliasDefDecl:
			m.aliases[n.Name] = d
		case ast.ConstDefDecl:
			if err := m.declareConst(d); err != nil {
				return err
			}
		}
	}

	for _, d := range decls {
		n := m.tree.Node(d)
		switch n.Kind {
		case ast.FuncDefDecl:
			if err := m.declareFunctionSignature(d); err != nil {
				return err
			}
		case ast.ProcDefDecl:
			if err := m.declareProcSignature(d); err != nil {
				return err
			}
		}
	}

	for _, d := range decls {
		n := m.tree.Node(d)
		switch n.Kind {
		case ast.FuncDefDecl:
			fd := m.functions[n.Name]
			if fd.isParametric {
				continue // body deduction deferred to each call site
			}
			if err := m.checkFunctionBody(fd); err != nil {
				return m.explain(err, "while checking function "+n.Name.Str())
			}
		case ast.ProcDefDecl:
			pd := m.procs[n.Name]
			if pd.isParametric {
				continue
			}
			if err := m.checkProcBodies(pd); err != nil {
				return m.explain(err, "while checking proc "+n.Name.Str())
			}
		case ast.TestDefDecl:
			if err := m.checkTest(d, n); err != nil {
				return m.explain(err, "while checking test "+n.Name.Str())
			}
		case ast.QuickcheckDefDecl:
			if err := m.checkQuickcheck(d, n); err != nil {
				return m.explain(err, "while checking quickcheck "+n.Name.Str())
			}
		}
	}
	return nil
}

// explain enriches a type-mismatch error with a context sentence before it
// surfaces from the module typechecker.
func (m *Module) explain(err error, context string) error {
	if tm, ok := err.(*diag.TypeMismatchError); ok && tm.Explain == "" {
		return tm.WithExplain("%s", context)
	}
	return err
}

func (m *Module) declareStruct(node ast.NodeID) error {
	n := m.tree.Node(node)
	parametricNodes, memberNodes := m.tree.StructDefParts(node)

	env := dim.NewEnv()
	env.PushFrame()
	formals := make([]types.FormalParametric, len(parametricNodes))
	defaultExprs := make([]ast.NodeID, len(parametricNodes))
	for i, p := range parametricNodes {
		pn := m.tree.Node(p)
		d := New(m.tree, m.info, env, m)
		pt, err := d.ResolveTypeExpr(pn.A)
		if err != nil {
			return err
		}
		formals[i] = types.FormalParametric{Name: pn.Name, Type: pt, HasDefault: pn.B != ast.InvalidNode}
		defaultExprs[i] = pn.B
		env.BindSymbolic(pn.Name, dim.NewSymbol(pn.Name, pn.Span))
	}

	members := make([]types.StructMember, len(memberNodes))
	d := New(m.tree, m.info, env, m)
	for i, mn := range memberNodes {
		fn := m.tree.Node(mn)
		mt, err := d.ResolveTypeExpr(fn.A)
		if err != nil {
			return err
		}
		members[i] = types.StructMember{Name: fn.Name, Type: mt}
	}

	m.structs[n.Name] = types.Struct(n.Name, members, formals)
	m.structDefaults[n.Name] = defaultExprs
	return nil
}

// declareEnum resolves an enum's underlying type and assigns every member
// its value: an explicit initializer is constexpr-evaluated, an elided one
// continues from the previous member (an elided first member is zero).
func (m *Module) declareEnum(node ast.NodeID) error {
	n := m.tree.Node(node)
	d := New(m.tree, m.info, dim.NewEnv(), m)
	underlying, err := d.ResolveTypeExpr(n.A)
	if err != nil {
		return err
	}
	if underlying.Kind() != types.BitsKind {
		return &diag.TypeInferenceError{Span: n.Span, Message: "enum underlying type must be bits"}
	}
	et := types.Enum(n.Name, underlying)
	m.enums[n.Name] = et

	width := uint32(0)
	if underlying.Size().IsConst() {
		width = uint32(underlying.Size().ConstValue())
	}
	members := make(map[symbol.ID]value.Value, len(n.Members))
	next := int64(0)
	for _, mem := range n.Members {
		if mem.Value != ast.InvalidNode {
			if _, err := d.Deduce(mem.Value); err != nil {
				return err
			}
			v, err := constexpr.Eval(m.tree, m.info, mem.Value, dim.NewEnv(), constexpr.NewGuard())
			if err != nil {
				return &diag.ConstexprError{Span: n.Span, Message: "enum member " + mem.Name.Str() + " initializer must be constexpr: " + err.Error()}
			}
			next = v.Int64()
		}
		members[mem.Name] = value.NewEnum(n.Name.Str(), width, big.NewInt(next))
		next++
	}
	m.enumMembers[n.Name] = members
	return nil
}

// declareConst deduces and constexpr-evaluates a module-level constant in
// declaration position, so later declarations (and importing
// modules) see a folded value rather than an expression.
func (m *Module) declareConst(node ast.NodeID) error {
	n := m.tree.Node(node)
	d := New(m.tree, m.info, dim.NewEnv(), m)
	valType, err := d.Deduce(n.A)
	if err != nil {
		return err
	}
	if n.B != ast.InvalidNode {
		annot, err := d.ResolveTypeExpr(n.B)
		if err != nil {
			return err
		}
		if !types.Equal(valType, annot) {
			return (&diag.TypeMismatchError{Span: n.Span, Want: annot, Got: valType}).WithExplain("constant " + n.Name.Str())
		}
	}
	v, err := constexpr.Eval(m.tree, m.info, n.A, dim.NewEnv(), constexpr.NewGuard())
	if err != nil {
		return &diag.ConstexprError{Span: n.Span, Message: "constant " + n.Name.Str() + " must be constexpr: " + err.Error()}
	}
	m.consts[n.Name] = &constDecl{node: node, typ: valType, val: v, public: n.Bool}
	m.warnConstNaming(n)
	return nil
}

// warnConstNaming flags a constant whose name is not SCREAMING_SNAKE_CASE.
func (m *Module) warnConstNaming(n *ast.Node) {
	for _, r := range n.Name.Str() {
		if r >= 'a' && r <= 'z' {
			m.warnings = append(m.warnings, diag.Warning{Span: n.Span, Message: "constant " + n.Name.Str() + " should be upper-snake-case"})
			return
		}
	}
}

// declareFunctionSignature resolves a function's declared type without
// deducing its body. Parametric symbols are bound symbolically to
// themselves while resolving parameter/return type expressions, so the
// resulting Function type carries free Dim symbols a call site can later
// unify against.
func (m *Module) declareFunctionSignature(node ast.NodeID) error {
	n := m.tree.Node(node)
	parametricNodes, formalNodes := m.tree.FuncDefParts(node)

	env := dim.NewEnv()
	env.PushFrame()
	formals := make([]types.FormalParametric, len(parametricNodes))
	defaultExprs := make([]ast.NodeID, len(parametricNodes))
	for i, p := range parametricNodes {
		pn := m.tree.Node(p)
		d := New(m.tree, m.info, env, m)
		pt, err := d.ResolveTypeExpr(pn.A)
		if err != nil {
			return err
		}
		formals[i] = types.FormalParametric{Name: pn.Name, Type: pt, HasDefault: pn.B != ast.InvalidNode}
		defaultExprs[i] = pn.B
		env.BindSymbolic(pn.Name, dim.NewSymbol(pn.Name, pn.Span))
	}

	d := New(m.tree, m.info, env, m)
	paramTypes := make([]*types.Type, len(formalNodes))
	paramNames := make([]symbol.ID, len(formalNodes))
	for i, f := range formalNodes {
		fn := m.tree.Node(f)
		pt, err := d.ResolveTypeExpr(fn.A)
		if err != nil {
			return err
		}
		paramTypes[i] = pt
		paramNames[i] = fn.Name
	}
	retExpr := m.tree.FuncDefReturn(node)
	var retType *types.Type
	if retExpr == ast.InvalidNode {
		retType = types.Token()
	} else {
		rt, err := d.ResolveTypeExpr(retExpr)
		if err != nil {
			return err
		}
		retType = rt
	}

	m.functions[n.Name] = &funcDecl{
		node:         node,
		formals:      formals,
		defaultExprs: defaultExprs,
		paramNames:   paramNames,
		declaredType: types.Function(paramTypes, retType, formals),
		isParametric: len(formals) > 0,
	}
	return nil
}

// declareProcSignature resolves a proc's parametrics and the formal types
// of its config and next functions. The carried state is the type of
// next's trailing formal; init's return must equal it, checked when the
// bodies run.
func (m *Module) declareProcSignature(node ast.NodeID) error {
	n := m.tree.Node(node)
	parametricNodes, configNodes, nextNodes := m.tree.ProcDefParts(node)

	env := dim.NewEnv()
	env.PushFrame()
	formals := make([]types.FormalParametric, len(parametricNodes))
	defaultExprs := make([]ast.NodeID, len(parametricNodes))
	for i, p := range parametricNodes {
		pn := m.tree.Node(p)
		d := New(m.tree, m.info, env, m)
		pt, err := d.ResolveTypeExpr(pn.A)
		if err != nil {
			return err
		}
		formals[i] = types.FormalParametric{Name: pn.Name, Type: pt, HasDefault: pn.B != ast.InvalidNode}
		defaultExprs[i] = pn.B
		env.BindSymbolic(pn.Name, dim.NewSymbol(pn.Name, pn.Span))
	}

	d := New(m.tree, m.info, env, m)
	resolveFormals := func(nodes []ast.NodeID) ([]symbol.ID, []*types.Type, error) {
		names := make([]symbol.ID, len(nodes))
		typs := make([]*types.Type, len(nodes))
		for i, f := range nodes {
			fn := m.tree.Node(f)
			ft, err := d.ResolveTypeExpr(fn.A)
			if err != nil {
				return nil, nil, err
			}
			names[i] = fn.Name
			typs[i] = ft
		}
		return names, typs, nil
	}
	configNames, configTypes, err := resolveFormals(configNodes)
	if err != nil {
		return err
	}
	nextNames, nextTypes, err := resolveFormals(nextNodes)
	if err != nil {
		return err
	}
	if len(nextTypes) == 0 {
		return &diag.ArgumentError{Span: n.Span, Message: "proc " + n.Name.Str() + " next must take at least a state parameter"}
	}

	m.procs[n.Name] = &procDecl{
		node:             node,
		formals:          formals,
		defaultExprs:     defaultExprs,
		configParamNames: configNames,
		configParams:     configTypes,
		nextParamNames:   nextNames,
		nextParams:       nextTypes,
		isParametric:     len(formals) > 0,
		stateType:        nextTypes[len(nextTypes)-1],
	}
	return nil
}

func (m *Module) checkFunctionBody(fd *funcDecl) error {
	d := New(m.tree, m.info, dim.NewEnv(), m)
	for i, name := range fd.paramNames {
		d.BindParam(name, fd.declaredType.Params()[i])
	}
	body := m.tree.FuncDefBody(fd.node)
	bodyType, err := d.Deduce(body)
	m.warnings = append(m.warnings, d.Warnings()...)
	if err != nil {
		return err
	}
	if !types.Equal(bodyType, fd.declaredType.Return()) {
		n := m.tree.Node(fd.node)
		return (&diag.TypeMismatchError{Span: n.Span, Want: fd.declaredType.Return(), Got: bodyType}).WithExplain("declared return type of " + n.Name.Str())
	}
	fd.bodyDeduced = true
	return nil
}

// checkProcBodies deduces a proc's config, init, and next bodies, in that
// order: init is instantiated before next so its return type can be
// required to equal next's state parameter type.
func (m *Module) checkProcBodies(pd *procDecl) error {
	n := m.tree.Node(pd.node)

	configBody := m.tree.ProcDefConfigBody(pd.node)
	if configBody != ast.InvalidNode {
		d := New(m.tree, m.info, dim.NewEnv(), m)
		for i, name := range pd.configParamNames {
			d.BindParam(name, pd.configParams[i])
		}
		if _, err := d.Deduce(configBody); err != nil {
			return err
		}
		m.warnings = append(m.warnings, d.Warnings()...)
	}

	initBody := m.tree.ProcDefInitBody(pd.node)
	var initType *types.Type
	if initBody != ast.InvalidNode {
		d := New(m.tree, m.info, dim.NewEnv(), m)
		it, err := d.Deduce(initBody)
		if err != nil {
			return err
		}
		m.warnings = append(m.warnings, d.Warnings()...)
		initType = it
		if !types.Equal(initType, pd.stateType) {
			return (&diag.TypeMismatchError{Span: n.Span, Want: pd.stateType, Got: initType}).WithExplain("init return type must equal next's state parameter type")
		}
	}

	nextBody := m.tree.ProcDefNextBody(pd.node)
	if nextBody != ast.InvalidNode {
		d := New(m.tree, m.info, dim.NewEnv(), m)
		for i, name := range pd.nextParamNames {
			d.BindParam(name, pd.nextParams[i])
		}
		nextType, err := d.Deduce(nextBody)
		if err != nil {
			return err
		}
		m.warnings = append(m.warnings, d.Warnings()...)
		if !types.Equal(nextType, pd.stateType) {
			return (&diag.TypeMismatchError{Span: n.Span, Want: pd.stateType, Got: nextType}).WithExplain("next must produce the carried state type")
		}
	}
	return nil
}

// checkTest deduces a test body. A test whose body spawns a proc is a test
// proc: the spawned proc cannot be parametric and its config must declare
// exactly one outgoing chan<bool> terminator parameter.
func (m *Module) checkTest(node ast.NodeID, n *ast.Node) error {
	if err := m.checkTestProcRules(n.A); err != nil {
		return err
	}
	d := New(m.tree, m.info, dim.NewEnv(), m)
	_, err := d.Deduce(n.A)
	m.warnings = append(m.warnings, d.Warnings()...)
	return err
}

func (m *Module) checkTestProcRules(body ast.NodeID) error {
	if body == ast.InvalidNode {
		return nil
	}
	bn := m.tree.Node(body)
	if bn.Kind == ast.BlockExpr {
		return m.checkTestProcRules(bn.A)
	}
	if bn.Kind == ast.LetExpr {
		return m.checkTestProcRules(bn.C)
	}
	if bn.Kind != ast.SpawnExpr {
		return nil
	}
	calleeNode := m.tree.Node(bn.A)
	pd, ok := m.procs[calleeNode.Name]
	if !ok {
		return nil // spawn deduction will report the unknown proc
	}
	if pd.isParametric {
		return &diag.ArgumentError{Span: bn.Span, Message: "test proc " + calleeNode.Name.Str() + " cannot be parametric"}
	}
	terminators := 0
	for _, pt := range pd.configParams {
		if pt.Kind() == types.ChannelKind && pt.ChanDir() == types.DirOut &&
			types.Equal(pt.Payload(), types.U1()) {
			terminators++
		}
	}
	if terminators != 1 {
		return &diag.ArgumentError{Span: bn.Span, Message: "test proc config must have exactly one outgoing chan<bool> terminator parameter"}
	}
	return nil
}

// checkQuickcheck implements the quickcheck rule: the body must
// deduce to u1.
func (m *Module) checkQuickcheck(node ast.NodeID, n *ast.Node) error {
	d := New(m.tree, m.info, dim.NewEnv(), m)
	bodyType, err := d.Deduce(n.A)
	m.warnings = append(m.warnings, d.Warnings()...)
	if err != nil {
		return err
	}
	if !types.Equal(bodyType, types.U1()) {
		return &diag.TypeMismatchError{Span: n.Span, Want: types.U1(), Got: bodyType, Explain: "quickcheck body"}
	}
	return nil
}

// LookupSignature resolves a bare name reference to a function's type, for
// a VarRef used in value position (e.g. passed as a callback).
func (m *Module) LookupSignature(name symbol.ID) (*types.Type, bool) {
	if fd, ok := m.functions[name]; ok {
		return fd.declaredType, true
	}
	return nil, false
}

// LookupConst resolves a module-level constant to its type and folded
// value. publicOnly restricts the lookup to `pub` constants, for
// cross-module colon-ref access.
func (m *Module) LookupConst(name symbol.ID, publicOnly bool) (*types.Type, value.Value, bool) {
	cd, ok := m.consts[name]
	if !ok || (publicOnly && !cd.public) {
		return nil, value.Value{}, false
	}
	return cd.typ, cd.val, true
}

// LookupEnumMember resolves EnumName::Member to the enum type and the
// member's value.
func (m *Module) LookupEnumMember(enumName, member symbol.ID) (*types.Type, value.Value, bool) {
	members, ok := m.enumMembers[enumName]
	if !ok {
		return nil, value.Value{}, false
	}
	v, ok := members[member]
	if !ok {
		return nil, value.Value{}, false
	}
	return m.enums[enumName], v, true
}

// ImportedModule resolves an import alias.
func (m *Module) ImportedModule(alias symbol.ID) (*Module, bool) {
	dep, ok := m.imports[alias]
	return dep, ok
}

// LookupProc resolves a spawn target.
func (m *Module) LookupProc(name symbol.ID) (*procDecl, bool) {
	pd, ok := m.procs[name]
	return pd, ok
}

// LookupStruct resolves a struct name to its (non-parametric, or
// default-shaped) Struct type.
func (m *Module) LookupStruct(name symbol.ID) (*types.Type, bool) {
	t, ok := m.structs[name]
	return t, ok
}

// LookupCallable resolves a call target to its declared type, parametric
// formals, and parametric-ness.
func (m *Module) LookupCallable(name symbol.ID) (calleeType *types.Type, formals []types.FormalParametric, isParametric bool, ok bool) {
	fd, ok := m.functions[name]
	if !ok {
		return nil, nil, false, false
	}
	return fd.declaredType, fd.formals, fd.isParametric, true
}

// EvalParametricDefault evaluates the default expression of the paramIndex
// parametric of calleeName under env, which already holds every
// explicitly-supplied or previously-defaulted binding.
func (m *Module) EvalParametricDefault(calleeName string, paramIndex int, env *dim.Env) (*dim.Dim, error) {
	name := symbol.Intern(calleeName)
	var defaults []ast.NodeID
	if fd, ok := m.functions[name]; ok {
		defaults = fd.defaultExprs
	} else if pd, ok := m.procs[name]; ok {
		defaults = pd.defaultExprs
	} else if sd, ok := m.structDefaults[name]; ok {
		defaults = sd
	}
	if paramIndex >= len(defaults) {
		return nil, &diag.InternalError{Message: "no such parametric default"}
	}
	exprNode := defaults[paramIndex]
	if exprNode == ast.InvalidNode {
		return nil, &diag.ArgumentError{Message: "parametric has no default expression"}
	}
	m.info.SetType(exprNode, types.U32())
	v, err := constexpr.Eval(m.tree, m.info, exprNode, env, constexpr.NewGuard())
	if err != nil {
		return nil, &diag.ConstexprError{Message: "parametric default must be constexpr: " + err.Error()}
	}
	return dim.ValueFromRuntime(v), nil
}

// LookupNamedType resolves a TypeNameExpr: a struct, an enum, or an alias
// (dereferenced through its chain); it reports false when name is none of
// those, leaving builtin type names to the caller. Generic
// struct instantiation with explicit parametric arguments evaluates each
// argument left to right and substitutes it into the struct's member
// types; a parametric left unsupplied
// requires a default, matching the function instantiator's rule.
func (m *Module) LookupNamedType(name symbol.ID, parametricArgs []ast.NodeID, d *Deducer) (*types.Type, bool) {
	if st, ok := m.structs[name]; ok {
		if len(st.Parametrics()) == 0 {
			return st, true
		}
		return m.concretizeStruct(st, parametricArgs, d)
	}
	if et, ok := m.enums[name]; ok {
		return et, true
	}
	if aliasNode, ok := m.aliases[name]; ok {
		an := m.tree.Node(aliasNode)
		if t, err := d.ResolveTypeExpr(an.A); err == nil {
			return t, true
		}
		return nil, false
	}
	return nil, false
}

func (m *Module) concretizeStruct(st *types.Type, parametricArgs []ast.NodeID, d *Deducer) (*types.Type, bool) {
	formals := st.Parametrics()
	env := dim.NewEnv()
	env.PushFrame()
	for i, f := range formals {
		if i < len(parametricArgs) && parametricArgs[i] != ast.InvalidNode {
			m.info.SetType(parametricArgs[i], f.Type)
			v, err := constexpr.Eval(m.tree, m.info, parametricArgs[i], env, constexpr.NewGuard())
			if err != nil {
				return nil, false
			}
			env.BindConcrete(f.Name, uint64(v.Int64()))
			continue
		}
		if !f.HasDefault {
			return nil, false
		}
		// Unsupplied parametrics fall back to their default expression,
		// evaluated under the env built so far, the same way a function's
		// do.
		defaultDim, err := m.EvalParametricDefault(st.Nominal().Str(), i, env)
		if err != nil {
			return nil, false
		}
		env.BindSymbolic(f.Name, defaultDim)
	}
	members := make([]types.StructMember, len(st.StructMembers()))
	for i, mem := range st.StructMembers() {
		members[i] = types.StructMember{Name: mem.Name, Type: substitute(mem.Type, env)}
	}
	return types.Struct(st.Nominal(), members, formals), true
}
