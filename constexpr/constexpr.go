// Package constexpr implements the constant-expression evaluator: it
// materializes a bytecode program for an expression (package bytecode) and
// interprets it against a parametric environment, caching the result into
// TypeInfo. Evaluation is used wherever a dimension position, a
// const-assert, or a quickcheck generator bound needs a concrete value
// before the deducer can proceed.
package constexpr

import (
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/bytecode"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/value"
)

// maxRecursionDepth bounds constexpr evaluation nesting. A dimension
// expression that references itself (directly or through an enum member
// default, a struct parametric default, or a self-recursive const) would
// otherwise diverge the evaluator rather than fail cleanly.
const maxRecursionDepth = 64

// Guard tracks in-flight constexpr evaluations to catch a self-referential
// dependency before it diverges.
//
// Share one Guard across every constexpr.Eval call made while typechecking
// a single module; a fresh Guard per top-level call is too coarse (it
// would not catch cross-call recursion) and per-node-only tracking inside
// bytecode itself is too fine (bytecode has no notion of "constexpr call").
type Guard struct {
	active map[ast.NodeID]bool
	depth  int
}

// NewGuard creates an empty recursion guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[ast.NodeID]bool)}
}

// Eval evaluates the expression at node under env, returning its constexpr
// value. It requires every subexpression's type to already be recorded in
// info (the same precondition the bytecode emitter has), and it
// caches the result into info on success.
func Eval(tree *ast.Tree, info *typeinfo.Info, node ast.NodeID, env *dim.Env, guard *Guard) (value.Value, error) {
	if v, ok := info.ConstValue(node); ok {
		return v, nil
	}
	if guard.active[node] {
		span := tree.Node(node).Span
		return value.Value{}, &diag.ConstexprError{Span: span, Message: "recursive constexpr dependency"}
	}
	guard.depth++
	defer func() { guard.depth-- }()
	if guard.depth > maxRecursionDepth {
		span := tree.Node(node).Span
		return value.Value{}, &diag.ConstexprError{Span: span, Message: "constexpr recursion depth exceeded"}
	}
	guard.active[node] = true
	defer delete(guard.active, node)

	em := bytecode.NewEmitter(tree, info)
	em.SetEnvHash(env.Hash())
	args, err := seedEnvSlots(em, env)
	if err != nil {
		span := tree.Node(node).Span
		return value.Value{}, &diag.ConstexprError{Span: span, Message: err.Error()}
	}

	prog, err := em.EmitFunctionBody(node)
	if err != nil {
		return value.Value{}, asConstexprError(tree, node, err)
	}
	interp := bytecode.NewInterpreter(prog, args)
	result, err := interp.Run()
	if err != nil {
		return value.Value{}, asConstexprError(tree, node, err)
	}
	info.SetConstValue(node, result)
	return result, nil
}

// seedEnvSlots pre-binds every name currently visible in env as a bytecode
// parameter slot, so the emitted program can Load them the same way it
// would load a function's formal arguments. Shadowed names resolve to the
// innermost binding, matching Env.Lookup's own search order. A symbolic
// binding that fully evaluates under env (the shape unification leaves
// behind) is seated by its evaluated value; only a genuinely unresolved
// symbol is an error.
func seedEnvSlots(em *bytecode.Emitter, env *dim.Env) ([]value.Value, error) {
	var args []value.Value
	seen := make(map[symbol.ID]bool)
	for _, name := range env.Names() {
		if seen[name] {
			continue
		}
		seen[name] = true
		binding, _ := env.Lookup(name)
		var concrete uint64
		switch {
		case binding.Concrete != nil:
			concrete = *binding.Concrete
		case binding.Symbolic != nil:
			r := dim.Eval(binding.Symbolic, env)
			if r.Value == nil {
				return nil, errUnresolvedSymbol(name)
			}
			concrete = *r.Value
		default:
			return nil, errUnresolvedSymbol(name)
		}
		em.BindParam(name)
		args = append(args, value.NewBitsFromInt64(32, false, int64(concrete)))
	}
	return args, nil
}

type errUnresolvedSymbol symbol.ID

func (e errUnresolvedSymbol) Error() string {
	return "unresolved symbolic dimension " + symbol.ID(e).Str() + " in constexpr environment"
}

func asConstexprError(tree *ast.Tree, node ast.NodeID, err error) error {
	if _, ok := err.(*diag.InternalError); ok {
		return err
	}
	span := tree.Node(node).Span
	return &diag.ConstexprError{Span: span, Message: err.Error()}
}
