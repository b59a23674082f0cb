package deduce

import (
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/types"
)

// Instantiate implements the Parametric Instantiator: given the
// formal parametric bindings of a function, its (unsubstituted) declared
// type, any explicitly-supplied parametric dimension expressions, and the
// actual argument types at a call site, it resolves every parametric
// symbol into a concrete dim.Env and returns the call's substituted return
// type.
// Ordering invariant: explicit parametrics are resolved left to right
// before unification runs, and any symbol referenced by a later default
// expression must already be bound by the time that default is
// evaluated. Callers are expected to have sorted formals into declaration
// order, which source syntax already guarantees.
func Instantiate(m *Module, calleeName interface{ Str() string }, formals []types.FormalParametric, calleeType *types.Type, explicit []*dim.Dim, argTypes []*types.Type, span ast.Span) (*types.Type, *dim.Env, error) {
	env := dim.NewEnv()
	env.PushFrame()

	for i, f := range formals {
		if i < len(explicit) && explicit[i] != nil {
			env.BindSymbolic(f.Name, explicit[i])
		}
	}

	params := calleeType.Params()
	if len(params) != len(argTypes) {
		return nil, nil, &diag.ArgumentError{Span: span, Message: "argument count mismatch in parametric call to " + calleeName.Str()}
	}
	for i := range params {
		if err := unify(params[i], argTypes[i], env, span); err != nil {
			return nil, nil, err
		}
	}

	for i, f := range formals {
		if _, ok := env.Lookup(f.Name); ok {
			continue
		}
		if !f.HasDefault {
			return nil, nil, &diag.ArgumentError{Span: span, Message: "parametric " + f.Name.Str() + " has no value and no default"}
		}
		defaultDim, err := m.EvalParametricDefault(calleeName.Str(), i, env)
		if err != nil {
			return nil, nil, err
		}
		env.BindSymbolic(f.Name, defaultDim)
	}

	ret := substitute(calleeType.Return(), env)
	return ret, env, nil
}

// unify implements the unification rule specialized to the instantiator:
// two types unify iff structurally equal after resolving symbolic Dims,
// binding any still-free symbol on the formal side to the actual side's
// corresponding Dim.
func unify(formal, actual *types.Type, env *dim.Env, span ast.Span) error {
	if formal.Kind() != actual.Kind() {
		return &diag.TypeMismatchError{Span: span, Want: formal, Got: actual}
	}
	switch formal.Kind() {
	case types.BitsKind:
		if formal.Signed() != actual.Signed() {
			return &diag.TypeMismatchError{Span: span, Want: formal, Got: actual, Explain: "signedness mismatch"}
		}
		return unifyDim(formal.Size(), actual.Size(), env, span)
	case types.ArrayKind:
		if err := unify(formal.Elem(), actual.Elem(), env, span); err != nil {
			return err
		}
		return unifyDim(formal.ArraySize(), actual.ArraySize(), env, span)
	case types.TupleKind:
		if len(formal.Members()) != len(actual.Members()) {
			return &diag.TypeMismatchError{Span: span, Want: formal, Got: actual, Explain: "tuple arity mismatch"}
		}
		for i := range formal.Members() {
			if err := unify(formal.Members()[i], actual.Members()[i], env, span); err != nil {
				return err
			}
		}
		return nil
	default:
		if !types.Equal(formal, actual) {
			return &diag.TypeMismatchError{Span: span, Want: formal, Got: actual}
		}
		return nil
	}
}

// unifyDim binds a still-free symbolic formal dimension to the actual
// dimension's value, or checks equality when the formal side is already
// resolved (either concrete, or a symbol already bound earlier in this
// same instantiation).
func unifyDim(formal, actual *dim.Dim, env *dim.Env, span ast.Span) error {
	resolvedFormal := dim.Eval(formal, env)
	if resolvedFormal.Value != nil {
		resolvedActual := dim.Eval(actual, env)
		if resolvedActual.Value == nil || *resolvedFormal.Value != *resolvedActual.Value {
			return &diag.TypeInferenceError{Span: span, Message: "dimension mismatch during parametric unification"}
		}
		return nil
	}
	if formal.Kind() == dim.Symbol {
		if _, ok := env.Lookup(formal.SymbolName()); !ok {
			env.BindSymbolic(formal.SymbolName(), actual)
		}
		return nil
	}
	// A compound residual formal dimension (e.g. N+1) against a concrete
	// actual requires solving for the free symbol; only the single-symbol
	// affine case is supported, matching the expression algebra's
	// small fixed surface.
	return solveAffine(formal, actual, env, span)
}

// solveAffine handles the common "N+K" / "K+N" formal-dimension shape by
// isolating the single free symbol against a concrete actual value.
func solveAffine(formal, actual *dim.Dim, env *dim.Env, span ast.Span) error {
	actualResult := dim.Eval(actual, env)
	if actualResult.Value == nil {
		return &diag.TypeInferenceError{Span: span, Message: "cannot unify symbolic dimension against unresolved actual"}
	}
	if formal.Kind() != dim.Add {
		return &diag.TypeInferenceError{Span: span, Message: "dimension expression too complex to unify"}
	}
	lhs, rhs := formal.Operands()
	lr, rr := dim.Eval(lhs, env), dim.Eval(rhs, env)
	switch {
	case lr.Value == nil && rr.Value != nil && lhs.Kind() == dim.Symbol:
		if *actualResult.Value < *rr.Value {
			return &diag.TypeInferenceError{Span: span, Message: "dimension unification underflows"}
		}
		env.BindConcrete(lhs.SymbolName(), *actualResult.Value-*rr.Value)
		return nil
	case rr.Value == nil && lr.Value != nil && rhs.Kind() == dim.Symbol:
		if *actualResult.Value < *lr.Value {
			return &diag.TypeInferenceError{Span: span, Message: "dimension unification underflows"}
		}
		env.BindConcrete(rhs.SymbolName(), *actualResult.Value-*lr.Value)
		return nil
	}
	return &diag.TypeInferenceError{Span: span, Message: "dimension expression too complex to unify"}
}

// substitute returns a copy of t with every symbolic Dim resolved against
// env where possible, leaving still-free symbols untouched (they remain
// bound in env for the caller's later use, e.g. rendering diagnostics).
func substitute(t *types.Type, env *dim.Env) *types.Type {
	if t == nil {
		return nil
	}
	switch t.Kind() {
	case types.BitsKind:
		return types.Bits(t.Signed(), substituteDim(t.Size(), env))
	case types.ArrayKind:
		return types.Array(substitute(t.Elem(), env), substituteDim(t.ArraySize(), env))
	case types.TupleKind:
		members := make([]*types.Type, len(t.Members()))
		for i, m := range t.Members() {
			members[i] = substitute(m, env)
		}
		return types.Tuple(members...)
	case types.ChannelKind:
		return types.Channel(substitute(t.Payload(), env), t.ChanDir())
	default:
		return t
	}
}

func substituteDim(d *dim.Dim, env *dim.Env) *dim.Dim {
	r := dim.Eval(d, env)
	if r.Value != nil {
		return dim.NewConst(*r.Value)
	}
	if r.Residual != nil {
		return r.Residual
	}
	return d
}
