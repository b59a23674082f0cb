// Package diag defines the compiler's closed set of diagnostic error kinds
// and a buffer-based renderer for them, separating "what to print" from
// "how it is rendered" with none of the interactive terminal concerns
// (paging, signal handling, screen-width probing) a compiler has no use
// for.
package diag

import (
	"fmt"

	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/types"
)

// TypeInferenceError reports that the deducer could not determine a type
// for an expression at all (as opposed to determining one that conflicts
// with an expectation).
type TypeInferenceError struct {
	Span    ast.Span
	Message string
}

func (e *TypeInferenceError) Error() string {
	return fmt.Sprintf("%s: cannot infer type: %s", e.Span, e.Message)
}

// TypeMismatchError reports that an expression's deduced type conflicts
// with the type required by its context.
type TypeMismatchError struct {
	Span ast.Span
	Want *types.Type
	Got  *types.Type
	// Explain is an optional human-readable elaboration of why Want and Got
	// conflict, beyond the bare type strings (e.g. which struct member
	// differs). Set by callers directly or via WithExplain below.
	Explain string
}

func (e *TypeMismatchError) Error() string {
	if e.Explain != "" {
		return fmt.Sprintf("%s: expected %s, got %s (%s)", e.Span, e.Want, e.Got, e.Explain)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Span, e.Want, e.Got)
}

// WithExplain returns a copy of e annotated with a human-readable reason.
func (e *TypeMismatchError) WithExplain(format string, args ...interface{}) *TypeMismatchError {
	cp := *e
	cp.Explain = fmt.Sprintf(format, args...)
	return &cp
}

// ConstexprError reports that a constant-expression context (a dimension
// position, a const-assert, a quickcheck generator bound) received an
// expression that failed to evaluate to a constant: it referenced
// non-constant state, diverged past the recursion guard, or otherwise
// violated the constexpr purity contract.
type ConstexprError struct {
	Span    ast.Span
	Message string
}

func (e *ConstexprError) Error() string {
	return fmt.Sprintf("%s: not a constant expression: %s", e.Span, e.Message)
}

// InternalError reports a compiler invariant violation: a code path the
// deducer, bytecode emitter, or pass pipeline believed unreachable was
// reached. These surface as explicit error values, recovered once at the
// typecheck entry point (package deduce) rather than unwound via panic to
// the caller.
type InternalError struct {
	Span    ast.Span
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error: %s", e.Span, e.Message)
}

// Warning is a non-fatal diagnostic: a redundant `let _`, an empty
// range, a useless splat, a constant-naming nit. Warnings never stop the
// typecheck; the module typechecker accumulates them for the caller.
type Warning struct {
	Span    ast.Span
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Span, w.Message)
}

// ArgumentError reports a malformed call: wrong arity, a missing required
// parametric with no default, or a positional/named argument mismatch.
type ArgumentError struct {
	Span    ast.Span
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}
