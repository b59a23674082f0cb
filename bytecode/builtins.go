package bytecode

import (
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/value"
)

// callBuiltin interprets the small set of builtins that lower through Call.
// User-defined function calls are not executed by this interpreter: a Call
// whose callee name is not one of the builtins below fails with an
// internal error.
func callBuiltin(name string, args []value.Value, span ast.Span) (value.Value, error) {
	switch name {
	case "assert_eq":
		if len(args) != 2 {
			return value.Value{}, &diag.ArgumentError{Span: span, Message: "assert_eq requires exactly 2 arguments"}
		}
		if !args[0].Eq(args[1]).IsTrue() {
			return value.Value{}, &diag.ConstexprError{Span: span, Message: "assert_eq failed: " + args[0].String() + " != " + args[1].String()}
		}
		return value.TheToken, nil
	case "trace_fmt":
		// Tracing has no observable effect in constexpr/test interpretation
		// beyond ordering; the arguments were evaluated for their side
		// tables already.
		return value.TheToken, nil
	default:
		return value.Value{}, &diag.InternalError{Span: span, Message: "bytecode: unknown builtin " + name}
	}
}
