package bytecode

import (
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// Instr is one bytecode record: an opcode, optional operand data, and the
// source span it was emitted from. Only the field(s) relevant to Op are
// populated.
type Instr struct {
	Op   Opcode
	Span ast.Span

	Value  value.Value // Literal
	Slot   int         // Load, Store
	N      int         // CreateTuple, CreateArray, ExpandTuple
	Offset int         // JumpRel, JumpRelIf: relative to the successor instruction (pc+1+offset)
	Target *types.Type // Cast
	Callee value.Value // Call: a Func value (builtin or user)
}

// Program is an emitted function body: a flat instruction sequence plus the
// number of local slots it uses.
type Program struct {
	Instrs   []Instr
	NumSlots int
}
