package pass

import (
	"github.com/velalang/velac/ir"
	"github.com/velalang/velac/value"
)

// ReassociationPass regroups a two-level associative chain `(x OP c1) OP
// c2`, where c1 and c2 are both literals, so the two constants combine
// directly. CanonicalizationPass
// has already sorted commutative operands so a literal sits on the right
// at every level, which is what makes the chain recognizable here.
type ReassociationPass struct{}

func NewReassociationPass() Pass { return ReassociationPass{} }

func (ReassociationPass) Name() string { return "reassociation" }

func (ReassociationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			if reassociate(pkg, n) {
				changed = true
			}
		}
	}
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if reassociate(pkg, n) {
				changed = true
			}
		}
	}
	return changed, nil
}

// reassociate rewrites n in place from `(x OP c1) OP c2` to `x OP (c1 OP
// c2)`, folding the two constants immediately rather than waiting for a
// later ConstantFoldingPass iteration.
func reassociate(pkg *ir.Package, n *ir.Node) bool {
	if !n.Op.Associative() || len(n.Operands) != 2 {
		return false
	}
	outer, ok := literalValue(n.Operands[1])
	if !ok {
		return false
	}
	inner := n.Operands[0]
	if inner.Op != n.Op || len(inner.Operands) != 2 {
		return false
	}
	innerLit, ok := literalValue(inner.Operands[1])
	if !ok {
		return false
	}
	combined, ok := combineLiterals(n.Op, innerLit, outer)
	if !ok {
		return false
	}
	combinedType := n.Operands[1].Type
	n.Operands[0] = inner.Operands[0]
	n.Operands[1] = &ir.Node{ID: pkg.FreshID(), Op: ir.OpLiteral, Literal: combined, Type: combinedType}
	return true
}

// combineLiterals applies op to two already-literal operand values,
// reusing the same width-preserving arithmetic the interpreter uses.
func combineLiterals(op ir.Op, a, b value.Value) (value.Value, bool) {
	switch op {
	case ir.OpAdd:
		return a.Add(b), true
	case ir.OpUMul, ir.OpSMul:
		return a.Mul(b), true
	case ir.OpAnd:
		return a.And(b), true
	case ir.OpOr:
		return a.Or(b), true
	case ir.OpXor:
		return a.Xor(b), true
	default:
		return value.Value{}, false
	}
}
