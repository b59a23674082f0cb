package pass

import (
	"math/big"

	"github.com/velalang/velac/ir"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// StrengthReductionPass rewrites multiplication by a power of two into a
// shift. Only the
// unsigned-multiply-by-constant case is handled; signed multiply and
// division are left to the BDD-aware passes downstream (shift
// substitution, not general strength reduction).
type StrengthReductionPass struct{ optLevel int }

func NewStrengthReductionPass(optLevel int) Pass { return StrengthReductionPass{optLevel: optLevel} }

func (StrengthReductionPass) Name() string { return "strength_reduction" }

func (p StrengthReductionPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			if reduceToShift(pkg, &f.Nodes, n) {
				changed = true
			}
		}
	}
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if reduceToShift(pkg, &pr.Nodes, n) {
				changed = true
			}
		}
	}
	return changed, nil
}

// reduceToShift mutates n in place from `x umul K` into `x shll log2(K)`
// when K (the right operand) is a nonzero power-of-two literal, appending
// the freshly synthesized shift-amount literal to *nodes.
func reduceToShift(pkg *ir.Package, nodes *[]*ir.Node, n *ir.Node) bool {
	if n.Op != ir.OpUMul || len(n.Operands) != 2 {
		return false
	}
	rv, ok := literalValue(n.Operands[1])
	if !ok {
		return false
	}
	mag := rv.Unsigned()
	if mag.Sign() <= 0 {
		return false
	}
	m1 := new(big.Int).Sub(mag, big.NewInt(1))
	if new(big.Int).And(mag, m1).Sign() != 0 {
		return false // not a power of two
	}
	shamt := uint32(mag.BitLen() - 1)
	shamtNode := &ir.Node{
		ID:      pkg.FreshID(),
		Op:      ir.OpLiteral,
		Literal: value.NewBitsFromInt64(32, false, int64(shamt)),
		Type:    types.U32(),
	}
	*nodes = append(*nodes, shamtNode)
	n.Op = ir.OpShll
	n.Operands[1] = shamtNode
	return true
}
