package pass

import (
	"math/big"

	"github.com/velalang/velac/ir"
	"github.com/velalang/velac/value"
)

func literalValue(n *ir.Node) (value.Value, bool) {
	if n.Op != ir.OpLiteral {
		return value.Value{}, false
	}
	v, ok := n.Literal.(value.Value)
	return v, ok
}

func isLiteralBits(n *ir.Node, want int64) bool {
	v, ok := literalValue(n)
	if !ok || v.Kind() != value.Bits {
		return false
	}
	return v.Unsigned().Cmp(big.NewInt(want)) == 0
}

func sameNode(a, b *ir.Node) bool { return a.ID == b.ID }

// ArithSimplificationPass applies the cheap algebraic identities:
// x+0=x, x-0=x, x-x=0, x*0=0,
// x*1=x, x&0=0, x&x=x, x|0=x, x|x=x, x^x=0, x^0=x. CanonicalizationPass has
// already sorted commutative operands so a literal, if present, is on the
// right.
type ArithSimplificationPass struct{ optCap int }

func NewArithSimplificationPass(optLevel int) Pass { return ArithSimplificationPass{optCap: optLevel} }

func (ArithSimplificationPass) Name() string { return "arith_simp" }

func (p ArithSimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			if zeroesOut(n) {
				zeroNode(n)
				changed = true
				continue
			}
			if repl := arithIdentity(n); repl != nil {
				if replace(n, repl) {
					changed = true
				}
			}
		}
	}
	for _, f := range pkg.Functions {
		simplify(f.Nodes, func(old, new *ir.Node) bool { return replaceInFunction(f, old, new) })
	}
	for _, pr := range pkg.Procs {
		simplify(pr.Nodes, func(old, new *ir.Node) bool { return replaceInProc(pr, old, new) })
	}
	return changed, nil
}

// zeroesOut reports whether n is one of the binary identities whose result
// is always the all-zeros bit pattern of n's width: x-x, x^x, x*0, x&0.
func zeroesOut(n *ir.Node) bool {
	if len(n.Operands) != 2 {
		return false
	}
	a, b := n.Operands[0], n.Operands[1]
	switch n.Op {
	case ir.OpSub, ir.OpXor:
		return sameNode(a, b)
	case ir.OpUMul, ir.OpSMul, ir.OpAnd:
		return isLiteralBits(b, 0) || isLiteralBits(a, 0)
	}
	return false
}

// zeroNode mutates n in place into a zero literal of its own width,
// mirroring ConstantFoldingPass's in-place conversion.
func zeroNode(n *ir.Node) {
	width := uint32(0)
	if n.Type != nil {
		if d := n.Type.Size(); d != nil && d.IsConst() {
			width = uint32(d.ConstValue())
		}
	}
	n.Op = ir.OpLiteral
	n.Literal = value.NewBitsFromInt64(width, false, 0)
	n.Operands = nil
}

// arithIdentity returns the operand n should be replaced by, or nil if no
// identity applies.
func arithIdentity(n *ir.Node) *ir.Node {
	if len(n.Operands) != 2 {
		return nil
	}
	a, b := n.Operands[0], n.Operands[1]
	switch n.Op {
	case ir.OpAdd, ir.OpOr, ir.OpXor:
		if n.Op == ir.OpXor && sameNode(a, b) {
			return nil // handled below as "x^x=0", not an identity-to-operand
		}
		if isLiteralBits(b, 0) {
			return a
		}
		if n.Op == ir.OpOr && sameNode(a, b) {
			return a
		}
	case ir.OpSub:
		if isLiteralBits(b, 0) {
			return a
		}
	case ir.OpUMul, ir.OpSMul:
		if isLiteralBits(b, 1) {
			return a
		}
	case ir.OpAnd:
		if sameNode(a, b) {
			return a
		}
	}
	return nil
}
