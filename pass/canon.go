package pass

import "github.com/velalang/velac/ir"

// CanonicalizationPass puts commutative binary operands into a canonical
// order: a literal operand
// always moves to the right, and otherwise operands are ordered by
// ascending node ID. This exposes more opportunities to CsePass and
// ReassociationPass, which both key on structural equality of the operand
// list.
type CanonicalizationPass struct{}

func NewCanonicalizationPass() Pass { return CanonicalizationPass{} }

func (CanonicalizationPass) Name() string { return "canonicalization" }

func (CanonicalizationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	canon := func(nodes []*ir.Node) {
		for _, n := range nodes {
			if canonicalizeNode(n) {
				changed = true
			}
		}
	}
	for _, f := range pkg.Functions {
		canon(f.Nodes)
	}
	for _, p := range pkg.Procs {
		canon(p.Nodes)
	}
	return changed, nil
}

func canonicalizeNode(n *ir.Node) bool {
	if !n.Op.Commutative() || len(n.Operands) != 2 {
		return false
	}
	a, b := n.Operands[0], n.Operands[1]
	aLit, bLit := a.Op == ir.OpLiteral, b.Op == ir.OpLiteral
	swap := false
	switch {
	case aLit && !bLit:
		swap = true
	case aLit == bLit && a.ID > b.ID:
		swap = true
	}
	if swap {
		n.Operands[0], n.Operands[1] = b, a
		return true
	}
	return false
}
