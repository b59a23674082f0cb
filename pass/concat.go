package pass

import "github.com/velalang/velac/ir"

// ConcatSimplificationPass removes single-operand concatenations and
// merges two adjacent bit-slices of the same source into one wider slice.
type ConcatSimplificationPass struct{ optLevel int }

func NewConcatSimplificationPass(optLevel int) Pass { return ConcatSimplificationPass{optLevel: optLevel} }

func (ConcatSimplificationPass) Name() string { return "concat_simp" }

func (p ConcatSimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			if n.Op != ir.OpConcat {
				continue
			}
			if len(n.Operands) == 1 {
				if replace(n, n.Operands[0]) {
					changed = true
				}
				continue
			}
			if len(n.Operands) != 2 {
				continue
			}
			hi, lo := n.Operands[0], n.Operands[1]
			// value.Concat treats Operands[0] as the high bits, Operands[1]
			// as the low bits. Two adjacent bit-slices of
			// the same source merge into one when hi covers the bits
			// directly above lo.
			if hi.Op == ir.OpBitSlice && lo.Op == ir.OpBitSlice &&
				hi.Operands[0].ID == lo.Operands[0].ID &&
				hi.Start == lo.Start+lo.Width {
				n.Op = ir.OpBitSlice
				n.Operands = []*ir.Node{hi.Operands[0]}
				n.Start = lo.Start
				n.Width = hi.Width + lo.Width
				changed = true
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
