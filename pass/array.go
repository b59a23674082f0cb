package pass

import "github.com/velalang/velac/ir"

// ArraySimplificationPass resolves an index into a literal or
// freshly-constructed array when the index is constant, and rewrites an
// update of a freshly-constructed array at a constant index into a new
// array construction with that one element replaced.
type ArraySimplificationPass struct{ optLevel int }

func NewArraySimplificationPass(optLevel int) Pass { return ArraySimplificationPass{optLevel: optLevel} }

func (ArraySimplificationPass) Name() string { return "array_simp" }

func (p ArraySimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			switch n.Op {
			case ir.OpArrayIndex:
				arr, idxNode := n.Operands[0], n.Operands[1]
				if arr.Op != ir.OpArray {
					continue
				}
				idx, ok := literalValue(idxNode)
				if !ok {
					continue
				}
				i := int(idx.Unsigned().Int64())
				if i < 0 || i >= len(arr.Operands) {
					continue
				}
				if replace(n, arr.Operands[i]) {
					changed = true
				}
			case ir.OpArrayUpdate:
				arr, idxNode, elem := n.Operands[0], n.Operands[1], n.Operands[2]
				if arr.Op != ir.OpArray {
					continue
				}
				idx, ok := literalValue(idxNode)
				if !ok {
					continue
				}
				i := int(idx.Unsigned().Int64())
				if i < 0 || i >= len(arr.Operands) {
					continue
				}
				n.Op = ir.OpArray
				updated := make([]*ir.Node, len(arr.Operands))
				copy(updated, arr.Operands)
				updated[i] = elem
				n.Operands = updated
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
