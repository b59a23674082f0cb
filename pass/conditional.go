package pass

import "github.com/velalang/velac/ir"

// ConditionalSpecializationPass specializes a select's cases using facts
// implied by its own selector: within the branch chosen by `sel == k`,
// any operand of
// that case that is itself `select(sel, ...)` can be replaced by its
// k'th case directly, since the outer selector has already pinned sel to k.
// When useBDD is true and an Options.BDDEngine is supplied, the pass also
// asks the engine whether the selector is implied, but makes no rewrite
// from the answer; with or without an engine, only the direct structural
// specialization is performed.
type ConditionalSpecializationPass struct{ useBDD bool }

func NewConditionalSpecializationPass(useBDD bool) Pass {
	return ConditionalSpecializationPass{useBDD: useBDD}
}

func (ConditionalSpecializationPass) Name() string { return "conditional_specialization" }

func (p ConditionalSpecializationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	specialize := func(nodes []*ir.Node) {
		for _, n := range nodes {
			if n.Op != ir.OpSelect || len(n.Operands) < 2 {
				continue
			}
			sel := n.Operands[0]
			cases := n.Operands[1:]
			for i, c := range cases {
				if c.Op != ir.OpSelect || len(c.Operands) < 2 || c.Operands[0].ID != sel.ID {
					continue
				}
				inner := c.Operands[1:]
				if i < len(inner) {
					n.Operands[1+i] = inner[i]
					changed = true
				}
			}
			if p.useBDD && opts.BDDEngine != nil {
				if _, ok := opts.BDDEngine.Implied(sel); ok {
					// A real engine would fold n directly here; constant
					// folding on the next pipeline iteration (ConstantFoldingPass)
					// handles it once the selector itself is resolved.
					continue
				}
			}
		}
	}
	for _, f := range pkg.Functions {
		specialize(f.Nodes)
	}
	for _, pr := range pkg.Procs {
		specialize(pr.Nodes)
	}
	return changed, nil
}
