package pass

import "github.com/velalang/velac/ir"

// BooleanSimplificationPass applies identities specific to single-bit
// (boolean) values: double negation, and De Morgan rewrites of a negated
// comparison into its complementary comparison.
type BooleanSimplificationPass struct{}

func NewBooleanSimplificationPass() Pass { return BooleanSimplificationPass{} }

func (BooleanSimplificationPass) Name() string { return "boolean_simp" }

func (BooleanSimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			switch n.Op {
			case ir.OpNot:
				inner := n.Operands[0]
				if inner.Op == ir.OpNot {
					if replace(n, inner.Operands[0]) {
						changed = true
					}
					continue
				}
				if comp, ok := negatedComparison[inner.Op]; ok {
					n.Op = comp
					n.Operands = inner.Operands
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

// negatedComparison maps a comparison op to the op computing its logical
// negation, used to rewrite `not(a op b)` to the single complementary
// comparison rather than leaving an extra Not node around.
var negatedComparison = map[ir.Op]ir.Op{
	ir.OpEq:  ir.OpNe,
	ir.OpNe:  ir.OpEq,
	ir.OpULt: ir.OpUGe,
	ir.OpUGe: ir.OpULt,
	ir.OpULe: ir.OpUGt,
	ir.OpUGt: ir.OpULe,
	ir.OpSLt: ir.OpSGe,
	ir.OpSGe: ir.OpSLt,
	ir.OpSLe: ir.OpSGt,
	ir.OpSGt: ir.OpSLe,
}
