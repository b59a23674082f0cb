package pass

import (
	"math/big"

	"github.com/velalang/velac/ir"
	"github.com/velalang/velac/value"
)

// NarrowingAnalysis selects which static analysis NarrowingPass uses to
// prove that fewer bits than the declared width are actually live.
type NarrowingAnalysis int

const (
	// AnalysisTernary only looks at operands that are themselves
	// zero/sign extensions, the cheap case available before BDD/range
	// analysis has run.
	AnalysisTernary NarrowingAnalysis = iota
	// AnalysisRangeWithContext additionally folds an equality/inequality
	// comparison against a literal that is provably out of the narrower
	// operand's range to a constant, given the surrounding zero-extension
	// context. Full interval/BDD-backed range analysis is the external
	// collaborator's job; this analysis only uses the zero-extension
	// shape already visible in the IR.
	AnalysisRangeWithContext
)

// NarrowingPass removes now-redundant extensions and, under
// AnalysisRangeWithContext, resolves a comparison against a literal that a
// zero-extension's context proves impossible.
type NarrowingPass struct {
	Analysis NarrowingAnalysis
	optLevel int
}

func NewNarrowingPass(analysis NarrowingAnalysis, optLevel int) Pass {
	return NarrowingPass{Analysis: analysis, optLevel: optLevel}
}

func (NarrowingPass) Name() string { return "narrowing" }

func (p NarrowingPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			switch n.Op {
			case ir.OpZeroExt, ir.OpSignExt:
				if sameWidth(n.Operands[0].Type, n.Type) {
					if replace(n, n.Operands[0]) {
						changed = true
					}
				}
			case ir.OpEq, ir.OpNe:
				if p.Analysis != AnalysisRangeWithContext {
					continue
				}
				found, impossible := narrowedComparisonIsImpossible(n)
				if found && impossible {
					outcome := n.Op == ir.OpNe // Eq is unsatisfiable -> false, Ne -> true
					n.Op = ir.OpLiteral
					n.Operands = nil
					n.Literal = value.Bool(outcome)
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

// narrowedComparisonIsImpossible reports (found, impossible): found is true
// when n compares a zero-extended narrow value against a literal, and
// impossible is true when that literal has a set bit outside the narrow
// operand's original width, making the equality unsatisfiable.
func narrowedComparisonIsImpossible(n *ir.Node) (bool, bool) {
	a, b := n.Operands[0], n.Operands[1]
	ext, lit := a, b
	litVal, ok := literalValue(lit)
	if !ok {
		ext, lit = b, a
		litVal, ok = literalValue(lit)
	}
	if !ok || ext.Op != ir.OpZeroExt {
		return false, false
	}
	narrowWidth := ext.Operands[0].Type
	if narrowWidth == nil || narrowWidth.Size() == nil || !narrowWidth.Size().IsConst() {
		return false, false
	}
	width := uint(narrowWidth.Size().ConstValue())
	bound := new(big.Int).Lsh(big.NewInt(1), width)
	return true, litVal.Unsigned().Cmp(bound) >= 0
}
