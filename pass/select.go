package pass

import "github.com/velalang/velac/ir"

// SelectSimplificationPass resolves a select with a constant selector to
// its chosen case directly, and collapses a select whose cases are all the
// same node to that node.
type SelectSimplificationPass struct{ optLevel int }

func NewSelectSimplificationPass(optLevel int) Pass { return SelectSimplificationPass{optLevel: optLevel} }

func (SelectSimplificationPass) Name() string { return "select_simp" }

func (p SelectSimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			if n.Op != ir.OpSelect || len(n.Operands) < 2 {
				continue
			}
			selector := n.Operands[0]
			cases := n.Operands[1:]

			if allSame(cases) {
				if replace(n, cases[0]) {
					changed = true
				}
				continue
			}
			if v, ok := literalValue(selector); ok {
				idx := int(v.Unsigned().Int64())
				explicit := cases
				if n.HasDefault {
					explicit = cases[:len(cases)-1]
				}
				var chosen *ir.Node
				if idx >= 0 && idx < len(explicit) {
					chosen = explicit[idx]
				} else if n.HasDefault {
					chosen = cases[len(cases)-1]
				}
				if chosen != nil && replace(n, chosen) {
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

func allSame(nodes []*ir.Node) bool {
	if len(nodes) == 0 {
		return false
	}
	first := nodes[0].ID
	for _, n := range nodes[1:] {
		if n.ID != first {
			return false
		}
	}
	return true
}

// TableSwitchPass recognizes a chain of nested two-way selects, each gated
// by `base == k` for strictly increasing literal k starting at zero and
// terminated by a shared default, and rewrites it into a single flat
// OpSelect keyed directly on base.
// Any other shape is left untouched.
type TableSwitchPass struct{}

func NewTableSwitchPass() Pass { return TableSwitchPass{} }

func (TableSwitchPass) Name() string { return "table_switch" }

func (TableSwitchPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			if collapseTableSwitch(n) {
				changed = true
			}
		}
	}
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if collapseTableSwitch(n) {
				changed = true
			}
		}
	}
	return changed, nil
}

// collapseTableSwitch rewrites n in place when it is the head of a chain
// select(base==0, c0, select(base==1, c1, select(base==2, c2, default)))
// into select(base, [c0,c1,c2,default], HasDefault=true).
func collapseTableSwitch(n *ir.Node) bool {
	if n.Op != ir.OpSelect || len(n.Operands) != 3 {
		return false
	}
	base, ok := eqCompareBase(n.Operands[0], 0)
	if !ok {
		return false
	}
	cases := []*ir.Node{n.Operands[1]}
	cur := n.Operands[2]
	k := uint64(1)
	for {
		if cur.Op != ir.OpSelect || len(cur.Operands) != 3 {
			break
		}
		b, ok := eqCompareBase(cur.Operands[0], k)
		if !ok || b.ID != base.ID {
			break
		}
		cases = append(cases, cur.Operands[1])
		cur = cur.Operands[2]
		k++
	}
	if len(cases) < 2 {
		return false // not worth collapsing a single comparison
	}
	cases = append(cases, cur) // cur is the final default
	n.Operands = append([]*ir.Node{base}, cases...)
	n.HasDefault = true
	return true
}

// eqCompareBase reports whether sel is `base == k` for the given literal k,
// returning base.
func eqCompareBase(sel *ir.Node, k uint64) (*ir.Node, bool) {
	if sel.Op != ir.OpEq || len(sel.Operands) != 2 {
		return nil, false
	}
	lhs, rhs := sel.Operands[0], sel.Operands[1]
	if v, ok := literalValue(rhs); ok && v.Unsigned().Uint64() == k {
		return lhs, true
	}
	if v, ok := literalValue(lhs); ok && v.Unsigned().Uint64() == k {
		return rhs, true
	}
	return nil, false
}
