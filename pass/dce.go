package pass

import "github.com/velalang/velac/ir"

// DeadCodeEliminationPass removes nodes with no remaining uses and no side
// effect. Function/proc parameters, the function return
// value, and proc state reads are always treated as live roots even with
// zero in-body uses.
type DeadCodeEliminationPass struct{}

func NewDeadCodeEliminationPass() Pass { return DeadCodeEliminationPass{} }

func (DeadCodeEliminationPass) Name() string { return "dce" }

func (DeadCodeEliminationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		roots := make([]*ir.Node, 0, len(f.Params)+1)
		roots = append(roots, f.Params...)
		if f.Return != nil {
			roots = append(roots, f.Return)
		}
		for _, n := range f.Nodes {
			if n.Op.HasSideEffect() {
				roots = append(roots, n)
			}
		}
		live := liveSet(roots)
		before := len(f.Nodes)
		f.Nodes = ir.Filter(f.Nodes, func(n *ir.Node) bool { return live[n.ID] })
		if len(f.Nodes) != before {
			changed = true
		}
	}
	for _, p := range pkg.Procs {
		roots := make([]*ir.Node, 0, len(p.Params)+len(p.State))
		roots = append(roots, p.Params...)
		for _, se := range p.State {
			if se.Param != nil {
				roots = append(roots, se.Param)
			}
			if se.NextVal != nil {
				roots = append(roots, se.NextVal)
			}
		}
		for _, n := range p.Nodes {
			if n.Op.HasSideEffect() {
				roots = append(roots, n)
			}
		}
		live := liveSet(roots)
		before := len(p.Nodes)
		p.Nodes = ir.Filter(p.Nodes, func(n *ir.Node) bool { return live[n.ID] })
		if len(p.Nodes) != before {
			changed = true
		}
	}
	return changed, nil
}

func liveSet(roots []*ir.Node) map[ir.ID]bool {
	live := make(map[ir.ID]bool, len(roots)*2)
	ir.Walk(roots, func(n *ir.Node) { live[n.ID] = true })
	return live
}

// DeadFunctionEliminationPass removes functions unreachable from any
// externally-visible root: a Public function, or any proc.
type DeadFunctionEliminationPass struct{}

func NewDeadFunctionEliminationPass() Pass { return DeadFunctionEliminationPass{} }

func (DeadFunctionEliminationPass) Name() string { return "dfe" }

func (DeadFunctionEliminationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	liveNames := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if liveNames[name] {
			return
		}
		liveNames[name] = true
		f, ok := pkg.Function(name)
		if !ok {
			return
		}
		for _, n := range f.Nodes {
			if callee := n.Callee; callee != "" {
				mark(callee)
			}
		}
	}
	for _, f := range pkg.Functions {
		if f.Public {
			mark(f.Name)
		}
	}
	for _, p := range pkg.Procs {
		for _, n := range p.Nodes {
			if callee := n.Callee; callee != "" {
				mark(callee)
			}
		}
	}

	before := len(pkg.Functions)
	pkg.RemoveFunctions(func(f *ir.Function) bool { return liveNames[f.Name] })
	return len(pkg.Functions) != before, nil
}
