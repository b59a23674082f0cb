package pass

import "github.com/velalang/velac/ir"

// cloneInto copies every node of src (in order) into *dst, giving each copy
// a fresh ID and remapping its operands through paramBindings (for the
// callee's own Params, already bound to caller-supplied argument nodes)
// and the running old->new map for every other node. It returns the clone
// standing in for src's Return node.
func cloneInto(pkg *ir.Package, dst *[]*ir.Node, src []*ir.Node, ret *ir.Node, paramBindings map[ir.ID]*ir.Node) *ir.Node {
	mapped := make(map[ir.ID]*ir.Node, len(src))
	for k, v := range paramBindings {
		mapped[k] = v
	}
	for _, n := range src {
		if bound, ok := mapped[n.ID]; ok && bound != n {
			continue // already bound to a caller argument (a Param node)
		}
		clone := &ir.Node{
			ID:           pkg.FreshID(),
			Op:           n.Op,
			Type:         n.Type,
			Name:         n.Name,
			Literal:      n.Literal,
			Start:        n.Start,
			Width:        n.Width,
			Index:        n.Index,
			HasDefault:   n.HasDefault,
			Callee:       n.Callee,
			TripCount:    n.TripCount,
			Channel:      n.Channel,
			StateElement: n.StateElement,
		}
		clone.Operands = make([]*ir.Node, len(n.Operands))
		for i, o := range n.Operands {
			if m, ok := mapped[o.ID]; ok {
				clone.Operands[i] = m
			} else {
				clone.Operands[i] = o // not owned by src (e.g. a captured constant), reuse directly
			}
		}
		mapped[n.ID] = clone
		*dst = append(*dst, clone)
	}
	if ret == nil {
		return nil
	}
	if m, ok := mapped[ret.ID]; ok {
		return m
	}
	return ret
}

// InliningPass replaces a non-recursive call to a known function with a
// clone of that function's body, substituting call arguments for its
// parameters.
type InliningPass struct{}

func NewInliningPass() Pass { return InliningPass{} }

func (InliningPass) Name() string { return "inlining" }

func (InliningPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			if n.Op != ir.OpInvoke || n.Callee == f.Name {
				continue
			}
			callee, ok := pkg.Function(n.Callee)
			if !ok {
				continue
			}
			bindings := paramBindingsFor(callee, n.Operands)
			result := cloneInto(pkg, &f.Nodes, callee.Nodes, callee.Return, bindings)
			if result == nil {
				continue
			}
			n.Op = ir.OpIdentity
			n.Operands = []*ir.Node{result}
			n.Callee = ""
			changed = true
		}
	}
	return changed, nil
}

func paramBindingsFor(callee *ir.Function, args []*ir.Node) map[ir.ID]*ir.Node {
	bindings := make(map[ir.ID]*ir.Node, len(callee.Params))
	for i, p := range callee.Params {
		if i < len(args) {
			bindings[p.ID] = args[i]
		}
	}
	return bindings
}

// MapInliningPass replaces `map(callee, array-literal)` with a literal
// array of per-element inlined calls. Maps over a non-literal array are
// left for
// InliningPass/ArraySimplificationPass to expose a literal shape first.
type MapInliningPass struct{}

func NewMapInliningPass() Pass { return MapInliningPass{} }

func (MapInliningPass) Name() string { return "map_inlining" }

func (MapInliningPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			if n.Op != ir.OpMap {
				continue
			}
			arr := n.Operands[0]
			if arr.Op != ir.OpArray {
				continue
			}
			callee, ok := pkg.Function(n.Callee)
			if !ok || len(callee.Params) != 1 {
				continue
			}
			elems := make([]*ir.Node, len(arr.Operands))
			for i, elem := range arr.Operands {
				bindings := map[ir.ID]*ir.Node{callee.Params[0].ID: elem}
				elems[i] = cloneInto(pkg, &f.Nodes, callee.Nodes, callee.Return, bindings)
			}
			n.Op = ir.OpArray
			n.Operands = elems
			n.Callee = ""
			changed = true
		}
	}
	return changed, nil
}
