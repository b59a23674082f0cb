package pass

import (
	"github.com/velalang/velac/ir"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// UnrollPass expands an OpCountedFor with a known trip count into a chain
// of inlined body invocations, one per iteration, threading the
// accumulator from one iteration's result into the next. The loop index
// is passed to the body as the first
// argument, matching the deducer's `for (elem, acc) in array` binding order
// generalized to a static range.
type UnrollPass struct{}

func NewUnrollPass() Pass { return UnrollPass{} }

func (UnrollPass) Name() string { return "unroll" }

func (UnrollPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			if n.Op != ir.OpCountedFor {
				continue
			}
			callee, ok := pkg.Function(n.Callee)
			if !ok || len(callee.Params) < 2 {
				continue
			}
			acc := n.Operands[0]
			invariant := n.Operands[1:]
			for i := uint32(0); i < n.TripCount; i++ {
				idxNode := &ir.Node{ID: pkg.FreshID(), Op: ir.OpLiteral, Literal: value.NewBitsFromInt64(32, false, int64(i)), Type: types.U32()}
				f.Nodes = append(f.Nodes, idxNode)
				bindings := map[ir.ID]*ir.Node{
					callee.Params[0].ID: idxNode,
					callee.Params[1].ID: acc,
				}
				for j, inv := range invariant {
					if 2+j < len(callee.Params) {
						bindings[callee.Params[2+j].ID] = inv
					}
				}
				acc = cloneInto(pkg, &f.Nodes, callee.Nodes, callee.Return, bindings)
			}
			n.Op = ir.OpIdentity
			n.Operands = []*ir.Node{acc}
			n.Callee = ""
			n.TripCount = 0
			changed = true
		}
	}
	return changed, nil
}
