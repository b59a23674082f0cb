package pass

import (
	"fmt"

	"github.com/velalang/velac/ir"
)

// ProcStateFlatteningPass splits every tuple-typed state element into one
// state element per tuple member, so downstream per-element
// optimization (narrowing,
// next-value optimization) can see each field independently instead of
// through an opaque tuple.
type ProcStateFlatteningPass struct{}

func NewProcStateFlatteningPass() Pass { return ProcStateFlatteningPass{} }

func (ProcStateFlatteningPass) Name() string { return "proc_state_flattening" }

func (ProcStateFlatteningPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, pr := range pkg.Procs {
		var newState []*ir.StateElement
		for _, se := range pr.State {
			if se.Type == nil || se.Type.Kind().String() != "tuple" {
				newState = append(newState, se)
				continue
			}
			members := se.Type.Members()
			flattened := make([]*ir.StateElement, len(members))
			for i, mt := range members {
				read := &ir.Node{ID: pkg.FreshID(), Op: ir.OpStateRead, StateElement: fmt.Sprintf("%s.%d", se.Name, i), Type: mt}
				pr.Nodes = append(pr.Nodes, read)
				flattened[i] = &ir.StateElement{Name: read.StateElement, Type: mt, Param: read}
			}
			// Replace every use of the tuple read with a re-synthesized tuple
			// of the flattened reads, letting DataflowSimplificationPass
			// collapse any immediate tuple_index straight back to the
			// member it names.
			rebuilt := &ir.Node{ID: pkg.FreshID(), Op: ir.OpTuple, Type: se.Type}
			for _, fse := range flattened {
				rebuilt.Operands = append(rebuilt.Operands, fse.Param)
			}
			pr.Nodes = append(pr.Nodes, rebuilt)
			ir.ReplaceAllUses(pr.Nodes, se.Param, rebuilt)

			if se.NextVal != nil {
				nextTuple := se.NextVal.Operands[0]
				if nextTuple.Op == ir.OpTuple && len(nextTuple.Operands) == len(members) {
					for i, fse := range flattened {
						pr.SetNext(fse, nextTuple.Operands[i], nextPredicate(se.NextVal))
					}
				}
			}
			newState = append(newState, flattened...)
			changed = true
		}
		pr.State = newState
	}
	return changed, nil
}

func nextPredicate(next *ir.Node) *ir.Node {
	if len(next.Operands) > 1 {
		return next.Operands[1]
	}
	return nil
}

// DataflowSimplificationPass collapses a tuple_index that directly
// observes a freshly-constructed tuple to the named member. It looks at
// tuple_index nodes only; selects are not simplified here.
type DataflowSimplificationPass struct{}

func NewDataflowSimplificationPass() Pass { return DataflowSimplificationPass{} }

func (DataflowSimplificationPass) Name() string { return "dataflow_simp" }

func (DataflowSimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			if n.Op != ir.OpTupleIndex {
				continue
			}
			tuple := n.Operands[0]
			if tuple.Op != ir.OpTuple || n.Index < 0 || n.Index >= len(tuple.Operands) {
				continue
			}
			if replace(n, tuple.Operands[n.Index]) {
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

// NextValueOptimizationPass rewrites a state element's next-value from
// `next(select(pred, newVal, currentVal))` into the predicated form
// `next(newVal, pred)` when currentVal is exactly that element's own
// current read: the
// update only needs to fire, guarded by pred, instead of muxing against
// its own prior value every activation.
type NextValueOptimizationPass struct{ optLevel int }

func NewNextValueOptimizationPass(optLevel int) Pass { return NextValueOptimizationPass{optLevel: optLevel} }

func (NextValueOptimizationPass) Name() string { return "next_value_opt" }

func (NextValueOptimizationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, pr := range pkg.Procs {
		for _, se := range pr.State {
			if se.NextVal == nil || len(se.NextVal.Operands) != 1 {
				continue
			}
			val := se.NextVal.Operands[0]
			if val.Op != ir.OpSelect || len(val.Operands) != 3 {
				continue
			}
			pred, newVal, keep := val.Operands[0], val.Operands[1], val.Operands[2]
			if keep.ID != se.Param.ID {
				continue
			}
			se.NextVal.Operands = []*ir.Node{newVal, pred}
			changed = true
		}
	}
	return changed, nil
}

// ProcStateOptimizationPass removes a state element whose next value is
// always its own current value (a state element the proc declares but
// never actually updates), since it carries no information across
// activations.
type ProcStateOptimizationPass struct{}

func NewProcStateOptimizationPass() Pass { return ProcStateOptimizationPass{} }

func (ProcStateOptimizationPass) Name() string { return "proc_state_opt" }

func (ProcStateOptimizationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, pr := range pkg.Procs {
		var kept []*ir.StateElement
		for _, se := range pr.State {
			if se.NextVal != nil && len(se.NextVal.Operands) == 1 && se.NextVal.Operands[0].ID == se.Param.ID {
				pr.Nodes = ir.Filter(pr.Nodes, func(n *ir.Node) bool { return n.ID != se.NextVal.ID })
				changed = true
				continue
			}
			kept = append(kept, se)
		}
		pr.State = kept
	}
	return changed, nil
}
