package pass

import (
	"fmt"
	"strings"

	"github.com/velalang/velac/ir"
)

// CsePass value-numbers structurally identical nodes within one
// function/proc and replaces later duplicates with the first
// occurrence. Two nodes are equivalent when they share an op, operand
// identity sequence, and op-specific payload (literal value, slice
// bounds, tuple index, callee name, state element, extension type). A
// parameter is never merged with another node.
type CsePass struct{}

func NewCsePass() Pass { return CsePass{} }

func (CsePass) Name() string { return "cse" }

func (CsePass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		if cseNodes(f.Nodes, func(old, new *ir.Node) { replaceInFunction(f, old, new) }) {
			changed = true
		}
	}
	for _, pr := range pkg.Procs {
		if cseNodes(pr.Nodes, func(old, new *ir.Node) { replaceInProc(pr, old, new) }) {
			changed = true
		}
	}
	return changed, nil
}

func cseNodes(nodes []*ir.Node, replace func(old, new *ir.Node)) bool {
	changed := false
	seen := make(map[string]*ir.Node, len(nodes))
	for _, n := range nodes {
		if n.Op.HasSideEffect() {
			continue // never coalesce sends/receives/asserts/traces
		}
		key := cseKey(n)
		if existing, ok := seen[key]; ok {
			replace(n, existing)
			changed = true
			continue
		}
		seen[key] = n
	}
	return changed
}

func cseKey(n *ir.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|", n.Op)
	for _, o := range n.Operands {
		fmt.Fprintf(&b, "%d,", o.ID)
	}
	switch n.Op {
	case ir.OpLiteral:
		fmt.Fprintf(&b, "|lit=%v", n.Literal)
	case ir.OpBitSlice:
		fmt.Fprintf(&b, "|start=%d,width=%d", n.Start, n.Width)
	case ir.OpTupleIndex:
		fmt.Fprintf(&b, "|index=%d", n.Index)
	case ir.OpSelect:
		fmt.Fprintf(&b, "|default=%v", n.HasDefault)
	case ir.OpInvoke, ir.OpMap, ir.OpCountedFor:
		fmt.Fprintf(&b, "|callee=%s,trip=%d", n.Callee, n.TripCount)
	case ir.OpParam:
		fmt.Fprintf(&b, "|param=%d", n.ID)
	case ir.OpStateRead:
		fmt.Fprintf(&b, "|state=%s", n.StateElement)
	case ir.OpZeroExt, ir.OpSignExt:
		fmt.Fprintf(&b, "|type=%s", n.Type)
	}
	return b.String()
}
