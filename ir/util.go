package ir

// UseCounts returns, for every node in nodes, how many times it is
// referenced as an operand by another node in nodes. Passes use this to
// decide what DCE may remove.
func UseCounts(nodes []*Node) map[ID]int {
	counts := make(map[ID]int, len(nodes))
	for _, n := range nodes {
		for _, o := range n.Operands {
			counts[o.ID]++
		}
	}
	return counts
}

// ReplaceAllUses rewrites every operand reference to old (anywhere in
// nodes) to point at replacement instead. It does not remove old itself;
// a subsequent DCE pass drops it once its use count reaches zero. Returns
// the number of operand slots rewritten.
func ReplaceAllUses(nodes []*Node, old, replacement *Node) int {
	n := 0
	for _, node := range nodes {
		for i, o := range node.Operands {
			if o.ID == old.ID {
				node.Operands[i] = replacement
				n++
			}
		}
	}
	return n
}

// Filter returns the subsequence of nodes for which keep reports true,
// preserving relative order (and therefore the topological-order
// invariant the verifier relies on).
func Filter(nodes []*Node, keep func(*Node) bool) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits every node reachable from roots, each exactly once, calling
// visit in post-order: every operand is visited before the nodes that use
// it.
func Walk(roots []*Node, visit func(*Node)) {
	visited := make(map[ID]bool)
	var rec func(*Node)
	rec = func(n *Node) {
		if n == nil || visited[n.ID] {
			return
		}
		visited[n.ID] = true
		for _, o := range n.Operands {
			rec(o)
		}
		visit(n)
	}
	for _, r := range roots {
		rec(r)
	}
}
