package pass

import "github.com/velalang/velac/ir"

// replaceInFunction rewrites every use of old (within f's nodes, and f's
// Return if it is old) to replacement. Shared by every simplification pass
// that proves two nodes equivalent and wants DCE to clean up the original.
func replaceInFunction(f *ir.Function, old, replacement *ir.Node) bool {
	changed := ir.ReplaceAllUses(f.Nodes, old, replacement) > 0
	if f.Return == old {
		f.Return = replacement
		changed = true
	}
	return changed
}

// replaceInProc mirrors replaceInFunction for a Proc's state-element links.
func replaceInProc(p *ir.Proc, old, replacement *ir.Node) bool {
	changed := ir.ReplaceAllUses(p.Nodes, old, replacement) > 0
	for _, se := range p.State {
		if se.NextVal == old {
			se.NextVal = replacement
			changed = true
		}
	}
	return changed
}
