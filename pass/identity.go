package pass

import "github.com/velalang/velac/ir"

// IdentityRemovalPass replaces every explicit OpIdentity node with its
// operand everywhere it is used. It never deletes the identity node
// itself from the owning
// Nodes slice; DeadCodeEliminationPass does that once its use count drops
// to zero, keeping each pass single-purpose.
type IdentityRemovalPass struct{}

func NewIdentityRemovalPass() Pass { return IdentityRemovalPass{} }

func (IdentityRemovalPass) Name() string { return "identity_removal" }

func (IdentityRemovalPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			if n.Op != ir.OpIdentity {
				continue
			}
			src := n.Operands[0]
			if ir.ReplaceAllUses(f.Nodes, n, src) > 0 {
				changed = true
			}
			if f.Return == n {
				f.Return = src
				changed = true
			}
		}
	}
	for _, p := range pkg.Procs {
		for _, n := range p.Nodes {
			if n.Op != ir.OpIdentity {
				continue
			}
			src := n.Operands[0]
			if ir.ReplaceAllUses(p.Nodes, n, src) > 0 {
				changed = true
			}
			for _, se := range p.State {
				if se.NextVal == n {
					se.NextVal = src
					changed = true
				}
			}
		}
	}
	return changed, nil
}
