package pass

import (
	"github.com/velalang/velac/ir"
	"github.com/velalang/velac/types"
)

// BitSliceSimplificationPass collapses slice-of-slice into a single slice
// and removes a full-width slice entirely.
type BitSliceSimplificationPass struct{ optLevel int }

func NewBitSliceSimplificationPass(optLevel int) Pass { return BitSliceSimplificationPass{optLevel: optLevel} }

func (BitSliceSimplificationPass) Name() string { return "bitslice_simp" }

func (p BitSliceSimplificationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	simplify := func(nodes []*ir.Node, replace func(old, new *ir.Node) bool) {
		for _, n := range nodes {
			if n.Op != ir.OpBitSlice {
				continue
			}
			src := n.Operands[0]
			if src.Op == ir.OpBitSlice {
				// slice-of-slice: collapse into one slice of the original source.
				n.Operands[0] = src.Operands[0]
				n.Start = src.Start + n.Start
				changed = true
				continue
			}
			if n.Start == 0 && src.Type != nil && n.Type != nil && sameWidth(src.Type, n.Type) {
				if replace(n, src) {
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

// sameWidth reports whether a and b are both concrete Bits types of equal
// width (the condition under which a "full-width" slice is a no-op).
func sameWidth(a, b *types.Type) bool {
	if a == nil || b == nil || a.Kind() != types.BitsKind || b.Kind() != types.BitsKind {
		return false
	}
	sa, sb := a.Size(), b.Size()
	if sa == nil || sb == nil || !sa.IsConst() || !sb.IsConst() {
		return false
	}
	return sa.ConstValue() == sb.ConstValue()
}
