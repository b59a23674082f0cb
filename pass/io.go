package pass

import "github.com/velalang/velac/ir"

// UselessAssertRemovalPass drops an assert whose condition is the literal
// constant true: it can never fire, so it carries no information besides
// passing its token through unchanged.
type UselessAssertRemovalPass struct{}

func NewUselessAssertRemovalPass() Pass { return UselessAssertRemovalPass{} }

func (UselessAssertRemovalPass) Name() string { return "useless_assert_removal" }

func (UselessAssertRemovalPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if n.Op != ir.OpAssert {
				continue
			}
			cond, ok := literalValue(n.Operands[1])
			if !ok || !cond.IsTrue() {
				continue
			}
			n.Op = ir.OpIdentity
			n.Operands = []*ir.Node{n.Operands[0]}
			changed = true
		}
	}
	return changed, nil
}

// UselessIORemovalPass drops a channel send gated by a predicate that is
// the literal constant false: it never fires, so it degenerates to passing
// its token through.
// Receives are left alone even when similarly gated, since a
// never-firing receive still needs a default value the type checker
// resolved at a layer this IR does not model.
type UselessIORemovalPass struct{}

func NewUselessIORemovalPass() Pass { return UselessIORemovalPass{} }

func (UselessIORemovalPass) Name() string { return "useless_io_removal" }

func (UselessIORemovalPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if n.Op != ir.OpSend || len(n.Operands) != 3 {
				continue
			}
			pred, ok := literalValue(n.Operands[2])
			if !ok || pred.IsTrue() {
				continue
			}
			n.Op = ir.OpIdentity
			n.Operands = []*ir.Node{n.Operands[0]}
			n.Channel = ""
			changed = true
		}
	}
	return changed, nil
}

// RamRewritePass recognizes a channel pair named "<ram>_req"/"<ram>_resp"
// and marks both legalized, standing in for the real RAM-port rewrite the
// hardware backend performs once it lowers these into physical memory
// ports. Packages with no such channel pair are left unchanged; this is
// the common case, not a failure.
type RamRewritePass struct{}

func NewRamRewritePass() Pass { return RamRewritePass{} }

func (RamRewritePass) Name() string { return "ram_rewrite" }

func (RamRewritePass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	const reqSuffix = "_req"
	for name, ch := range pkg.Channels {
		if len(name) <= len(reqSuffix) || name[len(name)-len(reqSuffix):] != reqSuffix {
			continue
		}
		base := name[:len(name)-len(reqSuffix)]
		resp, ok := pkg.Channel(base + "_resp")
		if !ok {
			continue
		}
		if !ch.Legalized {
			ch.Legalized = true
			changed = true
		}
		if !resp.Legalized {
			resp.Legalized = true
			changed = true
		}
	}
	return changed, nil
}
