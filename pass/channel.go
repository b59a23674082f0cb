package pass

import "github.com/velalang/velac/ir"

// ChannelLegalizationPass marks every channel with more than one producer
// as legalized, the precondition the verifier's at-most-one-producer check
// relaxes for. Constructing
// the arbiter adapter proc that actually serializes the competing sends is
// hardware-lowering work the external backend performs; this
// pass only records that legalization has been accounted for so the
// verifier does not reject an intentionally multi-producer channel.
type ChannelLegalizationPass struct{}

func NewChannelLegalizationPass() Pass { return ChannelLegalizationPass{} }

func (ChannelLegalizationPass) Name() string { return "channel_legalization" }

func (ChannelLegalizationPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	producers := make(map[string]int)
	for _, pr := range pkg.Procs {
		countedInProc := make(map[string]bool)
		for _, n := range pr.Nodes {
			if n.Op == ir.OpSend && !countedInProc[n.Channel] {
				producers[n.Channel]++
				countedInProc[n.Channel] = true
			}
		}
	}
	changed := false
	for name, count := range producers {
		if count <= 1 {
			continue
		}
		ch, ok := pkg.Channel(name)
		if ok && !ch.Legalized {
			ch.Legalized = true
			changed = true
		}
	}
	return changed, nil
}

// TokenDependencyPass checks that every channel operation within a proc
// takes a Token-typed first operand, and returns an error naming the proc
// and the operation when one does not. It does not check that two channel
// operations share token ancestry. The pass makes no IR change: it exists in the
// pipeline to validate, not transform, once proc inlining is free to
// rewire token plumbing (the step that follows it in the pipeline).
type TokenDependencyPass struct{}

func NewTokenDependencyPass() Pass { return TokenDependencyPass{} }

func (TokenDependencyPass) Name() string { return "token_dependency" }

func (TokenDependencyPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if n.Op != ir.OpSend && n.Op != ir.OpReceive {
				continue
			}
			if len(n.Operands) == 0 || n.Operands[0].Type == nil {
				continue
			}
			if n.Operands[0].Type.Kind().String() != "token" {
				return false, errTokenDependency(pr.Name, n)
			}
		}
	}
	return false, nil
}

func errTokenDependency(proc string, n *ir.Node) error {
	return &channelOpMissingTokenError{proc: proc, node: n}
}

type channelOpMissingTokenError struct {
	proc string
	node *ir.Node
}

func (e *channelOpMissingTokenError) Error() string {
	return "proc " + e.proc + ": channel op " + e.node.String() + " does not chain through a Token operand"
}
