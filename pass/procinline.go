package pass

import (
	"sort"

	"github.com/velalang/velac/ir"
)

// ProcInliningPass merges a single-producer/single-consumer channel
// connecting two procs by splicing the producing proc's send data directly
// into the consuming proc's receive site, eliminating the channel
// indirection. It only fires on
// channels with exactly one Send and one Receive, neither predicated and
// the channel not legalized (a legalized, multi-producer channel needs the
// arbiter the external hardware backend builds, and is left alone).
type ProcInliningPass struct{}

func NewProcInliningPass() Pass { return ProcInliningPass{} }

func (ProcInliningPass) Name() string { return "proc_inlining" }

func (ProcInliningPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	names := make([]string, 0, len(pkg.Channels))
	for name := range pkg.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := false
	for _, name := range names {
		ch := pkg.Channels[name]
		if ch.Legalized {
			continue
		}
		sender, send := findSend(pkg, name)
		receiver, recv := findReceive(pkg, name)
		if sender == nil || receiver == nil || sender == receiver {
			continue
		}
		if len(send.Operands) != 2 || len(recv.Operands) != 1 {
			continue // predicated send/receive: leave the channel op in place
		}
		data := send.Operands[1]
		if data.Op != ir.OpLiteral {
			// Splicing a computed value across the proc boundary would
			// require migrating its whole operand cone into the receiver;
			// only the literal case is cheap enough to fold here.
			continue
		}
		// The receive node's consumers expect a (token, payload) result;
		// once inlined there is no real channel hop, so its token operand
		// passes straight through and the payload is a receiver-owned clone
		// of the sent literal (operands may not cross proc ownership).
		token := recv.Operands[0]
		cloned := &ir.Node{ID: pkg.FreshID(), Op: ir.OpLiteral, Literal: data.Literal, Type: data.Type}
		receiver.Nodes = append(receiver.Nodes, cloned)
		replaced := &ir.Node{ID: pkg.FreshID(), Op: ir.OpTuple, Type: recv.Type, Operands: []*ir.Node{token, cloned}}
		receiver.Nodes = append(receiver.Nodes, replaced)
		replaceInProc(receiver, recv, replaced)
		// Drop the now-inert send from the producing proc; DCE will remove
		// the sent literal itself if nothing else references it.
		send.Op = ir.OpIdentity
		send.Operands = []*ir.Node{send.Operands[0]}
		send.Channel = ""
		changed = true
	}
	return changed, nil
}

func findSend(pkg *ir.Package, channel string) (*ir.Proc, *ir.Node) {
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if n.Op == ir.OpSend && n.Channel == channel {
				return pr, n
			}
		}
	}
	return nil, nil
}

func findReceive(pkg *ir.Package, channel string) (*ir.Proc, *ir.Node) {
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			if n.Op == ir.OpReceive && n.Channel == channel {
				return pr, n
			}
		}
	}
	return nil, nil
}
