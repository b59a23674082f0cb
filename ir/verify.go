package ir

import (
	"fmt"

	"github.com/velalang/velac/types"
)

// Verify checks IR well-formedness: no
// dangling uses, type agreement on edges, unique node IDs, no cycles
// except through proc state, and channel-use legality. It is run by
// pass.VerifierChecker after every top-level pass; a failure there is
// fatal to the run.
func Verify(p *Package) error {
	seen := make(map[ID]bool)
	for _, f := range p.Functions {
		if err := verifyNodes(f.Nodes, seen); err != nil {
			return fmt.Errorf("function %s: %w", f.Name, err)
		}
		if f.Return != nil && !seen[f.Return.ID] {
			return fmt.Errorf("function %s: return node not owned by function", f.Name)
		}
	}
	for _, pr := range p.Procs {
		if err := verifyNodes(pr.Nodes, seen); err != nil {
			return fmt.Errorf("proc %s: %w", pr.Name, err)
		}
		for _, se := range pr.State {
			if se.Param != nil && !seen[se.Param.ID] {
				return fmt.Errorf("proc %s: state element %q param not owned by proc", pr.Name, se.Name)
			}
		}
	}
	return verifyChannelUse(p)
}

// verifyNodes checks one function/proc's node list: unique IDs, no
// dangling operand references, no cycles (the node graph must be a DAG;
// passes may append newly synthesized nodes after existing users that were
// mutated in place to reference them, so membership is checked rather than
// append order), and basic type agreement per op.
func verifyNodes(nodes []*Node, globalSeen map[ID]bool) error {
	local := make(map[ID]bool, len(nodes))
	byID := make(map[ID]*Node, len(nodes))
	for _, n := range nodes {
		if n.ID == 0 {
			return fmt.Errorf("node %s has unassigned ID", n.Op)
		}
		if local[n.ID] {
			return fmt.Errorf("duplicate node ID %d", n.ID)
		}
		local[n.ID] = true
		globalSeen[n.ID] = true
		byID[n.ID] = n
	}
	for _, n := range nodes {
		for _, opnd := range n.Operands {
			if opnd == nil {
				return fmt.Errorf("node %s has a nil operand", n)
			}
			if !local[opnd.ID] {
				return fmt.Errorf("node %s uses operand %s not owned by the same function/proc (dangling use)", n, opnd)
			}
		}
		if err := verifyNodeType(n); err != nil {
			return fmt.Errorf("node %s: %w", n, err)
		}
	}
	return checkAcyclic(nodes, byID)
}

// checkAcyclic runs a coloring DFS over the operand graph and fails on any
// back-edge.
func checkAcyclic(nodes []*Node, byID map[ID]*Node) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ID]int, len(nodes))
	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch color[n.ID] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("cycle detected at node %s", n)
		}
		color[n.ID] = gray
		for _, o := range n.Operands {
			if err := visit(o); err != nil {
				return err
			}
		}
		color[n.ID] = black
		return nil
	}
	for _, n := range nodes {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

func verifyNodeType(n *Node) error {
	switch n.Op {
	case OpAdd, OpSub, OpUMul, OpSMul, OpAnd, OpOr, OpXor, OpShll, OpShrl, OpShra:
		if len(n.Operands) != 2 {
			return fmt.Errorf("%s requires exactly 2 operands, got %d", n.Op, len(n.Operands))
		}
		if n.Op != OpShll && n.Op != OpShrl && n.Op != OpShra {
			if !types.Equal(n.Operands[0].Type, n.Operands[1].Type) {
				return fmt.Errorf("%s operand types disagree: %s vs %s", n.Op, n.Operands[0].Type, n.Operands[1].Type)
			}
		}
	case OpEq, OpNe, OpULt, OpULe, OpUGt, OpUGe, OpSLt, OpSLe, OpSGt, OpSGe:
		if len(n.Operands) != 2 {
			return fmt.Errorf("%s requires exactly 2 operands, got %d", n.Op, len(n.Operands))
		}
		if !types.Equal(n.Operands[0].Type, n.Operands[1].Type) {
			return fmt.Errorf("%s operand types disagree: %s vs %s", n.Op, n.Operands[0].Type, n.Operands[1].Type)
		}
	case OpBitSlice:
		if len(n.Operands) != 1 {
			return fmt.Errorf("bit_slice requires exactly 1 operand")
		}
		if n.Operands[0].Type != nil && n.Operands[0].Type.Kind() != types.BitsKind {
			return fmt.Errorf("bit_slice operand must be Bits, got %s", n.Operands[0].Type)
		}
	case OpSelect:
		if len(n.Operands) < 2 {
			return fmt.Errorf("select requires a selector and at least one case")
		}
		for _, c := range n.Operands[1:] {
			if n.Type != nil && c.Type != nil && !types.Equal(n.Type, c.Type) {
				return fmt.Errorf("select case type %s disagrees with result type %s", c.Type, n.Type)
			}
		}
	case OpTupleIndex:
		if len(n.Operands) != 1 {
			return fmt.Errorf("tuple_index requires exactly 1 operand")
		}
	case OpArrayIndex:
		if len(n.Operands) != 2 {
			return fmt.Errorf("array_index requires exactly 2 operands")
		}
	case OpArrayUpdate:
		if len(n.Operands) != 3 {
			return fmt.Errorf("array_update requires exactly 3 operands")
		}
	case OpNext:
		if len(n.Operands) == 0 {
			return fmt.Errorf("next requires a value operand")
		}
	}
	return nil
}

// verifyChannelUse checks send/receive direction correctness is implicit in
// which builder method was called (AddSend vs AddReceive), and that no
// channel has more than one
// producer unless it has already been routed through ChannelLegalizationPass.
func verifyChannelUse(p *Package) error {
	producers := make(map[string]int)
	for _, pr := range p.Procs {
		seenInThisProc := make(map[string]bool)
		for _, n := range pr.Nodes {
			if n.Op != OpSend {
				continue
			}
			if !seenInThisProc[n.Channel] {
				producers[n.Channel]++
				seenInThisProc[n.Channel] = true
			}
		}
	}
	for name, count := range producers {
		ch, ok := p.Channel(name)
		if !ok {
			return fmt.Errorf("send to undeclared channel %q", name)
		}
		if count > 1 && !ch.Legalized {
			return fmt.Errorf("channel %q has %d producers and has not been legalized", name, count)
		}
	}
	return nil
}
