package ir

import "github.com/velalang/velac/types"

// addNode assigns n a fresh ID, appends it to *nodes, and returns it. Every
// Add* builder method below funnels through here so that ID allocation is
// the single place new nodes are born.
func addNode(nodes *[]*Node, counter *ID, n *Node) *Node {
	n.ID = nextID(counter)
	*nodes = append(*nodes, n)
	return n
}

// AddParam appends a new parameter node to f. Parameters occupy the front
// of f.Params and also live in f.Nodes like any other node, mirroring the
// bytecode package's "parameters occupy the first N slots" convention.
func (f *Function) AddParam(name string, t *types.Type) *Node {
	n := addNode(&f.Nodes, f.nextID, &Node{Op: OpParam, Name: name, Type: t})
	f.Params = append(f.Params, n)
	return n
}

// AddLiteral appends a literal-value node. v is a value.Value; it is kept
// as interface{} to avoid ir depending on value's test-only helpers.
func (f *Function) AddLiteral(v interface{}, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpLiteral, Literal: v, Type: t})
}

// AddBinOp appends a binary-operator node over a, b.
func (f *Function) AddBinOp(op Op, a, b *Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: op, Operands: []*Node{a, b}, Type: t})
}

// AddUnary appends a unary-operator node (Not, Neg, Identity, ZeroExt,
// SignExt) over a.
func (f *Function) AddUnary(op Op, a *Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: op, Operands: []*Node{a}, Type: t})
}

// AddBitSlice appends a static bit-slice node over a.
func (f *Function) AddBitSlice(a *Node, start, width uint32, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpBitSlice, Operands: []*Node{a}, Start: start, Width: width, Type: t})
}

// AddSelect appends a select (mux) node: selector chooses among cases;
// hasDefault marks the final case as the unconditional fallback.
func (f *Function) AddSelect(selector *Node, cases []*Node, hasDefault bool, t *types.Type) *Node {
	operands := append([]*Node{selector}, cases...)
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpSelect, Operands: operands, HasDefault: hasDefault, Type: t})
}

// AddTuple appends a tuple-construction node.
func (f *Function) AddTuple(elems []*Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpTuple, Operands: elems, Type: t})
}

// AddArray appends an array-construction node.
func (f *Function) AddArray(elems []*Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpArray, Operands: elems, Type: t})
}

// AddTupleIndex appends a tuple-member-access node.
func (f *Function) AddTupleIndex(tuple *Node, index int, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpTupleIndex, Operands: []*Node{tuple}, Index: index, Type: t})
}

// AddArrayIndex appends an array-indexing node (index may be dynamic).
func (f *Function) AddArrayIndex(arr, index *Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpArrayIndex, Operands: []*Node{arr, index}, Type: t})
}

// AddArrayUpdate appends a functional array-update node.
func (f *Function) AddArrayUpdate(arr, index, elem *Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpArrayUpdate, Operands: []*Node{arr, index, elem}, Type: t})
}

// AddInvoke appends a call to a non-parametric function.
func (f *Function) AddInvoke(callee string, args []*Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpInvoke, Callee: callee, Operands: args, Type: t})
}

// AddMap appends a map-over-array node.
func (f *Function) AddMap(callee string, arr *Node, t *types.Type) *Node {
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpMap, Callee: callee, Operands: []*Node{arr}, Type: t})
}

// AddCountedFor appends a fixed-trip-count loop node.
func (f *Function) AddCountedFor(callee string, tripCount uint32, init *Node, invariant []*Node, t *types.Type) *Node {
	operands := append([]*Node{init}, invariant...)
	return addNode(&f.Nodes, f.nextID, &Node{Op: OpCountedFor, Callee: callee, TripCount: tripCount, Operands: operands, Type: t})
}

// SetReturn marks n as f's return value. n must already belong to f.Nodes.
func (f *Function) SetReturn(n *Node) { f.Return = n }

// --- Proc builders mirror the Function ones, plus proc-only ops. ---

// AddParam appends a config-resolved parameter node to pr.
func (pr *Proc) AddParam(name string, t *types.Type) *Node {
	n := addNode(&pr.Nodes, pr.nextID, &Node{Op: OpParam, Name: name, Type: t})
	pr.Params = append(pr.Params, n)
	return n
}

// AddLiteral appends a literal-value node to pr.
func (pr *Proc) AddLiteral(v interface{}, t *types.Type) *Node {
	return addNode(&pr.Nodes, pr.nextID, &Node{Op: OpLiteral, Literal: v, Type: t})
}

// AddBinOp appends a binary-operator node to pr.
func (pr *Proc) AddBinOp(op Op, a, b *Node, t *types.Type) *Node {
	return addNode(&pr.Nodes, pr.nextID, &Node{Op: op, Operands: []*Node{a, b}, Type: t})
}

// AddStateElement declares a new persistent state element with the given
// init value and returns the OpStateRead node that reads its current value.
func (pr *Proc) AddStateElement(name string, t *types.Type, init interface{}) *StateElement {
	read := addNode(&pr.Nodes, pr.nextID, &Node{Op: OpStateRead, StateElement: name, Type: t})
	se := &StateElement{Name: name, Type: t, Init: init, Param: read}
	pr.State = append(pr.State, se)
	return se
}

// SetNext records the next-activation value for a state element, producing
// its OpNext node. predicate, if non-nil, gates whether the update fires.
func (pr *Proc) SetNext(se *StateElement, value, predicate *Node) *Node {
	operands := []*Node{value}
	if predicate != nil {
		operands = append(operands, predicate)
	}
	n := addNode(&pr.Nodes, pr.nextID, &Node{Op: OpNext, StateElement: se.Name, Operands: operands})
	se.NextVal = n
	return n
}

// AddSend appends a channel-send node. predicate, if non-nil, gates the send.
func (pr *Proc) AddSend(channel string, token, data, predicate *Node) *Node {
	operands := []*Node{token, data}
	if predicate != nil {
		operands = append(operands, predicate)
	}
	n := addNode(&pr.Nodes, pr.nextID, &Node{Op: OpSend, Channel: channel, Operands: operands, Type: token.Type})
	pr.addChannelUse(channel)
	return n
}

// AddReceive appends a channel-receive node, returning a (Token, payload)
// tuple node (the Vela emitter's surface keeps these separate via an
// implicit tuple, matching how Spawn's `next` prepends a Token parameter).
func (pr *Proc) AddReceive(channel string, token, predicate *Node, payloadType *types.Type) *Node {
	operands := []*Node{token}
	if predicate != nil {
		operands = append(operands, predicate)
	}
	n := addNode(&pr.Nodes, pr.nextID, &Node{Op: OpReceive, Channel: channel, Operands: operands, Type: payloadType})
	pr.addChannelUse(channel)
	return n
}

// AddAssert appends an assertion node.
func (pr *Proc) AddAssert(token, cond *Node) *Node {
	return addNode(&pr.Nodes, pr.nextID, &Node{Op: OpAssert, Operands: []*Node{token, cond}, Type: token.Type})
}

// AddTrace appends a trace (debug-print) node.
func (pr *Proc) AddTrace(token *Node, values []*Node) *Node {
	operands := append([]*Node{token}, values...)
	return addNode(&pr.Nodes, pr.nextID, &Node{Op: OpTrace, Operands: operands, Type: token.Type})
}

func (pr *Proc) addChannelUse(channel string) {
	for _, c := range pr.Channels {
		if c == channel {
			return
		}
	}
	pr.Channels = append(pr.Channels, channel)
}
