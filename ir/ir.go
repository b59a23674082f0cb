// Package ir implements the pure-value SSA intermediate representation
// that the pass pipeline optimizes. The IR is produced externally by the
// hardware backend's lowering step from a typechecked module; this
// package only models the in-memory structure and the invariants the
// verifier checks.
//
// Nodes are pure values: a node's meaning is entirely determined by its op
// and operands, never by mutable state elsewhere, except for the Proc state
// elements which are the one
// place a value legitimately depends on a prior activation of itself.
package ir

import (
	"fmt"

	"github.com/velalang/velac/types"
)

// Op is the tag of one IR node.
type Op byte

const (
	Invalid Op = iota
	OpParam
	OpLiteral
	OpAdd
	OpSub
	OpUMul
	OpSMul
	OpAnd
	OpOr
	OpXor
	OpNot
	OpNeg
	OpShll
	OpShrl
	OpShra
	OpConcat
	OpEq
	OpNe
	OpULt
	OpULe
	OpUGt
	OpUGe
	OpSLt
	OpSLe
	OpSGt
	OpSGe
	OpIdentity
	OpZeroExt
	OpSignExt
	OpSelect      // Operands[0] is the selector, Operands[1:] are cases (plus optional default, see Node.HasDefault)
	OpTuple       // Operands are the tuple elements in order
	OpArray       // Operands are the array elements in order
	OpTupleIndex  // Operands[0] is the tuple; Index selects the member
	OpArrayIndex  // Operands[0] is the array, Operands[1] is the (possibly OOB-clamped) index
	OpArrayUpdate // Operands[0] array, Operands[1] index, Operands[2] new element
	OpBitSlice    // Operands[0] is the source; Start/Width give the static slice
	OpDynamicBitSlice
	OpCountedFor // Operands[0] init, Operands[1] invariant args...; Body is the loop body function
	OpInvoke     // Operands are call arguments; Callee names the invoked function
	OpMap        // Operands[0] is the array; Callee is applied to every element
	OpSend       // Operands[0] token, Operands[1] data, optional Operands[2] predicate
	OpReceive    // Operands[0] token, optional Operands[1] predicate
	OpAssert     // Operands[0] token, Operands[1] condition
	OpTrace      // Operands[0] token, Operands[1:] are traced values
	OpStateRead  // reads a proc state element; StateElement names which one
	OpNext       // writes the next value of a proc state element; Operands[0] is the new value, optional Operands[1] predicate
)

var opNames = map[Op]string{
	OpParam: "param", OpLiteral: "literal",
	OpAdd: "add", OpSub: "sub", OpUMul: "umul", OpSMul: "smul",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpNot: "not", OpNeg: "neg",
	OpShll: "shll", OpShrl: "shrl", OpShra: "shra", OpConcat: "concat",
	OpEq: "eq", OpNe: "ne",
	OpULt: "ult", OpULe: "ule", OpUGt: "ugt", OpUGe: "uge",
	OpSLt: "slt", OpSLe: "sle", OpSGt: "sgt", OpSGe: "sge",
	OpIdentity: "identity", OpZeroExt: "zero_ext", OpSignExt: "sign_ext",
	OpSelect: "select", OpTuple: "tuple", OpArray: "array",
	OpTupleIndex: "tuple_index", OpArrayIndex: "array_index", OpArrayUpdate: "array_update",
	OpBitSlice: "bit_slice", OpDynamicBitSlice: "dynamic_bit_slice",
	OpCountedFor: "counted_for", OpInvoke: "invoke", OpMap: "map",
	OpSend: "send", OpReceive: "receive", OpAssert: "assert", OpTrace: "trace",
	OpStateRead: "state_read", OpNext: "next",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("invalid(%d)", byte(op))
}

// commutative reports whether swapping Operands[0] and Operands[1] never
// changes the node's value. Used by CanonicalizationPass and
// ReassociationPass.
var commutativeOps = map[Op]bool{
	OpAdd: true, OpUMul: true, OpSMul: true,
	OpAnd: true, OpOr: true, OpXor: true,
	OpEq: true, OpNe: true,
}

func (op Op) Commutative() bool { return commutativeOps[op] }

// associative mirrors commutativeOps for the subset ReassociationPass may
// flatten into n-ary chains; division/shift/compare are excluded even
// though some are commutative-adjacent, keeping reassociation to the
// plainly associative ops.
var associativeOps = map[Op]bool{
	OpAdd: true, OpUMul: true, OpSMul: true,
	OpAnd: true, OpOr: true, OpXor: true,
}

func (op Op) Associative() bool { return associativeOps[op] }

// HasSideEffect reports whether a node must be retained by DCE even with no
// uses: channel operations and assertions have effects beyond their result
// value.
func (op Op) HasSideEffect() bool {
	switch op {
	case OpSend, OpReceive, OpAssert, OpTrace, OpNext:
		return true
	default:
		return false
	}
}

// ID uniquely identifies a Node within the Package that created it. IDs are
// never reused, even across DCE passes that remove the node they named;
// this is what lets the verifier detect a dangling use cheaply (a used ID
// with no backing Node).
type ID uint64

// Node is one pure-value IR node.
type Node struct {
	ID       ID
	Op       Op
	Operands []*Node
	Type     *types.Type

	// Name is an optional debug name (IR text dumps, LabelRecoveryPass).
	Name string

	// Literal is populated for OpLiteral.
	Literal interface{} // value.Value, stored as interface{} to avoid an import cycle with value's test helpers

	// Start, Width describe OpBitSlice.
	Start, Width uint32

	// Index selects the member for OpTupleIndex / the update target for
	// OpArrayUpdate is carried in Operands[1] instead (it may be dynamic).
	Index int

	// HasDefault marks the last entry of OpSelect's Operands[1:] as an
	// unconditional default case (selector value out of range of the
	// explicit cases). TableSwitchPass sets it when it collapses a chain of
	// boolean selects; SelectSimplificationPass honours it when resolving
	// a constant selector.
	HasDefault bool

	// Callee names the invoked/mapped function or loop body for OpInvoke,
	// OpMap, OpCountedFor.
	Callee string

	// TripCount is the (already-constant-folded) iteration count for
	// OpCountedFor.
	TripCount uint32

	// Channel names the channel operated on by OpSend/OpReceive.
	Channel string

	// StateElement names the proc state element read/written by
	// OpStateRead/OpNext.
	StateElement string
}

func (n *Node) String() string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("%s.%d", n.Op, n.ID)
}

// Channel is a declared channel.
type Channel struct {
	ID        ID
	Name      string
	Payload   *types.Type
	FifoDepth uint32
	// Legalized marks a channel that ChannelLegalizationPass has found to
	// have more than one producer; the pass only sets this flag and builds
	// no adapter proc. The verifier relaxes its at-most-one-producer check
	// for these.
	Legalized bool
}

// StateElement is one piece of a Proc's persistent state.
type StateElement struct {
	Name    string
	Type    *types.Type
	Init    interface{} // value.Value
	Param   *Node       // the OpStateRead node reading this element's current value
	NextVal *Node        // the OpNext node (nil until SetNext records one) writing the value for the following activation
}

// Function is a pure, non-stateful IR function (one Vela `fn`, one
// non-parametric instantiation, or one parametric instantiation keyed by
// its resolved env (the key itself lives in the emitter/deducer layer,
// not here).
type Function struct {
	Name   string
	Params []*Node
	Nodes  []*Node // every node owned by this function, in creation order (a valid topological order: a node's operands always appear before it)
	Return *Node
	// Public marks a function reachable from outside the package (a test,
	// an exported proc's config/next, or an external driver entry point).
	// DeadFunctionEliminationPass treats every Public function as a root.
	Public bool
	nextID *ID
}

// Proc is a long-lived stateful construct with channels: the IR-level
// residue of a Vela `proc`'s `config`/`next`/`init` after the deducer and
// emitter have run.
type Proc struct {
	Name     string
	Params   []*Node // config-resolved constant channel/parameter nodes
	State    []*StateElement
	Nodes    []*Node
	Channels []string // channels this proc sends/receives on
	nextID   *ID
}

// Package is the top-level optimization unit.
type Package struct {
	Name      string
	Functions []*Function
	Procs     []*Proc
	Channels  map[string]*Channel

	funcByName map[string]*Function
	procByName map[string]*Proc
	idCounter  ID
}

// NewPackage creates an empty package named name.
func NewPackage(name string) *Package {
	return &Package{
		Name:       name,
		Channels:   make(map[string]*Channel),
		funcByName: make(map[string]*Function),
		procByName: make(map[string]*Proc),
	}
}

// AddChannel registers ch. Channel names are unique within a package.
func (p *Package) AddChannel(ch *Channel) {
	p.idCounter++
	ch.ID = p.idCounter
	p.Channels[ch.Name] = ch
}

// Channel looks up a channel by name.
func (p *Package) Channel(name string) (*Channel, bool) {
	ch, ok := p.Channels[name]
	return ch, ok
}

// FreshID mints a new globally-unique node ID. Passes that synthesize a
// brand-new node (a shift-amount literal for StrengthReductionPass, a
// combined literal for ReassociationPass, per-member state reads for
// ProcStateFlatteningPass, cloned bodies for the inlining and unrolling
// passes) use this rather than reusing an existing node's ID, so
// that two structurally-different nodes never alias one identity.
func (p *Package) FreshID() ID { return nextID(&p.idCounter) }

// NewFunction creates and registers an empty function named name.
func (p *Package) NewFunction(name string) *Function {
	f := &Function{Name: name, nextID: &p.idCounter}
	p.Functions = append(p.Functions, f)
	p.funcByName[name] = f
	return f
}

// Function looks up a function by name.
func (p *Package) Function(name string) (*Function, bool) {
	f, ok := p.funcByName[name]
	return f, ok
}

// RemoveFunctions drops every function for which keep reports false,
// rebuilding the name index. Used by DeadFunctionEliminationPass.
func (p *Package) RemoveFunctions(keep func(*Function) bool) {
	kept := p.Functions[:0:0]
	for _, f := range p.Functions {
		if keep(f) {
			kept = append(kept, f)
		} else {
			delete(p.funcByName, f.Name)
		}
	}
	p.Functions = kept
}

// NewProc creates and registers an empty proc named name.
func (p *Package) NewProc(name string) *Proc {
	pr := &Proc{Name: name, nextID: &p.idCounter}
	p.Procs = append(p.Procs, pr)
	p.procByName[name] = pr
	return pr
}

// Proc looks up a proc by name.
func (p *Package) Proc(name string) (*Proc, bool) {
	pr, ok := p.procByName[name]
	return pr, ok
}

func nextID(counter *ID) ID {
	*counter++
	return *counter
}
