// Package ast implements the syntax tree model: an arena of
// nodes addressed by stable NodeID indices rather than pointers, with
// parent pointers computed once after parsing completes. The AST is
// independent of the types package: type-annotation nodes
// here represent surface syntax ("this expression was written as u32"), not
// resolved types; the deducer (package deduce) is what turns a TypeExpr
// node into a *types.Type.
package ast

import (
	"text/scanner"

	"github.com/velalang/velac/symbol"
)

// Span is a source position, reused verbatim from the scanner package.
type Span = scanner.Position

// NodeID is a stable index into a Tree's arena. The zero NodeID is invalid.
type NodeID int32

const InvalidNode NodeID = -1

// Kind tags every node shape in the tree.
type Kind byte

const (
	Invalid Kind = iota

	// Expressions
	LitExpr
	VarRefExpr
	ColonRefExpr
	BinaryExpr
	UnaryExpr
	CondExpr
	MatchExpr
	LetExpr
	CastExpr
	ConstAssertExpr
	ForExpr
	BlockExpr
	TupleLitExpr
	ArrayLitExpr
	StructLitExpr
	SplatStructLitExpr
	AttrExpr
	IndexExpr
	SliceExpr
	WidthSliceExpr
	SpawnExpr
	InvokeExpr
	FormatMacroExpr
	RangeExpr
	ChannelDeclExpr
	TypeAnnotationExpr

	// Type expressions (surface syntax for a type, not a resolved Type)
	TypeNameExpr
	TypeArrayExpr
	TypeTupleExpr
	TypeBitsExpr
	TypeChannelExpr

	// Patterns
	NameLeafPattern
	WildcardPattern
	TuplePattern

	// Declarations
	FormalArgDecl
	StructDefDecl
	EnumDefDecl
	EnumMemberDecl
	AliasDefDecl
	ConstDefDecl
	FuncDefDecl
	ProcDefDecl
	TestDefDecl
	QuickcheckDefDecl
	ImportDecl
	ModuleDecl
)

// BinaryOp enumerates binary operators.
type BinaryOp byte

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogAnd
	OpLogOr
)

// UnaryOp enumerates unary operators.
type UnaryOp byte

const (
	OpInvert UnaryOp = iota
	OpNegate
	OpLogNot
)

// MatchArm is one arm of a match expression: pattern and guarded body.
type MatchArm struct {
	Pattern NodeID
	Body    NodeID
}

// EnumMemberInit is the optional explicit value of an enum member.
type EnumMemberInit struct {
	Name  symbol.ID
	Value NodeID // InvalidNode if no explicit initializer was written
}

// Node is one element of the arena. Only the fields relevant to Kind are
// populated; the rest are zero. This mirrors the tagged-struct shape used
// throughout the value and types packages rather than an interface
// hierarchy, so dispatch on node kind is a single type switch instead of a
// chain of dynamic method calls.
type Node struct {
	Kind Kind
	Span Span

	// Shared children slots, reused by meaning across kinds; see each
	// Kind's constructor for which fields it populates.
	A, B, C NodeID
	List    []NodeID
	Arms    []MatchArm
	Members []EnumMemberInit

	Name   symbol.ID
	Name2  symbol.ID
	Op     byte
	Op2    byte
	Bool   bool

	// Text holds the literal payload for LitExpr: the literal as
	// written (e.g. "0x1F", "3s8"), interpretation happens in deduce.
	Text string
}

// Tree is an arena of nodes plus the parent-pointer index, computed once
// via ComputeParents after the tree is fully built.
type Tree struct {
	nodes   []Node
	parents []NodeID
	Root    NodeID
}

// NewTree creates an arena holding only the placeholder at index 0, so the
// first node added gets NodeID 1.
func NewTree() *Tree {
	return &Tree{nodes: make([]Node, 1)}
}

// Add appends n to the arena and returns its new stable NodeID.
func (t *Tree) Add(n Node) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return id
}

// Node dereferences id. It panics on an invalid id: programmer-error
// indices panic rather than return ok booleans for internal-only lookups.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		panic("ast: invalid NodeID")
	}
	return &t.nodes[id]
}

// Len returns the number of arena slots, the placeholder at index 0 included.
func (t *Tree) Len() int { return len(t.nodes) }

// ComputeParents walks every node's children exactly once and records each
// child's parent. Call this after the tree is fully constructed; Parent
// before this call returns InvalidNode for everything.
func (t *Tree) ComputeParents() {
	t.parents = make([]NodeID, len(t.nodes))
	for i := range t.parents {
		t.parents[i] = InvalidNode
	}
	if t.Root != InvalidNode {
		t.walkSetParents(t.Root)
	}
}

func (t *Tree) walkSetParents(id NodeID) {
	n := t.Node(id)
	for _, c := range t.children(n) {
		if c == InvalidNode || c == 0 {
			continue
		}
		t.parents[c] = id
		t.walkSetParents(c)
	}
}

func (t *Tree) children(n *Node) []NodeID {
	out := make([]NodeID, 0, 4+len(n.List)+2*len(n.Arms)+len(n.Members))
	if n.A != InvalidNode {
		out = append(out, n.A)
	}
	if n.B != InvalidNode {
		out = append(out, n.B)
	}
	if n.C != InvalidNode {
		out = append(out, n.C)
	}
	out = append(out, n.List...)
	for _, a := range n.Arms {
		out = append(out, a.Pattern, a.Body)
	}
	for _, m := range n.Members {
		if m.Value != InvalidNode {
			out = append(out, m.Value)
		}
	}
	return out
}

// Parent returns id's parent, or InvalidNode for the root or before
// ComputeParents has been called.
func (t *Tree) Parent(id NodeID) NodeID {
	if t.parents == nil {
		return InvalidNode
	}
	return t.parents[id]
}
