// Package typeinfo holds the side tables the deducer (package deduce)
// attaches to an AST after type inference: the resolved type of every
// expression node, the constexpr-evaluated value of every node the
// constexpr evaluator could fold, the resolved (start, width) of every
// slice once its dimension expressions are concrete, and, for a
// parametric function instantiated at more than one call site, one child
// TypeInfo per distinct (callee, parametric env) pair.
package typeinfo

import (
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// SliceResolution is the resolved bit range of a width-slice or ordinary
// slice once its bound expressions have been constexpr-evaluated.
type SliceResolution struct {
	Start uint64
	Width uint64
}

type childKey struct {
	Callee ast.NodeID
	Env    uint64
}

// Info is the per-module (or per-instantiation) type information table.
// Create one with New: the setters of a zero Info write to nil maps and
// panic.
type Info struct {
	types     map[ast.NodeID]*types.Type
	constVals map[ast.NodeID]value.Value
	slices    map[childKey]SliceResolution
	children  map[childKey]*Info
}

// New creates an empty Info table.
func New() *Info {
	return &Info{
		types:     make(map[ast.NodeID]*types.Type),
		constVals: make(map[ast.NodeID]value.Value),
		slices:    make(map[childKey]SliceResolution),
		children:  make(map[childKey]*Info),
	}
}

// SetType records the resolved type of node.
func (i *Info) SetType(node ast.NodeID, t *types.Type) {
	i.types[node] = t
}

// Type returns the resolved type of node, if deduction has reached it yet.
func (i *Info) Type(node ast.NodeID) (*types.Type, bool) {
	t, ok := i.types[node]
	return t, ok
}

// SetConstValue records the constexpr-evaluated value of node.
func (i *Info) SetConstValue(node ast.NodeID, v value.Value) {
	i.constVals[node] = v
}

// ConstValue returns the constexpr-evaluated value of node, if it was
// const-foldable.
func (i *Info) ConstValue(node ast.NodeID) (value.Value, bool) {
	v, ok := i.constVals[node]
	return v, ok
}

// SetSliceResolution records the resolved (start, width) of a slice node
// under a particular parametric environment hash.
func (i *Info) SetSliceResolution(node ast.NodeID, envHash uint64, r SliceResolution) {
	i.slices[childKey{Callee: node, Env: envHash}] = r
}

// SliceResolution looks up a previously resolved slice range.
func (i *Info) SliceResolution(node ast.NodeID, envHash uint64) (SliceResolution, bool) {
	r, ok := i.slices[childKey{Callee: node, Env: envHash}]
	return r, ok
}

// Child returns the TypeInfo table for a parametric instantiation of callee
// under the environment hashed as envHash, creating it if absent. Every
// distinct (callee, env) pair gets exactly one child table,
// so re-instantiating the same function at the same parametrics is free.
func (i *Info) Child(callee ast.NodeID, envHash uint64) (child *Info, created bool) {
	key := childKey{Callee: callee, Env: envHash}
	if existing, ok := i.children[key]; ok {
		return existing, false
	}
	child = New()
	i.children[key] = child
	return child, true
}
