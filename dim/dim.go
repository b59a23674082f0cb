// Package dim implements the parametric expression algebra: the
// small expression sub-language embedded inside type dimensions (bit
// widths, array sizes). A Dim is either a concrete non-negative integer or
// an owned symbolic expression tree over an Env of parametric bindings.
//
// The tree is normalized eagerly on construction (constants are folded as
// soon as both operands are concrete); no further canonicalization (e.g.
// commutative reassociation) is performed.
package dim

import (
	"fmt"
	"text/scanner"

	"github.com/velalang/velac/hash"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/value"
)

// Kind is the tag of a Dim node.
type Kind byte

const (
	// Const is a concrete, fully-evaluated dimension.
	Const Kind = iota
	// Symbol is a reference to a parametric binding name.
	Symbol
	// Add is the sum of two dimensions.
	Add
	// Mul is the product of two dimensions.
	Mul
)

// Dim is a node in the parametric expression tree. The zero Dim is not
// valid; use the constructors below.
type Dim struct {
	kind       Kind
	constVal   uint64 // valid when kind == Const
	name       symbol.ID
	span       scanner.Position
	lhs, rhs   *Dim
}

// NewConst creates a concrete dimension. Dim values used as bit counts are
// non-negative; NewConst takes a uint64, so a negative value cannot reach
// it (the deducer rejects unannotated negative dimension literals before
// conversion).
func NewConst(v uint64) *Dim {
	return &Dim{kind: Const, constVal: v}
}

// NewSymbol creates a reference to a parametric binding.
func NewSymbol(name symbol.ID, span scanner.Position) *Dim {
	return &Dim{kind: Symbol, name: name, span: span}
}

// NewAdd creates a (possibly folded) sum of two dimensions.
func NewAdd(lhs, rhs *Dim) *Dim {
	if lhs.kind == Const && rhs.kind == Const {
		return NewConst(lhs.constVal + rhs.constVal)
	}
	return &Dim{kind: Add, lhs: lhs, rhs: rhs}
}

// NewMul creates a (possibly folded) product of two dimensions.
func NewMul(lhs, rhs *Dim) *Dim {
	if lhs.kind == Const && rhs.kind == Const {
		return NewConst(lhs.constVal * rhs.constVal)
	}
	return &Dim{kind: Mul, lhs: lhs, rhs: rhs}
}

// Kind returns the node's tag.
func (d *Dim) Kind() Kind { return d.kind }

// IsConst reports whether d is a fully-resolved constant.
func (d *Dim) IsConst() bool { return d.kind == Const }

// ConstValue returns the concrete value of a Const dimension. It panics if
// d is not Const.
func (d *Dim) ConstValue() uint64 {
	if d.kind != Const {
		panic("dim: ConstValue() on non-const dimension")
	}
	return d.constVal
}

// SymbolName returns the referenced name of a Symbol dimension.
func (d *Dim) SymbolName() symbol.ID {
	if d.kind != Symbol {
		panic("dim: SymbolName() on non-symbol dimension")
	}
	return d.name
}

// Operands returns the two children of an Add or Mul dimension.
func (d *Dim) Operands() (*Dim, *Dim) {
	if d.kind != Add && d.kind != Mul {
		panic("dim: Operands() on leaf dimension")
	}
	return d.lhs, d.rhs
}

// Equal reports structural equality on the normalized tree: Dim equality is
// syntactic, not commutative: Add(a,b) and Add(b,a) are unequal
// unless a and b are themselves structurally identical.
func (d *Dim) Equal(other *Dim) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.kind != other.kind {
		return false
	}
	switch d.kind {
	case Const:
		return d.constVal == other.constVal
	case Symbol:
		return d.name == other.name
	case Add, Mul:
		l1, r1 := d.Operands()
		l2, r2 := other.Operands()
		return l1.Equal(l2) && r1.Equal(r2)
	}
	return false
}

// Hash computes a content hash of the dimension expression.
func (d *Dim) Hash() hash.Hash {
	switch d.kind {
	case Const:
		return hash.String("dim.const").Merge(hash.Int(int64(d.constVal)))
	case Symbol:
		return hash.String("dim.sym").Merge(d.name.Hash())
	case Add:
		l, r := d.Operands()
		return hash.String("dim.add").Merge(l.Hash()).Merge(r.Hash())
	case Mul:
		l, r := d.Operands()
		return hash.String("dim.mul").Merge(l.Hash()).Merge(r.Hash())
	}
	panic("dim: Hash() on unknown kind")
}

// String renders d for diagnostics.
func (d *Dim) String() string {
	switch d.kind {
	case Const:
		return fmt.Sprintf("%d", d.constVal)
	case Symbol:
		return d.name.Str()
	case Add:
		l, r := d.Operands()
		return fmt.Sprintf("(%s+%s)", l, r)
	case Mul:
		l, r := d.Operands()
		return fmt.Sprintf("(%s*%s)", l, r)
	}
	return "<invalid dim>"
}

// Result is the outcome of Eval: either a concrete value or a residual
// (still-symbolic) Dim, never both.
type Result struct {
	Value    *uint64
	Residual *Dim
}

// Eval evaluates d under env, folding every symbol that env can resolve.
// Const evaluates to itself; Symbol looks up env, propagating unresolved
// symbols as a residual expression; Add/Mul fold when both sides are
// concrete after recursive evaluation, else they produce a residual node
// built from the (possibly-partially-resolved) operands.
func Eval(d *Dim, env *Env) Result {
	switch d.kind {
	case Const:
		v := d.constVal
		return Result{Value: &v}
	case Symbol:
		if bound, ok := env.Lookup(d.name); ok {
			if bound.Concrete != nil {
				v := *bound.Concrete
				return Result{Value: &v}
			}
			return Eval(bound.Symbolic, env)
		}
		return Result{Residual: d}
	case Add, Mul:
		l, r := d.Operands()
		lr := Eval(l, env)
		rr := Eval(r, env)
		if lr.Value != nil && rr.Value != nil {
			var v uint64
			if d.kind == Add {
				v = *lr.Value + *rr.Value
			} else {
				v = *lr.Value * *rr.Value
			}
			return Result{Value: &v}
		}
		residLHS := l
		if lr.Value != nil {
			residLHS = NewConst(*lr.Value)
		} else if lr.Residual != nil {
			residLHS = lr.Residual
		}
		residRHS := r
		if rr.Value != nil {
			residRHS = NewConst(*rr.Value)
		} else if rr.Residual != nil {
			residRHS = rr.Residual
		}
		if d.kind == Add {
			return Result{Residual: &Dim{kind: Add, lhs: residLHS, rhs: residRHS}}
		}
		return Result{Residual: &Dim{kind: Mul, lhs: residLHS, rhs: residRHS}}
	}
	panic("dim: Eval() on unknown kind")
}

// ValueFromRuntime converts a runtime bits value into a Dim Const, used when
// a constexpr-evaluated expression is substituted into a dimension
// position.
func ValueFromRuntime(v value.Value) *Dim {
	return NewConst(uint64(v.Int64()))
}
