// Package types implements the static type universe: Bits, Array,
// Tuple, Struct, Enum, Channel, Token, Function, and Meta, each of which may
// carry symbolic bit-width dimensions from the dim package.
package types

import (
	"fmt"
	"strings"

	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/hash"
	"github.com/velalang/velac/symbol"
)

// Kind is the tag of a Type.
type Kind byte

const (
	Invalid Kind = iota
	BitsKind
	ArrayKind
	TupleKind
	StructKind
	EnumKind
	ChannelKind
	TokenKind
	FunctionKind
	MetaKind
)

func (k Kind) String() string {
	switch k {
	case BitsKind:
		return "bits"
	case ArrayKind:
		return "array"
	case TupleKind:
		return "tuple"
	case StructKind:
		return "struct"
	case EnumKind:
		return "enum"
	case ChannelKind:
		return "chan"
	case TokenKind:
		return "token"
	case FunctionKind:
		return "func"
	case MetaKind:
		return "meta"
	default:
		return "invalid"
	}
}

// Direction mirrors value.Direction for channel types.
type Direction byte

const (
	DirUnknown Direction = iota
	DirIn
	DirOut
)

// StructMember is one (name, type) pair of a struct, in declaration order.
type StructMember struct {
	Name symbol.ID
	Type *Type
}

// FormalParametric is one parametric binding of a struct or function: a
// name, its own type (almost always a sized bits type), and an optional
// default expression recorded only as a marker (the default expression
// itself lives on the AST node; the instantiator evaluates it through
// the constexpr
// evaluator, not through this package).
type FormalParametric struct {
	Name        symbol.ID
	Type        *Type
	HasDefault  bool
}

// Type is a node in the static type tree. The zero Type is Invalid.
type Type struct {
	kind Kind

	// Bits
	signed bool
	size   *dim.Dim

	// Array
	elem     *Type
	arrSize  *dim.Dim

	// Tuple
	members []*Type

	// Struct
	nominal     symbol.ID
	structMembers []StructMember
	parametrics []FormalParametric

	// Enum
	underlying *Type // always BitsKind

	// Channel
	payload *Type
	dir     Direction

	// Function
	params     []*Type
	ret        *Type
	funcParams []FormalParametric

	// Meta
	inner *Type
}

// Kind returns the tag of t.
func (t *Type) Kind() Kind { return t.kind }

// Bits constructs a fixed/symbolic-width bits type.
func Bits(signed bool, size *dim.Dim) *Type {
	return &Type{kind: BitsKind, signed: signed, size: size}
}

// U32 is the default type for unannotated dimension-position literals.
func U32() *Type { return Bits(false, dim.NewConst(32)) }

// U1 is the boolean-carrying bits type.
func U1() *Type { return Bits(false, dim.NewConst(1)) }

// Signed reports whether a Bits type is signed.
func (t *Type) Signed() bool {
	if t.kind != BitsKind {
		panic("types: Signed() on non-Bits type")
	}
	return t.signed
}

// Size returns the bit-width dimension of a Bits type.
func (t *Type) Size() *dim.Dim {
	if t.kind != BitsKind {
		panic("types: Size() on non-Bits type")
	}
	return t.size
}

// Array constructs an array type.
func Array(elem *Type, size *dim.Dim) *Type {
	return &Type{kind: ArrayKind, elem: elem, arrSize: size}
}

// Elem returns the element type of an Array type.
func (t *Type) Elem() *Type {
	if t.kind != ArrayKind {
		panic("types: Elem() on non-Array type")
	}
	return t.elem
}

// ArraySize returns the size dimension of an Array type.
func (t *Type) ArraySize() *dim.Dim {
	if t.kind != ArrayKind {
		panic("types: ArraySize() on non-Array type")
	}
	return t.arrSize
}

// Tuple constructs a tuple type.
func Tuple(members ...*Type) *Type {
	cp := make([]*Type, len(members))
	copy(cp, members)
	return &Type{kind: TupleKind, members: cp}
}

// Members returns the member types of a Tuple type.
func (t *Type) Members() []*Type {
	if t.kind != TupleKind {
		panic("types: Members() on non-Tuple type")
	}
	return t.members
}

// Struct constructs a struct type.
func Struct(nominal symbol.ID, members []StructMember, parametrics []FormalParametric) *Type {
	return &Type{kind: StructKind, nominal: nominal, structMembers: members, parametrics: parametrics}
}

// Nominal returns the nominal identifier of a Struct or Enum type.
func (t *Type) Nominal() symbol.ID {
	if t.kind != StructKind && t.kind != EnumKind {
		panic("types: Nominal() on non-nominal type")
	}
	return t.nominal
}

// StructMembers returns the declared members, in order, of a Struct type.
func (t *Type) StructMembers() []StructMember {
	if t.kind != StructKind {
		panic("types: StructMembers() on non-Struct type")
	}
	return t.structMembers
}

// Parametrics returns the formal parametric bindings of a Struct or
// Function type.
func (t *Type) Parametrics() []FormalParametric {
	switch t.kind {
	case StructKind:
		return t.parametrics
	case FunctionKind:
		return t.funcParams
	default:
		panic("types: Parametrics() on non-parametric type")
	}
}

// MemberType looks up a struct member type by name.
func (t *Type) MemberType(name symbol.ID) (*Type, bool) {
	if t.kind != StructKind {
		panic("types: MemberType() on non-Struct type")
	}
	for _, m := range t.structMembers {
		if m.Name == name {
			return m.Type, true
		}
	}
	return nil, false
}

// Enum constructs an enum type.
func Enum(nominal symbol.ID, underlying *Type) *Type {
	if underlying.kind != BitsKind {
		panic("types: Enum() underlying type must be Bits")
	}
	return &Type{kind: EnumKind, nominal: nominal, underlying: underlying}
}

// Underlying returns the underlying Bits type of an Enum type.
func (t *Type) Underlying() *Type {
	if t.kind != EnumKind {
		panic("types: Underlying() on non-Enum type")
	}
	return t.underlying
}

// Channel constructs a channel type.
func Channel(payload *Type, dir Direction) *Type {
	return &Type{kind: ChannelKind, payload: payload, dir: dir}
}

// Payload returns the payload type of a Channel type.
func (t *Type) Payload() *Type {
	if t.kind != ChannelKind {
		panic("types: Payload() on non-Channel type")
	}
	return t.payload
}

// ChanDir returns the direction of a Channel type.
func (t *Type) ChanDir() Direction {
	if t.kind != ChannelKind {
		panic("types: ChanDir() on non-Channel type")
	}
	return t.dir
}

// Token is the singleton token type.
func Token() *Type { return &Type{kind: TokenKind} }

// Function constructs a function type.
func Function(params []*Type, ret *Type, parametrics []FormalParametric) *Type {
	cp := make([]*Type, len(params))
	copy(cp, params)
	return &Type{kind: FunctionKind, params: cp, ret: ret, funcParams: parametrics}
}

// Params returns the parameter types of a Function type.
func (t *Type) Params() []*Type {
	if t.kind != FunctionKind {
		panic("types: Params() on non-Function type")
	}
	return t.params
}

// Return returns the return type of a Function type.
func (t *Type) Return() *Type {
	if t.kind != FunctionKind {
		panic("types: Return() on non-Function type")
	}
	return t.ret
}

// Meta constructs the "type of a type" used for type annotations appearing
// in expression position. Meta(T) is always distinct from T.
func Meta(inner *Type) *Type {
	return &Type{kind: MetaKind, inner: inner}
}

// MetaInner returns the wrapped type of a Meta type.
func (t *Type) MetaInner() *Type {
	if t.kind != MetaKind {
		panic("types: MetaInner() on non-Meta type")
	}
	return t.inner
}

// Equal reports structural type equality up to Dim equality. Meta(T)
// is never equal to T, and two Meta types are equal iff their wrapped types
// are.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case BitsKind:
		return a.signed == b.signed && a.size.Equal(b.size)
	case ArrayKind:
		return Equal(a.elem, b.elem) && a.arrSize.Equal(b.arrSize)
	case TupleKind:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if !Equal(a.members[i], b.members[i]) {
				return false
			}
		}
		return true
	case StructKind:
		if a.nominal != b.nominal || len(a.structMembers) != len(b.structMembers) {
			return false
		}
		for i := range a.structMembers {
			if a.structMembers[i].Name != b.structMembers[i].Name ||
				!Equal(a.structMembers[i].Type, b.structMembers[i].Type) {
				return false
			}
		}
		return true
	case EnumKind:
		return a.nominal == b.nominal && Equal(a.underlying, b.underlying)
	case ChannelKind:
		return a.dir == b.dir && Equal(a.payload, b.payload)
	case TokenKind:
		return true
	case FunctionKind:
		if len(a.params) != len(b.params) || !Equal(a.ret, b.ret) {
			return false
		}
		for i := range a.params {
			if !Equal(a.params[i], b.params[i]) {
				return false
			}
		}
		return true
	case MetaKind:
		return Equal(a.inner, b.inner)
	}
	return false
}

// Hash computes a content hash of t.
func (t *Type) Hash() hash.Hash {
	switch t.kind {
	case BitsKind:
		return hash.String("bits").Merge(hash.Bool(t.signed)).Merge(t.size.Hash())
	case ArrayKind:
		return hash.String("array").Merge(t.elem.Hash()).Merge(t.arrSize.Hash())
	case TupleKind:
		h := hash.String("tuple")
		for _, m := range t.members {
			h = h.Merge(m.Hash())
		}
		return h
	case StructKind:
		h := hash.String("struct").Merge(t.nominal.Hash())
		for _, m := range t.structMembers {
			h = h.Merge(m.Name.Hash()).Merge(m.Type.Hash())
		}
		return h
	case EnumKind:
		return hash.String("enum").Merge(t.nominal.Hash()).Merge(t.underlying.Hash())
	case ChannelKind:
		return hash.String("chan").Merge(hash.Int(int64(t.dir))).Merge(t.payload.Hash())
	case TokenKind:
		return hash.String("token")
	case FunctionKind:
		h := hash.String("func").Merge(t.ret.Hash())
		for _, p := range t.params {
			h = h.Merge(p.Hash())
		}
		return h
	case MetaKind:
		return hash.String("meta").Merge(t.inner.Hash())
	}
	return hash.String("invalid")
}

// String renders t for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.kind {
	case BitsKind:
		prefix := "u"
		if t.signed {
			prefix = "s"
		}
		return fmt.Sprintf("%s%s", prefix, t.size)
	case ArrayKind:
		return fmt.Sprintf("%s[%s]", t.elem, t.arrSize)
	case TupleKind:
		parts := make([]string, len(t.members))
		for i, m := range t.members {
			parts[i] = m.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case StructKind:
		return t.nominal.Str()
	case EnumKind:
		return t.nominal.Str()
	case ChannelKind:
		dir := "in"
		if t.dir == DirOut {
			dir = "out"
		}
		return fmt.Sprintf("chan<%s> %s", t.payload, dir)
	case TokenKind:
		return "token"
	case FunctionKind:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), t.ret)
	case MetaKind:
		return fmt.Sprintf("type{%s}", t.inner)
	}
	return "<invalid>"
}
