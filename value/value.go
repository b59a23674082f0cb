// Package value implements the runtime Value universe: arbitrary-width
// signed/unsigned bit values and the tagged sum of composite value kinds
// (tuple, array, enum, channel, token, function) that the bytecode
// interpreter and constexpr evaluator operate on.
//
// A Value is immutable once constructed: a small tagged struct that is
// cheap to copy and carries its payload behind a pointer for the
// non-scalar kinds.
package value

import (
	"fmt"
	"math/big"

	"github.com/velalang/velac/hash"
)

// Kind is the tag of a Value.
type Kind byte

const (
	// Invalid marks a zero-value Value; it is never a legal program value.
	Invalid Kind = iota
	// Bits represents a fixed-width integer, signed or unsigned.
	Bits
	// Tuple represents a fixed-arity heterogeneous sequence.
	Tuple
	// Array represents a fixed-length homogeneous sequence.
	Array
	// Enum represents a named value of an enum type.
	Enum
	// Channel represents one end of a channel (an opaque identity + direction).
	Channel
	// Token represents the side-effect ordering token passed through procs.
	Token
	// Func represents either a builtin or a user-defined function reference.
	Func
)

func (k Kind) String() string {
	switch k {
	case Bits:
		return "bits"
	case Tuple:
		return "tuple"
	case Array:
		return "array"
	case Enum:
		return "enum"
	case Channel:
		return "chan"
	case Token:
		return "token"
	case Func:
		return "func"
	default:
		return "invalid"
	}
}

// Direction is the direction of a channel end.
type Direction byte

const (
	// DirUnknown is a sentinel.
	DirUnknown Direction = iota
	// DirIn is a receive end.
	DirIn
	// DirOut is a send end.
	DirOut
)

// ChannelID identifies a channel instance; opaque outside this package.
type ChannelID uint64

// FuncRef is the callable payload of a Func value: exactly one of Builtin or
// User is set.
type FuncRef struct {
	Builtin string // builtin opcode name, e.g. "assert_eq"
	User    interface{}
	Name    string
}

// bitsPayload holds the exact-width integer representation. The magnitude is
// stored as its canonical unsigned bit pattern in [0, 2^Width), regardless of
// Signed; Int64/BigInt reinterpret it as two's complement on read.
type bitsPayload struct {
	width  uint32
	signed bool
	mag    big.Int
}

// compositePayload holds Tuple/Array members.
type compositePayload struct {
	elems    []Value
	elemKind Kind // Array only: the declared element kind, used by casts.
}

// enumPayload holds an enum value: its nominal type name and its underlying
// bits representation.
type enumPayload struct {
	nominal string
	bits    bitsPayload
}

// Value is a unified, immutable representation of a runtime value.
type Value struct {
	kind    Kind
	bits    *bitsPayload
	comp    *compositePayload
	enum    *enumPayload
	chanID  ChannelID
	chanDir Direction
	fn      *FuncRef
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// Valid reports whether v holds a value (as opposed to the Go zero Value).
func (v Value) Valid() bool { return v.kind != Invalid }

// Width returns the bit width of a Bits or Enum value. It panics for other
// kinds.
func (v Value) Width() uint32 {
	switch v.kind {
	case Bits:
		return v.bits.width
	case Enum:
		return v.enum.bits.width
	default:
		panic(fmt.Sprintf("value: Width() on kind %v", v.kind))
	}
}

// Signed reports whether a Bits value is signed.
func (v Value) Signed() bool {
	if v.kind != Bits {
		panic(fmt.Sprintf("value: Signed() on kind %v", v.kind))
	}
	return v.bits.signed
}

func mask(width uint32) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return m.Sub(m, big.NewInt(1))
}

func canonicalize(width uint32, raw *big.Int) big.Int {
	var out big.Int
	out.And(raw, mask(width))
	return out
}

// NewBits constructs a Bits value of the given width and signedness from a
// raw two's-complement-or-not big.Int; the magnitude is masked to width bits.
// A negative raw value is interpreted as a two's-complement encoding,
// matching how negative literals are represented within a declared width.
func NewBits(width uint32, signed bool, raw *big.Int) Value {
	var canon big.Int
	if raw.Sign() < 0 {
		twos := new(big.Int).Add(raw, new(big.Int).Lsh(big.NewInt(1), uint(width)))
		canon = canonicalize(width, twos)
	} else {
		canon = canonicalize(width, raw)
	}
	return Value{kind: Bits, bits: &bitsPayload{width: width, signed: signed, mag: canon}}
}

// NewBitsFromInt64 is a convenience constructor for small literals.
func NewBitsFromInt64(width uint32, signed bool, v int64) Value {
	return NewBits(width, signed, big.NewInt(v))
}

// NewUBits constructs an unsigned Bits value.
func NewUBits(width uint32, raw *big.Int) Value { return NewBits(width, false, raw) }

// NewSBits constructs a signed Bits value.
func NewSBits(width uint32, raw *big.Int) Value { return NewBits(width, true, raw) }

// Bool constructs the canonical u1 boolean value.
func Bool(b bool) Value {
	if b {
		return NewBitsFromInt64(1, false, 1)
	}
	return NewBitsFromInt64(1, false, 0)
}

// IsTrue reports whether a u1 Bits value is the true value (1). It panics if
// v is not a 1-bit Bits value.
func (v Value) IsTrue() bool {
	if v.kind != Bits || v.bits.width != 1 {
		panic("value: IsTrue() on non-u1 value")
	}
	return v.bits.mag.Sign() != 0
}

// Unsigned returns the canonical unsigned magnitude of a Bits value, in
// [0, 2^Width).
func (v Value) Unsigned() *big.Int {
	if v.kind != Bits {
		panic(fmt.Sprintf("value: Unsigned() on kind %v", v.kind))
	}
	out := new(big.Int).Set(&v.bits.mag)
	return out
}

// Signed2C reinterprets the canonical unsigned magnitude as a two's
// complement signed integer of the value's width.
func (v Value) Signed2C() *big.Int {
	if v.kind != Bits {
		panic(fmt.Sprintf("value: Signed2C() on kind %v", v.kind))
	}
	m := new(big.Int).Set(&v.bits.mag)
	half := new(big.Int).Lsh(big.NewInt(1), uint(v.bits.width-1))
	if v.bits.width > 0 && m.Cmp(half) >= 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(v.bits.width))
		m.Sub(m, full)
	}
	return m
}

// Int64 returns the value as an int64, using signed two's-complement
// interpretation when Signed() is true. It panics on overflow.
func (v Value) Int64() int64 {
	var big *big.Int
	if v.bits.signed {
		big = v.Signed2C()
	} else {
		big = v.Unsigned()
	}
	if !big.IsInt64() {
		panic("value: Int64() overflow")
	}
	return big.Int64()
}

// NewTuple constructs a Tuple value.
func NewTuple(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: Tuple, comp: &compositePayload{elems: cp}}
}

// NewArray constructs an Array value with the given declared element kind
// (used by array<->bits casts to validate element widths agree).
func NewArray(elemKind Kind, elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: Array, comp: &compositePayload{elems: cp, elemKind: elemKind}}
}

// Elems returns the members of a Tuple or Array value.
func (v Value) Elems() []Value {
	if v.kind != Tuple && v.kind != Array {
		panic(fmt.Sprintf("value: Elems() on kind %v", v.kind))
	}
	return v.comp.elems
}

// NewEnum constructs an Enum value.
func NewEnum(nominal string, width uint32, raw *big.Int) Value {
	return Value{kind: Enum, enum: &enumPayload{nominal: nominal, bits: bitsPayload{width: width, mag: canonicalize(width, raw)}}}
}

// EnumNominal returns the nominal type name of an Enum value.
func (v Value) EnumNominal() string {
	if v.kind != Enum {
		panic(fmt.Sprintf("value: EnumNominal() on kind %v", v.kind))
	}
	return v.enum.nominal
}

// EnumUnderlying returns the underlying Bits value of an Enum value.
func (v Value) EnumUnderlying() Value {
	if v.kind != Enum {
		panic(fmt.Sprintf("value: EnumUnderlying() on kind %v", v.kind))
	}
	return Value{kind: Bits, bits: &v.enum.bits}
}

// NewChannel constructs a Channel value.
func NewChannel(id ChannelID, dir Direction) Value {
	return Value{kind: Channel, chanID: id, chanDir: dir}
}

// ChannelID returns the opaque channel identity.
func (v Value) ChannelID() ChannelID {
	if v.kind != Channel {
		panic(fmt.Sprintf("value: ChannelID() on kind %v", v.kind))
	}
	return v.chanID
}

// ChannelDir returns the direction of a channel end.
func (v Value) ChannelDir() Direction {
	if v.kind != Channel {
		panic(fmt.Sprintf("value: ChannelDir() on kind %v", v.kind))
	}
	return v.chanDir
}

// TheToken is the singleton Token value.
var TheToken = Value{kind: Token}

// NewFunc constructs a Func value.
func NewFunc(ref *FuncRef) Value {
	return Value{kind: Func, fn: ref}
}

// FuncRef returns the callable payload of a Func value.
func (v Value) FuncRef() *FuncRef {
	if v.kind != Func {
		panic(fmt.Sprintf("value: FuncRef() on kind %v", v.kind))
	}
	return v.fn
}

// Hash computes a content hash of v, recursing into composite members.
func (v Value) Hash() hash.Hash {
	switch v.kind {
	case Invalid:
		return hash.String("invalid")
	case Bits:
		h := hash.String("bits").Merge(hash.Int(int64(v.bits.width))).Merge(hash.Bool(v.bits.signed))
		return h.Merge(hash.Bytes(v.bits.mag.Bytes()))
	case Tuple, Array:
		h := hash.String(v.kind.String()).Merge(hash.Int(int64(len(v.comp.elems))))
		for _, e := range v.comp.elems {
			h = h.Merge(e.Hash())
		}
		return h
	case Enum:
		return hash.String("enum").Merge(hash.String(v.enum.nominal)).Merge(hash.Bytes(v.enum.bits.mag.Bytes()))
	case Channel:
		return hash.String("chan").Merge(hash.Int(int64(v.chanID))).Merge(hash.Int(int64(v.chanDir)))
	case Token:
		return hash.String("token")
	case Func:
		return hash.String("func").Merge(hash.String(v.fn.Name))
	default:
		panic(fmt.Sprintf("value: Hash() on kind %v", v.kind))
	}
}

// String renders v for diagnostics; it is not a parseable literal form.
func (v Value) String() string {
	switch v.kind {
	case Invalid:
		return "<invalid>"
	case Bits:
		if v.bits.signed {
			return fmt.Sprintf("s%d:%s", v.bits.width, v.Signed2C().String())
		}
		return fmt.Sprintf("u%d:%s", v.bits.width, v.bits.mag.String())
	case Tuple:
		s := "("
		for i, e := range v.comp.elems {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + ")"
	case Array:
		s := "["
		for i, e := range v.comp.elems {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + "]"
	case Enum:
		return fmt.Sprintf("%s:%s", v.enum.nominal, v.enum.bits.mag.String())
	case Channel:
		dir := "in"
		if v.chanDir == DirOut {
			dir = "out"
		}
		return fmt.Sprintf("chan<%d,%s>", v.chanID, dir)
	case Token:
		return "token"
	case Func:
		return "func:" + v.fn.Name
	default:
		return "<unknown>"
	}
}
