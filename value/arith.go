package value

import "math/big"

// Arithmetic on Bits values is exact and width-preserving: the result always
// carries the operand width, wrapping silently on overflow (the deducer, not
// the interpreter, is responsible for rejecting width mismatches before
// emission).

func requireSameWidth(a, b Value) uint32 {
	if a.kind != Bits || b.kind != Bits {
		panic("value: arithmetic on non-Bits value")
	}
	if a.bits.width != b.bits.width {
		panic("value: width mismatch in arithmetic")
	}
	return a.bits.width
}

// Add returns a+b, width-preserving, reduced mod 2^width.
func (a Value) Add(b Value) Value {
	w := requireSameWidth(a, b)
	sum := new(big.Int).Add(&a.bits.mag, &b.bits.mag)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, sum)}}
}

// Sub returns a-b, width-preserving.
func (a Value) Sub(b Value) Value {
	w := requireSameWidth(a, b)
	diff := new(big.Int).Sub(&a.bits.mag, &b.bits.mag)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, diff)}}
}

// Mul returns a*b, width-preserving.
func (a Value) Mul(b Value) Value {
	w := requireSameWidth(a, b)
	prod := new(big.Int).Mul(&a.bits.mag, &b.bits.mag)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, prod)}}
}

// Div returns a/b (truncating), using signed division when a is signed.
func (a Value) Div(b Value) Value {
	w := requireSameWidth(a, b)
	var q *big.Int
	if a.bits.signed {
		q = new(big.Int).Quo(a.Signed2C(), b.Signed2C())
	} else {
		q = new(big.Int).Quo(&a.bits.mag, &b.bits.mag)
	}
	return NewBits(w, a.bits.signed, q)
}

// And returns the bitwise AND of a and b.
func (a Value) And(b Value) Value {
	w := requireSameWidth(a, b)
	r := new(big.Int).And(&a.bits.mag, &b.bits.mag)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, r)}}
}

// Or returns the bitwise OR of a and b.
func (a Value) Or(b Value) Value {
	w := requireSameWidth(a, b)
	r := new(big.Int).Or(&a.bits.mag, &b.bits.mag)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, r)}}
}

// Xor returns the bitwise XOR of a and b.
func (a Value) Xor(b Value) Value {
	w := requireSameWidth(a, b)
	r := new(big.Int).Xor(&a.bits.mag, &b.bits.mag)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, r)}}
}

// Concat concatenates a (high bits) with b (low bits); the result width is
// the sum of the operand widths.
func (a Value) Concat(b Value) Value {
	if a.kind != Bits || b.kind != Bits {
		panic("value: Concat on non-Bits value")
	}
	w := a.bits.width + b.bits.width
	r := new(big.Int).Lsh(&a.bits.mag, uint(b.bits.width))
	r.Or(r, &b.bits.mag)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: false, mag: canonicalize(w, r)}}
}

// Shll returns a shifted left by shamt (an unsigned shift amount), width
// preserving.
func (a Value) Shll(shamt Value) Value {
	w := a.bits.width
	n := shamt.Unsigned().Uint64()
	r := new(big.Int).Lsh(&a.bits.mag, uint(n))
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, r)}}
}

// Shrl returns a logically shifted right by shamt.
func (a Value) Shrl(shamt Value) Value {
	w := a.bits.width
	n := shamt.Unsigned().Uint64()
	r := new(big.Int).Rsh(&a.bits.mag, uint(n))
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, r)}}
}

// Shra returns a arithmetically shifted right by shamt; only valid for
// signed operands.
func (a Value) Shra(shamt Value) Value {
	if !a.bits.signed {
		panic("value: Shra on unsigned value")
	}
	w := a.bits.width
	n := shamt.Unsigned().Uint64()
	signedVal := a.Signed2C()
	r := new(big.Int).Rsh(signedVal, uint(n))
	return NewBits(w, true, r)
}

// Invert returns the bitwise complement of a.
func (a Value) Invert() Value {
	w := a.bits.width
	full := mask(w)
	r := new(big.Int).Xor(&a.bits.mag, full)
	return Value{kind: Bits, bits: &bitsPayload{width: w, signed: a.bits.signed, mag: canonicalize(w, r)}}
}

// Negate returns the two's-complement negation of a.
func (a Value) Negate() Value {
	w := a.bits.width
	r := new(big.Int).Neg(&a.bits.mag)
	return NewBits(w, a.bits.signed, r)
}

func cmp(a, b Value) int {
	requireSameWidth(a, b)
	if a.bits.signed {
		return a.Signed2C().Cmp(b.Signed2C())
	}
	return a.bits.mag.Cmp(&b.bits.mag)
}

// Eq reports structural value equality: identical bit patterns for Bits,
// member-wise equality for Tuple/Array, nominal+pattern equality for Enum.
func (a Value) Eq(b Value) Value { return Bool(a.equalTo(b)) }

func (a Value) equalTo(b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Bits:
		return a.bits.width == b.bits.width && a.bits.mag.Cmp(&b.bits.mag) == 0
	case Enum:
		return a.enum.nominal == b.enum.nominal && a.enum.bits.mag.Cmp(&b.enum.bits.mag) == 0
	case Tuple, Array:
		if len(a.comp.elems) != len(b.comp.elems) {
			return false
		}
		for i := range a.comp.elems {
			if !a.comp.elems[i].equalTo(b.comp.elems[i]) {
				return false
			}
		}
		return true
	case Token:
		return true
	case Channel:
		return a.chanID == b.chanID && a.chanDir == b.chanDir
	default:
		return false
	}
}

// Ne is the negation of Eq.
func (a Value) Ne(b Value) Value { return Bool(!a.Eq(b).IsTrue()) }

// Lt reports a < b under the operands' signedness.
func (a Value) Lt(b Value) Value { return Bool(cmp(a, b) < 0) }

// Le reports a <= b under the operands' signedness.
func (a Value) Le(b Value) Value { return Bool(cmp(a, b) <= 0) }

// Gt reports a > b under the operands' signedness.
func (a Value) Gt(b Value) Value { return Bool(cmp(a, b) > 0) }

// Ge reports a >= b under the operands' signedness.
func (a Value) Ge(b Value) Value { return Bool(cmp(a, b) >= 0) }
