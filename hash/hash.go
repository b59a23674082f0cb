// Package hash computes sha256 content hashes of compiler data structures:
// types, Dim expressions, values, and interned symbols. Parametric
// environments are not hashed here; dim.Env.Hash uses murmur3 for its
// cache keys.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// Hash is a 256-bit digest.
type Hash [32]byte

// Bytes hashes an arbitrary byte slice.
func Bytes(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// String hashes a string.
func String(s string) Hash {
	return Bytes([]byte(s))
}

// Int hashes an integer.
func Int(v int64) Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return Bytes(buf[:])
}

// Bool hashes a boolean.
func Bool(v bool) Hash {
	if v {
		return Bytes([]byte{1})
	}
	return Bytes([]byte{0})
}

// Merge combines this hash with h2 in an order-sensitive way: Merge(a,b) !=
// Merge(b,a) in general. Use it to hash ordered sequences (statements,
// function arguments, AST children in source order).
func (h Hash) Merge(h2 Hash) Hash {
	buf := make([]byte, 0, 64)
	buf = append(buf, h[:]...)
	buf = append(buf, h2[:]...)
	return Bytes(buf)
}

// Add combines this hash with h2 in an order-insensitive way: Add(a,b) ==
// Add(b,a). Use it to hash unordered collections, such as the declared
// member-name set of a struct type.
func (h Hash) Add(h2 Hash) Hash {
	a := new(big.Int).SetBytes(h[:])
	b := new(big.Int).SetBytes(h2[:])
	sum := new(big.Int).Add(a, b)
	mod := new(big.Int).Lsh(big.NewInt(1), 256)
	sum.Mod(sum, mod)
	var out Hash
	sum.FillBytes(out[:])
	return out
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
