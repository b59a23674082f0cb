// Package symbol manages symbols. Symbols are deduped strings represented as
// small integers: struct/enum member names, parametric binding names,
// module names, and local variable names all intern through here.
// The type checker is single-threaded, so unlike some symbol tables this
// one needs no lock-free reader path; a single mutex guards the whole
// table.
package symbol

import (
	"sync"

	"github.com/grailbio/base/log"
	"github.com/velalang/velac/hash"
)

// ID represents an interned symbol.
type ID int32

// Invalid is a sentinel for "no symbol".
const Invalid = ID(0)

type idInfo struct {
	name string
	hash hash.Hash
}

type table struct {
	mu   sync.Mutex
	ids  []idInfo
	syms map[string]ID
}

var symbols = newTable()

func newTable() *table {
	t := &table{syms: make(map[string]ID, 256)}
	t.ids = append(t.ids, idInfo{"(invalid)", hash.String("(invalid)")})
	return t
}

// Hash hashes a symbol.
func (id ID) Hash() hash.Hash {
	return symbols.ids[id].hash
}

// Str returns the original string for the symbol.
// Note: we don't call it String() since fmt would otherwise pick it up for
// %v formatting in contexts where the raw ID is more useful for debugging.
func (id ID) Str() string {
	if int(id) >= len(symbols.ids) {
		log.Panicf("symboltable: id %d not found", id)
	}
	name := symbols.ids[id].name
	if name == "" {
		log.Panicf("symboltable: id %d not found", id)
	}
	return name
}

// Intern finds or creates an ID for the given string.
func Intern(v string) ID {
	if v == "" {
		log.Panicf("empty symbol")
	}
	symbols.mu.Lock()
	defer symbols.mu.Unlock()
	if id, ok := symbols.syms[v]; ok {
		return id
	}
	id := ID(len(symbols.ids))
	symbols.ids = append(symbols.ids, idInfo{v, hash.String(v)})
	symbols.syms[v] = id
	return id
}

// Lookup finds an existing interned ID without creating one.
func Lookup(v string) (ID, bool) {
	symbols.mu.Lock()
	defer symbols.mu.Unlock()
	id, ok := symbols.syms[v]
	return id, ok
}
