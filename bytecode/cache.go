package bytecode

import (
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/dim"
)

type cacheKey struct {
	Function ast.NodeID
	Env      uint64
}

// Cache memoizes emitted programs by (function, parametric env), using
// the same murmur3 environment hash the typeinfo
// package uses for child-TypeInfo lookups.
type Cache struct {
	entries map[cacheKey]*Program
}

// NewCache creates an empty bytecode cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Program)}
}

// GetOrEmit returns the cached program for (function, env), calling emit to
// produce and store one if absent.
func (c *Cache) GetOrEmit(function ast.NodeID, env *dim.Env, emit func() (*Program, error)) (*Program, error) {
	key := cacheKey{Function: function, Env: env.Hash()}
	if p, ok := c.entries[key]; ok {
		return p, nil
	}
	p, err := emit()
	if err != nil {
		return nil, err
	}
	c.entries[key] = p
	return p, nil
}
