package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/velalang/velac/symbol"
)

func TestIntern(t *testing.T) {
	assert.Equal(t, symbol.Intern("abc"), symbol.Intern("abc"))
	assert.False(t, symbol.Intern("abc") == symbol.Intern("cde"))
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"_", "_3", "$x", "xyz"} {
		id := symbol.Intern(name)
		name2 := id.Str()
		assert.Equal(t, name, name2)
	}
}

func TestLookupMissing(t *testing.T) {
	_, ok := symbol.Lookup("never-interned-xyz")
	assert.False(t, ok)
	symbol.Intern("never-interned-xyz")
	_, ok = symbol.Lookup("never-interned-xyz")
	assert.True(t, ok)
}

func BenchmarkHash(b *testing.B) {
	sym := symbol.Intern("abcdefghijk")
	for i := 0; i < b.N; i++ {
		_ = sym.Hash()
	}
}
