package dim

import (
	"strings"

	"github.com/spaolacci/murmur3"
	"github.com/velalang/velac/symbol"
)

// Binding is the value a parametric name resolves to: exactly one of
// Concrete or Symbolic is set.
type Binding struct {
	Concrete *uint64
	Symbolic *Dim
}

// Env is an ordered mapping from parametric binding name to value, with
// shadowing of outer frames by inner ones; a small call-frame stack
// carrying Dim bindings instead of runtime values.
type Env struct {
	frames []frame
}

type frame struct {
	names []symbol.ID
	vals  []Binding
}

// NewEnv creates an empty environment.
func NewEnv() *Env { return &Env{} }

// PushFrame pushes a new, initially empty binding frame.
func (e *Env) PushFrame() { e.frames = append(e.frames, frame{}) }

// PopFrame removes the innermost frame.
func (e *Env) PopFrame() {
	e.frames = e.frames[:len(e.frames)-1]
}

// BindConcrete binds name to a concrete value in the innermost frame.
func (e *Env) BindConcrete(name symbol.ID, v uint64) {
	e.bind(name, Binding{Concrete: &v})
}

// BindSymbolic binds name to a (possibly still-symbolic) Dim expression in
// the innermost frame.
func (e *Env) BindSymbolic(name symbol.ID, d *Dim) {
	e.bind(name, Binding{Symbolic: d})
}

func (e *Env) bind(name symbol.ID, b Binding) {
	if len(e.frames) == 0 {
		e.PushFrame()
	}
	f := &e.frames[len(e.frames)-1]
	f.names = append(f.names, name)
	f.vals = append(f.vals, b)
}

// Lookup resolves name, searching from the innermost frame outward.
func (e *Env) Lookup(name symbol.ID) (Binding, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := &e.frames[i]
		for j := len(f.names) - 1; j >= 0; j-- {
			if f.names[j] == name {
				return f.vals[j], true
			}
		}
	}
	return Binding{}, false
}

// Names returns every currently-bound name across all frames, innermost
// first, for building cache keys and error messages.
func (e *Env) Names() []symbol.ID {
	var out []symbol.ID
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := &e.frames[i]
		for j := len(f.names) - 1; j >= 0; j-- {
			out = append(out, f.names[j])
		}
	}
	return out
}

// Describe renders the environment for error messages.
func (e *Env) Describe() string {
	var b strings.Builder
	for i, f := range e.frames {
		if i > 0 {
			b.WriteString(" | ")
		}
		for j, n := range f.names {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(n.Str())
			b.WriteString("=")
			if f.vals[j].Concrete != nil {
				b.WriteString(itoa(*f.vals[j].Concrete))
			} else {
				b.WriteString(f.vals[j].Symbolic.String())
			}
		}
	}
	return b.String()
}

// Hash computes a fast structural hash of the environment's current
// bindings, used as the cache key for (function, parametric env) bytecode
// caching and for (callee, env) child TypeInfo lookups. Unlike
// the sha256-based hash package used for AST/Dim content hashing, this is
// murmur3 over the rendered binding description; collisions here only
// cost a cache miss, not correctness, so the faster non-cryptographic hash
// is the right tool.
func (e *Env) Hash() uint64 {
	return murmur3.Sum64([]byte(e.Describe()))
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
