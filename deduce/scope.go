package deduce

import "github.com/velalang/velac/symbol"
import "github.com/velalang/velac/types"

// scope is a lexical stack of name -> Type bindings, shaped like dim.Env but
// carrying resolved value types instead of dimension bindings; let-bound
// names, for-loop binders, and match-arm patterns all push into it.
type scope struct {
	frames []scopeFrame
}

type scopeFrame struct {
	names []symbol.ID
	types []*types.Type
}

func newScope() *scope {
	return &scope{}
}

func (s *scope) push() {
	s.frames = append(s.frames, scopeFrame{})
}

func (s *scope) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *scope) bind(name symbol.ID, t *types.Type) {
	f := &s.frames[len(s.frames)-1]
	f.names = append(f.names, name)
	f.types = append(f.types, t)
}

func (s *scope) lookup(name symbol.ID) (*types.Type, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := &s.frames[i]
		for j := len(f.names) - 1; j >= 0; j-- {
			if f.names[j] == name {
				return f.types[j], true
			}
		}
	}
	return nil, false
}
