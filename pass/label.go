package pass

import (
	"fmt"

	"github.com/velalang/velac/ir"
)

// LabelRecoveryPass assigns a readable Name to every node the pipeline
// produced without one: the many
// rewrites above synthesize nodes purely by Op and ID, and a trace or
// waveform dump is unreadable without some stable per-node label. Nodes
// that already carry a name, typically original `let`-bound values the
// emitter preserved, are left untouched so recovery never overwrites a
// name the source program actually gave something.
type LabelRecoveryPass struct{}

func NewLabelRecoveryPass() Pass { return LabelRecoveryPass{} }

func (LabelRecoveryPass) Name() string { return "label_recovery" }

func (LabelRecoveryPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	label := func(n *ir.Node) {
		if n.Name != "" {
			return
		}
		n.Name = fmt.Sprintf("%s.%d", n.Op, n.ID)
		changed = true
	}
	for _, f := range pkg.Functions {
		for _, n := range f.Nodes {
			label(n)
		}
	}
	for _, pr := range pkg.Procs {
		for _, n := range pr.Nodes {
			label(n)
		}
	}
	return changed, nil
}
