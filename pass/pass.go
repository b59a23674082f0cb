// Package pass implements the IR pass manager and the default optimization
// pipeline: compound passes, fixed-point compounds, invariant
// checkers, and a name-keyed registry the driver builds a pipeline spec
// from. The passes themselves operate on the pure-value IR in package ir.
package pass

import (
	"fmt"

	"github.com/grailbio/base/log"

	"github.com/velalang/velac/ir"
)

// Options configures a pipeline run.
type Options struct {
	// OptLevel caps which optimizations run; 0 disables everything beyond
	// dead-code elimination, 3 is full optimization.
	OptLevel int
	// IterationCap bounds FixedPointCompoundPass iteration.
	IterationCap int
	// BDDEngine is the external BDD library collaborator. BDD-aware
	// passes degrade to a no-op when this is nil rather than guessing at
	// an engine implementation this package does not carry.
	BDDEngine BDDEngine
}

// DefaultIterationCap is used when Options.IterationCap is zero.
const DefaultIterationCap = 64

func (o *Options) iterationCap() int {
	if o.IterationCap > 0 {
		return o.IterationCap
	}
	return DefaultIterationCap
}

func (o *Options) cappedOptLevel(cap int) int {
	if o.OptLevel < cap {
		return o.OptLevel
	}
	return cap
}

// BDDEngine is the interface the external binary-decision-diagram library
// would satisfy; BddSimplificationPass and BddCsePass consult it when
// present and are identity passes otherwise.
type BDDEngine interface {
	// Implied reports whether, under the accumulated constraints the
	// engine has observed, node n's value is forced to a known constant.
	// ok is false when the engine cannot determine this.
	Implied(n *ir.Node) (value interface{}, ok bool)
}

// Results accumulates run statistics across a pipeline invocation: how many
// times each named pass reported a change, for diagnostics and for
// spotting a pipeline that made no progress.
type Results struct {
	Changes map[string]int
}

// NewResults returns an empty Results.
func NewResults() *Results { return &Results{Changes: make(map[string]int)} }

func (r *Results) record(name string, changed bool) {
	if changed {
		r.Changes[name]++
	}
}

// Pass is a single IR transformation.
type Pass interface {
	Name() string
	Run(pkg *ir.Package, opts *Options, results *Results) (changed bool, err error)
}

// InvariantChecker runs after every child pass of the compound it is
// attached to; a failure is fatal to the run.
type InvariantChecker interface {
	Check(pkg *ir.Package) error
}

// VerifierChecker is the InvariantChecker installed on the top-level
// pipeline: IR well-formedness and channel-use legality (ir.Verify).
type VerifierChecker struct{}

func (VerifierChecker) Check(pkg *ir.Package) error { return ir.Verify(pkg) }

// CompoundPass runs an ordered sequence of child passes, OR-folding their
// changed results.
type CompoundPass struct {
	ShortName   string
	LongName    string
	children    []Pass
	invariants  []InvariantChecker
}

// NewCompoundPass creates an empty compound pass.
func NewCompoundPass(shortName, longName string) *CompoundPass {
	return &CompoundPass{ShortName: shortName, LongName: longName}
}

func (c *CompoundPass) Name() string { return c.ShortName }

// Add appends a child pass.
func (c *CompoundPass) Add(p Pass) *CompoundPass {
	c.children = append(c.children, p)
	return c
}

// AddInvariantChecker attaches a checker that runs after every child pass.
func (c *CompoundPass) AddInvariantChecker(ic InvariantChecker) *CompoundPass {
	c.invariants = append(c.invariants, ic)
	return c
}

// Run executes every child pass in insertion order, running all attached
// invariant checkers after each one. A checker failure aborts the run
// immediately.
func (c *CompoundPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	changed := false
	for _, child := range c.children {
		childChanged, err := child.Run(pkg, opts, results)
		if err != nil {
			return changed, fmt.Errorf("pass %q: %w", child.Name(), err)
		}
		changed = changed || childChanged
		results.record(child.Name(), childChanged)
		for _, ic := range c.invariants {
			if err := ic.Check(pkg); err != nil {
				return changed, fmt.Errorf("invariant check failed after pass %q: %w", child.Name(), err)
			}
		}
	}
	return changed, nil
}

// FixedPointCompoundPass repeats its child sequence until a full sweep
// yields no change, bounded by Options.IterationCap.
type FixedPointCompoundPass struct {
	*CompoundPass
}

// NewFixedPointCompoundPass wraps a fresh CompoundPass in fixed-point
// iteration semantics.
func NewFixedPointCompoundPass(shortName, longName string) *FixedPointCompoundPass {
	return &FixedPointCompoundPass{CompoundPass: NewCompoundPass(shortName, longName)}
}

func (f *FixedPointCompoundPass) Run(pkg *ir.Package, opts *Options, results *Results) (bool, error) {
	anyChanged := false
	cap := opts.iterationCap()
	for i := 0; i < cap; i++ {
		changed, err := f.CompoundPass.Run(pkg, opts, results)
		if err != nil {
			return anyChanged, err
		}
		if !changed {
			return anyChanged, nil
		}
		anyChanged = true
	}
	log.Error.Printf("pass: fixed-point compound %q did not converge within %d iterations", f.ShortName, cap)
	return anyChanged, fmt.Errorf("pass: fixed-point compound %q exceeded iteration cap %d", f.ShortName, cap)
}
