package pass

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
)

// Generator builds a Pass for a given opt-level. Registered once, read-only
// thereafter.
type Generator func(optLevel int) Pass

type registry struct {
	generators map[string]Generator
	names      []string
}

var defaultRegistry = &registry{generators: make(map[string]Generator)}

// Register adds name to the process-wide registry. Re-registering an
// existing name is a programming error and panics immediately via
// log.Panicf.
func Register(name string, gen Generator) {
	if _, exists := defaultRegistry.generators[name]; exists {
		log.Panicf("pass: duplicate registration of pass %q", name)
	}
	defaultRegistry.generators[name] = gen
	defaultRegistry.names = append(defaultRegistry.names, name)
}

// Lookup resolves a registered pass name.
func Lookup(name string) (Generator, bool) {
	gen, ok := defaultRegistry.generators[name]
	return gen, ok
}

// AvailablePasses returns every registered name, sorted.
func AvailablePasses() []string {
	out := make([]string, len(defaultRegistry.names))
	copy(out, defaultRegistry.names)
	sort.Strings(out)
	return out
}

// BuildPipeline parses a comma-separated pipeline spec into a
// CompoundPass. Unknown names are an ArgumentError-class
// usage error, not a panic: the spec comes from the driver/CLI, not from
// process-startup registration.
func BuildPipeline(spec string, optLevel int) (*CompoundPass, error) {
	top := NewCompoundPass("ir", "pipeline from spec")
	top.AddInvariantChecker(VerifierChecker{})
	for _, raw := range strings.Split(spec, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		gen, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("pass: unknown pass %q (available: %s)", name, strings.Join(AvailablePasses(), ", "))
		}
		top.Add(gen(optLevel))
	}
	return top, nil
}

// cappedName renders a "name(cap)" registry key, e.g. "simp(2)".
func cappedName(name string, cap int) string {
	return name + "(" + strconv.Itoa(cap) + ")"
}
