package bytecode

import (
	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// emit_composite.go holds the emission rules for the composite expression
// forms: struct literals, match, for, spawn, colon-ref, channel
// declarations, and format macros. The scalar/control forms live in
// emit.go.

// emitStructLit lowers a struct literal to a tuple built in declared
// member order, regardless of the order the source wrote the members in:
// the runtime representation of a struct is its member tuple, so attribute
// access can lower to a constant-index Index (see emitAttr).
func (e *Emitter) emitStructLit(id ast.NodeID, n *ast.Node) error {
	t, err := e.resolvedType(id)
	if err != nil {
		return err
	}
	if t.Kind() != types.StructKind {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: struct literal with non-struct resolved type"}
	}
	byName := make(map[string]ast.NodeID, len(n.Members))
	for _, m := range n.Members {
		byName[m.Name.Str()] = m.Value
	}
	members := t.StructMembers()
	for _, m := range members {
		valNode, ok := byName[m.Name.Str()]
		if !ok {
			return &diag.InternalError{Span: n.Span, Message: "bytecode: struct literal missing member " + m.Name.Str()}
		}
		if err := e.node(valNode); err != nil {
			return err
		}
	}
	e.push(Instr{Op: CreateTuple, Span: n.Span, N: len(members)})
	return nil
}

// emitSplatStructLit lowers `{..base, overrides}`: the base is stashed in
// a fresh slot, then every declared member is either the override
// expression or a constant-index extraction from the base.
func (e *Emitter) emitSplatStructLit(id ast.NodeID, n *ast.Node) error {
	t, err := e.resolvedType(id)
	if err != nil {
		return err
	}
	if t.Kind() != types.StructKind {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: splat literal with non-struct resolved type"}
	}
	if err := e.node(n.A); err != nil {
		return err
	}
	baseSlot := e.freshSlot()
	e.push(Instr{Op: Store, Span: n.Span, Slot: baseSlot})

	overrides := make(map[string]ast.NodeID, len(n.Members))
	for _, m := range n.Members {
		overrides[m.Name.Str()] = m.Value
	}
	members := t.StructMembers()
	for i, m := range members {
		if valNode, ok := overrides[m.Name.Str()]; ok {
			if err := e.node(valNode); err != nil {
				return err
			}
			continue
		}
		e.push(Instr{Op: Load, Span: n.Span, Slot: baseSlot})
		e.push(Instr{Op: Literal, Span: n.Span, Value: value.NewBitsFromInt64(32, false, int64(i))})
		e.push(Instr{Op: Index, Span: n.Span})
	}
	e.push(Instr{Op: CreateTuple, Span: n.Span, N: len(members)})
	return nil
}

// emitMatch lowers a match to a chain of conditionals over the stashed
// scrutinee, reusing the guard/JumpRelIf/else/JumpRel/JumpDest shape
// emitCond establishes. An irrefutable arm terminates the chain; arms
// after it are unreachable and not emitted.
func (e *Emitter) emitMatch(n *ast.Node) error {
	if err := e.node(n.A); err != nil {
		return err
	}
	scrutSlot := e.freshSlot()
	e.push(Instr{Op: Store, Span: n.Span, Slot: scrutSlot})
	return e.emitMatchArms(scrutSlot, n.Arms, n.Span)
}

func (e *Emitter) emitMatchArms(scrutSlot int, arms []ast.MatchArm, span ast.Span) error {
	if len(arms) == 0 {
		return &diag.InternalError{Span: span, Message: "bytecode: match chain ran out of arms"}
	}
	arm := arms[0]
	loadScrut := func() {
		e.push(Instr{Op: Load, Span: span, Slot: scrutSlot})
	}

	if !e.patternRefutable(arm.Pattern) || len(arms) == 1 {
		// Irrefutable (or final) arm: bind and run the body directly. A
		// refutable final arm runs unconditionally; exhaustiveness is the
		// deducer's concern, not the emitter's.
		if err := e.bindMatchPattern(loadScrut, arm.Pattern); err != nil {
			return err
		}
		return e.node(arm.Body)
	}

	if _, err := e.emitPatternTest(loadScrut, arm.Pattern); err != nil {
		return err
	}
	jumpIfIdx := e.push(Instr{Op: JumpRelIf, Span: span})
	if err := e.emitMatchArms(scrutSlot, arms[1:], span); err != nil {
		return err
	}
	jumpIdx := e.push(Instr{Op: JumpRel, Span: span})
	e.push(Instr{Op: JumpDest, Span: span})
	armStart := len(e.instrs)
	if err := e.bindMatchPattern(loadScrut, arm.Pattern); err != nil {
		return err
	}
	if err := e.node(arm.Body); err != nil {
		return err
	}
	e.instrs[jumpIfIdx].Offset = armStart - (jumpIfIdx + 1)
	e.push(Instr{Op: JumpDest, Span: span})
	end := len(e.instrs)
	e.instrs[jumpIdx].Offset = end - (jumpIdx + 1)
	return nil
}

// patternRefutable reports whether the pattern has any literal or
// colon-ref leaf, i.e. whether matching it can fail at runtime.
func (e *Emitter) patternRefutable(pattern ast.NodeID) bool {
	n := e.tree.Node(pattern)
	switch n.Kind {
	case ast.LitExpr, ast.ColonRefExpr:
		return true
	case ast.TuplePattern:
		for _, m := range n.List {
			if e.patternRefutable(m) {
				return true
			}
		}
	}
	return false
}

// emitPatternTest emits instructions leaving a u1 on the stack that is
// true iff the value produced by load matches the pattern's refutable
// leaves. It reports tested=false (and emits nothing) for a fully
// irrefutable pattern.
func (e *Emitter) emitPatternTest(load func(), pattern ast.NodeID) (tested bool, err error) {
	n := e.tree.Node(pattern)
	switch n.Kind {
	case ast.NameLeafPattern, ast.WildcardPattern:
		return false, nil
	case ast.LitExpr:
		load()
		if err := e.emitLit(pattern, n); err != nil {
			return false, err
		}
		e.push(Instr{Op: Eq, Span: n.Span})
		return true, nil
	case ast.ColonRefExpr:
		load()
		if err := e.emitColonRef(pattern, n); err != nil {
			return false, err
		}
		e.push(Instr{Op: Eq, Span: n.Span})
		return true, nil
	case ast.TuplePattern:
		emitted := 0
		for i, m := range n.List {
			i := i
			subLoad := func() {
				load()
				e.push(Instr{Op: Literal, Span: n.Span, Value: value.NewBitsFromInt64(32, false, int64(i))})
				e.push(Instr{Op: Index, Span: n.Span})
			}
			subTested, err := e.emitPatternTest(subLoad, m)
			if err != nil {
				return false, err
			}
			if subTested {
				emitted++
				if emitted > 1 {
					e.push(Instr{Op: And, Span: n.Span})
				}
			}
		}
		return emitted > 0, nil
	default:
		return false, &diag.InternalError{Span: n.Span, Message: "bytecode: not a pattern node"}
	}
}

// bindMatchPattern binds a match arm's name leaves by constant-index
// extraction from the stashed scrutinee; literal and colon-ref leaves bind
// nothing (they were already tested).
func (e *Emitter) bindMatchPattern(load func(), pattern ast.NodeID) error {
	n := e.tree.Node(pattern)
	switch n.Kind {
	case ast.NameLeafPattern:
		load()
		slot := e.allocSlot(n.Name)
		e.push(Instr{Op: Store, Span: n.Span, Slot: slot})
		return nil
	case ast.WildcardPattern, ast.LitExpr, ast.ColonRefExpr:
		return nil
	case ast.TuplePattern:
		for i, m := range n.List {
			i := i
			subLoad := func() {
				load()
				e.push(Instr{Op: Literal, Span: n.Span, Value: value.NewBitsFromInt64(32, false, int64(i))})
				e.push(Instr{Op: Index, Span: n.Span})
			}
			if err := e.bindMatchPattern(subLoad, m); err != nil {
				return err
			}
		}
		return nil
	default:
		return &diag.InternalError{Span: n.Span, Message: "bytecode: not a pattern node"}
	}
}

// emitFor statically unrolls a for loop: the array size is concrete by the
// time emission runs, and the interpreter has no loop re-entry cheaper
// than re-emitting the body per iteration. Each iteration rebinds the
// (elem, acc) pattern to fresh slots and leaves the new accumulator on the
// stack for the next one.
func (e *Emitter) emitFor(n *ast.Node) error {
	iterType, err := e.resolvedType(n.B)
	if err != nil {
		return err
	}
	if iterType.Kind() != types.ArrayKind || !iterType.ArraySize().IsConst() {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: for-loop iterable must have a concrete array size at emission time"}
	}
	count := int(iterType.ArraySize().ConstValue())
	body := n.List[0]

	if err := e.node(n.C); err != nil { // initial accumulator
		return err
	}
	accSlot := e.freshSlot()
	for i := 0; i < count; i++ {
		e.push(Instr{Op: Store, Span: n.Span, Slot: accSlot})
		if err := e.node(n.B); err != nil {
			return err
		}
		e.push(Instr{Op: Literal, Span: n.Span, Value: value.NewBitsFromInt64(32, false, int64(i))})
		e.push(Instr{Op: Index, Span: n.Span})
		e.push(Instr{Op: Load, Span: n.Span, Slot: accSlot})
		e.push(Instr{Op: CreateTuple, Span: n.Span, N: 2})
		if err := e.bindPattern(n.A); err != nil {
			return err
		}
		if err := e.node(body); err != nil {
			return err
		}
	}
	return nil
}

// emitSpawn lowers a spawn to its config arguments followed by a Call
// carrying the proc reference. Spawn never appears in a constexpr context
// (the purity contract excludes it), so the interpreter treats the callee
// as an unknown builtin if one ever reaches it.
func (e *Emitter) emitSpawn(n *ast.Node) error {
	for _, a := range n.List {
		if err := e.node(a); err != nil {
			return err
		}
	}
	calleeNode := e.tree.Node(n.A)
	callee := value.NewFunc(&value.FuncRef{Name: calleeNode.Name.Str()})
	e.push(Instr{Op: Call, Span: n.Span, Callee: callee, N: len(n.List)})
	return nil
}

// emitColonRef emits the constant the deducer resolved the colon-ref to: a
// cross-module constant, an enum value, or a builtin MAX/ZERO attribute.
// Constant folding therefore crosses the module boundary: an imported
// constant reference is a single Literal instruction.
func (e *Emitter) emitColonRef(id ast.NodeID, n *ast.Node) error {
	v, ok := e.info.ConstValue(id)
	if !ok {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: colon-ref did not resolve to a constant"}
	}
	e.push(Instr{Op: Literal, Span: n.Span, Value: v})
	return nil
}

// emitChannelDecl materializes the (out, in) channel pair, wrapped
// element-wise by any array dims recorded in the declaration's resolved
// type. The dims are read back off the type rather than re-derived from
// the dim expressions, matching the emitter's requires-only-types contract.
func (e *Emitter) emitChannelDecl(id ast.NodeID, n *ast.Node) error {
	t, err := e.resolvedType(id)
	if err != nil {
		return err
	}
	if t.Kind() != types.TupleKind || len(t.Members()) != 2 {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: channel decl with non-pair resolved type"}
	}
	var dims []int
	for o := t.Members()[0]; o.Kind() == types.ArrayKind; o = o.Elem() {
		if !o.ArraySize().IsConst() {
			return &diag.InternalError{Span: n.Span, Message: "bytecode: channel array dim must be concrete at emission time"}
		}
		dims = append(dims, int(o.ArraySize().ConstValue()))
	}
	e.emitChannelBundle(dims, n.Span)
	return nil
}

func (e *Emitter) emitChannelBundle(dims []int, span ast.Span) {
	if len(dims) == 0 {
		e.push(Instr{Op: NewChannel, Span: span})
		return
	}
	d := dims[0]
	outSlots := make([]int, d)
	inSlots := make([]int, d)
	for i := 0; i < d; i++ {
		e.emitChannelBundle(dims[1:], span)
		e.push(Instr{Op: ExpandTuple, Span: span, N: 2})
		outSlots[i] = e.freshSlot()
		e.push(Instr{Op: Store, Span: span, Slot: outSlots[i]})
		inSlots[i] = e.freshSlot()
		e.push(Instr{Op: Store, Span: span, Slot: inSlots[i]})
	}
	for i := 0; i < d; i++ {
		e.push(Instr{Op: Load, Span: span, Slot: outSlots[i]})
	}
	e.push(Instr{Op: CreateArray, Span: span, N: d})
	for i := 0; i < d; i++ {
		e.push(Instr{Op: Load, Span: span, Slot: inSlots[i]})
	}
	e.push(Instr{Op: CreateArray, Span: span, N: d})
	e.push(Instr{Op: CreateTuple, Span: span, N: 2})
}

// emitFormatMacro lowers a trace/format macro to its arguments followed by
// a call to the trace_fmt builtin, which yields a token.
func (e *Emitter) emitFormatMacro(n *ast.Node) error {
	for _, a := range n.List {
		if err := e.node(a); err != nil {
			return err
		}
	}
	callee := value.NewFunc(&value.FuncRef{Builtin: "trace_fmt", Name: "trace_fmt"})
	e.push(Instr{Op: Call, Span: n.Span, Callee: callee, N: len(n.List)})
	return nil
}
