package ast

import "github.com/velalang/velac/symbol"

// The constructors below build one Node of each Kind and add it to t,
// returning the new NodeID. They exist so producers (the parser, or tests
// building trees by hand) never poke at Node's shared-slot fields directly.

func (t *Tree) Lit(span Span, text string) NodeID {
	return t.Add(Node{Kind: LitExpr, Span: span, Text: text})
}

func (t *Tree) VarRef(span Span, name symbol.ID) NodeID {
	return t.Add(Node{Kind: VarRefExpr, Span: span, Name: name})
}

func (t *Tree) ColonRef(span Span, base NodeID, member symbol.ID) NodeID {
	return t.Add(Node{Kind: ColonRefExpr, Span: span, A: base, Name: member})
}

func (t *Tree) Binary(span Span, op BinaryOp, lhs, rhs NodeID) NodeID {
	return t.Add(Node{Kind: BinaryExpr, Span: span, Op: byte(op), A: lhs, B: rhs})
}

func (t *Tree) Unary(span Span, op UnaryOp, operand NodeID) NodeID {
	return t.Add(Node{Kind: UnaryExpr, Span: span, Op: byte(op), A: operand})
}

func (t *Tree) Cond(span Span, cond, then, els NodeID) NodeID {
	return t.Add(Node{Kind: CondExpr, Span: span, A: cond, B: then, C: els})
}

func (t *Tree) Match(span Span, scrutinee NodeID, arms []MatchArm) NodeID {
	return t.Add(Node{Kind: MatchExpr, Span: span, A: scrutinee, Arms: arms})
}

// Let builds a let binding. annotation is the optional written type of the
// bound value (InvalidNode when elided).
func (t *Tree) Let(span Span, pattern, annotation, value, body NodeID) NodeID {
	n := Node{Kind: LetExpr, Span: span, A: pattern, B: value, C: body}
	if annotation != InvalidNode {
		n.List = []NodeID{annotation}
	}
	return t.Add(n)
}

func (t *Tree) Cast(span Span, typeExpr, operand NodeID) NodeID {
	return t.Add(Node{Kind: CastExpr, Span: span, A: typeExpr, B: operand})
}

func (t *Tree) ConstAssert(span Span, expr, typeExpr NodeID) NodeID {
	return t.Add(Node{Kind: ConstAssertExpr, Span: span, A: expr, B: typeExpr})
}

// For builds a for-loop expression: pattern is the (elem, acc) binding
// name-def-tree, iterable the array iterated over, init the initial
// accumulator, body the per-iteration expression. unrolled marks the
// statically-unrolled variant, which shares the shape and differs only in
// this flag.
func (t *Tree) For(span Span, pattern, iterable, init, body NodeID, unrolled bool) NodeID {
	return t.Add(Node{Kind: ForExpr, Span: span, A: pattern, B: iterable, C: init, List: []NodeID{body}, Bool: unrolled})
}

func (t *Tree) Block(span Span, stmts []NodeID, result NodeID) NodeID {
	return t.Add(Node{Kind: BlockExpr, Span: span, List: stmts, A: result})
}

func (t *Tree) TupleLit(span Span, elems []NodeID) NodeID {
	return t.Add(Node{Kind: TupleLitExpr, Span: span, List: elems})
}

func (t *Tree) ArrayLit(span Span, elems []NodeID) NodeID {
	return t.Add(Node{Kind: ArrayLitExpr, Span: span, List: elems})
}

// StructLit builds a struct literal. fieldNames[i] names the value at
// fieldValues[i]; nominal is the struct type name as written (may be
// symbol.Invalid for an inferred literal).
func (t *Tree) StructLit(span Span, nominal symbol.ID, fieldNames []symbol.ID, fieldValues []NodeID) NodeID {
	n := Node{Kind: StructLitExpr, Span: span, Name: nominal, List: fieldValues}
	n.Members = make([]EnumMemberInit, len(fieldNames))
	for i, fn := range fieldNames {
		n.Members[i] = EnumMemberInit{Name: fn, Value: fieldValues[i]}
	}
	return t.Add(n)
}

// SplatStructLit builds `{..base, field: value, ...}`: base supplies the
// unnamed fields, overrides names the explicitly-set ones.
func (t *Tree) SplatStructLit(span Span, base NodeID, fieldNames []symbol.ID, fieldValues []NodeID) NodeID {
	n := Node{Kind: SplatStructLitExpr, Span: span, A: base, List: fieldValues}
	n.Members = make([]EnumMemberInit, len(fieldNames))
	for i, fn := range fieldNames {
		n.Members[i] = EnumMemberInit{Name: fn, Value: fieldValues[i]}
	}
	return t.Add(n)
}

func (t *Tree) Attr(span Span, base NodeID, member symbol.ID) NodeID {
	return t.Add(Node{Kind: AttrExpr, Span: span, A: base, Name: member})
}

func (t *Tree) Index(span Span, base, index NodeID) NodeID {
	return t.Add(Node{Kind: IndexExpr, Span: span, A: base, B: index})
}

func (t *Tree) Slice(span Span, base, lo, hi NodeID) NodeID {
	return t.Add(Node{Kind: SliceExpr, Span: span, A: base, B: lo, C: hi})
}

func (t *Tree) WidthSlice(span Span, base, start, width NodeID) NodeID {
	return t.Add(Node{Kind: WidthSliceExpr, Span: span, A: base, B: start, C: width})
}

func (t *Tree) Spawn(span Span, proc NodeID, args []NodeID) NodeID {
	return t.Add(Node{Kind: SpawnExpr, Span: span, A: proc, List: args})
}

// Invoke builds a call. parametricArgs are the call site's explicitly
// supplied parametric expressions, packed ahead of the value args with the
// same prefix-count convention StructDef/ProcDef use.
func (t *Tree) Invoke(span Span, callee NodeID, parametricArgs, args []NodeID) NodeID {
	n := Node{Kind: InvokeExpr, Span: span, A: callee, Op: byte(len(parametricArgs))}
	n.List = append(append([]NodeID{}, parametricArgs...), args...)
	return t.Add(n)
}

func (t *Tree) FormatMacro(span Span, format string, args []NodeID) NodeID {
	return t.Add(Node{Kind: FormatMacroExpr, Span: span, Text: format, List: args})
}

func (t *Tree) Range(span Span, lo, hi NodeID) NodeID {
	return t.Add(Node{Kind: RangeExpr, Span: span, A: lo, B: hi})
}

// ChannelDecl builds a channel declaration producing an (out, in) pair.
// dims optionally wrap the pair element-wise as arrays; fifoDepth is an
// optional u32 expression (InvalidNode when unwritten).
func (t *Tree) ChannelDecl(span Span, payload NodeID, dims []NodeID, fifoDepth NodeID) NodeID {
	return t.Add(Node{Kind: ChannelDeclExpr, Span: span, A: payload, B: fifoDepth, List: dims})
}

func (t *Tree) TypeAnnotation(span Span, typeExpr NodeID) NodeID {
	return t.Add(Node{Kind: TypeAnnotationExpr, Span: span, A: typeExpr})
}

func (t *Tree) TypeName(span Span, name symbol.ID, parametricArgs []NodeID) NodeID {
	return t.Add(Node{Kind: TypeNameExpr, Span: span, Name: name, List: parametricArgs})
}

func (t *Tree) TypeArray(span Span, elem, size NodeID) NodeID {
	return t.Add(Node{Kind: TypeArrayExpr, Span: span, A: elem, B: size})
}

func (t *Tree) TypeTuple(span Span, members []NodeID) NodeID {
	return t.Add(Node{Kind: TypeTupleExpr, Span: span, List: members})
}

func (t *Tree) TypeBits(span Span, signed bool, size NodeID) NodeID {
	return t.Add(Node{Kind: TypeBitsExpr, Span: span, Bool: signed, A: size})
}

func (t *Tree) TypeChannel(span Span, payload NodeID, dirIn bool) NodeID {
	return t.Add(Node{Kind: TypeChannelExpr, Span: span, A: payload, Bool: dirIn})
}

func (t *Tree) NameLeaf(span Span, name symbol.ID) NodeID {
	return t.Add(Node{Kind: NameLeafPattern, Span: span, Name: name})
}

func (t *Tree) Wildcard(span Span) NodeID {
	return t.Add(Node{Kind: WildcardPattern, Span: span})
}

func (t *Tree) TuplePattern(span Span, elems []NodeID) NodeID {
	return t.Add(Node{Kind: TuplePattern, Span: span, List: elems})
}

// FormalArg builds a formal argument/parametric binding: name, its written
// type annotation, and an optional default-value expression.
func (t *Tree) FormalArg(span Span, name symbol.ID, typeExpr, defaultExpr NodeID) NodeID {
	return t.Add(Node{Kind: FormalArgDecl, Span: span, Name: name, A: typeExpr, B: defaultExpr})
}

// StructDef builds a struct declaration. List holds parametrics followed by
// members; Op records how many of the leading entries are parametrics, the
// same prefix-count convention used by ProcDef and Module.
func (t *Tree) StructDef(span Span, name symbol.ID, parametrics, members []NodeID) NodeID {
	n := Node{Kind: StructDefDecl, Span: span, Name: name, Op: byte(len(parametrics))}
	n.List = append(append([]NodeID{}, parametrics...), members...)
	return t.Add(n)
}

func (t *Tree) EnumDef(span Span, name symbol.ID, underlying NodeID, members []EnumMemberInit) NodeID {
	return t.Add(Node{Kind: EnumDefDecl, Span: span, Name: name, A: underlying, Members: members})
}

func (t *Tree) AliasDef(span Span, name symbol.ID, parametrics []NodeID, aliased NodeID) NodeID {
	return t.Add(Node{Kind: AliasDefDecl, Span: span, Name: name, A: aliased, List: parametrics})
}

// ConstDef builds a module-level constant declaration. typeExpr is the
// optional written annotation (InvalidNode when elided); public marks a
// `pub const` visible through imports.
func (t *Tree) ConstDef(span Span, name symbol.ID, typeExpr, value NodeID, public bool) NodeID {
	return t.Add(Node{Kind: ConstDefDecl, Span: span, Name: name, A: value, B: typeExpr, Bool: public})
}

// FuncDef builds an ordinary (stateless) function declaration: `fn`.
func (t *Tree) FuncDef(span Span, name symbol.ID, parametrics, formals []NodeID, retType, body NodeID) NodeID {
	n := Node{Kind: FuncDefDecl, Span: span, Name: name, B: retType, C: body}
	n.List = append(n.List, parametrics...)
	n.List = append(n.List, formals...)
	n.Op = byte(len(parametrics))
	return t.Add(n)
}

// ProcDef builds a stateful proc declaration: the config/next/init
// triad. List packs parametrics, then config formals, then next formals,
// using the same prefix-count convention as StructDef/Module; Op and Op2
// record the first two prefix lengths, the rest is next formals. configBody
// is the expression a spawn site evaluates to build the proc's channel
// bundle, nextBody is the per-activation state transition, initBody
// produces the initial state (no arguments).
func (t *Tree) ProcDef(span Span, name symbol.ID, parametrics, configFormals, nextFormals []NodeID, configBody, nextBody, initBody NodeID) NodeID {
	n := Node{Kind: ProcDefDecl, Span: span, Name: name, A: configBody, B: nextBody, C: initBody}
	n.List = append(n.List, parametrics...)
	n.List = append(n.List, configFormals...)
	n.List = append(n.List, nextFormals...)
	n.Op = byte(len(parametrics))
	n.Op2 = byte(len(configFormals))
	return t.Add(n)
}

func (t *Tree) TestDef(span Span, name symbol.ID, body NodeID) NodeID {
	return t.Add(Node{Kind: TestDefDecl, Span: span, Name: name, A: body})
}

func (t *Tree) QuickcheckDef(span Span, name symbol.ID, generators []NodeID, body NodeID) NodeID {
	return t.Add(Node{Kind: QuickcheckDefDecl, Span: span, Name: name, List: generators, A: body})
}

func (t *Tree) Import(span Span, path string, alias symbol.ID) NodeID {
	return t.Add(Node{Kind: ImportDecl, Span: span, Text: path, Name: alias})
}

func (t *Tree) Module(span Span, name symbol.ID, imports, decls []NodeID) NodeID {
	n := Node{Kind: ModuleDecl, Span: span, Name: name, List: decls}
	n.Op = byte(len(imports))
	n.List = append(append([]NodeID{}, imports...), decls...)
	return t.Add(n)
}
