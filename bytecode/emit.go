package bytecode

import (
	"math/big"

	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// Emitter lowers a typed AST into a Program. It requires only the types of
// the expression's subnodes to already be recorded in info; it never
// performs type inference itself.
type Emitter struct {
	tree     *ast.Tree
	info     *typeinfo.Info
	instrs   []Instr
	slots    map[symbol.ID]int
	nextSlot int

	// envHash keys slice-resolution lookups: the deducer records each
	// slice's (start, width) under the parametric environment it resolved
	// them in, so the emitter must present the same key.
	envHash uint64
}

// NewEmitter creates an emitter over tree, consulting info for resolved
// types and constexpr values.
func NewEmitter(tree *ast.Tree, info *typeinfo.Info) *Emitter {
	return &Emitter{tree: tree, info: info, slots: make(map[symbol.ID]int)}
}

// SetEnvHash records the hash of the parametric environment the body will
// be emitted under, used to look up the deducer's per-env slice
// resolutions.
func (e *Emitter) SetEnvHash(h uint64) { e.envHash = h }

// BindParam pre-allocates the next slot to name, used to seat a function's
// formal parameters in slots 0..P-1 before the body is emitted.
func (e *Emitter) BindParam(name symbol.ID) int {
	slot := e.nextSlot
	e.nextSlot++
	e.slots[name] = slot
	return slot
}

// EmitFunctionBody emits body (a BlockExpr node) and returns the finished
// Program.
func (e *Emitter) EmitFunctionBody(body ast.NodeID) (*Program, error) {
	if err := e.node(body); err != nil {
		return nil, err
	}
	return &Program{Instrs: e.instrs, NumSlots: e.nextSlot}, nil
}

func (e *Emitter) push(i Instr) int {
	e.instrs = append(e.instrs, i)
	return len(e.instrs) - 1
}

func (e *Emitter) allocSlot(name symbol.ID) int {
	slot := e.nextSlot
	e.nextSlot++
	e.slots[name] = slot
	return slot
}

// freshSlot allocates a local slot with no name binding, for values the
// emitter needs to stash temporarily (a match scrutinee, a discarded
// intermediate result) rather than expose to VarRefExpr lookups.
func (e *Emitter) freshSlot() int {
	slot := e.nextSlot
	e.nextSlot++
	return slot
}

func (e *Emitter) resolvedType(n ast.NodeID) (*types.Type, error) {
	t, ok := e.info.Type(n)
	if !ok {
		nd := e.tree.Node(n)
		return nil, &diag.InternalError{Span: nd.Span, Message: "bytecode: node has no resolved type at emission time"}
	}
	return t, nil
}

func (e *Emitter) node(id ast.NodeID) error {
	if id == ast.InvalidNode {
		return nil
	}
	n := e.tree.Node(id)
	switch n.Kind {
	case ast.LitExpr:
		return e.emitLit(id, n)
	case ast.VarRefExpr:
		slot, ok := e.slots[n.Name]
		if !ok {
			return &diag.InternalError{Span: n.Span, Message: "bytecode: reference to unbound name " + n.Name.Str()}
		}
		e.push(Instr{Op: Load, Span: n.Span, Slot: slot})
		return nil
	case ast.BinaryExpr:
		return e.emitBinary(id, n)
	case ast.UnaryExpr:
		return e.emitUnary(n)
	case ast.CondExpr:
		return e.emitCond(n)
	case ast.LetExpr:
		if err := e.node(n.B); err != nil {
			return err
		}
		if err := e.bindPattern(n.A); err != nil {
			return err
		}
		return e.node(n.C)
	case ast.CastExpr:
		if err := e.node(n.B); err != nil {
			return err
		}
		target, err := e.resolvedType(id)
		if err != nil {
			return err
		}
		e.push(Instr{Op: Cast, Span: n.Span, Target: target})
		return nil
	case ast.ConstAssertExpr:
		return e.node(n.A)
	case ast.BlockExpr:
		for _, s := range n.List {
			if err := e.node(s); err != nil {
				return err
			}
		}
		return e.node(n.A)
	case ast.TupleLitExpr:
		for _, m := range n.List {
			if err := e.node(m); err != nil {
				return err
			}
		}
		e.push(Instr{Op: CreateTuple, Span: n.Span, N: len(n.List)})
		return nil
	case ast.ArrayLitExpr:
		for _, m := range n.List {
			if err := e.node(m); err != nil {
				return err
			}
		}
		e.push(Instr{Op: CreateArray, Span: n.Span, N: len(n.List)})
		return nil
	case ast.AttrExpr:
		return e.emitAttr(id, n)
	case ast.IndexExpr:
		if err := e.node(n.A); err != nil {
			return err
		}
		if err := e.node(n.B); err != nil {
			return err
		}
		e.push(Instr{Op: Index, Span: n.Span})
		return nil
	case ast.SliceExpr, ast.WidthSliceExpr:
		return e.emitSlice(id, n)
	case ast.InvokeExpr:
		return e.emitInvoke(id, n)
	case ast.RangeExpr:
		if err := e.node(n.A); err != nil {
			return err
		}
		if err := e.node(n.B); err != nil {
			return err
		}
		e.push(Instr{Op: CreateTuple, Span: n.Span, N: 2})
		return nil
	case ast.StructLitExpr:
		return e.emitStructLit(id, n)
	case ast.SplatStructLitExpr:
		return e.emitSplatStructLit(id, n)
	case ast.MatchExpr:
		return e.emitMatch(n)
	case ast.ForExpr:
		return e.emitFor(n)
	case ast.SpawnExpr:
		return e.emitSpawn(n)
	case ast.ColonRefExpr:
		return e.emitColonRef(id, n)
	case ast.ChannelDeclExpr:
		return e.emitChannelDecl(id, n)
	case ast.FormatMacroExpr:
		return e.emitFormatMacro(n)
	default:
		return &diag.InternalError{Span: n.Span, Message: "bytecode: emission reached a non-expression node kind"}
	}
}

func (e *Emitter) emitLit(id ast.NodeID, n *ast.Node) error {
	t, err := e.resolvedType(id)
	if err != nil {
		return err
	}
	if t.Kind() != types.BitsKind {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: literal with non-Bits resolved type"}
	}
	raw, ok := new(big.Int).SetString(n.Text, 0)
	if !ok {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: malformed literal text " + n.Text}
	}
	width := uint32(0)
	if t.Size().IsConst() {
		width = uint32(t.Size().ConstValue())
	}
	v := value.NewBits(width, t.Signed(), raw)
	e.push(Instr{Op: Literal, Span: n.Span, Value: v})
	return nil
}

func (e *Emitter) emitBinary(id ast.NodeID, n *ast.Node) error {
	if err := e.node(n.A); err != nil {
		return err
	}
	if err := e.node(n.B); err != nil {
		return err
	}
	op := ast.BinaryOp(n.Op)
	bcOp, err := e.binaryOpcode(id, n, op)
	if err != nil {
		return err
	}
	e.push(Instr{Op: bcOp, Span: n.Span})
	return nil
}

// binaryOpcode resolves ast.OpShr (the surface ">>" operator) to Shra or
// Shrl depending on the statically-resolved signedness of the left operand.
func (e *Emitter) binaryOpcode(id ast.NodeID, n *ast.Node, op ast.BinaryOp) (Opcode, error) {
	switch op {
	case ast.OpAdd:
		return Add, nil
	case ast.OpSub:
		return Sub, nil
	case ast.OpMul:
		return Mul, nil
	case ast.OpDiv:
		return Div, nil
	case ast.OpAnd, ast.OpLogAnd:
		return And, nil
	case ast.OpOr, ast.OpLogOr:
		return Or, nil
	case ast.OpXor:
		return Xor, nil
	case ast.OpShl:
		return Shll, nil
	case ast.OpShr:
		lhsType, err := e.resolvedType(n.A)
		if err != nil {
			return Invalid, err
		}
		if lhsType.Kind() == types.BitsKind && lhsType.Signed() {
			return Shra, nil
		}
		return Shrl, nil
	case ast.OpConcat:
		return Concat, nil
	case ast.OpEq:
		return Eq, nil
	case ast.OpNe:
		return Ne, nil
	case ast.OpLt:
		return Lt, nil
	case ast.OpLe:
		return Le, nil
	case ast.OpGt:
		return Gt, nil
	case ast.OpGe:
		return Ge, nil
	}
	return Invalid, &diag.InternalError{Span: n.Span, Message: "bytecode: unknown binary operator"}
}

func (e *Emitter) emitUnary(n *ast.Node) error {
	if err := e.node(n.A); err != nil {
		return err
	}
	switch ast.UnaryOp(n.Op) {
	case ast.OpInvert, ast.OpLogNot:
		e.push(Instr{Op: Invert, Span: n.Span})
	case ast.OpNegate:
		e.push(Instr{Op: Negate, Span: n.Span})
	default:
		return &diag.InternalError{Span: n.Span, Message: "bytecode: unknown unary operator"}
	}
	return nil
}

// emitCond lowers a conditional expression to a
// guard, a JumpRelIf to the then-arm, the else-arm, an unconditional
// JumpRel to the end, a JumpDest, the then-arm, and a closing JumpDest.
// Offsets are relative to the successor instruction (pc+1+offset).
func (e *Emitter) emitCond(n *ast.Node) error {
	if err := e.node(n.A); err != nil {
		return err
	}
	jumpIfIdx := e.push(Instr{Op: JumpRelIf, Span: n.Span})
	if err := e.node(n.C); err != nil { // else-arm
		return err
	}
	jumpIdx := e.push(Instr{Op: JumpRel, Span: n.Span})
	e.push(Instr{Op: JumpDest, Span: n.Span}) // leading label; JumpRelIf lands on the instruction after it
	thenStart := len(e.instrs)
	if err := e.node(n.B); err != nil { // then-arm
		return err
	}
	e.instrs[jumpIfIdx].Offset = thenStart - (jumpIfIdx + 1)
	e.push(Instr{Op: JumpDest, Span: n.Span}) // closing label
	end := len(e.instrs)
	e.instrs[jumpIdx].Offset = end - (jumpIdx + 1)
	return nil
}

// bindPattern emits the Store (and, for interior tuple nodes, ExpandTuple)
// instructions that consume the value currently on top of the stack,
// with leaves numbered left to right regardless of nesting depth.
func (e *Emitter) bindPattern(id ast.NodeID) error {
	n := e.tree.Node(id)
	switch n.Kind {
	case ast.NameLeafPattern:
		slot := e.allocSlot(n.Name)
		e.push(Instr{Op: Store, Span: n.Span, Slot: slot})
		return nil
	case ast.WildcardPattern:
		slot := e.allocSlot(symbol.Wildcard)
		e.push(Instr{Op: Store, Span: n.Span, Slot: slot})
		return nil
	case ast.TuplePattern:
		e.push(Instr{Op: ExpandTuple, Span: n.Span, N: len(n.List)})
		for _, m := range n.List {
			if err := e.bindPattern(m); err != nil {
				return err
			}
		}
		return nil
	default:
		return &diag.InternalError{Span: n.Span, Message: "bytecode: not a pattern node"}
	}
}

// emitAttr lowers struct-member access to a base load followed by a
// constant-index Index, since the member's ordinal position is known
// statically from the resolved struct type.
func (e *Emitter) emitAttr(id ast.NodeID, n *ast.Node) error {
	if err := e.node(n.A); err != nil {
		return err
	}
	baseType, err := e.resolvedType(n.A)
	if err != nil {
		return err
	}
	if baseType.Kind() != types.StructKind {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: attr access on non-struct type"}
	}
	members := baseType.StructMembers()
	ord := -1
	for i, m := range members {
		if m.Name == n.Name {
			ord = i
			break
		}
	}
	if ord < 0 {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: unknown struct member " + n.Name.Str()}
	}
	e.push(Instr{Op: Literal, Span: n.Span, Value: value.NewBitsFromInt64(32, false, int64(ord))})
	e.push(Instr{Op: Index, Span: n.Span})
	return nil
}

// emitSlice lowers a slice/width-slice using the (start, width) the
// deducer already resolved into TypeInfo for this node: the emitter
// never re-derives the clamping arithmetic itself.
func (e *Emitter) emitSlice(id ast.NodeID, n *ast.Node) error {
	if err := e.node(n.A); err != nil {
		return err
	}
	r, ok := e.info.SliceResolution(id, e.envHash)
	if !ok {
		return &diag.InternalError{Span: n.Span, Message: "bytecode: slice has no resolved range"}
	}
	op := Slice
	if n.Kind == ast.WidthSliceExpr {
		op = WidthSlice
	}
	e.push(Instr{Op: op, Span: n.Span, Slot: int(r.Start), N: int(r.Width)})
	return nil
}

// emitInvoke lowers a call: arguments left to right, then a Call carrying
// the callee value and the argument count. `assert_eq` and other builtins
// lower through the same path; the interpreter dispatches on the callee's
// name.
func (e *Emitter) emitInvoke(id ast.NodeID, n *ast.Node) error {
	// Explicit parametrics were folded into the callee's instantiation env
	// at deduce time; only the value arguments are emitted.
	_, args := e.tree.InvokeParts(id)
	for _, a := range args {
		if err := e.node(a); err != nil {
			return err
		}
	}
	calleeNode := e.tree.Node(n.A)
	var callee value.Value
	if calleeNode.Kind == ast.VarRefExpr {
		callee = value.NewFunc(&value.FuncRef{Name: calleeNode.Name.Str()})
	} else {
		callee = value.NewFunc(&value.FuncRef{Name: "<anonymous>"})
	}
	e.push(Instr{Op: Call, Span: n.Span, Callee: callee, N: len(args)})
	return nil
}
