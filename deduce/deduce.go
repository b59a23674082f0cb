// Package deduce implements the type deducer, the parametric
// instantiator, and the module typechecker:
// a visitor over the AST that infers a *types.Type for every expression
// node, records it into a typeinfo.Info, and resolves parametric calls
// against a dim.Env built up as it goes.
package deduce

import (
	"math/big"

	"github.com/velalang/velac/ast"
	"github.com/velalang/velac/constexpr"
	"github.com/velalang/velac/diag"
	"github.com/velalang/velac/dim"
	"github.com/velalang/velac/symbol"
	"github.com/velalang/velac/typeinfo"
	"github.com/velalang/velac/types"
	"github.com/velalang/velac/value"
)

// Deducer walks one function/proc/test body, recording types into info and
// resolving dimension symbols through env as it discovers bindings.
type Deducer struct {
	tree  *ast.Tree
	info  *typeinfo.Info
	env   *dim.Env
	scope *scope
	guard *constexpr.Guard

	// module resolves cross-declaration and cross-module lookups (struct
	// defs, enum defs, other functions); nil is valid for a standalone
	// deducer used only in tests.
	module *Module

	warnings []diag.Warning
}

// New creates a deducer over tree, recording into info and resolving
// dimension symbols against env. module may be nil outside of a full
// module typecheck.
func New(tree *ast.Tree, info *typeinfo.Info, env *dim.Env, module *Module) *Deducer {
	return &Deducer{
		tree:   tree,
		info:   info,
		env:    env,
		scope:  newScope(),
		guard:  constexpr.NewGuard(),
		module: module,
	}
}

// Warnings returns the non-fatal diagnostics accumulated so far.
func (d *Deducer) Warnings() []diag.Warning { return d.warnings }

func (d *Deducer) warn(span ast.Span, message string) {
	d.warnings = append(d.warnings, diag.Warning{Span: span, Message: message})
}

// BindParam records a function's formal parameter as a scope binding, the
// value-type analogue of bytecode.Emitter.BindParam.
func (d *Deducer) BindParam(name symbol.ID, t *types.Type) {
	if len(d.scope.frames) == 0 {
		d.scope.push()
	}
	d.scope.bind(name, t)
}

// Deduce infers the type of the expression at node, records it into
// TypeInfo, and returns it.
func (d *Deducer) Deduce(node ast.NodeID) (*types.Type, error) {
	if node == ast.InvalidNode {
		return nil, nil
	}
	n := d.tree.Node(node)
	t, err := d.deduceKind(node, n)
	if err != nil {
		return nil, err
	}
	d.info.SetType(node, t)
	return t, nil
}

func (d *Deducer) deduceKind(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	switch n.Kind {
	case ast.LitExpr:
		return d.deduceLit(n)
	case ast.VarRefExpr:
		return d.deduceVarRef(node, n)
	case ast.BinaryExpr:
		return d.deduceBinary(node, n)
	case ast.UnaryExpr:
		return d.deduceUnary(node, n)
	case ast.CondExpr:
		return d.deduceCond(node, n)
	case ast.BlockExpr:
		return d.deduceBlock(n)
	case ast.LetExpr:
		return d.deduceLet(n)
	case ast.CastExpr:
		return d.deduceCast(n)
	case ast.ConstAssertExpr:
		return d.deduceConstAssert(n)
	case ast.AttrExpr:
		return d.deduceAttr(n)
	case ast.IndexExpr:
		return d.deduceIndex(node, n)
	case ast.SliceExpr:
		return d.deduceSlice(node, n, false)
	case ast.WidthSliceExpr:
		return d.deduceSlice(node, n, true)
	case ast.TupleLitExpr:
		return d.deduceTupleLit(n)
	case ast.ArrayLitExpr:
		return d.deduceArrayLit(n)
	case ast.RangeExpr:
		return d.deduceRange(n)
	case ast.InvokeExpr:
		return d.deduceInvoke(node, n)
	case ast.StructLitExpr:
		return d.deduceStructLit(n)
	case ast.SplatStructLitExpr:
		return d.deduceSplatStructLit(n)
	case ast.MatchExpr:
		return d.deduceMatch(n)
	case ast.ForExpr:
		return d.deduceFor(n)
	case ast.ColonRefExpr:
		return d.deduceColonRef(node, n)
	case ast.SpawnExpr:
		return d.deduceSpawn(n)
	case ast.ChannelDeclExpr:
		return d.deduceChannelDecl(n)
	case ast.FormatMacroExpr:
		return d.deduceFormatMacro(n)
	case ast.TypeAnnotationExpr:
		inner, err := d.ResolveTypeExpr(n.A)
		if err != nil {
			return nil, err
		}
		return types.Meta(inner), nil
	default:
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "no deduction rule for this expression form"}
	}
}

// deduceLit assigns every numeric literal the default type u32. Context
// does not narrow it: a literal of another width is written through an
// explicit Cast, and a narrower annotation over a bare literal is a type
// mismatch, keeping literal typing explicit rather than guessed from
// context.
func (d *Deducer) deduceLit(n *ast.Node) (*types.Type, error) {
	if _, ok := new(big.Int).SetString(n.Text, 0); !ok {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "malformed numeric literal " + n.Text}
	}
	return types.U32(), nil
}

func (d *Deducer) deduceVarRef(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	if t, ok := d.scope.lookup(n.Name); ok {
		return t, nil
	}
	if d.module != nil {
		if t, v, ok := d.module.LookupConst(n.Name, false); ok {
			d.info.SetConstValue(node, v)
			return t, nil
		}
		if t, ok := d.module.LookupSignature(n.Name); ok {
			return t, nil
		}
	}
	return nil, &diag.TypeInferenceError{Span: n.Span, Message: "undefined name " + n.Name.Str()}
}

func (d *Deducer) deduceBinary(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	lhs, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	rhs, err := d.Deduce(n.B)
	if err != nil {
		return nil, err
	}
	op := ast.BinaryOp(n.Op)
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpLogAnd, ast.OpLogOr:
		if !types.Equal(lhs, rhs) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: lhs, Got: rhs}).WithExplain("comparison operands must share a type")
		}
		return types.U1(), nil
	case ast.OpConcat:
		if lhs.Kind() != types.BitsKind || rhs.Kind() != types.BitsKind {
			return nil, &diag.TypeMismatchError{Span: n.Span, Want: lhs, Got: rhs, Explain: "concat requires bits operands"}
		}
		return types.Bits(false, dim.NewAdd(lhs.Size(), rhs.Size())), nil
	case ast.OpShl, ast.OpShr:
		if lhs.Kind() != types.BitsKind {
			return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.Bits(false, dim.NewConst(0)), Got: lhs, Explain: "shift requires a bits left operand"}
		}
		return lhs, nil
	default:
		if !types.Equal(lhs, rhs) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: lhs, Got: rhs}).WithExplain("arithmetic operands must share a type")
		}
		return lhs, nil
	}
}

func (d *Deducer) deduceUnary(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	operand, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	switch ast.UnaryOp(n.Op) {
	case ast.OpLogNot:
		if !types.Equal(operand, types.U1()) {
			return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.U1(), Got: operand}
		}
		return types.U1(), nil
	default:
		if operand.Kind() != types.BitsKind {
			return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.Bits(operand.Kind() == types.BitsKind && operand.Signed(), dim.NewConst(0)), Got: operand, Explain: "unary arithmetic requires a bits operand"}
		}
		return operand, nil
	}
}

func (d *Deducer) deduceCond(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	cond, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	if !types.Equal(cond, types.U1()) {
		return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.U1(), Got: cond, Explain: "conditional guard"}
	}
	then, err := d.Deduce(n.B)
	if err != nil {
		return nil, err
	}
	els, err := d.Deduce(n.C)
	if err != nil {
		return nil, err
	}
	if !types.Equal(then, els) {
		return nil, (&diag.TypeMismatchError{Span: n.Span, Want: then, Got: els}).WithExplain("both arms of a conditional must have the same type")
	}
	return then, nil
}

func (d *Deducer) deduceBlock(n *ast.Node) (*types.Type, error) {
	for _, s := range n.List {
		if _, err := d.Deduce(s); err != nil {
			return nil, err
		}
	}
	if n.A == ast.InvalidNode {
		return types.Token(), nil
	}
	return d.Deduce(n.A)
}

// deduceLet implements the Let rule: deduce the RHS, unify against
// an optional annotation, bind the pattern via the NameDefTree rule, record
// the RHS's constexpr value on the RHS node when it evaluates, then deduce
// the body under the extended scope. The bound leaves of a destructuring
// pattern get no constexpr value of their own.
func (d *Deducer) deduceLet(n *ast.Node) (*types.Type, error) {
	rhsType, err := d.Deduce(n.B)
	if err != nil {
		return nil, err
	}
	if len(n.List) > 0 && n.List[0] != ast.InvalidNode {
		annotated, err := d.resolveAnnotation(n.List[0])
		if err != nil {
			return nil, err
		}
		if !types.Equal(rhsType, annotated) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: annotated, Got: rhsType}).WithExplain("let annotation")
		}
	}
	if d.tree.Node(n.A).Kind == ast.WildcardPattern {
		d.warn(n.Span, "`let _ = ...` is redundant; write the expression as a statement")
	}
	d.scope.push()
	defer d.scope.pop()
	if err := d.bindPattern(n.A, rhsType); err != nil {
		return nil, err
	}
	if v, err := constexpr.Eval(d.tree, d.info, n.B, d.env, d.guard); err == nil {
		d.info.SetConstValue(n.B, v)
	}
	return d.Deduce(n.C)
}

// resolveAnnotation resolves a written type annotation to the type it
// names: a TypeAnnotationExpr deduces to Meta(T), which is unwrapped; a
// bare type-expression node resolves directly.
func (d *Deducer) resolveAnnotation(node ast.NodeID) (*types.Type, error) {
	if d.tree.Node(node).Kind == ast.TypeAnnotationExpr {
		mt, err := d.Deduce(node)
		if err != nil {
			return nil, err
		}
		return mt.MetaInner(), nil
	}
	return d.ResolveTypeExpr(node)
}

// deduceCast checks the closed set of legal casts: bits to bits of any
// widths, bits to/from an enum of equal underlying width, and a bits array
// to/from bits of exactly equal total width. Every other source/target
// pair is a type error.
func (d *Deducer) deduceCast(n *ast.Node) (*types.Type, error) {
	target, err := d.ResolveTypeExpr(n.A)
	if err != nil {
		return nil, err
	}
	source, err := d.Deduce(n.B)
	if err != nil {
		return nil, err
	}
	switch {
	case source.Kind() == types.BitsKind && target.Kind() == types.BitsKind:
		return target, nil
	case source.Kind() == types.BitsKind && target.Kind() == types.EnumKind:
		if err := d.checkEnumCastWidth(n, source, target.Underlying()); err != nil {
			return nil, err
		}
		return target, nil
	case source.Kind() == types.EnumKind && target.Kind() == types.BitsKind:
		if err := d.checkEnumCastWidth(n, target, source.Underlying()); err != nil {
			return nil, err
		}
		return target, nil
	case source.Kind() == types.ArrayKind && target.Kind() == types.BitsKind,
		source.Kind() == types.BitsKind && target.Kind() == types.ArrayKind:
		arr := source
		if arr.Kind() != types.ArrayKind {
			arr = target
		}
		if !isBitsArray(arr) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: target, Got: source}).WithExplain("only arrays of bits cast to and from bits")
		}
		if err := d.checkBitWidthsMatch(n, source, target); err != nil {
			return nil, err
		}
		return target, nil
	default:
		return nil, (&diag.TypeMismatchError{Span: n.Span, Want: target, Got: source}).WithExplain("no cast between these types")
	}
}

// checkEnumCastWidth requires a bits<->enum cast to carry exactly the
// enum's underlying width.
func (d *Deducer) checkEnumCastWidth(n *ast.Node, bits, underlying *types.Type) error {
	if !bits.Size().IsConst() || !underlying.Size().IsConst() {
		return nil // symbolic widths are checked at instantiation time
	}
	if bits.Size().ConstValue() != underlying.Size().ConstValue() {
		return (&diag.TypeMismatchError{Span: n.Span, Want: underlying, Got: bits}).WithExplain("bits<->enum cast requires the enum's underlying width")
	}
	return nil
}

// checkBitWidthsMatch enforces that array<->bits casts carry exactly equal
// total bit widths.
func (d *Deducer) checkBitWidthsMatch(n *ast.Node, a, b *types.Type) error {
	totalA := totalBitWidth(a)
	totalB := totalBitWidth(b)
	if totalA == nil || totalB == nil {
		return nil // symbolic widths are checked at instantiation time
	}
	if *totalA != *totalB {
		return (&diag.TypeMismatchError{Span: n.Span, Want: b, Got: a}).WithExplain("array<->bits cast requires exactly matching bit widths")
	}
	return nil
}

// isBitsArray reports whether t is a (possibly nested) array whose
// ultimate element type is bits.
func isBitsArray(t *types.Type) bool {
	for t.Kind() == types.ArrayKind {
		t = t.Elem()
	}
	return t.Kind() == types.BitsKind
}

func totalBitWidth(t *types.Type) *uint64 {
	switch t.Kind() {
	case types.BitsKind:
		if !t.Size().IsConst() {
			return nil
		}
		v := t.Size().ConstValue()
		return &v
	case types.ArrayKind:
		if !t.ArraySize().IsConst() {
			return nil
		}
		elemWidth := totalBitWidth(t.Elem())
		if elemWidth == nil {
			return nil
		}
		v := t.ArraySize().ConstValue() * *elemWidth
		return &v
	}
	return nil
}

func (d *Deducer) deduceConstAssert(n *ast.Node) (*types.Type, error) {
	argType, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	if !types.Equal(argType, types.U1()) {
		return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.U1(), Got: argType, Explain: "const-assert argument"}
	}
	v, err := constexpr.Eval(d.tree, d.info, n.A, d.env, d.guard)
	if err != nil {
		return nil, &diag.ConstexprError{Span: n.Span, Message: "const-assert argument must be constexpr: " + err.Error()}
	}
	if !v.IsTrue() {
		return nil, &diag.ConstexprError{Span: n.Span, Message: "const-assert failed under environment " + d.env.Describe()}
	}
	return types.Token(), nil
}

func (d *Deducer) deduceAttr(n *ast.Node) (*types.Type, error) {
	baseType, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	if baseType.Kind() != types.StructKind {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "attribute access on non-struct type " + baseType.String()}
	}
	memberType, ok := baseType.MemberType(n.Name)
	if !ok {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "struct " + baseType.String() + " has no member " + n.Name.Str()}
	}
	return memberType, nil
}

func (d *Deducer) deduceIndex(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	baseType, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	idxType, err := d.Deduce(n.B)
	if err != nil {
		return nil, err
	}
	if baseType.Kind() == types.TupleKind {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "tuple members are accessed with dotted numeric syntax, not array indexing"}
	}
	if baseType.Kind() != types.ArrayKind {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "index access on non-array type " + baseType.String()}
	}
	if idxType.Kind() != types.BitsKind || idxType.Signed() {
		return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.Bits(false, dim.NewConst(32)), Got: idxType, Explain: "array index must be unsigned bits"}
	}
	if v, err := constexpr.Eval(d.tree, d.info, n.B, d.env, d.guard); err == nil && baseType.ArraySize().IsConst() {
		idx := uint64(v.Int64())
		if idx >= baseType.ArraySize().ConstValue() {
			return nil, &diag.TypeInferenceError{Span: n.Span, Message: "index out of bounds at compile time"}
		}
	}
	return baseType.Elem(), nil
}

// deduceSlice implements the bits-slice and width-slice rules: bounds
// are resolved at deduce time and the concrete
// (start, width) pair is recorded in TypeInfo for the emitter to consume
// directly, keyed by the current parametric environment hash.
func (d *Deducer) deduceSlice(node ast.NodeID, n *ast.Node, isWidth bool) (*types.Type, error) {
	baseType, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	if baseType.Kind() != types.BitsKind || baseType.Signed() {
		return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.Bits(false, dim.NewConst(0)), Got: baseType, Explain: "slice base must be unsigned bits"}
	}
	if !isWidth {
		return d.deduceBoundedSlice(node, n, baseType)
	}
	return d.deduceWidthSlice(node, n, baseType)
}

func (d *Deducer) deduceBoundedSlice(node ast.NodeID, n *ast.Node, baseType *types.Type) (*types.Type, error) {
	if !baseType.Size().IsConst() {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "slice of a symbolic-width value requires a resolved bit count"}
	}
	bitCount := int64(baseType.Size().ConstValue())
	loVal := int64(0)
	if n.B != ast.InvalidNode {
		v, err := d.deduceSliceBound(n.B)
		if err != nil {
			return nil, err
		}
		loVal = v
	}
	hiVal := bitCount
	if n.C != ast.InvalidNode {
		v, err := d.deduceSliceBound(n.C)
		if err != nil {
			return nil, err
		}
		hiVal = v
	}
	if loVal < 0 {
		loVal += bitCount
	}
	if hiVal < 0 {
		hiVal += bitCount
	}
	if hiVal > bitCount {
		hiVal = bitCount
	}
	if hiVal < 0 {
		hiVal = 0
	}
	if loVal < 0 {
		loVal = 0
	}
	if loVal > hiVal {
		loVal = hiVal
	}
	// A clamped-empty range is a legal zero-width slice, not an error.
	width := uint64(hiVal - loVal)
	d.info.SetSliceResolution(node, d.env.Hash(), typeinfo.SliceResolution{Start: uint64(loVal), Width: width})
	return types.Bits(false, dim.NewConst(width)), nil
}

func (d *Deducer) deduceWidthSlice(node ast.NodeID, n *ast.Node, baseType *types.Type) (*types.Type, error) {
	startVal, err := d.deduceSliceBound(n.B)
	if err != nil {
		return nil, err
	}
	widthExprType, err := d.ResolveTypeExpr(n.C)
	if err != nil {
		return nil, err
	}
	if widthExprType.Kind() != types.BitsKind {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "width-slice annotation must be a bits type"}
	}
	if baseType.Size().IsConst() && widthExprType.Size().IsConst() {
		if startVal+int64(widthExprType.Size().ConstValue()) > int64(baseType.Size().ConstValue()) {
			return nil, &diag.TypeInferenceError{Span: n.Span, Message: "width-slice exceeds source width"}
		}
	}
	if startVal < 0 {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "width-slice start must be non-negative"}
	}
	width := uint64(0)
	if widthExprType.Size().IsConst() {
		width = widthExprType.Size().ConstValue()
	}
	d.info.SetSliceResolution(node, d.env.Hash(), typeinfo.SliceResolution{Start: uint64(startVal), Width: width})
	return widthExprType, nil
}

// deduceSliceBound evaluates a slice boundary expression: it may be an
// unannotated numeric literal (defaulting to s32) or a signed-bits
// constexpr value.
func (d *Deducer) deduceSliceBound(node ast.NodeID) (int64, error) {
	n := d.tree.Node(node)
	if n.Kind == ast.LitExpr {
		raw, ok := new(big.Int).SetString(n.Text, 0)
		if !ok {
			return 0, &diag.TypeInferenceError{Span: n.Span, Message: "malformed slice bound literal"}
		}
		d.info.SetType(node, types.Bits(true, dim.NewConst(32)))
		return raw.Int64(), nil
	}
	boundType, err := d.Deduce(node)
	if err != nil {
		return 0, err
	}
	if boundType.Kind() != types.BitsKind || !boundType.Signed() {
		return 0, &diag.TypeMismatchError{Span: n.Span, Want: types.Bits(true, dim.NewConst(32)), Got: boundType, Explain: "slice bound must be signed bits or an unannotated literal"}
	}
	v, err := constexpr.Eval(d.tree, d.info, node, d.env, d.guard)
	if err != nil {
		return 0, &diag.ConstexprError{Span: n.Span, Message: "slice bound must be constexpr: " + err.Error()}
	}
	return v.Int64(), nil
}

func (d *Deducer) deduceTupleLit(n *ast.Node) (*types.Type, error) {
	members := make([]*types.Type, len(n.List))
	for i, m := range n.List {
		t, err := d.Deduce(m)
		if err != nil {
			return nil, err
		}
		members[i] = t
	}
	return types.Tuple(members...), nil
}

func (d *Deducer) deduceArrayLit(n *ast.Node) (*types.Type, error) {
	if len(n.List) == 0 {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "cannot infer element type of an empty array literal"}
	}
	elem, err := d.Deduce(n.List[0])
	if err != nil {
		return nil, err
	}
	for _, m := range n.List[1:] {
		t, err := d.Deduce(m)
		if err != nil {
			return nil, err
		}
		if !types.Equal(t, elem) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: elem, Got: t}).WithExplain("array literal elements must share a type")
		}
	}
	return types.Array(elem, dim.NewConst(uint64(len(n.List)))), nil
}

// deduceRange implements the Range rule: both ends share a bits
// type and must be constexpr; the result is an array type sized by the
// concrete difference, or size 0 when the range is empty.
func (d *Deducer) deduceRange(n *ast.Node) (*types.Type, error) {
	loType, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	hiType, err := d.Deduce(n.B)
	if err != nil {
		return nil, err
	}
	if !types.Equal(loType, hiType) {
		return nil, (&diag.TypeMismatchError{Span: n.Span, Want: loType, Got: hiType}).WithExplain("range endpoints must share a type")
	}
	loVal, err := constexpr.Eval(d.tree, d.info, n.A, d.env, d.guard)
	if err != nil {
		return nil, &diag.ConstexprError{Span: n.Span, Message: "range bound must be constexpr: " + err.Error()}
	}
	hiVal, err := constexpr.Eval(d.tree, d.info, n.B, d.env, d.guard)
	if err != nil {
		return nil, &diag.ConstexprError{Span: n.Span, Message: "range bound must be constexpr: " + err.Error()}
	}
	lo, hi := loVal.Int64(), hiVal.Int64()
	if hi <= lo {
		d.warn(n.Span, "empty range")
		return types.Array(loType, dim.NewConst(0)), nil
	}
	return types.Array(loType, dim.NewConst(uint64(hi-lo))), nil
}

func (d *Deducer) deduceStructLit(n *ast.Node) (*types.Type, error) {
	if d.module == nil {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "struct literal requires a module context"}
	}
	structType, ok := d.module.LookupStruct(n.Name)
	if !ok {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "unknown struct " + n.Name.Str()}
	}
	declared := structType.StructMembers()
	given := make(map[symbol.ID]bool, len(n.Members))
	for _, m := range n.Members {
		if given[m.Name] {
			return nil, &diag.ArgumentError{Span: n.Span, Message: "duplicate struct member " + m.Name.Str()}
		}
		given[m.Name] = true
		memberType, ok := structType.MemberType(m.Name)
		if !ok {
			return nil, &diag.ArgumentError{Span: n.Span, Message: "struct " + n.Name.Str() + " has no member " + m.Name.Str()}
		}
		valType, err := d.Deduce(m.Value)
		if err != nil {
			return nil, err
		}
		if !types.Equal(valType, memberType) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: memberType, Got: valType}).WithExplain("struct member " + m.Name.Str())
		}
	}
	if len(given) != len(declared) {
		return nil, &diag.ArgumentError{Span: n.Span, Message: "struct literal for " + n.Name.Str() + " is missing members"}
	}
	return structType, nil
}

// deduceInvoke implements function invocation: non-parametric callees
// unify arguments positionally against the recorded signature; parametric
// callees evaluate any explicitly supplied parametrics to Dims, then
// delegate to the instantiator.
func (d *Deducer) deduceInvoke(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	parametricArgs, args := d.tree.InvokeParts(node)
	argTypes := make([]*types.Type, len(args))
	for i, a := range args {
		t, err := d.Deduce(a)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
	}
	calleeNode := d.tree.Node(n.A)
	if calleeNode.Kind != ast.VarRefExpr {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "call target must be a named function"}
	}
	if d.module == nil {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "invocation requires a module context"}
	}
	calleeType, formals, isParametric, ok := d.module.LookupCallable(calleeNode.Name)
	if !ok {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "call to undefined function " + calleeNode.Name.Str()}
	}
	if !isParametric {
		if len(parametricArgs) > 0 {
			return nil, &diag.ArgumentError{Span: n.Span, Message: calleeNode.Name.Str() + " is not parametric"}
		}
		if err := d.checkPositionalArgs(n, calleeType.Params(), argTypes); err != nil {
			return nil, err
		}
		return calleeType.Return(), nil
	}
	if len(parametricArgs) > len(formals) {
		return nil, &diag.ArgumentError{Span: n.Span, Message: "too many explicit parametrics for " + calleeNode.Name.Str()}
	}
	explicit := make([]*dim.Dim, len(parametricArgs))
	for i, p := range parametricArgs {
		dm, err := d.resolveDimExpr(p)
		if err != nil {
			return nil, err
		}
		explicit[i] = dm
	}
	ret, childEnv, err := Instantiate(d.module, calleeNode.Name, formals, calleeType, explicit, argTypes, n.Span)
	if err != nil {
		return nil, err
	}
	d.info.Child(node, childEnv.Hash())
	return ret, nil
}

func (d *Deducer) checkPositionalArgs(n *ast.Node, formals []*types.Type, actual []*types.Type) error {
	if len(formals) != len(actual) {
		return &diag.ArgumentError{Span: n.Span, Message: "argument count mismatch"}
	}
	for i := range formals {
		if !types.Equal(formals[i], actual[i]) {
			return (&diag.TypeMismatchError{Span: n.Span, Want: formals[i], Got: actual[i]}).WithExplain("argument")
		}
	}
	return nil
}

// deduceSplatStructLit implements the splat-struct rule: the base
// supplies every member not explicitly overridden; override names must be
// a duplicate-free subset of the declared members.
func (d *Deducer) deduceSplatStructLit(n *ast.Node) (*types.Type, error) {
	baseType, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	if baseType.Kind() != types.StructKind {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "splat base must be a struct, not " + baseType.String()}
	}
	given := make(map[symbol.ID]bool, len(n.Members))
	for _, m := range n.Members {
		if given[m.Name] {
			return nil, &diag.ArgumentError{Span: n.Span, Message: "duplicate struct member " + m.Name.Str()}
		}
		given[m.Name] = true
		memberType, ok := baseType.MemberType(m.Name)
		if !ok {
			return nil, &diag.ArgumentError{Span: n.Span, Message: "struct " + baseType.String() + " has no member " + m.Name.Str()}
		}
		valType, err := d.Deduce(m.Value)
		if err != nil {
			return nil, err
		}
		if !types.Equal(valType, memberType) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: memberType, Got: valType}).WithExplain("struct member " + m.Name.Str())
		}
	}
	if len(given) == len(baseType.StructMembers()) {
		d.warn(n.Span, "splat supplies no members; every member is explicitly given")
	}
	return baseType, nil
}

// deduceMatch implements the Match rule: every arm's pattern must
// unify with the scrutinee type, a syntactically duplicate pattern across
// arms is an error, and all arm bodies share one type, which becomes the
// match's type.
func (d *Deducer) deduceMatch(n *ast.Node) (*types.Type, error) {
	scrutType, err := d.Deduce(n.A)
	if err != nil {
		return nil, err
	}
	if len(n.Arms) == 0 {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "match with no arms"}
	}
	seen := make(map[string]bool, len(n.Arms))
	var common *types.Type
	for _, arm := range n.Arms {
		key := d.patternKey(arm.Pattern)
		if seen[key] {
			return nil, &diag.ArgumentError{Span: d.tree.Node(arm.Pattern).Span, Message: "duplicate match pattern " + key}
		}
		seen[key] = true
		d.scope.push()
		err := d.matchPattern(arm.Pattern, scrutType)
		if err != nil {
			d.scope.pop()
			return nil, err
		}
		bodyType, err := d.Deduce(arm.Body)
		d.scope.pop()
		if err != nil {
			return nil, err
		}
		if common == nil {
			common = bodyType
		} else if !types.Equal(common, bodyType) {
			return nil, (&diag.TypeMismatchError{Span: d.tree.Node(arm.Body).Span, Want: common, Got: bodyType}).WithExplain("all match arms must have the same type")
		}
	}
	return common, nil
}

// matchPattern extends bindPattern to the refutable leaves match arms
// allow: a literal or colon-ref leaf does not bind, but its deduced type
// must equal the slice of the matched type at that position.
func (d *Deducer) matchPattern(pattern ast.NodeID, t *types.Type) error {
	n := d.tree.Node(pattern)
	switch n.Kind {
	case ast.NameLeafPattern:
		d.scope.bind(n.Name, t)
		return nil
	case ast.WildcardPattern:
		return nil
	case ast.TuplePattern:
		if t.Kind() != types.TupleKind || len(t.Members()) != len(n.List) {
			return &diag.TypeMismatchError{Span: n.Span, Want: t, Got: t, Explain: "destructuring pattern arity does not match tuple type"}
		}
		members := t.Members()
		for i, m := range n.List {
			if err := d.matchPattern(m, members[i]); err != nil {
				return err
			}
		}
		return nil
	case ast.LitExpr, ast.ColonRefExpr:
		leafType, err := d.Deduce(pattern)
		if err != nil {
			return err
		}
		if !types.Equal(leafType, t) {
			return (&diag.TypeMismatchError{Span: n.Span, Want: t, Got: leafType}).WithExplain("pattern leaf type must match the scrutinee at this position")
		}
		return nil
	default:
		return &diag.InternalError{Span: n.Span, Message: "not a pattern node"}
	}
}

// patternKey renders a pattern to its syntactic form, for the
// duplicate-arm diagnostic. Two arms are duplicates iff their rendered
// forms are identical; distinct binder names are distinct patterns.
func (d *Deducer) patternKey(pattern ast.NodeID) string {
	n := d.tree.Node(pattern)
	switch n.Kind {
	case ast.NameLeafPattern:
		return n.Name.Str()
	case ast.WildcardPattern:
		return "_"
	case ast.TuplePattern:
		key := "("
		for i, m := range n.List {
			if i > 0 {
				key += ", "
			}
			key += d.patternKey(m)
		}
		return key + ")"
	case ast.LitExpr:
		return n.Text
	case ast.ColonRefExpr:
		base := d.tree.Node(n.A)
		return base.Name.Str() + "::" + n.Name.Str()
	default:
		return "<pattern>"
	}
}

// deduceFor implements the For rule: the iterable must be an array
// [E; N], the accumulator carries the init type, the (elem, acc) binding
// must be irrefutable, and the body must reproduce the init type.
func (d *Deducer) deduceFor(n *ast.Node) (*types.Type, error) {
	iterType, err := d.Deduce(n.B)
	if err != nil {
		return nil, err
	}
	if iterType.Kind() != types.ArrayKind {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "for-loop iterable must be an array, not " + iterType.String()}
	}
	initType, err := d.Deduce(n.C)
	if err != nil {
		return nil, err
	}
	d.scope.push()
	defer d.scope.pop()
	carried := types.Tuple(iterType.Elem(), initType)
	if err := d.bindPattern(n.A, carried); err != nil {
		return nil, err
	}
	bodyType, err := d.Deduce(n.List[0])
	if err != nil {
		return nil, err
	}
	if !types.Equal(bodyType, initType) {
		return nil, (&diag.TypeMismatchError{Span: n.Span, Want: initType, Got: bodyType}).WithExplain("for-loop body must produce the accumulator type")
	}
	return initType, nil
}

// deduceColonRef implements the colon-ref rule: the base resolves
// to a module member (checked public), a builtin MAX/ZERO attribute on a
// sized type keyword, or an enum value. A colon-ref whose base is itself a
// colon-ref is an internal error.
func (d *Deducer) deduceColonRef(node ast.NodeID, n *ast.Node) (*types.Type, error) {
	base := d.tree.Node(n.A)
	if base.Kind == ast.ColonRefExpr {
		return nil, &diag.InternalError{Span: n.Span, Message: "colon-ref of a colon-ref"}
	}
	if base.Kind != ast.VarRefExpr {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "colon-ref base must be a name"}
	}

	if d.module != nil {
		if imported, ok := d.module.ImportedModule(base.Name); ok {
			if t, v, ok := imported.LookupConst(n.Name, true); ok {
				d.info.SetConstValue(node, v)
				return t, nil
			}
			if t, ok := imported.LookupSignature(n.Name); ok {
				return t, nil
			}
			return nil, &diag.TypeInferenceError{Span: n.Span, Message: "module " + base.Name.Str() + " has no public member " + n.Name.Str()}
		}
		if t, v, ok := d.module.LookupEnumMember(base.Name, n.Name); ok {
			d.info.SetConstValue(node, v)
			return t, nil
		}
	}
	if t, v, ok := builtinTypeAttr(base.Name, n.Name); ok {
		d.info.SetConstValue(node, v)
		return t, nil
	}
	return nil, &diag.TypeInferenceError{Span: n.Span, Message: "cannot resolve " + base.Name.Str() + "::" + n.Name.Str()}
}

// builtinTypeAttr resolves the MAX/ZERO attributes on a sized bits type
// keyword (u8::MAX, s4::ZERO, bool::MAX).
func builtinTypeAttr(typeName, attr symbol.ID) (*types.Type, value.Value, bool) {
	t, ok := parseBitsKeyword(typeName.Str())
	if !ok {
		return nil, value.Value{}, false
	}
	width := uint32(t.Size().ConstValue())
	switch attr {
	case symbol.Zero:
		return t, value.NewBits(width, t.Signed(), big.NewInt(0)), true
	case symbol.Max:
		max := new(big.Int).Lsh(big.NewInt(1), uint(width))
		max.Sub(max, big.NewInt(1))
		if t.Signed() {
			max.Rsh(max, 1)
		}
		return t, value.NewBits(width, t.Signed(), max), true
	}
	return nil, value.Value{}, false
}

func parseBitsKeyword(s string) (*types.Type, bool) {
	if s == "bool" {
		return types.U1(), true
	}
	if len(s) < 2 || (s[0] != 'u' && s[0] != 's') {
		return nil, false
	}
	width := uint64(0)
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return nil, false
		}
		width = width*10 + uint64(r-'0')
	}
	return types.Bits(s[0] == 's', dim.NewConst(width)), true
}

// deduceSpawn implements the Spawn rule: resolve the callee to a
// proc, deduce the config arguments against the config formals, and mark
// each argument constexpr where possible so later stages can see channel
// identities. Init-versus-next state agreement is checked when the proc's
// bodies are deduced (package-level check), so a spawn only has to match
// the config surface.
func (d *Deducer) deduceSpawn(n *ast.Node) (*types.Type, error) {
	if d.module == nil {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "spawn requires a module context"}
	}
	calleeNode := d.tree.Node(n.A)
	if calleeNode.Kind != ast.VarRefExpr {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "spawn target must be a named proc"}
	}
	pd, ok := d.module.LookupProc(calleeNode.Name)
	if !ok {
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "spawn of undefined proc " + calleeNode.Name.Str()}
	}
	if len(n.List) != len(pd.configParams) {
		return nil, &diag.ArgumentError{Span: n.Span, Message: "spawn config argument count mismatch for proc " + calleeNode.Name.Str()}
	}
	for i, a := range n.List {
		argType, err := d.Deduce(a)
		if err != nil {
			return nil, err
		}
		if !types.Equal(argType, pd.configParams[i]) {
			return nil, (&diag.TypeMismatchError{Span: n.Span, Want: pd.configParams[i], Got: argType}).WithExplain("config argument " + pd.configParamNames[i].Str())
		}
		if v, err := constexpr.Eval(d.tree, d.info, a, d.env, d.guard); err == nil {
			d.info.SetConstValue(a, v)
		}
	}
	return types.Token(), nil
}

// deduceChannelDecl implements the ChannelDecl rule: the result is
// a pair of channel types (out, in) with identical payload; optional dims
// wrap the pair element-wise as arrays; an optional fifo depth must be a
// constexpr u32.
func (d *Deducer) deduceChannelDecl(n *ast.Node) (*types.Type, error) {
	payload, err := d.ResolveTypeExpr(n.A)
	if err != nil {
		return nil, err
	}
	out := types.Channel(payload, types.DirOut)
	in := types.Channel(payload, types.DirIn)
	for i := len(n.List) - 1; i >= 0; i-- {
		size, err := d.resolveDimExpr(n.List[i])
		if err != nil {
			return nil, err
		}
		out = types.Array(out, size)
		in = types.Array(in, size)
	}
	if n.B != ast.InvalidNode {
		depthType, err := d.Deduce(n.B)
		if err != nil {
			return nil, err
		}
		if !types.Equal(depthType, types.U32()) {
			return nil, &diag.TypeMismatchError{Span: n.Span, Want: types.U32(), Got: depthType, Explain: "channel fifo depth"}
		}
		if _, err := constexpr.Eval(d.tree, d.info, n.B, d.env, d.guard); err != nil {
			return nil, &diag.ConstexprError{Span: n.Span, Message: "channel fifo depth must be constexpr: " + err.Error()}
		}
	}
	return types.Tuple(out, in), nil
}

// deduceFormatMacro types a trace/format macro invocation: arguments are
// deduced for their side tables but the macro itself only yields a token.
func (d *Deducer) deduceFormatMacro(n *ast.Node) (*types.Type, error) {
	for _, a := range n.List {
		if _, err := d.Deduce(a); err != nil {
			return nil, err
		}
	}
	return types.Token(), nil
}

// bindPattern implements the NameDefTree binding rule: a leaf binds
// one name to the whole type, an interior tuple pattern requires the
// covering type to be an equal-arity tuple and recurses member-wise, and a
// wildcard binds nothing.
func (d *Deducer) bindPattern(pattern ast.NodeID, t *types.Type) error {
	n := d.tree.Node(pattern)
	switch n.Kind {
	case ast.NameLeafPattern:
		d.scope.bind(n.Name, t)
		return nil
	case ast.WildcardPattern:
		return nil
	case ast.TuplePattern:
		if t.Kind() != types.TupleKind || len(t.Members()) != len(n.List) {
			return &diag.TypeMismatchError{Span: n.Span, Want: t, Got: t, Explain: "destructuring pattern arity does not match tuple type"}
		}
		members := t.Members()
		for i, m := range n.List {
			if err := d.bindPattern(m, members[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return &diag.InternalError{Span: n.Span, Message: "not a pattern node"}
	}
}

// ResolveTypeExpr turns a surface type-expression node into a resolved
// *types.Type, dereferencing named types through aliases and imports.
func (d *Deducer) ResolveTypeExpr(node ast.NodeID) (*types.Type, error) {
	n := d.tree.Node(node)
	switch n.Kind {
	case ast.TypeBitsExpr:
		size, err := d.resolveDimExpr(n.A)
		if err != nil {
			return nil, err
		}
		return types.Bits(n.Bool, size), nil
	case ast.TypeArrayExpr:
		elem, err := d.ResolveTypeExpr(n.A)
		if err != nil {
			return nil, err
		}
		size, err := d.resolveDimExpr(n.B)
		if err != nil {
			return nil, err
		}
		return types.Array(elem, size), nil
	case ast.TypeTupleExpr:
		members := make([]*types.Type, len(n.List))
		for i, m := range n.List {
			t, err := d.ResolveTypeExpr(m)
			if err != nil {
				return nil, err
			}
			members[i] = t
		}
		return types.Tuple(members...), nil
	case ast.TypeChannelExpr:
		payload, err := d.ResolveTypeExpr(n.A)
		if err != nil {
			return nil, err
		}
		dir := types.DirOut
		if n.Bool {
			dir = types.DirIn
		}
		return types.Channel(payload, dir), nil
	case ast.TypeNameExpr:
		return d.resolveNamedType(n)
	default:
		return nil, &diag.TypeInferenceError{Span: n.Span, Message: "not a type expression node"}
	}
}

// resolveNamedType resolves a TypeNameExpr: a builtin sized-type keyword,
// a struct/enum/alias defined in the current module, or a dimension
// symbol reference used in a bits position (e.g. "N" inside "uN").
func (d *Deducer) resolveNamedType(n *ast.Node) (*types.Type, error) {
	if d.module != nil {
		if t, ok := d.module.LookupNamedType(n.Name, n.List, d); ok {
			return t, nil
		}
	}
	if n.Name.Str() == "token" {
		return types.Token(), nil
	}
	if t, ok := parseBitsKeyword(n.Name.Str()); ok {
		return t, nil
	}
	return nil, &diag.TypeInferenceError{Span: n.Span, Message: "unknown type name " + n.Name.Str()}
}

// resolveDimExpr turns a dimension-position expression node into a *Dim:
// an unannotated literal becomes a Const, a bound symbol becomes either a
// Const (if already concrete in env) or a Symbol reference, and any other
// expression is evaluated through the constexpr evaluator and folded to a
// Const.
func (d *Deducer) resolveDimExpr(node ast.NodeID) (*dim.Dim, error) {
	n := d.tree.Node(node)
	switch n.Kind {
	case ast.LitExpr:
		raw, ok := new(big.Int).SetString(n.Text, 0)
		if !ok {
			return nil, &diag.TypeInferenceError{Span: n.Span, Message: "malformed dimension literal"}
		}
		if raw.Sign() < 0 {
			return nil, &diag.TypeInferenceError{Span: n.Span, Message: "dimension literal must be non-negative"}
		}
		return dim.NewConst(raw.Uint64()), nil
	case ast.VarRefExpr:
		if b, ok := d.env.Lookup(n.Name); ok {
			if b.Concrete != nil {
				return dim.NewConst(*b.Concrete), nil
			}
			return b.Symbolic, nil
		}
		return dim.NewSymbol(n.Name, n.Span), nil
	default:
		d.info.SetType(node, types.U32())
		v, err := constexpr.Eval(d.tree, d.info, node, d.env, d.guard)
		if err != nil {
			return nil, &diag.ConstexprError{Span: n.Span, Message: "dimension expression must be constexpr: " + err.Error()}
		}
		return dim.NewConst(uint64(v.Int64())), nil
	}
}
