package ast

// The accessors below split a Node's List field back into its named parts,
// undoing the prefix-count packing used by the ProcDef/StructDef/Module
// constructors. They exist so callers never need to know the packing
// convention themselves.

// StructDefParts returns a StructDefDecl node's parametrics and members.
func (t *Tree) StructDefParts(id NodeID) (parametrics, members []NodeID) {
	n := t.Node(id)
	if n.Kind != StructDefDecl {
		panic("ast: StructDefParts() on non-StructDef node")
	}
	k := int(n.Op)
	return n.List[:k], n.List[k:]
}

// FuncDefParts returns a FuncDefDecl node's parametrics and formal args.
func (t *Tree) FuncDefParts(id NodeID) (parametrics, formals []NodeID) {
	n := t.Node(id)
	if n.Kind != FuncDefDecl {
		panic("ast: FuncDefParts() on non-FuncDef node")
	}
	k := int(n.Op)
	return n.List[:k], n.List[k:]
}

// FuncDefReturn returns a FuncDefDecl node's written return type expression.
func (t *Tree) FuncDefReturn(id NodeID) NodeID {
	n := t.Node(id)
	if n.Kind != FuncDefDecl {
		panic("ast: FuncDefReturn() on non-FuncDef node")
	}
	return n.B
}

// FuncDefBody returns a FuncDefDecl node's body block.
func (t *Tree) FuncDefBody(id NodeID) NodeID {
	n := t.Node(id)
	if n.Kind != FuncDefDecl {
		panic("ast: FuncDefBody() on non-FuncDef node")
	}
	return n.C
}

// ProcDefParts returns a ProcDefDecl node's parametrics, config formals, and
// next formals.
func (t *Tree) ProcDefParts(id NodeID) (parametrics, configFormals, nextFormals []NodeID) {
	n := t.Node(id)
	if n.Kind != ProcDefDecl {
		panic("ast: ProcDefParts() on non-ProcDef node")
	}
	j, k := int(n.Op), int(n.Op)+int(n.Op2)
	return n.List[:j], n.List[j:k], n.List[k:]
}

// ProcDefConfigBody returns a ProcDefDecl node's config expression.
func (t *Tree) ProcDefConfigBody(id NodeID) NodeID {
	n := t.Node(id)
	if n.Kind != ProcDefDecl {
		panic("ast: ProcDefConfigBody() on non-ProcDef node")
	}
	return n.A
}

// ProcDefNextBody returns a ProcDefDecl node's next expression.
func (t *Tree) ProcDefNextBody(id NodeID) NodeID {
	n := t.Node(id)
	if n.Kind != ProcDefDecl {
		panic("ast: ProcDefNextBody() on non-ProcDef node")
	}
	return n.B
}

// ProcDefInitBody returns a ProcDefDecl node's init expression.
func (t *Tree) ProcDefInitBody(id NodeID) NodeID {
	n := t.Node(id)
	if n.Kind != ProcDefDecl {
		panic("ast: ProcDefInitBody() on non-ProcDef node")
	}
	return n.C
}

// LetAnnotation returns a LetExpr node's written type annotation, or
// InvalidNode when the binding was unannotated.
func (t *Tree) LetAnnotation(id NodeID) NodeID {
	n := t.Node(id)
	if n.Kind != LetExpr {
		panic("ast: LetAnnotation() on non-Let node")
	}
	if len(n.List) == 0 {
		return InvalidNode
	}
	return n.List[0]
}

// InvokeParts returns an InvokeExpr node's explicit parametric arguments
// and its value arguments.
func (t *Tree) InvokeParts(id NodeID) (parametricArgs, args []NodeID) {
	n := t.Node(id)
	if n.Kind != InvokeExpr {
		panic("ast: InvokeParts() on non-Invoke node")
	}
	k := int(n.Op)
	return n.List[:k], n.List[k:]
}

// ModuleParts returns a ModuleDecl node's imports and top-level declarations.
func (t *Tree) ModuleParts(id NodeID) (imports, decls []NodeID) {
	n := t.Node(id)
	if n.Kind != ModuleDecl {
		panic("ast: ModuleParts() on non-Module node")
	}
	k := int(n.Op)
	return n.List[:k], n.List[k:]
}
