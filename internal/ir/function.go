package ir

// Argument is one formal parameter of a Function. It carries no storage of
// its own; cminusf_builder.cpp immediately spills every argument to an
// alloca, which is what Mem2Reg later promotes back to a register.
type Argument struct {
	valueBase
	Parent *Function
	ArgNo  int
}

// Function is a top-level, uniquely-named value of FunctionType. A
// Function with no basic blocks is a declaration (the four runtime
// builtins: input, output, outputFloat, neg_idx_except).
type Function struct {
	userBase // operands hold nothing; embedded only so Function can share
	// valueOf's switch without a special case. Kept operand-free.
	Parent *Module
	Blocks []*BasicBlock
	Args   []*Argument
}

// NewFunction creates a function of type ty named name in m, with no
// basic blocks (a declaration) until the caller appends one.
func NewFunction(m *Module, ty *FunctionType, name string) *Function {
	fn := &Function{Parent: m}
	fn.typ = ty
	fn.name = name
	for i, pt := range ty.Params {
		fn.Args = append(fn.Args, &Argument{
			valueBase: valueBase{typ: pt},
			Parent:    fn,
			ArgNo:     i,
		})
	}
	m.Functions = append(m.Functions, fn)
	return fn
}

// FunctionType returns fn's signature.
func (fn *Function) FunctionType() *FunctionType { return fn.typ.(*FunctionType) }

// ReturnType returns fn's declared return type.
func (fn *Function) ReturnType() Type { return fn.FunctionType().Ret }

// IsDeclaration reports whether fn has a body.
func (fn *Function) IsDeclaration() bool { return len(fn.Blocks) == 0 }

// EntryBlock returns fn's first basic block.
func (fn *Function) EntryBlock() *BasicBlock {
	if len(fn.Blocks) == 0 {
		return nil
	}
	return fn.Blocks[0]
}

// RemoveBlock detaches bb from fn's block list (it must already be
// disconnected from the CFG, i.e. no remaining predecessors).
func (fn *Function) RemoveBlock(bb *BasicBlock) {
	bb.RemoveFromParent()
}

// ResetCFG recomputes every block's predecessor/successor lists from its
// terminator, mirroring Function::reset_bbs. Any pass that rewrites
// terminators (the inliner splicing in a callee's blocks, constant
// propagation rewriting a conditional branch to unconditional) must call
// this before a consumer (Dominators, Mem2Reg) runs again.
func (fn *Function) ResetCFG() {
	for _, bb := range fn.Blocks {
		bb.preds = nil
		bb.succs = nil
	}
	for _, bb := range fn.Blocks {
		if len(bb.Instructions) == 0 {
			continue
		}
		term := bb.Instructions[len(bb.Instructions)-1]
		switch term.Op {
		case OpCondBr:
			t, f := term.CondBrThen(), term.CondBrElse()
			bb.addSucc(t)
			bb.addSucc(f)
			t.addPred(bb)
			f.addPred(bb)
		case OpBr:
			t := term.BrTarget()
			bb.addSucc(t)
			t.addPred(bb)
		}
	}
}
