package ir

// BasicBlock is a maximal straight-line instruction sequence ending in a
// single terminator. It is itself a Value (the operand type branch
// instructions consume), so it embeds valueBase rather than userBase: a
// block doesn't consume operands, it collects instructions.
type BasicBlock struct {
	valueBase
	Parent       *Function
	Instructions []*Instruction

	preds []*BasicBlock
	succs []*BasicBlock
}

// NewBasicBlock creates a block named name (may be empty) appended to fn.
func NewBasicBlock(m *Module, name string, fn *Function) *BasicBlock {
	bb := &BasicBlock{}
	bb.typ = m.types.Pointer(m.types.Void())
	bb.name = name
	bb.Parent = fn
	fn.Blocks = append(fn.Blocks, bb)
	return bb
}

// AddInstruction appends ins to the end of the block and sets its parent.
func (bb *BasicBlock) AddInstruction(ins *Instruction) {
	ins.parent = bb
	bb.Instructions = append(bb.Instructions, ins)
}

// AddInstructionFront inserts ins before the block's first instruction
// (used by Mem2Reg to prepend phis), mirroring add_instr_begin.
func (bb *BasicBlock) AddInstructionFront(ins *Instruction) {
	ins.parent = bb
	bb.Instructions = append([]*Instruction{ins}, bb.Instructions...)
}

// EraseInstruction removes ins from the block's instruction list and
// detaches each of its operand edges from the operand's use-list. Uses of
// ins itself are not touched: callers redirect them (RAUW) first. Erasing
// an instruction that is not in bb panics with a Fault.
func (bb *BasicBlock) EraseInstruction(ins *Instruction) {
	for i, cur := range bb.Instructions {
		if cur == ins {
			bb.Instructions = append(bb.Instructions[:i], bb.Instructions[i+1:]...)
			for idx, use := range ins.useEdges {
				if ins.operands[idx] != nil {
					valueOf(ins.operands[idx]).removeUse(use)
				}
			}
			return
		}
	}
	panic(&Fault{Op: "EraseInstruction", Msg: "instruction is not in this block"})
}

// MoveTo relocates ins from bb to the end of dst's instruction list,
// leaving its operand use-edges untouched: the instruction keeps consuming
// the same operands, only its block membership changes. Used by the
// inliner to splice the call site's trailing instructions into the
// post-call continuation block.
func (bb *BasicBlock) MoveTo(ins *Instruction, dst *BasicBlock) {
	for i, cur := range bb.Instructions {
		if cur == ins {
			bb.Instructions = append(bb.Instructions[:i], bb.Instructions[i+1:]...)
			break
		}
	}
	dst.AddInstruction(ins)
}

// IsTerminated reports whether the block already ends in a terminator.
func (bb *BasicBlock) IsTerminated() bool {
	if len(bb.Instructions) == 0 {
		return false
	}
	return bb.Instructions[len(bb.Instructions)-1].Op.IsTerminator()
}

// Preds/Succs return the block's CFG predecessors/successors, populated by
// Function.ResetCFG.
func (bb *BasicBlock) Preds() []*BasicBlock { return bb.preds }
func (bb *BasicBlock) Succs() []*BasicBlock { return bb.succs }

func (bb *BasicBlock) addSucc(o *BasicBlock) { bb.succs = append(bb.succs, o) }
func (bb *BasicBlock) addPred(o *BasicBlock) { bb.preds = append(bb.preds, o) }

// RemoveFromParent detaches bb from its function's block list. Does not
// touch other blocks' pred/succ lists; callers recompute the CFG
// afterward via Function.ResetCFG.
func (bb *BasicBlock) RemoveFromParent() {
	fn := bb.Parent
	for i, cur := range fn.Blocks {
		if cur == bb {
			fn.Blocks = append(fn.Blocks[:i], fn.Blocks[i+1:]...)
			return
		}
	}
}
