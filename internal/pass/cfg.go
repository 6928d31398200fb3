package pass

import "github.com/zkdzuishuai/cminusfc/internal/ir"

// pruneUnreachableBlock removes bb from fn if it has no predecessors (and
// isn't the entry block), cascading into any successor that removal
// leaves with no predecessors of its own, and fixing up phi nodes along
// the way: an incoming pair naming a removed predecessor is dropped, and
// a phi left with exactly one incoming pair is replaced by that value
// directly. Shared by ConstantPropagation (after folding a conditional
// branch to unconditional) and DeadCode (a general unreachable-block
// sweep independent of branch folding); mirrors ConstPropagation.cpp's
// clear_blocks_recs.
func pruneUnreachableBlock(fn *ir.Function, bb *ir.BasicBlock) {
	if len(bb.Preds()) != 0 || bb == fn.EntryBlock() {
		return
	}
	bb.RemoveFromParent()
	fn.ResetCFG()

	for _, succ := range bb.Succs() {
		var collapsed []*ir.Instruction
		for _, ins := range succ.Instructions {
			if !ins.IsPhi() {
				continue
			}
			for i := 0; i < ins.PhiIncomingCount(); {
				if ins.PhiBlock(i) == bb {
					ins.RemovePhiIncomingAt(i)
					continue
				}
				i++
			}
			if ins.PhiIncomingCount() == 1 {
				ir.ReplaceAllUsesWith(ins, ins.PhiValue(0))
				collapsed = append(collapsed, ins)
			}
		}
		for _, ins := range collapsed {
			succ.EraseInstruction(ins)
		}
		pruneUnreachableBlock(fn, succ)
	}
}

// pruneUnreachableBlocks removes every block in fn that has become
// unreachable (no predecessors, and not the entry block), recomputing the
// CFG first so Preds()/Succs() reflect the current terminators. Reports
// whether anything was removed.
func pruneUnreachableBlocks(fn *ir.Function) bool {
	fn.ResetCFG()
	var dead []*ir.BasicBlock
	for _, bb := range fn.Blocks {
		if bb != fn.EntryBlock() && len(bb.Preds()) == 0 {
			dead = append(dead, bb)
		}
	}
	for _, bb := range dead {
		pruneUnreachableBlock(fn, bb)
	}
	return len(dead) > 0
}
