package pass

import "github.com/zkdzuishuai/cminusfc/internal/ir"

// isValidPtr reports whether v is a promotable alloca: a scalar (never
// array) stack slot every use of which is a direct load or a direct store
// into it. Anything indexed via gep, or whose address otherwise escapes
// as an operand, is disqualified from promotion.
func isValidPtr(v ir.Value) bool {
	alloca, ok := v.(*ir.Instruction)
	if !ok || alloca.Op != ir.OpAlloca {
		return false
	}
	if ir.IsArray(alloca.AllocaType) {
		return false
	}
	for _, use := range alloca.Uses() {
		ins, ok := use.User.(*ir.Instruction)
		if !ok {
			return false
		}
		if use.Idx != 0 {
			return false
		}
		if !ins.IsLoad() && !ins.IsStore() {
			return false
		}
	}
	return true
}

// Mem2Reg promotes scalar stack slots to SSA values, inserting phi nodes at
// iterated dominance frontiers and renaming loads/stores in dominator-tree
// order. Grounded on Mem2Reg.cpp's generate_phi/rename.
type Mem2Reg struct {
	dominators  Dominators
	fn          *ir.Function
	varValStack map[ir.Value][]ir.Value
	phiLval     map[*ir.Instruction]ir.Value
}

func (p *Mem2Reg) Run(m *ir.Module) {
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		p.dominators = Dominators{}
		p.dominators.RunOnFunction(fn)
		p.fn = fn
		p.varValStack = map[ir.Value][]ir.Value{}
		p.phiLval = map[*ir.Instruction]ir.Value{}
		p.generatePhi()
		p.rename(fn.EntryBlock())
	}
}

func (p *Mem2Reg) generatePhi() {
	liveVar2Blocks := map[ir.Value]map[*ir.BasicBlock]bool{}
	for _, bb := range p.fn.Blocks {
		for _, ins := range bb.Instructions {
			if !ins.IsStore() {
				continue
			}
			lval := ins.StoreLval()
			if !isValidPtr(lval) {
				continue
			}
			if liveVar2Blocks[lval] == nil {
				liveVar2Blocks[lval] = map[*ir.BasicBlock]bool{}
			}
			liveVar2Blocks[lval][bb] = true
		}
	}

	bbHasPhi := map[*ir.BasicBlock]map[ir.Value]bool{}
	for lval, blocks := range liveVar2Blocks {
		workList := make([]*ir.BasicBlock, 0, len(blocks))
		for bb := range blocks {
			workList = append(workList, bb)
		}
		for i := 0; i < len(workList); i++ {
			bb := workList[i]
			for _, df := range p.dominators.DominanceFrontier(bb) {
				if bbHasPhi[df] == nil {
					bbHasPhi[df] = map[ir.Value]bool{}
				}
				if bbHasPhi[df][lval] {
					continue
				}
				elem := ir.ElementType(lval.Type())
				phi := ir.NewInstruction(ir.OpPhi, elem, nil)
				df.AddInstructionFront(phi)
				p.phiLval[phi] = lval
				bbHasPhi[df][lval] = true
				workList = append(workList, df)
			}
		}
	}
}

func (p *Mem2Reg) rename(bb *ir.BasicBlock) {
	var waitDelete []*ir.Instruction

	for _, ins := range bb.Instructions {
		if ins.IsPhi() {
			lval := p.phiLval[ins]
			p.varValStack[lval] = append(p.varValStack[lval], ins)
		}
	}

	for _, ins := range bb.Instructions {
		if ins.IsLoad() {
			lval := ins.LoadLval()
			if isValidPtr(lval) {
				if stack := p.varValStack[lval]; len(stack) > 0 {
					ir.ReplaceAllUsesWith(ins, stack[len(stack)-1])
					waitDelete = append(waitDelete, ins)
				}
			}
		}
		if ins.IsStore() {
			lval := ins.StoreLval()
			if isValidPtr(lval) {
				p.varValStack[lval] = append(p.varValStack[lval], ins.StoreRval())
				waitDelete = append(waitDelete, ins)
			}
		}
	}

	for _, succ := range bb.Succs() {
		for _, ins := range succ.Instructions {
			if !ins.IsPhi() {
				continue
			}
			lval := p.phiLval[ins]
			if stack := p.varValStack[lval]; len(stack) > 0 {
				ins.AddPhiIncoming(stack[len(stack)-1], bb)
			}
		}
	}

	for _, succ := range p.dominators.DomTreeSuccBlocks(bb) {
		p.rename(succ)
	}

	for _, ins := range bb.Instructions {
		if ins.IsStore() {
			lval := ins.StoreLval()
			if isValidPtr(lval) {
				s := p.varValStack[lval]
				p.varValStack[lval] = s[:len(s)-1]
			}
		} else if ins.IsPhi() {
			lval := p.phiLval[ins]
			if s := p.varValStack[lval]; len(s) > 0 {
				p.varValStack[lval] = s[:len(s)-1]
			}
		}
	}

	for _, ins := range waitDelete {
		bb.EraseInstruction(ins)
	}
}
