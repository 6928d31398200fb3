package pass

import "github.com/zkdzuishuai/cminusfc/internal/ir"

// ConstFolder computes the result of a binary or conversion opcode over
// two (or one) constant operands, grounded on ConstPropagation.cpp's
// ConstFolder::compute overload set. Division by zero is deliberately left
// unfolded, leaving it to the eventual back end, rather than folding to an
// arbitrary sentinel.
type ConstFolder struct{ module *ir.Module }

func (f *ConstFolder) foldInt(op ir.Opcode, a, b int32) (ir.Value, bool) {
	switch op {
	case ir.OpIAdd:
		return f.module.Constants().Int(a + b), true
	case ir.OpISub:
		return f.module.Constants().Int(a - b), true
	case ir.OpIMul:
		return f.module.Constants().Int(a * b), true
	case ir.OpISDiv:
		if b == 0 {
			return nil, false
		}
		return f.module.Constants().Int(a / b), true
	case ir.OpICmpEQ:
		return f.module.Constants().Bool(a == b), true
	case ir.OpICmpNE:
		return f.module.Constants().Bool(a != b), true
	case ir.OpICmpGT:
		return f.module.Constants().Bool(a > b), true
	case ir.OpICmpGE:
		return f.module.Constants().Bool(a >= b), true
	case ir.OpICmpLT:
		return f.module.Constants().Bool(a < b), true
	case ir.OpICmpLE:
		return f.module.Constants().Bool(a <= b), true
	default:
		return nil, false
	}
}

func (f *ConstFolder) foldFloat(op ir.Opcode, a, b float32) (ir.Value, bool) {
	switch op {
	case ir.OpFAdd:
		return f.module.Constants().Float(a + b), true
	case ir.OpFSub:
		return f.module.Constants().Float(a - b), true
	case ir.OpFMul:
		return f.module.Constants().Float(a * b), true
	case ir.OpFDiv:
		if b == 0 {
			return nil, false
		}
		return f.module.Constants().Float(a / b), true
	case ir.OpFCmpEQ:
		return f.module.Constants().Bool(a == b), true
	case ir.OpFCmpNE:
		return f.module.Constants().Bool(a != b), true
	case ir.OpFCmpGT:
		return f.module.Constants().Bool(a > b), true
	case ir.OpFCmpGE:
		return f.module.Constants().Bool(a >= b), true
	case ir.OpFCmpLT:
		return f.module.Constants().Bool(a < b), true
	case ir.OpFCmpLE:
		return f.module.Constants().Bool(a <= b), true
	default:
		return nil, false
	}
}

// ConstantPropagation folds arithmetic/comparison/conversion instructions
// whose operands are all constants, then rewrites conditional branches
// whose condition folded to a constant into unconditional branches,
// pruning the now-unreachable arm. Grounded on ConstPropagation.cpp's run
// (whose body is an unfinished student stub past the add/sub/mul/div case;
// the comparison, conversion, and branch-folding logic here is a
// ground-up completion of that stub, not a translation).
type ConstantPropagation struct{}

// Run performs one fixed-point-free pass; callers that need the driver's
// (ConstantPropagation -> DeadCode)* alternation should use RunChanged via
// the pass Manager's fixedPointOptimize stage instead of calling Run
// directly.
func (p *ConstantPropagation) Run(m *ir.Module) { p.RunChanged(m) }

// RunChanged performs one pass and reports whether anything changed, so
// the driver can alternate with DeadCode until a fixed point.
func (p *ConstantPropagation) RunChanged(m *ir.Module) bool {
	folder := &ConstFolder{module: m}
	changed := false

	for _, fn := range m.Functions {
		for _, bb := range fn.Blocks {
			var waitDelete []*ir.Instruction
			for _, ins := range bb.Instructions {
				folded, ok := foldInstruction(folder, ins)
				if !ok {
					continue
				}
				ir.ReplaceAllUsesWith(ins, folded)
				waitDelete = append(waitDelete, ins)
				changed = true
			}
			for _, ins := range waitDelete {
				bb.EraseInstruction(ins)
			}
		}
	}

	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		var deleteBB []*ir.BasicBlock
		for _, bb := range fn.Blocks {
			if len(bb.Instructions) == 0 {
				continue
			}
			term := bb.Instructions[len(bb.Instructions)-1]
			if term.Op != ir.OpCondBr {
				continue
			}
			c, ok := ir.AsConstantInt(term.CondBrCond())
			if !ok {
				continue
			}
			thenBB, elseBB := term.CondBrThen(), term.CondBrElse()
			target, other := elseBB, thenBB
			if c.Val != 0 {
				target, other = thenBB, elseBB
			}
			bb.EraseInstruction(term)
			bb.AddInstruction(ir.NewInstruction(ir.OpBr, m.Types().Void(), []ir.Value{target}))
			deleteBB = append(deleteBB, other)
			changed = true
		}
		if len(deleteBB) == 0 {
			continue
		}
		fn.ResetCFG()
		for _, bb := range deleteBB {
			pruneUnreachableBlock(fn, bb)
		}
	}

	return changed
}

func foldInstruction(folder *ConstFolder, ins *ir.Instruction) (ir.Value, bool) {
	switch {
	case ins.Op.IsIntArith() || ins.Op.IsIntCmp():
		a, ok1 := ir.AsConstantInt(ins.Operands()[0])
		b, ok2 := ir.AsConstantInt(ins.Operands()[1])
		if ok1 && ok2 {
			return folder.foldInt(ins.Op, a.Val, b.Val)
		}
	case ins.Op.IsFloatArith() || ins.Op.IsFloatCmp():
		a, ok1 := ir.AsConstantFP(ins.Operands()[0])
		b, ok2 := ir.AsConstantFP(ins.Operands()[1])
		if ok1 && ok2 {
			return folder.foldFloat(ins.Op, a.Val, b.Val)
		}
	case ins.Op == ir.OpSIToFP:
		if c, ok := ir.AsConstantInt(ins.Operands()[0]); ok {
			return folder.module.Constants().Float(float32(c.Val)), true
		}
	case ins.Op == ir.OpFPToSI:
		if c, ok := ir.AsConstantFP(ins.Operands()[0]); ok {
			return folder.module.Constants().Int(int32(c.Val)), true
		}
	}
	return nil, false
}

