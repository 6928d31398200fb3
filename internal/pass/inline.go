package pass

import "github.com/zkdzuishuai/cminusfc/internal/ir"

// outsideFuncs are the runtime builtins FunctionInline must never inline
// into or expand away, matching FunctionInline.hpp's outside_func set.
var outsideFuncs = map[string]bool{
	"output":         true,
	"outputFloat":    true,
	"input":          true,
	"neg_idx_except": true,
}

// maxInlineBlocks bounds the callee size FunctionInline is willing to
// expand at a call site, matching FunctionInline.cpp's "callee size >= 6"
// guard against code-size blowup.
const maxInlineBlocks = 6

// FunctionInline replaces call sites with the callee's body inline,
// grounded on FunctionInline.cpp's inline_all_functions/inline_function.
// Self-recursive functions and the runtime builtins are never inlined;
// calls inside a self-recursive function to other eligible callees are.
type FunctionInline struct{}

func (p *FunctionInline) Run(m *ir.Module) {
	recursive := map[*ir.Function]bool{}
	for _, fn := range m.Functions {
		for _, bb := range fn.Blocks {
			for _, ins := range bb.Instructions {
				if ins.IsCall() && ins.CallCallee() == fn {
					recursive[fn] = true
				}
			}
		}
	}

	for _, fn := range m.Functions {
		if outsideFuncs[fn.Name()] {
			continue
		}
		for {
			call, callee := findInlinableCall(fn, recursive)
			if call == nil {
				break
			}
			inlineCall(m, call, callee)
		}
	}
}

func findInlinableCall(fn *ir.Function, recursive map[*ir.Function]bool) (*ir.Instruction, *ir.Function) {
	for _, bb := range fn.Blocks {
		for _, ins := range bb.Instructions {
			if !ins.IsCall() {
				continue
			}
			callee := ins.CallCallee()
			if callee == fn || recursive[callee] || outsideFuncs[callee.Name()] {
				continue
			}
			if len(callee.Blocks) >= maxInlineBlocks {
				continue
			}
			return ins, callee
		}
	}
	return nil, nil
}

// inlineCall splices origin's body into call's caller, mirroring
// FunctionInline::inline_function: map formals to actuals, clone every
// basic block and instruction (remapping operands through the value map
// once every block exists), stitch the callee's returns into a single
// continuation block, and replace the call with a branch into the cloned
// entry.
func inlineCall(m *ir.Module, call *ir.Instruction, origin *ir.Function) {
	callBB := call.Parent()
	callFunc := callBB.Parent

	args := call.CallArgs()
	if len(args) < len(origin.Args) {
		return
	}

	vmap := map[ir.Value]ir.Value{}
	for i, arg := range origin.Args {
		vmap[arg] = args[i]
	}

	newBBs := make([]*ir.BasicBlock, 0, len(origin.Blocks))
	for _, bb := range origin.Blocks {
		nb := ir.NewBasicBlock(m, "", callFunc)
		vmap[bb] = nb
		newBBs = append(newBBs, nb)
	}

	isVoid := origin.ReturnType() == m.Types().Void()
	var retList []*ir.Instruction
	var retVoidBBs []*ir.BasicBlock

	for i, bb := range origin.Blocks {
		nb := newBBs[i]
		for _, ins := range bb.Instructions {
			if ins.IsRet() && isVoid {
				retVoidBBs = append(retVoidBBs, nb)
				continue
			}
			clone := ins.Clone(nb)
			vmap[ins] = clone
			if clone.Op == ir.OpRet {
				retList = append(retList, clone)
			}
		}
	}

	for _, nb := range newBBs {
		for _, ins := range nb.Instructions {
			for idx, op := range ins.Operands() {
				if mapped, ok := vmap[op]; ok {
					ins.SetOperand(idx, mapped)
				}
			}
		}
	}

	bbAfterCall := ir.NewBasicBlock(m, "", callFunc)
	var retVal ir.Value

	switch {
	case !isVoid && len(retList) == 1:
		ret := retList[0]
		retVal = ret.Operands()[0]
		retBB := ret.Parent()
		retBB.EraseInstruction(ret)
		retBB.AddInstruction(ir.NewInstruction(ir.OpBr, m.Types().Void(), []ir.Value{bbAfterCall}))
	case !isVoid && len(retList) > 1:
		bbPhi := ir.NewBasicBlock(m, "", callFunc)
		phi := ir.NewInstruction(ir.OpPhi, origin.ReturnType(), nil)
		bbPhi.AddInstructionFront(phi)
		for _, ret := range retList {
			v := ret.Operands()[0]
			retBB := ret.Parent()
			retBB.EraseInstruction(ret)
			retBB.AddInstruction(ir.NewInstruction(ir.OpBr, m.Types().Void(), []ir.Value{bbPhi}))
			phi.AddPhiIncoming(v, retBB)
		}
		retVal = phi
		bbPhi.AddInstruction(ir.NewInstruction(ir.OpBr, m.Types().Void(), []ir.Value{bbAfterCall}))
		newBBs = append(newBBs, bbPhi)
	case isVoid:
		for _, bb := range retVoidBBs {
			bb.AddInstruction(ir.NewInstruction(ir.OpBr, m.Types().Void(), []ir.Value{bbAfterCall}))
		}
	}

	var afterCall []*ir.Instruction
	seenCall := false
	for _, ins := range callBB.Instructions {
		if !seenCall {
			if ins == call {
				seenCall = true
			}
			continue
		}
		afterCall = append(afterCall, ins)
	}
	for _, ins := range afterCall {
		callBB.MoveTo(ins, bbAfterCall)
	}

	if !isVoid && retVal != nil {
		ir.ReplaceAllUsesWith(call, retVal)
	}
	callBB.EraseInstruction(call)

	callBB.AddInstruction(ir.NewInstruction(ir.OpBr, m.Types().Void(), []ir.Value{newBBs[0]}))

	callFunc.ResetCFG()
}
