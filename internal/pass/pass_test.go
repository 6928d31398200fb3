package pass_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkdzuishuai/cminusfc/internal/ir"
	"github.com/zkdzuishuai/cminusfc/internal/irbuilder"
	"github.com/zkdzuishuai/cminusfc/internal/pass"
)

func funcType(m *ir.Module, ret ir.Type, params []ir.Type) *ir.FunctionType {
	return m.Types().Function(ret, params).(*ir.FunctionType)
}

func TestMem2RegPromotesScalarAndInsertsPhiAtMerge(t *testing.T) {
	m := ir.NewModule("test")
	ft := funcType(m, m.Types().Int32(), []ir.Type{m.Types().Int32()})
	fn := ir.NewFunction(m, ft, "f")
	condArg := fn.Args[0]

	entry := ir.NewBasicBlock(m, "entry", fn)
	thenBB := ir.NewBasicBlock(m, "then", fn)
	elseBB := ir.NewBasicBlock(m, "else", fn)
	mergeBB := ir.NewBasicBlock(m, "merge", fn)

	b := irbuilder.New(m)
	b.SetInsertPoint(entry)
	alloca := b.CreateAlloca(m.Types().Int32())
	b.CreateStore(m.Constants().Int(0), alloca)
	cond := b.CreateICmpNE(condArg, m.Constants().Int(0))
	b.CreateCondBr(cond, thenBB, elseBB)

	b.SetInsertPoint(thenBB)
	b.CreateStore(m.Constants().Int(1), alloca)
	b.CreateBr(mergeBB)

	b.SetInsertPoint(elseBB)
	b.CreateStore(m.Constants().Int(2), alloca)
	b.CreateBr(mergeBB)

	b.SetInsertPoint(mergeBB)
	loaded := b.CreateLoad(alloca)
	b.CreateRet(loaded)

	fn.ResetCFG()

	(&pass.Mem2Reg{}).Run(m)

	for _, bb := range fn.Blocks {
		for _, ins := range bb.Instructions {
			require.NotEqual(t, ir.OpLoad, ins.Op)
			require.NotEqual(t, ir.OpStore, ins.Op)
		}
	}
	// The alloca itself is left for DeadCode; Mem2Reg only strips its uses.
	require.Empty(t, alloca.Uses(), "promoted alloca should have no remaining load/store uses")

	var phi *ir.Instruction
	for _, ins := range mergeBB.Instructions {
		if ins.IsPhi() {
			phi = ins
		}
	}
	require.NotNil(t, phi, "merge block should gain a phi for the promoted variable")
	require.Equal(t, 2, phi.PhiIncomingCount())

	ret := mergeBB.Instructions[len(mergeBB.Instructions)-1]
	require.Equal(t, ir.OpRet, ret.Op)
	require.Same(t, phi, ret.ReturnValue())
}

func TestFunctionInlineExpandsSmallCallee(t *testing.T) {
	m := ir.NewModule("test")
	i32 := m.Types().Int32()

	addOne := ir.NewFunction(m, funcType(m, i32, []ir.Type{i32}), "addOne")
	addOneEntry := ir.NewBasicBlock(m, "entry", addOne)
	b := irbuilder.New(m)
	b.SetInsertPoint(addOneEntry)
	sum := b.CreateIAdd(addOne.Args[0], m.Constants().Int(1))
	b.CreateRet(sum)
	addOne.ResetCFG()

	main := ir.NewFunction(m, funcType(m, i32, nil), "main")
	mainEntry := ir.NewBasicBlock(m, "entry", main)
	b.SetInsertPoint(mainEntry)
	call := b.CreateCall(addOne, []ir.Value{m.Constants().Int(41)})
	b.CreateRet(call)
	main.ResetCFG()

	(&pass.FunctionInline{}).Run(m)

	for _, bb := range main.Blocks {
		for _, ins := range bb.Instructions {
			require.NotEqual(t, ir.OpCall, ins.Op, "call site should have been replaced by the callee's cloned body")
		}
	}

	var sawAdd bool
	for _, bb := range main.Blocks {
		for _, ins := range bb.Instructions {
			if ins.Op == ir.OpIAdd {
				sawAdd = true
			}
		}
	}
	require.True(t, sawAdd, "the callee's add instruction should have been cloned into main")
}

func TestConstantPropagationFoldsArithmeticAndPrunesBranch(t *testing.T) {
	m := ir.NewModule("test")
	i32 := m.Types().Int32()
	fn := ir.NewFunction(m, funcType(m, i32, nil), "f")

	entry := ir.NewBasicBlock(m, "entry", fn)
	thenBB := ir.NewBasicBlock(m, "then", fn)
	elseBB := ir.NewBasicBlock(m, "else", fn)

	b := irbuilder.New(m)
	b.SetInsertPoint(entry)
	sum := b.CreateIAdd(m.Constants().Int(2), m.Constants().Int(3))
	cond := b.CreateICmpEQ(sum, m.Constants().Int(5))
	b.CreateCondBr(cond, thenBB, elseBB)

	b.SetInsertPoint(thenBB)
	b.CreateRet(m.Constants().Int(1))

	b.SetInsertPoint(elseBB)
	b.CreateRet(m.Constants().Int(0))

	fn.ResetCFG()

	changed := (&pass.ConstantPropagation{}).RunChanged(m)
	require.True(t, changed)

	term := entry.Instructions[len(entry.Instructions)-1]
	require.Equal(t, ir.OpBr, term.Op)
	require.Same(t, thenBB, term.BrTarget())

	for _, bb := range fn.Blocks {
		require.NotSame(t, elseBB, bb, "the unreachable else arm should have been pruned")
	}
}

func TestDeadCodeEliminationRemovesUnusedComputation(t *testing.T) {
	m := ir.NewModule("test")
	i32 := m.Types().Int32()
	voidTy := m.Types().Void()
	fn := ir.NewFunction(m, funcType(m, voidTy, []ir.Type{i32}), "f")
	entry := ir.NewBasicBlock(m, "entry", fn)

	b := irbuilder.New(m)
	b.SetInsertPoint(entry)
	b.CreateIAdd(fn.Args[0], m.Constants().Int(1))
	b.CreateRetVoid()
	fn.ResetCFG()

	changed := (&pass.DeadCode{}).RunChanged(m)
	require.True(t, changed)
	require.Len(t, entry.Instructions, 1)
	require.Equal(t, ir.OpRetVoid, entry.Instructions[0].Op)
}

func TestDefaultPipelineFoldsInlinedConstantCallThroughToReturn(t *testing.T) {
	m := ir.NewModule("test")
	i32 := m.Types().Int32()

	two := ir.NewFunction(m, funcType(m, i32, nil), "two")
	twoEntry := ir.NewBasicBlock(m, "entry", two)
	b := irbuilder.New(m)
	b.SetInsertPoint(twoEntry)
	b.CreateRet(m.Constants().Int(2))
	two.ResetCFG()

	main := ir.NewFunction(m, funcType(m, i32, nil), "main")
	mainEntry := ir.NewBasicBlock(m, "entry", main)
	b.SetInsertPoint(mainEntry)
	call := b.CreateCall(two, nil)
	sum := b.CreateIAdd(call, m.Constants().Int(3))
	b.CreateRet(sum)
	main.ResetCFG()

	pass.Default().Run(m)

	var ret *ir.Instruction
	for _, fn := range m.Functions {
		if fn.Name() != "main" {
			continue
		}
		for _, bb := range fn.Blocks {
			for _, ins := range bb.Instructions {
				require.NotEqual(t, ir.OpCall, ins.Op)
				if ins.Op == ir.OpRet {
					ret = ins
				}
			}
		}
	}
	require.NotNil(t, ret)
	c, ok := ir.AsConstantInt(ret.ReturnValue())
	require.True(t, ok, "2+3 should have folded to a literal return value")
	require.Equal(t, int32(5), c.Val)
}
