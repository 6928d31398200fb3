package irbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkdzuishuai/cminusfc/internal/ir"
)

func TestCreateAllocaLoadStoreRoundTrip(t *testing.T) {
	m := ir.NewModule("t")
	fn := ir.NewFunction(m, m.Types().Function(m.Types().Int32(), nil).(*ir.FunctionType), "f")
	bb := ir.NewBasicBlock(m, "entry", fn)
	b := New(m)
	b.SetInsertPoint(bb)

	addr := b.CreateAlloca(m.Types().Int32())
	require.Equal(t, m.Types().Int32(), addr.AllocaType)

	b.CreateStore(m.Constants().Int(5), addr)
	load := b.CreateLoad(addr)
	require.Equal(t, m.Types().Int32(), load.Type())
	require.Len(t, bb.Instructions, 3)
}

func TestCreateGEPOnArrayAndPointerBases(t *testing.T) {
	m := ir.NewModule("t")
	fn := ir.NewFunction(m, m.Types().Function(m.Types().Void(), nil).(*ir.FunctionType), "f")
	bb := ir.NewBasicBlock(m, "entry", fn)
	b := New(m)
	b.SetInsertPoint(bb)

	arrAddr := b.CreateAlloca(m.Types().Array(m.Types().Int32(), 4))
	gep := b.CreateGEP(arrAddr, []ir.Value{m.Constants().Int(0), m.Constants().Int(1)})
	require.Equal(t, m.Types().Pointer(m.Types().Int32()), gep.Type())

	ptrAddr := b.CreateAlloca(m.Types().Pointer(m.Types().Int32()))
	ptr := b.CreateLoad(ptrAddr)
	gep2 := b.CreateGEP(ptr, []ir.Value{m.Constants().Int(2)})
	require.Equal(t, m.Types().Pointer(m.Types().Int32()), gep2.Type())
}

func TestCreatePhiPrependsToBlock(t *testing.T) {
	m := ir.NewModule("t")
	fn := ir.NewFunction(m, m.Types().Function(m.Types().Int32(), nil).(*ir.FunctionType), "f")
	bb := ir.NewBasicBlock(m, "join", fn)
	b := New(m)
	b.SetInsertPoint(bb)

	b.CreateRet(m.Constants().Int(0))
	phi := b.CreatePhi(m.Types().Int32())

	require.Same(t, phi, bb.Instructions[0])
	require.Equal(t, 0, phi.PhiIncomingCount())

	pred := ir.NewBasicBlock(m, "pred", fn)
	phi.AddPhiIncoming(m.Constants().Int(1), pred)
	require.Equal(t, 1, phi.PhiIncomingCount())
	require.Equal(t, pred, phi.PhiBlock(0))
}

func TestCreateCallOperandLayout(t *testing.T) {
	m := ir.NewModule("t")
	callee := ir.NewFunction(m, m.Types().Function(m.Types().Int32(), []ir.Type{m.Types().Int32()}).(*ir.FunctionType), "g")
	fn := ir.NewFunction(m, m.Types().Function(m.Types().Void(), nil).(*ir.FunctionType), "f")
	bb := ir.NewBasicBlock(m, "entry", fn)
	b := New(m)
	b.SetInsertPoint(bb)

	call := b.CreateCall(callee, []ir.Value{m.Constants().Int(7)})
	require.Equal(t, callee, call.CallCallee())
	require.Equal(t, []ir.Value{m.Constants().Int(7)}, call.CallArgs())
}
