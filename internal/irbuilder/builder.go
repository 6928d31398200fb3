// Package irbuilder provides the insertion-point cursor that
// internal/lower drives while walking the AST, the same role the
// teacher's own internal/codegen/llvm.go (LLVMCodegen) plays for ALaS.
package irbuilder

import "github.com/zkdzuishuai/cminusfc/internal/ir"

// Builder tracks a current insertion block and appends new instructions
// to its end as each Create* method is called.
type Builder struct {
	module *ir.Module
	block  *ir.BasicBlock
}

// New creates a builder for m with no insertion point set.
func New(m *ir.Module) *Builder {
	return &Builder{module: m}
}

// SetInsertPoint redirects subsequent create_* calls to append to bb.
func (b *Builder) SetInsertPoint(bb *ir.BasicBlock) { b.block = bb }

// InsertBlock returns the builder's current insertion block.
func (b *Builder) InsertBlock() *ir.BasicBlock { return b.block }

func (b *Builder) emit(ins *ir.Instruction) *ir.Instruction {
	b.block.AddInstruction(ins)
	return ins
}

func (b *Builder) binary(op ir.Opcode, typ ir.Type, l, r ir.Value) *ir.Instruction {
	return b.emit(ir.NewInstruction(op, typ, []ir.Value{l, r}))
}

// CreateAlloca allocates stack storage for one value of type elem.
func (b *Builder) CreateAlloca(elem ir.Type) *ir.Instruction {
	ins := ir.NewInstruction(ir.OpAlloca, b.module.Types().Pointer(elem), nil)
	ins.AllocaType = elem
	return b.emit(ins)
}

// CreateLoad reads the value stored at addr.
func (b *Builder) CreateLoad(addr ir.Value) *ir.Instruction {
	elem := ir.ElementType(addr.Type())
	return b.emit(ir.NewInstruction(ir.OpLoad, elem, []ir.Value{addr}))
}

// CreateStore writes val to addr; store has no result (void).
func (b *Builder) CreateStore(val, addr ir.Value) *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpStore, b.module.Types().Void(), []ir.Value{addr, val}))
}

// CreateGEP indexes into a pointer or array base. idxs follows LLVM GEP
// convention: a pointer base takes one index (element offset); an array
// base takes two (0, element index), matching the {0, idx} / {idx} call
// sites in cminusf_builder.cpp's ASTVar visitor.
func (b *Builder) CreateGEP(base ir.Value, idxs []ir.Value) *ir.Instruction {
	source := ir.ElementType(base.Type())
	var resultElem ir.Type
	switch t := source.(type) {
	case *ir.ArrayType:
		resultElem = t.Elem
	default:
		resultElem = source
	}
	ins := ir.NewInstruction(ir.OpGEP, b.module.Types().Pointer(resultElem), append([]ir.Value{base}, idxs...))
	ins.GEPSourceType = source
	return b.emit(ins)
}

func (b *Builder) CreateIAdd(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpIAdd, b.module.Types().Int32(), l, r)
}
func (b *Builder) CreateISub(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpISub, b.module.Types().Int32(), l, r)
}
func (b *Builder) CreateIMul(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpIMul, b.module.Types().Int32(), l, r)
}
func (b *Builder) CreateISDiv(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpISDiv, b.module.Types().Int32(), l, r)
}
func (b *Builder) CreateFAdd(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpFAdd, b.module.Types().Float(), l, r)
}
func (b *Builder) CreateFSub(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpFSub, b.module.Types().Float(), l, r)
}
func (b *Builder) CreateFMul(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpFMul, b.module.Types().Float(), l, r)
}
func (b *Builder) CreateFDiv(l, r ir.Value) *ir.Instruction {
	return b.binary(ir.OpFDiv, b.module.Types().Float(), l, r)
}

func (b *Builder) icmp(op ir.Opcode, l, r ir.Value) *ir.Instruction {
	return b.binary(op, b.module.Types().Int1(), l, r)
}

func (b *Builder) CreateICmpEQ(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpICmpEQ, l, r) }
func (b *Builder) CreateICmpNE(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpICmpNE, l, r) }
func (b *Builder) CreateICmpGT(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpICmpGT, l, r) }
func (b *Builder) CreateICmpGE(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpICmpGE, l, r) }
func (b *Builder) CreateICmpLT(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpICmpLT, l, r) }
func (b *Builder) CreateICmpLE(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpICmpLE, l, r) }

func (b *Builder) CreateFCmpEQ(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpFCmpEQ, l, r) }
func (b *Builder) CreateFCmpNE(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpFCmpNE, l, r) }
func (b *Builder) CreateFCmpGT(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpFCmpGT, l, r) }
func (b *Builder) CreateFCmpGE(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpFCmpGE, l, r) }
func (b *Builder) CreateFCmpLT(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpFCmpLT, l, r) }
func (b *Builder) CreateFCmpLE(l, r ir.Value) *ir.Instruction { return b.icmp(ir.OpFCmpLE, l, r) }

// CreateSIToFP converts an i32 (or i1) value to float.
func (b *Builder) CreateSIToFP(v ir.Value) *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpSIToFP, b.module.Types().Float(), []ir.Value{v}))
}

// CreateFPToSI converts a float value to i32.
func (b *Builder) CreateFPToSI(v ir.Value) *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpFPToSI, b.module.Types().Int32(), []ir.Value{v}))
}

// CreateZExt widens an i1 value to i32.
func (b *Builder) CreateZExt(v ir.Value) *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpZExt, b.module.Types().Int32(), []ir.Value{v}))
}

// CreatePhi starts an empty phi of type typ at the head of the current
// block (before any instruction already there); incoming pairs are added later via
// ir.Instruction.AddPhiIncoming (Mem2Reg builds phis incrementally as it
// discovers dominance-frontier insertion points).
func (b *Builder) CreatePhi(typ ir.Type) *ir.Instruction {
	ins := ir.NewInstruction(ir.OpPhi, typ, nil)
	b.block.AddInstructionFront(ins)
	return ins
}

// CreateBr emits an unconditional branch, terminating the current block.
func (b *Builder) CreateBr(target *ir.BasicBlock) *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpBr, b.module.Types().Void(), []ir.Value{target}))
}

// CreateCondBr emits a conditional branch, terminating the current block.
func (b *Builder) CreateCondBr(cond ir.Value, thenBB, elseBB *ir.BasicBlock) *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpCondBr, b.module.Types().Void(), []ir.Value{cond, thenBB, elseBB}))
}

// CreateRet emits a value-returning return, terminating the current block.
func (b *Builder) CreateRet(v ir.Value) *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpRet, b.module.Types().Void(), []ir.Value{v}))
}

// CreateRetVoid emits a void return, terminating the current block.
func (b *Builder) CreateRetVoid() *ir.Instruction {
	return b.emit(ir.NewInstruction(ir.OpRetVoid, b.module.Types().Void(), nil))
}

// CreateCall emits a call to callee with args, its result type callee's
// return type (void calls are a legal, typeless result per the printer).
func (b *Builder) CreateCall(callee *ir.Function, args []ir.Value) *ir.Instruction {
	ops := append([]ir.Value{callee}, args...)
	return b.emit(ir.NewInstruction(ir.OpCall, callee.ReturnType(), ops))
}
