package ir

// Opcode identifies an Instruction's operation, one entry per instruction
// kind the IR supports, in Go constant style rather than a C++ enum class.
type Opcode int

const (
	OpAlloca Opcode = iota
	OpLoad
	OpStore
	OpGEP
	OpIAdd
	OpISub
	OpIMul
	OpISDiv
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpICmpEQ
	OpICmpNE
	OpICmpGT
	OpICmpGE
	OpICmpLT
	OpICmpLE
	OpFCmpEQ
	OpFCmpNE
	OpFCmpGT
	OpFCmpGE
	OpFCmpLT
	OpFCmpLE
	OpSIToFP
	OpFPToSI
	OpZExt
	OpPhi
	OpBr
	OpCondBr
	OpRet
	OpRetVoid
	OpCall
)

var opcodeNames = map[Opcode]string{
	OpAlloca: "alloca", OpLoad: "load", OpStore: "store", OpGEP: "getelementptr",
	OpIAdd: "add", OpISub: "sub", OpIMul: "mul", OpISDiv: "sdiv",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv",
	OpICmpEQ: "icmp eq", OpICmpNE: "icmp ne", OpICmpGT: "icmp sgt", OpICmpGE: "icmp sge",
	OpICmpLT: "icmp slt", OpICmpLE: "icmp sle",
	OpFCmpEQ: "fcmp oeq", OpFCmpNE: "fcmp one", OpFCmpGT: "fcmp ogt", OpFCmpGE: "fcmp oge",
	OpFCmpLT: "fcmp olt", OpFCmpLE: "fcmp ole",
	OpSIToFP: "sitofp", OpFPToSI: "fptosi", OpZExt: "zext",
	OpPhi: "phi", OpBr: "br", OpCondBr: "br", OpRet: "ret", OpRetVoid: "ret",
	OpCall: "call",
}

func (o Opcode) String() string { return opcodeNames[o] }

// IsTerminator reports whether o ends a basic block.
func (o Opcode) IsTerminator() bool {
	switch o {
	case OpBr, OpCondBr, OpRet, OpRetVoid:
		return true
	default:
		return false
	}
}

var binaryArithOps = map[Opcode]bool{
	OpIAdd: true, OpISub: true, OpIMul: true, OpISDiv: true,
	OpFAdd: true, OpFSub: true, OpFMul: true, OpFDiv: true,
}

var intCmpOps = map[Opcode]bool{
	OpICmpEQ: true, OpICmpNE: true, OpICmpGT: true, OpICmpGE: true, OpICmpLT: true, OpICmpLE: true,
}

var fpCmpOps = map[Opcode]bool{
	OpFCmpEQ: true, OpFCmpNE: true, OpFCmpGT: true, OpFCmpGE: true, OpFCmpLT: true, OpFCmpLE: true,
}

// IsIntArith reports whether o is one of the i32 arithmetic opcodes.
func (o Opcode) IsIntArith() bool { return o == OpIAdd || o == OpISub || o == OpIMul || o == OpISDiv }

// IsFloatArith reports whether o is one of the f32 arithmetic opcodes.
func (o Opcode) IsFloatArith() bool {
	return o == OpFAdd || o == OpFSub || o == OpFMul || o == OpFDiv
}

// IsIntCmp reports whether o is one of the i32 comparison opcodes.
func (o Opcode) IsIntCmp() bool { return intCmpOps[o] }

// IsFloatCmp reports whether o is one of the f32 comparison opcodes.
func (o Opcode) IsFloatCmp() bool { return fpCmpOps[o] }

// A phi's incoming (value, predecessor) pairs are stored as a parallel
// pair of operands (value at 2i, block at 2i+1), so that appending or
// removing one incoming pair is a single paired operand-list splice.

// Instruction is every non-terminator and terminator opcode in the IR. A
// single struct (rather than one Go type per opcode) keeps the def-use
// machinery in one place; the opcode-specific helper methods below give
// each opcode its own typed view over a shared operand list.
type Instruction struct {
	userBase
	Op     Opcode
	parent *BasicBlock

	// AllocaType is the pointee type for OpAlloca (Type() is Pointer(AllocaType)).
	AllocaType Type
	// GEPSourceType is the pointee type GEP indexes into.
	GEPSourceType Type
}

// NewInstruction constructs a detached instruction of the given opcode,
// result type and operand list, not yet appended to any block. The
// irbuilder package appends it via BasicBlock.AddInstruction immediately
// after construction; passes use it directly when synthesizing
// instructions that don't go through a cursor (e.g. the inliner's cloned
// call, Mem2Reg's phi).
func NewInstruction(op Opcode, typ Type, operands []Value) *Instruction {
	ins := &Instruction{Op: op}
	ins.typ = typ
	ins.initOperands(operands)
	ins.setSelf(ins)
	return ins
}

func (i *Instruction) Parent() *BasicBlock { return i.parent }

// Function returns the function this instruction belongs to, or nil if
// detached.
func (i *Instruction) Function() *Function {
	if i.parent == nil {
		return nil
	}
	return i.parent.Parent
}

// IsCritical instruction predicates used directly by dce.go; kept here so
// opcode knowledge stays local to this file.
func (i *Instruction) IsBr() bool    { return i.Op == OpBr || i.Op == OpCondBr }
func (i *Instruction) IsRet() bool   { return i.Op == OpRet || i.Op == OpRetVoid }
func (i *Instruction) IsStore() bool { return i.Op == OpStore }
func (i *Instruction) IsLoad() bool  { return i.Op == OpLoad }
func (i *Instruction) IsCall() bool  { return i.Op == OpCall }
func (i *Instruction) IsPhi() bool   { return i.Op == OpPhi }

// StoreLval/StoreRval view a store's operands: operand 0 is the address,
// operand 1 is the stored value.
func (i *Instruction) StoreLval() Value { return i.operands[0] }
func (i *Instruction) StoreRval() Value { return i.operands[1] }

// LoadLval views a load's sole operand, the address loaded from.
func (i *Instruction) LoadLval() Value { return i.operands[0] }

// CondBrCond/CondBrThen/CondBrElse view a conditional branch's operands.
func (i *Instruction) CondBrCond() Value          { return i.operands[0] }
func (i *Instruction) CondBrThen() *BasicBlock     { return i.operands[1].(*BasicBlock) }
func (i *Instruction) CondBrElse() *BasicBlock     { return i.operands[2].(*BasicBlock) }
func (i *Instruction) BrTarget() *BasicBlock       { return i.operands[0].(*BasicBlock) }
func (i *Instruction) IsCondBr() bool              { return i.Op == OpCondBr }
func (i *Instruction) CallCallee() *Function       { return i.operands[0].(*Function) }
func (i *Instruction) CallArgs() []Value           { return i.operands[1:] }

// PhiIncomingCount returns the number of (value, block) pairs on a phi.
func (i *Instruction) PhiIncomingCount() int { return len(i.operands) / 2 }

// PhiValue/PhiBlock index into a phi's operand pairs.
func (i *Instruction) PhiValue(idx int) Value       { return i.operands[idx*2] }
func (i *Instruction) PhiBlock(idx int) *BasicBlock  { return i.operands[idx*2+1].(*BasicBlock) }

// AddPhiIncoming appends a new (value, block) pair to a phi, mirroring
// PhiInst::add_phi_pair_operand.
func (i *Instruction) AddPhiIncoming(v Value, bb *BasicBlock) {
	i.addOperand(i, v)
	i.addOperand(i, bb)
}

// RemovePhiIncomingAt drops the pair at logical index idx (so operands
// 2*idx and 2*idx+1), mirroring ConstPropagation.cpp's paired
// remove_operand calls used during unreachable-block phi pruning.
func (i *Instruction) RemovePhiIncomingAt(idx int) {
	i.removeOperandPair(i, idx*2)
}

// ReturnValue views a non-void ret's operand.
func (i *Instruction) ReturnValue() Value {
	if i.Op != OpRet {
		return nil
	}
	return i.operands[0]
}
