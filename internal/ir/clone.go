package ir

// Clone creates a structural copy of ins appended to dst, with operands
// copied verbatim (unmapped). Callers that clone a whole function body
// (the inliner) remap operands afterward via a value map, exactly as
// FunctionInline.cpp's inline_function does in its operand-remap pass
// after every block and instruction has been cloned.
func (i *Instruction) Clone(dst *BasicBlock) *Instruction {
	ops := append([]Value(nil), i.operands...)
	clone := NewInstruction(i.Op, i.typ, ops)
	clone.AllocaType = i.AllocaType
	clone.GEPSourceType = i.GEPSourceType
	clone.name = i.name
	dst.AddInstruction(clone)
	return clone
}
