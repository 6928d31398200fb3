package ir

import (
	"fmt"
	"strings"
)

// Print renders m as LLVM-flavored textual IR: "%N" locals, "@name"
// globals, one function per paragraph. Unnamed locals are first
// numbered by SetPrintNames.
func (m *Module) Print() string {
	m.SetPrintNames()
	var b strings.Builder
	for _, g := range m.Globals {
		fmt.Fprintf(&b, "@%s = global %s %s\n", g.name, g.Elem.String(), valueRef(g.Init()))
	}
	if len(m.Globals) > 0 {
		b.WriteString("\n")
	}
	for i, fn := range m.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		printFunction(&b, fn)
	}
	return b.String()
}

func printFunction(b *strings.Builder, fn *Function) {
	ft := fn.FunctionType()
	if fn.IsDeclaration() {
		fmt.Fprintf(b, "declare %s @%s(%s)\n", ft.Ret.String(), fn.name, paramList(ft.Params))
		return
	}
	fmt.Fprintf(b, "define %s @%s(%s) {\n", ft.Ret.String(), fn.name, argList(fn.Args))
	for _, bb := range fn.Blocks {
		fmt.Fprintf(b, "%s:\n", bb.name)
		for _, ins := range bb.Instructions {
			b.WriteString("  ")
			printInstruction(b, ins)
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n")
}

func paramList(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func argList(args []*Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Type().String() + " %" + a.name
	}
	return strings.Join(parts, ", ")
}

func valueRef(v Value) string {
	switch t := v.(type) {
	case *ConstantInt:
		return t.String()
	case *ConstantFP:
		return t.String()
	case *ConstantZero:
		return t.String()
	case *GlobalVariable:
		return "@" + t.name
	case *BasicBlock:
		return "%" + t.name
	case *Function:
		return "@" + t.name
	case *Argument:
		return "%" + t.name
	case *Undef:
		return "undef"
	case *Instruction:
		return "%" + t.name
	default:
		return "<?>"
	}
}

func printInstruction(b *strings.Builder, ins *Instruction) {
	if ins.typ != nil {
		if _, isVoid := ins.typ.(*VoidType); !isVoid {
			fmt.Fprintf(b, "%%%s = ", ins.name)
		}
	}
	switch ins.Op {
	case OpAlloca:
		fmt.Fprintf(b, "alloca %s", ins.AllocaType.String())
	case OpLoad:
		fmt.Fprintf(b, "load %s, %s %s", ElementType(ins.operands[0].Type()).String(), ins.operands[0].Type().String(), valueRef(ins.operands[0]))
	case OpStore:
		fmt.Fprintf(b, "store %s %s, %s %s", ins.StoreRval().Type().String(), valueRef(ins.StoreRval()), ins.StoreLval().Type().String(), valueRef(ins.StoreLval()))
	case OpGEP:
		parts := make([]string, len(ins.operands)-1)
		for i, idx := range ins.operands[1:] {
			parts[i] = idx.Type().String() + " " + valueRef(idx)
		}
		fmt.Fprintf(b, "getelementptr %s, %s %s, %s", ins.GEPSourceType.String(), ins.operands[0].Type().String(), valueRef(ins.operands[0]), strings.Join(parts, ", "))
	case OpIAdd, OpISub, OpIMul, OpISDiv, OpFAdd, OpFSub, OpFMul, OpFDiv,
		OpICmpEQ, OpICmpNE, OpICmpGT, OpICmpGE, OpICmpLT, OpICmpLE,
		OpFCmpEQ, OpFCmpNE, OpFCmpGT, OpFCmpGE, OpFCmpLT, OpFCmpLE:
		fmt.Fprintf(b, "%s %s %s, %s", ins.Op.String(), ins.operands[0].Type().String(), valueRef(ins.operands[0]), valueRef(ins.operands[1]))
	case OpSIToFP, OpFPToSI, OpZExt:
		fmt.Fprintf(b, "%s %s %s to %s", ins.Op.String(), ins.operands[0].Type().String(), valueRef(ins.operands[0]), ins.typ.String())
	case OpPhi:
		parts := make([]string, ins.PhiIncomingCount())
		for i := range parts {
			parts[i] = fmt.Sprintf("[ %s, %s ]", valueRef(ins.PhiValue(i)), valueRef(ins.PhiBlock(i)))
		}
		fmt.Fprintf(b, "phi %s %s", ins.typ.String(), strings.Join(parts, ", "))
	case OpBr:
		fmt.Fprintf(b, "br label %s", valueRef(ins.BrTarget()))
	case OpCondBr:
		fmt.Fprintf(b, "br i1 %s, label %s, label %s", valueRef(ins.CondBrCond()), valueRef(ins.CondBrThen()), valueRef(ins.CondBrElse()))
	case OpRet:
		fmt.Fprintf(b, "ret %s %s", ins.ReturnValue().Type().String(), valueRef(ins.ReturnValue()))
	case OpRetVoid:
		b.WriteString("ret void")
	case OpCall:
		parts := make([]string, len(ins.CallArgs()))
		for i, a := range ins.CallArgs() {
			parts[i] = a.Type().String() + " " + valueRef(a)
		}
		fmt.Fprintf(b, "call %s @%s(%s)", ins.CallCallee().ReturnType().String(), ins.CallCallee().Name(), strings.Join(parts, ", "))
	}
}
