package pass

import "github.com/zkdzuishuai/cminusfc/internal/ir"

// FuncInfo is a conservative whole-module purity analysis: a function is
// pure iff its body contains no store and calls only other already-known
// pure functions. Every declaration (the four runtime builtins) is impure
// by assumption, since they may perform I/O. Every function starts impure
// and a fixpoint iteration promotes it once its body qualifies, because a
// function's purity can depend on a callee visited later in declaration
// order, including itself (mutual and direct recursion stay impure).
type FuncInfo struct {
	pure map[*ir.Function]bool
}

func newFuncInfo(m *ir.Module) *FuncInfo {
	fi := &FuncInfo{pure: map[*ir.Function]bool{}}
	for changed := true; changed; {
		changed = false
		for _, fn := range m.Functions {
			if fn.IsDeclaration() || fi.pure[fn] {
				continue
			}
			if fi.bodyIsPure(fn) {
				fi.pure[fn] = true
				changed = true
			}
		}
	}
	return fi
}

func (fi *FuncInfo) bodyIsPure(fn *ir.Function) bool {
	for _, bb := range fn.Blocks {
		for _, ins := range bb.Instructions {
			if ins.IsStore() {
				return false
			}
			if ins.IsCall() && !fi.pure[ins.CallCallee()] {
				return false
			}
		}
	}
	return true
}

// IsPure reports whether fn is known free of observable side effects.
func (fi *FuncInfo) IsPure(fn *ir.Function) bool { return fi.pure[fn] }

// DeadCode removes instructions that contribute nothing to the function's
// observable behavior: a mark phase starting from the critical
// instructions (branches, returns, stores, impure calls) and following the
// def-use graph backward through operands, then a sweep of everything left
// unmarked. Grounded on DeadCode.cpp's mark/sweep/is_critical.
type DeadCode struct{}

func (d *DeadCode) Run(m *ir.Module) { d.RunChanged(m) }

// RunChanged performs one mark-sweep pass over every defined function,
// followed by a sweep dropping blocks left with no predecessors, and
// reports whether anything changed, so the driver can alternate with
// ConstantPropagation until a fixed point.
func (d *DeadCode) RunChanged(m *ir.Module) bool {
	info := newFuncInfo(m)
	changed := false
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		if sweepFunction(fn, info) {
			changed = true
		}
		if pruneUnreachableBlocks(fn) {
			changed = true
		}
	}
	return changed
}

func isCritical(ins *ir.Instruction, info *FuncInfo) bool {
	switch {
	case ins.IsBr(), ins.IsRet(), ins.IsStore():
		return true
	case ins.IsCall():
		return !info.IsPure(ins.CallCallee())
	default:
		return false
	}
}

func sweepFunction(fn *ir.Function, info *FuncInfo) bool {
	live := map[*ir.Instruction]bool{}
	var work []*ir.Instruction

	for _, bb := range fn.Blocks {
		for _, ins := range bb.Instructions {
			if isCritical(ins, info) {
				live[ins] = true
				work = append(work, ins)
			}
		}
	}

	for len(work) > 0 {
		ins := work[len(work)-1]
		work = work[:len(work)-1]
		for _, op := range ins.Operands() {
			dep, ok := op.(*ir.Instruction)
			if !ok || live[dep] {
				continue
			}
			live[dep] = true
			work = append(work, dep)
		}
	}

	changed := false
	for _, bb := range fn.Blocks {
		var dead []*ir.Instruction
		for _, ins := range bb.Instructions {
			if !live[ins] {
				dead = append(dead, ins)
			}
		}
		for _, ins := range dead {
			bb.EraseInstruction(ins)
			changed = true
		}
	}
	return changed
}

// SweepGlobally removes module-level functions and globals with no
// remaining references, always keeping main. Grounded on DeadCode.cpp's
// sweep_globally, which (like clear_basic_blocks) is never actually called
// from the original's run(); this driver invokes it explicitly once at the
// end of the pipeline instead.
func (d *DeadCode) SweepGlobally(m *ir.Module) {
	for {
		progress := false

		for _, fn := range append([]*ir.Function(nil), m.Functions...) {
			if fn.Name() == "main" {
				continue
			}
			if len(fn.Uses()) == 0 {
				m.RemoveFunction(fn)
				progress = true
			}
		}

		for _, g := range append([]*ir.GlobalVariable(nil), m.Globals...) {
			if len(g.Uses()) == 0 {
				m.RemoveGlobal(g)
				progress = true
			}
		}

		if !progress {
			return
		}
	}
}
