// Package pass implements the cminus-f optimization middle-end: dominator
// analysis, Mem2Reg promotion, function inlining, constant
// propagation/folding with unreachable-block pruning, and dead code
// elimination, driven by a fixed-order pass manager, each rebuilt against
// internal/ir's Go object model rather than translated line by line from
// its C++ counterpart.
package pass

import "github.com/zkdzuishuai/cminusfc/internal/ir"

// Pass is one optimization or analysis stage the Manager drives over a
// whole Module.
type Pass interface {
	Run(m *ir.Module)
}

// Manager runs a fixed sequence of passes, an explicit, ordered slice of
// stages rather than a registry or plugin system: this pipeline has one
// correct order and nothing discovers it at runtime.
type Manager struct {
	passes []Pass
}

// NewManager returns an empty pipeline.
func NewManager() *Manager { return &Manager{} }

// Add appends p to the end of the pipeline.
func (pm *Manager) Add(p Pass) { pm.passes = append(pm.passes, p) }

// Run executes every pass in order over m.
func (pm *Manager) Run(m *ir.Module) {
	for _, p := range pm.passes {
		p.Run(m)
	}
}

// Default builds the fixed optimization pipeline:
// Dominators -> Mem2Reg -> FunctionInline -> (ConstantPropagation -> DeadCode) -> DCE global sweep.
// ConstantPropagation and DeadCode alternate until a round in which neither
// changes anything, since inlining and constant folding can each expose new
// dead code for the other to clean up.
func Default() *Manager {
	pm := NewManager()
	pm.Add(&Dominators{})
	pm.Add(&Mem2Reg{})
	pm.Add(&FunctionInline{})
	pm.Add(NewFixedPointOptimize())
	return pm
}

// fixedPointOptimize alternates ConstantPropagation and DeadCode until a
// round produces no change: folding can expose new dead code, and
// sweeping dead code can expose a branch whose condition just became
// constant, so neither pass alone reaches a stable result.
type fixedPointOptimize struct {
	constProp *ConstantPropagation
	dce       *DeadCode
}

// NewFixedPointOptimize returns the alternating ConstantPropagation/DeadCode
// stage used by Default.
func NewFixedPointOptimize() Pass {
	return &fixedPointOptimize{constProp: &ConstantPropagation{}, dce: &DeadCode{}}
}

func (f *fixedPointOptimize) Run(m *ir.Module) {
	for {
		changed := f.constProp.RunChanged(m)
		changed = f.dce.RunChanged(m) || changed
		if !changed {
			break
		}
	}
	f.dce.SweepGlobally(m)
}
