package pass

import (
	"fmt"
	"io"

	"github.com/zkdzuishuai/cminusfc/internal/ir"
)

// Dominators computes, per function, the immediate dominator tree,
// dominance frontier, dominator-tree successor sets, and dominator-tree
// Euler-tour numbering. Grounded directly on Dominators.cpp: reverse
// postorder DFS, then Cooper-Harvey-Kennedy iterative idom intersection,
// then the standard dominance-frontier construction, then a dominator-tree
// DFS for the L/R interval numbers (exposed through Dominates and Dump;
// Mem2Reg, the one pass here that queries the dominator tree, uses only
// the frontier and tree-successor accessors).
type Dominators struct {
	postOrder    map[*ir.BasicBlock]int
	postOrderVec []*ir.BasicBlock
	idom         map[*ir.BasicBlock]*ir.BasicBlock
	domFrontier  map[*ir.BasicBlock]map[*ir.BasicBlock]bool
	domTreeSucc  map[*ir.BasicBlock][]*ir.BasicBlock
	domTreeL     map[*ir.BasicBlock]int
	domTreeR     map[*ir.BasicBlock]int
}

// Run computes dominator information for every defined function in m.
func (d *Dominators) Run(m *ir.Module) {
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		fn.ResetCFG()
		d.RunOnFunction(fn)
	}
}

// RunOnFunction (re)computes dominator information for fn alone; Mem2Reg
// calls this directly on the one function it is promoting, exactly as
// Mem2Reg::run constructs its own Dominators instance.
func (d *Dominators) RunOnFunction(fn *ir.Function) {
	if d.idom == nil {
		d.idom = map[*ir.BasicBlock]*ir.BasicBlock{}
		d.domFrontier = map[*ir.BasicBlock]map[*ir.BasicBlock]bool{}
		d.domTreeSucc = map[*ir.BasicBlock][]*ir.BasicBlock{}
		d.domTreeL = map[*ir.BasicBlock]int{}
		d.domTreeR = map[*ir.BasicBlock]int{}
	}
	d.postOrder = map[*ir.BasicBlock]int{}
	d.postOrderVec = nil

	for _, bb := range fn.Blocks {
		d.idom[bb] = nil
		d.domFrontier[bb] = map[*ir.BasicBlock]bool{}
		d.domTreeSucc[bb] = nil
	}

	d.createReversePostOrder(fn)
	d.createIdom(fn)
	d.createDominanceFrontier(fn)
	d.createDomTreeSucc(fn)
	d.createDomDFSOrder(fn)
}

func (d *Dominators) createReversePostOrder(fn *ir.Function) {
	visited := map[*ir.BasicBlock]bool{}
	d.dfs(fn.EntryBlock(), visited)
}

func (d *Dominators) dfs(bb *ir.BasicBlock, visited map[*ir.BasicBlock]bool) {
	visited[bb] = true
	for _, succ := range bb.Succs() {
		if !visited[succ] {
			d.dfs(succ, visited)
		}
	}
	d.postOrderVec = append(d.postOrderVec, bb)
	d.postOrder[bb] = len(d.postOrder)
}

func (d *Dominators) getPostOrder(bb *ir.BasicBlock) int { return d.postOrder[bb] }

func (d *Dominators) intersect(b1, b2 *ir.BasicBlock) *ir.BasicBlock {
	for b1 != b2 {
		for d.getPostOrder(b1) < d.getPostOrder(b2) {
			b1 = d.idom[b1]
		}
		for d.getPostOrder(b2) < d.getPostOrder(b1) {
			b2 = d.idom[b2]
		}
	}
	return b1
}

func (d *Dominators) createIdom(fn *ir.Function) {
	entry := fn.EntryBlock()
	d.idom[entry] = entry
	for changed := true; changed; {
		changed = false
		for i := len(d.postOrderVec) - 1; i >= 0; i-- {
			bb := d.postOrderVec[i]
			if bb == entry {
				continue
			}
			preds := bb.Preds()
			if len(preds) == 0 {
				continue
			}
			firstPred := preds[0]
			newIdom := firstPred
			for _, pred := range preds {
				if pred == firstPred {
					continue
				}
				if d.idom[pred] != nil {
					newIdom = d.intersect(pred, newIdom)
				}
			}
			if newIdom != d.idom[bb] {
				changed = true
				d.idom[bb] = newIdom
			}
		}
	}
}

func (d *Dominators) createDominanceFrontier(fn *ir.Function) {
	for _, bb := range fn.Blocks {
		if len(bb.Preds()) < 2 {
			continue
		}
		for _, pred := range bb.Preds() {
			runner := pred
			for runner != d.idom[bb] {
				d.domFrontier[runner][bb] = true
				runner = d.idom[runner]
			}
		}
	}
}

func (d *Dominators) createDomTreeSucc(fn *ir.Function) {
	for _, bb := range fn.Blocks {
		if idom := d.idom[bb]; idom != nil && idom != bb {
			d.domTreeSucc[idom] = append(d.domTreeSucc[idom], bb)
		}
	}
}

func (d *Dominators) createDomDFSOrder(fn *ir.Function) {
	order := 0
	var visit func(bb *ir.BasicBlock)
	visit = func(bb *ir.BasicBlock) {
		order++
		d.domTreeL[bb] = order
		for _, succ := range d.domTreeSucc[bb] {
			visit(succ)
		}
		d.domTreeR[bb] = order
	}
	visit(fn.EntryBlock())
}

// Idom returns bb's immediate dominator (itself, for the entry block).
func (d *Dominators) Idom(bb *ir.BasicBlock) *ir.BasicBlock { return d.idom[bb] }

// DominanceFrontier returns the set of blocks in bb's dominance frontier.
func (d *Dominators) DominanceFrontier(bb *ir.BasicBlock) []*ir.BasicBlock {
	set := d.domFrontier[bb]
	out := make([]*ir.BasicBlock, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	return out
}

// DomTreeSuccBlocks returns bb's children in the dominator tree.
func (d *Dominators) DomTreeSuccBlocks(bb *ir.BasicBlock) []*ir.BasicBlock {
	return d.domTreeSucc[bb]
}

// Dominates reports whether a dominates b using the Euler-tour L/R interval
// test (a dominates b iff L[a] <= L[b] <= R[a]).
func (d *Dominators) Dominates(a, b *ir.BasicBlock) bool {
	return d.domTreeL[a] <= d.domTreeL[b] && d.domTreeL[b] <= d.domTreeR[a]
}

// Dump writes idom, dominance-frontier, and dominator-tree-interval
// listings for fn's blocks to w, in block order. Carried over from
// Dominators.cpp's print_idom/print_dominance_frontier/dump_cfg debug
// dumps; useful for inspecting a failing pass test's fixture without
// reaching for a debugger.
func (d *Dominators) Dump(w io.Writer, fn *ir.Function) {
	for _, bb := range fn.Blocks {
		idom := d.Idom(bb)
		idomName := "<none>"
		if idom != nil {
			idomName = idom.Name()
		}
		fmt.Fprintf(w, "%s: idom=%s L=%d R=%d DF={", bb.Name(), idomName, d.domTreeL[bb], d.domTreeR[bb])
		for i, df := range d.DominanceFrontier(bb) {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprint(w, df.Name())
		}
		fmt.Fprintln(w, "}")
	}
}
