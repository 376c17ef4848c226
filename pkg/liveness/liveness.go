// Package liveness computes, for each basic block of a function, the set
// of virtual registers live on entry and on exit, using the standard
// backward data-flow equations over the block's local use/def sets.
package liveness

import (
	"sort"

	"github.com/kmanley/toyc/pkg/ir"
)

// Run performs the full liveness pipeline on f: it rebuilds the CFG,
// computes each block's local use/def sets, establishes f's reverse
// postorder, and iterates the data-flow equations to a fixed point. The
// results are left on each block's LiveIn/LiveOut/UseSet/DefSet fields and
// f.RPOOrder.
func Run(f *ir.Function) {
	f.BuildCFG()
	computeUseDefSets(f)
	f.RPOOrder = BuildRPO(f.EntryBlock())
	computeLivenessIteratively(f)
}

// computeUseDefSets scans every instruction once and records, per block,
// which vregs are used before any local def (UseSet) and which are defined
// anywhere in the block (DefSet).
func computeUseDefSets(f *ir.Function) {
	for _, b := range f.Blocks {
		b.UseSet = make(map[int]struct{})
		b.DefSet = make(map[int]struct{})
		b.LiveIn = make(map[int]struct{})
		b.LiveOut = make(map[int]struct{})

		localDef := make(map[int]struct{})
		for _, inst := range b.Insts {
			for _, u := range inst.UseRegs() {
				if _, defined := localDef[u]; !defined {
					b.UseSet[u] = struct{}{}
				}
			}
			if d := inst.DefReg(); d != -1 {
				b.DefSet[d] = struct{}{}
				localDef[d] = struct{}{}
			}
		}
	}
}

// BuildRPO returns entry's reverse postorder over the successor graph,
// using an iterative two-phase-marker DFS so it never recurses.
func BuildRPO(entry *ir.BasicBlock) []*ir.BasicBlock {
	var order []*ir.BasicBlock
	if entry == nil {
		return order
	}

	type frame struct {
		block     *ir.BasicBlock
		processed bool
	}
	visited := make(map[*ir.BasicBlock]struct{})
	stack := []frame{{entry, false}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.processed {
			order = append(order, top.block)
			continue
		}
		if _, seen := visited[top.block]; seen {
			continue
		}
		visited[top.block] = struct{}{}
		stack = append(stack, frame{top.block, true})
		for i := len(top.block.Succs) - 1; i >= 0; i-- {
			succ := top.block.Succs[i]
			if _, seen := visited[succ]; !seen {
				stack = append(stack, frame{succ, false})
			}
		}
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// computeLivenessIteratively solves liveOut(B) = ∪ liveIn(succ(B)) and
// liveIn(B) = useSet(B) ∪ (liveOut(B) \ defSet(B)) to a fixed point,
// walking f.RPOOrder backward on each pass.
func computeLivenessIteratively(f *ir.Function) {
	changed := true
	for changed {
		changed = false
		for i := len(f.RPOOrder) - 1; i >= 0; i-- {
			b := f.RPOOrder[i]

			newLiveOut := make(map[int]struct{})
			for _, succ := range b.Succs {
				for v := range succ.LiveIn {
					newLiveOut[v] = struct{}{}
				}
			}

			newLiveIn := make(map[int]struct{}, len(b.UseSet))
			for v := range b.UseSet {
				newLiveIn[v] = struct{}{}
			}
			for v := range newLiveOut {
				if _, defined := b.DefSet[v]; !defined {
					newLiveIn[v] = struct{}{}
				}
			}

			if !setsEqual(newLiveIn, b.LiveIn) || !setsEqual(newLiveOut, b.LiveOut) {
				b.LiveIn = newLiveIn
				b.LiveOut = newLiveOut
				changed = true
			}
		}
	}
}

func setsEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}

// sortedInts is a small helper used by tests to get deterministic output
// from a liveness set.
func sortedInts(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
