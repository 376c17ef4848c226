package regalloc

import (
	"sort"

	"github.com/kmanley/toyc/pkg/interval"
	"github.com/kmanley/toyc/pkg/ir"
	"github.com/kmanley/toyc/pkg/liveness"
)

// AllocationResult is the output of a single Allocate call: where every
// virtual register ended up.
type AllocationResult struct {
	VRegToPhys           map[int]int // vreg -> physreg id
	VRegToStack          map[int]int // vreg -> negative spill-slot offset, or positive offset of an incoming stack parameter
	ParamVRegToLocation  map[int]int // param vreg -> physreg id (>=0) or stack offset (as returned by processParameters)
	UsedPhysRegs         []int       // sorted, deduplicated
	CalleeSavedRegs      []int       // sorted, deduplicated subset of UsedPhysRegs
}

func newAllocationResult() *AllocationResult {
	return &AllocationResult{
		VRegToPhys:          make(map[int]int),
		VRegToStack:         make(map[int]int),
		ParamVRegToLocation: make(map[int]int),
	}
}

// LinearScanAllocator assigns physical registers to the live intervals of
// one function at a time; it holds no state between calls to Allocate
// beyond the RegInfo describing the target.
type LinearScanAllocator struct {
	regInfo *RegInfo

	isPhysRegUsed [32]bool
	freeRegs      []int // sorted by (priority, id), like RegInfo.AllocatableIDs

	spillTempReg1, spillTempReg2 int
	spillTempCounter             bool

	allocatedVregs map[int]struct{}
	active         []*interval.LiveInterval // sorted by End, ascending
	result         *AllocationResult
	nextSpillSlot  int
}

// NewLinearScanAllocator creates an allocator targeting the given register
// description.
func NewLinearScanAllocator(regInfo *RegInfo) *LinearScanAllocator {
	return &LinearScanAllocator{
		regInfo:       regInfo,
		spillTempReg1: 5, // t0
		spillTempReg2: 6, // t1
	}
}

// Result returns the outcome of the most recent Allocate call.
func (a *LinearScanAllocator) Result() *AllocationResult { return a.result }

// Allocate runs liveness analysis, assigns linear instruction positions in
// RPO order, builds live intervals, and performs linear-scan register
// allocation over them, returning where every vreg of f landed.
func (a *LinearScanAllocator) Allocate(f *ir.Function) *AllocationResult {
	a.result = newAllocationResult()
	a.active = nil
	a.nextSpillSlot = 0
	a.allocatedVregs = make(map[int]struct{})
	a.initFreeRegs()

	a.processParameters(f.ParamVregs)

	liveness.Run(f)
	a.assignInstrPositions(f)

	intervals := interval.Build(f)

	a.result = a.runLinearScan(intervals)
	a.result.UsedPhysRegs = a.usedPhysRegs()
	a.result.CalleeSavedRegs = a.calleeSavedRegs()
	return a.result
}

func (a *LinearScanAllocator) initFreeRegs() {
	a.freeRegs = append([]int(nil), a.regInfo.AllocatableIDs...)
}

// processParameters binds the first 8 parameter vregs to a0-a7 and spills
// the rest to incoming stack slots at 4-byte increments, mirroring the
// RV32I ILP32 calling convention.
func (a *LinearScanAllocator) processParameters(paramVregs []int) {
	for i, vreg := range paramVregs {
		if i < 8 {
			argReg := 10 + i // a0 = x10 .. a7 = x17
			a.result.VRegToPhys[vreg] = argReg
			a.result.ParamVRegToLocation[vreg] = argReg
			a.isPhysRegUsed[argReg] = true
			a.removeFreeReg(argReg)
			a.allocatedVregs[vreg] = struct{}{}
		} else {
			stackOffset := (i - 8 + 1) * 4
			a.result.VRegToStack[vreg] = stackOffset
			a.result.ParamVRegToLocation[vreg] = stackOffset
			a.allocatedVregs[vreg] = struct{}{}
		}
	}
}

// assignInstrPositions numbers every instruction of f, in RPO order, with
// consecutive positions starting at 0 — the numbering the interval builder
// and the emitter both key off of.
func (a *LinearScanAllocator) assignInstrPositions(f *ir.Function) {
	pos := 0
	for _, block := range f.RPOOrder {
		for _, inst := range block.Insts {
			inst.Index = pos
			inst.BlockID = block.ID
			pos++
		}
	}
}

// runLinearScan processes every interval in start order: it expires
// intervals ending before the current one starts, leaves already-bound
// (parameter) intervals alone beyond tracking them as active, and
// otherwise allocates a free register or spills.
func (a *LinearScanAllocator) runLinearScan(intervals map[int]*interval.LiveInterval) *AllocationResult {
	sorted := make([]*interval.LiveInterval, 0, len(intervals))
	for _, iv := range intervals {
		sorted = append(sorted, iv)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start() < sorted[j].Start() })

	for _, iv := range sorted {
		a.expireOldIntervals(iv.Start())

		if _, already := a.allocatedVregs[iv.VReg]; already {
			if physReg, ok := a.result.VRegToPhys[iv.VReg]; ok {
				iv.PhysReg = physReg
				a.insertActive(iv)
			}
			continue
		}

		if len(a.freeRegs) == 0 {
			a.spillAtInterval(iv)
		} else {
			a.allocatePhysicalReg(iv)
			a.allocatedVregs[iv.VReg] = struct{}{}
		}
	}
	return a.result
}

func (a *LinearScanAllocator) expireOldIntervals(curStart int) {
	i := 0
	for i < len(a.active) {
		if a.active[i].End() < curStart {
			a.freePhysReg(a.active[i].PhysReg)
			i++
			continue
		}
		break
	}
	a.active = a.active[i:]
}

func (a *LinearScanAllocator) allocatePhysicalReg(iv *interval.LiveInterval) {
	physReg := a.allocPhysReg()
	iv.PhysReg = physReg
	a.result.VRegToPhys[iv.VReg] = physReg
	a.insertActive(iv)
}

// spillAtInterval implements the classic linear-scan heuristic: if some
// active interval ends later than the one we're placing, evict it to the
// stack and hand its register to the current interval (spilling the
// interval with more remaining lifetime is a better bet than spilling the
// one that's about to end); otherwise spill the current interval directly.
func (a *LinearScanAllocator) spillAtInterval(iv *interval.LiveInterval) {
	if len(a.active) > 0 {
		spillIdx := 0
		for i, cand := range a.active {
			if cand.End() > a.active[spillIdx].End() {
				spillIdx = i
			}
		}
		spill := a.active[spillIdx]

		if spill.End() > iv.End() {
			physReg := spill.PhysReg

			spill.PhysReg = -1
			spill.SpillSlot = a.allocateSpillSlot()
			delete(a.result.VRegToPhys, spill.VReg)
			a.result.VRegToStack[spill.VReg] = spill.SpillSlot

			a.active = append(a.active[:spillIdx], a.active[spillIdx+1:]...)

			iv.PhysReg = physReg
			a.result.VRegToPhys[iv.VReg] = physReg
			a.insertActive(iv)
			return
		}
	}
	iv.SpillSlot = a.allocateSpillSlot()
	a.result.VRegToStack[iv.VReg] = iv.SpillSlot
}

// allocateSpillSlot hands out the next stack-relative spill slot, counting
// downward in 4-byte steps starting at -4.
func (a *LinearScanAllocator) allocateSpillSlot() int {
	a.nextSpillSlot++
	return -a.nextSpillSlot * 4
}

func (a *LinearScanAllocator) allocPhysReg() int {
	if len(a.freeRegs) == 0 {
		return -1
	}
	reg := a.freeRegs[0]
	a.freeRegs = a.freeRegs[1:]
	a.isPhysRegUsed[reg] = true
	return reg
}

func (a *LinearScanAllocator) freePhysReg(physID int) {
	if physID < 0 || a.regInfo.IsReserved(physID) {
		return
	}
	a.removeFreeReg(physID) // idempotent: physID may already be absent
	idx := sort.Search(len(a.freeRegs), func(i int) bool {
		return !a.regInfo.less(a.freeRegs[i], physID)
	})
	a.freeRegs = append(a.freeRegs, 0)
	copy(a.freeRegs[idx+1:], a.freeRegs[idx:])
	a.freeRegs[idx] = physID
}

// removeFreeReg deletes physID from freeRegs if present; a no-op otherwise.
func (a *LinearScanAllocator) removeFreeReg(physID int) {
	for i, r := range a.freeRegs {
		if r == physID {
			a.freeRegs = append(a.freeRegs[:i], a.freeRegs[i+1:]...)
			return
		}
	}
}

// insertActive keeps a.active sorted by End, ascending, matching the
// original's lower_bound insertion so expireOldIntervals can stop early.
func (a *LinearScanAllocator) insertActive(iv *interval.LiveInterval) {
	idx := sort.Search(len(a.active), func(i int) bool { return a.active[i].End() >= iv.End() })
	a.active = append(a.active, nil)
	copy(a.active[idx+1:], a.active[idx:])
	a.active[idx] = iv
}

// AllocateSpillTempReg alternates t0/t1 as the emitter's scratch register
// for reloading a spilled value immediately before its use.
func (a *LinearScanAllocator) AllocateSpillTempReg() int {
	a.spillTempCounter = !a.spillTempCounter
	if a.spillTempCounter {
		return a.spillTempReg1
	}
	return a.spillTempReg2
}

// IsSpillTempReg reports whether regID is one of the two registers
// AllocateSpillTempReg hands out.
func (a *LinearScanAllocator) IsSpillTempReg(regID int) bool {
	return regID == a.spillTempReg1 || regID == a.spillTempReg2
}

func (a *LinearScanAllocator) usedPhysRegs() []int {
	var used []int
	for i := 0; i < 32; i++ {
		if a.isPhysRegUsed[i] {
			used = append(used, i)
		}
	}
	return used
}

func (a *LinearScanAllocator) calleeSavedRegs() []int {
	var callee []int
	for i := 0; i < 32; i++ {
		if a.isPhysRegUsed[i] && a.regInfo.IsCalleeSaved(i) {
			callee = append(callee, i)
		}
	}
	return callee
}
