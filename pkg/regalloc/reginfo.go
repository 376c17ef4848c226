// Package regalloc assigns physical RV32I registers to the virtual
// registers of an ir.Function using linear scan over the live intervals
// built by pkg/interval, spilling to stack slots when registers run out.
package regalloc

import "sort"

// PhysReg describes one of x0-x31's role in the RV32I ILP32 calling
// convention this allocator targets.
type PhysReg struct {
	ID           int
	Name         string
	CallerSaved  bool
	CalleeSaved  bool
	Reserved     bool
	Priority     int // lower is preferred
}

// RegInfo holds the fixed 32-register description of RV32I and the subset
// of ids the allocator is allowed to hand out. Priorities and reservations
// come from the target's calling convention: x0/ra/sp/gp/tp/s0 are
// reserved outright, t0/t1 are reserved as the emitter's own spill-around
// temporaries, a0-a7 are cheapest to allocate (they double as argument
// registers so binding them first tends to avoid extra moves), t2-t6 come
// next, and s1-s11 last since using one obligates a save/restore in the
// prologue/epilogue.
type RegInfo struct {
	Regs           [32]PhysReg
	AllocatableIDs []int // sorted by (Priority, ID)
}

// NewRegInfo builds the RV32I register table.
func NewRegInfo() *RegInfo {
	ri := &RegInfo{}
	r := &ri.Regs

	r[0] = PhysReg{0, "zero", false, false, true, 999}
	r[1] = PhysReg{1, "ra", false, false, true, 999}
	r[2] = PhysReg{2, "sp", false, false, true, 999}
	r[3] = PhysReg{3, "gp", false, false, true, 999}
	r[4] = PhysReg{4, "tp", false, false, true, 999}
	r[5] = PhysReg{5, "t0", true, false, true, 999}
	r[6] = PhysReg{6, "t1", true, false, true, 999}
	r[7] = PhysReg{7, "t2", true, false, false, 20}
	r[8] = PhysReg{8, "s0", false, false, true, 999}
	r[9] = PhysReg{9, "s1", false, true, false, 50}
	r[10] = PhysReg{10, "a0", true, false, false, 0}
	r[11] = PhysReg{11, "a1", true, false, false, 1}
	r[12] = PhysReg{12, "a2", true, false, false, 2}
	r[13] = PhysReg{13, "a3", true, false, false, 3}
	r[14] = PhysReg{14, "a4", true, false, false, 4}
	r[15] = PhysReg{15, "a5", true, false, false, 5}
	r[16] = PhysReg{16, "a6", true, false, false, 6}
	r[17] = PhysReg{17, "a7", true, false, false, 7}
	r[18] = PhysReg{18, "s2", false, true, false, 40}
	r[19] = PhysReg{19, "s3", false, true, false, 41}
	r[20] = PhysReg{20, "s4", false, true, false, 42}
	r[21] = PhysReg{21, "s5", false, true, false, 43}
	r[22] = PhysReg{22, "s6", false, true, false, 44}
	r[23] = PhysReg{23, "s7", false, true, false, 45}
	r[24] = PhysReg{24, "s8", false, true, false, 46}
	r[25] = PhysReg{25, "s9", false, true, false, 47}
	r[26] = PhysReg{26, "s10", false, true, false, 48}
	r[27] = PhysReg{27, "s11", false, true, false, 49}
	r[28] = PhysReg{28, "t3", true, false, false, 21}
	r[29] = PhysReg{29, "t4", true, false, false, 22}
	r[30] = PhysReg{30, "t5", true, false, false, 23}
	r[31] = PhysReg{31, "t6", true, false, false, 24}

	for i := 0; i < 32; i++ {
		if !r[i].Reserved {
			ri.AllocatableIDs = append(ri.AllocatableIDs, i)
		}
	}
	sort.Slice(ri.AllocatableIDs, func(i, j int) bool {
		return ri.less(ri.AllocatableIDs[i], ri.AllocatableIDs[j])
	})
	return ri
}

func (ri *RegInfo) less(a, b int) bool {
	if ri.Regs[a].Priority != ri.Regs[b].Priority {
		return ri.Regs[a].Priority < ri.Regs[b].Priority
	}
	return a < b
}

func (ri *RegInfo) IsReserved(id int) bool    { return ri.Regs[id].Reserved }
func (ri *RegInfo) IsCallerSaved(id int) bool { return ri.Regs[id].CallerSaved }
func (ri *RegInfo) IsCalleeSaved(id int) bool { return ri.Regs[id].CalleeSaved }
func (ri *RegInfo) Name(id int) string        { return ri.Regs[id].Name }
