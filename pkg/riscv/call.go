package riscv

import (
	"sort"

	"github.com/kmanley/toyc/pkg/ir"
)

// genCall lowers a call by saving every caller-saved register assigned to
// any vreg of the function, whether or not that vreg is live across the
// call (other than the emitter's own spill temps and the call's own def register) to
// the stack, delivering arguments by reading only from those saved
// locations or from registers/slots the call cannot yet have clobbered —
// never from the live register file — issuing the call, moving the result
// out of a0 before caller-saved registers are restored, and finally
// restoring them.
func (g *CodeGen) genCall(inst *ir.Instruction) {
	alloc := g.allocResult()
	allocator := g.funcAllocators[g.currentFunction]

	defPhysReg := -1
	if inst.Def.IsVReg() {
		if p, ok := alloc.VRegToPhys[inst.Def.RegID()]; ok {
			defPhysReg = p
		}
	}

	seen := make(map[int]struct{})
	var savedRegs []int
	for _, physReg := range alloc.VRegToPhys {
		if g.regInfo.IsCallerSaved(physReg) && !allocator.IsSpillTempReg(physReg) && physReg != defPhysReg {
			if _, dup := seen[physReg]; !dup {
				seen[physReg] = struct{}{}
				savedRegs = append(savedRegs, physReg)
			}
		}
	}
	sort.Ints(savedRegs)

	regToSaveOffset := make(map[int]int)
	saveOffset := g.callArgArea
	for _, reg := range savedRegs {
		g.emit("sw " + g.regInfo.Name(reg) + ", " + itoa(saveOffset) + "(sp)")
		regToSaveOffset[reg] = saveOffset
		saveOffset += 4
	}

	for i := 8; i < len(inst.Ops); i++ {
		argOffset := (i - 8) * 4
		op := inst.Ops[i]
		switch {
		case op.IsImm():
			tmpName := g.regInfo.Name(allocator.AllocateSpillTempReg())
			g.emit("li " + tmpName + ", " + itoa(int(op.ImmValue())))
			g.emit("sw " + tmpName + ", " + itoa(argOffset) + "(sp)")
		case op.IsVReg():
			vreg := op.RegID()
			if physReg, ok := alloc.VRegToPhys[vreg]; ok {
				if saveOff, saved := regToSaveOffset[physReg]; saved {
					tmpName := g.regInfo.Name(allocator.AllocateSpillTempReg())
					g.emit("lw " + tmpName + ", " + itoa(saveOff) + "(sp)")
					g.emit("sw " + tmpName + ", " + itoa(argOffset) + "(sp)")
				} else {
					g.emit("sw " + g.regInfo.Name(physReg) + ", " + itoa(argOffset) + "(sp)")
				}
			} else if slot, onStack := alloc.VRegToStack[vreg]; onStack {
				tmpName := g.regInfo.Name(allocator.AllocateSpillTempReg())
				if slot > 0 {
					g.emit("lw " + tmpName + ", " + itoa(slot-4) + "(s0)")
				} else {
					g.emit("lw " + tmpName + ", " + itoa(g.spillSlotToSpOffset(slot)) + "(sp)")
				}
				g.emit("sw " + tmpName + ", " + itoa(argOffset) + "(sp)")
			}
		}
	}

	for i := 0; i < len(inst.Ops) && i < 8; i++ {
		target := "a" + itoa(i)
		op := inst.Ops[i]

		switch {
		case op.IsImm():
			g.emit("li " + target + ", " + itoa(int(op.ImmValue())))
		case op.IsBoolLit():
			g.emit("li " + target + ", " + itoa(boolToInt(op.BoolValue())))
		case op.IsVReg():
			vreg := op.RegID()
			if physReg, ok := alloc.VRegToPhys[vreg]; ok {
				if saveOff, saved := regToSaveOffset[physReg]; saved {
					g.emit("lw " + target + ", " + itoa(saveOff) + "(sp)")
				} else if srcReg := g.regInfo.Name(physReg); srcReg != target {
					g.emit("mv " + target + ", " + srcReg)
				}
			} else if slot, onStack := alloc.VRegToStack[vreg]; onStack {
				if slot > 0 {
					g.emit("lw " + target + ", " + itoa(slot-4) + "(s0)")
				} else {
					g.emit("lw " + target + ", " + itoa(g.spillSlotToSpOffset(slot)) + "(sp)")
				}
			}
		}
	}

	g.emit("call " + inst.Callee)

	defReg := g.resolveDef(inst.Def)
	if defReg != "a0" {
		g.emit("mv " + defReg + ", a0")
	}

	saveOffset = g.callArgArea
	for _, reg := range savedRegs {
		g.emit("lw " + g.regInfo.Name(reg) + ", " + itoa(saveOffset) + "(sp)")
		saveOffset += 4
	}

	g.spillDefIfNeeded(inst)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
