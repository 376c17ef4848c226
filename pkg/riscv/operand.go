package riscv

import "github.com/kmanley/toyc/pkg/ir"

// resolveUse turns a use operand into the name of a physical register
// holding its value: immediates and boolean literals are loaded into a
// fresh spill-temp with li, a register-allocated vreg resolves to its
// physical register directly, and a spilled or stack-passed vreg is
// reloaded into a spill-temp from its stack location.
func (g *CodeGen) resolveUse(op ir.Operand) string {
	allocator := g.funcAllocators[g.currentFunction]

	if op.IsImm() {
		tmpName := g.regInfo.Name(allocator.AllocateSpillTempReg())
		g.emit("li " + tmpName + ", " + itoa(int(op.ImmValue())))
		return tmpName
	}
	if op.IsBoolLit() {
		tmpName := g.regInfo.Name(allocator.AllocateSpillTempReg())
		g.emit("li " + tmpName + ", " + itoa(boolToInt(op.BoolValue())))
		return tmpName
	}
	if op.IsVReg() {
		vreg := op.RegID()
		alloc := g.allocResult()

		if physReg, ok := alloc.VRegToPhys[vreg]; ok {
			return g.regInfo.Name(physReg)
		}

		if slot, ok := alloc.VRegToStack[vreg]; ok {
			tmpName := g.regInfo.Name(allocator.AllocateSpillTempReg())
			if slot > 0 {
				// Positive offset: an incoming stack parameter, living at
				// the bottom of the caller's frame just above our own.
				g.emit("lw " + tmpName + ", " + itoa(slot-4) + "(s0)")
			} else {
				g.emit("lw " + tmpName + ", " + itoa(g.spillSlotToSpOffset(slot)) + "(sp)")
			}
			return tmpName
		}

		return "a0"
	}
	return "zero"
}

// resolveDef turns a def operand into the name of the physical register it
// should be written into, remembering the choice in lastDefRegName so a
// following spillDefIfNeeded writes back to the exact same register.
func (g *CodeGen) resolveDef(op ir.Operand) string {
	if !op.IsVReg() {
		g.lastDefRegName = "a0"
		return g.lastDefRegName
	}

	vreg := op.RegID()
	alloc := g.allocResult()

	if physReg, ok := alloc.VRegToPhys[vreg]; ok {
		g.lastDefRegName = g.regInfo.Name(physReg)
		return g.lastDefRegName
	}

	allocator := g.funcAllocators[g.currentFunction]
	g.lastDefRegName = g.regInfo.Name(allocator.AllocateSpillTempReg())
	return g.lastDefRegName
}

// getAllocaOffset returns the frame-relative byte offset (below s0) of an
// alloca'd vreg's storage, already shifted past the ra/s0/callee-saved
// region.
func (g *CodeGen) getAllocaOffset(vreg int) int {
	if off, ok := g.allocaOffsets[vreg]; ok {
		return off + g.frameOverhead
	}
	return 0
}

// spillSlotToSpOffset converts the allocator's negative spill-slot offset
// into a positive sp-relative offset. The frame's bottom area is laid out
// as [0, callArgArea) outgoing stack args, then [callArgArea,
// callArgArea+callSaveSize) caller-saved spill-around-calls, then
// register-allocation spill slots.
func (g *CodeGen) spillSlotToSpOffset(slot int) int {
	return g.callArgArea + g.callSaveSize + (-slot - 4)
}

// spillDefIfNeeded writes a spilled (non-alloca) def's value back to its
// stack slot immediately after the instruction that produced it, using
// the exact register resolveDef chose so it doesn't depend on subsequent
// spill-temp allocation state.
func (g *CodeGen) spillDefIfNeeded(inst *ir.Instruction) {
	dr := inst.DefReg()
	if dr < 0 {
		return
	}
	alloc := g.allocResult()
	slot, onStack := alloc.VRegToStack[dr]
	if !onStack || slot >= 0 {
		return
	}
	if _, isAlloca := g.allocaOffsets[dr]; isAlloca {
		return
	}
	g.emit("sw " + g.lastDefRegName + ", " + itoa(g.spillSlotToSpOffset(slot)) + "(sp)")
}
