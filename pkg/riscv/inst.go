package riscv

import "github.com/kmanley/toyc/pkg/ir"

// generateInst dispatches on opcode alone — never on the instruction's
// string form — to the matching gen* lowering.
func (g *CodeGen) generateInst(inst *ir.Instruction) {
	switch inst.Opcode {
	case ir.Alloca:
		g.genAlloca(inst)
	case ir.Store:
		g.genStore(inst)
	case ir.Load:
		g.genLoad(inst)
	case ir.Add, ir.Sub, ir.Mul, ir.SDiv, ir.SRem:
		g.genBinOp(inst)
	case ir.ICmp:
		g.genICmp(inst)
	case ir.CondBr:
		g.genCondBr(inst)
	case ir.Br:
		g.genBr(inst)
	case ir.Ret, ir.RetVoid:
		g.genRet(inst)
	case ir.Call:
		g.genCall(inst)
	}
}

// genAlloca reserves 4 (or 1) bytes of frame-local storage, 4-byte
// aligned, and records where the vreg's value lives relative to s0.
func (g *CodeGen) genAlloca(inst *ir.Instruction) {
	vreg := inst.DefReg()
	size := 4
	if inst.Type == "i1" {
		size = 1
	}
	g.stackOffset += size
	if g.stackOffset%4 != 0 {
		g.stackOffset += 4 - g.stackOffset%4
	}
	g.allocaOffsets[vreg] = g.stackOffset
}

func (g *CodeGen) genStore(inst *ir.Instruction) {
	valReg := g.resolveUse(inst.Ops[0])
	ptrVreg := inst.Ops[1].RegID()
	offset := g.getAllocaOffset(ptrVreg)

	if inst.Type == "i1" {
		g.emit("sb " + valReg + ", -" + itoa(offset) + "(s0)")
	} else {
		g.emit("sw " + valReg + ", -" + itoa(offset) + "(s0)")
	}
}

func (g *CodeGen) genLoad(inst *ir.Instruction) {
	defReg := g.resolveDef(inst.Def)
	ptrVreg := inst.Ops[0].RegID()
	offset := g.getAllocaOffset(ptrVreg)

	if inst.Type == "i1" {
		g.emit("lb " + defReg + ", -" + itoa(offset) + "(s0)")
	} else {
		g.emit("lw " + defReg + ", -" + itoa(offset) + "(s0)")
	}

	g.spillDefIfNeeded(inst)
}

func inAddiRange(v int32) bool { return v >= -2048 && v <= 2047 }

// genBinOp lowers arithmetic instructions, folding add/sub against an
// in-range immediate into a single addi rather than materializing the
// immediate with li first.
func (g *CodeGen) genBinOp(inst *ir.Instruction) {
	defReg := g.resolveDef(inst.Def)

	if inst.Opcode == ir.Add && inst.Ops[1].IsImm() && inAddiRange(inst.Ops[1].ImmValue()) {
		lhsReg := g.resolveUse(inst.Ops[0])
		g.emit("addi " + defReg + ", " + lhsReg + ", " + itoa(int(inst.Ops[1].ImmValue())))
		g.spillDefIfNeeded(inst)
		return
	}
	if inst.Opcode == ir.Add && inst.Ops[0].IsImm() && inAddiRange(inst.Ops[0].ImmValue()) {
		rhsReg := g.resolveUse(inst.Ops[1])
		g.emit("addi " + defReg + ", " + rhsReg + ", " + itoa(int(inst.Ops[0].ImmValue())))
		g.spillDefIfNeeded(inst)
		return
	}
	if inst.Opcode == ir.Sub && inst.Ops[1].IsImm() && inAddiRange(-inst.Ops[1].ImmValue()) {
		lhsReg := g.resolveUse(inst.Ops[0])
		g.emit("addi " + defReg + ", " + lhsReg + ", " + itoa(int(-inst.Ops[1].ImmValue())))
		g.spillDefIfNeeded(inst)
		return
	}

	lhsReg := g.resolveUse(inst.Ops[0])
	rhsReg := g.resolveUse(inst.Ops[1])

	var op string
	switch inst.Opcode {
	case ir.Add:
		op = "add"
	case ir.Sub:
		op = "sub"
	case ir.Mul:
		op = "mul"
	case ir.SDiv:
		op = "div"
	case ir.SRem:
		op = "rem"
	default:
		return
	}

	g.emit(op + " " + defReg + ", " + lhsReg + ", " + rhsReg)
	g.spillDefIfNeeded(inst)
}

// genICmp emits a self-contained boolean materialization for the compare
// (for when its result is used as a value) and caches the predicate plus
// resolved operand registers in cmpMap so a directly-following CondBr can
// fuse into one branch instruction instead of testing the materialized
// bool.
func (g *CodeGen) genICmp(inst *ir.Instruction) {
	lhsReg := g.resolveUse(inst.Ops[0])
	rhsReg := g.resolveUse(inst.Ops[1])
	defReg := g.resolveDef(inst.Def)

	g.cmpMap[inst.DefReg()] = cmpInfo{pred: inst.CmpPred, lhsReg: lhsReg, rhsReg: rhsReg}

	switch inst.CmpPred {
	case ir.EQ:
		g.emit("sub " + defReg + ", " + lhsReg + ", " + rhsReg)
		g.emit("seqz " + defReg + ", " + defReg)
	case ir.NE:
		g.emit("sub " + defReg + ", " + lhsReg + ", " + rhsReg)
		g.emit("snez " + defReg + ", " + defReg)
	case ir.SLT:
		g.emit("slt " + defReg + ", " + lhsReg + ", " + rhsReg)
	case ir.SGT:
		g.emit("slt " + defReg + ", " + rhsReg + ", " + lhsReg)
	case ir.SLE:
		g.emit("slt " + defReg + ", " + rhsReg + ", " + lhsReg)
		g.emit("xori " + defReg + ", " + defReg + ", 1")
	case ir.SGE:
		g.emit("slt " + defReg + ", " + lhsReg + ", " + rhsReg)
		g.emit("xori " + defReg + ", " + defReg + ", 1")
	}
	g.spillDefIfNeeded(inst)
}

var branchOpForPred = map[ir.CmpPred]string{
	ir.EQ:  "beq",
	ir.NE:  "bne",
	ir.SLT: "blt",
	ir.SGT: "bgt",
	ir.SLE: "ble",
	ir.SGE: "bge",
}

// genCondBr fuses with a cached genICmp result when the condition vreg was
// defined by the immediately-recognized compare, else falls back to
// materializing the boolean and testing it with bnez.
func (g *CodeGen) genCondBr(inst *ir.Instruction) {
	trueLabel := "." + g.currentFunction + "_" + inst.Ops[1].LabelName()
	falseLabel := "." + g.currentFunction + "_" + inst.Ops[2].LabelName()

	condVreg := -1
	if inst.Ops[0].IsVReg() {
		condVreg = inst.Ops[0].RegID()
	}

	if cmp, ok := g.cmpMap[condVreg]; ok {
		g.emit(branchOpForPred[cmp.pred] + " " + cmp.lhsReg + ", " + cmp.rhsReg + ", " + trueLabel)
		g.emit("j " + falseLabel)
		delete(g.cmpMap, condVreg)
	} else {
		condReg := g.resolveUse(inst.Ops[0])
		g.emit("bnez " + condReg + ", " + trueLabel)
		g.emit("j " + falseLabel)
	}
}

func (g *CodeGen) genBr(inst *ir.Instruction) {
	target := "." + g.currentFunction + "_" + inst.Ops[0].LabelName()
	g.emit("j " + target)
}

// genRet moves the return value into a0 if it isn't already there, emits
// the epilogue placeholder (backfilled per-function once the frame size is
// known — every ret in the function gets its own copy), and emits ret.
func (g *CodeGen) genRet(inst *ir.Instruction) {
	if inst.Opcode == ir.Ret && len(inst.Ops) > 0 {
		valReg := g.resolveUse(inst.Ops[0])
		if valReg != "a0" {
			g.emit("mv a0, " + valReg)
		}
	}

	epiloguePlaceholder := "__EPILOGUE_PLACEHOLDER_" + g.currentFunction + "__"
	g.output += epiloguePlaceholder + "\n"
	g.emit("ret")
}
