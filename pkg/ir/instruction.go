package ir

import "strconv"

// Instruction is one IR instruction: an opcode, its static type, an
// optional def, its ordered operands, and the fields only a handful of
// opcodes use (cmpPred, callee, nsw, align). Index and BlockID are filled
// in later by the allocator's linear position pass; they are meaningless
// until then.
type Instruction struct {
	Opcode  Opcode
	Type    string // "i32", "i1", or "void"
	Def     Operand
	Ops     []Operand
	CmpPred CmpPred // ICmp only
	Callee  string  // Call only
	NSW     bool
	Align   int

	Index   int // linear position, assigned by the allocator
	BlockID int // owning block id, assigned alongside Index
}

// -------- factories --------

func MakeAlloca(def Operand, typ string, align int) *Instruction {
	return &Instruction{Opcode: Alloca, Def: def, Type: typ, Align: align}
}

func MakeLoad(def Operand, typ string, ptr Operand, align int) *Instruction {
	return &Instruction{Opcode: Load, Def: def, Type: typ, Ops: []Operand{ptr}, Align: align}
}

func MakeStore(typ string, value, ptr Operand, align int) *Instruction {
	return &Instruction{Opcode: Store, Type: typ, Ops: []Operand{value, ptr}, Align: align}
}

func MakeBinOp(op Opcode, def Operand, typ string, lhs, rhs Operand) *Instruction {
	return &Instruction{Opcode: op, Def: def, Type: typ, Ops: []Operand{lhs, rhs}, NSW: true}
}

func MakeICmp(pred CmpPred, def Operand, typ string, lhs, rhs Operand) *Instruction {
	return &Instruction{Opcode: ICmp, Def: def, Type: typ, Ops: []Operand{lhs, rhs}, CmpPred: pred}
}

func MakeBr(target Operand) *Instruction {
	return &Instruction{Opcode: Br, Ops: []Operand{target}}
}

func MakeCondBr(cond, trueTarget, falseTarget Operand) *Instruction {
	return &Instruction{Opcode: CondBr, Ops: []Operand{cond, trueTarget, falseTarget}}
}

func MakeRet(typ string, value Operand) *Instruction {
	return &Instruction{Opcode: Ret, Type: typ, Ops: []Operand{value}}
}

func MakeRetVoid() *Instruction {
	return &Instruction{Opcode: RetVoid, Type: "void"}
}

func MakeCall(def Operand, retType, callee string, args []Operand) *Instruction {
	return &Instruction{Opcode: Call, Def: def, Type: retType, Callee: callee, Ops: args}
}

// -------- queries (opcode-based, no string matching) --------

// DefReg returns the vreg id this instruction defines, or -1 if it defines
// nothing.
func (i *Instruction) DefReg() int {
	if i.Def.IsVReg() {
		return i.Def.RegID()
	}
	return -1
}

// UseRegs returns the vreg ids this instruction reads, in an order that
// depends on the opcode's operand layout.
func (i *Instruction) UseRegs() []int {
	var out []int
	switch i.Opcode {
	case Alloca:
		// no uses
	case Load:
		if len(i.Ops) > 0 && i.Ops[0].IsVReg() {
			out = append(out, i.Ops[0].RegID())
		}
	case Store, Add, Sub, Mul, SDiv, SRem, ICmp, Call:
		for _, op := range i.Ops {
			if op.IsVReg() {
				out = append(out, op.RegID())
			}
		}
	case CondBr:
		if len(i.Ops) > 0 && i.Ops[0].IsVReg() {
			out = append(out, i.Ops[0].RegID())
		}
	case Br:
		// no uses
	case Ret:
		if len(i.Ops) > 0 && i.Ops[0].IsVReg() {
			out = append(out, i.Ops[0].RegID())
		}
	case RetVoid:
		// no uses
	}
	return out
}

// IsTerminator reports whether this instruction ends a basic block.
func (i *Instruction) IsTerminator() bool {
	switch i.Opcode {
	case Br, CondBr, Ret, RetVoid:
		return true
	}
	return false
}

// IsCall reports whether this is a Call instruction.
func (i *Instruction) IsCall() bool { return i.Opcode == Call }

// BranchTargets returns the block-name targets of a Br or CondBr
// instruction (true branch first for CondBr), or nil for anything else.
func (i *Instruction) BranchTargets() []string {
	switch i.Opcode {
	case Br:
		if len(i.Ops) > 0 && i.Ops[0].IsLabel() {
			return []string{i.Ops[0].LabelName()}
		}
	case CondBr:
		var out []string
		if len(i.Ops) > 1 && i.Ops[1].IsLabel() {
			out = append(out, i.Ops[1].LabelName())
		}
		if len(i.Ops) > 2 && i.Ops[2].IsLabel() {
			out = append(out, i.Ops[2].LabelName())
		}
		return out
	}
	return nil
}

// BranchCondReg returns the condition vreg of a CondBr, or -1 if this
// instruction isn't a CondBr or its condition isn't a vreg.
func (i *Instruction) BranchCondReg() int {
	if i.Opcode == CondBr && len(i.Ops) > 0 && i.Ops[0].IsVReg() {
		return i.Ops[0].RegID()
	}
	return -1
}

// PosDef and PosUse implement the two-point position scheme used by the
// interval builder: a def happens at 2*Index, a use at 2*Index+1, so a def
// and a following use at the same instruction are not simultaneously live.
func (i *Instruction) PosDef() int { return i.Index * 2 }
func (i *Instruction) PosUse() int { return i.Index*2 + 1 }

// String serializes the instruction to LLVM-IR-compatible text, without
// leading indentation.
func (i *Instruction) String() string {
	switch i.Opcode {
	case Alloca:
		return i.Def.String() + " = alloca " + i.Type + ", align " + strconv.Itoa(i.Align)
	case Load:
		return i.Def.String() + " = load " + i.Type + ", ptr " + i.Ops[0].String() +
			", align " + strconv.Itoa(i.Align)
	case Store:
		return "store " + i.Type + " " + i.Ops[0].String() + ", ptr " + i.Ops[1].String() +
			", align " + strconv.Itoa(i.Align)
	case Add, Sub, Mul, SDiv, SRem:
		nsw := ""
		if i.NSW {
			nsw = " nsw"
		}
		return i.Def.String() + " = " + i.Opcode.String() + nsw + " " + i.Type + " " +
			i.Ops[0].String() + ", " + i.Ops[1].String()
	case ICmp:
		return i.Def.String() + " = icmp " + i.CmpPred.String() + " " + i.Type + " " +
			i.Ops[0].String() + ", " + i.Ops[1].String()
	case Br:
		return "br label " + i.Ops[0].String()
	case CondBr:
		return "br i1 " + i.Ops[0].String() + ", label " + i.Ops[1].String() +
			", label " + i.Ops[2].String()
	case Ret:
		return "ret " + i.Type + " " + i.Ops[0].String()
	case RetVoid:
		return "ret void"
	case Call:
		s := i.Def.String() + " = call " + i.Type + " @" + i.Callee + "("
		for j, op := range i.Ops {
			if j > 0 {
				s += ", "
			}
			s += "i32 noundef " + op.String()
		}
		return s + ")"
	}
	return ""
}
