package ir

import "testing"

func TestInstructionString(t *testing.T) {
	tests := []struct {
		name string
		inst *Instruction
		want string
	}{
		{
			"alloca",
			MakeAlloca(VReg(0), "i32", 4),
			"%0 = alloca i32, align 4",
		},
		{
			"load",
			MakeLoad(VReg(1), "i32", VReg(0), 4),
			"%1 = load i32, ptr %0, align 4",
		},
		{
			"store",
			MakeStore("i32", Imm(7), VReg(0), 4),
			"store i32 7, ptr %0, align 4",
		},
		{
			"add-nsw",
			MakeBinOp(Add, VReg(2), "i32", VReg(0), VReg(1)),
			"%2 = add nsw i32 %0, %1",
		},
		{
			"icmp",
			MakeICmp(SLT, VReg(2), "i32", VReg(0), VReg(1)),
			"%2 = icmp slt i32 %0, %1",
		},
		{
			"br",
			MakeBr(LabelOp("exit")),
			"br label %exit",
		},
		{
			"condbr",
			MakeCondBr(VReg(0), LabelOp("then"), LabelOp("else")),
			"br i1 %0, label %then, label %else",
		},
		{
			"ret",
			MakeRet("i32", VReg(0)),
			"ret i32 %0",
		},
		{
			"ret-void",
			MakeRetVoid(),
			"ret void",
		},
		{
			"call",
			MakeCall(VReg(3), "i32", "f", []Operand{VReg(0), Imm(2)}),
			"%3 = call i32 @f(i32 noundef %0, i32 noundef 2)",
		},
	}
	for _, tc := range tests {
		if got := tc.inst.String(); got != tc.want {
			t.Errorf("%s: String() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestInstructionUseRegsAndDefReg(t *testing.T) {
	add := MakeBinOp(Add, VReg(2), "i32", VReg(0), VReg(1))
	if add.DefReg() != 2 {
		t.Errorf("DefReg() = %d, want 2", add.DefReg())
	}
	if got := add.UseRegs(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("UseRegs() = %v, want [0 1]", got)
	}

	store := MakeStore("i32", VReg(4), VReg(0), 4)
	if store.DefReg() != -1 {
		t.Errorf("Store DefReg() = %d, want -1", store.DefReg())
	}
	if got := store.UseRegs(); len(got) != 2 || got[0] != 4 || got[1] != 0 {
		t.Errorf("Store UseRegs() = %v, want [4 0]", got)
	}

	alloca := MakeAlloca(VReg(0), "i32", 4)
	if got := alloca.UseRegs(); len(got) != 0 {
		t.Errorf("Alloca UseRegs() = %v, want empty", got)
	}
}

func TestInstructionIsTerminatorAndIsCall(t *testing.T) {
	for _, inst := range []*Instruction{MakeBr(LabelOp("x")), MakeCondBr(VReg(0), LabelOp("a"), LabelOp("b")), MakeRet("i32", VReg(0)), MakeRetVoid()} {
		if !inst.IsTerminator() {
			t.Errorf("%v should be a terminator", inst.Opcode)
		}
	}
	if MakeAlloca(VReg(0), "i32", 4).IsTerminator() {
		t.Error("Alloca should not be a terminator")
	}
	if !MakeCall(VReg(0), "i32", "f", nil).IsCall() {
		t.Error("Call should report IsCall true")
	}
}

func TestBranchTargetsAndCondReg(t *testing.T) {
	br := MakeBr(LabelOp("exit"))
	if got := br.BranchTargets(); len(got) != 1 || got[0] != "exit" {
		t.Errorf("Br BranchTargets() = %v, want [exit]", got)
	}

	cb := MakeCondBr(VReg(5), LabelOp("then"), LabelOp("else"))
	if got := cb.BranchTargets(); len(got) != 2 || got[0] != "then" || got[1] != "else" {
		t.Errorf("CondBr BranchTargets() = %v, want [then else]", got)
	}
	if cb.BranchCondReg() != 5 {
		t.Errorf("BranchCondReg() = %d, want 5", cb.BranchCondReg())
	}
}

func TestPosDefPosUse(t *testing.T) {
	inst := &Instruction{Index: 3}
	if inst.PosDef() != 6 {
		t.Errorf("PosDef() = %d, want 6", inst.PosDef())
	}
	if inst.PosUse() != 7 {
		t.Errorf("PosUse() = %d, want 7", inst.PosUse())
	}
}
