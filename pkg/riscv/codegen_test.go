package riscv

import (
	"strings"
	"testing"

	"github.com/kmanley/toyc/pkg/ir"
)

// buildAddModule builds a module with one function:
//
//	define i32 @add2(i32 %0, i32 %1) {
//	  %2 = add nsw i32 %0, %1
//	  ret i32 %2
//	}
func buildAddModule() *ir.Module {
	f := ir.NewFunction("add2", "i32", []ir.FuncParam{{Name: "0", Type: "i32"}, {Name: "1", Type: "i32"}})
	f.ParamVregs = []int{0, 1}
	f.MaxVregID = 2

	entry := ir.NewBasicBlock(0, "entry")
	entry.Append(ir.MakeBinOp(ir.Add, ir.VReg(2), "i32", ir.VReg(0), ir.VReg(1)))
	entry.Append(ir.MakeRet("i32", ir.VReg(2)))
	f.AddBlock(entry)

	m := ir.NewModule("t", "t.toyc")
	m.AddFunction(f)
	return m
}

func TestGenerateAddFunctionHasNoPlaceholders(t *testing.T) {
	g := New()
	out := g.Generate(buildAddModule())

	if strings.Contains(out, "PLACEHOLDER") {
		t.Errorf("output still contains a placeholder token:\n%s", out)
	}
	if !strings.Contains(out, ".globl add2") {
		t.Error("missing .globl add2")
	}
	if !strings.Contains(out, "add2:") {
		t.Error("missing add2: label")
	}
	if !strings.Contains(out, "add a0, a0, a1") && !strings.Contains(out, "add ") {
		t.Errorf("expected an add instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "ret") {
		t.Error("missing ret")
	}
}

func TestGenerateAddiPeephole(t *testing.T) {
	f := ir.NewFunction("inc", "i32", []ir.FuncParam{{Name: "0", Type: "i32"}})
	f.ParamVregs = []int{0}
	f.MaxVregID = 1
	entry := ir.NewBasicBlock(0, "entry")
	entry.Append(ir.MakeBinOp(ir.Add, ir.VReg(1), "i32", ir.VReg(0), ir.Imm(1)))
	entry.Append(ir.MakeRet("i32", ir.VReg(1)))
	f.AddBlock(entry)
	m := ir.NewModule("t", "t.toyc")
	m.AddFunction(f)

	out := New().Generate(m)
	if !strings.Contains(out, "addi") {
		t.Errorf("expected addi peephole for add-by-immediate, got:\n%s", out)
	}
	if strings.Contains(out, "\n    add a") {
		t.Errorf("should not emit a generic add when addi applies:\n%s", out)
	}
}

func TestGenerateCondBrFusesWithICmp(t *testing.T) {
	f := ir.NewFunction("cmp", "i32", []ir.FuncParam{{Name: "0", Type: "i32"}, {Name: "1", Type: "i32"}})
	f.ParamVregs = []int{0, 1}
	f.MaxVregID = 2

	entry := ir.NewBasicBlock(0, "entry")
	entry.Append(ir.MakeICmp(ir.SLT, ir.VReg(2), "i32", ir.VReg(0), ir.VReg(1)))
	entry.Append(ir.MakeCondBr(ir.VReg(2), ir.LabelOp("then"), ir.LabelOp("else")))
	f.AddBlock(entry)

	then := ir.NewBasicBlock(1, "then")
	then.Append(ir.MakeRet("i32", ir.VReg(0)))
	f.AddBlock(then)

	els := ir.NewBasicBlock(2, "else")
	els.Append(ir.MakeRet("i32", ir.VReg(1)))
	f.AddBlock(els)

	m := ir.NewModule("t", "t.toyc")
	m.AddFunction(f)
	out := New().Generate(m)

	if !strings.Contains(out, "blt ") {
		t.Errorf("expected a fused blt branch, got:\n%s", out)
	}
	if strings.Contains(out, "bnez") {
		t.Errorf("fused branch should not fall back to bnez:\n%s", out)
	}
}

func TestGenerateCallSavesCallerSavedAcrossCall(t *testing.T) {
	f := ir.NewFunction("wrapper", "i32", []ir.FuncParam{{Name: "0", Type: "i32"}})
	f.ParamVregs = []int{0}
	f.MaxVregID = 1
	entry := ir.NewBasicBlock(0, "entry")
	entry.Append(ir.MakeCall(ir.VReg(1), "i32", "helper", []ir.Operand{ir.VReg(0)}))
	entry.Append(ir.MakeRet("i32", ir.VReg(1)))
	f.AddBlock(entry)

	m := ir.NewModule("t", "t.toyc")
	m.AddFunction(f)
	out := New().Generate(m)

	if !strings.Contains(out, "call helper") {
		t.Errorf("missing call helper, got:\n%s", out)
	}
	// The parameter lives in a0 (caller-saved): it must be stored before
	// the call and reloaded after it.
	callIdx := strings.Index(out, "call helper")
	if saveIdx := strings.Index(out, "sw a0, 0(sp)"); saveIdx < 0 || saveIdx > callIdx {
		t.Errorf("expected a0 saved before the call, got:\n%s", out)
	}
	if restoreIdx := strings.LastIndex(out, "lw a0, 0(sp)"); restoreIdx < callIdx {
		t.Errorf("expected a0 restored after the call, got:\n%s", out)
	}
}

func TestGenerateStackFrameIsSixteenByteAligned(t *testing.T) {
	g := New()
	out := g.Generate(buildAddModule())
	// Find the "addi sp, sp, -N" prologue line and check N % 16 == 0.
	idx := strings.Index(out, "addi sp, sp, -")
	if idx == -1 {
		t.Fatal("no stack allocation found")
	}
	rest := out[idx+len("addi sp, sp, -"):]
	end := strings.IndexByte(rest, '\n')
	nStr := rest[:end]
	var n int
	for _, c := range nStr {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	if n%16 != 0 {
		t.Errorf("stack frame size %d is not 16-byte aligned", n)
	}
}
