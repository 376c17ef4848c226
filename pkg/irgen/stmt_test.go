package irgen

import (
	"strings"
	"testing"
)

func TestBuildIfElseCreatesThreeBlocks(t *testing.T) {
	prog := buildModule(t, `int f(int a) { if (a) { return 1; } else { return 2; } return 0; }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("f")

	var names []string
	for _, bb := range fn.Blocks {
		names = append(names, bb.Name)
	}
	want := []string{"entry", "then_0", "else_0", "endif_0"}
	if len(names) != len(want) {
		t.Fatalf("blocks = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("blocks[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBuildWhileLoopBackedge(t *testing.T) {
	prog := buildModule(t, `int f(int a) { while (a) { a = a - 1; } return a; }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("f")

	var names []string
	for _, bb := range fn.Blocks {
		names = append(names, bb.Name)
	}
	want := []string{"entry", "while_cond_0", "while_body_0", "while_end_0"}
	if len(names) != len(want) {
		t.Fatalf("blocks = %v, want %v", names, want)
	}

	body := fn.BlockMap["while_body_0"]
	last := body.Insts[len(body.Insts)-1]
	if last.BranchTargets()[0] != "while_cond_0" {
		t.Errorf("body should branch back to while_cond_0, got %v", last.BranchTargets())
	}
}

func TestBuildBreakContinueTargetInnermostLoop(t *testing.T) {
	prog := buildModule(t, `int f(int a) { while (a) { if (a) break; else continue; } return 0; }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("f")

	then := fn.BlockMap["then_1"]
	els := fn.BlockMap["else_1"]
	if then == nil || els == nil {
		t.Fatal("missing then/else blocks for the nested if")
	}
	if got := then.Insts[len(then.Insts)-1].BranchTargets()[0]; got != "while_end_0" {
		t.Errorf("break should target while_end_0, got %s", got)
	}
	if got := els.Insts[len(els.Insts)-1].BranchTargets()[0]; got != "while_cond_0" {
		t.Errorf("continue should target while_cond_0, got %s", got)
	}
}

func TestBuildBareBreakOutsideLoopIsNoOp(t *testing.T) {
	prog := buildModule(t, `int f() { break; return 0; }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("f")
	entry := fn.EntryBlock()
	for _, inst := range entry.Insts {
		if inst.Opcode.String() == "br" {
			t.Fatalf("break with no enclosing loop should not emit a branch, got %s", inst)
		}
	}
	last := entry.Insts[len(entry.Insts)-1]
	if !strings.Contains(last.String(), "ret i32 0") {
		t.Fatal("expected the explicit return to survive")
	}
}
