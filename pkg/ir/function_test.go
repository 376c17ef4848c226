package ir

import "testing"

// buildIfDiamond builds:
//
//	entry: %0 = alloca i32, align 4; br i1 %0, label %then, label %join
//	then:  br label %join
//	join:  ret void
func buildIfDiamond() *Function {
	f := NewFunction("f", "void", nil)

	entry := NewBasicBlock(0, "entry")
	entry.Append(MakeAlloca(VReg(0), "i32", 4))
	entry.Append(MakeCondBr(VReg(0), LabelOp("then"), LabelOp("join")))
	f.AddBlock(entry)

	then := NewBasicBlock(1, "then")
	then.Append(MakeBr(LabelOp("join")))
	f.AddBlock(then)

	join := NewBasicBlock(2, "join")
	join.Append(MakeRetVoid())
	f.AddBlock(join)

	return f
}

func TestBuildCFGBranchTargets(t *testing.T) {
	f := buildIfDiamond()
	f.BuildCFG()

	entry := f.BlockMap["entry"]
	then := f.BlockMap["then"]
	join := f.BlockMap["join"]

	if len(entry.Succs) != 2 || entry.Succs[0] != then || entry.Succs[1] != join {
		t.Fatalf("entry.Succs = %v, want [then join]", entry.Succs)
	}
	if len(then.Succs) != 1 || then.Succs[0] != join {
		t.Fatalf("then.Succs = %v, want [join]", then.Succs)
	}
	if len(join.Preds) != 2 {
		t.Fatalf("join.Preds has %d entries, want 2", len(join.Preds))
	}
}

func TestBuildCFGFallthrough(t *testing.T) {
	f := NewFunction("g", "void", nil)
	a := NewBasicBlock(0, "a")
	a.Append(MakeAlloca(VReg(0), "i32", 4))
	f.AddBlock(a)
	b := NewBasicBlock(1, "b")
	b.Append(MakeRetVoid())
	f.AddBlock(b)

	f.BuildCFG()

	if len(a.Succs) != 1 || a.Succs[0] != b {
		t.Fatalf("a.Succs = %v, want [b] via fallthrough", a.Succs)
	}
	if len(b.Preds) != 1 || b.Preds[0] != a {
		t.Fatalf("b.Preds = %v, want [a]", b.Preds)
	}
}

func TestBasicBlockFirstLastPos(t *testing.T) {
	empty := NewBasicBlock(0, "empty")
	if empty.FirstPos() != -1 || empty.LastPos() != -1 {
		t.Errorf("empty block FirstPos/LastPos = %d/%d, want -1/-1", empty.FirstPos(), empty.LastPos())
	}

	b := NewBasicBlock(1, "b")
	i0 := MakeAlloca(VReg(0), "i32", 4)
	i0.Index = 0
	i1 := MakeRetVoid()
	i1.Index = 1
	b.Append(i0)
	b.Append(i1)
	if b.FirstPos() != 0 {
		t.Errorf("FirstPos() = %d, want 0", b.FirstPos())
	}
	if b.LastPos() != 3 {
		t.Errorf("LastPos() = %d, want 3", b.LastPos())
	}
}

func TestFunctionString(t *testing.T) {
	f := NewFunction("f", "void", []FuncParam{{Name: "0", Type: "i32"}})
	entry := NewBasicBlock(0, "entry")
	entry.Append(MakeRetVoid())
	f.AddBlock(entry)

	want := "define dso_local void @f(i32 noundef %0) #0 {\n  ret void\n}\n"
	if got := f.String(); got != want {
		t.Errorf("Function.String() = %q, want %q", got, want)
	}
}

func TestFunctionStringMultiBlock(t *testing.T) {
	f := buildIfDiamond()
	got := f.String()
	want := "define dso_local void @f() #0 {\n" +
		"  %0 = alloca i32, align 4\n" +
		"  br i1 %0, label %then, label %join\n" +
		"\nthen:\n" +
		"  br label %join\n" +
		"\njoin:\n" +
		"  ret void\n" +
		"}\n"
	if got != want {
		t.Errorf("Function.String() =\n%q\nwant\n%q", got, want)
	}
}

func TestModuleString(t *testing.T) {
	m := NewModule("test.toyc", "test.toyc")
	f := NewFunction("main", "i32", nil)
	entry := NewBasicBlock(0, "entry")
	entry.Append(MakeRet("i32", Imm(0)))
	f.AddBlock(entry)
	m.AddFunction(f)

	got := m.String()
	if got[:len("; ModuleID = 'test.toyc'\n")] != "; ModuleID = 'test.toyc'\n" {
		t.Errorf("Module.String() missing header, got %q", got)
	}
	if m.FindFunction("main") != f {
		t.Error("FindFunction(main) did not return the added function")
	}
	if m.FindFunction("missing") != nil {
		t.Error("FindFunction(missing) should return nil")
	}
}
