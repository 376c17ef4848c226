package irgen

import (
	"strings"
	"testing"

	"github.com/kmanley/toyc/pkg/ast"
	"github.com/kmanley/toyc/pkg/lexer"
	"github.com/kmanley/toyc/pkg/parser"
)

func buildModule(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("parser errors: %v", p.Errors())
	}
	return prog
}

func TestBuildFunctionParamsGetAllocaAndStore(t *testing.T) {
	prog := buildModule(t, `int add(int a, int b) { return a + b; }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("add")
	if fn == nil {
		t.Fatal("missing function add")
	}
	entry := fn.EntryBlock()
	if len(entry.Insts) < 4 {
		t.Fatalf("expected at least 4 insts (2 alloca + 2 store), got %d", len(entry.Insts))
	}
	if fn.MaxVregID <= len(fn.Params) {
		t.Errorf("MaxVregID (%d) should exceed param count (%d)", fn.MaxVregID, len(fn.Params))
	}
}

func TestBuildFunctionInsertsImplicitReturnZero(t *testing.T) {
	prog := buildModule(t, `int f() { }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("f")
	last := fn.Blocks[len(fn.Blocks)-1]
	term := last.Insts[len(last.Insts)-1]
	if term.String() != "ret i32 0" {
		t.Errorf("expected implicit `ret i32 0`, got %q", term.String())
	}
}

func TestBuildFunctionInsertsImplicitRetVoid(t *testing.T) {
	prog := buildModule(t, `void f() { }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("f")
	last := fn.Blocks[len(fn.Blocks)-1]
	term := last.Insts[len(last.Insts)-1]
	if term.String() != "ret void" {
		t.Errorf("expected implicit `ret void`, got %q", term.String())
	}
}

func TestBuildFunctionMainGetsRetSlot(t *testing.T) {
	prog := buildModule(t, `int main() { return 1; }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("main")
	entry := fn.EntryBlock()
	// main's implicit ret slot: alloca + store 0, before anything else.
	if entry.Insts[0].Opcode.String() != "alloca" {
		t.Fatalf("expected first inst to be alloca, got %s", entry.Insts[0])
	}
	if !strings.Contains(entry.Insts[1].String(), "store i32 0") {
		t.Fatalf("expected second inst to store 0, got %s", entry.Insts[1])
	}
}

func TestBuildDeclAndAssign(t *testing.T) {
	prog := buildModule(t, `int f() { int x = 1; x = x + 1; return x; }`)
	m := New().BuildModule(prog, "t", "t.toyc")
	fn := m.FindFunction("f")
	entry := fn.EntryBlock()
	var sawStore int
	for _, inst := range entry.Insts {
		if inst.Opcode.String() == "store" {
			sawStore++
		}
	}
	if sawStore != 2 {
		t.Errorf("expected 2 stores (decl init + assign), got %d", sawStore)
	}
}
