// Package irgen lowers a ToyC ast.Program into an ir.Module: one vreg per
// scalar value, one alloca+store per local (including parameters), and
// generated basic blocks for control flow and short-circuit evaluation.
// It mirrors the original toyc::IRBuilder.
package irgen

import (
	"strconv"

	"github.com/kmanley/toyc/pkg/ast"
	"github.com/kmanley/toyc/pkg/ir"
)

// Builder holds the mutable state threaded through one module's worth of
// lowering. A single Builder is meant to be used for exactly one
// BuildModule call.
type Builder struct {
	module      *ir.Module
	currentFunc *ir.Function
	currentBB   *ir.BasicBlock

	vregCounter  int
	labelCounter int

	scopeStack   []map[string]ir.Operand
	loadedValues map[string]ir.Operand

	breakLabels    []string
	continueLabels []string

	hasReturn      bool
	isMainFunction bool
}

// New creates a Builder ready for BuildModule.
func New() *Builder {
	return &Builder{}
}

// BuildModule lowers every function in prog into a fresh ir.Module named
// name, recording sourceFile for the module's debug header.
func (b *Builder) BuildModule(prog *ast.Program, name, sourceFile string) *ir.Module {
	b.module = ir.NewModule(name, sourceFile)
	for _, fn := range prog.Funcs {
		b.buildFunction(fn)
	}
	return b.module
}

func (b *Builder) newVReg() ir.Operand {
	b.vregCounter++
	return ir.VReg(b.vregCounter)
}

// newLabel mints a unique block name. It does not itself advance
// labelCounter — callers that carve out several related labels for one
// construct (e.g. then/else/endif) bump it once after minting all of them,
// so the three share a common numeric suffix.
func (b *Builder) newLabel(base string) string {
	return base + "_" + strconv.Itoa(b.labelCounter)
}

func (b *Builder) createBlock(name string) *ir.BasicBlock {
	bb := ir.NewBasicBlock(len(b.currentFunc.Blocks), name)
	b.currentFunc.AddBlock(bb)
	return bb
}

func (b *Builder) setInsertBlock(bb *ir.BasicBlock) {
	b.currentBB = bb
	b.loadedValues = make(map[string]ir.Operand)
}

func (b *Builder) emit(inst *ir.Instruction) {
	b.currentBB.Append(inst)
}

func (b *Builder) enterScope() {
	b.scopeStack = append(b.scopeStack, make(map[string]ir.Operand))
}

func (b *Builder) exitScope() {
	if len(b.scopeStack) > 0 {
		b.scopeStack = b.scopeStack[:len(b.scopeStack)-1]
	}
}

func (b *Builder) addVariable(name string, slot ir.Operand) {
	if len(b.scopeStack) > 0 {
		b.scopeStack[len(b.scopeStack)-1][name] = slot
	}
}

// findVariable searches inner to outer scope, giving inner declarations
// precedence over shadowed outer ones.
func (b *Builder) findVariable(name string) ir.Operand {
	for i := len(b.scopeStack) - 1; i >= 0; i-- {
		if slot, ok := b.scopeStack[i][name]; ok {
			return slot
		}
	}
	return ir.NoneOperand()
}

// buildFunction lowers one function: reset per-function state, alloca the
// implicit main return slot and every parameter, lower the body, then
// backfill a default return if control can fall off the end.
func (b *Builder) buildFunction(fn *ast.FuncDecl) {
	b.labelCounter = 0
	b.vregCounter = len(fn.Params)
	b.scopeStack = nil
	b.enterScope()
	b.loadedValues = make(map[string]ir.Operand)
	b.breakLabels = nil
	b.continueLabels = nil
	b.hasReturn = false
	b.isMainFunction = fn.Name == "main"

	params := make([]ir.FuncParam, len(fn.Params))
	paramVregs := make([]int, len(fn.Params))
	for i := range fn.Params {
		params[i] = ir.FuncParam{Name: strconv.Itoa(i), Type: "i32"}
		paramVregs[i] = i
	}

	retType := "i32"
	if fn.ReturnType == "void" {
		retType = "void"
	}
	irFn := ir.NewFunction(fn.Name, retType, params)
	irFn.ParamVregs = paramVregs
	b.currentFunc = irFn

	entry := b.createBlock("entry")
	b.setInsertBlock(entry)

	// main's implicit return-value slot: written once with 0 at entry and
	// never read back. Kept because it consumes a vreg and a stack slot,
	// which the reference codegen's frame-size math accounts for too.
	if b.isMainFunction {
		retVar := b.newVReg()
		b.addVariable(fn.Name+"_ret", retVar)
		b.emit(ir.MakeAlloca(retVar, "i32", 4))
		b.emit(ir.MakeStore("i32", ir.Imm(0), retVar, 4))
	}

	for i, p := range fn.Params {
		slot := b.newVReg()
		b.emit(ir.MakeAlloca(slot, "i32", 4))
		b.emit(ir.MakeStore("i32", ir.VReg(i), slot, 4))
		b.addVariable(strconv.Itoa(i), slot)
		b.addVariable(p.Name, slot)
	}

	b.buildBlock(fn.Body)

	if b.currentBB.Terminator() == nil {
		if fn.ReturnType == "int" {
			b.emit(ir.MakeRet("i32", ir.Imm(0)))
		} else {
			b.emit(ir.MakeRetVoid())
		}
	}

	irFn.MaxVregID = b.vregCounter
	b.module.AddFunction(irFn)
}

// isNumeric reports whether s is a nonempty run of ASCII digits, used to
// recognize a parameter's positional name ("0", "1", ...) when it isn't
// shadowed by a local of the same textual name.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
