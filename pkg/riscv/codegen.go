// Package riscv lowers a typed ir.Module into RV32I ILP32 assembly text,
// using a linear-scan register allocation already computed per function.
package riscv

import (
	"strconv"

	"github.com/kmanley/toyc/pkg/ir"
	"github.com/kmanley/toyc/pkg/regalloc"
)

// cmpInfo remembers an ICmp's predicate and already-resolved operand
// registers so a directly following CondBr can fuse into a single branch
// instruction instead of materializing a boolean and testing it.
type cmpInfo struct {
	pred           ir.CmpPred
	lhsReg, rhsReg string
}

// CodeGen turns an ir.Module into RISC-V assembly text. One CodeGen
// generates one module; create a new one per module.
type CodeGen struct {
	regInfo        *regalloc.RegInfo
	funcAllocators map[string]*regalloc.LinearScanAllocator

	currentFunction string
	output          string

	allocaOffsets map[int]int
	stackOffset   int
	totalStack    int
	frameOverhead int
	callSaveSize  int
	callArgArea   int

	cmpMap map[int]cmpInfo

	lastDefRegName string
}

// New creates a code generator targeting the RV32I ILP32 register set.
func New() *CodeGen {
	return &CodeGen{
		regInfo:        regalloc.NewRegInfo(),
		funcAllocators: make(map[string]*regalloc.LinearScanAllocator),
	}
}

// Generate lowers every function in module to assembly text.
func (g *CodeGen) Generate(module *ir.Module) string {
	g.output = "    .text\n"

	g.precomputeAllocations(module)

	for _, fn := range module.Functions {
		g.generateFunction(fn)
	}

	return g.output
}

// precomputeAllocations runs linear-scan allocation for every function up
// front, so genCall's caller-saved-register bookkeeping for one function
// never depends on generation order.
func (g *CodeGen) precomputeAllocations(module *ir.Module) {
	g.funcAllocators = make(map[string]*regalloc.LinearScanAllocator)
	for _, fn := range module.Functions {
		allocator := regalloc.NewLinearScanAllocator(g.regInfo)
		allocator.Allocate(fn)
		g.funcAllocators[fn.Name] = allocator
	}
}

func (g *CodeGen) resetFunctionState() {
	g.allocaOffsets = make(map[int]int)
	g.cmpMap = make(map[int]cmpInfo)
	g.stackOffset = 0
	g.totalStack = 0
	g.frameOverhead = 0
	g.callSaveSize = 0
	g.callArgArea = 0
}

func (g *CodeGen) allocResult() *regalloc.AllocationResult {
	return g.funcAllocators[g.currentFunction].Result()
}

// generateFunction emits one function's .globl/label, a prologue
// placeholder token (backfilled once the frame size is known), every
// block's instructions, and the .size trailer.
func (g *CodeGen) generateFunction(fn *ir.Function) {
	g.resetFunctionState()
	g.currentFunction = fn.Name

	alloc := g.allocResult()
	g.frameOverhead = 8 + len(alloc.CalleeSavedRegs)*4

	csRegs := make(map[int]struct{})
	allocator := g.funcAllocators[g.currentFunction]
	for _, physReg := range alloc.VRegToPhys {
		if g.regInfo.IsCallerSaved(physReg) && !allocator.IsSpillTempReg(physReg) {
			csRegs[physReg] = struct{}{}
		}
	}
	g.callSaveSize = len(csRegs) * 4

	maxStackArgs := 0
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Insts {
			if inst.Opcode == ir.Call {
				if extra := len(inst.Ops) - 8; extra > maxStackArgs {
					maxStackArgs = extra
				}
			}
		}
	}
	g.callArgArea = maxStackArgs * 4

	g.output += "    .globl " + fn.Name + "\n"
	g.output += fn.Name + ":\n"

	prologuePlaceholder := "__PROLOGUE_PLACEHOLDER_" + fn.Name + "__"
	g.output += prologuePlaceholder + "\n"

	for bi, bb := range fn.Blocks {
		if bi > 0 {
			g.output += "." + fn.Name + "_" + bb.Name + ":\n"
		}
		for _, inst := range bb.Insts {
			g.generateInst(inst)
		}
	}

	g.calculateStackFrame(fn)
	g.updateStackFramePlaceholders()

	g.output += "    .size " + fn.Name + ", .-" + fn.Name + "\n\n"
}

func (g *CodeGen) emit(line string) {
	g.output += "    " + line + "\n"
}

func itoa(v int) string { return strconv.Itoa(v) }
