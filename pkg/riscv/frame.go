package riscv

import (
	"strings"

	"github.com/kmanley/toyc/pkg/ir"
)

// calculateStackFrame sizes the whole frame — locals, ra/s0, callee-saved
// registers, register-allocation spill slots, and the caller-saved /
// outgoing-argument areas — and rounds up to a 16-byte boundary.
func (g *CodeGen) calculateStackFrame(fn *ir.Function) {
	alloc := g.allocResult()

	allocaSize := g.stackOffset
	frameOverhead := 8 + len(alloc.CalleeSavedRegs)*4

	spillSize := 0
	for _, slot := range alloc.VRegToStack {
		if slot < 0 {
			if abs := -slot; abs > spillSize {
				spillSize = abs
			}
		}
	}

	g.totalStack = allocaSize + frameOverhead + spillSize + g.callSaveSize + g.callArgArea
	g.totalStack = (g.totalStack + 15) &^ 15
}

// updateStackFramePlaceholders backfills the prologue/epilogue placeholder
// tokens emitted during instruction generation with the real save/restore
// sequence, now that the frame size is known. There is exactly one
// prologue placeholder per function but potentially many epilogue
// placeholders (one per ret), so the epilogue replacement loops.
func (g *CodeGen) updateStackFramePlaceholders() {
	alloc := g.allocResult()

	var prologue strings.Builder
	prologue.WriteString("    addi sp, sp, -" + itoa(g.totalStack) + "\n")
	prologue.WriteString("    sw ra, " + itoa(g.totalStack-4) + "(sp)\n")
	prologue.WriteString("    sw s0, " + itoa(g.totalStack-8) + "(sp)\n")
	prologue.WriteString("    addi s0, sp, " + itoa(g.totalStack) + "\n")

	offset := g.totalStack - 12
	for _, reg := range alloc.CalleeSavedRegs {
		prologue.WriteString("    sw " + g.regInfo.Name(reg) + ", " + itoa(offset) + "(sp)\n")
		offset -= 4
	}

	prologuePlaceholder := "__PROLOGUE_PLACEHOLDER_" + g.currentFunction + "__"
	g.output = replaceOnceWithNewline(g.output, prologuePlaceholder, prologue.String())

	var epilogue strings.Builder
	offset = g.totalStack - 12
	for _, reg := range alloc.CalleeSavedRegs {
		epilogue.WriteString("    lw " + g.regInfo.Name(reg) + ", " + itoa(offset) + "(sp)\n")
		offset -= 4
	}
	epilogue.WriteString("    lw ra, " + itoa(g.totalStack-4) + "(sp)\n")
	epilogue.WriteString("    lw s0, " + itoa(g.totalStack-8) + "(sp)\n")
	epilogue.WriteString("    addi sp, sp, " + itoa(g.totalStack) + "\n")

	epiloguePlaceholder := "__EPILOGUE_PLACEHOLDER_" + g.currentFunction + "__"
	for strings.Contains(g.output, epiloguePlaceholder) {
		g.output = replaceOnceWithNewline(g.output, epiloguePlaceholder, epilogue.String())
	}
}

// replaceOnceWithNewline replaces the first occurrence of token plus its
// trailing newline with replacement (which already ends in its own
// newlines).
func replaceOnceWithNewline(s, token, replacement string) string {
	idx := strings.Index(s, token)
	if idx == -1 {
		return s
	}
	return s[:idx] + replacement + s[idx+len(token)+1:]
}
