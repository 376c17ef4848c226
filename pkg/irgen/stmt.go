package irgen

import (
	"github.com/kmanley/toyc/pkg/ast"
	"github.com/kmanley/toyc/pkg/ir"
)

// buildBlock lowers a brace-delimited statement sequence in its own scope.
func (b *Builder) buildBlock(block *ast.Block) {
	b.enterScope()
	for _, stmt := range block.Stmts {
		b.buildStmt(stmt)
	}
	b.exitScope()
}

// buildStmt dispatches on the statement's dynamic type.
func (b *Builder) buildStmt(stmt ast.Stmt) {
	if stmt == nil {
		return
	}
	switch s := stmt.(type) {
	case ast.Assign:
		b.buildAssign(s)
	case ast.VarDecl:
		b.buildDecl(s)
	case ast.If:
		b.buildIf(s)
	case ast.While:
		b.buildWhile(s)
	case ast.Return:
		b.buildReturn(s)
	case ast.Break:
		b.buildBreak()
	case ast.Continue:
		b.buildContinue()
	case *ast.Block:
		b.buildBlock(s)
	case ast.ExprStmt:
		b.buildExpr(s.Expr)
	}
}

func (b *Builder) buildAssign(a ast.Assign) {
	value := b.buildExpr(a.Value)
	varOp := b.findVariable(a.Name)
	if !varOp.IsNone() {
		b.emit(ir.MakeStore("i32", value, varOp, 4))
		delete(b.loadedValues, a.Name)
	}
}

func (b *Builder) buildDecl(d ast.VarDecl) {
	val := b.buildExpr(d.Init)
	slot := b.newVReg()
	b.emit(ir.MakeAlloca(slot, "i32", 4))
	b.addVariable(d.Name, slot)
	b.emit(ir.MakeStore("i32", val, slot, 4))
	delete(b.loadedValues, d.Name)
}

// buildIf lowers an if/else into three generated blocks. Cached loads are
// dropped at every branch point since values loaded on one path aren't
// necessarily valid on another.
func (b *Builder) buildIf(s ast.If) {
	b.loadedValues = make(map[string]ir.Operand)
	cond := b.buildExpr(s.Cond)

	thenName := b.newLabel("then")
	elseName := b.newLabel("else")
	endName := b.newLabel("endif")
	b.labelCounter++

	b.emit(ir.MakeCondBr(cond, ir.LabelOp(thenName), ir.LabelOp(elseName)))

	thenBB := b.createBlock(thenName)
	b.setInsertBlock(thenBB)
	b.loadedValues = make(map[string]ir.Operand)
	b.buildStmt(s.Then)
	if b.currentBB.Terminator() == nil {
		b.emit(ir.MakeBr(ir.LabelOp(endName)))
	}

	elseBB := b.createBlock(elseName)
	b.setInsertBlock(elseBB)
	b.loadedValues = make(map[string]ir.Operand)
	b.buildStmt(s.Else)
	if b.currentBB.Terminator() == nil {
		b.emit(ir.MakeBr(ir.LabelOp(endName)))
	}

	endBB := b.createBlock(endName)
	b.setInsertBlock(endBB)
	b.loadedValues = make(map[string]ir.Operand)
}

// buildWhile lowers a pretest loop into cond/body/end blocks, pushing this
// loop's break/continue targets for the duration of its body.
func (b *Builder) buildWhile(s ast.While) {
	condName := b.newLabel("while_cond")
	bodyName := b.newLabel("while_body")
	endName := b.newLabel("while_end")
	b.labelCounter++

	b.breakLabels = append(b.breakLabels, endName)
	b.continueLabels = append(b.continueLabels, condName)

	b.emit(ir.MakeBr(ir.LabelOp(condName)))

	condBB := b.createBlock(condName)
	b.setInsertBlock(condBB)
	b.loadedValues = make(map[string]ir.Operand)
	cond := b.buildExpr(s.Cond)
	b.emit(ir.MakeCondBr(cond, ir.LabelOp(bodyName), ir.LabelOp(endName)))

	bodyBB := b.createBlock(bodyName)
	b.setInsertBlock(bodyBB)
	b.loadedValues = make(map[string]ir.Operand)
	b.buildStmt(s.Body)
	if b.currentBB.Terminator() == nil {
		b.emit(ir.MakeBr(ir.LabelOp(condName)))
	}

	endBB := b.createBlock(endName)
	b.setInsertBlock(endBB)

	b.breakLabels = b.breakLabels[:len(b.breakLabels)-1]
	b.continueLabels = b.continueLabels[:len(b.continueLabels)-1]
}

func (b *Builder) buildReturn(s ast.Return) {
	if s.Expr != nil {
		value := b.buildExpr(s.Expr)
		b.emit(ir.MakeRet("i32", value))
	} else {
		b.emit(ir.MakeRetVoid())
	}
	b.hasReturn = true
}

func (b *Builder) buildBreak() {
	if n := len(b.breakLabels); n > 0 {
		b.emit(ir.MakeBr(ir.LabelOp(b.breakLabels[n-1])))
	}
}

func (b *Builder) buildContinue() {
	if n := len(b.continueLabels); n > 0 {
		b.emit(ir.MakeBr(ir.LabelOp(b.continueLabels[n-1])))
	}
}
