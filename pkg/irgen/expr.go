package irgen

import (
	"strconv"

	"github.com/kmanley/toyc/pkg/ast"
	"github.com/kmanley/toyc/pkg/ir"
)

// buildExpr lowers an expression, returning the operand holding its value.
func (b *Builder) buildExpr(expr ast.Expr) ir.Operand {
	switch e := expr.(type) {
	case ast.IntLit:
		return ir.Imm(e.Value)

	case ast.Ident:
		return b.buildIdent(e)

	case ast.Binary:
		return b.buildBinaryOp(e.Op, e.Left, e.Right)

	case ast.Unary:
		return b.buildUnaryOp(e.Op, e.Expr)

	case ast.Call:
		return b.buildCall(e)
	}
	return ir.Imm(0)
}

// buildIdent resolves a variable reference: a load from its slot (cached
// per basic block so repeated reads of the same name reuse one load), or,
// for a name that is purely digits and unbound to any local, a direct
// reference to the matching parameter vreg.
func (b *Builder) buildIdent(e ast.Ident) ir.Operand {
	varOp := b.findVariable(e.Name)
	if !varOp.IsNone() {
		if cached, ok := b.loadedValues[e.Name]; ok {
			return cached
		}
		temp := b.newVReg()
		b.emit(ir.MakeLoad(temp, "i32", varOp, 4))
		b.loadedValues[e.Name] = temp
		return temp
	}
	if isNumeric(e.Name) {
		n, _ := strconv.Atoi(e.Name)
		return ir.VReg(n)
	}
	return ir.Imm(0)
}

func (b *Builder) buildBinaryOp(op ast.BinaryOp, lhs, rhs ast.Expr) ir.Operand {
	switch op {
	case ast.OpAnd, ast.OpOr:
		return b.buildLogicalOp(op, lhs, rhs)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return b.buildComparison(op, lhs, rhs)
	}

	lhsOp := b.buildExpr(lhs)
	rhsOp := b.buildExpr(rhs)
	result := b.newVReg()

	var opc ir.Opcode
	switch op {
	case ast.OpAdd:
		opc = ir.Add
	case ast.OpSub:
		opc = ir.Sub
	case ast.OpMul:
		opc = ir.Mul
	case ast.OpDiv:
		opc = ir.SDiv
	default:
		opc = ir.SRem
	}

	b.emit(ir.MakeBinOp(opc, result, "i32", lhsOp, rhsOp))
	return result
}

// buildUnaryOp lowers "-" to a 0-minus-x subtraction (constant-folded when
// the operand is itself a literal), "!" to an eq-zero comparison, and "+"
// to a no-op.
func (b *Builder) buildUnaryOp(op ast.UnaryOp, e ast.Expr) ir.Operand {
	switch op {
	case ast.OpNeg:
		if lit, ok := e.(ast.IntLit); ok {
			return ir.Imm(-lit.Value)
		}
		inner := b.buildExpr(e)
		result := b.newVReg()
		b.emit(ir.MakeBinOp(ir.Sub, result, "i32", ir.Imm(0), inner))
		return result

	case ast.OpNot:
		inner := b.buildExpr(e)
		result := b.newVReg()
		b.emit(ir.MakeICmp(ir.EQ, result, "i32", inner, ir.Imm(0)))
		return result

	default: // OpPos
		return b.buildExpr(e)
	}
}

var comparisonPreds = map[ast.BinaryOp]ir.CmpPred{
	ast.OpEq: ir.EQ,
	ast.OpNe: ir.NE,
	ast.OpLt: ir.SLT,
	ast.OpGt: ir.SGT,
	ast.OpLe: ir.SLE,
	ast.OpGe: ir.SGE,
}

func (b *Builder) buildComparison(op ast.BinaryOp, lhs, rhs ast.Expr) ir.Operand {
	lhsOp := b.buildExpr(lhs)
	rhsOp := b.buildExpr(rhs)
	result := b.newVReg()
	b.emit(ir.MakeICmp(comparisonPreds[op], result, "i32", lhsOp, rhsOp))
	return result
}

// buildLogicalOp lowers short-circuit && and || through a stack-allocated
// i1 result variable written by whichever branch runs, then loaded back
// once control reaches the merge block.
func (b *Builder) buildLogicalOp(op ast.BinaryOp, lhs, rhs ast.Expr) ir.Operand {
	resultVar := b.newVReg()
	b.emit(ir.MakeAlloca(resultVar, "i1", 1))

	lhsOp := b.buildExpr(lhs)

	if op == ast.OpAnd {
		rhsName := b.newLabel("land_rhs")
		falseName := b.newLabel("land_false")
		endName := b.newLabel("land_end")
		b.labelCounter++

		b.emit(ir.MakeCondBr(lhsOp, ir.LabelOp(rhsName), ir.LabelOp(falseName)))

		falseBB := b.createBlock(falseName)
		b.setInsertBlock(falseBB)
		b.emit(ir.MakeStore("i1", ir.BoolLit(false), resultVar, 1))
		b.emit(ir.MakeBr(ir.LabelOp(endName)))

		rhsBB := b.createBlock(rhsName)
		b.setInsertBlock(rhsBB)
		rhsOp := b.buildExpr(rhs)
		b.emit(ir.MakeStore("i1", rhsOp, resultVar, 1))
		b.emit(ir.MakeBr(ir.LabelOp(endName)))

		endBB := b.createBlock(endName)
		b.setInsertBlock(endBB)
	} else {
		trueName := b.newLabel("lor_true")
		rhsName := b.newLabel("lor_rhs")
		endName := b.newLabel("lor_end")
		b.labelCounter++

		b.emit(ir.MakeCondBr(lhsOp, ir.LabelOp(trueName), ir.LabelOp(rhsName)))

		trueBB := b.createBlock(trueName)
		b.setInsertBlock(trueBB)
		b.emit(ir.MakeStore("i1", ir.BoolLit(true), resultVar, 1))
		b.emit(ir.MakeBr(ir.LabelOp(endName)))

		rhsBB := b.createBlock(rhsName)
		b.setInsertBlock(rhsBB)
		rhsOp := b.buildExpr(rhs)
		b.emit(ir.MakeStore("i1", rhsOp, resultVar, 1))
		b.emit(ir.MakeBr(ir.LabelOp(endName)))

		endBB := b.createBlock(endName)
		b.setInsertBlock(endBB)
	}

	result := b.newVReg()
	b.emit(ir.MakeLoad(result, "i1", resultVar, 1))
	return result
}

func (b *Builder) buildCall(c ast.Call) ir.Operand {
	args := make([]ir.Operand, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, b.buildExpr(a))
	}
	result := b.newVReg()
	b.emit(ir.MakeCall(result, "i32", c.Callee, args))
	return result
}
