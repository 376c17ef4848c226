// Package parser implements a recursive-descent parser for ToyC.
package parser

import (
	"fmt"
	"strconv"

	"github.com/kmanley/toyc/pkg/ast"
	"github.com/kmanley/toyc/pkg/lexer"
)

// Parser parses ToyC source tokens into an ast.Program.
type Parser struct {
	l *lexer.Lexer

	curToken  lexer.Token
	peekToken lexer.Token

	errors []string
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the accumulated parse errors, in source order.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) addError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s", p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expect consumes curToken if it matches t, else records an error and leaves
// curToken untouched so callers can attempt to recover.
func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curIs(t) {
		p.nextToken()
		return true
	}
	p.addError("expected %s, got %s", t, p.curToken.Type)
	return false
}

// ParseProgram parses a whole compilation unit: CompUnit -> FuncDecl+.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.curIs(lexer.TokenInt_) || p.curIs(lexer.TokenVoid) {
		fn := p.parseFuncDecl()
		if fn != nil {
			prog.Funcs = append(prog.Funcs, fn)
		}
	}
	if !p.curIs(lexer.TokenEOF) {
		p.addError("unexpected token %s at top level", p.curToken.Type)
	}
	return prog
}

// parseFuncDecl parses FuncDecl -> ("int"|"void") ID "(" Params? ")" Block.
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	retType := p.curToken.Literal
	p.nextToken()

	if !p.curIs(lexer.TokenIdent) {
		p.addError("expected function name, got %s", p.curToken.Type)
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	params := p.parseParams()
	if !p.expect(lexer.TokenRParen) {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.FuncDecl{ReturnType: retType, Name: name, Params: params, Body: body}
}

// parseParams parses Params -> "int" ID ("," "int" ID)*.
func (p *Parser) parseParams() []ast.Param {
	var params []ast.Param
	if !p.curIs(lexer.TokenInt_) {
		return params
	}
	for {
		p.nextToken() // consume 'int'
		if !p.curIs(lexer.TokenIdent) {
			p.addError("expected parameter name after 'int', got %s", p.curToken.Type)
			return params
		}
		params = append(params, ast.Param{Name: p.curToken.Literal})
		p.nextToken()
		if !p.curIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	return params
}

// parseBlock parses Block -> "{" Stmt* "}". Declarations are flattened
// directly into the block rather than wrapped, so a comma-separated
// declaration list doesn't introduce an extra nested scope.
func (p *Parser) parseBlock() *ast.Block {
	if !p.expect(lexer.TokenLBrace) {
		return nil
	}
	block := &ast.Block{}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenInt_) {
			block.Stmts = append(block.Stmts, p.parseDeclList()...)
			continue
		}
		stmt := p.parseStmt()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	p.expect(lexer.TokenRBrace)
	return block
}

// parseDeclList parses "int" ID "=" Expr ("," ID "=" Expr)* ";" and returns
// one ast.VarDecl per name.
func (p *Parser) parseDeclList() []ast.Stmt {
	p.nextToken() // consume 'int'
	var decls []ast.Stmt
	for {
		if !p.curIs(lexer.TokenIdent) {
			p.addError("expected identifier after 'int', got %s", p.curToken.Type)
			return decls
		}
		name := p.curToken.Literal
		p.nextToken()
		if !p.expect(lexer.TokenAssign) {
			return decls
		}
		init := p.parseExpr()
		decls = append(decls, ast.VarDecl{Name: name, Init: init})
		if !p.curIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	p.expect(lexer.TokenSemicolon)
	return decls
}

// parseStmt parses a single statement.
func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.curIs(lexer.TokenLBrace):
		return p.parseBlock()

	case p.curIs(lexer.TokenSemicolon):
		p.nextToken()
		return nil

	case p.curIs(lexer.TokenIf):
		return p.parseIf()

	case p.curIs(lexer.TokenWhile):
		return p.parseWhile()

	case p.curIs(lexer.TokenReturn):
		return p.parseReturn()

	case p.curIs(lexer.TokenBreak):
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return ast.Break{}

	case p.curIs(lexer.TokenContinue):
		p.nextToken()
		p.expect(lexer.TokenSemicolon)
		return ast.Continue{}

	case p.curIs(lexer.TokenInt_):
		decls := p.parseDeclList()
		if len(decls) == 1 {
			return decls[0]
		}
		return &ast.Block{Stmts: decls}

	case p.curIs(lexer.TokenIdent) && p.peekIs(lexer.TokenAssign):
		name := p.curToken.Literal
		p.nextToken() // consume ident
		p.nextToken() // consume '='
		val := p.parseExpr()
		p.expect(lexer.TokenSemicolon)
		return ast.Assign{Name: name, Value: val}

	default:
		expr := p.parseExpr()
		p.expect(lexer.TokenSemicolon)
		return ast.ExprStmt{Expr: expr}
	}
}

func (p *Parser) parseIf() ast.Stmt {
	p.nextToken() // consume 'if'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpr()
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	then := p.parseStmt()
	var els ast.Stmt
	if p.curIs(lexer.TokenElse) {
		p.nextToken()
		els = p.parseStmt()
	}
	return ast.If{Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() ast.Stmt {
	p.nextToken() // consume 'while'
	if !p.expect(lexer.TokenLParen) {
		return nil
	}
	cond := p.parseExpr()
	if !p.expect(lexer.TokenRParen) {
		return nil
	}
	body := p.parseStmt()
	return ast.While{Cond: cond, Body: body}
}

func (p *Parser) parseReturn() ast.Stmt {
	p.nextToken() // consume 'return'
	var expr ast.Expr
	if !p.curIs(lexer.TokenSemicolon) {
		expr = p.parseExpr()
	}
	p.expect(lexer.TokenSemicolon)
	return ast.Return{Expr: expr}
}

// parseExpr parses LOrExpr, the entry point for all expression grammar.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseLOr()
}

func (p *Parser) parseLOr() ast.Expr {
	left := p.parseLAnd()
	for p.curIs(lexer.TokenOr) {
		p.nextToken()
		right := p.parseLAnd()
		left = ast.Binary{Op: ast.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLAnd() ast.Expr {
	left := p.parseRel()
	for p.curIs(lexer.TokenAnd) {
		p.nextToken()
		right := p.parseRel()
		left = ast.Binary{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left
}

var relOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenLt: ast.OpLt,
	lexer.TokenLe: ast.OpLe,
	lexer.TokenGt: ast.OpGt,
	lexer.TokenGe: ast.OpGe,
	lexer.TokenEq: ast.OpEq,
	lexer.TokenNe: ast.OpNe,
}

func (p *Parser) parseRel() ast.Expr {
	left := p.parseAdd()
	for {
		op, ok := relOps[p.curToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		right := p.parseAdd()
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdd() ast.Expr {
	left := p.parseMul()
	for p.curIs(lexer.TokenPlus) || p.curIs(lexer.TokenMinus) {
		op := ast.OpAdd
		if p.curIs(lexer.TokenMinus) {
			op = ast.OpSub
		}
		p.nextToken()
		right := p.parseMul()
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
	return left
}

var mulOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenStar:    ast.OpMul,
	lexer.TokenSlash:   ast.OpDiv,
	lexer.TokenPercent: ast.OpMod,
}

func (p *Parser) parseMul() ast.Expr {
	left := p.parseUnary()
	for {
		op, ok := mulOps[p.curToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		right := p.parseUnary()
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

// parseUnary parses UnaryExpr -> PrimaryExpr | ("+"|"-"|"!") UnaryExpr,
// recursing so chained unary operators like "!!x" or "--x" parse correctly.
func (p *Parser) parseUnary() ast.Expr {
	var op ast.UnaryOp
	switch {
	case p.curIs(lexer.TokenPlus):
		op = ast.OpPos
	case p.curIs(lexer.TokenMinus):
		op = ast.OpNeg
	case p.curIs(lexer.TokenNot):
		op = ast.OpNot
	default:
		return p.parsePrimary()
	}
	p.nextToken()
	return ast.Unary{Op: op, Expr: p.parseUnary()}
}

// parsePrimary parses PrimaryExpr -> ID | ID "(" Args ")" | NUMBER | "(" Expr ")".
func (p *Parser) parsePrimary() ast.Expr {
	switch {
	case p.curIs(lexer.TokenIdent):
		name := p.curToken.Literal
		p.nextToken()
		if p.curIs(lexer.TokenLParen) {
			return p.parseCallArgs(name)
		}
		return ast.Ident{Name: name}

	case p.curIs(lexer.TokenInt):
		lit := p.curToken.Literal
		p.nextToken()
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			p.addError("invalid integer literal %q", lit)
		}
		return ast.IntLit{Value: int32(v)}

	case p.curIs(lexer.TokenLParen):
		p.nextToken()
		e := p.parseExpr()
		p.expect(lexer.TokenRParen)
		return e

	default:
		p.addError("unexpected token in expression: %s", p.curToken.Type)
		p.nextToken()
		return ast.IntLit{}
	}
}

func (p *Parser) parseCallArgs(callee string) ast.Expr {
	p.nextToken() // consume '('
	call := ast.Call{Callee: callee}
	if !p.curIs(lexer.TokenRParen) {
		for {
			call.Args = append(call.Args, p.parseExpr())
			if !p.curIs(lexer.TokenComma) {
				break
			}
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen)
	return call
}
