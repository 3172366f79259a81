package parser

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/config"
	"github.com/glintlang/glint/internal/token"
	"github.com/glintlang/glint/internal/typesystem"
)

// isSoftKeyword reports whether the current token is an identifier spelling
// one of config.SoftKeywords — a contextual keyword recognized only in decl
// or switch-case position, so it stays a plain token.Identifier everywhere
// else (e.g. usable as a variable name outside those positions).
func (p *Parser) isSoftKeyword(word string) bool {
	if !p.check(token.Identifier) || p.cur.Lexeme != word {
		return false
	}
	for _, w := range config.SoftKeywords {
		if w == word {
			return true
		}
	}
	return false
}

// typeAnnotation parses an optional `str | float | bool` type name; it
// returns nil, false if the current token is not a recognized type name.
func (p *Parser) typeAnnotation() (typesystem.Type, bool) {
	if p.check(token.Identifier) {
		if t, ok := typesystem.FromName(p.cur.Lexeme); ok {
			p.advance()
			return t, true
		}
	}
	return nil, false
}

// declaration := 'var' ... | 'fun' ... | 'enum' ... | statement
func (p *Parser) declaration() ast.Statement {
	switch {
	case p.check(token.Var):
		return p.varDeclaration()
	case p.check(token.Fun):
		return p.funDeclaration()
	case p.isSoftKeyword("enum"):
		return p.enumDeclaration()
	default:
		return p.statement()
	}
}

func (p *Parser) varDeclaration() ast.Statement {
	tok := p.advance() // 'var'
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.Equal); !ok {
		return nil
	}
	value := p.expression()
	p.expect(token.Semicolon)
	p.markBound(nameTok.Lexeme)
	return &ast.Declaration{StmtBase: ast.StmtBase{Tok: tok}, Name: nameTok.Lexeme, Value: value}
}

func (p *Parser) funDeclaration() ast.Statement {
	tok := p.advance() // 'fun'
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	p.markBound(nameTok.Lexeme)
	fn, argTypes, retType := p.functionRest(tok)
	return &ast.FuncDeclaration{StmtBase: ast.StmtBase{Tok: tok}, Name: nameTok.Lexeme, Fn: fn, ArgsTypes: argTypes, RetType: retType}
}

func (p *Parser) enumDeclaration() ast.Statement {
	tok := p.advance() // 'enum'
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.LeftBrace); !ok {
		return nil
	}
	var variants []ast.EnumVariantSpec
	for !p.check(token.RightBrace) && !p.check(token.Eof) {
		vTok, ok := p.expect(token.Identifier)
		if !ok {
			break
		}
		var payload typesystem.Type
		if p.match(token.Colon) {
			payload, _ = p.typeAnnotation()
		}
		variants = append(variants, ast.EnumVariantSpec{Name: vTok.Lexeme, Payload: payload, Tag: uint8(len(variants))})
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RightBrace)
	return &ast.EnumDeclaration{StmtBase: ast.StmtBase{Tok: tok}, Name: nameTok.Lexeme, Variants: variants}
}

// statement := 'print' expr ';' | 'return' expr? ';' | block
//            | 'if' '(' expr ')' stmt ('else' stmt)?
//            | 'while' '(' expr ')' stmt
//            | expr ';'
func (p *Parser) statement() ast.Statement {
	switch {
	case p.check(token.Print):
		return p.printStatement()
	case p.check(token.Return):
		return p.returnStatement()
	case p.check(token.LeftBrace):
		return p.block()
	case p.check(token.If):
		return p.ifStatement()
	case p.check(token.While):
		return p.whileStatement()
	case p.isSoftKeyword("switch"):
		return p.switchStatement()
	default:
		return p.exprStatement()
	}
}

func (p *Parser) printStatement() ast.Statement {
	tok := p.advance()
	value := p.expression()
	p.expect(token.Semicolon)
	return &ast.PrintStmt{StmtBase: ast.StmtBase{Tok: tok}, Value: value}
}

func (p *Parser) returnStatement() ast.Statement {
	tok := p.advance()
	var value ast.Expression
	if !p.check(token.Semicolon) {
		value = p.expression()
	}
	p.expect(token.Semicolon)
	return &ast.ReturnStmt{StmtBase: ast.StmtBase{Tok: tok}, Value: value}
}

func (p *Parser) block() *ast.Block {
	tok, _ := p.expect(token.LeftBrace)
	b := &ast.Block{StmtBase: ast.StmtBase{Tok: tok}}
	for !p.check(token.RightBrace) && !p.check(token.Eof) {
		stmt := p.declaration()
		if stmt != nil {
			b.Statements = append(b.Statements, stmt)
		}
		if len(p.errs) > 0 {
			return b
		}
	}
	p.expect(token.RightBrace)
	return b
}

func (p *Parser) ifStatement() ast.Statement {
	tok := p.advance()
	p.expect(token.LeftParen)
	cond := p.expression()
	p.expect(token.RightParen)
	then := p.statement()
	var elseStmt ast.Statement
	if p.match(token.Else) {
		elseStmt = p.statement()
	}
	return &ast.IfStmt{StmtBase: ast.StmtBase{Tok: tok}, Cond: cond, Then: then, Else: elseStmt}
}

func (p *Parser) whileStatement() ast.Statement {
	tok := p.advance()
	p.expect(token.LeftParen)
	cond := p.expression()
	p.expect(token.RightParen)
	body := p.statement()
	return &ast.WhileStmt{StmtBase: ast.StmtBase{Tok: tok}, Cond: cond, Body: body}
}

// switchStatement is a supplemented construct: `switch (expr) { case ident:
// stmts* ... default: stmts* }`.
func (p *Parser) switchStatement() ast.Statement {
	tok := p.advance() // 'switch'
	p.expect(token.LeftParen)
	subject := p.expression()
	p.expect(token.RightParen)
	p.expect(token.LeftBrace)
	var cases []ast.SwitchCase
	var def []ast.Statement
	for !p.check(token.RightBrace) && !p.check(token.Eof) {
		if p.isSoftKeyword("case") {
			p.advance()
			nameTok, _ := p.expect(token.Identifier)
			p.match(token.Colon)
			var body []ast.Statement
			for !p.isCaseBoundary() {
				body = append(body, p.declaration())
			}
			cases = append(cases, ast.SwitchCase{VariantName: nameTok.Lexeme, Body: body})
			continue
		}
		if p.isSoftKeyword("default") {
			p.advance()
			p.match(token.Colon)
			for !p.isCaseBoundary() {
				def = append(def, p.declaration())
			}
			continue
		}
		p.errorHere()
		break
	}
	p.expect(token.RightBrace)
	return &ast.SwitchStmt{StmtBase: ast.StmtBase{Tok: tok}, Subject: subject, Cases: cases, Default: def}
}

func (p *Parser) isCaseBoundary() bool {
	if p.check(token.RightBrace) || p.check(token.Eof) {
		return true
	}
	return (p.isSoftKeyword("case") || p.isSoftKeyword("default"))
}

func (p *Parser) exprStatement() ast.Statement {
	tok := p.cur
	expr := p.expression()
	p.expect(token.Semicolon)
	return &ast.ExprStatement{StmtBase: ast.StmtBase{Tok: tok}, Expr: expr}
}
