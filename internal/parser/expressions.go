package parser

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/diagnostics"
	"github.com/glintlang/glint/internal/token"
	"github.com/glintlang/glint/internal/typesystem"
)

// functionRest parses the part of a function literal after the keyword
// (or after the name, for a FuncDeclaration): '(' params? ')' type? block.
// It pushes a fresh funcScope for the duration of the body so identifier
// references inside are classified as local/captured/unresolved, then
// finalizes the popped scope's captured list onto the returned literal.
func (p *Parser) functionRest(tok token.Token) (*ast.FunctionLiteral, []typesystem.Type, typesystem.Type) {
	p.funcs = append(p.funcs, newFuncScope())

	p.expect(token.LeftParen)
	var params []ast.Param
	var argTypes []typesystem.Type
	if !p.check(token.RightParen) {
		for {
			nameTok, ok := p.expect(token.Identifier)
			if !ok {
				break
			}
			var pt typesystem.Type
			if t, ok := p.typeAnnotation(); ok {
				pt = t
			}
			params = append(params, ast.Param{Name: nameTok.Lexeme, Type: pt})
			argTypes = append(argTypes, pt)
			p.markBound(nameTok.Lexeme)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.expect(token.RightParen)

	var retType typesystem.Type = typesystem.Nil{}
	if t, ok := p.typeAnnotation(); ok {
		retType = t
	}

	body := p.block()

	scope := p.funcs[len(p.funcs)-1]
	p.funcs = p.funcs[:len(p.funcs)-1]

	fn := &ast.FunctionLiteral{
		ExprBase:  ast.ExprBase{Tok: tok},
		Params:    params,
		Captured:  scope.captured,
		RetType:   retType,
		Body:      body,
		IsClosure: len(scope.captured) > 0,
	}
	return fn, argTypes, retType
}

// expression := assignment
func (p *Parser) expression() ast.Expression {
	return p.assignment()
}

// assignment := IDENT '=' assignment | logicOr
func (p *Parser) assignment() ast.Expression {
	expr := p.logicOr()

	if p.check(token.Equal) {
		eq := p.advance()
		value := p.assignment()
		if v, ok := expr.(*ast.Variable); ok {
			p.reference(v.Name)
			return &ast.Assign{ExprBase: ast.ExprBase{Tok: eq}, Name: v.Name, Value: value}
		}
		p.errs = append(p.errs, diagnostics.NewParseError(eq, eq.Lexeme))
		return expr
	}
	return expr
}

func (p *Parser) logicOr() ast.Expression {
	expr := p.logicAnd()
	for p.check(token.Or) {
		tok := p.advance()
		right := p.logicAnd()
		expr = &ast.Binary{ExprBase: ast.ExprBase{Tok: tok}, Op: ast.OpOr, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) logicAnd() ast.Expression {
	expr := p.equality()
	for p.check(token.And) {
		tok := p.advance()
		right := p.equality()
		expr = &ast.Binary{ExprBase: ast.ExprBase{Tok: tok}, Op: ast.OpAnd, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expression {
	expr := p.comparison()
	for p.check(token.EqualEqual) || p.check(token.BangEqual) {
		tok := p.advance()
		op := ast.OpEqual
		if tok.Type == token.BangEqual {
			op = ast.OpNotEqual
		}
		right := p.comparison()
		expr = &ast.Binary{ExprBase: ast.ExprBase{Tok: tok}, Op: op, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expression {
	expr := p.addition()
	for p.check(token.Greater) || p.check(token.GreaterEqual) || p.check(token.Less) || p.check(token.LessEqual) {
		tok := p.advance()
		var op ast.BinaryOp
		switch tok.Type {
		case token.Greater:
			op = ast.OpGreater
		case token.GreaterEqual:
			op = ast.OpGreaterEqual
		case token.Less:
			op = ast.OpLesser
		case token.LessEqual:
			op = ast.OpLesserEqual
		}
		right := p.addition()
		expr = &ast.Binary{ExprBase: ast.ExprBase{Tok: tok}, Op: op, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) addition() ast.Expression {
	expr := p.multiplication()
	for p.check(token.Plus) || p.check(token.Minus) {
		tok := p.advance()
		op := ast.OpAdd
		if tok.Type == token.Minus {
			op = ast.OpSub
		}
		right := p.multiplication()
		expr = &ast.Binary{ExprBase: ast.ExprBase{Tok: tok}, Op: op, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) multiplication() ast.Expression {
	expr := p.unary()
	for p.check(token.Star) || p.check(token.Slash) {
		tok := p.advance()
		op := ast.OpMultiply
		if tok.Type == token.Slash {
			op = ast.OpDivide
		}
		right := p.unary()
		expr = &ast.Binary{ExprBase: ast.ExprBase{Tok: tok}, Op: op, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expression {
	if p.check(token.Bang) {
		tok := p.advance()
		right := p.unary()
		return &ast.Not{ExprBase: ast.ExprBase{Tok: tok}, Right: right}
	}
	if p.check(token.Minus) {
		tok := p.advance()
		right := p.unary()
		return &ast.Negate{ExprBase: ast.ExprBase{Tok: tok}, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expression {
	expr := p.primary()
	for p.check(token.LeftParen) {
		tok := p.advance()
		var args []ast.Expression
		if !p.check(token.RightParen) {
			for {
				args = append(args, p.expression())
				if !p.match(token.Comma) {
					break
				}
			}
		}
		p.expect(token.RightParen)
		expr = &ast.Call{ExprBase: ast.ExprBase{Tok: tok}, Callee: expr, Args: args}
	}
	return expr
}

func (p *Parser) primary() ast.Expression {
	switch {
	case p.check(token.False):
		tok := p.advance()
		return &ast.BoolLiteral{ExprBase: ast.ExprBase{Tok: tok}, Value: false}
	case p.check(token.True):
		tok := p.advance()
		return &ast.BoolLiteral{ExprBase: ast.ExprBase{Tok: tok}, Value: true}
	case p.check(token.Number):
		tok := p.advance()
		return &ast.FloatLiteral{ExprBase: ast.ExprBase{Tok: tok}, Value: tok.Literal.(float64)}
	case p.check(token.String):
		tok := p.advance()
		return &ast.StringLiteral{ExprBase: ast.ExprBase{Tok: tok}, Value: tok.Literal.(string)}
	case p.check(token.Fun):
		tok := p.advance()
		fn, _, _ := p.functionRest(tok)
		return fn
	case p.check(token.Identifier):
		tok := p.advance()
		p.reference(tok.Lexeme)
		return &ast.Variable{ExprBase: ast.ExprBase{Tok: tok}, Name: tok.Lexeme}
	case p.check(token.LeftParen):
		p.advance()
		expr := p.expression()
		p.expect(token.RightParen)
		return expr
	}
	p.errorHere()
	tok := p.advance()
	return &ast.Variable{ExprBase: ast.ExprBase{Tok: tok}, Name: tok.Lexeme}
}
