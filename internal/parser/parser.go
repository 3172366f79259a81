// Package parser implements glint's recursive-descent, precedence-climbing
// parser. It produces an AST with empty type-annotation slots and, for each
// function literal, a Captured list of free variable names referenced
// inside the body but not declared inside it — the type checker resolves
// each captured name against the enclosing scope.
package parser

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/diagnostics"
	"github.com/glintlang/glint/internal/pipeline"
	"github.com/glintlang/glint/internal/token"
)

// funcScope tracks, for one function literal currently being parsed, the
// names bound inside it (params and var declarations) and the free names
// referenced but not bound — the capture set the type checker will later
// resolve against the immediately enclosing function's locals.
type funcScope struct {
	bound    map[string]bool
	captured []ast.Capture
	seen     map[string]bool
}

func newFuncScope() *funcScope {
	return &funcScope{bound: map[string]bool{}, seen: map[string]bool{}}
}

// Parser consumes a pipeline.TokenStream and builds an *ast.Program.
type Parser struct {
	stream pipeline.TokenStream
	cur    token.Token
	errs   []*diagnostics.DiagnosticError
	funcs  []*funcScope // stack of function literals currently being parsed
}

// New creates a Parser over stream, primed with the first token.
func New(stream pipeline.TokenStream) *Parser {
	p := &Parser{stream: stream}
	p.cur = p.stream.Next()
	return p
}

func (p *Parser) advance() token.Token {
	tok := p.cur
	p.cur = p.stream.Next()
	return tok
}

func (p *Parser) check(t token.Type) bool { return p.cur.Type == t }

func (p *Parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t token.Type) (token.Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	p.errs = append(p.errs, diagnostics.NewParseError(p.cur, p.cur.Lexeme))
	return p.cur, false
}

func (p *Parser) errorHere() {
	p.errs = append(p.errs, diagnostics.NewParseError(p.cur, p.cur.Lexeme))
}

// markBound records name as declared within the innermost function scope.
func (p *Parser) markBound(name string) {
	if len(p.funcs) > 0 {
		p.funcs[len(p.funcs)-1].bound[name] = true
	}
}

// reference records an identifier read/write, adding it to the innermost
// function's capture set if it resolves to an outer function's local.
func (p *Parser) reference(name string) {
	if len(p.funcs) == 0 {
		return
	}
	inner := p.funcs[len(p.funcs)-1]
	if inner.bound[name] {
		return
	}
	for i := len(p.funcs) - 2; i >= 0; i-- {
		if p.funcs[i].bound[name] {
			if !inner.seen[name] {
				inner.seen[name] = true
				inner.captured = append(inner.captured, ast.Capture{Name: name})
			}
			return
		}
	}
	// Not bound anywhere in an enclosing function: a global, external, or
	// an error the type checker will report.
}

// Parse parses declarations until Eof or until the first declaration that
// reports an error, returning the program parsed so far and the parse
// errors collected (§7: UnexpectedToken is fatal to the whole compile).
func (p *Parser) Parse() (*ast.Program, []*diagnostics.DiagnosticError) {
	prog := &ast.Program{}
	for !p.check(token.Eof) {
		stmt := p.declaration()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if len(p.errs) > 0 {
			break
		}
	}
	return prog, p.errs
}

// Processor is the parser's pipeline.Processor stage.
type Processor struct{}

func (pr *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if len(ctx.Errors) > 0 || ctx.TokenStream == nil {
		return ctx
	}
	p := New(ctx.TokenStream)
	prog, errs := p.Parse()
	for _, e := range errs {
		e.File = ctx.FilePath
	}
	ctx.AddErrors(errs...)
	ctx.AstRoot = prog
	return ctx
}
