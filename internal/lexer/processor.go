package lexer

import (
	"github.com/glintlang/glint/internal/pipeline"
	"github.com/glintlang/glint/internal/token"
)

const lookaheadBufferSize = 10

// bufferedLexer adapts a Lexer into pipeline.TokenStream, buffering enough
// tokens to satisfy Peek(n) lookahead for the parser.
type bufferedLexer struct {
	l      *Lexer
	buffer []token.Token
	pos    int
}

func newBufferedLexer(l *Lexer) *bufferedLexer {
	return &bufferedLexer{l: l}
}

func (bl *bufferedLexer) Next() token.Token {
	if bl.pos < len(bl.buffer) {
		tok := bl.buffer[bl.pos]
		bl.pos++
		return tok
	}
	tok, _ := bl.l.NextToken()
	return tok
}

func (bl *bufferedLexer) Peek(n int) []token.Token {
	for len(bl.buffer)-bl.pos < n+1 {
		tok, _ := bl.l.NextToken()
		bl.buffer = append(bl.buffer, tok)
		if tok.Type == token.Eof {
			break
		}
	}

	if bl.pos > lookaheadBufferSize {
		bl.buffer = bl.buffer[bl.pos:]
		bl.pos = 0
	}

	end := bl.pos + n
	if end > len(bl.buffer) {
		end = len(bl.buffer)
	}
	return bl.buffer[bl.pos:end]
}

var _ pipeline.TokenStream = (*bufferedLexer)(nil)

// Processor is the lexer's pipeline.Processor stage. It tokenizes the whole
// source up front so a lexical error becomes a fatal diagnostic before
// parsing ever starts, matching §7's "each phase is total-or-fail".
type Processor struct{}

func (p *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	toks, err := Tokenize(ctx.SourceCode)
	if err != nil {
		err.File = ctx.FilePath
		ctx.AddErrors(err)
		return ctx
	}
	ctx.TokenStream = newBufferedLexer(New(ctx.SourceCode))
	_ = toks // Tokenize is used here only to fail fast on lexical errors
	return ctx
}
