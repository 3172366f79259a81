package lexer_test

import (
	"testing"

	"github.com/glintlang/glint/internal/lexer"
	"github.com/glintlang/glint/internal/token"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		types []token.Type
	}{
		{
			name:  "var declaration",
			input: `var x = 5;`,
			types: []token.Type{token.Var, token.Identifier, token.Equal, token.Number, token.Semicolon, token.Eof},
		},
		{
			name:  "string literal",
			input: `print "hi";`,
			types: []token.Type{token.Print, token.String, token.Semicolon, token.Eof},
		},
		{
			name:  "two-char operators",
			input: `a == b != c <= d >= e`,
			types: []token.Type{
				token.Identifier, token.EqualEqual, token.Identifier, token.BangEqual, token.Identifier,
				token.LessEqual, token.Identifier, token.GreaterEqual, token.Identifier, token.Eof,
			},
		},
		{
			name:  "function header",
			input: `fun add(a, b) { return a; }`,
			types: []token.Type{
				token.Fun, token.Identifier, token.LeftParen, token.Identifier, token.Comma,
				token.Identifier, token.RightParen, token.LeftBrace, token.Return, token.Identifier,
				token.Semicolon, token.RightBrace, token.Eof,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := lexer.Tokenize(tc.input)
			if err != nil {
				t.Fatalf("Tokenize returned error: %s", err.Error())
			}
			if len(toks) != len(tc.types) {
				t.Fatalf("got %d tokens, want %d: %v", len(toks), len(tc.types), toks)
			}
			for i, want := range tc.types {
				if toks[i].Type != want {
					t.Errorf("token %d: got %v, want %v", i, toks[i].Type, want)
				}
			}
		})
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := lexer.Tokenize(`"unterminated`)
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	_, err := lexer.Tokenize("var x = @;")
	if err == nil {
		t.Fatal("expected an error for an illegal character")
	}
}
