package parser_test

import (
	"strings"
	"testing"

	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/lexer"
	"github.com/glintlang/glint/internal/parser"
	"github.com/glintlang/glint/internal/pipeline"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	ctx := pipeline.NewPipelineContext(src, "test.glint")
	ctx = (&lexer.Processor{}).Process(ctx)
	ctx = (&parser.Processor{}).Process(ctx)
	if len(ctx.Errors) > 0 {
		var msgs []string
		for _, e := range ctx.Errors {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("parse errors:\n%s", strings.Join(msgs, "\n"))
	}
	return ctx.AstRoot
}

func TestParseVarDeclaration(t *testing.T) {
	prog := parseSource(t, `var x = 1 + 2;`)
	if len(prog.Statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*ast.Declaration)
	if !ok {
		t.Fatalf("statement is %T, want *ast.Declaration", prog.Statements[0])
	}
	if decl.Name != "x" {
		t.Errorf("got name %q, want %q", decl.Name, "x")
	}
	bin, ok := decl.Value.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Errorf("value is %#v, want an Add binary expression", decl.Value)
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parseSource(t, `fun add(a, b) float { return a + b; }`)
	fd, ok := prog.Statements[0].(*ast.FuncDeclaration)
	if !ok {
		t.Fatalf("statement is %T, want *ast.FuncDeclaration", prog.Statements[0])
	}
	if fd.Name != "add" {
		t.Errorf("got name %q, want %q", fd.Name, "add")
	}
	if len(fd.Fn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fd.Fn.Params))
	}
}

func TestParseClosureCapture(t *testing.T) {
	prog := parseSource(t, `
		fun counter() {
			var n = 0;
			var inc = fun() {
				n = n + 1;
			};
		}
	`)
	fd := prog.Statements[0].(*ast.FuncDeclaration)
	var innerDecl *ast.Declaration
	for _, stmt := range fd.Fn.Body.Statements {
		if d, ok := stmt.(*ast.Declaration); ok && d.Name == "inc" {
			innerDecl = d
		}
	}
	if innerDecl == nil {
		t.Fatal("did not find inc declaration")
	}
	innerFn, ok := innerDecl.Value.(*ast.FunctionLiteral)
	if !ok {
		t.Fatalf("inc's value is %T, want *ast.FunctionLiteral", innerDecl.Value)
	}
	if !innerFn.IsClosure {
		t.Error("inner function should be classified as a closure (captures n)")
	}
	if len(innerFn.Captured) != 1 || innerFn.Captured[0].Name != "n" {
		t.Errorf("got captures %#v, want [n]", innerFn.Captured)
	}
}

func TestParseIfWhileSwitch(t *testing.T) {
	prog := parseSource(t, `
		enum Color { Red, Green, Blue }
		var c = Red;
		switch (c) {
			case Red: print "r";
			default: print "other";
		}
		if (true) { print "y"; } else { print "n"; }
		while (false) { print "loop"; }
	`)
	if len(prog.Statements) != 5 {
		t.Fatalf("got %d statements, want 5", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*ast.EnumDeclaration); !ok {
		t.Errorf("statement 0 is %T, want *ast.EnumDeclaration", prog.Statements[0])
	}
	sw, ok := prog.Statements[2].(*ast.SwitchStmt)
	if !ok {
		t.Fatalf("statement 2 is %T, want *ast.SwitchStmt", prog.Statements[2])
	}
	if len(sw.Cases) != 1 || sw.Cases[0].VariantName != "Red" {
		t.Errorf("got cases %#v, want one case named Red", sw.Cases)
	}
	if len(sw.Default) != 1 {
		t.Errorf("got %d default statements, want 1", len(sw.Default))
	}
}

func TestParseUnexpectedTokenIsFatal(t *testing.T) {
	ctx := pipeline.NewPipelineContext(`var = 5;`, "test.glint")
	ctx = (&lexer.Processor{}).Process(ctx)
	ctx = (&parser.Processor{}).Process(ctx)
	if len(ctx.Errors) == 0 {
		t.Fatal("expected at least one parse error for a missing identifier")
	}
}
