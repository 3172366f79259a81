package analyzer_test

import (
	"testing"

	"github.com/glintlang/glint/internal/analyzer"
	"github.com/glintlang/glint/internal/ext"
	"github.com/glintlang/glint/internal/lexer"
	"github.com/glintlang/glint/internal/parser"
	"github.com/glintlang/glint/internal/pipeline"
)

func checkSource(t *testing.T, src string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewPipelineContext(src, "test.glint")
	ctx = (&lexer.Processor{}).Process(ctx)
	ctx = (&parser.Processor{}).Process(ctx)
	if len(ctx.Errors) > 0 {
		t.Fatalf("front-end errors before type checking: %v", ctx.Errors)
	}
	ctx = (&analyzer.Processor{Externals: ext.New(nil)}).Process(ctx)
	return ctx
}

func TestAnalyzeValidProgram(t *testing.T) {
	ctx := checkSource(t, `
		var x = 1.0;
		fun add(a float, b float) float { return a + b; }
		print add(x, 2.0);
	`)
	if len(ctx.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
}

func TestAnalyzeUndeclaredVariable(t *testing.T) {
	ctx := checkSource(t, `print y;`)
	if len(ctx.Errors) == 0 {
		t.Fatal("expected an undeclared-variable error")
	}
}

func TestAnalyzeNonDivergingFunction(t *testing.T) {
	ctx := checkSource(t, `
		fun f() float {
			var x = 1.0;
		}
	`)
	if len(ctx.Errors) == 0 {
		t.Fatal("expected a does-not-diverge error for a non-Nil function with no return on every path")
	}
}

func TestAnalyzeTypeMismatch(t *testing.T) {
	ctx := checkSource(t, `
		var x = 1.0;
		x = true;
	`)
	if len(ctx.Errors) == 0 {
		t.Fatal("expected a type-mismatch error assigning bool to a float local")
	}
}

func TestAnalyzeFunctionOutsideRootScope(t *testing.T) {
	ctx := checkSource(t, `
		if (true) {
			fun f() { }
		}
	`)
	if len(ctx.Errors) == 0 {
		t.Fatal("expected an error for a function declared outside root scope")
	}
}

func TestAnalyzeExternalCall(t *testing.T) {
	ctx := checkSource(t, `print uuid_new();`)
	if len(ctx.Errors) > 0 {
		t.Fatalf("unexpected errors resolving a registered external: %v", ctx.Errors)
	}
}
