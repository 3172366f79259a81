package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/glintlang/glint/internal/analyzer"
	"github.com/glintlang/glint/internal/ext"
	"github.com/glintlang/glint/internal/lexer"
	"github.com/glintlang/glint/internal/parser"
	"github.com/glintlang/glint/internal/pipeline"
	"github.com/glintlang/glint/internal/vm"
)

// run lexes, parses, type-checks, compiles and executes src, returning its
// captured print output and the VM used to run it (so callers can assert on
// Heap().CountLive() after the program finished).
func run(t *testing.T, src string) (string, *vm.VM) {
	t.Helper()

	store, err := ext.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %s", err)
	}
	t.Cleanup(func() { store.Close() })
	externals := ext.New(store)

	ctx := pipeline.NewPipelineContext(src, "test.glint")
	front := pipeline.New(
		&lexer.Processor{},
		&parser.Processor{},
		&analyzer.Processor{Externals: externals},
	)
	ctx = front.Run(ctx)
	if len(ctx.Errors) > 0 {
		var msgs []string
		for _, e := range ctx.Errors {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("pipeline errors:\n%s", strings.Join(msgs, "\n"))
	}

	program := vm.Compile(ctx.AstRoot, externals)

	var out bytes.Buffer
	machine := vm.NewVM(program, externals, &out)
	if rerr := machine.Run(); rerr != nil {
		t.Fatalf("runtime error: %s", rerr.Error())
	}
	return out.String(), machine
}

func TestFunctionalVariables(t *testing.T) {
	out, _ := run(t, `
		var x = 3.0;
		var y = x + 4.0;
		print y;
	`)
	if out != "7\n" {
		t.Errorf("got %q, want %q", out, "7\n")
	}
}

func TestFunctionalIfElse(t *testing.T) {
	out, _ := run(t, `
		if (1.0 < 2.0) { print "yes"; } else { print "no"; }
	`)
	if out != "yes\n" {
		t.Errorf("got %q, want %q", out, "yes\n")
	}
}

func TestFunctionalWhile(t *testing.T) {
	out, _ := run(t, `
		var i = 0.0;
		while (i < 3.0) {
			print i;
			i = i + 1.0;
		}
	`)
	if out != "0\n1\n2\n" {
		t.Errorf("got %q, want %q", out, "0\n1\n2\n")
	}
}

func TestFunctionalFunctions(t *testing.T) {
	out, _ := run(t, `
		fun add(a float, b float) float {
			return a + b;
		}
		print add(3.0, 4.0);
	`)
	if out != "7\n" {
		t.Errorf("got %q, want %q", out, "7\n")
	}
}

func TestFunctionalFibonacci(t *testing.T) {
	out, _ := run(t, `
		fun fib(n float) float {
			if (n < 2.0) {
				return n;
			}
			return fib(n - 1.0) + fib(n - 2.0);
		}
		print fib(10.0);
	`)
	if out != "55\n" {
		t.Errorf("got %q, want %q", out, "55\n")
	}
}

func TestFunctionalNestedScopes(t *testing.T) {
	out, _ := run(t, `
		var x = 1.0;
		{
			var x = 2.0;
			{
				var x = 3.0;
				print x;
			}
			print x;
		}
		print x;
	`)
	if out != "3\n2\n1\n" {
		t.Errorf("got %q, want %q", out, "3\n2\n1\n")
	}
}

func TestFunctionalClosureCounter(t *testing.T) {
	out, _ := run(t, `
		fun makeCounter() {
			var n = 0.0;
			var inc = fun() float {
				n = n + 1.0;
				return n;
			};
			print inc();
			print inc();
			print inc();
		}
		makeCounter();
	`)
	if out != "1\n2\n3\n" {
		t.Errorf("got %q, want %q", out, "1\n2\n3\n")
	}
}

func TestFunctionalSwitchMultiCase(t *testing.T) {
	out, _ := run(t, `
		enum Color { Red, Green, Blue }
		var c = Green;
		switch (c) {
			case Red: print "r";
			case Green: print "g";
			case Blue: print "b";
			default: print "other";
		}
	`)
	if out != "g\n" {
		t.Errorf("got %q, want %q", out, "g\n")
	}
}

func TestFunctionalSwitchFallsToDefault(t *testing.T) {
	out, _ := run(t, `
		enum Color { Red, Green, Blue }
		var c = Blue;
		switch (c) {
			case Red: print "r";
			case Green: print "g";
			default: print "other";
		}
	`)
	if out != "other\n" {
		t.Errorf("got %q, want %q", out, "other\n")
	}
}

func TestFunctionalSwitchLastCaseMatches(t *testing.T) {
	out, _ := run(t, `
		enum Color { Red, Green, Blue }
		var c = Blue;
		switch (c) {
			case Red: print "r";
			case Green: print "g";
			case Blue: print "b";
		}
	`)
	if out != "b\n" {
		t.Errorf("got %q, want %q", out, "b\n")
	}
}

func TestFunctionalStringsAndPrint(t *testing.T) {
	out, _ := run(t, `
		var greeting = "hello";
		print greeting;
		print true;
		print 1.5;
	`)
	if out != "hello\ntrue\n1.5\n" {
		t.Errorf("got %q, want %q", out, "hello\ntrue\n1.5\n")
	}
}

func TestFunctionalDivisionByZero(t *testing.T) {
	store, err := ext.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %s", err)
	}
	defer store.Close()
	externals := ext.New(store)

	ctx := pipeline.NewPipelineContext(`print 1.0 / 0.0;`, "test.glint")
	front := pipeline.New(&lexer.Processor{}, &parser.Processor{}, &analyzer.Processor{Externals: externals})
	ctx = front.Run(ctx)
	if len(ctx.Errors) > 0 {
		t.Fatalf("unexpected front-end errors: %v", ctx.Errors)
	}
	program := vm.Compile(ctx.AstRoot, externals)
	var out bytes.Buffer
	machine := vm.NewVM(program, externals, &out)
	if rerr := machine.Run(); rerr == nil {
		t.Fatal("expected a runtime error dividing by zero")
	}
}
