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

// compile runs the front end and compiler only, without executing the
// resulting program, so serialization tests can exercise a realistic
// multi-chunk Program.
func compile(t *testing.T, src string) *vm.Program {
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
	return vm.Compile(ctx.AstRoot, externals)
}

func TestProgramSerializeRoundTrip(t *testing.T) {
	program := compile(t, `
		fun add(a float, b float) float {
			return a + b;
		}
		var greeting = "hi";
		print add(3.0, 4.0);
		print greeting;
	`)

	data := program.Serialize()
	got, err := vm.DeserializeProgram(data)
	if err != nil {
		t.Fatalf("deserialize: %s", err)
	}

	if len(got.Chunks) != len(program.Chunks) {
		t.Fatalf("got %d chunks, want %d", len(got.Chunks), len(program.Chunks))
	}
	for i, c := range program.Chunks {
		if !bytes.Equal(c.Code, got.Chunks[i].Code) {
			t.Errorf("chunk %d: code mismatch after round trip", i)
		}
	}
}

func TestProgramSerializeRoundTripRuns(t *testing.T) {
	program := compile(t, `print 1.0 + 2.0;`)
	data := program.Serialize()

	restored, err := vm.DeserializeProgram(data)
	if err != nil {
		t.Fatalf("deserialize: %s", err)
	}

	store, err := ext.OpenStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %s", err)
	}
	defer store.Close()
	externals := ext.New(store)

	var out bytes.Buffer
	machine := vm.NewVM(restored, externals, &out)
	if rerr := machine.Run(); rerr != nil {
		t.Fatalf("runtime error: %s", rerr.Error())
	}
	if out.String() != "3\n" {
		t.Errorf("got %q, want %q", out.String(), "3\n")
	}
}

func TestDeserializeProgramRejectsBadMagic(t *testing.T) {
	if _, err := vm.DeserializeProgram([]byte("not bytecode")); err == nil {
		t.Error("expected an error for data with the wrong magic header")
	}
}
