// Command glint runs a .glint source file: lex, parse, type-check, compile
// to bytecode, then interpret. Diagnostics go to stderr; script print
// output goes to stdout. internal/* packages never write to stderr or
// stdout directly; main is the only place that funnels human-facing text
// through os.Stderr/os.Stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/glintlang/glint/internal/analyzer"
	"github.com/glintlang/glint/internal/ext"
	"github.com/glintlang/glint/internal/lexer"
	"github.com/glintlang/glint/internal/parser"
	"github.com/glintlang/glint/internal/pipeline"
	"github.com/glintlang/glint/internal/vm"
)

func main() {
	verbose := flag.Bool("verbose", false, "log lex/parse/check/compile/run progress to stderr")
	compileOnly := flag.Bool("c", false, "compile <file.glint> to a .glintc bytecode file instead of running it")
	runCompiled := flag.Bool("r", false, "run a previously compiled .glintc bytecode file")
	flag.Parse()

	logger := log.New(os.Stderr, "glint: ", log.LstdFlags)
	vlogf := func(format string, args ...interface{}) {
		if *verbose {
			logger.Printf(format, args...)
		}
	}

	args := flag.Args()
	if len(args) != 1 || (*compileOnly && *runCompiled) {
		fmt.Fprintf(os.Stderr, "usage: %s [-verbose] [-c | -r] <file>\n", os.Args[0])
		os.Exit(1)
	}
	path := args[0]

	if *runCompiled {
		runCompiledFile(path, vlogf)
		return
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %s\n", path, err)
		os.Exit(1)
	}
	vlogf("read %d bytes from %s", len(source), path)

	store, err := ext.OpenStore(storePath(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening store: %s\n", err)
		os.Exit(1)
	}
	defer store.Close()
	vlogf("opened store %s", storePath(path))

	externals := ext.New(store)

	ctx := pipeline.NewPipelineContext(string(source), path)
	front := pipeline.New(
		&lexer.Processor{},
		&parser.Processor{},
		&analyzer.Processor{Externals: externals},
	)
	vlogf("running lex/parse/typecheck pipeline")
	ctx = front.Run(ctx)

	if len(ctx.Errors) > 0 {
		for _, e := range ctx.Errors {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		os.Exit(1)
	}

	if ctx.AstRoot == nil {
		fmt.Fprintln(os.Stderr, "internal error: no program produced")
		os.Exit(1)
	}
	vlogf("type-check passed, %d top-level statements", len(ctx.AstRoot.Statements))

	program := vm.Compile(ctx.AstRoot, externals)
	vlogf("compiled to %d chunk(s)", len(program.Chunks))

	if *compileOnly {
		out := compiledPath(path)
		data := program.Serialize()
		if err := os.WriteFile(out, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing bytecode file: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Compiled %s -> %s\n", path, out)
		fmt.Printf("Bytecode size: %d bytes\n", len(data))
		return
	}

	machine := vm.NewVM(program, externals, os.Stdout)
	vlogf("starting run")
	if rerr := machine.Run(); rerr != nil {
		fmt.Fprintln(os.Stderr, rerr.Error())
		os.Exit(1)
	}
	vlogf("run finished")
}

// runCompiledFile loads a .glintc file produced by -c and executes it
// directly, skipping lex/parse/typecheck/compile entirely.
func runCompiledFile(path string, vlogf func(string, ...interface{})) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %s\n", path, err)
		os.Exit(1)
	}
	program, err := vm.DeserializeProgram(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error deserializing %s: %s\n", path, err)
		os.Exit(1)
	}
	vlogf("loaded %d chunk(s) from %s", len(program.Chunks), path)

	store, err := ext.OpenStore(storePath(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening store: %s\n", err)
		os.Exit(1)
	}
	defer store.Close()
	externals := ext.New(store)

	machine := vm.NewVM(program, externals, os.Stdout)
	vlogf("starting run")
	if rerr := machine.Run(); rerr != nil {
		fmt.Fprintln(os.Stderr, rerr.Error())
		os.Exit(1)
	}
	vlogf("run finished")
}

func storePath(sourcePath string) string {
	return sourcePath + ".store.db"
}

// compiledPath derives the .glintc output path for -c from a source path,
// mirroring the teacher's .fbc naming convention.
func compiledPath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".glintc"
}
