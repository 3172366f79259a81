// Package vm implements glint's byte-addressed value stack, reference-
// counted heap, bytecode chunk format, compiler, and interpreter loop.
package vm

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/ext"
	"github.com/glintlang/glint/internal/typesystem"
)

// Local is a compiled local variable: its name, the byte offset within the
// current frame it lives at, and its static width/type (needed to pick the
// width-specialized opcode family).
type Local struct {
	Name   string
	Depth  int
	Offset int
	Type   typesystem.Type
}

func (l Local) width() int { return l.Type.Width() }

// Compiler lowers one function body (or the top-level program) into a
// single Chunk, per §4.4. Nested function literals recurse into a fresh
// Compiler sharing the same Program so every chunk lands in one flat list.
type Compiler struct {
	program *Program
	chunk   *Chunk

	locals     []Local
	scopeDepth int
	frameWidth int

	funcs map[string]uint16 // global function/closure name -> chunk index
	enums map[string]map[string]ast.EnumVariantSpec

	externals *ext.Registry
}

// NewCompiler creates a Compiler for a whole program.
func NewCompiler(externals *ext.Registry) *Compiler {
	program := &Program{}
	entry := NewChunk()
	program.Chunks = append(program.Chunks, entry)
	return &Compiler{
		program:   program,
		chunk:     entry,
		funcs:     map[string]uint16{},
		enums:     map[string]map[string]ast.EnumVariantSpec{},
		externals: externals,
	}
}

// Compile lowers prog into c.program, returning it. prog must already be
// fully type-checked (every annotation slot filled).
func (c *Compiler) Compile(prog *ast.Program) *Program {
	c.reserveTopLevelNames(prog.Statements)
	for _, stmt := range prog.Statements {
		c.compileStatement(stmt)
	}
	// The top level is never entered through pushScope, so it has to be
	// exited through popScope explicitly here, releasing every top-level
	// var's reference before the program's implicit final return.
	c.popScope(0, 0)
	c.chunk.WriteOp(OpReturn, 0, 0)
	c.chunk.WriteU8(0, 0, 0)
	return c.program
}

// reserveTopLevelNames pre-allocates a chunk index for every top-level
// function declaration (and registers enum variants), so forward and
// mutually-recursive calls resolve their callee's chunk id before any body
// is compiled (§4.4 "global table mapping names to {FunctionChunk(id)}").
func (c *Compiler) reserveTopLevelNames(stmts []ast.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FuncDeclaration:
			idx := uint16(len(c.program.Chunks))
			c.program.Chunks = append(c.program.Chunks, NewChunk())
			c.funcs[s.Name] = idx
			s.Fn.ChunkID = int(idx)
		case *ast.EnumDeclaration:
			variants := map[string]ast.EnumVariantSpec{}
			for _, v := range s.Variants {
				variants[v.Name] = v
			}
			c.enums[s.Name] = variants
		}
	}
}

func (c *Compiler) findVariant(name string) (ast.EnumVariantSpec, bool) {
	for _, variants := range c.enums {
		if v, ok := variants[name]; ok {
			return v, true
		}
	}
	return ast.EnumVariantSpec{}, false
}

func (c *Compiler) pushScope() { c.scopeDepth++ }

// popScope emits the width-specialized Pop (preceded, for heap-bearing
// locals, by a DecreaseRC) for every local declared at a deeper depth than
// the scope being exited, per §4.4.
func (c *Compiler) popScope(line, col int) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		c.releaseLocal(last, line, col)
		c.locals = c.locals[:len(c.locals)-1]
		c.frameWidth -= last.width()
	}
}

// releaseLocal emits the refcount release (for string/closure/heap-cell
// locals) and the width-specialized pop for one local going out of scope.
func (c *Compiler) releaseLocal(l Local, line, col int) {
	if isHeapBearing(l.Type) {
		c.chunk.WriteOp(VariableOpFor(l.width()), line, col)
		c.chunk.WriteU16(uint16(l.Offset), line, col)
		c.chunk.WriteOp(OpDecreaseRC, line, col)
	}
	c.chunk.WriteOp(PopOpFor(l.width()), line, col)
}

func isHeapBearing(t typesystem.Type) bool {
	switch t.(type) {
	case typesystem.String, typesystem.Closure, typesystem.HeapAllocated:
		return true
	}
	return false
}

func (c *Compiler) declareLocal(name string, t typesystem.Type) Local {
	l := Local{Name: name, Depth: c.scopeDepth, Offset: c.frameWidth, Type: t}
	c.locals = append(c.locals, l)
	c.frameWidth += t.Width()
	return l
}

func (c *Compiler) resolveLocal(name string) (Local, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i], true
		}
	}
	return Local{}, false
}

// Compile is the package-level entry point used by cmd/glint: it compiles
// an already type-checked program into a Program of chunks.
func Compile(prog *ast.Program, externals *ext.Registry) *Program {
	return NewCompiler(externals).Compile(prog)
}
