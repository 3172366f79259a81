package vm

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/typesystem"
)

func (c *Compiler) compileStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Declaration:
		c.compileDeclaration(s)
	case *ast.FuncDeclaration:
		c.compileFuncDeclaration(s)
	case *ast.EnumDeclaration:
		// Variants resolve to plain uint8 discriminants at compile time
		// (see reserveTopLevelNames); nothing to emit here.
	case *ast.PrintStmt:
		c.compilePrint(s)
	case *ast.ReturnStmt:
		c.compileReturn(s)
	case *ast.ExprStatement:
		t := c.compileExpr(s.Expr)
		switch {
		case t.Width() == 0:
			// A Nil-typed result (e.g. a call to a function with no return
			// value) leaves nothing on the stack to clean up.
		case isHeapBearing(t) && !isAliasRead(s.Expr):
			// A discarded heap-bearing result that was freshly constructed
			// here (e.g. a call whose return value isn't bound) still owns
			// a reference; release it rather than merely dropping it off
			// the stack.
			c.chunk.WriteOp(OpDecreaseRC, s.Tok.Line, s.Tok.Column)
		default:
			// A bare variable read, or an assignment (AssignOpFor peeks
			// rather than pops, leaving the stored value mirrored on the
			// stack), already has its reference owned by the underlying
			// binding; only the stack copy needs dropping.
			c.chunk.WriteOp(PopOpFor(t.Width()), s.Tok.Line, s.Tok.Column)
		}
	case *ast.Block:
		c.compileBlock(s)
	case *ast.IfStmt:
		c.compileIf(s)
	case *ast.WhileStmt:
		c.compileWhile(s)
	case *ast.SwitchStmt:
		c.compileSwitch(s)
	}
}

// compileDeclaration compiles `var name = expr;`. A declaration whose
// analyzer-assigned type is HeapAllocated(T) is heap-promoted (some nested
// function captures it): the expression's raw value is wrapped into a heap
// cell via MakeCell instead of staying inline on the stack. A String or
// Closure declaration bumps the new value's refcount only when the rhs
// aliases an existing binding (a bare variable or nested assignment) — a
// freshly constructed value (a literal, a call result) already holds the
// sole reference heap.Add gave it and needs no further bump.
func (c *Compiler) compileDeclaration(s *ast.Declaration) {
	c.compileExpr(s.Value)
	line, col := s.Tok.Line, s.Tok.Column

	if _, promoted := s.Type.(typesystem.HeapAllocated); promoted {
		c.chunk.WriteOp(OpMakeCell, line, col)
		c.declareLocal(s.Name, s.Type)
		return
	}

	if isHeapBearing(s.Type) && isAliasRead(s.Value) {
		c.chunk.WriteOp(OpIncreaseRC, line, col)
	}
	c.declareLocal(s.Name, s.Type)
}

func (c *Compiler) compileFuncDeclaration(s *ast.FuncDeclaration) {
	idx, ok := c.funcs[s.Name]
	if !ok {
		idx = uint16(len(c.program.Chunks))
		c.program.Chunks = append(c.program.Chunks, NewChunk())
		c.funcs[s.Name] = idx
	}
	c.compileFunctionBody(s.Fn, idx)
}

// compileFunctionBody compiles fn's body into chunk index idx, using a
// nested Compiler that shares the same Program and global tables but has
// its own local/scope state (§4.4: "switches to a fresh chunk, resets
// local table and scope depth").
func (c *Compiler) compileFunctionBody(fn *ast.FunctionLiteral, idx uint16) {
	sub := &Compiler{
		program:   c.program,
		chunk:     c.program.Chunks[idx],
		funcs:     c.funcs,
		enums:     c.enums,
		externals: c.externals,
	}
	sub.pushScope()
	for _, cap := range fn.Captured {
		sub.declareLocal(cap.Name, cap.ResolvedType)
	}
	for _, p := range fn.Params {
		sub.declareLocal(p.Name, p.Type)
	}
	for _, stmt := range fn.Body.Statements {
		sub.compileStatement(stmt)
	}
	// Falling off the end only typechecks for a Nil-returning function (the
	// analyzer requires every other return type to diverge), so releasing
	// captures/params here never runs for a function that already returned
	// explicitly above.
	sub.popScope(fn.Tok.Line, fn.Tok.Column)
	sub.chunk.WriteOp(OpReturn, fn.Tok.Line, fn.Tok.Column)
	sub.chunk.WriteU8(0, fn.Tok.Line, fn.Tok.Column)
	fn.ChunkID = int(idx)
}

func (c *Compiler) compilePrint(s *ast.PrintStmt) {
	t := c.compileExpr(s.Value)
	line, col := s.Tok.Line, s.Tok.Column
	switch t.(type) {
	case typesystem.Float:
		c.chunk.WriteOp(OpPrintF64, line, col)
	case typesystem.Bool:
		c.chunk.WriteOp(OpPrintBool, line, col)
	case typesystem.String:
		c.chunk.WriteOp(OpPrintString, line, col)
	}
}

// compileReturn compiles `return expr?;`. OpReturn truncates the VM stack
// back to the frame's base and re-pushes only the return value, so any
// heap-bearing local or parameter still live at this point needs its
// refcount released explicitly first — the truncate drops it off the stack
// but does not touch the heap. A return that directly aliases one of those
// locals (a bare `return x;`) transfers its reference to the return value
// instead of releasing it, since the value survives the truncate. A
// heap-promoted local is still released: what is returned is its cell's
// value, not the cell's address.
func (c *Compiler) compileReturn(s *ast.ReturnStmt) {
	line, col := s.Tok.Line, s.Tok.Column

	width := 0
	if s.Value != nil {
		width = c.compileExpr(s.Value).Width()
	}

	aliased := -1
	if v, ok := s.Value.(*ast.Variable); ok {
		if local, found := c.resolveLocal(v.Name); found {
			if _, promoted := local.Type.(typesystem.HeapAllocated); !promoted {
				aliased = local.Offset
			}
		}
	}
	for _, l := range c.locals {
		if l.Offset == aliased || !isHeapBearing(l.Type) {
			continue
		}
		c.chunk.WriteOp(VariableOpFor(l.width()), line, col)
		c.chunk.WriteU16(uint16(l.Offset), line, col)
		c.chunk.WriteOp(OpDecreaseRC, line, col)
	}

	c.chunk.WriteOp(OpReturn, line, col)
	c.chunk.WriteU8(uint8(width), line, col)
}

func (c *Compiler) compileBlock(s *ast.Block) {
	c.pushScope()
	for _, stmt := range s.Statements {
		c.compileStatement(stmt)
	}
	c.popScope(s.Tok.Line, s.Tok.Column)
}

// compileIf follows §4.4's convention: JumpIfFalse to the else label
// (condition stays on the stack across the jump), a PopU8 at the top of
// each branch to drop it, and an unconditional Jump from the end of the
// then-branch to the exit label.
func (c *Compiler) compileIf(s *ast.IfStmt) {
	line, col := s.Tok.Line, s.Tok.Column
	c.compileExpr(s.Cond)

	c.chunk.WriteOp(OpJumpIfFalse, line, col)
	elsePatch := c.chunk.Len()
	c.chunk.WriteU16(0, line, col)

	c.chunk.WriteOp(OpPopU8, line, col)
	c.compileStatement(s.Then)

	c.chunk.WriteOp(OpJump, line, col)
	endPatch := c.chunk.Len()
	c.chunk.WriteU16(0, line, col)

	c.chunk.PatchU16(elsePatch, uint16(c.chunk.Len()))
	c.chunk.WriteOp(OpPopU8, line, col)
	if s.Else != nil {
		c.compileStatement(s.Else)
	}
	c.chunk.PatchU16(endPatch, uint16(c.chunk.Len()))
}

func (c *Compiler) compileWhile(s *ast.WhileStmt) {
	line, col := s.Tok.Line, s.Tok.Column
	start := c.chunk.Len()
	c.compileExpr(s.Cond)

	c.chunk.WriteOp(OpJumpIfFalse, line, col)
	exitPatch := c.chunk.Len()
	c.chunk.WriteU16(0, line, col)

	c.chunk.WriteOp(OpPopU8, line, col)
	c.compileStatement(s.Body)

	c.chunk.WriteOp(OpJump, line, col)
	c.chunk.WriteU16(uint16(start), line, col)

	c.chunk.PatchU16(exitPatch, uint16(c.chunk.Len()))
	c.chunk.WriteOp(OpPopU8, line, col)
}

// compileSwitch compiles the scrutinee once and binds it to a synthetic
// local slot (the same frame-offset local-read trick compileReturn uses for
// heap-release), then lowers each case to a VariableU8/ConstantU8/EqualU8/
// JumpIfFalse chain exactly like a chain of If, per the enum/switch
// supplement (§9 option (a)). EqualU8 consumes both of its operands, so
// every case re-reads a fresh copy of the scrutinee from its local slot
// rather than comparing against the original each time — otherwise only the
// first case's comparison would see a valid byte and every later one would
// compare against whatever happened to be left on the stack.
func (c *Compiler) compileSwitch(s *ast.SwitchStmt) {
	line, col := s.Tok.Line, s.Tok.Column
	c.compileExpr(s.Subject)

	c.pushScope()
	scrutinee := c.declareLocal("$switch", typesystem.Enum{})

	var endPatches []int
	for _, cs := range s.Cases {
		c.chunk.WriteOp(VariableOpFor(scrutinee.width()), line, col)
		c.chunk.WriteU16(uint16(scrutinee.Offset), line, col)
		c.chunk.WriteOp(OpConstantU8, line, col)
		c.chunk.WriteU8(cs.Tag, line, col)
		c.chunk.WriteOp(OpEqualU8, line, col)

		c.chunk.WriteOp(OpJumpIfFalse, line, col)
		nextPatch := c.chunk.Len()
		c.chunk.WriteU16(0, line, col)
		c.chunk.WriteOp(OpPopU8, line, col)

		c.pushScope()
		for _, stmt := range cs.Body {
			c.compileStatement(stmt)
		}
		c.popScope(line, col)

		c.chunk.WriteOp(OpJump, line, col)
		endPatches = append(endPatches, c.chunk.Len())
		c.chunk.WriteU16(0, line, col)

		c.chunk.PatchU16(nextPatch, uint16(c.chunk.Len()))
		c.chunk.WriteOp(OpPopU8, line, col)
	}

	if s.Default != nil {
		c.pushScope()
		for _, stmt := range s.Default {
			c.compileStatement(stmt)
		}
		c.popScope(line, col)
	}
	for _, p := range endPatches {
		c.chunk.PatchU16(p, uint16(c.chunk.Len()))
	}

	c.popScope(line, col) // drops the $switch scrutinee slot exactly once
}
