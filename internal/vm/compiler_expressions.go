package vm

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/typesystem"
)

// compileExpr compiles expr and returns its static type (needed by callers
// to pick a width-specialized follow-on opcode, e.g. Pop or Print).
func (c *Compiler) compileExpr(expr ast.Expression) typesystem.Type {
	switch e := expr.(type) {
	case *ast.FloatLiteral:
		idx := c.chunk.AddFloatConstant(e.Value)
		c.chunk.WriteOp(OpConstantF64, e.Tok.Line, e.Tok.Column)
		c.chunk.WriteU16(idx, e.Tok.Line, e.Tok.Column)
		return typesystem.Float{}

	case *ast.BoolLiteral:
		if e.Value {
			c.chunk.WriteOp(OpTrue, e.Tok.Line, e.Tok.Column)
		} else {
			c.chunk.WriteOp(OpFalse, e.Tok.Line, e.Tok.Column)
		}
		return typesystem.Bool{}

	case *ast.StringLiteral:
		idx := c.chunk.AddStringConstant(e.Value)
		c.chunk.WriteOp(OpConstantString, e.Tok.Line, e.Tok.Column)
		c.chunk.WriteU16(idx, e.Tok.Line, e.Tok.Column)
		return typesystem.String{}

	case *ast.Variable:
		return c.compileVariable(e)

	case *ast.Assign:
		return c.compileAssign(e)

	case *ast.Negate:
		c.compileExpr(e.Right)
		c.chunk.WriteOp(OpNegateF64, e.Tok.Line, e.Tok.Column)
		return typesystem.Float{}

	case *ast.Not:
		c.compileExpr(e.Right)
		c.chunk.WriteOp(OpNot, e.Tok.Line, e.Tok.Column)
		return typesystem.Bool{}

	case *ast.Binary:
		return c.compileBinary(e)

	case *ast.FunctionLiteral:
		return c.compileFunctionLiteral(e)

	case *ast.Call:
		return c.compileCall(e)
	}
	return typesystem.Nil{}
}

// compileVariable emits a width-specialized local read, a plain-function
// global push, an enum variant constant, or an external reference,
// depending on how the analyzer resolved the name.
func (c *Compiler) compileVariable(e *ast.Variable) typesystem.Type {
	line, col := e.Tok.Line, e.Tok.Column

	if local, ok := c.resolveLocal(e.Name); ok {
		if ha, promoted := local.Type.(typesystem.HeapAllocated); promoted {
			c.chunk.WriteOp(OpLoadCell, line, col)
			c.chunk.WriteU16(uint16(local.Offset), line, col)
			return ha.Inner
		}
		c.chunk.WriteOp(VariableOpFor(local.width()), line, col)
		c.chunk.WriteU16(uint16(local.Offset), line, col)
		return local.Type
	}

	if spec, ok := c.findVariant(e.Name); ok {
		c.chunk.WriteOp(OpConstantU8, line, col)
		c.chunk.WriteU8(spec.Tag, line, col)
		return typesystem.EnumVariant{Payload: spec.Payload}
	}

	if idx, ok := c.funcs[e.Name]; ok {
		c.chunk.WriteOp(OpPushU16, line, col)
		c.chunk.WriteU16(idx, line, col)
		// The analyzer already resolved this name's full signature as a
		// global before compilation ran; trust its annotation rather than
		// rebuilding a Function value with no Args/Ret here.
		if t := e.ExprType(); t != nil {
			return t
		}
		return typesystem.Function{}
	}

	if c.externals != nil {
		if t, _, _, ok := c.externals.Lookup(e.Name); ok {
			if idx, ok := c.externals.Index(e.Name); ok {
				c.chunk.WriteOp(OpPushU16, line, col)
				c.chunk.WriteU16(uint16(idx), line, col)
			}
			return t
		}
	}

	// Unreachable once the analyzer has run: every Variable it accepts
	// resolves to one of the cases above.
	return typesystem.Nil{}
}

// isAliasRead reports whether expr's value is a read of an existing heap
// binding that will go on existing independently of this use (a bare
// variable reference, or the value of a nested assignment), as opposed to a
// freshly constructed value (a literal, a call, a function literal) that
// already holds the sole claim heap.Add gave it. Only the former needs an
// extra IncreaseRC when it gains a second owner; bumping a fresh value's
// refcount would leave it permanently one too high.
func isAliasRead(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Variable, *ast.Assign:
		return true
	}
	return false
}

// compileAssign compiles the rhs, then a width-specialized write: a plain
// AssignU{8,16,64} for a same-type target, or a StoreCell when the target
// has been heap-promoted (§4.3 move-to-heap). A String/Closure target
// snapshots its old value before the rhs runs, rather than decrementing it
// up front: the rhs may itself reassign the same variable (a chained
// `a = a = a`), and decrementing first can walk the refcount down to zero,
// freeing the object out from under the outer assignment, before the rhs's
// own increments have a chance to run. Keeping the old address on the stack
// until after the new value is stored and (if aliased) incremented means the
// two can never both be live referencing the same object at a count of zero.
func (c *Compiler) compileAssign(e *ast.Assign) typesystem.Type {
	local, _ := c.resolveLocal(e.Name)
	line, col := e.Tok.Line, e.Tok.Column

	if ha, promoted := local.Type.(typesystem.HeapAllocated); promoted {
		c.compileExpr(e.Value)
		c.chunk.WriteOp(OpStoreCell, line, col)
		c.chunk.WriteU16(uint16(local.Offset), line, col)
		return ha.Inner
	}

	if isHeapBearing(local.Type) {
		c.chunk.WriteOp(VariableOpFor(4), line, col)
		c.chunk.WriteU16(uint16(local.Offset), line, col)

		c.compileExpr(e.Value)
		if isAliasRead(e.Value) {
			c.chunk.WriteOp(OpIncreaseRC, line, col)
		}
		c.chunk.WriteOp(AssignOpFor(4), line, col)
		c.chunk.WriteU16(uint16(local.Offset), line, col)

		// Releases the snapshotted old value without disturbing the new
		// value's mirrored copy (AssignOpFor peeks rather than pops) that
		// sits above it on the stack.
		c.chunk.WriteOp(OpDecreaseRCUnder, line, col)
		return local.Type
	}

	c.compileExpr(e.Value)
	c.chunk.WriteOp(AssignOpFor(local.width()), line, col)
	c.chunk.WriteU16(uint16(local.Offset), line, col)
	return local.Type
}

func (c *Compiler) compileBinary(e *ast.Binary) typesystem.Type {
	line, col := e.Tok.Line, e.Tok.Column

	if e.Op == ast.OpAnd {
		c.compileExpr(e.Left)
		c.chunk.WriteOp(OpJumpIfFalse, line, col)
		patch := c.chunk.Len()
		c.chunk.WriteU16(0, line, col)
		c.chunk.WriteOp(OpPopU8, line, col)
		c.compileExpr(e.Right)
		c.chunk.PatchU16(patch, uint16(c.chunk.Len()))
		return typesystem.Bool{}
	}
	if e.Op == ast.OpOr {
		c.compileExpr(e.Left)
		c.chunk.WriteOp(OpJumpIfFalse, line, col)
		skip := c.chunk.Len()
		c.chunk.WriteU16(0, line, col)
		c.chunk.WriteOp(OpJump, line, col)
		end := c.chunk.Len()
		c.chunk.WriteU16(0, line, col)
		c.chunk.PatchU16(skip, uint16(c.chunk.Len()))
		c.chunk.WriteOp(OpPopU8, line, col)
		c.compileExpr(e.Right)
		c.chunk.PatchU16(end, uint16(c.chunk.Len()))
		return typesystem.Bool{}
	}

	lt := c.compileExpr(e.Left)
	c.compileExpr(e.Right)

	switch e.Op {
	case ast.OpAdd:
		c.chunk.WriteOp(OpAddF64, line, col)
		return typesystem.Float{}
	case ast.OpSub:
		c.chunk.WriteOp(OpSubF64, line, col)
		return typesystem.Float{}
	case ast.OpMultiply:
		c.chunk.WriteOp(OpMulF64, line, col)
		return typesystem.Float{}
	case ast.OpDivide:
		c.chunk.WriteOp(OpDivF64, line, col)
		return typesystem.Float{}
	case ast.OpGreater:
		c.chunk.WriteOp(OpGreaterF64, line, col)
		return typesystem.Bool{}
	case ast.OpLesser:
		c.chunk.WriteOp(OpLesserF64, line, col)
		return typesystem.Bool{}
	case ast.OpGreaterEqual:
		c.chunk.WriteOp(OpLesserF64, line, col)
		c.chunk.WriteOp(OpNot, line, col)
		return typesystem.Bool{}
	case ast.OpLesserEqual:
		c.chunk.WriteOp(OpGreaterF64, line, col)
		c.chunk.WriteOp(OpNot, line, col)
		return typesystem.Bool{}
	case ast.OpEqual, ast.OpNotEqual:
		if lt.Width() == 8 {
			c.chunk.WriteOp(OpEqualU64, line, col)
		} else {
			c.chunk.WriteOp(OpEqualU8, line, col)
		}
		if e.Op == ast.OpNotEqual {
			c.chunk.WriteOp(OpNot, line, col)
		}
		return typesystem.Bool{}
	}
	return typesystem.Nil{}
}

// compileFunctionLiteral compiles a nested function body into its own
// chunk. A literal with no captures yields a plain Function value; one
// with captures evaluates each captured heap address, IncreaseRCs it, and
// emits MakeClosure.
func (c *Compiler) compileFunctionLiteral(e *ast.FunctionLiteral) typesystem.Type {
	idx := uint16(len(c.program.Chunks))
	c.program.Chunks = append(c.program.Chunks, NewChunk())
	c.compileFunctionBody(e, idx)

	line, col := e.Tok.Line, e.Tok.Column
	if !e.IsClosure {
		c.chunk.WriteOp(OpFunction, line, col)
		c.chunk.WriteU16(idx, line, col)
		argTypes := paramTypes(e.Params)
		return typesystem.Function{Args: argTypes, Ret: e.RetType}
	}

	for _, cap := range e.Captured {
		local, _ := c.resolveLocal(cap.Name)
		c.chunk.WriteOp(VariableOpFor(4), line, col) // HeapAllocated locals are always 4 bytes
		c.chunk.WriteU16(uint16(local.Offset), line, col)
		c.chunk.WriteOp(OpIncreaseRC, line, col)
	}
	c.chunk.WriteOp(OpMakeClosure, line, col)
	c.chunk.WriteU16(idx, line, col)
	c.chunk.WriteU8(uint8(len(e.Captured)), line, col)
	argTypes := paramTypes(e.Params)
	return typesystem.Closure{Args: argTypes, Ret: e.RetType}
}

func paramTypes(params []ast.Param) []typesystem.Type {
	out := make([]typesystem.Type, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

// compileArgsWithRC compiles each argument left-to-right, bumping the
// refcount of any heap-bearing one right after it lands on the stack — but
// only when the argument expression aliases an existing binding. The
// callee's own scope exit will decrement every heap-bearing parameter
// exactly once (releaseLocal), so an aliased argument must hand over a
// reference the callee is entitled to release rather than one still owned
// by the binding that produced it; a freshly constructed argument (a
// literal, a call result) already holds its sole claim and needs no bump.
func (c *Compiler) compileArgsWithRC(args []ast.Expression, line, col int) {
	for _, arg := range args {
		t := c.compileExpr(arg)
		if isHeapBearing(t) && isAliasRead(arg) {
			c.chunk.WriteOp(OpIncreaseRC, line, col)
		}
	}
}

// compileCall compiles arguments left-to-right, then the callee, then the
// call-kind-specific invocation opcode (§4.4/§4.7).
func (c *Compiler) compileCall(e *ast.Call) typesystem.Type {
	line, col := e.Tok.Line, e.Tok.Column

	switch e.CallKind {
	case ast.CallEnum:
		var payload typesystem.Type
		if len(e.Args) == 1 {
			payload = c.compileExpr(e.Args[0])
			c.chunk.WriteOp(PopOpFor(payload.Width()), line, col)
		}
		if v, ok := e.Callee.(*ast.Variable); ok {
			if spec, ok := c.findVariant(v.Name); ok {
				c.chunk.WriteOp(OpConstantU8, line, col)
				c.chunk.WriteU8(spec.Tag, line, col)
			}
		}
		return e.ExprType()

	case ast.CallExternal:
		v := e.Callee.(*ast.Variable)
		idx, _ := c.externals.Index(v.Name)
		_, argTypes, retType, _ := c.externals.Lookup(v.Name)
		for _, arg := range e.Args {
			c.compileExpr(arg)
		}
		c.chunk.WriteOp(OpCallExternal, line, col)
		c.chunk.WriteU16(uint16(idx), line, col)
		c.chunk.WriteU8(uint8(e.ArgsWidth), line, col)
		_ = argTypes
		return retType

	case ast.CallClosure:
		c.compileArgsWithRC(e.Args, line, col)
		c.compileExpr(e.Callee)
		c.chunk.WriteOp(OpCallClosure, line, col)
		c.chunk.WriteU8(uint8(e.ArgsWidth), line, col)
		return e.ExprType()

	default: // ast.CallFunction
		c.compileArgsWithRC(e.Args, line, col)
		c.compileExpr(e.Callee)
		c.chunk.WriteOp(OpCall, line, col)
		c.chunk.WriteU8(uint8(e.ArgsWidth), line, col)
		return e.ExprType()
	}
}
