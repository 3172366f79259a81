package analyzer

import (
	"fmt"

	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/diagnostics"
	"github.com/glintlang/glint/internal/token"
	"github.com/glintlang/glint/internal/typesystem"
)

// checkExpr type-checks expr, stamps its resolved type onto the node, and
// returns that type.
func (a *Analyzer) checkExpr(expr ast.Expression) typesystem.Type {
	var t typesystem.Type
	switch e := expr.(type) {
	case *ast.FloatLiteral:
		t = typesystem.Float{}

	case *ast.BoolLiteral:
		t = typesystem.Bool{}

	case *ast.StringLiteral:
		t = typesystem.String{}

	case *ast.Variable:
		t = a.checkVariable(e)

	case *ast.Assign:
		t = a.checkAssign(e)

	case *ast.Negate:
		rt := a.checkExpr(e.Right)
		if _, ok := rt.(typesystem.Float); !ok {
			a.errorf(diagnostics.ErrA003, e.Tok, "unary - requires float, got "+typeName(rt))
		}
		t = typesystem.Float{}

	case *ast.Not:
		rt := a.checkExpr(e.Right)
		if _, ok := rt.(typesystem.Bool); !ok {
			a.errorf(diagnostics.ErrA003, e.Tok, "! requires bool, got "+typeName(rt))
		}
		t = typesystem.Bool{}

	case *ast.Binary:
		t = a.checkBinary(e)

	case *ast.FunctionLiteral:
		t = a.checkFunctionLiteral(e)

	case *ast.Call:
		t = a.checkCall(e)

	default:
		t = typesystem.Nil{}
	}
	expr.SetExprType(t)
	return t
}

func (a *Analyzer) checkVariable(e *ast.Variable) typesystem.Type {
	if t, ok := a.resolveLocal(e.Name); ok {
		if ha, promoted := t.(typesystem.HeapAllocated); promoted {
			return ha.Inner
		}
		return t
	}
	if t, ok := a.globals[e.Name]; ok {
		return t
	}
	if a.externals != nil {
		if t, _, _, ok := a.externals.Lookup(e.Name); ok {
			return t
		}
	}
	a.errorf(diagnostics.ErrA001, e.Tok, e.Name)
	return typesystem.Nil{}
}

// checkAssign implements §4.3's Assign rule: target must be a local; plain
// type match keeps MoveToHeap false; a HeapAllocated(T) target assigned a
// bare T sets MoveToHeap so the compiler writes through the cell instead of
// the local slot.
func (a *Analyzer) checkAssign(e *ast.Assign) typesystem.Type {
	localType, ok := a.resolveLocal(e.Name)
	if !ok {
		if _, isGlobal := a.globals[e.Name]; isGlobal {
			a.errorf(diagnostics.ErrA004, e.Tok, "cannot assign to global "+e.Name)
		} else {
			a.errorf(diagnostics.ErrA001, e.Tok, e.Name)
		}
		return a.checkExpr(e.Value)
	}
	valueType := a.checkExpr(e.Value)

	if localType.Equal(valueType) {
		e.MoveToHeap = false
		return localType
	}
	if ha, isHeap := localType.(typesystem.HeapAllocated); isHeap && ha.Inner.Equal(valueType) {
		e.MoveToHeap = true
		return ha.Inner
	}
	a.errorf(diagnostics.ErrA004, e.Tok, "cannot assign "+typeName(valueType)+" to "+typeName(localType))
	return localType
}

func (a *Analyzer) checkBinary(e *ast.Binary) typesystem.Type {
	lt := a.checkExpr(e.Left)
	rt := a.checkExpr(e.Right)

	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMultiply, ast.OpDivide:
		if !isFloat(lt) || !isFloat(rt) {
			a.errorf(diagnostics.ErrA003, e.Tok, "arithmetic operator requires float operands")
		}
		return typesystem.Float{}

	case ast.OpGreater, ast.OpGreaterEqual, ast.OpLesser, ast.OpLesserEqual:
		if !isFloat(lt) || !isFloat(rt) {
			a.errorf(diagnostics.ErrA003, e.Tok, "comparison operator requires float operands")
		}
		return typesystem.Bool{}

	case ast.OpEqual, ast.OpNotEqual:
		if !lt.Equal(rt) || !isComparable(lt) {
			a.errorf(diagnostics.ErrA003, e.Tok, "equality requires matching comparable operand types")
		}
		return typesystem.Bool{}

	case ast.OpAnd, ast.OpOr:
		if !isBool(lt) || !isBool(rt) {
			a.errorf(diagnostics.ErrA003, e.Tok, "logical operator requires bool operands")
		}
		return typesystem.Bool{}
	}
	return typesystem.Nil{}
}

func isFloat(t typesystem.Type) bool { _, ok := t.(typesystem.Float); return ok }
func isBool(t typesystem.Type) bool  { _, ok := t.(typesystem.Bool); return ok }

func isComparable(t typesystem.Type) bool {
	switch t.(type) {
	case typesystem.Float, typesystem.Bool, typesystem.EnumVariant, typesystem.Enum:
		return true
	}
	return false
}

func (a *Analyzer) checkFunctionLiteral(e *ast.FunctionLiteral) typesystem.Type {
	a.checkFunctionBody("<anonymous>", e, e.RetType)
	argTypes := make([]typesystem.Type, len(e.Params))
	for i, p := range e.Params {
		argTypes[i] = p.Type
	}
	if e.IsClosure {
		return typesystem.Closure{Args: argTypes, Ret: e.RetType}
	}
	return typesystem.Function{Args: argTypes, Ret: e.RetType}
}

// checkCall classifies the callee per §4.3 ("Function | Closure | External |
// Enum"), validates arity/argument types, and records ArgsWidth.
func (a *Analyzer) checkCall(e *ast.Call) typesystem.Type {
	var args []typesystem.Type
	width := 0
	for _, arg := range e.Args {
		t := a.checkExpr(arg)
		args = append(args, t)
		width += t.Width()
	}
	e.ArgsWidth = width

	if v, ok := e.Callee.(*ast.Variable); ok {
		if spec, isVariant := a.findVariant(v.Name); isVariant {
			e.CallKind = ast.CallEnum
			v.SetExprType(typesystem.EnumVariant{Payload: spec.Payload})
			return typesystem.EnumVariant{Payload: spec.Payload}
		}
	}

	calleeType := a.checkExpr(e.Callee)

	switch ct := calleeType.(type) {
	case typesystem.Function:
		e.CallKind = ast.CallFunction
		a.checkArgs(e.Tok, ct.Args, args)
		return ct.Ret
	case typesystem.Closure:
		e.CallKind = ast.CallClosure
		a.checkArgs(e.Tok, ct.Args, args)
		return ct.Ret
	case typesystem.ExternalFunction:
		e.CallKind = ast.CallExternal
		a.checkArgs(e.Tok, ct.Args, args)
		return ct.Ret
	}
	a.errorf(diagnostics.ErrA005, e.Tok, "callee is not callable: "+typeName(calleeType))
	return typesystem.Nil{}
}

func (a *Analyzer) checkArgs(tok token.Token, want []typesystem.Type, got []typesystem.Type) {
	if len(want) != len(got) {
		a.errorf(diagnostics.ErrA005, tok, fmt.Sprintf("expected %d argument(s), got %d", len(want), len(got)))
		return
	}
	for i := range want {
		if want[i] != nil && !want[i].Equal(got[i]) {
			a.errorf(diagnostics.ErrA005, tok, fmt.Sprintf("argument %d: expected %s, got %s", i, typeName(want[i]), typeName(got[i])))
		}
	}
}
