// Package analyzer implements glint's type checker: a single traversal of
// the parsed tree that fills every annotation slot the parser leaves empty
// (expression types, call kinds, argument widths, capture types,
// heap-promotion flags) and enforces the scoping, divergence, and operator
// rules of §4.3. Grounded directly on the distilled type-checking algorithm
// in the language's original Rust implementation rather than on the
// teacher's Hindley-Milner inference engine, since glint's type system is a
// small closed, fully-annotated set with no inference to perform.
package analyzer

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/diagnostics"
	"github.com/glintlang/glint/internal/ext"
	"github.com/glintlang/glint/internal/pipeline"
	"github.com/glintlang/glint/internal/token"
	"github.com/glintlang/glint/internal/typesystem"
)

// localVar is one entry of the scoped local-variable stack. declType, when
// non-nil, points at the AST field (a Declaration's Type or a Param's Type)
// that mirrors typ, so a later heap-promotion of this local can patch the
// tree the compiler reads instead of only this transient bookkeeping copy.
type localVar struct {
	name     string
	depth    int
	typ      typesystem.Type
	declType *typesystem.Type
}

// funcScope tracks the function currently being checked: its declared
// return type and the set of return-statement types observed so far, used
// by the divergence/return-type-consistency rule.
type funcScope struct {
	retType      typesystem.Type
	seenReturns  []typesystem.Type
	capturable   map[string]bool // names of this function's locals, for capture resolution
	heapPromoted map[string]bool // locals promoted to HeapAllocated because a nested fn captures them
}

// Analyzer performs the single top-to-bottom pass described in §4.3.
type Analyzer struct {
	locals []localVar
	depth  int

	globals map[string]typesystem.Type // top-level fun/enum names
	enums   map[string]map[string]ast.EnumVariantSpec

	externals *ext.Registry

	funcs []*funcScope // stack; empty at root scope

	errs []*diagnostics.DiagnosticError
}

// New creates an Analyzer that additionally resolves unrecognized names
// against externals.
func New(externals *ext.Registry) *Analyzer {
	return &Analyzer{
		globals:   map[string]typesystem.Type{},
		enums:     map[string]map[string]ast.EnumVariantSpec{},
		externals: externals,
	}
}

func (a *Analyzer) errorf(code diagnostics.ErrorCode, tok token.Token, args ...interface{}) {
	a.errs = append(a.errs, diagnostics.NewTypeError(code, tok, args...))
}

func (a *Analyzer) pushScope()    { a.depth++ }
func (a *Analyzer) popScope() {
	a.depth--
	n := len(a.locals)
	for n > 0 && a.locals[n-1].depth > a.depth {
		n--
	}
	a.locals = a.locals[:n]
}

func (a *Analyzer) declareLocal(name string, t typesystem.Type) {
	a.declareLocalBacked(name, t, nil)
}

// declareLocalBacked is declareLocal for a local whose type also needs to be
// kept in sync with an AST field once the compiler starts reading the tree.
func (a *Analyzer) declareLocalBacked(name string, t typesystem.Type, declType *typesystem.Type) {
	a.locals = append(a.locals, localVar{name: name, depth: a.depth, typ: t, declType: declType})
	if len(a.funcs) > 0 {
		a.funcs[len(a.funcs)-1].capturable[name] = true
	}
}

func (a *Analyzer) resolveLocal(name string) (typesystem.Type, bool) {
	for i := len(a.locals) - 1; i >= 0; i-- {
		if a.locals[i].name == name {
			return a.locals[i].typ, true
		}
	}
	return nil, false
}

func (a *Analyzer) markPromoted(name string) {
	if len(a.funcs) == 0 {
		return
	}
	a.funcs[len(a.funcs)-1].heapPromoted[name] = true
	for i := len(a.locals) - 1; i >= 0; i-- {
		if a.locals[i].name == name {
			if _, already := a.locals[i].typ.(typesystem.HeapAllocated); !already {
				promoted := typesystem.HeapAllocated{Inner: a.locals[i].typ}
				a.locals[i].typ = promoted
				if a.locals[i].declType != nil {
					*a.locals[i].declType = promoted
				}
			}
			return
		}
	}
}

// Check type-checks prog, returning the (possibly empty) set of errors. A
// non-empty result means the tree is not safe to compile.
func (a *Analyzer) Check(prog *ast.Program) []*diagnostics.DiagnosticError {
	var blockErrs []*diagnostics.DiagnosticError
	for _, stmt := range prog.Statements {
		if err := a.checkTopLevelDecl(stmt); err != nil {
			blockErrs = append(blockErrs, err)
		}
	}
	_, _ = a.checkStatements(prog.Statements, true)
	blockErrs = append(blockErrs, a.errs...)
	if len(blockErrs) == 0 {
		return nil
	}
	return []*diagnostics.DiagnosticError{diagnostics.BlockErrors(blockErrs)}
}

// checkTopLevelDecl pre-registers function and enum names so forward and
// mutually-recursive references resolve, per §4.3 "function/enum
// declarations permitted only at root scope, depth 0".
func (a *Analyzer) checkTopLevelDecl(stmt ast.Statement) *diagnostics.DiagnosticError {
	switch s := stmt.(type) {
	case *ast.FuncDeclaration:
		argTypes := make([]typesystem.Type, len(s.Fn.Params))
		for i, p := range s.Fn.Params {
			argTypes[i] = p.Type
		}
		a.globals[s.Name] = typesystem.Function{Args: argTypes, Ret: s.Fn.RetType}
		s.ArgsTypes = argTypes
		s.RetType = s.Fn.RetType
	case *ast.EnumDeclaration:
		variants := map[string]ast.EnumVariantSpec{}
		for _, v := range s.Variants {
			variants[v.Name] = v
			a.globals[v.Name] = typesystem.EnumVariant{Enum: s.Name, Payload: v.Payload}
		}
		a.enums[s.Name] = variants
	}
	return nil
}

// checkStatements checks stmts in order and reports whether any of them
// diverges (returns on every execution path).
func (a *Analyzer) checkStatements(stmts []ast.Statement, isRoot bool) (diverges bool, _ typesystem.Type) {
	for _, stmt := range stmts {
		if d := a.checkStatement(stmt, isRoot); d {
			diverges = true
		}
	}
	return diverges, nil
}

func (a *Analyzer) checkStatement(stmt ast.Statement, isRoot bool) bool {
	switch s := stmt.(type) {
	case *ast.Declaration:
		t := a.checkExpr(s.Value)
		s.Type = t
		a.declareLocalBacked(s.Name, t, &s.Type)
		return false

	case *ast.FuncDeclaration:
		if !isRoot {
			a.errorf(diagnostics.ErrA002, s.Tok, "function")
			return false
		}
		a.checkFunctionBody(s.Name, s.Fn, s.RetType)
		a.declareLocal(s.Name, typesystem.Function{Args: s.ArgsTypes, Ret: s.RetType})
		return false

	case *ast.EnumDeclaration:
		if !isRoot {
			a.errorf(diagnostics.ErrA002, s.Tok, "enum")
		}
		return false

	case *ast.PrintStmt:
		t := a.checkExpr(s.Value)
		switch t.(type) {
		case typesystem.Float, typesystem.Bool, typesystem.String:
		default:
			a.errorf(diagnostics.ErrA007, s.Tok, typeName(t))
		}
		return false

	case *ast.ReturnStmt:
		var t typesystem.Type = typesystem.Nil{}
		if s.Value != nil {
			t = a.checkExpr(s.Value)
		}
		if len(a.funcs) > 0 {
			fs := a.funcs[len(a.funcs)-1]
			fs.seenReturns = append(fs.seenReturns, t)
		}
		return true

	case *ast.ExprStatement:
		a.checkExpr(s.Expr)
		return false

	case *ast.Block:
		a.pushScope()
		d, _ := a.checkStatements(s.Statements, false)
		a.popScope()
		return d

	case *ast.IfStmt:
		a.checkExpr(s.Cond)
		thenDiverges := a.checkStatement(s.Then, false)
		if s.Else == nil {
			return false
		}
		elseDiverges := a.checkStatement(s.Else, false)
		return thenDiverges && elseDiverges

	case *ast.WhileStmt:
		a.checkExpr(s.Cond)
		return a.checkStatement(s.Body, false)

	case *ast.SwitchStmt:
		a.checkExpr(s.Subject)
		allDiverge := s.Default != nil
		if s.Default != nil {
			a.pushScope()
			d, _ := a.checkStatements(s.Default, false)
			a.popScope()
			allDiverge = allDiverge && d
		}
		for i := range s.Cases {
			c := &s.Cases[i]
			if spec, ok := a.findVariant(c.VariantName); ok {
				c.Tag = spec.Tag
			}
			a.pushScope()
			d, _ := a.checkStatements(c.Body, false)
			a.popScope()
			allDiverge = allDiverge && d
		}
		return allDiverge
	}
	return false
}

func (a *Analyzer) findVariant(name string) (ast.EnumVariantSpec, bool) {
	for _, variants := range a.enums {
		if v, ok := variants[name]; ok {
			return v, true
		}
	}
	return ast.EnumVariantSpec{}, false
}

// checkFunctionBody type-checks a function literal's body in a fresh
// local/function scope and verifies its divergence obligation (§4.3:
// "Function body must either have no return and declared ret=Nil, or be
// diverging").
func (a *Analyzer) checkFunctionBody(name string, fn *ast.FunctionLiteral, retType typesystem.Type) {
	fs := &funcScope{retType: retType, capturable: map[string]bool{}, heapPromoted: map[string]bool{}}
	a.funcs = append(a.funcs, fs)
	a.pushScope()

	for i, p := range fn.Params {
		a.declareLocalBacked(p.Name, p.Type, &fn.Params[i].Type)
	}
	for i, cap := range fn.Captured {
		if _, ok := a.resolveLocal(cap.Name); !ok {
			a.errorf(diagnostics.ErrA001, fn.Tok, cap.Name)
			continue
		}
		a.markPromoted(cap.Name)
		ht, _ := a.resolveLocal(cap.Name)
		fn.Captured[i].ResolvedType = ht
	}
	fn.IsClosure = len(fn.Captured) > 0
	for _, cap := range fn.Captured {
		a.declareLocal(cap.Name, cap.ResolvedType)
	}

	diverges, _ := a.checkStatements(fn.Body.Statements, false)

	if _, isNil := retType.(typesystem.Nil); !isNil && retType != nil {
		if !diverges {
			a.errorf(diagnostics.ErrA006, fn.Tok, name, typeName(retType))
		}
		for _, seen := range fs.seenReturns {
			if !seen.Equal(retType) {
				a.errorf(diagnostics.ErrA003, fn.Tok, "return type mismatch: expected "+typeName(retType)+", got "+typeName(seen))
			}
		}
	}

	a.popScope()
	a.funcs = a.funcs[:len(a.funcs)-1]
}

func typeName(t typesystem.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}

// Processor is the analyzer's pipeline.Processor stage.
type Processor struct {
	Externals *ext.Registry
}

func (pr *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if len(ctx.Errors) > 0 || ctx.AstRoot == nil {
		return ctx
	}
	a := New(pr.Externals)
	errs := a.Check(ctx.AstRoot)
	for _, e := range errs {
		e.File = ctx.FilePath
	}
	ctx.AddErrors(errs...)
	return ctx
}
