// Package ast defines glint's abstract syntax tree. The parser produces
// nodes with empty type-annotation slots (nil Type fields); the type
// checker fills them in a fixed order before the compiler ever sees them.
//
// The node set is closed and small, so traversal throughout the analyzer
// and compiler uses a plain Go type switch on Node rather than a
// double-dispatch Visitor: for a dozen-odd node kinds a switch is the more
// idiomatic, more debuggable choice, and it is what the rest of this
// repository's sibling packages (lexer, typesystem) already do for their
// own closed sum types.
package ast

import (
	"github.com/glintlang/glint/internal/token"
	"github.com/glintlang/glint/internal/typesystem"
)

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
}

// Statement is implemented by nodes that appear in statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by nodes that appear in expression position and
// carry an annotation slot for their static type, filled by the type
// checker.
type Expression interface {
	Node
	expressionNode()
	ExprType() typesystem.Type
	SetExprType(typesystem.Type)
}

// ExprBase factors the annotation slot shared by every expression node.
type ExprBase struct {
	Tok  token.Token
	Type typesystem.Type
}

func (e *ExprBase) TokenLiteral() string         { return e.Tok.Lexeme }
func (e *ExprBase) expressionNode()              {}
func (e *ExprBase) ExprType() typesystem.Type     { return e.Type }
func (e *ExprBase) SetExprType(t typesystem.Type) { e.Type = t }

// ---- literals ----

type FloatLiteral struct {
	ExprBase
	Value float64
}

type BoolLiteral struct {
	ExprBase
	Value bool
}

type StringLiteral struct {
	ExprBase
	Value string
}

// ---- variables ----

// Variable is a read reference to a local, global, or external name.
type Variable struct {
	ExprBase
	Name string
}

// Assign compiles an assignment expression `name = value`. MoveToHeap is
// filled by the type checker: true when the target is HeapAllocated(T) and
// value is T (so the compiler must write through the heap address rather
// than overwrite the local slot).
type Assign struct {
	ExprBase
	Name       string
	Value      Expression
	MoveToHeap bool
}

// ---- unary / binary operators ----

type Negate struct {
	ExprBase
	Right Expression
}

type Not struct {
	ExprBase
	Right Expression
}

// BinaryOp enumerates the binary operators named individually in the
// specification (Multiply, Divide, Add, Sub, Equal, NotEqual, Greater,
// GreaterEqual, Lesser, LesserEqual, And, Or). They share one node shape
// because every consumer (type checker, compiler) dispatches on the
// operator, not the node's Go type.
type BinaryOp int

const (
	OpMultiply BinaryOp = iota
	OpDivide
	OpAdd
	OpSub
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLesser
	OpLesserEqual
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpLesser:
		return "<"
	case OpLesserEqual:
		return "<="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	}
	return "?"
}

type Binary struct {
	ExprBase
	Op    BinaryOp
	Left  Expression
	Right Expression
}

// ---- functions & calls ----

// Param is a named, statically-typed function parameter.
type Param struct {
	Name string
	Type typesystem.Type
}

// Capture is a name referenced inside a function literal's body but not
// declared inside it. The parser supplies the bare name; the type checker
// resolves ResolvedType against the enclosing scope.
type Capture struct {
	Name         string
	ResolvedType typesystem.Type
}

// FunctionLiteral is `fun(args) type? { body }`, anonymous or bound to a
// name by an enclosing FuncDeclaration.
type FunctionLiteral struct {
	ExprBase
	Params    []Param
	Captured  []Capture
	RetType   typesystem.Type
	Body      *Block
	IsClosure bool // filled by the type checker: true iff len(Captured) > 0
	ChunkID   int  // filled by the compiler: index into the program's chunk list
}

// CallKind classifies a Call's callee, resolved by the type checker per
// §4.3 ("classifies as Function | Closure | External | Enum").
type CallKind int

const (
	CallFunction CallKind = iota
	CallClosure
	CallExternal
	CallEnum
)

// Call is `callee(args...)`. ArgsWidth is the sum of each argument's static
// type width, filled by the type checker and consumed by the compiler to
// emit `Call args_width8`.
type Call struct {
	ExprBase
	Callee    Expression
	Args      []Expression
	ArgsWidth int
	CallKind  CallKind
}

// ---- statements ----

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

type StmtBase struct {
	Tok token.Token
}

func (s *StmtBase) TokenLiteral() string { return s.Tok.Lexeme }
func (s *StmtBase) statementNode()       {}

type Block struct {
	StmtBase
	Statements []Statement
}

type PrintStmt struct {
	StmtBase
	Value Expression
}

type ReturnStmt struct {
	StmtBase
	Value Expression // nil for bare `return;`
}

type ExprStatement struct {
	StmtBase
	Expr Expression
}

// Declaration is `var name = expr;`.
type Declaration struct {
	StmtBase
	Name  string
	Value Expression
	Type  typesystem.Type // filled by the type checker
}

// FuncDeclaration binds a FunctionLiteral to a top-level name.
type FuncDeclaration struct {
	StmtBase
	Name      string
	Fn        *FunctionLiteral
	ArgsTypes []typesystem.Type
	RetType   typesystem.Type
}

// EnumVariantSpec is one `ident (':' type)?` entry of an enum declaration.
type EnumVariantSpec struct {
	Name    string
	Payload typesystem.Type // nil if the variant carries no payload
	Tag     uint8           // assigned by the parser, in declaration order
}

type EnumDeclaration struct {
	StmtBase
	Name     string
	Variants []EnumVariantSpec
}

type IfStmt struct {
	StmtBase
	Cond Expression
	Then Statement
	Else Statement // nil if there is no else branch
}

type WhileStmt struct {
	StmtBase
	Cond Expression
	Body Statement
}

// SwitchCase is one `case variant: statements...` arm.
type SwitchCase struct {
	VariantName string
	Tag         uint8
	Body        []Statement
}

type SwitchStmt struct {
	StmtBase
	Subject Expression
	Cases   []SwitchCase
	Default []Statement // nil if there is no default arm
}
