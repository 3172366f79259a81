// Package diagnostics implements the four phase-tagged error kinds produced
// by the glint pipeline (lex, parse, type-check, runtime).
package diagnostics

import (
	"fmt"

	"github.com/glintlang/glint/internal/token"
)

// Phase identifies which pipeline stage raised an error.
type Phase string

const (
	PhaseLexer   Phase = "lexer"
	PhaseParser  Phase = "parser"
	PhaseTypes   Phase = "types"
	PhaseRuntime Phase = "runtime"
)

// ErrorCode is a stable, phase-scoped identifier for an error template.
type ErrorCode string

const (
	// Lexer
	ErrL001 ErrorCode = "L001" // invalid character
	ErrL002 ErrorCode = "L002" // unterminated string literal
	ErrL003 ErrorCode = "L003" // malformed number literal

	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token

	// Type checker
	ErrA001 ErrorCode = "A001" // undeclared variable
	ErrA002 ErrorCode = "A002" // function/enum declared outside root scope
	ErrA003 ErrorCode = "A003" // type mismatch
	ErrA004 ErrorCode = "A004" // assignment to non-local or bad assignment type
	ErrA005 ErrorCode = "A005" // call arity/type mismatch
	ErrA006 ErrorCode = "A006" // non-Nil function does not diverge
	ErrA007 ErrorCode = "A007" // print of non-printable type
	ErrA008 ErrorCode = "A008" // enum/switch error
	ErrABlk ErrorCode = "ABLK" // aggregated block errors

	// Runtime
	ErrR001 ErrorCode = "R001" // fatal runtime fault
)

var errorTemplates = map[ErrorCode]string{
	ErrL001: "invalid character %q",
	ErrL002: "unterminated string literal",
	ErrL003: "malformed number literal %q",
	ErrP001: "unexpected token: %s",
	ErrA001: "undeclared variable %q",
	ErrA002: "%s declaration only allowed at top level",
	ErrA003: "%s",
	ErrA004: "%s",
	ErrA005: "%s",
	ErrA006: "function %q with non-nil return type %s must return on every path",
	ErrA007: "print does not support type %s",
	ErrA008: "%s",
	ErrABlk: "%d error(s) in block",
	ErrR001: "%s",
}

// DiagnosticError is the single error type flowing out of every pipeline
// phase; Phase+Code classify it and Token (when known) carries its source
// position.
type DiagnosticError struct {
	Code  ErrorCode
	Phase Phase
	Args  []interface{}
	Token token.Token
	File  string
	Hint  string

	// Block aggregates nested errors found while checking a single block or
	// program, per the rule that a block reports every error it finds.
	Block []*DiagnosticError
}

func (e *DiagnosticError) Error() string {
	if e.Code == ErrABlk && len(e.Block) > 0 {
		msg := fmt.Sprintf("%d error(s):", len(e.Block))
		for _, sub := range e.Block {
			msg += "\n  " + sub.Error()
		}
		return msg
	}

	template, ok := errorTemplates[e.Code]
	if !ok {
		template = "unknown error"
	}
	message := fmt.Sprintf(template, e.Args...)

	prefix := ""
	if e.File != "" {
		prefix = fmt.Sprintf("%s: ", e.File)
	}
	phaseStr := ""
	if e.Phase != "" {
		phaseStr = fmt.Sprintf("[%s] ", e.Phase)
	}
	if e.Token.Line > 0 {
		return fmt.Sprintf("%s%serror at %d:%d [%s]: %s", prefix, phaseStr, e.Token.Line, e.Token.Column, e.Code, message)
	}
	return fmt.Sprintf("%s%serror [%s]: %s", prefix, phaseStr, e.Code, message)
}

// NewLexError builds a Lex-phase error at the given byte offset, matching
// §7's Parse(pos)/Unescaped(pos) kinds.
func NewLexError(code ErrorCode, pos int, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:  code,
		Phase: PhaseLexer,
		Args:  args,
		Token: token.Token{Start: pos, End: pos},
	}
}

// NewParseError builds a Parser-phase UnexpectedToken error.
func NewParseError(tok token.Token, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:  ErrP001,
		Phase: PhaseParser,
		Token: tok,
		Args:  args,
	}
}

// NewTypeError builds a Type-phase error carrying a source position.
func NewTypeError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:  code,
		Phase: PhaseTypes,
		Token: tok,
		Args:  args,
	}
}

// BlockErrors aggregates multiple type errors discovered while checking one
// block or program, per §7 rule 3 ("a block reports all errors it found").
func BlockErrors(errs []*DiagnosticError) *DiagnosticError {
	return &DiagnosticError{
		Code:  ErrABlk,
		Phase: PhaseTypes,
		Block: errs,
	}
}

// NewRuntimeError builds a fatal Runtime-phase error.
func NewRuntimeError(format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:  ErrR001,
		Phase: PhaseRuntime,
		Args:  []interface{}{fmt.Sprintf(format, args...)},
	}
}
