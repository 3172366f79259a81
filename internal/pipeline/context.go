package pipeline

import (
	"github.com/glintlang/glint/internal/ast"
	"github.com/glintlang/glint/internal/diagnostics"
)

// PipelineContext holds all the data passed between the front-end pipeline
// stages: lexer -> parser -> type checker. Compilation and execution are
// invoked directly by the caller once the context carries an error-free
// AstRoot, rather than as further Processor stages; the context has no
// field for compiled chunks.
type PipelineContext struct {
	SourceCode string
	FilePath   string

	TokenStream TokenStream
	AstRoot     *ast.Program

	Errors []*diagnostics.DiagnosticError
}

// NewPipelineContext creates and initializes a new PipelineContext.
func NewPipelineContext(source, file string) *PipelineContext {
	return &PipelineContext{
		SourceCode: source,
		FilePath:   file,
		Errors:     []*diagnostics.DiagnosticError{},
	}
}

// AddErrors appends any non-nil diagnostics to the context's error list.
func (c *PipelineContext) AddErrors(errs ...*diagnostics.DiagnosticError) {
	for _, e := range errs {
		if e != nil {
			c.Errors = append(c.Errors, e)
		}
	}
}
