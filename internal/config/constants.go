// Package config centralizes glint's fixed vocabularies — the keyword table,
// the type-name vocabulary surfaced in diagnostics, and VM tuning constants —
// instead of scattering magic strings through the lexer/parser/analyzer, the
// way the teacher's own internal/config/constants.go does for its (much
// larger) builtin surface.
package config

const SourceFileExt = ".glint"

// SoftKeywords are identifiers the parser recognizes contextually (decl and
// switch-case position) rather than reserving lexer-wide, since `token.
// Keywords` already owns the hard-reserved vocabulary.
var SoftKeywords = []string{"enum", "switch", "case", "default"}

// TypeNames are the surface type annotation spellings the parser and
// diagnostics recognize, per typesystem.FromName.
var TypeNames = []string{"float", "bool", "str", "nil"}

// InitialStackCapacity and InitialHeapCapacity size the VM's operand stack
// byte vector and heap slot slice before their first growth, mirroring the
// teacher's habit of centralizing tuning constants rather than leaving bare
// numeric literals in vm_exec.go.
const (
	InitialStackCapacity = 1024
	InitialHeapCapacity  = 64
)
