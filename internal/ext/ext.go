// Package ext implements glint's host externals: named functions with a
// fixed argument/return type signature that are callable from script code
// but run native Go rather than bytecode. The type checker resolves an
// unqualified call to an external by name (§4.3: a Call classifies as
// External when the callee name matches an entry in this registry and no
// local/global/closure binds it); the VM dispatches through Registry.Call.
package ext

import "github.com/glintlang/glint/internal/typesystem"

// Value is the dynamic value shape passed to and returned from an external.
// The VM marshals stack/heap values into Values before a call and unmarshals
// the single returned Value back onto the stack afterward.
type Value struct {
	Float  float64
	Bool   bool
	Str    string
	IsNil  bool
}

// External is one host-provided function: its static signature plus the Go
// closure that implements it.
type External struct {
	Name string
	Args []typesystem.Type
	Ret  typesystem.Type
	Fn   func(args []Value) (Value, error)
}

// Registry is the fixed table of externals available to a compiled program.
// It is built once at startup (see New) and is otherwise read-only, so it is
// safe to share across concurrent VM instances.
type Registry struct {
	byName map[string]int
	list   []External
}

// New builds the registry of every external glint ships, backed by the
// domain-stack libraries named in SPEC_FULL.md: github.com/google/uuid for
// uuid_new, and modernc.org/sqlite for store_get/store_set.
func New(store *Store) *Registry {
	r := &Registry{byName: map[string]int{}}
	r.register(uuidExternal())
	r.register(storeSetExternal(store))
	r.register(storeGetExternal(store))
	return r
}

func (r *Registry) register(e External) {
	r.byName[e.Name] = len(r.list)
	r.list = append(r.list, e)
}

// Lookup returns an external's signature by name, for the type checker.
func (r *Registry) Lookup(name string) (typesystem.Type, []typesystem.Type, typesystem.Type, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, nil, nil, false
	}
	e := r.list[idx]
	return typesystem.ExternalFunction{Args: e.Args, Ret: e.Ret}, e.Args, e.Ret, true
}

// Index returns the external's fixed slot, for the compiler to bake into a
// CallExternal instruction operand.
func (r *Registry) Index(name string) (int, bool) {
	idx, ok := r.byName[name]
	return idx, ok
}

// At returns the external registered at idx, for the VM's CallExternal
// handler to recover the argument/return signature needed to marshal stack
// bytes into ext.Value and back.
func (r *Registry) At(idx int) (External, bool) {
	if idx < 0 || idx >= len(r.list) {
		return External{}, false
	}
	return r.list[idx], true
}

// Call dispatches to the external at idx, for the VM's CallExternal handler.
func (r *Registry) Call(idx int, args []Value) (Value, error) {
	return r.list[idx].Fn(args)
}
