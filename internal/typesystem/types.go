// Package typesystem defines glint's closed, non-generic static type set and
// the fixed byte width each type occupies on the operand stack.
package typesystem

import "fmt"

// Type is implemented by every member of the closed type set. Unlike a
// general Hindley-Milner type, there is no substitution or unification here:
// the set is closed and every type knows its own runtime width.
type Type interface {
	String() string
	// Width returns the number of bytes a value of this type occupies on
	// the operand stack or in a local slot.
	Width() int
	// Equal reports whether two types denote the same static type.
	Equal(other Type) bool
}

// Float is the language's only numeric type, an IEEE-754 double.
type Float struct{}

func (Float) String() string        { return "float" }
func (Float) Width() int            { return 8 }
func (Float) Equal(o Type) bool     { _, ok := o.(Float); return ok }

// Bool is a one-byte boolean.
type Bool struct{}

func (Bool) String() string    { return "bool" }
func (Bool) Width() int        { return 1 }
func (Bool) Equal(o Type) bool { _, ok := o.(Bool); return ok }

// String is a heap-resident UTF-8 string, referenced by a 4-byte heap
// address.
type String struct{}

func (String) String() string    { return "str" }
func (String) Width() int        { return 4 }
func (String) Equal(o Type) bool { _, ok := o.(String); return ok }

// Nil is the unit type returned by functions with no return value. It has no
// runtime width: it never occupies stack space.
type Nil struct{}

func (Nil) String() string    { return "nil" }
func (Nil) Width() int        { return 0 }
func (Nil) Equal(o Type) bool { _, ok := o.(Nil); return ok }

// Function is a plain, non-capturing function (a top-level declaration or a
// function literal with no captures), represented on the stack by its
// 2-byte chunk index.
type Function struct {
	Args []Type
	Ret  Type
}

func (f Function) String() string {
	return fmt.Sprintf("fun(%s)%s", joinTypes(f.Args), f.Ret)
}
func (Function) Width() int { return 2 }
func (f Function) Equal(o Type) bool {
	g, ok := o.(Function)
	return ok && sameArgs(f.Args, g.Args) && f.Ret.Equal(g.Ret)
}

// Closure is a function literal that captured at least one outer variable;
// represented by a 4-byte heap address pointing at a Closure heap object.
type Closure struct {
	Args []Type
	Ret  Type
}

func (c Closure) String() string {
	return fmt.Sprintf("closure(%s)%s", joinTypes(c.Args), c.Ret)
}
func (Closure) Width() int { return 4 }
func (c Closure) Equal(o Type) bool {
	d, ok := o.(Closure)
	return ok && sameArgs(c.Args, d.Args) && c.Ret.Equal(d.Ret)
}

// ExternalFunction is a host function registered in the externals registry,
// represented by its 2-byte external index.
type ExternalFunction struct {
	Args []Type
	Ret  Type
}

func (e ExternalFunction) String() string {
	return fmt.Sprintf("external(%s)%s", joinTypes(e.Args), e.Ret)
}
func (ExternalFunction) Width() int { return 2 }
func (e ExternalFunction) Equal(o Type) bool {
	f, ok := o.(ExternalFunction)
	return ok && sameArgs(e.Args, f.Args) && e.Ret.Equal(f.Ret)
}

// Enum is a one-byte discriminant type identified by its declared name.
type Enum struct {
	Name string
}

func (e Enum) String() string    { return e.Name }
func (Enum) Width() int          { return 1 }
func (e Enum) Equal(o Type) bool { f, ok := o.(Enum); return ok && e.Name == f.Name }

// EnumVariant is the type of a single bare variant reference before it is
// used in a value position; it carries no independent runtime width because
// it collapses to its owning Enum's width once compiled.
type EnumVariant struct {
	Enum    string
	Payload Type
}

func (v EnumVariant) String() string {
	if v.Payload != nil {
		return fmt.Sprintf("%s(%s)", v.Enum, v.Payload)
	}
	return v.Enum
}
func (EnumVariant) Width() int { return 1 }
func (v EnumVariant) Equal(o Type) bool {
	w, ok := o.(EnumVariant)
	return ok && v.Enum == w.Enum
}

// HeapAllocated wraps a value type that has been promoted onto the heap
// because an inner function literal captures it. It has the heap address
// width (4 bytes) regardless of the wrapped type's own width.
type HeapAllocated struct {
	Inner Type
}

func (h HeapAllocated) String() string    { return fmt.Sprintf("heap(%s)", h.Inner) }
func (HeapAllocated) Width() int          { return 4 }
func (h HeapAllocated) Equal(o Type) bool {
	g, ok := o.(HeapAllocated)
	return ok && h.Inner.Equal(g.Inner)
}

func sameArgs(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func joinTypes(ts []Type) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s
}

// FromName resolves a surface type annotation name to its Type, as consulted
// by the parser and type checker for `str | float | bool` annotations.
func FromName(name string) (Type, bool) {
	switch name {
	case "float":
		return Float{}, true
	case "bool":
		return Bool{}, true
	case "str":
		return String{}, true
	case "nil":
		return Nil{}, true
	}
	return nil, false
}
