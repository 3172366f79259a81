package typesystem_test

import (
	"testing"

	"github.com/glintlang/glint/internal/typesystem"
)

func TestWidths(t *testing.T) {
	cases := []struct {
		name string
		typ  typesystem.Type
		want int
	}{
		{"Float", typesystem.Float{}, 8},
		{"Bool", typesystem.Bool{}, 1},
		{"String", typesystem.String{}, 4},
		{"Nil", typesystem.Nil{}, 0},
		{"Function", typesystem.Function{}, 2},
		{"Closure", typesystem.Closure{}, 4},
		{"ExternalFunction", typesystem.ExternalFunction{}, 2},
		{"Enum", typesystem.Enum{Name: "Color"}, 1},
		{"EnumVariant", typesystem.EnumVariant{Enum: "Color"}, 1},
		{"HeapAllocated", typesystem.HeapAllocated{Inner: typesystem.Float{}}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.typ.Width(); got != tc.want {
				t.Errorf("got width %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFromName(t *testing.T) {
	cases := []struct {
		name string
		want typesystem.Type
	}{
		{"float", typesystem.Float{}},
		{"bool", typesystem.Bool{}},
		{"str", typesystem.String{}},
		{"nil", typesystem.Nil{}},
	}
	for _, tc := range cases {
		got, ok := typesystem.FromName(tc.name)
		if !ok {
			t.Fatalf("FromName(%q): expected ok", tc.name)
		}
		if !got.Equal(tc.want) {
			t.Errorf("FromName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
	if _, ok := typesystem.FromName("nonexistent"); ok {
		t.Error("expected FromName to reject an unknown type name")
	}
}

func TestFunctionEqualityIgnoresIdentity(t *testing.T) {
	a := typesystem.Function{Args: []typesystem.Type{typesystem.Float{}}, Ret: typesystem.Bool{}}
	b := typesystem.Function{Args: []typesystem.Type{typesystem.Float{}}, Ret: typesystem.Bool{}}
	if !a.Equal(b) {
		t.Error("expected two structurally identical Function types to be equal")
	}
	c := typesystem.Function{Args: []typesystem.Type{typesystem.String{}}, Ret: typesystem.Bool{}}
	if a.Equal(c) {
		t.Error("expected Function types with different arg types to be unequal")
	}
}

func TestClosureNotEqualToFunction(t *testing.T) {
	closure := typesystem.Closure{Ret: typesystem.Float{}}
	fn := typesystem.Function{Ret: typesystem.Float{}}
	if closure.Equal(fn) {
		t.Error("a Closure and a Function with the same signature must not compare equal")
	}
}

func TestHeapAllocatedWrapsInnerEquality(t *testing.T) {
	a := typesystem.HeapAllocated{Inner: typesystem.String{}}
	b := typesystem.HeapAllocated{Inner: typesystem.String{}}
	if !a.Equal(b) {
		t.Error("expected HeapAllocated wrapping the same inner type to be equal")
	}
	c := typesystem.HeapAllocated{Inner: typesystem.Float{}}
	if a.Equal(c) {
		t.Error("expected HeapAllocated wrapping different inner types to be unequal")
	}
}

func TestEnumVariantEqualityIgnoresPayload(t *testing.T) {
	a := typesystem.EnumVariant{Enum: "Shape", Payload: typesystem.Float{}}
	b := typesystem.EnumVariant{Enum: "Shape"}
	if !a.Equal(b) {
		t.Error("expected EnumVariant equality to compare by enum name only")
	}
}
