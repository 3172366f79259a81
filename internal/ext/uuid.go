package ext

import (
	"github.com/google/uuid"

	"github.com/glintlang/glint/internal/typesystem"
)

// uuidExternal is `uuid_new() str`, a zero-argument external returning a
// freshly generated random UUID as its canonical string form.
func uuidExternal() External {
	return External{
		Name: "uuid_new",
		Args: nil,
		Ret:  typesystem.String{},
		Fn: func(args []Value) (Value, error) {
			return Value{Str: uuid.NewString()}, nil
		},
	}
}
