package sign

import (
	"errors"
	"fmt"

	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/ty"
)

// ErrorKind identifies a signing failure.
type ErrorKind int

const (
	// InvalidBase: a base resolves to something other than Account or Enum.
	InvalidBase ErrorKind = iota + 1
	// EnumAccount: a class declares both Account and Enum.
	EnumAccount
	// InvalidEnumVariant: an enum body statement has a type or no value.
	InvalidEnumVariant
	// InvalidClassField: a struct body statement has a value or no type.
	InvalidClassField
	// DuplicateField: a struct field name repeats (strict mode only).
	DuplicateField
	// DuplicateVariant: an enum variant name repeats (strict mode only).
	DuplicateVariant
)

// Signing error codes (E201-E299).
var kindCodes = map[ErrorKind]string{
	InvalidBase:        "E201",
	EnumAccount:        "E202",
	InvalidEnumVariant: "E203",
	InvalidClassField:  "E204",
	DuplicateField:     "E205",
	DuplicateVariant:   "E206",
}

func (k ErrorKind) String() string {
	switch k {
	case InvalidBase:
		return "InvalidBase"
	case EnumAccount:
		return "EnumAccount"
	case InvalidEnumVariant:
		return "InvalidEnumVariant"
	case InvalidClassField:
		return "InvalidClassField"
	case DuplicateField:
		return "DuplicateField"
	case DuplicateVariant:
		return "DuplicateVariant"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a located signing failure.
type Error struct {
	Kind ErrorKind
	Loc  ast.Location
	// Ty is the rejected base for InvalidBase.
	Ty ty.Ty
	// Name is the repeated name for DuplicateField and DuplicateVariant.
	Name string
}

func (e *Error) Code() string           { return kindCodes[e.Kind] }
func (e *Error) Location() ast.Location { return e.Loc }

func (e *Error) Message() string {
	switch e.Kind {
	case InvalidBase:
		return fmt.Sprintf("cannot inherit from %q", e.Ty.String())
	case EnumAccount:
		return "accounts may not be enums"
	case InvalidEnumVariant:
		return "invalid enum variant"
	case InvalidClassField:
		return "invalid class field"
	case DuplicateField:
		return fmt.Sprintf("duplicate class field %q", e.Name)
	case DuplicateVariant:
		return fmt.Sprintf("duplicate enum variant %q", e.Name)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Help() string {
	switch e.Kind {
	case InvalidBase:
		return "Help: inheritance is limited to a few builtin types (Account and Enum)."
	case InvalidEnumVariant:
		return "Help: `Enum` is a special type - you may only define variants like this:\n\n    variant_name = <unique int>"
	case InvalidClassField:
		return "Help: make sure your field has nothing but a type annotation:\n\n    field_name: Type"
	case DuplicateField, DuplicateVariant:
		return "Help: each name may be declared once per class."
	default:
		return ""
	}
}

func (e *Error) Error() string {
	if e.Loc.File != "" || e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Loc, e.Code(), e.Message())
	}
	return fmt.Sprintf("%s: %s", e.Code(), e.Message())
}

// IsKind reports whether err is a signing error of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

func newError(kind ErrorKind, loc ast.Location) *Error {
	return &Error{Kind: kind, Loc: loc}
}
