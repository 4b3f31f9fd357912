// Package ty defines the type expressions attached to signatures.
package ty

import (
	"strings"

	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/tree"
)

// DefinedType classifies a user-defined class reference.
type DefinedType int

const (
	Struct DefinedType = iota
	Account
	Enum
)

func (d DefinedType) String() string {
	switch d {
	case Account:
		return "account"
	case Enum:
		return "enum"
	default:
		return "struct"
	}
}

// ParamType is the passing mode of a function parameter.
type ParamType int

const (
	// Required is the only mode: no default values exist at this phase.
	Required ParamType = iota
)

func (ParamType) String() string {
	return "required"
}

// TyName is the head of a type expression: a builtin or a defined class.
type TyName interface {
	String() string
	tyName()
}

// BuiltinName refers to a compiler intrinsic.
type BuiltinName struct {
	Builtin builtin.Builtin
}

// DefinedName refers to a user class by its absolute definition path
// (module path plus class name).
type DefinedName struct {
	Path tree.Path
	Kind DefinedType
}

func (BuiltinName) tyName() {}
func (DefinedName) tyName() {}

func (n BuiltinName) String() string {
	return n.Builtin.String()
}

func (n DefinedName) String() string {
	return n.Path.Key() + "<" + n.Kind.String() + ">"
}

// Ty is Generic(name, args).
type Ty struct {
	Name TyName
	Args []Ty
}

// Builtin builds a builtin type applied to args.
func Builtin(b builtin.Builtin, args ...Ty) Ty {
	return Ty{Name: BuiltinName{Builtin: b}, Args: args}
}

// Defined builds a defined type reference applied to args.
func Defined(path tree.Path, kind DefinedType, args ...Ty) Ty {
	return Ty{Name: DefinedName{Path: path, Kind: kind}, Args: args}
}

// None is the implicit return type of a function without annotation.
func None() Ty {
	return Builtin(builtin.None)
}

// IsBuiltin reports whether t is headed by b.
func (t Ty) IsBuiltin(b builtin.Builtin) bool {
	n, ok := t.Name.(BuiltinName)
	return ok && n.Builtin == b
}

// Walk calls fn on t and then on every nested argument, depth first.
func (t Ty) Walk(fn func(Ty)) {
	fn(t)
	for _, a := range t.Args {
		a.Walk(fn)
	}
}

func (t Ty) String() string {
	if t.Name == nil {
		return "<nil>"
	}
	if len(t.Args) == 0 {
		return t.Name.String()
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name.String() + "[" + strings.Join(args, ", ") + "]"
}
