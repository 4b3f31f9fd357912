package sign

import (
	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/namespace"
	"github.com/roach88/seasign/internal/tree"
	"github.com/roach88/seasign/internal/ty"
)

// Output pairs the namespace output with the signed tree built from it.
type Output struct {
	Namespace *namespace.Output
	Tree      *tree.Tree[Signed]
}

// Signed maps every signed name in a namespace to its signature.
type Signed map[string]Signature

// Signature is one of *StructSignature, *EnumSignature,
// *FunctionSignature or BuiltinSignature.
type Signature interface {
	signature()
}

// ClassSignature is implemented by the two class kinds.
type ClassSignature interface {
	Signature
	classSignature()
}

// StructSignature is a class treated as a struct. Accounts are structs
// with IsAccount set.
type StructSignature struct {
	IsAccount bool
	Bases     []ty.Ty
	Fields    map[string]ty.Ty
}

// EnumSignature is a class with the Enum base. Variant payloads are not
// kept at this phase.
type EnumSignature struct {
	Variants map[string]struct{}
}

// Param is one function parameter.
type Param struct {
	Name string
	Ty   ty.Ty
	Kind ty.ParamType
}

// FunctionSignature is a top-level `def`. Param order is significant.
type FunctionSignature struct {
	Params  []Param
	Returns ty.Ty
}

// BuiltinSignature wraps an intrinsic exported by a namespace.
type BuiltinSignature struct {
	Builtin builtin.Builtin
}

func (*StructSignature) signature()   {}
func (*EnumSignature) signature()     {}
func (*FunctionSignature) signature() {}
func (BuiltinSignature) signature()   {}

func (*StructSignature) classSignature() {}
func (*EnumSignature) classSignature()   {}

// Kind returns the classification of a reference to this class.
func (s *StructSignature) Kind() ty.DefinedType {
	if s.IsAccount {
		return ty.Account
	}
	return ty.Struct
}

// HasVariant reports whether name is a variant of the enum.
func (s *EnumSignature) HasVariant(name string) bool {
	_, ok := s.Variants[name]
	return ok
}

// Lookup returns the signature at a definition path (module path plus
// name).
func (o *Output) Lookup(path tree.Path) (Signature, bool) {
	return lookup(o.Tree, path)
}

func lookup(t *tree.Tree[Signed], path tree.Path) (Signature, bool) {
	if len(path) == 0 {
		return nil, false
	}
	module, name := path.Split()
	signed, ok := t.Lookup(module)
	if !ok {
		return nil, false
	}
	sig, ok := signed[name]
	return sig, ok
}
