package sign

import (
	"fmt"
	"slices"

	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/namespace"
	"github.com/roach88/seasign/internal/tree"
	"github.com/roach88/seasign/internal/ty"
)

// Resolver turns an annotation written in module abs into a type.
// *namespace.Output implements it.
type Resolver interface {
	BuildTy(expr ast.Expr, abs tree.Path) (ty.Ty, error)
}

// builder runs the first pass. Every user-defined type it produces is still
// tagged ty.Struct.
type builder struct {
	resolver Resolver
	strict   bool
}

// signNamespace signs every definition and builtin exported by one module.
// Names are visited in sorted order so the first error is deterministic.
// Re-exports and module references carry no signature of their own.
//
// Builtins are keyed by the builtin's own name, which may differ from the
// export name, so they are entered first and a definition of the same name
// always replaces them.
func (b *builder) signNamespace(ns namespace.Namespace, abs tree.Path) (Signed, error) {
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	slices.Sort(names)

	signed := make(Signed, len(ns))
	for _, name := range names {
		if e, ok := ns[name].(namespace.Builtin); ok {
			signed[e.Builtin.Name] = BuiltinSignature{Builtin: e.Builtin}
		}
	}
	for _, name := range names {
		e, ok := ns[name].(namespace.Defined)
		if !ok {
			continue
		}
		sig, err := b.build(e.Def, abs)
		if err != nil {
			return nil, err
		}
		signed[name] = sig
	}
	return signed, nil
}

func (b *builder) build(def ast.TopLevelStatement, abs tree.Path) (Signature, error) {
	var (
		sig Signature
		err error
	)
	switch d := def.(type) {
	case *ast.ClassDef:
		sig, err = b.buildClass(d, abs)
	case *ast.FunctionDef:
		sig, err = b.buildFunction(d, abs)
	default:
		panic(fmt.Sprintf("sign: %T at %s is not a signable definition", def, def.Loc()))
	}
	if err != nil {
		return nil, err
	}
	return sig, nil
}

func (b *builder) buildClass(def *ast.ClassDef, abs tree.Path) (ClassSignature, error) {
	var (
		isAccount bool
		isEnum    bool
		bases     []ty.Ty
	)
	for _, expr := range def.Bases {
		base, err := b.resolver.BuildTy(expr, abs)
		if err != nil {
			return nil, err
		}
		switch {
		case base.IsBuiltin(builtin.Account):
			isAccount = true
			bases = append(bases, base)
		case base.IsBuiltin(builtin.Enum):
			isEnum = true
		default:
			err := newError(InvalidBase, locOr(expr.Loc(), def.At))
			err.Ty = base
			return nil, err
		}
	}

	if isAccount && isEnum {
		return nil, newError(EnumAccount, def.At)
	}
	if isEnum {
		enum, err := b.buildEnum(def)
		if err != nil {
			return nil, err
		}
		return enum, nil
	}
	st, err := b.buildStruct(def, abs, isAccount, bases)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// buildEnum accepts only `name = value` statements.
func (b *builder) buildEnum(def *ast.ClassDef) (*EnumSignature, error) {
	variants := make(map[string]struct{}, len(def.Body))
	for _, stmt := range def.Body {
		field, ok := stmt.(*ast.FieldDef)
		if !ok || field.Ty != nil || field.Value == nil {
			return nil, newError(InvalidEnumVariant, stmt.Loc())
		}
		if _, dup := variants[field.Name]; dup && b.strict {
			err := newError(DuplicateVariant, field.At)
			err.Name = field.Name
			return nil, err
		}
		variants[field.Name] = struct{}{}
	}
	return &EnumSignature{Variants: variants}, nil
}

// buildStruct accepts only `name: Type` statements.
func (b *builder) buildStruct(def *ast.ClassDef, abs tree.Path, isAccount bool, bases []ty.Ty) (*StructSignature, error) {
	fields := make(map[string]ty.Ty, len(def.Body))
	for _, stmt := range def.Body {
		field, ok := stmt.(*ast.FieldDef)
		if !ok || field.Value != nil || field.Ty == nil {
			return nil, newError(InvalidClassField, stmt.Loc())
		}
		if _, dup := fields[field.Name]; dup && b.strict {
			err := newError(DuplicateField, field.At)
			err.Name = field.Name
			return nil, err
		}
		fieldTy, err := b.resolver.BuildTy(field.Ty, abs)
		if err != nil {
			return nil, err
		}
		fields[field.Name] = fieldTy
	}
	return &StructSignature{IsAccount: isAccount, Bases: bases, Fields: fields}, nil
}

func (b *builder) buildFunction(def *ast.FunctionDef, abs tree.Path) (*FunctionSignature, error) {
	params := make([]Param, 0, len(def.Params))
	for _, p := range def.Params {
		if p.Annotation == nil {
			panic(fmt.Sprintf("sign: parameter %q of %s at %s has no annotation", p.Arg, def.Name, p.At))
		}
		paramTy, err := b.resolver.BuildTy(p.Annotation, abs)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: p.Arg, Ty: paramTy, Kind: ty.Required})
	}

	returns := ty.None()
	if def.Returns != nil {
		var err error
		returns, err = b.resolver.BuildTy(def.Returns, abs)
		if err != nil {
			return nil, err
		}
	}
	return &FunctionSignature{Params: params, Returns: returns}, nil
}

func locOr(loc, fallback ast.Location) ast.Location {
	if loc.IsValid() {
		return loc
	}
	return fallback
}
