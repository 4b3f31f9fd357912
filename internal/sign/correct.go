package sign

import (
	"fmt"

	"github.com/roach88/seasign/internal/tree"
	"github.com/roach88/seasign/internal/ty"
)

// corrector runs the second pass: it rewrites every defined type reference
// to the classification of the signature it points at. raw is read only.
type corrector struct {
	raw *tree.Tree[Signed]
}

func (c corrector) signed(s Signed) Signed {
	out := make(Signed, len(s))
	for name, sig := range s {
		out[name] = c.signature(sig)
	}
	return out
}

// signature corrects the types embedded in a signature. Enum and builtin
// signatures embed no types and are returned as they are.
func (c corrector) signature(sig Signature) Signature {
	switch s := sig.(type) {
	case *StructSignature:
		fields := make(map[string]ty.Ty, len(s.Fields))
		for name, t := range s.Fields {
			fields[name] = c.ty(t)
		}
		return &StructSignature{
			IsAccount: s.IsAccount,
			Bases:     c.tys(s.Bases),
			Fields:    fields,
		}
	case *FunctionSignature:
		params := make([]Param, len(s.Params))
		for i, p := range s.Params {
			params[i] = Param{Name: p.Name, Ty: c.ty(p.Ty), Kind: p.Kind}
		}
		return &FunctionSignature{Params: params, Returns: c.ty(s.Returns)}
	default:
		return sig
	}
}

// ty corrects the head of t when it is a defined name and always recurses
// into the arguments.
func (c corrector) ty(t ty.Ty) ty.Ty {
	name := t.Name
	if d, ok := name.(ty.DefinedName); ok {
		sig, found := lookup(c.raw, d.Path)
		if !found {
			panic(fmt.Sprintf("sign: defined type %s has no signature", d.Path.Key()))
		}
		name = ty.DefinedName{Path: d.Path, Kind: classify(sig)}
	}
	return ty.Ty{Name: name, Args: c.tys(t.Args)}
}

func (c corrector) tys(ts []ty.Ty) []ty.Ty {
	if ts == nil {
		return nil
	}
	out := make([]ty.Ty, len(ts))
	for i, t := range ts {
		out[i] = c.ty(t)
	}
	return out
}

// classify maps a target signature to the tag its references carry.
// Builtins and functions cannot be the target of a defined reference; they
// fall back to ty.Struct like plain structs do.
func classify(sig Signature) ty.DefinedType {
	switch s := sig.(type) {
	case *StructSignature:
		return s.Kind()
	case *EnumSignature:
		return ty.Enum
	default:
		return ty.Struct
	}
}
