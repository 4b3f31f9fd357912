package sign

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/roach88/seasign/internal/ir"
	"github.com/roach88/seasign/internal/tree"
	"github.com/roach88/seasign/internal/ty"
)

// Entry is one signature with its position in the tree.
type Entry struct {
	Module    tree.Path
	Name      string
	Signature Signature
}

// Path returns the definition path of the entry.
func (e Entry) Path() tree.Path {
	return e.Module.Child(e.Name)
}

// Entries lists every signature ordered by module path, then name.
func (o *Output) Entries() []Entry {
	var entries []Entry
	for _, p := range o.Tree.Paths() {
		signed, _ := o.Tree.Lookup(p)
		for _, name := range sortedNames(signed) {
			entries = append(entries, Entry{Module: p, Name: name, Signature: signed[name]})
		}
	}
	return entries
}

// KindName names the kind of a signature: "struct", "account", "enum",
// "function" or "builtin".
func KindName(sig Signature) string {
	switch s := sig.(type) {
	case *StructSignature:
		return s.Kind().String()
	case *EnumSignature:
		return "enum"
	case *FunctionSignature:
		return "function"
	case BuiltinSignature:
		return "builtin"
	default:
		panic(fmt.Sprintf("sign: unknown signature %T", sig))
	}
}

// EncodeTy encodes a type expression.
func EncodeTy(t ty.Ty) ir.Object {
	obj := ir.Object{}
	switch n := t.Name.(type) {
	case ty.BuiltinName:
		obj["builtin"] = ir.String(n.Builtin.Qualified())
	case ty.DefinedName:
		obj["defined"] = ir.String(n.Path.Key())
		obj["class"] = ir.String(n.Kind.String())
	}
	if len(t.Args) > 0 {
		args := make(ir.Array, len(t.Args))
		for i, a := range t.Args {
			args[i] = EncodeTy(a)
		}
		obj["args"] = args
	}
	return obj
}

// EncodeSignature encodes one signature.
func EncodeSignature(sig Signature) ir.Object {
	obj := ir.Object{"kind": ir.String(KindName(sig))}
	switch s := sig.(type) {
	case *StructSignature:
		bases := make(ir.Array, len(s.Bases))
		for i, b := range s.Bases {
			bases[i] = EncodeTy(b)
		}
		fields := make(ir.Object, len(s.Fields))
		for name, t := range s.Fields {
			fields[name] = EncodeTy(t)
		}
		obj["is_account"] = ir.Bool(s.IsAccount)
		obj["bases"] = bases
		obj["fields"] = fields
	case *EnumSignature:
		obj["variants"] = ir.Strings(sortedVariants(s)...)
	case *FunctionSignature:
		params := make(ir.Array, len(s.Params))
		for i, p := range s.Params {
			params[i] = ir.Object{
				"name":       ir.String(p.Name),
				"type":       EncodeTy(p.Ty),
				"param_type": ir.String(p.Kind.String()),
			}
		}
		obj["params"] = params
		obj["returns"] = EncodeTy(s.Returns)
	case BuiltinSignature:
		obj["builtin"] = ir.String(s.Builtin.Qualified())
	}
	return obj
}

// Encode encodes the whole signed tree as {module: {name: signature}}.
// Modules without signatures are left out.
func Encode(o *Output) ir.Object {
	obj := ir.Object{}
	for _, p := range o.Tree.Paths() {
		signed, _ := o.Tree.Lookup(p)
		if len(signed) == 0 {
			continue
		}
		mod := make(ir.Object, len(signed))
		for name, sig := range signed {
			mod[name] = EncodeSignature(sig)
		}
		obj[p.Key()] = mod
	}
	return obj
}

// Hash returns the content hash of the signed tree.
func Hash(o *Output) (string, error) {
	return ir.SignedHash(Encode(o))
}

// Document wraps the encoded tree with the versions and hashes that
// identify it; this is what `seasign sign -o` writes.
func Document(o *Output, namespaceHash string) (ir.Object, error) {
	signatures := Encode(o)
	signed, err := ir.SignedHash(signatures)
	if err != nil {
		return nil, err
	}
	return ir.Object{
		"encoding_version": ir.String(ir.EncodingVersion),
		"tool_version":     ir.String(ir.ToolVersion),
		"namespace_hash":   ir.String(namespaceHash),
		"signed_hash":      ir.String(signed),
		"signatures":       signatures,
	}, nil
}

// Render writes a human-readable listing of the signed tree:
//
//	program
//	  Acc: account {owner: Pubkey}
//	  E: enum {A, B}
//	  f: fn(x: program.S<struct>) -> program.E<enum>
func Render(w io.Writer, o *Output) error {
	for _, p := range o.Tree.Paths() {
		signed, _ := o.Tree.Lookup(p)
		if len(signed) == 0 {
			continue
		}
		module := p.Key()
		if module == "" {
			module = "<root>"
		}
		if _, err := fmt.Fprintln(w, module); err != nil {
			return err
		}
		for _, name := range sortedNames(signed) {
			if _, err := fmt.Fprintf(w, "  %s: %s\n", name, Describe(signed[name])); err != nil {
				return err
			}
		}
	}
	return nil
}

// Describe renders one signature on a single line.
func Describe(sig Signature) string {
	switch s := sig.(type) {
	case *StructSignature:
		names := make([]string, 0, len(s.Fields))
		for name := range s.Fields {
			names = append(names, name)
		}
		slices.Sort(names)
		fields := make([]string, len(names))
		for i, name := range names {
			fields[i] = name + ": " + s.Fields[name].String()
		}
		return fmt.Sprintf("%s {%s}", s.Kind(), strings.Join(fields, ", "))
	case *EnumSignature:
		return fmt.Sprintf("enum {%s}", strings.Join(sortedVariants(s), ", "))
	case *FunctionSignature:
		params := make([]string, len(s.Params))
		for i, p := range s.Params {
			params[i] = p.Name + ": " + p.Ty.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), s.Returns)
	case BuiltinSignature:
		return "builtin " + s.Builtin.Qualified()
	default:
		return fmt.Sprintf("%T", sig)
	}
}

func sortedNames(s Signed) []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func sortedVariants(s *EnumSignature) []string {
	variants := make([]string, 0, len(s.Variants))
	for v := range s.Variants {
		variants = append(variants, v)
	}
	slices.Sort(variants)
	return variants
}
