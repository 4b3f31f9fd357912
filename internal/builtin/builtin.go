// Package builtin names the compiler-intrinsic types and functions.
//
// A Builtin is an opaque, comparable handle. Its definition (methods,
// layout, code generation) lives in later phases.
package builtin

import "fmt"

// Source is the builtin module a handle belongs to.
type Source string

const (
	// Prelude is `seahorse.prelude`, star-imported by programs.
	Prelude Source = "prelude"
	// Python is the implicit Python builtins scope.
	Python Source = "python"
)

// Kind separates types from callables.
type Kind int

const (
	KindType Kind = iota
	KindFunction
)

// Builtin is a handle to an intrinsic.
type Builtin struct {
	Source Source
	Name   string
	Kind   Kind
}

// IsType reports whether the builtin may appear in a type annotation.
func (b Builtin) IsType() bool {
	return b.Kind == KindType
}

// Qualified returns "source.Name", e.g. "prelude.Account".
func (b Builtin) Qualified() string {
	return fmt.Sprintf("%s.%s", b.Source, b.Name)
}

func (b Builtin) String() string {
	return b.Name
}

func typ(src Source, name string) Builtin { return Builtin{Source: src, Name: name} }
func fn(src Source, name string) Builtin { return Builtin{Source: src, Name: name, Kind: KindFunction} }

// Prelude markers and types.
var (
	Account      = typ(Prelude, "Account")
	Enum         = typ(Prelude, "Enum")
	Event        = typ(Prelude, "Event")
	Signer       = typ(Prelude, "Signer")
	Pubkey       = typ(Prelude, "Pubkey")
	Empty        = typ(Prelude, "Empty")
	Program      = typ(Prelude, "Program")
	TokenAccount = typ(Prelude, "TokenAccount")
	TokenMint    = typ(Prelude, "TokenMint")
	Array        = typ(Prelude, "Array")
	U8           = typ(Prelude, "u8")
	U16          = typ(Prelude, "u16")
	U32          = typ(Prelude, "u32")
	U64          = typ(Prelude, "u64")
	U128         = typ(Prelude, "u128")
	I8           = typ(Prelude, "i8")
	I16          = typ(Prelude, "i16")
	I32          = typ(Prelude, "i32")
	I64          = typ(Prelude, "i64")
	I128         = typ(Prelude, "i128")
	F64          = typ(Prelude, "f64")

	DeclareID   = fn(Prelude, "declare_id")
	Instruction = fn(Prelude, "instruction")
	Dataclass   = fn(Prelude, "dataclass")
)

// Python builtins.
var (
	None  = typ(Python, "None")
	Int   = typ(Python, "int")
	Str   = typ(Python, "str")
	Bool  = typ(Python, "bool")
	Float = typ(Python, "float")
	List  = typ(Python, "list")

	Print = fn(Python, "print")
	Len   = fn(Python, "len")
)

var bySource = map[Source][]Builtin{
	Prelude: {
		Account, Enum, Event, Signer, Pubkey, Empty, Program, TokenAccount, TokenMint, Array,
		U8, U16, U32, U64, U128, I8, I16, I32, I64, I128, F64,
		DeclareID, Instruction, Dataclass,
	},
	Python: {None, Int, Str, Bool, Float, List, Print, Len},
}

// Lookup finds a builtin by source and name.
func Lookup(src Source, name string) (Builtin, bool) {
	for _, b := range bySource[src] {
		if b.Name == name {
			return b, true
		}
	}
	return Builtin{}, false
}

// Parse finds a builtin by its qualified name, e.g. "prelude.Pubkey".
func Parse(qualified string) (Builtin, bool) {
	for _, list := range bySource {
		for _, b := range list {
			if b.Qualified() == qualified {
				return b, true
			}
		}
	}
	return Builtin{}, false
}

// All returns every builtin of src in declaration order.
func All(src Source) []Builtin {
	return append([]Builtin(nil), bySource[src]...)
}
