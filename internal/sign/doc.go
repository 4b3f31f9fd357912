// Package sign computes the signature of every class and function in a
// resolved namespace tree.
//
// A class becomes a StructSignature (an account when it inherits Account)
// or an EnumSignature (when it inherits Enum). A function becomes a
// FunctionSignature with ordered, required parameters. Builtins visible in
// a namespace are carried through as BuiltinSignature.
//
// # Two passes
//
// References between classes may point forward or across modules, so the
// classification of a reference is unknown while the first pass runs. Pass
// 1 tags every user-defined reference as ty.Struct and reports the first
// error. Pass 2 reads the completed tree and rewrites every reference to
// the kind of the signature it targets:
//
//	class S:                 pass 1: acc -> program.Acc<struct>
//	    acc: Acc             pass 2: acc -> program.Acc<account>
//
// Pass 2 cannot fail. A reference without a target is a bug in namespace
// resolution and panics.
//
// # Encoding
//
// Encode and EncodeSignature produce the ir.Value form used for hashing
// and storage. Render writes the same tree for humans.
package sign
