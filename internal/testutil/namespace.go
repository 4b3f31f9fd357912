package testutil

import (
	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/namespace"
	"github.com/roach88/seasign/internal/tree"
)

// File is the source file name every builder location points at.
const File = "program.py"

// At returns a location on line in File.
func At(line int) ast.Location {
	return ast.Location{File: File, Line: line, Col: 1}
}

// Name builds a bare name expression.
func Name(ident string) *ast.Name {
	return &ast.Name{Ident: ident}
}

// NameAt builds a bare name expression on line.
func NameAt(ident string, line int) *ast.Name {
	return &ast.Name{At: At(line), Ident: ident}
}

// Attr builds `value.attr`.
func Attr(value ast.Expr, attr string) *ast.Attribute {
	return &ast.Attribute{Value: value, Attr: attr}
}

// Sub builds `head[args...]`.
func Sub(head ast.Expr, args ...ast.Expr) *ast.Subscript {
	return &ast.Subscript{Value: head, Index: args}
}

// Class builds a class definition on line.
func Class(name string, line int, bases []ast.Expr, body ...ast.ClassDefStatement) *ast.ClassDef {
	return &ast.ClassDef{At: At(line), Name: name, Bases: bases, Body: body}
}

// Bases is shorthand for a list of bare-name base expressions.
func Bases(names ...string) []ast.Expr {
	exprs := make([]ast.Expr, len(names))
	for i, n := range names {
		exprs[i] = Name(n)
	}
	return exprs
}

// Field builds `name: ty` on line.
func Field(name string, ty ast.Expr, line int) *ast.FieldDef {
	return &ast.FieldDef{At: At(line), Name: name, Ty: ty}
}

// Variant builds `name = value` on line.
func Variant(name, value string, line int) *ast.FieldDef {
	return &ast.FieldDef{At: At(line), Name: name, Value: &ast.Constant{At: At(line), Value: value}}
}

// Method builds a nested def on line.
func Method(name string, line int) *ast.MethodDef {
	return &ast.MethodDef{At: At(line), Name: name}
}

// Func builds a function definition on line. returns may be nil.
func Func(name string, line int, returns ast.Expr, params ...ast.Param) *ast.FunctionDef {
	return &ast.FunctionDef{At: At(line), Name: name, Params: params, Returns: returns}
}

// Param builds one annotated parameter.
func Param(arg string, annotation ast.Expr) ast.Param {
	return ast.Param{Arg: arg, Annotation: annotation}
}

// Program is the path of the module ProgramNamespace defines.
var Program = tree.Path{"program"}

// ProgramNamespace returns a single module `program` importing the prelude
// and defining:
//
//	class Acc(Account):
//	    owner: Pubkey
//	class E(Enum):
//	    A = 1
//	    B = 2
//	class S:
//	    acc: Acc
//	    tag: E
//	def f(x: S) -> E: ...
func ProgramNamespace() *namespace.Output {
	out := namespace.NewOutput()
	out.ImportPrelude(Program)
	out.Define(Program, Class("Acc", 3, Bases("Account"),
		Field("owner", Name("Pubkey"), 4)))
	out.Define(Program, Class("E", 6, Bases("Enum"),
		Variant("A", "1", 7),
		Variant("B", "2", 8)))
	out.Define(Program, Class("S", 10, nil,
		Field("acc", Name("Acc"), 11),
		Field("tag", Name("E"), 12)))
	out.Define(Program, Func("f", 14, Name("E"), Param("x", Name("S"))))
	return out
}
