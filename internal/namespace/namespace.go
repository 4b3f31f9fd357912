// Package namespace models the output of namespace resolution: a tree of
// per-module export tables plus the resolver that turns annotation
// expressions into type expressions.
package namespace

import (
	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/tree"
)

// Namespace is one module's export table.
type Namespace map[string]Export

// Export is an entry in a Namespace.
type Export interface {
	export()
}

// Defined is a class or function defined in the module itself.
type Defined struct {
	Def ast.TopLevelStatement
}

// Builtin is an intrinsic made visible in the module, typically through
// `from seahorse.prelude import *`.
type Builtin struct {
	Builtin builtin.Builtin
}

// ReExport is `from <Module> import <Name>`.
type ReExport struct {
	Module tree.Path
	Name   string
}

// ModuleRef is `import <Module>`; its members are reached with attribute
// syntax.
type ModuleRef struct {
	Module tree.Path
}

func (Defined) export()   {}
func (Builtin) export()   {}
func (ReExport) export()  {}
func (ModuleRef) export() {}

// Output is the result of namespace resolution consumed by signing.
type Output struct {
	Tree *tree.Tree[Namespace]
}

// NewOutput returns an Output with an empty root namespace.
func NewOutput() *Output {
	t := tree.New[Namespace]()
	t.Value = Namespace{}
	return &Output{Tree: t}
}

// Module returns the namespace at path, creating it when missing.
func (o *Output) Module(path tree.Path) Namespace {
	node, ok := o.Tree.Get(path)
	if !ok {
		o.Tree.Insert(path, Namespace{})
		node, _ = o.Tree.Get(path)
	}
	if node.Value == nil {
		node.Value = Namespace{}
	}
	return node.Value
}

// Define adds a definition export named after the statement.
func (o *Output) Define(module tree.Path, def ast.TopLevelStatement) {
	switch d := def.(type) {
	case *ast.ClassDef:
		o.Module(module)[d.Name] = Defined{Def: def}
	case *ast.FunctionDef:
		o.Module(module)[d.Name] = Defined{Def: def}
	default:
		panic("namespace: only classes and functions are defined by name")
	}
}

// Export adds an arbitrary export to a module.
func (o *Output) Export(module tree.Path, name string, e Export) {
	o.Module(module)[name] = e
}

// ImportPrelude makes every prelude builtin visible in module, as
// `from seahorse.prelude import *` does.
func (o *Output) ImportPrelude(module tree.Path) {
	ns := o.Module(module)
	for _, b := range builtin.All(builtin.Prelude) {
		ns[b.Name] = Builtin{Builtin: b}
	}
}
