package loader

import (
	"slices"

	"github.com/roach88/seasign/internal/ir"
)

// Manifest describes a resolved namespace tree: what the parser and the
// namespace resolver would have produced for a program.
//
//	modules: "program.state": {
//		file:    "program/state.py"
//		prelude: true
//		exports: Helper: import: "program.util.Helper"
//		classes: [{name: "Acc", line: 4, bases: ["Account"],
//			fields: [{name: "owner", type: "Pubkey", line: 5}]}]
//	}
type Manifest struct {
	Modules map[string]ModuleSpec `json:"modules" yaml:"modules"`
}

// ModuleSpec is one module. The map key in Manifest.Modules is its dotted
// path.
type ModuleSpec struct {
	// File is the source file locations point into.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// Prelude imports every prelude builtin, as
	// `from seahorse.prelude import *` does.
	Prelude   bool                  `json:"prelude,omitempty" yaml:"prelude,omitempty"`
	Exports   map[string]ExportSpec `json:"exports,omitempty" yaml:"exports,omitempty"`
	Classes   []ClassSpec           `json:"classes,omitempty" yaml:"classes,omitempty"`
	Functions []FunctionSpec        `json:"functions,omitempty" yaml:"functions,omitempty"`
}

// ExportSpec is a name made visible in a module without being defined
// there. Exactly one field is set.
type ExportSpec struct {
	// Builtin is a qualified builtin, e.g. "prelude.Pubkey".
	Builtin string `json:"builtin,omitempty" yaml:"builtin,omitempty"`
	// Import is the dotted path of a name in another module.
	Import string `json:"import,omitempty" yaml:"import,omitempty"`
	// Module is the dotted path of a module.
	Module string `json:"module,omitempty" yaml:"module,omitempty"`
}

// ClassSpec is a class definition.
type ClassSpec struct {
	Name    string       `json:"name" yaml:"name"`
	Line    int          `json:"line,omitempty" yaml:"line,omitempty"`
	Bases   []string     `json:"bases,omitempty" yaml:"bases,omitempty"`
	Fields  []FieldSpec  `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods []MethodSpec `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// FieldSpec is a class body statement. Type is the annotation and Value
// the assigned expression; either may be empty.
type FieldSpec struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Line  int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// MethodSpec is a def nested in a class body.
type MethodSpec struct {
	Name string `json:"name" yaml:"name"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// FunctionSpec is a top-level function.
type FunctionSpec struct {
	Name       string      `json:"name" yaml:"name"`
	Line       int         `json:"line,omitempty" yaml:"line,omitempty"`
	Decorators []string    `json:"decorators,omitempty" yaml:"decorators,omitempty"`
	Params     []ParamSpec `json:"params,omitempty" yaml:"params,omitempty"`
	Returns    string      `json:"returns,omitempty" yaml:"returns,omitempty"`
}

// ParamSpec is one function parameter.
type ParamSpec struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Encode converts the manifest to its canonical IR form. Empty optional
// fields are omitted so equivalent CUE and YAML manifests encode alike.
func (m Manifest) Encode() ir.Object {
	modules := make(ir.Object, len(m.Modules))
	for path, mod := range m.Modules {
		modules[path] = mod.encode()
	}
	return ir.Object{"modules": modules}
}

func (m ModuleSpec) encode() ir.Object {
	obj := ir.Object{}
	if m.File != "" {
		obj["file"] = ir.String(m.File)
	}
	if m.Prelude {
		obj["prelude"] = ir.Bool(true)
	}
	if len(m.Exports) > 0 {
		exports := make(ir.Object, len(m.Exports))
		for name, e := range m.Exports {
			exp := ir.Object{}
			setString(exp, "builtin", e.Builtin)
			setString(exp, "import", e.Import)
			setString(exp, "module", e.Module)
			exports[name] = exp
		}
		obj["exports"] = exports
	}
	if len(m.Classes) > 0 {
		classes := make(ir.Array, len(m.Classes))
		for i, c := range m.Classes {
			classes[i] = c.encode()
		}
		obj["classes"] = classes
	}
	if len(m.Functions) > 0 {
		funcs := make(ir.Array, len(m.Functions))
		for i, f := range m.Functions {
			funcs[i] = f.encode()
		}
		obj["functions"] = funcs
	}
	return obj
}

func (c ClassSpec) encode() ir.Object {
	obj := ir.Object{"name": ir.String(c.Name)}
	setInt(obj, "line", c.Line)
	if len(c.Bases) > 0 {
		obj["bases"] = ir.Strings(c.Bases...)
	}
	if len(c.Fields) > 0 {
		fields := make(ir.Array, len(c.Fields))
		for i, f := range c.Fields {
			field := ir.Object{"name": ir.String(f.Name)}
			setString(field, "type", f.Type)
			setString(field, "value", f.Value)
			setInt(field, "line", f.Line)
			fields[i] = field
		}
		obj["fields"] = fields
	}
	if len(c.Methods) > 0 {
		methods := make(ir.Array, len(c.Methods))
		for i, m := range c.Methods {
			method := ir.Object{"name": ir.String(m.Name)}
			setInt(method, "line", m.Line)
			methods[i] = method
		}
		obj["methods"] = methods
	}
	return obj
}

func (f FunctionSpec) encode() ir.Object {
	obj := ir.Object{"name": ir.String(f.Name)}
	setInt(obj, "line", f.Line)
	if len(f.Decorators) > 0 {
		obj["decorators"] = ir.Strings(f.Decorators...)
	}
	if len(f.Params) > 0 {
		params := make(ir.Array, len(f.Params))
		for i, p := range f.Params {
			params[i] = ir.Object{"name": ir.String(p.Name), "type": ir.String(p.Type)}
		}
		obj["params"] = params
	}
	setString(obj, "returns", f.Returns)
	return obj
}

func setString(obj ir.Object, key, value string) {
	if value != "" {
		obj[key] = ir.String(value)
	}
}

func setInt(obj ir.Object, key string, value int) {
	if value != 0 {
		obj[key] = ir.Int(value)
	}
}

// modulePaths returns the manifest's module paths in sorted order.
func (m Manifest) modulePaths() []string {
	paths := make([]string, 0, len(m.Modules))
	for p := range m.Modules {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}
