// Package loader reads namespace manifests and builds the namespace tree
// that the signing phase consumes.
//
// A manifest describes each module of a program after parsing and name
// resolution: its definitions with their source lines and the names it
// imports. Manifests are written in CUE (*.cue, one package per directory)
// or YAML (*.yaml, *.yml); both may be mixed in one directory as long as no
// module is declared twice.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/ir"
	"github.com/roach88/seasign/internal/namespace"
	"github.com/roach88/seasign/internal/tree"
)

// Result is a loaded namespace tree.
type Result struct {
	Namespace *namespace.Output
	Manifest  Manifest
	// Files lists the manifest files read, sorted.
	Files []string
	// Hash is the content hash of the canonical manifest.
	Hash string
}

// Load reads every manifest in dir.
func Load(dir string) (*Result, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, errorf(ErrCodeNotFound, ast.Location{}, "namespace directory not found: %s", dir)
	}
	if err != nil {
		return nil, errorf(ErrCodeNotFound, ast.Location{}, "error accessing namespace directory: %v", err)
	}
	if !info.IsDir() {
		return nil, errorf(ErrCodeNotFound, ast.Location{}, "not a directory: %s", dir)
	}

	cueFiles, yamlFiles, err := FindManifests(dir)
	if err != nil {
		return nil, errorf(ErrCodeScanError, ast.Location{}, "error scanning directory: %v", err)
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, errorf(ErrCodeNoFiles, ast.Location{}, "no manifest files found in %s", dir)
	}

	manifest := Manifest{Modules: map[string]ModuleSpec{}}
	origin := map[string]string{}

	if len(cueFiles) > 0 {
		modules, err := loadCUE(dir)
		if err != nil {
			return nil, err
		}
		for path, m := range modules {
			manifest.Modules[path] = m.spec
			origin[path] = m.loc.File
		}
	}
	for _, file := range yamlFiles {
		m, err := loadYAML(file)
		if err != nil {
			return nil, err
		}
		for _, path := range m.modulePaths() {
			if prev, dup := origin[path]; dup {
				return nil, errorf(ErrCodeDuplicateModule, ast.Location{File: file},
					"module %q is already declared in %s", path, prev)
			}
			manifest.Modules[path] = m.Modules[path]
			origin[path] = file
		}
	}

	ns, err := Build(manifest)
	if err != nil {
		return nil, err
	}
	hash, err := ir.NamespaceHash(manifest.Encode())
	if err != nil {
		return nil, errorf(ErrCodeGeneric, ast.Location{}, "hashing manifest: %v", err)
	}

	files := slices.Concat(cueFiles, yamlFiles)
	slices.Sort(files)
	return &Result{Namespace: ns, Manifest: manifest, Files: files, Hash: hash}, nil
}

// FindManifests lists the CUE and YAML files directly in dir, sorted. CUE
// files in subdirectories belong to other packages and are not read.
func FindManifests(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch filepath.Ext(e.Name()) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	slices.Sort(cueFiles)
	slices.Sort(yamlFiles)
	return cueFiles, yamlFiles, nil
}

type located struct {
	spec ModuleSpec
	loc  ast.Location
}

func loadCUE(dir string) (map[string]located, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, errorf(ErrCodeLoadFailed, ast.Location{}, "no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, errorf(ErrCodeLoadFailed, ast.Location{}, "loading CUE files: %v", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, "building CUE value", err)
	}
	if err := value.Validate(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, "validating CUE value", err)
	}

	modules := map[string]located{}
	modulesVal := value.LookupPath(cue.ParsePath("modules"))
	if !modulesVal.Exists() {
		return modules, nil
	}
	iter, err := modulesVal.Fields()
	if err != nil {
		return nil, cueError(ErrCodeInvalidManifest, "iterating modules", err)
	}
	for iter.Next() {
		path := iter.Selector().Unquoted()
		loc := posLocation(iter.Value().Pos())
		var spec ModuleSpec
		if err := iter.Value().Decode(&spec); err != nil {
			return nil, cueError(ErrCodeBuildFailed, fmt.Sprintf("decoding module %q", path), err)
		}
		modules[path] = located{spec: spec, loc: loc}
	}
	return modules, nil
}

// cueError keeps the position of the first CUE error.
func cueError(code, context string, err error) *LoadError {
	return errorf(code, posLocation(cueErrorPos(err)), "%s: %v", context, err)
}

func loadYAML(file string) (Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Manifest{}, errorf(ErrCodeLoadFailed, ast.Location{File: file}, "reading manifest: %v", err)
	}
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, errorf(ErrCodeLoadFailed, ast.Location{File: file}, "parsing YAML: %v", err)
	}
	return m, nil
}

// Build turns a manifest into a namespace tree. Modules are visited in
// sorted order so the first error is deterministic.
func Build(m Manifest) (*namespace.Output, error) {
	out := namespace.NewOutput()
	for _, key := range m.modulePaths() {
		path, err := modulePath(key)
		if err != nil {
			return nil, err
		}
		if err := buildModule(out, path, m.Modules[key]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func modulePath(key string) (tree.Path, error) {
	path := tree.ParsePath(identifier(key))
	for _, seg := range path {
		if seg == "" {
			return nil, errorf(ErrCodeInvalidManifest, ast.Location{}, "invalid module path %q", key)
		}
	}
	return path, nil
}

func buildModule(out *namespace.Output, path tree.Path, spec ModuleSpec) error {
	file := spec.File
	if file == "" {
		file = strings.ReplaceAll(path.Key(), ".", "/") + ".py"
	}
	module := path.Key()
	ns := out.Module(path)
	if spec.Prelude {
		out.ImportPrelude(path)
	}

	// Prelude names may be shadowed; anything declared explicitly twice is
	// an error.
	declared := map[string]bool{}
	claim := func(name string, loc ast.Location) error {
		if name == "" {
			return errorf(ErrCodeInvalidManifest, loc, "module %q declares an unnamed item", module)
		}
		if declared[name] {
			return errorf(ErrCodeDuplicateName, loc, "%q is declared twice in module %q", name, module)
		}
		declared[name] = true
		return nil
	}

	names := make([]string, 0, len(spec.Exports))
	for name := range spec.Exports {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, raw := range names {
		name := identifier(raw)
		loc := ast.Location{File: file}
		if err := claim(name, loc); err != nil {
			return err
		}
		exp, err := buildExport(spec.Exports[raw], name, module, loc)
		if err != nil {
			return err
		}
		ns[name] = exp
	}

	for _, c := range spec.Classes {
		def, err := buildClass(c, file)
		if err != nil {
			return err
		}
		if err := claim(def.Name, def.At); err != nil {
			return err
		}
		out.Define(path, def)
	}
	for _, f := range spec.Functions {
		def, err := buildFunction(f, file)
		if err != nil {
			return err
		}
		if err := claim(def.Name, def.At); err != nil {
			return err
		}
		out.Define(path, def)
	}
	return nil
}

func buildExport(e ExportSpec, name, module string, loc ast.Location) (namespace.Export, error) {
	set := 0
	for _, s := range []string{e.Builtin, e.Import, e.Module} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errorf(ErrCodeInvalidManifest, loc,
			"export %q of module %q must set exactly one of builtin, import or module", name, module)
	}

	switch {
	case e.Builtin != "":
		b, ok := builtin.Parse(e.Builtin)
		if !ok {
			return nil, errorf(ErrCodeUnknownBuiltin, loc, "unknown builtin %q", e.Builtin)
		}
		return namespace.Builtin{Builtin: b}, nil
	case e.Import != "":
		target := tree.ParsePath(identifier(e.Import))
		if len(target) < 2 {
			return nil, errorf(ErrCodeInvalidManifest, loc, "import %q must name a module and a member", e.Import)
		}
		mod, member := target.Split()
		return namespace.ReExport{Module: mod, Name: member}, nil
	default:
		return namespace.ModuleRef{Module: tree.ParsePath(identifier(e.Module))}, nil
	}
}

func buildClass(c ClassSpec, file string) (*ast.ClassDef, error) {
	at := ast.Location{File: file, Line: c.Line}
	def := &ast.ClassDef{At: at, Name: identifier(c.Name)}
	if def.Name == "" {
		return nil, errorf(ErrCodeInvalidManifest, at, "class without a name")
	}

	for _, b := range c.Bases {
		base, err := parseAnnotation(b, at)
		if err != nil {
			return nil, err
		}
		def.Bases = append(def.Bases, base)
	}

	// Fields and methods interleave in source; restore line order.
	type stmt struct {
		line int
		node ast.ClassDefStatement
	}
	var body []stmt
	for _, f := range c.Fields {
		loc := ast.Location{File: file, Line: f.Line}
		field := &ast.FieldDef{At: loc, Name: identifier(f.Name)}
		if f.Type != "" {
			t, err := parseAnnotation(f.Type, loc)
			if err != nil {
				return nil, err
			}
			field.Ty = t
		}
		if f.Value != "" {
			field.Value = parseValue(f.Value, loc)
		}
		body = append(body, stmt{line: f.Line, node: field})
	}
	for _, m := range c.Methods {
		loc := ast.Location{File: file, Line: m.Line}
		body = append(body, stmt{line: m.Line, node: &ast.MethodDef{At: loc, Name: identifier(m.Name)}})
	}
	slices.SortStableFunc(body, func(a, b stmt) int { return a.line - b.line })
	for _, s := range body {
		def.Body = append(def.Body, s.node)
	}
	return def, nil
}

func buildFunction(f FunctionSpec, file string) (*ast.FunctionDef, error) {
	at := ast.Location{File: file, Line: f.Line}
	def := &ast.FunctionDef{At: at, Name: identifier(f.Name)}
	if def.Name == "" {
		return nil, errorf(ErrCodeInvalidManifest, at, "function without a name")
	}

	for _, d := range f.Decorators {
		dec, err := parseAnnotation(d, at)
		if err != nil {
			return nil, err
		}
		def.Decorators = append(def.Decorators, dec)
	}
	for _, p := range f.Params {
		if p.Type == "" {
			return nil, errorf(ErrCodeInvalidManifest, at,
				"parameter %q of %s has no type annotation", p.Name, def.Name)
		}
		ann, err := parseAnnotation(p.Type, at)
		if err != nil {
			return nil, err
		}
		def.Params = append(def.Params, ast.Param{At: at, Arg: identifier(p.Name), Annotation: ann})
	}
	if f.Returns != "" {
		ret, err := parseAnnotation(f.Returns, at)
		if err != nil {
			return nil, err
		}
		def.Returns = ret
	}
	return def, nil
}
