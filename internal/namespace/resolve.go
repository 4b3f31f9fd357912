package namespace

import (
	"fmt"

	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/tree"
	"github.com/roach88/seasign/internal/ty"
)

// Resolver error codes (E101-E199).
const (
	ErrUndefinedName         = "E101"
	ErrNotAType              = "E102"
	ErrUnsupportedAnnotation = "E103"
	ErrReExportCycle         = "E104"
)

// ResolveError is a located failure to turn an annotation into a type.
type ResolveError struct {
	Kind string
	Name string
	Loc  ast.Location
}

func (e *ResolveError) Code() string           { return e.Kind }
func (e *ResolveError) Location() ast.Location { return e.Loc }

func (e *ResolveError) Message() string {
	switch e.Kind {
	case ErrUndefinedName:
		return fmt.Sprintf("undefined name %q", e.Name)
	case ErrNotAType:
		return fmt.Sprintf("%q is not a type", e.Name)
	case ErrReExportCycle:
		return fmt.Sprintf("import of %q never reaches a definition", e.Name)
	default:
		return "unsupported type annotation"
	}
}

func (e *ResolveError) Help() string {
	if e.Kind == ErrUnsupportedAnnotation {
		return "Help: annotations are names, dotted module members or generic applications like List[u8]."
	}
	return ""
}

func (e *ResolveError) Error() string {
	if e.Loc.File != "" || e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Loc, e.Kind, e.Message())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message())
}

// target is an export followed through re-exports to where it lives.
type target struct {
	export Export
	path   tree.Path // module path + name of the definition
}

// BuildTy resolves an annotation expression written in module abs.
// User-defined classes come back as ty.DefinedName with the provisional
// ty.Struct classification; signing corrects it once every class is known.
func (o *Output) BuildTy(expr ast.Expr, abs tree.Path) (ty.Ty, error) {
	switch e := expr.(type) {
	case *ast.Name:
		t, err := o.lookup(abs, e.Ident, e.At)
		if err != nil {
			return ty.Ty{}, err
		}
		return asType(t, e.Ident, e.At)

	case *ast.Attribute:
		module, err := o.buildModule(e.Value, abs)
		if err != nil {
			return ty.Ty{}, err
		}
		t, err := o.lookup(module, e.Attr, e.At)
		if err != nil {
			return ty.Ty{}, err
		}
		return asType(t, e.Attr, e.At)

	case *ast.Subscript:
		head, err := o.BuildTy(e.Value, abs)
		if err != nil {
			return ty.Ty{}, err
		}
		if len(head.Args) > 0 {
			return ty.Ty{}, &ResolveError{Kind: ErrUnsupportedAnnotation, Loc: e.At}
		}
		for _, idx := range e.Index {
			arg, err := o.BuildTy(idx, abs)
			if err != nil {
				return ty.Ty{}, err
			}
			head.Args = append(head.Args, arg)
		}
		return head, nil

	case *ast.Constant:
		return ty.Ty{}, &ResolveError{Kind: ErrNotAType, Name: e.Value, Loc: e.At}

	default:
		return ty.Ty{}, &ResolveError{Kind: ErrUnsupportedAnnotation, Loc: expr.Loc()}
	}
}

// buildModule resolves the left side of an attribute annotation to the
// module it names.
func (o *Output) buildModule(expr ast.Expr, abs tree.Path) (tree.Path, error) {
	var (
		t    target
		name string
		err  error
	)
	switch e := expr.(type) {
	case *ast.Name:
		name = e.Ident
		t, err = o.lookup(abs, e.Ident, e.At)
	case *ast.Attribute:
		var parent tree.Path
		parent, err = o.buildModule(e.Value, abs)
		if err == nil {
			name = e.Attr
			t, err = o.lookup(parent, e.Attr, e.At)
		}
	default:
		return nil, &ResolveError{Kind: ErrUnsupportedAnnotation, Loc: expr.Loc()}
	}
	if err != nil {
		return nil, err
	}
	ref, ok := t.export.(ModuleRef)
	if !ok {
		return nil, &ResolveError{Kind: ErrUnsupportedAnnotation, Name: name, Loc: expr.Loc()}
	}
	return ref.Module, nil
}

// lookup finds name in module, following re-exports. Names missing from the
// module fall back to the Python builtins scope.
func (o *Output) lookup(module tree.Path, name string, at ast.Location) (target, error) {
	seen := make(map[string]bool)
	for {
		key := module.Child(name).Key()
		if seen[key] {
			return target{}, &ResolveError{Kind: ErrReExportCycle, Name: name, Loc: at}
		}
		seen[key] = true

		ns, _ := o.Tree.Lookup(module)
		exp, ok := ns[name]
		if !ok {
			if b, ok := builtin.Lookup(builtin.Python, name); ok {
				return target{export: Builtin{Builtin: b}}, nil
			}
			return target{}, &ResolveError{Kind: ErrUndefinedName, Name: name, Loc: at}
		}

		re, ok := exp.(ReExport)
		if !ok {
			return target{export: exp, path: module.Child(name)}, nil
		}
		module, name = re.Module, re.Name
	}
}

func asType(t target, name string, at ast.Location) (ty.Ty, error) {
	switch e := t.export.(type) {
	case Builtin:
		if !e.Builtin.IsType() {
			return ty.Ty{}, &ResolveError{Kind: ErrNotAType, Name: name, Loc: at}
		}
		return ty.Builtin(e.Builtin), nil
	case Defined:
		if _, ok := e.Def.(*ast.ClassDef); ok {
			return ty.Defined(t.path, ty.Struct), nil
		}
	}
	return ty.Ty{}, &ResolveError{Kind: ErrNotAType, Name: name, Loc: at}
}
