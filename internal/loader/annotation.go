package loader

import (
	goast "go/ast"
	"go/parser"
	"go/token"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/seasign/internal/ast"
)

// identifier normalises a name the way Python does when it reads source:
// NFKC, so visually identical spellings denote the same binding.
func identifier(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

// parseAnnotation parses an annotation such as `List[u8]`, `Array[u8, 4]`
// or `state.Acc` into a source expression located on loc.Line. The subset
// shared by Python and Go expression syntax covers every annotation form the
// signing phase accepts.
func parseAnnotation(src string, loc ast.Location) (ast.Expr, error) {
	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, loc.File, src, 0)
	if err != nil {
		return nil, errorf(ErrCodeInvalidSyntax, loc, "cannot parse annotation %q", src)
	}
	c := converter{fset: fset, base: loc, src: src}
	return c.expr(expr)
}

type converter struct {
	fset *token.FileSet
	base ast.Location
	src  string
}

// at places a node on the manifest line; the column is the node's offset
// within the annotation text.
func (c converter) at(pos token.Pos) ast.Location {
	loc := c.base
	if p := c.fset.Position(pos); p.IsValid() && loc.IsValid() {
		loc.Col = p.Column
	}
	return loc
}

func (c converter) expr(e goast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case *goast.Ident:
		return &ast.Name{At: c.at(n.Pos()), Ident: identifier(n.Name)}, nil
	case *goast.SelectorExpr:
		value, err := c.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &ast.Attribute{At: c.at(n.Sel.Pos()), Value: value, Attr: identifier(n.Sel.Name)}, nil
	case *goast.IndexExpr:
		return c.subscript(n.X, []goast.Expr{n.Index}, n.Lbrack)
	case *goast.IndexListExpr:
		return c.subscript(n.X, n.Indices, n.Lbrack)
	case *goast.BasicLit:
		return &ast.Constant{At: c.at(n.Pos()), Value: n.Value}, nil
	case *goast.ParenExpr:
		return c.expr(n.X)
	default:
		return nil, errorf(ErrCodeInvalidSyntax, c.at(e.Pos()), "unsupported annotation %q", c.src)
	}
}

func (c converter) subscript(head goast.Expr, indices []goast.Expr, lbrack token.Pos) (ast.Expr, error) {
	value, err := c.expr(head)
	if err != nil {
		return nil, err
	}
	index := make([]ast.Expr, 0, len(indices))
	for _, i := range indices {
		arg, err := c.expr(i)
		if err != nil {
			return nil, err
		}
		index = append(index, arg)
	}
	return &ast.Subscript{At: c.at(lbrack), Value: value, Index: index}, nil
}

// parseValue turns an assigned value into a constant expression. Values are
// kept as source text; the signing phase only cares that one is present.
func parseValue(src string, loc ast.Location) ast.Expr {
	return &ast.Constant{At: loc, Value: strings.TrimSpace(src)}
}
