// Package ast holds the cleaned source nodes produced by the parser.
//
// Only the shapes the signing phase reads are modelled: top-level class and
// function definitions, class bodies and annotation expressions. Every node
// carries the Location of the construct it came from.
package ast

import "fmt"

// Location is a position in a source file. Line and Col are 1-based; a
// zero Line means the position is unknown.
type Location struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// IsValid reports whether the location points at a line.
func (l Location) IsValid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	switch {
	case !l.IsValid():
		return l.File
	case l.Col > 0:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
	default:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
}

// Expr is an annotation or value expression.
type Expr interface {
	Loc() Location
	expr()
}

// Name is a bare identifier, e.g. `Pubkey`.
type Name struct {
	At    Location
	Ident string
}

// Attribute is a dotted access, e.g. `state.Acc`.
type Attribute struct {
	At    Location
	Value Expr
	Attr  string
}

// Subscript is a generic application, e.g. `List[u8]`.
type Subscript struct {
	At    Location
	Value Expr
	Index []Expr
}

// Constant is a literal, kept as source text.
type Constant struct {
	At    Location
	Value string
}

func (e *Name) Loc() Location      { return e.At }
func (e *Attribute) Loc() Location { return e.At }
func (e *Subscript) Loc() Location { return e.At }
func (e *Constant) Loc() Location  { return e.At }

func (*Name) expr()      {}
func (*Attribute) expr() {}
func (*Subscript) expr() {}
func (*Constant) expr()  {}

// TopLevelStatement is a module-level statement.
type TopLevelStatement interface {
	Loc() Location
	topLevel()
}

// ClassDef is `class Name(bases...): body`.
type ClassDef struct {
	At    Location
	Name  string
	Bases []Expr
	Body  []ClassDefStatement
}

// FunctionDef is `def name(params) -> returns: ...`. Returns is nil when
// the definition has no return annotation.
type FunctionDef struct {
	At         Location
	Name       string
	Params     []Param
	Returns    Expr
	Decorators []Expr
}

// Param is one function parameter with its annotation.
type Param struct {
	At         Location
	Arg        string
	Annotation Expr
}

// ExprStatement is a bare expression at module level, e.g. `declare_id(...)`.
type ExprStatement struct {
	At    Location
	Value Expr
}

func (s *ClassDef) Loc() Location      { return s.At }
func (s *FunctionDef) Loc() Location   { return s.At }
func (s *ExprStatement) Loc() Location { return s.At }

func (*ClassDef) topLevel()      {}
func (*FunctionDef) topLevel()   {}
func (*ExprStatement) topLevel() {}

// ClassDefStatement is a statement inside a class body.
type ClassDefStatement interface {
	Loc() Location
	classStatement()
}

// FieldDef is `name: Ty`, `name = value` or `name: Ty = value`. Ty and
// Value are nil when absent.
type FieldDef struct {
	At    Location
	Name  string
	Ty    Expr
	Value Expr
}

// MethodDef is a `def` nested in a class body.
type MethodDef struct {
	At   Location
	Name string
}

func (s *FieldDef) Loc() Location  { return s.At }
func (s *MethodDef) Loc() Location { return s.At }

func (*FieldDef) classStatement()  {}
func (*MethodDef) classStatement() {}
