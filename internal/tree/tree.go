package tree

import (
	"slices"
	"strings"
)

// Path is an absolute module path, e.g. ["program", "state"].
type Path []string

// Key returns the dotted form of the path. Used as a flat index key.
func (p Path) Key() string {
	return strings.Join(p, ".")
}

func (p Path) String() string {
	return p.Key()
}

// Child returns a new path with name appended. The receiver is never aliased.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Split separates a definition path into its module path and item name.
// Panics on an empty path.
func (p Path) Split() (Path, string) {
	if len(p) == 0 {
		panic("tree: split of empty path")
	}
	return p[:len(p)-1], p[len(p)-1]
}

// ParsePath parses a dotted path. The empty string is the root path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path(strings.Split(s, "."))
}

// Tree mirrors the module hierarchy. Every node holds a value; nodes created
// implicitly as ancestors of an inserted path hold the zero value of T.
type Tree[T any] struct {
	Value    T
	Children map[string]*Tree[T]
}

// New creates an empty root node.
func New[T any]() *Tree[T] {
	return &Tree[T]{Children: make(map[string]*Tree[T])}
}

// Insert stores value at path, creating intermediate nodes as needed.
func (t *Tree[T]) Insert(path Path, value T) {
	node := t
	for _, seg := range path {
		child, ok := node.Children[seg]
		if !ok {
			child = New[T]()
			node.Children[seg] = child
		}
		node = child
	}
	node.Value = value
}

// Get returns the node at exactly path.
func (t *Tree[T]) Get(path Path) (*Tree[T], bool) {
	node := t
	for _, seg := range path {
		child, ok := node.Children[seg]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// Lookup returns the value held at exactly path.
func (t *Tree[T]) Lookup(path Path) (T, bool) {
	node, ok := t.Get(path)
	if !ok {
		var zero T
		return zero, false
	}
	return node.Value, true
}

// Paths returns the absolute path of every node, the root included, in
// sorted order.
func (t *Tree[T]) Paths() []Path {
	var paths []Path
	t.walk(Path{}, func(p Path, _ *Tree[T]) {
		paths = append(paths, p)
	})
	return paths
}

// Len returns the number of nodes, the root included.
func (t *Tree[T]) Len() int {
	n := 0
	t.walk(Path{}, func(Path, *Tree[T]) { n++ })
	return n
}

// walk visits nodes depth-first with children in sorted order, which makes
// the visit order identical to sorted path order.
func (t *Tree[T]) walk(abs Path, fn func(Path, *Tree[T])) {
	fn(abs, t)
	names := make([]string, 0, len(t.Children))
	for name := range t.Children {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		t.Children[name].walk(abs.Child(name), fn)
	}
}
