package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seasign/internal/ast"
)

func TestParseAnnotation(t *testing.T) {
	loc := ast.Location{File: "m.py", Line: 7}

	t.Run("name", func(t *testing.T) {
		e, err := parseAnnotation("Pubkey", loc)
		require.NoError(t, err)
		assert.Equal(t, &ast.Name{At: ast.Location{File: "m.py", Line: 7, Col: 1}, Ident: "Pubkey"}, e)
	})

	t.Run("generic", func(t *testing.T) {
		e, err := parseAnnotation("List[u8]", loc)
		require.NoError(t, err)
		sub := e.(*ast.Subscript)
		assert.Equal(t, 5, sub.At.Col)
		assert.Equal(t, "List", sub.Value.(*ast.Name).Ident)
		require.Len(t, sub.Index, 1)
		assert.Equal(t, "u8", sub.Index[0].(*ast.Name).Ident)
	})

	t.Run("nested attribute", func(t *testing.T) {
		e, err := parseAnnotation("a.b.C", loc)
		require.NoError(t, err)
		attr := e.(*ast.Attribute)
		assert.Equal(t, "C", attr.Attr)
		inner := attr.Value.(*ast.Attribute)
		assert.Equal(t, "b", inner.Attr)
		assert.Equal(t, "a", inner.Value.(*ast.Name).Ident)
	})

	t.Run("literal", func(t *testing.T) {
		e, err := parseAnnotation("4", loc)
		require.NoError(t, err)
		assert.Equal(t, "4", e.(*ast.Constant).Value)
	})

	t.Run("parenthesised", func(t *testing.T) {
		e, err := parseAnnotation("(Pubkey)", loc)
		require.NoError(t, err)
		assert.Equal(t, "Pubkey", e.(*ast.Name).Ident)
	})

	t.Run("call is rejected", func(t *testing.T) {
		_, err := parseAnnotation("f(x)", loc)
		assert.True(t, IsCode(err, ErrCodeInvalidSyntax))
	})
}

func TestIdentifierNFKC(t *testing.T) {
	// U+FB01 (the "fi" ligature) folds to "fi" under NFKC.
	assert.Equal(t, "fine", identifier("\ufb01ne"))
	assert.Equal(t, "x", identifier("  x "))
}
