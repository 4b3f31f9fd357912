package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	b, ok := Lookup(Prelude, "Account")
	assert.True(t, ok)
	assert.Equal(t, Account, b)

	b, ok = Lookup(Python, "list")
	assert.True(t, ok)
	assert.Equal(t, List, b)

	_, ok = Lookup(Prelude, "list")
	assert.False(t, ok, "python builtins are not in the prelude")
}

func TestParse(t *testing.T) {
	b, ok := Parse("prelude.u8")
	assert.True(t, ok)
	assert.Equal(t, U8, b)
	assert.Equal(t, "prelude.u8", b.Qualified())
	assert.Equal(t, "u8", b.String())

	_, ok = Parse("u8")
	assert.False(t, ok)
}

func TestIsType(t *testing.T) {
	assert.True(t, Pubkey.IsType())
	assert.False(t, DeclareID.IsType())
	assert.False(t, Print.IsType())
}

func TestAllReturnsCopy(t *testing.T) {
	all := All(Python)
	assert.Equal(t, None, all[0])
	all[0] = Int
	assert.Equal(t, None, All(Python)[0])
}
