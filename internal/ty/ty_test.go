package ty

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/tree"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		ty   Ty
		want string
	}{
		{"builtin", Builtin(builtin.Pubkey), "Pubkey"},
		{"none", None(), "None"},
		{"defined", Defined(tree.Path{"program", "Acc"}, Account), "program.Acc<account>"},
		{
			"nested",
			Builtin(builtin.List, Defined(tree.Path{"program", "S"}, Struct)),
			"list[program.S<struct>]",
		},
		{"missing head", Ty{}, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ty.String())
		})
	}
}

func TestIsBuiltin(t *testing.T) {
	assert.True(t, Builtin(builtin.Account).IsBuiltin(builtin.Account))
	assert.False(t, Builtin(builtin.Account).IsBuiltin(builtin.Enum))
	assert.False(t, Defined(tree.Path{"m", "Account"}, Struct).IsBuiltin(builtin.Account))
}

func TestWalkVisitsArgumentsDepthFirst(t *testing.T) {
	inner := Defined(tree.Path{"m", "E"}, Enum)
	outer := Builtin(builtin.List, Builtin(builtin.Array, inner, Builtin(builtin.U8)))

	var seen []string
	outer.Walk(func(t Ty) { seen = append(seen, t.Name.String()) })

	assert.Equal(t, []string{"list", "Array", "m.E<enum>", "u8"}, seen)
}

func TestDefinedTypeString(t *testing.T) {
	assert.Equal(t, "struct", Struct.String())
	assert.Equal(t, "account", Account.String())
	assert.Equal(t, "enum", Enum.String())
	assert.Equal(t, "required", Required.String())
}
