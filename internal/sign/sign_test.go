package sign

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seasign/internal/ast"
	"github.com/roach88/seasign/internal/builtin"
	"github.com/roach88/seasign/internal/namespace"
	"github.com/roach88/seasign/internal/testutil"
	"github.com/roach88/seasign/internal/tree"
	"github.com/roach88/seasign/internal/ty"
)

var (
	accPath = tree.Path{"program", "Acc"}
	ePath   = tree.Path{"program", "E"}
	sPath   = tree.Path{"program", "S"}
	fPath   = tree.Path{"program", "f"}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func mustSign(t *testing.T, ns *namespace.Output, opts ...Option) *Output {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	out, err := Sign(ns, opts...)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func mustLookup(t *testing.T, out *Output, path tree.Path) Signature {
	t.Helper()
	sig, ok := out.Lookup(path)
	require.True(t, ok, "no signature at %s", path.Key())
	return sig
}

func TestSign_ProgramExample(t *testing.T) {
	out := mustSign(t, testutil.ProgramNamespace())

	assert.Equal(t, &StructSignature{
		IsAccount: true,
		Bases:     []ty.Ty{ty.Builtin(builtin.Account)},
		Fields:    map[string]ty.Ty{"owner": ty.Builtin(builtin.Pubkey)},
	}, mustLookup(t, out, accPath))

	assert.Equal(t, &EnumSignature{
		Variants: map[string]struct{}{"A": {}, "B": {}},
	}, mustLookup(t, out, ePath))

	assert.Equal(t, &StructSignature{
		Fields: map[string]ty.Ty{
			"acc": ty.Defined(accPath, ty.Account),
			"tag": ty.Defined(ePath, ty.Enum),
		},
	}, mustLookup(t, out, sPath))

	assert.Equal(t, &FunctionSignature{
		Params:  []Param{{Name: "x", Ty: ty.Defined(sPath, ty.Struct), Kind: ty.Required}},
		Returns: ty.Defined(ePath, ty.Enum),
	}, mustLookup(t, out, fPath))

	assert.Equal(t, BuiltinSignature{Builtin: builtin.Pubkey},
		mustLookup(t, out, tree.Path{"program", "Pubkey"}))
}

func TestSign_KeepsNamespace(t *testing.T) {
	ns := testutil.ProgramNamespace()
	out := mustSign(t, ns)
	assert.Same(t, ns, out.Namespace)
}

func TestSign_ForwardReferenceAcrossModules(t *testing.T) {
	// Module "a" sorts before "b" and is signed first, yet its references
	// into "b" must still end up with b's classifications.
	ns := namespace.NewOutput()
	a, b := tree.Path{"a"}, tree.Path{"b"}
	ns.ImportPrelude(b)
	ns.Export(a, "b", namespace.ModuleRef{Module: b})
	ns.Export(a, "V", namespace.ReExport{Module: b, Name: "U"})
	ns.Define(a, testutil.Class("T", 1, nil,
		testutil.Field("u", testutil.Attr(testutil.Name("b"), "U"), 2),
		testutil.Field("v", testutil.Name("V"), 3),
		testutil.Field("w", testutil.Sub(testutil.Name("list"), testutil.Attr(testutil.Name("b"), "W")), 4),
	))
	ns.Define(b, testutil.Class("U", 1, testutil.Bases("Enum"), testutil.Variant("X", "1", 2)))
	ns.Define(b, testutil.Class("W", 4, testutil.Bases("Account")))

	out := mustSign(t, ns)
	sig := mustLookup(t, out, tree.Path{"a", "T"}).(*StructSignature)

	uPath := tree.Path{"b", "U"}
	assert.Equal(t, ty.Defined(uPath, ty.Enum), sig.Fields["u"])
	assert.Equal(t, ty.Defined(uPath, ty.Enum), sig.Fields["v"], "re-exports point at the defining module")
	assert.Equal(t, ty.Builtin(builtin.List, ty.Defined(tree.Path{"b", "W"}, ty.Account)), sig.Fields["w"],
		"arguments are corrected recursively")

	_, hasAlias := out.Lookup(tree.Path{"a", "V"})
	assert.False(t, hasAlias, "re-exports carry no signature of their own")
	_, hasModule := out.Lookup(tree.Path{"a", "b"})
	assert.False(t, hasModule, "module references carry no signature")
}

func TestSign_DefinitionWinsOverAliasedBuiltin(t *testing.T) {
	// "Zpk" sorts after "Pubkey", and its builtin signature is keyed by the
	// builtin's own name, Pubkey.
	ns := namespace.NewOutput()
	ns.Export(testutil.Program, "Account", namespace.Builtin{Builtin: builtin.Account})
	ns.Export(testutil.Program, "Zpk", namespace.Builtin{Builtin: builtin.Pubkey})
	ns.Define(testutil.Program, testutil.Class("Pubkey", 1, testutil.Bases("Account")))
	ns.Define(testutil.Program, testutil.Class("S", 3, nil, testutil.Field("k", testutil.Name("Pubkey"), 4)))

	for _, workers := range []int{1, 4} {
		out := mustSign(t, ns, WithWorkers(workers))

		pk, ok := mustLookup(t, out, tree.Path{"program", "Pubkey"}).(*StructSignature)
		require.True(t, ok, "the class definition is kept (workers=%d)", workers)
		assert.True(t, pk.IsAccount)

		s := mustLookup(t, out, tree.Path{"program", "S"}).(*StructSignature)
		assert.Equal(t, ty.Defined(tree.Path{"program", "Pubkey"}, ty.Account), s.Fields["k"], "workers=%d", workers)
	}
}

func TestSign_FunctionWithoutReturnReturnsNone(t *testing.T) {
	ns := namespace.NewOutput()
	ns.ImportPrelude(testutil.Program)
	ns.Define(testutil.Program, testutil.Func("init", 1, nil,
		testutil.Param("owner", testutil.Name("Signer")),
		testutil.Param("n", testutil.Name("u64")),
	))

	out := mustSign(t, ns)
	assert.Equal(t, &FunctionSignature{
		Params: []Param{
			{Name: "owner", Ty: ty.Builtin(builtin.Signer), Kind: ty.Required},
			{Name: "n", Ty: ty.Builtin(builtin.U64), Kind: ty.Required},
		},
		Returns: ty.None(),
	}, mustLookup(t, out, tree.Path{"program", "init"}))
}

func TestSign_EmptyClassIsStruct(t *testing.T) {
	ns := namespace.NewOutput()
	ns.Define(testutil.Program, testutil.Class("Unit", 1, nil))

	out := mustSign(t, ns)
	assert.Equal(t, &StructSignature{Fields: map[string]ty.Ty{}},
		mustLookup(t, out, tree.Path{"program", "Unit"}))
}

func TestSign_Errors(t *testing.T) {
	prelude := func(defs ...ast.TopLevelStatement) *namespace.Output {
		ns := namespace.NewOutput()
		ns.ImportPrelude(testutil.Program)
		for _, d := range defs {
			ns.Define(testutil.Program, d)
		}
		return ns
	}

	tests := []struct {
		name string
		ns   *namespace.Output
		kind ErrorKind
		line int
	}{
		{
			name: "struct base",
			ns: prelude(
				testutil.Class("Base", 1, nil, testutil.Field("x", testutil.Name("u8"), 2)),
				testutil.Class("Child", 4, []ast.Expr{testutil.NameAt("Base", 4)}),
			),
			kind: InvalidBase,
			line: 4,
		},
		{
			name: "builtin base",
			ns:   prelude(testutil.Class("K", 3, []ast.Expr{testutil.NameAt("Pubkey", 3)})),
			kind: InvalidBase,
			line: 3,
		},
		{
			name: "base on its own line is located there",
			ns:   prelude(testutil.Class("K", 2, []ast.Expr{testutil.NameAt("Signer", 3)})),
			kind: InvalidBase,
			line: 3,
		},
		{
			name: "base without location falls back to class",
			ns:   prelude(testutil.Class("K", 9, testutil.Bases("Signer"))),
			kind: InvalidBase,
			line: 9,
		},
		{
			name: "enum account",
			ns:   prelude(testutil.Class("K", 5, testutil.Bases("Account", "Enum"))),
			kind: EnumAccount,
			line: 5,
		},
		{
			name: "enum with annotated field",
			ns: prelude(testutil.Class("K", 1, testutil.Bases("Enum"),
				testutil.Variant("A", "1", 2),
				testutil.Field("b", testutil.Name("u8"), 3))),
			kind: InvalidEnumVariant,
			line: 3,
		},
		{
			name: "enum with method",
			ns: prelude(testutil.Class("K", 1, testutil.Bases("Enum"),
				testutil.Method("go", 2))),
			kind: InvalidEnumVariant,
			line: 2,
		},
		{
			name: "struct with assignment",
			ns: prelude(testutil.Class("K", 1, nil,
				testutil.Variant("a", "1", 2))),
			kind: InvalidClassField,
			line: 2,
		},
		{
			name: "struct with method",
			ns: prelude(testutil.Class("K", 1, testutil.Bases("Account"),
				testutil.Field("owner", testutil.Name("Pubkey"), 2),
				testutil.Method("check", 3))),
			kind: InvalidClassField,
			line: 3,
		},
		{
			name: "struct field with default",
			ns: prelude(testutil.Class("K", 1, nil,
				&ast.FieldDef{At: testutil.At(2), Name: "a", Ty: testutil.Name("u8"),
					Value: &ast.Constant{Value: "0"}})),
			kind: InvalidClassField,
			line: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Sign(tt.ns, WithLogger(quietLogger()))
			require.Error(t, err)
			assert.Nil(t, out, "no output on error")
			assert.True(t, IsKind(err, tt.kind), "got %v", err)

			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.line, se.Loc.Line)
			assert.Equal(t, testutil.File, se.Loc.File)
		})
	}
}

func TestSign_InvalidBaseCarriesProvisionalType(t *testing.T) {
	ns := namespace.NewOutput()
	ns.Define(testutil.Program, testutil.Class("Base", 1, testutil.Bases("Account")))
	ns.Define(testutil.Program, testutil.Class("Child", 2, testutil.Bases("Base")))
	ns.ImportPrelude(testutil.Program)

	_, err := Sign(ns, WithLogger(quietLogger()))
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, InvalidBase, se.Kind)
	// The error is raised in pass 1, so even an account base reads as a
	// struct.
	assert.Equal(t, ty.Defined(tree.Path{"program", "Base"}, ty.Struct), se.Ty)
	assert.Equal(t, `cannot inherit from "program.Base<struct>"`, se.Message())
}

func TestSign_ResolveErrorPropagates(t *testing.T) {
	ns := namespace.NewOutput()
	ns.Define(testutil.Program, testutil.Class("K", 1, nil,
		testutil.Field("x", testutil.NameAt("Missing", 2), 2)))

	_, err := Sign(ns, WithLogger(quietLogger()))
	var re *namespace.ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, namespace.ErrUndefinedName, re.Kind)
	assert.Equal(t, "Missing", re.Name)
}

func TestSign_FirstErrorIsDeterministic(t *testing.T) {
	build := func() *namespace.Output {
		ns := namespace.NewOutput()
		lines := map[string]int{"m3": 13, "m1": 11, "m2": 12}
		for _, m := range []string{"m3", "m1", "m2"} {
			path := tree.Path{m}
			line := lines[m]
			ns.ImportPrelude(path)
			// Within a module the names are visited in order, so Z is never
			// reached once A has failed.
			ns.Define(path, testutil.Class("Z", 20, testutil.Bases("Account", "Enum")))
			ns.Define(path, testutil.Class("A", line, testutil.Bases("Pubkey")))
		}
		return ns
	}

	for _, workers := range []int{1, 2, 8} {
		for run := 0; run < 5; run++ {
			_, err := Sign(build(), WithWorkers(workers), WithLogger(quietLogger()))
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, InvalidBase, se.Kind, "workers=%d", workers)
			assert.Equal(t, 11, se.Loc.Line, "m1 sorts first (workers=%d)", workers)
		}
	}
}

func TestSign_StrictDuplicates(t *testing.T) {
	dupStruct := func() *namespace.Output {
		ns := namespace.NewOutput()
		ns.ImportPrelude(testutil.Program)
		ns.Define(testutil.Program, testutil.Class("K", 1, nil,
			testutil.Field("x", testutil.Name("u8"), 2),
			testutil.Field("x", testutil.Name("Pubkey"), 3)))
		return ns
	}
	dupEnum := func() *namespace.Output {
		ns := namespace.NewOutput()
		ns.ImportPrelude(testutil.Program)
		ns.Define(testutil.Program, testutil.Class("K", 1, testutil.Bases("Enum"),
			testutil.Variant("A", "1", 2),
			testutil.Variant("A", "2", 3)))
		return ns
	}

	t.Run("last field wins by default", func(t *testing.T) {
		out := mustSign(t, dupStruct())
		sig := mustLookup(t, out, tree.Path{"program", "K"}).(*StructSignature)
		assert.Equal(t, map[string]ty.Ty{"x": ty.Builtin(builtin.Pubkey)}, sig.Fields)
	})

	t.Run("variants collapse by default", func(t *testing.T) {
		out := mustSign(t, dupEnum())
		sig := mustLookup(t, out, tree.Path{"program", "K"}).(*EnumSignature)
		assert.Len(t, sig.Variants, 1)
		assert.True(t, sig.HasVariant("A"))
	})

	t.Run("strict field", func(t *testing.T) {
		_, err := Sign(dupStruct(), WithStrictDuplicates(true), WithLogger(quietLogger()))
		var se *Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, DuplicateField, se.Kind)
		assert.Equal(t, "x", se.Name)
		assert.Equal(t, 3, se.Loc.Line)
		assert.Equal(t, "E205", se.Code())
	})

	t.Run("strict variant", func(t *testing.T) {
		_, err := Sign(dupEnum(), WithStrictDuplicates(true), WithLogger(quietLogger()))
		assert.True(t, IsKind(err, DuplicateVariant))
	})
}

func TestSign_Idempotent(t *testing.T) {
	ns := testutil.ProgramNamespace()
	first := mustSign(t, ns)
	second := mustSign(t, ns)

	assert.Equal(t, first.Tree, second.Tree)

	h1, err := Hash(first)
	require.NoError(t, err)
	h2, err := Hash(second)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestSign_ParallelMatchesSequential(t *testing.T) {
	build := func() *namespace.Output {
		ns := testutil.ProgramNamespace()
		for _, m := range []string{"x", "y", "z"} {
			path := tree.Path{"program", m}
			ns.ImportPrelude(path)
			ns.Export(path, "program", namespace.ModuleRef{Module: testutil.Program})
			ns.Define(path, testutil.Class("Holder", 1, testutil.Bases("Account"),
				testutil.Field("s", testutil.Attr(testutil.Name("program"), "S"), 2),
				testutil.Field("e", testutil.Attr(testutil.Name("program"), "E"), 3)))
		}
		return ns
	}

	seq := mustSign(t, build(), WithWorkers(1))
	par := mustSign(t, build(), WithWorkers(4))
	assert.Equal(t, seq.Tree, par.Tree)

	holder := mustLookup(t, par, tree.Path{"program", "y", "Holder"}).(*StructSignature)
	assert.Equal(t, ty.Defined(ePath, ty.Enum), holder.Fields["e"])
}

func TestSign_EveryDefinitionIsSigned(t *testing.T) {
	ns := testutil.ProgramNamespace()
	out := mustSign(t, ns)

	for _, p := range ns.Tree.Paths() {
		exports, _ := ns.Tree.Lookup(p)
		for name, e := range exports {
			if _, ok := e.(namespace.Defined); !ok {
				continue
			}
			_, found := out.Lookup(p.Child(name))
			assert.True(t, found, "%s.%s has no signature", p.Key(), name)
		}
	}

	// Every defined reference points at a signature of the kind it is
	// tagged with.
	for _, entry := range out.Entries() {
		for _, t0 := range referencedTypes(entry.Signature) {
			t0.Walk(func(t1 ty.Ty) {
				d, ok := t1.Name.(ty.DefinedName)
				if !ok {
					return
				}
				target, found := out.Lookup(d.Path)
				require.True(t, found, "dangling reference %s", d.Path.Key())
				assert.Equal(t, classify(target), d.Kind, "reference to %s", d.Path.Key())
			})
		}
	}
}

func referencedTypes(sig Signature) []ty.Ty {
	var out []ty.Ty
	switch s := sig.(type) {
	case *StructSignature:
		out = append(out, s.Bases...)
		for _, f := range s.Fields {
			out = append(out, f)
		}
	case *FunctionSignature:
		for _, p := range s.Params {
			out = append(out, p.Ty)
		}
		out = append(out, s.Returns)
	}
	return out
}

func TestSign_Stats(t *testing.T) {
	out := mustSign(t, testutil.ProgramNamespace())
	st := out.Stats()

	assert.Equal(t, 1, st.Modules)
	assert.Equal(t, 1, st.Structs)
	assert.Equal(t, 1, st.Accounts)
	assert.Equal(t, 1, st.Enums)
	assert.Equal(t, 1, st.Functions)
	assert.Equal(t, len(builtin.All(builtin.Prelude)), st.Builtins)
	assert.Equal(t, 4+st.Builtins, st.Total())
}

func TestSign_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Sign(testutil.ProgramNamespace(), WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "sign pass 1 starting")
	assert.Contains(t, buf.String(), "signed namespace tree")
	assert.Contains(t, buf.String(), "accounts=1")
}

func TestSign_Panics(t *testing.T) {
	t.Run("nil namespace", func(t *testing.T) {
		assert.Panics(t, func() { _, _ = Sign(nil) })
	})

	t.Run("unsignable definition", func(t *testing.T) {
		ns := namespace.NewOutput()
		ns.Export(testutil.Program, "stray", namespace.Defined{Def: &ast.ExprStatement{At: testutil.At(1)}})
		assert.Panics(t, func() { _, _ = Sign(ns, WithLogger(quietLogger())) })
	})

	t.Run("unannotated parameter", func(t *testing.T) {
		ns := namespace.NewOutput()
		ns.Define(testutil.Program, testutil.Func("g", 1, nil, testutil.Param("x", nil)))
		assert.Panics(t, func() { _, _ = Sign(ns, WithLogger(quietLogger())) })
	})

	t.Run("unsignable definition on a worker", func(t *testing.T) {
		ns := testutil.ProgramNamespace()
		ns.Export(tree.Path{"other"}, "stray", namespace.Defined{Def: &ast.ExprStatement{}})
		assert.Panics(t, func() { _, _ = Sign(ns, WithWorkers(4), WithLogger(quietLogger())) })
	})
}
