package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/seasign/internal/sign"
	"github.com/roach88/seasign/internal/store"
	"github.com/roach88/seasign/internal/tree"
)

// AssertionContext is what assertions are evaluated against.
type AssertionContext struct {
	Output  *sign.Output
	Records []store.Record
}

// AssertionError is returned when an assertion fails.
// It includes the signed paths to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Signed   []string // Every signed path, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Signed) > 0 {
		fmt.Fprintf(&buf, "\nSigned:\n")
		for _, p := range e.Signed {
			fmt.Fprintf(&buf, "  %s\n", p)
		}
	}
	return buf.String()
}

func (actx *AssertionContext) signedPaths() []string {
	paths := make([]string, 0, len(actx.Records))
	for _, r := range actx.Records {
		paths = append(paths, r.Path())
	}
	return paths
}

func (actx *AssertionContext) fail(a Assertion, expected, actual string) error {
	return &AssertionError{
		Type:     a.Type,
		Expected: expected,
		Actual:   actual,
		Signed:   actx.signedPaths(),
	}
}

// lookup finds the signature an assertion names, failing the assertion
// when there is none.
func (actx *AssertionContext) lookup(a Assertion) (sign.Signature, error) {
	sig, ok := actx.Output.Lookup(tree.ParsePath(a.Path))
	if !ok {
		return nil, actx.fail(a, "a signature at "+a.Path, "not signed")
	}
	return sig, nil
}

func assertKind(actx *AssertionContext, a Assertion) error {
	sig, err := actx.lookup(a)
	if err != nil {
		return err
	}
	if got := sign.KindName(sig); got != a.Kind {
		return actx.fail(a, fmt.Sprintf("%s to be %s", a.Path, a.Kind), got)
	}
	return nil
}

func assertField(actx *AssertionContext, a Assertion) error {
	sig, err := actx.lookup(a)
	if err != nil {
		return err
	}
	s, ok := sig.(*sign.StructSignature)
	if !ok {
		return actx.fail(a, a.Path+" to be a struct or account", sign.KindName(sig))
	}
	field, ok := s.Fields[a.Field]
	if !ok {
		return actx.fail(a, fmt.Sprintf("field %s.%s", a.Path, a.Field), "no such field")
	}
	if got := field.String(); got != a.Ty {
		return actx.fail(a, fmt.Sprintf("%s.%s: %s", a.Path, a.Field, a.Ty), got)
	}
	return nil
}

func assertVariants(actx *AssertionContext, a Assertion) error {
	sig, err := actx.lookup(a)
	if err != nil {
		return err
	}
	e, ok := sig.(*sign.EnumSignature)
	if !ok {
		return actx.fail(a, a.Path+" to be an enum", sign.KindName(sig))
	}
	got := make([]string, 0, len(e.Variants))
	for v := range e.Variants {
		got = append(got, v)
	}
	slices.Sort(got)
	want := slices.Sorted(slices.Values(a.Variants))
	if !slices.Equal(got, want) {
		return actx.fail(a, fmt.Sprintf("variants %v", want), fmt.Sprintf("%v", got))
	}
	return nil
}

func assertReturns(actx *AssertionContext, a Assertion) error {
	sig, err := actx.lookup(a)
	if err != nil {
		return err
	}
	f, ok := sig.(*sign.FunctionSignature)
	if !ok {
		return actx.fail(a, a.Path+" to be a function", sign.KindName(sig))
	}
	if got := f.Returns.String(); got != a.Ty {
		return actx.fail(a, fmt.Sprintf("%s returning %s", a.Path, a.Ty), got)
	}
	return nil
}

func assertCount(actx *AssertionContext, a Assertion) error {
	count := 0
	for _, r := range actx.Records {
		if a.Kind == "" || r.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		what := "signatures"
		if a.Kind != "" {
			what = a.Kind + " signatures"
		}
		return actx.fail(a, fmt.Sprintf("%d %s", a.Count, what), fmt.Sprintf("%d", count))
	}
	return nil
}

// assertStored compares the canonical encoding read back from the store,
// so it covers encoding and persistence together.
func assertStored(actx *AssertionContext, a Assertion) error {
	for _, r := range actx.Records {
		if r.Path() != a.Path {
			continue
		}
		if r.Signature != a.JSON {
			return actx.fail(a, a.JSON, r.Signature)
		}
		return nil
	}
	return actx.fail(a, "a stored signature at "+a.Path, "not stored")
}

func assertAbsent(actx *AssertionContext, a Assertion) error {
	if sig, ok := actx.Output.Lookup(tree.ParsePath(a.Path)); ok {
		return actx.fail(a, "nothing signed at "+a.Path, sign.Describe(sig))
	}
	return nil
}

// EvaluateAssertions evaluates every assertion and returns the failure
// messages. An empty slice means all assertions held.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	errs := []string{}
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertKind:
			err = assertKind(actx, a)
		case AssertField:
			err = assertField(actx, a)
		case AssertVariants:
			err = assertVariants(actx, a)
		case AssertReturns:
			err = assertReturns(actx, a)
		case AssertCount:
			err = assertCount(actx, a)
		case AssertStored:
			err = assertStored(actx, a)
		case AssertAbsent:
			err = assertAbsent(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}
