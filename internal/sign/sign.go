package sign

import (
	"log/slog"

	"github.com/roach88/seasign/internal/namespace"
	"github.com/roach88/seasign/internal/tree"
)

type options struct {
	workers int
	strict  bool
	logger  *slog.Logger
}

// Option configures Sign.
type Option func(*options)

// WithWorkers spreads each pass over n goroutines. n <= 1 runs on the
// calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithStrictDuplicates makes repeated field and variant names an error
// instead of letting the last declaration win.
func WithStrictDuplicates(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Sign computes a signature for every definition in the namespace tree.
//
// Pass 1 builds each module's signatures with every user-defined type
// reference provisionally tagged as a struct and stops at the first error.
// Pass 2 rewrites each reference to the kind of the signature it targets,
// which is only possible once pass 1 has covered the whole tree. Pass 2
// cannot fail; on error no output is returned.
func Sign(ns *namespace.Output, opts ...Option) (*Output, error) {
	o := options{workers: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if ns == nil || ns.Tree == nil {
		panic("sign: nil namespace output")
	}

	b := &builder{resolver: ns, strict: o.strict}

	o.logger.Debug("sign pass 1 starting", "modules", ns.Tree.Len(), "workers", o.workers)
	raw, err := tree.MapWithPathParallel(ns.Tree, ns.Tree,
		func(exports namespace.Namespace, abs tree.Path, _ *tree.Tree[namespace.Namespace]) (Signed, error) {
			o.logger.Debug("signing module", "module", abs.Key(), "exports", len(exports))
			return b.signNamespace(exports, abs)
		}, o.workers)
	if err != nil {
		o.logger.Debug("sign pass 1 failed", "error", err)
		return nil, err
	}

	o.logger.Debug("sign pass 2 starting")
	final := tree.MapParallel(raw, raw, func(s Signed, _ tree.Path, ref *tree.Tree[Signed]) Signed {
		return corrector{raw: ref}.signed(s)
	}, o.workers)

	out := &Output{Namespace: ns, Tree: final}
	stats := out.Stats()
	o.logger.Info("signed namespace tree",
		"modules", stats.Modules,
		"structs", stats.Structs,
		"accounts", stats.Accounts,
		"enums", stats.Enums,
		"functions", stats.Functions,
		"builtins", stats.Builtins,
	)
	return out, nil
}

// Stats counts signatures by kind.
type Stats struct {
	Modules   int `json:"modules"`
	Structs   int `json:"structs"`
	Accounts  int `json:"accounts"`
	Enums     int `json:"enums"`
	Functions int `json:"functions"`
	Builtins  int `json:"builtins"`
}

// Total returns the number of signatures.
func (s Stats) Total() int {
	return s.Structs + s.Accounts + s.Enums + s.Functions + s.Builtins
}

// Stats counts the modules holding at least one signature and the
// signatures of each kind.
func (o *Output) Stats() Stats {
	var st Stats
	for _, p := range o.Tree.Paths() {
		signed, _ := o.Tree.Lookup(p)
		if len(signed) > 0 {
			st.Modules++
		}
		for _, sig := range signed {
			switch s := sig.(type) {
			case *StructSignature:
				if s.IsAccount {
					st.Accounts++
				} else {
					st.Structs++
				}
			case *EnumSignature:
				st.Enums++
			case *FunctionSignature:
				st.Functions++
			case BuiltinSignature:
				st.Builtins++
			}
		}
	}
	return st
}
