// Package bytecode compiles typed expression trees to programs for a small
// stack machine.
//
// Each program holds the algebra it was compiled against, a constant pool,
// and tables of the direct operations the algebra describes. Operations the
// algebra does not describe are called through its generic dispatch by name.
// Programs are loaded into a process-wide registry under a name derived from
// a hash of the tree, so compiling the same tree twice returns the same
// program.
package bytecode

import (
	"fmt"
	"log/slog"

	"github.com/zephyrtronium/mst"
)

// Backend is the bytecode back end. It is safe for concurrent use.
type Backend[T any] struct {
	log      *slog.Logger
	registry *Registry
	reuse    bool
}

var _ mst.Backend[float64] = (*Backend[float64])(nil)

// Option configures a Backend.
type Option func(*options)

type options struct {
	log      *slog.Logger
	registry *Registry
	reuse    bool
}

// WithLogger sets the logger for registry events. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegistry loads units into r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithoutCache makes every Emit load a new unit, even if a unit with the same
// signature is already loaded.
func WithoutCache() Option {
	return func(o *options) { o.reuse = false }
}

// New creates a bytecode back end.
func New[T any](opts ...Option) *Backend[T] {
	o := options{log: slog.Default(), registry: DefaultRegistry, reuse: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Backend[T]{log: o.log, registry: o.registry, reuse: o.reuse}
}

// Name returns "bytecode".
func (*Backend[T]) Name() string {
	return "bytecode"
}

// Emit compiles t and loads the resulting program. The returned expression
// is a *Program[T]. Emit only fails when the registry is exhausted.
func (b *Backend[T]) Emit(t *mst.Typed[T]) (mst.Expression[T], error) {
	p, err := b.Compile(t)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Compile is Emit with a concrete result.
func (b *Backend[T]) Compile(t *mst.Typed[T]) (*Program[T], error) {
	c := newCompiler(t.Algebra)
	c.compile(t.Root)
	sig := t.Signature()
	base := fmt.Sprintf("expr_%016x", t.Hash())
	return load(b.registry, base, sig, b.reuse, b.log, func(name string) *Program[T] {
		return c.program(name, sig)
	})
}
