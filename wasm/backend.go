// Package wasm compiles typed expression trees over float64 or int32 to
// WebAssembly modules and runs them with wazero.
//
// Arithmetic maps to native instructions. Over float64, transcendental
// operations and pow call functions imported from the host module "env",
// which the back end provides from package math. Operations with neither a
// native instruction nor an import fail at generation time with
// *mst.UnsupportedOperationError, so a back end is only as capable as its
// instruction table, regardless of the algebra.
package wasm

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/zephyrtronium/mst"
)

// Number is the set of types with a WebAssembly value type.
type Number interface {
	float64 | int32
}

// TrapError is an error from a module which trapped during invocation, e.g.
// on integer division by zero.
type TrapError struct {
	// Unit is the name of the module instance.
	Unit string
	// Err is the error wazero reported.
	Err error
}

func (err *TrapError) Error() string {
	return "wasm: " + err.Unit + " trapped: " + err.Err.Error()
}

func (err *TrapError) Unwrap() error {
	return err.Err
}

// Backend is the WebAssembly back end. All modules it instantiates share one
// wazero runtime, released by Close.
type Backend[T Number] struct {
	runtime wazero.Runtime
	log     *slog.Logger
	seq     atomic.Uint64
}

var _ mst.Backend[float64] = (*Backend[float64])(nil)

// Option configures a Backend.
type Option func(*options)

type options struct {
	log    *slog.Logger
	config wazero.RuntimeConfig
}

// WithLogger sets the logger for instantiation events. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRuntimeConfig sets the wazero runtime configuration, e.g. to force the
// interpreter engine.
func WithRuntimeConfig(c wazero.RuntimeConfig) Option {
	return func(o *options) { o.config = c }
}

// New creates a runtime and instantiates the host math module in it.
func New[T Number](ctx context.Context, opts ...Option) (*Backend[T], error) {
	o := options{log: slog.Default(), config: wazero.NewRuntimeConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	r := wazero.NewRuntimeWithConfig(ctx, o.config)
	env := r.NewHostModuleBuilder(hostModule)
	for name, f := range hostUnary {
		env = env.NewFunctionBuilder().WithFunc(f).Export(name)
	}
	for name, f := range hostBinary {
		env = env.NewFunctionBuilder().WithFunc(f).Export(name)
	}
	if _, err := env.Instantiate(ctx); err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("wasm: instantiating host module: %w", err)
	}
	return &Backend[T]{runtime: r, log: o.log}, nil
}

// Name returns "wasm".
func (*Backend[T]) Name() string {
	return "wasm"
}

// Emit generates and instantiates a module for t. The returned expression is
// an *Expression[T].
func (b *Backend[T]) Emit(t *mst.Typed[T]) (mst.Expression[T], error) {
	e, err := b.Compile(context.Background(), t)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Compile is Emit with a context and a concrete result.
func (b *Backend[T]) Compile(ctx context.Context, t *mst.Typed[T]) (*Expression[T], error) {
	bin, layout, err := Generate(t)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("expr_%016x_%d", t.Hash(), b.seq.Add(1))
	mod, err := b.runtime.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, fmt.Errorf("wasm: instantiating %s: %w", name, err)
	}
	b.log.Debug("instantiated module",
		slog.String("unit", name),
		slog.Int("size", len(bin)),
		slog.Int("params", layout.Len()),
	)
	return &Expression[T]{name: name, mod: mod, bin: bin, layout: layout, signature: t.Signature()}, nil
}

// Close releases the runtime and every module instantiated in it.
// Expressions from the back end must not be used afterward.
func (b *Backend[T]) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}

// Expression is an instantiated module.
type Expression[T Number] struct {
	name      string
	mod       api.Module
	bin       []byte
	layout    mst.Layout[T]
	signature string
}

var _ mst.Expression[int32] = (*Expression[int32])(nil)

// Name returns the module instance name.
func (e *Expression[T]) Name() string {
	return e.name
}

// Binary returns a copy of the module binary.
func (e *Expression[T]) Binary() []byte {
	return append([]byte(nil), e.bin...)
}

// Symbols returns the symbol for each parameter of the exported function.
func (e *Expression[T]) Symbols() []string {
	return e.layout.Names()
}

// Invoke calls the exported function with named bindings.
func (e *Expression[T]) Invoke(bindings map[string]T) (T, error) {
	args, err := e.layout.FromMap(bindings)
	if err != nil {
		var zero T
		return zero, err
	}
	return e.CallContext(context.Background(), args...)
}

// Call calls the exported function with positional arguments.
func (e *Expression[T]) Call(args ...T) (T, error) {
	return e.CallContext(context.Background(), args...)
}

// CallContext is Call with a context.
func (e *Expression[T]) CallContext(ctx context.Context, args ...T) (T, error) {
	var zero T
	args, err := e.layout.FromArgs(args)
	if err != nil {
		return zero, err
	}
	params := make([]uint64, len(args))
	for k, v := range args {
		params[k] = encode(v)
	}
	// A Function is not safe for concurrent calls, so look it up each time.
	f := e.mod.ExportedFunction(ExportName)
	res, err := f.Call(ctx, params...)
	if err != nil {
		return zero, &TrapError{Unit: e.name, Err: err}
	}
	return decode[T](res[0]), nil
}

// String returns the signature of the tree the module was compiled from.
func (e *Expression[T]) String() string {
	return e.signature
}

func encode[T Number](v T) uint64 {
	switch v := any(v).(type) {
	case float64:
		return api.EncodeF64(v)
	case int32:
		return api.EncodeI32(v)
	}
	panic("wasm: unreachable")
}

func decode[T Number](v uint64) T {
	var r T
	switch p := any(&r).(type) {
	case *float64:
		*p = api.DecodeF64(v)
	case *int32:
		*p = api.DecodeI32(v)
	}
	return r
}
