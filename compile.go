package mst

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/zephyrtronium/mst/internal/cache"
)

// CompileOptions holds the settings of one Compile call.
type CompileOptions struct {
	// Logger receives debug records for each pipeline stage and a warning
	// when compilation falls back to the interpreter. Defaults to
	// slog.Default().
	Logger *slog.Logger
	// NoFold skips constant folding.
	NoFold bool
	// Cache, if non-nil, holds parsed trees keyed by source text.
	Cache *ParseCache
	// Fallback makes Compile use the interpreted back end when the requested
	// back end cannot express an operation.
	Fallback bool
}

// CompileOption configures Compile.
type CompileOption func(*CompileOptions)

// WithLogger sets the logger used during compilation.
func WithLogger(l *slog.Logger) CompileOption {
	return func(o *CompileOptions) { o.Logger = l }
}

// WithoutFolding disables constant folding.
func WithoutFolding() CompileOption {
	return func(o *CompileOptions) { o.NoFold = true }
}

// WithParseCache reuses parsed trees from c.
func WithParseCache(c *ParseCache) CompileOption {
	return func(o *CompileOptions) { o.Cache = c }
}

// WithFallback enables falling back to the interpreted back end on
// *UnsupportedOperationError.
func WithFallback() CompileOption {
	return func(o *CompileOptions) { o.Fallback = true }
}

// ParseCache is an LRU cache of parsed trees, safe for concurrent use.
// Trees are immutable, so one cache can serve every algebra.
type ParseCache struct {
	c *cache.Cache[string, Tree]
}

// NewParseCache creates a parse cache holding at most n trees. If n <= 0, a
// default capacity is used.
func NewParseCache(n int) *ParseCache {
	return &ParseCache{c: cache.New[string, Tree](n)}
}

// Len returns the number of cached trees.
func (c *ParseCache) Len() int {
	return c.c.Len()
}

// Forget removes the tree for src.
func (c *ParseCache) Forget(src string) {
	c.c.Invalidate(src)
}

// Clear removes every tree.
func (c *ParseCache) Clear() {
	c.c.Clear()
}

// Parse returns the cached tree for src, parsing it on a miss. Syntax errors
// are not cached.
func (c *ParseCache) Parse(src string) (Tree, error) {
	return c.c.GetOrCompute(src, func() (Tree, error) { return ParseString(src) })
}

// Compile parses src, binds it to a, folds constants, and generates an
// expression with b.
func Compile[T any](src string, a Algebra[T], b Backend[T], opts ...CompileOption) (Expression[T], error) {
	o := compileOptions(opts)
	var t Tree
	var err error
	if o.Cache != nil {
		t, err = o.Cache.Parse(src)
	} else {
		t, err = ParseString(src)
	}
	if err != nil {
		return nil, err
	}
	return compileTree(t, a, b, &o)
}

// CompileTree is Compile for an already parsed tree. WithParseCache has no
// effect.
func CompileTree[T any](t Tree, a Algebra[T], b Backend[T], opts ...CompileOption) (Expression[T], error) {
	o := compileOptions(opts)
	return compileTree(t, a, b, &o)
}

func compileOptions(opts []CompileOption) CompileOptions {
	o := CompileOptions{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func compileTree[T any](t Tree, a Algebra[T], b Backend[T], o *CompileOptions) (Expression[T], error) {
	log := o.Logger.With(slog.String("algebra", a.Name()), slog.String("backend", b.Name()))
	log.Debug("parsed", slog.String("tree", t.String()))

	typed, err := Bind(t, a)
	if err != nil {
		return nil, err
	}
	if !o.NoFold {
		typed = typed.Fold()
		log.Debug("folded", slog.String("tree", typed.String()))
	}

	expr, err := b.Emit(typed)
	var unsupported *UnsupportedOperationError
	if o.Fallback && errors.As(err, &unsupported) {
		log.Warn("falling back to interpreter",
			slog.String("op", unsupported.Op),
			slog.Int("arity", unsupported.Arity),
		)
		return Interpreted[T]().Emit(typed)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("generated", slog.String("symbols", strings.Join(expr.Symbols(), ",")))
	return expr, nil
}
