package mst

// Expression is a generated artifact that evaluates one typed tree. It is
// immutable and may be invoked concurrently if the algebra's operations are
// pure.
type Expression[T any] interface {
	// Invoke evaluates the expression with named bindings. Symbols missing
	// from bindings use their algebra default or fail with
	// *UnboundSymbolError.
	Invoke(bindings map[string]T) (T, error)

	// Call evaluates the expression with positional arguments aligned to
	// Symbols.
	Call(args ...T) (T, error)

	// Symbols returns the symbol in each positional slot.
	Symbols() []string
}

// Backend generates expressions from typed trees. The front end (parsing,
// binding, folding) is shared by every back end.
type Backend[T any] interface {
	// Name identifies the back end in logs and errors.
	Name() string

	// Emit generates an expression. Emit returns an
	// *UnsupportedOperationError if the back end cannot express an operation
	// in the tree.
	Emit(t *Typed[T]) (Expression[T], error)
}

// Interpreted returns the back end which evaluates typed trees directly. It
// supports every algebra and every operation the algebra supports.
func Interpreted[T any]() Backend[T] {
	return interpreted[T]{}
}

type interpreted[T any] struct{}

func (interpreted[T]) Name() string {
	return "interpreter"
}

func (interpreted[T]) Emit(t *Typed[T]) (Expression[T], error) {
	return &interpretedExpr[T]{t: t, layout: t.Symbols().Layout()}, nil
}

type interpretedExpr[T any] struct {
	t      *Typed[T]
	layout Layout[T]
}

func (e *interpretedExpr[T]) Invoke(bindings map[string]T) (T, error) {
	return e.t.Eval(bindings)
}

func (e *interpretedExpr[T]) Call(args ...T) (T, error) {
	full, err := e.layout.FromArgs(args)
	if err != nil {
		var zero T
		return zero, err
	}
	return e.t.Eval(e.layout.ToMap(full))
}

func (e *interpretedExpr[T]) Symbols() []string {
	return e.layout.Names()
}

func (e *interpretedExpr[T]) String() string {
	return e.t.String()
}
