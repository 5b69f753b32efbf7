package mst

import "fmt"

// Algebra is the capability set a tree is evaluated against: numeric literal
// conversion, generic operations dispatched by name, and intrinsic symbols.
// Implementations must be safe for concurrent use if the expressions built on
// them are invoked concurrently.
type Algebra[T any] interface {
	// Name identifies the algebra in errors and in compiled unit names. Two
	// algebras with equal names must behave identically.
	Name() string

	// Number converts a literal in the host literal grammar, e.g. "2.5e3" or
	// "inf", to a value. It returns an error if the literal is not
	// representable.
	Number(text string) (T, error)

	// UnaryOperation applies a named operation of one operand. If the
	// algebra does not define the operation, the error is an
	// *UnsupportedOperationError.
	UnaryOperation(op string, x T) (T, error)

	// BinaryOperation applies a named operation of two operands. If the
	// algebra does not define the operation, the error is an
	// *UnsupportedOperationError.
	BinaryOperation(op string, l, r T) (T, error)

	// BindSymbol resolves a symbol that the algebra defines intrinsically,
	// such as pi. The second result is false if the symbol must be supplied
	// by the caller.
	BindSymbol(name string) (T, bool)
}

// Describer is implemented by algebras that expose direct implementations of
// some operations. Back ends may call Describe once per node while generating
// code, so it should be cheap, and the descriptor must not change afterward.
type Describer[T any] interface {
	Describe() *Descriptor[T]
}

// Descriptor is a statically declared table of direct operations. A direct
// operation cannot fail; operations which can fail for some operands, such as
// integer division, belong only in the generic dispatch.
type Descriptor[T any] struct {
	Unary  map[Op]func(T) T
	Binary map[Op]func(T, T) T
}

// Unsupported is a convenience for algebra implementations to report an
// undefined operation.
func Unsupported(a interface{ Name() string }, op string, arity int) error {
	return &UnsupportedOperationError{Op: op, Arity: arity, Algebra: a.Name()}
}

// Encoder is implemented by algebras that can render a value exactly. Two
// values with equal encodings must be interchangeable in every operation.
// Without an Encoder, values are encoded with package fmt, so an algebra whose
// values print lossily should implement it.
type Encoder[T any] interface {
	Encode(x T) string
}

// Encode renders x in a form that distinguishes it from every other value of
// a. It is the key compiled units and constant pools are deduplicated by.
func Encode[T any](a Algebra[T], x T) string {
	if e, ok := a.(Encoder[T]); ok {
		return e.Encode(x)
	}
	return fmt.Sprint(x)
}
