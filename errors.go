package mst

import (
	"errors"
	"strconv"
)

// UnboundSymbolError is an error from a lookup for a symbol that was neither
// supplied by the caller nor bound by the algebra. It only ever occurs when an
// expression is evaluated, never while parsing, folding, or compiling.
type UnboundSymbolError struct {
	// Name is the symbol that was missing.
	Name string
}

func (err *UnboundSymbolError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// UnsupportedOperationError indicates that an algebra or a back end does not
// define a named operation.
type UnsupportedOperationError struct {
	// Op is the operation name.
	Op string
	// Arity is the number of operands the operation was applied to.
	Arity int
	// Algebra names the algebra or back end that lacks the operation.
	Algebra string
}

func (err *UnsupportedOperationError) Error() string {
	kind := "binary"
	if err.Arity == 1 {
		kind = "unary"
	}
	return err.Algebra + " does not support " + kind + " operation " + strconv.Quote(err.Op)
}

// LiteralError indicates a numeric literal that an algebra cannot represent,
// e.g. "2.5" in an integer ring.
type LiteralError struct {
	// Text is the literal.
	Text string
	// Algebra is the name of the algebra.
	Algebra string
	// Err is the reason the conversion failed, if any.
	Err error
}

func (err *LiteralError) Error() string {
	s := "cannot represent " + strconv.Quote(err.Text) + " in " + err.Algebra
	if err.Err != nil {
		s += ": " + err.Err.Error()
	}
	return s
}

func (err *LiteralError) Unwrap() error {
	return err.Err
}

// ArgumentCountError indicates a positional call to an Expression with more
// arguments than it has slots.
type ArgumentCountError struct {
	// Want is the number of slots.
	Want int
	// Got is the number of arguments supplied.
	Got int
}

func (err *ArgumentCountError) Error() string {
	return "expression takes " + strconv.Itoa(err.Want) + " arguments, got " + strconv.Itoa(err.Got)
}

// IsUnsupported reports whether err is or wraps an UnsupportedOperationError.
// Callers can use it to decide to fall back to interpretation.
func IsUnsupported(err error) bool {
	var u *UnsupportedOperationError
	return errors.As(err, &u)
}

// IsUnbound reports whether err is or wraps an UnboundSymbolError.
func IsUnbound(err error) bool {
	var u *UnboundSymbolError
	return errors.As(err, &u)
}
