// Package algebras provides concrete algebras for mst expressions: a float64
// field, a wrapping int32 ring, and an arbitrary-precision field over
// *big.Float.
package algebras

import (
	"fmt"
	"strconv"
)

// DomainError is an error returned when an operation is applied to operands
// outside its domain, e.g. ln of a negative number or integer division by
// zero.
type DomainError struct {
	// X is the out-of-domain operand.
	X any
	// Arg is the 1-based index of the operand, or 0 if the combination of
	// operands is invalid as a whole.
	Arg int
	// Func is a name identifying the operation.
	Func string
}

func (err *DomainError) Error() string {
	r := fmt.Sprint(err.X) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}
