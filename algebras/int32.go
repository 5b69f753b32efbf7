package algebras

import (
	"math"
	"strconv"

	"github.com/zephyrtronium/mst"
)

// Int32Ring is the ring of 32-bit two's complement integers. Addition,
// subtraction, multiplication, and negation wrap on overflow. Division
// truncates toward zero and fails with a *DomainError for a zero divisor or
// for the one quotient that does not fit, MinInt32 / -1. pow fails for a
// negative exponent. It also defines unary abs and binary mod, min, and max.
type Int32Ring struct{}

// Name returns "int32".
func (Int32Ring) Name() string {
	return "int32"
}

// Number parses a decimal integer literal. Fractions, exponents, and inf are
// not representable. A literal may carry a leading minus sign, which is how
// -2147483648 is bound.
func (Int32Ring) Number(text string) (int32, error) {
	n, err := strconv.ParseInt(text, 10, 32)
	return int32(n), err
}

// Encode renders x in decimal.
func (Int32Ring) Encode(x int32) string {
	return strconv.FormatInt(int64(x), 10)
}

// BindSymbol binds nothing.
func (Int32Ring) BindSymbol(name string) (int32, bool) {
	return 0, false
}

// UnaryOperation applies a named operation of one operand.
func (z Int32Ring) UnaryOperation(op string, x int32) (int32, error) {
	if g := int32Desc.Unary[mst.LookupOp(op, 1)]; g != nil {
		return g(x), nil
	}
	switch op {
	case "abs":
		if x < 0 {
			return -x, nil
		}
		return x, nil
	}
	return 0, mst.Unsupported(z, op, 1)
}

// BinaryOperation applies a named operation of two operands.
func (z Int32Ring) BinaryOperation(op string, l, r int32) (int32, error) {
	if g := int32Desc.Binary[mst.LookupOp(op, 2)]; g != nil {
		return g(l, r), nil
	}
	switch op {
	case mst.OpNameDiv:
		if err := divisible(l, r, op); err != nil {
			return 0, err
		}
		return l / r, nil
	case "mod":
		if err := divisible(l, r, op); err != nil {
			return 0, err
		}
		return l % r, nil
	case mst.OpNamePow:
		return ipow(l, r)
	case "min":
		return min(l, r), nil
	case "max":
		return max(l, r), nil
	}
	return 0, mst.Unsupported(z, op, 2)
}

// Describe returns the direct implementations of the operations that cannot
// fail.
func (Int32Ring) Describe() *mst.Descriptor[int32] {
	return int32Desc
}

var int32Desc = &mst.Descriptor[int32]{
	Unary: map[mst.Op]func(int32) int32{
		mst.OpPlus: func(x int32) int32 { return x },
		mst.OpNeg:  func(x int32) int32 { return -x },
	},
	Binary: map[mst.Op]func(int32, int32) int32{
		mst.OpAdd: func(l, r int32) int32 { return l + r },
		mst.OpSub: func(l, r int32) int32 { return l - r },
		mst.OpMul: func(l, r int32) int32 { return l * r },
	},
}

func divisible(l, r int32, op string) error {
	if r == 0 {
		return &DomainError{X: r, Arg: 2, Func: op}
	}
	if l == math.MinInt32 && r == -1 {
		return &DomainError{X: l, Func: op}
	}
	return nil
}

// ipow computes x^n by squaring, wrapping on overflow.
func ipow(x, n int32) (int32, error) {
	if n < 0 {
		return 0, &DomainError{X: n, Arg: 2, Func: mst.OpNamePow}
	}
	r := int32(1)
	for n > 0 {
		if n&1 != 0 {
			r *= x
		}
		x *= x
		n >>= 1
	}
	return r, nil
}
