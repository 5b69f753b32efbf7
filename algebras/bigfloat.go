package algebras

import (
	"errors"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
	"github.com/zephyrtronium/mst"
)

// BigFloatField is the field of arbitrary-precision floating-point numbers.
// Every result is a newly allocated *big.Float with precision Prec; operands
// are never modified. Operations on operands outside their domain, like 0/0,
// ln(-1), or (-1)^0.5, fail with a *DomainError.
//
// Besides the arithmetic operations and pow, it defines exp, ln, sqrt, abs,
// and binary log. Trigonometric functions are not defined.
type BigFloatField struct {
	// Prec is the precision of results in bits. If zero, 64 is used.
	Prec uint
}

func (f BigFloatField) prec() uint {
	if f.Prec == 0 {
		return 64
	}
	return f.Prec
}

func (f BigFloatField) new() *big.Float {
	return new(big.Float).SetPrec(f.prec())
}

// Name identifies the field with its precision, e.g. "bigfloat64".
func (f BigFloatField) Name() string {
	return "bigfloat" + strconv.FormatUint(uint64(f.prec()), 10)
}

// Number parses a decimal literal, including inf, rounding to Prec.
func (f BigFloatField) Number(text string) (*big.Float, error) {
	x, _, err := f.new().Parse(text, 10)
	if err != nil {
		return nil, err
	}
	return x, nil
}

// Encode renders x exactly in hexadecimal along with its precision.
func (f BigFloatField) Encode(x *big.Float) string {
	return strconv.FormatUint(uint64(x.Prec()), 10) + ":" + x.Text('p', 0)
}

// BindSymbol binds pi and e to Prec bits.
func (f BigFloatField) BindSymbol(name string) (*big.Float, bool) {
	switch name {
	case "pi", "π":
		return bigfloat.Pi(f.new()), true
	case "e":
		one := new(big.Float).SetPrec(f.prec()).SetInt64(1)
		return bigfloat.Exp(f.new(), one), true
	}
	return nil, false
}

// UnaryOperation applies a named operation of one operand.
func (f BigFloatField) UnaryOperation(op string, x *big.Float) (r *big.Float, err error) {
	defer recoverNaN(op, &err)
	switch op {
	case mst.OpNamePlus:
		return f.new().Set(x), nil
	case mst.OpNameMinus:
		return f.new().Neg(x), nil
	case "abs":
		return f.new().Abs(x), nil
	case "exp":
		return bigfloat.Exp(f.new(), x), nil
	case "ln":
		if x.Sign() < 0 {
			return nil, &DomainError{X: x, Arg: 1, Func: op}
		}
		return bigfloat.Log(f.new(), x), nil
	case "sqrt":
		if x.Sign() < 0 {
			return nil, &DomainError{X: x, Arg: 1, Func: op}
		}
		return f.new().Sqrt(x), nil
	}
	return nil, mst.Unsupported(f, op, 1)
}

// BinaryOperation applies a named operation of two operands.
func (f BigFloatField) BinaryOperation(op string, l, r *big.Float) (z *big.Float, err error) {
	defer recoverNaN(op, &err)
	switch op {
	case mst.OpNamePlus:
		return f.new().Add(l, r), nil
	case mst.OpNameMinus:
		return f.new().Sub(l, r), nil
	case mst.OpNameTimes:
		return f.new().Mul(l, r), nil
	case mst.OpNameDiv:
		// Guard against invalid divisions, 0/0 or inf/inf.
		if l.Sign() == 0 && r.Sign() == 0 || l.IsInf() && r.IsInf() {
			return nil, &DomainError{X: r, Func: op}
		}
		return f.new().Quo(l, r), nil
	case mst.OpNamePow:
		// TODO: allow negative base with integer exponent
		if l.Signbit() {
			return nil, &DomainError{X: l, Arg: 1, Func: op}
		}
		// Pow hands back a value at another precision for some operands.
		return f.new().Set(bigfloat.Pow(f.new(), l, r)), nil
	case "log":
		if l.Sign() < 0 {
			return nil, &DomainError{X: l, Arg: 1, Func: op}
		}
		if r.Sign() < 0 {
			return nil, &DomainError{X: r, Arg: 2, Func: op}
		}
		n := bigfloat.Log(f.new(), l)
		d := bigfloat.Log(f.new(), r)
		return n.Quo(n, d), nil
	}
	return nil, mst.Unsupported(f, op, 2)
}

// Describe returns direct implementations of sign operations, the only ones
// which cannot fail.
func (f BigFloatField) Describe() *mst.Descriptor[*big.Float] {
	return &mst.Descriptor[*big.Float]{
		Unary: map[mst.Op]func(*big.Float) *big.Float{
			mst.OpPlus: func(x *big.Float) *big.Float { return f.new().Set(x) },
			mst.OpNeg:  func(x *big.Float) *big.Float { return f.new().Neg(x) },
		},
	}
}

// recoverNaN converts a big.ErrNaN panic into a *DomainError. Other panics
// propagate.
func recoverNaN(op string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(error)
	if !ok || !errors.As(e, &big.ErrNaN{}) {
		panic(r)
	}
	*err = &DomainError{X: e, Func: op}
}
