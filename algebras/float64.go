package algebras

import (
	"math"
	"strconv"

	"github.com/zephyrtronium/mst"
)

// Float64Field is the field of IEEE-754 double precision numbers. Its
// operations never fail; out-of-domain operands produce NaN as in package
// math. Besides the tagged operations, it defines unary abs and binary log
// (logarithm of the first operand in the base of the second), min, and max.
type Float64Field struct{}

// Name returns "float64".
func (Float64Field) Name() string {
	return "float64"
}

// Number parses a decimal literal.
func (Float64Field) Number(text string) (float64, error) {
	return strconv.ParseFloat(text, 64)
}

// Encode renders the bits of x, so that zeros and NaNs of different sign are
// distinct.
func (Float64Field) Encode(x float64) string {
	return strconv.FormatUint(math.Float64bits(x), 16)
}

// BindSymbol binds pi and e.
func (Float64Field) BindSymbol(name string) (float64, bool) {
	switch name {
	case "pi", "π":
		return math.Pi, true
	case "e":
		return math.E, true
	}
	return 0, false
}

// UnaryOperation applies a named operation of one operand.
func (f Float64Field) UnaryOperation(op string, x float64) (float64, error) {
	if g := float64Desc.Unary[mst.LookupOp(op, 1)]; g != nil {
		return g(x), nil
	}
	switch op {
	case "abs":
		return math.Abs(x), nil
	}
	return 0, mst.Unsupported(f, op, 1)
}

// BinaryOperation applies a named operation of two operands.
func (f Float64Field) BinaryOperation(op string, l, r float64) (float64, error) {
	if g := float64Desc.Binary[mst.LookupOp(op, 2)]; g != nil {
		return g(l, r), nil
	}
	switch op {
	case "log":
		return math.Log(l) / math.Log(r), nil
	case "min":
		return math.Min(l, r), nil
	case "max":
		return math.Max(l, r), nil
	}
	return 0, mst.Unsupported(f, op, 2)
}

// Describe returns the direct implementations of every tagged operation.
func (Float64Field) Describe() *mst.Descriptor[float64] {
	return float64Desc
}

var float64Desc = &mst.Descriptor[float64]{
	Unary: map[mst.Op]func(float64) float64{
		mst.OpPlus:  func(x float64) float64 { return x },
		mst.OpNeg:   func(x float64) float64 { return -x },
		mst.OpSin:   math.Sin,
		mst.OpCos:   math.Cos,
		mst.OpTan:   math.Tan,
		mst.OpAsin:  math.Asin,
		mst.OpAcos:  math.Acos,
		mst.OpAtan:  math.Atan,
		mst.OpSinh:  math.Sinh,
		mst.OpCosh:  math.Cosh,
		mst.OpTanh:  math.Tanh,
		mst.OpAsinh: math.Asinh,
		mst.OpAcosh: math.Acosh,
		mst.OpAtanh: math.Atanh,
		mst.OpExp:   math.Exp,
		mst.OpLn:    math.Log,
		mst.OpSqrt:  math.Sqrt,
	},
	Binary: map[mst.Op]func(float64, float64) float64{
		mst.OpAdd: func(l, r float64) float64 { return l + r },
		mst.OpSub: func(l, r float64) float64 { return l - r },
		mst.OpMul: func(l, r float64) float64 { return l * r },
		mst.OpDiv: func(l, r float64) float64 { return l / r },
		mst.OpPow: math.Pow,
	},
}
