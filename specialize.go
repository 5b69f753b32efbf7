package mst

import "strconv"

// Op is a tag for an operation that algebras commonly implement directly.
// Anything else is OpOther and always goes through generic dispatch.
type Op uint8

const (
	OpOther Op = iota

	OpAdd // binary +
	OpSub // binary -
	OpMul // binary *
	OpDiv // binary /
	OpPow // binary pow

	OpPlus // unary +
	OpNeg  // unary -

	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpAsinh
	OpAcosh
	OpAtanh
	OpExp
	OpLn
	OpSqrt

	numOps
)

var opNames = [numOps]string{
	OpOther: "other",
	OpAdd:   OpNamePlus,
	OpSub:   OpNameMinus,
	OpMul:   OpNameTimes,
	OpDiv:   OpNameDiv,
	OpPow:   OpNamePow,
	OpPlus:  OpNamePlus,
	OpNeg:   OpNameMinus,
	OpSin:   "sin",
	OpCos:   "cos",
	OpTan:   "tan",
	OpAsin:  "asin",
	OpAcos:  "acos",
	OpAtan:  "atan",
	OpSinh:  "sinh",
	OpCosh:  "cosh",
	OpTanh:  "tanh",
	OpAsinh: "asinh",
	OpAcosh: "acosh",
	OpAtanh: "atanh",
	OpExp:   "exp",
	OpLn:    "ln",
	OpSqrt:  "sqrt",
}

// String returns the operation name the tag stands for.
func (o Op) String() string {
	if o >= numOps {
		return "Op(" + strconv.Itoa(int(o)) + ")"
	}
	return opNames[o]
}

// Arity returns the number of operands of the tagged operation, or 0 for
// OpOther.
func (o Op) Arity() int {
	switch {
	case o == OpOther || o >= numOps:
		return 0
	case o <= OpPow:
		return 2
	default:
		return 1
	}
}

var (
	unaryOps  = map[string]Op{}
	binaryOps = map[string]Op{}
)

func init() {
	for o := OpOther + 1; o < numOps; o++ {
		switch o.Arity() {
		case 1:
			unaryOps[o.String()] = o
		case 2:
			binaryOps[o.String()] = o
		}
	}
}

// LookupOp returns the tag for an operation name applied to arity operands,
// or OpOther if the name is not one of the tagged operations.
func LookupOp(name string, arity int) Op {
	switch arity {
	case 1:
		return unaryOps[name]
	case 2:
		return binaryOps[name]
	default:
		return OpOther
	}
}

// Specialization is the code generation decision for one operation node.
// Exactly one of Unary and Binary is non-nil when the operation is direct;
// both are nil when it must go through the algebra's generic dispatch by Name.
type Specialization[T any] struct {
	Name   string
	Arity  int
	Op     Op
	Unary  func(T) T
	Binary func(T, T) T
}

// Direct reports whether the algebra exposes the operation directly.
func (s Specialization[T]) Direct() bool {
	return s.Unary != nil || s.Binary != nil
}

// Specialize decides how to call the operation name of the given arity on a.
// It never changes results, only which call path produces them.
func Specialize[T any](a Algebra[T], name string, arity int) Specialization[T] {
	s := Specialization[T]{Name: name, Arity: arity, Op: LookupOp(name, arity)}
	if s.Op == OpOther {
		return s
	}
	d, ok := a.(Describer[T])
	if !ok {
		return s
	}
	desc := d.Describe()
	if desc == nil {
		return s
	}
	switch arity {
	case 1:
		s.Unary = desc.Unary[s.Op]
	case 2:
		s.Binary = desc.Binary[s.Op]
	}
	return s
}
