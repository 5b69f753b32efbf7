package mst

import "fmt"

// Fold returns a typed tree in which every subtree without free symbols is
// replaced by its value. Variables the algebra binds intrinsically count as
// constants. An operation whose evaluation fails is left in place so that the
// failure happens when the expression is evaluated, exactly as it would
// without folding.
func (t *Typed[T]) Fold() *Typed[T] {
	return &Typed[T]{Root: fold(t.Root, t.Algebra), Algebra: t.Algebra}
}

func fold[T any](n TypedNode[T], a Algebra[T]) TypedNode[T] {
	switch n := n.(type) {
	case *Constant[T]:
		return n
	case *Variable[T]:
		if n.Default != nil {
			return &Constant[T]{Value: *n.Default}
		}
		return n
	case *TypedUnary[T]:
		x := fold(n.Operand, a)
		if c, ok := x.(*Constant[T]); ok {
			if v, err := a.UnaryOperation(n.Op, c.Value); err == nil {
				return &Constant[T]{Value: v}
			}
		}
		if x == n.Operand {
			return n
		}
		return &TypedUnary[T]{Op: n.Op, Operand: x}
	case *TypedBinary[T]:
		l := fold(n.Left, a)
		r := fold(n.Right, a)
		lc, lok := l.(*Constant[T])
		rc, rok := r.(*Constant[T])
		if lok && rok {
			if v, err := a.BinaryOperation(n.Op, lc.Value, rc.Value); err == nil {
				return &Constant[T]{Value: v}
			}
		}
		if l == n.Left && r == n.Right {
			return n
		}
		return &TypedBinary[T]{Op: n.Op, Left: l, Right: r}
	default:
		panic(fmt.Sprintf("mst: invalid typed node %T", n))
	}
}
