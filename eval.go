package mst

import (
	"fmt"
	"io"
	"strings"
)

// Interpret evaluates a tree against an algebra. Symbols are looked up in
// bindings first and then bound by the algebra; a symbol bound by neither
// results in an *UnboundSymbolError. Interpret needs nothing from the algebra
// beyond generic dispatch, so it works wherever compilation does not.
func Interpret[T any](t Tree, a Algebra[T], bindings map[string]T) (T, error) {
	var zero T
	switch t := t.(type) {
	case *Numeric:
		v, err := a.Number(t.Text)
		if err != nil {
			return zero, &LiteralError{Text: t.Text, Algebra: a.Name(), Err: err}
		}
		return v, nil
	case *Symbolic:
		if v, ok := bindings[t.Name]; ok {
			return v, nil
		}
		if v, ok := a.BindSymbol(t.Name); ok {
			return v, nil
		}
		return zero, &UnboundSymbolError{Name: t.Name}
	case *Unary:
		x, err := Interpret(t.Operand, a, bindings)
		if err != nil {
			if v, ok := negatedLiteral(t, a); ok {
				return v, nil
			}
			return zero, err
		}
		return a.UnaryOperation(t.Op, x)
	case *Binary:
		l, err := Interpret(t.Left, a, bindings)
		if err != nil {
			return zero, err
		}
		r, err := Interpret(t.Right, a, bindings)
		if err != nil {
			return zero, err
		}
		return a.BinaryOperation(t.Op, l, r)
	default:
		panic(fmt.Sprintf("mst: invalid tree node %T", t))
	}
}

// Eval is a shortcut to parse an expression and interpret it.
func Eval[T any](src io.RuneScanner, a Algebra[T], bindings map[string]T) (T, error) {
	t, err := Parse(src)
	if err != nil {
		var zero T
		return zero, err
	}
	return Interpret(t, a, bindings)
}

// EvalString is a shortcut to parse and interpret a string expression.
func EvalString[T any](src string, a Algebra[T], bindings map[string]T) (T, error) {
	return Eval(strings.NewReader(src), a, bindings)
}
