package mst

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// TypedNode is a node of a tree bound to an algebra over T. The concrete types
// are *Constant[T], *Variable[T], *TypedUnary[T], and *TypedBinary[T].
type TypedNode[T any] interface {
	format(b *strings.Builder, square bool)
}

// Constant is a value of the algebra.
type Constant[T any] struct {
	Value T
}

// Variable is a symbol to be supplied at evaluation. Default is the value the
// algebra binds the symbol to intrinsically, or nil if it has none.
type Variable[T any] struct {
	Name    string
	Default *T
}

// TypedUnary is an operation of one operand.
type TypedUnary[T any] struct {
	Op      string
	Operand TypedNode[T]
}

// TypedBinary is an operation of two operands.
type TypedBinary[T any] struct {
	Op    string
	Left  TypedNode[T]
	Right TypedNode[T]
}

func (n *Constant[T]) format(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	fmt.Fprint(b, n.Value)
	b.WriteByte(r)
}

func (n *Variable[T]) format(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	b.WriteString(n.Name)
	b.WriteByte(r)
}

func (n *TypedUnary[T]) format(b *strings.Builder, square bool) {
	fmtUnary(b, square, n.Op, func(b *strings.Builder, sq bool) { n.Operand.format(b, sq) })
}

func (n *TypedBinary[T]) format(b *strings.Builder, square bool) {
	fmtBinary(b, square, n.Op,
		func(b *strings.Builder, sq bool) { n.Left.format(b, sq) },
		func(b *strings.Builder, sq bool) { n.Right.format(b, sq) },
	)
}

// Typed is a tree bound to exactly one algebra. It is immutable; Fold returns
// a new Typed.
type Typed[T any] struct {
	// Root is the root node.
	Root TypedNode[T]
	// Algebra is the algebra the tree is bound to.
	Algebra Algebra[T]
}

// Bind converts a tree to a typed tree over a. Literals are converted with
// a.Number; a literal the algebra cannot represent results in a *LiteralError.
// Symbols the algebra binds intrinsically keep their value as a default.
func Bind[T any](t Tree, a Algebra[T]) (*Typed[T], error) {
	n, err := bind(t, a)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{Root: n, Algebra: a}, nil
}

func bind[T any](t Tree, a Algebra[T]) (TypedNode[T], error) {
	switch t := t.(type) {
	case *Numeric:
		v, err := a.Number(t.Text)
		if err != nil {
			return nil, &LiteralError{Text: t.Text, Algebra: a.Name(), Err: err}
		}
		return &Constant[T]{Value: v}, nil
	case *Symbolic:
		n := &Variable[T]{Name: t.Name}
		if v, ok := a.BindSymbol(t.Name); ok {
			n.Default = &v
		}
		return n, nil
	case *Unary:
		x, err := bind(t.Operand, a)
		if err != nil {
			if v, ok := negatedLiteral(t, a); ok {
				return &Constant[T]{Value: v}, nil
			}
			return nil, err
		}
		return &TypedUnary[T]{Op: t.Op, Operand: x}, nil
	case *Binary:
		l, err := bind(t.Left, a)
		if err != nil {
			return nil, err
		}
		r, err := bind(t.Right, a)
		if err != nil {
			return nil, err
		}
		return &TypedBinary[T]{Op: t.Op, Left: l, Right: r}, nil
	default:
		panic(fmt.Sprintf("mst: invalid tree node %T", t))
	}
}

// negatedLiteral parses the negation of a literal as one literal, for values
// like the least int32 that the algebra cannot represent unsigned.
func negatedLiteral[T any](t *Unary, a Algebra[T]) (T, bool) {
	n, ok := t.Operand.(*Numeric)
	if !ok || t.Op != OpNameMinus {
		var zero T
		return zero, false
	}
	v, err := a.Number("-" + n.Text)
	return v, err == nil
}

// String renders the typed tree the same way Tree.String does, with constants
// formatted by package fmt.
func (t *Typed[T]) String() string {
	var b strings.Builder
	t.Root.format(&b, false)
	return b.String()
}

// Signature identifies the typed tree together with its algebra. Two typed
// trees with equal signatures evaluate identically. Operations are written in
// prefix form, variables as $name, and constants as # followed by the quoted
// encoding the algebra gives them.
func (t *Typed[T]) Signature() string {
	var b strings.Builder
	b.WriteString(t.Algebra.Name())
	b.WriteByte(':')
	sign(&b, t.Root, t.Algebra)
	return b.String()
}

func sign[T any](b *strings.Builder, n TypedNode[T], a Algebra[T]) {
	switch n := n.(type) {
	case *Constant[T]:
		b.WriteByte('#')
		b.WriteString(strconv.Quote(Encode(a, n.Value)))
	case *Variable[T]:
		b.WriteByte('$')
		b.WriteString(n.Name)
	case *TypedUnary[T]:
		b.WriteByte('(')
		b.WriteString(n.Op)
		b.WriteByte(' ')
		sign(b, n.Operand, a)
		b.WriteByte(')')
	case *TypedBinary[T]:
		b.WriteByte('(')
		b.WriteString(n.Op)
		b.WriteByte(' ')
		sign(b, n.Left, a)
		b.WriteByte(' ')
		sign(b, n.Right, a)
		b.WriteByte(')')
	default:
		panic(fmt.Sprintf("mst: invalid typed node %T", n))
	}
}

// Hash is a structural hash of the signature.
func (t *Typed[T]) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(t.Signature()))
	return h.Sum64()
}

// Eval evaluates the typed tree using the algebra's generic dispatch.
// Symbols are looked up in bindings, then in their defaults.
func (t *Typed[T]) Eval(bindings map[string]T) (T, error) {
	return evalTyped(t.Root, t.Algebra, bindings)
}

func evalTyped[T any](n TypedNode[T], a Algebra[T], bindings map[string]T) (T, error) {
	var zero T
	switch n := n.(type) {
	case *Constant[T]:
		return n.Value, nil
	case *Variable[T]:
		if v, ok := bindings[n.Name]; ok {
			return v, nil
		}
		if n.Default != nil {
			return *n.Default, nil
		}
		return zero, &UnboundSymbolError{Name: n.Name}
	case *TypedUnary[T]:
		x, err := evalTyped(n.Operand, a, bindings)
		if err != nil {
			return zero, err
		}
		return a.UnaryOperation(n.Op, x)
	case *TypedBinary[T]:
		l, err := evalTyped(n.Left, a, bindings)
		if err != nil {
			return zero, err
		}
		r, err := evalTyped(n.Right, a, bindings)
		if err != nil {
			return zero, err
		}
		return a.BinaryOperation(n.Op, l, r)
	default:
		panic(fmt.Sprintf("mst: invalid typed node %T", n))
	}
}

// Symbols returns the typed tree's symbol table: the distinct variables in
// first-seen order.
func (t *Typed[T]) Symbols() *SymbolTable[T] {
	s := NewSymbolTable[T]()
	var walk func(TypedNode[T])
	walk = func(n TypedNode[T]) {
		switch n := n.(type) {
		case *Constant[T]:
		case *Variable[T]:
			s.Slot(n)
		case *TypedUnary[T]:
			walk(n.Operand)
		case *TypedBinary[T]:
			walk(n.Left)
			walk(n.Right)
		default:
			panic(fmt.Sprintf("mst: invalid typed node %T", n))
		}
	}
	walk(t.Root)
	return s
}
