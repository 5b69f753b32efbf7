package mst

import (
	"fmt"
	"strconv"
	"strings"
)

// Tree is an untyped expression tree. The concrete types are *Numeric,
// *Symbolic, *Unary, and *Binary. Trees are never modified after
// construction, so subtrees may be shared freely.
type Tree interface {
	// String renders the tree with alternating round and square brackets
	// around each term. For trees produced by Parse, the result parses to an
	// equal tree.
	String() string

	format(b *strings.Builder, square bool)
}

// Numeric is a literal. Text is in the host literal grammar and is converted
// by the algebra the tree is bound to.
type Numeric struct {
	Text string
}

// Symbolic is a reference to a free variable.
type Symbolic struct {
	Name string
}

// Unary is an operation of one argument.
type Unary struct {
	Op      string
	Operand Tree
}

// Binary is an operation of two arguments.
type Binary struct {
	Op    string
	Left  Tree
	Right Tree
}

// Operation names the parser produces for operators.
const (
	OpNamePlus  = "+"
	OpNameMinus = "-"
	OpNameTimes = "*"
	OpNameDiv   = "/"
	OpNamePow   = "pow"
)

// Num creates a literal from a float64.
func Num(v float64) *Numeric {
	return &Numeric{Text: strconv.FormatFloat(v, 'g', -1, 64)}
}

// Sym creates a symbol reference.
func Sym(name string) *Symbolic {
	return &Symbolic{Name: name}
}

// Un creates a unary operation node.
func Un(op string, x Tree) *Unary {
	return &Unary{Op: op, Operand: x}
}

// Bin creates a binary operation node.
func Bin(op string, l, r Tree) *Binary {
	return &Binary{Op: op, Left: l, Right: r}
}

func (n *Numeric) String() string  { return render(n) }
func (n *Symbolic) String() string { return render(n) }
func (n *Unary) String() string    { return render(n) }
func (n *Binary) String() string   { return render(n) }

func render(t Tree) string {
	var b strings.Builder
	t.format(&b, false)
	return b.String()
}

func brackets(square bool) (byte, byte) {
	if square {
		return '[', ']'
	}
	return '(', ')'
}

func (n *Numeric) format(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	b.WriteString(n.Text)
	b.WriteByte(r)
}

func (n *Symbolic) format(b *strings.Builder, square bool) {
	l, r := brackets(square)
	b.WriteByte(l)
	b.WriteString(n.Name)
	b.WriteByte(r)
}

func (n *Unary) format(b *strings.Builder, square bool) {
	fmtUnary(b, square, n.Op, func(b *strings.Builder, sq bool) { n.Operand.format(b, sq) })
}

func (n *Binary) format(b *strings.Builder, square bool) {
	fmtBinary(b, square, n.Op,
		func(b *strings.Builder, sq bool) { n.Left.format(b, sq) },
		func(b *strings.Builder, sq bool) { n.Right.format(b, sq) },
	)
}

// fmtUnary and fmtBinary are shared with typed trees, which render the same
// way with constants in place of literals.
func fmtUnary(b *strings.Builder, square bool, op string, x func(*strings.Builder, bool)) {
	l, r := brackets(square)
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch op {
	case OpNamePlus, OpNameMinus:
		b.WriteString(op)
		x(b, !square)
	default:
		b.WriteString(op)
		// Calls use the opposite bracket for the argument list so that the
		// argument itself can use ours.
		al, ar := brackets(!square)
		b.WriteByte(al)
		x(b, square)
		b.WriteByte(ar)
	}
}

func fmtBinary(b *strings.Builder, square bool, op string, x, y func(*strings.Builder, bool)) {
	l, r := brackets(square)
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch op {
	case OpNamePlus, OpNameMinus, OpNameTimes, OpNameDiv:
		x(b, !square)
		b.WriteByte(' ')
		b.WriteString(op)
		b.WriteByte(' ')
		y(b, !square)
	case OpNamePow:
		x(b, !square)
		b.WriteString(" ^ ")
		y(b, !square)
	default:
		b.WriteString(op)
		al, ar := brackets(!square)
		b.WriteByte(al)
		x(b, square)
		b.WriteString(", ")
		y(b, square)
		b.WriteByte(ar)
	}
}

// Symbols returns the distinct symbol names in t in the order they are first
// encountered by a left-to-right traversal. This is the slot order that
// back ends assign.
func Symbols(t Tree) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(Tree)
	walk = func(t Tree) {
		switch t := t.(type) {
		case *Numeric:
		case *Symbolic:
			if !seen[t.Name] {
				seen[t.Name] = true
				names = append(names, t.Name)
			}
		case *Unary:
			walk(t.Operand)
		case *Binary:
			walk(t.Left)
			walk(t.Right)
		default:
			panic(fmt.Sprintf("mst: invalid tree node %T", t))
		}
	}
	walk(t)
	return names
}
