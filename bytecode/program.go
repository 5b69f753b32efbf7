package bytecode

import (
	"fmt"
	"strings"

	"github.com/zephyrtronium/mst"
)

// Program is a compiled unit: the algebra it is bound to, its constant pool,
// the direct and generic operations it calls, and its code. A Program is
// immutable and implements mst.Expression.
type Program[T any] struct {
	name      string
	signature string
	algebra   mst.Algebra[T]
	code      []instr
	constants []T
	unary     []unaryFn[T]
	binary    []binaryFn[T]
	names     []string
	maxStack  int
	layout    mst.Layout[T]
}

var _ mst.Expression[float64] = (*Program[float64])(nil)

// Name returns the unit name under which the program is registered.
func (p *Program[T]) Name() string {
	return p.name
}

// Signature returns the signature of the typed tree the program was compiled
// from.
func (p *Program[T]) Signature() string {
	return p.signature
}

// Constants returns a copy of the constant pool.
func (p *Program[T]) Constants() []T {
	return append([]T(nil), p.constants...)
}

// Symbols returns the symbol in each argument slot.
func (p *Program[T]) Symbols() []string {
	return p.layout.Names()
}

// Invoke runs the program with named bindings.
func (p *Program[T]) Invoke(bindings map[string]T) (T, error) {
	args, err := p.layout.FromMap(bindings)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.run(args)
}

// Call runs the program with positional arguments.
func (p *Program[T]) Call(args ...T) (T, error) {
	args, err := p.layout.FromArgs(args)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.run(args)
}

func (p *Program[T]) run(args []T) (T, error) {
	stack := make([]T, 0, p.maxStack)
	for _, in := range p.code {
		switch in.op {
		case OpConst:
			stack = append(stack, p.constants[in.arg])
		case OpLoad:
			stack = append(stack, args[in.arg])
		case OpUnary:
			x := &stack[len(stack)-1]
			*x = p.unary[in.arg].fn(*x)
		case OpBinary:
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			l := &stack[len(stack)-1]
			*l = p.binary[in.arg].fn(*l, r)
		case OpUnaryGeneric:
			x := &stack[len(stack)-1]
			v, err := p.algebra.UnaryOperation(p.names[in.arg], *x)
			if err != nil {
				return v, err
			}
			*x = v
		case OpBinaryGeneric:
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			l := &stack[len(stack)-1]
			v, err := p.algebra.BinaryOperation(p.names[in.arg], *l, r)
			if err != nil {
				return v, err
			}
			*l = v
		default:
			panic(fmt.Sprintf("bytecode: invalid opcode %v in %s", in.op, p.name))
		}
	}
	return stack[0], nil
}

// Disassemble lists the program's code, one instruction per line, with the
// operand each argument refers to.
func (p *Program[T]) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", p.name, p.algebra.Name())
	for ip, in := range p.code {
		var ref string
		switch in.op {
		case OpConst:
			ref = fmt.Sprint(p.constants[in.arg])
		case OpLoad:
			ref = p.layout.Names()[in.arg]
		case OpUnary:
			ref = p.unary[in.arg].name
		case OpBinary:
			ref = p.binary[in.arg].name
		case OpUnaryGeneric, OpBinaryGeneric:
			ref = p.names[in.arg]
		}
		fmt.Fprintf(&b, "%d\t%v\t%d\t(%s)\n", ip, in.op, in.arg, ref)
	}
	return b.String()
}

// String returns the program's signature.
func (p *Program[T]) String() string {
	return p.signature
}
