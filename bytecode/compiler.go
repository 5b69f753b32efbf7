package bytecode

import (
	"fmt"

	"github.com/zephyrtronium/mst"
)

type unaryFn[T any] struct {
	name string
	fn   func(T) T
}

type binaryFn[T any] struct {
	name string
	fn   func(T, T) T
}

// compiler translates one typed tree into a Program. It is discarded once the
// program is built.
type compiler[T any] struct {
	algebra mst.Algebra[T]
	syms    *mst.SymbolTable[T]

	code      []instr
	constants []T
	constIdx  map[string]int
	unary     []unaryFn[T]
	binary    []binaryFn[T]
	funcIdx   map[string]int
	names     []string
	nameIdx   map[string]int

	depth, maxDepth int
}

func newCompiler[T any](a mst.Algebra[T]) *compiler[T] {
	return &compiler[T]{
		algebra:  a,
		syms:     mst.NewSymbolTable[T](),
		constIdx: make(map[string]int),
		funcIdx:  make(map[string]int),
		nameIdx:  make(map[string]int),
	}
}

func (c *compiler[T]) emit(op Opcode, arg int) {
	c.code = append(c.code, instr{op: op, arg: arg})
	switch op {
	case OpConst, OpLoad:
		c.depth++
		c.maxDepth = max(c.maxDepth, c.depth)
	case OpBinary, OpBinaryGeneric:
		c.depth--
	}
}

// addConstant returns the pool index of v, adding it if no constant with the
// same encoding is present yet.
func (c *compiler[T]) addConstant(v T) int {
	key := mst.Encode(c.algebra, v)
	if k, ok := c.constIdx[key]; ok {
		return k
	}
	k := len(c.constants)
	c.constants = append(c.constants, v)
	c.constIdx[key] = k
	return k
}

// addName returns the index of a generic operation name.
func (c *compiler[T]) addName(name string) int {
	if k, ok := c.nameIdx[name]; ok {
		return k
	}
	k := len(c.names)
	c.names = append(c.names, name)
	c.nameIdx[name] = k
	return k
}

func (c *compiler[T]) addUnary(name string, fn func(T) T) int {
	key := "1" + name
	if k, ok := c.funcIdx[key]; ok {
		return k
	}
	k := len(c.unary)
	c.unary = append(c.unary, unaryFn[T]{name: name, fn: fn})
	c.funcIdx[key] = k
	return k
}

func (c *compiler[T]) addBinary(name string, fn func(T, T) T) int {
	key := "2" + name
	if k, ok := c.funcIdx[key]; ok {
		return k
	}
	k := len(c.binary)
	c.binary = append(c.binary, binaryFn[T]{name: name, fn: fn})
	c.funcIdx[key] = k
	return k
}

func (c *compiler[T]) compile(n mst.TypedNode[T]) {
	switch n := n.(type) {
	case *mst.Constant[T]:
		c.emit(OpConst, c.addConstant(n.Value))
	case *mst.Variable[T]:
		c.emit(OpLoad, c.syms.Slot(n))
	case *mst.TypedUnary[T]:
		c.compile(n.Operand)
		s := mst.Specialize(c.algebra, n.Op, 1)
		if s.Direct() {
			c.emit(OpUnary, c.addUnary(n.Op, s.Unary))
		} else {
			c.emit(OpUnaryGeneric, c.addName(n.Op))
		}
	case *mst.TypedBinary[T]:
		c.compile(n.Left)
		c.compile(n.Right)
		s := mst.Specialize(c.algebra, n.Op, 2)
		if s.Direct() {
			c.emit(OpBinary, c.addBinary(n.Op, s.Binary))
		} else {
			c.emit(OpBinaryGeneric, c.addName(n.Op))
		}
	default:
		panic(fmt.Sprintf("bytecode: invalid typed node %T", n))
	}
}

func (c *compiler[T]) program(name, signature string) *Program[T] {
	return &Program[T]{
		name:      name,
		signature: signature,
		algebra:   c.algebra,
		code:      c.code,
		constants: c.constants,
		unary:     c.unary,
		binary:    c.binary,
		names:     c.names,
		maxStack:  c.maxDepth,
		layout:    c.syms.Layout(),
	}
}
