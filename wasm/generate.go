package wasm

import (
	"bytes"
	"fmt"
	"math"

	"github.com/zephyrtronium/mst"
)

// ExportName is the name of the function every generated module exports.
const ExportName = "executable"

// hostModule is the module name of imported math functions.
const hostModule = "env"

// hostUnary is the table of f64 -> f64 functions the host provides, by
// operation name.
var hostUnary = map[string]func(float64) float64{
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"asinh": math.Asinh,
	"acosh": math.Acosh,
	"atanh": math.Atanh,
	"exp":   math.Exp,
	"ln":    math.Log,
	"sqrt":  math.Sqrt,
}

// hostBinary is the table of (f64, f64) -> f64 functions the host provides.
var hostBinary = map[string]func(float64, float64) float64{
	mst.OpNamePow: math.Pow,
}

type funcSig struct {
	params  []byte
	results []byte
}

type wasmImport struct {
	name string
	typ  int
}

// generator builds a module with a single exported function from a typed
// tree.
type generator[T Number] struct {
	val  byte
	algo string
	syms *mst.SymbolTable[T]

	types     []funcSig
	typeCache map[string]int
	imports   []wasmImport
	importIdx map[string]int
	body      bytes.Buffer
}

func newGenerator[T Number](algebra string) *generator[T] {
	return &generator[T]{
		val:       valueType[T](),
		algo:      algebra,
		syms:      mst.NewSymbolTable[T](),
		typeCache: make(map[string]int),
		importIdx: make(map[string]int),
	}
}

func valueType[T Number]() byte {
	var zero T
	switch any(zero).(type) {
	case float64:
		return typeF64
	case int32:
		return typeI32
	}
	panic("wasm: unreachable")
}

// typeIndex returns the type section index for a signature, adding it if new.
func (g *generator[T]) typeIndex(params, results []byte) int {
	key := string(params) + "|" + string(results)
	if idx, ok := g.typeCache[key]; ok {
		return idx
	}
	idx := len(g.types)
	g.types = append(g.types, funcSig{params: params, results: results})
	g.typeCache[key] = idx
	return idx
}

// importIndex returns the function index of a host function, importing it
// on first use.
func (g *generator[T]) importIndex(name string, arity int) int {
	if idx, ok := g.importIdx[name]; ok {
		return idx
	}
	params := bytes.Repeat([]byte{typeF64}, arity)
	idx := len(g.imports)
	g.imports = append(g.imports, wasmImport{name: name, typ: g.typeIndex(params, []byte{typeF64})})
	g.importIdx[name] = idx
	return idx
}

func (g *generator[T]) unsupported(op string, arity int) error {
	return &mst.UnsupportedOperationError{Op: op, Arity: arity, Algebra: "wasm(" + g.algo + ")"}
}

func (g *generator[T]) compile(n mst.TypedNode[T]) error {
	switch n := n.(type) {
	case *mst.Constant[T]:
		g.constant(n.Value)
	case *mst.Variable[T]:
		writeByte(&g.body, opLocalGet)
		writeLEB128(&g.body, uint32(g.syms.Slot(n)))
	case *mst.TypedUnary[T]:
		return g.unary(n)
	case *mst.TypedBinary[T]:
		return g.binary(n)
	default:
		panic(fmt.Sprintf("wasm: invalid typed node %T", n))
	}
	return nil
}

func (g *generator[T]) constant(v T) {
	switch v := any(v).(type) {
	case float64:
		writeByte(&g.body, opF64Const)
		writeF64(&g.body, v)
	case int32:
		writeByte(&g.body, opI32Const)
		writeLEB128Signed(&g.body, int64(v))
	}
}

func (g *generator[T]) unary(n *mst.TypedUnary[T]) error {
	switch {
	case n.Op == mst.OpNamePlus:
		return g.compile(n.Operand)
	case n.Op == mst.OpNameMinus && g.val == typeI32:
		// i32 has no negate.
		writeByte(&g.body, opI32Const)
		writeLEB128Signed(&g.body, 0)
		if err := g.compile(n.Operand); err != nil {
			return err
		}
		writeByte(&g.body, opI32Sub)
		return nil
	case n.Op == mst.OpNameMinus:
		if err := g.compile(n.Operand); err != nil {
			return err
		}
		writeByte(&g.body, opF64Neg)
		return nil
	case g.val == typeF64 && hostUnary[n.Op] != nil:
		if err := g.compile(n.Operand); err != nil {
			return err
		}
		writeByte(&g.body, opCall)
		writeLEB128(&g.body, uint32(g.importIndex(n.Op, 1)))
		return nil
	}
	return g.unsupported(n.Op, 1)
}

var (
	f64Binary = map[string]byte{
		mst.OpNamePlus:  opF64Add,
		mst.OpNameMinus: opF64Sub,
		mst.OpNameTimes: opF64Mul,
		mst.OpNameDiv:   opF64Div,
	}
	i32Binary = map[string]byte{
		mst.OpNamePlus:  opI32Add,
		mst.OpNameMinus: opI32Sub,
		mst.OpNameTimes: opI32Mul,
		mst.OpNameDiv:   opI32DivS,
	}
)

func (g *generator[T]) binary(n *mst.TypedBinary[T]) error {
	table := f64Binary
	if g.val == typeI32 {
		table = i32Binary
	}
	op, native := table[n.Op]
	host := g.val == typeF64 && hostBinary[n.Op] != nil
	if !native && !host {
		return g.unsupported(n.Op, 2)
	}
	if err := g.compile(n.Left); err != nil {
		return err
	}
	if err := g.compile(n.Right); err != nil {
		return err
	}
	if native {
		writeByte(&g.body, op)
	} else {
		writeByte(&g.body, opCall)
		writeLEB128(&g.body, uint32(g.importIndex(n.Op, 2)))
	}
	return nil
}

// module assembles the generated code into a binary module.
func (g *generator[T]) module() []byte {
	params := bytes.Repeat([]byte{g.val}, g.syms.Len())
	exec := g.typeIndex(params, []byte{g.val})

	var buf bytes.Buffer
	writeHeader(&buf)

	var sec bytes.Buffer
	writeLEB128(&sec, uint32(len(g.types)))
	for _, sig := range g.types {
		writeByte(&sec, typeFunc)
		writeLEB128(&sec, uint32(len(sig.params)))
		writeBytes(&sec, sig.params)
		writeLEB128(&sec, uint32(len(sig.results)))
		writeBytes(&sec, sig.results)
	}
	writeSection(&buf, sectionType, &sec)

	if len(g.imports) > 0 {
		sec.Reset()
		writeLEB128(&sec, uint32(len(g.imports)))
		for _, imp := range g.imports {
			writeString(&sec, hostModule)
			writeString(&sec, imp.name)
			writeByte(&sec, kindFunc)
			writeLEB128(&sec, uint32(imp.typ))
		}
		writeSection(&buf, sectionImport, &sec)
	}

	sec.Reset()
	writeLEB128(&sec, 1)
	writeLEB128(&sec, uint32(exec))
	writeSection(&buf, sectionFunction, &sec)

	// The exported function follows the imports in the function index space.
	sec.Reset()
	writeLEB128(&sec, 1)
	writeString(&sec, ExportName)
	writeByte(&sec, kindFunc)
	writeLEB128(&sec, uint32(len(g.imports)))
	writeSection(&buf, sectionExport, &sec)

	var code bytes.Buffer
	writeLEB128(&code, 0) // no locals
	writeBytes(&code, g.body.Bytes())
	writeByte(&code, opEnd)
	sec.Reset()
	writeLEB128(&sec, 1)
	writeLEB128(&sec, uint32(code.Len()))
	writeBytes(&sec, code.Bytes())
	writeSection(&buf, sectionCode, &sec)

	return buf.Bytes()
}

// Generate compiles a typed tree to a binary module exporting one function
// named "executable", along with the symbol layout of its parameters. It
// returns an *mst.UnsupportedOperationError if the tree uses an operation
// with no instruction or host import for T.
func Generate[T Number](t *mst.Typed[T]) ([]byte, mst.Layout[T], error) {
	g := newGenerator[T](t.Algebra.Name())
	if err := g.compile(t.Root); err != nil {
		return nil, mst.Layout[T]{}, err
	}
	return g.module(), g.syms.Layout(), nil
}
