package wasm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"github.com/zephyrtronium/mst"
)

func TestWriteLEB128(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    uint32
		expected []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		writeLEB128(&buf, test.input)
		be.Equal(t, buf.Bytes(), test.expected)
	}
}

func TestWriteLEB128Signed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    int64
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7F}},
		{63, []byte{0x3F}},
		{64, []byte{0xC0, 0x00}},
		{127, []byte{0xFF, 0x00}},
		{-128, []byte{0x80, 0x7F}},
		{128, []byte{0x80, 0x01}},
		{-129, []byte{0xFF, 0x7E}},
	}
	for _, test := range tests {
		var buf bytes.Buffer
		writeLEB128Signed(&buf, test.input)
		be.Equal(t, buf.Bytes(), test.expected)
	}
}

func TestWriteF64(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	writeF64(&buf, 1)
	be.Equal(t, buf.Bytes(), []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F})
}

func TestWriteHeader(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	writeHeader(&buf)
	be.Equal(t, buf.Bytes(), []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00})
}

func TestWriteSection(t *testing.T) {
	t.Parallel()
	var buf, content bytes.Buffer
	writeString(&content, "env")
	writeSection(&buf, sectionImport, &content)
	be.Equal(t, buf.Bytes(), []byte{0x02, 0x04, 0x03, 'e', 'n', 'v'})
}

// float64Test is a minimal float64 algebra. The wasm back end never calls its
// operations.
type float64Test struct{}

func (float64Test) Name() string { return "f64test" }
func (float64Test) Number(string) (float64, error) { return 0, errors.New("no literals") }
func (float64Test) BindSymbol(string) (float64, bool) { return 0, false }
func (a float64Test) UnaryOperation(op string, x float64) (float64, error) {
	return 0, mst.Unsupported(a, op, 1)
}
func (a float64Test) BinaryOperation(op string, l, r float64) (float64, error) {
	return 0, mst.Unsupported(a, op, 2)
}

func TestGenerateSections(t *testing.T) {
	t.Parallel()
	// sin(x) * y
	typed := &mst.Typed[float64]{
		Root: &mst.TypedBinary[float64]{
			Op:    mst.OpNameTimes,
			Left:  &mst.TypedUnary[float64]{Op: "sin", Operand: &mst.Variable[float64]{Name: "x"}},
			Right: &mst.Variable[float64]{Name: "y"},
		},
		Algebra: float64Test{},
	}
	bin, layout, err := Generate(typed)
	be.Err(t, err, nil)
	be.Equal(t, layout.Names(), []string{"x", "y"})

	want := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		// type: (f64) -> f64, (f64 f64) -> f64
		0x01, 0x0C, 0x02, 0x60, 0x01, 0x7C, 0x01, 0x7C, 0x60, 0x02, 0x7C, 0x7C, 0x01, 0x7C,
		// import: env.sin type 0
		0x02, 0x0B, 0x01, 0x03, 'e', 'n', 'v', 0x03, 's', 'i', 'n', 0x00, 0x00,
		// function: type 1
		0x03, 0x02, 0x01, 0x01,
		// export: "executable" func 1
		0x07, 0x0E, 0x01, 0x0A, 'e', 'x', 'e', 'c', 'u', 't', 'a', 'b', 'l', 'e', 0x00, 0x01,
		// code: local.get 0, call 0, local.get 1, f64.mul, end
		0x0A, 0x0B, 0x01, 0x09, 0x00, 0x20, 0x00, 0x10, 0x00, 0x20, 0x01, 0xA2, 0x0B,
	}
	be.Equal(t, bin, want)
}

func TestGenerateInt32Negate(t *testing.T) {
	t.Parallel()
	typed := &mst.Typed[int32]{
		Root:    &mst.TypedUnary[int32]{Op: mst.OpNameMinus, Operand: &mst.Constant[int32]{Value: 200}},
		Algebra: int32Test{},
	}
	bin, _, err := Generate(typed)
	be.Err(t, err, nil)
	// i32.const 0, i32.const 200, i32.sub, end
	body := []byte{0x41, 0x00, 0x41, 0xC8, 0x01, 0x6B, 0x0B}
	be.True(t, bytes.HasSuffix(bin, body))
}

type int32Test struct{}

func (int32Test) Name() string { return "i32test" }
func (int32Test) Number(string) (int32, error) { return 0, errors.New("no literals") }
func (int32Test) BindSymbol(string) (int32, bool) { return 0, false }
func (a int32Test) UnaryOperation(op string, x int32) (int32, error) {
	return 0, mst.Unsupported(a, op, 1)
}
func (a int32Test) BinaryOperation(op string, l, r int32) (int32, error) {
	return 0, mst.Unsupported(a, op, 2)
}

func TestGenerateUnsupported(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		root  mst.TypedNode[int32]
		op    string
		arity int
	}{
		{
			name:  "pow",
			root:  &mst.TypedBinary[int32]{Op: mst.OpNamePow, Left: &mst.Variable[int32]{Name: "x"}, Right: &mst.Constant[int32]{Value: 2}},
			op:    mst.OpNamePow,
			arity: 2,
		},
		{
			name:  "sin",
			root:  &mst.TypedUnary[int32]{Op: "sin", Operand: &mst.Variable[int32]{Name: "x"}},
			op:    "sin",
			arity: 1,
		},
		{
			name: "nested",
			root: &mst.TypedBinary[int32]{
				Op:    mst.OpNamePlus,
				Left:  &mst.Constant[int32]{Value: 1},
				Right: &mst.TypedUnary[int32]{Op: "abs", Operand: &mst.Variable[int32]{Name: "x"}},
			},
			op:    "abs",
			arity: 1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := Generate(&mst.Typed[int32]{Root: c.root, Algebra: int32Test{}})
			var u *mst.UnsupportedOperationError
			be.True(t, errors.As(err, &u))
			be.Equal(t, u.Op, c.op)
			be.Equal(t, u.Arity, c.arity)
			be.Equal(t, u.Algebra, "wasm(i32test)")
		})
	}
}
