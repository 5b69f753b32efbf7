package wasm_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/nalgeon/be"
	"github.com/tetratelabs/wazero"

	"github.com/zephyrtronium/mst"
	"github.com/zephyrtronium/mst/algebras"
	"github.com/zephyrtronium/mst/wasm"
)

func newBackend[T wasm.Number](t *testing.T) *wasm.Backend[T] {
	t.Helper()
	ctx := context.Background()
	b, err := wasm.New[T](ctx, wasm.WithRuntimeConfig(wazero.NewRuntimeConfigInterpreter()))
	be.Err(t, err, nil)
	t.Cleanup(func() { b.Close(ctx) })
	return b
}

func TestPrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"2*2+2", 6},
		{"2+2*2", 6},
		{"2^3+2", 10},
		{"2+2^3", 10},
		{"2^3*2", 16},
		{"2+2^3*2", 18},
	}
	b := newBackend[float64](t)
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			// Without folding, so that the module does the arithmetic.
			e, err := mst.Compile[float64](c.src, algebras.Float64Field{}, b, mst.WithoutFolding())
			be.Err(t, err, nil)
			got, err := e.Invoke(nil)
			be.Err(t, err, nil)
			be.Equal(t, got, c.want)
		})
	}
}

func TestFloat64(t *testing.T) {
	cases := []struct {
		src  string
		args []float64
		want float64
	}{
		{"x + y", []float64{1, 2}, 3},
		{"x - y", []float64{1, 2}, -1},
		{"x / y", []float64{1, 2}, 0.5},
		{"-x", []float64{1}, -1},
		{"+x", []float64{1}, 1},
		{"sin(x)", []float64{1}, math.Sin(1)},
		{"cos(x)", []float64{1}, math.Cos(1)},
		{"atanh(x)", []float64{0.5}, math.Atanh(0.5)},
		{"ln(x)", []float64{10}, math.Log(10)},
		{"sqrt(x)", []float64{2}, math.Sqrt(2)},
		{"x ^ y", []float64{2, 0.5}, math.Pow(2, 0.5)},
		{"exp(x) * exp(y)", []float64{1, 2}, math.Exp(1) * math.Exp(2)},
		{"x / 0", []float64{1}, math.Inf(1)},
	}
	b := newBackend[float64](t)
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := mst.Compile[float64](c.src, algebras.Float64Field{}, b)
			be.Err(t, err, nil)
			got, err := e.Call(c.args...)
			be.Err(t, err, nil)
			be.Equal(t, got, c.want)
		})
	}
}

func TestInt32(t *testing.T) {
	cases := []struct {
		src  string
		args []int32
		want int32
	}{
		{"x + y", []int32{1, 2}, 3},
		{"x - y", []int32{1, 2}, -1},
		{"x * y", []int32{-3, 7}, -21},
		{"x / y", []int32{7, 2}, 3},
		{"x / y", []int32{-7, 2}, -3},
		{"-x", []int32{5}, -5},
		{"x + 1", []int32{math.MaxInt32}, math.MinInt32},
		{"2^3*x", []int32{2}, 16},
	}
	b := newBackend[int32](t)
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := mst.Compile[int32](c.src, algebras.Int32Ring{}, b)
			be.Err(t, err, nil)
			got, err := e.Call(c.args...)
			be.Err(t, err, nil)
			be.Equal(t, got, c.want)
		})
	}
}

func TestUnsupported(t *testing.T) {
	b := newBackend[int32](t)
	// Folding removes the constant pow, but not this one.
	_, err := mst.Compile[int32]("x^2", algebras.Int32Ring{}, b)
	be.True(t, mst.IsUnsupported(err))

	e, err := mst.Compile[int32]("x^2", algebras.Int32Ring{}, b, mst.WithFallback())
	be.Err(t, err, nil)
	got, err := e.Call(-3)
	be.Err(t, err, nil)
	be.Equal(t, got, int32(9))
}

func TestUnbound(t *testing.T) {
	b := newBackend[int32](t)
	e, err := mst.Compile[int32]("x", algebras.Int32Ring{}, b)
	be.Err(t, err, nil)
	_, err = e.Invoke(nil)
	be.True(t, mst.IsUnbound(err))
	_, err = e.Call()
	be.True(t, mst.IsUnbound(err))
}

func TestDefaults(t *testing.T) {
	b := newBackend[float64](t)
	e, err := mst.Compile[float64]("pi * x", algebras.Float64Field{}, b, mst.WithoutFolding())
	be.Err(t, err, nil)
	be.Equal(t, e.Symbols(), []string{"pi", "x"})
	got, err := e.Invoke(map[string]float64{"x": 2})
	be.Err(t, err, nil)
	be.Equal(t, got, math.Pi*2)
}

func TestTrap(t *testing.T) {
	b := newBackend[int32](t)
	e, err := mst.Compile[int32]("x / y", algebras.Int32Ring{}, b)
	be.Err(t, err, nil)
	_, err = e.Call(1, 0)
	var trap *wasm.TrapError
	be.True(t, errors.As(err, &trap))
	be.Equal(t, trap.Unit, e.(*wasm.Expression[int32]).Name())

	// The instance is still usable after a trap.
	got, err := e.Call(6, 3)
	be.Err(t, err, nil)
	be.Equal(t, got, int32(2))
}

func TestArguments(t *testing.T) {
	b := newBackend[float64](t)
	e, err := mst.Compile[float64]("y*x - y", algebras.Float64Field{}, b)
	be.Err(t, err, nil)
	be.Equal(t, e.Symbols(), []string{"y", "x"})
	got, err := e.Invoke(map[string]float64{"x": 3, "y": 2})
	be.Err(t, err, nil)
	be.Equal(t, got, 4.0)
	_, err = e.Call(1, 2, 3)
	var ac *mst.ArgumentCountError
	be.True(t, errors.As(err, &ac))
}

func TestConcurrentInvoke(t *testing.T) {
	b := newBackend[float64](t)
	e, err := mst.Compile[float64]("x*x + y", algebras.Float64Field{}, b)
	be.Err(t, err, nil)
	done := make(chan float64)
	for k := range 8 {
		go func() {
			v, _ := e.Call(float64(k), 1)
			done <- v - float64(k*k)
		}()
	}
	for range 8 {
		be.Equal(t, <-done, 1.0)
	}
}

func TestBinary(t *testing.T) {
	b := newBackend[float64](t)
	e, err := b.Compile(context.Background(), mustBind(t, "1 + x"))
	be.Err(t, err, nil)
	bin := e.Binary()
	be.Equal(t, bin[:4], []byte("\x00asm"))
	be.Equal(t, e.String(), `float64:(+ #"3ff0000000000000" $x)`)
}

func mustBind(t *testing.T, src string) *mst.Typed[float64] {
	t.Helper()
	typed, err := mst.Bind[float64](mst.MustParse(src), algebras.Float64Field{})
	be.Err(t, err, nil)
	return typed
}
