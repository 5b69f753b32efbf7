package bytecode_test

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/nalgeon/be"

	"github.com/zephyrtronium/mst"
	"github.com/zephyrtronium/mst/algebras"
	"github.com/zephyrtronium/mst/bytecode"
)

func compile[T any](t *testing.T, src string, a mst.Algebra[T], b *bytecode.Backend[T], fold bool) *bytecode.Program[T] {
	t.Helper()
	tree, err := mst.ParseString(src)
	be.Err(t, err, nil)
	typed, err := mst.Bind(tree, a)
	be.Err(t, err, nil)
	if fold {
		typed = typed.Fold()
	}
	p, err := b.Compile(typed)
	be.Err(t, err, nil)
	return p
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
		{"2^3^2", 512},
		{"-2^2", 4},
		{"8/4/2", 1},
	}
	b := bytecode.New[float64](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			// Without folding, so that the VM does the arithmetic.
			p := compile[float64](t, c.src, algebras.Float64Field{}, b, false)
			got, err := p.Invoke(nil)
			be.Err(t, err, nil)
			be.Equal(t, got, c.want)
		})
	}
}

func TestSpecialization(t *testing.T) {
	b := bytecode.New[float64](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	p := compile[float64](t, "abs(x) * sin(x) + max(x, 1)", algebras.Float64Field{}, b, false)
	dis := p.Disassemble()
	be.True(t, strings.Contains(dis, "unary.generic\t0\t(abs)"))
	be.True(t, strings.Contains(dis, "unary\t0\t(sin)"))
	be.True(t, strings.Contains(dis, "binary\t0\t(*)"))
	be.True(t, strings.Contains(dis, "binary.generic\t1\t(max)"))

	got, err := p.Call(-2)
	be.Err(t, err, nil)
	be.Equal(t, got, float64(2*math.Sin(-2))+1)
}

func TestConstantPool(t *testing.T) {
	b := bytecode.New[float64](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	p := compile[float64](t, "2*x + 2*y - 3", algebras.Float64Field{}, b, false)
	be.Equal(t, p.Constants(), []float64{2, 3})
	be.Equal(t, p.Symbols(), []string{"x", "y"})
	got, err := p.Call(1, 2)
	be.Err(t, err, nil)
	be.Equal(t, got, 3.0)
}

func TestUnbound(t *testing.T) {
	b := bytecode.New[int32](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	p := compile[int32](t, "x", algebras.Int32Ring{}, b, true)
	_, err := p.Invoke(nil)
	var u *mst.UnboundSymbolError
	be.True(t, errors.As(err, &u))
	be.Equal(t, u.Name, "x")

	_, err = p.Call()
	be.True(t, errors.As(err, &u))

	got, err := p.Invoke(map[string]int32{"x": 7})
	be.Err(t, err, nil)
	be.Equal(t, got, int32(7))
}

func TestArguments(t *testing.T) {
	b := bytecode.New[int32](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	p := compile[int32](t, "y - x * y", algebras.Int32Ring{}, b, true)
	be.Equal(t, p.Symbols(), []string{"y", "x"})

	got, err := p.Call(5, 3)
	be.Err(t, err, nil)
	be.Equal(t, got, int32(-10))

	got, err = p.Invoke(map[string]int32{"x": 3, "y": 5})
	be.Err(t, err, nil)
	be.Equal(t, got, int32(-10))

	_, err = p.Call(1, 2, 3)
	var ac *mst.ArgumentCountError
	be.True(t, errors.As(err, &ac))
	be.Equal(t, ac.Want, 2)
	be.Equal(t, ac.Got, 3)
}

func TestDefaults(t *testing.T) {
	b := bytecode.New[float64](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	p := compile[float64](t, "pi * x", algebras.Float64Field{}, b, false)
	be.Equal(t, p.Symbols(), []string{"pi", "x"})

	got, err := p.Invoke(map[string]float64{"x": 2})
	be.Err(t, err, nil)
	be.Equal(t, got, 2*math.Pi)

	got, err = p.Invoke(map[string]float64{"x": 2, "pi": 3})
	be.Err(t, err, nil)
	be.Equal(t, got, 6.0)

	// Folded, pi is a constant and the caller cannot rebind it.
	p = compile[float64](t, "pi * x", algebras.Float64Field{}, b, true)
	be.Equal(t, p.Symbols(), []string{"x"})
	got, err = p.Call(2)
	be.Err(t, err, nil)
	be.Equal(t, got, 2*math.Pi)
}

func TestGenericFailure(t *testing.T) {
	b := bytecode.New[int32](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	// Folding leaves 1/0 in place.
	p := compile[int32](t, "x + 1/0", algebras.Int32Ring{}, b, true)
	_, err := p.Call(1)
	var d *algebras.DomainError
	be.True(t, errors.As(err, &d))

	p = compile[int32](t, "cos(x)", algebras.Int32Ring{}, b, true)
	_, err = p.Call(1)
	be.True(t, mst.IsUnsupported(err))
}

func TestRegistryReuse(t *testing.T) {
	r := bytecode.NewRegistry(4)
	b := bytecode.New[float64](bytecode.WithRegistry(r))
	p := compile[float64](t, "x + 1", algebras.Float64Field{}, b, true)
	q := compile[float64](t, "x+1", algebras.Float64Field{}, b, true)
	be.True(t, p == q)
	be.Equal(t, r.Len(), 1)
	be.True(t, strings.HasPrefix(p.Name(), "expr_"))
	u, ok := r.Lookup(p.Name())
	be.True(t, ok)
	be.True(t, u == any(p))

	// Same tree in another algebra is another unit.
	i := bytecode.New[int32](bytecode.WithRegistry(r))
	s := compile[int32](t, "x + 1", algebras.Int32Ring{}, i, true)
	be.True(t, s.Name() != p.Name())
	be.Equal(t, r.Len(), 2)
}

func TestRegistryWithoutCache(t *testing.T) {
	r := bytecode.NewRegistry(4)
	b := bytecode.New[float64](bytecode.WithRegistry(r), bytecode.WithoutCache())
	p := compile[float64](t, "x * 2", algebras.Float64Field{}, b, true)
	q := compile[float64](t, "x * 2", algebras.Float64Field{}, b, true)
	be.True(t, p != q)
	be.Equal(t, q.Name(), p.Name()+"_1")
	be.Equal(t, r.Len(), 2)

	x, err := p.Call(4)
	be.Err(t, err, nil)
	y, err := q.Call(4)
	be.Err(t, err, nil)
	be.Equal(t, x, y)
}

func TestRegistryExhausted(t *testing.T) {
	r := bytecode.NewRegistry(1)
	b := bytecode.New[float64](bytecode.WithRegistry(r), bytecode.WithoutCache())
	tree := mst.MustParse("x / 3")
	typed, err := mst.Bind[float64](tree, algebras.Float64Field{})
	be.Err(t, err, nil)
	_, err = b.Emit(typed)
	be.Err(t, err, nil)
	_, err = b.Emit(typed)
	be.Err(t, err, nil)
	_, err = b.Emit(typed)
	be.Err(t, err, bytecode.ErrRegistryExhausted)
	be.Equal(t, r.Len(), 2)
}

func TestBigFloat(t *testing.T) {
	a := algebras.BigFloatField{Prec: 128}
	b := bytecode.New[*big.Float](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	e, err := mst.Compile[*big.Float]("x*x - 2*x + 1", a, b)
	be.Err(t, err, nil)
	x, _, _ := big.ParseFloat("3", 10, 128, big.ToNearestEven)
	got, err := e.Call(x)
	be.Err(t, err, nil)
	be.Equal(t, got.String(), "4")
	// Operands are not modified.
	be.Equal(t, x.String(), "3")
}

func TestConcurrentInvoke(t *testing.T) {
	b := bytecode.New[float64](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	p := compile[float64](t, "x*x + y", algebras.Float64Field{}, b, true)
	done := make(chan float64)
	for k := range 8 {
		go func() {
			v, _ := p.Call(float64(k), 1)
			done <- v - float64(k*k)
		}()
	}
	for range 8 {
		be.Equal(t, <-done, 1.0)
	}
}

func TestConstantPoolExact(t *testing.T) {
	b := bytecode.New[float64](bytecode.WithRegistry(bytecode.NewRegistry(4)))
	p := compile[float64](t, "x*0 + y*(-0)", algebras.Float64Field{}, b, true)
	c := p.Constants()
	be.Equal(t, len(c), 2)
	be.True(t, !math.Signbit(c[0]))
	be.True(t, math.Signbit(c[1]))
}

func TestRegistryConstantOrVariable(t *testing.T) {
	// A folded NaN and a variable named NaN must not share a unit.
	r := bytecode.NewRegistry(4)
	b := bytecode.New[float64](bytecode.WithRegistry(r))
	k := compile[float64](t, "0/0", algebras.Float64Field{}, b, true)
	v := compile[float64](t, "NaN", algebras.Float64Field{}, b, true)
	be.True(t, k != v)
	be.Equal(t, r.Len(), 2)
	be.Equal(t, v.Symbols(), []string{"NaN"})

	got, err := v.Invoke(map[string]float64{"NaN": 5})
	be.Err(t, err, nil)
	be.Equal(t, got, 5.0)
	got, err = k.Invoke(nil)
	be.Err(t, err, nil)
	be.True(t, math.IsNaN(got))
}

func TestConcurrentRegistry(t *testing.T) {
	const n = 8
	srcs := []string{"x + 1", "x * 2"}
	typed := make([]*mst.Typed[float64], len(srcs))
	for i, src := range srcs {
		var err error
		typed[i], err = mst.Bind[float64](mst.MustParse(src), algebras.Float64Field{})
		be.Err(t, err, nil)
	}

	t.Run("cached", func(t *testing.T) {
		r := bytecode.NewRegistry(n)
		b := bytecode.New[float64](bytecode.WithRegistry(r))
		progs := make([]*bytecode.Program[float64], n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for k := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				progs[k], errs[k] = b.Compile(typed[k%len(typed)])
			}()
		}
		wg.Wait()
		for k := range n {
			be.Err(t, errs[k], nil)
			be.True(t, progs[k] == progs[k%len(typed)])
		}
		be.True(t, progs[0] != progs[1])
		be.Equal(t, r.Len(), len(typed))
	})

	t.Run("uncached", func(t *testing.T) {
		r := bytecode.NewRegistry(n)
		b := bytecode.New[float64](bytecode.WithRegistry(r), bytecode.WithoutCache())
		names := make([]string, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for k := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p, err := b.Compile(typed[0])
				if err != nil {
					errs[k] = err
					return
				}
				names[k] = p.Name()
			}()
		}
		wg.Wait()
		seen := make(map[string]bool)
		for k := range n {
			be.Err(t, errs[k], nil)
			seen[names[k]] = true
		}
		be.Equal(t, len(seen), n)
		be.Equal(t, r.Len(), n)
	})
}
