package mst_test

import (
	"testing"

	"github.com/zephyrtronium/mst"
	"github.com/zephyrtronium/mst/algebras"
)

func FuzzEval(f *testing.F) {
	f.Add("x")
	f.Add("y")
	f.Add("1×2")
	f.Add("max(x, pi)^2")
	f.Fuzz(func(t *testing.T, s string) {
		mst.EvalString[float64](s, algebras.Float64Field{}, map[string]float64{"x": 0})
		mst.EvalString[int32](s, algebras.Int32Ring{}, map[string]int32{"x": 0})
	})
}
