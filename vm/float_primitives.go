package vm

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Float Primitives
// ---------------------------------------------------------------------------

func registerFloatPrimitives(rt *Runtime) error {
	return rt.definePrimitives(TypeFloat, []primitive{
		{"+", Method1("+", floatArith(func(a, b float64) float64 { return a + b }))},
		{"-", Method1("-", floatArith(func(a, b float64) float64 { return a - b }))},
		{"*", Method1("*", floatArith(func(a, b float64) float64 { return a * b }))},
		{"/", Method1("/", floatArith(func(a, b float64) float64 { return a / b }))},

		{"==", Method1("==", floatCompare(func(a, b float64) bool { return a == b }))},
		{"<", Method1("<", floatCompare(func(a, b float64) bool { return a < b }))},
		{">", Method1(">", floatCompare(func(a, b float64) bool { return a > b }))},

		{"display", Method0("display", func(rt *Runtime, recv Value) (Value, bool, error) {
			fmt.Fprintf(rt.Out(), "(Float) %g\n", recv.AsFloat())
			return noResult()
		})},

		{"truncate", Method0("truncate", func(rt *Runtime, recv Value) (Value, bool, error) {
			f := math.Trunc(recv.AsFloat())
			if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
				return fail(fmt.Errorf("%w: %g does not fit an integer", ErrWrongType, recv.AsFloat()))
			}
			return result(FromInt(int32(f)))
		})},
	})
}

// numeric widens an Int or Float value to float64.
func numeric(v Value) (float64, bool) {
	switch {
	case v.IsInt():
		return float64(v.AsInt()), true
	case v.IsFloat():
		return v.AsFloat(), true
	}
	return 0, false
}

func floatArith(op func(a, b float64) float64) Method1Func {
	return func(rt *Runtime, recv, arg Value) (Value, bool, error) {
		b, ok := numeric(arg)
		if !ok {
			return fail(fmt.Errorf("%w: %s is not a number", ErrWrongType, arg))
		}
		return result(FromFloat(op(recv.AsFloat(), b)))
	}
}

func floatCompare(cmp func(a, b float64) bool) Method1Func {
	return func(rt *Runtime, recv, arg Value) (Value, bool, error) {
		b, ok := numeric(arg)
		if !ok {
			return fail(fmt.Errorf("%w: %s is not a number", ErrWrongType, arg))
		}
		return result(FromBool(cmp(recv.AsFloat(), b)))
	}
}
