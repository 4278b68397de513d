package vm

import "fmt"

// ---------------------------------------------------------------------------
// Int Primitives
// ---------------------------------------------------------------------------

// Integers are 32-bit; arithmetic wraps. A Float argument promotes the
// operation to float.

func registerIntegerPrimitives(rt *Runtime) error {
	return rt.definePrimitives(TypeInt, []primitive{
		{"+", Method1("+", intArith(func(a, b int32) int32 { return a + b }, func(a, b float64) float64 { return a + b }))},
		{"-", Method1("-", intArith(func(a, b int32) int32 { return a - b }, func(a, b float64) float64 { return a - b }))},
		{"*", Method1("*", intArith(func(a, b int32) int32 { return a * b }, func(a, b float64) float64 { return a * b }))},
		{"/", Method1("/", intDivide(false))},
		{"%", Method1("%", intDivide(true))},

		{"==", Method1("==", intCompare(func(a, b float64) bool { return a == b }))},
		{"!=", Method1("!=", intCompare(func(a, b float64) bool { return a != b }))},
		{"<", Method1("<", intCompare(func(a, b float64) bool { return a < b }))},
		{">", Method1(">", intCompare(func(a, b float64) bool { return a > b }))},
		{"<=", Method1("<=", intCompare(func(a, b float64) bool { return a <= b }))},
		{">=", Method1(">=", intCompare(func(a, b float64) bool { return a >= b }))},

		// +allof sums the receiver and every argument.
		{"+allof", MethodN(func(rt *Runtime, recv Value, args []Value) (Value, bool, error) {
			sum := recv.AsInt()
			for _, a := range args {
				if !a.IsInt() {
					return fail(fmt.Errorf("%w: +allof argument %s is not an integer", ErrWrongType, a))
				}
				sum += a.AsInt()
			}
			return result(FromInt(sum))
		})},

		{"display", Method0("display", func(rt *Runtime, recv Value) (Value, bool, error) {
			fmt.Fprintf(rt.Out(), "(Int) %d\n", recv.AsInt())
			return noResult()
		})},

		{"asFloat", Method0("asFloat", func(rt *Runtime, recv Value) (Value, bool, error) {
			return result(FromFloat(float64(recv.AsInt())))
		})},

		// timesRepeat runs its block argument receiver times.
		{"timesRepeat", Method1("timesRepeat", func(rt *Runtime, recv, block Value) (Value, bool, error) {
			for n := recv.AsInt(); n > 0; n-- {
				if err := rt.RunBlock(block); err != nil {
					return fail(err)
				}
			}
			return noResult()
		})},
	})
}

func intArith(op func(a, b int32) int32, fop func(a, b float64) float64) Method1Func {
	return func(rt *Runtime, recv, arg Value) (Value, bool, error) {
		switch {
		case arg.IsInt():
			return result(FromInt(op(recv.AsInt(), arg.AsInt())))
		case arg.IsFloat():
			return result(FromFloat(fop(float64(recv.AsInt()), arg.AsFloat())))
		default:
			return fail(fmt.Errorf("%w: %s is not a number", ErrWrongType, arg))
		}
	}
}

func intDivide(modulo bool) Method1Func {
	return func(rt *Runtime, recv, arg Value) (Value, bool, error) {
		switch {
		case arg.IsInt():
			if arg.AsInt() == 0 {
				return fail(ErrDivisionByZero)
			}
			if modulo {
				return result(FromInt(recv.AsInt() % arg.AsInt()))
			}
			return result(FromInt(recv.AsInt() / arg.AsInt()))
		case arg.IsFloat() && !modulo:
			return result(FromFloat(float64(recv.AsInt()) / arg.AsFloat()))
		default:
			return fail(fmt.Errorf("%w: %s is not an integer", ErrWrongType, arg))
		}
	}
}

func intCompare(cmp func(a, b float64) bool) Method1Func {
	return func(rt *Runtime, recv, arg Value) (Value, bool, error) {
		switch {
		case arg.IsInt():
			return result(FromBool(cmp(float64(recv.AsInt()), float64(arg.AsInt()))))
		case arg.IsFloat():
			return result(FromBool(cmp(float64(recv.AsInt()), arg.AsFloat())))
		default:
			return fail(fmt.Errorf("%w: %s is not a number", ErrWrongType, arg))
		}
	}
}
