package vm

import (
	"fmt"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// String Primitives
// ---------------------------------------------------------------------------

func registerStringPrimitives(rt *Runtime) error {
	return rt.definePrimitives(TypeString, []primitive{
		{"display", Method0("display", func(rt *Runtime, recv Value) (Value, bool, error) {
			s, err := rt.StringContent(recv)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(rt.Out(), "(String) %s\n", s)
			return noResult()
		})},

		// >> writes the raw text followed by a newline.
		{">>", Method0(">>", func(rt *Runtime, recv Value) (Value, bool, error) {
			s, err := rt.StringContent(recv)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintln(rt.Out(), s)
			return noResult()
		})},

		{"size", Method0("size", func(rt *Runtime, recv Value) (Value, bool, error) {
			s, err := rt.StringContent(recv)
			if err != nil {
				return fail(err)
			}
			return result(FromInt(int32(utf8.RuneCountInString(s))))
		})},

		{"concat", Method1("concat", func(rt *Runtime, recv, arg Value) (Value, bool, error) {
			a, b, err := stringPair(rt, recv, arg)
			if err != nil {
				return fail(err)
			}
			v, err := rt.NewString(a + b)
			if err != nil {
				return fail(err)
			}
			return result(v)
		})},

		{"==", Method1("==", func(rt *Runtime, recv, arg Value) (Value, bool, error) {
			if !IsString(rt.Heap, arg) {
				return result(False)
			}
			a, b, err := stringPair(rt, recv, arg)
			if err != nil {
				return fail(err)
			}
			return result(FromBool(a == b))
		})},
	})
}

func stringPair(rt *Runtime, recv, arg Value) (string, string, error) {
	a, err := rt.StringContent(recv)
	if err != nil {
		return "", "", err
	}
	b, err := rt.StringContent(arg)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}
