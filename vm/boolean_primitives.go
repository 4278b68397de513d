package vm

import "fmt"

// ---------------------------------------------------------------------------
// Boolean Primitives (True, False)
// ---------------------------------------------------------------------------

func registerBooleanPrimitives(rt *Runtime) error {
	for _, t := range []TypeID{TypeTrue, TypeFalse} {
		if err := rt.definePrimitives(t, booleanPrimitives()); err != nil {
			return err
		}
	}
	return nil
}

func booleanPrimitives() []primitive {
	return []primitive{
		// ifTrue runs its first block when the receiver is true, and the
		// optional second block otherwise.
		{"ifTrue", func(rt *Runtime, argc int) (Value, bool, error) {
			if argc != 1 && argc != 2 {
				return fail(ArityError("ifTrue", argc, 1, 2))
			}
			recv, blocks, err := popSend(rt, argc)
			if err != nil {
				return fail(err)
			}
			switch {
			case recv.AsBool():
				err = rt.RunBlock(blocks[0])
			case argc == 2:
				err = rt.RunBlock(blocks[1])
			}
			if err != nil {
				return fail(err)
			}
			return noResult()
		}},

		{"not", Method0("not", func(rt *Runtime, recv Value) (Value, bool, error) {
			return result(FromBool(!recv.AsBool()))
		})},

		{"&", Method1("&", func(rt *Runtime, recv, arg Value) (Value, bool, error) {
			if !arg.IsBool() {
				return fail(fmt.Errorf("%w: %s is not a boolean", ErrWrongType, arg))
			}
			return result(FromBool(recv.AsBool() && arg.AsBool()))
		})},

		{"==", Method1("==", func(rt *Runtime, recv, arg Value) (Value, bool, error) {
			return result(FromBool(recv == arg))
		})},

		{"display", Method0("display", func(rt *Runtime, recv Value) (Value, bool, error) {
			fmt.Fprintf(rt.Out(), "(Bool) %t\n", recv.AsBool())
			return noResult()
		})},
	}
}

// ---------------------------------------------------------------------------
// Nil Primitives
// ---------------------------------------------------------------------------

func registerNilPrimitives(rt *Runtime) error {
	return rt.definePrimitives(TypeNil, []primitive{
		{"isNil", Method0("isNil", func(rt *Runtime, recv Value) (Value, bool, error) {
			return result(True)
		})},
		{"display", Method0("display", func(rt *Runtime, recv Value) (Value, bool, error) {
			fmt.Fprintln(rt.Out(), "(Nil) nil")
			return noResult()
		})},
	})
}
