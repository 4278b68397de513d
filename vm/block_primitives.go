package vm

// ---------------------------------------------------------------------------
// Block Primitives
// ---------------------------------------------------------------------------

func registerBlockPrimitives(rt *Runtime) error {
	return rt.definePrimitives(TypeBlock, []primitive{
		{"value", Method0("value", func(rt *Runtime, recv Value) (Value, bool, error) {
			if err := rt.RunBlock(recv); err != nil {
				return fail(err)
			}
			return noResult()
		})},

		// loop runs the receiver until it fails and returns that failure.
		{"loop", Method0("loop", func(rt *Runtime, recv Value) (Value, bool, error) {
			for {
				if err := rt.RunBlock(recv); err != nil {
					return fail(err)
				}
			}
		})},
	})
}
