package vm

// ---------------------------------------------------------------------------
// Map Primitives
// ---------------------------------------------------------------------------

// Keys compare by raw bits: two distinct string objects with the same text
// are different keys.

func registerMapPrimitives(rt *Runtime) error {
	err := rt.definePrimitives(TypeMap, []primitive{
		{"new", Method0("new", func(rt *Runtime, recv Value) (Value, bool, error) {
			m, err := NewHeapMap(rt.Heap, rt.mapCapacity)
			if err != nil {
				return fail(err)
			}
			return result(m.Value())
		})},

		{"put", Method2("put", func(rt *Runtime, recv, key, val Value) (Value, bool, error) {
			m, err := OpenHeapMap(rt.Heap, recv.AsPointer())
			if err != nil {
				return fail(err)
			}
			if err := m.Insert(key, val); err != nil {
				return fail(err)
			}
			return noResult()
		})},

		// at answers nil for an absent key.
		{"at", Method1("at", func(rt *Runtime, recv, key Value) (Value, bool, error) {
			m, err := OpenHeapMap(rt.Heap, recv.AsPointer())
			if err != nil {
				return fail(err)
			}
			v, _, err := m.Get(key)
			if err != nil {
				return fail(err)
			}
			return result(v)
		})},

		{"has", Method1("has", func(rt *Runtime, recv, key Value) (Value, bool, error) {
			m, err := OpenHeapMap(rt.Heap, recv.AsPointer())
			if err != nil {
				return fail(err)
			}
			_, ok, err := m.Get(key)
			if err != nil {
				return fail(err)
			}
			return result(FromBool(ok))
		})},

		{"size", Method0("size", func(rt *Runtime, recv Value) (Value, bool, error) {
			m, err := OpenHeapMap(rt.Heap, recv.AsPointer())
			if err != nil {
				return fail(err)
			}
			return result(FromInt(int32(m.Len())))
		})},
	})
	if err != nil {
		return err
	}

	proto, err := NewHeapMap(rt.Heap, rt.mapCapacity)
	if err != nil {
		return err
	}
	return rt.SetGlobalByName("Map", proto.Value())
}
