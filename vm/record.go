package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Records: user-declared types with named fields
// ---------------------------------------------------------------------------

// Record body layout: one Value word per field, in declaration order.

type recordType struct {
	name   string
	fields []string
}

// Messages every record answers. Fields may not reuse them.
var recordMessages = map[string]bool{"new": true, "display": true}

// DefineRecord defines a new type called name whose objects hold fields,
// and binds the global name to a prototype with every field nil.
//
// Each record answers `new` with one argument per field (building a fresh
// record, whatever the receiver), a getter per field, a setter `field=`
// per field, and `display`.
func (rt *Runtime) DefineRecord(name string, fields []string) (TypeID, error) {
	if _, ok := rt.recordNames[name]; ok {
		return 0, fmt.Errorf("%w: %s", ErrTypeExists, name)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if recordMessages[f] {
			return 0, fmt.Errorf("record %s: field %q shadows a built-in message", name, f)
		}
		if seen[f] {
			return 0, fmt.Errorf("record %s: duplicate field %q", name, f)
		}
		seen[f] = true
	}

	for rt.HasType(rt.nextType) {
		rt.nextType++
	}
	t := rt.nextType
	rt.nextType++

	rec := &recordType{name: name, fields: append([]string(nil), fields...)}
	prims := []primitive{
		{"new", recordNew(t, len(fields))},
		{"display", Method0("display", func(rt *Runtime, recv Value) (Value, bool, error) {
			s, err := rt.describeRecord(rec, recv)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(rt.Out(), "(%s) %s\n", rec.name, s)
			return noResult()
		})},
	}
	for i, f := range fields {
		prims = append(prims,
			primitive{f, Method0(f, recordGet(uint64(i)))},
			primitive{f + "=", Method1(f+"=", recordSet(uint64(i)))},
		)
	}
	if err := rt.definePrimitives(t, prims); err != nil {
		return 0, err
	}
	rt.records[t] = rec
	rt.recordNames[name] = t

	blank := make([]Value, len(fields))
	for i := range blank {
		blank[i] = Nil
	}
	proto, err := rt.newRecord(t, blank)
	if err != nil {
		return 0, err
	}
	if err := rt.SetGlobalByName(name, proto); err != nil {
		return 0, err
	}
	rt.log.Debugf("defined record %s as %s with %d fields", name, t, len(fields))
	return t, nil
}

// RecordFields returns the field names of record type t.
func (rt *Runtime) RecordFields(t TypeID) ([]string, bool) {
	r, ok := rt.records[t]
	if !ok {
		return nil, false
	}
	return r.fields, true
}

func (rt *Runtime) newRecord(t TypeID, vals []Value) (Value, error) {
	p, err := rt.Heap.Allocate(uint64(len(vals))*WordSize, DefaultAlign, t)
	if err != nil {
		return Nil, err
	}
	for i, v := range vals {
		if err := rt.Heap.WriteWord(p, uint64(i), uint64(v)); err != nil {
			return Nil, err
		}
	}
	return FromPointer(p), nil
}

func recordNew(t TypeID, n int) Handler {
	return func(rt *Runtime, argc int) (Value, bool, error) {
		if argc != n {
			return Nil, false, ArityError("new", argc, n)
		}
		_, args, err := popSend(rt, argc)
		if err != nil {
			return Nil, false, err
		}
		v, err := rt.newRecord(t, args)
		if err != nil {
			return fail(err)
		}
		return result(v)
	}
}

func recordGet(i uint64) Method0Func {
	return func(rt *Runtime, recv Value) (Value, bool, error) {
		w, err := rt.Heap.ReadWord(recv.AsPointer(), i)
		if err != nil {
			return fail(err)
		}
		return result(Value(w))
	}
}

func recordSet(i uint64) Method1Func {
	return func(rt *Runtime, recv, v Value) (Value, bool, error) {
		if err := rt.Heap.WriteWord(recv.AsPointer(), i, uint64(v)); err != nil {
			return fail(err)
		}
		return noResult()
	}
}

func (rt *Runtime) describeRecord(rec *recordType, v Value) (string, error) {
	parts := make([]string, len(rec.fields))
	for i, f := range rec.fields {
		w, err := rt.Heap.ReadWord(v.AsPointer(), uint64(i))
		if err != nil {
			return "", err
		}
		parts[i] = f + "=" + rt.brief(Value(w))
	}
	return strings.Join(parts, " "), nil
}

// brief renders v on one line, quoting strings and naming other objects by
// type.
func (rt *Runtime) brief(v Value) string {
	if !v.IsPointer() {
		return v.String()
	}
	if s, err := rt.StringContent(v); err == nil {
		return fmt.Sprintf("%q", s)
	}
	t, err := rt.Heap.TypeOf(v.AsPointer())
	if err != nil {
		return v.String()
	}
	return "a " + rt.TypeName(t)
}
