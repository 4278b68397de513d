package vm

import (
	"errors"
	"testing"
)

func newTestMap(t *testing.T, capacity uint64) *HeapMap {
	t.Helper()
	m, err := NewHeapMap(NewHeap(1<<20), capacity)
	if err != nil {
		t.Fatalf("NewHeapMap: %v", err)
	}
	return m
}

func TestHeapMapInsertGet(t *testing.T) {
	m := newTestMap(t, 8)

	if err := m.Insert(FromInt(1), FromInt(100)); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(FromFloat(2.5), True); err != nil {
		t.Fatal(err)
	}

	v, ok, err := m.Get(FromInt(1))
	if err != nil || !ok || v != FromInt(100) {
		t.Errorf("Get(1) = %s, %v, %v", v, ok, err)
	}
	v, ok, _ = m.Get(FromFloat(2.5))
	if !ok || v != True {
		t.Errorf("Get(2.5) = %s, %v", v, ok)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestHeapMapOverwriteKeepsCount(t *testing.T) {
	m := newTestMap(t, 8)
	_ = m.Insert(FromInt(7), FromInt(1))
	_ = m.Insert(FromInt(7), FromInt(2))

	v, _, _ := m.Get(FromInt(7))
	if v != FromInt(2) {
		t.Errorf("Get(7) = %s, want 2", v)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestHeapMapAbsentAndNilKeys(t *testing.T) {
	m := newTestMap(t, 8)
	_ = m.Insert(FromInt(1), FromInt(1))

	if _, ok, err := m.Get(FromInt(2)); ok || err != nil {
		t.Errorf("Get(absent) = %v, %v", ok, err)
	}
	if v, ok, err := m.Get(Nil); ok || err != nil || v != Nil {
		t.Errorf("Get(nil) = %s, %v, %v", v, ok, err)
	}
	if err := m.Insert(Nil, FromInt(1)); !errors.Is(err, ErrNilKey) {
		t.Errorf("Insert(nil) err = %v, want ErrNilKey", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d after rejected insert", m.Len())
	}
}

// Keys compare by bits: Int 1 and Float 1.0 are distinct keys.
func TestHeapMapKeysCompareByBits(t *testing.T) {
	m := newTestMap(t, 8)
	_ = m.Insert(FromInt(1), FromInt(10))
	_ = m.Insert(FromFloat(1), FromInt(20))

	a, _, _ := m.Get(FromInt(1))
	b, _, _ := m.Get(FromFloat(1))
	if a != FromInt(10) || b != FromInt(20) || m.Len() != 2 {
		t.Errorf("got %s and %s with len %d", a, b, m.Len())
	}
}

func TestHeapMapGrowthPreservesEntries(t *testing.T) {
	m := newTestMap(t, 4)
	ptr := m.Pointer()

	const n = 200
	for i := int32(0); i < n; i++ {
		if err := m.Insert(FromInt(i), FromInt(i*3)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
		if m.Len()*maxLoadDen > m.Cap()*maxLoadNum {
			t.Fatalf("load factor exceeded after %d inserts: %d/%d", i+1, m.Len(), m.Cap())
		}
	}

	if m.Pointer() != ptr {
		t.Error("map pointer changed on growth")
	}
	if m.Cap() < n {
		t.Errorf("Cap() = %d after %d inserts", m.Cap(), n)
	}
	for i := int32(0); i < n; i++ {
		v, ok, _ := m.Get(FromInt(i))
		if !ok || v != FromInt(i*3) {
			t.Fatalf("Get(%d) = %s, %v", i, v, ok)
		}
	}

	reopened, err := OpenHeapMap(m.heap, ptr)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != n {
		t.Errorf("reopened Len() = %d", reopened.Len())
	}
}

func TestHeapMapCapacityRoundsUp(t *testing.T) {
	m := newTestMap(t, 5)
	if m.Cap() != 8 {
		t.Errorf("Cap() = %d, want 8", m.Cap())
	}
	m = newTestMap(t, 0)
	if m.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", m.Cap())
	}
}

// A completely full table must not hang lookups, and an insert into it
// must still succeed by growing.
func TestHeapMapFullTableTerminates(t *testing.T) {
	m := newTestMap(t, 4)
	tbl, err := m.load()
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 4; i++ {
		putWord(tbl.slots, i*2, uint64(FromInt(int32(i+1))))
		putWord(tbl.slots, i*2+1, uint64(FromInt(0)))
	}
	putWord(tbl.header, mapCountWord, 4)

	if _, ok, err := m.Get(FromInt(99)); ok || err != nil {
		t.Errorf("Get on full table = %v, %v", ok, err)
	}
	if err := m.Insert(FromInt(99), True); err != nil {
		t.Fatalf("Insert on full table: %v", err)
	}
	if v, ok, _ := m.Get(FromInt(99)); !ok || v != True {
		t.Errorf("Get(99) = %s, %v", v, ok)
	}
	if m.Len() != 5 || m.Cap() <= 4 {
		t.Errorf("len %d, cap %d", m.Len(), m.Cap())
	}
}

func TestHeapMapGrowthOutOfMemory(t *testing.T) {
	h := NewHeap(512)
	m, err := NewHeapMap(h, 4)
	if err != nil {
		t.Fatal(err)
	}

	var last error
	for i := int32(0); i < 1000 && last == nil; i++ {
		last = m.Insert(FromInt(i), FromInt(i))
	}
	if !errors.Is(last, ErrOutOfMemory) {
		t.Errorf("err = %v, want ErrOutOfMemory", last)
	}
}

func TestHeapMapEach(t *testing.T) {
	m := newTestMap(t, 8)
	for i := int32(1); i <= 5; i++ {
		_ = m.Insert(FromInt(i), FromInt(i*i))
	}

	sum := int32(0)
	err := m.Each(func(k, v Value) error {
		if v.AsInt() != k.AsInt()*k.AsInt() {
			t.Errorf("entry %s -> %s", k, v)
		}
		sum += k.AsInt()
		return nil
	})
	if err != nil || sum != 15 {
		t.Errorf("Each: sum %d, err %v", sum, err)
	}

	stop := errors.New("stop")
	seen := 0
	if err := m.Each(func(Value, Value) error { seen++; return stop }); err != stop || seen != 1 {
		t.Errorf("early stop: seen %d, err %v", seen, err)
	}
}

func TestOpenHeapMapRejectsOtherObjects(t *testing.T) {
	h := NewHeap(1024)
	s, _ := NewString(h, "not a map")
	if _, err := OpenHeapMap(h, s.AsPointer()); !errors.Is(err, ErrWrongType) {
		t.Errorf("err = %v, want ErrWrongType", err)
	}
}
