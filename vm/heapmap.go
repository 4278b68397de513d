package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// ---------------------------------------------------------------------------
// HeapMap: open-addressing hash table stored in the Heap
// ---------------------------------------------------------------------------

// Map header words. The slots live in a separate allocation so the map's own
// pointer survives growth.
const (
	mapCapWord   = 0
	mapCountWord = 1
	mapSlotsWord = 2
	mapWords     = 3

	slotSize = 2 * WordSize // key, value
)

// Growth policy: rehash into twice the capacity once the load factor
// exceeds 7/10.
const (
	maxLoadNum   = 7
	maxLoadDen   = 10
	growthFactor = 2
)

// HeapMap is a view of a hash table whose storage lives in a Heap. Keys and
// values are Values compared by their raw bits. Nil keys mark empty slots.
type HeapMap struct {
	heap *Heap
	ptr  Pointer
}

type mapTable struct {
	capacity uint64
	count    uint64
	slotsPtr Pointer
	header   []byte
	slots    []byte
}

// NewHeapMap allocates an empty map with at least capacity slots.
// The slot count is rounded up to a power of two.
func NewHeapMap(h *Heap, capacity uint64) (*HeapMap, error) {
	capacity = roundPow2(capacity)
	p, err := h.Allocate(mapWords*WordSize, DefaultAlign, TypeMap)
	if err != nil {
		return nil, err
	}
	slots, err := allocSlots(h, capacity)
	if err != nil {
		return nil, err
	}
	hdr, err := h.Body(p)
	if err != nil {
		return nil, err
	}
	putWord(hdr, mapCapWord, capacity)
	putWord(hdr, mapCountWord, 0)
	putWord(hdr, mapSlotsWord, uint64(slots))
	return &HeapMap{heap: h, ptr: p}, nil
}

// OpenHeapMap returns a view of the map stored at p.
func OpenHeapMap(h *Heap, p Pointer) (*HeapMap, error) {
	m := &HeapMap{heap: h, ptr: p}
	if _, err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Pointer returns the heap offset of the map header.
func (m *HeapMap) Pointer() Pointer { return m.ptr }

// Value returns a pointer Value referencing the map.
func (m *HeapMap) Value() Value { return FromPointer(m.ptr) }

// Len returns the number of live entries.
func (m *HeapMap) Len() uint64 {
	t, err := m.load()
	if err != nil {
		return 0
	}
	return t.count
}

// Cap returns the current number of slots.
func (m *HeapMap) Cap() uint64 {
	t, err := m.load()
	if err != nil {
		return 0
	}
	return t.capacity
}

// Get returns the value stored under key. The probe visits at most Cap()
// slots.
func (m *HeapMap) Get(key Value) (Value, bool, error) {
	if key == Nil {
		return Nil, false, nil
	}
	t, err := m.load()
	if err != nil {
		return Nil, false, err
	}
	i, found, _ := probe(t.slots, t.capacity, key)
	if !found {
		return Nil, false, nil
	}
	return Value(word(t.slots, i*2+1)), true, nil
}

// Insert stores value under key, overwriting any previous value. The map
// grows when its load factor passes 0.7.
func (m *HeapMap) Insert(key, value Value) error {
	if key == Nil {
		return ErrNilKey
	}
	for {
		t, err := m.load()
		if err != nil {
			return err
		}
		i, found, ok := probe(t.slots, t.capacity, key)
		if !ok {
			// Full table: grow and probe again.
			if err := m.grow(t, t.capacity*growthFactor); err != nil {
				return err
			}
			continue
		}
		putWord(t.slots, i*2+1, uint64(value))
		if found {
			return nil
		}
		putWord(t.slots, i*2, uint64(key))
		t.count++
		putWord(t.header, mapCountWord, t.count)
		if t.count*maxLoadDen > t.capacity*maxLoadNum {
			return m.grow(t, t.capacity*growthFactor)
		}
		return nil
	}
}

// Each calls fn for every live entry in slot order. Stops at the first error.
func (m *HeapMap) Each(fn func(key, value Value) error) error {
	t, err := m.load()
	if err != nil {
		return err
	}
	for i := uint64(0); i < t.capacity; i++ {
		k := Value(word(t.slots, i*2))
		if k == Nil {
			continue
		}
		if err := fn(k, Value(word(t.slots, i*2+1))); err != nil {
			return err
		}
	}
	return nil
}

func (m *HeapMap) load() (*mapTable, error) {
	hdr, err := m.heap.Expect(m.ptr, TypeMap)
	if err != nil {
		return nil, err
	}
	if len(hdr) < mapWords*WordSize {
		return nil, fmt.Errorf("%w: map header at %#x too short", ErrBadPointer, uint64(m.ptr))
	}
	t := &mapTable{
		capacity: word(hdr, mapCapWord),
		count:    word(hdr, mapCountWord),
		slotsPtr: Pointer(word(hdr, mapSlotsWord)),
		header:   hdr,
	}
	if t.slots, err = m.heap.Expect(t.slotsPtr, TypeMapSlots); err != nil {
		return nil, err
	}
	if t.capacity == 0 || t.capacity&(t.capacity-1) != 0 || uint64(len(t.slots)) != t.capacity*slotSize {
		return nil, fmt.Errorf("%w: map at %#x has corrupt capacity %d", ErrBadPointer, uint64(m.ptr), t.capacity)
	}
	return t, nil
}

// grow rehashes every live entry into a fresh slots allocation. The old slots
// are abandoned; the heap never reclaims them.
func (m *HeapMap) grow(t *mapTable, capacity uint64) error {
	slotsPtr, err := allocSlots(m.heap, capacity)
	if err != nil {
		return err
	}
	slots, err := m.heap.Body(slotsPtr)
	if err != nil {
		return err
	}
	for i := uint64(0); i < t.capacity; i++ {
		k := word(t.slots, i*2)
		if Value(k) == Nil {
			continue
		}
		j, _, _ := probe(slots, capacity, Value(k))
		putWord(slots, j*2, k)
		putWord(slots, j*2+1, word(t.slots, i*2+1))
	}
	putWord(t.header, mapCapWord, capacity)
	putWord(t.header, mapSlotsWord, uint64(slotsPtr))
	return nil
}

// probe walks the linear probe sequence for key. It returns the slot holding
// key (found) or the first empty slot. ok is false only when capacity slots
// were visited without finding either.
func probe(slots []byte, capacity uint64, key Value) (i uint64, found, ok bool) {
	mask := capacity - 1
	i = hashValue(key) & mask
	for n := uint64(0); n < capacity; n++ {
		switch Value(word(slots, i*2)) {
		case key:
			return i, true, true
		case Nil:
			return i, false, true
		}
		i = (i + 1) & mask
	}
	return 0, false, false
}

func allocSlots(h *Heap, capacity uint64) (Pointer, error) {
	if capacity > h.Capacity()/slotSize {
		return 0, &AllocError{Size: capacity * slotSize, Cursor: h.Used(), Capacity: h.Capacity()}
	}
	p, err := h.Allocate(capacity*slotSize, DefaultAlign, TypeMapSlots)
	if err != nil {
		return 0, err
	}
	slots, err := h.Body(p)
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < capacity; i++ {
		putWord(slots, i*2, uint64(Nil))
	}
	return p, nil
}

func hashValue(v Value) uint64 {
	var buf [WordSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return xxh3.Hash(buf[:])
}

func roundPow2(n uint64) uint64 {
	const maxCap = uint64(1) << 62
	if n > maxCap {
		return maxCap
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

func word(b []byte, i uint64) uint64 {
	return binary.LittleEndian.Uint64(b[i*WordSize:])
}

func putWord(b []byte, i uint64, w uint64) {
	binary.LittleEndian.PutUint64(b[i*WordSize:], w)
}
