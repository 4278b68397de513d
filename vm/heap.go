package vm

import (
	"encoding/binary"
	"fmt"
)

// ---------------------------------------------------------------------------
// Heap: fixed-capacity bump arena
// ---------------------------------------------------------------------------

// DefaultHeapCapacity is the heap size used when none is configured.
const DefaultHeapCapacity = 32_000_000

// DefaultAlign is the alignment of every object body allocated by the runtime.
const DefaultAlign = 16

// WordSize is the size of one heap word.
const WordSize = 8

// Header layout, defined once: [type tag u64][body size u64] immediately
// before the body.
const (
	headerSize       = 16
	headerTypeOffset = 0
	headerSizeOffset = 8
)

// Pointer is the offset of an object body within a Heap.
type Pointer uint64

// Heap is a contiguous arena of bytes with a monotonically increasing cursor.
// Objects are never freed; the whole heap goes away with its Runtime.
type Heap struct {
	mem     []byte
	cursor  uint64
	objects int
}

// NewHeap creates a heap with the given capacity in bytes.
func NewHeap(capacity int) *Heap {
	if capacity <= 0 {
		capacity = DefaultHeapCapacity
	}
	return &Heap{mem: make([]byte, capacity)}
}

// Capacity returns the heap size in bytes.
func (h *Heap) Capacity() uint64 { return uint64(len(h.mem)) }

// Used returns the current cursor position.
func (h *Heap) Used() uint64 { return h.cursor }

// Objects returns the number of allocations made so far.
func (h *Heap) Objects() int { return h.objects }

// Allocate reserves size bytes aligned to align and tags the object with
// typeID. The body is zeroed.
func (h *Heap) Allocate(size, align uint64, typeID TypeID) (Pointer, error) {
	if align < WordSize || align&(align-1) != 0 {
		return 0, fmt.Errorf("heap: alignment %d is not a power of two >= %d", align, WordSize)
	}
	capacity := h.Capacity()

	// Each step is checked before it can wrap.
	if capacity-h.cursor < headerSize || size > capacity {
		return 0, &AllocError{Size: size, Cursor: h.cursor, Capacity: capacity}
	}
	start := h.cursor + headerSize
	if rem := start & (align - 1); rem != 0 {
		pad := align - rem
		if capacity-start < pad {
			return 0, &AllocError{Size: size, Cursor: h.cursor, Capacity: capacity}
		}
		start += pad
	}
	if capacity-start < size {
		return 0, &AllocError{Size: size, Cursor: h.cursor, Capacity: capacity}
	}

	p := Pointer(start)
	if p > MaxPointer {
		return 0, fmt.Errorf("%w: offset %d does not fit a pointer value", ErrBadPointer, start)
	}
	hdr := h.mem[start-headerSize : start]
	binary.LittleEndian.PutUint64(hdr[headerTypeOffset:], uint64(typeID))
	binary.LittleEndian.PutUint64(hdr[headerSizeOffset:], size)

	h.cursor = start + size
	h.objects++
	return p, nil
}

// header returns the metadata bytes of the object at p. All header access
// goes through here.
func (h *Heap) header(p Pointer) ([]byte, error) {
	off := uint64(p)
	if off < headerSize || off > h.cursor {
		return nil, fmt.Errorf("%w: %#x outside allocated heap [%d, %d)", ErrBadPointer, off, headerSize, h.cursor)
	}
	hdr := h.mem[off-headerSize : off]
	size := binary.LittleEndian.Uint64(hdr[headerSizeOffset:])
	if size > h.cursor-off {
		return nil, fmt.Errorf("%w: %#x has corrupt header (size %d)", ErrBadPointer, off, size)
	}
	return hdr, nil
}

// TypeOf returns the type tag stored in the header behind p.
func (h *Heap) TypeOf(p Pointer) (TypeID, error) {
	hdr, err := h.header(p)
	if err != nil {
		return 0, err
	}
	return TypeID(binary.LittleEndian.Uint64(hdr[headerTypeOffset:])), nil
}

// SizeOf returns the body size recorded for the object at p.
func (h *Heap) SizeOf(p Pointer) (uint64, error) {
	hdr, err := h.header(p)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(hdr[headerSizeOffset:]), nil
}

// Body returns the bytes of the object at p. The slice aliases heap memory.
func (h *Heap) Body(p Pointer) ([]byte, error) {
	size, err := h.SizeOf(p)
	if err != nil {
		return nil, err
	}
	return h.mem[uint64(p) : uint64(p)+size : uint64(p)+size], nil
}

// Expect returns the body of the object at p after checking its type tag.
func (h *Heap) Expect(p Pointer, want TypeID) ([]byte, error) {
	got, err := h.TypeOf(p)
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, fmt.Errorf("%w: object at %#x is %s, want %s", ErrWrongType, uint64(p), got, want)
	}
	return h.Body(p)
}

// ReadWord reads the i-th 64-bit word of the body at p.
func (h *Heap) ReadWord(p Pointer, i uint64) (uint64, error) {
	body, err := h.Body(p)
	if err != nil {
		return 0, err
	}
	if i >= uint64(len(body))/WordSize {
		return 0, fmt.Errorf("%w: word %d beyond object of %d bytes at %#x", ErrBadPointer, i, len(body), uint64(p))
	}
	return binary.LittleEndian.Uint64(body[i*WordSize:]), nil
}

// WriteWord stores w as the i-th 64-bit word of the body at p.
func (h *Heap) WriteWord(p Pointer, i uint64, w uint64) error {
	body, err := h.Body(p)
	if err != nil {
		return err
	}
	if i >= uint64(len(body))/WordSize {
		return fmt.Errorf("%w: word %d beyond object of %d bytes at %#x", ErrBadPointer, i, len(body), uint64(p))
	}
	binary.LittleEndian.PutUint64(body[i*WordSize:], w)
	return nil
}
