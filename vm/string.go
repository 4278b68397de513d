package vm

import (
	"encoding/binary"
	"fmt"
)

// String body layout: [len u64][bytes].
const stringHeaderSize = 8

// NewString copies s into a new TypeString object.
func NewString(h *Heap, s string) (Value, error) {
	p, err := h.Allocate(uint64(stringHeaderSize+len(s)), DefaultAlign, TypeString)
	if err != nil {
		return Nil, err
	}
	body, err := h.Body(p)
	if err != nil {
		return Nil, err
	}
	binary.LittleEndian.PutUint64(body, uint64(len(s)))
	copy(body[stringHeaderSize:], s)
	return FromPointer(p), nil
}

// StringContent returns the text of the string object v references.
func StringContent(h *Heap, v Value) (string, error) {
	if !v.IsPointer() {
		return "", fmt.Errorf("%w: %s is not a string", ErrWrongType, v)
	}
	body, err := h.Expect(v.AsPointer(), TypeString)
	if err != nil {
		return "", err
	}
	if len(body) < stringHeaderSize {
		return "", fmt.Errorf("%w: string at %#x has no length header", ErrBadPointer, uint64(v.AsPointer()))
	}
	n := binary.LittleEndian.Uint64(body)
	if n > uint64(len(body)-stringHeaderSize) {
		return "", fmt.Errorf("%w: string at %#x claims %d bytes", ErrBadPointer, uint64(v.AsPointer()), n)
	}
	return string(body[stringHeaderSize : stringHeaderSize+n]), nil
}

// IsString reports whether v references a string object in h.
func IsString(h *Heap, v Value) bool {
	if !v.IsPointer() {
		return false
	}
	t, err := h.TypeOf(v.AsPointer())
	return err == nil && t == TypeString
}
