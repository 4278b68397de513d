package vm

import (
	"fmt"
	"math"
)

// Value is a howl runtime datum packed into 64 bits using NaN-boxing.
//
// The top 16 bits select the category:
//   - below 0xFFFC: an IEEE 754 double (NaNs are canonicalised on entry)
//   - 0xFFFC: heap pointer, low 48 bits are a heap offset
//   - 0xFFFD: integer, low 48 bits hold a sign-extended int32
//   - 0xFFFE: false, true (false|1), nil (false|2)
//
// No constructor produces a top-16 value of 0xFFFF.
type Value uint64

// NaN-boxing constants
const (
	tagShift = 48

	// Every IEEE NaN maps to this bit pattern.
	canonicalNaN uint64 = 0x7FF8000000000000

	tagMask     uint64 = 0xFFFF000000000000
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	tagPointer uint64 = 0xFFFC000000000000
	tagInt     uint64 = 0xFFFD000000000000
	tagSpecial uint64 = 0xFFFE000000000000

	// First top-16 value that is not a float.
	firstTag uint64 = tagPointer >> tagShift

	// Sign bit of the 48-bit integer payload.
	intSignBit uint64 = 0x0000800000000000
)

// Pre-defined special values
const (
	False Value = Value(tagSpecial)
	True  Value = Value(tagSpecial | 1)
	Nil   Value = Value(tagSpecial | 2)
)

// MaxPointer is the largest heap offset a pointer Value can carry.
const MaxPointer = Pointer(payloadMask)

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// FromFloat creates a Value from a float64. Any NaN becomes the canonical NaN
// so that all NaNs compare and hash identically.
func FromFloat(f float64) Value {
	if math.IsNaN(f) {
		return Value(canonicalNaN)
	}
	return Value(math.Float64bits(f))
}

// FromInt creates a Value from a 32-bit integer.
func FromInt(i int32) Value {
	return Value(tagInt | (uint64(int64(i)) & payloadMask))
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// FromPointer creates a Value referencing a heap object.
// Panics if p does not fit in the 48-bit payload.
func FromPointer(p Pointer) Value {
	if p > MaxPointer {
		panic(fmt.Errorf("%w: pointer %#x exceeds 48 bits", ErrBadPointer, uint64(p)))
	}
	return Value(tagPointer | uint64(p))
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsFloat returns true if v represents a float64, NaN included.
func (v Value) IsFloat() bool {
	return uint64(v)>>tagShift < firstTag
}

// IsNaN returns true if v is the canonical NaN.
func (v Value) IsNaN() bool {
	return uint64(v) == canonicalNaN
}

// IsInt returns true if v represents an integer.
func (v Value) IsInt() bool {
	return uint64(v)&tagMask == tagInt
}

// IsPointer returns true if v references a heap object.
func (v Value) IsPointer() bool {
	return uint64(v)&tagMask == tagPointer
}

// IsTrue returns true if v is the true value.
func (v Value) IsTrue() bool { return v == True }

// IsFalse returns true if v is the false value.
func (v Value) IsFalse() bool { return v == False }

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool { return v == Nil }

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool { return v == True || v == False }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// AsFloat returns v as a float64.
// Panics if v is not a float.
func (v Value) AsFloat() float64 {
	if !v.IsFloat() {
		panic(wrongKind("AsFloat", "float", v))
	}
	return math.Float64frombits(uint64(v))
}

// AsInt returns v as an int32.
// Panics if v is not an integer.
func (v Value) AsInt() int32 {
	if !v.IsInt() {
		panic(wrongKind("AsInt", "integer", v))
	}
	payload := uint64(v) & payloadMask
	if payload&intSignBit != 0 {
		payload |= tagMask
	}
	return int32(int64(payload))
}

// AsPointer returns the heap offset referenced by v.
// Panics if v is not a pointer.
func (v Value) AsPointer() Pointer {
	if !v.IsPointer() {
		panic(wrongKind("AsPointer", "pointer", v))
	}
	return Pointer(uint64(v) & payloadMask)
}

// AsBool returns v as a bool.
// Panics if v is not true or false.
func (v Value) AsBool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic(wrongKind("AsBool", "boolean", v))
	}
}

// Bits returns the raw encoding. Equality and hashing use these bits.
func (v Value) Bits() uint64 { return uint64(v) }

// ---------------------------------------------------------------------------
// Runtime type
// ---------------------------------------------------------------------------

// TypeOf returns the TypeID of v. Primitive categories answer directly;
// pointers read the type tag from the object's heap header.
func (v Value) TypeOf(h *Heap) (TypeID, error) {
	switch {
	case v.IsPointer():
		if h == nil {
			return 0, fmt.Errorf("%w: no heap to resolve %v", ErrBadPointer, v)
		}
		return h.TypeOf(v.AsPointer())
	case v.IsInt():
		return TypeInt, nil
	case v.IsFloat():
		return TypeFloat, nil
	case v == Nil:
		return TypeNil, nil
	case v == True:
		return TypeTrue, nil
	case v == False:
		return TypeFalse, nil
	default:
		return 0, fmt.Errorf("%w: unencodable value %#016x", ErrWrongType, uint64(v))
	}
}

// String renders v without consulting the heap.
func (v Value) String() string {
	switch {
	case v == Nil:
		return "nil"
	case v == True:
		return "true"
	case v == False:
		return "false"
	case v.IsInt():
		return fmt.Sprintf("%d", v.AsInt())
	case v.IsPointer():
		return fmt.Sprintf("<ptr:%#x>", uint64(v.AsPointer()))
	case v.IsFloat():
		return fmt.Sprintf("%g", v.AsFloat())
	default:
		return fmt.Sprintf("<bits:%#016x>", uint64(v))
	}
}

func wrongKind(op, want string, v Value) error {
	return fmt.Errorf("%w: Value.%s: %s is not a %s", ErrWrongType, op, v, want)
}
