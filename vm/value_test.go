package vm

import (
	"errors"
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// Float tests
// ---------------------------------------------------------------------------

func TestFloatRoundTrip(t *testing.T) {
	tests := []float64{
		0.0,
		1.0,
		-1.0,
		3.14159265358979,
		-3.14159265358979,
		math.MaxFloat64,
		math.SmallestNonzeroFloat64,
		-math.MaxFloat64,
		math.Inf(1),
		math.Inf(-1),
	}

	for _, f := range tests {
		v := FromFloat(f)
		if !v.IsFloat() {
			t.Errorf("FromFloat(%v).IsFloat() = false, want true", f)
			continue
		}
		if got := v.AsFloat(); got != f {
			t.Errorf("FromFloat(%v).AsFloat() = %v, want %v", f, got, f)
		}
	}
}

func TestNegativeZeroKeepsSign(t *testing.T) {
	v := FromFloat(math.Copysign(0, -1))
	if !math.Signbit(v.AsFloat()) {
		t.Error("-0.0 lost its sign bit")
	}
	if v == FromFloat(0) {
		t.Error("-0.0 and 0.0 should have different encodings")
	}
}

func TestNaNIsCanonical(t *testing.T) {
	a := FromFloat(math.NaN())
	b := FromFloat(math.Float64frombits(0x7FF0000000000001))
	c := FromFloat(math.Float64frombits(0xFFFFFFFFFFFFFFFF))

	if !a.IsFloat() || !a.IsNaN() {
		t.Fatal("NaN should be a float and report IsNaN")
	}
	if a != b || a != c {
		t.Errorf("NaN encodings differ: %#x %#x %#x", a.Bits(), b.Bits(), c.Bits())
	}
	if !math.IsNaN(a.AsFloat()) {
		t.Error("NaN round trip failed")
	}
	if a.IsInt() || a.IsPointer() || a.IsNil() {
		t.Error("NaN must not look like a boxed value")
	}
}

// ---------------------------------------------------------------------------
// Integer tests
// ---------------------------------------------------------------------------

func TestIntRoundTrip(t *testing.T) {
	tests := []int32{0, 1, -1, 42, -42, 1 << 20, math.MaxInt32, math.MinInt32}

	for _, n := range tests {
		v := FromInt(n)
		if !v.IsInt() {
			t.Errorf("FromInt(%d).IsInt() = false", n)
			continue
		}
		if got := v.AsInt(); got != n {
			t.Errorf("FromInt(%d).AsInt() = %d", n, got)
		}
		if v.IsFloat() {
			t.Errorf("FromInt(%d).IsFloat() = true", n)
		}
	}
}

func TestIntTag(t *testing.T) {
	if got := FromInt(-1).Bits() >> 48; got != 0xFFFD {
		t.Errorf("int tag = %#x, want 0xFFFD", got)
	}
	if got := FromInt(-1).Bits() & payloadMask; got != payloadMask {
		t.Errorf("-1 payload = %#x, want sign-extended %#x", got, payloadMask)
	}
}

// ---------------------------------------------------------------------------
// Special values and pointers
// ---------------------------------------------------------------------------

func TestSpecialValues(t *testing.T) {
	if True.Bits() != False.Bits()|1 || Nil.Bits() != False.Bits()|2 {
		t.Errorf("special encodings: false=%#x true=%#x nil=%#x", False.Bits(), True.Bits(), Nil.Bits())
	}
	if !FromBool(true).IsTrue() || !FromBool(false).IsFalse() {
		t.Error("FromBool mismatch")
	}
	if !True.AsBool() || False.AsBool() {
		t.Error("AsBool mismatch")
	}
	if Nil.IsBool() {
		t.Error("nil is not a boolean")
	}
}

func TestPointerRoundTrip(t *testing.T) {
	for _, p := range []Pointer{0, 16, 0x1234_5678, MaxPointer} {
		v := FromPointer(p)
		if !v.IsPointer() {
			t.Errorf("FromPointer(%#x).IsPointer() = false", uint64(p))
			continue
		}
		if got := v.AsPointer(); got != p {
			t.Errorf("FromPointer(%#x).AsPointer() = %#x", uint64(p), uint64(got))
		}
	}
}

func TestFromPointerRejectsWideOffset(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrBadPointer) {
			t.Errorf("recovered %v, want ErrBadPointer", r)
		}
	}()
	FromPointer(MaxPointer + 1)
}

func TestPredicatesAreExclusive(t *testing.T) {
	values := []Value{FromFloat(2.5), FromFloat(math.NaN()), FromInt(7), FromPointer(64), True, False, Nil}

	for _, v := range values {
		n := 0
		for _, is := range []bool{v.IsFloat(), v.IsInt(), v.IsPointer(), v.IsTrue(), v.IsFalse(), v.IsNil()} {
			if is {
				n++
			}
		}
		if n != 1 {
			t.Errorf("%s (%#x) matches %d categories, want 1", v, v.Bits(), n)
		}
	}
}

func TestAccessorsPanicWithWrongType(t *testing.T) {
	cases := map[string]func(){
		"AsInt":     func() { FromFloat(1).AsInt() },
		"AsFloat":   func() { FromInt(1).AsFloat() },
		"AsPointer": func() { Nil.AsPointer() },
		"AsBool":    func() { FromInt(0).AsBool() },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				err, ok := recover().(error)
				if !ok || !errors.Is(err, ErrWrongType) {
					t.Errorf("%s panicked with %v, want ErrWrongType", name, err)
				}
			}()
			fn()
		})
	}
}

func TestPrimitiveTypeOf(t *testing.T) {
	tests := []struct {
		v    Value
		want TypeID
	}{
		{FromInt(3), TypeInt},
		{FromFloat(3), TypeFloat},
		{Nil, TypeNil},
		{True, TypeTrue},
		{False, TypeFalse},
	}

	for _, tt := range tests {
		got, err := tt.v.TypeOf(nil)
		if err != nil || got != tt.want {
			t.Errorf("TypeOf(%s) = %s, %v; want %s", tt.v, got, err, tt.want)
		}
	}

	if _, err := FromPointer(16).TypeOf(nil); !errors.Is(err, ErrBadPointer) {
		t.Errorf("pointer without heap: err = %v, want ErrBadPointer", err)
	}
}

func TestValueString(t *testing.T) {
	tests := map[Value]string{
		FromInt(-5):     "-5",
		FromFloat(1.5):  "1.5",
		Nil:             "nil",
		True:            "true",
		False:           "false",
		FromPointer(32): "<ptr:0x20>",
	}
	for v, want := range tests {
		if got := v.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
