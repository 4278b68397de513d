package vm

import (
	"strings"
	"testing"
)

func TestInspectPrimitives(t *testing.T) {
	rt, _ := newTestRuntime(t)
	insp := NewInspector(rt)

	tests := []struct {
		v         Value
		wantType  string
		wantValue string
	}{
		{Nil, "Nil", "nil"},
		{True, "True", "true"},
		{False, "False", "false"},
		{FromInt(-7), "Int", "-7"},
		{FromFloat(0.25), "Float", "0.25"},
	}

	for _, tt := range tests {
		r := insp.Inspect(tt.v)
		if r.Type != tt.wantType || r.Value != tt.wantValue {
			t.Errorf("Inspect(%s) = %s %q, want %s %q", tt.v, r.Type, r.Value, tt.wantType, tt.wantValue)
		}
	}
}

func TestInspectHeapObjects(t *testing.T) {
	rt, _ := newTestRuntime(t)
	insp := NewInspector(rt)

	s, _ := rt.NewString("hello")
	r := insp.Inspect(s)
	if r.Type != "String" || r.Value != `"hello"` || r.Size != 5 {
		t.Errorf("string = %+v", r)
	}

	block, _ := StoreBlock(rt.Heap, []Instruction{PushLiteral(Nil), PushLiteral(Nil)})
	r = insp.Inspect(FromPointer(block))
	if r.Type != "Block" || r.Value != "a Block (2 instructions)" {
		t.Errorf("block = %+v", r)
	}

	r = insp.Inspect(FromPointer(1 << 40))
	if r.Type != "Invalid" {
		t.Errorf("dangling pointer = %+v", r)
	}
}

func TestInspectMap(t *testing.T) {
	rt, _ := newTestRuntime(t)
	insp := NewInspector(rt)

	m, err := NewHeapMap(rt.Heap, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := int32(0); i < MaxElementPreview+5; i++ {
		_ = m.Insert(FromInt(i), FromInt(i))
	}

	r := insp.Inspect(m.Value())
	if r.Type != "Map" || r.Size != MaxElementPreview+5 {
		t.Errorf("map = %s %d", r.Type, r.Size)
	}
	if len(r.Entries) != MaxElementPreview {
		t.Errorf("previewed %d entries, want %d", len(r.Entries), MaxElementPreview)
	}

	summary := insp.InspectDepth(m.Value(), 0)
	if len(summary.Entries) != 0 {
		t.Error("depth 0 should not list entries")
	}

	out := r.String()
	if !strings.HasPrefix(out, "Map: a Map (size: 15") || !strings.Contains(out, "  key:\n") {
		t.Errorf("String() =\n%s", out)
	}
}

func TestInspectGlobals(t *testing.T) {
	rt, _ := newTestRuntime(t)
	_ = rt.SetGlobalByName("answer", FromInt(42))

	globals := NewInspector(rt).Globals()
	var found bool
	for _, g := range globals {
		if g.Name == "answer" {
			found = true
			if g.Value.Value != "42" {
				t.Errorf("answer = %+v", g.Value)
			}
		}
	}
	if !found {
		t.Errorf("answer missing from %+v", globals)
	}
}
