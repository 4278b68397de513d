package compiler

import (
	"bytes"
	"testing"

	"github.com/chazu/howl/vm"
)

func newTestRuntime(t *testing.T) (*vm.Runtime, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	rt, err := vm.NewRuntime(vm.WithOutput(&out), vm.WithHeapCapacity(1<<20))
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	return rt, &out
}

func TestCompileAssignmentSequence(t *testing.T) {
	rt, _ := newTestRuntime(t)
	code, err := CompileSource(rt, "x = 3; y = 4; z = x + y;")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	id := rt.Idents.Lookup
	want := []vm.Instruction{
		vm.PushLiteral(vm.FromInt(3)),
		vm.SetGlobal(id("x")),
		vm.PushLiteral(vm.FromInt(4)),
		vm.SetGlobal(id("y")),
		vm.PushGlobal(id("x")),
		vm.PushGlobal(id("y")),
		vm.SendMessage(id("+"), 1),
		vm.SetGlobal(id("z")),
	}
	if len(code) != len(want) {
		t.Fatalf("got %d instructions:\n%s", len(code), vm.Disassemble(code, rt.Idents, rt.Heap))
	}
	for i := range want {
		if code[i] != want[i] {
			t.Errorf("code[%d] = %v, want %v", i, code[i], want[i])
		}
	}
}

func TestCompileCallArgumentOrder(t *testing.T) {
	rt, _ := newTestRuntime(t)
	code, err := CompileSource(rt, "1 +allof 2 3;")
	if err != nil {
		t.Fatal(err)
	}
	want := []vm.Instruction{
		vm.PushLiteral(vm.FromInt(1)),
		vm.PushLiteral(vm.FromInt(2)),
		vm.PushLiteral(vm.FromInt(3)),
		vm.SendMessage(rt.Idents.Lookup("+allof"), 2),
	}
	for i := range want {
		if code[i] != want[i] {
			t.Errorf("code[%d] = %v, want %v", i, code[i], want[i])
		}
	}
}

func TestCompileStringLiteralAllocates(t *testing.T) {
	rt, _ := newTestRuntime(t)
	before := rt.Heap.Used()
	code, err := CompileSource(rt, `s = "hello";`)
	if err != nil {
		t.Fatal(err)
	}
	if rt.Heap.Used() <= before {
		t.Error("string literal did not allocate")
	}
	s, err := rt.StringContent(code[0].Literal())
	if err != nil || s != "hello" {
		t.Errorf("literal = %q, %v; want hello", s, err)
	}
}

func TestCompileBlockIsStoredOnHeap(t *testing.T) {
	rt, _ := newTestRuntime(t)
	c := NewCompiler(rt)
	stmts, err := Parse("b = [x = 1;];", rt.Idents)
	if err != nil {
		t.Fatal(err)
	}
	code, err := c.CompileStatements(stmts)
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 2 || code[0].Op != vm.OpPushLiteral || code[1].Op != vm.OpSetGlobal {
		t.Fatalf("unexpected code:\n%s", vm.Disassemble(code, rt.Idents, rt.Heap))
	}
	lit := code[0].Literal()
	if typ, _ := rt.TypeOf(lit); typ != vm.TypeBlock {
		t.Fatalf("literal type = %v, want Block", typ)
	}
	body, err := vm.LoadBlock(rt.Heap, lit.AsPointer())
	if err != nil {
		t.Fatal(err)
	}
	if len(body) != 2 || body[0] != vm.PushLiteral(vm.FromInt(1)) || body[1] != vm.SetGlobal(rt.Idents.Lookup("x")) {
		t.Errorf("block body:\n%s", vm.Disassemble(body, rt.Idents, rt.Heap))
	}
	if _, blocks := c.Stats(); blocks != 1 {
		t.Errorf("blocks = %d, want 1", blocks)
	}
}

func TestCompileGroupIsInline(t *testing.T) {
	rt, _ := newTestRuntime(t)
	code, err := CompileSource(rt, "((1 + 2) * 3) display;")
	if err != nil {
		t.Fatal(err)
	}
	ops := []vm.Opcode{vm.OpPushLiteral, vm.OpPushLiteral, vm.OpSendMessage, vm.OpPushLiteral, vm.OpSendMessage, vm.OpSendMessage}
	if len(code) != len(ops) {
		t.Fatalf("got %d instructions, want %d", len(code), len(ops))
	}
	for i, op := range ops {
		if code[i].Op != op {
			t.Errorf("code[%d].Op = %v, want %v", i, code[i].Op, op)
		}
	}
}

func TestCompileOutOfMemory(t *testing.T) {
	rt, err := vm.NewRuntime(vm.WithOutput(&bytes.Buffer{}), vm.WithHeapCapacity(1<<16))
	if err != nil {
		t.Fatal(err)
	}
	src := `s = "` + string(bytes.Repeat([]byte("x"), 1<<16)) + `";`
	if _, err := CompileSource(rt, src); err == nil {
		t.Fatal("oversized literal should fail to allocate")
	}
}
