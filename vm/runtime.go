package vm

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Runtime: heap, tables and operand stack
// ---------------------------------------------------------------------------

// Handler implements one message for one type. It is called with the
// receiver arg count slots below the top of the stack and must pop the
// receiver and all its arguments. It returns at most one result; ok reports
// whether there is one.
type Handler func(rt *Runtime, argc int) (result Value, ok bool, err error)

type handlerEntry struct {
	message string
	typ     TypeID
	fn      Handler
}

// Runtime exclusively owns a heap, the global table, the type registry and
// the operand stack. It is not safe for concurrent use.
type Runtime struct {
	Heap   *Heap
	Idents *IdentTable

	globals  *HeapMap // identifier id -> Value
	types    *HeapMap // TypeID -> pointer to handler table
	stack    []Value
	handlers []handlerEntry

	records     map[TypeID]*recordType
	recordNames map[string]TypeID
	nextType    TypeID

	id       uuid.UUID
	log      commonlog.Logger
	out      io.Writer
	trace    bool
	profiler *Profiler

	heapCapacity int
	mapCapacity  uint64

	depth int    // block nesting of the current run
	steps uint64 // instructions executed since boot
}

// NewRuntime creates a runtime and registers the built-in types.
func NewRuntime(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		Idents: NewIdentTable(),
		stack:  make([]Value, 0, 256),
		id:     uuid.New(),

		records:     make(map[TypeID]*recordType),
		recordNames: make(map[string]TypeID),
		nextType:    FirstUserType,
	}
	rt.apply(opts...)
	rt.Heap = NewHeap(rt.heapCapacity)

	var err error
	if rt.globals, err = NewHeapMap(rt.Heap, rt.mapCapacity); err != nil {
		return nil, fmt.Errorf("vm: allocating global table: %w", err)
	}
	if rt.types, err = NewHeapMap(rt.Heap, rt.mapCapacity); err != nil {
		return nil, fmt.Errorf("vm: allocating type registry: %w", err)
	}
	if err := registerStdTypes(rt); err != nil {
		return nil, fmt.Errorf("vm: registering built-in types: %w", err)
	}

	rt.log.Infof("runtime %s ready: %d handlers, heap %d/%d bytes",
		rt.id, len(rt.handlers), rt.Heap.Used(), rt.Heap.Capacity())
	return rt, nil
}

// ID returns the runtime's instance id, used to tell runtimes apart in logs.
func (rt *Runtime) ID() uuid.UUID { return rt.id }

// Out returns the writer library handlers print to.
func (rt *Runtime) Out() io.Writer { return rt.out }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() commonlog.Logger { return rt.log }

// Steps returns the number of instructions executed since boot.
func (rt *Runtime) Steps() uint64 { return rt.steps }

// Profiler returns the attached profiler, or nil.
func (rt *Runtime) Profiler() *Profiler { return rt.profiler }

// ---------------------------------------------------------------------------
// Type registry
// ---------------------------------------------------------------------------

// DefineType installs an empty handler table for t. It must be called before
// any message is sent to a value of type t.
func (rt *Runtime) DefineType(t TypeID) error {
	_, ok, err := rt.types.Get(t.key())
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrTypeExists, t)
	}
	table, err := NewHeapMap(rt.Heap, rt.mapCapacity)
	if err != nil {
		return err
	}
	if err := rt.types.Insert(t.key(), table.Value()); err != nil {
		return err
	}
	rt.log.Debugf("defined type %s", t)
	return nil
}

// HasType reports whether t has a handler table.
func (rt *Runtime) HasType(t TypeID) bool {
	_, ok, err := rt.types.Get(t.key())
	return err == nil && ok
}

// RegisterHandler interns message and installs fn as its handler for t.
// Registering the same message twice replaces the earlier handler.
func (rt *Runtime) RegisterHandler(message string, fn Handler, t TypeID) error {
	table, err := rt.handlerTable(t)
	if err != nil {
		return err
	}
	id := rt.Idents.Intern(message)

	cell, err := rt.Heap.Allocate(WordSize, DefaultAlign, TypeHandler)
	if err != nil {
		return err
	}
	if err := rt.Heap.WriteWord(cell, 0, uint64(len(rt.handlers))); err != nil {
		return err
	}
	rt.handlers = append(rt.handlers, handlerEntry{message: message, typ: t, fn: fn})
	return table.Insert(FromInt(int32(id)), FromPointer(cell))
}

func (rt *Runtime) handlerTable(t TypeID) (*HeapMap, error) {
	v, ok, err := rt.types.Get(t.key())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return OpenHeapMap(rt.Heap, v.AsPointer())
}

// TypeName returns the declared name of a record type, or t's built-in name.
func (rt *Runtime) TypeName(t TypeID) string {
	if r, ok := rt.records[t]; ok {
		return r.name
	}
	return t.String()
}

// lookup resolves message id for type t to an index into rt.handlers.
func (rt *Runtime) lookup(t TypeID, id int) (int, error) {
	table, err := rt.handlerTable(t)
	if err != nil {
		return 0, err
	}
	v, ok, err := table.Get(FromInt(int32(id)))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s does not understand %q", ErrUnknownMessage, rt.TypeName(t), rt.identName(id))
	}
	if !v.IsPointer() {
		return 0, fmt.Errorf("%w: handler slot for %q holds %s", ErrWrongType, rt.identName(id), v)
	}
	if _, err := rt.Heap.Expect(v.AsPointer(), TypeHandler); err != nil {
		return 0, err
	}
	idx, err := rt.Heap.ReadWord(v.AsPointer(), 0)
	if err != nil {
		return 0, err
	}
	if idx >= uint64(len(rt.handlers)) {
		return 0, fmt.Errorf("%w: handler index %d out of range", ErrBadPointer, idx)
	}
	return int(idx), nil
}

// Understands reports whether values of type t handle message.
func (rt *Runtime) Understands(t TypeID, message string) bool {
	id := rt.Idents.Lookup(message)
	if id < 0 {
		return false
	}
	_, err := rt.lookup(t, id)
	return err == nil
}

// ---------------------------------------------------------------------------
// Operand stack
// ---------------------------------------------------------------------------

// Push pushes v onto the operand stack.
func (rt *Runtime) Push(v Value) {
	rt.stack = append(rt.stack, v)
}

// Pop removes and returns the top of the stack.
func (rt *Runtime) Pop() (Value, error) {
	n := len(rt.stack)
	if n == 0 {
		return Nil, fmt.Errorf("%w: pop on empty stack", ErrStackUnderflow)
	}
	v := rt.stack[n-1]
	rt.stack = rt.stack[:n-1]
	return v, nil
}

// PopN removes the top n values and returns them in push order.
func (rt *Runtime) PopN(n int) ([]Value, error) {
	if n < 0 || n > len(rt.stack) {
		return nil, fmt.Errorf("%w: pop %d with depth %d", ErrStackUnderflow, n, len(rt.stack))
	}
	start := len(rt.stack) - n
	vals := make([]Value, n)
	copy(vals, rt.stack[start:])
	rt.stack = rt.stack[:start]
	return vals, nil
}

// PeekAt returns the value n slots below the top without removing it;
// PeekAt(0) is the top.
func (rt *Runtime) PeekAt(n int) (Value, error) {
	if n < 0 || n >= len(rt.stack) {
		return Nil, fmt.Errorf("%w: peek at %d with depth %d", ErrStackUnderflow, n, len(rt.stack))
	}
	return rt.stack[len(rt.stack)-1-n], nil
}

// StackDepth returns the number of values on the operand stack.
func (rt *Runtime) StackDepth() int {
	return len(rt.stack)
}

// ---------------------------------------------------------------------------
// Globals
// ---------------------------------------------------------------------------

// Binding is one named global.
type Binding struct {
	Name  string
	Value Value
}

// Global returns the value bound to identifier id.
func (rt *Runtime) Global(id int) (Value, bool) {
	v, ok, err := rt.globals.Get(FromInt(int32(id)))
	if err != nil {
		return Nil, false
	}
	return v, ok
}

// GlobalByName returns the value bound to name.
func (rt *Runtime) GlobalByName(name string) (Value, bool) {
	id := rt.Idents.Lookup(name)
	if id < 0 {
		return Nil, false
	}
	return rt.Global(id)
}

// SetGlobalByName binds name to v.
func (rt *Runtime) SetGlobalByName(name string, v Value) error {
	return rt.globals.Insert(FromInt(int32(rt.Idents.Intern(name))), v)
}

// Globals returns every binding, sorted by name.
func (rt *Runtime) Globals() []Binding {
	var out []Binding
	_ = rt.globals.Each(func(k, v Value) error {
		out = append(out, Binding{Name: rt.identName(int(k.AsInt())), Value: v})
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (rt *Runtime) identName(id int) string {
	if s := rt.Idents.Name(id); s != "" {
		return s
	}
	return fmt.Sprintf("#%d", id)
}

// ---------------------------------------------------------------------------
// Heap helpers for handlers
// ---------------------------------------------------------------------------

// NewString allocates a string object on the runtime heap.
func (rt *Runtime) NewString(s string) (Value, error) {
	return NewString(rt.Heap, s)
}

// StringContent returns the text of a string value.
func (rt *Runtime) StringContent(v Value) (string, error) {
	return StringContent(rt.Heap, v)
}

// TypeOf returns the runtime type of v.
func (rt *Runtime) TypeOf(v Value) (TypeID, error) {
	return v.TypeOf(rt.Heap)
}
