package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Interpreter: the dispatch loop
// ---------------------------------------------------------------------------

// Run executes a top-level instruction sequence to completion. Any error
// aborts the run; globals and the heap keep whatever state they reached.
func (rt *Runtime) Run(code []Instruction) (err error) {
	start := rt.steps
	defer func() {
		if r := recover(); r != nil {
			rt.depth = 0
			if e, ok := r.(error); ok {
				err = fmt.Errorf("vm: %w", e)
			} else {
				err = fmt.Errorf("vm: panic: %v", r)
			}
		}
		if err != nil {
			rt.log.Errorf("runtime %s: run failed after %d instructions: %v", rt.id, rt.steps-start, err)
			return
		}
		rt.log.Debugf("runtime %s: ran %d instructions, stack depth %d, heap %d/%d bytes",
			rt.id, rt.steps-start, len(rt.stack), rt.Heap.Used(), rt.Heap.Capacity())
	}()
	return rt.exec(code)
}

// RunBlock executes the block v references as an independent instruction
// sequence sharing this runtime's globals, registry and stack. A block can
// be run any number of times.
func (rt *Runtime) RunBlock(v Value) error {
	if !v.IsPointer() {
		return fmt.Errorf("%w: %s is not a block", ErrWrongType, v)
	}
	code, err := LoadBlock(rt.Heap, v.AsPointer())
	if err != nil {
		return err
	}
	if rt.profiler != nil && rt.profiler.recordBlock(v.AsPointer()) {
		rt.log.Infof("block at %#x is hot after %d runs", uint64(v.AsPointer()), rt.profiler.BlockHotThreshold)
	}
	rt.depth++
	defer func() { rt.depth-- }()
	return rt.exec(code)
}

func (rt *Runtime) exec(code []Instruction) error {
	for pc := 0; pc < len(code); pc++ {
		in := code[pc]
		if rt.trace {
			rt.log.Debugf("%*s%s  stack=%d", rt.depth*4, "", DisassembleInstruction(pc, in, rt.Idents), len(rt.stack))
		}
		rt.steps++
		if err := rt.step(in); err != nil {
			return &ExecError{PC: pc, Instruction: in, Err: err}
		}
	}
	return nil
}

func (rt *Runtime) step(in Instruction) error {
	switch in.Op {
	case OpPushLiteral:
		rt.Push(in.Literal())

	case OpPushGlobal:
		v, ok, err := rt.globals.Get(FromInt(int32(in.Ident())))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrUndefinedGlobal, rt.identName(in.Ident()))
		}
		rt.Push(v)

	case OpSetGlobal:
		v, err := rt.Pop()
		if err != nil {
			return err
		}
		return rt.globals.Insert(FromInt(int32(in.Ident())), v)

	case OpSendMessage:
		return rt.send(in.Ident(), int(in.ArgCount))

	default:
		return fmt.Errorf("%w: opcode %#02x", ErrBadInstruction, byte(in.Op))
	}
	return nil
}

// send dispatches message id on the type of the receiver found argc slots
// below the top of the stack.
func (rt *Runtime) send(id int, argc int) error {
	recv, err := rt.PeekAt(argc)
	if err != nil {
		return err
	}
	t, err := recv.TypeOf(rt.Heap)
	if err != nil {
		return err
	}
	idx, err := rt.lookup(t, id)
	if err != nil {
		return err
	}
	if rt.profiler != nil {
		rt.profiler.recordSend(idx)
	}
	result, ok, err := rt.handlers[idx].fn(rt, argc)
	if err != nil {
		var ee *ExecError
		if errors.As(err, &ee) {
			return err
		}
		return fmt.Errorf("%s %s: %w", rt.TypeName(t), rt.identName(id), err)
	}
	if ok {
		rt.Push(result)
	}
	return nil
}
