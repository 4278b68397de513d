package vm

import (
	"errors"
	"fmt"
)

// Every error below aborts the current Run. Nothing is rolled back.
var (
	ErrOutOfMemory     = errors.New("heap capacity exceeded")
	ErrUndefinedGlobal = errors.New("undefined variable")
	ErrUnknownType     = errors.New("unknown type")
	ErrUnknownMessage  = errors.New("unknown message for type")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrArity           = errors.New("arity mismatch")

	ErrWrongType      = errors.New("wrong value type")
	ErrBadPointer     = errors.New("invalid heap pointer")
	ErrNilKey         = errors.New("nil cannot be used as a map key")
	ErrDivisionByZero = errors.New("division by zero")
	ErrTypeExists     = errors.New("type already defined")
	ErrBadInstruction = errors.New("malformed instruction")
)

// AllocError reports a heap allocation that would run past capacity.
type AllocError struct {
	Size     uint64
	Cursor   uint64
	Capacity uint64
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("%v: allocating %d bytes at cursor %d (capacity %d)",
		ErrOutOfMemory, e.Size, e.Cursor, e.Capacity)
}

func (e *AllocError) Unwrap() error { return ErrOutOfMemory }

// ExecError records the instruction that was executing when a run failed.
type ExecError struct {
	PC          int
	Instruction Instruction
	Err         error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("pc %d (%s): %v", e.PC, e.Instruction.Op, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ArityError builds the error a handler returns when called with an
// argument count it does not support.
func ArityError(message string, got int, want ...int) error {
	return fmt.Errorf("%w: %s takes %v arguments, got %d", ErrArity, message, want, got)
}
