package vm

import "fmt"

// ---------------------------------------------------------------------------
// Library registration
// ---------------------------------------------------------------------------

// primitive is one handler waiting to be registered.
type primitive struct {
	message string
	fn      Handler
}

func registerStdTypes(rt *Runtime) error {
	for _, reg := range []func(*Runtime) error{
		registerIntegerPrimitives,
		registerFloatPrimitives,
		registerBooleanPrimitives,
		registerNilPrimitives,
		registerStringPrimitives,
		registerBlockPrimitives,
		registerMapPrimitives,
	} {
		if err := reg(rt); err != nil {
			return err
		}
	}
	return nil
}

// definePrimitives defines t and registers every handler in prims.
func (rt *Runtime) definePrimitives(t TypeID, prims []primitive) error {
	if err := rt.DefineType(t); err != nil {
		return err
	}
	for _, p := range prims {
		if err := rt.RegisterHandler(p.message, p.fn, t); err != nil {
			return fmt.Errorf("%s %s: %w", t, p.message, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Arity-specialized wrappers
// ---------------------------------------------------------------------------

// Method0Func implements a message taking no arguments.
type Method0Func func(rt *Runtime, recv Value) (Value, bool, error)

// Method1Func implements a message taking one argument.
type Method1Func func(rt *Runtime, recv, arg Value) (Value, bool, error)

// Method2Func implements a message taking two arguments.
type Method2Func func(rt *Runtime, recv, arg1, arg2 Value) (Value, bool, error)

// MethodNFunc implements a message taking any number of arguments.
type MethodNFunc func(rt *Runtime, recv Value, args []Value) (Value, bool, error)

// Method0 adapts fn to a Handler that rejects any arguments.
func Method0(message string, fn Method0Func) Handler {
	return func(rt *Runtime, argc int) (Value, bool, error) {
		if argc != 0 {
			return Nil, false, ArityError(message, argc, 0)
		}
		recv, err := rt.Pop()
		if err != nil {
			return Nil, false, err
		}
		return fn(rt, recv)
	}
}

// Method1 adapts fn to a Handler that takes exactly one argument.
func Method1(message string, fn Method1Func) Handler {
	return func(rt *Runtime, argc int) (Value, bool, error) {
		if argc != 1 {
			return Nil, false, ArityError(message, argc, 1)
		}
		recv, args, err := popSend(rt, 1)
		if err != nil {
			return Nil, false, err
		}
		return fn(rt, recv, args[0])
	}
}

// Method2 adapts fn to a Handler that takes exactly two arguments.
func Method2(message string, fn Method2Func) Handler {
	return func(rt *Runtime, argc int) (Value, bool, error) {
		if argc != 2 {
			return Nil, false, ArityError(message, argc, 2)
		}
		recv, args, err := popSend(rt, 2)
		if err != nil {
			return Nil, false, err
		}
		return fn(rt, recv, args[0], args[1])
	}
}

// MethodN adapts fn to a variadic Handler.
func MethodN(fn MethodNFunc) Handler {
	return func(rt *Runtime, argc int) (Value, bool, error) {
		recv, args, err := popSend(rt, argc)
		if err != nil {
			return Nil, false, err
		}
		return fn(rt, recv, args)
	}
}

// popSend pops argc arguments and then the receiver. Arguments come back in
// source order.
func popSend(rt *Runtime, argc int) (Value, []Value, error) {
	args, err := rt.PopN(argc)
	if err != nil {
		return Nil, nil, err
	}
	recv, err := rt.Pop()
	if err != nil {
		return Nil, nil, err
	}
	return recv, args, nil
}

func result(v Value) (Value, bool, error) { return v, true, nil }

func noResult() (Value, bool, error) { return Nil, false, nil }

func fail(err error) (Value, bool, error) { return Nil, false, err }
