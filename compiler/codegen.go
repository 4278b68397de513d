package compiler

import (
	"fmt"

	"github.com/chazu/howl/vm"
)

// ---------------------------------------------------------------------------
// Codegen: Compile AST to bytecode
// ---------------------------------------------------------------------------

// Compiler compiles statements into a runtime's instruction set. String and
// block literals are allocated on the runtime heap at compile time.
type Compiler struct {
	rt *vm.Runtime

	strings int // string literals allocated
	blocks  int // blocks stored
	depth   int // block nesting
}

// NewCompiler creates a compiler targeting rt.
func NewCompiler(rt *vm.Runtime) *Compiler {
	return &Compiler{rt: rt}
}

// Compile compiles a top-level statement sequence with a fresh compiler.
func Compile(rt *vm.Runtime, stmts []Stmt) ([]vm.Instruction, error) {
	return NewCompiler(rt).CompileStatements(stmts)
}

// CompileStatements emits the instructions for stmts in order. Output is
// strictly linear: no jumps, no patching.
func (c *Compiler) CompileStatements(stmts []Stmt) ([]vm.Instruction, error) {
	var code []vm.Instruction
	for _, s := range stmts {
		var err error
		if code, err = c.compileStmt(code, s); err != nil {
			return nil, err
		}
	}
	return code, nil
}

// Stats reports how many heap literals the compiler has allocated.
func (c *Compiler) Stats() (strings, blocks int) {
	return c.strings, c.blocks
}

func (c *Compiler) compileStmt(code []vm.Instruction, s Stmt) ([]vm.Instruction, error) {
	switch s := s.(type) {
	case *Assignment:
		code, err := c.compileExec(code, s.Value)
		if err != nil {
			return nil, err
		}
		return append(code, vm.SetGlobal(s.Target.ID)), nil
	case *ExprStmt:
		return c.compileExec(code, s.Exec)
	case *TypeDef:
		// Types are defined while compiling; no code is emitted.
		if c.depth > 0 {
			return nil, fmt.Errorf("compiler: line %d: type %s must be defined at top level", s.SpanVal.Start.Line, s.Name.Name)
		}
		fields := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = f.Name
		}
		if _, err := c.rt.DefineRecord(s.Name.Name, fields); err != nil {
			return nil, fmt.Errorf("compiler: line %d: %w", s.SpanVal.Start.Line, err)
		}
		return code, nil
	default:
		return nil, fmt.Errorf("compiler: unknown statement %T", s)
	}
}

func (c *Compiler) compileExec(code []vm.Instruction, e Execution) ([]vm.Instruction, error) {
	switch e := e.(type) {
	case *Single:
		return c.compileExpr(code, e.Value)
	case *Call:
		code, err := c.compileExpr(code, e.Receiver)
		if err != nil {
			return nil, err
		}
		for _, a := range e.Args {
			if code, err = c.compileExpr(code, a); err != nil {
				return nil, err
			}
		}
		return append(code, vm.SendMessage(e.Message.ID, len(e.Args))), nil
	default:
		return nil, fmt.Errorf("compiler: unknown execution %T", e)
	}
}

func (c *Compiler) compileExpr(code []vm.Instruction, e Expr) ([]vm.Instruction, error) {
	switch e := e.(type) {
	case *Ident:
		return append(code, vm.PushGlobal(e.ID)), nil
	case *IntLiteral:
		return append(code, vm.PushLiteral(vm.FromInt(e.Value))), nil
	case *FloatLiteral:
		return append(code, vm.PushLiteral(vm.FromFloat(e.Value))), nil
	case *BoolLiteral:
		return append(code, vm.PushLiteral(vm.FromBool(e.Value))), nil
	case *NilLiteral:
		return append(code, vm.PushLiteral(vm.Nil)), nil

	case *StringLiteral:
		v, err := c.rt.NewString(e.Value)
		if err != nil {
			return nil, fmt.Errorf("compiler: line %d: string literal: %w", e.SpanVal.Start.Line, err)
		}
		c.strings++
		return append(code, vm.PushLiteral(v)), nil

	case *Block:
		c.depth++
		body, err := c.CompileStatements(e.Statements)
		c.depth--
		if err != nil {
			return nil, err
		}
		p, err := vm.StoreBlock(c.rt.Heap, body)
		if err != nil {
			return nil, fmt.Errorf("compiler: line %d: block: %w", e.SpanVal.Start.Line, err)
		}
		c.blocks++
		return append(code, vm.PushLiteral(vm.FromPointer(p))), nil

	case *Group:
		return c.compileExec(code, e.Inner)

	default:
		return nil, fmt.Errorf("compiler: unknown expression %T", e)
	}
}

// ---------------------------------------------------------------------------
// Convenience entry points
// ---------------------------------------------------------------------------

// CompileSource parses and compiles src against rt's identifier table.
func CompileSource(rt *vm.Runtime, src string) ([]vm.Instruction, error) {
	stmts, err := Parse(src, rt.Idents)
	if err != nil {
		return nil, err
	}
	return Compile(rt, stmts)
}

// Run parses, compiles and executes src on rt.
func Run(rt *vm.Runtime, src string) error {
	code, err := CompileSource(rt, src)
	if err != nil {
		return err
	}
	return rt.Run(code)
}
