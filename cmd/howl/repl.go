package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/howl/compiler"
	"github.com/chazu/howl/vm"
)

func runREPL(rt *vm.Runtime, disasm bool) {
	fmt.Println("howl REPL (type 'exit' to quit, ':help' for commands)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	lineBuffer := strings.Builder{}

	for {
		// Show prompt
		if lineBuffer.Len() == 0 {
			fmt.Print(">> ")
		} else {
			fmt.Print(".. ")
		}

		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineBuffer.Len() == 0 && (line == "exit" || line == "quit") {
			break
		}

		// REPL commands start with ':'
		if lineBuffer.Len() == 0 && strings.HasPrefix(line, ":") {
			handleREPLCommand(rt, line)
			continue
		}

		if lineBuffer.Len() > 0 {
			lineBuffer.WriteString("\n")
		}
		lineBuffer.WriteString(line)

		// Run once the input ends a statement outside any block, or on an
		// empty line.
		input := strings.TrimSpace(lineBuffer.String())
		if line == "" || (strings.HasSuffix(input, ";") && balanced(input)) {
			lineBuffer.Reset()
			if input != "" {
				evalAndPrint(rt, input, disasm)
			}
		}
	}
}

// balanced reports whether every '[' and '(' outside strings is closed.
func balanced(s string) bool {
	depth := 0
	inString := false
	for _, r := range s {
		switch {
		case r == '"':
			inString = !inString
		case inString:
		case r == '[' || r == '(':
			depth++
		case r == ']' || r == ')':
			depth--
		}
	}
	return depth <= 0 && !inString
}

func evalAndPrint(rt *vm.Runtime, input string, disasm bool) {
	code, err := compiler.CompileSource(rt, input)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if disasm {
		fmt.Print(vm.Disassemble(code, rt.Idents, rt.Heap))
	}
	depth := rt.StackDepth()
	if err := rt.Run(code); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	// Show what the input left on the stack.
	if rt.StackDepth() > depth {
		top, _ := rt.PeekAt(0)
		fmt.Printf("=> %s\n", vm.NewInspector(rt).Inspect(top).Value)
	}
}

func handleREPLCommand(rt *vm.Runtime, line string) {
	switch strings.TrimSpace(line) {
	case ":help":
		fmt.Println("  :globals   list global bindings")
		fmt.Println("  :stack     show the operand stack depth")
		fmt.Println("  :heap      show heap usage")
	case ":globals":
		for _, g := range vm.NewInspector(rt).Globals() {
			fmt.Printf("  %s = %s\n", g.Name, g.Value.Value)
		}
	case ":stack":
		fmt.Printf("  depth %d\n", rt.StackDepth())
	case ":heap":
		fmt.Printf("  %d/%d bytes, %d objects\n", rt.Heap.Used(), rt.Heap.Capacity(), rt.Heap.Objects())
	default:
		fmt.Printf("unknown command %s (try :help)\n", line)
	}
}
