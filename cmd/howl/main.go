// howl CLI - runs howl programs and compiles them to the .howlc wire format
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/howl/compiler"
	"github.com/chazu/howl/manifest"
	"github.com/chazu/howl/vm"
)

var log = commonlog.GetLogger("howl.cli")

// source is one program to run, either a file or inline text.
type source struct {
	name string
	text string // set for inline sources
}

func main() {
	inline := flag.String("e", "", "Run inline source")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	emit := flag.String("emit", "", "Parse only and write the program to this .howlc file")
	format := flag.Bool("fmt", false, "Print the parsed program as source, one statement per line")
	disasm := flag.Bool("disasm", false, "Print the compiled bytecode listing")
	dump := flag.Bool("dump", false, "Print global bindings as YAML after running")
	trace := flag.Bool("trace", false, "Log every executed instruction")
	heap := flag.Int("heap", 0, "Heap capacity in bytes (default from howl.toml or 32000000)")
	profile := flag.Bool("profile", false, "Print the hottest handlers and blocks after running")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howl [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs .howl source files and .howlc compiled programs in order.\n")
		fmt.Fprintf(os.Stderr, "With no files, runs the entry of the nearest howl.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  howl main.howl                 # Run a program\n")
		fmt.Fprintf(os.Stderr, "  howl -e 'x = 3 + 4; x display;' # Run inline source\n")
		fmt.Fprintf(os.Stderr, "  howl -emit main.howlc main.howl # Compile to the wire format\n")
		fmt.Fprintf(os.Stderr, "  howl -dump main.howlc           # Run and dump globals\n")
		fmt.Fprintf(os.Stderr, "  howl -fmt main.howlc            # Print a compiled program as source\n")
		fmt.Fprintf(os.Stderr, "  howl -i                        # Start REPL\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	if *trace {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	var sources []source
	for _, path := range flag.Args() {
		sources = append(sources, source{name: path})
	}
	if *inline != "" {
		sources = append(sources, source{name: "<inline>", text: *inline})
	}

	var opts []vm.Option
	if len(sources) == 0 && !*interactive {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			fatal(err)
		}
		if m == nil {
			flag.Usage()
			os.Exit(2)
		}
		log.Infof("using %s from %s", manifest.FileName, m.Dir)
		opts = append(opts, m.RuntimeOptions()...)
		sources = append(sources, source{name: m.EntryPath()})
	}
	if *heap > 0 {
		opts = append(opts, vm.WithHeapCapacity(*heap))
	}
	if *trace {
		opts = append(opts, vm.WithTrace(true))
	}
	if *profile {
		opts = append(opts, vm.WithProfiler(vm.NewProfiler()))
	}

	if *format {
		if err := formatProgram(os.Stdout, sources); err != nil {
			fatal(err)
		}
		return
	}
	if *emit != "" {
		if err := emitProgram(sources, *emit); err != nil {
			fatal(err)
		}
		return
	}

	rt, err := vm.NewRuntime(opts...)
	if err != nil {
		fatal(err)
	}

	for _, src := range sources {
		if err := runSource(rt, src, *disasm); err != nil {
			fatal(err)
		}
	}

	if *interactive {
		runREPL(rt, *disasm)
	}

	if *dump {
		if err := dumpGlobals(os.Stdout, rt); err != nil {
			fatal(err)
		}
	}
	if *profile {
		printProfile(os.Stderr, rt)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// load parses a source or decodes a .howlc program, interning identifiers
// into idents.
func load(src source, idents *vm.IdentTable) ([]compiler.Stmt, error) {
	if src.text != "" {
		return compiler.Parse(src.text, idents)
	}
	data, err := os.ReadFile(src.name)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(src.name) == ".howlc" {
		stmts, err := compiler.Decode(data, idents)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.name, err)
		}
		return stmts, nil
	}
	stmts, err := compiler.Parse(string(data), idents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.name, err)
	}
	return stmts, nil
}

func runSource(rt *vm.Runtime, src source, disasm bool) error {
	stmts, err := load(src, rt.Idents)
	if err != nil {
		return err
	}
	code, err := compiler.Compile(rt, stmts)
	if err != nil {
		return fmt.Errorf("%s: %w", src.name, err)
	}
	if disasm {
		fmt.Printf("; %s\n%s", src.name, vm.Disassemble(code, rt.Idents, rt.Heap))
	}
	log.Debugf("running %s: %d instructions", src.name, len(code))
	if err := rt.Run(code); err != nil {
		return fmt.Errorf("%s: %w", src.name, err)
	}
	return nil
}

// emitProgram concatenates every source into one program and writes its
// wire encoding to out.
func emitProgram(sources []source, out string) error {
	idents := vm.NewIdentTable()
	var all []compiler.Stmt
	for _, src := range sources {
		stmts, err := load(src, idents)
		if err != nil {
			return err
		}
		all = append(all, stmts...)
	}
	data, err := compiler.Encode(all)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}
	sum, err := compiler.Hash(all)
	if err != nil {
		return err
	}
	log.Infof("wrote %s: %d statements, %d bytes, sha256 %x", out, len(all), len(data), sum)
	return nil
}

// formatProgram prints every source back as text, one statement per line.
func formatProgram(w io.Writer, sources []source) error {
	idents := vm.NewIdentTable()
	for _, src := range sources {
		stmts, err := load(src, idents)
		if err != nil {
			return err
		}
		for _, s := range stmts {
			fmt.Fprintln(w, compiler.Format([]compiler.Stmt{s}))
		}
	}
	return nil
}
