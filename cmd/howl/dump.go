package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/chazu/howl/vm"
)

type heapStats struct {
	Used     uint64 `yaml:"used"`
	Capacity uint64 `yaml:"capacity"`
	Objects  int    `yaml:"objects"`
}

type runtimeDump struct {
	Runtime string          `yaml:"runtime"`
	Steps   uint64          `yaml:"steps"`
	Heap    heapStats       `yaml:"heap"`
	Globals []vm.GlobalInfo `yaml:"globals"`
}

// dumpGlobals writes the runtime's global bindings as YAML.
func dumpGlobals(w io.Writer, rt *vm.Runtime) error {
	d := runtimeDump{
		Runtime: rt.ID().String(),
		Steps:   rt.Steps(),
		Heap: heapStats{
			Used:     rt.Heap.Used(),
			Capacity: rt.Heap.Capacity(),
			Objects:  rt.Heap.Objects(),
		},
		Globals: vm.NewInspector(rt).Globals(),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&d); err != nil {
		return err
	}
	return enc.Close()
}

// printProfile writes the ten hottest handlers and blocks.
func printProfile(w io.Writer, rt *vm.Runtime) {
	prof := rt.Profiler()
	if prof == nil {
		return
	}
	stats := prof.Stats()
	fmt.Fprintf(w, "%d sends to %d handlers, %d blocks run (%d hot)\n",
		stats.TotalSends, stats.HandlersUsed, stats.BlocksRun, stats.HotBlockCount)
	for _, h := range rt.TopHandlers(10) {
		fmt.Fprintf(w, "  %8d  %s %s\n", h.Sends, rt.TypeName(h.Type), h.Message)
	}
	for _, b := range prof.TopBlocks(10) {
		fmt.Fprintf(w, "  %8d  block %#x\n", b.Runs, uint64(b.Block))
	}
}
