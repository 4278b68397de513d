// Package vm implements the howl execution engine.
//
// This package contains:
//   - an arena Heap addressed by offsets, with a typed header per object
//   - NaN-boxed value representation
//   - HeapMap, an open-addressing hash table stored in the Heap
//   - the bytecode instruction set and heap-resident blocks
//   - the stack-machine interpreter with per-type message dispatch
//   - the built-in library handlers and user-declared record types
//   - a profiler and an inspector for debugging
package vm
