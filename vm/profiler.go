package vm

import "sort"

// Profiler counts message sends per handler and runs per block, to find the
// hot spots of a program. A runtime is single-threaded, so counters are
// plain integers.

// HandlerProfile holds the send count of one handler.
type HandlerProfile struct {
	Type    TypeID
	Message string
	Sends   uint64
}

// BlockProfile holds the run count of one block.
type BlockProfile struct {
	Block Pointer
	Runs  uint64
	IsHot bool // True if threshold exceeded
}

// Profiler records handler and block activity for one runtime.
type Profiler struct {
	sends  []uint64 // indexed like Runtime.handlers
	blocks map[Pointer]*BlockProfile

	// BlockHotThreshold is the run count at which a block becomes hot.
	BlockHotThreshold uint64 // Default: 500

	// OnHot is called once per block when it crosses the threshold.
	OnHot func(block Pointer, profile *BlockProfile)

	totalSends uint64
	hotBlocks  int
}

// NewProfiler creates a new profiler with default thresholds.
func NewProfiler() *Profiler {
	return &Profiler{
		blocks:            make(map[Pointer]*BlockProfile),
		BlockHotThreshold: 500,
	}
}

func (p *Profiler) recordSend(handler int) {
	for len(p.sends) <= handler {
		p.sends = append(p.sends, 0)
	}
	p.sends[handler]++
	p.totalSends++
}

// recordBlock returns true if this run made the block hot.
func (p *Profiler) recordBlock(block Pointer) bool {
	prof := p.blocks[block]
	if prof == nil {
		prof = &BlockProfile{Block: block}
		p.blocks[block] = prof
	}
	prof.Runs++
	if !prof.IsHot && prof.Runs >= p.BlockHotThreshold {
		prof.IsHot = true
		p.hotBlocks++
		if p.OnHot != nil {
			p.OnHot(block, prof)
		}
		return true
	}
	return false
}

// ProfilerStats summarizes a profile.
type ProfilerStats struct {
	TotalSends    uint64
	HandlersUsed  int
	BlocksRun     int
	HotBlockCount int
}

// Stats returns summary statistics.
func (p *Profiler) Stats() ProfilerStats {
	used := 0
	for _, n := range p.sends {
		if n > 0 {
			used++
		}
	}
	return ProfilerStats{
		TotalSends:    p.totalSends,
		HandlersUsed:  used,
		BlocksRun:     len(p.blocks),
		HotBlockCount: p.hotBlocks,
	}
}

// BlockProfile returns the profile of a block, or nil if it never ran.
func (p *Profiler) BlockProfile(block Pointer) *BlockProfile {
	return p.blocks[block]
}

// TopBlocks returns the n most-run blocks, most-run first.
func (p *Profiler) TopBlocks(n int) []BlockProfile {
	out := make([]BlockProfile, 0, len(p.blocks))
	for _, prof := range p.blocks {
		out = append(out, *prof)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Runs != out[j].Runs {
			return out[i].Runs > out[j].Runs
		}
		return out[i].Block < out[j].Block
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Reset clears all counters.
func (p *Profiler) Reset() {
	p.sends = nil
	p.blocks = make(map[Pointer]*BlockProfile)
	p.totalSends = 0
	p.hotBlocks = 0
}

// TopHandlers returns the n most-sent handlers of rt, most-sent first.
// A negative n returns all of them.
func (rt *Runtime) TopHandlers(n int) []HandlerProfile {
	p := rt.profiler
	if p == nil {
		return nil
	}
	var out []HandlerProfile
	for i, sends := range p.sends {
		if sends == 0 || i >= len(rt.handlers) {
			continue
		}
		h := rt.handlers[i]
		out = append(out, HandlerProfile{Type: h.typ, Message: h.message, Sends: sends})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sends != out[j].Sends {
			return out[i].Sends > out[j].Sends
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Message < out[j].Message
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
