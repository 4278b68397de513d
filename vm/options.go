package vm

import (
	"io"
	"os"

	"github.com/tliron/commonlog"
)

// DefaultMapCapacity is the initial slot count of the runtime's own tables.
const DefaultMapCapacity = 16

// Option configures a Runtime at construction.
type Option interface{ apply(rt *Runtime) }

var defaults = []Option{
	WithHeapCapacity(DefaultHeapCapacity),
	WithMapCapacity(DefaultMapCapacity),
	WithOutput(os.Stdout),
	WithLogger(commonlog.GetLogger("howl.vm")),
}

func (rt *Runtime) apply(opts ...Option) {
	for _, opt := range defaults {
		opt.apply(rt)
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(rt)
		}
	}
}

type heapCapacityOption int
type mapCapacityOption uint64
type outputOption struct{ io.Writer }
type loggerOption struct{ commonlog.Logger }
type traceOption bool
type profilerOption struct{ *Profiler }

// WithHeapCapacity sets the heap size in bytes.
func WithHeapCapacity(n int) Option { return heapCapacityOption(n) }

// WithMapCapacity sets the initial slot count of the global table, the type
// registry and every handler table.
func WithMapCapacity(n uint64) Option { return mapCapacityOption(n) }

// WithOutput sets where library handlers such as display write.
func WithOutput(w io.Writer) Option { return outputOption{w} }

// WithLogger replaces the runtime logger.
func WithLogger(l commonlog.Logger) Option { return loggerOption{l} }

// WithTrace logs every executed instruction at debug level.
func WithTrace(on bool) Option { return traceOption(on) }

// WithProfiler counts handler sends and block runs into p.
func WithProfiler(p *Profiler) Option { return profilerOption{p} }

func (n heapCapacityOption) apply(rt *Runtime) {
	if n > 0 {
		rt.heapCapacity = int(n)
	}
}

func (n mapCapacityOption) apply(rt *Runtime) {
	if n > 0 {
		rt.mapCapacity = uint64(n)
	}
}

func (o outputOption) apply(rt *Runtime) {
	if o.Writer != nil {
		rt.out = o.Writer
	}
}

func (o loggerOption) apply(rt *Runtime) {
	if o.Logger != nil {
		rt.log = o.Logger
	}
}

func (on traceOption) apply(rt *Runtime) {
	rt.trace = bool(on)
}

func (o profilerOption) apply(rt *Runtime) {
	rt.profiler = o.Profiler
}
