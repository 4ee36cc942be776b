package lu

import (
	"runtime"

	"github.com/dbielich/slate/diag"
	"github.com/dbielich/slate/kernel"
)

// Options configures one Run call (spec.md §4.6, §4.7). Each field has a
// documented default; Option values override it. Resolve validates and
// fills defaults, matching matrix/types.go's NewMatrixOptions shape.
type Options struct {
	Lookahead       int
	InnerBlocking   int
	MaxPanelThreads int
	Target          kernel.Target
	DeviceCount     int
	Workers         int
	Logger          diag.Hook
}

// Option configures Options at Run's entry.
type Option func(*Options)

// WithLookahead sets the number of trailing panels solved and
// broadcast eagerly (default 1). Must be >= 0.
func WithLookahead(l int) Option { return func(o *Options) { o.Lookahead = l } }

// WithInnerBlocking sets the panel kernel's inner blocking size
// (default 16). Must be > 0.
func WithInnerBlocking(ib int) Option { return func(o *Options) { o.InnerBlocking = ib } }

// WithMaxPanelThreads bounds HostNest's inner fan-out (default 1).
func WithMaxPanelThreads(n int) Option { return func(o *Options) { o.MaxPanelThreads = n } }

// WithTarget selects the kernel execution target (default HostTask).
func WithTarget(t kernel.Target) Option { return func(o *Options) { o.Target = t } }

// WithDeviceCount sets the number of accelerators the Devices target
// round-robins across. Not named in spec.md §4.6's option list (that
// list predates a concrete device count); required in practice whenever
// Target is Devices: kernel.NewAdapter accepts a zero device count, but
// the first Devices kernel call then fails with kernel.ErrNoDevices.
func WithDeviceCount(n int) Option { return func(o *Options) { o.DeviceCount = n } }

// WithWorkers overrides the scheduler's worker count. Default is
// Lookahead + 2, the minimum spec.md §4.5 requires so blocking tasks
// cannot deadlock the pipeline. A caller-supplied value below that
// minimum is rejected by Resolve.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithLogger sets the diagnostic hook singular pivots are reported
// through (default diag.Discard()).
func WithLogger(h diag.Hook) Option { return func(o *Options) { o.Logger = h } }

func defaultOptions() Options {
	return Options{
		Lookahead:       1,
		InnerBlocking:   16,
		MaxPanelThreads: 1,
		Target:          kernel.HostTask,
		DeviceCount:     0,
		Workers:         0, // resolved to Lookahead+2 below
		Logger:          diag.Discard(),
	}
}

// Resolve applies opts over the defaults and validates the result.
// Invalid values fail with an InvalidArgument-wrapped error before any
// task is submitted (spec.md §4.7).
func Resolve(opts ...Option) (Options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.Lookahead < 0 {
		return Options{}, invalidArgument(ErrNegativeLookahead)
	}
	if o.InnerBlocking <= 0 {
		return Options{}, invalidArgument(ErrNonPositiveInnerBlocking)
	}
	if max := runtime.GOMAXPROCS(0); o.MaxPanelThreads > max {
		return Options{}, invalidArgument(ErrExcessiveMaxPanelThreads)
	}

	min := o.Lookahead + 2
	if o.Workers == 0 {
		o.Workers = min
	} else if o.Workers < min {
		return Options{}, invalidArgument(ErrTooFewWorkers)
	}

	return o, nil
}
