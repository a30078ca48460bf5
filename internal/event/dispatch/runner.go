package dispatch

import (
	"runtime/debug"
	"sync/atomic"
	"time"
)

// PanicFunc observes a recovered panic. subject is the value the handler
// was run for.
type PanicFunc func(subject any, p *Panic)

// Option configures a Runner.
type Option func(*Runner)

// Recover makes the Runner turn handler panics into a Panicked result.
func Recover(enabled bool) Option {
	return func(r *Runner) {
		r.recover = enabled
	}
}

// OnPanic sets the function told about recovered panics.
func OnPanic(fn PanicFunc) Option {
	return func(r *Runner) {
		r.onPanic = fn
	}
}

// Runner runs handlers in the calling goroutine, timing each run and
// counting outcomes.
type Runner struct {
	recover bool
	onPanic PanicFunc

	runs     atomic.Uint64
	outcomes [3]atomic.Uint64
	totalNs  atomic.Int64
}

// NewRunner creates a Runner. Panics propagate unless Recover(true) is set.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recovers reports whether handler panics are recovered.
func (r *Runner) Recovers() bool {
	return r.recover
}

// Run calls fn and reports how it went. Without recovery a panic in fn
// unwinds through Run and is counted as a run but not as an outcome.
func (r *Runner) Run(subject any, fn func() error) (res Result) {
	r.runs.Add(1)
	start := time.Now()
	done := false

	defer func() {
		res.Duration = time.Since(start)
		r.totalNs.Add(int64(res.Duration))
		if done {
			r.outcomes[res.Outcome].Add(1)
		}
	}()

	if r.recover {
		defer r.recoverInto(subject, &res, &done)
	}

	err := fn()
	done = true
	if err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	return Result{Outcome: Succeeded}
}

func (r *Runner) recoverInto(subject any, res *Result, done *bool) {
	v := recover()
	if v == nil {
		return
	}

	p := &Panic{Value: v, Stack: debug.Stack()}
	*res = Result{Outcome: Panicked, Panic: p}
	*done = true

	if r.onPanic != nil {
		// A failing observer must not undo the recovery.
		defer func() { _ = recover() }()
		r.onPanic(subject, p)
	}
}

// Stats is a snapshot of a Runner's counters.
type Stats struct {
	Runs      uint64
	Succeeded uint64
	Failed    uint64
	Panicked  uint64

	// Total is the cumulative time spent in handlers.
	Total time.Duration
}

// Average returns the mean handler run time.
func (s Stats) Average() time.Duration {
	if s.Runs == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Runs)
}

// Stats returns the current counters. Counters are read individually, so a
// snapshot taken during a run may be off by one.
func (r *Runner) Stats() Stats {
	return Stats{
		Runs:      r.runs.Load(),
		Succeeded: r.outcomes[Succeeded].Load(),
		Failed:    r.outcomes[Failed].Load(),
		Panicked:  r.outcomes[Panicked].Load(),
		Total:     time.Duration(r.totalNs.Load()),
	}
}

// Reset zeroes the counters.
func (r *Runner) Reset() {
	r.runs.Store(0)
	for i := range r.outcomes {
		r.outcomes[i].Store(0)
	}
	r.totalNs.Store(0)
}
