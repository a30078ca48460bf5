package dispatch

import "time"

// Outcome classifies one handler run.
type Outcome uint8

const (
	// Succeeded means the handler returned nil.
	Succeeded Outcome = iota
	// Failed means the handler returned an error.
	Failed
	// Panicked means the handler panicked and the panic was recovered.
	Panicked
)

// String returns the outcome name used in logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "success"
	case Failed:
		return "error"
	case Panicked:
		return "panic"
	default:
		return "unknown"
	}
}

// Panic is a recovered handler panic.
type Panic struct {
	Value any
	Stack []byte
}

// Result is what a Runner reports about one handler run.
type Result struct {
	Outcome  Outcome
	Err      error  // set when Outcome is Failed
	Panic    *Panic // set when Outcome is Panicked
	Duration time.Duration
}

// OK reports whether the handler succeeded.
func (r Result) OK() bool {
	return r.Outcome == Succeeded
}
