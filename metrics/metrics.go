// Package metrics records operational metrics of a sort run without tying
// the sorting packages to a particular metrics system.
//
// A global backend receives counters and histogram observations. It
// defaults to a no-op implementation, so the recording functions are always
// safe to call; subpackages such as prompush provide real backends.
package metrics

import (
	"sync/atomic"
	"time"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Metric names used by the recording functions.
const (
	PhaseTotal   = "dsort_phase_total"
	PhaseSeconds = "dsort_phase_duration_seconds"
	ValuesTotal  = "dsort_values_total"
)

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes the recorded metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

// Nop is the default backend, which discards everything.
var Nop Backend = nopBackend{}

type holder struct{ Backend }

var current atomic.Value

func init() {
	current.Store(holder{Nop})
}

func backend() Backend {
	return current.Load().(holder).Backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	current.Store(holder{b})
}

// Flush delegates to the current backend.
func Flush() error {
	return backend().Flush()
}

// RecordPhase counts one execution of a phase of the sort and observes its
// duration, labeled with whether it failed.
func RecordPhase(phase string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"phase": phase, "status": status}
	b := backend()
	b.IncCounter(PhaseTotal, 1, lbls)
	b.ObserveHistogram(PhaseSeconds, d.Seconds(), lbls)
}

// RecordValues counts values moved between workers; direction is "sent" or
// "received".
func RecordValues(direction string, n int) {
	if n <= 0 {
		return
	}
	backend().IncCounter(ValuesTotal, float64(n), Labels{"direction": direction})
}
