// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Phase executions and moved values become CounterVec collectors, phase
// durations a HistogramVec. Every worker pushes to the same job, grouped
// by its rank, so the workers of one run do not overwrite each other.
package prompush

import (
	"strconv"

	"github.com/exascience/dsort/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	rank       int
	reg        *prometheus.Registry

	phaseCounter  *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	valueCounter  *prometheus.CounterVec
}

// NewBackend constructs a Pushgateway backend for the worker of the given
// rank. An empty jobName defaults to "dsort".
func NewBackend(jobName, gatewayURL string, rank int) (*Backend, error) {
	if gatewayURL == "" {
		return nil, errors.New("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "dsort"
	}

	reg := prometheus.NewRegistry()
	phaseCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.PhaseTotal,
			Help: "Executions of the phases of a sort, partitioned by phase and status.",
		},
		[]string{"phase", "status"},
	)
	phaseDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metrics.PhaseSeconds,
			Help:    "Duration of the phases of a sort in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"phase", "status"},
	)
	valueCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.ValuesTotal,
			Help: "Values sent to or received from other workers during the merge reduction.",
		},
		[]string{"direction"},
	)
	for _, c := range []prometheus.Collector{phaseCounter, phaseDuration, valueCounter} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "prompush: register collector")
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		rank:          rank,
		reg:           reg,
		phaseCounter:  phaseCounter,
		phaseDuration: phaseDuration,
		valueCounter:  valueCounter,
	}, nil
}

// IncCounter implements the method of the metrics.Backend interface.
// Unknown metric names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.PhaseTotal:
		if b.phaseCounter != nil {
			b.phaseCounter.WithLabelValues(labels["phase"], labels["status"]).Add(delta)
		}
	case metrics.ValuesTotal:
		if b.valueCounter != nil {
			b.valueCounter.WithLabelValues(labels["direction"]).Add(delta)
		}
	}
}

// ObserveHistogram implements the method of the metrics.Backend interface.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.PhaseSeconds || b.phaseDuration == nil {
		return
	}
	b.phaseDuration.WithLabelValues(labels["phase"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	err := push.New(b.gatewayURL, b.jobName).
		Grouping("rank", strconv.Itoa(b.rank)).
		Gatherer(b.reg).
		Push()
	return errors.Wrap(err, "prompush: push")
}
