// Package metrics records prediction traffic for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission results.
const (
	ResultResults    = "results"
	ResultValidation = "validation"
	ResultRequest    = "request"
	ResultNetwork    = "network"
	ResultMalformed  = "malformed"
	ResultBusy       = "busy"
	ResultUnknown    = "unknown"
)

// Recorder owns the bot's collectors and the registry they live in.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	submissions *prometheus.CounterVec
	latency     prometheus.Histogram
	outcomes    *prometheus.CounterVec
	inflight    prometheus.Gauge
}

type Option func(*Recorder)

func WithNamespace(ns string) Option {
	return func(r *Recorder) {
		if ns != "" {
			r.namespace = ns
		}
	}
}

func WithHistogramBuckets(b []float64) Option {
	return func(r *Recorder) {
		if len(b) > 0 {
			r.buckets = b
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(r *Recorder) {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New builds a Recorder on its own registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "predict_bot",
		buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	r.submissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "submissions_total",
		Help:      "Prediction submissions by result",
	}, []string{"result"})
	r.latency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "prediction_latency_seconds",
		Help:      "Time from submit to rendered result or error",
		Buckets:   r.buckets,
	})
	r.outcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "outcomes_total",
		Help:      "Rendered predictions by outcome label",
	}, []string{"outcome"})
	r.inflight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "inflight_predictions",
		Help:      "Predictions currently awaiting the backend",
	})
	return r
}

// Registry is served by the ops server.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) Submission(result string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(result).Inc()
}

func (r *Recorder) Latency(d time.Duration) {
	if r == nil {
		return
	}
	r.latency.Observe(d.Seconds())
}

func (r *Recorder) Outcome(label string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(label).Inc()
}

// Track marks one prediction in flight until the returned func is called.
func (r *Recorder) Track() func() {
	if r == nil {
		return func() {}
	}
	r.inflight.Inc()
	return r.inflight.Dec
}
