package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "embalse"

// Outcome labels for pipeline runs.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder collects pipeline metrics using Prometheus.
type Recorder struct {
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	uploadBytes prometheus.Histogram
	buckets     *prometheus.HistogramVec
	rateLimited prometheus.Counter
}

// New registers the pipeline metrics on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Total number of pipeline runs by outcome and error kind",
			},
			[]string{"outcome", "kind"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Duration of pipeline runs in seconds",
				Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		uploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_bytes",
				Help:      "Size of uploaded workbooks in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		buckets: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resampled_buckets",
				Help:      "Number of buckets produced per resampling run",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"frequency"},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_rate_limited_total",
				Help:      "Total number of uploads rejected by the rate limiter",
			},
		),
	}
}

// ObserveRun records one pipeline run. kind is empty on success.
func (r *Recorder) ObserveRun(kind string, d time.Duration) {
	outcome := OutcomeSuccess
	if kind != "" {
		outcome = OutcomeFailure
	}
	r.runsTotal.WithLabelValues(outcome, kind).Inc()
	r.runDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveUpload records the size of an uploaded file.
func (r *Recorder) ObserveUpload(size int) {
	r.uploadBytes.Observe(float64(size))
}

// ObserveBuckets records how many buckets a run produced at the given frequency.
func (r *Recorder) ObserveBuckets(frequency string, n int) {
	r.buckets.WithLabelValues(frequency).Observe(float64(n))
}

// RateLimited counts an upload rejected by the limiter.
func (r *Recorder) RateLimited() {
	r.rateLimited.Inc()
}
