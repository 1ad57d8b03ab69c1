// Package metrics records run outcomes as Prometheus metrics. cdk-addons
// exits after every run, so the registry is written to a node exporter
// textfile instead of being scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/cdk-addons/internal/reconcile"
	"github.com/imamik/cdk-addons/internal/runerr"
)

const namespace = "cdk_addons"

// Recorder holds the metrics of one process.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	runDuration   prometheus.Histogram
	objects       *prometheus.GaugeVec
	deletesTotal  *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of runs by result",
			},
			[]string{"result"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Total number of failed runs by error kind",
			},
			[]string{"kind"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a run in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4min
			},
		),
		objects: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "objects",
				Help:      "Number of managed objects by set",
			},
			[]string{"set"},
		),
		deletesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "prune",
				Name:      "deletes_total",
				Help:      "Total number of surplus object deletes by result",
			},
			[]string{"result"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),
	}

	r.registry.MustRegister(
		r.runsTotal,
		r.failuresTotal,
		r.runDuration,
		r.objects,
		r.deletesTotal,
		r.lastSuccess,
	)
	return r
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records the outcome of one run.
func (r *Recorder) Observe(res *reconcile.Result, err error) {
	if res != nil {
		r.runDuration.Observe(res.Duration.Seconds())
		if res.Desired != nil {
			r.objects.WithLabelValues("desired").Set(float64(res.Desired.Len()))
		}
		if res.Actual != nil {
			r.objects.WithLabelValues("actual").Set(float64(res.Actual.Len()))
			r.objects.WithLabelValues("surplus").Set(float64(len(res.Surplus)))
		}
		if !res.DryRun {
			failed := len(res.Surplus) - len(res.Deleted)
			r.deletesTotal.WithLabelValues("success").Add(float64(len(res.Deleted)))
			r.deletesTotal.WithLabelValues("error").Add(float64(failed))
		}
	}

	if err != nil {
		r.runsTotal.WithLabelValues("failed").Inc()
		kind := "Unknown"
		if k, ok := runerr.KindOf(err); ok {
			kind = k.String()
		}
		r.failuresTotal.WithLabelValues(kind).Inc()
		return
	}
	r.runsTotal.WithLabelValues("success").Inc()
	r.lastSuccess.SetToCurrentTime()
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
