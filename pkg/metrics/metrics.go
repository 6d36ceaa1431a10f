// Package metrics exports the pipeline stage events as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xaionaro-go/speechenhance/pkg/pipeline"
)

const namespace = "speechenhance"

// StageObserver is a pipeline.Observer collecting the duration and the
// degradations of every stage, labelled by profile and stage name.
type StageObserver struct {
	StageDuration *prometheus.HistogramVec
	StageRuns     *prometheus.CounterVec
	StageDegraded *prometheus.CounterVec
}

var _ pipeline.Observer = (*StageObserver)(nil)

func NewStageObserver(reg prometheus.Registerer) (*StageObserver, error) {
	o := &StageObserver{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in a pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"profile", "stage"}),
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_runs_total",
			Help:      "Amount of pipeline stage runs.",
		}, []string{"profile", "stage"}),
		StageDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_degraded_total",
			Help:      "Amount of pipeline stage runs degraded to a passthrough.",
		}, []string{"profile", "stage"}),
	}
	for _, c := range []prometheus.Collector{o.StageDuration, o.StageRuns, o.StageDegraded} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("unable to register a collector: %w", err)
		}
	}
	return o, nil
}

func (o *StageObserver) StageDone(
	profile pipeline.Profile,
	stage string,
	duration time.Duration,
	degraded bool,
) {
	labels := prometheus.Labels{"profile": profile.String(), "stage": stage}
	o.StageDuration.With(labels).Observe(duration.Seconds())
	o.StageRuns.With(labels).Inc()
	if degraded {
		o.StageDegraded.With(labels).Inc()
	}
}

// Handler serves the metrics of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
