// Package metrics exposes Prometheus collectors for loading and filtering.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "consulate_reports"

// Load outcomes.
const (
	LoadOK            = "ok"
	LoadNothingLoaded = "nothing_loaded"
	LoadSuperseded    = "superseded"
	LoadError         = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	filesTotal     *prometheus.CounterVec
	loadsTotal     *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	reports        prometheus.Gauge
	consulates     prometheus.Gauge
	lastSuccessTS  prometheus.Gauge
	filterRequests *prometheus.CounterVec
	filterMatches  prometheus.Histogram
}

// New creates collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Report files processed by outcome (loaded, fetch, parse)",
		}, []string{"outcome"}),
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Batch loads by result",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent loading a batch of report files",
			Buckets:   prometheus.DefBuckets,
		}),
		reports: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports",
			Help:      "Reports in the current dataset",
		}),
		consulates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consulates",
			Help:      "Distinct consulates in the current dataset",
		}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last load that produced a dataset",
		}),
		filterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_requests_total",
			Help:      "Filter evaluations by surface",
		}, []string{"surface"}),
		filterMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filter_matches",
			Help:      "Reports matched per filter evaluation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.filesTotal, m.loadsTotal, m.loadDuration,
		m.reports, m.consulates, m.lastSuccessTS,
		m.filterRequests, m.filterMatches,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFile counts one processed file.
func (m *Metrics) ObserveFile(outcome string) {
	if m == nil {
		return
	}
	m.filesTotal.WithLabelValues(outcome).Inc()
}

// ObserveLoad records a finished batch load.
func (m *Metrics) ObserveLoad(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(result).Inc()
	m.loadDuration.Observe(d.Seconds())
}

// SetDataset records the size of a newly published dataset.
func (m *Metrics) SetDataset(reports, consulates int) {
	if m == nil {
		return
	}
	m.reports.Set(float64(reports))
	m.consulates.Set(float64(consulates))
}

// MarkLoadSuccess records when a load last published reports.
func (m *Metrics) MarkLoadSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessTS.Set(float64(t.Unix()))
}

// ObserveFilter records one filter evaluation.
func (m *Metrics) ObserveFilter(surface string, matched int) {
	if m == nil {
		return
	}
	m.filterRequests.WithLabelValues(surface).Inc()
	m.filterMatches.Observe(float64(matched))
}
