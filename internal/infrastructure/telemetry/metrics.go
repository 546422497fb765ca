package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcomes
const (
	ScanDetected   = "detected"
	ScanNoBarcode  = "no_barcode"
	ScanUnreadable = "unreadable"
	ScanTooLarge   = "too_large"
)

// Lookup outcomes per source
const (
	LookupHit         = "hit"
	LookupMiss        = "miss"
	LookupSkipped     = "skipped"
	LookupUnavailable = "unavailable"
)

// Metrics holds the Prometheus collectors for the scan pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	scans          *prometheus.CounterVec
	variantHits    *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	remoteDuration prometheus.Histogram
}

// NewMetrics creates the collectors on a dedicated registry together with
// the standard Go runtime and process collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "productscan",
			Name:      "scans_total",
			Help:      "Total number of image scans by outcome",
		}, []string{"outcome"}),
		variantHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "productscan",
			Name:      "variant_hits_total",
			Help:      "Number of scans decoded by each preprocessing variant",
		}, []string{"variant"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "productscan",
			Name:      "lookups_total",
			Help:      "Product lookups by source and outcome",
		}, []string{"source", "outcome"}),
		remoteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "productscan",
			Name:      "remote_lookup_duration_seconds",
			Help:      "Latency of remote product lookup calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	registry.MustRegister(
		m.scans,
		m.variantHits,
		m.lookups,
		m.remoteDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveScan records the outcome of one scan
func (m *Metrics) ObserveScan(outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
}

// ObserveVariantHit records which variant produced a reading
func (m *Metrics) ObserveVariantHit(variant string) {
	if m == nil {
		return
	}
	m.variantHits.WithLabelValues(variant).Inc()
}

// ObserveLookup records the outcome of consulting one source
func (m *Metrics) ObserveLookup(source, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(source, outcome).Inc()
}

// ObserveRemoteDuration records how long a remote call took
func (m *Metrics) ObserveRemoteDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.remoteDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
