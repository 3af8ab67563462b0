// Package metrics exposes prometheus collectors for ingestion and vendor lookups.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupTimeout  = "timeout"
	LookupError    = "error"
)

// Persist targets.
const (
	TargetEventLog = "event_log"
	TargetStore    = "device_store"
)

// Metrics groups the collectors used across the tracker.
type Metrics struct {
	EventsIngested  prometheus.Counter
	DevicesCreated  prometheus.Counter
	PersistFailures *prometheus.CounterVec
	VendorLookups   *prometheus.CounterVec
	LookupsInFlight prometheus.Gauge
	LookupDuration  prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. A nil reg uses a
// private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		EventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wifitracker",
			Name:      "probe_requests_total",
			Help:      "Probe requests ingested.",
		}),
		DevicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wifitracker",
			Name:      "devices_created_total",
			Help:      "Devices seen for the first time.",
		}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wifitracker",
			Name:      "persist_failures_total",
			Help:      "Failed writes by target.",
		}, []string{"target"}),
		VendorLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wifitracker",
			Name:      "vendor_lookups_total",
			Help:      "Vendor lookups by outcome.",
		}, []string{"result"}),
		LookupsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wifitracker",
			Name:      "vendor_lookups_in_flight",
			Help:      "Vendor lookups currently holding a slot.",
		}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wifitracker",
			Name:      "vendor_lookup_duration_seconds",
			Help:      "Vendor lookup latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.EventsIngested,
		m.DevicesCreated,
		m.PersistFailures,
		m.VendorLookups,
		m.LookupsInFlight,
		m.LookupDuration,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
