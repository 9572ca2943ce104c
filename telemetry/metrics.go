package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the audit counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AdvisoriesLoaded prometheus.Gauge
	DatabaseAge      prometheus.Gauge
	PackagesScanned  prometheus.Counter
	Findings         *prometheus.CounterVec
	AuditDuration    prometheus.Histogram
	Updates          *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.AdvisoriesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bundle_audit_advisories_loaded",
			Help: "Number of advisories in the loaded database",
		},
	)

	m.DatabaseAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bundle_audit_database_age_seconds",
			Help: "Seconds since the advisory database was last updated",
		},
	)

	m.PackagesScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bundle_audit_packages_scanned_total",
			Help: "Total number of lockfile packages audited",
		},
	)

	m.Findings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_audit_findings_total",
			Help: "Total number of findings by type and criticality",
		},
		[]string{"type", "criticality"},
	)

	m.AuditDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundle_audit_duration_seconds",
			Help:    "Duration of audits in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.Updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bundle_audit_database_updates_total",
			Help: "Total number of advisory database updates by result",
		},
		[]string{"result"},
	)

	m.registry.MustRegister(
		m.AdvisoriesLoaded,
		m.DatabaseAge,
		m.PackagesScanned,
		m.Findings,
		m.AuditDuration,
		m.Updates,
	)

	return m
}

// Registry exposes the registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveDatabase(size int, lastUpdated, now time.Time) {
	if m == nil {
		return
	}
	m.AdvisoriesLoaded.Set(float64(size))
	if !lastUpdated.IsZero() {
		m.DatabaseAge.Set(now.Sub(lastUpdated).Seconds())
	}
}

func (m *Metrics) TrackPackage() {
	if m == nil {
		return
	}
	m.PackagesScanned.Inc()
}

func (m *Metrics) TrackFinding(kind, criticality string) {
	if m == nil {
		return
	}
	m.Findings.WithLabelValues(kind, criticality).Inc()
}

func (m *Metrics) ObserveAudit(d time.Duration) {
	if m == nil {
		return
	}
	m.AuditDuration.Observe(d.Seconds())
}

func (m *Metrics) TrackUpdate(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Updates.WithLabelValues(result).Inc()
}

// WriteTextfile writes the current values in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
