package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	now := time.Now()

	m.ObserveDatabase(42, now.Add(-time.Hour), now)
	m.TrackPackage()
	m.TrackPackage()
	m.TrackFinding("vulnerable_gem", "high")
	m.TrackFinding("insecure_source", "none")
	m.TrackFinding("vulnerable_gem", "high")
	m.ObserveAudit(20 * time.Millisecond)
	m.TrackUpdate(true)
	m.TrackUpdate(false)

	assert.Equal(t, float64(42), testutil.ToFloat64(m.AdvisoriesLoaded))
	assert.InDelta(t, 3600, testutil.ToFloat64(m.DatabaseAge), 1)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.PackagesScanned))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Findings.WithLabelValues("vulnerable_gem", "high")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Findings))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AuditDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Updates.WithLabelValues("failure")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDatabase(1, time.Now(), time.Now())
		m.TrackPackage()
		m.TrackFinding("vulnerable_gem", "low")
		m.ObserveAudit(time.Second)
		m.TrackUpdate(true)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.TrackPackage()

	path := filepath.Join(t.TempDir(), "bundle_audit.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bundle_audit_packages_scanned_total 1")
}
