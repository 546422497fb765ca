package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.ObserveScan(ScanDetected)
	m.ObserveScan(ScanDetected)
	m.ObserveScan(ScanNoBarcode)
	m.ObserveVariantHit("binarized")
	m.ObserveLookup("remote", LookupSkipped)
	m.ObserveLookup("catalog", LookupHit)
	m.ObserveRemoteDuration(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scans.WithLabelValues(ScanDetected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues(ScanNoBarcode)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.variantHits.WithLabelValues("binarized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("remote", LookupSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("catalog", LookupHit)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.remoteDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveScan(ScanDetected)
		m.ObserveVariantHit("grayscale")
		m.ObserveLookup("remote", LookupHit)
		m.ObserveRemoteDuration(time.Second)
	})
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveScan(ScanUnreadable)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `productscan_scans_total{outcome="unreadable"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
