package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("topoview")
	b := NewCollector("topoview")

	a.RecordWidget("nodes")
	a.RecordWidget("nodes")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.WidgetsAttached.WithLabelValues("nodes")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.WidgetsAttached.WithLabelValues("nodes")))
}

func TestRecordExport(t *testing.T) {
	c := NewCollector("topoview")
	c.RecordExport("xml", nil)
	c.RecordExport("xml", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Exports.WithLabelValues("xml", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Exports.WithLabelValues("xml", "error")))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
		c.RecordWidget("nodes")
		c.RecordSave(true)
		c.SetOpenViews(1)
	})
}

func TestHandler(t *testing.T) {
	c := NewCollector("topoview")
	c.RecordHTTPRequest("GET", "/api/views", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `topoview_http_requests_total{method="GET",route="/api/views",status="200"} 1`)
}
