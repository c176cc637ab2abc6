package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"donaid/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCollector_Records(t *testing.T) {
	c := NewStatsCollector("", false)

	c.RecordOperationResult("create_snapshot", "success")
	c.RecordOperationResult("create_snapshot", "success")
	c.RecordOperationResult("create_snapshot", "error")
	c.RecordError("create_snapshot", "AGGREGATION_FAILURE")
	c.RecordCacheHit("latest:daily")
	c.RecordCacheMiss("latest:daily")
	c.RecordCacheMiss("latest:weekly")
	c.RecordSnapshot(models.PeriodDaily, 1500)
	c.RecordSnapshot(models.PeriodDaily, 900)
	c.RecordOperationDuration("create_snapshot", 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operationResults.WithLabelValues("create_snapshot", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("create_snapshot", "AGGREGATION_FAILURE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheHits.WithLabelValues("latest:daily")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.cacheMisses))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.snapshotsCreated.WithLabelValues("daily")))
	assert.Equal(t, 900.0, testutil.ToFloat64(c.donationTotal.WithLabelValues("daily")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.operationDuration))
}

func TestStatsCollector_Handler(t *testing.T) {
	c := NewStatsCollector("test", true)
	c.RecordSnapshot(models.PeriodMonthly, 42)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_stats_snapshots_created_total{period="monthly"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestStatsCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewStatsCollector("donaid", true)
		NewStatsCollector("donaid", true)
	})
}
