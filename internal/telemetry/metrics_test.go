package telemetry_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayan-web/health-auto-blog-sub000/internal/telemetry"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics(false)
	m.RecordSelection("image", "photo")
	m.RecordSelection("image", "photo")
	m.RecordCooldown("img")
	m.RecordBudgetDenial("posts")
	m.RecordIngestEvent("click", "accepted")
	m.SetBlockedEntities(4)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Selections.WithLabelValues("image", "photo")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Cooldowns.WithLabelValues("img")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BudgetDenials.WithLabelValues("posts")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IngestEvents.WithLabelValues("click", "accepted")), 1e-9)
	assert.InDelta(t, 4, testutil.ToFloat64(m.BlockedEntities), 1e-9)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *telemetry.Metrics
	assert.NotPanics(t, func() {
		m.RecordSelection("image", "photo")
		m.RecordCooldown("img")
		m.RecordBudgetDenial("posts")
		m.RecordIngestEvent("imp", "accepted")
		m.SetBlockedEntities(1)
	})
	assert.NoError(t, m.Push(context.Background(), "http://unused"))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics(false)
	m.RecordCooldown("ts")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `autoblog_cooldowns_total{dimension="ts"} 1`)
}

func TestMetrics_Push(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := telemetry.NewMetrics(false)
	m.RecordSelection("thumb", "bold")

	require.NoError(t, m.Push(context.Background(), srv.URL))
	assert.Equal(t, "/metrics/job/autoblog", <-paths)
	assert.NoError(t, m.Push(context.Background(), ""))
}
