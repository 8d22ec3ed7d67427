package stats_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func TestScore_MatchesFormula(t *testing.T) {
	t.Parallel()

	for imp := int64(0); imp <= 40; imp++ {
		for clk := int64(0); clk <= 45; clk += 3 {
			want := math.Round(float64(clk)/math.Max(1, float64(imp))*1.5*1e4) / 1e4
			assert.InDelta(t, want, stats.Score(imp, clk), 1e-12, "imp=%d clk=%d", imp, clk)
		}
	}
}

func TestScore_KnownValues(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, stats.Score(0, 0), 1e-12)
	assert.InDelta(t, 1.5, stats.Score(0, 1), 1e-12)
	assert.InDelta(t, 0.5, stats.Score(3, 1), 1e-12)
	assert.InDelta(t, 0.075, stats.Score(200, 10), 1e-12)
	assert.InDelta(t, 0.0714, stats.Score(21, 1), 1e-12)
}

func TestTable_GetDefaultsForUnknown(t *testing.T) {
	t.Parallel()

	var tbl stats.Table
	r := tbl.Get("missing")

	assert.Zero(t, r.Impressions)
	assert.Zero(t, r.Clicks)
	assert.InDelta(t, stats.NeutralScore, r.Score, 1e-12)
	assert.False(t, tbl.Has("missing"))
}

func TestTable_RecordAndScore(t *testing.T) {
	t.Parallel()

	tbl := stats.Table{}
	for range 4 {
		tbl.RecordImpression("watercolor", testNow)
	}
	tbl.RecordClick("watercolor", testNow.Add(time.Minute))
	tbl.UpdateScore("watercolor")

	r := tbl.Get("watercolor")
	assert.Equal(t, int64(4), r.Impressions)
	assert.Equal(t, int64(1), r.Clicks)
	assert.InDelta(t, 0.375, r.Score, 1e-12)
	assert.Equal(t, testNow.Add(time.Minute).Unix(), r.LastUpdate)
}

func TestTable_AddImpressions(t *testing.T) {
	t.Parallel()

	tbl := stats.Table{}
	tbl.AddImpressions("watercolor", 1_000_000_000, testNow)
	tbl.AddImpressions("watercolor", 0, testNow.Add(time.Hour))
	tbl.AddImpressions("photo", -3, testNow)

	r := tbl.Get("watercolor")
	assert.Equal(t, int64(1_000_000_000), r.Impressions)
	assert.Equal(t, testNow.Unix(), r.LastUpdate)
	assert.False(t, tbl.Has("photo"))
}

func TestTable_ClickWithoutImpressions(t *testing.T) {
	t.Parallel()

	tbl := stats.Table{}
	tbl.RecordClick("photo", testNow)
	tbl.RecordClick("photo", testNow)
	tbl.UpdateScore("photo")

	r := tbl.Get("photo")
	assert.Equal(t, int64(2), r.Clicks)
	assert.Zero(t, r.Impressions)
	assert.InDelta(t, 3.0, r.Score, 1e-12)
}

func TestTable_UpdateScoreIgnoresAbsent(t *testing.T) {
	t.Parallel()

	tbl := stats.Table{}
	tbl.UpdateScore("ghost")
	assert.False(t, tbl.Has("ghost"))
}

func TestTopicTable_CreatesLazily(t *testing.T) {
	t.Parallel()

	tt := stats.TopicTable{}
	assert.Nil(t, tt.Lookup("health"))
	assert.InDelta(t, stats.NeutralScore, tt.Get("health", "x").Score, 1e-12)

	tt.Table("health").RecordImpression("x", testNow)
	assert.Equal(t, int64(1), tt.Get("health", "x").Impressions)
	assert.Equal(t, []string{"health"}, tt.Topics())
}

func TestTable_UnmarshalLenient(t *testing.T) {
	t.Parallel()

	raw := `{
		"ok": {"impressions": 10, "clicks": "2", "score": 0.3, "last_update": "2026-10-17T00:00:00Z"},
		"broken": "not a record",
		"partial": {"impressions": "many", "clicks": 1}
	}`

	var tbl stats.Table
	require.NoError(t, json.Unmarshal([]byte(raw), &tbl))

	assert.Equal(t, int64(10), tbl.Get("ok").Impressions)
	assert.Equal(t, int64(2), tbl.Get("ok").Clicks)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC).Unix(), tbl.Get("ok").LastUpdate)
	assert.False(t, tbl.Has("broken"))
	assert.Zero(t, tbl.Get("partial").Impressions)
	assert.Equal(t, int64(1), tbl.Get("partial").Clicks)
}

func TestTopicTable_UnmarshalSkipsNonObjects(t *testing.T) {
	t.Parallel()

	var tt stats.TopicTable
	require.NoError(t, json.Unmarshal([]byte(`{"health": {"a": {"impressions": 3}}, "it": 5}`), &tt))

	assert.Equal(t, []string{"health"}, tt.Topics())
	assert.Equal(t, int64(3), tt.Get("health", "a").Impressions)
}
