package planner_test

import (
	"errors"
	"math/rand/v2"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/clickurl"
	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/planner"
	"github.com/hayan-web/health-auto-blog-sub000/internal/selector"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
	"github.com/hayan-web/health-auto-blog-sub000/internal/telemetry"
)

var now = time.Date(2026, 10, 17, 9, 0, 0, 0, domain.KST)

// greedyOptions disables exploration so picks are deterministic.
func greedyOptions() planner.Options {
	blend := selector.NewBlend()
	blend.ExploreRate = 0
	ucb := selector.NewUCB()
	ucb.Epsilon = 0
	greedy := selector.NewGreedy()
	greedy.Epsilon = 0

	return planner.Options{
		Blend:         blend,
		UCB:           ucb,
		Greedy:        greedy,
		Rules:         cooldown.DefaultRules(),
		Ceilings:      budget.DefaultCeilings(),
		Schedule:      planner.Schedule{{FromHour: 0, Topic: "health"}, {FromHour: 11, Topic: "it"}, {FromHour: 17, Topic: "life"}},
		ImageStyles:   []string{"photo", "watercolor"},
		ThumbVariants: []string{"question", "number"},
		Subtopics:     []string{"sleep", "money"},
	}
}

func newPlanner(opts planner.Options, signer *clickurl.Signer, m *telemetry.Metrics) *planner.Planner {
	return planner.New(opts, rand.New(rand.NewPCG(7, 11)), signer, m, nil)
}

func TestSchedule_TopicFor(t *testing.T) {
	t.Parallel()

	s := planner.Schedule{{FromHour: 6, Topic: "health"}, {FromHour: 12, Topic: "it"}, {FromHour: 18, Topic: "life"}}
	tests := []struct {
		hour int
		want string
	}{
		{0, "life"},
		{6, "health"},
		{11, "health"},
		{12, "it"},
		{23, "life"},
	}
	unsorted := planner.Schedule{{FromHour: 18, Topic: "life"}, {FromHour: 6, Topic: "health"}, {FromHour: 12, Topic: "it"}}
	for _, tt := range tests {
		at := time.Date(2026, 10, 17, tt.hour, 30, 0, 0, domain.KST)
		assert.Equal(t, tt.want, s.TopicFor(at), "hour %d", tt.hour)
		assert.Equal(t, tt.want, unsorted.TopicFor(at), "unsorted, hour %d", tt.hour)
	}

	// 02:00 UTC is 11:00 KST.
	assert.Equal(t, "health", s.TopicFor(time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, planner.DefaultTopic, planner.Schedule(nil).TopicFor(now))
}

func TestPlan_PicksBestAndSigns(t *testing.T) {
	t.Parallel()

	doc := state.New()
	doc.TopicStyleStats.Table("health")["watercolor"] = stats.Record{Impressions: 100, Clicks: 20}
	doc.TopicStyleStats.Table("health")["photo"] = stats.Record{Impressions: 100, Clicks: 1}
	doc.ThumbStats["number"] = stats.Record{Impressions: 100, Clicks: 30}
	doc.ThumbStats["question"] = stats.Record{Impressions: 100, Clicks: 2}

	signer := clickurl.NewSigner("secret")
	m := telemetry.NewMetrics(false)
	p := newPlanner(greedyOptions(), signer, m)

	plan, err := p.Plan(doc, planner.Request{Keywords: []string{"vitamin d"}, PostID: "p1", Now: now})
	require.NoError(t, err)

	assert.True(t, plan.Allowed)
	assert.Equal(t, "OK", plan.Reason)
	assert.Equal(t, "health", plan.Topic)
	assert.Equal(t, "watercolor", plan.ImageStyle)
	assert.Equal(t, "number", plan.ThumbVariant)
	assert.Equal(t, "vitamin d", plan.Keyword)
	assert.Empty(t, plan.Subtopic)
	assert.Equal(t, planner.StrategyUCB, plan.Strategy)

	q, err := url.ParseQuery(plan.TrackingQuery)
	require.NoError(t, err)
	params := clickurl.ParamsFromValues(q)
	assert.Equal(t, "p1", params.PostID)
	assert.True(t, signer.Verify(params.Message(), q.Get(clickurl.ParamSig)))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Selections.WithLabelValues("image", "watercolor")), 1e-9)
}

func TestPlan_LifeTopicGetsSubtopic(t *testing.T) {
	t.Parallel()

	doc := state.New()
	doc.LifeSubtopic["money"] = stats.Record{Impressions: 500, Clicks: 40}
	p := newPlanner(greedyOptions(), nil, nil)

	plan, err := p.Plan(doc, planner.Request{Now: time.Date(2026, 10, 17, 20, 0, 0, 0, domain.KST), Strategy: planner.StrategyBlend})
	require.NoError(t, err)

	assert.Equal(t, "life", plan.Topic)
	assert.Equal(t, "money", plan.Subtopic)
	assert.NotEmpty(t, plan.PostID)
	assert.NotContains(t, plan.TrackingQuery, "sig=")
}

func TestPlan_CooldownFilter(t *testing.T) {
	t.Parallel()

	doc := state.New()
	doc.ImageStats["watercolor"] = stats.Record{Impressions: 100, Clicks: 50}
	doc.Cooldowns.Until[cooldown.TopicImageKey("it", "watercolor").String()] = now.Add(time.Hour).Unix()
	p := newPlanner(greedyOptions(), nil, nil)

	plan, err := p.Plan(doc, planner.Request{Topic: "it", Now: now})
	require.NoError(t, err)
	assert.Equal(t, "photo", plan.ImageStyle, "topic-scoped cooldown suppresses watercolor for it")

	plan, err = p.Plan(doc, planner.Request{Topic: "health", Now: now})
	require.NoError(t, err)
	assert.Equal(t, "watercolor", plan.ImageStyle)
}

func TestPlan_AllBlockedFallsBack(t *testing.T) {
	t.Parallel()

	doc := state.New()
	for _, id := range []string{"photo", "watercolor"} {
		doc.Cooldowns.Until[cooldown.ImageKey(id).String()] = now.Add(time.Hour).Unix()
	}
	p := newPlanner(greedyOptions(), nil, nil)

	plan, err := p.Plan(doc, planner.Request{Topic: "health", Now: now})
	require.NoError(t, err)
	assert.Contains(t, []string{"photo", "watercolor"}, plan.ImageStyle)
}

func TestPlan_Keywords(t *testing.T) {
	t.Parallel()

	doc := state.New()
	doc.Blacklist.Add("keto", 3, "low ctr", now)
	p := newPlanner(greedyOptions(), nil, nil)

	plan, err := p.Plan(doc, planner.Request{Keywords: []string{"keto", "sleep"}, Now: now})
	require.NoError(t, err)
	assert.Equal(t, "sleep", plan.Keyword)

	_, err = p.Plan(doc, planner.Request{Keywords: []string{"keto"}, Now: now})
	assert.ErrorIs(t, err, domain.ErrNoEligibleKeyword)
}

func TestPlan_BudgetGuards(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics(false)
	p := newPlanner(greedyOptions(), nil, m)

	advisory := state.New()
	advisory.Budget.RecordUsage(3, 0, 0, now)
	plan, err := p.Plan(advisory, planner.Request{Now: now})
	require.NoError(t, err)
	assert.False(t, plan.Allowed)
	assert.Contains(t, plan.Reason, "daily post limit")
	assert.Empty(t, plan.ImageStyle)

	hard := state.New()
	hard.Budget.AddSpend(30, now)
	_, err = p.Plan(hard, planner.Request{Now: now})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBudgetExceeded))

	assert.InDelta(t, 1, testutil.ToFloat64(m.BudgetDenials.WithLabelValues(budget.GuardPosts)), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BudgetDenials.WithLabelValues(budget.GuardSpend)), 1e-9)
}

func TestCommit(t *testing.T) {
	t.Parallel()

	doc := state.New()
	p := newPlanner(greedyOptions(), nil, nil)
	out := planner.Outcome{
		Topic:        "life",
		ImageStyle:   "photo",
		ThumbVariant: "number",
		Subtopic:     "sleep",
		Images:       3,
		SpendUSD:     0.4,
		Affiliate:    true,
		Impressions:  2,
	}

	receipt, err := p.Commit(doc, out, now)
	require.NoError(t, err)
	assert.True(t, receipt.AffiliateRecorded)

	day := domain.DayKey(now)
	assert.Equal(t, int64(1), doc.Budget.Usage.Posts[day])
	assert.Equal(t, int64(3), doc.Budget.Usage.Images[day])
	assert.Equal(t, int64(1), doc.Budget.Limits.PostsByDay[day])
	assert.InDelta(t, 0.4, doc.Budget.Limits.USDByMonth[domain.MonthKey(now)], 1e-9)
	assert.Equal(t, int64(2), doc.TopicStyleStats.Get("life", "photo").Impressions)
	assert.Equal(t, int64(2), doc.LifeSubtopic.Get("sleep").Impressions)
	assert.InDelta(t, 0, doc.ImageStats.Get("photo").Score, 1e-9)

	receipt, err = p.Commit(doc, out, now)
	require.NoError(t, err)
	assert.True(t, receipt.AffiliateDenied)
	assert.Equal(t, int64(1), doc.Budget.Affiliate[day])

	_, err = p.Commit(doc, planner.Outcome{Topic: "it"}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCommit_LargeImpressionCount(t *testing.T) {
	t.Parallel()

	doc := state.New()
	p := newPlanner(greedyOptions(), nil, nil)
	out := planner.Outcome{
		Topic:        "it",
		ImageStyle:   "photo",
		ThumbVariant: "number",
		Keyword:      "ssd",
		Impressions:  5_000_000_000,
	}

	_, err := p.Commit(doc, out, now)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000), doc.ImageStats.Get("photo").Impressions)
	assert.Equal(t, int64(5_000_000_000), doc.TopicThumbStats.Get("it", "number").Impressions)
	assert.Equal(t, int64(5_000_000_000), doc.KeywordStats.Get("ssd").Impressions)
}

func TestSweep(t *testing.T) {
	t.Parallel()

	doc := state.New()
	doc.ImageStats["A"] = stats.Record{Impressions: 200, Clicks: 10}
	doc.ImageStats["B"] = stats.Record{Impressions: 200}
	m := telemetry.NewMetrics(false)
	p := newPlanner(greedyOptions(), nil, m)

	blocked := p.Sweep(doc, now)
	assert.Equal(t, []cooldown.Key{cooldown.ImageKey("B")}, blocked)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Cooldowns.WithLabelValues("img")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BlockedEntities), 1e-9)

	assert.Empty(t, p.Sweep(doc, now.Add(time.Hour)), "already blocked entities are not struck again")
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	s, err := planner.ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, planner.StrategyUCB, s)

	s, err = planner.ParseStrategy("blend")
	require.NoError(t, err)
	assert.Equal(t, planner.StrategyBlend, s)

	_, err = planner.ParseStrategy("random")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
