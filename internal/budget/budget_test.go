package budget_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

func at(day, hour int) time.Time {
	return time.Date(2026, 10, day, hour, 0, 0, 0, domain.KST)
}

func TestGuard_CanPublish_DailyRollover(t *testing.T) {
	t.Parallel()

	guard := budget.NewGuard(budget.DefaultCeilings())
	ledger := budget.NewLedger()

	for range 3 {
		ok, reason := guard.CanPublish(ledger, at(17, 10))
		require.True(t, ok)
		require.Equal(t, budget.ReasonOK, reason)
		ledger.RecordUsage(1, 0, 0, at(17, 10))
	}

	ok, reason := guard.CanPublish(ledger, at(17, 23))
	assert.False(t, ok)
	assert.Contains(t, reason, "daily post limit")

	ok, reason = guard.CanPublish(ledger, at(18, 0))
	assert.True(t, ok)
	assert.Equal(t, "OK", reason)
}

func TestGuard_CanPublish_FirstViolationWins(t *testing.T) {
	t.Parallel()

	guard := budget.NewGuard(budget.DefaultCeilings())
	ledger := budget.NewLedger()
	ledger.RecordUsage(0, 12, 31, at(17, 9))

	ok, reason := guard.CanPublish(ledger, at(17, 9))
	assert.False(t, ok)
	assert.Contains(t, reason, "daily image limit")

	// Images reset the next day but monthly spend does not.
	ok, reason = guard.CanPublish(ledger, at(18, 9))
	assert.False(t, ok)
	assert.Contains(t, reason, "monthly spend")

	ok, _ = guard.CanPublish(ledger, time.Date(2026, 11, 1, 0, 0, 0, 0, domain.KST))
	assert.True(t, ok)
}

func TestGuard_ZeroCeilingIsUnlimited(t *testing.T) {
	t.Parallel()

	guard := budget.NewGuard(budget.Ceilings{})
	ledger := budget.NewLedger()
	ledger.RecordUsage(100, 100, 1000, at(17, 9))
	ledger.IncrementPostCount(at(17, 9))
	ledger.RecordAffiliate(at(17, 9))

	ok, _ := guard.CanPublish(ledger, at(17, 9))
	assert.True(t, ok)
	assert.NoError(t, guard.CheckLimits(ledger, at(17, 9)))
	assert.True(t, guard.CanInsertAffiliate(ledger, at(17, 9)))
}

func TestGuard_CheckLimits(t *testing.T) {
	t.Parallel()

	guard := budget.NewGuard(budget.Ceilings{MaxPostsPerDay: 2, MaxUSDPerMonth: 5})
	ledger := budget.NewLedger()

	ledger.IncrementPostCount(at(17, 9))
	require.NoError(t, guard.CheckLimits(ledger, at(17, 9)))
	ledger.IncrementPostCount(at(17, 9))

	err := guard.CheckLimits(ledger, at(17, 9))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBudgetExceeded))

	var exceeded *budget.BudgetExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, budget.GuardPosts, exceeded.Guard)
	assert.Equal(t, "2026-10-17", exceeded.Period)

	ledger.AddSpend(5, at(18, 9))
	err = guard.CheckLimits(ledger, at(18, 9))
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, budget.GuardSpend, exceeded.Guard)
}

func TestGuard_Affiliate(t *testing.T) {
	t.Parallel()

	guard := budget.NewGuard(budget.DefaultCeilings())
	ledger := &budget.Ledger{}

	assert.True(t, guard.CanInsertAffiliate(ledger, at(17, 9)))
	ledger.RecordAffiliate(at(17, 9))
	assert.False(t, guard.CanInsertAffiliate(ledger, at(17, 20)))
	assert.True(t, guard.CanInsertAffiliate(ledger, at(18, 1)))
}

func TestGuard_Status(t *testing.T) {
	t.Parallel()

	guard := budget.NewGuard(budget.DefaultCeilings())
	ledger := budget.NewLedger()
	ledger.RecordUsage(1, 4, 2.5, at(17, 9))
	ledger.IncrementPostCount(at(17, 9))

	s := guard.Status(ledger, at(17, 12))
	assert.Equal(t, "2026-10-17", s.Day)
	assert.Equal(t, "2026-10", s.Month)
	assert.Equal(t, int64(1), s.Posts)
	assert.Equal(t, int64(4), s.Images)
	assert.InDelta(t, 2.5, s.SpendUSD, 1e-9)
	assert.Equal(t, int64(1), s.HardPosts)
	assert.True(t, s.Allowed)
	assert.False(t, s.HardLimitReached)
}

func TestDecode_Lenient(t *testing.T) {
	t.Parallel()

	usage := budget.DecodeUsage(json.RawMessage(`{"posts":{"2026-10-17":"2","bad":"x"},"images":[],"spend_usd":{"2026-10":1.5}}`))
	assert.Equal(t, map[string]int64{"2026-10-17": 2}, usage.Posts)
	assert.Empty(t, usage.Images)
	assert.NotNil(t, usage.Images)
	assert.InDelta(t, 1.5, usage.SpendUSD["2026-10"], 1e-9)

	limits := budget.DecodeLimits(json.RawMessage(`null`))
	assert.NotNil(t, limits.PostsByDay)
	assert.NotNil(t, limits.USDByMonth)
}

func TestGuard_NonFiniteStoredSpendStillGuards(t *testing.T) {
	t.Parallel()

	ledger := budget.NewLedger()
	ledger.Usage = budget.DecodeUsage(json.RawMessage(`{"spend_usd":{"2026-10":"NaN"}}`))
	ledger.Limits = budget.DecodeLimits(json.RawMessage(`{"usd_by_month":{"2026-10":"Inf"}}`))
	guard := budget.NewGuard(budget.Ceilings{MaxUSDPerMonth: 30})

	now := at(17, 9)
	ledger.RecordUsage(0, 0, 1000, now)
	ledger.AddSpend(1000, now)

	allowed, reason := guard.CanPublish(ledger, now)
	assert.False(t, allowed)
	assert.Contains(t, reason, "monthly spend limit")

	var exceeded *budget.BudgetExceededError
	require.ErrorAs(t, guard.CheckLimits(ledger, now), &exceeded)
	assert.Equal(t, budget.GuardSpend, exceeded.Guard)
	assert.InDelta(t, 1000, ledger.Usage.SpendUSD["2026-10"], 1e-9)
}
