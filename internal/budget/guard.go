package budget

import (
	"fmt"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

// Default ceilings.
const (
	DefaultMaxPostsPerDay     = 3
	DefaultMaxImagesPerDay    = 12
	DefaultMaxUSDPerMonth     = 30.0
	DefaultMaxAffiliatePerDay = 1
)

// Guard names, also used as metric labels.
const (
	GuardPosts     = "posts"
	GuardImages    = "images"
	GuardSpend     = "spend"
	GuardAffiliate = "affiliate"
)

// ReasonOK is returned by CanPublish when nothing is exceeded.
const ReasonOK = "OK"

// Ceilings are the configured limits. A value <= 0 disables that check.
type Ceilings struct {
	MaxPostsPerDay     int64
	MaxImagesPerDay    int64
	MaxUSDPerMonth     float64
	MaxAffiliatePerDay int64
}

// DefaultCeilings returns the default limits.
func DefaultCeilings() Ceilings {
	return Ceilings{
		MaxPostsPerDay:     DefaultMaxPostsPerDay,
		MaxImagesPerDay:    DefaultMaxImagesPerDay,
		MaxUSDPerMonth:     DefaultMaxUSDPerMonth,
		MaxAffiliatePerDay: DefaultMaxAffiliatePerDay,
	}
}

// BudgetExceededError is returned by the hard guard.
type BudgetExceededError struct {
	Guard  string
	Period string
	Used   float64
	Max    float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: %s %g/%g for %s", e.Guard, e.Used, e.Max, e.Period)
}

// Unwrap lets errors.Is match domain.ErrBudgetExceeded.
func (e *BudgetExceededError) Unwrap() error {
	return domain.ErrBudgetExceeded
}

// Guard evaluates a Ledger against Ceilings.
type Guard struct {
	ceilings Ceilings
}

// NewGuard creates a guard.
func NewGuard(c Ceilings) *Guard {
	return &Guard{ceilings: c}
}

// Ceilings returns the configured limits.
func (g *Guard) Ceilings() Ceilings {
	return g.ceilings
}

// CanPublish is the advisory guard. It checks daily posts, daily images and
// monthly spend in that order and reports the first one reached.
func (g *Guard) CanPublish(l *Ledger, now time.Time) (allowed bool, reason string) {
	if v := g.advisory(l, now); v != nil {
		return false, v.reason()
	}
	return true, ReasonOK
}

// AdvisoryViolation returns the first exceeded advisory ceiling, or nil.
func (g *Guard) AdvisoryViolation(l *Ledger, now time.Time) *BudgetExceededError {
	return g.advisory(l, now)
}

func (g *Guard) advisory(l *Ledger, now time.Time) *BudgetExceededError {
	day, month := domain.DayKey(now), domain.MonthKey(now)
	c := g.ceilings

	if c.MaxPostsPerDay > 0 {
		if used := l.Usage.Posts[day]; used >= c.MaxPostsPerDay {
			return &BudgetExceededError{Guard: GuardPosts, Period: day, Used: float64(used), Max: float64(c.MaxPostsPerDay)}
		}
	}
	if c.MaxImagesPerDay > 0 {
		if used := l.Usage.Images[day]; used >= c.MaxImagesPerDay {
			return &BudgetExceededError{Guard: GuardImages, Period: day, Used: float64(used), Max: float64(c.MaxImagesPerDay)}
		}
	}
	if c.MaxUSDPerMonth > 0 {
		if used := l.Usage.SpendUSD[month]; used >= c.MaxUSDPerMonth {
			return &BudgetExceededError{Guard: GuardSpend, Period: month, Used: used, Max: c.MaxUSDPerMonth}
		}
	}
	return nil
}

func (e *BudgetExceededError) reason() string {
	switch e.Guard {
	case GuardPosts:
		return fmt.Sprintf("daily post limit reached (%g/%g)", e.Used, e.Max)
	case GuardImages:
		return fmt.Sprintf("daily image limit reached (%g/%g)", e.Used, e.Max)
	case GuardSpend:
		return fmt.Sprintf("monthly spend limit reached ($%.2f/$%.2f)", e.Used, e.Max)
	default:
		return e.Error()
	}
}

// CheckLimits is the hard guard. It reads the counters fed by
// IncrementPostCount and AddSpend and returns a *BudgetExceededError when
// either ceiling is reached. Callers abort the run on error.
func (g *Guard) CheckLimits(l *Ledger, now time.Time) error {
	day, month := domain.DayKey(now), domain.MonthKey(now)
	c := g.ceilings

	if c.MaxPostsPerDay > 0 {
		if used := l.Limits.PostsByDay[day]; used >= c.MaxPostsPerDay {
			return &BudgetExceededError{Guard: GuardPosts, Period: day, Used: float64(used), Max: float64(c.MaxPostsPerDay)}
		}
	}
	if c.MaxUSDPerMonth > 0 {
		if used := l.Limits.USDByMonth[month]; used >= c.MaxUSDPerMonth {
			return &BudgetExceededError{Guard: GuardSpend, Period: month, Used: used, Max: c.MaxUSDPerMonth}
		}
	}
	return nil
}

// CanInsertAffiliate reports whether today's affiliate count is under the cap.
func (g *Guard) CanInsertAffiliate(l *Ledger, now time.Time) bool {
	if g.ceilings.MaxAffiliatePerDay <= 0 {
		return true
	}
	return l.Affiliate[domain.DayKey(now)] < g.ceilings.MaxAffiliatePerDay
}

// Status is a point-in-time view of the ledger for today.
type Status struct {
	Day              string  `json:"day"`
	Month            string  `json:"month"`
	Posts            int64   `json:"posts"`
	Images           int64   `json:"images"`
	SpendUSD         float64 `json:"spend_usd"`
	HardPosts        int64   `json:"hard_posts"`
	HardSpendUSD     float64 `json:"hard_spend_usd"`
	Affiliate        int64   `json:"affiliate"`
	MaxPosts         int64   `json:"max_posts_per_day"`
	MaxImages        int64   `json:"max_images_per_day"`
	MaxUSD           float64 `json:"max_usd_per_month"`
	MaxAffiliate     int64   `json:"max_affiliate_per_day"`
	Allowed          bool    `json:"allowed"`
	Reason           string  `json:"reason"`
	HardLimitReached bool    `json:"hard_limit_reached"`
}

// Status summarises l at now.
func (g *Guard) Status(l *Ledger, now time.Time) Status {
	day, month := domain.DayKey(now), domain.MonthKey(now)
	allowed, reason := g.CanPublish(l, now)
	return Status{
		Day:              day,
		Month:            month,
		Posts:            l.Usage.Posts[day],
		Images:           l.Usage.Images[day],
		SpendUSD:         l.Usage.SpendUSD[month],
		HardPosts:        l.Limits.PostsByDay[day],
		HardSpendUSD:     l.Limits.USDByMonth[month],
		Affiliate:        l.Affiliate[day],
		MaxPosts:         g.ceilings.MaxPostsPerDay,
		MaxImages:        g.ceilings.MaxImagesPerDay,
		MaxUSD:           g.ceilings.MaxUSDPerMonth,
		MaxAffiliate:     g.ceilings.MaxAffiliatePerDay,
		Allowed:          allowed,
		Reason:           reason,
		HardLimitReached: g.CheckLimits(l, now) != nil,
	}
}
