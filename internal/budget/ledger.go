// Package budget meters posts, images, spend and affiliate insertions per KST
// day or month and gates publishing against configured ceilings.
package budget

import (
	"encoding/json"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

// Usage is the advisory guard's counters.
type Usage struct {
	Posts    map[string]int64   `json:"posts"`
	Images   map[string]int64   `json:"images"`
	SpendUSD map[string]float64 `json:"spend_usd"`
}

// UnmarshalJSON drops malformed buckets.
func (u *Usage) UnmarshalJSON(b []byte) error {
	obj, _ := domain.Object(b)
	*u = Usage{
		Posts:    domain.IntMap(obj["posts"]),
		Images:   domain.IntMap(obj["images"]),
		SpendUSD: domain.FloatMap(obj["spend_usd"]),
	}
	return nil
}

// Limits is the hard guard's counters.
type Limits struct {
	PostsByDay map[string]int64   `json:"posts_by_day"`
	USDByMonth map[string]float64 `json:"usd_by_month"`
}

// UnmarshalJSON drops malformed buckets.
func (l *Limits) UnmarshalJSON(b []byte) error {
	obj, _ := domain.Object(b)
	*l = Limits{
		PostsByDay: domain.IntMap(obj["posts_by_day"]),
		USDByMonth: domain.FloatMap(obj["usd_by_month"]),
	}
	return nil
}

// Ledger groups every counter the guards read. Each field persists under its
// own top-level key of the state document.
type Ledger struct {
	Usage     Usage
	Limits    Limits
	Affiliate map[string]int64
}

// NewLedger returns a ledger with empty buckets.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.ensure()
	return l
}

func (l *Ledger) ensure() {
	if l.Usage.Posts == nil {
		l.Usage.Posts = map[string]int64{}
	}
	if l.Usage.Images == nil {
		l.Usage.Images = map[string]int64{}
	}
	if l.Usage.SpendUSD == nil {
		l.Usage.SpendUSD = map[string]float64{}
	}
	if l.Limits.PostsByDay == nil {
		l.Limits.PostsByDay = map[string]int64{}
	}
	if l.Limits.USDByMonth == nil {
		l.Limits.USDByMonth = map[string]float64{}
	}
	if l.Affiliate == nil {
		l.Affiliate = map[string]int64{}
	}
}

// RecordUsage adds to the advisory counters of now's day and month.
func (l *Ledger) RecordUsage(posts, images int64, spendUSD float64, now time.Time) {
	l.ensure()
	day := domain.DayKey(now)
	l.Usage.Posts[day] += posts
	l.Usage.Images[day] += images
	l.Usage.SpendUSD[domain.MonthKey(now)] += spendUSD
}

// IncrementPostCount adds one post to the hard guard's day bucket.
func (l *Ledger) IncrementPostCount(now time.Time) {
	l.ensure()
	l.Limits.PostsByDay[domain.DayKey(now)]++
}

// AddSpend adds usd to the hard guard's month bucket.
func (l *Ledger) AddSpend(usd float64, now time.Time) {
	l.ensure()
	l.Limits.USDByMonth[domain.MonthKey(now)] += usd
}

// RecordAffiliate counts one affiliate insertion for now's day.
func (l *Ledger) RecordAffiliate(now time.Time) {
	l.ensure()
	l.Affiliate[domain.DayKey(now)]++
}

// DecodeUsage reads the "usage" value; anything but an object yields empty buckets.
func DecodeUsage(raw json.RawMessage) Usage {
	var u Usage
	_ = u.UnmarshalJSON(raw)
	return u
}

// DecodeLimits reads the "limits" value.
func DecodeLimits(raw json.RawMessage) Limits {
	var l Limits
	_ = l.UnmarshalJSON(raw)
	return l
}
