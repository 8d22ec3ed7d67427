package cooldown

import (
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
)

// Engine defaults.
const (
	DefaultMinImpressions = 120
	DefaultCTRFloor       = 0.0025
	DefaultCooldownDays   = 3
	DefaultExtraPerStrike = 1
)

// Rules decides when an entity goes into cooldown and for how long.
type Rules struct {
	MinImpressions int64
	CTRFloor       float64
	CooldownDays   int64
	ExtraPerStrike int64
}

// DefaultRules returns the default thresholds.
func DefaultRules() Rules {
	return Rules{
		MinImpressions: DefaultMinImpressions,
		CTRFloor:       DefaultCTRFloor,
		CooldownDays:   DefaultCooldownDays,
		ExtraPerStrike: DefaultExtraPerStrike,
	}
}

// Violates reports whether r has enough impressions and a CTR under the floor.
func (r Rules) Violates(rec stats.Record) bool {
	return rec.Impressions >= r.MinImpressions && rec.CTR() < r.CTRFloor
}

// Duration returns the cooldown length for an entity with strikes prior strikes.
func (r Rules) Duration(strikes int64) time.Duration {
	days := r.CooldownDays + r.ExtraPerStrike*strikes
	return time.Duration(days*domain.SecondsPerDay) * time.Second
}

// Observation pairs a cooldown key with the ledger record it is judged on.
type Observation struct {
	Key    Key
	Record stats.Record
}

// Engine applies Rules to a Book.
type Engine struct {
	rules Rules
	log   logger.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(rules Rules, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{rules: rules, log: log}
}

// Rules returns the engine's thresholds.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Block puts key into cooldown unconditionally and returns the deadline.
// The duration grows by ExtraPerStrike days for each earlier strike.
func (e *Engine) Block(book *Book, key Key, now time.Time) time.Time {
	book.ensure()
	raw := key.String()
	strikes := book.Strikes[raw]
	until := now.Add(e.rules.Duration(strikes))

	book.Until[raw] = until.Unix()
	book.Strikes[raw] = strikes + 1

	e.log.Info("Entity placed in cooldown",
		logger.String("key", raw),
		logger.Int64("strike", strikes+1),
		logger.Time("until", until),
	)
	return until
}

// Evaluate blocks key when rec violates the rules and key is currently
// active. It reports whether a new block was placed.
func (e *Engine) Evaluate(book *Book, key Key, rec stats.Record, now time.Time) bool {
	if book.IsBlocked(key, now) || !e.rules.Violates(rec) {
		return false
	}
	e.Block(book, key, now)
	return true
}

// Apply evaluates every observation and returns the keys that were newly blocked.
func (e *Engine) Apply(book *Book, observations []Observation, now time.Time) []Key {
	var blocked []Key
	for _, o := range observations {
		if e.Evaluate(book, o.Key, o.Record, now) {
			blocked = append(blocked, o.Key)
		}
	}
	return blocked
}
