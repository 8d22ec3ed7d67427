package cooldown

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

// Book holds block deadlines and strike counts, keyed by Key.String().
// Expired deadlines stay in Until until they are overwritten.
type Book struct {
	Until   map[string]int64
	Strikes map[string]int64
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{Until: map[string]int64{}, Strikes: map[string]int64{}}
}

// IsBlocked reports whether now < until for key. Absent keys are not blocked.
func (b *Book) IsBlocked(key Key, now time.Time) bool {
	if b == nil {
		return false
	}
	until, ok := b.Until[key.String()]
	return ok && now.Unix() < until
}

// BlockedUntil returns the stored deadline of key.
func (b *Book) BlockedUntil(key Key) (time.Time, bool) {
	if b == nil {
		return time.Time{}, false
	}
	until, ok := b.Until[key.String()]
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(until, 0), true
}

// StrikeCount returns how many times key has been blocked.
func (b *Book) StrikeCount(key Key) int64 {
	if b == nil {
		return 0
	}
	return b.Strikes[key.String()]
}

// Entry describes one stored cooldown.
type Entry struct {
	Key     Key       `json:"-"`
	Raw     string    `json:"key"`
	Until   time.Time `json:"until"`
	Strikes int64     `json:"strikes"`
	Active  bool      `json:"active"`
}

// Entries lists stored cooldowns sorted by key. Keys that do not parse are
// reported with a zero Key.
func (b *Book) Entries(now time.Time) []Entry {
	if b == nil {
		return nil
	}
	out := make([]Entry, 0, len(b.Until))
	for raw, until := range b.Until {
		key, _ := ParseKey(raw)
		out = append(out, Entry{
			Key:     key,
			Raw:     raw,
			Until:   time.Unix(until, 0),
			Strikes: b.Strikes[raw],
			Active:  now.Unix() < until,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Raw < out[j].Raw })
	return out
}

// ActiveCount returns how many entries are blocked at now.
func (b *Book) ActiveCount(now time.Time) int {
	if b == nil {
		return 0
	}
	n := 0
	for _, until := range b.Until {
		if now.Unix() < until {
			n++
		}
	}
	return n
}

func (b *Book) ensure() {
	if b.Until == nil {
		b.Until = map[string]int64{}
	}
	if b.Strikes == nil {
		b.Strikes = map[string]int64{}
	}
}

// DecodeUntil reads the persisted deadline map. Each value may be a number, a
// numeric string or an object with an "until" field; anything else is dropped
// and therefore reads as not blocked.
func DecodeUntil(raw json.RawMessage) map[string]int64 {
	out := map[string]int64{}
	obj, ok := domain.Object(raw)
	if !ok {
		return out
	}
	for k, v := range obj {
		if n, valid := domain.Int(v); valid {
			out[k] = n
			continue
		}
		if nested, isObj := domain.Object(v); isObj {
			if n, valid := domain.Int(nested["until"]); valid {
				out[k] = n
			}
		}
	}
	return out
}
