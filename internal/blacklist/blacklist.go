// Package blacklist keeps keywords out of rotation for a number of KST days.
package blacklist

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

// DefaultDays is the block length used when none is given.
const DefaultDays = 3

// LogEntry is one append-only record of a blacklisting.
type LogEntry struct {
	Keyword string `json:"keyword"`
	Until   string `json:"until"`
	Reason  string `json:"reason"`
	TS      int64  `json:"ts"`
}

// Book maps keyword to the last KST day (inclusive) it stays blacklisted.
type Book struct {
	Entries map[string]string
	Log     []LogEntry
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{Entries: map[string]string{}, Log: []LogEntry{}}
}

// Add blacklists keyword through today+days. An existing entry is overwritten,
// never extended. days <= 0 uses DefaultDays.
func (b *Book) Add(keyword string, days int, reason string, now time.Time) string {
	if days <= 0 {
		days = DefaultDays
	}
	if b.Entries == nil {
		b.Entries = map[string]string{}
	}

	until := domain.AddDays(now, days)
	b.Entries[keyword] = until
	b.Log = append(b.Log, LogEntry{
		Keyword: keyword,
		Until:   until,
		Reason:  reason,
		TS:      now.Unix(),
	})
	return until
}

// IsBlacklisted reports whether today (KST) <= until for keyword. The
// comparison is lexical, which orders YYYY-MM-DD dates correctly.
func (b *Book) IsBlacklisted(keyword string, now time.Time) bool {
	if b == nil {
		return false
	}
	until, ok := b.Entries[keyword]
	if !ok || until == "" {
		return false
	}
	return domain.DayKey(now) <= until
}

// Filter returns the keywords that are not blacklisted, in input order.
func (b *Book) Filter(keywords []string, now time.Time) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if !b.IsBlacklisted(kw, now) {
			out = append(out, kw)
		}
	}
	return out
}

// Entry is a listing row.
type Entry struct {
	Keyword string `json:"keyword"`
	Until   string `json:"until"`
	Active  bool   `json:"active"`
}

// List returns all entries sorted by keyword.
func (b *Book) List(now time.Time) []Entry {
	if b == nil {
		return nil
	}
	out := make([]Entry, 0, len(b.Entries))
	for kw, until := range b.Entries {
		out = append(out, Entry{Keyword: kw, Until: until, Active: b.IsBlacklisted(kw, now)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out
}

// DecodeEntries reads the persisted keyword map. Entries whose until is not a
// YYYY-MM-DD date are dropped, so a hand-edited value never blocks a keyword.
func DecodeEntries(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	obj, ok := domain.Object(raw)
	if !ok {
		return out
	}
	for kw, v := range obj {
		s, valid := domain.String(v)
		if !valid {
			continue
		}
		s = strings.TrimSpace(s)
		if _, err := time.ParseInLocation(domain.DayLayout, s, domain.KST); err != nil {
			continue
		}
		out[kw] = s
	}
	return out
}

// DecodeLog reads the persisted log. Malformed entries are skipped.
func DecodeLog(raw json.RawMessage) []LogEntry {
	out := []LogEntry{}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		obj, ok := domain.Object(item)
		if !ok {
			continue
		}
		var e LogEntry
		e.Keyword, _ = domain.String(obj["keyword"])
		e.Until, _ = domain.String(obj["until"])
		e.Reason, _ = domain.String(obj["reason"])
		e.TS, _ = domain.Int(obj["ts"])
		out = append(out, e)
	}
	return out
}
