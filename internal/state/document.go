// Package state owns the single JSON document that persists every counter of
// the decision core between runs.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hayan-web/health-auto-blog-sub000/internal/blacklist"
	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
)

// Top-level keys owned by this package. Everything else is carried through
// untouched.
const (
	KeyImageStats      = "image_stats"
	KeyTopicStyleStats = "topic_style_stats"
	KeyThumbStats      = "thumb_title_stats"
	KeyTopicThumbStats = "topic_thumb_title_stats"
	KeyKeywordStats    = "keyword_stats"
	KeyLifeSubtopic    = "life_subtopic_stats"
	KeyCooldown        = "cooldown"
	KeyCooldownStrikes = "cooldown_strikes"
	KeyBlacklist       = "blacklist"
	KeyBlacklistLog    = "blacklist_log"
	KeyLimits          = "limits"
	KeyUsage           = "usage"
	KeyCoupangDaily    = "coupang_daily"
	KeyHistory         = "history"
)

// Document is the decoded state. Typed fields are never nil after New or
// UnmarshalJSON.
type Document struct {
	ImageStats      stats.Table
	ThumbStats      stats.Table
	KeywordStats    stats.Table
	LifeSubtopic    stats.Table
	TopicStyleStats stats.TopicTable
	TopicThumbStats stats.TopicTable

	Cooldowns *cooldown.Book
	Blacklist *blacklist.Book
	Budget    *budget.Ledger

	// Cursors maps a tracking log source to its ingest cursor.
	Cursors map[string]Cursor

	extra map[string]json.RawMessage
}

// New returns a fresh document holding only an empty history list.
func New() *Document {
	d := &Document{extra: map[string]json.RawMessage{KeyHistory: json.RawMessage("[]")}}
	d.ensure()
	return d
}

func (d *Document) ensure() {
	if d.ImageStats == nil {
		d.ImageStats = stats.Table{}
	}
	if d.ThumbStats == nil {
		d.ThumbStats = stats.Table{}
	}
	if d.KeywordStats == nil {
		d.KeywordStats = stats.Table{}
	}
	if d.LifeSubtopic == nil {
		d.LifeSubtopic = stats.Table{}
	}
	if d.TopicStyleStats == nil {
		d.TopicStyleStats = stats.TopicTable{}
	}
	if d.TopicThumbStats == nil {
		d.TopicThumbStats = stats.TopicTable{}
	}
	if d.Cooldowns == nil {
		d.Cooldowns = cooldown.NewBook()
	}
	if d.Blacklist == nil {
		d.Blacklist = blacklist.NewBook()
	}
	if d.Budget == nil {
		d.Budget = budget.NewLedger()
	}
	if d.Cursors == nil {
		d.Cursors = map[string]Cursor{}
	}
	if d.extra == nil {
		d.extra = map[string]json.RawMessage{}
	}
}

// Extra returns the raw value of a top-level key this package does not own.
func (d *Document) Extra(key string) (json.RawMessage, bool) {
	v, ok := d.extra[key]
	return v, ok
}

// UnmarshalJSON decodes a state document. The top level must be an object;
// below it, malformed values read as empty.
func (d *Document) UnmarshalJSON(b []byte) error {
	obj, ok := domain.Object(b)
	if !ok {
		return fmt.Errorf("state document: top level is not a JSON object")
	}

	*d = Document{extra: map[string]json.RawMessage{}}
	for key, raw := range obj {
		switch key {
		case KeyImageStats:
			_ = d.ImageStats.UnmarshalJSON(raw)
		case KeyThumbStats:
			_ = d.ThumbStats.UnmarshalJSON(raw)
		case KeyKeywordStats:
			_ = d.KeywordStats.UnmarshalJSON(raw)
		case KeyLifeSubtopic:
			_ = d.LifeSubtopic.UnmarshalJSON(raw)
		case KeyTopicStyleStats:
			_ = d.TopicStyleStats.UnmarshalJSON(raw)
		case KeyTopicThumbStats:
			_ = d.TopicThumbStats.UnmarshalJSON(raw)
		case KeyIngestCursor:
			d.Cursors = decodeCursors(raw)
		case KeyCooldown, KeyCooldownStrikes, KeyBlacklist, KeyBlacklistLog,
			KeyLimits, KeyUsage, KeyCoupangDaily:
			// decoded below so paired keys land in one struct
		default:
			d.extra[key] = raw
		}
	}

	d.Cooldowns = &cooldown.Book{
		Until:   cooldown.DecodeUntil(obj[KeyCooldown]),
		Strikes: domain.IntMap(obj[KeyCooldownStrikes]),
	}
	d.Blacklist = &blacklist.Book{
		Entries: blacklist.DecodeEntries(obj[KeyBlacklist]),
		Log:     blacklist.DecodeLog(obj[KeyBlacklistLog]),
	}
	d.Budget = &budget.Ledger{
		Usage:     budget.DecodeUsage(obj[KeyUsage]),
		Limits:    budget.DecodeLimits(obj[KeyLimits]),
		Affiliate: domain.IntMap(obj[KeyCoupangDaily]),
	}

	d.ensure()
	return nil
}

// MarshalJSON writes the owned keys plus every preserved unknown key.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.ensure()

	out := make(map[string]any, len(d.extra)+14)
	for k, v := range d.extra {
		out[k] = v
	}

	out[KeyImageStats] = d.ImageStats
	out[KeyThumbStats] = d.ThumbStats
	out[KeyKeywordStats] = d.KeywordStats
	out[KeyLifeSubtopic] = d.LifeSubtopic
	out[KeyTopicStyleStats] = d.TopicStyleStats
	out[KeyTopicThumbStats] = d.TopicThumbStats
	out[KeyCooldown] = nonNil(d.Cooldowns.Until)
	out[KeyCooldownStrikes] = nonNil(d.Cooldowns.Strikes)
	out[KeyBlacklist] = nonNil(d.Blacklist.Entries)
	out[KeyBlacklistLog] = nonNilSlice(d.Blacklist.Log)
	out[KeyLimits] = budget.Limits{
		PostsByDay: nonNil(d.Budget.Limits.PostsByDay),
		USDByMonth: nonNil(d.Budget.Limits.USDByMonth),
	}
	out[KeyUsage] = budget.Usage{
		Posts:    nonNil(d.Budget.Usage.Posts),
		Images:   nonNil(d.Budget.Usage.Images),
		SpendUSD: nonNil(d.Budget.Usage.SpendUSD),
	}
	out[KeyCoupangDaily] = nonNil(d.Budget.Affiliate)
	if len(d.Cursors) > 0 {
		out[KeyIngestCursor] = d.Cursors
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nonNil[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

func nonNilSlice[V any](s []V) []V {
	if s == nil {
		return []V{}
	}
	return s
}
