package stats

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

// Table maps entity id to its record. Mutating methods require a non-nil
// table; reads on a nil table return defaults.
type Table map[string]Record

// Get returns the record for id, or the neutral default
// (0 impressions, 0 clicks, score 0.3) when absent.
func (t Table) Get(id string) Record {
	if r, ok := t[id]; ok {
		return r
	}
	return defaultRecord()
}

// Has reports whether id has a record.
func (t Table) Has(id string) bool {
	_, ok := t[id]
	return ok
}

// RecordImpression increments impressions for id, creating the record if needed.
func (t Table) RecordImpression(id string, now time.Time) {
	t.AddImpressions(id, 1, now)
}

// AddImpressions adds n impressions to id. n <= 0 is a no-op.
func (t Table) AddImpressions(id string, n int64, now time.Time) {
	if n <= 0 {
		return
	}
	r := t[id]
	r.Impressions += n
	r.LastUpdate = now.Unix()
	t[id] = r
}

// RecordClick increments clicks for id. It never fails, even when the entity
// has no impressions.
func (t Table) RecordClick(id string, now time.Time) {
	r := t[id]
	r.Clicks++
	r.LastUpdate = now.Unix()
	t[id] = r
}

// UpdateScore recomputes the cached score of id from its counters. Absent ids
// are left absent.
func (t Table) UpdateScore(id string) {
	r, ok := t[id]
	if !ok {
		return
	}
	r.Score = Score(r.Impressions, r.Clicks)
	t[id] = r
}

// IDs returns the recorded ids in sorted order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UnmarshalJSON drops entries that are not objects, so a malformed entry reads
// as an unknown entity.
func (t *Table) UnmarshalJSON(b []byte) error {
	out := Table{}
	obj, ok := domain.Object(b)
	if ok {
		for id, raw := range obj {
			if _, isObj := domain.Object(raw); !isObj {
				continue
			}
			var r Record
			_ = r.UnmarshalJSON(raw)
			out[id] = r
		}
	}
	*t = out
	return nil
}

// TopicTable nests tables by topic.
type TopicTable map[string]Table

// Table returns the table of topic, creating it if needed.
func (t TopicTable) Table(topic string) Table {
	tbl, ok := t[topic]
	if !ok || tbl == nil {
		tbl = Table{}
		t[topic] = tbl
	}
	return tbl
}

// Lookup returns the table of topic without creating it. The result may be nil.
func (t TopicTable) Lookup(topic string) Table {
	return t[topic]
}

// Get returns the record of id within topic, or the neutral default.
func (t TopicTable) Get(topic, id string) Record {
	return t[topic].Get(id)
}

// Topics returns the topics in sorted order.
func (t TopicTable) Topics() []string {
	topics := make([]string, 0, len(t))
	for topic := range t {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// UnmarshalJSON skips topics whose value is not an object.
func (t *TopicTable) UnmarshalJSON(b []byte) error {
	out := TopicTable{}
	obj, ok := domain.Object(b)
	if ok {
		for topic, raw := range obj {
			if _, isObj := domain.Object(raw); !isObj {
				continue
			}
			var tbl Table
			_ = tbl.UnmarshalJSON(raw)
			out[topic] = tbl
		}
	}
	*t = out
	return nil
}

// MarshalJSON keeps the table shape stable when empty.
func (t TopicTable) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Table(t))
}
