package state

import (
	"fmt"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
)

// Namespace names one of the six stats tables by its top-level key.
type Namespace string

// The six namespaces.
const (
	NSImage        Namespace = KeyImageStats
	NSThumb        Namespace = KeyThumbStats
	NSTopicImage   Namespace = KeyTopicStyleStats
	NSTopicThumb   Namespace = KeyTopicThumbStats
	NSKeyword      Namespace = KeyKeywordStats
	NSLifeSubtopic Namespace = KeyLifeSubtopic
)

// Namespaces lists every namespace.
func Namespaces() []Namespace {
	return []Namespace{NSImage, NSThumb, NSTopicImage, NSTopicThumb, NSKeyword, NSLifeSubtopic}
}

// Scoped reports whether ns is nested by topic.
func (ns Namespace) Scoped() bool {
	return ns == NSTopicImage || ns == NSTopicThumb
}

// ParseNamespace validates a namespace name.
func ParseNamespace(s string) (Namespace, error) {
	for _, ns := range Namespaces() {
		if string(ns) == s {
			return ns, nil
		}
	}
	return "", fmt.Errorf("%w: unknown namespace %q", domain.ErrInvalidInput, s)
}

// Flat returns the table of a flat namespace.
func (d *Document) Flat(ns Namespace) (stats.Table, error) {
	d.ensure()
	switch ns {
	case NSImage:
		return d.ImageStats, nil
	case NSThumb:
		return d.ThumbStats, nil
	case NSKeyword:
		return d.KeywordStats, nil
	case NSLifeSubtopic:
		return d.LifeSubtopic, nil
	default:
		return nil, fmt.Errorf("%w: %s is not a flat namespace", domain.ErrInvalidInput, ns)
	}
}

// Scoped returns the nested table of a topic-scoped namespace.
func (d *Document) Scoped(ns Namespace) (stats.TopicTable, error) {
	d.ensure()
	switch ns {
	case NSTopicImage:
		return d.TopicStyleStats, nil
	case NSTopicThumb:
		return d.TopicThumbStats, nil
	default:
		return nil, fmt.Errorf("%w: %s is not topic scoped", domain.ErrInvalidInput, ns)
	}
}

// table resolves ns and key to the table holding the record and its id.
// Flat namespaces take one key, scoped namespaces take topic and id.
func (d *Document) table(ns Namespace, key []string, create bool) (stats.Table, string, error) {
	if ns.Scoped() {
		if len(key) != 2 {
			return nil, "", fmt.Errorf("%w: %s wants topic and id", domain.ErrInvalidInput, ns)
		}
		tt, err := d.Scoped(ns)
		if err != nil {
			return nil, "", err
		}
		if !create {
			return tt.Lookup(key[0]), key[1], nil
		}
		return tt.Table(key[0]), key[1], nil
	}

	if len(key) != 1 {
		return nil, "", fmt.Errorf("%w: %s wants a single id", domain.ErrInvalidInput, ns)
	}
	t, err := d.Flat(ns)
	return t, key[0], err
}

// Stat returns the record at key, or the neutral default when absent.
func (d *Document) Stat(ns Namespace, key ...string) (stats.Record, error) {
	t, id, err := d.table(ns, key, false)
	if err != nil {
		return stats.Record{}, err
	}
	return t.Get(id), nil
}

// RecordImpression increments impressions at key.
func (d *Document) RecordImpression(ns Namespace, now time.Time, key ...string) error {
	return d.AddImpressions(ns, 1, now, key...)
}

// AddImpressions adds n impressions at key.
func (d *Document) AddImpressions(ns Namespace, n int64, now time.Time, key ...string) error {
	t, id, err := d.table(ns, key, true)
	if err != nil {
		return err
	}
	t.AddImpressions(id, n, now)
	return nil
}

// RecordClick increments clicks at key.
func (d *Document) RecordClick(ns Namespace, now time.Time, key ...string) error {
	t, id, err := d.table(ns, key, true)
	if err != nil {
		return err
	}
	t.RecordClick(id, now)
	return nil
}

// UpdateScore recomputes the cached score at key.
func (d *Document) UpdateScore(ns Namespace, key ...string) error {
	t, id, err := d.table(ns, key, false)
	if err != nil {
		return err
	}
	t.UpdateScore(id)
	return nil
}

// Observation returns the ledger record a cooldown key is judged on.
func (d *Document) Observation(key cooldown.Key) cooldown.Observation {
	d.ensure()
	var rec stats.Record
	switch key.Kind {
	case cooldown.KindImage:
		rec = d.ImageStats.Get(key.ID)
	case cooldown.KindThumb:
		rec = d.ThumbStats.Get(key.ID)
	case cooldown.KindTopicImage:
		rec = d.TopicStyleStats.Get(key.Topic, key.ID)
	case cooldown.KindTopicThumb:
		rec = d.TopicThumbStats.Get(key.Topic, key.ID)
	}
	return cooldown.Observation{Key: key, Record: rec}
}

// CooldownObservations returns one observation per recorded entity across the
// four cooldown dimensions, in a stable order.
func (d *Document) CooldownObservations() []cooldown.Observation {
	d.ensure()
	var out []cooldown.Observation
	for _, id := range d.ImageStats.IDs() {
		out = append(out, cooldown.Observation{Key: cooldown.ImageKey(id), Record: d.ImageStats[id]})
	}
	for _, id := range d.ThumbStats.IDs() {
		out = append(out, cooldown.Observation{Key: cooldown.ThumbKey(id), Record: d.ThumbStats[id]})
	}
	for _, topic := range d.TopicStyleStats.Topics() {
		tbl := d.TopicStyleStats[topic]
		for _, id := range tbl.IDs() {
			out = append(out, cooldown.Observation{Key: cooldown.TopicImageKey(topic, id), Record: tbl[id]})
		}
	}
	for _, topic := range d.TopicThumbStats.Topics() {
		tbl := d.TopicThumbStats[topic]
		for _, id := range tbl.IDs() {
			out = append(out, cooldown.Observation{Key: cooldown.TopicThumbKey(topic, id), Record: tbl[id]})
		}
	}
	return out
}
