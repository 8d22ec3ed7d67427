package state

import (
	"encoding/json"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

// KeyIngestCursor holds how far each tracking log has been ingested.
const KeyIngestCursor = "ingest_cursor"

// Cursor marks the events of one source already applied: everything stamped
// before Time, plus the first Seen events stamped exactly Time.
type Cursor struct {
	Time time.Time `json:"time"`
	Seen int64     `json:"seen"`
}

// IsZero reports whether nothing has been ingested yet.
func (c Cursor) IsZero() bool {
	return c.Time.IsZero()
}

// Cursor returns the ingest cursor of source.
func (d *Document) Cursor(source string) Cursor {
	return d.Cursors[source]
}

// SetCursor stores the ingest cursor of source.
func (d *Document) SetCursor(source string, c Cursor) {
	d.ensure()
	d.Cursors[source] = c
}

// decodeCursors drops entries without a parseable RFC3339 time or with a
// negative count.
func decodeCursors(raw json.RawMessage) map[string]Cursor {
	out := map[string]Cursor{}
	obj, ok := domain.Object(raw)
	if !ok {
		return out
	}
	for source, v := range obj {
		fields, valid := domain.Object(v)
		if !valid {
			continue
		}
		ts, valid := domain.String(fields["time"])
		if !valid {
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			continue
		}
		seen, _ := domain.Int(fields["seen"])
		if seen < 0 {
			continue
		}
		out[source] = Cursor{Time: at, Seen: seen}
	}
	return out
}
