// Package stats is the click-through ledger: per-entity impression and click
// counters with a cached score, grouped into flat or topic-scoped tables.
package stats

import (
	"encoding/json"
	"math"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

const (
	// NeutralScore is the prior reported for entities that have no record yet.
	NeutralScore = 0.3

	// ScoreMultiplier scales CTR into a score.
	ScoreMultiplier = 1.5

	scorePrecision = 1e4
)

// Record is the ledger entry of one tracked entity.
// Clicks may exceed Impressions; click and impression events arrive independently.
type Record struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Score       float64 `json:"score"`
	LastUpdate  int64   `json:"last_update"`
}

// CTR returns clicks / max(1, impressions).
func CTR(impressions, clicks int64) float64 {
	return float64(clicks) / float64(max(1, impressions))
}

// Score returns round(clicks / max(1, impressions) * 1.5, 4).
func Score(impressions, clicks int64) float64 {
	return math.Round(CTR(impressions, clicks)*ScoreMultiplier*scorePrecision) / scorePrecision
}

// CTR returns the record's click-through rate.
func (r Record) CTR() float64 {
	return CTR(r.Impressions, r.Clicks)
}

// UnmarshalJSON reads each field leniently; malformed fields decode as zero.
func (r *Record) UnmarshalJSON(b []byte) error {
	*r = Record{}
	obj, ok := domain.Object(b)
	if !ok {
		return nil
	}
	r.Impressions, _ = domain.Int(obj["impressions"])
	r.Clicks, _ = domain.Int(obj["clicks"])
	r.Score, _ = domain.Float(obj["score"])
	r.LastUpdate = lastUpdate(obj["last_update"])
	return nil
}

// lastUpdate accepts unix seconds or an RFC 3339 string.
func lastUpdate(raw json.RawMessage) int64 {
	if n, ok := domain.Int(raw); ok {
		return n
	}
	if s, ok := domain.String(raw); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Unix()
		}
	}
	return 0
}

func defaultRecord() Record {
	return Record{Score: NeutralScore}
}
