package selector

import (
	"math"
	"math/rand/v2"

	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
)

// UCB defaults. Alpha/Beta smooth the CTR toward a ~4% prior.
const (
	DefaultUCBEpsilon = 0.12
	DefaultUCBAlpha   = 1.0
	DefaultUCBBeta    = 25.0
	DefaultUCBBonus   = 0.35
	DefaultRPM        = 1.0
)

// DefaultRPMByTopic is the per-topic revenue weight.
func DefaultRPMByTopic() map[string]float64 {
	return map[string]float64{
		"health": 1.15,
		"it":     1.00,
		"life":   1.05,
	}
}

// UCB scores candidates by smoothed CTR plus an exploration bonus that shrinks
// with impressions, scaled by the topic's revenue weight.
type UCB struct {
	Epsilon    float64
	Alpha      float64
	Beta       float64
	Bonus      float64
	RPM        map[string]float64
	DefaultRPM float64
}

// NewUCB returns a UCB with default parameters.
func NewUCB() UCB {
	return UCB{
		Epsilon:    DefaultUCBEpsilon,
		Alpha:      DefaultUCBAlpha,
		Beta:       DefaultUCBBeta,
		Bonus:      DefaultUCBBonus,
		RPM:        DefaultRPMByTopic(),
		DefaultRPM: DefaultRPM,
	}
}

// RevenueWeight returns the rpm of topic.
func (u UCB) RevenueWeight(topic string) float64 {
	if w, ok := u.RPM[topic]; ok {
		return w
	}
	return u.DefaultRPM
}

// Score returns ((clicks+α)/(impressions+β) + c*sqrt(ln(1+n)/max(1,n))) * rpm.
func (u UCB) Score(r stats.Record, topic string) float64 {
	n := float64(r.Impressions)
	estimate := (float64(r.Clicks) + u.Alpha) / (n + u.Beta)
	bonus := u.Bonus * math.Sqrt(math.Log1p(n)/math.Max(1, n))
	return (estimate + bonus) * u.RevenueWeight(topic)
}

// ComboInput carries the candidates and ledger tables for a joint pick.
// Topic tables are preferred per candidate; the global table is the fallback.
type ComboInput struct {
	Topic        string
	Images       []string
	Thumbs       []string
	GlobalImages stats.Table
	TopicImages  stats.Table
	GlobalThumbs stats.Table
	TopicThumbs  stats.Table
}

// Combo is a jointly selected image style and thumbnail variant.
type Combo struct {
	ImageStyle   string `json:"image_style"`
	ThumbVariant string `json:"thumb_variant"`
	Explored     bool   `json:"explored"`
}

// SelectCombo picks the best image style and thumbnail variant for in.Topic.
func (u UCB) SelectCombo(rng *rand.Rand, in ComboInput) (Combo, error) {
	if err := requireCandidates("ucb image", in.Images); err != nil {
		return Combo{}, err
	}
	if err := requireCandidates("ucb thumbnail", in.Thumbs); err != nil {
		return Combo{}, err
	}

	if explore(rng, u.Epsilon) {
		return Combo{
			ImageStyle:   uniform(rng, in.Images),
			ThumbVariant: uniform(rng, in.Thumbs),
			Explored:     true,
		}, nil
	}

	return Combo{
		ImageStyle:   u.best(in.Topic, in.Images, in.TopicImages, in.GlobalImages),
		ThumbVariant: u.best(in.Topic, in.Thumbs, in.TopicThumbs, in.GlobalThumbs),
	}, nil
}

// Select picks a single candidate with the same scoring as SelectCombo.
func (u UCB) Select(rng *rand.Rand, topic string, candidates []string, topicTable, global stats.Table) (string, error) {
	if err := requireCandidates("ucb", candidates); err != nil {
		return "", err
	}
	if explore(rng, u.Epsilon) {
		return uniform(rng, candidates), nil
	}
	return u.best(topic, candidates, topicTable, global), nil
}

func (u UCB) best(topic string, candidates []string, topicTable, global stats.Table) string {
	return argmax(candidates, func(id string) float64 {
		return u.Score(observed(id, topicTable, global), topic)
	})
}

// observed returns the topic record when present, else the global record,
// else an empty record.
func observed(id string, topicTable, global stats.Table) stats.Record {
	if r, ok := topicTable[id]; ok {
		return r
	}
	if r, ok := global[id]; ok {
		return r
	}
	return stats.Record{}
}
