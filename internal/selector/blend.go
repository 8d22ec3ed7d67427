package selector

import (
	"math/rand/v2"

	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
)

// Blend defaults.
const (
	DefaultExploreRate     = 0.12
	DefaultTopicWeight     = 0.65
	DefaultRampImpressions = 10
	DefaultWeightFloor     = 0.10
)

// Blend draws a candidate at random, weighted by a mix of its global score and
// its topic score. Topic confidence ramps up linearly over the first
// RampImpressions topic impressions.
type Blend struct {
	ExploreRate     float64
	TopicWeight     float64
	RampImpressions float64
	WeightFloor     float64
}

// NewBlend returns a Blend with default parameters.
func NewBlend() Blend {
	return Blend{
		ExploreRate:     DefaultExploreRate,
		TopicWeight:     DefaultTopicWeight,
		RampImpressions: DefaultRampImpressions,
		WeightFloor:     DefaultWeightFloor,
	}
}

// TopicShare returns topic_weight * min(1, impressions / ramp).
func (b Blend) TopicShare(topicImpressions int64) float64 {
	if b.RampImpressions <= 0 {
		return b.TopicWeight
	}
	return b.TopicWeight * min(1, float64(topicImpressions)/b.RampImpressions)
}

// Weight returns the floored blended weight of id.
func (b Blend) Weight(id string, global, topic stats.Table) float64 {
	t := topic.Get(id)
	w := b.TopicShare(t.Impressions)
	blended := (1-w)*global.Get(id).Score + w*t.Score
	return max(b.WeightFloor, blended)
}

// Weights returns the weight of every candidate, in order.
func (b Blend) Weights(candidates []string, global, topic stats.Table) []float64 {
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = b.Weight(c, global, topic)
	}
	return weights
}

// Select picks one candidate. global and topic may be nil; missing records
// read as the neutral prior.
func (b Blend) Select(rng *rand.Rand, candidates []string, global, topic stats.Table) (string, error) {
	if err := requireCandidates("blend", candidates); err != nil {
		return "", err
	}
	if explore(rng, b.ExploreRate) {
		return uniform(rng, candidates), nil
	}
	return weightedDraw(rng, candidates, b.Weights(candidates, global, topic)), nil
}

func weightedDraw(rng *rand.Rand, candidates []string, weights []float64) string {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return uniform(rng, candidates)
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return candidates[i]
		}
		r -= w
	}
	return candidates[len(candidates)-1]
}
