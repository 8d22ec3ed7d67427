package selector

import (
	"math/rand/v2"

	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
)

// Greedy defaults.
const (
	DefaultGreedyEpsilon    = 0.18
	DefaultPriorImpressions = 50.0
	DefaultVolumeScale      = 3000.0
	DefaultVolumeCap        = 0.6
)

// Greedy is epsilon-greedy over a smoothed CTR with a capped volume bonus.
type Greedy struct {
	Epsilon          float64
	PriorImpressions float64
	VolumeScale      float64
	VolumeCap        float64
}

// NewGreedy returns a Greedy with default parameters.
func NewGreedy() Greedy {
	return Greedy{
		Epsilon:          DefaultGreedyEpsilon,
		PriorImpressions: DefaultPriorImpressions,
		VolumeScale:      DefaultVolumeScale,
		VolumeCap:        DefaultVolumeCap,
	}
}

// Score returns (clicks+1)/(impressions+50) * (1 + min(0.6, impressions/3000)).
func (g Greedy) Score(r stats.Record) float64 {
	n := float64(r.Impressions)
	ctr := (float64(r.Clicks) + 1) / (n + g.PriorImpressions)
	volume := 0.0
	if g.VolumeScale > 0 {
		volume = min(g.VolumeCap, n/g.VolumeScale)
	}
	return ctr * (1 + volume)
}

// Select picks one candidate using table. A nil table scores every candidate
// equally, so the first candidate wins unless exploring.
func (g Greedy) Select(rng *rand.Rand, candidates []string, table stats.Table) (string, error) {
	if err := requireCandidates("greedy", candidates); err != nil {
		return "", err
	}
	if explore(rng, g.Epsilon) {
		return uniform(rng, candidates), nil
	}
	return argmax(candidates, func(id string) float64 {
		r, ok := table[id]
		if !ok {
			r = stats.Record{}
		}
		return g.Score(r)
	}), nil
}
