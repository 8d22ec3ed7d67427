// Package selector picks one entity from a candidate list using the ledger.
//
// Three strategies are provided:
//   - Blend: weighted random draw over blended global/topic scores.
//   - UCB: smoothed CTR plus an uncertainty bonus, scaled by topic revenue, argmax.
//   - Greedy: epsilon-greedy over smoothed CTR with a capped volume bonus.
//
// Randomness is injected so that callers (and tests) control the sequence.
package selector

import (
	"fmt"
	"math/rand/v2"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
)

func requireCandidates(dimension string, candidates []string) error {
	if len(candidates) == 0 {
		return fmt.Errorf("%s: empty candidate list: %w", dimension, domain.ErrInvalidInput)
	}
	return nil
}

func uniform(rng *rand.Rand, candidates []string) string {
	return candidates[rng.IntN(len(candidates))]
}

// explore reports whether this draw should be a uniform exploration pick.
func explore(rng *rand.Rand, rate float64) bool {
	return rate > 0 && rng.Float64() < rate
}

// argmax returns the candidate with the highest score. Ties go to the first
// candidate in list order.
func argmax(candidates []string, score func(string) float64) string {
	best := candidates[0]
	bestScore := score(best)
	for _, c := range candidates[1:] {
		if s := score(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
