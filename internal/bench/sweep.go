package bench

import (
	"context"
	"math"
	"sort"

	crater "github.com/jamesainslie/go-crater"
)

// SweepResult holds metrics for one IoU threshold.
type SweepResult struct {
	Threshold float64
	Metrics   Metrics
}

// SweepThresholds generates threshold values from min to max (inclusive,
// within half a step) with the given step.
func SweepThresholds(min, max, step float64) []float64 {
	if step <= 0 {
		return nil
	}
	var thresholds []float64
	for i := 0; ; i++ {
		t := min + float64(i)*step
		if t > max+step/2 {
			break
		}
		thresholds = append(thresholds, t)
	}
	return thresholds
}

// Sweep evaluates several IoU thresholds against one matching of the dataset
// and returns results sorted by weighted score, best first. Undefined scores
// sort last.
func Sweep(ctx context.Context, s *crater.Scorer, ds *Dataset, cfg Config, thresholds []float64) ([]SweepResult, error) {
	matches, err := s.MatchDataset(ctx, ds.Truth, ds.Pred)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, len(thresholds))
	for _, threshold := range thresholds {
		counts, err := s.AtThreshold(threshold).Count(ctx, ds.Truth, ds.Pred, matches)
		if err != nil {
			return nil, err
		}
		results = append(results, SweepResult{
			Threshold: threshold,
			Metrics:   FromCounts(counts, cfg),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Metrics.WeightedScore, results[j].Metrics.WeightedScore
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})

	return results, nil
}
