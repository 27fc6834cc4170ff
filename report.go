package crater

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Report holds every metric for one dataset. Metrics that cannot be computed
// are NaN and named in Undefined.
type Report struct {
	Patches   int
	Threshold float64
	Counts    Counts

	// OSPA is the mean ScorePatch over all patches.
	OSPA      float64
	Precision float64
	Recall    float64
	F1        float64
	MADRadius float64
	MADCenter float64

	Undefined []string
}

// Evaluate matches the dataset once and derives every metric from that
// matching. Undefined metrics are reported as NaN, not as errors.
func (s *Scorer) Evaluate(ctx context.Context, truth, pred [][]Circle) (Report, error) {
	matches, err := s.MatchDataset(ctx, truth, pred)
	if err != nil {
		return Report{}, err
	}
	scores, err := s.ScoreDataset(ctx, truth, pred)
	if err != nil {
		return Report{}, err
	}
	return s.report(ctx, truth, pred, matches, scores)
}

// EvaluateMatches is Evaluate with a precomputed matching and patch scores.
// scores may be nil to compute them.
func (s *Scorer) EvaluateMatches(ctx context.Context, truth, pred [][]Circle, matches []Match, scores []float64) (Report, error) {
	if scores == nil {
		var err error
		scores, err = s.ScoreDataset(ctx, truth, pred)
		if err != nil {
			return Report{}, err
		}
	}
	if len(scores) != len(truth) {
		return Report{}, fmt.Errorf("%w: %d patch scores for %d patches", ErrMatchesMismatch, len(scores), len(truth))
	}
	return s.report(ctx, truth, pred, matches, scores)
}

func (s *Scorer) report(ctx context.Context, truth, pred [][]Circle, matches []Match, scores []float64) (Report, error) {
	matches, err := s.resolveMatches(ctx, truth, pred, matches)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Patches:   len(truth),
		Threshold: s.threshold,
	}

	counts, err := s.Count(ctx, truth, pred, matches)
	if err != nil {
		return Report{}, err
	}
	r.Counts = counts

	loc, err := s.locate(ctx, truth, pred, matches)
	if err != nil {
		return Report{}, err
	}

	r.OSPA = math.NaN()
	if len(scores) > 0 {
		r.OSPA = stat.Mean(scores, nil)
	} else {
		r.Undefined = append(r.Undefined, "ospa")
	}

	if r.Precision, err = undefinedAsNaN(counts.Precision()); err != nil {
		r.Undefined = append(r.Undefined, "precision")
	}
	if r.Recall, err = undefinedAsNaN(counts.Recall()); err != nil {
		r.Undefined = append(r.Undefined, "recall")
	}

	switch {
	case math.IsNaN(r.Precision) || math.IsNaN(r.Recall):
		r.F1 = math.NaN()
		r.Undefined = append(r.Undefined, "f1")
	case r.Precision+r.Recall == 0:
		r.F1 = 0
	default:
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}

	if r.MADRadius, err = undefinedAsNaN(loc.madRadius()); err != nil {
		r.Undefined = append(r.Undefined, "mad_radius")
	}
	if r.MADCenter, err = undefinedAsNaN(loc.madCenter()); err != nil {
		r.Undefined = append(r.Undefined, "mad_center")
	}

	return r, nil
}

// Defined reports whether the named metric was computed.
func (r Report) Defined(metric string) bool {
	for _, u := range r.Undefined {
		if u == metric {
			return false
		}
	}
	return true
}

// undefinedAsNaN maps ErrUndefinedMetric to NaN and passes the error through
// so the caller can record it.
func undefinedAsNaN(v float64, err error) (float64, error) {
	if errors.Is(err, ErrUndefinedMetric) {
		return math.NaN(), err
	}
	return v, err
}
