package crater

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jamesainslie/go-crater/geom"
)

// Counts holds dataset-wide circle totals.
type Counts struct {
	True    int // true circles
	Pred    int // predicted circles
	Correct int // matched pairs with IoU at or above the threshold
}

// Count totals circles and accepted matches over a dataset. When matches is
// nil the dataset is matched first.
func (s *Scorer) Count(ctx context.Context, truth, pred [][]Circle, matches []Match) (Counts, error) {
	matches, err := s.resolveMatches(ctx, truth, pred, matches)
	if err != nil {
		return Counts{}, err
	}

	var c Counts
	for i := range truth {
		c.True += len(truth[i])
		c.Pred += len(pred[i])
		c.Correct += len(matches[i].Accepted(s.threshold))
	}
	return c, nil
}

// Precision returns the fraction of predicted circles that were correctly
// matched. It returns ErrUndefinedMetric when there are no predictions.
func (s *Scorer) Precision(ctx context.Context, truth, pred [][]Circle, matches []Match) (float64, error) {
	c, err := s.Count(ctx, truth, pred, matches)
	if err != nil {
		return 0, err
	}
	return c.Precision()
}

// Recall returns the fraction of true circles that were correctly matched.
// It returns ErrUndefinedMetric when there are no true circles.
func (s *Scorer) Recall(ctx context.Context, truth, pred [][]Circle, matches []Match) (float64, error) {
	c, err := s.Count(ctx, truth, pred, matches)
	if err != nil {
		return 0, err
	}
	return c.Recall()
}

// MADRadius returns the mean of |r_pred - r_true| / r_true over accepted
// matches. It returns ErrUndefinedMetric when no match is accepted.
func (s *Scorer) MADRadius(ctx context.Context, truth, pred [][]Circle, matches []Match) (float64, error) {
	loc, err := s.locate(ctx, truth, pred, matches)
	if err != nil {
		return 0, err
	}
	return loc.madRadius()
}

// MADCenter returns the mean center distance over accepted matches, relative
// to the true radius. It returns ErrUndefinedMetric when no match is accepted.
func (s *Scorer) MADCenter(ctx context.Context, truth, pred [][]Circle, matches []Match) (float64, error) {
	loc, err := s.locate(ctx, truth, pred, matches)
	if err != nil {
		return 0, err
	}
	return loc.madCenter()
}

// Precision returns Correct / Pred.
func (c Counts) Precision() (float64, error) {
	if c.Pred == 0 {
		return 0, fmt.Errorf("%w: precision with no predicted circles", ErrUndefinedMetric)
	}
	return float64(c.Correct) / float64(c.Pred), nil
}

// Recall returns Correct / True.
func (c Counts) Recall() (float64, error) {
	if c.True == 0 {
		return 0, fmt.Errorf("%w: recall with no true circles", ErrUndefinedMetric)
	}
	return float64(c.Correct) / float64(c.True), nil
}

// located holds the circles of every accepted match, truth and prediction
// at the same position.
type located struct {
	truth []Circle
	pred  []Circle
}

func (s *Scorer) locate(ctx context.Context, truth, pred [][]Circle, matches []Match) (located, error) {
	matches, err := s.resolveMatches(ctx, truth, pred, matches)
	if err != nil {
		return located{}, err
	}

	var loc located
	for i, m := range matches {
		for _, p := range m.Accepted(s.threshold) {
			loc.truth = append(loc.truth, truth[i][p.True])
			loc.pred = append(loc.pred, pred[i][p.Pred])
		}
	}
	return loc, nil
}

func (l located) madRadius() (float64, error) {
	if len(l.truth) == 0 {
		return 0, fmt.Errorf("%w: radius deviation with no accepted matches", ErrUndefinedMetric)
	}
	dev := make([]float64, len(l.truth))
	for i, t := range l.truth {
		dev[i] = math.Abs((l.pred[i].R - t.R) / t.R)
	}
	return stat.Mean(dev, nil), nil
}

func (l located) madCenter() (float64, error) {
	if len(l.truth) == 0 {
		return 0, fmt.Errorf("%w: center deviation with no accepted matches", ErrUndefinedMetric)
	}
	dev := make([]float64, len(l.truth))
	for i, t := range l.truth {
		dev[i] = math.Abs(geom.CenterDistance(l.pred[i], t) / t.R)
	}
	return stat.Mean(dev, nil), nil
}

// resolveMatches returns matches after checking it against the dataset, or
// computes them when nil.
func (s *Scorer) resolveMatches(ctx context.Context, truth, pred [][]Circle, matches []Match) ([]Match, error) {
	if err := checkLengths(truth, pred); err != nil {
		return nil, err
	}
	if matches == nil {
		return s.MatchDataset(ctx, truth, pred)
	}
	if len(matches) != len(truth) {
		return nil, fmt.Errorf("%w: %d matches for %d patches", ErrMatchesMismatch, len(matches), len(truth))
	}
	for i, m := range matches {
		for _, p := range m.Pairs {
			if p.True < 0 || p.True >= len(truth[i]) || p.Pred < 0 || p.Pred >= len(pred[i]) {
				return nil, fmt.Errorf("%w: patch %d pair (%d, %d) with %d true and %d predicted circles",
					ErrInvalidMatch, i, p.True, p.Pred, len(truth[i]), len(pred[i]))
			}
		}
	}
	return matches, nil
}

// Precision computes dataset precision at the given IoU threshold. matches may
// be nil.
func Precision(truth, pred [][]Circle, matches []Match, iouThreshold float64) (float64, error) {
	return New(WithIoUThreshold(iouThreshold)).Precision(context.Background(), truth, pred, matches)
}

// Recall computes dataset recall at the given IoU threshold. matches may be nil.
func Recall(truth, pred [][]Circle, matches []Match, iouThreshold float64) (float64, error) {
	return New(WithIoUThreshold(iouThreshold)).Recall(context.Background(), truth, pred, matches)
}

// MADRadius computes the relative radius deviation at the given IoU threshold.
func MADRadius(truth, pred [][]Circle, matches []Match, iouThreshold float64) (float64, error) {
	return New(WithIoUThreshold(iouThreshold)).MADRadius(context.Background(), truth, pred, matches)
}

// MADCenter computes the relative center deviation at the given IoU threshold.
func MADCenter(truth, pred [][]Circle, matches []Match, iouThreshold float64) (float64, error) {
	return New(WithIoUThreshold(iouThreshold)).MADCenter(context.Background(), truth, pred, matches)
}
