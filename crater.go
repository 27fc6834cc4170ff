package crater

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/go-crater/assign"
	"github.com/jamesainslie/go-crater/geom"
	"github.com/jamesainslie/go-crater/ospa"
)

// Circle is a crater footprint: center (X, Y) and radius R in patch pixels.
type Circle = geom.Circle

// Scorer evaluates predicted circles against ground truth.
// It is safe for concurrent use.
type Scorer struct {
	ospa      ospa.Options
	threshold float64
	workers   int
	iou       geom.IoUFunc
	logger    *slog.Logger
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Scorer{
		ospa: ospa.Options{
			PNorm:        cfg.pNorm,
			Cutoff:       cfg.cutoff,
			GuardRatio:   cfg.guardRatio,
			GuardMinSize: cfg.guardMinSize,
			IoU:          cfg.iou,
		},
		threshold: cfg.threshold,
		workers:   cfg.workers,
		iou:       cfg.iou,
		logger:    cfg.logger,
	}
}

// Threshold returns the IoU acceptance threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// AtThreshold returns a copy of s using the given IoU acceptance threshold.
func (s *Scorer) AtThreshold(t float64) *Scorer {
	c := *s
	c.threshold = t
	return &c
}

// IoU returns the intersection-over-union of two circles using the scorer's
// primitive.
func (s *Scorer) IoU(a, b Circle) float64 {
	return s.iou(a, b)
}

// largeSearch is the assignment count above which an exhaustive OSPA search
// is logged as a warning before it starts.
var largeSearch = 10_000_000

// ScorePatch returns the OSPA quality score of one patch in [0, 1], where 1
// is a perfect match. Both lists empty scores 1; exactly one empty scores
// 1 - cutoff.
func (s *Scorer) ScorePatch(truth, pred []Circle) (float64, error) {
	res, err := s.ScorePatchDetail(truth, pred)
	if err != nil {
		return 0, err
	}
	return res.Score(), nil
}

// ScorePatchDetail is ScorePatch returning the full OSPA result, including the
// selected assignment.
func (s *Scorer) ScorePatchDetail(truth, pred []Circle) (ospa.Result, error) {
	if n := ospa.SearchSize(len(truth), len(pred), s.ospa); n > largeSearch {
		s.logger.Warn("large exhaustive ospa search",
			"true", len(truth), "pred", len(pred), "assignments", n)
	}

	res, err := ospa.Distance(truth, pred, s.ospa)
	if err != nil {
		return ospa.Result{}, fmt.Errorf("scoring patch: %w", err)
	}
	if res.Guarded {
		s.logger.Debug("ospa search skipped by size guard",
			"true", len(truth), "pred", len(pred))
	}
	return res, nil
}

// MatchPatch pairs true and predicted circles of one patch so that the total
// IoU is maximal. The result has min(len(truth), len(pred)) pairs.
func (s *Scorer) MatchPatch(truth, pred []Circle) (Match, error) {
	if len(truth) == 0 || len(pred) == 0 {
		return Match{}, nil
	}

	ious := make([][]float64, len(truth))
	cost := make([][]float64, len(truth))
	for i, t := range truth {
		ious[i] = make([]float64, len(pred))
		cost[i] = make([]float64, len(pred))
		for j, p := range pred {
			v := s.iou(t, p)
			if err := geom.CheckIoU(v); err != nil {
				return Match{}, fmt.Errorf("matching patch: true %d, predicted %d: %w", i, j, err)
			}
			ious[i][j] = v
			cost[i][j] = 1 - v
		}
	}

	rows, cols, err := assign.Solve(cost)
	if err != nil {
		return Match{}, fmt.Errorf("matching patch: %w", err)
	}

	pairs := make([]Pair, len(rows))
	for k := range rows {
		pairs[k] = Pair{True: rows[k], Pred: cols[k], IoU: ious[rows[k]][cols[k]]}
	}
	return Match{Pairs: pairs}, nil
}

// MatchDataset runs MatchPatch on every patch concurrently.
func (s *Scorer) MatchDataset(ctx context.Context, truth, pred [][]Circle) ([]Match, error) {
	if err := checkLengths(truth, pred); err != nil {
		return nil, err
	}

	matches := make([]Match, len(truth))
	err := s.forEachPatch(ctx, len(truth), func(i int) error {
		m, err := s.MatchPatch(truth[i], pred[i])
		if err != nil {
			return fmt.Errorf("patch %d: %w", i, err)
		}
		matches[i] = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("matched dataset", "patches", len(truth), "workers", s.workers)
	return matches, nil
}

// ScoreDataset runs ScorePatch on every patch concurrently.
func (s *Scorer) ScoreDataset(ctx context.Context, truth, pred [][]Circle) ([]float64, error) {
	if err := checkLengths(truth, pred); err != nil {
		return nil, err
	}

	scores := make([]float64, len(truth))
	err := s.forEachPatch(ctx, len(truth), func(i int) error {
		score, err := s.ScorePatch(truth[i], pred[i])
		if err != nil {
			return fmt.Errorf("patch %d: %w", i, err)
		}
		scores[i] = score
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Validate checks every circle of a dataset.
func (s *Scorer) Validate(truth, pred [][]Circle) error {
	if err := checkLengths(truth, pred); err != nil {
		return err
	}
	for i := range truth {
		for j, c := range truth[i] {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("patch %d true circle %d: %w", i, j, err)
			}
		}
		for j, c := range pred[i] {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("patch %d predicted circle %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// forEachPatch calls fn for patch indices [0, n) on at most s.workers
// goroutines. It stops scheduling on the first error or when ctx is done.
func (s *Scorer) forEachPatch(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return fn(i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func checkLengths(truth, pred [][]Circle) error {
	if len(truth) != len(pred) {
		return fmt.Errorf("%w: %d true, %d predicted", ErrLengthMismatch, len(truth), len(pred))
	}
	return nil
}

// IoU returns the intersection-over-union of two circles.
func IoU(a, b Circle) float64 {
	return geom.IoU(a, b)
}

// ScorePatch scores one patch with the default p-norm (1) and cutoff (1).
func ScorePatch(truth, pred []Circle) (float64, error) {
	return New().ScorePatch(truth, pred)
}

// MatchPatch pairs one patch's circles with the default IoU primitive.
func MatchPatch(truth, pred []Circle) (Match, error) {
	return New().MatchPatch(truth, pred)
}
