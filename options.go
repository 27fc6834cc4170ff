package crater

import (
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-crater/geom"
	"github.com/jamesainslie/go-crater/ospa"
)

// DefaultIoUThreshold is the IoU at or above which a matched pair counts as a
// correct detection.
const DefaultIoUThreshold = 0.5

// Option configures a Scorer.
type Option func(*config)

type config struct {
	pNorm        float64
	cutoff       float64
	threshold    float64
	guardRatio   int
	guardMinSize int
	workers      int
	iou          geom.IoUFunc
	logger       *slog.Logger
}

func defaultConfig() config {
	return config{
		pNorm:        ospa.DefaultPNorm,
		cutoff:       ospa.DefaultCutoff,
		threshold:    DefaultIoUThreshold,
		guardRatio:   ospa.GuardRatio,
		guardMinSize: ospa.GuardMinSize,
		workers:      runtime.NumCPU(),
		iou:          geom.IoU,
		logger:       slog.Default(),
	}
}

// WithPNorm sets the OSPA p-norm order (default: 1). Values below 1 are ignored.
func WithPNorm(p float64) Option {
	return func(c *config) {
		if p >= 1 {
			c.pNorm = p
		}
	}
}

// WithCutoff sets the OSPA cardinality penalty (default: 1).
func WithCutoff(cutoff float64) Option {
	return func(c *config) {
		if cutoff > 0 {
			c.cutoff = cutoff
		}
	}
}

// WithIoUThreshold sets the IoU acceptance threshold (default: 0.5).
func WithIoUThreshold(t float64) Option {
	return func(c *config) {
		c.threshold = t
	}
}

// WithSearchGuard overrides the OSPA exhaustive search guard
// (default: ratio 4, minimum size 15).
func WithSearchGuard(ratio, minSize int) Option {
	return func(c *config) {
		if ratio > 0 {
			c.guardRatio = ratio
		}
		if minSize > 0 {
			c.guardMinSize = minSize
		}
	}
}

// WithWorkers sets the number of patches evaluated concurrently
// (default: runtime.NumCPU()).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithIoU replaces the circle IoU primitive (default: geom.IoU).
func WithIoU(f geom.IoUFunc) Option {
	return func(c *config) {
		if f != nil {
			c.iou = f
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
