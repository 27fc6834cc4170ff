// Package ospa implements the Optimal Subpattern Assignment (OSPA) distance
// between two sets of circles, using circle IoU as the base similarity.
//
// The optimal assignment is found by exhaustive search over every injective
// mapping of the smaller set into the larger one. The search is bounded by a
// size guard: see GuardRatio and GuardMinSize.
//
// Reference: Schuhmacher, Vo, Vo, "A Consistent Metric for Performance
// Evaluation of Multi-Object Filters", IEEE TSP 2008.
package ospa

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/jamesainslie/go-crater/geom"
)

const (
	// GuardRatio and GuardMinSize bound the exhaustive search. When the larger
	// set has more than GuardRatio times as many circles as the smaller one and
	// more than GuardMinSize circles, Distance returns the worst-case distance
	// of 1 without searching.
	GuardRatio   = 4
	GuardMinSize = 15

	// DefaultPNorm is the default order of the OSPA p-norm.
	DefaultPNorm = 1.0

	// DefaultCutoff is the default cardinality penalty for an unmatched circle.
	DefaultCutoff = 1.0
)

// Options configures Distance.
type Options struct {
	// PNorm is the order p of the metric. Must be >= 1.
	PNorm float64
	// Cutoff is the penalty charged per unmatched circle. Must be > 0.
	Cutoff float64
	// GuardRatio and GuardMinSize override the search guard. Zero values use
	// the package defaults.
	GuardRatio   int
	GuardMinSize int
	// IoU is the similarity primitive. Nil uses geom.IoU.
	IoU geom.IoUFunc
}

// DefaultOptions returns the options used by the reference scorer.
func DefaultOptions() Options {
	return Options{
		PNorm:        DefaultPNorm,
		Cutoff:       DefaultCutoff,
		GuardRatio:   GuardRatio,
		GuardMinSize: GuardMinSize,
		IoU:          geom.IoU,
	}
}

func (o Options) withDefaults() Options {
	if o.PNorm <= 0 {
		o.PNorm = DefaultPNorm
	}
	if o.Cutoff <= 0 {
		o.Cutoff = DefaultCutoff
	}
	if o.GuardRatio <= 0 {
		o.GuardRatio = GuardRatio
	}
	if o.GuardMinSize <= 0 {
		o.GuardMinSize = GuardMinSize
	}
	if o.IoU == nil {
		o.IoU = geom.IoU
	}
	return o
}

// Pair is one assignment chosen by the search. X and Y index the first and
// second argument of Distance respectively.
type Pair struct {
	X   int
	Y   int
	IoU float64
}

// Result is the outcome of an OSPA evaluation.
type Result struct {
	// Distance is the OSPA distance in [0, 1] for cutoff 1. 0 is a perfect match.
	Distance float64
	// Pairs is the best assignment found, ordered by the smaller set's index.
	// Empty when either set is empty or the guard short-circuited.
	Pairs []Pair
	// Overlap is the best sum of IoU^p over Pairs.
	Overlap float64
	// Searched is the number of assignments evaluated.
	Searched int
	// Guarded is true when the size guard skipped the search.
	Guarded bool
}

// Score returns 1 - Distance.
func (r Result) Score() float64 {
	return 1 - r.Distance
}

// Distance returns the OSPA distance between x and y.
// It is symmetric and invariant to the order of circles within each set.
// An IoU primitive returning a value outside [0, 1] yields an error wrapping
// geom.ErrInvalidIoU.
func Distance(x, y []geom.Circle, opts Options) (Result, error) {
	opts = opts.withDefaults()

	swapped := false
	if len(x) > len(y) {
		x, y = y, x
		swapped = true
	}
	small, large := len(x), len(y)

	if guarded(small, large, opts) {
		return Result{Distance: 1, Guarded: true}, nil
	}

	if small == 0 {
		if large == 0 {
			return Result{}, nil
		}
		return Result{Distance: opts.Cutoff}, nil
	}

	p := opts.PNorm
	ious := make([][]float64, small)
	powered := make([][]float64, small)
	for j := range x {
		ious[j] = make([]float64, large)
		powered[j] = make([]float64, large)
		for k := range y {
			v := opts.IoU(x[j], y[k])
			if err := geom.CheckIoU(v); err != nil {
				if swapped {
					j, k = k, j
				}
				return Result{}, fmt.Errorf("circles %d and %d: %w", j, k, err)
			}
			ious[j][k] = v
			powered[j][k] = math.Pow(v, p)
		}
	}

	best := math.Inf(-1)
	var bestPerm []int

	terms := make([]float64, small)
	perm := make([]int, small)
	searched := 0

	gen := combin.NewPermutationGenerator(large, small)
	for gen.Next() {
		gen.Permutation(perm)
		for j, k := range perm {
			terms[j] = powered[j][k]
		}
		searched++

		if s := floats.Sum(terms); s > best {
			best = s
			bestPerm = append(bestPerm[:0], perm...)
		}
	}

	distanceTerm := float64(small) - best
	cardinalityTerm := math.Pow(opts.Cutoff, p) * float64(large-small)
	raw := math.Max(0, (distanceTerm+cardinalityTerm)/float64(large))

	pairs := make([]Pair, 0, len(bestPerm))
	for j, k := range bestPerm {
		pr := Pair{X: j, Y: k, IoU: ious[j][k]}
		if swapped {
			pr.X, pr.Y = pr.Y, pr.X
		}
		pairs = append(pairs, pr)
	}

	return Result{
		Distance: math.Pow(raw, 1/p),
		Pairs:    pairs,
		Overlap:  best,
		Searched: searched,
	}, nil
}

func guarded(small, large int, opts Options) bool {
	return large > opts.GuardRatio*small && large > opts.GuardMinSize
}

// SearchSize returns the number of assignments Distance evaluates for sets of
// sizes n and m under opts, or 0 when the guard or an empty set skips the
// search. Counts that do not fit in an int saturate at math.MaxInt.
func SearchSize(n, m int, opts Options) int {
	opts = opts.withDefaults()
	if n > m {
		n, m = m, n
	}
	if n == 0 || guarded(n, m, opts) {
		return 0
	}

	// m! / (m-n)!
	size := 1
	for f := m; f > m-n; f-- {
		if size > math.MaxInt/f {
			return math.MaxInt
		}
		size *= f
	}
	return size
}
