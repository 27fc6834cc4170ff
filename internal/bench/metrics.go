package bench

import (
	"math"

	crater "github.com/jamesainslie/go-crater"
)

// Metrics holds detection counts and the ratios derived from them.
// Ratios with a zero denominator are NaN.
type Metrics struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
	WeightedScore  float64
}

// FromCounts derives Metrics from dataset counts.
func FromCounts(c crater.Counts, cfg Config) Metrics {
	tp := c.Correct
	m := Metrics{
		TruePositives:  tp,
		FalsePositives: c.Pred - tp,
		FalseNegatives: c.True - tp,
		Precision:      math.NaN(),
		Recall:         math.NaN(),
		F1:             math.NaN(),
		WeightedScore:  math.NaN(),
	}

	if p, err := c.Precision(); err == nil {
		m.Precision = p
	}
	if r, err := c.Recall(); err == nil {
		m.Recall = r
	}
	if math.IsNaN(m.Precision) || math.IsNaN(m.Recall) {
		return m
	}

	m.F1 = 0
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	wp := cfg.PrecisionWeight
	wr := cfg.RecallWeight
	if wp+wr > 0 {
		m.WeightedScore = (wp*m.Precision + wr*m.Recall) / (wp + wr)
	}

	return m
}
