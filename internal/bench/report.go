package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	crater "github.com/jamesainslie/go-crater"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Run is one evaluation of a prediction file against ground truth.
type Run struct {
	ID        string
	StartedAt time.Time
	Config    Config
	Patches   int
	Report    crater.Report
	Metrics   Metrics
	Sweep     []SweepResult
}

// NewRun stamps an evaluation report with a fresh run id.
func NewRun(cfg Config, report crater.Report, sweep []SweepResult) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Config:    cfg,
		Patches:   report.Patches,
		Report:    report,
		Metrics:   FromCounts(report.Counts, cfg),
		Sweep:     sweep,
	}
}

// runDoc is the serialized form of a Run. Undefined metrics encode as null.
type runDoc struct {
	ID           string     `json:"id" yaml:"id"`
	StartedAt    time.Time  `json:"started_at" yaml:"started_at"`
	Truth        string     `json:"truth,omitempty" yaml:"truth,omitempty"`
	Predictions  string     `json:"predictions,omitempty" yaml:"predictions,omitempty"`
	IoUThreshold float64    `json:"iou_threshold" yaml:"iou_threshold"`
	PNorm        float64    `json:"p_norm" yaml:"p_norm"`
	Cutoff       float64    `json:"cutoff" yaml:"cutoff"`
	Patches      int        `json:"patches" yaml:"patches"`
	TrueCircles  int        `json:"true_circles" yaml:"true_circles"`
	PredCircles  int        `json:"pred_circles" yaml:"pred_circles"`
	Correct      int        `json:"correct" yaml:"correct"`
	OSPA         *float64   `json:"ospa" yaml:"ospa"`
	Precision    *float64   `json:"precision" yaml:"precision"`
	Recall       *float64   `json:"recall" yaml:"recall"`
	F1           *float64   `json:"f1" yaml:"f1"`
	Weighted     *float64   `json:"weighted" yaml:"weighted"`
	MADRadius    *float64   `json:"mad_radius" yaml:"mad_radius"`
	MADCenter    *float64   `json:"mad_center" yaml:"mad_center"`
	Sweep        []sweepDoc `json:"sweep,omitempty" yaml:"sweep,omitempty"`
}

type sweepDoc struct {
	Threshold float64  `json:"threshold" yaml:"threshold"`
	Correct   int      `json:"correct" yaml:"correct"`
	Precision *float64 `json:"precision" yaml:"precision"`
	Recall    *float64 `json:"recall" yaml:"recall"`
	F1        *float64 `json:"f1" yaml:"f1"`
	Weighted  *float64 `json:"weighted" yaml:"weighted"`
}

func defined(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func (r *Run) document() runDoc {
	d := runDoc{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		Truth:        r.Config.Truth,
		Predictions:  r.Config.Predictions,
		IoUThreshold: r.Report.Threshold,
		PNorm:        r.Config.PNorm,
		Cutoff:       r.Config.Cutoff,
		Patches:      r.Patches,
		TrueCircles:  r.Report.Counts.True,
		PredCircles:  r.Report.Counts.Pred,
		Correct:      r.Report.Counts.Correct,
		OSPA:         defined(r.Report.OSPA),
		Precision:    defined(r.Report.Precision),
		Recall:       defined(r.Report.Recall),
		F1:           defined(r.Report.F1),
		Weighted:     defined(r.Metrics.WeightedScore),
		MADRadius:    defined(r.Report.MADRadius),
		MADCenter:    defined(r.Report.MADCenter),
	}
	for _, s := range r.Sweep {
		d.Sweep = append(d.Sweep, sweepDoc{
			Threshold: s.Threshold,
			Correct:   s.Metrics.TruePositives,
			Precision: defined(s.Metrics.Precision),
			Recall:    defined(s.Metrics.Recall),
			F1:        defined(s.Metrics.F1),
			Weighted:  defined(s.Metrics.WeightedScore),
		})
	}
	return d
}

// Write renders r in the named format.
func Write(w io.Writer, r *Run, format string) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteJSON renders r as indented JSON.
func WriteJSON(w io.Writer, r *Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.document()); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML renders r as YAML.
func WriteYAML(w io.Writer, r *Run) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.document()); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteText renders r as a human-readable summary.
func WriteText(w io.Writer, r *Run) error {
	var b strings.Builder
	c := r.Report.Counts

	fmt.Fprintf(&b, "Run %s (%d patches, IoU >= %.2f)\n", r.ID, r.Patches, r.Report.Threshold)
	fmt.Fprintln(&b, strings.Repeat("-", 50))
	fmt.Fprintf(&b, "OSPA score: %s\n", formatMetric(r.Report.OSPA))
	fmt.Fprintf(&b, "Precision: %s  Recall: %s  F1: %s  Weighted: %s\n",
		formatMetric(r.Report.Precision), formatMetric(r.Report.Recall),
		formatMetric(r.Report.F1), formatMetric(r.Metrics.WeightedScore))
	fmt.Fprintf(&b, "MAD radius: %s  MAD center: %s\n",
		formatMetric(r.Report.MADRadius), formatMetric(r.Report.MADCenter))
	fmt.Fprintf(&b, "(true: %d, predicted: %d, correct: %d)\n", c.True, c.Pred, c.Correct)

	if len(r.Sweep) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "IoU Threshold Sweep (wp=%.1f, wr=%.1f)\n", r.Config.PrecisionWeight, r.Config.RecallWeight)
		fmt.Fprintln(&b, strings.Repeat("-", 50))
		fmt.Fprintf(&b, "%-8s %-8s %-8s %-8s %-8s\n", "Thresh", "Prec", "Rec", "F1", "Weighted")
		for _, s := range sortedByThreshold(r.Sweep) {
			fmt.Fprintf(&b, "%-8.3f %-8s %-8s %-8s %-8s\n", s.Threshold,
				formatMetric(s.Metrics.Precision), formatMetric(s.Metrics.Recall),
				formatMetric(s.Metrics.F1), formatMetric(s.Metrics.WeightedScore))
		}
		fmt.Fprintln(&b, strings.Repeat("-", 50))
		best := r.Sweep[0]
		fmt.Fprintf(&b, "Optimal: %.3f (Weighted: %s)\n", best.Threshold, formatMetric(best.Metrics.WeightedScore))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

func sortedByThreshold(results []SweepResult) []SweepResult {
	out := append([]SweepResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Threshold < out[j].Threshold
	})
	return out
}
