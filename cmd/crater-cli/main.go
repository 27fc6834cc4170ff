package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	crater "github.com/jamesainslie/go-crater"
)

func main() {
	truthArg := flag.String("true", "", `True circles as "x,y,r;x,y,r"`)
	predArg := flag.String("pred", "", `Predicted circles as "x,y,r;x,y,r"`)
	threshold := flag.Float64("threshold", crater.DefaultIoUThreshold, "IoU acceptance threshold")
	pNorm := flag.Float64("pnorm", 1, "OSPA p-norm order")
	cutoff := flag.Float64("cutoff", 1, "OSPA cardinality penalty")
	mode := flag.String("mode", "score", "Mode: score, match or iou")

	flag.Parse()

	truth, err := parseCircles(*truthArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -true: %v\n", err)
		os.Exit(1)
	}
	pred, err := parseCircles(*predArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -pred: %v\n", err)
		os.Exit(1)
	}

	s := crater.New(
		crater.WithIoUThreshold(*threshold),
		crater.WithPNorm(*pNorm),
		crater.WithCutoff(*cutoff),
	)

	switch *mode {
	case "score":
		res, err := s.ScorePatchDetail(truth, pred)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("True: %d  Predicted: %d\n", len(truth), len(pred))
		fmt.Printf("OSPA distance: %.4f\n", res.Distance)
		fmt.Printf("Score: %.4f\n", res.Score())
		fmt.Printf("Assignments searched: %d\n", res.Searched)
		if res.Guarded {
			fmt.Println("(search skipped: set sizes too unbalanced)")
		}
		for _, p := range res.Pairs {
			fmt.Printf("  true[%d] <-> pred[%d]  IoU %.4f\n", p.X, p.Y, p.IoU)
		}

	case "match":
		m, err := s.MatchPatch(truth, pred)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Pairs (%d):\n", m.Len())
		for _, p := range m.Pairs {
			accepted := " "
			if p.IoU >= s.Threshold() {
				accepted = "*"
			}
			fmt.Printf("  %s true[%d] <-> pred[%d]  IoU %.4f\n", accepted, p.True, p.Pred, p.IoU)
		}
		fmt.Printf("Accepted at IoU >= %.2f: %d\n", s.Threshold(), len(m.Accepted(s.Threshold())))

	case "iou":
		for i, t := range truth {
			for j, p := range pred {
				fmt.Printf("true[%d] pred[%d] %.4f\n", i, j, s.IoU(t, p))
			}
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown mode: %s\n", *mode)
		os.Exit(1)
	}
}

// parseCircles parses "x,y,r;x,y,r". An empty string is an empty set.
func parseCircles(s string) ([]crater.Circle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []crater.Circle
	for i, item := range strings.Split(s, ";") {
		fields := strings.Split(item, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("circle %d: want x,y,r, got %q", i, item)
		}
		var v [3]float64
		for k, f := range fields {
			x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("circle %d: %w", i, err)
			}
			v[k] = x
		}
		c := crater.Circle{X: v[0], Y: v[1], R: v[2]}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("circle %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}
