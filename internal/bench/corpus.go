// Package bench provides the evaluation harness for crater detections: label
// file loading, configuration, threshold sweeps and reports.
package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	crater "github.com/jamesainslie/go-crater"
)

// PatchSet holds the circles of one label file grouped by patch id.
type PatchSet struct {
	IDs     []string // in order of first appearance
	Circles map[string][]crater.Circle
}

// Dataset is a pair of aligned truth and prediction patch lists.
type Dataset struct {
	IDs   []string
	Truth [][]crater.Circle
	Pred  [][]crater.Circle
}

// Circles returns the total number of true and predicted circles.
func (d *Dataset) Circles() (truth, pred int) {
	for i := range d.IDs {
		truth += len(d.Truth[i])
		pred += len(d.Pred[i])
	}
	return truth, pred
}

// ParseCircles reads CSV rows of the form patch,x,y,radius. A leading header
// row starting with "patch" is skipped. A row holding only a patch id declares
// a patch with no circles. Every circle is validated.
func ParseCircles(r io.Reader, name string) (*PatchSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	set := &PatchSet{Circles: make(map[string][]crater.Circle)}
	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		if first && strings.EqualFold(strings.TrimSpace(rec[0]), "patch") {
			continue
		}

		id := strings.TrimSpace(rec[0])
		if id == "" {
			return nil, fmt.Errorf("%s:%d: empty patch id", name, line)
		}
		if _, ok := set.Circles[id]; !ok {
			set.IDs = append(set.IDs, id)
			set.Circles[id] = nil
		}

		if len(rec) == 1 || (len(rec) == 4 && rec[1] == "" && rec[2] == "" && rec[3] == "") {
			continue
		}
		if len(rec) != 4 {
			return nil, fmt.Errorf("%s:%d: got %d fields, want 4", name, line, len(rec))
		}

		c, err := parseCircle(rec[1:])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, line, err)
		}
		set.Circles[id] = append(set.Circles[id], c)
	}

	return set, nil
}

func parseCircle(fields []string) (crater.Circle, error) {
	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return crater.Circle{}, fmt.Errorf("parse %q: %w", f, err)
		}
		v[i] = x
	}
	c := crater.Circle{X: v[0], Y: v[1], R: v[2]}
	if err := c.Validate(); err != nil {
		return crater.Circle{}, err
	}
	return c, nil
}

// LoadCircles loads a label file. Files ending in .gz or .zst are
// decompressed.
func LoadCircles(path string) (*PatchSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	return ParseCircles(r, filepath.Base(path))
}

// Align pairs truth and prediction patches by id. Patches present on one side
// only get an empty list on the other. IDs are sorted.
func Align(truth, pred *PatchSet) *Dataset {
	seen := make(map[string]bool, len(truth.IDs))
	var ids []string
	for _, set := range []*PatchSet{truth, pred} {
		for _, id := range set.IDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)

	ds := &Dataset{
		IDs:   ids,
		Truth: make([][]crater.Circle, len(ids)),
		Pred:  make([][]crater.Circle, len(ids)),
	}
	for i, id := range ids {
		ds.Truth[i] = truth.Circles[id]
		ds.Pred[i] = pred.Circles[id]
	}
	return ds
}

// LoadDataset loads and aligns a truth and a prediction label file.
func LoadDataset(truthPath, predPath string) (*Dataset, error) {
	truth, err := LoadCircles(truthPath)
	if err != nil {
		return nil, fmt.Errorf("loading truth: %w", err)
	}
	pred, err := LoadCircles(predPath)
	if err != nil {
		return nil, fmt.Errorf("loading predictions: %w", err)
	}
	return Align(truth, pred), nil
}
