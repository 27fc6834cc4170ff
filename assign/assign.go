// Package assign solves the rectangular linear assignment problem.
//
// The n x m cost matrix is turned into a square profit matrix of side
// max(n, m), padded with zero-profit rows or columns, and handed to the
// Hungarian solver of github.com/arthurkushman/go-hungarian. Pairs that land
// on padding are dropped.
package assign

import (
	"errors"
	"fmt"
	"math"

	hungarian "github.com/arthurkushman/go-hungarian"
)

// ErrInvalidCost indicates a ragged matrix or a non-finite cost entry.
var ErrInvalidCost = errors.New("assign: invalid cost matrix")

// Solve returns a minimum-cost assignment for the rows x cols cost matrix.
//
// The result contains min(rows, cols) pairs: rows[k] is assigned to cols[k].
// Row indices are strictly increasing and no column repeats. An empty matrix,
// or one with zero columns, yields empty slices.
func Solve(cost [][]float64) (rows, cols []int, err error) {
	n := len(cost)
	if n == 0 {
		return nil, nil, nil
	}
	m := len(cost[0])
	for i, row := range cost {
		if len(row) != m {
			return nil, nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidCost, i, len(row), m)
		}
		for j, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, nil, fmt.Errorf("%w: entry (%d, %d) is %g", ErrInvalidCost, i, j, c)
			}
		}
	}
	if m == 0 {
		return nil, nil, nil
	}

	assigned := hungarian.SolveMax(profit(cost, n, m))

	want := min(n, m)
	rows = make([]int, 0, want)
	cols = make([]int, 0, want)
	for i := 0; i < n; i++ {
		for j := range assigned[i] {
			if j < m {
				rows = append(rows, i)
				cols = append(cols, j)
			}
		}
	}
	if len(rows) != want {
		return nil, nil, fmt.Errorf("assign: solver returned %d pairs, want %d", len(rows), want)
	}
	return rows, cols, nil
}

// profit maps cost to a square maximization problem. Every real entry becomes
// hi - cost, which is non-negative; padding entries are 0. Each complete
// assignment covers exactly min(n, m) real entries, so maximizing profit
// minimizes their total cost.
func profit(cost [][]float64, n, m int) [][]float64 {
	hi := math.Inf(-1)
	for _, row := range cost {
		for _, c := range row {
			hi = math.Max(hi, c)
		}
	}

	k := max(n, m)
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
		if i >= n {
			continue
		}
		for j, c := range cost[i] {
			out[i][j] = hi - c
		}
	}
	return out
}

// Cost returns the total cost of an assignment.
func Cost(cost [][]float64, rows, cols []int) float64 {
	var total float64
	for k := range rows {
		total += cost[rows[k]][cols[k]]
	}
	return total
}
