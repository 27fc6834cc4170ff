package crater

// Pair is one true/predicted circle correspondence within a patch.
type Pair struct {
	True int
	Pred int
	IoU  float64
}

// Match is the assignment found for one patch. It holds min(n_true, n_pred)
// pairs ordered by true index; no index repeats on either side.
type Match struct {
	Pairs []Pair
}

// Len returns the number of matched pairs.
func (m Match) Len() int {
	return len(m.Pairs)
}

// Accepted returns the pairs whose IoU is at or above threshold.
func (m Match) Accepted(threshold float64) []Pair {
	var out []Pair
	for _, p := range m.Pairs {
		if p.IoU >= threshold {
			out = append(out, p)
		}
	}
	return out
}

// TrueIndices returns the true-circle index of every pair.
func (m Match) TrueIndices() []int {
	out := make([]int, len(m.Pairs))
	for i, p := range m.Pairs {
		out[i] = p.True
	}
	return out
}

// PredIndices returns the predicted-circle index of every pair.
func (m Match) PredIndices() []int {
	out := make([]int, len(m.Pairs))
	for i, p := range m.Pairs {
		out[i] = p.Pred
	}
	return out
}

// IoUs returns the IoU of every pair.
func (m Match) IoUs() []float64 {
	out := make([]float64, len(m.Pairs))
	for i, p := range m.Pairs {
		out[i] = p.IoU
	}
	return out
}
