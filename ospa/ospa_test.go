package ospa

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-crater/geom"
)

func circles(n int, rng *rand.Rand) []geom.Circle {
	out := make([]geom.Circle, n)
	for i := range out {
		out[i] = geom.Circle{X: rng.Float64() * 30, Y: rng.Float64() * 30, R: 2 + rng.Float64()*6}
	}
	return out
}

func mustDistance(t *testing.T, x, y []geom.Circle, opts Options) Result {
	t.Helper()
	res, err := Distance(x, y, opts)
	require.NoError(t, err)
	return res
}

// farAway returns n circles that overlap nothing near the origin.
func farAway(n int) []geom.Circle {
	out := make([]geom.Circle, n)
	for i := range out {
		out[i] = geom.Circle{X: 1000 + float64(i)*100, Y: 1000, R: 1}
	}
	return out
}

func TestDistance(t *testing.T) {
	a := geom.Circle{X: 0, Y: 0, R: 5}
	b := geom.Circle{X: 20, Y: 20, R: 3}

	tests := []struct {
		name     string
		x, y     []geom.Circle
		opts     Options
		want     float64
		wantPair int
	}{
		{
			name: "both empty",
			opts: DefaultOptions(),
			want: 0,
		},
		{
			name: "no predictions",
			x:    []geom.Circle{a},
			opts: DefaultOptions(),
			want: 1,
		},
		{
			name: "no truth with custom cutoff",
			y:    []geom.Circle{a, b},
			opts: Options{Cutoff: 0.4},
			want: 0.4,
		},
		{
			name:     "identical single",
			x:        []geom.Circle{a},
			y:        []geom.Circle{a},
			opts:     DefaultOptions(),
			want:     0,
			wantPair: 1,
		},
		{
			name:     "one missed",
			x:        []geom.Circle{a, b},
			y:        []geom.Circle{a},
			opts:     DefaultOptions(),
			want:     0.5,
			wantPair: 1,
		},
		{
			name:     "reordered",
			x:        []geom.Circle{a, b},
			y:        []geom.Circle{b, a},
			opts:     DefaultOptions(),
			want:     0,
			wantPair: 2,
		},
		{
			name:     "all disjoint",
			x:        []geom.Circle{a},
			y:        farAway(2),
			opts:     DefaultOptions(),
			want:     1,
			wantPair: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustDistance(t, tt.x, tt.y, tt.opts)
			assert.InDelta(t, tt.want, got.Distance, 1e-12)
			assert.InDelta(t, 1-tt.want, got.Score(), 1e-12)
			assert.Len(t, got.Pairs, tt.wantPair)
			assert.False(t, got.Guarded)
		})
	}
}

func TestDistance_PairsUseArgumentOrder(t *testing.T) {
	a := geom.Circle{X: 0, Y: 0, R: 5}
	b := geom.Circle{X: 20, Y: 20, R: 3}

	// x is larger, so the search runs swapped internally.
	got := mustDistance(t, []geom.Circle{b, a}, []geom.Circle{a}, DefaultOptions())
	require.Len(t, got.Pairs, 1)
	assert.Equal(t, Pair{X: 1, Y: 0, IoU: 1}, got.Pairs[0])
}

func TestDistance_Guard(t *testing.T) {
	tests := []struct {
		name        string
		small       int
		large       int
		wantGuarded bool
	}{
		{name: "empty against sixteen", small: 0, large: 16, wantGuarded: true},
		{name: "one against twenty", small: 1, large: 20, wantGuarded: true},
		{name: "empty against fifteen", small: 0, large: 15, wantGuarded: false},
		{name: "three against fifteen", small: 3, large: 15, wantGuarded: false},
		{name: "four against sixteen", small: 4, large: 16, wantGuarded: false},
		{name: "four against seventeen", small: 4, large: 17, wantGuarded: true},
	}

	rng := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := circles(tt.small, rng)
			y := circles(tt.large, rng)

			got := mustDistance(t, x, y, DefaultOptions())
			assert.Equal(t, tt.wantGuarded, got.Guarded)
			if tt.wantGuarded {
				assert.Equal(t, 1.0, got.Distance)
				assert.Zero(t, got.Searched)
			}
			assert.Equal(t, SearchSize(tt.small, tt.large, DefaultOptions()), got.Searched)

			// Guard applies regardless of argument order.
			assert.Equal(t, got.Guarded, mustDistance(t, y, x, DefaultOptions()).Guarded)
		})
	}
}

func TestDistance_CustomGuard(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x := circles(1, rng)
	y := circles(5, rng)

	opts := DefaultOptions()
	opts.GuardRatio = 2
	opts.GuardMinSize = 3

	got := mustDistance(t, x, y, opts)
	assert.True(t, got.Guarded)
	assert.False(t, mustDistance(t, x, y, DefaultOptions()).Guarded)
}

func TestDistance_Symmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		x := circles(rng.Intn(4), rng)
		y := circles(rng.Intn(5), rng)

		xy := mustDistance(t, x, y, DefaultOptions())
		yx := mustDistance(t, y, x, DefaultOptions())
		assert.InDelta(t, xy.Distance, yx.Distance, 1e-12)
	}
}

func TestDistance_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 50; i++ {
		x := circles(1+rng.Intn(4), rng)
		y := circles(1+rng.Intn(5), rng)
		want := mustDistance(t, x, y, DefaultOptions()).Distance

		xs := append([]geom.Circle(nil), x...)
		ys := append([]geom.Circle(nil), y...)
		rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
		rng.Shuffle(len(ys), func(i, j int) { ys[i], ys[j] = ys[j], ys[i] })

		assert.InDelta(t, want, mustDistance(t, xs, ys, DefaultOptions()).Distance, 1e-12)
	}
}

func TestDistance_InRange(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		x := circles(rng.Intn(5), rng)
		y := circles(rng.Intn(6), rng)
		for _, p := range []float64{1, 2, 3} {
			got := mustDistance(t, x, y, Options{PNorm: p, Cutoff: 1})
			assert.GreaterOrEqual(t, got.Distance, 0.0)
			assert.LessOrEqual(t, got.Distance, 1.0+1e-12)
		}
	}
}

func TestDistance_BinaryOverlapSelectionIndependentOfPNorm(t *testing.T) {
	a := geom.Circle{X: 0, Y: 0, R: 5}
	b := geom.Circle{X: 40, Y: 0, R: 4}
	c := geom.Circle{X: 0, Y: 40, R: 3}
	far := farAway(2)

	// Every IoU between x and y is exactly 0 or 1.
	x := []geom.Circle{a, b, c}
	y := []geom.Circle{far[0], c, a, far[1]}

	base := mustDistance(t, x, y, Options{PNorm: 1, Cutoff: 1})
	for _, p := range []float64{2, 3, 5} {
		got := mustDistance(t, x, y, Options{PNorm: p, Cutoff: 1})
		assert.Equal(t, base.Pairs, got.Pairs, "p=%g", p)
		assert.InDelta(t, base.Overlap, got.Overlap, 1e-12)
	}
	assert.InDelta(t, 2.0, base.Overlap, 1e-12)
}

func TestSearchSize(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 0, SearchSize(0, 0, opts))
	assert.Equal(t, 0, SearchSize(0, 3, opts))
	assert.Equal(t, 6, SearchSize(3, 3, opts))
	assert.Equal(t, 20, SearchSize(5, 2, opts))
	assert.Equal(t, 0, SearchSize(1, 16, opts))
	assert.Equal(t, 43680, SearchSize(4, 16, opts))
}

func TestSearchSize_CustomGuard(t *testing.T) {
	opts := DefaultOptions()
	opts.GuardRatio = 2
	opts.GuardMinSize = 3

	assert.Equal(t, 0, SearchSize(1, 5, opts))
	assert.Equal(t, 5, SearchSize(1, 5, DefaultOptions()))
}

func TestSearchSize_Saturates(t *testing.T) {
	// 60 is not above 4 * 15, so the search is not guarded.
	got := SearchSize(15, 60, DefaultOptions())
	assert.Equal(t, math.MaxInt, got)
	assert.Equal(t, math.MaxInt, SearchSize(60, 15, DefaultOptions()))
}

func TestDistance_InvalidIoU(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	x := circles(2, rng)
	y := circles(2, rng)

	tests := []struct {
		name string
		iou  geom.IoUFunc
	}{
		{name: "nan", iou: func(a, b geom.Circle) float64 { return math.NaN() }},
		{name: "negative", iou: func(a, b geom.Circle) float64 { return -0.5 }},
		{name: "above one", iou: func(a, b geom.Circle) float64 { return 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distance(x, y, Options{IoU: tt.iou})
			require.ErrorIs(t, err, geom.ErrInvalidIoU)
			assert.Empty(t, got.Pairs)
		})
	}
}

func TestDistance_InvalidIoUNotCalledWhenEmpty(t *testing.T) {
	nan := func(a, b geom.Circle) float64 { return math.NaN() }
	got, err := Distance(nil, circles(2, rand.New(rand.NewSource(7))), Options{IoU: nan})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Distance)
}
