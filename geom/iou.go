package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidIoU indicates an IoU value that is NaN or outside [0, 1].
var ErrInvalidIoU = errors.New("geom: IoU outside [0, 1]")

// IoUFunc computes the intersection-over-union of two circles.
// Implementations must be symmetric and return values in [0, 1].
type IoUFunc func(a, b Circle) float64

// IoU returns the intersection-over-union of two circles.
// It is 1 for identical circles and 0 for circles that do not overlap.
func IoU(a, b Circle) float64 {
	// Order by radius so the arithmetic is identical for IoU(a, b) and IoU(b, a).
	if a.R < b.R {
		a, b = b, a
	}

	inter := IntersectionArea(a, b)
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return clamp01(inter / union)
}

// CheckIoU returns an error wrapping ErrInvalidIoU when v is not in [0, 1].
func CheckIoU(v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %g", ErrInvalidIoU, v)
	}
	return nil
}

// IntersectionArea returns the area shared by a and b.
func IntersectionArea(a, b Circle) float64 {
	if a.R < b.R {
		a, b = b, a
	}
	d := CenterDistance(a, b)

	// Disjoint or tangent.
	if d >= a.R+b.R {
		return 0
	}
	// b lies entirely inside a.
	if d <= a.R-b.R {
		return b.Area()
	}

	r1, r2 := a.R, b.R
	alpha := math.Acos(clamp((d*d+r1*r1-r2*r2)/(2*d*r1), -1, 1))
	beta := math.Acos(clamp((d*d+r2*r2-r1*r1)/(2*d*r2), -1, 1))
	kite := 0.5 * math.Sqrt(math.Max(0, (-d+r1+r2)*(d+r1-r2)*(d-r1+r2)*(d+r1+r2)))

	return math.Max(0, r1*r1*alpha+r2*r2*beta-kite)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
