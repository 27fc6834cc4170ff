// Package geom provides the circle type and the circle intersection-over-union
// primitive used by the matchers.
package geom

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCircle indicates a circle with a non-finite coordinate or a
// non-positive radius.
var ErrInvalidCircle = errors.New("geom: invalid circle")

// Circle is a circular footprint in patch-local pixel coordinates.
type Circle struct {
	X float64
	Y float64
	R float64
}

// Validate reports whether c can be scored.
func (c Circle) Validate() error {
	for _, v := range [...]float64{c.X, c.Y, c.R} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %v", ErrInvalidCircle, c)
		}
	}
	if c.R <= 0 {
		return fmt.Errorf("%w: radius %g must be positive", ErrInvalidCircle, c.R)
	}
	return nil
}

// Area returns the area of c.
func (c Circle) Area() float64 {
	return math.Pi * c.R * c.R
}

// CenterDistance returns the Euclidean distance between the centers of a and b.
func CenterDistance(a, b Circle) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (c Circle) String() string {
	return fmt.Sprintf("(%g, %g, r=%g)", c.X, c.Y, c.R)
}
