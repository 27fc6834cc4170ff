package crater

import (
	"errors"

	"github.com/jamesainslie/go-crater/geom"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrUndefinedMetric indicates a metric whose denominator is zero, such as
	// precision with no predicted circles or MAD with no accepted matches.
	ErrUndefinedMetric = errors.New("crater: metric undefined")

	// ErrLengthMismatch indicates truth and prediction datasets of different
	// patch counts.
	ErrLengthMismatch = errors.New("crater: truth and prediction patch counts differ")

	// ErrMatchesMismatch indicates precomputed matches that do not cover the
	// dataset patch for patch.
	ErrMatchesMismatch = errors.New("crater: matches do not cover dataset")

	// ErrInvalidMatch indicates a match pair that references a circle outside
	// its patch.
	ErrInvalidMatch = errors.New("crater: match index out of range")

	// ErrInvalidCircle indicates a circle with a non-finite coordinate or a
	// non-positive radius.
	ErrInvalidCircle = geom.ErrInvalidCircle

	// ErrInvalidIoU indicates an IoU primitive that returned NaN or a value
	// outside [0, 1].
	ErrInvalidIoU = geom.ErrInvalidIoU
)
