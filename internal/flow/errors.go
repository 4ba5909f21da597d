package flow

import "errors"

// The estimation core fails fast with one of three error classes. Callers
// match them with errors.Is; wrapped messages carry the pyramid level and
// iteration indices where relevant.
var (
	// ErrInvalidParameter reports a solver parameter outside its
	// documented range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDimensionMismatch reports an image pair or flow field whose
	// dimensions do not agree.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNumericalFailure reports a NaN or Inf detected in a solved flow
	// increment.
	ErrNumericalFailure = errors.New("numerical failure")
)
