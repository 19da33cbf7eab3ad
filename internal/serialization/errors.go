package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrFormat       = errors.New("invalid parameter file")
	ErrTrailingData = fmt.Errorf("%w: trailing data after last field", ErrFormat)
)

// DimensionError reports a tensor whose stored shape is unusable or does not
// match the shape the caller expects.
type DimensionError struct {
	Tensor  string // Field name ("W1", "b1", "W2", "b2")
	Rows    int    // Stored rows
	Cols    int    // Stored cols (1 for vectors)
	Details string // What was expected instead
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("tensor %q: shape %dx%d: %s", e.Tensor, e.Rows, e.Cols, e.Details)
}

// Unwrap lets errors.Is(err, ErrFormat) succeed.
func (e *DimensionError) Unwrap() error { return ErrFormat }
