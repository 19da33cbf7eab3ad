package loader

import (
	"errors"
	"fmt"
)

// ErrFormat reports a corpus file whose content does not follow the IDX
// layout: wrong magic number, truncated payload, out-of-range label or
// image/label count mismatch.
var ErrFormat = errors.New("invalid idx corpus")

// MagicError reports an IDX file whose magic number does not match the
// expected file kind. It matches ErrFormat under errors.Is.
type MagicError struct {
	Path string
	Got  uint32
	Want uint32
}

// Error implements the error interface.
func (e *MagicError) Error() string {
	return fmt.Sprintf("%s: invalid magic number: got %d, want %d", e.Path, e.Got, e.Want)
}

// Unwrap lets errors.Is(err, ErrFormat) succeed.
func (e *MagicError) Unwrap() error { return ErrFormat }
