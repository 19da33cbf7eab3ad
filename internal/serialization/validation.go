package serialization

import "fmt"

// validateDims rejects shapes that cannot come from a real network.
func validateDims(name string, rows, cols int32) error {
	if rows <= 0 || cols <= 0 {
		return &DimensionError{
			Tensor:  name,
			Rows:    int(rows),
			Cols:    int(cols),
			Details: "dimensions must be positive",
		}
	}
	if rows > MaxDim || cols > MaxDim {
		return &DimensionError{
			Tensor:  name,
			Rows:    int(rows),
			Cols:    int(cols),
			Details: fmt.Sprintf("dimension exceeds limit %d", MaxDim),
		}
	}
	if int64(rows)*int64(cols) > MaxElements {
		return &DimensionError{
			Tensor:  name,
			Rows:    int(rows),
			Cols:    int(cols),
			Details: fmt.Sprintf("element count exceeds limit %d", MaxElements),
		}
	}
	return nil
}

// Validate checks that p is internally consistent: b1 matches the rows of
// W1, W2 consumes the hidden layer, and b2 matches the rows of W2.
func (p Params) Validate() error {
	if p.W1 == nil || p.B1 == nil || p.W2 == nil || p.B2 == nil {
		return fmt.Errorf("%w: missing tensor", ErrFormat)
	}
	h, _ := p.W1.Dims()
	if p.B1.Len() != h {
		return &DimensionError{Tensor: FieldB1, Rows: p.B1.Len(), Cols: 1,
			Details: fmt.Sprintf("want %d rows to match W1", h)}
	}
	o, c := p.W2.Dims()
	if c != h {
		return &DimensionError{Tensor: FieldW2, Rows: o, Cols: c,
			Details: fmt.Sprintf("want %d cols to match W1 rows", h)}
	}
	if p.B2.Len() != o {
		return &DimensionError{Tensor: FieldB2, Rows: p.B2.Len(), Cols: 1,
			Details: fmt.Sprintf("want %d rows to match W2", o)}
	}
	return nil
}

// ExpectSizes checks that p describes a network with the given layer sizes.
func (p Params) ExpectSizes(input, hidden, output int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r, c := p.W1.Dims()
	if r != hidden || c != input {
		return &DimensionError{Tensor: FieldW1, Rows: r, Cols: c,
			Details: fmt.Sprintf("want %dx%d", hidden, input)}
	}
	r, c = p.W2.Dims()
	if r != output || c != hidden {
		return &DimensionError{Tensor: FieldW2, Rows: r, Cols: c,
			Details: fmt.Sprintf("want %dx%d", output, hidden)}
	}
	return nil
}
