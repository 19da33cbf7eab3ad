package serialization

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Reader reads parameter tensors in file order.
type Reader struct {
	r io.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadMatrix reads int32 rows, int32 cols and rows*cols row-major values.
func (r *Reader) ReadMatrix(name string) (*mat.Dense, error) {
	var dims [2]int32
	if err := binary.Read(r.r, ByteOrder, &dims); err != nil {
		return nil, truncated(name, "shape", err)
	}
	if err := validateDims(name, dims[0], dims[1]); err != nil {
		return nil, err
	}
	rows, cols := int(dims[0]), int(dims[1])
	data, err := r.readFloats(rows * cols)
	if err != nil {
		return nil, truncated(name, "data", err)
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadVector reads int32 length and that many values.
func (r *Reader) ReadVector(name string) (*mat.VecDense, error) {
	var n int32
	if err := binary.Read(r.r, ByteOrder, &n); err != nil {
		return nil, truncated(name, "size", err)
	}
	if err := validateDims(name, n, 1); err != nil {
		return nil, err
	}
	data, err := r.readFloats(int(n))
	if err != nil {
		return nil, truncated(name, "data", err)
	}
	return mat.NewVecDense(int(n), data), nil
}

// readFloats reads n values in chunks of at most readChunk.
func (r *Reader) readFloats(n int) ([]float64, error) {
	buf := make([]float64, min(n, readChunk))
	data := make([]float64, 0, len(buf))
	for len(data) < n {
		chunk := buf[:min(n-len(data), len(buf))]
		if err := binary.Read(r.r, ByteOrder, chunk); err != nil {
			return nil, err
		}
		data = append(data, chunk...)
	}
	return data, nil
}

func truncated(name, what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s %s: %w", ErrFormat, name, what, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("failed to read %s %s: %w", name, what, err)
}

// Decode reads the four tensors from r and checks that their shapes fit
// together. Bytes remaining after b2 are an error.
func Decode(r io.Reader) (Params, error) {
	pr := NewReader(r)
	var p Params
	var err error
	if p.W1, err = pr.ReadMatrix(FieldW1); err != nil {
		return Params{}, err
	}
	if p.B1, err = pr.ReadVector(FieldB1); err != nil {
		return Params{}, err
	}
	if p.W2, err = pr.ReadMatrix(FieldW2); err != nil {
		return Params{}, err
	}
	if p.B2, err = pr.ReadVector(FieldB2); err != nil {
		return Params{}, err
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}

	var extra [1]byte
	n, err := io.ReadFull(r, extra[:])
	if n > 0 {
		return Params{}, ErrTrailingData
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return Params{}, fmt.Errorf("failed to read past %s: %w", FieldB2, err)
	}
	return p, nil
}

// ReadFile loads parameters from path. Errors name the source path.
func ReadFile(path string) (Params, error) {
	//nolint:gosec // G304: model path comes from the operator
	f, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to open parameter file: %w", err)
	}
	defer func() { _ = f.Close() }()

	p, err := Decode(bufio.NewReader(f))
	if err != nil {
		return Params{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
