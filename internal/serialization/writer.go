package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Writer writes parameter tensors in file order.
type Writer struct {
	w   io.Writer
	row []float64
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMatrix writes int32 rows, int32 cols and the row-major values of m.
func (w *Writer) WriteMatrix(name string, m *mat.Dense) error {
	rows, cols := m.Dims()
	if err := w.writeDims(name, rows, cols); err != nil {
		return err
	}
	raw := m.RawMatrix()
	if raw.Stride == cols {
		if err := binary.Write(w.w, ByteOrder, raw.Data[:rows*cols]); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		return nil
	}
	// Views have a stride wider than cols; write row by row.
	if cap(w.row) < cols {
		w.row = make([]float64, cols)
	}
	row := w.row[:cols]
	for i := 0; i < rows; i++ {
		mat.Row(row, i, m)
		if err := binary.Write(w.w, ByteOrder, row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, i, err)
		}
	}
	return nil
}

// WriteVector writes int32 length and the values of v.
func (w *Writer) WriteVector(name string, v *mat.VecDense) error {
	n := v.Len()
	if err := binary.Write(w.w, ByteOrder, int32(n)); err != nil {
		return fmt.Errorf("failed to write %s size: %w", name, err)
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = v.AtVec(i)
	}
	if err := binary.Write(w.w, ByteOrder, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) writeDims(name string, rows, cols int) error {
	//nolint:gosec // G115: dimensions are bounded by MaxDim and MaxElements before writing
	dims := [2]int32{int32(rows), int32(cols)}
	if err := binary.Write(w.w, ByteOrder, dims); err != nil {
		return fmt.Errorf("failed to write %s shape: %w", name, err)
	}
	return nil
}

// Encode writes the four tensors of p to w in file order.
func Encode(w io.Writer, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		m    *mat.Dense
	}{{FieldW1, p.W1}, {FieldW2, p.W2}} {
		name := f.name
		r, c := f.m.Dims()
		if r > MaxDim || c > MaxDim {
			return fmt.Errorf("%w: %s shape %dx%d exceeds limit %d", ErrFormat, name, r, c, MaxDim)
		}
		if r*c > MaxElements {
			return fmt.Errorf("%w: %s has %d elements, limit %d", ErrFormat, name, r*c, MaxElements)
		}
	}

	pw := NewWriter(w)
	if err := pw.WriteMatrix(FieldW1, p.W1); err != nil {
		return err
	}
	if err := pw.WriteVector(FieldB1, p.B1); err != nil {
		return err
	}
	if err := pw.WriteMatrix(FieldW2, p.W2); err != nil {
		return err
	}
	return pw.WriteVector(FieldB2, p.B2)
}

// WriteFile saves p to path.
//
// Data goes to a temporary file in the same directory which is renamed over
// path once fully written, so a failed save never leaves a truncated model
// behind. Errors name the destination path.
func WriteFile(path string, p Params) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	bw := bufio.NewWriter(tmp)
	if err = Encode(bw, p); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename to %s: %w", path, err)
	}
	return nil
}
