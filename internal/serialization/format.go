package serialization

import (
	"encoding/binary"

	"gonum.org/v1/gonum/mat"
)

// ByteOrder is used for every integer and float in a parameter file.
var ByteOrder binary.ByteOrder = binary.LittleEndian

// MaxDim bounds any stored dimension. A 784-128-10 network needs nothing
// close to this; larger values mean the file is corrupt.
const MaxDim = 1 << 16

// MaxElements bounds rows*cols of any stored tensor (128 MiB of float64).
const MaxElements = 1 << 24

// readChunk is the number of values decoded per read, so memory grows with
// the payload actually present rather than with the header's claim.
const readChunk = 1 << 16

// Field names in file order.
const (
	FieldW1 = "W1"
	FieldB1 = "b1"
	FieldW2 = "W2"
	FieldB2 = "b2"
)

// Params holds the four tensors of a two-layer network.
//
// Shapes:
//   - W1: [hidden, input]
//   - B1: [hidden]
//   - W2: [output, hidden]
//   - B2: [output]
type Params struct {
	W1 *mat.Dense
	B1 *mat.VecDense
	W2 *mat.Dense
	B2 *mat.VecDense
}

// Sizes returns the input, hidden and output layer sizes implied by the
// weight shapes.
func (p Params) Sizes() (input, hidden, output int) {
	hidden, input = p.W1.Dims()
	output, _ = p.W2.Dims()
	return input, hidden, output
}
