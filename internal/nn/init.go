package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// XavierNormal creates a rows×cols weight matrix for a layer with fan-in cols.
//
// Each entry is drawn independently from N(0, 1) and scaled by sqrt(1/fan_in),
// which keeps the variance of the pre-activations roughly independent of
// the layer width.
//
// Parameters:
//   - rows: number of output units
//   - cols: number of input units (fan-in)
//   - rng: random source; the same seed yields the same matrix
func XavierNormal(rows, cols int, rng *rand.Rand) *mat.Dense {
	scale := math.Sqrt(1.0 / float64(cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}
