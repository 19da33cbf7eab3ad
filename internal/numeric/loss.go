package numeric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Epsilon is added to predicted probabilities before taking the log so
// that a zero probability yields a large finite loss instead of +Inf.
const Epsilon = 1e-12

// CrossEntropyLoss computes the negative log-likelihood of actual under predicted.
//
// Formula:
//
//	Loss = -Σ actual[i] * log(predicted[i] + ε)
//
// With a one-hot actual this reduces to -log(predicted[class] + ε).
// The result is non-negative whenever predicted is a probability vector.
func CrossEntropyLoss(predicted, actual mat.Vector) float64 {
	n := predicted.Len()
	if actual.Len() != n {
		panic(fmt.Sprintf("numeric.CrossEntropyLoss: length mismatch %d vs %d", n, actual.Len()))
	}
	loss := 0.0
	for i := 0; i < n; i++ {
		a := actual.AtVec(i)
		if a == 0 {
			continue
		}
		loss -= a * math.Log(predicted.AtVec(i)+Epsilon)
	}
	return loss
}

// OneHot returns a vector of length numClasses that is zero everywhere
// except at index label, which is 1.
//
// label must be in [0, numClasses); anything else is a caller bug and panics.
func OneHot(label, numClasses int) *mat.VecDense {
	if numClasses <= 0 {
		panic(fmt.Sprintf("numeric.OneHot: numClasses must be > 0, got %d", numClasses))
	}
	if label < 0 || label >= numClasses {
		panic(fmt.Sprintf("numeric.OneHot: label %d out of range [0, %d)", label, numClasses))
	}
	v := mat.NewVecDense(numClasses, nil)
	v.SetVec(label, 1)
	return v
}

// Argmax returns the index of the largest element. Ties resolve to the
// lowest index.
func Argmax(v mat.Vector) int {
	n := v.Len()
	if n == 0 {
		panic("numeric.Argmax: empty vector")
	}
	best := 0
	bestVal := v.AtVec(0)
	for i := 1; i < n; i++ {
		if x := v.AtVec(i); x > bestVal {
			best, bestVal = i, x
		}
	}
	return best
}
