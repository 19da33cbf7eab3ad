package numeric

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SigmoidScalar computes σ(x) = 1 / (1 + exp(-x)).
func SigmoidScalar(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Sigmoid applies the logistic function element-wise.
//
// Applies: σ(z_i) = 1 / (1 + exp(-z_i))
//
// Output values lie in the open interval (0, 1) for finite inputs.
func Sigmoid(z mat.Vector) *mat.VecDense {
	n := z.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = SigmoidScalar(z.AtVec(i))
	}
	return mat.NewVecDense(n, out)
}

// SigmoidDerivative computes σ'(z) = σ(z) * (1 - σ(z)) element-wise.
//
// The derivative is taken with respect to the pre-activation z, which is
// what the chain rule through a sigmoid layer needs during backpropagation:
//
//	dZ = dA ⊙ σ'(Z)
func SigmoidDerivative(z mat.Vector) *mat.VecDense {
	n := z.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := SigmoidScalar(z.AtVec(i))
		out[i] = s * (1 - s)
	}
	return mat.NewVecDense(n, out)
}

// Softmax converts a vector of logits into a probability distribution.
//
// Formula:
//
//	Softmax(z)[i] = exp(z[i] - max(z)) / Σ exp(z[j] - max(z))
//
// Subtracting max(z) before exponentiating keeps every exponent ≤ 0, so
// large logits cannot overflow. The result has non-negative entries that
// sum to 1 up to rounding.
func Softmax(z mat.Vector) *mat.VecDense {
	n := z.Len()
	if n == 0 {
		panic("numeric.Softmax: empty vector")
	}

	maxZ := z.AtVec(0)
	for i := 1; i < n; i++ {
		if v := z.AtVec(i); v > maxZ {
			maxZ = v
		}
	}

	out := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		e := math.Exp(z.AtVec(i) - maxZ)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return mat.NewVecDense(n, out)
}
