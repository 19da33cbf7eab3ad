// Package numeric provides the stateless vector math used by the digit
// classifier: activation functions and their derivatives, softmax,
// cross-entropy loss, one-hot encoding and argmax.
//
// All functions operate on gonum vectors and return freshly allocated
// results; inputs are never modified.
//
// Example:
//
//	z := mat.NewVecDense(3, []float64{1, 2, 3})
//	p := numeric.Softmax(z)            // probability distribution
//	k := numeric.Argmax(p)             // 2
//	y := numeric.OneHot(2, 3)          // [0 0 1]
//	loss := numeric.CrossEntropyLoss(p, y)
package numeric
