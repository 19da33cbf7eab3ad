package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(xs ...float64) *mat.VecDense {
	return mat.NewVecDense(len(xs), xs)
}

func TestSigmoid(t *testing.T) {
	s := Sigmoid(vec(0, 2, -2))
	assert.InDelta(t, 0.5, s.AtVec(0), 1e-15)
	assert.InDelta(t, 0.8807970779778823, s.AtVec(1), 1e-12)
	assert.InDelta(t, 1-0.8807970779778823, s.AtVec(2), 1e-12)

	// Extreme inputs saturate without NaN.
	s = Sigmoid(vec(-1000, 1000))
	assert.Equal(t, 0.0, s.AtVec(0))
	assert.Equal(t, 1.0, s.AtVec(1))
}

func TestSigmoidDerivative(t *testing.T) {
	d := SigmoidDerivative(vec(0, 2))
	assert.InDelta(t, 0.25, d.AtVec(0), 1e-15)
	s := 0.8807970779778823
	assert.InDelta(t, s*(1-s), d.AtVec(1), 1e-12)

	// Compare against a central finite difference of the sigmoid.
	for _, z := range []float64{-3, -0.5, 0.1, 4} {
		h := 1e-6
		numeric := (SigmoidScalar(z+h) - SigmoidScalar(z-h)) / (2 * h)
		assert.InDelta(t, numeric, SigmoidDerivative(vec(z)).AtVec(0), 1e-8, "z=%v", z)
	}
}

func TestSoftmax(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
	}{
		{"simple", []float64{2, 1}},
		{"uniform", []float64{0, 0, 0, 0}},
		{"negative", []float64{-5, -1, -3}},
		{"huge logits", []float64{1000, 1000, 999}},
		{"tiny logits", []float64{-1000, -1001, -1002}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Softmax(vec(tt.in...))
			sum := 0.0
			for i := 0; i < p.Len(); i++ {
				v := p.AtVec(i)
				require.False(t, math.IsNaN(v))
				assert.GreaterOrEqual(t, v, 0.0)
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}

	p := Softmax(vec(2, 1))
	assert.InDelta(t, 0.7310585786300049, p.AtVec(0), 1e-12)
	assert.InDelta(t, 0.2689414213699951, p.AtVec(1), 1e-12)
}

func TestSoftmax_DoesNotModifyInput(t *testing.T) {
	z := vec(3, 1, 2)
	_ = Softmax(z)
	assert.Equal(t, []float64{3, 1, 2}, z.RawVector().Data)
}

func TestCrossEntropyLoss(t *testing.T) {
	p := Softmax(vec(2, 1))
	loss := CrossEntropyLoss(p, OneHot(0, 2))
	assert.InDelta(t, 0.31326168751822286, loss, 1e-9)

	// Zero probability on the true class stays finite thanks to epsilon.
	loss = CrossEntropyLoss(vec(1, 0), OneHot(1, 2))
	assert.InDelta(t, -math.Log(Epsilon), loss, 1e-6)
	assert.False(t, math.IsInf(loss, 0))
}

func TestCrossEntropyLoss_NonNegative(t *testing.T) {
	logits := [][]float64{
		{0.3, -1.2, 4.0},
		{0, 0, 0},
		{-7, 2, 2},
	}
	for _, l := range logits {
		p := Softmax(vec(l...))
		for k := range l {
			assert.GreaterOrEqual(t, CrossEntropyLoss(p, OneHot(k, len(l))), 0.0)
		}
	}
}

func TestOneHot(t *testing.T) {
	v := OneHot(3, 10)
	require.Equal(t, 10, v.Len())
	for i := 0; i < 10; i++ {
		if i == 3 {
			assert.Equal(t, 1.0, v.AtVec(i))
		} else {
			assert.Equal(t, 0.0, v.AtVec(i))
		}
	}

	assert.Panics(t, func() { OneHot(10, 10) })
	assert.Panics(t, func() { OneHot(-1, 10) })
	assert.Panics(t, func() { OneHot(0, 0) })
}

func TestArgmaxOneHot(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for k := 0; k < n; k++ {
			assert.Equal(t, k, Argmax(OneHot(k, n)))
		}
	}
}

func TestArgmax_TiesPickFirst(t *testing.T) {
	assert.Equal(t, 1, Argmax(vec(0, 5, 5, 1)))
	assert.Equal(t, 0, Argmax(vec(2, 2, 2)))
	assert.Equal(t, 2, Argmax(vec(-3, -2, -1)))
}
