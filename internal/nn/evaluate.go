package nn

import (
	"fmt"

	"github.com/born-ml/digitnet/internal/loader"
	"github.com/born-ml/digitnet/internal/numeric"
	"github.com/born-ml/digitnet/internal/parallel"
)

// EvalResult is the outcome of evaluating a network on a labelled set.
type EvalResult struct {
	Correct  int
	Total    int
	Accuracy float64 // Correct / Total, or 0 for an empty set
}

func (r EvalResult) String() string {
	return fmt.Sprintf("%d/%d (%.2f%%)", r.Correct, r.Total, 100*r.Accuracy)
}

// PredictAll returns the predicted class of every sample, in order.
// Forward passes are spread over the worker pool set by SetParallel.
func (n *Network) PredictAll(samples []loader.Sample) []int {
	preds := make([]int, len(samples))
	parallel.For(len(samples), func(i int) {
		preds[i] = n.Predict(samples[i].Input)
	}, n.par)
	return preds
}

// Evaluate counts the samples whose predicted class is the hot index of
// their label, the same rule Train uses. Parameters are not modified.
func (n *Network) Evaluate(samples []loader.Sample) EvalResult {
	preds := n.PredictAll(samples)
	res := EvalResult{Total: len(samples)}
	for i, p := range preds {
		if p == numeric.Argmax(samples[i].Label) {
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Total)
	}
	return res
}
