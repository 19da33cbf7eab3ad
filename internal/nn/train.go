package nn

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/digitnet/internal/loader"
	"github.com/born-ml/digitnet/internal/numeric"
)

// TrainConfig holds configuration for Train.
type TrainConfig struct {
	Epochs       int                // Number of passes over the samples (must be > 0)
	LearningRate float64            // SGD step size (must be > 0)
	OnEpoch      func(s EpochStats) // Optional callback after every epoch
}

// EpochStats summarizes one pass over the training samples.
type EpochStats struct {
	Epoch    int           // 1-based epoch number
	Loss     float64       // Mean cross-entropy loss over the epoch
	Accuracy float64       // Fraction of samples classified correctly, in [0, 1]
	Samples  int           // Number of samples seen
	Elapsed  time.Duration // Wall time of the epoch
}

// TrainStep runs forward and backward passes for a single sample and applies
// one gradient-descent update.
//
// Gradients (softmax and cross-entropy combined):
//
//	dZ2 = A2 - y
//	dW2 = dZ2 ⊗ A1ᵀ, db2 = dZ2
//	dA1 = W2ᵀ · dZ2
//	dZ1 = dA1 ⊙ sigmoid'(Z1)
//	dW1 = dZ1 ⊗ xᵀ,  db1 = dZ1
//
// All gradients are computed from the pre-update parameters, then every
// parameter P is replaced by P - lr·dP.
//
// Returns the sample loss and whether the pre-update prediction was correct.
func (n *Network) TrainStep(x, y mat.Vector, lr float64) (loss float64, correct bool) {
	act := n.forward(x)

	loss = numeric.CrossEntropyLoss(act.a2, y)
	correct = numeric.Argmax(act.a2) == numeric.Argmax(y)

	dz2 := mat.NewVecDense(n.cfg.OutputSize, nil)
	dz2.SubVec(act.a2, y)

	// dA1 needs W2 before it is updated.
	da1 := mat.NewVecDense(n.cfg.HiddenSize, nil)
	da1.MulVec(n.w2.T(), dz2)

	dz1 := numeric.SigmoidDerivative(act.z1)
	dz1.MulElemVec(dz1, da1)

	n.w2.RankOne(n.w2, -lr, dz2, act.a1)
	n.b2.AddScaledVec(n.b2, -lr, dz2)
	n.w1.RankOne(n.w1, -lr, dz1, x)
	n.b1.AddScaledVec(n.b1, -lr, dz1)

	return loss, correct
}

// Train runs single-sample stochastic gradient descent over samples, in
// order, for cfg.Epochs epochs.
//
// Every sample is checked against the network dimensions before any update
// happens, so a bad dataset leaves the parameters untouched. After each
// epoch the mean loss and accuracy are logged, passed to cfg.OnEpoch and
// appended to the returned history.
//
// Returns ErrConfig for an empty dataset, non-positive epochs or learning
// rate, or mismatched sample dimensions.
func (n *Network) Train(samples []loader.Sample, cfg TrainConfig) ([]EpochStats, error) {
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("%w: epochs must be > 0 (got %d)", ErrConfig, cfg.Epochs)
	}
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("%w: learning rate must be > 0 (got %g)", ErrConfig, cfg.LearningRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no training samples", ErrConfig)
	}
	if err := n.checkSamples(samples); err != nil {
		return nil, err
	}

	history := make([]EpochStats, 0, cfg.Epochs)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		start := time.Now()
		totalLoss := 0.0
		correct := 0

		for _, s := range samples {
			loss, ok := n.TrainStep(s.Input, s.Label, cfg.LearningRate)
			totalLoss += loss
			if ok {
				correct++
			}
		}

		stats := EpochStats{
			Epoch:    epoch,
			Loss:     totalLoss / float64(len(samples)),
			Accuracy: float64(correct) / float64(len(samples)),
			Samples:  len(samples),
			Elapsed:  time.Since(start),
		}
		history = append(history, stats)

		n.logger.Info("epoch done",
			"epoch", stats.Epoch,
			"loss", fmt.Sprintf("%.4f", stats.Loss),
			"accuracy", fmt.Sprintf("%.2f%%", 100*stats.Accuracy),
			"elapsed", stats.Elapsed.Round(time.Millisecond),
		)
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(stats)
		}
	}
	return history, nil
}

func (n *Network) checkSamples(samples []loader.Sample) error {
	for i, s := range samples {
		if s.Input == nil || s.Label == nil {
			return fmt.Errorf("%w: sample %d is incomplete", ErrConfig, i)
		}
		if s.Input.Len() != n.cfg.InputSize {
			return fmt.Errorf("%w: sample %d input length %d, network expects %d",
				ErrConfig, i, s.Input.Len(), n.cfg.InputSize)
		}
		if s.Label.Len() != n.cfg.OutputSize {
			return fmt.Errorf("%w: sample %d label length %d, network expects %d",
				ErrConfig, i, s.Label.Len(), n.cfg.OutputSize)
		}
	}
	return nil
}
