// Package nn implements a fixed-topology two-layer feed-forward classifier:
//
//	input ─W1,b1→ sigmoid hidden layer ─W2,b2→ softmax output
//
// A Network owns its four parameter tensors exclusively. They are created at
// construction, mutated only by the training step, and replaced wholesale by
// Load. Accessors hand out copies.
//
// Example:
//
//	net, err := nn.New(nn.Config{InputSize: 784, HiddenSize: 128, OutputSize: 10}, rand.New(rand.NewPCG(1, 2)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	history, err := net.Train(ds.Samples, nn.TrainConfig{Epochs: 10, LearningRate: 0.1})
//	digit := net.Predict(ds.Samples[0].Input)
//	err = net.Save("model_params.bin")
package nn

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/digitnet/internal/numeric"
	"github.com/born-ml/digitnet/internal/parallel"
	"github.com/born-ml/digitnet/internal/serialization"
)

// ErrConfig reports invalid construction or training parameters, including
// samples whose dimensions do not match the network.
var ErrConfig = errors.New("invalid network config")

// Config fixes the three layer sizes. It never changes after New.
type Config struct {
	InputSize  int `yaml:"input_size"`
	HiddenSize int `yaml:"hidden_size"`
	OutputSize int `yaml:"output_size"`
}

// DefaultConfig is the 784-128-10 digit classifier.
func DefaultConfig() Config {
	return Config{InputSize: 784, HiddenSize: 128, OutputSize: 10}
}

// Validate checks that every layer size is positive.
func (c Config) Validate() error {
	if c.InputSize <= 0 || c.HiddenSize <= 0 || c.OutputSize <= 0 {
		return fmt.Errorf("%w: layer sizes must be > 0 (got %d-%d-%d)",
			ErrConfig, c.InputSize, c.HiddenSize, c.OutputSize)
	}
	return nil
}

// String formats the config as input-hidden-output.
func (c Config) String() string {
	return fmt.Sprintf("%d-%d-%d", c.InputSize, c.HiddenSize, c.OutputSize)
}

// Network is a two-layer classifier with sigmoid hidden units and a softmax
// output. A Network must not be trained from several goroutines at once;
// Forward, Predict and Evaluate only read parameters and may run
// concurrently with each other.
type Network struct {
	cfg Config

	w1 *mat.Dense    // [hidden, input]
	b1 *mat.VecDense // [hidden]
	w2 *mat.Dense    // [output, hidden]
	b2 *mat.VecDense // [output]

	logger *slog.Logger
	par    parallel.Config
}

// New creates a network with Xavier-style normal weights and zero biases.
//
// Parameters:
//   - cfg: layer sizes, all must be positive
//   - rng: source for weight initialization; nil seeds a generator from the
//     clock, which makes initialization non-deterministic
//
// Returns ErrConfig if cfg is invalid.
func New(cfg Config, rng *rand.Rand) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		//nolint:gosec // G115: only used as a seed
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Network{
		cfg:    cfg,
		w1:     XavierNormal(cfg.HiddenSize, cfg.InputSize, rng),
		b1:     mat.NewVecDense(cfg.HiddenSize, nil),
		w2:     XavierNormal(cfg.OutputSize, cfg.HiddenSize, rng),
		b2:     mat.NewVecDense(cfg.OutputSize, nil),
		logger: slog.Default(),
		par:    parallel.DefaultConfig(),
	}, nil
}

// FromParams creates a network that starts from a copy of p.
//
// Returns ErrConfig if cfg is invalid and a serialization.DimensionError if
// the shapes of p do not match cfg.
func FromParams(cfg Config, p serialization.Params) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.ExpectSizes(cfg.InputSize, cfg.HiddenSize, cfg.OutputSize); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	n := &Network{
		cfg:    cfg,
		logger: slog.Default(),
		par:    parallel.DefaultConfig(),
	}
	n.setParams(copyParams(p))
	return n, nil
}

// Config returns the layer sizes.
func (n *Network) Config() Config { return n.cfg }

// SetLogger replaces the logger used for training progress.
func (n *Network) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	n.logger = l
}

// SetParallel replaces the worker configuration used by Evaluate.
func (n *Network) SetParallel(cfg parallel.Config) { n.par = cfg }

// Params returns a deep copy of the parameters.
func (n *Network) Params() serialization.Params {
	return copyParams(n.params())
}

func (n *Network) params() serialization.Params {
	return serialization.Params{W1: n.w1, B1: n.b1, W2: n.w2, B2: n.b2}
}

func (n *Network) setParams(p serialization.Params) {
	n.w1, n.b1, n.w2, n.b2 = p.W1, p.B1, p.W2, p.B2
}

func copyParams(p serialization.Params) serialization.Params {
	return serialization.Params{
		W1: mat.DenseCopyOf(p.W1),
		B1: mat.VecDenseCopyOf(p.B1),
		W2: mat.DenseCopyOf(p.W2),
		B2: mat.VecDenseCopyOf(p.B2),
	}
}

// activations holds the intermediate values of one forward pass.
type activations struct {
	z1 *mat.VecDense // W1·x + b1
	a1 *mat.VecDense // sigmoid(z1)
	a2 *mat.VecDense // softmax(W2·a1 + b2)
}

func (n *Network) forward(x mat.Vector) activations {
	if x.Len() != n.cfg.InputSize {
		panic(fmt.Sprintf("nn.Network.Forward: expected input of length %d, got %d", n.cfg.InputSize, x.Len()))
	}

	z1 := mat.NewVecDense(n.cfg.HiddenSize, nil)
	z1.MulVec(n.w1, x)
	z1.AddVec(z1, n.b1)
	a1 := numeric.Sigmoid(z1)

	z2 := mat.NewVecDense(n.cfg.OutputSize, nil)
	z2.MulVec(n.w2, a1)
	z2.AddVec(z2, n.b2)

	return activations{z1: z1, a1: a1, a2: numeric.Softmax(z2)}
}

// Forward computes the class probability distribution for x.
//
// Performs:
//
//	Z1 = W1·x + b1,  A1 = sigmoid(Z1)
//	Z2 = W2·A1 + b2, A2 = softmax(Z2)
//
// x must have length InputSize; anything else panics.
func (n *Network) Forward(x mat.Vector) *mat.VecDense {
	return n.forward(x).a2
}

// Predict returns the most probable class for x.
func (n *Network) Predict(x mat.Vector) int {
	return numeric.Argmax(n.Forward(x))
}
