// Package config holds the run configuration shared by the digitnet
// subcommands: corpus locations, network shape, training knobs and the
// serving address.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/digitnet/internal/nn"
)

// Standard MNIST file names inside DataDir.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// Config captures the runtime knobs for training, testing and serving.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	TrainImages string `yaml:"train_images"`
	TrainLabels string `yaml:"train_labels"`
	TestImages  string `yaml:"test_images"`
	TestLabels  string `yaml:"test_labels"`
	MaxSamples  int    `yaml:"max_samples"` // 0 loads the whole corpus

	Model   string    `yaml:"model"`
	Network nn.Config `yaml:"network"`

	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         uint64  `yaml:"seed"` // 0 seeds from the clock
	Plot         string  `yaml:"plot"` // optional SVG history output

	Addr string `yaml:"addr"`
}

// Overrides captures CLI supplied values. Zero values leave the config alone.
type Overrides struct {
	DataDir      string
	Model        string
	Hidden       int
	Epochs       int
	LearningRate float64
	Seed         uint64
	MaxSamples   int
	Plot         string
	Addr         string
}

// Default returns the 784-128-10 setup trained for 10 epochs at rate 0.1.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		TrainImages:  TrainImagesFile,
		TrainLabels:  TrainLabelsFile,
		TestImages:   TestImagesFile,
		TestLabels:   TestLabelsFile,
		Model:        filepath.Join("output", "model_params.bin"),
		Network:      nn.DefaultConfig(),
		Epochs:       10,
		LearningRate: 0.1,
		Addr:         ":18080",
	}
}

// Load reads a YAML config on top of Default and validates it.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	//nolint:gosec // G304: config path comes from the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of Default. Unknown keys are rejected.
// The result is not validated.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.Hidden > 0 {
		c.Network.HiddenSize = o.Hidden
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.MaxSamples > 0 {
		c.MaxSamples = o.MaxSamples
	}
	if o.Plot != "" {
		c.Plot = o.Plot
	}
	if o.Addr != "" {
		c.Addr = o.Addr
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max_samples must be >= 0 (got %d)", c.MaxSamples)
	}
	if c.Model == "" {
		return errors.New("model path must be set")
	}
	if c.TrainImages == "" || c.TrainLabels == "" || c.TestImages == "" || c.TestLabels == "" {
		return errors.New("all four corpus files must be named")
	}
	if c.Addr == "" {
		return errors.New("addr must be set")
	}
	return nil
}

// TrainFiles returns the training image and label paths.
func (c *Config) TrainFiles() (images, labels string) {
	return c.resolve(c.TrainImages), c.resolve(c.TrainLabels)
}

// TestFiles returns the test image and label paths.
func (c *Config) TestFiles() (images, labels string) {
	return c.resolve(c.TestImages), c.resolve(c.TestLabels)
}

// resolve places relative corpus names under DataDir.
func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// ModelCandidates lists the parameter file locations tried by serve:
// ../output, output, then the working directory. A model path that differs
// from the default is tried before all of them.
func (c *Config) ModelCandidates() []string {
	candidates := []string{
		filepath.Join("..", "output", "model_params.bin"),
		filepath.Join("output", "model_params.bin"),
		"model_params.bin",
	}
	if c.Model != "" && c.Model != Default().Model {
		candidates = append([]string{c.Model}, candidates...)
	}
	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, p := range candidates {
		p = filepath.Clean(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// FindModel returns the first candidate that exists as a regular file.
func (c *Config) FindModel() (string, error) {
	candidates := c.ModelCandidates()
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no model file found (tried %v): %w", candidates, os.ErrNotExist)
}
