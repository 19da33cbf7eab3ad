package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/digitnet/internal/nn"
)

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, nn.Config{InputSize: 784, HiddenSize: 128, OutputSize: 10}, cfg.Network)
	assert.Equal(t, 10, cfg.Epochs)
	assert.InDelta(t, 0.1, cfg.LearningRate, 1e-15)
	assert.Equal(t, ":18080", cfg.Addr)

	images, labels := cfg.TrainFiles()
	assert.Equal(t, filepath.Join("data", TrainImagesFile), images)
	assert.Equal(t, filepath.Join("data", TrainLabelsFile), labels)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /corpus
test_images: t10k-images-idx3-ubyte.gz
network:
  input_size: 784
  hidden_size: 64
  output_size: 10
epochs: 3
learning_rate: 0.05
seed: 42
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Network.HiddenSize)
	assert.Equal(t, 3, cfg.Epochs)
	assert.InDelta(t, 0.05, cfg.LearningRate, 1e-15)
	assert.Equal(t, uint64(42), cfg.Seed)

	images, labels := cfg.TestFiles()
	assert.Equal(t, filepath.Join("/corpus", "t10k-images-idx3-ubyte.gz"), images)
	assert.Equal(t, filepath.Join("/corpus", TestLabelsFile), labels)
	// Untouched keys keep their defaults.
	assert.Equal(t, ":18080", cfg.Addr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"unknown key", "epoch: 3\n", "epoch"},
		{"bad type", "epochs: many\n", "many"},
		{"zero hidden", "network:\n  input_size: 784\n  hidden_size: 0\n  output_size: 10\n", "layer sizes"},
		{"negative lr", "learning_rate: -1\n", "learning_rate"},
		{"negative max", "max_samples: -5\n", "max_samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{
		Hidden:       32,
		Epochs:       2,
		LearningRate: 0.5,
		Seed:         7,
		Addr:         "127.0.0.1:0",
	})
	assert.Equal(t, 32, cfg.Network.HiddenSize)
	assert.Equal(t, 2, cfg.Epochs)
	assert.InDelta(t, 0.5, cfg.LearningRate, 1e-15)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, "127.0.0.1:0", cfg.Addr)
	// Zero overrides change nothing.
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, Default().Model, cfg.Model)
	require.NoError(t, cfg.Validate())
}

func TestValidate_Nil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}

func TestFindModel(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Model = filepath.Join(dir, "custom.bin")

	_, err := cfg.FindModel()
	if err != nil {
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	}

	require.NoError(t, os.WriteFile(cfg.Model, []byte{0}, 0o600))
	got, err := cfg.FindModel()
	require.NoError(t, err)
	assert.Equal(t, cfg.Model, got)

	assert.Equal(t, cfg.Model, cfg.ModelCandidates()[0])
	assert.Len(t, cfg.ModelCandidates(), 4)
}

func TestModelCandidates_DefaultOrder(t *testing.T) {
	assert.Equal(t, []string{
		filepath.Join("..", "output", "model_params.bin"),
		filepath.Join("output", "model_params.bin"),
		"model_params.bin",
	}, Default().ModelCandidates())
}
