package nn

import (
	"fmt"

	"github.com/born-ml/digitnet/internal/serialization"
)

// Save writes the parameters to path in the raw parameter format
// (W1, b1, W2, b2; little-endian int32 dims followed by row-major float64
// values).
//
// The file is written to a temporary sibling first and renamed into place,
// so a failed save never leaves a partially written model behind.
//
// Example:
//
//	if err := net.Save("output/model_params.bin"); err != nil {
//	    log.Fatal(err)
//	}
func (n *Network) Save(path string) error {
	if err := serialization.WriteFile(path, n.params()); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	n.logger.Debug("model saved", "path", path, "config", n.cfg.String())
	return nil
}

// Load replaces the parameters with the ones stored at path.
//
// The stored shapes must match the network's Config exactly. On any error
// (missing file, truncated data, wrong shapes) the current parameters are
// left unchanged.
//
// Returns an error wrapping serialization.ErrFormat for malformed or
// mismatched files, and fs.ErrNotExist when the file is missing.
func (n *Network) Load(path string) error {
	p, err := serialization.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if err := p.ExpectSizes(n.cfg.InputSize, n.cfg.HiddenSize, n.cfg.OutputSize); err != nil {
		return fmt.Errorf("failed to load model: %s: network is %s: %w", path, n.cfg, err)
	}
	n.setParams(p)
	n.logger.Debug("model loaded", "path", path, "config", n.cfg.String())
	return nil
}

// LoadFile creates a network from a parameter file, taking the layer sizes
// from the stored shapes.
func LoadFile(path string) (*Network, error) {
	p, err := serialization.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	in, hidden, out := p.Sizes()
	return FromParams(Config{InputSize: in, HiddenSize: hidden, OutputSize: out}, p)
}
