package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/digitnet/internal/nn"
)

func history() []nn.EpochStats {
	return []nn.EpochStats{
		{Epoch: 1, Loss: 0.62, Accuracy: 0.81, Samples: 100},
		{Epoch: 2, Loss: 0.31, Accuracy: 0.90, Samples: 100},
		{Epoch: 3, Loss: 0.22, Accuracy: 0.94, Samples: 100},
	}
}

func TestNewHistoryPlot(t *testing.T) {
	p, err := NewHistoryPlot(history())
	require.NoError(t, err)
	assert.Equal(t, "epoch", p.X.Label.Text)
	assert.InDelta(t, 3.0, p.X.Max, 1e-9)

	_, err = NewHistoryPlot(nil)
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestWriteHistory_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, "svg", history()))
	assert.Contains(t, buf.String(), "<svg")
}

func TestWriteHistorySVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.svg")
	require.NoError(t, WriteHistorySVG(path, history()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	assert.Error(t, WriteHistorySVG(filepath.Join(t.TempDir(), "history.png"), history()))
	assert.ErrorIs(t, WriteHistorySVG(path, nil), ErrNoHistory)
}
