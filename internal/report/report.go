// Package report renders training history charts.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/born-ml/digitnet/internal/nn"
)

// Chart size.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// ErrNoHistory is returned when there is nothing to plot.
var ErrNoHistory = errors.New("report: empty training history")

// NewHistoryPlot builds a plot with one line for the mean loss and one for
// the accuracy fraction, indexed by epoch.
func NewHistoryPlot(history []nn.EpochStats) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	p := plot.New()
	p.Title.Text = "training history"
	p.X.Label.Text = "epoch"
	p.X.Min = 1
	p.Y.Min = 0
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	loss := make(plotter.XYs, len(history))
	acc := make(plotter.XYs, len(history))
	for i, s := range history {
		loss[i].X, loss[i].Y = float64(s.Epoch), s.Loss
		acc[i].X, acc[i].Y = float64(s.Epoch), s.Accuracy
	}

	for i, series := range []struct {
		name string
		xys  plotter.XYs
	}{
		{"loss", loss},
		{"accuracy", acc},
	} {
		l, err := plotter.NewLine(series.xys)
		if err != nil {
			return nil, fmt.Errorf("report: %s line: %w", series.name, err)
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(series.name, l)
	}
	return p, nil
}

// WriteHistory encodes the history chart to w. format is any format
// supported by plot, such as "svg" or "png".
func WriteHistory(w io.Writer, format string, history []nn.EpochStats) error {
	p, err := NewHistoryPlot(history)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteHistorySVG writes the history chart to path as SVG.
func WriteHistorySVG(path string, history []nn.EpochStats) (err error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".svg" {
		return fmt.Errorf("report: %s: expected .svg extension", path)
	}
	if len(history) == 0 {
		return ErrNoHistory
	}
	//nolint:gosec // G304: output path comes from the operator
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return WriteHistory(f, "svg", history)
}
