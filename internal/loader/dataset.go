package loader

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/digitnet/internal/numeric"
)

// Sample pairs one normalized input vector with its one-hot label.
type Sample struct {
	Input *mat.VecDense // length Rows*Cols, values in [0, 1]
	Label *mat.VecDense // one-hot, length NumClasses
}

// Dataset is an ordered sequence of samples. Order follows the corpus and is
// never shuffled.
type Dataset struct {
	Rows       int
	Cols       int
	NumClasses int
	Samples    []Sample
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Samples) }

// InputSize returns the length of every input vector.
func (d *Dataset) InputSize() int { return d.Rows * d.Cols }

// Options tunes Load.
type Options struct {
	MaxSamples int // Maximum number of samples to keep (0 = all)
}

// Load reads an image corpus and a label corpus and pairs them by index.
//
// Parameters:
//   - imagesPath: IDX image file (magic 2051), optionally gzip-compressed
//   - labelsPath: IDX label file (magic 2049), optionally gzip-compressed
//   - numClasses: length of the one-hot label vectors
//   - opts: optional limits; only the first value is used
//
// Pixels are normalized by dividing by 255. Every label must lie in
// [0, numClasses) and both files must hold the same number of entries;
// violations are reported as ErrFormat. On error no dataset is returned.
func Load(imagesPath, labelsPath string, numClasses int, opts ...Options) (*Dataset, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("loader: numClasses must be > 0 (got %d)", numClasses)
	}
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}

	images, err := ReadImages(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	labels, err := ReadLabels(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	if images.Len() != len(labels) {
		return nil, fmt.Errorf("%w: image count (%d) in %s != label count (%d) in %s",
			ErrFormat, images.Len(), imagesPath, len(labels), labelsPath)
	}

	n := images.Len()
	if opt.MaxSamples > 0 && n > opt.MaxSamples {
		n = opt.MaxSamples
	}

	ds := &Dataset{
		Rows:       images.Rows,
		Cols:       images.Cols,
		NumClasses: numClasses,
		Samples:    make([]Sample, n),
	}
	size := ds.InputSize()
	for i := 0; i < n; i++ {
		class := int(labels[i])
		if class >= numClasses {
			return nil, fmt.Errorf("%w: %s: label %d at index %d out of range [0, %d)",
				ErrFormat, labelsPath, class, i, numClasses)
		}
		ds.Samples[i] = Sample{
			Input: Normalize(images.Pixels[i], size),
			Label: numeric.OneHot(class, numClasses),
		}
	}
	return ds, nil
}

// Normalize converts raw 0-255 pixel bytes into a vector of values in [0, 1].
func Normalize(pixels []byte, size int) *mat.VecDense {
	data := make([]float64, size)
	for j := 0; j < size && j < len(pixels); j++ {
		data[j] = float64(pixels[j]) / 255.0
	}
	return mat.NewVecDense(size, data)
}
