package loader

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/digitnet/internal/numeric"
)

// writeIDX writes a big-endian header followed by payload.
func writeIDX(t *testing.T, path string, header []uint32, payload []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, header))
	buf.Write(payload)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func writeGzipIDX(t *testing.T, path string, header []uint32, payload []byte) {
	t.Helper()
	var raw bytes.Buffer
	require.NoError(t, binary.Write(&raw, binary.BigEndian, header))
	raw.Write(payload)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

// fixture writes a 3-image 2x2 corpus and returns its paths.
func fixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	images := filepath.Join(dir, "images-idx3-ubyte")
	labels := filepath.Join(dir, "labels-idx1-ubyte")
	writeIDX(t, images, []uint32{2051, 3, 2, 2}, []byte{
		0, 255, 0, 255,
		255, 255, 255, 255,
		51, 102, 153, 204,
	})
	writeIDX(t, labels, []uint32{2049, 3}, []byte{1, 0, 9})
	return images, labels
}

func TestLoad(t *testing.T) {
	images, labels := fixture(t)

	ds, err := Load(images, labels, 10)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, 4, ds.InputSize())
	assert.Equal(t, 2, ds.Rows)
	assert.Equal(t, 2, ds.Cols)

	assert.Equal(t, []float64{0, 1, 0, 1}, ds.Samples[0].Input.RawVector().Data)
	assert.Equal(t, []float64{1, 1, 1, 1}, ds.Samples[1].Input.RawVector().Data)
	assert.InDeltaSlice(t, []float64{0.2, 0.4, 0.6, 0.8}, ds.Samples[2].Input.RawVector().Data, 1e-12)

	wantClasses := []int{1, 0, 9}
	for i, s := range ds.Samples {
		assert.Equal(t, wantClasses[i], numeric.Argmax(s.Label))
		require.Equal(t, 10, s.Label.Len())
		sum := 0.0
		for k := 0; k < 10; k++ {
			sum += s.Label.AtVec(k)
		}
		assert.Equal(t, 1.0, sum)
		assert.Equal(t, 1.0, s.Label.AtVec(wantClasses[i]))
	}
}

func TestLoad_MaxSamples(t *testing.T) {
	images, labels := fixture(t)
	ds, err := Load(images, labels, 10, Options{MaxSamples: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 0, numeric.Argmax(ds.Samples[1].Label))
}

func TestLoad_Gzip(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "images-idx3-ubyte.gz")
	labels := filepath.Join(dir, "labels-idx1-ubyte.gz")
	writeGzipIDX(t, images, []uint32{2051, 2, 1, 3}, []byte{0, 255, 0, 255, 0, 255})
	writeGzipIDX(t, labels, []uint32{2049, 2}, []byte{4, 2})

	ds, err := Load(images, labels, 5)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []float64{0, 1, 0}, ds.Samples[0].Input.RawVector().Data)
	assert.Equal(t, 2, numeric.Argmax(ds.Samples[1].Label))
}

func TestReadImages_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	writeIDX(t, path, []uint32{9999, 1, 1, 1}, []byte{0})

	set, err := ReadImages(path)
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, errors.Is(err, ErrFormat))

	var magicErr *MagicError
	require.ErrorAs(t, err, &magicErr)
	assert.Equal(t, uint32(9999), magicErr.Got)
	assert.Equal(t, ImageMagic, magicErr.Want)
	assert.Contains(t, err.Error(), path)
}

func TestReadLabels_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	writeIDX(t, path, []uint32{2051, 1}, []byte{0})

	labels, err := ReadLabels(path)
	require.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, labels)
}

func TestLoad_BadMagicLeavesNoDataset(t *testing.T) {
	images, labels := fixture(t)
	writeIDX(t, images, []uint32{9999, 3, 2, 2}, make([]byte, 12))

	ds, err := Load(images, labels, 10)
	require.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, ds)

	images, labels = fixture(t)
	writeIDX(t, labels, []uint32{9999, 3}, []byte{1, 0, 9})
	ds, err = Load(images, labels, 10)
	require.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, ds)
}

func TestLoad_MissingFile(t *testing.T) {
	_, labels := fixture(t)
	missing := filepath.Join(t.TempDir(), "nope")

	ds, err := Load(missing, labels, 10)
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), missing)
}

func TestLoad_CountMismatch(t *testing.T) {
	images, labels := fixture(t)
	writeIDX(t, labels, []uint32{2049, 2}, []byte{1, 0})

	ds, err := Load(images, labels, 10)
	require.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, ds)
	assert.Contains(t, err.Error(), "image count (3)")
}

func TestLoad_LabelOutOfRange(t *testing.T) {
	images, labels := fixture(t)

	ds, err := Load(images, labels, 5) // label 9 does not fit
	require.ErrorIs(t, err, ErrFormat)
	assert.Nil(t, ds)
}

func TestReadImages_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short")
	writeIDX(t, path, []uint32{2051, 2, 2, 2}, []byte{1, 2, 3, 4, 5})

	_, err := ReadImages(path)
	require.ErrorIs(t, err, ErrFormat)
}

func TestReadImages_OverstatedHeader(t *testing.T) {
	dir := t.TempDir()

	// Plausible shape, no pixels behind it.
	path := filepath.Join(dir, "empty")
	writeIDX(t, path, []uint32{2051, 60000, 28, 28}, nil)
	_, err := ReadImages(path)
	require.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Beyond the size limit: rejected from the header alone.
	path = filepath.Join(dir, "huge")
	writeIDX(t, path, []uint32{2051, 1 << 20, 1024, 1024}, []byte{1, 2, 3})
	_, err = ReadImages(path)
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "size limit")

	path = filepath.Join(dir, "labels")
	writeIDX(t, path, []uint32{2049, 60000}, []byte{1, 2})
	_, err = ReadLabels(path)
	require.ErrorIs(t, err, ErrFormat)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadImages_ShortHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdr")
	require.NoError(t, os.WriteFile(path, []byte{0, 0, 8, 3, 0, 0}, 0o600))

	_, err := ReadImages(path)
	require.ErrorIs(t, err, ErrFormat)
}

func TestLoad_InvalidNumClasses(t *testing.T) {
	images, labels := fixture(t)
	_, err := Load(images, labels, 0)
	require.Error(t, err)
}
