package loader

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// IDX magic numbers.
const (
	ImageMagic uint32 = 2051 // 0x00000803
	LabelMagic uint32 = 2049 // 0x00000801
)

// maxImageBytes bounds rows*cols*count. The MNIST training set is ~47 MB.
const maxImageBytes = 1 << 30

// ImageSet is the raw content of an IDX image file.
type ImageSet struct {
	Rows   int
	Cols   int
	Pixels [][]byte // one row-major slice of Rows*Cols bytes per image
}

// Len returns the number of images.
func (s *ImageSet) Len() int { return len(s.Pixels) }

// openIDX opens path and wraps it in a gzip reader when the name ends in .gz.
// The returned closer releases every layer.
func openIDX(path string) (io.Reader, func() error, error) {
	//nolint:gosec // G304: corpus paths come from the operator
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return bufio.NewReader(f), f.Close, nil
	}
	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %s: gzip: %w", ErrFormat, path, err)
	}
	closer := func() error {
		zerr := zr.Close()
		ferr := f.Close()
		return errors.Join(zerr, ferr)
	}
	return zr, closer, nil
}

// readHeader reads n big-endian uint32 values.
func readHeader(r io.Reader, n int) ([]uint32, error) {
	vals := make([]uint32, n)
	if err := binary.Read(r, binary.BigEndian, vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// ReadImages reads an IDX image file.
//
// Returns an error wrapping ErrFormat if the magic number is not 2051, the
// header is short, or the pixel payload is truncated. Open failures are
// returned as the *fs.PathError from the operating system.
func ReadImages(path string) (*ImageSet, error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFn() }()

	hdr, err := readHeader(r, 4)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %w", ErrFormat, path, err)
	}
	magic, count, rows, cols := hdr[0], hdr[1], hdr[2], hdr[3]
	if magic != ImageMagic {
		return nil, &MagicError{Path: path, Got: magic, Want: ImageMagic}
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: %s: invalid image size %dx%d", ErrFormat, path, rows, cols)
	}
	imageSize := uint64(rows) * uint64(cols)
	if imageSize*uint64(count) > maxImageBytes {
		return nil, fmt.Errorf("%w: %s: %d images of %dx%d exceeds size limit", ErrFormat, path, count, rows, cols)
	}

	set := &ImageSet{
		Rows:   int(rows),
		Cols:   int(cols),
		Pixels: make([][]byte, count),
	}
	// One backing array for all images, grown as the payload arrives.
	buf, err := readPayload(r, imageSize*uint64(count))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read pixels: %w", ErrFormat, path, err)
	}
	for i := range set.Pixels {
		off := uint64(i) * imageSize
		set.Pixels[i] = buf[off : off+imageSize : off+imageSize]
	}
	return set, nil
}

// ReadLabels reads an IDX label file and returns the raw class bytes.
//
// Returns an error wrapping ErrFormat if the magic number is not 2049 or the
// payload is truncated.
func ReadLabels(path string) ([]uint8, error) {
	r, closeFn, err := openIDX(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFn() }()

	hdr, err := readHeader(r, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %w", ErrFormat, path, err)
	}
	magic, count := hdr[0], hdr[1]
	if magic != LabelMagic {
		return nil, &MagicError{Path: path, Got: magic, Want: LabelMagic}
	}
	if uint64(count) > maxImageBytes {
		return nil, fmt.Errorf("%w: %s: label count %d exceeds size limit", ErrFormat, path, count)
	}

	labels, err := readPayload(r, uint64(count))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read labels: %w", ErrFormat, path, err)
	}
	return labels, nil
}

// readPayload reads exactly n bytes. The buffer grows with the data read, so
// a header that overstates the payload fails without a large allocation.
func readPayload(r io.Reader, n uint64) ([]byte, error) {
	//nolint:gosec // G115: n is bounded by maxImageBytes
	buf, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, err
	}
	if uint64(len(buf)) != n {
		return nil, fmt.Errorf("got %d of %d bytes: %w", len(buf), n, io.ErrUnexpectedEOF)
	}
	return buf, nil
}
