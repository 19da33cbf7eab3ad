// Package canvas turns a browser canvas snapshot into a network input.
//
// The pipeline mirrors how MNIST digits were prepared: the drawing is
// cropped to its main stroke, padded to a square, scaled to 28×28 and
// inverted so ink is bright on a dark background.
package canvas

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
	"gonum.org/v1/gonum/mat"
)

// Preprocessing constants.
const (
	Size = 28 // output side length

	blankHigh     = 250.0 // mean gray above this is an empty white canvas
	blankLow      = 5.0   // mean gray below this is an empty black canvas
	inkThreshold  = 128   // gray values at or below count as ink
	margin        = 10    // pixels kept around the stroke bounding box
	minVariance   = 0.01  // output variance below this carries no digit
	maxInputPixel = 4096 * 4096
)

var (
	// ErrDecode reports input that is not a decodable image.
	ErrDecode = errors.New("image processing failed")
	// ErrBlank reports an image without a recognizable stroke.
	ErrBlank = errors.New("please draw a clear digit")
)

// Vectorize decodes a data URL (or bare base64 payload) and returns a
// Size*Size vector with values in [0, 1], ink high.
func Vectorize(dataURL string) (*mat.VecDense, error) {
	img, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}

// DecodeDataURL strips an optional "data:<mime>;base64," prefix and decodes
// the image behind it.
func DecodeDataURL(s string) (image.Image, error) {
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		i := strings.IndexByte(payload, ',')
		if i < 0 {
			return nil, fmt.Errorf("%w: data URL without payload", ErrDecode)
		}
		payload = payload[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", ErrDecode, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxInputPixel {
		return nil, fmt.Errorf("%w: unsupported size %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// FromImage runs the preprocessing pipeline on an already decoded image.
// Transparent areas are treated as white paper.
func FromImage(src image.Image) (*mat.VecDense, error) {
	gray := toGray(src)
	b := gray.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	if m := meanGray(gray); m > blankHigh || m < blankLow {
		return nil, fmt.Errorf("%w: blank canvas (mean %.1f)", ErrBlank, m)
	}

	box, ok := largestStroke(gray)
	if !ok {
		return nil, fmt.Errorf("%w: no stroke found", ErrBlank)
	}
	box = image.Rect(box.Min.X-margin, box.Min.Y-margin, box.Max.X+margin, box.Max.Y+margin).Intersect(b)

	side := max(box.Dx(), box.Dy())
	square := image.NewGray(image.Rect(0, 0, side, side))
	xdraw.Draw(square, square.Bounds(), image.White, image.Point{}, xdraw.Src)
	off := image.Pt((side-box.Dx())/2, (side-box.Dy())/2)
	xdraw.Draw(square, box.Sub(box.Min).Add(off), gray, box.Min, xdraw.Src)

	small := image.NewGray(image.Rect(0, 0, Size, Size))
	xdraw.BiLinear.Scale(small, small.Bounds(), square, square.Bounds(), xdraw.Src, nil)

	v := mat.NewVecDense(Size*Size, nil)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			v.SetVec(y*Size+x, float64(255-small.GrayAt(x, y).Y)/255)
		}
	}

	if variance(v) < minVariance {
		return nil, fmt.Errorf("%w: too little contrast", ErrBlank)
	}
	return v, nil
}

// toGray flattens src onto white and converts it to 8-bit gray.
func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(b)
	xdraw.Draw(gray, b, image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(gray, b, src, b.Min, xdraw.Over)
	return gray
}

func meanGray(g *image.Gray) float64 {
	b := g.Bounds()
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(g.GrayAt(x, y).Y)
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}

func isInk(c color.Gray) bool { return c.Y <= inkThreshold }

// largestStroke returns the bounding box of the 8-connected ink component
// whose box has the largest area.
func largestStroke(g *image.Gray) (image.Rectangle, bool) {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	seen := make([]bool, w*h)
	queue := make([]image.Point, 0, 256)

	var best image.Rectangle
	found := false

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if seen[y*w+x] || !isInk(g.GrayAt(b.Min.X+x, b.Min.Y+y)) {
				continue
			}
			seen[y*w+x] = true
			queue = append(queue[:0], image.Pt(x, y))
			box := image.Rect(x, y, x+1, y+1)

			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				box = box.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h || seen[ny*w+nx] {
							continue
						}
						if isInk(g.GrayAt(b.Min.X+nx, b.Min.Y+ny)) {
							seen[ny*w+nx] = true
							queue = append(queue, image.Pt(nx, ny))
						}
					}
				}
			}

			if !found || area(box) > area(best) {
				best, found = box, true
			}
		}
	}
	return best.Add(b.Min), found
}

func area(r image.Rectangle) int { return r.Dx() * r.Dy() }

func variance(v *mat.VecDense) float64 {
	n := float64(v.Len())
	mean := mat.Sum(v) / n
	var s float64
	for i := 0; i < v.Len(); i++ {
		d := v.AtVec(i) - mean
		s += d * d
	}
	return s / n
}
