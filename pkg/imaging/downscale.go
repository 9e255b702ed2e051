// Package imaging bounds upload size by resampling photos before they reach the AI provider.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge = 800
	DefaultQuality = 70
)

var ErrUnsupportedFormat = errors.New("imaging: unsupported image format")

var supportedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Options bound the output of Downscale.
type Options struct {
	MaxEdge int
	Quality int
}

func (o Options) withDefaults() Options {
	if o.MaxEdge <= 0 {
		o.MaxEdge = DefaultMaxEdge
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Detect returns the sniffed media type and whether it can be decoded.
func Detect(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	for _, candidate := range supportedTypes {
		if mt.Is(candidate) {
			return candidate, true
		}
	}
	return mt.String(), false
}

// Downscale decodes data, shrinks it so its longest edge is at most MaxEdge and re-encodes it as
// JPEG. Images already within bounds are still re-encoded so the output format is uniform.
func Downscale(data []byte, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if _, ok := Detect(data); !ok {
		return nil, ErrUnsupportedFormat
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := src.Bounds()
	width, height := fit(bounds.Dx(), bounds.Dy(), opts.MaxEdge)

	// JPEG has no alpha channel; transparent pixels are flattened onto white.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}
	return out.Bytes(), nil
}

func fit(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	if width >= height {
		scaled := height * maxEdge / width
		if scaled < 1 {
			scaled = 1
		}
		return maxEdge, scaled
	}
	scaled := width * maxEdge / height
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxEdge
}
