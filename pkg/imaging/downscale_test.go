package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDownscaleBoundsLongestEdge(t *testing.T) {
	out, err := Downscale(encodePNG(t, 1600, 400), Options{MaxEdge: 800, Quality: 70})
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestDownscalePortrait(t *testing.T) {
	out, err := Downscale(encodePNG(t, 300, 1200), Options{})
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, DefaultMaxEdge, cfg.Height)
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	out, err := Downscale(encodePNG(t, 64, 32), Options{MaxEdge: 800})
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestDownscaleRejectsNonImages(t *testing.T) {
	_, err := Downscale([]byte("%PDF-1.4 not an image"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetect(t *testing.T) {
	mediaType, ok := Detect(encodePNG(t, 2, 2))
	assert.True(t, ok)
	assert.Equal(t, "image/png", mediaType)
}
