package loader

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hdrHeader(width, height int) []byte {
	return []byte(fmt.Sprintf("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", height, width))
}

func TestDecodeHDRFlatRecords(t *testing.T) {
	// 2x1 image: first pixel ~1.0 grey, second pixel black.
	data := append(hdrHeader(2, 1),
		128, 128, 128, 129,
		0, 0, 0, 0,
	)

	img, err := DecodeHDR(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), img.Width)
	assert.Equal(t, uint32(1), img.Height)
	require.Len(t, img.Pixels, 6)

	for c := 0; c < 3; c++ {
		assert.InDelta(t, 1.0, float64(img.Pixels[c]), 0.01)
		assert.Zero(t, img.Pixels[3+c])
	}
}

func TestDecodeHDRRunLengthScanline(t *testing.T) {
	width := 8
	data := hdrHeader(width, 1)
	// Adaptive RLE scanline header.
	data = append(data, 2, 2, byte(width>>8), byte(width))
	// Four channel planes, each a single run of 8 repeated bytes.
	for _, v := range []byte{128, 64, 32, 129} {
		data = append(data, 128+8, v)
	}

	img, err := DecodeHDR(data)
	require.NoError(t, err)
	require.Len(t, img.Pixels, width*3)

	for x := 0; x < width; x++ {
		assert.InDelta(t, 1.0, float64(img.Pixels[x*3]), 0.01)
		assert.InDelta(t, 0.5, float64(img.Pixels[x*3+1]), 0.01)
		assert.InDelta(t, 0.25, float64(img.Pixels[x*3+2]), 0.01)
	}
}

func TestDecodeHDRRejectsBadMagic(t *testing.T) {
	_, err := DecodeHDR([]byte("#?NOTRADIANCE\n\n-Y 1 +X 1\n"))
	assert.Error(t, err)
}

func TestDecodeHDRRejectsTruncatedScanline(t *testing.T) {
	data := append(hdrHeader(2, 1), 128, 128, 128, 129)
	_, err := DecodeHDR(data)
	assert.Error(t, err)
}

func TestRGBA16FBytesForcesOpaqueAlpha(t *testing.T) {
	img := &HDRImage{Width: 1, Height: 1, Pixels: []float32{1, 0.5, 0.25}}
	data := img.RGBA16FBytes()
	require.Len(t, data, 8)

	read := func(off int) float32 {
		return common.Float16frombits(uint16(data[off]) | uint16(data[off+1])<<8)
	}
	assert.Equal(t, float32(1), read(0))
	assert.Equal(t, float32(0.5), read(2))
	assert.Equal(t, float32(0.25), read(4))
	assert.Equal(t, float32(1), read(6))
}
