package texture

import (
	"image"
	"image/color"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadRowsAlignsToCopyBoundary(t *testing.T) {
	// 3 texels per row at 4 bytes = 12 bytes, padded to 256.
	data := make([]byte, 12*2)
	for i := range data {
		data[i] = byte(i)
	}

	padded, bytesPerRow := padRows(data, 3, 2, 4)
	assert.Equal(t, uint32(256), bytesPerRow)
	require.Len(t, padded, 512)

	assert.Equal(t, data[:12], padded[:12])
	assert.Equal(t, data[12:24], padded[256:268])
	assert.Equal(t, byte(0), padded[12])
}

func TestPadRowsPassesAlignedDataThrough(t *testing.T) {
	// 64 texels per row at 4 bytes = 256 bytes, already aligned.
	data := make([]byte, 256*3)
	padded, bytesPerRow := padRows(data, 64, 3, 4)

	assert.Equal(t, uint32(256), bytesPerRow)
	assert.Equal(t, &data[0], &padded[0])
}

func TestBytesPerPixel(t *testing.T) {
	cases := map[wgpu.TextureFormat]uint32{
		wgpu.TextureFormatR8Unorm:        1,
		wgpu.TextureFormatRGBA8UnormSrgb: 4,
		wgpu.TextureFormatRGBA16Float:    8,
		wgpu.TextureFormatRGBA32Float:    16,
	}
	for format, want := range cases {
		got, err := bytesPerPixel(format)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := bytesPerPixel(wgpu.TextureFormatDepth32Float)
	assert.Error(t, err)
}

func TestImageToRGBAPacksTightly(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{B: 255, A: 255})

	pixels, w, h := imageToRGBA(img)
	assert.Equal(t, uint32(2), w)
	assert.Equal(t, uint32(2), h)
	require.Len(t, pixels, 16)
	assert.Equal(t, []byte{255, 0, 0, 255}, pixels[0:4])
	assert.Equal(t, []byte{0, 0, 255, 255}, pixels[12:16])
}

func TestImageToRGBAHandlesOffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	src.SetNRGBA(11, 10, color.NRGBA{G: 255, A: 255})

	pixels, w, h := imageToRGBA(src)
	assert.Equal(t, uint32(2), w)
	assert.Equal(t, uint32(1), h)
	assert.Equal(t, []byte{0, 255, 0, 255}, pixels[4:8])
}

func TestProjectionDispatchCoversFace(t *testing.T) {
	// 513 texels need 33 workgroups of 16.
	groups := (uint32(513) + projectionWorkgroupSize - 1) / projectionWorkgroupSize
	assert.Equal(t, uint32(33), groups)
}
