package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampMipLevels(t *testing.T) {
	// Face size 1 holds exactly one mip.
	assert.Equal(t, uint32(1), ClampMipLevels(7, 1))
	// 512 holds ten, so the default request of seven fits.
	assert.Equal(t, uint32(7), ClampMipLevels(7, 512))
	// 16 holds five.
	assert.Equal(t, uint32(5), ClampMipLevels(7, 16))
	// Zero request falls back to the default depth.
	assert.Equal(t, uint32(7), ClampMipLevels(0, 1024))
}

func TestMipSizeFloorsAtOne(t *testing.T) {
	assert.Equal(t, uint32(64), MipSize(256, 2))
	assert.Equal(t, uint32(1), MipSize(4, 2))
	assert.Equal(t, uint32(1), MipSize(4, 9))
}

func TestBlobSizes(t *testing.T) {
	assert.Equal(t, uint64(4*4*6*8), DiffuseByteSize(4))
	// 4² + 2² + 1² texels per face across three mips.
	assert.Equal(t, uint64((16+4+1)*6*8), SpecularByteSize(4, 3))
}

func TestCacheFileRoundTrip(t *testing.T) {
	diffuse := make([]byte, 4*4*6*8)
	specular := make([]byte, (16+4+1)*6*8)
	for i := range diffuse {
		diffuse[i] = byte(i)
	}
	for i := range specular {
		specular[i] = byte(i * 3)
	}

	encoded := EncodeCacheFile(diffuse, specular, 3)
	gotDiffuse, gotSpecular, mipCount, err := DecodeCacheFile(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), mipCount)
	assert.Equal(t, diffuse, gotDiffuse)
	assert.Equal(t, specular, gotSpecular)
}

func TestDecodeCacheFileRejectsTruncation(t *testing.T) {
	encoded := EncodeCacheFile(make([]byte, 96), make([]byte, 96), 1)
	_, _, _, err := DecodeCacheFile(encoded[:len(encoded)-1])
	require.Error(t, err)

	_, _, _, err = DecodeCacheFile(encoded[:10])
	require.Error(t, err)
}

func TestDecodeCacheFileRejectsEmptyBlobs(t *testing.T) {
	encoded := EncodeCacheFile(nil, make([]byte, 8), 1)
	_, _, _, err := DecodeCacheFile(encoded)
	require.Error(t, err)
}

func TestUnpadRowsStripsAlignment(t *testing.T) {
	// Two rows of 8 tight bytes padded to 16.
	padded := make([]byte, 32)
	for i := range padded {
		padded[i] = byte(i)
	}
	out := unpadRows(padded, 8, 16, 2)
	require.Len(t, out, 16)
	assert.Equal(t, padded[0:8], out[0:8])
	assert.Equal(t, padded[16:24], out[8:16])
}

func TestAlignRow(t *testing.T) {
	assert.Equal(t, uint32(256), alignRow(1))
	assert.Equal(t, uint32(256), alignRow(256))
	assert.Equal(t, uint32(512), alignRow(257))
}
