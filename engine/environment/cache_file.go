package environment

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// cacheHeaderSize is the fixed prefix of an IBL cache file: diffuse blob
// size (u64), specular blob size (u64), specular mip count (u32).
const cacheHeaderSize = 20

// faceTexelBytes is the byte size of one RGBA16Float texel.
const faceTexelBytes = 8

// ClampMipLevels clamps the requested specular chain depth to what the face
// size can hold. A zero request falls back to the default depth.
//
// Parameters:
//   - requested: the descriptor's requested mip count
//   - faceSize: the cube's face edge length in texels
//
// Returns:
//   - uint32: the effective mip count, always at least 1
func ClampMipLevels(requested, faceSize uint32) uint32 {
	if requested == 0 {
		requested = 7
	}
	limit := uint32(1)
	for size := faceSize; size > 1; size >>= 1 {
		limit++
	}
	if requested > limit {
		return limit
	}
	return requested
}

// DiffuseByteSize returns the byte size of the diffuse irradiance blob:
// faceSize² texels across six faces at eight bytes each.
//
// Parameters:
//   - faceSize: the cube's face edge length in texels
//
// Returns:
//   - uint64: the blob size in bytes
func DiffuseByteSize(faceSize uint32) uint64 {
	return uint64(faceSize) * uint64(faceSize) * 6 * faceTexelBytes
}

// SpecularByteSize returns the byte size of the specular radiance blob: the
// sum over mips of the mip's face area across six faces at eight bytes each.
//
// Parameters:
//   - faceSize: the cube's mip-0 face edge length in texels
//   - mipCount: the specular chain depth
//
// Returns:
//   - uint64: the blob size in bytes
func SpecularByteSize(faceSize, mipCount uint32) uint64 {
	var total uint64
	for mip := uint32(0); mip < mipCount; mip++ {
		size := MipSize(faceSize, mip)
		total += uint64(size) * uint64(size) * 6 * faceTexelBytes
	}
	return total
}

// MipSize returns the face edge length at the given mip, floored at 1.
//
// Parameters:
//   - faceSize: the mip-0 face edge length in texels
//   - mip: the mip level
//
// Returns:
//   - uint32: the edge length at that mip
func MipSize(faceSize, mip uint32) uint32 {
	size := faceSize >> mip
	if size == 0 {
		return 1
	}
	return size
}

// EncodeCacheFile serializes the convolved blobs into the on-disk layout.
//
// Parameters:
//   - diffuse: the tightly packed diffuse irradiance texels
//   - specular: the tightly packed specular texels, mip-major then face-major
//   - mipCount: the specular chain depth
//
// Returns:
//   - []byte: the encoded file contents
func EncodeCacheFile(diffuse, specular []byte, mipCount uint32) []byte {
	out := make([]byte, cacheHeaderSize, cacheHeaderSize+len(diffuse)+len(specular))
	binary.LittleEndian.PutUint64(out[0:], uint64(len(diffuse)))
	binary.LittleEndian.PutUint64(out[8:], uint64(len(specular)))
	binary.LittleEndian.PutUint32(out[16:], mipCount)
	out = append(out, diffuse...)
	out = append(out, specular...)
	return out
}

// DecodeCacheFile parses an IBL cache file.
//
// Parameters:
//   - data: the file contents
//
// Returns:
//   - []byte: the diffuse blob
//   - []byte: the specular blob
//   - uint32: the specular mip count
//   - error: an error if the file is truncated or either blob is empty
func DecodeCacheFile(data []byte) ([]byte, []byte, uint32, error) {
	if len(data) < cacheHeaderSize {
		return nil, nil, 0, fmt.Errorf("environment cache: truncated header")
	}
	diffuseSize := binary.LittleEndian.Uint64(data[0:])
	specularSize := binary.LittleEndian.Uint64(data[8:])
	mipCount := binary.LittleEndian.Uint32(data[16:])

	if diffuseSize == 0 || specularSize == 0 {
		return nil, nil, 0, fmt.Errorf("environment cache: empty blob")
	}
	total := cacheHeaderSize + diffuseSize + specularSize
	if uint64(len(data)) != total {
		return nil, nil, 0, fmt.Errorf("environment cache: have %d bytes, want %d", len(data), total)
	}

	diffuse := data[cacheHeaderSize : cacheHeaderSize+diffuseSize]
	specular := data[cacheHeaderSize+diffuseSize:]
	return diffuse, specular, mipCount, nil
}

// cacheRoot overrides the platform cache directory when non-empty.
var cacheRoot string

// SetCacheRoot overrides the directory precomputed IBL blobs are stored
// under. An empty value restores the platform default.
//
// Parameters:
//   - dir: the cache directory, or "" for the platform default
func SetCacheRoot(dir string) {
	cacheRoot = dir
}

// CachePath returns the cache file path for a descriptor hash, creating the
// cache directory if needed. The platform user-cache directory is preferred;
// the home directory serves as a fallback.
//
// Parameters:
//   - hash: the environment descriptor hash
//
// Returns:
//   - string: the cache file path
//   - error: an error if no writable directory can be resolved
func CachePath(hash uint64) (string, error) {
	dir := cacheRoot
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			home, homeErr := homedir.Dir()
			if homeErr != nil {
				return "", fmt.Errorf("environment cache: resolve directory: %w", err)
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "orbit-go", "ibl")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("environment cache: create %q: %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%016x.bin", hash)), nil
}
