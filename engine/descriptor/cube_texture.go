package descriptor

import "github.com/Carmen-Shannon/orbit-go/common"

// CubeTextureDescriptor describes a cube map projected from an equirectangular
// Radiance HDR source. The realization decodes the source, uploads it as an
// RGBA16Float 2D texture and runs the equirectangular-to-cube compute pass
// once per face.
type CubeTextureDescriptor struct {
	// Path is the .hdr file path. Empty when Data is set.
	Path string

	// Data holds the raw .hdr file bytes when the source is in memory.
	Data []byte

	// FaceSize is the edge length of each cube face in texels.
	FaceSize uint32
}

// CubeFromFile describes a cube map decoded from an .hdr file on disk.
//
// Parameters:
//   - path: the Radiance HDR file path
//   - faceSize: the target cube-face edge length in texels
//
// Returns:
//   - CubeTextureDescriptor: the descriptor
func CubeFromFile(path string, faceSize uint32) CubeTextureDescriptor {
	return CubeTextureDescriptor{Path: path, FaceSize: faceSize}
}

// CubeFromBytes describes a cube map decoded from in-memory .hdr file bytes.
//
// Parameters:
//   - data: the raw .hdr file contents
//   - faceSize: the target cube-face edge length in texels
//
// Returns:
//   - CubeTextureDescriptor: the descriptor
func CubeFromBytes(data []byte, faceSize uint32) CubeTextureDescriptor {
	return CubeTextureDescriptor{Data: data, FaceSize: faceSize}
}

func (d CubeTextureDescriptor) hashInto(h *common.Hasher) {
	h.WriteString(d.Path)
	h.WriteBytes(d.Data)
	h.WriteUint32(d.FaceSize)
}

// Hash returns the cache key for the cube texture.
//
// Returns:
//   - uint64: the descriptor hash
func (d CubeTextureDescriptor) Hash() uint64 {
	h := common.NewHasher()
	d.hashInto(h)
	return h.Sum64()
}
