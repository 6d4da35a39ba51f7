package descriptor

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/orbit-go/common"
)

// VertexStride is the size of one packed Vertex in bytes: three vec3s for
// position, normal, tangent, one vec3 bitangent and a vec2 UV, all f32.
const VertexStride = 56

// Vertex is a single mesh vertex in the packed layout the render pipelines
// consume at buffer slot 0.
type Vertex struct {
	// Position is the object-space position.
	Position [3]float32

	// Normal is the object-space normal.
	Normal [3]float32

	// Tangent is the object-space tangent.
	Tangent [3]float32

	// Bitangent completes the tangent frame. May be left zero and derived
	// as normal × tangent via DeriveBitangents.
	Bitangent [3]float32

	// UV is the texture coordinate.
	UV [2]float32
}

// BoundingBox is an axis-aligned bounding box in object space.
type BoundingBox struct {
	// Min is the componentwise minimum corner.
	Min [3]float32

	// Max is the componentwise maximum corner.
	Max [3]float32
}

// MeshDescriptor is the pure description of an indexed triangle mesh.
type MeshDescriptor struct {
	// Vertices is the vertex list in pipeline layout order.
	Vertices []Vertex

	// Indices is the u32 triangle index list.
	Indices []uint32
}

// NewMesh creates a mesh descriptor and fills in any zero bitangents as
// normal × tangent.
//
// Parameters:
//   - vertices: the vertex list
//   - indices: the u32 triangle index list
//
// Returns:
//   - MeshDescriptor: the descriptor
func NewMesh(vertices []Vertex, indices []uint32) MeshDescriptor {
	m := MeshDescriptor{Vertices: vertices, Indices: indices}
	m.DeriveBitangents()
	return m
}

// DeriveBitangents replaces every all-zero bitangent with normal × tangent,
// leaving authored bitangents untouched.
func (m *MeshDescriptor) DeriveBitangents() {
	for i := range m.Vertices {
		v := &m.Vertices[i]
		if v.Bitangent == [3]float32{} {
			v.Bitangent = common.Cross3(v.Normal, v.Tangent)
		}
	}
}

// BoundingBox computes the axis-aligned bounds over all vertices. An empty
// mesh yields the zero box.
//
// Returns:
//   - BoundingBox: the componentwise min/max of every vertex position
func (m MeshDescriptor) BoundingBox() BoundingBox {
	if len(m.Vertices) == 0 {
		return BoundingBox{}
	}
	box := BoundingBox{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < box.Min[i] {
				box.Min[i] = v.Position[i]
			}
			if v.Position[i] > box.Max[i] {
				box.Max[i] = v.Position[i]
			}
		}
	}
	return box
}

// VertexBytes packs the vertex list little-endian at VertexStride bytes per
// vertex, ready for a vertex buffer upload.
//
// Returns:
//   - []byte: the packed vertex data
func (m MeshDescriptor) VertexBytes() []byte {
	out := make([]byte, 0, len(m.Vertices)*VertexStride)
	var buf [4]byte
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
		out = append(out, buf[:]...)
	}
	for _, v := range m.Vertices {
		for _, f := range v.Position {
			put(f)
		}
		for _, f := range v.Normal {
			put(f)
		}
		for _, f := range v.Tangent {
			put(f)
		}
		for _, f := range v.Bitangent {
			put(f)
		}
		for _, f := range v.UV {
			put(f)
		}
	}
	return out
}

// IndexBytes packs the index list as little-endian u32 values, ready for an
// index buffer upload.
//
// Returns:
//   - []byte: the packed index data
func (m MeshDescriptor) IndexBytes() []byte {
	out := make([]byte, len(m.Indices)*4)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}

func (m MeshDescriptor) hashInto(h *common.Hasher) {
	h.WriteUint64(uint64(len(m.Vertices)))
	for _, v := range m.Vertices {
		h.WriteFloat32s(v.Position[:])
		h.WriteFloat32s(v.Normal[:])
		h.WriteFloat32s(v.Tangent[:])
		h.WriteFloat32s(v.Bitangent[:])
		h.WriteFloat32s(v.UV[:])
	}
	h.WriteUint64(uint64(len(m.Indices)))
	for _, idx := range m.Indices {
		h.WriteUint32(idx)
	}
}

// Hash returns the cache key for the mesh.
//
// Returns:
//   - uint64: the descriptor hash
func (m MeshDescriptor) Hash() uint64 {
	h := common.NewHasher()
	m.hashInto(h)
	return h.Sum64()
}
