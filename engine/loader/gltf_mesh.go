package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/chewxy/math32"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor defines the interface for extracting primitive geometry
// from a parsed glTF document into engine mesh descriptors.
type gltfMeshExtractor interface {
	// ExtractPrimitive extracts a single triangle primitive as a mesh
	// descriptor. Missing normals and tangents are generated from the
	// geometry.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh in the document
	//   - primitiveIndex: the index of the primitive within the mesh
	//
	// Returns:
	//   - descriptor.MeshDescriptor: the extracted mesh
	//   - error: error if extraction fails
	ExtractPrimitive(meshIndex, primitiveIndex int) (descriptor.MeshDescriptor, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractPrimitive(meshIndex, primitiveIndex int) (descriptor.MeshDescriptor, error) {
	doc := e.parser.Document()
	if doc == nil {
		return descriptor.MeshDescriptor{}, fmt.Errorf("no document loaded")
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return descriptor.MeshDescriptor{}, fmt.Errorf("mesh index %d out of range", meshIndex)
	}
	mesh := &doc.Meshes[meshIndex]
	if primitiveIndex < 0 || primitiveIndex >= len(mesh.Primitives) {
		return descriptor.MeshDescriptor{}, fmt.Errorf("primitive index %d out of range", primitiveIndex)
	}

	prim := &mesh.Primitives[primitiveIndex]
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return descriptor.MeshDescriptor{}, fmt.Errorf("unsupported primitive mode %d: only triangles are supported", *prim.Mode)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return descriptor.MeshDescriptor{}, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posIdx)
	if err != nil {
		return descriptor.MeshDescriptor{}, fmt.Errorf("failed to read positions: %w", err)
	}

	vertices := make([]descriptor.Vertex, len(positions))
	for i := range positions {
		vertices[i].Position = positions[i]
	}

	if uvIdx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := e.parser.ReadVec2Accessor(uvIdx)
		if err != nil {
			return descriptor.MeshDescriptor{}, fmt.Errorf("failed to read texture coordinates: %w", err)
		}
		for i := range vertices {
			if i < len(uvs) {
				vertices[i].UV = uvs[i]
			}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.parser.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return descriptor.MeshDescriptor{}, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		// Non-indexed geometry: every three consecutive vertices form a
		// triangle.
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	if normIdx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := e.parser.ReadVec3Accessor(normIdx)
		if err != nil {
			return descriptor.MeshDescriptor{}, fmt.Errorf("failed to read normals: %w", err)
		}
		for i := range vertices {
			if i < len(normals) {
				vertices[i].Normal = normals[i]
			}
		}
	} else {
		generateNormals(vertices, indices)
	}

	if tanIdx, ok := prim.Attributes["TANGENT"]; ok {
		// glTF tangents are vec4; w carries the handedness used to
		// reconstruct the bitangent.
		tangents, err := e.parser.ReadVec4Accessor(tanIdx)
		if err != nil {
			return descriptor.MeshDescriptor{}, fmt.Errorf("failed to read tangents: %w", err)
		}
		for i := range vertices {
			if i >= len(tangents) {
				break
			}
			t := [3]float32{tangents[i][0], tangents[i][1], tangents[i][2]}
			w := tangents[i][3]
			vertices[i].Tangent = t
			b := common.Cross3(vertices[i].Normal, t)
			vertices[i].Bitangent = [3]float32{b[0] * w, b[1] * w, b[2] * w}
		}
	} else {
		generateTangents(vertices, indices)
	}

	return descriptor.NewMesh(vertices, indices), nil
}

// generateNormals computes per-vertex normals by accumulating unnormalized
// face normals. The cross product magnitude is proportional to triangle area,
// so larger faces contribute more before the final normalization.
func generateNormals(vertices []descriptor.Vertex, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			continue
		}
		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position

		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		n := common.Cross3(e1, e2)

		for _, idx := range []uint32{i0, i1, i2} {
			vertices[idx].Normal[0] += n[0]
			vertices[idx].Normal[1] += n[1]
			vertices[idx].Normal[2] += n[2]
		}
	}

	for i := range vertices {
		if vertices[i].Normal == [3]float32{} {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		vertices[i].Normal = common.Normalize3(vertices[i].Normal)
	}
}

// generateTangents derives per-vertex tangents and bitangents from the UV
// gradient across each triangle, then Gram-Schmidt orthonormalizes the
// tangent against the normal. Handedness is recovered by comparing the
// accumulated bitangent with normal × tangent.
func generateTangents(vertices []descriptor.Vertex, indices []uint32) {
	tan := make([][3]float32, len(vertices))
	bitan := make([][3]float32, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			continue
		}
		v0, v1, v2 := &vertices[i0], &vertices[i1], &vertices[i2]

		e1 := [3]float32{v1.Position[0] - v0.Position[0], v1.Position[1] - v0.Position[1], v1.Position[2] - v0.Position[2]}
		e2 := [3]float32{v2.Position[0] - v0.Position[0], v2.Position[1] - v0.Position[1], v2.Position[2] - v0.Position[2]}

		du1 := v1.UV[0] - v0.UV[0]
		dv1 := v1.UV[1] - v0.UV[1]
		du2 := v2.UV[0] - v0.UV[0]
		dv2 := v2.UV[1] - v0.UV[1]

		det := du1*dv2 - du2*dv1
		if math32.Abs(det) < 1e-8 {
			// Degenerate UV mapping, no stable gradient for this face.
			continue
		}
		r := 1.0 / det

		t := [3]float32{
			(dv2*e1[0] - dv1*e2[0]) * r,
			(dv2*e1[1] - dv1*e2[1]) * r,
			(dv2*e1[2] - dv1*e2[2]) * r,
		}
		b := [3]float32{
			(du1*e2[0] - du2*e1[0]) * r,
			(du1*e2[1] - du2*e1[1]) * r,
			(du1*e2[2] - du2*e1[2]) * r,
		}

		for _, idx := range []uint32{i0, i1, i2} {
			tan[idx][0] += t[0]
			tan[idx][1] += t[1]
			tan[idx][2] += t[2]
			bitan[idx][0] += b[0]
			bitan[idx][1] += b[1]
			bitan[idx][2] += b[2]
		}
	}

	for i := range vertices {
		n := vertices[i].Normal
		t := tan[i]

		if t == [3]float32{} {
			// No UV gradient reached this vertex; pick any vector
			// perpendicular to the normal.
			t = common.Cross3(n, [3]float32{0, 1, 0})
			if t == [3]float32{} {
				t = common.Cross3(n, [3]float32{1, 0, 0})
			}
			vertices[i].Tangent = common.Normalize3(t)
			vertices[i].Bitangent = common.Cross3(n, vertices[i].Tangent)
			continue
		}

		// Gram-Schmidt: remove the normal component, then normalize.
		d := n[0]*t[0] + n[1]*t[1] + n[2]*t[2]
		t = [3]float32{t[0] - n[0]*d, t[1] - n[1]*d, t[2] - n[2]*d}
		if t == [3]float32{} {
			t = common.Cross3(n, [3]float32{0, 1, 0})
		}
		t = common.Normalize3(t)
		vertices[i].Tangent = t

		// Handedness: flip the reconstructed bitangent when it opposes the
		// accumulated one.
		b := common.Cross3(n, t)
		w := float32(1)
		if b[0]*bitan[i][0]+b[1]*bitan[i][1]+b[2]*bitan[i][2] < 0 {
			w = -1
		}
		vertices[i].Bitangent = [3]float32{b[0] * w, b[1] * w, b[2] * w}
	}
}
