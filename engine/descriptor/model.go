package descriptor

import (
	"sort"

	"github.com/Carmen-Shannon/orbit-go/common"
)

// ModelDescriptor describes a renderable model: one mesh, the ordered
// materials applied to it, and the set of instance transforms keyed by a
// unique instance id. A model always carries at least one instance; the
// world store enforces that, not the descriptor.
type ModelDescriptor struct {
	// Label is the model's unique identity within the world.
	Label string

	// Mesh is the shared mesh geometry.
	Mesh MeshDescriptor

	// Materials are applied in order; index 0 is the primary material.
	Materials []MaterialDescriptor

	// Transforms maps instance id to the instance's transform.
	Transforms map[uint64]common.Transform
}

// NewModel creates a model descriptor with a single identity-transform
// instance under id 0.
//
// Parameters:
//   - label: the model's unique label
//   - mesh: the mesh geometry
//   - materials: the ordered material list
//
// Returns:
//   - ModelDescriptor: the descriptor
func NewModel(label string, mesh MeshDescriptor, materials ...MaterialDescriptor) ModelDescriptor {
	return ModelDescriptor{
		Label:     label,
		Mesh:      mesh,
		Materials: materials,
		Transforms: map[uint64]common.Transform{
			0: common.IdentityTransform(),
		},
	}
}

// InstanceIDs returns the instance ids in ascending order, which is also the
// order instances are packed into the instance buffer.
//
// Returns:
//   - []uint64: the sorted instance ids
func (d ModelDescriptor) InstanceIDs() []uint64 {
	ids := make([]uint64, 0, len(d.Transforms))
	for id := range d.Transforms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// InstanceBytes packs every instance's 4×4 model matrix little-endian in
// ascending id order, 64 bytes per instance, ready for the step-mode-instance
// vertex buffer.
//
// Returns:
//   - []byte: the packed instance matrices
func (d ModelDescriptor) InstanceBytes() []byte {
	ids := d.InstanceIDs()
	out := make([]byte, 0, len(ids)*64)
	for _, id := range ids {
		out = append(out, d.Transforms[id].MarshalMatrix()...)
	}
	return out
}

// Hash returns the cache key for the model. Map iteration order does not
// leak into the hash: transforms are folded in ascending id order.
//
// Returns:
//   - uint64: the descriptor hash
func (d ModelDescriptor) Hash() uint64 {
	h := common.NewHasher()
	h.WriteString(d.Label)
	d.Mesh.hashInto(h)
	h.WriteUint64(uint64(len(d.Materials)))
	for _, m := range d.Materials {
		m.hashInto(h)
	}
	h.WriteUint64(uint64(len(d.Transforms)))
	for _, id := range d.InstanceIDs() {
		t := d.Transforms[id]
		h.WriteUint64(id)
		h.WriteFloat32s(t.Position[:])
		h.WriteFloat32s(t.Rotation[:])
		h.WriteFloat32s(t.Scale[:])
	}
	return h.Sum64()
}
