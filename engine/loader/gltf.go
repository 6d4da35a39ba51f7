// gltf.go imports glTF 2.0 assets as engine model descriptors: one model per
// mesh primitive, with every scene node referencing the mesh becoming an
// instance of it.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/orbit-go/common"
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/Carmen-Shannon/orbit-go/engine/world"
	"github.com/chewxy/math32"
)

// importerImpl is the implementation of the Importer interface.
type importerImpl struct{}

// Importer loads glTF 2.0 assets (.gltf and .glb) into engine descriptors.
type Importer interface {
	// LoadModels parses a glTF file and returns one model descriptor per
	// mesh primitive in the default scene. Nodes sharing a mesh become
	// instances of the same model; world transforms are composed down the
	// node hierarchy. Documents without scenes yield every mesh once at the
	// identity transform.
	//
	// Parameters:
	//   - path: path to the .gltf or .glb file
	//
	// Returns:
	//   - []descriptor.ModelDescriptor: the loaded models, in document order
	//   - error: error if parsing or extraction fails
	LoadModels(path string) ([]descriptor.ModelDescriptor, error)

	// SpawnChanges loads a glTF file and wraps every model in a spawn
	// proposal ready to apply to a world.
	//
	// Parameters:
	//   - path: path to the .gltf or .glb file
	//
	// Returns:
	//   - []world.Change: one spawn change per loaded model
	//   - error: error if loading fails
	SpawnChanges(path string) ([]world.Change, error)
}

var _ Importer = &importerImpl{}

// NewImporter creates a new glTF importer.
//
// Returns:
//   - Importer: the importer
func NewImporter() Importer {
	return &importerImpl{}
}

func (im *importerImpl) LoadModels(path string) ([]descriptor.ModelDescriptor, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	doc := parser.Document()

	type primKey struct {
		mesh, prim int
	}

	instances := make(map[primKey][]common.Transform)
	var order []primKey

	addMeshInstance := func(meshIndex int, t common.Transform) {
		for primIndex := range doc.Meshes[meshIndex].Primitives {
			key := primKey{mesh: meshIndex, prim: primIndex}
			if _, ok := instances[key]; !ok {
				order = append(order, key)
			}
			instances[key] = append(instances[key], t)
		}
	}

	var walk func(nodeIndex int, parent common.Transform) error
	walk = func(nodeIndex int, parent common.Transform) error {
		if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", nodeIndex)
		}
		node := &doc.Nodes[nodeIndex]
		t := composeTransforms(parent, gltfNodeTransform(node))

		if node.Mesh != nil {
			if *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
				return fmt.Errorf("node %d: mesh index %d out of range", nodeIndex, *node.Mesh)
			}
			addMeshInstance(*node.Mesh, t)
		}

		for _, child := range node.Children {
			if err := walk(child, t); err != nil {
				return err
			}
		}
		return nil
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	}

	if len(roots) > 0 {
		for _, root := range roots {
			if err := walk(root, common.IdentityTransform()); err != nil {
				return nil, err
			}
		}
	} else {
		for meshIndex := range doc.Meshes {
			addMeshInstance(meshIndex, common.IdentityTransform())
		}
	}

	meshes := newGLTFMeshExtractor(parser)
	materials := newGLTFMaterialExtractor(parser)
	materialMemo := make(map[int]descriptor.MaterialDescriptor)

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	usedLabels := make(map[string]int)

	models := make([]descriptor.ModelDescriptor, 0, len(order))
	for _, key := range order {
		mesh, err := meshes.ExtractPrimitive(key.mesh, key.prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", key.mesh, key.prim, err)
		}

		material := descriptor.DefaultPBRMaterial()
		if matIdx := doc.Meshes[key.mesh].Primitives[key.prim].Material; matIdx != nil {
			memoized, ok := materialMemo[*matIdx]
			if !ok {
				memoized, err = materials.ExtractMaterial(*matIdx)
				if err != nil {
					return nil, err
				}
				materialMemo[*matIdx] = memoized
			}
			material = memoized
		}

		label := doc.Meshes[key.mesh].Name
		if label == "" {
			label = fmt.Sprintf("%s/mesh%d", stem, key.mesh)
		}
		if len(doc.Meshes[key.mesh].Primitives) > 1 {
			label = fmt.Sprintf("%s.%d", label, key.prim)
		}
		if n := usedLabels[label]; n > 0 {
			usedLabels[label] = n + 1
			label = fmt.Sprintf("%s#%d", label, n)
		} else {
			usedLabels[label] = 1
		}

		transforms := make(map[uint64]common.Transform, len(instances[key]))
		for i, t := range instances[key] {
			transforms[uint64(i)] = t
		}

		models = append(models, descriptor.ModelDescriptor{
			Label:      label,
			Mesh:       mesh,
			Materials:  []descriptor.MaterialDescriptor{material},
			Transforms: transforms,
		})
	}

	return models, nil
}

func (im *importerImpl) SpawnChanges(path string) ([]world.Change, error) {
	models, err := im.LoadModels(path)
	if err != nil {
		return nil, err
	}

	changes := make([]world.Change, len(models))
	for i, model := range models {
		changes[i] = world.SpawnModel(model)
	}
	return changes, nil
}

// gltfNodeTransform converts a node's transform into engine form. A matrix,
// when present, wins over the separate translation/rotation/scale fields.
func gltfNodeTransform(node *gltfNode) common.Transform {
	if node.Matrix != nil {
		return decomposeMatrix(*node.Matrix)
	}

	t := common.IdentityTransform()
	if node.Translation != nil {
		t.Position = *node.Translation
	}
	if node.Rotation != nil {
		t.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		t.Scale = *node.Scale
	}
	return t
}

// composeTransforms applies parent then child. Exact for uniform parent
// scale; non-uniform parent scale under rotation would need a full matrix
// and is approximated component-wise here.
func composeTransforms(parent, child common.Transform) common.Transform {
	scaled := [3]float32{
		parent.Scale[0] * child.Position[0],
		parent.Scale[1] * child.Position[1],
		parent.Scale[2] * child.Position[2],
	}
	rotated := quatRotate(parent.Rotation, scaled)

	return common.Transform{
		Position: [3]float32{
			parent.Position[0] + rotated[0],
			parent.Position[1] + rotated[1],
			parent.Position[2] + rotated[2],
		},
		Rotation: quatMul(parent.Rotation, child.Rotation),
		Scale: [3]float32{
			parent.Scale[0] * child.Scale[0],
			parent.Scale[1] * child.Scale[1],
			parent.Scale[2] * child.Scale[2],
		},
	}
}

// quatMul returns the Hamilton product a*b for quaternions in (x, y, z, w)
// order.
func quatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// quatRotate rotates v by the unit quaternion q using
// v' = v + 2*cross(q.xyz, cross(q.xyz, v) + w*v).
func quatRotate(q [4]float32, v [3]float32) [3]float32 {
	u := [3]float32{q[0], q[1], q[2]}
	t := common.Cross3(u, [3]float32{
		u[1]*v[2] - u[2]*v[1] + q[3]*v[0],
		u[2]*v[0] - u[0]*v[2] + q[3]*v[1],
		u[0]*v[1] - u[1]*v[0] + q[3]*v[2],
	})
	return [3]float32{
		v[0] + 2*t[0],
		v[1] + 2*t[1],
		v[2] + 2*t[2],
	}
}

// decomposeMatrix splits a column-major TRS matrix into engine transform
// parts. Scale is recovered as column lengths, rotation from the normalized
// upper 3x3 via the standard trace branch.
func decomposeMatrix(m [16]float32) common.Transform {
	sx := math32.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])
	sy := math32.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])
	sz := math32.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if sz == 0 {
		sz = 1
	}

	// Normalized rotation matrix entries, row r column c.
	r00, r01, r02 := m[0]/sx, m[4]/sy, m[8]/sz
	r10, r11, r12 := m[1]/sx, m[5]/sy, m[9]/sz
	r20, r21, r22 := m[2]/sx, m[6]/sy, m[10]/sz

	var q [4]float32
	trace := r00 + r11 + r22
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q[3] = s / 4
		q[0] = (r21 - r12) / s
		q[1] = (r02 - r20) / s
		q[2] = (r10 - r01) / s
	case r00 > r11 && r00 > r22:
		s := math32.Sqrt(1+r00-r11-r22) * 2
		q[3] = (r21 - r12) / s
		q[0] = s / 4
		q[1] = (r01 + r10) / s
		q[2] = (r02 + r20) / s
	case r11 > r22:
		s := math32.Sqrt(1+r11-r00-r22) * 2
		q[3] = (r02 - r20) / s
		q[0] = (r01 + r10) / s
		q[1] = s / 4
		q[2] = (r12 + r21) / s
	default:
		s := math32.Sqrt(1+r22-r00-r11) * 2
		q[3] = (r10 - r01) / s
		q[0] = (r02 + r20) / s
		q[1] = (r12 + r21) / s
		q[2] = s / 4
	}

	return common.Transform{
		Position: [3]float32{m[12], m[13], m[14]},
		Rotation: q,
		Scale:    [3]float32{sx, sy, sz},
	}
}
