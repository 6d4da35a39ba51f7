package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// shader is the implementation of the Shader interface. It holds the fully
// pre-processed source and the CPU-side layout data pipelines need.
type shader struct {
	desc          descriptor.ShaderDescriptor
	source        string
	module        *wgpu.ShaderModuleDescriptor
	layoutEntries [][]wgpu.BindGroupLayoutEntry
	vertexEntry   string
	fragmentEntry string
	computeEntry  string
	workgroupSize [3]uint32
}

// Shader is a realized shader: pre-processed WGSL source together with the
// module descriptor and the bind group layout entries derived from its
// descriptor's declared variables.
type Shader interface {
	// Name retrieves the shader's log-friendly name.
	//
	// Returns:
	//   - string: the shader name
	Name() string

	// Source retrieves the fully pre-processed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source with all imports expanded
	Source() string

	// Module returns the shader module descriptor ready for
	// device.CreateShaderModule.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor
	Module() *wgpu.ShaderModuleDescriptor

	// LayoutEntries returns the bind group layout entries derived from the
	// descriptor's variables, outer slice ordered by group index and inner
	// slices ordered by binding index. Group indices must be contiguous
	// from zero.
	//
	// Returns:
	//   - [][]wgpu.BindGroupLayoutEntry: entries per group
	LayoutEntries() [][]wgpu.BindGroupLayoutEntry

	// VertexEntryPoint returns the @vertex function name, or empty if the
	// source has none.
	//
	// Returns:
	//   - string: the vertex entry point name
	VertexEntryPoint() string

	// FragmentEntryPoint returns the @fragment function name, or empty if
	// the source has none.
	//
	// Returns:
	//   - string: the fragment entry point name
	FragmentEntryPoint() string

	// ComputeEntryPoint returns the @compute function name, or empty if the
	// source has none.
	//
	// Returns:
	//   - string: the compute entry point name
	ComputeEntryPoint() string

	// WorkgroupSize returns the @workgroup_size dimensions for compute
	// shaders, with unspecified dimensions defaulting to 1.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32
}

var _ Shader = &shader{}

// New realizes a shader descriptor: loads the source (from the descriptor
// itself or from disk), expands its imports against the library root, parses
// entry points, and derives bind group layout entries from the declared
// variables.
//
// Parameters:
//   - desc: the shader descriptor to realize
//   - libraryRoot: the directory file sources and `#import` files resolve
//     against
//
// Returns:
//   - Shader: the realized shader
//   - error: an error if the source cannot be read or pre-processed, or if
//     the declared variable groups are not contiguous from zero
func New(desc descriptor.ShaderDescriptor, libraryRoot string) (Shader, error) {
	raw := desc.Code
	if desc.SourceKind == descriptor.ShaderSourceFile {
		path := desc.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(libraryRoot, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("shader %q: read source: %w", desc.Name, err)
		}
		raw = string(data)
	}

	source, err := NewPreProcessor(libraryRoot).Process(raw)
	if err != nil {
		return nil, fmt.Errorf("shader %q: pre-process: %w", desc.Name, err)
	}

	entries, err := layoutEntries(desc.Variables)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", desc.Name, err)
	}

	s := &shader{
		desc:          desc,
		source:        source,
		layoutEntries: entries,
		module: &wgpu.ShaderModuleDescriptor{
			Label: desc.Name,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}
	s.vertexEntry, s.fragmentEntry, s.computeEntry = parseEntryPoints(source)
	s.workgroupSize = parseWorkgroupSize(source)
	return s, nil
}

func (s *shader) Name() string {
	return s.desc.Name
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) LayoutEntries() [][]wgpu.BindGroupLayoutEntry {
	return s.layoutEntries
}

func (s *shader) VertexEntryPoint() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntryPoint() string {
	return s.fragmentEntry
}

func (s *shader) ComputeEntryPoint() string {
	return s.computeEntry
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workgroupSize
}

// layoutEntries converts declared shader variables into bind group layout
// entries grouped by group index and sorted by binding index within each
// group.
func layoutEntries(variables []descriptor.ShaderVariable) ([][]wgpu.BindGroupLayoutEntry, error) {
	if len(variables) == 0 {
		return nil, nil
	}

	groups := make(map[uint32][]wgpu.BindGroupLayoutEntry)
	maxGroup := uint32(0)
	for _, v := range variables {
		groups[v.Group] = append(groups[v.Group], layoutEntry(v))
		if v.Group > maxGroup {
			maxGroup = v.Group
		}
	}

	out := make([][]wgpu.BindGroupLayoutEntry, maxGroup+1)
	for g := uint32(0); g <= maxGroup; g++ {
		entries, ok := groups[g]
		if !ok {
			return nil, fmt.Errorf("bind group %d is empty; groups must be contiguous from zero", g)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		out[g] = entries
	}
	return out, nil
}

func layoutEntry(v descriptor.ShaderVariable) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    v.Binding,
		Visibility: v.Visibility,
	}

	switch v.Kind {
	case descriptor.ShaderVariableTexture:
		entry.Texture.SampleType = v.SampleType
		entry.Texture.ViewDimension = v.ViewDimension
	case descriptor.ShaderVariableSampler:
		entry.Sampler.Type = v.SamplerType
	case descriptor.ShaderVariableBuffer:
		entry.Buffer.Type = v.BufferType
		entry.Buffer.MinBindingSize = v.BufferBytes
	case descriptor.ShaderVariableStorageTexture:
		entry.StorageTexture.Access = v.StorageAccess
		entry.StorageTexture.Format = v.StorageFormat
		entry.StorageTexture.ViewDimension = v.ViewDimension
	}
	return entry
}
