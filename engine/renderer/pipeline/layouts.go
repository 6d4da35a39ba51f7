package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// CameraUniformSize is the byte size of the camera uniform: a column-major
// 4×4 view-projection matrix, the eye position, and the global gamma.
const CameraUniformSize = 80

// LightStride is the byte size of one packed light record in the light
// storage buffer.
const LightStride = 64

// SharedLayouts holds the bind group layouts shared by every pipeline that
// includes the camera or light groups. Creating them once and threading the
// same handles through every pipeline keeps the renderer's camera and light
// bind groups valid across all of them.
type SharedLayouts struct {
	// Camera is the single-uniform camera layout.
	Camera *wgpu.BindGroupLayout

	// Light is the read-only storage buffer light layout.
	Light *wgpu.BindGroupLayout
}

// NewSharedLayouts creates the camera and light bind group layouts.
//
// Parameters:
//   - device: the GPU device
//
// Returns:
//   - *SharedLayouts: the created layouts
//   - error: an error if layout creation fails
func NewSharedLayouts(device *wgpu.Device) (*SharedLayouts, error) {
	camera, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: CameraUniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: create camera layout: %w", err)
	}

	light, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Light Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: LightStride,
				},
			},
		},
	})
	if err != nil {
		camera.Release()
		return nil, fmt.Errorf("pipeline: create light layout: %w", err)
	}

	return &SharedLayouts{Camera: camera, Light: light}, nil
}

// Release frees the shared layouts.
func (s *SharedLayouts) Release() {
	s.Light.Release()
	s.Camera.Release()
}

// vertexBufferLayout is the mesh vertex layout at buffer slot 0: position,
// normal, tangent, bitangent and UV at locations 0 through 4.
func vertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: descriptor.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 36, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 48, ShaderLocation: 4},
		},
	}
}

// instanceBufferLayout is the per-instance model matrix at buffer slot 1:
// four vec4 columns at locations 5 through 8, advancing per instance.
func instanceBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 64,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 6},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 7},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 8},
		},
	}
}
