package environment

import (
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// convolutionWorkgroupSize matches the @workgroup_size in every convolution
// shader; dispatches cover ⌈size/16⌉² workgroups per face.
const convolutionWorkgroupSize = 16

// prefilterParamsSize is the byte size of the prefilter uniform: one
// roughness float padded to 16 bytes.
const prefilterParamsSize = 16

// cubeConvolutionVariables declares the shared binding shape of the cube
// convolution passes: source cube, sampler, writable face array.
func cubeConvolutionVariables() []descriptor.ShaderVariable {
	return []descriptor.ShaderVariable{
		{
			Kind:          descriptor.ShaderVariableTexture,
			Group:         0,
			Binding:       0,
			Visibility:    wgpu.ShaderStageCompute,
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimensionCube,
		},
		{
			Kind:        descriptor.ShaderVariableSampler,
			Group:       0,
			Binding:     1,
			Visibility:  wgpu.ShaderStageCompute,
			SamplerType: wgpu.SamplerBindingTypeFiltering,
		},
		{
			Kind:          descriptor.ShaderVariableStorageTexture,
			Group:         0,
			Binding:       2,
			Visibility:    wgpu.ShaderStageCompute,
			ViewDimension: wgpu.TextureViewDimension2DArray,
			StorageFormat: wgpu.TextureFormatRGBA16Float,
			StorageAccess: wgpu.StorageTextureAccessWriteOnly,
		},
	}
}

// irradianceShaderDescriptor selects the convolution source by sampling mode.
func irradianceShaderDescriptor(sampling descriptor.EnvironmentSampling) descriptor.ShaderDescriptor {
	code := irradianceImportanceWGSL
	name := "irradiance_importance"
	if sampling == descriptor.SamplingBoxBlur {
		code = irradianceBoxWGSL
		name = "irradiance_box"
	}
	return descriptor.ShaderDescriptor{
		Name:       name,
		SourceKind: descriptor.ShaderSourceInline,
		Code:       code,
		Variables:  cubeConvolutionVariables(),
		Stages:     wgpu.ShaderStageCompute,
	}
}

// prefilterShaderDescriptor declares the specular radiance pass: the cube
// convolution bindings plus the roughness uniform.
func prefilterShaderDescriptor() descriptor.ShaderDescriptor {
	variables := append(cubeConvolutionVariables(), descriptor.ShaderVariable{
		Kind:        descriptor.ShaderVariableBuffer,
		Group:       0,
		Binding:     3,
		Visibility:  wgpu.ShaderStageCompute,
		BufferType:  wgpu.BufferBindingTypeUniform,
		BufferBytes: prefilterParamsSize,
	})
	return descriptor.ShaderDescriptor{
		Name:       "specular_prefilter",
		SourceKind: descriptor.ShaderSourceInline,
		Code:       prefilterWGSL,
		Variables:  variables,
		Stages:     wgpu.ShaderStageCompute,
	}
}

// brdfShaderDescriptor declares the BRDF integration pass: one writable
// 2D target.
func brdfShaderDescriptor() descriptor.ShaderDescriptor {
	return descriptor.ShaderDescriptor{
		Name:       "brdf_lut",
		SourceKind: descriptor.ShaderSourceInline,
		Code:       brdfWGSL,
		Variables: []descriptor.ShaderVariable{
			{
				Kind:          descriptor.ShaderVariableStorageTexture,
				Group:         0,
				Binding:       0,
				Visibility:    wgpu.ShaderStageCompute,
				ViewDimension: wgpu.TextureViewDimension2D,
				StorageFormat: wgpu.TextureFormatRGBA16Float,
				StorageAccess: wgpu.StorageTextureAccessWriteOnly,
			},
		},
		Stages: wgpu.ShaderStageCompute,
	}
}

const irradianceImportanceWGSL = `#import <constants>
#import <pbr_functions>
#import <cube_faces>

@group(0) @binding(0) var source: texture_cube<f32>;
@group(0) @binding(1) var source_sampler: sampler;
@group(0) @binding(2) var target: texture_storage_2d_array<rgba16float, write>;

const SAMPLE_COUNT: u32 = 1024u;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(target).x;
    if (gid.x >= size || gid.y >= size) {
        return;
    }

    let uv = (vec2<f32>(f32(gid.x), f32(gid.y)) + 0.5) / f32(size) * 2.0 - 1.0;
    let n = normalize(cube_face_direction(gid.z, uv));

    var up = vec3<f32>(0.0, 0.0, 1.0);
    if (abs(n.z) > 0.999) {
        up = vec3<f32>(1.0, 0.0, 0.0);
    }
    let tangent = normalize(cross(up, n));
    let bitangent = cross(n, tangent);

    // Cosine-weighted hemisphere sampling: the estimator of the diffuse
    // integral reduces to the plain average of the sampled radiance.
    var irradiance = vec3<f32>(0.0);
    for (var i = 0u; i < SAMPLE_COUNT; i += 1u) {
        let xi = hammersley(i, SAMPLE_COUNT);
        let phi = 2.0 * PI * xi.x;
        let cos_theta = sqrt(1.0 - xi.y);
        let sin_theta = sqrt(xi.y);

        let local = vec3<f32>(cos(phi) * sin_theta, sin(phi) * sin_theta, cos_theta);
        let dir = tangent * local.x + bitangent * local.y + n * local.z;
        irradiance += textureSampleLevel(source, source_sampler, dir, 0.0).rgb;
    }

    irradiance /= f32(SAMPLE_COUNT);
    textureStore(target, vec2<i32>(gid.xy), i32(gid.z), vec4<f32>(irradiance, 1.0));
}`

const irradianceBoxWGSL = `#import <constants>
#import <cube_faces>

@group(0) @binding(0) var source: texture_cube<f32>;
@group(0) @binding(1) var source_sampler: sampler;
@group(0) @binding(2) var target: texture_storage_2d_array<rgba16float, write>;

const SAMPLE_DELTA: f32 = 0.2;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(target).x;
    if (gid.x >= size || gid.y >= size) {
        return;
    }

    let uv = (vec2<f32>(f32(gid.x), f32(gid.y)) + 0.5) / f32(size) * 2.0 - 1.0;
    let n = normalize(cube_face_direction(gid.z, uv));

    var up = vec3<f32>(0.0, 0.0, 1.0);
    if (abs(n.z) > 0.999) {
        up = vec3<f32>(1.0, 0.0, 0.0);
    }
    let tangent = normalize(cross(up, n));
    let bitangent = cross(n, tangent);

    var irradiance = vec3<f32>(0.0);
    var count = 0.0;
    for (var phi = 0.0; phi < 2.0 * PI; phi += SAMPLE_DELTA) {
        for (var theta = 0.0; theta < 0.5 * PI; theta += SAMPLE_DELTA) {
            let local = vec3<f32>(sin(theta) * cos(phi), sin(theta) * sin(phi), cos(theta));
            let dir = tangent * local.x + bitangent * local.y + n * local.z;
            irradiance += textureSampleLevel(source, source_sampler, dir, 0.0).rgb * cos(theta) * sin(theta);
            count += 1.0;
        }
    }

    irradiance = PI * irradiance / max(count, 1.0);
    textureStore(target, vec2<i32>(gid.xy), i32(gid.z), vec4<f32>(irradiance, 1.0));
}`

const prefilterWGSL = `#import <constants>
#import <pbr_functions>
#import <cube_faces>

struct PrefilterParams {
    roughness: f32,
    _pad0: f32,
    _pad1: f32,
    _pad2: f32,
}

@group(0) @binding(0) var source: texture_cube<f32>;
@group(0) @binding(1) var source_sampler: sampler;
@group(0) @binding(2) var target: texture_storage_2d_array<rgba16float, write>;
@group(0) @binding(3) var<uniform> params: PrefilterParams;

const SAMPLE_COUNT: u32 = 1024u;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(target).x;
    if (gid.x >= size || gid.y >= size) {
        return;
    }

    let uv = (vec2<f32>(f32(gid.x), f32(gid.y)) + 0.5) / f32(size) * 2.0 - 1.0;
    let n = normalize(cube_face_direction(gid.z, uv));
    let v = n;

    var prefiltered = vec3<f32>(0.0);
    var total_weight = 0.0;
    for (var i = 0u; i < SAMPLE_COUNT; i += 1u) {
        let xi = hammersley(i, SAMPLE_COUNT);
        let h = importance_sample_ggx(xi, n, params.roughness);
        let l = normalize(2.0 * dot(v, h) * h - v);

        let n_dot_l = dot(n, l);
        if (n_dot_l > 0.0) {
            prefiltered += textureSampleLevel(source, source_sampler, l, 0.0).rgb * n_dot_l;
            total_weight += n_dot_l;
        }
    }

    prefiltered /= max(total_weight, EPSILON);
    textureStore(target, vec2<i32>(gid.xy), i32(gid.z), vec4<f32>(prefiltered, 1.0));
}`

const brdfWGSL = `#import <constants>
#import <pbr_functions>

@group(0) @binding(0) var lut: texture_storage_2d<rgba16float, write>;

const SAMPLE_COUNT: u32 = 1024u;

fn geometry_schlick_ggx_ibl(n_dot_v: f32, roughness: f32) -> f32 {
    let a = roughness * roughness;
    let k = a / 2.0;
    return n_dot_v / (n_dot_v * (1.0 - k) + k);
}

fn geometry_smith_ibl(n_dot_v: f32, n_dot_l: f32, roughness: f32) -> f32 {
    return geometry_schlick_ggx_ibl(n_dot_v, roughness) * geometry_schlick_ggx_ibl(n_dot_l, roughness);
}

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(lut);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }

    let n_dot_v = max((f32(gid.x) + 0.5) / f32(size.x), EPSILON);
    let roughness = (f32(gid.y) + 0.5) / f32(size.y);

    let v = vec3<f32>(sqrt(1.0 - n_dot_v * n_dot_v), 0.0, n_dot_v);
    let n = vec3<f32>(0.0, 0.0, 1.0);

    var scale = 0.0;
    var bias = 0.0;
    for (var i = 0u; i < SAMPLE_COUNT; i += 1u) {
        let xi = hammersley(i, SAMPLE_COUNT);
        let h = importance_sample_ggx(xi, n, roughness);
        let l = normalize(2.0 * dot(v, h) * h - v);

        let n_dot_l = max(l.z, 0.0);
        if (n_dot_l > 0.0) {
            let n_dot_h = max(h.z, 0.0);
            let v_dot_h = max(dot(v, h), 0.0);

            let g = geometry_smith_ibl(n_dot_v, n_dot_l, roughness);
            let g_vis = (g * v_dot_h) / max(n_dot_h * n_dot_v, EPSILON);
            let fc = pow(1.0 - v_dot_h, 5.0);

            scale += (1.0 - fc) * g_vis;
            bias += fc * g_vis;
        }
    }

    textureStore(lut, vec2<i32>(gid.xy), vec4<f32>(scale / f32(SAMPLE_COUNT), bias / f32(SAMPLE_COUNT), 0.0, 1.0));
}`
