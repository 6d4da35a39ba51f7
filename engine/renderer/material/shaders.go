package material

import (
	"github.com/Carmen-Shannon/orbit-go/engine/descriptor"
	"github.com/cogentcore/webgpu/wgpu"
)

// PBRShaderDescriptor declares the built-in physically based shader. Group 0
// is the material (six maps, one sampler, the factor uniform); the shader's
// second declared group is the environment (irradiance, prefiltered specular,
// BRDF lookup), which lands at final group 3 behind the shared camera and
// light groups.
//
// Returns:
//   - descriptor.ShaderDescriptor: the PBR shader descriptor
func PBRShaderDescriptor() descriptor.ShaderDescriptor {
	variables := []descriptor.ShaderVariable{
		{Kind: descriptor.ShaderVariableTexture, Group: 0, Binding: 0, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
		{Kind: descriptor.ShaderVariableTexture, Group: 0, Binding: 1, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
		{Kind: descriptor.ShaderVariableTexture, Group: 0, Binding: 2, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
		{Kind: descriptor.ShaderVariableTexture, Group: 0, Binding: 3, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
		{Kind: descriptor.ShaderVariableTexture, Group: 0, Binding: 4, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
		{Kind: descriptor.ShaderVariableTexture, Group: 0, Binding: 5, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
		{Kind: descriptor.ShaderVariableSampler, Group: 0, Binding: 6, Visibility: wgpu.ShaderStageFragment, SamplerType: wgpu.SamplerBindingTypeFiltering},
		{Kind: descriptor.ShaderVariableBuffer, Group: 0, Binding: 7, Visibility: wgpu.ShaderStageFragment, BufferType: wgpu.BufferBindingTypeUniform, BufferBytes: FactorUniformSize},
		{Kind: descriptor.ShaderVariableTexture, Group: 1, Binding: 0, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimensionCube},
		{Kind: descriptor.ShaderVariableTexture, Group: 1, Binding: 1, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimensionCube},
		{Kind: descriptor.ShaderVariableTexture, Group: 1, Binding: 2, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D},
		{Kind: descriptor.ShaderVariableSampler, Group: 1, Binding: 3, Visibility: wgpu.ShaderStageFragment, SamplerType: wgpu.SamplerBindingTypeFiltering},
	}
	return descriptor.InlineShader("PBR", pbrWGSL, variables)
}

// PBRPipelineDescriptor is the pipeline the opaque pass uses for PBR
// materials: the default pipeline wrapped around the built-in PBR shader.
//
// Returns:
//   - descriptor.PipelineDescriptor: the PBR pipeline descriptor
func PBRPipelineDescriptor() descriptor.PipelineDescriptor {
	return descriptor.DefaultPipeline(PBRShaderDescriptor())
}

// SkyboxShaderDescriptor declares the built-in skybox shader: one cube map
// and its sampler at group 0, the shared camera uniform at group 1.
//
// Returns:
//   - descriptor.ShaderDescriptor: the skybox shader descriptor
func SkyboxShaderDescriptor() descriptor.ShaderDescriptor {
	variables := []descriptor.ShaderVariable{
		{Kind: descriptor.ShaderVariableTexture, Group: 0, Binding: 0, Visibility: wgpu.ShaderStageFragment, SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimensionCube},
		{Kind: descriptor.ShaderVariableSampler, Group: 0, Binding: 1, Visibility: wgpu.ShaderStageFragment, SamplerType: wgpu.SamplerBindingTypeFiltering},
	}
	return descriptor.InlineShader("Skybox", skyboxWGSL, variables)
}

// SkyboxPipelineDescriptor is the pipeline for the fullscreen skybox pass:
// three unbuffered vertices, no culling, no depth, camera layout only.
//
// Returns:
//   - descriptor.PipelineDescriptor: the skybox pipeline descriptor
func SkyboxPipelineDescriptor() descriptor.PipelineDescriptor {
	return descriptor.PipelineDescriptor{
		Shader:              SkyboxShaderDescriptor(),
		Topology:            wgpu.PrimitiveTopologyTriangleList,
		FrontFace:           wgpu.FrontFaceCCW,
		CullMode:            wgpu.CullModeNone,
		PolygonMode:         descriptor.PolygonModeFill,
		IncludeCameraLayout: true,
	}
}

const pbrWGSL = `#import <camera>
#import <light>
#import <constants>
#import <pbr_functions>

struct MaterialFactors {
    albedo: vec4<f32>,
    params: vec4<f32>,
    emissive: vec4<f32>,
}

@group(0) @binding(0) var t_normal: texture_2d<f32>;
@group(0) @binding(1) var t_albedo: texture_2d<f32>;
@group(0) @binding(2) var t_metallic: texture_2d<f32>;
@group(0) @binding(3) var t_roughness: texture_2d<f32>;
@group(0) @binding(4) var t_occlusion: texture_2d<f32>;
@group(0) @binding(5) var t_emissive: texture_2d<f32>;
@group(0) @binding(6) var s_material: sampler;
@group(0) @binding(7) var<uniform> factors: MaterialFactors;

@group(1) @binding(0) var<uniform> camera: CameraUniform;

@group(2) @binding(0) var<storage, read> lights: array<Light>;

@group(3) @binding(0) var t_irradiance: texture_cube<f32>;
@group(3) @binding(1) var t_specular: texture_cube<f32>;
@group(3) @binding(2) var t_brdf_lut: texture_2d<f32>;
@group(3) @binding(3) var s_environment: sampler;

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) tangent: vec3<f32>,
    @location(3) bitangent: vec3<f32>,
    @location(4) uv: vec2<f32>,
}

struct InstanceInput {
    @location(5) model_0: vec4<f32>,
    @location(6) model_1: vec4<f32>,
    @location(7) model_2: vec4<f32>,
    @location(8) model_3: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) world_position: vec3<f32>,
    @location(1) uv: vec2<f32>,
    @location(2) world_normal: vec3<f32>,
    @location(3) world_tangent: vec3<f32>,
    @location(4) world_bitangent: vec3<f32>,
}

@vertex
fn vs_main(vertex: VertexInput, instance: InstanceInput) -> VertexOutput {
    let model = mat4x4<f32>(instance.model_0, instance.model_1, instance.model_2, instance.model_3);
    let rotation = mat3x3<f32>(model[0].xyz, model[1].xyz, model[2].xyz);

    let world = model * vec4<f32>(vertex.position, 1.0);

    var out: VertexOutput;
    out.clip_position = camera.view_proj * world;
    out.world_position = world.xyz;
    out.uv = vertex.uv;
    out.world_normal = normalize(rotation * vertex.normal);
    out.world_tangent = normalize(rotation * vertex.tangent);
    out.world_bitangent = normalize(rotation * vertex.bitangent);
    return out;
}

fn light_radiance(light: Light, world_position: vec3<f32>) -> vec3<f32> {
    let kind = light.params.y;
    if (kind == LIGHT_TYPE_DIRECTIONAL) {
        return light.color.rgb * light.params.x;
    }

    let to_light = light.position.xyz - world_position;
    let dist_sq = max(dot(to_light, to_light), EPSILON);
    var radiance = light.color.rgb * light.params.x / dist_sq;

    if (kind == LIGHT_TYPE_SPOT) {
        let cos_angle = dot(normalize(-to_light), normalize(light.direction.xyz));
        let inner = cos(light.params.z);
        let outer = cos(light.params.w);
        radiance *= clamp((cos_angle - outer) / max(inner - outer, EPSILON), 0.0, 1.0);
    }
    return radiance;
}

fn light_direction(light: Light, world_position: vec3<f32>) -> vec3<f32> {
    if (light.params.y == LIGHT_TYPE_DIRECTIONAL) {
        return normalize(-light.direction.xyz);
    }
    return normalize(light.position.xyz - world_position);
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let albedo_sample = textureSample(t_albedo, s_material, in.uv) * factors.albedo;
    let albedo = albedo_sample.rgb;
    let metallic = textureSample(t_metallic, s_material, in.uv).r * factors.params.x;
    let roughness = clamp(textureSample(t_roughness, s_material, in.uv).r * factors.params.y, 0.04, 1.0);
    let occlusion = textureSample(t_occlusion, s_material, in.uv).r * factors.params.z;
    let emissive = textureSample(t_emissive, s_material, in.uv).rgb * factors.emissive.rgb;

    let tangent_normal = textureSample(t_normal, s_material, in.uv).xyz * 2.0 - 1.0;
    let tbn = mat3x3<f32>(in.world_tangent, in.world_bitangent, in.world_normal);
    let n = normalize(tbn * tangent_normal);
    let v = normalize(camera.position - in.world_position);
    let n_dot_v = max(dot(n, v), 0.0);

    let f0 = mix(vec3<f32>(0.04), albedo, metallic);

    var direct = vec3<f32>(0.0);
    let count = arrayLength(&lights);
    for (var i = 0u; i < count; i += 1u) {
        let light = lights[i];
        if (light.params.x <= 0.0) {
            continue;
        }

        let l = light_direction(light, in.world_position);
        let h = normalize(v + l);
        let radiance = light_radiance(light, in.world_position);

        let d = distribution_ggx(n, h, roughness);
        let g = geometry_smith(n, v, l, roughness);
        let f = fresnel_schlick(max(dot(h, v), 0.0), f0);

        let n_dot_l = max(dot(n, l), 0.0);
        let specular = (d * g * f) / max(4.0 * n_dot_v * n_dot_l, EPSILON);
        let kd = (vec3<f32>(1.0) - f) * (1.0 - metallic);

        direct += (kd * albedo / PI + specular) * radiance * n_dot_l;
    }

    let f_ambient = fresnel_schlick_roughness(n_dot_v, f0, roughness);
    let kd_ambient = (vec3<f32>(1.0) - f_ambient) * (1.0 - metallic);

    let irradiance = textureSample(t_irradiance, s_environment, n).rgb;
    let diffuse = irradiance * albedo;

    let mip_count = f32(textureNumLevels(t_specular));
    let r = reflect(-v, n);
    let prefiltered = textureSampleLevel(t_specular, s_environment, r, roughness * (mip_count - 1.0)).rgb;
    let brdf = textureSample(t_brdf_lut, s_environment, vec2<f32>(n_dot_v, roughness)).rg;
    let ambient_specular = prefiltered * (f_ambient * brdf.x + brdf.y);

    let ambient = (kd_ambient * diffuse + ambient_specular) * occlusion;

    var color = ambient + direct + emissive;
    color = color / (color + vec3<f32>(1.0));
    color = pow(color, vec3<f32>(1.0 / camera.global_gamma));
    return vec4<f32>(color, albedo_sample.a);
}`

// skyboxWGSL draws one fullscreen triangle and unprojects each fragment's
// clip position through the inverted view-projection to get a world-space
// ray. The inverse is computed per vertex and carried in flat varyings.
const skyboxWGSL = `#import <camera>
#import <matrix>

@group(0) @binding(0) var t_sky: texture_cube<f32>;
@group(0) @binding(1) var s_sky: sampler;

@group(1) @binding(0) var<uniform> camera: CameraUniform;

struct SkyOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) ndc: vec2<f32>,
    @location(1) @interpolate(flat) inv_0: vec4<f32>,
    @location(2) @interpolate(flat) inv_1: vec4<f32>,
    @location(3) @interpolate(flat) inv_2: vec4<f32>,
    @location(4) @interpolate(flat) inv_3: vec4<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> SkyOutput {
    // Oversized triangle covering the viewport: (-1,-1), (3,-1), (-1,3).
    let x = f32(i32(index) / 2) * 4.0 - 1.0;
    let y = f32(i32(index) % 2) * 4.0 - 1.0;

    let inverse = inverse_mat4(camera.view_proj);

    var out: SkyOutput;
    out.clip_position = vec4<f32>(x, y, 1.0, 1.0);
    out.ndc = vec2<f32>(x, y);
    out.inv_0 = inverse[0];
    out.inv_1 = inverse[1];
    out.inv_2 = inverse[2];
    out.inv_3 = inverse[3];
    return out;
}

@fragment
fn fs_main(in: SkyOutput) -> @location(0) vec4<f32> {
    let inverse = mat4x4<f32>(in.inv_0, in.inv_1, in.inv_2, in.inv_3);
    let far = inverse * vec4<f32>(in.ndc, 1.0, 1.0);
    let direction = normalize(far.xyz / far.w - camera.position);

    var color = textureSample(t_sky, s_sky, direction).rgb;
    color = color / (color + vec3<f32>(1.0));
    color = pow(color, vec3<f32>(1.0 / camera.global_gamma));
    return vec4<f32>(color, 1.0);
}`
