package shader

// builtinImports is the embedded snippet table consulted by `#import <name>`
// before the shader-library root on disk. The struct layouts here must stay
// in lockstep with the CPU-side marshaling in the camera and light packages.
var builtinImports = map[string]string{
	"camera":        builtinCamera,
	"light":         builtinLight,
	"constants":     builtinConstants,
	"pbr_functions": builtinPBRFunctions,
	"matrix":        builtinMatrix,
	"cube_faces":    builtinCubeFaces,
}

// builtinCubeFaces maps a cube face index and face-local [-1,1] coordinates
// to a direction, in the standard WebGPU face order +X -X +Y -Y +Z -Z. Every
// pass that writes cube faces must use this mapping so sampling stays
// consistent.
const builtinCubeFaces = `fn cube_face_direction(face: u32, uv: vec2<f32>) -> vec3<f32> {
    switch face {
        case 0u: { return vec3<f32>(1.0, -uv.y, -uv.x); }
        case 1u: { return vec3<f32>(-1.0, -uv.y, uv.x); }
        case 2u: { return vec3<f32>(uv.x, 1.0, uv.y); }
        case 3u: { return vec3<f32>(uv.x, -1.0, -uv.y); }
        case 4u: { return vec3<f32>(uv.x, -uv.y, 1.0); }
        default: { return vec3<f32>(-uv.x, -uv.y, -1.0); }
    }
}`

// builtinMatrix provides a general 4×4 inverse for shaders that unproject
// clip-space positions, since WGSL has no matrix inverse builtin.
const builtinMatrix = `fn inverse_mat4(m: mat4x4<f32>) -> mat4x4<f32> {
    let c00 = m[2][2] * m[3][3] - m[3][2] * m[2][3];
    let c02 = m[1][2] * m[3][3] - m[3][2] * m[1][3];
    let c03 = m[1][2] * m[2][3] - m[2][2] * m[1][3];
    let c04 = m[2][1] * m[3][3] - m[3][1] * m[2][3];
    let c06 = m[1][1] * m[3][3] - m[3][1] * m[1][3];
    let c07 = m[1][1] * m[2][3] - m[2][1] * m[1][3];
    let c08 = m[2][1] * m[3][2] - m[3][1] * m[2][2];
    let c10 = m[1][1] * m[3][2] - m[3][1] * m[1][2];
    let c11 = m[1][1] * m[2][2] - m[2][1] * m[1][2];
    let c12 = m[2][0] * m[3][3] - m[3][0] * m[2][3];
    let c14 = m[1][0] * m[3][3] - m[3][0] * m[1][3];
    let c15 = m[1][0] * m[2][3] - m[2][0] * m[1][3];
    let c16 = m[2][0] * m[3][2] - m[3][0] * m[2][2];
    let c18 = m[1][0] * m[3][2] - m[3][0] * m[1][2];
    let c19 = m[1][0] * m[2][2] - m[2][0] * m[1][2];
    let c20 = m[2][0] * m[3][1] - m[3][0] * m[2][1];
    let c22 = m[1][0] * m[3][1] - m[3][0] * m[1][1];
    let c23 = m[1][0] * m[2][1] - m[2][0] * m[1][1];

    let fac0 = vec4<f32>(c00, c00, c02, c03);
    let fac1 = vec4<f32>(c04, c04, c06, c07);
    let fac2 = vec4<f32>(c08, c08, c10, c11);
    let fac3 = vec4<f32>(c12, c12, c14, c15);
    let fac4 = vec4<f32>(c16, c16, c18, c19);
    let fac5 = vec4<f32>(c20, c20, c22, c23);

    let v0 = vec4<f32>(m[1][0], m[0][0], m[0][0], m[0][0]);
    let v1 = vec4<f32>(m[1][1], m[0][1], m[0][1], m[0][1]);
    let v2 = vec4<f32>(m[1][2], m[0][2], m[0][2], m[0][2]);
    let v3 = vec4<f32>(m[1][3], m[0][3], m[0][3], m[0][3]);

    let sign_a = vec4<f32>(1.0, -1.0, 1.0, -1.0);
    let sign_b = vec4<f32>(-1.0, 1.0, -1.0, 1.0);

    let inv0 = (v1 * fac0 - v2 * fac1 + v3 * fac2) * sign_a;
    let inv1 = (v0 * fac0 - v2 * fac3 + v3 * fac4) * sign_b;
    let inv2 = (v0 * fac1 - v1 * fac3 + v3 * fac5) * sign_a;
    let inv3 = (v0 * fac2 - v1 * fac4 + v2 * fac5) * sign_b;

    let row0 = vec4<f32>(inv0.x, inv1.x, inv2.x, inv3.x);
    let det = dot(m[0], row0);

    return mat4x4<f32>(inv0 / det, inv1 / det, inv2 / det, inv3 / det);
}`

// builtinCamera mirrors the 80-byte camera uniform: column-major
// view-projection, eye position, one float of padding, then gamma packed
// into the trailing vec4 is left to the shading code via global_gamma.
const builtinCamera = `struct CameraUniform {
    view_proj: mat4x4<f32>,
    position: vec3<f32>,
    global_gamma: f32,
}`

// builtinLight mirrors the 64-byte packed light record: three positional
// vec4s then (intensity, type id, inner cone, outer cone). Type ids are
// 0 point, 1 directional, 2 spot.
const builtinLight = `struct Light {
    position: vec4<f32>,
    color: vec4<f32>,
    direction: vec4<f32>,
    params: vec4<f32>,
}

const LIGHT_TYPE_POINT: f32 = 0.0;
const LIGHT_TYPE_DIRECTIONAL: f32 = 1.0;
const LIGHT_TYPE_SPOT: f32 = 2.0;`

const builtinConstants = `const PI: f32 = 3.14159265359;
const EPSILON: f32 = 0.0001;`

// builtinPBRFunctions holds the Cook-Torrance helper functions shared by the
// opaque shading pass and the IBL convolution passes.
const builtinPBRFunctions = `fn distribution_ggx(n: vec3<f32>, h: vec3<f32>, roughness: f32) -> f32 {
    let a = roughness * roughness;
    let a2 = a * a;
    let n_dot_h = max(dot(n, h), 0.0);
    let denom = n_dot_h * n_dot_h * (a2 - 1.0) + 1.0;
    return a2 / max(PI * denom * denom, EPSILON);
}

fn geometry_schlick_ggx(n_dot_v: f32, roughness: f32) -> f32 {
    let r = roughness + 1.0;
    let k = (r * r) / 8.0;
    return n_dot_v / (n_dot_v * (1.0 - k) + k);
}

fn geometry_smith(n: vec3<f32>, v: vec3<f32>, l: vec3<f32>, roughness: f32) -> f32 {
    let n_dot_v = max(dot(n, v), 0.0);
    let n_dot_l = max(dot(n, l), 0.0);
    return geometry_schlick_ggx(n_dot_v, roughness) * geometry_schlick_ggx(n_dot_l, roughness);
}

fn fresnel_schlick(cos_theta: f32, f0: vec3<f32>) -> vec3<f32> {
    return f0 + (1.0 - f0) * pow(clamp(1.0 - cos_theta, 0.0, 1.0), 5.0);
}

fn fresnel_schlick_roughness(cos_theta: f32, f0: vec3<f32>, roughness: f32) -> vec3<f32> {
    let f90 = max(vec3<f32>(1.0 - roughness), f0);
    return f0 + (f90 - f0) * pow(clamp(1.0 - cos_theta, 0.0, 1.0), 5.0);
}

fn radical_inverse_vdc(bits_in: u32) -> f32 {
    var bits = bits_in;
    bits = (bits << 16u) | (bits >> 16u);
    bits = ((bits & 0x55555555u) << 1u) | ((bits & 0xAAAAAAAAu) >> 1u);
    bits = ((bits & 0x33333333u) << 2u) | ((bits & 0xCCCCCCCCu) >> 2u);
    bits = ((bits & 0x0F0F0F0Fu) << 4u) | ((bits & 0xF0F0F0F0u) >> 4u);
    bits = ((bits & 0x00FF00FFu) << 8u) | ((bits & 0xFF00FF00u) >> 8u);
    return f32(bits) * 2.3283064365386963e-10;
}

fn hammersley(i: u32, n: u32) -> vec2<f32> {
    return vec2<f32>(f32(i) / f32(n), radical_inverse_vdc(i));
}

fn importance_sample_ggx(xi: vec2<f32>, n: vec3<f32>, roughness: f32) -> vec3<f32> {
    let a = roughness * roughness;
    let phi = 2.0 * PI * xi.x;
    let cos_theta = sqrt((1.0 - xi.y) / (1.0 + (a * a - 1.0) * xi.y));
    let sin_theta = sqrt(1.0 - cos_theta * cos_theta);

    let h = vec3<f32>(cos(phi) * sin_theta, sin(phi) * sin_theta, cos_theta);

    var up = vec3<f32>(0.0, 0.0, 1.0);
    if (abs(n.z) > 0.999) {
        up = vec3<f32>(1.0, 0.0, 0.0);
    }
    let tangent = normalize(cross(up, n));
    let bitangent = cross(n, tangent);

    return normalize(tangent * h.x + bitangent * h.y + n * h.z);
}`
