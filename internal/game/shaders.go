//go:build !android

package game

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Road vertex shader: interleaved x,y,z,u,v from roadmesh.
const roadVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in vec2 aUV;

uniform mat4 uViewProj;

out vec2 vUV;
out vec3 vWorld;

void main() {
    vUV = aUV;
    vWorld = aPos;
    gl_Position = uViewProj * vec4(aPos, 1.0);
}
` + "\x00"

// Road fragment shader: group colour, solid edges and dashed lane lines
// taken from the across-road U coordinate.
const roadFragSrc = `#version 410 core

uniform vec4 uColor;
uniform float uLanes;
uniform vec3 uFog;
uniform vec3 uEye;

in vec2 vUV;
in vec3 vWorld;
out vec4 FragColor;

void main() {
    vec3 col = uColor.rgb;
    float edge = step(vUV.x, 0.03) + step(0.97, vUV.x);
    float lane = fract(vUV.x * uLanes);
    float divider = step(min(lane, 1.0 - lane), 0.02) * step(0.05, vUV.x) * step(vUV.x, 0.95);
    float dash = step(0.5, fract(length(vWorld.xz) * 0.5));
    col = mix(col, vec3(0.92, 0.92, 0.85), clamp(edge + divider * dash, 0.0, 1.0));
    float fog = clamp(distance(vWorld, uEye) / 150.0, 0.0, 1.0);
    FragColor = vec4(mix(col, uFog, fog * fog), uColor.a);
}
` + "\x00"

// Ground shader: flat colour with a one-unit grid.
const groundVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;

uniform mat4 uViewProj;

out vec3 vWorld;

void main() {
    vWorld = aPos;
    gl_Position = uViewProj * vec4(aPos, 1.0);
}
` + "\x00"

const groundFragSrc = `#version 410 core

uniform vec4 uColor;
uniform vec3 uFog;
uniform vec3 uEye;

in vec3 vWorld;
out vec4 FragColor;

void main() {
    vec2 g = abs(fract(vWorld.xz) - 0.5);
    float line = step(0.47, max(g.x, g.y));
    vec3 col = uColor.rgb * (1.0 + 0.25 * line);
    float fog = clamp(distance(vWorld, uEye) / 150.0, 0.0, 1.0);
    FragColor = vec4(mix(col, uFog, fog * fog), 1.0);
}
` + "\x00"

// Marker vertex shader: world-space point sprites, x,y,z,size,r,g,b,a.
// Size is in pixels at one unit of distance.
const markerVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in float aSize;
layout(location = 2) in vec4 aColor;

uniform mat4 uViewProj;

out vec4 vColor;

void main() {
    vColor = aColor;
    gl_Position = uViewProj * vec4(aPos, 1.0);
    gl_PointSize = clamp(aSize * 4.0 / max(gl_Position.w, 0.1), 3.0, 96.0);
}
` + "\x00"

const markerFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    vec2 p = gl_PointCoord * 2.0 - 1.0;
    float d = dot(p, p);
    if (d > 1.0) discard;
    float ring = smoothstep(0.55, 0.7, d) * (1.0 - smoothstep(0.85, 1.0, d));
    FragColor = vec4(vColor.rgb + ring * 0.3, vColor.a * (1.0 - 0.35 * d));
}
` + "\x00"

// Screen-space shaders for HUD rectangles (x,y,r,g,b,a in y-down pixels)
// and the rasterised text panel.
const quadVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos;
layout(location = 1) in vec4 aColor;

uniform vec2 uResolution;

out vec4 vColor;

void main() {
    vColor = aColor;
    vec2 ndc = (aPos / uResolution) * 2.0 - 1.0;
    gl_Position = vec4(ndc.x, -ndc.y, 0.0, 1.0);
}
` + "\x00"

const quadFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    FragColor = vColor;
}
` + "\x00"

const textVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos;
layout(location = 1) in vec2 aUV;

uniform vec2 uResolution;

out vec2 vUV;

void main() {
    vUV = aUV;
    vec2 ndc = (aPos / uResolution) * 2.0 - 1.0;
    gl_Position = vec4(ndc.x, -ndc.y, 0.0, 1.0);
}
` + "\x00"

const textFragSrc = `#version 410 core

uniform sampler2D uTex;

in vec2 vUV;
out vec4 FragColor;

void main() {
    FragColor = texture(uTex, vUV);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(buf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(buf, "\x00"))
	}
	return shader, nil
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(buf))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(buf, "\x00"))
	}
	return program, nil
}
