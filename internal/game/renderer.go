//go:build !android

package game

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/roadmesh"
	"locomotion/internal/scene"
)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// mat32 narrows a matrix for upload.
func mat32(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

type textTexture struct {
	tex  uint32
	w, h int
	used bool
}

type Renderer struct {
	// Road program.
	roadProg       uint32
	roadVAO        uint32
	roadVBO        uint32
	roadEBO        uint32
	roadUViewProj  int32
	roadUColor     int32
	roadULanes     int32
	roadUFog       int32
	roadUEye       int32
	roadRanges     [roadmesh.GroupCount][2]int
	roadIndexCount int

	// Ground program.
	groundProg      uint32
	groundVAO       uint32
	groundVBO       uint32
	groundUViewProj int32
	groundUColor    int32
	groundUFog      int32
	groundUEye      int32

	// Marker point sprites.
	markerProg      uint32
	markerVAO       uint32
	markerVBO       uint32
	markerUViewProj int32

	// Screen-space rectangles.
	quadProg uint32
	quadVAO  uint32
	quadVBO  uint32
	quadURes int32

	// Text panels rasterised on the CPU and uploaded as textures.
	textProg uint32
	textVAO  uint32
	textVBO  uint32
	textURes int32
	textUTex int32
	texts    map[string]*textTexture
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{texts: make(map[string]*textTexture)}
	var err error
	progs := []struct {
		dst        *uint32
		vert, frag string
		name       string
	}{
		{&r.roadProg, roadVertSrc, roadFragSrc, "road"},
		{&r.groundProg, groundVertSrc, groundFragSrc, "ground"},
		{&r.markerProg, markerVertSrc, markerFragSrc, "marker"},
		{&r.quadProg, quadVertSrc, quadFragSrc, "quad"},
		{&r.textProg, textVertSrc, textFragSrc, "text"},
	}
	for _, p := range progs {
		if *p.dst, err = linkProgram(p.vert, p.frag); err != nil {
			r.Destroy()
			return nil, fmt.Errorf("%s program: %w", p.name, err)
		}
	}

	// Road: interleaved x,y,z,u,v plus one element buffer for both groups.
	gl.GenVertexArrays(1, &r.roadVAO)
	gl.GenBuffers(1, &r.roadVBO)
	gl.GenBuffers(1, &r.roadEBO)
	gl.BindVertexArray(r.roadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.roadVBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.roadEBO)
	stride := int32(roadmesh.VertexStride * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, glOffset(3*4))

	gl.UseProgram(r.roadProg)
	r.roadUViewProj = gl.GetUniformLocation(r.roadProg, gl.Str("uViewProj\x00"))
	r.roadUColor = gl.GetUniformLocation(r.roadProg, gl.Str("uColor\x00"))
	r.roadULanes = gl.GetUniformLocation(r.roadProg, gl.Str("uLanes\x00"))
	r.roadUFog = gl.GetUniformLocation(r.roadProg, gl.Str("uFog\x00"))
	r.roadUEye = gl.GetUniformLocation(r.roadProg, gl.Str("uEye\x00"))

	// Ground: six x,y,z vertices streamed per frame.
	gl.GenVertexArrays(1, &r.groundVAO)
	gl.GenBuffers(1, &r.groundVBO)
	gl.BindVertexArray(r.groundVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.groundVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 18*4, nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, glOffset(0))

	gl.UseProgram(r.groundProg)
	r.groundUViewProj = gl.GetUniformLocation(r.groundProg, gl.Str("uViewProj\x00"))
	r.groundUColor = gl.GetUniformLocation(r.groundProg, gl.Str("uColor\x00"))
	r.groundUFog = gl.GetUniformLocation(r.groundProg, gl.Str("uFog\x00"))
	r.groundUEye = gl.GetUniformLocation(r.groundProg, gl.Str("uEye\x00"))

	// Markers: x,y,z,size,r,g,b,a.
	gl.GenVertexArrays(1, &r.markerVAO)
	gl.GenBuffers(1, &r.markerVBO)
	gl.BindVertexArray(r.markerVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.markerVBO)
	mStride := int32(scene.MarkerStride * 4)
	gl.BufferData(gl.ARRAY_BUFFER, MaxMarkers*int(mStride), nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, mStride, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, mStride, glOffset(3*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, mStride, glOffset(4*4))

	gl.UseProgram(r.markerProg)
	r.markerUViewProj = gl.GetUniformLocation(r.markerProg, gl.Str("uViewProj\x00"))

	// HUD rectangles: x,y,r,g,b,a.
	gl.GenVertexArrays(1, &r.quadVAO)
	gl.GenBuffers(1, &r.quadVBO)
	gl.BindVertexArray(r.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	qStride := int32(scene.QuadStride * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, qStride, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, qStride, glOffset(2*4))

	gl.UseProgram(r.quadProg)
	r.quadURes = gl.GetUniformLocation(r.quadProg, gl.Str("uResolution\x00"))

	// Text: x,y,u,v.
	gl.GenVertexArrays(1, &r.textVAO)
	gl.GenBuffers(1, &r.textVBO)
	gl.BindVertexArray(r.textVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.textVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 6*4*4, nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, glOffset(2*4))

	gl.UseProgram(r.textProg)
	r.textURes = gl.GetUniformLocation(r.textProg, gl.Str("uResolution\x00"))
	r.textUTex = gl.GetUniformLocation(r.textProg, gl.Str("uTex\x00"))
	gl.Uniform1i(r.textUTex, 0)

	gl.BindVertexArray(0)
	return r, nil
}

func (r *Renderer) Destroy() {
	for _, id := range []uint32{r.roadVBO, r.roadEBO, r.groundVBO, r.markerVBO, r.quadVBO, r.textVBO} {
		if id != 0 {
			gl.DeleteBuffers(1, &id)
		}
	}
	for _, id := range []uint32{r.roadVAO, r.groundVAO, r.markerVAO, r.quadVAO, r.textVAO} {
		if id != 0 {
			gl.DeleteVertexArrays(1, &id)
		}
	}
	for _, id := range []uint32{r.roadProg, r.groundProg, r.markerProg, r.quadProg, r.textProg} {
		if id != 0 {
			gl.DeleteProgram(id)
		}
	}
	for k, t := range r.texts {
		gl.DeleteTextures(1, &t.tex)
		delete(r.texts, k)
	}
}

// UploadRoad replaces the road geometry. A nil mesh clears it.
func (r *Renderer) UploadRoad(m *roadmesh.Mesh) {
	r.roadIndexCount = 0
	if m == nil || len(m.Vertices) == 0 {
		return
	}
	verts := m.Interleave()
	idx, ranges := m.Indices()
	gl.BindVertexArray(r.roadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.roadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.roadEBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(idx)*4, gl.Ptr(idx), gl.STATIC_DRAW)
	gl.BindVertexArray(0)
	r.roadRanges = ranges
	r.roadIndexCount = len(idx)
}

func (r *Renderer) BeginFrame(fbW, fbH int, sky scene.RGBA) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	gl.ClearColor(sky[0], sky[1], sky[2], sky[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	for _, t := range r.texts {
		t.used = false
	}
}

// EndFrame drops text textures that were not drawn this frame.
func (r *Renderer) EndFrame() {
	for k, t := range r.texts {
		if !t.used {
			gl.DeleteTextures(1, &t.tex)
			delete(r.texts, k)
		}
	}
}

func (r *Renderer) DrawGround(verts []float32, vp mgl64.Mat4, eye mgl64.Vec3, col, fog scene.RGBA) {
	if len(verts) < 18 {
		return
	}
	m := mat32(vp)
	gl.Disable(gl.DEPTH_TEST)
	gl.UseProgram(r.groundProg)
	gl.BindVertexArray(r.groundVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.groundVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 18*4, gl.Ptr(verts), gl.STREAM_DRAW)
	gl.UniformMatrix4fv(r.groundUViewProj, 1, false, &m[0])
	gl.Uniform4f(r.groundUColor, col[0], col[1], col[2], col[3])
	gl.Uniform3f(r.groundUFog, fog[0], fog[1], fog[2])
	gl.Uniform3f(r.groundUEye, float32(eye[0]), float32(eye[1]), float32(eye[2]))
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

// DrawRoad draws each material group with its own colour.
func (r *Renderer) DrawRoad(vp mgl64.Mat4, eye mgl64.Vec3, lanes int, fog scene.RGBA) {
	if r.roadIndexCount == 0 {
		return
	}
	m := mat32(vp)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.UseProgram(r.roadProg)
	gl.BindVertexArray(r.roadVAO)
	gl.UniformMatrix4fv(r.roadUViewProj, 1, false, &m[0])
	gl.Uniform1f(r.roadULanes, float32(max(lanes, 1)))
	gl.Uniform3f(r.roadUFog, fog[0], fog[1], fog[2])
	gl.Uniform3f(r.roadUEye, float32(eye[0]), float32(eye[1]), float32(eye[2]))
	for g := range roadmesh.GroupCount {
		rg := r.roadRanges[g]
		if rg[1] == 0 {
			continue
		}
		c := scene.GroupColor(g)
		gl.Uniform4f(r.roadUColor, c[0], c[1], c[2], c[3])
		gl.DrawElements(gl.TRIANGLES, int32(rg[1]), gl.UNSIGNED_INT, glOffset(rg[0]*4))
	}
	gl.BindVertexArray(0)
}

// DrawMarkers renders world-space point sprites with alpha blending.
func (r *Renderer) DrawMarkers(buf []float32, vp mgl64.Mat4) {
	count := min(len(buf)/scene.MarkerStride, MaxMarkers)
	if count == 0 {
		return
	}
	m := mat32(vp)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.UseProgram(r.markerProg)
	gl.BindVertexArray(r.markerVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.markerVBO)
	gl.UniformMatrix4fv(r.markerUViewProj, 1, false, &m[0])
	gl.BufferData(gl.ARRAY_BUFFER, count*scene.MarkerStride*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

// DrawQuads renders screen-space rectangles in y-down pixels.
func (r *Renderer) DrawQuads(buf []float32, fbW, fbH int) {
	count := len(buf) / scene.QuadStride
	if count == 0 {
		return
	}
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.UseProgram(r.quadProg)
	gl.BindVertexArray(r.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.Uniform2f(r.quadURes, float32(fbW), float32(fbH))
	gl.BufferData(gl.ARRAY_BUFFER, len(buf)*4, gl.Ptr(buf), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(count))
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}

func (r *Renderer) textureFor(lines []string) *textTexture {
	key := strings.Join(lines, "\n")
	if t, ok := r.texts[key]; ok {
		t.used = true
		return t
	}
	img := scene.RasterizeText(lines)
	if img == nil {
		return nil
	}
	t := &textTexture{w: img.Bounds().Dx(), h: img.Bounds().Dy(), used: true}
	gl.GenTextures(1, &t.tex)
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(t.w), int32(t.h), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	r.texts[key] = t
	return t
}

// DrawText draws lines as a panel with its top-left corner at (x, y) pixels.
func (r *Renderer) DrawText(lines []string, x, y float32, scale float32, fbW, fbH int) {
	t := r.textureFor(lines)
	if t == nil {
		return
	}
	w, h := float32(t.w)*scale, float32(t.h)*scale
	verts := [24]float32{
		x, y, 0, 0, x + w, y, 1, 0, x, y + h, 0, 1,
		x + w, y, 1, 0, x + w, y + h, 1, 1, x, y + h, 0, 1,
	}
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.UseProgram(r.textProg)
	gl.BindVertexArray(r.textVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.textVBO)
	gl.Uniform2f(r.textURes, float32(fbW), float32(fbH))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(&verts[0]), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
}
