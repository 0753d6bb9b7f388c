//go:build android

package game

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/mobile/app"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"
	"golang.org/x/mobile/gl"

	"locomotion/internal/config"
	"locomotion/internal/gesture"
	"locomotion/internal/locomotion"
	"locomotion/internal/roadmesh"
	"locomotion/internal/scene"
)

const mobileRoadVertSrc = `
uniform mat4 uViewProj;
attribute vec3 aPos;
attribute vec2 aUV;
varying vec2 vUV;
varying vec3 vWorld;
void main() {
  vUV = aUV;
  vWorld = aPos;
  gl_Position = uViewProj * vec4(aPos, 1.0);
}`

const mobileRoadFragSrc = `
precision mediump float;
uniform vec4 uColor;
uniform float uLanes;
uniform vec3 uFog;
uniform vec3 uEye;
varying vec2 vUV;
varying vec3 vWorld;
void main() {
  vec3 col = uColor.rgb;
  float edge = step(vUV.x, 0.03) + step(0.97, vUV.x);
  float lane = fract(vUV.x * uLanes);
  float divider = step(min(lane, 1.0 - lane), 0.02) * step(0.05, vUV.x) * step(vUV.x, 0.95);
  float dash = step(0.5, fract(length(vWorld.xz) * 0.5));
  col = mix(col, vec3(0.92, 0.92, 0.85), clamp(edge + divider * dash, 0.0, 1.0));
  float fog = clamp(distance(vWorld, uEye) / 150.0, 0.0, 1.0);
  gl_FragColor = vec4(mix(col, uFog, fog * fog), uColor.a);
}`

const mobileMarkerVertSrc = `
uniform mat4 uViewProj;
attribute vec3 aPos;
attribute float aSize;
attribute vec4 aColor;
varying vec4 vColor;
void main() {
  vColor = aColor;
  gl_Position = uViewProj * vec4(aPos, 1.0);
  gl_PointSize = clamp(aSize * 4.0 / max(gl_Position.w, 0.1), 3.0, 96.0);
}`

const mobileMarkerFragSrc = `
precision mediump float;
varying vec4 vColor;
void main() {
  vec2 p = gl_PointCoord * 2.0 - 1.0;
  float d = dot(p, p);
  if (d > 1.0) discard;
  gl_FragColor = vec4(vColor.rgb, vColor.a * (1.0 - 0.35 * d));
}`

const mobileQuadVertSrc = `
uniform vec2 uRes;
attribute vec2 aPos;
attribute vec4 aColor;
varying vec4 vColor;
void main() {
  vColor = aColor;
  vec2 ndc = vec2(aPos.x / uRes.x * 2.0 - 1.0, 1.0 - aPos.y / uRes.y * 2.0);
  gl_Position = vec4(ndc, 0.0, 1.0);
}`

const mobileQuadFragSrc = `
precision mediump float;
varying vec4 vColor;
void main() {
  gl_FragColor = vColor;
}`

const mobileTextVertSrc = `
uniform vec2 uRes;
attribute vec2 aPos;
attribute vec2 aUV;
varying vec2 vUV;
void main() {
  vUV = aUV;
  vec2 ndc = vec2(aPos.x / uRes.x * 2.0 - 1.0, 1.0 - aPos.y / uRes.y * 2.0);
  gl_Position = vec4(ndc, 0.0, 1.0);
}`

const mobileTextFragSrc = `
precision mediump float;
uniform sampler2D uTex;
varying vec2 vUV;
void main() {
  gl_FragColor = texture2D(uTex, vUV);
}`

type mobileText struct {
	tex  gl.Texture
	w, h int
	used bool
}

// mobileGame adapts x/mobile lifecycle, size and touch events to a
// scene.Session and draws it with GLES2.
type mobileGame struct {
	session *scene.Session
	lanes   int

	fbWidth, fbHeight int
	dpi               float64

	// Fingers currently down by sequence. Lifted fingers stay one more
	// frame so a tap shorter than a frame is still seen.
	pointer  *scene.Pointer
	contacts map[touch.Sequence]mgl64.Vec2
	lifted   map[touch.Sequence]bool
	now      float64

	roadProg   gl.Program
	roadBuf    gl.Buffer
	roadRanges [roadmesh.GroupCount][2]int
	markerProg gl.Program
	markerBuf  gl.Buffer
	groundBuf  gl.Buffer
	quadProg   gl.Program
	quadBuf    gl.Buffer
	textProg   gl.Program
	textBuf    gl.Buffer
	texts      map[string]*mobileText

	markers []float32
	quads   []float32
}

func newMobileGame(cfg config.Config, opts scene.Options) *mobileGame {
	s := scene.New(cfg, opts)
	return &mobileGame{
		session:  s,
		lanes:    cfg.Lanes.Count,
		pointer:  scene.NewPointer(s.Thresholds()),
		contacts: make(map[touch.Sequence]mgl64.Vec2),
		lifted:   make(map[touch.Sequence]bool),
		texts:    make(map[string]*mobileText),
	}
}

func (g *mobileGame) handleTouch(e touch.Event) {
	p := mgl64.Vec2{float64(e.X), float64(e.Y)}
	switch e.Type {
	case touch.TypeBegin:
		g.contacts[e.Sequence] = p
		delete(g.lifted, e.Sequence)
	case touch.TypeMove:
		if _, ok := g.contacts[e.Sequence]; ok {
			g.contacts[e.Sequence] = p
		}
	case touch.TypeEnd:
		if _, ok := g.contacts[e.Sequence]; ok {
			g.contacts[e.Sequence] = p
			g.lifted[e.Sequence] = true
		}
	}
}

// frameTouches feeds the held contacts to the pointer and retires the
// fingers lifted since the last frame.
func (g *mobileGame) frameTouches() []gesture.Touch {
	cs := make([]scene.Contact, 0, len(g.contacts))
	for seq, p := range g.contacts {
		cs = append(cs, scene.Contact{ID: int(seq), Position: p})
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
	out := g.pointer.Update(g.now, cs)
	for seq := range g.lifted {
		delete(g.contacts, seq)
		delete(g.lifted, seq)
	}
	return out
}

func (g *mobileGame) step(dt float64) {
	g.now += dt
	g.session.Step(dt, locomotion.Input{
		Touches:      g.frameTouches(),
		DPI:          g.dpi,
		ScreenWidth:  float64(g.fbWidth),
		ScreenHeight: float64(g.fbHeight),
	})
	playEvents(g.session.Events())
}

func (g *mobileGame) initGL(glctx gl.Context) error {
	var err error
	if g.roadProg, err = linkProgram(glctx, mobileRoadVertSrc, mobileRoadFragSrc); err != nil {
		return fmt.Errorf("road program: %w", err)
	}
	if g.markerProg, err = linkProgram(glctx, mobileMarkerVertSrc, mobileMarkerFragSrc); err != nil {
		return fmt.Errorf("marker program: %w", err)
	}
	if g.quadProg, err = linkProgram(glctx, mobileQuadVertSrc, mobileQuadFragSrc); err != nil {
		return fmt.Errorf("quad program: %w", err)
	}
	if g.textProg, err = linkProgram(glctx, mobileTextVertSrc, mobileTextFragSrc); err != nil {
		return fmt.Errorf("text program: %w", err)
	}
	g.roadBuf = glctx.CreateBuffer()
	g.groundBuf = glctx.CreateBuffer()
	g.markerBuf = glctx.CreateBuffer()
	g.quadBuf = glctx.CreateBuffer()
	g.textBuf = glctx.CreateBuffer()
	g.uploadRoad(glctx, g.session.Mesh())
	return nil
}

// uploadRoad expands the indexed mesh into plain triangles. GLES2 only
// guarantees 16-bit element indices.
func (g *mobileGame) uploadRoad(glctx gl.Context, m *roadmesh.Mesh) {
	g.roadRanges = [roadmesh.GroupCount][2]int{}
	if m == nil || len(m.Vertices) == 0 {
		return
	}
	verts := m.Interleave()
	var flat []float32
	for grp := range roadmesh.GroupCount {
		start := len(flat) / roadmesh.VertexStride
		for _, i := range m.Groups[grp] {
			o := int(i) * roadmesh.VertexStride
			flat = append(flat, verts[o:o+roadmesh.VertexStride]...)
		}
		g.roadRanges[grp] = [2]int{start, len(flat)/roadmesh.VertexStride - start}
	}
	glctx.BindBuffer(gl.ARRAY_BUFFER, g.roadBuf)
	glctx.BufferData(gl.ARRAY_BUFFER, f32bytes(flat), gl.STATIC_DRAW)
}

func (g *mobileGame) destroyGL(glctx gl.Context) {
	for _, b := range []gl.Buffer{g.roadBuf, g.groundBuf, g.markerBuf, g.quadBuf, g.textBuf} {
		glctx.DeleteBuffer(b)
	}
	for _, p := range []gl.Program{g.roadProg, g.markerProg, g.quadProg, g.textProg} {
		glctx.DeleteProgram(p)
	}
	for k, t := range g.texts {
		glctx.DeleteTexture(t.tex)
		delete(g.texts, k)
	}
}

func mat32(m mgl64.Mat4) []float32 {
	out := make([]float32, 16)
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

func (g *mobileGame) drawGL(glctx gl.Context) {
	s := g.session
	sky := scene.ColorSky
	glctx.Viewport(0, 0, g.fbWidth, g.fbHeight)
	glctx.ClearColor(sky[0], sky[1], sky[2], sky[3])
	glctx.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	vp := mat32(s.Camera.ViewProjection())
	eye := s.Camera.Eye

	// Ground and road share the road program; the ground has a constant UV
	// that lands between lane lines.
	glctx.UseProgram(g.roadProg)
	glctx.UniformMatrix4fv(glctx.GetUniformLocation(g.roadProg, "uViewProj"), vp)
	glctx.Uniform3f(glctx.GetUniformLocation(g.roadProg, "uFog"), sky[0], sky[1], sky[2])
	glctx.Uniform3f(glctx.GetUniformLocation(g.roadProg, "uEye"), float32(eye[0]), float32(eye[1]), float32(eye[2]))
	uColor := glctx.GetUniformLocation(g.roadProg, "uColor")
	glctx.Uniform1f(glctx.GetUniformLocation(g.roadProg, "uLanes"), 1)
	aPos := glctx.GetAttribLocation(g.roadProg, "aPos")
	aUV := glctx.GetAttribLocation(g.roadProg, "aUV")
	glctx.EnableVertexAttribArray(aPos)
	glctx.EnableVertexAttribArray(aUV)

	gv := s.GroundVertices(GroundHalfSize)
	ground := make([]float32, 0, 6*roadmesh.VertexStride)
	for i := 0; i+2 < len(gv); i += 3 {
		ground = append(ground, gv[i], gv[i+1], gv[i+2], 0.5, 0)
	}
	glctx.Disable(gl.DEPTH_TEST)
	glctx.BindBuffer(gl.ARRAY_BUFFER, g.groundBuf)
	glctx.BufferData(gl.ARRAY_BUFFER, f32bytes(ground), gl.STREAM_DRAW)
	glctx.VertexAttribPointer(aPos, 3, gl.FLOAT, false, roadmesh.VertexStride*4, 0)
	glctx.VertexAttribPointer(aUV, 2, gl.FLOAT, false, roadmesh.VertexStride*4, 12)
	gc := scene.ColorGround
	glctx.Uniform4f(uColor, gc[0], gc[1], gc[2], gc[3])
	glctx.DrawArrays(gl.TRIANGLES, 0, 6)

	glctx.Enable(gl.DEPTH_TEST)
	glctx.DepthFunc(gl.LEQUAL)
	glctx.Uniform1f(glctx.GetUniformLocation(g.roadProg, "uLanes"), float32(max(g.lanes, 1)))
	glctx.BindBuffer(gl.ARRAY_BUFFER, g.roadBuf)
	glctx.VertexAttribPointer(aPos, 3, gl.FLOAT, false, roadmesh.VertexStride*4, 0)
	glctx.VertexAttribPointer(aUV, 2, gl.FLOAT, false, roadmesh.VertexStride*4, 12)
	for grp := range roadmesh.GroupCount {
		rg := g.roadRanges[grp]
		if rg[1] == 0 {
			continue
		}
		c := scene.GroupColor(grp)
		glctx.Uniform4f(uColor, c[0], c[1], c[2], c[3])
		glctx.DrawArrays(gl.TRIANGLES, rg[0], rg[1])
	}
	glctx.DisableVertexAttribArray(aPos)
	glctx.DisableVertexAttribArray(aUV)

	glctx.Enable(gl.BLEND)
	glctx.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	g.markers = s.Markers(g.markers)
	if n := min(len(g.markers)/scene.MarkerStride, MaxMarkers); n > 0 {
		g.drawMarkers(glctx, vp, n)
	}

	glctx.Disable(gl.DEPTH_TEST)
	g.quads = s.HUD.Quads(g.quads)
	g.drawQuads(glctx)
	labels, at := s.HUD.Labels()
	for i, l := range labels {
		g.drawText(glctx, []string{l}, float32(at[i].X()), float32(at[i].Y()), 2)
	}
	g.drawText(glctx, s.Overlay(), 12, 12, 2)
	glctx.Disable(gl.BLEND)

	for k, t := range g.texts {
		if !t.used {
			glctx.DeleteTexture(t.tex)
			delete(g.texts, k)
			continue
		}
		t.used = false
	}
}

func (g *mobileGame) drawMarkers(glctx gl.Context, vp []float32, n int) {
	glctx.UseProgram(g.markerProg)
	glctx.UniformMatrix4fv(glctx.GetUniformLocation(g.markerProg, "uViewProj"), vp)
	glctx.BindBuffer(gl.ARRAY_BUFFER, g.markerBuf)
	glctx.BufferData(gl.ARRAY_BUFFER, f32bytes(g.markers[:n*scene.MarkerStride]), gl.STREAM_DRAW)
	aPos := glctx.GetAttribLocation(g.markerProg, "aPos")
	aSize := glctx.GetAttribLocation(g.markerProg, "aSize")
	aColor := glctx.GetAttribLocation(g.markerProg, "aColor")
	stride := scene.MarkerStride * 4
	glctx.EnableVertexAttribArray(aPos)
	glctx.EnableVertexAttribArray(aSize)
	glctx.EnableVertexAttribArray(aColor)
	glctx.VertexAttribPointer(aPos, 3, gl.FLOAT, false, stride, 0)
	glctx.VertexAttribPointer(aSize, 1, gl.FLOAT, false, stride, 12)
	glctx.VertexAttribPointer(aColor, 4, gl.FLOAT, false, stride, 16)
	glctx.DrawArrays(gl.POINTS, 0, n)
	glctx.DisableVertexAttribArray(aPos)
	glctx.DisableVertexAttribArray(aSize)
	glctx.DisableVertexAttribArray(aColor)
}

func (g *mobileGame) drawQuads(glctx gl.Context) {
	n := len(g.quads) / scene.QuadStride
	if n == 0 {
		return
	}
	glctx.UseProgram(g.quadProg)
	glctx.Uniform2f(glctx.GetUniformLocation(g.quadProg, "uRes"), float32(g.fbWidth), float32(g.fbHeight))
	glctx.BindBuffer(gl.ARRAY_BUFFER, g.quadBuf)
	glctx.BufferData(gl.ARRAY_BUFFER, f32bytes(g.quads), gl.STREAM_DRAW)
	aPos := glctx.GetAttribLocation(g.quadProg, "aPos")
	aColor := glctx.GetAttribLocation(g.quadProg, "aColor")
	stride := scene.QuadStride * 4
	glctx.EnableVertexAttribArray(aPos)
	glctx.EnableVertexAttribArray(aColor)
	glctx.VertexAttribPointer(aPos, 2, gl.FLOAT, false, stride, 0)
	glctx.VertexAttribPointer(aColor, 4, gl.FLOAT, false, stride, 8)
	glctx.DrawArrays(gl.TRIANGLES, 0, n)
	glctx.DisableVertexAttribArray(aPos)
	glctx.DisableVertexAttribArray(aColor)
}

func (g *mobileGame) textureFor(glctx gl.Context, lines []string) *mobileText {
	key := strings.Join(lines, "\n")
	if t, ok := g.texts[key]; ok {
		t.used = true
		return t
	}
	img := scene.RasterizeText(lines)
	if img == nil {
		return nil
	}
	t := &mobileText{tex: glctx.CreateTexture(), w: img.Bounds().Dx(), h: img.Bounds().Dy(), used: true}
	glctx.BindTexture(gl.TEXTURE_2D, t.tex)
	glctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	glctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	glctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	glctx.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	glctx.TexImage2D(gl.TEXTURE_2D, 0, int(gl.RGBA), t.w, t.h, gl.RGBA, gl.UNSIGNED_BYTE, img.Pix)
	g.texts[key] = t
	return t
}

func (g *mobileGame) drawText(glctx gl.Context, lines []string, x, y, scale float32) {
	t := g.textureFor(glctx, lines)
	if t == nil {
		return
	}
	w, h := float32(t.w)*scale, float32(t.h)*scale
	verts := []float32{
		x, y, 0, 0, x + w, y, 1, 0, x, y + h, 0, 1,
		x + w, y, 1, 0, x + w, y + h, 1, 1, x, y + h, 0, 1,
	}
	glctx.UseProgram(g.textProg)
	glctx.Uniform2f(glctx.GetUniformLocation(g.textProg, "uRes"), float32(g.fbWidth), float32(g.fbHeight))
	glctx.Uniform1i(glctx.GetUniformLocation(g.textProg, "uTex"), 0)
	glctx.ActiveTexture(gl.TEXTURE0)
	glctx.BindTexture(gl.TEXTURE_2D, t.tex)
	glctx.BindBuffer(gl.ARRAY_BUFFER, g.textBuf)
	glctx.BufferData(gl.ARRAY_BUFFER, f32bytes(verts), gl.STREAM_DRAW)
	aPos := glctx.GetAttribLocation(g.textProg, "aPos")
	aUV := glctx.GetAttribLocation(g.textProg, "aUV")
	glctx.EnableVertexAttribArray(aPos)
	glctx.EnableVertexAttribArray(aUV)
	glctx.VertexAttribPointer(aPos, 2, gl.FLOAT, false, 16, 0)
	glctx.VertexAttribPointer(aUV, 2, gl.FLOAT, false, 16, 8)
	glctx.DrawArrays(gl.TRIANGLES, 0, 6)
	glctx.DisableVertexAttribArray(aPos)
	glctx.DisableVertexAttribArray(aUV)
}

func f32bytes(vals []float32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func compileShader(glctx gl.Context, kind gl.Enum, src string) (gl.Shader, error) {
	sh := glctx.CreateShader(kind)
	glctx.ShaderSource(sh, src)
	glctx.CompileShader(sh)
	if glctx.GetShaderi(sh, gl.COMPILE_STATUS) == 0 {
		log := glctx.GetShaderInfoLog(sh)
		glctx.DeleteShader(sh)
		return gl.Shader{}, fmt.Errorf("shader compile failed: %s", log)
	}
	return sh, nil
}

func linkProgram(glctx gl.Context, vertSrc, fragSrc string) (gl.Program, error) {
	vs, err := compileShader(glctx, gl.VERTEX_SHADER, vertSrc)
	if err != nil {
		return gl.Program{}, err
	}
	fs, err := compileShader(glctx, gl.FRAGMENT_SHADER, fragSrc)
	if err != nil {
		glctx.DeleteShader(vs)
		return gl.Program{}, err
	}
	prog := glctx.CreateProgram()
	glctx.AttachShader(prog, vs)
	glctx.AttachShader(prog, fs)
	glctx.LinkProgram(prog)
	glctx.DeleteShader(vs)
	glctx.DeleteShader(fs)
	if glctx.GetProgrami(prog, gl.LINK_STATUS) == 0 {
		log := glctx.GetProgramInfoLog(prog)
		glctx.DeleteProgram(prog)
		return gl.Program{}, fmt.Errorf("program link failed: %s", log)
	}
	return prog, nil
}

// RunAndroid drives the scene from the x/mobile event loop.
func RunAndroid(cfg config.Config, opts scene.Options) {
	game := newMobileGame(cfg, opts)
	if cfg.Audio.Enabled {
		if err := InitAudio(cfg.Audio.Volume); err != nil {
			slog.Warn("audio init failed, continuing without sound", "err", err)
		}
	}

	app.Main(func(a app.App) {
		var glctx gl.Context
		var last time.Time

		for e := range a.Events() {
			switch e := a.Filter(e).(type) {
			case lifecycle.Event:
				switch e.Crosses(lifecycle.StageVisible) {
				case lifecycle.CrossOn:
					ctx, ok := e.DrawContext.(gl.Context)
					if !ok {
						continue
					}
					glctx = ctx
					if err := game.initGL(glctx); err != nil {
						panic(err)
					}
					last = time.Now()
					a.Send(paint.Event{})
				case lifecycle.CrossOff:
					if glctx != nil {
						game.destroyGL(glctx)
						glctx = nil
					}
				}
				if e.To == lifecycle.StageDead {
					return
				}

			case size.Event:
				game.fbWidth = e.WidthPx
				game.fbHeight = e.HeightPx
				game.dpi = float64(e.PixelsPerPt) * 72
				game.session.Resize(e.WidthPx, e.HeightPx)

			case touch.Event:
				game.handleTouch(e)

			case paint.Event:
				if glctx == nil || game.fbWidth <= 0 || game.fbHeight <= 0 {
					continue
				}
				now := time.Now()
				dt := now.Sub(last).Seconds()
				last = now
				game.step(dt)
				game.drawGL(glctx)
				a.Publish()
				a.Send(paint.Event{})
			}
		}
	})
}
