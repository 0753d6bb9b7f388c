//go:build !android

package game

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"locomotion/internal/config"
	"locomotion/internal/locomotion"
	"locomotion/internal/scene"
)

// RunDesktop opens a window and drives the scene until it is closed. The
// mouse stands in for the touch screen.
func RunDesktop(cfg config.Config, opts scene.Options) {
	runtime.LockOSThread()

	window, err := initWindow()
	if err != nil {
		panic(err)
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		panic(fmt.Errorf("gl init: %w", err))
	}

	if cfg.Audio.Enabled {
		if err := InitAudio(cfg.Audio.Volume); err != nil {
			slog.Warn("audio init failed, continuing without sound", "err", err)
		}
	}

	gl.Disable(gl.CULL_FACE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	session := scene.New(cfg, opts)

	rend, err := NewRenderer()
	if err != nil {
		panic(fmt.Errorf("renderer: %w", err))
	}
	defer rend.Destroy()
	if m := session.Mesh(); m != nil {
		rend.UploadRoad(m)
	}

	input := NewInput(session.Thresholds())
	dpi := monitorDPI()
	if dpi <= 0 {
		dpi = DesktopDPI
	}
	slog.Info("desktop front end ready", "scene", session.Scene(), "mode", session.Mode(), "dpi", dpi)

	var markerBuf, quadBuf []float32
	var title string
	lastW, lastH := 0, 0

	last := glfw.GetTime()
	for !window.ShouldClose() {
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > scene.MaxFrame {
			dt = scene.MaxFrame
		}

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}
		if fbW != lastW || fbH != lastH {
			session.Resize(fbW, fbH)
			lastW, lastH = fbW, fbH
		}

		for _, a := range input.Actions(window) {
			session.Apply(a)
		}
		session.Step(dt, locomotion.Input{
			Touches:      input.Touches(window, now, fbW, fbH),
			DPI:          dpi,
			ScreenWidth:  float64(fbW),
			ScreenHeight: float64(fbH),
		})
		playEvents(session.Events())

		vp := session.Camera.ViewProjection()
		eye := session.Camera.Eye
		rend.BeginFrame(fbW, fbH, scene.ColorSky)
		rend.DrawGround(session.GroundVertices(GroundHalfSize), vp, eye, scene.ColorGround, scene.ColorSky)
		rend.DrawRoad(vp, eye, cfg.Lanes.Count, scene.ColorSky)
		markerBuf = session.Markers(markerBuf)
		rend.DrawMarkers(markerBuf, vp)

		quadBuf = session.HUD.Quads(quadBuf)
		rend.DrawQuads(quadBuf, fbW, fbH)
		labels, at := session.HUD.Labels()
		for i, l := range labels {
			rend.DrawText([]string{l}, float32(at[i].X()), float32(at[i].Y()), 1, fbW, fbH)
		}
		rend.DrawText(session.Overlay(), 8, 8, 1.5, fbW, fbH)
		rend.EndFrame()

		window.SwapBuffers()

		if t := WindowTitle + "  " + session.Status(); t != title {
			window.SetTitle(t)
			title = t
		}
	}
}
