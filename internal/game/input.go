//go:build !android

package game

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
	"locomotion/internal/scene"
)

// Input emulates a touch screen with the mouse: the left button is one
// finger, the right button two fingers either side of the cursor.
type Input struct {
	prevKeys map[glfw.Key]bool
	pointer  *scene.Pointer
}

func NewInput(th gesture.Thresholds) *Input {
	return &Input{
		prevKeys: make(map[glfw.Key]bool),
		pointer:  scene.NewPointer(th),
	}
}

func (in *Input) JustPressed(window *glfw.Window, key glfw.Key) bool {
	down := window.GetKey(key) == glfw.Press
	jp := down && !in.prevKeys[key]
	in.prevKeys[key] = down
	return jp
}

// cursorFramebuffer returns the cursor in framebuffer pixels, which is what
// the camera and HUD are laid out in.
func cursorFramebuffer(window *glfw.Window, fbW, fbH int) mgl64.Vec2 {
	cx, cy := window.GetCursorPos()
	winW, winH := window.GetSize()
	if winW <= 0 || winH <= 0 {
		return mgl64.Vec2{cx, cy}
	}
	return mgl64.Vec2{cx * float64(fbW) / float64(winW), cy * float64(fbH) / float64(winH)}
}

// Touches samples the mouse and returns this frame's synthetic touches.
func (in *Input) Touches(window *glfw.Window, now float64, fbW, fbH int) []gesture.Touch {
	if window.GetAttrib(glfw.Focused) != glfw.True {
		return in.pointer.Cancel(now)
	}

	pos := cursorFramebuffer(window, fbW, fbH)
	var contacts []scene.Contact
	switch {
	case window.GetMouseButton(glfw.MouseButtonRight) == glfw.Press:
		off := mgl64.Vec2{TwoFingerSpread, 0}
		contacts = []scene.Contact{
			{ID: 0, Position: pos.Sub(off)},
			{ID: 1, Position: pos.Add(off)},
		}
	case window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press:
		contacts = []scene.Contact{{ID: 0, Position: pos}}
	}
	return in.pointer.Update(now, contacts)
}

// Actions maps keyboard shortcuts onto HUD actions.
func (in *Input) Actions(window *glfw.Window) []scene.Action {
	var out []scene.Action
	keys := []struct {
		k glfw.Key
		a scene.Action
	}{
		{glfw.KeyM, scene.ActionToggleMode},
		{glfw.KeyF1, scene.ActionToggleDebug},
		{glfw.KeyMinus, scene.ActionSlower},
		{glfw.KeyEqual, scene.ActionFaster},
	}
	for _, k := range keys {
		if !in.JustPressed(window, k.k) {
			continue
		}
		// Switching schemes rebuilds the controller under a held finger.
		if k.a == scene.ActionToggleMode && in.pointer.Down() > 0 {
			continue
		}
		out = append(out, k.a)
	}
	return out
}
