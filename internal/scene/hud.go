package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
)

// Rect is an axis-aligned rectangle in y-down screen pixels.
type Rect struct {
	X0, Y0 float64
	X1, Y1 float64
}

func (r Rect) Contains(p mgl64.Vec2) bool {
	return p.X() >= r.X0 && p.X() < r.X1 && p.Y() >= r.Y0 && p.Y() < r.Y1
}

func (r Rect) Intersects(o Rect) bool {
	return r.X0 < o.X1 && r.X1 > o.X0 && r.Y0 < o.Y1 && r.Y1 > o.Y0
}

type Action int

const (
	ActionNone Action = iota
	ActionToggleMode
	ActionToggleDebug
	ActionSlower
	ActionFaster
)

type Button struct {
	Rect
	Action Action
	Label  string
}

const (
	buttonW   = 96
	buttonH   = 40
	buttonGap = 8
)

// HUD owns the on-screen buttons. Touches that start on a button belong to
// the UI until they lift and never reach the gesture tracker.
type HUD struct {
	Buttons []Button
	owner   map[int]Action
}

func NewHUD() *HUD {
	h := &HUD{owner: make(map[int]Action)}
	h.Layout(800, 600)
	return h
}

// Layout places the buttons in a row along the top-right edge.
func (h *HUD) Layout(w, _ int) {
	specs := []struct {
		a     Action
		label string
	}{
		{ActionSlower, "SLOWER"},
		{ActionFaster, "FASTER"},
		{ActionToggleMode, "MODE"},
		{ActionToggleDebug, "DEBUG"},
	}
	h.Buttons = h.Buttons[:0]
	x := float64(w) - float64(len(specs))*(buttonW+buttonGap)
	for i, sp := range specs {
		x0 := x + float64(i)*(buttonW+buttonGap)
		h.Buttons = append(h.Buttons, Button{
			Rect:   Rect{X0: x0, Y0: buttonGap, X1: x0 + buttonW, Y1: buttonGap + buttonH},
			Action: sp.a,
			Label:  sp.label,
		})
	}
}

func (h *HUD) Hit(p mgl64.Vec2) (Button, bool) {
	for _, b := range h.Buttons {
		if b.Contains(p) {
			return b, true
		}
	}
	return Button{}, false
}

// Filter marks UI-owned touches and returns the actions of buttons released
// this frame. A release outside the pressed button does nothing.
func (h *HUD) Filter(touches []gesture.Touch) ([]gesture.Touch, []Action) {
	var fired []Action
	out := make([]gesture.Touch, len(touches))
	for i, t := range touches {
		if t.Phase == gesture.Began {
			if b, ok := h.Hit(t.Position); ok {
				h.owner[t.ID] = b.Action
			} else {
				delete(h.owner, t.ID)
			}
		}
		a, owned := h.owner[t.ID]
		if owned {
			t.OverUI = true
			if t.Phase.Done() {
				if b, ok := h.Hit(t.Position); ok && b.Action == a && t.Phase == gesture.Ended {
					fired = append(fired, a)
				}
				delete(h.owner, t.ID)
			}
		}
		out[i] = t
	}
	return out, fired
}
