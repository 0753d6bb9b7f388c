package locomotion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
)

// policy interprets tracker results for one Mode. Both policies share the
// controller's sampler, lane logic and move task.
type policy interface {
	apply(c *Controller, r gesture.Result, dt float64)
	reset()
}

func newPolicy(s Settings, th gesture.Thresholds) policy {
	if s.Mode == ModeLookAround {
		return &lookAround{
			turn: turner{
				speed:    s.RotationSpeed,
				invert:   s.InvertRotation,
				pitch:    s.AllowPitch,
				pitchMin: s.PitchMin,
				pitchMax: s.PitchMax,
			},
			taps: gesture.TapDetector{Interval: th.DoubleTapInterval},
		}
	}
	return &dragWalk{}
}

// dragWalk: vertical drag walks, horizontal swipe changes lane, two fingers
// add yaw.
type dragWalk struct{}

func (dragWalk) reset() {}

func (dragWalk) apply(c *Controller, r gesture.Result, dt float64) {
	switch r.Fingers {
	case 1:
		if r.Ended {
			if r.Outcome.Swipe {
				c.shiftLane(r.Outcome.Direction)
			}
			return
		}
		if r.Kind.Moving() {
			c.drive(r.Stroke.FrameDeltaCm.Y(), dt)
		}
	case 2:
		if !c.set.TwoFingerYaw {
			return
		}
		rot := r.Pair.AvgDelta.X() * c.set.TwoFingerRotateSpeed
		c.st.Yaw += rot
		if rot != 0 {
			c.deps.logMovement(c.pos, math.Abs(rot), "TwoFingerRotate")
		}
	}
}

// lookAround: one finger turns the view once it has moved past the rotate
// threshold, a double tap walks forward along the path.
type lookAround struct {
	turn turner
	taps gesture.TapDetector
	prev mgl64.Vec2
}

func (p *lookAround) reset() {
	p.taps.Clear()
	p.prev = mgl64.Vec2{}
}

func (p *lookAround) apply(c *Controller, r gesture.Result, _ float64) {
	if r.Fingers != 1 || !r.HasTouch {
		return
	}
	t := r.Touch
	switch {
	case r.Began:
		p.prev = t.Position
	case r.Ended:
		if !r.Outcome.Tap {
			p.taps.Clear()
			return
		}
		if p.taps.Tap(t.Time) {
			c.startMove()
		}
	case r.Stroke.Rotating:
		p.turn.apply(t.Position.Sub(p.prev), &c.st.Yaw, &c.st.Pitch)
		p.prev = t.Position
	}
}
