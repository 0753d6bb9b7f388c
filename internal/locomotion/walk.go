package locomotion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
)

// paddleStroke is the one-finger state of ModePaddle. The walk direction is
// fixed when the finger lands.
type paddleStroke struct {
	active bool
	origin mgl64.Vec3
	dir    mgl64.Vec3 // level, unit length
	reach  float64    // origin to gaze target
}

// gazeStroke is the one-finger state of ModeGazeDrag. The reach is latched
// on the first hit so walking does not stretch it.
type gazeStroke struct {
	active  bool
	origin  mgl64.Vec3
	reach   float64
	latched bool
}

// gazeTarget casts the view direction from the eye and levels the hit onto
// the body. A miss yields the point MaxRayDistance ahead.
func (c *StreetController) gazeTarget() (mgl64.Vec3, bool) {
	eye := c.Eye()
	dir := eye.View()
	if c.deps.Raycaster != nil {
		if p, ok := c.deps.Raycaster.Raycast(eye.Position, dir, c.set.MaxRayDistance); ok {
			p[1] = c.pos.Y()
			return p, true
		}
	}
	flat := mgl64.Vec3{dir.X(), 0, dir.Z()}
	if flat.LenSqr() < 1e-12 {
		flat = c.transform().Forward()
	}
	return c.pos.Add(flat.Normalize().Mul(c.set.MaxRayDistance)), false
}

// screenFraction is how far down the screen y lies, in [0, 1].
func (c *StreetController) screenFraction(y float64) float64 {
	if c.screenH <= 0 {
		return 0
	}
	return mgl64.Clamp(y/c.screenH, 0, 1)
}

// paddleFraction is the vertical drag length over half the screen height,
// clamped to 1.
func (c *StreetController) paddleFraction(dragY float64) float64 {
	if c.screenH <= 0 {
		return 0
	}
	return mgl64.Clamp(math.Abs(dragY)/(c.screenH*0.5), 0, 1)
}

// paddleSpeed lerps from BaseSpeed to MaxSpeed with paddleFraction.
func (c *StreetController) paddleSpeed(dragY float64) float64 {
	return c.set.BaseSpeed + (c.set.MaxSpeed-c.set.BaseSpeed)*c.paddleFraction(dragY)
}

func (c *StreetController) paddle(r gesture.Result, dt float64) {
	p := &c.paddling
	switch {
	case r.Began:
		target, _ := c.gazeTarget()
		d := target.Sub(c.pos)
		d[1] = 0
		*p = paddleStroke{active: d.LenSqr() > 1e-12, origin: c.pos, reach: d.Len()}
		if p.active {
			p.dir = d.Normalize()
		}
		return
	case r.Ended:
		if p.active && r.Outcome.Swipe {
			c.strafe(r.Outcome.Direction)
		}
		p.active = false
		return
	}
	if !p.active || r.Kind == gesture.Hold {
		return
	}

	// Mostly sideways drags wait for the lift-off swipe.
	drag := r.Touch.Position.Sub(r.Stroke.Start)
	if math.Abs(drag.X()) > math.Abs(drag.Y()) || drag.Y() == 0 {
		return
	}

	speed := c.paddleSpeed(drag.Y())
	if drag.Y() > 0 {
		dest := p.origin.Add(p.dir.Mul(p.reach * c.paddleFraction(drag.Y())))
		c.pos = moveTowards(c.pos, dest, speed*dt)
	} else {
		c.pos = c.pos.Sub(p.dir.Mul(speed * dt))
	}
	c.deps.logMovement(c.pos, speed, r.Kind.String())
}

// strafe steps sideways, +1 to the right.
func (c *StreetController) strafe(dir int) {
	right := c.transform().Rotation.Rotate(mgl64.Vec3{1, 0, 0})
	c.pos = c.pos.Add(right.Mul(float64(dir) * c.set.SwipeMoveDistance))
	c.emit(Event{Type: EventSwipe, Direction: dir, Position: c.pos})
	label := "SwipeRight"
	if dir < 0 {
		label = "SwipeLeft"
	}
	c.deps.logMovement(c.pos, 0, label)
}

func (c *StreetController) gazeDrag(r gesture.Result) {
	g := &c.gazing
	switch {
	case r.Began:
		*g = gazeStroke{active: true, origin: c.pos}
		return
	case r.Ended:
		g.active = false
		return
	}
	if !g.active {
		return
	}
	target, hit := c.gazeTarget()
	if !hit {
		return
	}
	d := target.Sub(g.origin)
	d[1] = 0
	if d.LenSqr() < 1e-12 {
		return
	}
	if !g.latched {
		g.reach = d.Len()
		g.latched = true
	}
	reach := max(0, g.reach-c.set.StopBeforeEnd)
	c.pos = g.origin.Add(d.Normalize().Mul(reach * c.screenFraction(r.Touch.Position.Y())))
	c.deps.logMovement(c.pos, 0, "Drag")
}
