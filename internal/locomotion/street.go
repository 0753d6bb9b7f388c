package locomotion

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
)

// Camera turns a screen point into a world ray for a given eye pose.
type Camera interface {
	ScreenRay(screen mgl64.Vec2, eye Transform) (origin, dir mgl64.Vec3)
}

// Raycaster finds the first walkable surface along a ray.
type Raycaster interface {
	Raycast(origin, dir mgl64.Vec3, maxDist float64) (mgl64.Vec3, bool)
}

// GroundPlane is an infinite horizontal floor at Height.
type GroundPlane struct {
	Height float64
}

func (g GroundPlane) Raycast(origin, dir mgl64.Vec3, maxDist float64) (mgl64.Vec3, bool) {
	if dir.Y() >= -1e-9 {
		return mgl64.Vec3{}, false
	}
	t := (g.Height - origin.Y()) / dir.Y()
	if t < 0 || t*dir.Len() > maxDist {
		return mgl64.Vec3{}, false
	}
	return origin.Add(dir.Mul(t)), true
}

// Cursor is the ground marker under the active pointer.
type Cursor struct {
	Point   mgl64.Vec3
	Hit     bool
	Visible bool
}

// StreetDeps extends Deps with the optional picking collaborators.
type StreetDeps struct {
	Deps
	Camera    Camera
	Raycaster Raycaster
}

// StreetController roams freely on the ground. Depending on the mode taps
// pick a point and walk there at a constant duration, or one-finger drags
// walk along the gaze; the remaining finger counts turn the view.
type StreetController struct {
	set     StreetSettings
	deps    StreetDeps
	tracker *gesture.Tracker
	turn    turner
	taps    gesture.TapDetector

	pos    mgl64.Vec3
	yaw    float64
	pitch  float64
	prev   mgl64.Vec2
	move   worldMove
	cursor Cursor
	last   gesture.Result
	events []Event

	screenH  float64
	paddling paddleStroke
	gazing   gazeStroke
}

func NewStreet(start mgl64.Vec3, s StreetSettings, th gesture.Thresholds, d StreetDeps) *StreetController {
	s = s.normalized()
	d.Deps = d.Deps.withDefaults("streetview")
	return &StreetController{
		set:     s,
		deps:    d,
		tracker: gesture.NewTracker(th),
		turn: turner{
			speed:    s.RotationSpeed,
			invert:   s.InvertRotation,
			pitch:    s.AllowPitch,
			pitchMin: s.PitchMin,
			pitchMax: s.PitchMax,
		},
		taps: gesture.TapDetector{Interval: th.DoubleTapInterval},
		pos:  start,
	}
}

func (c *StreetController) Settings() StreetSettings { return c.set }
func (c *StreetController) Position() mgl64.Vec3     { return c.pos }
func (c *StreetController) Yaw() float64             { return c.yaw }
func (c *StreetController) Pitch() float64           { return c.pitch }
func (c *StreetController) Cursor() Cursor           { return c.cursor }
func (c *StreetController) Moving() bool             { return c.move.active }

func (c *StreetController) transform() Transform {
	return Transform{Position: c.pos, Rotation: yawRotation(c.yaw), Pitch: c.pitch}
}

// Eye is the camera pose: the body transform raised to eye height.
func (c *StreetController) Eye() Transform {
	t := c.transform()
	t.Position[1] += c.set.EyeHeight
	return t
}

// Tick advances one frame.
func (c *StreetController) Tick(dt float64, in Input) (Transform, []Event) {
	c.events = nil
	if dt < 0 {
		dt = 0
	}

	c.last = gesture.Result{}
	c.screenH = in.ScreenHeight
	if c.deps.Display == nil || !c.deps.Display.Active() {
		res := c.tracker.Update(in.frame())
		c.last = res
		c.handle(res, dt)
	}

	if c.move.active {
		var arrived bool
		c.pos, arrived = c.move.step(c.pos, dt, c.set.ArriveDistance)
		if arrived {
			c.emit(Event{Type: EventMoveArrived, Position: c.pos})
		}
	}
	c.cursor.Visible = c.cursor.Visible && !c.move.active

	c.showDebug()
	return c.transform(), c.events
}

func (c *StreetController) handle(r gesture.Result, dt float64) {
	if r.HasTouch {
		c.deps.logTouch(r.Touch)
		c.updateCursor(r.Touch.Position)
		if r.Began {
			c.cancelMove()
			c.prev = r.Touch.Position
		}
	}

	switch {
	case r.Fingers == 2:
		if r.Pair.Began {
			c.cancelMove()
			c.paddling.active = false
			c.gazing.active = false
		}
		if c.set.Mode != ModeLookAround && r.Pair.Rotating {
			c.turn.apply(r.Pair.DeltaMid, &c.yaw, &c.pitch)
		}
	case r.Fingers == 1 && r.HasTouch:
		c.oneFinger(r, dt)
	}
}

func (c *StreetController) oneFinger(r gesture.Result, dt float64) {
	t := r.Touch
	switch c.set.Mode {
	case ModePaddle:
		c.paddle(r, dt)
	case ModeGazeDrag:
		c.gazeDrag(r)
	case ModeDragWalk:
		if r.Ended && r.Outcome.Tap {
			c.startMove(t.Position)
		}
	case ModeLookAround:
		switch {
		case r.Ended:
			if !r.Outcome.Tap {
				c.taps.Clear()
				return
			}
			if c.taps.Tap(t.Time) {
				c.startMove(t.Position)
			}
		case !r.Began && r.Stroke.Rotating:
			c.turn.apply(t.Position.Sub(c.prev), &c.yaw, &c.pitch)
			c.prev = t.Position
		}
	}
}

// pick resolves a screen point to a ground target. Without a camera the ray
// runs along the body's forward direction from eye height.
func (c *StreetController) pick(screen mgl64.Vec2) (origin, dir, target mgl64.Vec3, hit bool) {
	eye := c.Eye()
	if c.deps.Camera != nil {
		origin, dir = c.deps.Camera.ScreenRay(screen, eye)
	} else {
		origin, dir = eye.Position, eye.Forward()
	}
	if c.deps.Raycaster != nil && dir.LenSqr() > 0 {
		target, hit = c.deps.Raycaster.Raycast(origin, dir, c.set.MaxRayDistance)
	}
	return origin, dir, target, hit
}

func (c *StreetController) updateCursor(screen mgl64.Vec2) {
	origin, dir, target, hit := c.pick(screen)
	if !hit && dir.LenSqr() > 0 {
		target = origin.Add(dir.Normalize().Mul(c.set.NoHitDistance))
	}
	c.cursor = Cursor{Point: target, Hit: hit, Visible: !c.move.active}
}

func (c *StreetController) startMove(screen mgl64.Vec2) {
	_, dir, target, hit := c.pick(screen)
	if hit {
		target[1] = c.pos.Y()
	} else {
		flat := mgl64.Vec3{dir.X(), 0, dir.Z()}
		if flat.LenSqr() < 1e-12 {
			flat = c.transform().Forward()
		}
		target = c.pos.Add(flat.Normalize().Mul(c.set.NoHitDistance))
	}

	c.cancelMove()
	c.move.start(c.pos, target, c.set.MoveDuration)
	c.emit(Event{Type: EventMoveStarted, Position: target})
	c.deps.logMovement(target, c.move.speed, "Tap")
}

func (c *StreetController) cancelMove() {
	if c.move.cancel() {
		c.emit(Event{Type: EventMoveCanceled, Position: c.pos})
	}
}

func (c *StreetController) emit(e Event) {
	c.events = append(c.events, e)
}

func (c *StreetController) showDebug() {
	if c.deps.Display == nil {
		return
	}
	moving := "idle"
	if c.move.active {
		moving = fmt.Sprintf("moving %.1f/s", c.move.speed)
	}
	heading := math.Mod(c.yaw, 360)
	c.deps.Display.SetGestureLog(fmt.Sprintf(
		"=== %s/%s ===\n[%dF] %s | Yaw: %.1f Pitch: %.1f | %s\nPos: (%.2f, %.2f, %.2f) | Cursor hit: %v",
		c.deps.Name, c.set.Mode, c.last.Fingers, c.last.Kind, heading, c.pitch, moving,
		c.pos.X(), c.pos.Y(), c.pos.Z(), c.cursor.Hit))
}

var _ Raycaster = GroundPlane{}
