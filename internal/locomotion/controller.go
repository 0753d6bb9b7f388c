package locomotion

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
	"locomotion/internal/spline"
	"locomotion/internal/telemetry"
)

// Deps are the optional collaborators of a controller. Nil members are
// skipped.
type Deps struct {
	Logger  telemetry.Logger
	Display telemetry.Display
	Name    string  // source tag on telemetry records
	Height  float64 // fixed world Y of the entity
	Now     func() time.Time
}

func (d Deps) logTouch(t gesture.Touch) {
	if d.Logger == nil {
		return
	}
	d.Logger.LogTouch(telemetry.TouchRecord{
		Source:   d.Name,
		FingerID: t.ID,
		Position: t.Position,
		Delta:    t.Delta,
		Phase:    t.Phase,
		TapCount: t.TapCount,
		Time:     d.Now(),
	})
}

func (d Deps) logMovement(pos mgl64.Vec3, speed float64, label string) {
	if d.Logger == nil {
		return
	}
	d.Logger.LogMovement(telemetry.MovementRecord{
		Source:   d.Name,
		Position: pos,
		Speed:    speed,
		Gesture:  label,
		Time:     d.Now(),
	})
}

func (d Deps) withDefaults(name string) Deps {
	if d.Name == "" {
		d.Name = name
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// State is the controller's position on the network.
type State struct {
	Branch       spline.Branch
	Distance     float64
	Lane         int
	TargetOffset float64
	LaneOffset   float64
	Yaw          float64 // degrees on top of the spline heading
	Pitch        float64
}

// Controller keeps an entity on a forked spline, moving it with drags and
// switching lanes with swipes.
type Controller struct {
	net     *spline.Network
	set     Settings
	deps    Deps
	tracker *gesture.Tracker
	policy  policy

	st     State
	move   arcMove
	last   gesture.Result
	pos    mgl64.Vec3
	events []Event
}

func New(net *spline.Network, s Settings, th gesture.Thresholds, d Deps) *Controller {
	c := &Controller{
		net:     net,
		set:     s.normalized(),
		deps:    d.withDefaults("spline"),
		tracker: gesture.NewTracker(th),
	}
	c.policy = newPolicy(c.set, th)
	c.Reset()
	return c
}

// Reset puts the entity back at the start of the main branch in the centre
// lane and drops all gesture state.
func (c *Controller) Reset() {
	lane := c.set.LaneCount / 2
	off := laneOffset(lane, c.set.LaneCount, c.set.LaneWidth)
	c.st = State{Branch: spline.Main, Lane: lane, TargetOffset: off, LaneOffset: off}
	c.move = arcMove{}
	c.tracker.Reset()
	c.policy.reset()
	c.last = gesture.Result{}
	c.pos = c.place().Position
}

func (c *Controller) State() State             { return c.st }
func (c *Controller) Settings() Settings       { return c.set }
func (c *Controller) Network() *spline.Network { return c.net }

// Progress is the overall fraction of main plus the current branch covered.
func (c *Controller) Progress() float64 {
	return c.net.Progress(c.st.Branch, c.st.Distance)
}

// Moving reports whether a double-tap move is in flight.
func (c *Controller) Moving() bool { return c.move.active }

// SetBaseSpeed changes the drag speed at runtime.
func (c *Controller) SetBaseSpeed(v float64) {
	c.set.BaseSpeed = max(0, v)
}

// Tick advances one frame and returns the pose and what happened.
func (c *Controller) Tick(dt float64, in Input) (Transform, []Event) {
	c.events = nil
	if dt < 0 {
		dt = 0
	}

	c.last = gesture.Result{}
	if c.deps.Display == nil || !c.deps.Display.Active() {
		res := c.tracker.Update(in.frame())
		c.last = res
		c.handle(res, dt)
	}

	if d := c.move.step(dt); d > 0 {
		before := c.st.Distance
		beforeBranch := c.st.Branch
		c.advance(d)
		if c.st.Branch == beforeBranch && c.st.Distance == before {
			// Pinned at the end of a branch.
			c.move.cancel()
		}
		if !c.move.active {
			c.emit(Event{Type: EventMoveArrived})
		}
	}

	c.smoothLane(dt)
	tr := c.place()
	c.pos = tr.Position
	c.showDebug(in.DPI)
	return tr, c.events
}

func (c *Controller) handle(res gesture.Result, dt float64) {
	if res.HasTouch {
		t := res.Touch
		c.deps.logTouch(t)
		if t.Phase == gesture.Began {
			c.cancelMove()
		}
	}
	if res.Fingers == 2 && res.Pair.Began {
		c.cancelMove()
	}
	c.policy.apply(c, res, dt)
}

// drive integrates a per-frame vertical drag (cm, y down) into arc length.
// Dragging down the screen pulls the world towards the viewer, i.e. forward.
func (c *Controller) drive(dyCm, dt float64) {
	if math.Abs(dyCm) <= 0.001 {
		return
	}
	speed := mgl64.Clamp(math.Abs(dyCm)*c.set.CmToSpeed*c.set.BaseSpeed/5, 0, c.set.MaxSpeed)
	dir := -1.0
	if dyCm > 0 {
		dir = 1
	}
	c.advance(dir * speed * dt)
	c.deps.logMovement(c.pos, c.set.BaseSpeed, "Drag")
}

// advance moves along the current branch, crossing the fork in either
// direction without losing distance.
func (c *Controller) advance(d float64) {
	c.st.Distance += d
	mainLen := c.net.MainLength()

	switch {
	case c.st.Branch == spline.Main && c.st.Distance >= mainLen:
		overflow := c.st.Distance - mainLen
		c.st.Branch = spline.Straight
		if c.st.Lane == 0 {
			c.st.Branch = spline.Left
		}
		c.st.Distance = overflow
		c.setLane(c.set.LaneCount / 2)
		c.emit(Event{Type: EventBranchChanged, Branch: c.st.Branch, Lane: c.st.Lane})
	case c.st.Branch != spline.Main && c.st.Distance <= 0:
		c.st.Distance += mainLen
		c.st.Branch = spline.Main
		c.emit(Event{Type: EventBranchChanged, Branch: c.st.Branch, Lane: c.st.Lane})
	}

	c.st.Distance = mgl64.Clamp(c.st.Distance, 0, c.net.Length(c.st.Branch))
}

// shiftLane moves one lane left (-1) or right (+1), clamped to the road.
func (c *Controller) shiftLane(dir int) {
	c.emit(Event{Type: EventSwipe, Direction: dir, Lane: c.st.Lane})
	lane := min(max(c.st.Lane+dir, 0), c.set.LaneCount-1)
	if lane == c.st.Lane {
		return
	}
	c.setLane(lane)
	label := "SwipeLeft_Lane"
	if dir > 0 {
		label = "SwipeRight_Lane"
	}
	c.deps.logMovement(c.pos, 0, fmt.Sprintf("%s%d", label, lane))
}

func (c *Controller) setLane(lane int) {
	changed := lane != c.st.Lane
	c.st.Lane = lane
	c.st.TargetOffset = laneOffset(lane, c.set.LaneCount, c.set.LaneWidth)
	if changed {
		c.emit(Event{Type: EventLaneChanged, Lane: lane, Branch: c.st.Branch})
	}
}

// smoothLane approaches the target offset exponentially and snaps once close.
func (c *Controller) smoothLane(dt float64) {
	diff := c.st.TargetOffset - c.st.LaneOffset
	if math.Abs(diff) <= 0.001 {
		c.st.LaneOffset = c.st.TargetOffset
		return
	}
	c.st.LaneOffset += diff * (1 - math.Exp(-c.set.LaneSwitchSpeed*dt))
}

func (c *Controller) place() Transform {
	b, d := c.st.Branch, c.st.Distance
	pos := c.net.SamplePosition(b, d)
	fwd := c.net.SampleForward(b, d)
	right := c.net.SampleRight(b, d)

	p := pos.Add(right.Mul(c.st.LaneOffset))
	p[1] = c.deps.Height

	return Transform{
		Position: p,
		Rotation: yawRotation(c.st.Yaw).Mul(lookRotation(fwd, spline.Up)),
		Pitch:    c.st.Pitch,
	}
}

func (c *Controller) startMove() {
	c.cancelMove()
	c.move.start(c.set.TapMoveDistance, c.set.MoveDuration)
	if !c.move.active {
		return
	}
	c.emit(Event{Type: EventMoveStarted, Branch: c.st.Branch, Position: c.pos})
	c.deps.logMovement(c.pos, c.move.speed, "DoubleTap")
}

func (c *Controller) cancelMove() {
	if c.move.cancel() {
		c.emit(Event{Type: EventMoveCanceled, Position: c.pos})
	}
}

func (c *Controller) emit(e Event) {
	if e.Position == (mgl64.Vec3{}) {
		e.Position = c.pos
	}
	c.events = append(c.events, e)
}

func (c *Controller) showDebug(dpi float64) {
	if c.deps.Display == nil {
		return
	}
	if dpi <= 0 {
		dpi = gesture.FallbackDPI
	}
	r := c.last
	fingers := "1F"
	if r.Fingers == 2 {
		fingers = "2F"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s/%s (DPI: %.0f) ===\n", c.deps.Name, c.set.Mode, dpi)
	fmt.Fprintf(&b, "[%s] %s | Speed: %.1f", fingers, r.Kind, c.set.BaseSpeed)
	fmt.Fprintf(&b, "\nBranch: %s | Lane: %d/%d | Dist: %.1f/%.1f",
		c.st.Branch, c.st.Lane, c.set.LaneCount-1, c.st.Distance, c.net.Length(c.st.Branch))
	switch {
	case r.Kind == gesture.TwoFingerRotate:
		on := "OFF"
		if c.set.TwoFingerYaw {
			on = "ON"
		}
		fmt.Fprintf(&b, " | RotY: %s", on)
	case r.Kind != gesture.None:
		s := r.Stroke
		fmt.Fprintf(&b, " | Zone: %s | Vel: %.1fcm/s", s.Zone, s.VelocityCm)
		fmt.Fprintf(&b, "\nDrag: X=%.2fcm Y=%.2fcm Total=%.2fcm", s.DragCm.X(), s.DragCm.Y(), s.TotalCm)
	}
	c.deps.Display.SetGestureLog(b.String())
}
