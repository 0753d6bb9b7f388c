package locomotion

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locomotion/internal/gesture"
	"locomotion/internal/spline"
	"locomotion/internal/telemetry"
)

const frame = 1.0 / 60

type recorder struct {
	touches   []telemetry.TouchRecord
	movements []telemetry.MovementRecord
}

func (r *recorder) LogTouch(t telemetry.TouchRecord)       { r.touches = append(r.touches, t) }
func (r *recorder) LogMovement(m telemetry.MovementRecord) { r.movements = append(r.movements, m) }

// ticker drives a controller with one synthetic finger.
type ticker interface {
	Tick(dt float64, in Input) (Transform, []Event)
}

type driver struct {
	c      ticker
	last   map[int]mgl64.Vec2
	events []Event
	tr     Transform
}

func newDriver(c ticker) *driver {
	return &driver{c: c, last: make(map[int]mgl64.Vec2)}
}

func (d *driver) touch(id int, ph gesture.Phase, x, y, t float64) gesture.Touch {
	pos := mgl64.Vec2{x, y}
	var delta mgl64.Vec2
	if ph != gesture.Began {
		delta = pos.Sub(d.last[id])
	}
	d.last[id] = pos
	return gesture.Touch{ID: id, Position: pos, Delta: delta, Phase: ph, Time: t}
}

func (d *driver) tick(dt float64, touches ...gesture.Touch) []Event {
	tr, ev := d.c.Tick(dt, Input{Touches: touches, DPI: 160, ScreenWidth: 900, ScreenHeight: 1600})
	d.tr = tr
	d.events = append(d.events, ev...)
	return ev
}

func (d *driver) one(ph gesture.Phase, x, y, t float64) []Event {
	return d.tick(frame, d.touch(1, ph, x, y, t))
}

func (d *driver) count(typ EventType) int {
	n := 0
	for _, e := range d.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func newController(t *testing.T, s Settings, d Deps) *Controller {
	t.Helper()
	net := spline.Build(spline.DefaultParams())
	return New(net, s, gesture.DefaultThresholds(), d)
}

func swipe(d *driver, dir float64, t0 float64) {
	x := 450.0
	d.one(gesture.Began, x, 800, t0)
	d.one(gesture.Moved, x+dir*150, 800, t0+0.05)
	d.one(gesture.Moved, x+dir*300, 800, t0+0.1)
	d.one(gesture.Ended, x+dir*300, 800, t0+0.1)
}

func TestInitialPlacement(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{Height: 1.5})
	st := c.State()
	assert.Equal(t, spline.Main, st.Branch)
	assert.Equal(t, 1, st.Lane)
	assert.Zero(t, st.LaneOffset)

	tr, ev := c.Tick(frame, Input{})
	assert.Empty(t, ev)
	assert.Equal(t, mgl64.Vec3{0, 1.5, 0}, tr.Position)
	f := tr.Forward()
	assert.InDelta(t, 1.0, f.Z(), 1e-9)
	assert.InDelta(t, 0.0, c.Progress(), 1e-12)
}

func TestForkTransitionCarriesOverflow(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	c.advance(8.25)
	st := c.State()
	assert.Equal(t, spline.Straight, st.Branch)
	assert.InDelta(t, 0.25, st.Distance, 1e-9)
	assert.Equal(t, 1, st.Lane)

	// Backing over the fork carries the underflow onto the main road.
	c.advance(-0.75)
	st = c.State()
	assert.Equal(t, spline.Main, st.Branch)
	assert.InDelta(t, 7.5, st.Distance, 1e-9)
}

func TestForkTakesLeftFromLeftLane(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	c.shiftLane(-1)
	require.Equal(t, 0, c.State().Lane)

	c.advance(8.1)
	st := c.State()
	assert.Equal(t, spline.Left, st.Branch)
	assert.InDelta(t, 0.1, st.Distance, 1e-9)
	// The lane resets to the centre on entering a branch.
	assert.Equal(t, 1, st.Lane)
	assert.Equal(t, 0.0, st.TargetOffset)

	types := []EventType{}
	for _, e := range c.events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, EventBranchChanged)
}

func TestDistanceClampedToBranch(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	c.advance(-3)
	assert.Equal(t, spline.Main, c.State().Branch)
	assert.Equal(t, 0.0, c.State().Distance)

	c.advance(100)
	assert.Equal(t, spline.Straight, c.State().Branch)
	assert.Equal(t, c.net.Length(spline.Straight), c.State().Distance)
	assert.InDelta(t, 1.0, c.Progress(), 1e-9)
}

func TestDragDownMovesForward(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	d := newDriver(c)
	d.one(gesture.Began, 450, 400, 0)
	for i := 1; i <= 10; i++ {
		d.one(gesture.Moved, 450, 400+30*float64(i), float64(i)*frame)
	}
	step := 30 * 2.54 / 160 * 3 * frame
	assert.InDelta(t, 10*step, c.State().Distance, 1e-9)
	assert.Greater(t, d.tr.Position.Z(), 0.0)

	// Dragging back up reverses.
	before := c.State().Distance
	d.one(gesture.Moved, 450, 370, 11*frame)
	assert.Less(t, c.State().Distance, before)
}

func TestDragSpeedIsCapped(t *testing.T) {
	s := DefaultSettings()
	s.MaxSpeed = 2
	c := newController(t, s, Deps{})
	d := newDriver(c)
	d.one(gesture.Began, 450, 100, 0)
	d.one(gesture.Moved, 450, 900, frame)
	assert.InDelta(t, 2*frame, c.State().Distance, 1e-12)
}

func TestSwipeChangesLaneWithoutMoving(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{Height: 2})
	d := newDriver(c)
	swipe(d, 1, 0)

	st := c.State()
	assert.Equal(t, 2, st.Lane)
	assert.Equal(t, 1.0, st.TargetOffset)
	assert.Equal(t, 0.0, st.Distance)
	assert.Equal(t, 1, d.count(EventSwipe))
	assert.Equal(t, 1, d.count(EventLaneChanged))
	assert.Equal(t, 2.0, d.tr.Position.Y())

	// Offset is smoothed, never snapped.
	assert.Greater(t, st.LaneOffset, 0.0)
	assert.Less(t, st.LaneOffset, 1.0)
}

func TestLaneBoundsAndConvergence(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	d := newDriver(c)
	bound := laneOffset(2, 3, 1)
	for i := range 4 {
		swipe(d, 1, float64(i))
		assert.LessOrEqual(t, math.Abs(c.State().LaneOffset), bound)
	}
	assert.Equal(t, 2, c.State().Lane)
	assert.Equal(t, 1, d.count(EventLaneChanged))

	for range 60 {
		d.tick(frame)
		assert.LessOrEqual(t, math.Abs(c.State().LaneOffset), bound)
	}
	assert.Equal(t, c.State().TargetOffset, c.State().LaneOffset)
	assert.InDelta(t, 1.0, d.tr.Position.X(), 1e-9)

	for i := range 4 {
		swipe(d, -1, float64(10+i))
	}
	assert.Equal(t, 0, c.State().Lane)
	for range 60 {
		d.tick(frame)
	}
	assert.InDelta(t, -1.0, d.tr.Position.X(), 1e-9)
}

func TestTwoFingerYaw(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	d := newDriver(c)
	d.tick(frame, d.touch(1, gesture.Began, 100, 500, 0), d.touch(2, gesture.Began, 300, 500, 0))
	d.tick(frame, d.touch(1, gesture.Moved, 110, 500, frame), d.touch(2, gesture.Moved, 310, 500, frame))
	assert.InDelta(t, 1.5, c.State().Yaw, 1e-12)

	f := d.tr.Forward()
	assert.Greater(t, f.X(), 0.0, "positive yaw turns right")
	assert.Equal(t, 0.0, c.State().Distance)

	s := DefaultSettings()
	s.TwoFingerYaw = false
	c = newController(t, s, Deps{})
	d = newDriver(c)
	d.tick(frame, d.touch(1, gesture.Began, 100, 500, 0), d.touch(2, gesture.Began, 300, 500, 0))
	d.tick(frame, d.touch(1, gesture.Moved, 110, 500, frame), d.touch(2, gesture.Moved, 310, 500, frame))
	assert.Zero(t, c.State().Yaw)
}

func TestDoubleTapMovesOnce(t *testing.T) {
	s := DefaultSettings()
	s.Mode = ModeLookAround
	c := newController(t, s, Deps{})
	d := newDriver(c)

	d.one(gesture.Began, 450, 800, 0)
	d.one(gesture.Ended, 452, 801, 0.05)
	assert.Zero(t, d.count(EventMoveStarted))
	d.one(gesture.Began, 450, 800, 0.15)
	d.one(gesture.Ended, 450, 800, 0.2)
	assert.Equal(t, 1, d.count(EventMoveStarted))
	require.True(t, c.Moving())

	for range 70 {
		d.tick(frame)
	}
	assert.Equal(t, 1, d.count(EventMoveStarted))
	assert.Equal(t, 1, d.count(EventMoveArrived))
	assert.False(t, c.Moving())
	assert.InDelta(t, s.TapMoveDistance, c.State().Distance, 1e-9)
}

func TestNewTouchCancelsMove(t *testing.T) {
	s := DefaultSettings()
	s.Mode = ModeLookAround
	c := newController(t, s, Deps{})
	d := newDriver(c)
	d.one(gesture.Began, 450, 800, 0)
	d.one(gesture.Ended, 450, 800, 0.05)
	d.one(gesture.Began, 450, 800, 0.1)
	d.one(gesture.Ended, 450, 800, 0.15)
	require.True(t, c.Moving())

	d.tick(frame)
	at := c.State().Distance
	d.one(gesture.Began, 450, 800, 2)
	assert.Equal(t, 1, d.count(EventMoveCanceled))
	assert.False(t, c.Moving())
	d.tick(frame)
	assert.Equal(t, at, c.State().Distance)
}

func TestLookAroundRotates(t *testing.T) {
	s := DefaultSettings()
	s.Mode = ModeLookAround
	c := newController(t, s, Deps{})
	d := newDriver(c)
	d.one(gesture.Began, 450, 800, 0)
	d.one(gesture.Moved, 455, 800, frame)
	assert.Zero(t, c.State().Yaw, "below the rotate threshold")
	d.one(gesture.Moved, 470, 800, 2*frame)
	assert.InDelta(t, 20*5*0.05, c.State().Yaw, 1e-12)
	d.one(gesture.Moved, 470, 2000, 3*frame)
	assert.Equal(t, 60.0, c.State().Pitch)
	// Look-around drags never walk.
	assert.Zero(t, c.State().Distance)

	// A rotating stroke is not a tap.
	d.one(gesture.Ended, 450, 800, 4*frame)
	d.one(gesture.Began, 450, 800, 4*frame+0.1)
	d.one(gesture.Ended, 450, 800, 4*frame+0.15)
	assert.Zero(t, d.count(EventMoveStarted))
}

func TestDisplayActiveBlocksInput(t *testing.T) {
	p := &telemetry.Panel{}
	p.Toggle()
	c := newController(t, DefaultSettings(), Deps{Display: p})
	d := newDriver(c)
	d.one(gesture.Began, 450, 400, 0)
	d.one(gesture.Moved, 450, 600, frame)
	assert.Zero(t, c.State().Distance)
	require.NotEmpty(t, p.Lines())
	assert.Contains(t, p.Lines()[0], "Branch: Main")
}

func TestTelemetry(t *testing.T) {
	rec := &recorder{}
	clock := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newController(t, DefaultSettings(), Deps{Logger: rec, Now: func() time.Time { return clock }})
	d := newDriver(c)
	d.one(gesture.Began, 450, 400, 0)
	d.one(gesture.Moved, 450, 430, frame)
	swipe(d, -1, 1)

	require.Len(t, rec.touches, 6)
	assert.Equal(t, "spline", rec.touches[0].Source)
	assert.Equal(t, gesture.Began, rec.touches[0].Phase)
	assert.Equal(t, clock, rec.touches[0].Time)

	labels := []string{}
	for _, m := range rec.movements {
		labels = append(labels, m.Gesture)
	}
	assert.Contains(t, labels, "Drag")
	assert.Contains(t, labels, "SwipeLeft_Lane0")
}

func TestUITouchDoesNotDrive(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	d := newDriver(c)
	began := d.touch(1, gesture.Began, 450, 400, 0)
	began.OverUI = true
	d.tick(frame, began)
	d.one(gesture.Moved, 450, 700, frame)
	d.one(gesture.Moved, 450, 900, 2*frame)
	assert.Zero(t, c.State().Distance)
}

func TestResetRestoresStart(t *testing.T) {
	c := newController(t, DefaultSettings(), Deps{})
	c.advance(12)
	c.shiftLane(1)
	c.st.Yaw = 30
	c.Reset()
	st := c.State()
	assert.Equal(t, spline.Main, st.Branch)
	assert.Zero(t, st.Distance)
	assert.Equal(t, 1, st.Lane)
	assert.Zero(t, st.Yaw)
}

func TestSettingsNormalized(t *testing.T) {
	s := Settings{LaneCount: 0, LaneWidth: -1, PitchMin: 10, PitchMax: -10}
	n := s.normalized()
	assert.Equal(t, 1, n.LaneCount)
	assert.Zero(t, n.LaneWidth)
	assert.Equal(t, -10.0, n.PitchMin)
	assert.Equal(t, 10.0, n.PitchMax)
	assert.Greater(t, n.LaneSwitchSpeed, 0.0)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("look")
	require.NoError(t, err)
	assert.Equal(t, ModeLookAround, m)
	m, err = ParseMode(" Drag ")
	require.NoError(t, err)
	assert.Equal(t, ModeDragWalk, m)
	for _, m := range []Mode{ModePaddle, ModeGazeDrag} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
		assert.True(t, m.StreetOnly())
	}
	assert.False(t, ModeLookAround.StreetOnly())
	_, err = ParseMode("fly")
	assert.Error(t, err)
}

func TestLookRotation(t *testing.T) {
	q := lookRotation(mgl64.Vec3{1, 0, 0}, spline.Up)
	got := q.Rotate(mgl64.Vec3{0, 0, 1})
	assert.InDelta(t, 1.0, got.X(), 1e-9)
	assert.InDelta(t, 0.0, got.Z(), 1e-9)
	up := q.Rotate(mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, 1.0, up.Y(), 1e-9)

	assert.Equal(t, mgl64.QuatIdent(), lookRotation(mgl64.Vec3{0, 1, 0}, spline.Up))
}

func TestTransformView(t *testing.T) {
	tr := Transform{Rotation: mgl64.QuatIdent(), Pitch: 30}
	v := tr.View()
	assert.Less(t, v.Y(), 0.0, "positive pitch looks down")
	assert.InDelta(t, math.Cos(mgl64.DegToRad(30)), v.Z(), 1e-9)
}
