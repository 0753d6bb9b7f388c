package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locomotion/internal/config"
	"locomotion/internal/gesture"
	"locomotion/internal/locomotion"
	"locomotion/internal/spline"
	"locomotion/internal/telemetry"
)

const frame = 1.0 / 60

func TestBusDispatch(t *testing.T) {
	b := NewBus()
	var lanes, all int
	b.Subscribe(locomotion.EventLaneChanged, func(e locomotion.Event) { lanes += e.Lane })
	b.SubscribeAll(func(locomotion.Event) { all++ })

	b.Emit(locomotion.Event{Type: locomotion.EventLaneChanged, Lane: 2})
	b.Emit(locomotion.Event{Type: locomotion.EventMoveStarted})
	assert.Equal(t, 2, lanes)
	assert.Equal(t, 2, all)
}

func identityPose() locomotion.Transform {
	return locomotion.Transform{Rotation: mgl64.QuatIdent()}
}

func TestScreenRayCentreLooksForward(t *testing.T) {
	c := NewFirstPersonCamera()
	c.Resize(800, 600)
	eye := identityPose()
	eye.Position = mgl64.Vec3{1, 2, 3}

	origin, dir := c.ScreenRay(mgl64.Vec2{400, 300}, eye)
	assert.Equal(t, eye.Position, origin)
	assert.InDelta(t, 0.0, dir.X(), 1e-9)
	assert.InDelta(t, 0.0, dir.Y(), 1e-9)
	assert.InDelta(t, 1.0, dir.Z(), 1e-9)
}

func TestScreenRayHandedness(t *testing.T) {
	c := NewFirstPersonCamera()
	c.Resize(800, 600)
	eye := identityPose()

	_, right := c.ScreenRay(mgl64.Vec2{700, 300}, eye)
	assert.Greater(t, right.X(), 0.0, "right half of the screen is world +X")
	_, low := c.ScreenRay(mgl64.Vec2{400, 550}, eye)
	assert.Less(t, low.Y(), 0.0, "lower half of the screen looks down")
}

func TestScreenRayFollowsPitch(t *testing.T) {
	c := NewFirstPersonCamera()
	eye := identityPose()
	eye.Pitch = 30
	_, dir := c.ScreenRay(mgl64.Vec2{c.Width / 2, c.Height / 2}, eye)
	assert.InDelta(t, eye.View().Y(), dir.Y(), 1e-9)
	assert.Less(t, dir.Y(), 0.0)
}

func TestViewProjectionPutsTargetCentre(t *testing.T) {
	c := NewChaseCamera()
	c.Follow(identityPose(), 0)
	p := mgl64.TransformCoordinate(c.Target, c.ViewProjection())
	assert.InDelta(t, 0.0, p.X(), 1e-9)
	assert.InDelta(t, 0.0, p.Y(), 1e-9)

	// A point to the body's right lands on the right of the screen.
	r := mgl64.TransformCoordinate(mgl64.Vec3{2, 0, 4}, c.ViewProjection())
	assert.Greater(t, r.X(), 0.0)
}

func TestChaseCameraSmoothing(t *testing.T) {
	c := NewChaseCamera()
	pose := identityPose()
	c.Follow(pose, frame)
	assert.InDelta(t, -c.Back, c.Eye.Z(), 1e-12, "first follow snaps")
	assert.InDelta(t, c.Rise, c.Eye.Y(), 1e-12)

	pose.Position = mgl64.Vec3{0, 0, 10}
	c.Follow(pose, frame)
	assert.Greater(t, c.Eye.Z(), -c.Back)
	assert.Less(t, c.Eye.Z(), 10-c.Back)
	for range 600 {
		c.Follow(pose, frame)
	}
	assert.InDelta(t, 10-c.Back, c.Eye.Z(), 1e-6)
}

func touch(id int, phase gesture.Phase, x, y float64) gesture.Touch {
	return gesture.Touch{ID: id, Position: mgl64.Vec2{x, y}, Phase: phase}
}

func TestHUDLayout(t *testing.T) {
	h := NewHUD()
	h.Layout(1000, 700)
	require.Len(t, h.Buttons, 4)
	last := h.Buttons[len(h.Buttons)-1]
	assert.Equal(t, 1000.0-buttonGap, last.X1)
	for i := 1; i < len(h.Buttons); i++ {
		assert.False(t, h.Buttons[i].Intersects(h.Buttons[i-1].Rect))
	}
}

func TestHUDFilter(t *testing.T) {
	h := NewHUD()
	h.Layout(800, 600)
	btn := h.Buttons[0]
	cx, cy := (btn.X0+btn.X1)/2, (btn.Y0+btn.Y1)/2

	out, fired := h.Filter([]gesture.Touch{touch(1, gesture.Began, cx, cy), touch(2, gesture.Began, 100, 400)})
	assert.True(t, out[0].OverUI)
	assert.False(t, out[1].OverUI)
	assert.Empty(t, fired)

	out, _ = h.Filter([]gesture.Touch{touch(1, gesture.Moved, 10, 400)})
	assert.True(t, out[0].OverUI, "ownership lasts until lift")

	_, fired = h.Filter([]gesture.Touch{touch(1, gesture.Ended, 10, 400)})
	assert.Empty(t, fired, "released off the button")

	h.Filter([]gesture.Touch{touch(3, gesture.Began, cx, cy)})
	_, fired = h.Filter([]gesture.Touch{touch(3, gesture.Ended, cx, cy)})
	assert.Equal(t, []Action{btn.Action}, fired)

	h.Filter([]gesture.Touch{touch(4, gesture.Began, cx, cy)})
	_, fired = h.Filter([]gesture.Touch{touch(4, gesture.Canceled, cx, cy)})
	assert.Empty(t, fired)
}

func TestPointerPhases(t *testing.T) {
	p := NewPointer(gesture.DefaultThresholds())
	at := func(x, y float64) []Contact { return []Contact{{ID: 0, Position: mgl64.Vec2{x, y}}} }

	ts := p.Update(0, at(10, 10))
	require.Len(t, ts, 1)
	assert.Equal(t, gesture.Began, ts[0].Phase)
	assert.Equal(t, 1, ts[0].TapCount)

	ts = p.Update(frame, at(10, 10))
	assert.Equal(t, gesture.Stationary, ts[0].Phase)

	ts = p.Update(2*frame, at(15, 7))
	assert.Equal(t, gesture.Moved, ts[0].Phase)
	assert.Equal(t, mgl64.Vec2{5, -3}, ts[0].Delta)

	ts = p.Update(3*frame, nil)
	require.Len(t, ts, 1)
	assert.Equal(t, gesture.Ended, ts[0].Phase)
	assert.Equal(t, mgl64.Vec2{15, 7}, ts[0].Position)
	assert.Zero(t, p.Down())

	ts = p.Update(0.2, at(16, 8))
	assert.Equal(t, 2, ts[0].TapCount, "quick second tap nearby")
	p.Update(0.25, nil)
	ts = p.Update(2, at(16, 8))
	assert.Equal(t, 1, ts[0].TapCount)
}

func TestPointerTwoFingersOrdered(t *testing.T) {
	p := NewPointer(gesture.DefaultThresholds())
	ts := p.Update(0, []Contact{{ID: 1, Position: mgl64.Vec2{50, 0}}, {ID: 0, Position: mgl64.Vec2{0, 0}}})
	require.Len(t, ts, 2)
	assert.Equal(t, 0, ts[0].ID)
	assert.Equal(t, 1, ts[1].ID)

	ts = p.Cancel(frame)
	require.Len(t, ts, 2)
	assert.Equal(t, gesture.Canceled, ts[0].Phase)
	assert.Zero(t, p.Down())
}

func TestRasterizeText(t *testing.T) {
	assert.Nil(t, RasterizeText(nil))
	assert.Nil(t, RasterizeText([]string{""}))

	one := RasterizeText([]string{"lane 1"})
	two := RasterizeText([]string{"lane 1\nbranch Left"})
	require.NotNil(t, one)
	require.NotNil(t, two)
	assert.Greater(t, two.Bounds().Dy(), one.Bounds().Dy())
	assert.Greater(t, two.Bounds().Dx(), one.Bounds().Dx())

	lit := 0
	for i := 0; i < len(one.Pix); i += 4 {
		if one.Pix[i] > 200 {
			lit++
		}
	}
	assert.Positive(t, lit)
}

type sessionDriver struct {
	s   *Session
	p   *Pointer
	now float64
}

func newSessionDriver(s *Session) *sessionDriver {
	return &sessionDriver{s: s, p: NewPointer(s.Thresholds())}
}

// step reports the given contacts as held this frame; fingers missing from
// the list lift.
func (d *sessionDriver) step(cs ...Contact) {
	d.s.Step(frame, locomotion.Input{Touches: d.p.Update(d.now, cs), DPI: 160})
	d.now += frame
}

func at(id int, x, y float64) Contact {
	return Contact{ID: id, Position: mgl64.Vec2{x, y}}
}

func TestSessionDragWalksAndEmits(t *testing.T) {
	s := New(config.Default(), Options{})
	require.NotNil(t, s.Road())
	require.NotNil(t, s.Mesh())
	var lanes []int
	s.Bus.Subscribe(locomotion.EventLaneChanged, func(e locomotion.Event) { lanes = append(lanes, e.Lane) })

	d := newSessionDriver(s)
	for i := 0; i <= 20; i++ {
		d.step(at(0, 400, 300+float64(i)*10))
	}
	d.step()
	assert.Greater(t, s.Road().State().Distance, 0.0)
	assert.Greater(t, s.Pose().Position.Z(), 0.0)
	assert.Empty(t, lanes)

	d.step(at(1, 300, 400))
	d.step(at(1, 600, 400))
	d.step()
	assert.Equal(t, []int{2}, lanes)
}

func TestSessionHUDActions(t *testing.T) {
	s := New(config.Default(), Options{})
	s.Resize(800, 600)
	d := newSessionDriver(s)
	press := func(a Action) {
		for _, b := range s.HUD.Buttons {
			if b.Action == a {
				d.step(at(9, (b.X0+b.X1)/2, (b.Y0+b.Y1)/2))
				d.step()
				return
			}
		}
		t.Fatalf("no button for %v", a)
	}

	press(ActionFaster)
	assert.Equal(t, 6.0, s.Road().Settings().BaseSpeed)
	assert.Zero(t, s.Road().State().Distance, "button touches never walk")

	press(ActionToggleMode)
	assert.Equal(t, locomotion.ModeLookAround, s.Mode())

	press(ActionToggleDebug)
	assert.True(t, s.Panel.Active())
	assert.Greater(t, len(s.Overlay()), 1)
	press(ActionToggleDebug)
	assert.False(t, s.Panel.Active())
	assert.Len(t, s.Overlay(), 1)
}

func TestSessionSpeedClamp(t *testing.T) {
	s := New(config.Default(), Options{})
	for range 50 {
		s.AdjustSpeed(1)
	}
	assert.Equal(t, s.Road().Settings().MaxSpeed, s.Road().Settings().BaseSpeed)
	for range 50 {
		s.AdjustSpeed(-1)
	}
	assert.Zero(t, s.Road().Settings().BaseSpeed)
}

func TestSessionStreetTap(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = config.SceneStreet
	s := New(cfg, Options{})
	s.Resize(800, 600)
	require.NotNil(t, s.Street())
	assert.Nil(t, s.Mesh())

	var started []locomotion.Event
	s.Bus.Subscribe(locomotion.EventMoveStarted, func(e locomotion.Event) { started = append(started, e) })

	d := newSessionDriver(s)
	d.step(at(0, 400, 500))
	d.step()
	require.Len(t, started, 1)
	target := started[0].Position
	assert.Greater(t, target.Z(), 0.0, "lower screen centre hits the ground ahead")
	assert.InDelta(t, 0.0, target.X(), 1e-9)

	for range 80 {
		d.step()
	}
	assert.InDelta(t, target.Z(), s.Street().Position().Z(), 1e-9)
	assert.InDelta(t, cfg.Movement.EyeHeight, s.Pose().Position.Y(), 1e-12)
}

func TestSessionStreetModeCycle(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = config.SceneStreet
	s := New(cfg, Options{})
	want := []locomotion.Mode{
		locomotion.ModeLookAround,
		locomotion.ModePaddle,
		locomotion.ModeGazeDrag,
		locomotion.ModeDragWalk,
	}
	for _, m := range want {
		s.Apply(ActionToggleMode)
		assert.Equal(t, m, s.Mode())
		assert.Equal(t, m, s.Street().Settings().Mode)
	}

	spl := New(config.Default(), Options{})
	spl.Apply(ActionToggleMode)
	spl.Apply(ActionToggleMode)
	assert.Equal(t, locomotion.ModeDragWalk, spl.Mode(), "the spline only has two schemes")
}

func TestSessionClampsFrame(t *testing.T) {
	s := New(config.Default(), Options{})
	s.Step(5, locomotion.Input{})
	assert.InDelta(t, MaxFrame, s.Clock(), 1e-12)
	s.Step(-1, locomotion.Input{})
	assert.InDelta(t, MaxFrame, s.Clock(), 1e-12)
}

func TestSessionModeSwitchRestartsRoad(t *testing.T) {
	s := New(config.Default(), Options{})
	s.SetMode(locomotion.ModeLookAround)
	assert.Equal(t, spline.Main, s.Road().State().Branch)
	assert.Equal(t, locomotion.ModeLookAround, s.Road().Settings().Mode)
	assert.Contains(t, s.Status(), "look")
}

func TestMarkers(t *testing.T) {
	s := New(config.Default(), Options{})
	buf := s.Markers(nil)
	require.Len(t, buf, 2*MarkerStride)
	assert.Equal(t, ColorAvatar[0], buf[4])
	assert.InDelta(t, s.Network().ForkPosition.Z(), float64(buf[MarkerStride+2]), 1e-5)

	cfg := config.Default()
	cfg.Scene = config.SceneStreet
	st := New(cfg, Options{})
	st.Resize(800, 600)
	assert.Empty(t, st.Markers(buf), "no cursor before a touch")

	d := newSessionDriver(st)
	d.step(at(0, 400, 500))
	buf = st.Markers(buf)
	require.Len(t, buf, MarkerStride, "cursor only")
	assert.Equal(t, ColorCursor[1], buf[5])

	d.step()
	buf = st.Markers(buf)
	require.Len(t, buf, MarkerStride, "target only while moving")
	assert.Equal(t, ColorAvatar[0], buf[4])
}

func TestHUDQuadsAndLabels(t *testing.T) {
	h := NewHUD()
	q := h.Quads(nil)
	assert.Len(t, q, len(h.Buttons)*6*QuadStride)
	texts, at := h.Labels()
	assert.Equal(t, []string{"SLOWER", "FASTER", "MODE", "DEBUG"}, texts)
	assert.True(t, h.Buttons[0].Contains(at[0]))
}

func TestGroundFollowsPose(t *testing.T) {
	s := New(config.Default(), Options{})
	g := s.GroundVertices(50)
	require.Len(t, g, 18)
	assert.Equal(t, float32(-50), g[0])
	assert.Equal(t, float32(50), g[3])
}

func TestSessionSharesInjectedPanel(t *testing.T) {
	p := &telemetry.Panel{}
	s := New(config.Default(), Options{Panel: p})
	require.Same(t, p, s.Panel)
	s.Apply(ActionToggleDebug)
	assert.True(t, p.Active())
	assert.Greater(t, len(s.Overlay()), 1)
}
