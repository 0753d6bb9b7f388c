package locomotion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locomotion/internal/gesture"
)

// fixedCamera returns the same ray for every screen point.
type fixedCamera struct {
	dir mgl64.Vec3
}

func (f fixedCamera) ScreenRay(_ mgl64.Vec2, eye Transform) (mgl64.Vec3, mgl64.Vec3) {
	return eye.Position, f.dir
}

func newStreet(mode Mode, cam Camera) *StreetController {
	s := DefaultStreetSettings()
	s.Mode = mode
	return NewStreet(mgl64.Vec3{}, s, gesture.DefaultThresholds(), StreetDeps{
		Camera:    cam,
		Raycaster: GroundPlane{},
	})
}

func tap(d *driver, x, y, t float64) {
	d.one(gesture.Began, x, y, t)
	d.one(gesture.Ended, x+2, y, t+0.05)
}

func TestGroundPlaneRaycast(t *testing.T) {
	g := GroundPlane{Height: 0}
	p, ok := g.Raycast(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -1, 1}, 100)
	require.True(t, ok)
	assert.InDelta(t, 2.0, p.Z(), 1e-12)
	assert.InDelta(t, 0.0, p.Y(), 1e-12)

	_, ok = g.Raycast(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 1, 1}, 100)
	assert.False(t, ok, "pointing up")
	_, ok = g.Raycast(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, -0.01, 1}, 10)
	assert.False(t, ok, "beyond max distance")
	_, ok = g.Raycast(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -1, 0}, 10)
	assert.False(t, ok, "behind the origin")
}

func TestStreetTapMovesToHit(t *testing.T) {
	eyeH := DefaultStreetSettings().EyeHeight
	c := newStreet(ModeDragWalk, fixedCamera{dir: mgl64.Vec3{0, -eyeH, 4}})
	d := newDriver(c)
	tap(d, 100, 100, 0)

	require.Equal(t, 1, d.count(EventMoveStarted))
	assert.True(t, c.Moving())
	assert.False(t, c.Cursor().Visible, "cursor hides while moving")
	assert.True(t, c.Cursor().Hit)

	for range 70 {
		d.tick(frame)
	}
	assert.Equal(t, 1, d.count(EventMoveArrived))
	assert.False(t, c.Moving())
	assert.InDelta(t, 4.0, c.Position().Z(), 1e-9)
	assert.Equal(t, 0.0, c.Position().Y())
}

func TestStreetMoveTakesConstantDuration(t *testing.T) {
	eyeH := DefaultStreetSettings().EyeHeight
	for _, far := range []float64{2, 20} {
		c := newStreet(ModeDragWalk, fixedCamera{dir: mgl64.Vec3{0, -eyeH, far}})
		d := newDriver(c)
		tap(d, 100, 100, 0)
		ticks := 1
		for c.Moving() && ticks < 1000 {
			d.tick(frame)
			ticks++
		}
		assert.InDelta(t, 60, ticks, 4, "distance %v", far)
	}
}

func TestStreetMissMovesFixedDistance(t *testing.T) {
	c := newStreet(ModeDragWalk, fixedCamera{dir: mgl64.Vec3{3, 1, 0}})
	d := newDriver(c)
	tap(d, 100, 100, 0)
	require.Equal(t, 1, d.count(EventMoveStarted))
	var target mgl64.Vec3
	for _, e := range d.events {
		if e.Type == EventMoveStarted {
			target = e.Position
		}
	}
	assert.InDelta(t, 10.0, target.X(), 1e-9)
	assert.InDelta(t, 0.0, target.Y(), 1e-9)
	assert.False(t, c.Cursor().Hit)
}

func TestStreetWithoutCameraUsesForward(t *testing.T) {
	c := newStreet(ModeDragWalk, nil)
	d := newDriver(c)
	tap(d, 100, 100, 0)
	for range 70 {
		d.tick(frame)
	}
	assert.InDelta(t, 10.0, c.Position().Z(), 1e-9)
	assert.InDelta(t, 0.0, c.Position().X(), 1e-9)
}

func TestStreetDragIsNotTap(t *testing.T) {
	c := newStreet(ModeDragWalk, nil)
	d := newDriver(c)
	d.one(gesture.Began, 100, 100, 0)
	d.one(gesture.Moved, 160, 100, 0.1)
	d.one(gesture.Ended, 160, 100, 0.2)
	assert.Zero(t, d.count(EventMoveStarted))
	// One finger never turns in this mode.
	assert.Zero(t, c.Yaw())
}

func TestStreetTwoFingerRotate(t *testing.T) {
	c := newStreet(ModeDragWalk, nil)
	d := newDriver(c)
	d.tick(frame, d.touch(1, gesture.Began, 100, 500, 0), d.touch(2, gesture.Began, 300, 500, 0))
	d.tick(frame, d.touch(1, gesture.Moved, 105, 500, frame), d.touch(2, gesture.Moved, 305, 500, frame))
	assert.Zero(t, c.Yaw(), "inside the drag threshold")
	d.tick(frame, d.touch(1, gesture.Moved, 120, 500, 2*frame), d.touch(2, gesture.Moved, 320, 500, 2*frame))
	assert.InDelta(t, 20*5*0.05, c.Yaw(), 1e-12)
	d.tick(frame, d.touch(1, gesture.Moved, 120, 400, 3*frame), d.touch(2, gesture.Moved, 320, 400, 3*frame))
	assert.InDelta(t, -100*5*0.05, c.Pitch(), 1e-12)
}

func TestStreetInvertRotation(t *testing.T) {
	s := DefaultStreetSettings()
	s.InvertRotation = true
	s.Mode = ModeLookAround
	c := NewStreet(mgl64.Vec3{}, s, gesture.DefaultThresholds(), StreetDeps{})
	d := newDriver(c)
	d.one(gesture.Began, 100, 100, 0)
	d.one(gesture.Moved, 140, 100, frame)
	assert.InDelta(t, -40*5*0.05, c.Yaw(), 1e-12)
}

func TestStreetLookAroundDoubleTap(t *testing.T) {
	c := newStreet(ModeLookAround, nil)
	d := newDriver(c)
	tap(d, 100, 100, 0)
	assert.Zero(t, d.count(EventMoveStarted), "single tap only primes")
	tap(d, 100, 100, 0.2)
	assert.Equal(t, 1, d.count(EventMoveStarted))
	tap(d, 100, 100, 0.4)
	assert.Equal(t, 1, d.count(EventMoveStarted), "third tap primes again")
	assert.Equal(t, 1, d.count(EventMoveCanceled), "the third tap interrupts the move")
}

func TestStreetLookAroundIgnoresTwoFingers(t *testing.T) {
	c := newStreet(ModeLookAround, nil)
	d := newDriver(c)
	d.tick(frame, d.touch(1, gesture.Began, 100, 500, 0), d.touch(2, gesture.Began, 300, 500, 0))
	d.tick(frame, d.touch(1, gesture.Moved, 200, 500, frame), d.touch(2, gesture.Moved, 400, 500, frame))
	assert.Zero(t, c.Yaw())
}

func TestStreetEye(t *testing.T) {
	c := newStreet(ModeDragWalk, nil)
	assert.Equal(t, DefaultStreetSettings().EyeHeight, c.Eye().Position.Y())
}

// wall is a vertical plane facing the walker at Z.
type wall struct {
	z float64
}

func (w wall) Raycast(origin, dir mgl64.Vec3, maxDist float64) (mgl64.Vec3, bool) {
	if dir.Z() <= 1e-9 {
		return mgl64.Vec3{}, false
	}
	t := (w.z - origin.Z()) / dir.Z()
	if t < 0 || t*dir.Len() > maxDist {
		return mgl64.Vec3{}, false
	}
	return origin.Add(dir.Mul(t)), true
}

func newWalker(mode Mode, rc Raycaster) *StreetController {
	s := DefaultStreetSettings()
	s.Mode = mode
	return NewStreet(mgl64.Vec3{}, s, gesture.DefaultThresholds(), StreetDeps{Raycaster: rc})
}

func TestPaddleSpeedFollowsDragLength(t *testing.T) {
	c := newWalker(ModePaddle, wall{z: 20})
	c.screenH = 1600
	assert.InDelta(t, 5.0, c.paddleSpeed(0), 1e-12)
	assert.InDelta(t, 10.0, c.paddleSpeed(400), 1e-12)
	assert.InDelta(t, 10.0, c.paddleSpeed(-400), 1e-12)
	assert.InDelta(t, 15.0, c.paddleSpeed(800), 1e-12)
	assert.InDelta(t, 15.0, c.paddleSpeed(1600), 1e-12, "clamped at half the screen")

	c.screenH = 0
	assert.InDelta(t, 5.0, c.paddleSpeed(400), 1e-12)
}

func TestPaddleDragDownWalksTowardsGaze(t *testing.T) {
	c := newWalker(ModePaddle, wall{z: 20})
	d := newDriver(c)
	d.one(gesture.Began, 450, 400, 0)
	// A quarter of the screen: speed 10 towards the halfway point.
	d.one(gesture.Moved, 450, 800, frame)
	assert.InDelta(t, 10*frame, c.Position().Z(), 1e-9)
	assert.InDelta(t, 0.0, c.Position().X(), 1e-9)

	for i := range 120 {
		d.one(gesture.Stationary, 450, 800, float64(i+2)*frame)
	}
	assert.InDelta(t, 10.0, c.Position().Z(), 1e-9, "stops at the drag fraction of the reach")
	assert.Equal(t, 0.0, c.Position().Y())
}

func TestPaddleDragUpBacksAway(t *testing.T) {
	c := newWalker(ModePaddle, wall{z: 20})
	d := newDriver(c)
	d.one(gesture.Began, 450, 800, 0)
	d.one(gesture.Moved, 450, 400, frame)
	assert.InDelta(t, -10*frame, c.Position().Z(), 1e-9)
	d.one(gesture.Moved, 450, 0, 2*frame)
	assert.InDelta(t, -10*frame-15*frame, c.Position().Z(), 1e-9)
}

func TestPaddleIgnoresSidewaysDrag(t *testing.T) {
	c := newWalker(ModePaddle, wall{z: 20})
	d := newDriver(c)
	d.one(gesture.Began, 450, 800, 0)
	d.one(gesture.Moved, 600, 850, 0.3)
	d.one(gesture.Moved, 750, 850, 0.6)
	d.one(gesture.Ended, 750, 850, 0.9)
	assert.Equal(t, mgl64.Vec3{}, c.Position())
	assert.Zero(t, d.count(EventSwipe), "too slow to strafe")
}

func TestPaddleSwipeStrafes(t *testing.T) {
	c := newWalker(ModePaddle, wall{z: 20})
	d := newDriver(c)
	d.one(gesture.Began, 200, 800, 0)
	d.one(gesture.Moved, 400, 800, 0.05)
	d.one(gesture.Ended, 500, 800, 0.1)
	require.Equal(t, 1, d.count(EventSwipe))
	assert.InDelta(t, 0.6, c.Position().X(), 1e-9)
	assert.InDelta(t, 0.0, c.Position().Z(), 1e-9)

	d.one(gesture.Began, 500, 800, 1)
	d.one(gesture.Ended, 200, 800, 1.1)
	assert.Equal(t, 2, d.count(EventSwipe))
	assert.InDelta(t, 0.0, c.Position().X(), 1e-9)
}

func TestPaddleTwoFingersTurn(t *testing.T) {
	c := newWalker(ModePaddle, nil)
	d := newDriver(c)
	d.tick(frame, d.touch(1, gesture.Began, 100, 500, 0), d.touch(2, gesture.Began, 300, 500, 0))
	d.tick(frame, d.touch(1, gesture.Moved, 120, 500, frame), d.touch(2, gesture.Moved, 320, 500, frame))
	assert.InDelta(t, 20*5*0.05, c.Yaw(), 1e-12)
}

func TestGazeDragMapsScreenToRay(t *testing.T) {
	c := newWalker(ModeGazeDrag, wall{z: 20})
	d := newDriver(c)
	reach := 20 - DefaultStreetSettings().StopBeforeEnd

	d.one(gesture.Began, 450, 0, 0)
	assert.Equal(t, mgl64.Vec3{}, c.Position(), "nothing happens on touch down")
	d.one(gesture.Moved, 450, 800, frame)
	assert.InDelta(t, reach*0.5, c.Position().Z(), 1e-9)
	d.one(gesture.Moved, 450, 1600, 2*frame)
	assert.InDelta(t, reach, c.Position().Z(), 1e-9)
	d.one(gesture.Moved, 450, 400, 3*frame)
	assert.InDelta(t, reach*0.25, c.Position().Z(), 1e-9, "reach stays latched after walking")
	assert.Equal(t, 0.0, c.Position().Y())
	d.one(gesture.Ended, 450, 400, 4*frame)

	// The next stroke measures from where the last one left off.
	d.one(gesture.Began, 450, 0, 1)
	d.one(gesture.Moved, 450, 1600, 1+frame)
	assert.InDelta(t, reach, c.Position().Z(), 1e-9, "stops short of the wall again")
}

func TestGazeDragNeedsHit(t *testing.T) {
	c := newWalker(ModeGazeDrag, GroundPlane{})
	d := newDriver(c)
	d.one(gesture.Began, 450, 0, 0)
	d.one(gesture.Moved, 450, 1600, frame)
	assert.Equal(t, mgl64.Vec3{}, c.Position(), "level gaze never meets the ground")
}
