package locomotion

import (
	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
	"locomotion/internal/spline"
)

type EventType int

const (
	EventLaneChanged EventType = iota
	EventBranchChanged
	EventMoveStarted
	EventMoveArrived
	EventMoveCanceled
	EventSwipe
)

func (t EventType) String() string {
	switch t {
	case EventLaneChanged:
		return "LaneChanged"
	case EventBranchChanged:
		return "BranchChanged"
	case EventMoveStarted:
		return "MoveStarted"
	case EventMoveArrived:
		return "MoveArrived"
	case EventMoveCanceled:
		return "MoveCanceled"
	case EventSwipe:
		return "Swipe"
	}
	return "Unknown"
}

// Event is something discrete that happened during a tick.
type Event struct {
	Type      EventType
	Lane      int
	Branch    spline.Branch
	Direction int        // swipe direction, +1 right
	Position  mgl64.Vec3 // where it happened, or the move target
}

// Input is one frame of raw touches.
type Input struct {
	Touches      []gesture.Touch
	DPI          float64
	ScreenWidth  float64
	ScreenHeight float64
}

func (in Input) frame() gesture.Frame {
	return gesture.Frame{Touches: in.Touches, DPI: in.DPI, ScreenWidth: in.ScreenWidth}
}

// Transform is the pose written to the rendering side once per tick. Pitch
// belongs to the camera, not the body, so it is kept out of Rotation.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Pitch    float64 // degrees, positive looks down
}

// Forward is the body's facing direction.
func (t Transform) Forward() mgl64.Vec3 {
	return t.Rotation.Rotate(mgl64.Vec3{0, 0, 1})
}

// View returns the look direction including pitch.
func (t Transform) View() mgl64.Vec3 {
	pitch := mgl64.QuatRotate(mgl64.DegToRad(t.Pitch), mgl64.Vec3{1, 0, 0})
	return t.Rotation.Mul(pitch).Rotate(mgl64.Vec3{0, 0, 1})
}

// lookRotation maps +Z onto forward and +Y as close to up as possible.
func lookRotation(forward, up mgl64.Vec3) mgl64.Quat {
	if forward.LenSqr() < 1e-12 {
		return mgl64.QuatIdent()
	}
	f := forward.Normalize()
	r := up.Cross(f)
	if r.LenSqr() < 1e-12 {
		return mgl64.QuatIdent()
	}
	r = r.Normalize()
	u := f.Cross(r)
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(r, u, f).Mat4())
}

// yawRotation turns about world up; positive degrees turn right.
func yawRotation(deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), spline.Up)
}

// turner applies screen-space drags as yaw and pitch.
type turner struct {
	speed    float64
	invert   bool
	pitch    bool
	pitchMin float64
	pitchMax float64
}

const dragToDegrees = 0.05

func (t turner) apply(d mgl64.Vec2, yaw, pitch *float64) {
	sign := 1.0
	if t.invert {
		sign = -1
	}
	*yaw += d.X() * t.speed * dragToDegrees * sign
	if t.pitch {
		*pitch = mgl64.Clamp(*pitch+d.Y()*t.speed*dragToDegrees, t.pitchMin, t.pitchMax)
	}
}
