package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/locomotion"
	"locomotion/internal/spline"
)

// Camera follows the locomotion pose and maps screen points back to world
// rays. World space is left-handed (+X is right of +Z), so views mirror X
// into GL's right-handed eye space.
type Camera struct {
	FovY      float64 // degrees
	Near, Far float64
	Width     float64 // framebuffer pixels
	Height    float64

	Back      float64 // chase distance behind the body, 0 for first person
	Rise      float64 // chase height above the body
	LookAhead float64
	Stiffness float64 // 1/s, 0 snaps

	Eye    mgl64.Vec3
	Target mgl64.Vec3
	primed bool
}

func NewChaseCamera() *Camera {
	return &Camera{FovY: 60, Near: 0.05, Far: 500, Width: 800, Height: 600,
		Back: 6, Rise: 3, LookAhead: 4, Stiffness: 6}
}

func NewFirstPersonCamera() *Camera {
	return &Camera{FovY: 70, Near: 0.05, Far: 500, Width: 800, Height: 600,
		LookAhead: 1}
}

func (c *Camera) Resize(w, h int) {
	if w > 0 && h > 0 {
		c.Width, c.Height = float64(w), float64(h)
	}
}

func (c *Camera) Aspect() float64 {
	if c.Height <= 0 {
		return 1
	}
	return c.Width / c.Height
}

// Follow moves the camera towards the pose. The first call snaps.
func (c *Camera) Follow(t locomotion.Transform, dt float64) {
	look := t.View()
	eye := t.Position
	if c.Back > 0 {
		eye = eye.Sub(t.Forward().Mul(c.Back)).Add(spline.Up.Mul(c.Rise))
	}
	target := t.Position.Add(look.Mul(c.LookAhead))

	if !c.primed || c.Stiffness <= 0 {
		c.Eye, c.Target, c.primed = eye, target, true
		return
	}
	k := 1 - math.Exp(-c.Stiffness*dt)
	c.Eye = c.Eye.Add(eye.Sub(c.Eye).Mul(k))
	c.Target = c.Target.Add(target.Sub(c.Target).Mul(k))
}

// Snap drops any smoothing state so the next Follow jumps to the pose.
func (c *Camera) Snap() { c.primed = false }

func lookAt(eye, target mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Scale3D(-1, 1, 1).Mul4(mgl64.LookAtV(eye, target, spline.Up))
}

func (c *Camera) View() mgl64.Mat4 { return lookAt(c.Eye, c.Target) }

func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect(), c.Near, c.Far)
}

// ViewProjection is what the renderers upload.
func (c *Camera) ViewProjection() mgl64.Mat4 { return c.Projection().Mul4(c.View()) }

// ScreenRay casts through a y-down pixel position as seen from eye.
func (c *Camera) ScreenRay(screen mgl64.Vec2, eye locomotion.Transform) (origin, dir mgl64.Vec3) {
	view := lookAt(eye.Position, eye.Position.Add(eye.View()))
	inv := c.Projection().Mul4(view).Inv()
	x := 2*screen.X()/c.Width - 1
	y := 1 - 2*screen.Y()/c.Height
	near := mgl64.TransformCoordinate(mgl64.Vec3{x, y, -1}, inv)
	far := mgl64.TransformCoordinate(mgl64.Vec3{x, y, 1}, inv)
	d := far.Sub(near)
	if d.LenSqr() < 1e-18 {
		return eye.Position, eye.View()
	}
	return eye.Position, d.Normalize()
}

var _ locomotion.Camera = (*Camera)(nil)
