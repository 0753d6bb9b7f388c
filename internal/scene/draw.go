package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/roadmesh"
)

// RGBA is a linear colour with alpha.
type RGBA [4]float32

var (
	ColorRoadMain = RGBA{0.32, 0.33, 0.36, 1}
	ColorRoadLeft = RGBA{0.38, 0.30, 0.26, 1}
	ColorGround   = RGBA{0.16, 0.24, 0.15, 1}
	ColorSky      = RGBA{0.52, 0.68, 0.86, 1}
	ColorAvatar   = RGBA{1.0, 0.78, 0.20, 1}
	ColorFork     = RGBA{0.30, 0.80, 1.0, 0.8}
	ColorCursor   = RGBA{0.35, 1.0, 0.45, 0.9}
	ColorMiss     = RGBA{1.0, 0.35, 0.30, 0.9}
	ColorButton   = RGBA{0.05, 0.05, 0.08, 0.55}
)

// GroupColor is the material colour of a road index group.
func GroupColor(g roadmesh.Group) RGBA {
	if g == roadmesh.GroupLeft {
		return ColorRoadLeft
	}
	return ColorRoadMain
}

// MarkerStride is the float count per marker: x, y, z, size, r, g, b, a.
const MarkerStride = 8

func appendMarker(buf []float32, p mgl64.Vec3, size float32, c RGBA) []float32 {
	return append(buf, float32(p[0]), float32(p[1]), float32(p[2]), size, c[0], c[1], c[2], c[3])
}

// Markers appends the world-space point markers for this frame: the
// entity and the fork on spline scenes, the cursor and the move target on
// street scenes.
func (s *Session) Markers(buf []float32) []float32 {
	buf = buf[:0]
	if s.road != nil {
		buf = appendMarker(buf, s.pose.Position.Add(mgl64.Vec3{0, 0.3, 0}), 28, ColorAvatar)
		buf = appendMarker(buf, s.net.ForkPosition.Add(mgl64.Vec3{0, 0.05, 0}), 16, ColorFork)
		return buf
	}
	if c, ok := s.Cursor(); ok && c.Visible {
		col := ColorCursor
		if !c.Hit {
			col = ColorMiss
		}
		buf = appendMarker(buf, c.Point.Add(mgl64.Vec3{0, 0.02, 0}), 22, col)
	}
	if s.hasTarget {
		buf = appendMarker(buf, s.target.Add(mgl64.Vec3{0, 0.02, 0}), 18, ColorAvatar)
	}
	return buf
}

// GroundVertices is a square of half-size h centred under the pose, as two
// triangles of x, y, z.
func (s *Session) GroundVertices(h float64) []float32 {
	c := s.pose.Position
	y := float32(-0.01)
	x0, x1 := float32(c.X()-h), float32(c.X()+h)
	z0, z1 := float32(c.Z()-h), float32(c.Z()+h)
	return []float32{
		x0, y, z0, x1, y, z0, x0, y, z1,
		x1, y, z0, x1, y, z1, x0, y, z1,
	}
}

// QuadStride is the float count per screen vertex: x, y, r, g, b, a.
const QuadStride = 6

func appendRect(buf []float32, r Rect, c RGBA) []float32 {
	v := func(x, y float64) []float32 {
		return []float32{float32(x), float32(y), c[0], c[1], c[2], c[3]}
	}
	buf = append(buf, v(r.X0, r.Y0)...)
	buf = append(buf, v(r.X1, r.Y0)...)
	buf = append(buf, v(r.X0, r.Y1)...)
	buf = append(buf, v(r.X1, r.Y0)...)
	buf = append(buf, v(r.X1, r.Y1)...)
	buf = append(buf, v(r.X0, r.Y1)...)
	return buf
}

// Quads appends the button backgrounds in y-down pixels.
func (h *HUD) Quads(buf []float32) []float32 {
	buf = buf[:0]
	for _, b := range h.Buttons {
		buf = appendRect(buf, b.Rect, ColorButton)
	}
	return buf
}

// Labels returns each button label with its top-left pixel position.
func (h *HUD) Labels() ([]string, []mgl64.Vec2) {
	texts := make([]string, len(h.Buttons))
	at := make([]mgl64.Vec2, len(h.Buttons))
	for i, b := range h.Buttons {
		texts[i] = b.Label
		at[i] = mgl64.Vec2{b.X0 + 6, b.Y0 + 10}
	}
	return texts, at
}
