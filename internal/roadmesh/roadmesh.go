// Package roadmesh turns spline branches into a flat ribbon mesh with two
// index groups, one per road material.
package roadmesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/spline"
)

// Group identifies an index range that shares a material.
type Group int

const (
	GroupMain Group = iota // main + straight branches
	GroupLeft              // left branch
	GroupCount
)

// RightFunc returns the right vector for cross-section i of pts.
type RightFunc func(pts []mgl64.Vec3, i int) mgl64.Vec3

// ConstantRight is used where the branch direction never changes.
func ConstantRight(right mgl64.Vec3) RightFunc {
	return func([]mgl64.Vec3, int) mgl64.Vec3 { return right }
}

// PerPointFrame recomputes cross(up, forward) at every point so a curved
// ribbon keeps its width instead of twisting. fallback is used where the
// local forward is vertical or zero.
func PerPointFrame(fallback mgl64.Vec3) RightFunc {
	return func(pts []mgl64.Vec3, i int) mgl64.Vec3 {
		var fwd mgl64.Vec3
		if i < len(pts)-1 {
			fwd = pts[i+1].Sub(pts[i])
		} else {
			fwd = pts[i].Sub(pts[i-1])
		}
		r := spline.Up.Cross(fwd)
		if r.LenSqr() < 1e-12 {
			return fallback
		}
		return r.Normalize()
	}
}

// Strip is a single ribbon with indices relative to its own vertices.
type Strip struct {
	Vertices []mgl64.Vec3
	UVs      []mgl64.Vec2
	Indices  []uint32
}

// BuildStrip emits two vertices per point (left edge, right edge) and two
// triangles per consecutive pair of cross-sections, wound (bl,tl,br) and
// (br,tl,tr). V runs 0..1 by point index, U is 0 on the left edge and 1 on
// the right edge.
func BuildStrip(pts []mgl64.Vec3, right RightFunc, width float64) Strip {
	count := len(pts)
	if count < 2 {
		return Strip{}
	}
	hw := width * 0.5
	s := Strip{
		Vertices: make([]mgl64.Vec3, 0, count*2),
		UVs:      make([]mgl64.Vec2, 0, count*2),
		Indices:  make([]uint32, 0, (count-1)*6),
	}

	for i, p := range pts {
		r := right(pts, i).Mul(hw)
		s.Vertices = append(s.Vertices, p.Sub(r), p.Add(r))

		v := float64(i) / float64(count-1)
		s.UVs = append(s.UVs, mgl64.Vec2{0, v}, mgl64.Vec2{1, v})
	}

	for i := 0; i < count-1; i++ {
		bl := uint32(i * 2)
		br := bl + 1
		tl := uint32((i + 1) * 2)
		tr := tl + 1
		s.Indices = append(s.Indices, bl, tl, br, br, tl, tr)
	}
	return s
}

// Mesh is the combined road: shared vertex arrays plus per-group indices.
type Mesh struct {
	Vertices []mgl64.Vec3
	UVs      []mgl64.Vec2
	Groups   [GroupCount][]uint32
}

// Append adds s to the mesh, rebasing its indices onto the shared arrays.
func (m *Mesh) Append(s Strip, g Group) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, s.Vertices...)
	m.UVs = append(m.UVs, s.UVs...)
	for _, idx := range s.Indices {
		m.Groups[g] = append(m.Groups[g], base+idx)
	}
}

// Build creates the road mesh for every branch of n.
func Build(n *spline.Network, width float64) *Mesh {
	if width <= 0 {
		width = 1
	}
	m := &Mesh{}
	straight := ConstantRight(n.Right)
	m.Append(BuildStrip(n.Path(spline.Main).Points, straight, width), GroupMain)
	m.Append(BuildStrip(n.Path(spline.Straight).Points, straight, width), GroupMain)
	m.Append(BuildStrip(n.Path(spline.Left).Points, PerPointFrame(n.Right), width), GroupLeft)
	return m
}

// VertexStride is the number of float32 values per interleaved vertex.
const VertexStride = 5

// Interleave packs x,y,z,u,v per vertex for GPU upload.
func (m *Mesh) Interleave() []float32 {
	out := make([]float32, 0, len(m.Vertices)*VertexStride)
	for i, v := range m.Vertices {
		uv := m.UVs[i]
		out = append(out, float32(v[0]), float32(v[1]), float32(v[2]), float32(uv[0]), float32(uv[1]))
	}
	return out
}

// Indices returns all groups concatenated along with each group's offset and
// count into the combined slice, for a single element buffer.
func (m *Mesh) Indices() ([]uint32, [GroupCount][2]int) {
	var ranges [GroupCount][2]int
	var all []uint32
	for g := range GroupCount {
		ranges[g] = [2]int{len(all), len(m.Groups[g])}
		all = append(all, m.Groups[g]...)
	}
	return all, ranges
}

// Bounds returns the axis-aligned box around every vertex.
func (m *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range m.Vertices {
		for k := range 3 {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi
}
