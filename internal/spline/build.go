// Package spline builds the forked road used for lane locomotion and answers
// position/orientation queries at an arc-length distance along one of its
// branches.
package spline

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Branch selects one of the three paths of a Network.
type Branch int

const (
	Main     Branch = iota // origin → fork
	Straight               // fork → straight ahead
	Left                   // fork → curved left
)

func (b Branch) String() string {
	switch b {
	case Main:
		return "Main"
	case Straight:
		return "Straight"
	case Left:
		return "Left"
	}
	return "Unknown"
}

// Up is the world up axis. Paths live in the plane it is normal to.
var Up = mgl64.Vec3{0, 1, 0}

// Construction floors. Inputs below these are raised rather than rejected so
// every branch always has at least three points.
const (
	MinLength       = 0.1
	MinForkRatio    = 0.1
	MaxForkRatio    = 0.9
	minStraightSegs = 2
	minCurveSegs    = 4
)

// Params describes the forked road.
type Params struct {
	Origin          mgl64.Vec3
	Direction       mgl64.Vec3
	TotalLength     float64 // main + straight
	ForkRatio       float64 // fraction of TotalLength before the fork
	LeftAngle       float64 // degrees, measured from Direction towards the left
	LeftLength      float64 // chord length of the left branch
	SegmentsPerUnit float64
}

// DefaultParams mirrors the scene the road was first tuned on.
func DefaultParams() Params {
	return Params{
		Direction:       mgl64.Vec3{0, 0, 1},
		TotalLength:     20,
		ForkRatio:       0.4,
		LeftAngle:       45,
		LeftLength:      12,
		SegmentsPerUnit: 3,
	}
}

// Path is one discretised branch. Dists[i] is the arc length from Points[0]
// to Points[i]; both slices have the same length and Dists is non-decreasing.
type Path struct {
	Points  []mgl64.Vec3
	Dists   []float64
	Heading mgl64.Vec3 // nominal construction direction
}

// Length returns the arc length of the whole path.
func (p *Path) Length() float64 {
	return p.Dists[len(p.Dists)-1]
}

// Network holds the three branches and the fork between them. It is
// immutable once built.
type Network struct {
	paths [3]Path

	Direction    mgl64.Vec3 // normalised construction direction
	Right        mgl64.Vec3 // reference right vector of the main road
	ForkDistance float64
	ForkPosition mgl64.Vec3
	ForkForward  mgl64.Vec3
}

// Build constructs main, straight and left branches from p.
func Build(p Params) *Network {
	p = sanitize(p)

	dir := p.Direction.Normalize()
	right := Up.Cross(dir)
	if right.LenSqr() < 0.001 {
		right = mgl64.Vec3{1, 0, 0}
	}
	right = right.Normalize()

	n := &Network{Direction: dir, Right: right}

	mainLen := p.TotalLength * p.ForkRatio
	n.paths[Main] = straightPath(p.Origin, dir, mainLen, p.SegmentsPerUnit)
	n.ForkDistance = n.paths[Main].Length()
	n.ForkPosition = n.paths[Main].Points[len(n.paths[Main].Points)-1]
	n.ForkForward = dir

	n.paths[Straight] = straightPath(n.ForkPosition, dir, p.TotalLength-mainLen, p.SegmentsPerUnit)

	leftDir := mgl64.QuatRotate(mgl64.DegToRad(-p.LeftAngle), Up).Rotate(dir)
	end := n.ForkPosition.Add(leftDir.Mul(p.LeftLength))
	bisector := dir.Add(leftDir)
	if bisector.LenSqr() < 1e-9 {
		// 180° fork: bend through the left side instead of folding back.
		bisector = right.Mul(-1)
	}
	ctrl := n.ForkPosition.Add(bisector.Normalize().Mul(p.LeftLength * 0.5))
	n.paths[Left] = bezierPath(n.ForkPosition, ctrl, end, p.SegmentsPerUnit)
	n.paths[Left].Heading = leftDir

	return n
}

func sanitize(p Params) Params {
	if p.Direction.LenSqr() < 1e-12 {
		p.Direction = mgl64.Vec3{0, 0, 1}
	}
	if !(p.TotalLength >= MinLength) {
		p.TotalLength = MinLength
	}
	if !(p.LeftLength >= MinLength) {
		p.LeftLength = MinLength
	}
	p.ForkRatio = mgl64.Clamp(p.ForkRatio, MinForkRatio, MaxForkRatio)
	if !(p.SegmentsPerUnit > 0) {
		p.SegmentsPerUnit = 1
	}
	return p
}

// straightPath extrudes start along dir. The last point and distance are set
// exactly so Length() equals length with no accumulated rounding.
func straightPath(start, dir mgl64.Vec3, length, perUnit float64) Path {
	if length < MinLength {
		length = MinLength
	}
	segs := max(minStraightSegs, int(math.Round(length*perUnit)))
	count := segs + 1
	pts := make([]mgl64.Vec3, count)
	dists := make([]float64, count)

	step := length / float64(segs)
	pts[0] = start
	for i := 1; i < segs; i++ {
		d := step * float64(i)
		pts[i] = start.Add(dir.Mul(d))
		dists[i] = d
	}
	pts[segs] = start.Add(dir.Mul(length))
	dists[segs] = length

	return Path{Points: pts, Dists: dists, Heading: dir}
}

// bezierPath samples the quadratic curve p0→p2 with control p1. The segment
// count comes from the control polygon length; Dists is the polyline length.
func bezierPath(p0, p1, p2 mgl64.Vec3, perUnit float64) Path {
	approx := p0.Sub(p1).Len() + p1.Sub(p2).Len()
	segs := max(minCurveSegs, int(math.Round(approx*perUnit)))
	count := segs + 1
	pts := make([]mgl64.Vec3, count)
	dists := make([]float64, count)

	pts[0] = p0
	for i := 1; i < count; i++ {
		t := float64(i) / float64(segs)
		u := 1 - t
		pts[i] = p0.Mul(u * u).Add(p1.Mul(2 * u * t)).Add(p2.Mul(t * t))
		dists[i] = dists[i-1] + pts[i].Sub(pts[i-1]).Len()
	}

	heading := p2.Sub(p1)
	if heading.LenSqr() < 1e-12 {
		heading = p2.Sub(p0)
	}
	return Path{Points: pts, Dists: dists, Heading: heading.Normalize()}
}
