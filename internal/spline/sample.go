package spline

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// forwardProbe is the look-ahead used to estimate the tangent by secant.
const forwardProbe = 0.1

// Path returns the branch data. The returned path must not be modified.
func (n *Network) Path(b Branch) *Path {
	if b < Main || b > Left {
		b = Main
	}
	return &n.paths[b]
}

// Length returns the arc length of branch b.
func (n *Network) Length(b Branch) float64 {
	return n.Path(b).Length()
}

// MainLength is shorthand for the distance from the origin to the fork.
func (n *Network) MainLength() float64 { return n.ForkDistance }

// SamplePosition returns the point at arc length d along b. Distances outside
// [0, Length(b)] return the nearest endpoint.
func (n *Network) SamplePosition(b Branch, d float64) mgl64.Vec3 {
	return n.Path(b).At(d)
}

// SampleForward returns the unit tangent at d, falling back to the branch
// heading where the secant degenerates (the end of the path).
func (n *Network) SampleForward(b Branch, d float64) mgl64.Vec3 {
	p := n.Path(b)
	a := p.At(d)
	c := p.At(d + forwardProbe)
	dir := c.Sub(a)
	if dir.LenSqr() < 1e-12 {
		return p.Heading
	}
	return dir.Normalize()
}

// SampleRight returns cross(up, forward) at d, or the network reference right
// when forward is parallel to up.
func (n *Network) SampleRight(b Branch, d float64) mgl64.Vec3 {
	r := Up.Cross(n.SampleForward(b, d))
	if r.LenSqr() < 0.001 {
		return n.Right
	}
	return r.Normalize()
}

// Progress maps (branch, distance) onto [0,1] over main plus the branch the
// traveller is on or heading into. On Main the straight branch is assumed.
func (n *Network) Progress(b Branch, d float64) float64 {
	tail := n.Length(Straight)
	if b == Left {
		tail = n.Length(Left)
	}
	total := n.MainLength() + tail
	if total <= 0 {
		return 0
	}
	travelled := mgl64.Clamp(d, 0, n.Length(b))
	if b != Main {
		travelled += n.MainLength()
	}
	return travelled / total
}

// At interpolates the point at arc length d. The search finds the first
// index whose cumulative distance reaches d, which is what a forward linear
// scan over Dists would return.
func (p *Path) At(d float64) mgl64.Vec3 {
	last := len(p.Points) - 1
	if d <= 0 {
		return p.Points[0]
	}
	if d >= p.Dists[last] {
		return p.Points[last]
	}

	i := sort.SearchFloat64s(p.Dists, d)
	if i == 0 {
		return p.Points[0]
	}
	span := p.Dists[i] - p.Dists[i-1]
	if span <= 0 {
		return p.Points[i]
	}
	t := (d - p.Dists[i-1]) / span
	a, b := p.Points[i-1], p.Points[i]
	return a.Add(b.Sub(a).Mul(t))
}
