package locomotion

import "github.com/go-gl/mathgl/mgl64"

// Moves are plain state polled once per tick. Starting a move overwrites the
// previous one, so a replaced or cancelled move can never act again.

// arcMove covers a fixed arc length along the spline at constant speed.
type arcMove struct {
	active    bool
	remaining float64
	speed     float64
}

func (m *arcMove) start(distance, duration float64) {
	*m = arcMove{active: distance > 0, remaining: distance, speed: distance / max(0.1, duration)}
}

// step returns the distance to advance this tick.
func (m *arcMove) step(dt float64) float64 {
	if !m.active {
		return 0
	}
	d := min(m.speed*dt, m.remaining)
	m.remaining -= d
	if m.remaining <= 1e-9 {
		m.active = false
	}
	return d
}

func (m *arcMove) cancel() bool {
	was := m.active
	m.active = false
	return was
}

// worldMove walks towards a world-space target at constant speed.
type worldMove struct {
	active bool
	target mgl64.Vec3
	speed  float64
}

func (m *worldMove) start(from, to mgl64.Vec3, duration float64) {
	*m = worldMove{active: true, target: to, speed: to.Sub(from).Len() / max(0.1, duration)}
}

// step advances pos and reports arrival. Arrival snaps onto the target.
func (m *worldMove) step(pos mgl64.Vec3, dt, arrive float64) (mgl64.Vec3, bool) {
	if !m.active {
		return pos, false
	}
	pos = moveTowards(pos, m.target, m.speed*dt)
	if pos.Sub(m.target).Len() <= arrive {
		m.active = false
		return m.target, true
	}
	return pos, false
}

func (m *worldMove) cancel() bool {
	was := m.active
	m.active = false
	return was
}

func moveTowards(cur, target mgl64.Vec3, maxStep float64) mgl64.Vec3 {
	d := target.Sub(cur)
	dist := d.Len()
	if dist <= maxStep || dist == 0 {
		return target
	}
	return cur.Add(d.Mul(maxStep / dist))
}
