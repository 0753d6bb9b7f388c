package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
)

// Contact is one finger a platform reports as down this frame.
type Contact struct {
	ID       int
	Position mgl64.Vec2
}

type finger struct {
	pos  mgl64.Vec2
	taps int
}

// Pointer turns per-frame sets of down contacts into phased touches, the
// way a touch screen reports them. Desktop input synthesises contacts from
// mouse buttons.
type Pointer struct {
	TapInterval float64
	TapPixels   float64

	down    map[int]*finger
	lastEnd float64
	lastPos mgl64.Vec2
	lastTap int
}

func NewPointer(th gesture.Thresholds) *Pointer {
	return &Pointer{
		TapInterval: th.DoubleTapInterval,
		TapPixels:   th.TapPixels,
		down:        make(map[int]*finger),
		lastEnd:     -1,
	}
}

// Update diffs contacts against the previous frame. Touches are ordered by
// ID so the first finger stays first.
func (p *Pointer) Update(t float64, contacts []Contact) []gesture.Touch {
	var out []gesture.Touch
	seen := make(map[int]bool, len(contacts))
	for _, c := range contacts {
		seen[c.ID] = true
		f, ok := p.down[c.ID]
		if !ok {
			taps := 1
			if p.lastEnd >= 0 && t-p.lastEnd <= p.TapInterval && c.Position.Sub(p.lastPos).Len() <= p.TapPixels {
				taps = p.lastTap + 1
			}
			p.down[c.ID] = &finger{pos: c.Position, taps: taps}
			out = append(out, gesture.Touch{ID: c.ID, Position: c.Position, Phase: gesture.Began, TapCount: taps, Time: t})
			continue
		}
		d := c.Position.Sub(f.pos)
		phase := gesture.Moved
		if d.LenSqr() == 0 {
			phase = gesture.Stationary
		}
		f.pos = c.Position
		out = append(out, gesture.Touch{ID: c.ID, Position: c.Position, Delta: d, Phase: phase, TapCount: f.taps, Time: t})
	}
	for id, f := range p.down {
		if seen[id] {
			continue
		}
		out = append(out, gesture.Touch{ID: id, Position: f.pos, Phase: gesture.Ended, TapCount: f.taps, Time: t})
		p.lastEnd, p.lastPos, p.lastTap = t, f.pos, f.taps
		delete(p.down, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cancel ends every finger with Canceled, e.g. when the window loses focus.
func (p *Pointer) Cancel(t float64) []gesture.Touch {
	var out []gesture.Touch
	for id, f := range p.down {
		out = append(out, gesture.Touch{ID: id, Position: f.pos, Phase: gesture.Canceled, TapCount: f.taps, Time: t})
		delete(p.down, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Down reports how many fingers are held.
func (p *Pointer) Down() int { return len(p.down) }
