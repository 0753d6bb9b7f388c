package gesture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// timeEps absorbs float noise when frame times sum to exactly a threshold.
const timeEps = 1e-9

// Stroke is the live state of a one-finger gesture.
type Stroke struct {
	Kind       Kind
	ID         int
	Start      mgl64.Vec2
	Last       mgl64.Vec2
	StartTime  float64
	LastTime   float64
	StillSince float64 // time the finger last moved at least HoldPixels in a frame

	DragCm       mgl64.Vec2 // signed displacement from Start
	TotalCm      float64    // |DragCm|
	VelocityCm   float64    // TotalCm / elapsed
	FrameDeltaCm mgl64.Vec2 // signed movement this frame, zero while held or inside the dead zone

	Locked   bool // Hold is latched until the release distance
	Rotating bool // moved past RotatePixels at least once
	Zone     Zone
}

// Elapsed is the stroke age at its last update.
func (s Stroke) Elapsed() float64 { return s.LastTime - s.StartTime }

// Outcome is the final word on a stroke when its finger lifts.
type Outcome struct {
	Kind      Kind
	Swipe     bool
	Direction int // +1 right, -1 left; zero unless Swipe
	Tap       bool
	Stroke    Stroke
}

// Classifier is the one-finger state machine.
type Classifier struct {
	th     Thresholds
	dpi    float64
	active bool
	s      Stroke
}

func NewClassifier(th Thresholds) *Classifier {
	return &Classifier{th: th}
}

func (c *Classifier) Active() bool { return c.active }

// Stroke returns a copy of the current stroke.
func (c *Classifier) Stroke() Stroke { return c.s }

// Begin starts a new stroke, discarding any previous one.
func (c *Classifier) Begin(t Touch, dpi, screenWidth float64) {
	c.active = true
	c.dpi = dpi
	c.s = Stroke{
		Kind:       Touching,
		ID:         t.ID,
		Start:      t.Position,
		Last:       t.Position,
		StartTime:  t.Time,
		LastTime:   t.Time,
		StillSince: t.Time,
		Zone:       ZoneOf(t.Position.X(), screenWidth),
	}
}

// Update feeds a Moved or Stationary sample and returns the new kind.
func (c *Classifier) Update(t Touch) Kind {
	if !c.active {
		return None
	}
	s := &c.s
	s.Last = t.Position
	s.LastTime = t.Time

	disp := t.Position.Sub(s.Start)
	s.DragCm = VecToCm(disp, c.dpi)
	s.TotalCm = s.DragCm.Len()
	s.VelocityCm = 0
	if el := s.Elapsed(); el > 0 {
		s.VelocityCm = s.TotalCm / el
	}
	s.FrameDeltaCm = mgl64.Vec2{}
	if disp.Len() > c.th.RotatePixels {
		s.Rotating = true
	}

	if s.Locked && s.Kind == Hold {
		if s.TotalCm <= c.th.DeadZoneCm*2 {
			return s.Kind
		}
		s.Locked = false
		s.StillSince = t.Time
	}

	if t.Delta.Len() < c.th.HoldPixels {
		if t.Time-s.StillSince+timeEps >= c.th.HoldTime && s.TotalCm < c.th.DeadZoneCm {
			s.Kind = Hold
			s.Locked = true
			return s.Kind
		}
	} else {
		s.StillSince = t.Time
	}

	if s.TotalCm < c.th.DeadZoneCm {
		return s.Kind
	}

	s.FrameDeltaCm = VecToCm(t.Delta, c.dpi)
	if s.VelocityCm >= c.th.SwipeVelocityCm {
		s.Kind = Swipe
	} else {
		s.Kind = Drag
	}
	return s.Kind
}

// End finishes the stroke with the lift-off sample. A swipe is confirmed only
// when it was fast, short-lived, long enough and mostly horizontal; otherwise
// the last continuous kind stands.
func (c *Classifier) End(t Touch) Outcome {
	if !c.active {
		return Outcome{Kind: None}
	}
	s := c.s
	s.Last = t.Position
	s.LastTime = t.Time
	s.FrameDeltaCm = mgl64.Vec2{}

	dpx := t.Position.Sub(s.Start)
	s.DragCm = VecToCm(dpx, c.dpi)
	s.TotalCm = s.DragCm.Len()
	elapsed := s.Elapsed()
	s.VelocityCm = 0
	if elapsed > 0 {
		s.VelocityCm = s.TotalCm / elapsed
	}

	out := Outcome{Kind: s.Kind}
	switch out.Kind {
	case Swipe:
		out.Kind = Drag
	case Touching:
		// Touching is never final: a long enough press inside the dead zone
		// was a hold, anything quicker was nothing.
		out.Kind = None
		if elapsed+timeEps >= c.th.HoldTime && s.TotalCm < c.th.DeadZoneCm {
			out.Kind = Hold
		}
	}
	ax, ay := math.Abs(dpx.X()), math.Abs(dpx.Y())
	if s.VelocityCm >= c.th.SwipeVelocityCm &&
		elapsed <= c.th.SwipeMaxDuration+timeEps &&
		s.TotalCm >= c.th.SwipeMinCm &&
		ax >= c.th.SwipeMinPixels &&
		ax > ay {
		out.Kind = Swipe
		out.Swipe = true
		out.Direction = 1
		if dpx.X() < 0 {
			out.Direction = -1
		}
	}
	out.Tap = dpx.Len() <= c.th.TapPixels && !s.Rotating

	s.Kind = out.Kind
	out.Stroke = s
	c.Reset()
	return out
}

// Reset drops the stroke without an outcome.
func (c *Classifier) Reset() {
	c.active = false
	c.s = Stroke{}
}
