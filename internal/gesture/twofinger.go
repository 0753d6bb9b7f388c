package gesture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pair is the two-finger reading for one frame. Rotation input (DeltaMid,
// AvgDelta) is reported alongside the Drag/Swipe motion test on the
// midpoint; neither suppresses the other.
type Pair struct {
	Began      bool
	Mid        mgl64.Vec2
	DeltaMid   mgl64.Vec2 // midpoint movement since the last rotating frame
	AvgDelta   mgl64.Vec2 // mean of both fingers' per-frame deltas
	Motion     Kind       // None, Drag or Swipe
	VelocityCm float64
	Rotating   bool
}

// TwoFinger tracks the midpoint of a two-touch gesture.
type TwoFinger struct {
	th        Thresholds
	active    bool
	start     mgl64.Vec2
	prev      mgl64.Vec2
	startTime float64
	rotating  bool
}

func NewTwoFinger(th Thresholds) *TwoFinger {
	return &TwoFinger{th: th}
}

func (tf *TwoFinger) Active() bool { return tf.active }

func (tf *TwoFinger) Reset() {
	*tf = TwoFinger{th: tf.th}
}

// Update consumes both touches of the frame.
func (tf *TwoFinger) Update(a, b Touch, dpi float64) Pair {
	mid := a.Position.Add(b.Position).Mul(0.5)
	p := Pair{
		Mid:      mid,
		AvgDelta: a.Delta.Add(b.Delta).Mul(0.5),
	}
	now := math.Max(a.Time, b.Time)

	if !tf.active || a.Phase == Began || b.Phase == Began {
		tf.active = true
		tf.start = mid
		tf.prev = mid
		tf.startTime = now
		tf.rotating = false
		p.Began = true
		return p
	}
	if a.Phase.Done() || b.Phase.Done() {
		p.Rotating = tf.rotating
		return p
	}

	disp := mid.Sub(tf.start)
	cm := PixelsToCm(disp.Len(), dpi)
	if el := now - tf.startTime; el > 0 {
		p.VelocityCm = cm / el
	}
	if cm >= tf.th.DeadZoneCm {
		p.Motion = Drag
		if p.VelocityCm >= tf.th.SwipeVelocityCm {
			p.Motion = Swipe
		}
	}

	if disp.Len() > tf.th.RotatePixels || tf.rotating {
		tf.rotating = true
		p.DeltaMid = mid.Sub(tf.prev)
		tf.prev = mid
	}
	p.Rotating = tf.rotating
	return p
}

// TapDetector turns single taps into double-tap events. The first tap primes
// it; a second tap within Interval fires once and disarms, so a third tap
// primes again instead of firing.
type TapDetector struct {
	Interval float64
	last     float64
	primed   bool
}

// Tap registers a tap at time t and reports whether it completed a double tap.
func (d *TapDetector) Tap(t float64) bool {
	if d.primed && t-d.last <= d.Interval+timeEps {
		d.primed = false
		return true
	}
	d.primed = true
	d.last = t
	return false
}

// Clear forgets a pending first tap.
func (d *TapDetector) Clear() { d.primed = false }

// Primed reports whether a first tap is waiting.
func (d *TapDetector) Primed() bool { return d.primed }
