// Package gesture classifies raw touch streams into hold, drag, swipe and
// two-finger gestures with DPI-normalised thresholds.
//
// Screen positions are pixels with the origin at the top left and y growing
// downwards, which is what both glfw and x/mobile deliver.
package gesture

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type Phase int

const (
	Began Phase = iota
	Moved
	Stationary
	Ended
	Canceled
)

func (p Phase) String() string {
	switch p {
	case Began:
		return "Began"
	case Moved:
		return "Moved"
	case Stationary:
		return "Stationary"
	case Ended:
		return "Ended"
	case Canceled:
		return "Canceled"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Done reports whether the touch is lifting this frame.
func (p Phase) Done() bool { return p == Ended || p == Canceled }

// Touch is one finger in one input frame.
type Touch struct {
	ID       int
	Position mgl64.Vec2
	Delta    mgl64.Vec2 // movement since the previous frame
	Phase    Phase
	TapCount int
	Time     float64 // seconds, any monotonic origin
	OverUI   bool    // the front end found a UI element under the finger
}

type Kind int

const (
	None Kind = iota
	Touching
	Hold
	Drag
	Swipe
	TwoFingerRotate
)

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case Touching:
		return "Touching"
	case Hold:
		return "Hold"
	case Drag:
		return "Drag"
	case Swipe:
		return "Swipe"
	case TwoFingerRotate:
		return "TwoFingerRotate"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Moving reports whether the kind carries continuous motion.
func (k Kind) Moving() bool { return k == Drag || k == Swipe }

// Zone is the screen third a stroke started in.
type Zone int

const (
	ZoneLeft Zone = iota
	ZoneCenter
	ZoneRight
)

func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "Left"
	case ZoneCenter:
		return "Center"
	}
	return "Right"
}

// ZoneOf splits width into thirds. A non-positive width is all center.
func ZoneOf(x, width float64) Zone {
	if width <= 0 {
		return ZoneCenter
	}
	third := width / 3
	switch {
	case x < third:
		return ZoneLeft
	case x < third*2:
		return ZoneCenter
	}
	return ZoneRight
}

const (
	FallbackDPI = 160.0
	cmPerInch   = 2.54
)

// Thresholds tunes classification. Distances in cm are physical, pixels are
// raw screen pixels, times are seconds.
type Thresholds struct {
	HoldPixels        float64
	HoldTime          float64
	DeadZoneCm        float64
	SwipeVelocityCm   float64
	SwipeMaxDuration  float64
	SwipeMinCm        float64
	SwipeMinPixels    float64
	TapPixels         float64
	DoubleTapInterval float64
	RotatePixels      float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HoldPixels:        5,
		HoldTime:          0.1,
		DeadZoneCm:        0.1,
		SwipeVelocityCm:   12,
		SwipeMaxDuration:  0.2,
		SwipeMinCm:        2,
		SwipeMinPixels:    50,
		TapPixels:         20,
		DoubleTapInterval: 0.3,
		RotatePixels:      10,
	}
}

// PixelsToCm converts a pixel length at the given density. Unknown densities
// (zero or negative) use FallbackDPI.
func PixelsToCm(px, dpi float64) float64 {
	if dpi <= 0 {
		dpi = FallbackDPI
	}
	return px * cmPerInch / dpi
}

// VecToCm is PixelsToCm applied per component.
func VecToCm(v mgl64.Vec2, dpi float64) mgl64.Vec2 {
	return mgl64.Vec2{PixelsToCm(v[0], dpi), PixelsToCm(v[1], dpi)}
}
