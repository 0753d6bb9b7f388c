// Package locomotion turns classified gestures into movement: lane travel
// along a forked spline, or free roaming on a ground plane.
package locomotion

import (
	"fmt"
	"strings"
)

// Mode picks how gestures are interpreted.
type Mode int

const (
	// ModeDragWalk: one finger walks (drag on the spline, tap on the
	// ground), two fingers turn.
	ModeDragWalk Mode = iota
	// ModeLookAround: one finger turns, double tap walks.
	ModeLookAround
	// ModePaddle: a vertical drag walks towards the gaze target at a speed
	// set by the drag length, a horizontal swipe strafes, two fingers turn.
	// Street only; the spline treats it as ModeDragWalk.
	ModePaddle
	// ModeGazeDrag: the finger's height on screen places the body along the
	// gaze ray, two fingers turn. Street only, like ModePaddle.
	ModeGazeDrag
)

func (m Mode) String() string {
	switch m {
	case ModeLookAround:
		return "look"
	case ModePaddle:
		return "paddle"
	case ModeGazeDrag:
		return "gaze"
	}
	return "drag"
}

// StreetOnly reports whether the spline controller lacks a scheme of its own
// for m.
func (m Mode) StreetOnly() bool { return m == ModePaddle || m == ModeGazeDrag }

// ParseMode accepts the names printed by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drag", "":
		return ModeDragWalk, nil
	case "look":
		return ModeLookAround, nil
	case "paddle":
		return ModePaddle, nil
	case "gaze":
		return ModeGazeDrag, nil
	}
	return ModeDragWalk, fmt.Errorf("unknown locomotion mode %q", s)
}

// Settings tunes the spline controller.
type Settings struct {
	Mode Mode

	BaseSpeed float64
	MaxSpeed  float64
	CmToSpeed float64 // per-frame drag cm to speed

	LaneCount       int
	LaneWidth       float64
	LaneSwitchSpeed float64 // 1/s, exponential approach rate

	TwoFingerYaw         bool
	TwoFingerRotateSpeed float64 // degrees per pixel

	RotationSpeed  float64
	InvertRotation bool
	AllowPitch     bool
	PitchMin       float64
	PitchMax       float64

	TapMoveDistance float64 // arc length covered by a double tap
	MoveDuration    float64
	ArriveDistance  float64
}

func DefaultSettings() Settings {
	return Settings{
		Mode:                 ModeDragWalk,
		BaseSpeed:            5,
		MaxSpeed:             15,
		CmToSpeed:            3,
		LaneCount:            3,
		LaneWidth:            1,
		LaneSwitchSpeed:      8,
		TwoFingerYaw:         true,
		TwoFingerRotateSpeed: 0.15,
		RotationSpeed:        5,
		AllowPitch:           true,
		PitchMin:             -60,
		PitchMax:             60,
		TapMoveDistance:      3,
		MoveDuration:         1,
		ArriveDistance:       0.1,
	}
}

// normalized absorbs values the controller cannot work with.
func (s Settings) normalized() Settings {
	if s.LaneCount < 1 {
		s.LaneCount = 1
	}
	if s.LaneWidth < 0 {
		s.LaneWidth = 0
	}
	if s.MaxSpeed < 0 {
		s.MaxSpeed = 0
	}
	if s.BaseSpeed < 0 {
		s.BaseSpeed = 0
	}
	if s.LaneSwitchSpeed <= 0 {
		s.LaneSwitchSpeed = DefaultSettings().LaneSwitchSpeed
	}
	if s.PitchMin > s.PitchMax {
		s.PitchMin, s.PitchMax = s.PitchMax, s.PitchMin
	}
	if s.ArriveDistance <= 0 {
		s.ArriveDistance = DefaultSettings().ArriveDistance
	}
	return s
}

// StreetSettings tunes the ground-plane controller.
type StreetSettings struct {
	Mode           Mode
	RotationSpeed  float64
	InvertRotation bool
	AllowPitch     bool
	PitchMin       float64
	PitchMax       float64
	MoveDuration   float64 // every tap move takes this long regardless of distance
	NoHitDistance  float64
	MaxRayDistance float64
	ArriveDistance float64
	EyeHeight      float64

	BaseSpeed         float64 // paddle speed at the start of a drag
	MaxSpeed          float64 // paddle speed once the drag covers half the screen
	SwipeMoveDistance float64 // sideways step per strafe swipe
	StopBeforeEnd     float64 // gaze drag stops this far short of the hit
}

func DefaultStreetSettings() StreetSettings {
	return StreetSettings{
		Mode:              ModeDragWalk,
		RotationSpeed:     5,
		AllowPitch:        true,
		PitchMin:          -60,
		PitchMax:          60,
		MoveDuration:      1,
		NoHitDistance:     10,
		MaxRayDistance:    100,
		ArriveDistance:    0.1,
		EyeHeight:         1.6,
		BaseSpeed:         5,
		MaxSpeed:          15,
		SwipeMoveDistance: 0.6,
		StopBeforeEnd:     0.15,
	}
}

func (s StreetSettings) normalized() StreetSettings {
	if s.PitchMin > s.PitchMax {
		s.PitchMin, s.PitchMax = s.PitchMax, s.PitchMin
	}
	if s.MaxRayDistance <= 0 {
		s.MaxRayDistance = DefaultStreetSettings().MaxRayDistance
	}
	if s.ArriveDistance <= 0 {
		s.ArriveDistance = DefaultStreetSettings().ArriveDistance
	}
	s.BaseSpeed = max(s.BaseSpeed, 0)
	s.MaxSpeed = max(s.MaxSpeed, s.BaseSpeed)
	s.StopBeforeEnd = max(s.StopBeforeEnd, 0)
	return s
}

// laneOffset is the signed lateral offset of lane from the centre line.
func laneOffset(lane, count int, width float64) float64 {
	center := float64(count-1) * 0.5
	return (float64(lane) - center) * width
}
