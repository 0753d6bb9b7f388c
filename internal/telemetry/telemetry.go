// Package telemetry records touch and movement events and feeds the on-screen
// debug panel.
package telemetry

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"locomotion/internal/gesture"
)

// TouchRecord is one raw touch as seen by a controller.
type TouchRecord struct {
	Source   string
	FingerID int
	Position mgl64.Vec2
	Delta    mgl64.Vec2
	Phase    gesture.Phase
	TapCount int
	Time     time.Time
}

func (r TouchRecord) String() string {
	return fmt.Sprintf("%s,%d,%s,%s,%s,%d,%s",
		r.Source, r.FingerID, vec2(r.Position), vec2(r.Delta), r.Phase, r.TapCount, stamp(r.Time))
}

// MovementRecord is one locomotion step or discrete move.
type MovementRecord struct {
	Source   string
	Position mgl64.Vec3
	Speed    float64
	Gesture  string
	Time     time.Time
}

func (r MovementRecord) String() string {
	return fmt.Sprintf("%s,pos=%s,speed=%.2f,gesture=%s,%s",
		r.Source, vec3(r.Position), r.Speed, r.Gesture, stamp(r.Time))
}

// Logger receives records fire-and-forget.
type Logger interface {
	LogTouch(TouchRecord)
	LogMovement(MovementRecord)
}

// Display shows human readable state. Active reports whether the panel is
// open, which also suspends locomotion input.
type Display interface {
	SetTouchLog(string)
	SetMovementLog(string)
	SetGestureLog(string)
	Active() bool
}

func vec2(v mgl64.Vec2) string { return fmt.Sprintf("(%.2f, %.2f)", v[0], v[1]) }

func vec3(v mgl64.Vec3) string { return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2]) }

// stamp formats day/month/year hours:minutes:seconds:millis.
func stamp(t time.Time) string {
	return fmt.Sprintf("%s:%03d", t.Format("02/01/2006 15:04:05"), t.Nanosecond()/int(time.Millisecond))
}
