package telemetry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locomotion/internal/gesture"
)

var when = time.Date(2025, time.March, 7, 14, 5, 9, 42_000_000, time.UTC)

func TestTouchRecordFormat(t *testing.T) {
	r := TouchRecord{
		Source:   "spline",
		FingerID: 2,
		Position: mgl64.Vec2{10, 20.5},
		Delta:    mgl64.Vec2{-1, 0},
		Phase:    gesture.Moved,
		TapCount: 1,
		Time:     when,
	}
	assert.Equal(t, "spline,2,(10.00, 20.50),(-1.00, 0.00),Moved,1,07/03/2025 14:05:09:042", r.String())
}

func TestMovementRecordFormat(t *testing.T) {
	r := MovementRecord{
		Source:   "streetview",
		Position: mgl64.Vec3{1, 0, -2.25},
		Speed:    3.14159,
		Gesture:  "Tap",
		Time:     when,
	}
	assert.Equal(t, "streetview,pos=(1.00, 0.00, -2.25),speed=3.14,gesture=Tap,07/03/2025 14:05:09:042", r.String())
}

func TestLoggerMirrorsToDisplay(t *testing.T) {
	var buf bytes.Buffer
	p := &Panel{}
	l := NewLogger(&buf, p)

	l.LogTouch(TouchRecord{Source: "a", Phase: gesture.Began, Time: when})
	l.LogMovement(MovementRecord{Source: "a", Gesture: "Drag", Time: when})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "a,0,"))
	assert.Contains(t, lines[1], "gesture=Drag")
	assert.Equal(t, []string{lines[0], lines[1]}, p.Lines())
}

type failWriter struct{ n int }

func (w *failWriter) Write(b []byte) (int, error) {
	w.n++
	return 0, errors.New("disk full")
}

func TestLoggerStopsWritingAfterError(t *testing.T) {
	w := &failWriter{}
	l := NewLogger(w, nil)
	l.LogMovement(MovementRecord{Time: when})
	l.LogMovement(MovementRecord{Time: when})
	assert.Equal(t, 1, w.n)
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	for range 2 {
		l, err := Open(path, nil)
		require.NoError(t, err)
		l.LogMovement(MovementRecord{Source: "x", Time: when})
		require.NoError(t, l.Close())
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "data.log"), nil)
	assert.Error(t, err)
}

func TestPanelToggle(t *testing.T) {
	p := &Panel{}
	assert.False(t, p.Active())
	assert.True(t, p.Toggle())
	assert.True(t, p.Active())
	assert.False(t, p.Toggle())
	assert.Empty(t, p.Lines())
	p.SetGestureLog("g")
	p.SetMovementLog("m")
	assert.Equal(t, []string{"g", "m"}, p.Lines())
}
