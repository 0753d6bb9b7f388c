package logx

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelFromFlags(true, true, true))
	assert.Equal(t, slog.LevelInfo, LevelFromFlags(false, true, true))
	assert.Equal(t, slog.LevelError, LevelFromFlags(false, false, true))
	assert.Equal(t, slog.LevelWarn, LevelFromFlags(false, false, false))
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown", "key", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown key=1")
}
