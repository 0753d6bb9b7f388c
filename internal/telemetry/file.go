package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// FileLogger appends one line per record and mirrors each line to slog and an
// optional Display.
type FileLogger struct {
	w       io.Writer
	c       io.Closer
	display Display
}

// NewLogger writes to w. display may be nil.
func NewLogger(w io.Writer, display Display) *FileLogger {
	return &FileLogger{w: w, display: display}
}

// Open appends to the file at path, creating it if needed.
func Open(path string, display Display) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open telemetry log: %w", err)
	}
	l := NewLogger(f, display)
	l.c = f
	return l, nil
}

func (l *FileLogger) LogTouch(r TouchRecord) {
	msg := r.String()
	l.write(msg)
	if l.display != nil {
		l.display.SetTouchLog(msg)
	}
}

func (l *FileLogger) LogMovement(r MovementRecord) {
	msg := r.String()
	l.write(msg)
	if l.display != nil {
		l.display.SetMovementLog(msg)
	}
}

func (l *FileLogger) write(msg string) {
	slog.Debug(msg)
	if l.w == nil {
		return
	}
	if _, err := io.WriteString(l.w, msg+"\n"); err != nil {
		slog.Warn("telemetry write failed, disabling file output", "err", err)
		l.w = nil
	}
}

// Close closes the underlying file, if Open created one.
func (l *FileLogger) Close() error {
	if l.c == nil {
		return nil
	}
	err := l.c.Close()
	l.c, l.w = nil, nil
	if err != nil {
		return fmt.Errorf("close telemetry log: %w", err)
	}
	return nil
}
