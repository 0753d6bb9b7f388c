// Package logx configures the process-wide slog logger from command line
// verbosity flags.
package logx

import (
	"io"
	"log/slog"
	"os"
)

// LevelFromFlags maps -vv, -v and -q to a level. -vv wins over -v, which
// wins over -q; with no flag the level is Warn.
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New returns a text logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs a stderr logger at level as the slog default.
func Setup(level slog.Level) *slog.Logger {
	l := New(os.Stderr, level)
	slog.SetDefault(l)
	return l
}
