package logger

import (
	"io"
	"log/slog"
	"os"
)

// New builds the process JSON logger. Debug mode lowers the level and adds
// source locations.
func New(ginMode string) *slog.Logger {
	return NewWithWriter(os.Stdout, ginMode)
}

func NewWithWriter(w io.Writer, ginMode string) *slog.Logger {
	level := slog.LevelInfo
	if ginMode == "debug" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: ginMode == "debug",
	})
	return slog.New(handler)
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
