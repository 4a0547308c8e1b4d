package log

import (
	"io"
	"log/slog"
	"time"

	charmlog "charm.land/log/v2"
)

// levels returns the slog and charm levels for the verbose setting.
// Info is the default so that per-page progress is visible.
func levels(verbose bool) (slog.Level, charmlog.Level) {
	if verbose {
		return slog.LevelDebug, charmlog.DebugLevel
	}
	return slog.LevelInfo, charmlog.InfoLevel
}

// NewSecureLogger creates a human-readable logger that sanitizes sensitive
// information. verbose lowers the level from Info to Debug.
//
// The returned logger can be passed to every component that accepts a
// *slog.Logger, including tornago.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	_, level := levels(verbose)
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	return slog.New(NewSecureHandler(handler))
}

// NewSecureJSONLogger creates a JSON logger that sanitizes sensitive
// information. Useful for structured log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level, _ := levels(verbose)
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSecureHandler(jsonHandler))
}
