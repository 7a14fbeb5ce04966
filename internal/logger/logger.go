package logger

import (
	"io"
	"log/slog"
	"os"
)

const serviceName = "storefront"

// New creates a preconfigured slog.Logger writing to stdout.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates the JSON logger over w. Every record carries the
// service name.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", serviceName))
}
