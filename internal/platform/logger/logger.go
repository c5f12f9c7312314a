package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// Discard returns a logger that drops everything. For tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
