package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup creates a slog.Logger emitting JSON structured logs to w.
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

// SetupDefault installs a JSON structured logger as the global default.
// A nil writer falls back to os.Stdout, which is what production passes.
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w)
	slog.SetDefault(logger)
}
