// Package logger wires slog from config. Production logs JSON for
// ingestion; development logs text for reading.
package logger

import (
	"log/slog"
	"os"

	"github.com/averyhale/saga-engine/internal/config"
)

// Setup builds the process logger and installs it as the slog default.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler).With("service", "saga-engine")
	slog.SetDefault(log)
	return log
}

// WithRequestID returns a logger that stamps every record with the
// request id.
func WithRequestID(log *slog.Logger, requestID string) *slog.Logger {
	return log.With("request_id", requestID)
}
