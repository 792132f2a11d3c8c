// Package logger installs the process wide JSON slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	fd *os.File
}

func (l *Logger) Close() error {
	if l.fd != nil {
		if err := l.fd.Close(); err != nil {
			return fmt.Errorf("failed to close log-file: %w", err)
		}
	}

	return nil
}

// NewLogger sets the default slog logger. Records go to filepath when it is
// set and to stdout otherwise.
func NewLogger(service, version, level, filepath string) (*Logger, error) {
	var (
		logWriter io.Writer = os.Stdout
		result              = Logger{}
	)

	if filepath != "" {
		const perm = 0o600

		fd, err := os.OpenFile(filepath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
		if err != nil {
			return nil, fmt.Errorf("failed to open log-file: %w", err)
		}

		logWriter, result.fd = fd, fd
	}

	h, err := NewHandler(logWriter, service, version, level)
	if err != nil {
		if result.fd != nil {
			_ = result.fd.Close()
		}
		return nil, err
	}

	slog.SetDefault(slog.New(h))

	return &result, nil
}

// NewHandler builds the JSON handler used by NewLogger without installing it.
func NewHandler(w io.Writer, service, version, level string) (slog.Handler, error) {
	programLevel := new(slog.LevelVar)

	switch strings.ToLower(level) {
	case "error":
		programLevel.Set(slog.LevelError)
	case "warn":
		programLevel.Set(slog.LevelWarn)
	case "info":
		programLevel.Set(slog.LevelInfo)
	case "debug":
		programLevel.Set(slog.LevelDebug)
	default:
		return nil, fmt.Errorf("unknown log level: %s", level)
	}

	jsonHandler := slog.
		NewJSONHandler(w, &slog.HandlerOptions{
			Level: programLevel,
		}).
		WithAttrs([]slog.Attr{
			slog.String("service", service),
			slog.String("version", version),
		})

	return ctxHandler{jsonHandler}, nil
}
