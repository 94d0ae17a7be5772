package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kaireichart/embalse-analysis/config"
)

// New builds the service logger. Output is stdout, stderr or a file path; the
// returned close function releases the file when one was opened.
func New(cfg config.LoggingConfig) (zerolog.Logger, func() error, error) {
	var (
		out     io.Writer
		closeFn = func() error { return nil }
	)
	switch cfg.Output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("could not open log file: %w", err)
		}
		out, closeFn = file, file.Close
	}

	log, err := NewWithWriter(cfg, out)
	if err != nil {
		_ = closeFn()
		return zerolog.Nop(), func() error { return nil }, err
	}
	return log, closeFn, nil
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "embalse").
		Logger(), nil
}
