package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hpn/hpn-chatgpt-udf/internal/security"
)

// newLogger builds a redacting slog logger and installs it as the default.
// The returned close function releases the log file, if one was opened.
func newLogger(level, format, outputPath string, defaultOut io.Writer) (*slog.Logger, func() error, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	out := defaultOut
	closeFn := func() error { return nil }
	if outputPath != "" {
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var inner slog.Handler
	switch strings.ToLower(format) {
	case "", "json":
		inner = slog.NewJSONHandler(out, opts)
	case "text":
		inner = slog.NewTextHandler(out, opts)
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("invalid log format %q (json|text)", format)
	}

	logger := slog.New(security.NewRedactedHandler(inner))
	slog.SetDefault(logger)

	return logger, closeFn, nil
}
