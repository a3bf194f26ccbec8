package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "platewise"

// New returns a JSON logger that writes to stderr and, when logFile is set,
// appends to that file as well. Every record carries a service attribute and
// debug records also carry their source location. The logger becomes the
// slog default. Callers must defer the returned cleanup func.
func New(level, logFile string) (*slog.Logger, func(), error) {
	out, cleanup, err := openOutput(os.Stderr, logFile)
	if err != nil {
		return nil, nil, err
	}

	lvl := parseLevel(level)
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	})
	logger := slog.New(handler).With("service", serviceName)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func openOutput(console io.Writer, logFile string) (io.Writer, func(), error) {
	if logFile == "" {
		return console, func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	closeFile := func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}
	return io.MultiWriter(console, f), closeFile, nil
}

// parseLevel accepts slog level names in any case, plus "warning". Anything
// else logs at info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
