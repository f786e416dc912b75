package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	DebugLevel = slog.LevelDebug
	InfoLevel  = slog.LevelInfo
	WarnLevel  = slog.LevelWarn
	ErrorLevel = slog.LevelError
	OffLevel   = slog.Level(1000)
)

// ParseLevel takes a string level and returns the slog log level constant.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToLower(lvl) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "off":
		return OffLevel, nil
	default:
		return 0, fmt.Errorf("unrecognized level: %s", lvl)
	}
}

// Init parses the level, installs a text handler on w as the default
// logger, and returns the parsed level.
func Init(w io.Writer, lvl string) (slog.Level, error) {
	level, err := ParseLevel(lvl)
	if err != nil {
		return 0, err
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return level, nil
}
