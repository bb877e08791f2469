package shared

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// InitLogger installs the default slog logger writing to stdout and, when
// extra is non-nil, to extra as well.
func InitLogger(format, level string, extra ...io.Writer) *slog.Logger {
	var h slog.Handler
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var w io.Writer = os.Stdout
	if len(extra) > 0 {
		w = io.MultiWriter(append([]io.Writer{os.Stdout}, extra...)...)
	}
	if strings.ToLower(format) == "text" {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
