package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gorilla/handlers"
)

// Setup installs the default slog logger. Unknown levels fall back to info.
func Setup(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// AccessLog formats gorilla access log entries as structured slog records.
// The writer handed to it by handlers.CustomLoggingHandler is ignored.
func AccessLog(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Info("http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"remote", p.Request.RemoteAddr,
		"requestId", p.Request.Header.Get("X-Request-ID"),
	)
}

// RecoveryLogger adapts slog to handlers.RecoveryHandlerLogger.
type RecoveryLogger struct{}

func (RecoveryLogger) Println(v ...any) {
	slog.Error("recovered from panic", "error", strings.TrimSpace(fmt.Sprintln(v...)))
}
