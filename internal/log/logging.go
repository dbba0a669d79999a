// Package log builds the slog.Logger shared by the luaproto commands.
//
// Console output always goes to stderr: stdout is reserved for generated
// content (dump output and the protoc plugin response).
package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LevelTrace defines a custom slog level below Debug for very verbose output.
const LevelTrace slog.Level = -8

func ParseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MultiHandler fans out records to multiple handlers.
type MultiHandler struct{ hs []slog.Handler }

func (m MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.hs {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return MultiHandler{hs: out}
}

func (m MultiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return MultiHandler{hs: out}
}

// Options mirrors the log.* flags.
type Options struct {
	Level string
	File  string
	// Format is "text", "json" or "auto". Auto picks text when the
	// console is a terminal.
	Format string
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func consoleFormat(format string, console *os.File) string {
	if format != "auto" && format != "" {
		return format
	}
	if term.IsTerminal(int(console.Fd())) {
		return "text"
	}
	return "json"
}

// SetupLogger builds a logger writing to console and, when opts.File is set,
// to that file as well. The returned closers must be closed by the caller.
func SetupLogger(opts Options, console *os.File) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(opts.Level)
	handlers := []slog.Handler{newHandler(console, consoleFormat(opts.Format, console), level)}

	var closeFiles []io.Closer
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		closeFiles = append(closeFiles, f)
		format := opts.Format
		if format == "auto" {
			format = "text"
		}
		handlers = append(handlers, newHandler(f, format, level))
	}
	return slog.New(MultiHandler{hs: handlers}), closeFiles, nil
}
