// Package logger is the process-wide structured log. Output goes to the
// console, a rotated file, or both; nothing is written before Initialize or
// SetOutput.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelAlways sits above Error, so run summaries survive any level filter.
const LevelAlways = slog.Level(12)

var (
	current atomic.Pointer[slog.Logger]
	level   slog.LevelVar
)

// Initialize builds the handlers named by cfg and installs them. With
// neither sink enabled, text goes to stdout.
func Initialize(cfg Config) error {
	level.Set(parseLogLevel(cfg.Level))

	var sinks []slog.Handler
	if cfg.ConsoleEnabled {
		sinks = append(sinks, newHandler(os.Stdout, cfg.ConsoleFormat))
	}
	if cfg.FileEnabled {
		if cfg.FilePath == "" {
			return errors.New("file logging enabled without a file path")
		}
		rotated := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.FileMaxSizeMB,
			MaxBackups: cfg.FileMaxBackups,
			MaxAge:     cfg.FileMaxAgeDays,
		}
		sinks = append(sinks, newHandler(rotated, cfg.FileFormat))
	}

	switch len(sinks) {
	case 0:
		current.Store(slog.New(newHandler(os.Stdout, "text")))
	case 1:
		current.Store(slog.New(sinks[0]))
	default:
		current.Store(slog.New(fanout(sinks)))
	}
	return nil
}

// SetOutput replaces every sink with w.
func SetOutput(w io.Writer, format, lvl string) {
	level.Set(parseLogLevel(lvl))
	current.Store(slog.New(newHandler(w, format)))
}

// SetLevel changes the minimum level of the installed sinks.
func SetLevel(lvl string) {
	level.Set(parseLogLevel(lvl))
}

func newHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: &level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == LevelAlways {
				a.Value = slog.StringValue("ALWAYS")
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLogLevel maps a config name to a level. Unknown names are INFO.
func parseLogLevel(lvl string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(lvl)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func log(lvl slog.Level, msg string, args []any) {
	if l := current.Load(); l != nil {
		l.Log(context.Background(), lvl, msg, args...)
	}
}

func Debug(msg string, args ...any)   { log(slog.LevelDebug, msg, args) }
func Info(msg string, args ...any)    { log(slog.LevelInfo, msg, args) }
func Warning(msg string, args ...any) { log(slog.LevelWarn, msg, args) }
func Error(msg string, args ...any)   { log(slog.LevelError, msg, args) }

// Always logs msg whatever the configured level.
func Always(msg string, args ...any) { log(LevelAlways, msg, args) }

// fanout sends each record to every sink that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) derive(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
