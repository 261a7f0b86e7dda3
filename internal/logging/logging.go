// Package logging builds the structured logger used across sdlcwizard.
//
// Logs are written with log/slog to a size-rotated file (lumberjack) so they
// never mix with terminal output. Every record passes through a redacting
// handler that masks API keys in messages and attributes.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures [New].
type Options struct {
	// File is the log file path. Its directory is created if needed.
	File string

	// Level is "debug", "info", "warn" or "error".
	Level string

	// MaxSizeMB, MaxBackups and MaxAgeDays control rotation.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a logger writing to a rotating file. Close the returned closer
// on exit to flush and release the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.File == "" {
		return nil, nil, fmt.Errorf("log file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB, // megabytes
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays, // days
		Compress:   true,
	}
	return NewWithWriter(file, ParseLevel(opts.Level)), file, nil
}

// NewWithWriter returns a redacting text logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(&redactHandler{next: h})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const redacted = "[REDACTED]"

// sensitiveKeys are attribute names whose values are never logged.
var sensitiveKeys = map[string]bool{
	"api_key":    true,
	"apikey":     true,
	"credential": true,
	"key":        true,
	"password":   true,
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),   // Google API keys
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.-]+`), // Bearer tokens
}

var keyParam = regexp.MustCompile(`([?&]key=)[^&\s"]+`)

// Redact masks API keys, bearer tokens and key= query parameters in s.
func Redact(s string) string {
	s = keyParam.ReplaceAllString(s, "${1}"+redacted)
	for _, p := range secretPatterns {
		s = p.ReplaceAllStringFunc(s, func(match string) string {
			if strings.HasPrefix(match, "Bearer") {
				return "Bearer " + redacted
			}
			return match[:4] + "..." + redacted
		})
	}
	return s
}

// redactHandler masks secrets before handing records to next.
type redactHandler struct {
	next slog.Handler
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &redactHandler{next: h.next.WithAttrs(clean)}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(v.String()))
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = redactAttr(g)
		}
		return slog.Group(a.Key, clean...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, Redact(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}
