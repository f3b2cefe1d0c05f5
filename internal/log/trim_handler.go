package log

import (
	"context"
	"io"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaxAttrLen is the default cap, in runes, for string attribute
// values. 256 runes keeps the identifying prefix of a claim or excerpt
// while guaranteeing a log line never carries a whole page body.
const DefaultMaxAttrLen = 256

// TruncationMark is appended to values that were cut.
const TruncationMark = "…(truncated)"

// TrimHandler wraps an slog.Handler and truncates oversized string
// attribute values before passing records on.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay honest: they log the full value, the handler
//     enforces the budget in one place
type TrimHandler struct {
	// handler is the underlying slog handler that receives trimmed records.
	handler slog.Handler

	// maxLen is the maximum string attribute length in runes.
	maxLen int
}

// NewTrimHandler creates a TrimHandler wrapping the given handler.
// If handler is nil, the returned TrimHandler uses slog.Default().Handler().
// If maxLen is not positive, DefaultMaxAttrLen is used.
func NewTrimHandler(handler slog.Handler, maxLen int) *TrimHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxAttrLen
	}
	return &TrimHandler{handler: handler, maxLen: maxLen}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TrimHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle trims the record's attributes and passes it to the underlying handler.
func (h *TrimHandler) Handle(ctx context.Context, r slog.Record) error {
	trimmed := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		trimmed.AddAttrs(h.trimAttr(a))
		return true
	})

	return h.handler.Handle(ctx, trimmed)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are trimmed before being added.
func (h *TrimHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	trimmedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		trimmedAttrs[i] = h.trimAttr(a)
	}
	return &TrimHandler{handler: h.handler.WithAttrs(trimmedAttrs), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TrimHandler) WithGroup(name string) slog.Handler {
	return &TrimHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// trimAttr trims a single attribute, recursively handling groups.
func (h *TrimHandler) trimAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		trimmedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			trimmedAttrs[i] = h.trimAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(trimmedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		if trimmed, cut := truncate(a.Value.String(), h.maxLen); cut {
			return slog.String(a.Key, trimmed)
		}
	}

	return a
}

// truncate cuts s to maxLen runes and reports whether anything was cut.
// Cutting at rune boundaries keeps multi-byte text valid.
func truncate(s string, maxLen int) (string, bool) {
	if utf8.RuneCountInString(s) <= maxLen {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + TruncationMark, true
}

// NewLogger creates a new slog.Logger with attribute trimming.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	trimHandler := NewTrimHandler(textHandler, DefaultMaxAttrLen)

	return slog.New(trimHandler)
}

// NewJSONLogger creates a new slog.Logger with attribute trimming that
// outputs JSON format. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	trimHandler := NewTrimHandler(jsonHandler, DefaultMaxAttrLen)

	return slog.New(trimHandler)
}
