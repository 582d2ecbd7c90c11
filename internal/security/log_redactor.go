// Package security provides data leakage prevention utilities.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces anything that looks like a credential.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns matches credential-shaped substrings. Order matters: the
// Bearer pattern runs before the bare key pattern so the scheme is consumed too.
var sensitivePatterns = []*regexp.Regexp{
	// Authorization header values
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.\-]{8,}`),
	// OpenAI keys: sk-..., sk-proj-..., sk-svcacct-...
	regexp.MustCompile(`sk-[a-zA-Z0-9_\-]{16,}`),
	// Keys echoed back in query strings
	regexp.MustCompile(`(?i)(api[_-]?key|key)=[a-zA-Z0-9_\-]{16,}`),
	// Anything else long enough to be a secret
	regexp.MustCompile(`[a-zA-Z0-9_\-]{48,}`),
}

// sensitiveKeySuffixes marks attribute names whose values are never logged.
var sensitiveKeySuffixes = []string{
	"key",
	"secret",
	"password",
	"token",
	"authorization",
	"bearer",
}

// Redact scans a string for credential patterns and replaces them.
func Redact(s string) string {
	result := s
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// RedactedHandler wraps an slog.Handler and redacts credentials from every
// record before it reaches the inner handler.
type RedactedHandler struct {
	inner slog.Handler
}

// NewRedactedHandler wraps inner.
func NewRedactedHandler(inner slog.Handler) *RedactedHandler {
	return &RedactedHandler{inner: inner}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle redacts the message and attributes of r.
func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, redacted)
}

// WithAttrs returns a new handler with the given attributes redacted and added.
func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactedPlaceholder)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(v.String()))
	case slog.KindGroup:
		group := v.Group()
		redacted := make([]any, len(group))
		for i, ga := range group {
			redacted[i] = redactAttr(ga)
		}
		return slog.Group(a.Key, redacted...)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return slog.String(a.Key, Redact(x.Error()))
		case []string:
			out := make([]string, len(x))
			for i, s := range x {
				out[i] = Redact(s)
			}
			return slog.Any(a.Key, out)
		}
	}

	return slog.Attr{Key: a.Key, Value: v}
}

// IsSensitiveKey reports whether an attribute name is known to carry a
// credential (api_key, openai_key, authorization, ...). Plural counters such
// as total_tokens are not sensitive.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, suffix := range sensitiveKeySuffixes {
		if strings.HasSuffix(k, suffix) {
			return true
		}
	}
	return false
}
