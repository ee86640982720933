package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Logger is a sugared zap logger whose key/value pairs pass through a
// redactor before they are written.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        *redactor
}

type Option func(*redactor)

// WithRedaction toggles credential redaction (on by default). salt is mixed
// into hashed correlation values.
func WithRedaction(enabled bool, salt string) Option {
	return func(r *redactor) {
		r.enabled = enabled
		r.salt = strings.TrimSpace(salt)
	}
}

func New(mode string, opts ...Option) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	r := &redactor{enabled: true}
	for _, opt := range opts {
		opt(r)
	}
	return &Logger{SugaredLogger: z.Sugar(), redact: r}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), redact: &redactor{}}
}

func (l *Logger) Sync() { _ = l.SugaredLogger.Sync() }

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, l.redact.apply(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, l.redact.apply(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, l.redact.apply(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, l.redact.apply(kv)...) }
func (l *Logger) Fatal(msg string, kv ...any) { l.SugaredLogger.Fatalw(msg, l.redact.apply(kv)...) }

func (l *Logger) With(kv ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.redact.apply(kv)...), redact: l.redact}
}

type fieldAction int

const (
	keep fieldAction = iota
	drop
	hash
)

// Substrings of keys that carry OAuth credentials or contact details.
var redactedKeyParts = []string{"token", "authorization", "secret", "password", "cookie", "email"}

// Correlation keys stay joinable across lines without exposing replayable
// values.
var hashedKeyParts = []string{"user_id", "session"}

type redactor struct {
	enabled bool
	salt    string
}

func (r *redactor) apply(kv []any) []any {
	if r == nil || !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := stringify(kv[i])
		out = append(out, key, r.value(normalizeKey(key), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (r *redactor) value(key string, v any) any {
	switch classify(key) {
	case drop:
		return "[REDACTED]"
	case hash:
		return r.hash(v)
	}
	if m, ok := v.(map[string]any); ok {
		clean := make(map[string]any, len(m))
		for k, inner := range m {
			clean[k] = r.value(normalizeKey(k), inner)
		}
		return clean
	}
	return v
}

func classify(key string) fieldAction {
	if key == "" {
		return keep
	}
	if key == "code" {
		return drop
	}
	for _, part := range redactedKeyParts {
		if strings.Contains(key, part) {
			return drop
		}
	}
	if key == "state" || key == "user" {
		return hash
	}
	for _, part := range hashedKeyParts {
		if strings.Contains(key, part) {
			return hash
		}
	}
	return keep
}

func (r *redactor) hash(v any) string {
	raw := stringify(v)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func normalizeKey(k string) string { return strings.ToLower(strings.TrimSpace(k)) }

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
