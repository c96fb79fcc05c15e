// Package logger builds the zap loggers used across Mentoria Hub and carries
// them through context.Context.
package logger

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Environment selects the encoder: "production" gets JSON, anything else
	// gets the colourised development console.
	Environment string

	// Level is one of debug, info, warn, error.
	Level string

	// Format overrides the encoder ("json" or "console"). Empty keeps the
	// environment default.
	Format string
}

// New builds a *zap.Logger for the given options.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config

	if opts.Environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		cfg.Encoding = "json"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case "console", "text":
		cfg.Encoding = "console"
	}

	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Must is New that panics on error. Use it only in main packages.
func Must(opts Options) *zap.Logger {
	l, err := New(opts)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return l
}

// ParseLevel maps a level name to a zapcore.Level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT PROPAGATION
// ══════════════════════════════════════════════════════════════════════════════

type contextKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return zap.NewNop()
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN FIELDS
// ══════════════════════════════════════════════════════════════════════════════

func SessionID(id string) zap.Field   { return zap.String("session_id", id) }
func MentorID(id string) zap.Field    { return zap.String("mentor_id", id) }
func MenteeID(id string) zap.Field    { return zap.String("mentee_id", id) }
func UserID(id string) zap.Field      { return zap.String("user_id", id) }
func Status(s string) zap.Field       { return zap.String("status", s) }
func Component(name string) zap.Field { return zap.String("component", name) }
func Operation(name string) zap.Field { return zap.String("operation", name) }
func RequestID(id string) zap.Field   { return zap.String("request_id", id) }
func Latency(d time.Duration) zap.Field {
	return zap.Duration("latency", d)
}
