// Package logging configures the process-wide zap logger. Packages log
// through zap.S(); binaries call Init once at startup.
package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Init builds the production logger at the given level and installs it
// as the zap global. Returns a flush func for deferred Sync.
func Init(level string) (func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }, nil
}

// WithRequestID adds request_id to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// FromContext returns the global sugared logger, tagged with the
// context's request_id when present.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return zap.S().With("request_id", reqID)
	}
	return zap.S()
}
