package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	sessionIDKey ctxKey = "session_id"
)

const (
	EnvDebug      = "debug"
	EnvProduction = "production"
)

// Logger is the service logger. Plain leveled methods come from the embedded
// SugaredLogger; the *wCtx variants add request and session ids.
type Logger struct {
	*zap.SugaredLogger
}

// New builds the root logger named after the service.
func New(serviceName, env string) (*Logger, error) {
	cfg := buildConfig(env)

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build zap config: %w", err)
	}
	return &Logger{SugaredLogger: z.Named(serviceName).Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// EnvFor maps the DEBUG flag onto a logger environment.
func EnvFor(debug bool) string {
	if debug {
		return EnvDebug
	}
	return EnvProduction
}

// buildConfig returns console output with callers and stack traces at debug
// level for EnvDebug, and JSON at info level for anything else.
func buildConfig(env string) zap.Config {
	var cfg zap.Config
	if strings.EqualFold(strings.TrimSpace(env), EnvDebug) {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.CallerKey = "caller"
		cfg.DisableStacktrace = false
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.EncoderConfig.CallerKey = zapcore.OmitKey
		cfg.DisableStacktrace = true
		cfg.Sampling = nil
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.NameKey = "logger"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	return cfg
}

func (l *Logger) Named(name string) LoggerInterface {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}

// SafeSync flushes buffered entries, ignoring the errors stdout and ttys
// return for fsync.
func (l *Logger) SafeSync() {
	if l == nil {
		return
	}
	if err := l.Desugar().Sync(); err != nil && !isIgnorableSyncError(err) {
		l.Errorw("log sync failed", "error", err)
	}
}

func isIgnorableSyncError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "invalid argument") ||
		strings.Contains(s, "inappropriate ioctl for device")
}

func (l *Logger) InfowCtx(ctx context.Context, msg string, kv ...any) {
	l.ctxLogger().Infow(msg, contextFields(ctx, kv)...)
}

func (l *Logger) WarnwCtx(ctx context.Context, msg string, kv ...any) {
	l.ctxLogger().Warnw(msg, contextFields(ctx, kv)...)
}

func (l *Logger) ErrorwCtx(ctx context.Context, msg string, kv ...any) {
	l.ctxLogger().Errorw(msg, contextFields(ctx, kv)...)
}

// ctxLogger skips the *wCtx frame so callers are reported correctly.
func (l *Logger) ctxLogger() *zap.SugaredLogger {
	return l.SugaredLogger.WithOptions(zap.AddCallerSkip(1))
}

func contextFields(ctx context.Context, kv []any) []any {
	if s, ok := ctx.Value(requestIDKey).(string); ok && s != "" {
		kv = append(kv, "request_id", s)
	}
	if s, ok := ctx.Value(sessionIDKey).(string); ok && s != "" {
		kv = append(kv, "session_id", s)
	}
	return kv
}

// ContextWithRequestID tags ctx so *wCtx calls log request_id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithSessionID tags ctx so *wCtx calls log session_id.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}
