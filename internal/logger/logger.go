package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Logger is a thin structured-logging wrapper over zap's SugaredLogger.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger for the given mode: "prod"/"production" emits JSON at info level,
// anything else uses zap's development console encoder at debug level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, keysAndValues...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

type fieldsKey struct{}

// ContextWith returns a copy of ctx carrying extra key-value pairs, appended to
// any already present. WithContext attaches them to log entries.
func ContextWith(ctx context.Context, keysAndValues ...interface{}) context.Context {
	existing := fieldsFrom(ctx)
	fields := make([]interface{}, 0, len(existing)+len(keysAndValues))
	fields = append(fields, existing...)
	fields = append(fields, keysAndValues...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func fieldsFrom(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]interface{})
	return fields
}

// WithContext returns a logger carrying the request-scoped fields stored in ctx,
// such as the request and user ids set by the HTTP middleware.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := fieldsFrom(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
