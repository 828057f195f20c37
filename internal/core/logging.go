package core

import "go.uber.org/zap"

// ZapLogger adapts a zap logger to the session Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps the supplied zap logger. A nil logger falls back to
// zap.NewNop so the adapter is always safe to call.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.Sugar()}
}

// Debug implements Logger.
func (l *ZapLogger) Debug(msg string, keyvals ...any) { l.sugar.Debugw(msg, keyvals...) }

// Info implements Logger.
func (l *ZapLogger) Info(msg string, keyvals ...any) { l.sugar.Infow(msg, keyvals...) }

// Warn implements Logger.
func (l *ZapLogger) Warn(msg string, keyvals ...any) { l.sugar.Warnw(msg, keyvals...) }

// Error implements Logger.
func (l *ZapLogger) Error(msg string, keyvals ...any) { l.sugar.Errorw(msg, keyvals...) }
