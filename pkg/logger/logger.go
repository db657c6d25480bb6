package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap with printf-style helpers and an error-first Error
// signature. The embedded *zap.Logger keeps structured methods available.
type Logger struct {
	*zap.Logger
}

// NewLogger builds a logger for the environment: JSON in production,
// colored console elsewhere, silent under "test".
func NewLogger(env string) *Logger {
	switch env {
	case "production":
		return build(zap.NewProductionConfig())
	case "test":
		return &Logger{Logger: zap.NewNop()}
	default:
		config := zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return build(config)
	}
}

func build(config zap.Config) *Logger {
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{Logger: logger}
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.Logger.Info(msg, fields...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Logger.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, fields...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Logger.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	l.Logger.Error(msg, fields...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Logger.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	l.Logger.Fatal(msg, fields...)
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
