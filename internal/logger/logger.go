package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger for the given format: "console" for local development,
// anything else for JSON.
func New(format string, debug bool) (*zap.Logger, error) {
	if strings.EqualFold(format, "console") {
		return NewDevelopmentLogger(debug)
	}
	return NewProductionLogger(debug)
}

// NewProductionLogger creates a JSON logger with ISO8601 timestamps and
// stack traces on error level.
func NewProductionLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = levelFor(debug)
	config.Encoding = "json"
	config.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	config.DisableStacktrace = false
	return config.Build()
}

// NewDevelopmentLogger creates a console logger.
func NewDevelopmentLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = levelFor(debug)
	return config.Build()
}

func levelFor(debug bool) zap.AtomicLevel {
	if debug {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zapcore.InfoLevel)
}

// Sync flushes buffered entries. Safe on a nil logger.
func Sync(log *zap.Logger) error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
