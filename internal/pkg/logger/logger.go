package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создает zap логгер: JSON в production, цветная консоль при уровне debug.
// service добавляется ко всем записям; outputs по умолчанию stdout.
func New(level, service string, outputs ...string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(outputs) > 0 {
		config.OutputPaths = outputs
	}

	if zapLevel == zapcore.DebugLevel {
		config.Development = true
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := config.Build()
	if err != nil {
		return nil, err
	}
	if service != "" {
		log = log.With(zap.String("service", service))
	}
	return log, nil
}
