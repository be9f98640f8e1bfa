package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"batterycode-go/drivers/acerbat"
)

// NewLogger builds the process logger from the log options.
func NewLogger(opts LogOptions) (*zap.Logger, error) {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:    "message",
		LevelKey:      "level",
		TimeKey:       "timestamp",
		NameKey:       "logger",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeDuration: func(d time.Duration, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendFloat64(float64(d) / float64(time.Millisecond))
		},
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         opts.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// zapDiagnostics routes driver diagnostics into zap.
type zapDiagnostics struct {
	log *zap.Logger
}

var _ acerbat.Diagnostics = zapDiagnostics{}

func (z zapDiagnostics) TransferFailed(r acerbat.Reading) {
	z.log.Warn("register transfer failed",
		zap.Stringer("register", r.Reg),
		zap.Stringer("phase", r.Phase),
		zap.Uint8("attempts", r.Attempts),
		zap.Error(r.Err),
	)
}

func (z zapDiagnostics) UnsupportedProperty(p acerbat.Property) {
	z.log.Info("unsupported property requested", zap.Stringer("property", p))
}
