package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs are written.
type Options struct {
	// File, when set, receives a copy of every entry and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New creates a production-ready structured logger configured for JSON output.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false

	var buildOpts []zap.Option
	if opts.File != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(cfg.EncoderConfig),
			zapcore.AddSync(newRotator(opts)),
			cfg.Level,
		)
		buildOpts = append(buildOpts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	logger, err := cfg.Build(buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func newRotator(opts Options) *lumberjack.Logger {
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	if opts.MaxSizeMB > 0 {
		rotator.MaxSize = opts.MaxSizeMB
	}
	if opts.MaxBackups > 0 {
		rotator.MaxBackups = opts.MaxBackups
	}
	if opts.MaxAgeDays > 0 {
		rotator.MaxAge = opts.MaxAgeDays
	}
	return rotator
}
