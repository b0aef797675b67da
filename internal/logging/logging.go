// (c) 2020, Alex Willmer, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging wraps zap behind a small interface so the rest of the
// repository depends on a handful of verbs (Info/Warn/Error/Debug) rather
// than on zap directly, the way utils/logging wraps its backend for the
// whole node.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the subset of structured-logging verbs consumed by the agent.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	*zap.Logger
}

func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l.Logger.With(fields...)}
}

// Config controls where and how logs are written.
type Config struct {
	Level       string // debug|info|warn|error
	Highlight   string // plain|colors|auto
	Dir         string // rotated file output; empty disables file logging
	MaxSizeMB   int
	MaxBackups  int
	DisplayOnly bool // stdout only, no file output even when Dir is set
}

// DefaultConfig mirrors the zero-config defaults a freshly started agent
// should use.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Highlight:  "auto",
		MaxSizeMB:  50,
		MaxBackups: 5,
	}
}

// New builds a Logger from cfg.
func New(cfg Config) (Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if highlightEnabled(cfg.Highlight) {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Dir != "" && !cfg.DisplayOnly {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Dir + "/agent.log",
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		jsonEncoder := zapcore.NewJSONEncoder(encoderCfg)
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), level))
	}

	core := zapcore.NewTee(cores...)
	return &zapLogger{zap.New(core)}, nil
}

// highlightEnabled resolves the "auto" mode against whether stdout is a
// terminal, the way the original highlight.go resolved it against
// golang.org/x/crypto/ssh/terminal; this repository targets the newer
// golang.org/x/term package instead.
func highlightEnabled(mode string) bool {
	switch mode {
	case "colors":
		return true
	case "plain":
		return false
	default: // auto
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}

// NoOp returns a Logger that discards everything, for tests that don't care
// about log output.
func NoOp() Logger {
	return &zapLogger{zap.NewNop()}
}
