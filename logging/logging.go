// Package logging builds the zap logger of the server and adapts it to the
// pipeline's stage logger.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/config"
)

// New builds a logger writing to cfg.Output. Any output other than stdout
// and stderr is a file path rotated by size.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	ws, err := writeSyncer(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithSyncer(cfg, ws), nil
}

// NewWithSyncer builds a logger writing to ws.
func NewWithSyncer(cfg config.LoggingConfig, ws zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(encoder(cfg.Format), ws, ParseLevel(cfg.Level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func encoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func writeSyncer(cfg config.LoggingConfig) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}
	if cfg.MaxSizeMB <= 0 {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return zapcore.AddSync(file), nil
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}), nil
}

// ParseLevel maps a level name to its zap level, info when unknown.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	}
	return zapcore.InfoLevel
}

// StageLogger records pipeline stages on a zap logger: completions at debug
// level, client errors at warn level and server errors at error level.
type StageLogger struct {
	log *zap.Logger
}

var _ natours.Logger = StageLogger{}

func NewStageLogger(log *zap.Logger) StageLogger {
	return StageLogger{log: log.Named("pipeline")}
}

func (l StageLogger) LogMessage(msg string) {
	l.log.Debug(msg)
}

func (l StageLogger) LogStageStart(print string, in any) {}

func (l StageLogger) LogStageComplete(success bool, elapsed time.Duration, print string, out any) {
	l.log.Debug("stage complete",
		zap.String("stage", strings.TrimSpace(print)),
		zap.Bool("success", success),
		zap.Duration("elapsed", elapsed),
	)
}

func (l StageLogger) LogStageError(e *natours.StageError) {
	fields := []zap.Field{zap.Int("status", e.Code), zap.String("message", e.Message())}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}
	if e.Code >= 500 {
		l.log.Error("stage failed", fields...)
		return
	}
	l.log.Warn("stage failed", fields...)
}
