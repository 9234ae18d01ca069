// Package logging wraps zap behind a small structured-logging interface.
// Components receive a Logger at construction time and derive scoped
// children with Named or With; nothing in the platform logs through a
// package-level global.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a typed key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field                 { return Field{Key: key, Value: value} }
func Int(key string, value int) Field                { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field            { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field              { return Field{Key: key, Value: value} }
func Time(key string, value time.Time) Field         { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field        { return Field{Key: key, Value: value} }

// Err records an error under the conventional "error" key. A nil error
// is logged as "<nil>" rather than dropped, so call sites never have to
// branch before logging.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err}
}

// Logger is the logging surface used across the platform.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs the message and exits the process. Reserved for
	// unrecoverable startup failures in the entrypoints.
	Fatal(msg string, fields ...Field)
	// With returns a child logger carrying the given fields on every
	// subsequent entry.
	With(fields ...Field) Logger
	// Named returns a child logger whose entries carry the given name,
	// dot-joined with any parent names.
	Named(name string) Logger
}

// LogConfig controls logger construction. Zero values fall back to
// info-level JSON on stdout.
type LogConfig struct {
	Level            string   `yaml:"level" json:"level"`
	Format           string   `yaml:"format" json:"format"`
	OutputPaths      []string `yaml:"output_paths" json:"output_paths"`
	ErrorOutputPaths []string `yaml:"error_output_paths" json:"error_output_paths"`
}

// NewLogger builds a zap-backed Logger from cfg.
func NewLogger(cfg LogConfig) (Logger, error) {
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := cfg.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}

	format := cfg.Format
	if format != "console" {
		format = "json"
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         format,
		EncoderConfig:    encCfg,
		OutputPaths:      outputs,
		ErrorOutputPaths: errOutputs,
	}

	z, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

func parseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZap(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZap(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZap(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZap(fields)...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, toZap(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(toZap(fields)...)}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func toZap(fields []Field) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			zf = append(zf, zap.String(f.Key, v))
		case int:
			zf = append(zf, zap.Int(f.Key, v))
		case int64:
			zf = append(zf, zap.Int64(f.Key, v))
		case bool:
			zf = append(zf, zap.Bool(f.Key, v))
		case time.Time:
			zf = append(zf, zap.Time(f.Key, v))
		case time.Duration:
			zf = append(zf, zap.Duration(f.Key, v))
		case error:
			zf = append(zf, zap.NamedError(f.Key, v))
		default:
			zf = append(zf, zap.Any(f.Key, v))
		}
	}
	return zf
}

// NewNopLogger returns a Logger that discards everything. Used where a
// component requires a logger but the output is irrelevant, mostly in
// tests.
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }
func (n nopLogger) Named(string) Logger  { return n }
