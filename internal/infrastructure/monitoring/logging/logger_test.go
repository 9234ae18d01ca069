package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Helper to create a logger that writes to a buffer for verification
func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, buf, zapcore.DebugLevel)
	z := zap.New(core)
	return &zapLogger{z: z}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	cfg := LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
	l, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	cfg := LogConfig{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{"stdout"},
	}
	l, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_EmptyConfigUsesDefaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNewNopLogger_NotNil(t *testing.T) {
	l := NewNopLogger()
	assert.NotNil(t, l)
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	// Should not panic
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
}

func TestNopLogger_With_ReturnsSelf(t *testing.T) {
	l := NewNopLogger()
	l2 := l.With(String("k", "v"))
	assert.Equal(t, l, l2)
}

func TestNopLogger_Named_ReturnsSelf(t *testing.T) {
	l := NewNopLogger()
	l2 := l.Named("sub")
	assert.Equal(t, l, l2)
}

func TestZapLogger_Debug_WritesLog(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Debug("debug msg")
	assert.Contains(t, buf.String(), "debug msg")
	assert.Contains(t, buf.String(), "\"level\":\"debug\"")
}

func TestZapLogger_Info_WritesLog(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Info("info msg")
	assert.Contains(t, buf.String(), "info msg")
	assert.Contains(t, buf.String(), "\"level\":\"info\"")
}

func TestZapLogger_Warn_WritesLog(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Warn("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
	assert.Contains(t, buf.String(), "\"level\":\"warn\"")
}

func TestZapLogger_Error_WritesLog(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Error("error msg")
	assert.Contains(t, buf.String(), "error msg")
	assert.Contains(t, buf.String(), "\"level\":\"error\"")
}

func TestZapLogger_With_AddsFields(t *testing.T) {
	l, buf := newTestLogger(t)
	l.With(String("imo", "9321483")).Info("msg")
	assert.Contains(t, buf.String(), "\"imo\":\"9321483\"")
}

func TestZapLogger_Named_PrefixesLoggerName(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Named("scheduler").Info("msg")
	assert.Contains(t, buf.String(), "scheduler")
}

func TestZapLogger_TypedFields(t *testing.T) {
	l, buf := newTestLogger(t)
	due := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	l.Info("recalculated",
		String("ship", "MV Aurora"),
		Int("certificates", 12),
		Int64("elapsed_ms", 42),
		Bool("cached", false),
		Time("next_due", due),
		Duration("took", 42*time.Millisecond),
	)
	out := buf.String()
	assert.Contains(t, out, "\"ship\":\"MV Aurora\"")
	assert.Contains(t, out, "\"certificates\":12")
	assert.Contains(t, out, "\"elapsed_ms\":42")
	assert.Contains(t, out, "\"cached\":false")
	assert.Contains(t, out, "2026-06-15")
}

func TestErr_NilError(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestErr_NonNilError(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Error("failed", Err(errors.New("boom")))
	assert.Contains(t, buf.String(), "\"error\":\"boom\"")
}

func TestWarnFieldOfTypeError_UsesNamedError(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Warn("retrying", Any("cause", errors.New("broker down")))
	assert.Contains(t, buf.String(), "\"cause\":\"broker down\"")
}
