package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_CountLevel(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Warn("first")
	logger.Warn("second")
	logger.Info("third")

	assert.Equal(t, 2, logger.CountLevel("warn"))
	assert.Equal(t, 1, logger.CountLevel("info"))
	assert.Equal(t, 0, logger.CountLevel("error"))
}

func TestMockLogger_ImplementsLoggerInterface(t *testing.T) {
	var l logging.Logger = testutil.NewMockLogger()

	// With and Named must return a usable Logger without panicking.
	l.With(logging.String("k", "v")).Named("sub").Info("ok")
	assert.NotNil(t, l)
}
