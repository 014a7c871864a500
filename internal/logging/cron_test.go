package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCronLoggerLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := NewCronLogger(zap.New(core))

	l.Info("wake", "now", "03:00")
	l.Error(errors.New("panic: boom"), "panic", "stack", "...")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "wake", entries[0].Message)
	assert.Equal(t, "03:00", entries[0].ContextMap()["now"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "panic: boom", entries[1].ContextMap()["error"])
}
