package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{sugar: zap.New(core).Sugar()}, logs
}

func TestLoggerRedactsSecrets(t *testing.T) {
	log, logs := observedLogger()

	log.Info("login",
		"user_id", 7,
		"password", "hunter2",
		"Authorization", "Bearer abc",
		"email", "a@example.com",
		"note", "eyJhbGciOiJIUzI1NiJ9.eyJ1c2VyX2lkIjoxfQ.signature",
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, 7, fields["user_id"])
	assert.Equal(t, "[REDACTED]", fields["password"])
	assert.Equal(t, "[REDACTED]", fields["Authorization"])
	assert.Equal(t, "[REDACTED]", fields["email"])
	assert.Equal(t, "[REDACTED]", fields["note"])
}

func TestLoggerWith(t *testing.T) {
	log, logs := observedLogger()

	log.With("service", "Test", "api_key", "k").Warn("odd")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "Test", fields["service"])
	assert.Equal(t, "[REDACTED]", fields["api_key"])
}

func TestNewLogger(t *testing.T) {
	for _, mode := range []string{"development", "production"} {
		l, err := NewLogger(mode)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
	NopLogger().Info("discarded", "k", "v")
}
