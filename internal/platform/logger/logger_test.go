package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name  string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tc := range testCases {
		level, ok := logger.ParseLevel(tc.name)
		assert.Equal(t, tc.level, level, tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("hidden")
	l.Warn("visible", "component", "test")

	assert.NotContains(t, buf.String(), "hidden")
	logger.AssertLogContains(t, buf, "visible")
	logger.AssertLogField(t, buf, "component", "test")
	assert.Same(t, l, slog.Default())
}

func TestSetupWithInvalidLevel(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	_, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "chatty"}, buf)
	require.NoError(t, err)

	logger.AssertLogField(t, buf, "configured_level", "chatty")
}

func TestContextLogger(t *testing.T) {
	t.Parallel()
	_, l := logger.NewTestLogger(t)

	_, ok := logger.FromContext(context.Background())
	assert.False(t, ok)
	assert.Same(t, slog.Default(), logger.FromContextOrDefault(context.Background()))

	ctx := logger.WithLogger(context.Background(), l)
	got, ok := logger.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, l, got)
	assert.Same(t, l, logger.FromContextOrDefault(ctx))
}

func TestLogEntries(t *testing.T) {
	t.Parallel()
	buf, l := logger.NewTestLogger(t)
	l.Debug("one", "n", 1)
	l.Info("two")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0]["msg"])
	assert.Equal(t, float64(1), entries[0]["n"])

	buf.Reset()
	assert.Empty(t, buf.String())
}
