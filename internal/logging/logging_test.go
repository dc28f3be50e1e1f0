package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	logger, err := New(Config{Level: "chatty", Format: "json"})
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewHonoursDebugLevel(t *testing.T) {
	logger, err := New(Config{Level: "DEBUG", Format: "console"})
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestPrintfAdapterWritesInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	adapter := NewPrintfAdapter(zap.New(core))

	adapter.Printf("OK   %s (%s)\n", "00001_pricing.sql", "1ms")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "OK   00001_pricing.sql (1ms)", entries[0].Message)
}
