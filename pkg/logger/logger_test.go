package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerDefaults(t *testing.T) {
	// Level alone is enough; encoding and output paths get defaults.
	logger, err := newLogger(Config{Level: "warn"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewLoggerExplicitEncoding(t *testing.T) {
	logger, err := newLogger(Config{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	require.NoError(t, Init(Config{Level: "warn"}))
	require.NotNil(t, Get())
}
