package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"DEBUG": zapcore.DebugLevel,
		"debug": zapcore.DebugLevel,
		"INFO":  zapcore.InfoLevel,
		"Warn":  zapcore.WarnLevel,
		"ERROR": zapcore.ErrorLevel,
		"FATAL": zapcore.FatalLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseLevelInvalid(t *testing.T) {
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLoggerFromString(t *testing.T) {
	logger, err := NewLoggerFromString("DEBUG")
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Debug("hello", "k", "v")

	_, err = NewLoggerFromString("nope")
	assert.Error(t, err)
}

func TestWithFieldReturnsChildLogger(t *testing.T) {
	logger := NewNop()
	child := logger.WithField("symbol", "AAPL")
	require.NotNil(t, child)
	grandchild := child.WithFields(map[string]interface{}{"cycle": 1})
	require.NotNil(t, grandchild)
	grandchild.Info("still works")
}
