package logger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			Logger.Sync()
			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestNamed(t *testing.T) {
	require.NoError(t, Initialize(false))
	defer func() { Logger = zap.NewNop().Sugar() }()

	child := Named("tenant.router")
	require.NotNil(t, child)
}

func TestMinimalEncoderFormat(t *testing.T) {
	enc := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2026, 3, 1, 13, 4, 35, 0, time.UTC),
		LoggerName: "tenant.router",
		Message:    "World store opened",
	}
	fields := []zapcore.Field{
		zap.String("world", "mundo1"),
		zap.Int64("entities", 12),
	}

	buf, err := enc.EncodeEntry(entry, fields)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "t.router")
	assert.Contains(t, out, "World store opened")
	assert.Contains(t, out, "world=mundo1")
	assert.Contains(t, out, "entities=12")
	// INFO level is implicit in the minimal format
	assert.NotContains(t, out, "INFO")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestMinimalEncoderWarnAndError(t *testing.T) {
	enc := newMinimalEncoder()

	warn, err := enc.EncodeEntry(zapcore.Entry{Level: zapcore.WarnLevel, Time: time.Now(), Message: "careful"}, nil)
	require.NoError(t, err)
	assert.Contains(t, warn.String(), "WARN")

	errBuf, err := enc.EncodeEntry(zapcore.Entry{Level: zapcore.ErrorLevel, Time: time.Now(), Message: "boom"}, nil)
	require.NoError(t, err)
	assert.Contains(t, errBuf.String(), "ERROR")
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "t.router", abbreviateName("tenant.router"))
	assert.Equal(t, "c.store", abbreviateName("codex.store"))
	assert.Equal(t, "db", abbreviateName("db"))
}
