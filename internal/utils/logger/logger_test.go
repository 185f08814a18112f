package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewZapLogger(t *testing.T) {
	t.Run("json output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log, err := NewZapLogger(&Config{Level: "info", Format: "json", Output: buf})
		require.NoError(t, err)

		log.Info("batch completed", zap.Int("batch", 2))
		log.Debug("hidden")
		require.NoError(t, log.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "batch completed", entry["msg"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, float64(2), entry["batch"])
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("console output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log, err := NewZapLogger(&Config{Level: "debug", Format: "console", Output: buf})
		require.NoError(t, err)

		log.Debug("cooldown", zap.String("provider", "openai"))
		require.NoError(t, log.Sync())

		assert.Contains(t, buf.String(), "cooldown")
		assert.Contains(t, buf.String(), "openai")
	})

	t.Run("nil config", func(t *testing.T) {
		log, err := NewZapLogger(nil)
		require.NoError(t, err)
		assert.NotNil(t, log)
	})
}
