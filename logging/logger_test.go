package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*ZerologAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"":        LogLevelInfo,
		"INFO":    LogLevelInfo,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_JSONFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.Debug("hidden")
	logger.Info("turn.complete", "session_id", "s1", "fragments", 3, "err", errors.New("boom"), "ok", true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "turn.complete", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, float64(3), entry["fragments"])
	assert.Equal(t, "boom", entry["err"])
	assert.Equal(t, true, entry["ok"])
}

func TestZerologAdapter_DanglingKey(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Config{Level: LogLevelDebug, Output: &buf})

	logger.Warn("odd", "key")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "key", entry["!BADKEY"])
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.Error("router.route.failed", "utterance", "hello")

	assert.Contains(t, buf.String(), `"msg":"router.route.failed"`)
	assert.Contains(t, buf.String(), `"utterance":"hello"`)
}
