package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithWritersFansOut(t *testing.T) {
	var text, js bytes.Buffer
	l := WithWriters(&text, &js, slog.LevelInfo)

	l.Debug("hidden")
	l.Info("batch started", "total", 5)

	assert.Contains(t, text.String(), "batch started")
	assert.NotContains(t, text.String(), "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &rec))
	assert.Equal(t, "batch started", rec["msg"])
	assert.Equal(t, float64(5), rec["total"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
