package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, LevelInfo)
	l.nowFunc = func() time.Time { return time.Unix(0, 0).UTC() }

	l.Info("compaction finished", F("family", "nodes"), F("tables_merged", 3))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "info", decoded["level"])
	require.Equal(t, "compaction finished", decoded["msg"])
	fields := decoded["fields"].(map[string]any)
	require.Equal(t, "nodes", fields["family"])
}

func TestJSONLoggerRespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, LevelWarn)
	l.Debug("should not appear")
	require.Empty(t, buf.Bytes())
}

func TestWithAttachesPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, LevelInfo)
	scoped := l.With(F("component", "gateway"))
	scoped.Info("started")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	fields := decoded["fields"].(map[string]any)
	require.Equal(t, "gateway", fields["component"])
}
