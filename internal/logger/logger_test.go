package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer, level string) *Logger {
	return New(&Config{Level: level, Format: "json", Output: buf, ServiceName: "test"})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		lines = append(lines, m)
	}
	return lines
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, "info")

	log.WithError(errors.New("boom")).WithField("k", "v").Warn("something odd")
	log.Debug("suppressed")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "something odd", lines[0]["message"])
	assert.Equal(t, "warning", lines[0]["level"])
	assert.Equal(t, "test", lines[0]["service"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "v", lines[0]["k"])
	assert.Contains(t, lines[0]["file"], "logger_test.go:")
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := newBufferLogger(&buf, "debug").WithContext(context.Background())

	ctx = SetRequestID(ctx, "req-1")
	ctx = SetRunID(ctx, 42)
	ctx = SetStage(ctx, "keywords")
	ctx = SetComponent(ctx, "harvester")
	ctx = SetSource(ctx, "youtube")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "42", GetFieldString(ctx, FieldRunID))
	assert.Equal(t, "", GetFieldString(ctx, "missing"))

	FromContext(ctx).Infof("stage %s done", "keywords")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "stage keywords done", lines[0]["message"])
	assert.Equal(t, "req-1", lines[0][FieldRequestID])
	assert.Equal(t, float64(42), lines[0][FieldRunID])
	assert.Equal(t, "keywords", lines[0][FieldStage])
	assert.Equal(t, "harvester", lines[0][FieldComponent])
	assert.Equal(t, "youtube", lines[0][FieldSource])
}

func TestEntryMetrics(t *testing.T) {
	var buf bytes.Buffer
	ctx := newBufferLogger(&buf, "info").WithContext(context.Background())

	With(nil).WithCount(3).WithStatus("ok").WithDuration(time.Now().Add(-20*time.Millisecond)).
		Info(ctx, "saved %d rows", 3)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(3), lines[0][FieldCount])
	assert.Equal(t, "ok", lines[0][FieldStatus])
	assert.GreaterOrEqual(t, lines[0][FieldDurationMs], float64(20))
}

func TestEntryWithDoesNotMutateParent(t *testing.T) {
	parent := With(Fields{"a": 1})
	child := parent.With(Fields{"b": 2})

	assert.Len(t, parent.fields, 1)
	assert.Len(t, child.fields, 2)
}

func TestFromContextFallbacks(t *testing.T) {
	var buf bytes.Buffer
	fallback := newBufferLogger(&buf, "info")

	assert.Same(t, fallback, FromContextOr(context.Background(), fallback))
	assert.Same(t, GetDefault(), FromContext(context.Background()))

	stored := fallback.WithField("x", 1)
	ctx := stored.WithContext(context.Background())
	assert.Same(t, stored, FromContextOr(ctx, fallback))
}

func TestNewFromEnvWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log := NewFromEnv(&EnvConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "test",
		Environment: "prod",
		LogFile:     path,
		LogFileOnly: true,
		MaxSize:     1,
	})

	log.Info("to file")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}

func TestOverrideRespectsEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "text")

	cfg := (&EnvConfig{Level: "info", Format: "json"}).Override("debug", "json")
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format, "LOG_FORMAT is set so the file value is ignored")
}
