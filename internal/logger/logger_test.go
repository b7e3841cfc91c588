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
	"gorm.io/gorm"
)

func TestLogLevelsFilterOutput(t *testing.T) {
	testCases := []struct {
		level    LogLevel
		visible  []string
		filtered []string
	}{
		{LogLevelTrace, []string{"trace-msg", "debug-msg", "info-msg", "warn-msg", "error-msg"}, nil},
		{LogLevelInfo, []string{"info-msg", "warn-msg", "error-msg"}, []string{"trace-msg", "debug-msg"}},
		{LogLevelError, []string{"error-msg"}, []string{"debug-msg", "info-msg", "warn-msg"}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.level), func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := NewSlogLogger(buf, tc.level, time.UTC)

			log.Trace("trace-msg")
			log.Debug("debug-msg")
			log.Info("info-msg")
			log.Warn("warn-msg")
			log.Error("error-msg")

			out := buf.String()
			for _, msg := range tc.visible {
				assert.Contains(t, out, msg)
			}
			for _, msg := range tc.filtered {
				assert.NotContains(t, out, msg)
			}
		})
	}
}

func TestTraceLevelRendersAsTRACE(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelTrace, time.UTC)

	log.Trace("sql query")

	assert.Contains(t, buf.String(), "level=TRACE")
	assert.NotContains(t, buf.String(), "time=")
}

func TestModuleAndFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelDebug, time.UTC).
		Module("importer").
		Module("recordings").
		With(String("project", "p1"))

	log.Info("imported",
		Int("count", 3),
		Uint("id", 7),
		Bool("created", true),
		Float64("ratio", 0.123456),
		Duration("elapsed", 1500*time.Millisecond),
		Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "module=importer.recordings")
	assert.Contains(t, out, "project=p1")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "id=7")
	assert.Contains(t, out, "created=true")
	assert.Contains(t, out, "ratio=0.123")
	assert.Contains(t, out, "elapsed=1.5s")
	assert.Contains(t, out, "error=boom")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	buf := &bytes.Buffer{}
	parent := NewSlogLogger(buf, LogLevelInfo, time.UTC)
	_ = parent.With(String("child_only", "x"))

	parent.Info("parent")

	assert.NotContains(t, buf.String(), "child_only")
}

func TestWithContextAddsTraceID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewSlogLogger(buf, LogLevelInfo, time.UTC)

	log.WithContext(WithTraceID(context.Background(), "abc-123")).Info("traced")
	log.WithContext(context.Background()).Info("untraced")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "trace_id=abc-123")
	assert.NotContains(t, lines[1], "trace_id")
}

func TestCentralLoggerModuleLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: true, Level: "trace"},
		ModuleLevels: map[string]string{"datastore": "trace"},
	}, buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Close() })

	cl.Module("datastore").Module("sqlite").Trace("visible-trace")
	cl.Module("importer").Debug("hidden-debug")

	assert.Contains(t, buf.String(), "visible-trace")
	assert.NotContains(t, buf.String(), "hidden-debug")
}

func TestCentralLoggerFileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "import.log")
	cl, err := newCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: path},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	cl.Module("importer").Info("done", Int("recordings", 2))
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "done", record["msg"])
	assert.Equal(t, "importer", record["module"])
	assert.InDelta(t, 2, record["recordings"], 0)
}

func TestCentralLoggerRejectsBadTimezone(t *testing.T) {
	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)

	_, err = NewCentralLogger(nil)
	require.Error(t, err)
}

func TestGormAdapterTrace(t *testing.T) {
	buf := &bytes.Buffer{}
	var observed []error
	adapter := NewGormLoggerAdapter(NewSlogLogger(buf, LogLevelTrace, time.UTC), 50*time.Millisecond).
		WithQueryObserver(func(_ time.Duration, _ int64, err error) {
			observed = append(observed, err)
		})

	sql := func() (string, int64) { return "SELECT 1", 1 }

	adapter.Trace(context.Background(), time.Now(), sql, nil)
	adapter.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	adapter.Trace(context.Background(), time.Now(), sql, errors.New("disk I/O error"))
	adapter.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=\"sql query\""))
	assert.Contains(t, out, "query error")
	assert.Contains(t, out, "slow query")

	require.Len(t, observed, 4)
	assert.NoError(t, observed[1])
	assert.Error(t, observed[2])
}

func TestRedactSensitiveData(t *testing.T) {
	dsn := "importer:hunter2@tcp(localhost:3306)/annotations?parseTime=true"
	redacted := RedactSensitiveData(dsn)

	assert.NotContains(t, redacted, "hunter2")
	assert.Contains(t, redacted, "importer:[REDACTED]@tcp(localhost:3306)")
	assert.NotContains(t, RedactSensitiveData("password=hunter2 host=db"), "hunter2")
	assert.Empty(t, RedactSensitiveData(""))
}
