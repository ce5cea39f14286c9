package logging

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jordanella.com/pagecapture-go/internal/events"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return New(zap.New(core), "pager"), logs
}

func TestLoggerWritesContextFields(t *testing.T) {
	logger, logs := observed(zapcore.DebugLevel)

	logger.InfoWithContext("page saved", map[string]interface{}{"index": 3, "distance": 12})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "page saved", entry.Message)
	assert.Equal(t, "pager", entry.LoggerName)
	assert.Equal(t, int64(3), entry.ContextMap()["index"])
	assert.Equal(t, int64(12), entry.ContextMap()["distance"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	logger, logs := observed(zapcore.WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("failed", errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "boom", logs.All()[1].ContextMap()["error"])
}

func TestContextLogger(t *testing.T) {
	logger, logs := observed(zapcore.DebugLevel)

	cl := logger.WithContext(map[string]interface{}{"target": "com.example.reader"})
	cl.Info("capturing")
	cl.Warn("retrying")

	require.Equal(t, 2, logs.Len())
	for _, e := range logs.All() {
		assert.Equal(t, "com.example.reader", e.ContextMap()["target"])
	}
}

func TestNilAndNopLoggers(t *testing.T) {
	var nilLogger *Logger
	assert.NotPanics(t, func() { nilLogger.Info("ignored") })
	assert.NotPanics(t, func() { Nop().Error("ignored", errors.New("x")) })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LogLevelInfo, ParseLevel("chatty"))
}

func TestEventLoggerWritesEvents(t *testing.T) {
	bus := events.NewEventBus(8)

	el, err := NewEventLogger(bus, t.TempDir())
	require.NoError(t, err)

	bus.Publish(events.NewPageSavedEvent("run-1", 1, "page_00001.png", "00000000000000ff", 40))
	bus.Stop()
	require.NoError(t, el.Close())

	data, err := os.ReadFile(el.Path())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"event_type":"page.saved"`))
	assert.True(t, strings.Contains(string(data), `"run_id":"run-1"`))
}
