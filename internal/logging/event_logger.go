package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jordanella.com/pagecapture-go/internal/events"
)

// EventLogger subscribes to the event bus and writes every event to a JSON
// log file
type EventLogger struct {
	logger          *Logger
	eventBus        events.EventBus
	subscriptionIDs []events.SubscriptionID
	logFile         *os.File
	path            string
}

// NewEventLogger creates a new event logger writing to logDir
func NewEventLogger(eventBus events.EventBus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(logFile), zapcore.DebugLevel)

	el := &EventLogger{
		logger:   New(zap.New(core), "events"),
		eventBus: eventBus,
		logFile:  logFile,
		path:     logPath,
	}

	el.subscribeToEvents()

	return el, nil
}

// subscribeToEvents subscribes to all event types
func (el *EventLogger) subscribeToEvents() {
	for _, eventType := range events.AllEventTypes {
		el.subscriptionIDs = append(el.subscriptionIDs, el.eventBus.Subscribe(eventType, el.handleEvent))
	}
}

// handleEvent handles incoming events and logs them
func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"event_type": string(event.Type),
		"source":     event.Source,
		"event_time": event.Timestamp,
	}

	for k, v := range event.Data {
		context[k] = v
	}

	el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Path returns the log file path
func (el *EventLogger) Path() string {
	return el.path
}

// Close unsubscribes and closes the log file. Stop the bus first so queued
// events are flushed.
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptionIDs {
		el.eventBus.Unsubscribe(id)
	}
	el.subscriptionIDs = nil

	_ = el.logger.Zap().Sync()
	if el.logFile != nil {
		return el.logFile.Close()
	}
	return nil
}
