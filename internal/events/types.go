package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Run lifecycle
	EventTypeRunStarted   EventType = "run.started"
	EventTypeRunCompleted EventType = "run.completed"
	EventTypeRunAborted   EventType = "run.aborted"

	// Page events
	EventTypePageSaved     EventType = "page.saved"
	EventTypePageDuplicate EventType = "page.duplicate"
	EventTypeProbeChecked  EventType = "page.probe_checked"

	// Collaborator failures
	EventTypeCaptureFailed     EventType = "capture.failed"
	EventTypeAdvanceFailed     EventType = "advance.failed"
	EventTypeFingerprintFailed EventType = "page.fingerprint_failed"

	// Export events
	EventTypePDFWritten EventType = "export.pdf_written"
)

// AllEventTypes lists every event type, for subscribers that want everything
var AllEventTypes = []EventType{
	EventTypeRunStarted,
	EventTypeRunCompleted,
	EventTypeRunAborted,
	EventTypePageSaved,
	EventTypePageDuplicate,
	EventTypeProbeChecked,
	EventTypeCaptureFailed,
	EventTypeAdvanceFailed,
	EventTypeFingerprintFailed,
	EventTypePDFWritten,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "pager", "export")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking until queued)
	Publish(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewRunStartedEvent creates a run started event
func NewRunStartedEvent(runID, target string) Event {
	return Event{
		Type:      EventTypeRunStarted,
		Source:    "pager",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id": runID,
			"target": target,
		},
	}
}

// NewRunFinishedEvent creates a run completed or aborted event
func NewRunFinishedEvent(runID string, aborted bool, reason string, pages int, err error) Event {
	eventType := EventTypeRunCompleted
	if aborted {
		eventType = EventTypeRunAborted
	}

	data := map[string]interface{}{
		"run_id": runID,
		"reason": reason,
		"pages":  pages,
	}
	if err != nil {
		data["error"] = err.Error()
	}

	return Event{
		Type:      eventType,
		Source:    "pager",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewPageSavedEvent creates a page saved event
func NewPageSavedEvent(runID string, index int, path, fingerprint string, distance int) Event {
	return Event{
		Type:      EventTypePageSaved,
		Source:    "pager",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":      runID,
			"index":       index,
			"path":        path,
			"fingerprint": fingerprint,
			"distance":    distance,
		},
	}
}

// NewPageDuplicateEvent creates a duplicate page event. unreadable marks a
// frame counted as a duplicate because it could not be fingerprinted.
func NewPageDuplicateEvent(runID string, distance, consecutive, limit int, unreadable bool) Event {
	return Event{
		Type:      EventTypePageDuplicate,
		Source:    "pager",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":      runID,
			"distance":    distance,
			"consecutive": consecutive,
			"limit":       limit,
			"unreadable":  unreadable,
		},
	}
}

// NewProbeCheckedEvent creates a probe pre-check event
func NewProbeCheckedEvent(runID string, distance int, isNew bool) Event {
	return Event{
		Type:      EventTypeProbeChecked,
		Source:    "pager",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":   runID,
			"distance": distance,
			"new":      isNew,
		},
	}
}

// NewCaptureFailedEvent creates a capture failure event
func NewCaptureFailedEvent(runID, target string, attempt int, err error) Event {
	return Event{
		Type:      EventTypeCaptureFailed,
		Source:    "pager",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id":  runID,
			"target":  target,
			"attempt": attempt,
			"error":   err.Error(),
		},
	}
}

// NewFingerprintFailedEvent creates an event for a frame that could not be
// fingerprinted
func NewFingerprintFailedEvent(runID, target string, err error) Event {
	return Event{
		Type:      EventTypeFingerprintFailed,
		Source:    "pager",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id": runID,
			"target": target,
			"error":  err.Error(),
		},
	}
}

// NewAdvanceFailedEvent creates a next-page input failure event
func NewAdvanceFailedEvent(runID, target string) Event {
	return Event{
		Type:      EventTypeAdvanceFailed,
		Source:    "pager",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"run_id": runID,
			"target": target,
		},
	}
}

// NewPDFWrittenEvent creates a PDF export event
func NewPDFWrittenEvent(path string, pages int) Event {
	return Event{
		Type:      EventTypePDFWritten,
		Source:    "export",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"path":  path,
			"pages": pages,
		},
	}
}
