package pager

import (
	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/pagestore"
)

// State is a step of the capture loop
type State int

const (
	StateAwaitingCapture State = iota
	StateCaptured
	StateClassified
	StateAdvanced
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAwaitingCapture:
		return "awaiting_capture"
	case StateCaptured:
		return "captured"
	case StateClassified:
		return "classified"
	case StateAdvanced:
		return "advanced"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the loop has stopped in this state
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateAborted
}

// LoopState is the mutable state of one run. It is never shared between runs.
type LoopState struct {
	State      State
	Baseline   *cv.Fingerprint // fingerprint of the last saved page, nil before the first
	Duplicates int             // consecutive duplicates since the last saved page
	Terminal   bool

	captureFailures int
	probeBaseline   *cv.Fingerprint
}

// Outcome is how a run ended
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAborted   Outcome = "aborted"
)

// Reason explains an Outcome
type Reason string

const (
	ReasonEndOfDocument  Reason = "end_of_document"
	ReasonFocusChanged   Reason = "focus_changed"
	ReasonCancelled      Reason = "cancelled"
	ReasonPageLimit      Reason = "page_limit"
	ReasonAdvanceFailure Reason = "advance_failure"
	ReasonCaptureFailure Reason = "capture_failure"
	ReasonStoreFailure   Reason = "store_failure"
)

// RunResult summarises a finished run
type RunResult struct {
	RunID   string
	Outcome Outcome
	Reason  Reason
	Pages   []pagestore.PageRecord
	Err     error

	// FingerprintFailures counts frames that could not be hashed and were
	// counted as duplicates. Unreadable holds the last such error.
	FingerprintFailures int
	Unreadable          error
}

// Aborted reports whether the run stopped on a failure
func (r RunResult) Aborted() bool {
	return r.Outcome == OutcomeAborted
}
