package pager

import (
	"errors"
	"fmt"
)

var (
	// ErrCaptureFailed matches every CaptureError
	ErrCaptureFailed = errors.New("capture failed")

	// ErrAdvanceFailed matches every AdvanceError
	ErrAdvanceFailed = errors.New("next page input failed")
)

// CaptureError is returned when the frame source keeps failing
type CaptureError struct {
	Step     string
	Target   string
	Attempts int
	Err      error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s %s: %d consecutive failures: %v", e.Step, e.Target, e.Attempts, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

func (e *CaptureError) Is(target error) bool { return target == ErrCaptureFailed }

// AdvanceError is returned when no delivery path accepted the next-page input
type AdvanceError struct {
	Step   string
	Target string
}

func (e *AdvanceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Target, ErrAdvanceFailed)
}

func (e *AdvanceError) Unwrap() error { return ErrAdvanceFailed }

// FingerprintError wraps a hashing failure. The controller logs it and
// treats the frame as a duplicate.
type FingerprintError struct {
	Step   string
	Target string
	Err    error
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Target, e.Err)
}

func (e *FingerprintError) Unwrap() error { return e.Err }

// StoreError is returned when a new page cannot be persisted
type StoreError struct {
	Step   string
	Target string
	Index  int
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %d of %s: %v", e.Step, e.Index, e.Target, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
